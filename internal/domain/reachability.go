package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/maps"

	"github.com/babydessy/mutest-rs/internal/adapter"
	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// Reachability is the outcome of walking the call graph from the tests.
type Reachability struct {
	Targets     []*m.Target
	CallGraph   *CallGraph
	Diagnostics []m.Diagnostic
}

// Target returns the target for def, or nil.
func (r *Reachability) Target(def hir.DefID) *m.Target {
	for _, t := range r.Targets {
		if t.Def == def {
			return t
		}
	}

	return nil
}

// ReachabilityAnalyzer finds the definitions reachable from the test suite.
type ReachabilityAnalyzer interface {
	Analyze(ctx context.Context, oracle adapter.Oracle, depth int) (*Reachability, error)
}

type reachabilityAnalyzer struct{}

// NewReachabilityAnalyzer creates a breadth-first ReachabilityAnalyzer.
func NewReachabilityAnalyzer() ReachabilityAnalyzer {
	return &reachabilityAnalyzer{}
}

// frontier holds the instances discovered in one round together with the
// tests reaching them and the unsafety of the path they arrived through.
type frontier struct {
	order   []string
	entries map[string]*frontierEntry
}

type frontierEntry struct {
	inst  hir.Instance
	tests map[hir.TestID]*m.UnsafeSource
}

func newFrontier() *frontier {
	return &frontier{entries: make(map[string]*frontierEntry)}
}

func (f *frontier) add(inst hir.Instance, test hir.TestID, source *m.UnsafeSource) {
	key := inst.String()

	entry, ok := f.entries[key]
	if !ok {
		entry = &frontierEntry{inst: inst, tests: make(map[hir.TestID]*m.UnsafeSource)}
		f.entries[key] = entry
		f.order = append(f.order, key)
	}

	if prev, seen := entry.tests[test]; seen {
		entry.tests[test] = m.MaxUnsafeSource(prev, source)
		return
	}

	entry.tests[test] = source
}

func (f *frontier) len() int {
	return len(f.order)
}

// sourceRank orders optional unsafe sources, nil first.
func sourceRank(source *m.UnsafeSource) int {
	if source == nil {
		return 0
	}

	return int(*source) + 1
}

type reachabilityRun struct {
	oracle   adapter.Oracle
	depth    int
	targets  map[hir.DefID]*m.Target
	graph    *CallGraph
	diags    *diagnostics
	expanded map[string]map[hir.TestID]int
}

func (r *reachabilityAnalyzer) Analyze(ctx context.Context, oracle adapter.Oracle, depth int) (*Reachability, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "reachability")
	defer span.End()

	if depth < 1 {
		return nil, fmt.Errorf("call graph depth must be at least 1, got %d", depth)
	}

	run := &reachabilityRun{
		oracle:   oracle,
		depth:    depth,
		targets:  make(map[hir.DefID]*m.Target),
		graph:    NewCallGraph(),
		diags:    &diagnostics{},
		expanded: make(map[string]map[hir.TestID]int),
	}

	tests, err := oracle.Tests(ctx)
	if err != nil {
		slog.Error("failed to enumerate tests", "error", err)
		return nil, fmt.Errorf("enumerate tests: %w", err)
	}

	current, err := run.seed(ctx, tests)
	if err != nil {
		return nil, err
	}

	for distance := 0; distance < depth && current.len() > 0; distance++ {
		next := newFrontier()

		for _, key := range current.order {
			if err := run.visit(ctx, current.entries[key], distance, next); err != nil {
				return nil, err
			}
		}

		slog.Debug("reachability round", "distance", distance, "visited", current.len(), "discovered", next.len())

		current = next
	}

	for _, cycle := range run.graph.Cycles() {
		run.diags.note(cycle[0], run.defSpan(ctx, cycle[0]), "recursive call cycle: %v", cycle)
	}

	targets := maps.Values(run.targets)
	m.SortTargets(targets)

	span.SetAttributes(
		attribute.Int("tests", len(tests)),
		attribute.Int("targets", len(targets)),
	)

	return &Reachability{Targets: targets, CallGraph: run.graph, Diagnostics: run.diags.list()}, nil
}

func (r *reachabilityRun) defSpan(ctx context.Context, id hir.DefID) ast.Span {
	if def, err := r.oracle.Definition(ctx, id); err == nil {
		return def.Span
	}

	return ast.Span{}
}

// seed records the direct callees of every test. Their call edges carry no
// unsafety of their own.
func (r *reachabilityRun) seed(ctx context.Context, tests []hir.Test) (*frontier, error) {
	out := newFrontier()

	for _, test := range tests {
		r.graph.AddTest(test.Def)

		calls, err := r.oracle.Callees(ctx, hir.Instance{Def: test.Def})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			r.diags.warn(test.Def, r.defSpan(ctx, test.Def), "cannot inspect test body: %v", err)

			continue
		}

		for _, call := range calls {
			callee, ok, err := r.resolve(ctx, test.Def, call, call.Callee)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}

			r.graph.AddCall(test.Def, callee.Def, 0, false)
			out.add(callee, test.ID, nil)
		}
	}

	return out, nil
}

// resolve maps a call site to a concrete instance. Dynamic and unresolvable
// calls are reported and dropped.
func (r *reachabilityRun) resolve(ctx context.Context, caller hir.DefID, call hir.CallSite, callee hir.Instance) (hir.Instance, bool, error) {
	if call.Dynamic {
		r.diags.warn(caller, call.Span, "dynamic call to %s cannot be resolved statically; ignoring it", callee)
		return hir.Instance{}, false, nil
	}

	resolved, err := r.oracle.Resolve(ctx, callee)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return hir.Instance{}, false, ctxErr
		}

		r.diags.warn(caller, call.Span, "cannot resolve call to %s: %v", callee, err)

		return hir.Instance{}, false, nil
	}

	return resolved, true, nil
}

// skipReason tells why a definition can never be a target.
func skipReason(def *hir.Definition) string {
	switch {
	case def.IsConstContext():
		return "evaluated at compile time"
	case !def.Local || !def.HasBody:
		return "no local body"
	case def.IsTest:
		return "test function"
	case def.InTest:
		return "inside a test"
	case def.TestOnly:
		return "only compiled for tests"
	case def.Skip:
		return "marked to be skipped"
	default:
		return ""
	}
}

// ownUnsafety classifies a definition by its own declaration and body.
func ownUnsafety(def *hir.Definition) m.Unsafety {
	switch {
	case def.Unsafe:
		return m.UnsafeOf(m.Unsafe)
	case def.EnclosesUnsafe:
		return m.UnsafeOf(m.EnclosingUnsafe)
	default:
		return m.SafeUnsafety
	}
}

// edgeSource is the unsafety a call edge passes on to its callee.
func edgeSource(caller *hir.Definition, call hir.CallSite, running *m.UnsafeSource) *m.UnsafeSource {
	if call.InUnsafeBlock || caller.Unsafe {
		unsafe := m.Unsafe
		return &unsafe
	}

	if caller.EnclosesUnsafe {
		enclosing := m.EnclosingUnsafe
		return m.MaxUnsafeSource(running, &enclosing)
	}

	return running
}

func (r *reachabilityRun) visit(ctx context.Context, entry *frontierEntry, distance int, next *frontier) error {
	def, err := r.oracle.Definition(ctx, entry.inst.Def)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		r.diags.warn(entry.inst.Def, ast.Span{}, "unknown call target: %v", err)

		return nil
	}

	if reason := skipReason(def); reason != "" {
		slog.Debug("skipping definition", "def", def.ID, "reason", reason)
		return nil
	}

	tests := maps.Keys(entry.tests)
	sort.Slice(tests, func(i, j int) bool { return tests[i] < tests[j] })

	r.record(def, entry, tests, distance)

	if distance >= r.depth-1 {
		return nil
	}

	key := entry.inst.String()

	expanded, ok := r.expanded[key]
	if !ok {
		expanded = make(map[hir.TestID]int)
		r.expanded[key] = expanded
	}

	// Only tests that reach this instance through a more unsafe path than
	// before need to be propagated again.
	var pending []hir.TestID

	for _, test := range tests {
		rank := sourceRank(entry.tests[test])
		if prev, seen := expanded[test]; seen && prev >= rank {
			continue
		}

		expanded[test] = rank
		pending = append(pending, test)
	}

	if len(pending) == 0 {
		return nil
	}

	calls, err := r.oracle.Callees(ctx, entry.inst)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		r.diags.warn(def.ID, def.Span, "cannot inspect body of %s: %v", entry.inst, err)

		return nil
	}

	for _, call := range calls {
		callee := hir.Instantiate(call.Callee, def.Generics, entry.inst.Args)

		resolved, ok, err := r.resolve(ctx, def.ID, call, callee)
		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		unsafeEdge := false

		for _, test := range pending {
			source := edgeSource(def, call, entry.tests[test])
			unsafeEdge = unsafeEdge || source != nil
			next.add(resolved, test, source)
		}

		r.graph.AddCall(def.ID, resolved.Def, distance+1, unsafeEdge)
	}

	return nil
}

// record creates or updates the target for def. Distances only shrink and
// unsafety only grows.
func (r *reachabilityRun) record(def *hir.Definition, entry *frontierEntry, tests []hir.TestID, distance int) {
	target, ok := r.targets[def.ID]
	if !ok {
		target = m.NewTarget(def, ownUnsafety(def), distance)
		r.targets[def.ID] = target
	}

	target.Distance = min(target.Distance, distance)

	for _, test := range tests {
		source := entry.tests[test]
		target.Unsafety = target.Unsafety.Max(m.TaintedBy(source))

		assoc, ok := target.ReachableFrom[test]
		if !ok {
			target.ReachableFrom[test] = &m.EntryPointAssociation{Distance: distance, UnsafeCallPath: source}
			continue
		}

		assoc.Distance = min(assoc.Distance, distance)
		assoc.UnsafeCallPath = m.MaxUnsafeSource(assoc.UnsafeCallPath, source)
	}
}
