package domain

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	ybgraph "github.com/yourbasic/graph"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/container/intsets"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// MutationConflictGraph records which pairs of mutations may not share a
// mutant and which mutations must always be run alone.
type MutationConflictGraph struct {
	g       *ybgraph.Mutable
	unsafes *intsets.Sparse
	size    int
}

// NewMutationConflictGraph creates a graph over mutation ids 1..size.
func NewMutationConflictGraph(size int) *MutationConflictGraph {
	return &MutationConflictGraph{
		g:       ybgraph.New(size + 1),
		unsafes: &intsets.Sparse{},
		size:    size,
	}
}

// Size returns the number of mutations the graph was built for.
func (g *MutationConflictGraph) Size() int {
	return g.size
}

func (g *MutationConflictGraph) contains(id m.MutID) bool {
	return id >= 1 && int(id) <= g.size
}

// AddConflict marks a and b as mutually conflicting.
func (g *MutationConflictGraph) AddConflict(a, b m.MutID) {
	if a == b || !g.contains(a) || !g.contains(b) {
		return
	}

	g.g.AddBoth(int(a), int(b))
}

// MarkUnsafe isolates a mutation from every other mutation.
func (g *MutationConflictGraph) MarkUnsafe(id m.MutID) {
	if g.contains(id) {
		g.unsafes.Insert(int(id))
	}
}

// IsUnsafe reports whether the mutation must run alone.
func (g *MutationConflictGraph) IsUnsafe(id m.MutID) bool {
	return g.unsafes.Has(int(id))
}

// Conflicting reports whether a and b may not share a mutant.
func (g *MutationConflictGraph) Conflicting(a, b m.MutID) bool {
	if a == b || !g.contains(a) || !g.contains(b) {
		return false
	}

	if g.IsUnsafe(a) || g.IsUnsafe(b) {
		return true
	}

	return g.g.Edge(int(a), int(b))
}

// Compatible reports whether a and b may share a mutant.
func (g *MutationConflictGraph) Compatible(a, b m.MutID) bool {
	return a != b && !g.Conflicting(a, b)
}

// ConflictCount returns how many other mutations conflict with id.
func (g *MutationConflictGraph) ConflictCount(id m.MutID) int {
	if !g.contains(id) {
		return 0
	}

	if g.IsUnsafe(id) {
		return g.size - 1
	}

	count := 0
	for other := 1; other <= g.size; other++ {
		if g.Conflicting(id, m.MutID(other)) {
			count++
		}
	}

	return count
}

// Conflicts returns every conflicting pair (a < b) in id order, unsafe
// isolation included.
func (g *MutationConflictGraph) Conflicts() [][2]m.MutID {
	var out [][2]m.MutID

	for a := 1; a <= g.size; a++ {
		for b := a + 1; b <= g.size; b++ {
			if g.Conflicting(m.MutID(a), m.MutID(b)) {
				out = append(out, [2]m.MutID{m.MutID(a), m.MutID(b)})
			}
		}
	}

	return out
}

// NumConflicts returns the number of conflicting pairs.
func (g *MutationConflictGraph) NumConflicts() int {
	return len(g.Conflicts())
}

// Unsafes returns the isolated mutation ids in order.
func (g *MutationConflictGraph) Unsafes() []m.MutID {
	var out []m.MutID
	for _, id := range g.unsafes.AppendTo(nil) {
		out = append(out, m.MutID(id))
	}

	return out
}

// GraphOptions controls how the conflict graph is rendered.
type GraphOptions struct {
	// Compatibility renders the complement, the pairs that may be batched.
	Compatibility bool
	// ExcludeUnsafe leaves isolated mutations out of the rendering.
	ExcludeUnsafe bool
}

func (g *MutationConflictGraph) pairs(opts GraphOptions) [][2]m.MutID {
	var out [][2]m.MutID

	for a := 1; a <= g.size; a++ {
		if opts.ExcludeUnsafe && g.IsUnsafe(m.MutID(a)) {
			continue
		}

		for b := a + 1; b <= g.size; b++ {
			if opts.ExcludeUnsafe && g.IsUnsafe(m.MutID(b)) {
				continue
			}

			if g.Conflicting(m.MutID(a), m.MutID(b)) != opts.Compatibility {
				out = append(out, [2]m.MutID{m.MutID(a), m.MutID(b)})
			}
		}
	}

	return out
}

// Format renders one `a -- b` line per pair.
func (g *MutationConflictGraph) Format(opts GraphOptions) string {
	var b strings.Builder

	for _, p := range g.pairs(opts) {
		fmt.Fprintf(&b, "%d -- %d\n", p[0], p[1])
	}

	return b.String()
}

// FormatDOT renders the graph in graphviz format. Unsafe mutations are
// drawn in red.
func (g *MutationConflictGraph) FormatDOT(opts GraphOptions) string {
	var b strings.Builder

	name := "conflicts"
	if opts.Compatibility {
		name = "compatibility"
	}

	fmt.Fprintf(&b, "graph %s {\n", name)

	for id := 1; id <= g.size; id++ {
		unsafe := g.IsUnsafe(m.MutID(id))
		if unsafe && opts.ExcludeUnsafe {
			continue
		}

		if unsafe {
			fmt.Fprintf(&b, "  %d [color=red];\n", id)
		} else {
			fmt.Fprintf(&b, "  %d;\n", id)
		}
	}

	for _, p := range g.pairs(opts) {
		fmt.Fprintf(&b, "  %d -- %d;\n", p[0], p[1])
	}

	b.WriteString("}\n")

	return b.String()
}

// BuildOptions configures conflict graph construction.
type BuildOptions struct {
	Targeting m.UnsafeTargeting
	// Parallel bounds the goroutines scanning rows of the pair matrix.
	// Zero means one per CPU.
	Parallel int
}

// ConflictGraphBuilder computes the conflict graph of a set of mutations.
type ConflictGraphBuilder interface {
	Build(ctx context.Context, muts []*m.Mut, opts BuildOptions) (*MutationConflictGraph, error)
}

type conflictGraphBuilder struct{}

// NewConflictGraphBuilder creates a ConflictGraphBuilder.
func NewConflictGraphBuilder() ConflictGraphBuilder {
	return &conflictGraphBuilder{}
}

func (c *conflictGraphBuilder) Build(ctx context.Context, muts []*m.Mut, opts BuildOptions) (*MutationConflictGraph, error) {
	targeting := opts.Targeting

	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "conflict_graph")
	defer span.End()

	size := 0

	for i, mut := range muts {
		if int(mut.ID) != i+1 {
			return nil, fmt.Errorf("mutation ids must be dense from 1: found %d at position %d", mut.ID, i)
		}

		if mut.Target != nil && !targeting.Permits(mut.Target.Unsafety) {
			return nil, fmt.Errorf("mutation %d targets %s (%s), which %s targeting does not permit",
				mut.ID, mut.Target.Def, mut.Target.Unsafety, targeting)
		}

		size = i + 1
	}

	graph := NewMutationConflictGraph(size)
	tests := reachingTestSets(muts)

	for _, mut := range muts {
		if mut.IsUnsafe(targeting) {
			graph.MarkUnsafe(mut.ID)
		}
	}

	rows := make([][]m.MutID, len(muts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallel)

	for i := range muts {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rows[i] = conflictRow(muts, tests, i)

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		slog.Error("conflict graph construction cancelled", "error", err)
		return nil, fmt.Errorf("build conflict graph: %w", err)
	}

	for i, row := range rows {
		for _, other := range row {
			graph.AddConflict(muts[i].ID, other)
		}
	}

	span.SetAttributes(
		attribute.Int("mutations", size),
		attribute.Int("unsafe", graph.unsafes.Len()),
	)

	slog.Debug("conflict graph built", "mutations", size, "unsafe", graph.unsafes.Len())

	return graph, nil
}

// conflictRow returns the mutations after muts[i] that conflict with it by
// sharing a reaching test or a substitution anchor.
func conflictRow(muts []*m.Mut, tests []*intsets.Sparse, i int) []m.MutID {
	var row []m.MutID

	a := muts[i]

	for j := i + 1; j < len(muts); j++ {
		b := muts[j]

		if tests[i].Intersects(tests[j]) || sharesAnchor(a, b) {
			row = append(row, b.ID)
		}
	}

	return row
}

// reachingTestSets numbers every test and returns the set of tests reaching
// the target of each mutation.
func reachingTestSets(muts []*m.Mut) []*intsets.Sparse {
	index := make(map[hir.TestID]int)
	sets := make([]*intsets.Sparse, len(muts))

	for i, mut := range muts {
		set := &intsets.Sparse{}

		if mut.Target != nil {
			for _, test := range mut.Target.ReachingTests() {
				n, ok := index[test]
				if !ok {
					n = len(index)
					index[test] = n
				}

				set.Insert(n)
			}
		}

		sets[i] = set
	}

	return sets
}

func sharesAnchor(a, b *m.Mut) bool {
	for _, sa := range a.Substs() {
		for _, sb := range b.Substs() {
			if sa.Location.ConflictsWith(sb.Location) {
				return true
			}
		}
	}

	return false
}
