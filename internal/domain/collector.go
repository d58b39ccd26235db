package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/babydessy/mutest-rs/internal/adapter"
	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// ErrTreeMismatch is returned when the syntax tree and the resolved tree of a
// body disagree on their shape.
var ErrTreeMismatch = errors.New("syntax and resolved trees do not match")

// CollectOptions controls mutation collection.
type CollectOptions struct {
	Targeting     m.UnsafeTargeting
	MutationDepth int
	Operators     []m.Operator
}

// Collection is the outcome of visiting every target.
type Collection struct {
	Muts        []*m.Mut
	Diagnostics []m.Diagnostic
}

// MutationCollector walks target bodies and asks every operator for
// mutations at every eligible location.
type MutationCollector interface {
	Collect(ctx context.Context, oracle adapter.Oracle, targets []*m.Target, opts CollectOptions) (*Collection, error)
}

type mutationCollector struct{}

// NewMutationCollector creates a MutationCollector.
func NewMutationCollector() MutationCollector {
	return &mutationCollector{}
}

func (c *mutationCollector) Collect(ctx context.Context, oracle adapter.Oracle, targets []*m.Target, opts CollectOptions) (*Collection, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "collect_mutations")
	defer span.End()

	sorted := make([]*m.Target, len(targets))
	copy(sorted, targets)
	m.SortTargets(sorted)

	diags := &diagnostics{}
	nextID := m.MutID(1)
	bodies := make(map[hir.DefID]*m.LoweredFn)

	var muts []*m.Mut

	for _, target := range sorted {
		if !opts.Targeting.Permits(target.Unsafety) {
			slog.Debug("target not permitted by unsafe targeting", "def", target.Def, "unsafety", target.Unsafety.String())
			continue
		}

		if target.Distance >= opts.MutationDepth {
			slog.Debug("target beyond mutation depth", "def", target.Def, "distance", target.Distance)
			continue
		}

		body, err := oracle.Body(ctx, target.Def)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}

			diags.warn(target.Def, target.Span, "cannot inspect body: %v", err)

			continue
		}

		v := &visitor{
			types:     oracle,
			target:    target,
			fn:        body,
			ops:       opts.Operators,
			targeting: opts.Targeting,
			nextID:    &nextID,
			diags:     diags,
		}

		if err := v.visitFn(); err != nil {
			slog.Error("failed to visit target", "def", target.Def, "error", err)
			return nil, fmt.Errorf("visit %s: %w", target.Def, err)
		}

		bodies[target.Def] = body
		muts = append(muts, v.muts...)
	}

	if err := ValidateSubstitutions(muts, bodies); err != nil {
		slog.Error("operators produced invalid substitutions", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("mutations", len(muts)))

	return &Collection{Muts: muts, Diagnostics: diags.list()}, nil
}

// visitor walks one body on both trees at once. Every node it offers to the
// operators has its resolved counterpart looked up in the body resolutions.
type visitor struct {
	types     m.TypeContext
	target    *m.Target
	fn        *m.LoweredFn
	ops       []m.Operator
	targeting m.UnsafeTargeting
	inUnsafe  bool
	nextID    *m.MutID
	muts      []*m.Mut
	diags     *diagnostics
}

func (v *visitor) visitFn() error {
	fn := v.fn.Ast
	if fn.Attrs.Has(ast.AttrSkip) {
		return nil
	}

	// The whole body of an unsafe fn is an unsafe context.
	v.inUnsafe = fn.Unsafe

	v.apply(m.LocFn, fn)

	for _, p := range fn.Params {
		if p.Attrs.Has(ast.AttrSkip) {
			continue
		}

		v.apply(m.LocFnParam, p)
	}

	return v.visitBlock(fn.Body)
}

// apply offers a location to every operator. Synthetic nodes and nodes
// without a resolved counterpart are not locations.
func (v *visitor) apply(kind m.MutLocKind, node ast.Node) {
	span := node.NodeSpan()
	if span.IsDummy() || span.FromExpansion() {
		return
	}

	resolved, ok := v.fn.Resolutions.Lookup(node.NodeID())
	if !ok {
		v.diags.note(v.target.Def, span, "no resolved node for %s", ast.Sprint(node))
		return
	}

	mcx := &m.MutCtxt{
		Types:   v.types,
		DefSite: v.fn.Def.Span.WithExpn(ast.RootExpn),
		Location: m.MutLoc{
			Kind: kind,
			Ast:  node,
			Hir:  resolved,
			Fn:   v.fn,
		},
	}

	for _, op := range v.ops {
		for _, mutation := range op.TryApply(mcx) {
			v.muts = append(v.muts, &m.Mut{
				ID:              *v.nextID,
				Target:          v.target,
				Span:            span,
				Location:        kind,
				Node:            node,
				IsInUnsafeBlock: v.inUnsafe,
				Mutation:        mutation,
			})
			*v.nextID++
		}
	}
}

func (v *visitor) visitBlock(block *ast.Block) error {
	if block == nil {
		return nil
	}

	if block.Unsafe {
		if !v.targeting.PermitsInsideUnsafe() {
			return nil
		}

		prev := v.inUnsafe
		v.inUnsafe = true

		defer func() { v.inUnsafe = prev }()
	}

	for _, stmt := range block.Stmts {
		if err := v.visitStmt(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (v *visitor) visitStmt(stmt ast.Stmt) error {
	if stmt.NodeAttrs().Has(ast.AttrSkip) {
		return nil
	}

	switch s := stmt.(type) {
	case *ast.Local:
		v.apply(m.LocFnBodyStmt, s)

		if err := v.visitExpr(s.Init); err != nil {
			return err
		}

		return v.visitBlock(s.Else)
	case *ast.ExprStmt:
		// Without a semicolon the statement only wraps its expression.
		if s.Semi {
			v.apply(m.LocFnBodyStmt, s)
		}

		return v.visitExpr(s.X)
	case *ast.MacCallStmt:
		v.apply(m.LocFnBodyStmt, s)
	}

	return nil
}

//nolint:cyclop // one case per expression kind
func (v *visitor) visitExpr(expr ast.Expr) error {
	if expr == nil || expr.NodeAttrs().Has(ast.AttrSkip) {
		return nil
	}

	switch e := expr.(type) {
	case *ast.Closure:
		// Closure bodies belong to their own definition.
		return nil
	case *ast.Paren:
		return v.visitExpr(e.X)
	case *ast.BlockExpr:
		if e.Block.Unsafe && !v.targeting.PermitsInsideUnsafe() {
			return nil
		}

		if len(e.Block.Stmts) != 1 {
			v.apply(m.LocFnBodyExpr, e)
		}

		return v.visitBlock(e.Block)
	case *ast.If:
		return v.visitIf(e)
	}

	v.apply(m.LocFnBodyExpr, expr)

	switch e := expr.(type) {
	case *ast.Assign:
		return v.visitExpr(e.Rhs)
	case *ast.AssignOp:
		return v.visitExpr(e.Rhs)
	case *ast.Match:
		if err := v.visitExpr(e.Scrutinee); err != nil {
			return err
		}

		for _, arm := range e.Arms {
			if arm.Attrs.Has(ast.AttrSkip) {
				continue
			}

			if err := v.visitExpr(arm.Guard); err != nil {
				return err
			}

			if err := v.visitExpr(arm.Body); err != nil {
				return err
			}
		}

		return nil
	case *ast.While:
		if err := v.visitExpr(e.Cond); err != nil {
			return err
		}

		return v.visitBlock(e.Body)
	case *ast.Loop:
		return v.visitBlock(e.Body)
	case *ast.Call:
		return v.visitExprs(e.Args)
	case *ast.MethodCall:
		if err := v.visitExpr(e.Recv); err != nil {
			return err
		}

		return v.visitExprs(e.Args)
	}

	for _, child := range ast.Children(expr) {
		if childExpr, ok := child.(ast.Expr); ok {
			if err := v.visitExpr(childExpr); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *visitor) visitExprs(exprs []ast.Expr) error {
	for _, e := range exprs {
		if err := v.visitExpr(e); err != nil {
			return err
		}
	}

	return nil
}

// visitIf walks a conditional and unrolls its else chain.
func (v *visitor) visitIf(e *ast.If) error {
	v.apply(m.LocFnBodyExpr, e)

	if err := v.visitExpr(e.Cond); err != nil {
		return err
	}

	if err := v.visitBlock(e.Then); err != nil {
		return err
	}

	switch els := e.Else.(type) {
	case nil:
		return nil
	case *ast.If:
		if err := v.expectResolved(els, func(n hir.Node) bool { _, ok := n.(*hir.If); return ok }); err != nil {
			return err
		}

		return v.visitIf(els)
	case *ast.BlockExpr:
		if err := v.expectResolved(els, func(n hir.Node) bool { _, ok := n.(*hir.BlockExpr); return ok }); err != nil {
			return err
		}

		if els.Block.Unsafe && !v.targeting.PermitsInsideUnsafe() {
			return nil
		}

		return v.visitBlock(els.Block)
	default:
		return fmt.Errorf("%w: else branch at %s is %T", ErrTreeMismatch, els.NodeSpan(), els)
	}
}

// expectResolved checks the resolved counterpart of node, when there is one,
// against the shape the syntax tree implies.
func (v *visitor) expectResolved(node ast.Node, matches func(hir.Node) bool) error {
	resolved, ok := v.fn.Resolutions.Lookup(node.NodeID())
	if !ok || matches(resolved) {
		return nil
	}

	return fmt.Errorf("%w: %T at %s resolves to %T", ErrTreeMismatch, node, node.NodeSpan(), resolved)
}
