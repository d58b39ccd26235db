package model

import (
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// MutLocKind is the kind of program point a mutation applies to.
type MutLocKind int

// Mutation location kinds.
const (
	LocFn MutLocKind = iota
	LocFnParam
	LocFnBodyStmt
	LocFnBodyExpr
)

func (k MutLocKind) String() string {
	switch k {
	case LocFnParam:
		return "param"
	case LocFnBodyStmt:
		return "stmt"
	case LocFnBodyExpr:
		return "expr"
	default:
		return "fn"
	}
}

// BodyResolutions maps syntax nodes of one definition body to their resolved
// counterparts.
type BodyResolutions struct {
	nodes map[ast.NodeID]hir.Node
}

// NewBodyResolutions creates an empty correspondence map.
func NewBodyResolutions() *BodyResolutions {
	return &BodyResolutions{nodes: make(map[ast.NodeID]hir.Node)}
}

// Insert records that the syntax node id lowers to n.
func (r *BodyResolutions) Insert(id ast.NodeID, n hir.Node) {
	r.nodes[id] = n
}

// Lookup returns the resolved counterpart of a syntax node.
func (r *BodyResolutions) Lookup(id ast.NodeID) (hir.Node, bool) {
	if r == nil {
		return nil, false
	}

	n, ok := r.nodes[id]

	return n, ok
}

// Len returns the number of recorded pairs.
func (r *BodyResolutions) Len() int {
	if r == nil {
		return 0
	}

	return len(r.nodes)
}

// LoweredFn is a definition body in both representations.
type LoweredFn struct {
	Def         *hir.Definition
	Ast         *ast.Fn
	Hir         *hir.Fn
	Typeck      hir.TypeckResults
	Resolutions *BodyResolutions
}

// MutLoc is a program point inside a target under examination.
type MutLoc struct {
	Kind MutLocKind
	Ast  ast.Node
	Hir  hir.Node
	Fn   *LoweredFn
}

// Span returns the source span of the location.
func (l MutLoc) Span() ast.Span {
	if l.Ast == nil {
		return ast.Span{}
	}

	return l.Ast.NodeSpan()
}

// TypeContext answers trait queries about types.
type TypeContext interface {
	ImplementsTrait(ty hir.Ty, trait string, args ...hir.Ty) bool
	AssocType(ty hir.Ty, trait string, args []hir.Ty, name string) (hir.Ty, bool)
}

// MutCtxt is everything an operator may inspect at a location.
type MutCtxt struct {
	Types TypeContext
	// DefSite is the span given to synthesized nodes.
	DefSite  ast.Span
	Location MutLoc
}

// Operator proposes mutations at a location. Implementations must be pure
// and must only describe edits, never modify the trees.
type Operator interface {
	Name() string
	TryApply(mcx *MutCtxt) []Mutation
}
