package operators

import (
	"fmt"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// OpSwap swaps a binary operator for its partner, in both standalone and
// compound assignment form. A swap is only proposed when the operand types
// implement the replacement operator with the same result type.
type OpSwap struct {
	name  string
	group string
	pairs map[ast.BinOp]ast.BinOp
	// untyped swaps need no trait check, e.g. the short-circuit operators.
	untyped bool
}

var opSwaps = []OpSwap{
	newOpSwap("op_add_sub_swap", "", ast.OpAdd, ast.OpSub),
	newOpSwap("op_add_mul_swap", "", ast.OpAdd, ast.OpMul),
	newOpSwap("op_mul_div_swap", "", ast.OpMul, ast.OpDiv),
	newOpSwap("op_div_rem_swap", "", ast.OpDiv, ast.OpRem),
	newOpSwap("bit_op_or_xor_swap", "bitwise", ast.OpBitOr, ast.OpBitXor),
	newOpSwap("bit_op_or_and_swap", "bitwise", ast.OpBitOr, ast.OpBitAnd),
	newOpSwap("bit_op_xor_and_swap", "bitwise", ast.OpBitXor, ast.OpBitAnd),
	newOpSwap("bit_op_shift_dir_swap", "bitwise", ast.OpShl, ast.OpShr),
	{
		name:    "logical_op_and_or_swap",
		group:   "logical",
		pairs:   map[ast.BinOp]ast.BinOp{ast.OpAnd: ast.OpOr, ast.OpOr: ast.OpAnd},
		untyped: true,
	},
}

func newOpSwap(name, group string, a, b ast.BinOp) OpSwap {
	return OpSwap{name: name, group: group, pairs: map[ast.BinOp]ast.BinOp{a: b, b: a}}
}

// OpSwapByName returns the swap operator with the given name.
func OpSwapByName(name string) (OpSwap, bool) {
	for _, op := range opSwaps {
		if op.name == name {
			return op, true
		}
	}

	return OpSwap{}, false
}

// Name implements model.Operator.
func (o OpSwap) Name() string {
	return o.name
}

// TryApply implements model.Operator.
func (o OpSwap) TryApply(mcx *m.MutCtxt) []m.Mutation {
	loc := mcx.Location
	if loc.Kind != m.LocFnBodyExpr || loc.Fn == nil {
		return nil
	}

	var (
		op       ast.BinOp
		assign   bool
		lhs, rhs ast.Expr
	)

	switch e := loc.Ast.(type) {
	case *ast.Binary:
		op, lhs, rhs = e.Op, e.X, e.Y
	case *ast.AssignOp:
		op, lhs, rhs, assign = e.Op, e.Lhs, e.Rhs, true
	default:
		return nil
	}

	replacement, ok := o.pairs[op]
	if !ok {
		return nil
	}

	if !o.untyped && !o.typeChecks(mcx, replacement, assign) {
		return nil
	}

	var substitute ast.Expr
	if assign {
		substitute = &ast.AssignOp{Meta: meta(mcx), Op: replacement, Lhs: lhs, Rhs: rhs}
	} else {
		substitute = &ast.Binary{Meta: meta(mcx), Op: replacement, X: lhs, Y: rhs}
	}

	kind := "operator"
	if assign {
		kind = "assignment operator"
	}

	if o.group != "" {
		kind = o.group + " " + kind
	}

	return []m.Mutation{{
		Operator:    o.name,
		DisplayName: fmt.Sprintf("swap %s `%s` for `%s`", kind, op, replacement),
		SpanLabel:   fmt.Sprintf("swap %s for `%s`", kind, replacement),
		Substs:      replace(loc.Ast, m.ExprSubst(substitute)),
	}}
}

// typeChecks reports whether the operand types implement the replacement
// operator trait and, for standalone operators, produce the same type.
func (o OpSwap) typeChecks(mcx *m.MutCtxt, replacement ast.BinOp, assign bool) bool {
	typeck := mcx.Location.Fn.Typeck

	var lhs, rhs hir.Expr

	switch e := mcx.Location.Hir.(type) {
	case *hir.Binary:
		lhs, rhs = e.X, e.Y
	case *hir.AssignOp:
		lhs, rhs = e.Lhs, e.Rhs
	default:
		return false
	}

	lhsTy, okL := typeck.NodeTy(lhs)
	rhsTy, okR := typeck.NodeTy(rhs)

	if !okL || !okR || mcx.Types == nil {
		return false
	}

	trait := replacement.Trait()
	if trait == "" {
		return false
	}

	if assign {
		return mcx.Types.ImplementsTrait(lhsTy, trait+"Assign", rhsTy)
	}

	if !mcx.Types.ImplementsTrait(lhsTy, trait, rhsTy) {
		return false
	}

	exprTy, ok := typeck.NodeTy(mcx.Location.Hir)
	if !ok {
		return false
	}

	output, ok := mcx.Types.AssocType(lhsTy, trait, []hir.Ty{rhsTy}, "Output")

	return ok && output == exprTy
}
