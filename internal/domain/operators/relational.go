package operators

import (
	"fmt"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// RelationalOpInvert inverts an ordering comparison together with its
// boundary, so `<` becomes `>=`.
type RelationalOpInvert struct{}

var relationalInversions = map[ast.BinOp]ast.BinOp{
	ast.OpLt: ast.OpGe,
	ast.OpLe: ast.OpGt,
	ast.OpGt: ast.OpLe,
	ast.OpGe: ast.OpLt,
}

// Name implements model.Operator.
func (RelationalOpInvert) Name() string {
	return "relational_op_invert"
}

// TryApply implements model.Operator.
func (o RelationalOpInvert) TryApply(mcx *m.MutCtxt) []m.Mutation {
	if mcx.Location.Kind != m.LocFnBodyExpr {
		return nil
	}

	bin, ok := mcx.Location.Ast.(*ast.Binary)
	if !ok {
		return nil
	}

	inverted, ok := relationalInversions[bin.Op]
	if !ok {
		return nil
	}

	substitute := &ast.Binary{Meta: meta(mcx), Op: inverted, X: bin.X, Y: bin.Y}

	return []m.Mutation{{
		Operator:    o.Name(),
		DisplayName: fmt.Sprintf("invert relational operator `%s` for `%s`", bin.Op, inverted),
		SpanLabel:   fmt.Sprintf("invert relational operator for `%s`", inverted),
		Substs:      replace(bin, m.ExprSubst(substitute)),
	}}
}
