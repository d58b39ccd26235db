package operators

import (
	"fmt"
	"strconv"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// BoolLitFlip replaces a boolean literal with its negation.
type BoolLitFlip struct{}

// Name implements model.Operator.
func (BoolLitFlip) Name() string {
	return "bool_lit_flip"
}

// TryApply implements model.Operator.
func (o BoolLitFlip) TryApply(mcx *m.MutCtxt) []m.Mutation {
	if mcx.Location.Kind != m.LocFnBodyExpr {
		return nil
	}

	lit, ok := mcx.Location.Ast.(*ast.Lit)
	if !ok || lit.Kind != ast.LitBool {
		return nil
	}

	value, err := strconv.ParseBool(lit.Value)
	if err != nil {
		return nil
	}

	flipped := strconv.FormatBool(!value)

	return []m.Mutation{{
		Operator:    o.Name(),
		DisplayName: fmt.Sprintf("replace `%s` with `%s`", lit.Value, flipped),
		SpanLabel:   fmt.Sprintf("replace with `%s`", flipped),
		Substs:      replace(lit, m.ExprSubst(&ast.Lit{Meta: meta(mcx), Kind: ast.LitBool, Value: flipped})),
	}}
}
