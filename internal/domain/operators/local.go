package operators

import (
	"fmt"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// LocalInitDefault replaces the initializer of a `let` binding with the
// default value of its type. The original initializer is kept as the
// fallback used while the mutation is inactive.
type LocalInitDefault struct{}

// Name implements model.Operator.
func (LocalInitDefault) Name() string {
	return "local_init_default"
}

// TryApply implements model.Operator.
func (o LocalInitDefault) TryApply(mcx *m.MutCtxt) []m.Mutation {
	loc := mcx.Location
	if loc.Kind != m.LocFnBodyStmt || loc.Fn == nil || mcx.Types == nil {
		return nil
	}

	local, ok := loc.Ast.(*ast.Local)
	if !ok || local.Init == nil || local.Else != nil {
		return nil
	}

	resolved, ok := loc.Hir.(*hir.Local)
	if !ok || resolved.Init == nil {
		return nil
	}

	ty := resolved.Ty
	if ty == "" {
		ty, _ = loc.Fn.Typeck.NodeTy(resolved.Init)
	}

	if ty == "" || !mcx.Types.ImplementsTrait(ty, "Default") {
		return nil
	}

	if initTy, ok := loc.Fn.Typeck.NodeTy(resolved.Init); ok && initTy != ty {
		return nil
	}

	init := &ast.Call{
		Meta: meta(mcx),
		Fun:  &ast.Path{Meta: meta(mcx), Name: "Default::default"},
	}

	return []m.Mutation{{
		Operator:    o.Name(),
		DisplayName: fmt.Sprintf("replace initializer of `%s` with `Default::default()`", local.Name),
		SpanLabel:   "replace with default value",
		Substs: replace(local, m.LocalSubstOf(m.LocalSubst{
			Name:     local.Name,
			Mutable:  local.Mutable,
			Ty:       string(ty),
			Init:     init,
			Fallback: local.Init,
		})),
	}}
}
