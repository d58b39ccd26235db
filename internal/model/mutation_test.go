package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/babydessy/mutest-rs/internal/model/ast"
)

func TestMutSafety(t *testing.T) {
	safeTarget := &Target{Unsafety: SafeUnsafety}
	taintedTarget := &Target{Unsafety: Tainted(Unsafe)}
	enclosingTarget := &Target{Unsafety: UnsafeOf(EnclosingUnsafe)}
	unsafeTarget := &Target{Unsafety: UnsafeOf(Unsafe)}

	assert.Equal(t, MutationSafe, (&Mut{Target: safeTarget}).Safety())
	assert.Equal(t, MutationUnsafe, (&Mut{Target: safeTarget, IsInUnsafeBlock: true}).Safety())
	assert.Equal(t, MutationTainted, (&Mut{Target: taintedTarget}).Safety())
	assert.Equal(t, MutationTainted, (&Mut{Target: enclosingTarget}).Safety())
	assert.Equal(t, MutationUnsafe, (&Mut{Target: unsafeTarget}).Safety())

	assert.False(t, (&Mut{Target: safeTarget}).IsUnsafe(UnsafeTargetingAll))
	assert.True(t, (&Mut{Target: taintedTarget}).IsUnsafe(UnsafeTargetingEnclosing))
	assert.False(t, (&Mut{Target: enclosingTarget}).IsUnsafe(UnsafeTargetingEnclosing))
	assert.True(t, (&Mut{Target: enclosingTarget}).IsUnsafe(UnsafeTargetingAll))
	assert.True(t, (&Mut{Target: enclosingTarget, IsInUnsafeBlock: true}).IsUnsafe(UnsafeTargetingEnclosingUnsafe))
}

func TestMutantUnsafeAndSubsts(t *testing.T) {
	target := &Target{Unsafety: SafeUnsafety}
	a := &Mut{ID: 1, Target: target, Mutation: Mutation{Substs: []SubstDef{
		NewSubstDef(SubstLoc{Kind: Replace, Node: 4}, ExprSubst(&ast.Lit{Kind: ast.LitBool, Value: "true"})),
	}}}
	b := &Mut{ID: 2, Target: target, IsInUnsafeBlock: true, Mutation: Mutation{Substs: []SubstDef{
		NewSubstDef(SubstLoc{Kind: InsertBefore, Node: 9}, StmtSubst(&ast.Empty{})),
	}}}

	mutant := &Mutant{ID: 1, Mutations: []*Mut{a}}
	assert.False(t, mutant.IsUnsafe(UnsafeTargetingAll))
	assert.Len(t, mutant.Substs(), 1)

	mutant.Mutations = append(mutant.Mutations, b)
	assert.True(t, mutant.IsUnsafe(UnsafeTargetingAll))
	assert.Len(t, mutant.Substs(), 2)
}

func TestMutantUndetectedDiagnostic(t *testing.T) {
	span := ast.Span{File: "src/lib.rs", Lo: ast.Pos{Line: 4, Col: 13}, Hi: ast.Pos{Line: 4, Col: 18}}
	mutant := &Mutant{ID: 1, Mutations: []*Mut{
		{ID: 1, Span: span, Mutation: Mutation{DisplayName: "replace `+` with `-`"}},
		{ID: 2, Span: span, Mutation: Mutation{DisplayName: "replace `true` with `false`"}},
	}}

	assert.Equal(t,
		"warning: the following mutations were not detected\n"+
			"  --> src/lib.rs:4:13: 4:18\n   = note: replace `+` with `-`\n"+
			"  --> src/lib.rs:4:13: 4:18\n   = note: replace `true` with `false`\n",
		mutant.UndetectedDiagnostic())
}

func TestSubstLocConflicts(t *testing.T) {
	replace := SubstLoc{Kind: Replace, Node: 7}
	before := SubstLoc{Kind: InsertBefore, Node: 7}
	other := SubstLoc{Kind: Replace, Node: 8}

	assert.True(t, replace.ConflictsWith(before))
	assert.True(t, before.ConflictsWith(replace))
	assert.False(t, replace.ConflictsWith(other))
	assert.True(t, SubstLoc{Kind: Replace}.IsDummy())
}

func TestSubstString(t *testing.T) {
	add := &ast.Binary{Op: ast.OpAdd, X: &ast.Path{Name: "a"}, Y: &ast.Lit{Kind: ast.LitInt, Value: "1"}}
	assert.Equal(t, "a + 1", ExprSubst(add).String())

	local := LocalSubstOf(LocalSubst{
		Name:     "x",
		Ty:       "i32",
		Init:     &ast.Call{Fun: &ast.Path{Name: "Default::default"}},
		Fallback: add,
	})
	assert.Equal(t, "let x: i32 = Default::default(); /* else a + 1 */", local.String())
}
