package adapter

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

const fixture = `
name: fixture
file: src/lib.rs
impls:
  - ty: Meters
    trait: Add
    args: [Meters]
    assoc: {Output: Meters}
dispatch:
  - method: crate::Area::area
    self: Square
    impl: crate::square_area
defs:
  - id: crate::add
    params:
      - {name: a, ty: i32}
      - {name: b, ty: i32}
    ret: i32
    body:
      - tail: {binary: "+", lhs: {paren: a}, rhs: b}
  - id: crate::count
    params: [{name: n, ty: usize}]
    body:
      - let: i
        mut: true
        ty: usize
        init: {lit: 0, ty: usize}
      - expr:
          while: {binary: "<", lhs: i, rhs: n}
          body:
            - expr: {assign_op: "+", lhs: i, rhs: {lit: 1, ty: usize}}
      - macro: println
  - id: crate::raw
    params: [{name: p, ty: "*const i32"}]
    ret: i32
    body:
      - tail:
          unsafe:
            - tail: {call: crate::deref, args: [p]}
  - id: crate::deref
    unsafe: true
    params: [{name: p, ty: "*const i32"}]
    ret: i32
    body:
      - tail: {unary: "*", x: p, ty: i32}
  - id: crate::Area::area
    kind: trait_method
    trait: Area
    generics: [Self]
    ret: u32
  - id: crate::square_area
    kind: method
    params: [{name: self, ty: Square}]
    ret: u32
    body:
      - tail: {lit: 4, ty: u32}
  - id: crate::describe
    params: [{name: s, ty: Square}]
    ret: u32
    body:
      - tail: {method_call: area, recv: s, def: crate::Area::area}
  - id: crate::LIMIT
    kind: const
    ret: i32
    body:
      - tail: 10
  - id: std::mem::swap
    extern: true
  - id: crate::tests::it_adds
    attrs: [test]
    in_test: true
    body:
      - expr: {call: crate::add, args: [1, 2]}
`

func loadFixture(t *testing.T) Oracle {
	t.Helper()

	oracle, program, err := NewProgramOracle("fixture.yaml", []byte(fixture))
	require.NoError(t, err)
	require.Equal(t, "fixture", program.Name)
	require.Equal(t, m.Path("fixture.yaml"), program.Path)
	require.Equal(t, 1, program.Tests)
	require.Equal(t, 10, program.Defs)

	return oracle
}

func TestProgramOracleDefinitions(t *testing.T) {
	ctx := context.Background()
	oracle := loadFixture(t)

	t.Run("tests are discovered from attributes", func(t *testing.T) {
		tests, err := oracle.Tests(ctx)
		require.NoError(t, err)
		require.Equal(t, []hir.Test{{ID: "crate::tests::it_adds", Def: "crate::tests::it_adds"}}, tests)
	})

	t.Run("definition flags", func(t *testing.T) {
		def, err := oracle.Definition(ctx, "crate::raw")
		require.NoError(t, err)
		assert.True(t, def.EnclosesUnsafe)
		assert.False(t, def.Unsafe)
		assert.True(t, def.HasBody)
		assert.Equal(t, "raw", def.Name)

		def, err = oracle.Definition(ctx, "crate::deref")
		require.NoError(t, err)
		assert.True(t, def.Unsafe)
		assert.False(t, def.EnclosesUnsafe)

		def, err = oracle.Definition(ctx, "crate::LIMIT")
		require.NoError(t, err)
		assert.True(t, def.IsConstContext())

		def, err = oracle.Definition(ctx, "std::mem::swap")
		require.NoError(t, err)
		assert.False(t, def.Local)
		assert.False(t, def.HasBody)

		def, err = oracle.Definition(ctx, "crate::Area::area")
		require.NoError(t, err)
		assert.False(t, def.HasBody)
		assert.Equal(t, []string{"Self"}, def.Generics)
	})

	t.Run("unknown definition", func(t *testing.T) {
		_, err := oracle.Definition(ctx, "crate::missing")
		require.ErrorIs(t, err, ErrUnknownDefinition)
	})

	t.Run("bodiless definitions have no callees", func(t *testing.T) {
		_, err := oracle.Callees(ctx, hir.Instance{Def: "std::mem::swap"})
		require.ErrorIs(t, err, ErrNoBody)

		_, err = oracle.Body(ctx, "std::mem::swap")
		require.ErrorIs(t, err, ErrNoBody)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := oracle.Tests(cctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestProgramOracleCallees(t *testing.T) {
	ctx := context.Background()
	oracle := loadFixture(t)

	calls, err := oracle.Callees(ctx, hir.Instance{Def: "crate::raw"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, hir.DefID("crate::deref"), calls[0].Callee.Def)
	assert.True(t, calls[0].InUnsafeBlock)
	assert.False(t, calls[0].Dynamic)

	calls, err = oracle.Callees(ctx, hir.Instance{Def: "crate::tests::it_adds"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.False(t, calls[0].InUnsafeBlock)

	t.Run("trait method calls carry the receiver type as Self", func(t *testing.T) {
		calls, err := oracle.Callees(ctx, hir.Instance{Def: "crate::describe"})
		require.NoError(t, err)
		require.Len(t, calls, 1)
		assert.Equal(t, hir.Instance{Def: "crate::Area::area", Args: []hir.Ty{"Square"}}, calls[0].Callee)

		resolved, err := oracle.Resolve(ctx, calls[0].Callee)
		require.NoError(t, err)
		assert.Equal(t, hir.DefID("crate::square_area"), resolved.Def)
		assert.Empty(t, resolved.Args)
	})

	t.Run("unknown impl is unresolvable", func(t *testing.T) {
		_, err := oracle.Resolve(ctx, hir.Instance{Def: "crate::Area::area", Args: []hir.Ty{"Circle"}})
		require.ErrorIs(t, err, ErrUnresolvable)

		_, err = oracle.Resolve(ctx, hir.Instance{Def: "crate::Area::area"})
		require.ErrorIs(t, err, ErrUnresolvable)
	})

	t.Run("plain functions resolve to themselves", func(t *testing.T) {
		inst := hir.Instance{Def: "crate::add"}
		resolved, err := oracle.Resolve(ctx, inst)
		require.NoError(t, err)
		assert.Equal(t, inst, resolved)
	})
}

func TestProgramOracleLowering(t *testing.T) {
	ctx := context.Background()
	oracle := loadFixture(t)

	t.Run("parens are transparent and types are inferred", func(t *testing.T) {
		body, err := oracle.Body(ctx, "crate::add")
		require.NoError(t, err)

		tail := body.Ast.Body.Stmts[0].(*ast.ExprStmt)
		bin := tail.X.(*ast.Binary)
		paren := bin.X.(*ast.Paren)

		hbin, ok := body.Resolutions.Lookup(bin.ID)
		require.True(t, ok)
		require.IsType(t, &hir.Binary{}, hbin)

		hparen, ok := body.Resolutions.Lookup(paren.ID)
		require.True(t, ok)
		hinner, ok := body.Resolutions.Lookup(paren.X.NodeID())
		require.True(t, ok)
		assert.Same(t, hinner, hparen)

		ty, ok := body.Typeck.NodeTy(hbin)
		require.True(t, ok)
		assert.Equal(t, hir.Ty("i32"), ty)

		// The trailing expression has no statement of its own.
		_, ok = body.Resolutions.Lookup(tail.ID)
		assert.False(t, ok)
		assert.Same(t, hbin, body.Hir.Body.Expr)
	})

	t.Run("while loops are desugared", func(t *testing.T) {
		body, err := oracle.Body(ctx, "crate::count")
		require.NoError(t, err)

		stmt := body.Ast.Body.Stmts[1].(*ast.ExprStmt)
		while := stmt.X.(*ast.While)

		hloop, ok := body.Resolutions.Lookup(while.ID)
		require.True(t, ok)

		loop := hloop.(*hir.Loop)
		assert.Equal(t, hir.LoopWhile, loop.Source)

		ifx := loop.Body.Expr.(*hir.If)
		assert.IsType(t, &hir.DropTemps{}, ifx.Cond)
		els := ifx.Else.(*hir.BlockExpr)
		assert.IsType(t, &hir.Break{}, els.Block.Expr)

		hbody, ok := body.Resolutions.Lookup(while.Body.ID)
		require.True(t, ok)
		assert.Same(t, ifx.Then.Block, hbody)
	})

	t.Run("statement macros have no counterpart", func(t *testing.T) {
		body, err := oracle.Body(ctx, "crate::count")
		require.NoError(t, err)

		mac := body.Ast.Body.Stmts[2]
		_, ok := body.Resolutions.Lookup(mac.NodeID())
		assert.False(t, ok)
		assert.Len(t, body.Hir.Body.Stmts, 2)
	})

	t.Run("user impls answer trait queries", func(t *testing.T) {
		assert.True(t, oracle.ImplementsTrait("Meters", "Add", "Meters"))
		assert.False(t, oracle.ImplementsTrait("Meters", "Sub", "Meters"))

		out, ok := oracle.AssocType("Meters", "Add", []hir.Ty{"Meters"}, "Output")
		require.True(t, ok)
		assert.Equal(t, hir.Ty("Meters"), out)

		assert.True(t, oracle.ImplementsTrait("i32", "Sub", "i32"))
		assert.True(t, oracle.ImplementsTrait("u8", "BitXorAssign", "u8"))
		assert.False(t, oracle.ImplementsTrait("f64", "BitXor", "f64"))
		assert.True(t, oracle.ImplementsTrait("bool", "Default"))
	})

	t.Run("node ids are unique across the program", func(t *testing.T) {
		seen := make(map[ast.NodeID]hir.DefID)

		for _, id := range []hir.DefID{"crate::add", "crate::count", "crate::raw", "crate::describe"} {
			body, err := oracle.Body(ctx, id)
			require.NoError(t, err)

			for nodeID := range ast.IndexNodes(body.Ast) {
				prev, dup := seen[nodeID]
				require.False(t, dup, "node %d of %s already used by %s", nodeID, id, prev)
				seen[nodeID] = id
			}
		}
	})
}

func TestNewProgramOracleErrors(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"not a mapping":   `- a`,
		"missing id":      "defs:\n  - name: f\n",
		"unknown kind":    "defs:\n  - id: f\n    kind: macro\n",
		"duplicate":       "defs:\n  - id: f\n  - id: f\n",
		"bad dispatch":    "defs:\n  - id: f\ndispatch:\n  - {method: m, self: T, impl: g}\n",
		"bad operator":    "defs:\n  - id: f\n    body:\n      - tail: {binary: \"<>\", lhs: a, rhs: b}\n",
		"bad else":        "defs:\n  - id: f\n    body:\n      - tail: {if: c, then: [], else: {lit: 1}}\n",
		"unknown expr":    "defs:\n  - id: f\n    body:\n      - tail: {frobnicate: 1}\n",
		"unknown stmt":    "defs:\n  - id: f\n    body:\n      - frobnicate: 1\n",
		"missing operand": "defs:\n  - id: f\n    body:\n      - tail: {binary: \"+\", lhs: a}\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := NewProgramOracle("bad.yaml", []byte(doc))
			require.Error(t, err)
		})
	}
}

type stubFS struct {
	LocalFSAdapter
	files map[m.Path][]byte
}

func (s *stubFS) ReadFile(path m.Path) ([]byte, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}

	return data, nil
}

func (s *stubFS) HashFile(path m.Path) (string, error) {
	if _, ok := s.files[path]; !ok {
		return "", os.ErrNotExist
	}

	return "cafe", nil
}

func TestProgramLoader(t *testing.T) {
	fs := &stubFS{files: map[m.Path][]byte{"prog.yaml": []byte(fixture)}}
	loader := NewProgramLoader(fs)

	oracle, program, err := loader.Load(context.Background(), "prog.yaml")
	require.NoError(t, err)
	require.NotNil(t, oracle)
	assert.Equal(t, "cafe", program.Hash)

	_, _, err = loader.Load(context.Background(), "missing.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
