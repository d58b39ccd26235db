package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/babydessy/mutest-rs/internal/adapter"
	"github.com/babydessy/mutest-rs/internal/domain/operators"
	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// crateFixture has three tests: one reaching safe arithmetic, one reaching
// a caller of that arithmetic and one reaching unsafe pointer code.
const crateFixture = `
name: crate
file: src/lib.rs
defs:
  - id: crate::add
    params:
      - {name: a, ty: i32}
      - {name: b, ty: i32}
    ret: i32
    body:
      - tail: {binary: "+", lhs: a, rhs: b}
  - id: crate::compute
    params:
      - {name: a, ty: i32}
      - {name: flag, ty: bool}
    ret: i32
    body:
      - let: x
        ty: i32
        init: {binary: "*", lhs: a, rhs: 2}
      - expr: {call: crate::log, args: [x]}
      - tail:
          if: flag
          then:
            - tail: {call: crate::add, args: [x, 1]}
          else:
            - tail: 0
  - id: crate::log
    params: [{name: x, ty: i32}]
    body:
      - macro: println
  - id: crate::raw
    params: [{name: p, ty: "*const i32"}]
    ret: i32
    body:
      - let: k
        ty: i32
        init: {call: crate::helper, args: [1]}
      - tail:
          unsafe:
            - tail: {binary: "+", lhs: {call: crate::deref, args: [p]}, rhs: k}
  - id: crate::helper
    params: [{name: x, ty: i32}]
    ret: i32
    body:
      - tail: {binary: "-", lhs: x, rhs: 1}
  - id: crate::deref
    unsafe: true
    params: [{name: p, ty: "*const i32"}]
    ret: i32
    body:
      - tail: {unary: "*", x: p, ty: i32}
  - id: crate::tests::it_adds
    attrs: [test]
    in_test: true
    body:
      - expr: {call: crate::add, args: [1, 2]}
  - id: crate::tests::it_computes
    attrs: [test]
    in_test: true
    body:
      - expr: {call: crate::compute, args: [3, true]}
  - id: crate::tests::it_reads
    attrs: [test]
    in_test: true
    body:
      - expr: {call: crate::raw, args: [p]}
`

func loadOracle(t *testing.T, source string) adapter.Oracle {
	t.Helper()

	oracle, _, err := adapter.NewProgramOracle("fixture.yaml", []byte(source))
	require.NoError(t, err)

	return oracle
}

// analyzeFixture runs reachability and collection over source.
func analyzeFixture(t *testing.T, source string, depth int, targeting m.UnsafeTargeting) (*Reachability, *Collection) {
	t.Helper()

	ctx := context.Background()
	oracle := loadOracle(t, source)

	reach, err := NewReachabilityAnalyzer().Analyze(ctx, oracle, depth)
	require.NoError(t, err)

	collection, err := NewMutationCollector().Collect(ctx, oracle, reach.Targets, CollectOptions{
		Targeting:     targeting,
		MutationDepth: depth,
		Operators:     operators.All(),
	})
	require.NoError(t, err)

	return reach, collection
}

func mutsByOperator(muts []*m.Mut, operator string) []*m.Mut {
	var out []*m.Mut

	for _, mut := range muts {
		if mut.Mutation.Operator == operator {
			out = append(out, mut)
		}
	}

	return out
}

func newTestTarget(def hir.DefID, unsafety m.Unsafety, tests ...hir.TestID) *m.Target {
	target := &m.Target{Def: def, Name: string(def), Unsafety: unsafety, ReachableFrom: make(map[hir.TestID]*m.EntryPointAssociation)}
	for _, test := range tests {
		target.ReachableFrom[test] = &m.EntryPointAssociation{}
	}

	return target
}

func newTestMut(id m.MutID, target *m.Target, anchor ast.NodeID) *m.Mut {
	lit := &ast.Lit{Kind: ast.LitBool, Value: "true"}

	return &m.Mut{
		ID:     id,
		Target: target,
		Mutation: m.Mutation{
			Operator:    "test_op",
			DisplayName: fmt.Sprintf("mutation %d", id),
			Substs:      []m.SubstDef{m.NewSubstDef(m.SubstLoc{Kind: m.Replace, Node: anchor}, m.ExprSubst(lit))},
		},
	}
}
