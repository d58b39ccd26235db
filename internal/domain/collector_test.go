package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babydessy/mutest-rs/internal/adapter"
	"github.com/babydessy/mutest-rs/internal/domain/operators"
	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

func operatorsOf(muts []*m.Mut) []string {
	out := make([]string, 0, len(muts))
	for _, mut := range muts {
		out = append(out, mut.Mutation.Operator)
	}

	return out
}

func TestCollectSafeTargetsOnly(t *testing.T) {
	_, collection := analyzeFixture(t, crateFixture, 3, m.UnsafeTargetingNone)

	require.Len(t, collection.Muts, 6)

	for i, mut := range collection.Muts {
		assert.Equal(t, m.MutID(i+1), mut.ID, "ids are dense from 1")
		assert.Equal(t, m.MutationSafe, mut.Safety())
		assert.Contains(t, []hir.DefID{"crate::add", "crate::compute"}, mut.Target.Def)
	}

	assert.Equal(t, []string{
		"op_add_sub_swap", "op_add_mul_swap",
		"local_init_default", "op_add_mul_swap", "op_mul_div_swap", "call_stmt_delete",
	}, operatorsOf(collection.Muts))

	t.Run("display names", func(t *testing.T) {
		assert.Equal(t, "swap operator `+` for `-`", collection.Muts[0].DisplayName())
		assert.Equal(t, "delete call to `crate::log`", collection.Muts[5].DisplayName())
	})

	t.Run("locations", func(t *testing.T) {
		assert.Equal(t, m.LocFnBodyExpr, collection.Muts[0].Location)
		assert.Equal(t, m.LocFnBodyStmt, collection.Muts[2].Location)
		assert.IsType(t, &ast.Local{}, collection.Muts[2].Node)
	})

	t.Run("substitutions replace the mutated node", func(t *testing.T) {
		mut := collection.Muts[0]
		require.Len(t, mut.Substs(), 1)
		assert.Equal(t, m.Replace, mut.Substs()[0].Location.Kind)
		assert.Equal(t, mut.Node.NodeID(), mut.Substs()[0].Location.Node)
		assert.Equal(t, "a - b", mut.Substs()[0].Substitute.String())
	})
}

func TestCollectUnsafeTargeting(t *testing.T) {
	t.Run("enclosing skips unsafe blocks", func(t *testing.T) {
		_, collection := analyzeFixture(t, crateFixture, 3, m.UnsafeTargetingEnclosing)

		require.Len(t, collection.Muts, 8)

		helper := collection.Muts[6]
		assert.Equal(t, hir.DefID("crate::helper"), helper.Target.Def)
		assert.Equal(t, m.MutationTainted, helper.Safety())

		raw := collection.Muts[7]
		assert.Equal(t, hir.DefID("crate::raw"), raw.Target.Def)
		assert.Equal(t, "local_init_default", raw.Mutation.Operator)
		assert.False(t, raw.IsInUnsafeBlock)
	})

	t.Run("all enters unsafe blocks", func(t *testing.T) {
		_, collection := analyzeFixture(t, crateFixture, 3, m.UnsafeTargetingAll)

		require.Len(t, collection.Muts, 10)

		inBlock := collection.Muts[8:]
		for _, mut := range inBlock {
			assert.Equal(t, hir.DefID("crate::raw"), mut.Target.Def)
			assert.True(t, mut.IsInUnsafeBlock)
			assert.Equal(t, m.MutationUnsafe, mut.Safety())
		}

		assert.Equal(t, []string{"op_add_sub_swap", "op_add_mul_swap"}, operatorsOf(inBlock))
	})
}

func TestCollectMutationDepth(t *testing.T) {
	ctx := context.Background()
	oracle := loadOracle(t, crateFixture)

	reach, err := NewReachabilityAnalyzer().Analyze(ctx, oracle, 3)
	require.NoError(t, err)

	collection, err := NewMutationCollector().Collect(ctx, oracle, reach.Targets, CollectOptions{
		Targeting:     m.UnsafeTargetingAll,
		MutationDepth: 1,
		Operators:     operators.All(),
	})
	require.NoError(t, err)

	for _, mut := range collection.Muts {
		assert.Equal(t, 0, mut.Target.Distance, mut.Target.Def)
	}

	// crate::helper is reached at distance 1 and contributes nothing.
	assert.Len(t, collection.Muts, 9)
}

const skipFixture = `
name: skip
file: src/lib.rs
defs:
  - id: crate::f
    params: [{name: a, ty: i32}]
    ret: i32
    body:
      - let: unused
        ty: bool
        init: true
        attrs: [mutest::skip]
      - let: flag
        ty: bool
        init: {lit: false, attrs: [mutest::skip]}
      - expr:
          closure: [x]
          body: {binary: "+", lhs: x, rhs: 1}
      - expr: {binary: "-", lhs: a, rhs: 1, expn: 3}
      - tail: {paren: {binary: "*", lhs: a, rhs: 3}}
  - id: crate::tests::t
    attrs: [test]
    in_test: true
    body:
      - expr: {call: crate::f, args: [1]}
`

func TestCollectSkipsIneligibleNodes(t *testing.T) {
	_, collection := analyzeFixture(t, skipFixture, 3, m.UnsafeTargetingNone)

	// Only the parenthesized product is mutated: skipped statements and
	// expressions, closure bodies and macro expansions are left alone.
	assert.Equal(t, []string{"local_init_default", "op_add_mul_swap", "op_mul_div_swap"}, operatorsOf(collection.Muts))
	assert.IsType(t, &ast.Local{}, collection.Muts[0].Node)
	assert.Equal(t, "flag", collection.Muts[0].Node.(*ast.Local).Name)
}

func TestCollectCancelled(t *testing.T) {
	ctx := context.Background()
	oracle := loadOracle(t, crateFixture)

	reach, err := NewReachabilityAnalyzer().Analyze(ctx, oracle, 3)
	require.NoError(t, err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()

	_, err = NewMutationCollector().Collect(cctx, oracle, reach.Targets, CollectOptions{
		Targeting:     m.UnsafeTargetingNone,
		MutationDepth: 3,
		Operators:     operators.All(),
	})
	require.ErrorIs(t, err, context.Canceled)
}

// traversalFixture exercises the walk order: an indexed assignment, a guarded
// match, an else-if chain and blocks of one and two statements.
const traversalFixture = `
name: traversal
file: src/lib.rs
defs:
  - id: crate::store
    params:
      - {name: arr, ty: "[i32; 4]", mut: true}
      - {name: i, ty: i32}
      - {name: a, ty: i32}
      - {name: b, ty: i32}
    body:
      - expr:
          assign: {index: arr, at: {binary: "+", lhs: i, rhs: 1}}
          rhs: {binary: "+", lhs: a, rhs: b}
  - id: crate::classify
    params: [{name: n, ty: i32}, {name: a, ty: i32}]
    ret: i32
    body:
      - tail:
          match: n
          arms:
            - pat: "0"
              guard: {binary: "<", lhs: n, rhs: a}
              body: {binary: "+", lhs: n, rhs: a}
            - pat: "_"
              body: 0
  - id: crate::pick
    params: [{name: a, ty: i32}, {name: b, ty: i32}, {name: flag, ty: bool}]
    ret: i32
    body:
      - tail:
          if: flag
          then:
            - tail: {binary: "+", lhs: a, rhs: b}
          else:
            if: {binary: "<", lhs: a, rhs: b}
            then:
              - tail: {binary: "-", lhs: a, rhs: b}
            else:
              - tail: {binary: "*", lhs: a, rhs: b}
  - id: crate::wrap
    params: [{name: a, ty: i32}]
    ret: i32
    body:
      - let: x
        ty: i32
        init:
          block:
            - tail: {binary: "+", lhs: a, rhs: 1}
      - tail:
          block:
            - let: y
              ty: i32
              init: x
            - tail: y
  - id: crate::tests::it_traverses
    attrs: [test]
    in_test: true
    body:
      - expr: {call: crate::store, args: [arr, 0, 1, 2]}
      - expr: {call: crate::classify, args: [1, 2]}
      - expr: {call: crate::pick, args: [1, 2, true]}
      - expr: {call: crate::wrap, args: [1]}
`

// locationRecorder proposes one mutation at every location it is offered.
type locationRecorder struct{}

func (locationRecorder) Name() string { return "location_recorder" }

func (locationRecorder) TryApply(mcx *m.MutCtxt) []m.Mutation {
	node := mcx.Location.Ast

	return []m.Mutation{{
		Operator:    "location_recorder",
		DisplayName: fmt.Sprintf("%T", node),
		Substs:      []m.SubstDef{m.NewSubstDef(m.SubstLoc{Kind: m.Replace, Node: node.NodeID()}, m.StmtSubst(&ast.Empty{}))},
	}}
}

func findNodes[T ast.Node](root ast.Node) []T {
	var out []T

	ast.Inspect(root, func(n ast.Node) bool {
		if found, ok := n.(T); ok {
			out = append(out, found)
		}

		return true
	})

	return out
}

func collectLocations(t *testing.T, oracle adapter.Oracle) (*Collection, error) {
	t.Helper()

	ctx := context.Background()

	reach, err := NewReachabilityAnalyzer().Analyze(ctx, oracle, 3)
	require.NoError(t, err)

	return NewMutationCollector().Collect(ctx, oracle, reach.Targets, CollectOptions{
		Targeting:     m.UnsafeTargetingNone,
		MutationDepth: 3,
		Operators:     []m.Operator{locationRecorder{}},
	})
}

func TestCollectTraversal(t *testing.T) {
	ctx := context.Background()
	oracle := loadOracle(t, traversalFixture)

	collection, err := collectLocations(t, oracle)
	require.NoError(t, err)

	visitedIn := func(def hir.DefID) (*ast.Fn, map[ast.NodeID]bool) {
		body, err := oracle.Body(ctx, def)
		require.NoError(t, err)

		visited := make(map[ast.NodeID]bool)

		for _, mut := range collection.Muts {
			if mut.Target.Def == def {
				visited[mut.Node.NodeID()] = true
			}
		}

		return body.Ast, visited
	}

	t.Run("assignment targets are not locations", func(t *testing.T) {
		fn, visited := visitedIn("crate::store")

		assigns := findNodes[*ast.Assign](fn)
		require.Len(t, assigns, 1)

		assert.True(t, visited[assigns[0].NodeID()])
		assert.True(t, visited[assigns[0].Rhs.NodeID()])

		ast.Inspect(assigns[0].Lhs, func(n ast.Node) bool {
			assert.False(t, visited[n.NodeID()], "%s is assigned to", ast.Sprint(n))
			return true
		})
	})

	t.Run("match guards and arm bodies are visited", func(t *testing.T) {
		fn, visited := visitedIn("crate::classify")

		matches := findNodes[*ast.Match](fn)
		require.Len(t, matches, 1)

		match := matches[0]
		assert.True(t, visited[match.NodeID()])
		assert.True(t, visited[match.Scrutinee.NodeID()])

		require.Len(t, match.Arms, 2)
		assert.True(t, visited[match.Arms[0].Guard.NodeID()])

		for _, arm := range match.Arms {
			assert.False(t, visited[arm.NodeID()], "arm %s is not a location", arm.Pat)
			assert.True(t, visited[arm.Body.NodeID()])
		}
	})

	t.Run("else if chains are unrolled", func(t *testing.T) {
		fn, visited := visitedIn("crate::pick")

		ifs := findNodes[*ast.If](fn)
		require.Len(t, ifs, 2)

		for _, e := range ifs {
			assert.True(t, visited[e.NodeID()])
			assert.True(t, visited[e.Cond.NodeID()])
		}

		binaries := findNodes[*ast.Binary](fn)
		require.Len(t, binaries, 4)

		for _, bin := range binaries {
			assert.True(t, visited[bin.NodeID()], ast.Sprint(bin))
		}

		assert.False(t, visited[ifs[1].Else.NodeID()], "the final else block is walked through")
	})

	t.Run("single statement blocks are unwrapped", func(t *testing.T) {
		fn, visited := visitedIn("crate::wrap")

		blocks := findNodes[*ast.BlockExpr](fn)
		require.Len(t, blocks, 2)

		single, multi := blocks[0], blocks[1]
		require.Len(t, single.Block.Stmts, 1)
		require.Len(t, multi.Block.Stmts, 2)

		tail, ok := single.Block.Stmts[0].(*ast.ExprStmt)
		require.True(t, ok)

		assert.False(t, visited[single.NodeID()])
		assert.True(t, visited[tail.X.NodeID()])
		assert.True(t, visited[multi.NodeID()])
	})
}

func TestCollectTreeMismatch(t *testing.T) {
	oracle := loadOracle(t, traversalFixture)

	body, err := oracle.Body(context.Background(), "crate::pick")
	require.NoError(t, err)

	ifs := findNodes[*ast.If](body.Ast)
	require.Len(t, ifs, 2)

	body.Resolutions.Insert(ifs[1].NodeID(), &hir.BlockExpr{})

	_, err = collectLocations(t, oracle)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTreeMismatch)
	assert.Contains(t, err.Error(), "crate::pick")
}
