package domain

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/babydessy/mutest-rs/internal/model"
)

func buildConflicts(t *testing.T, muts []*m.Mut) *MutationConflictGraph {
	t.Helper()

	graph, err := NewConflictGraphBuilder().Build(context.Background(), muts, BuildOptions{Targeting: m.UnsafeTargetingAll})
	require.NoError(t, err)

	return graph
}

func mutantIDs(mutants []*m.Mutant) [][]m.MutID {
	out := make([][]m.MutID, 0, len(mutants))

	for _, mutant := range mutants {
		ids := make([]m.MutID, 0, len(mutant.Mutations))
		for _, mut := range mutant.Mutations {
			ids = append(ids, mut.ID)
		}

		out = append(out, ids)
	}

	return out
}

// assertBatching checks the properties every batching must have.
func assertBatching(t *testing.T, mutants []*m.Mutant, muts []*m.Mut, graph *MutationConflictGraph, limit int) {
	t.Helper()

	seen := make(map[m.MutID]int)

	for i, mutant := range mutants {
		assert.Equal(t, m.MutantID(i+1), mutant.ID)
		assert.NotEmpty(t, mutant.Mutations)
		assert.LessOrEqual(t, len(mutant.Mutations), limit)

		for _, mut := range mutant.Mutations {
			seen[mut.ID]++

			if graph.IsUnsafe(mut.ID) {
				assert.Len(t, mutant.Mutations, 1, "unsafe mutation %d shares mutant %d", mut.ID, mutant.ID)
			}

			for _, other := range mutant.Mutations {
				assert.False(t, graph.Conflicting(mut.ID, other.ID), "mutant %d holds conflicting %d and %d", mutant.ID, mut.ID, other.ID)
			}
		}
	}

	for _, mut := range muts {
		assert.Equal(t, 1, seen[mut.ID], "mutation %d", mut.ID)
	}
}

func TestBatchGreedy(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	tests := []struct {
		limit int
		want  [][]m.MutID
	}{
		{1, [][]m.MutID{{1}, {2}, {3}, {4}, {5}, {6}}},
		{2, [][]m.MutID{{1, 2}, {3, 4}, {5}, {6}}},
		{16, [][]m.MutID{{1, 2}, {3, 4, 6}, {5}}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("limit %d", tt.limit), func(t *testing.T) {
			opts := DefaultBatchOptions()
			opts.MaxMutations = tt.limit

			mutants, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
			require.NoError(t, err)

			assert.Equal(t, tt.want, mutantIDs(mutants))
			assertBatching(t, mutants, muts, graph, tt.limit)
		})
	}
}

func TestBatchOrderings(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	t.Run("fewest conflicts first", func(t *testing.T) {
		opts := DefaultBatchOptions()
		opts.MaxMutations = 16
		opts.Ordering = OrderConflictsAsc

		mutants, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
		require.NoError(t, err)

		// Counts: 1:3 2:2 3:2 4:2 5:5 6:2.
		assert.Equal(t, [][]m.MutID{{2, 4, 6}, {3, 1}, {5}}, mutantIDs(mutants))
	})

	t.Run("most conflicts first", func(t *testing.T) {
		opts := DefaultBatchOptions()
		opts.MaxMutations = 16
		opts.Ordering = OrderConflictsDesc

		mutants, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
		require.NoError(t, err)

		assert.Equal(t, [][]m.MutID{{5}, {1, 2}, {3, 4, 6}}, mutantIDs(mutants))
	})
}

func TestBatchAlgorithmsKeepInvariants(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	algorithms := []BatchingAlgorithm{BatchNone, BatchGreedy, BatchRandom, BatchAnnealing}
	orderings := []BatchOrdering{OrderNone, OrderConflictsAsc, OrderConflictsDesc, OrderRandom}

	for _, algorithm := range algorithms {
		for _, ordering := range orderings {
			for _, limit := range []int{1, 2, 3, 16} {
				for seed := int64(0); seed < 5; seed++ {
					name := fmt.Sprintf("%s/%s/limit=%d/seed=%d", algorithm, ordering, limit, seed)

					t.Run(name, func(t *testing.T) {
						opts := DefaultBatchOptions()
						opts.Algorithm = algorithm
						opts.Ordering = ordering
						opts.MaxMutations = limit
						opts.Seed = seed
						opts.Epsilon = 0.3
						opts.AnnealingIterations = 200

						mutants, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
						require.NoError(t, err)

						assertBatching(t, mutants, muts, graph, limit)
					})
				}
			}
		}
	}
}

func TestBatchNoneIsolatesEveryMutation(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	opts := DefaultBatchOptions()
	opts.Algorithm = BatchNone
	opts.MaxMutations = 16

	mutants, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
	require.NoError(t, err)
	assert.Len(t, mutants, len(muts))
}

func TestBatchRandomIsReproducible(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	opts := DefaultBatchOptions()
	opts.Algorithm = BatchRandom
	opts.MaxMutations = 4
	opts.Seed = 42

	first, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
	require.NoError(t, err)

	second, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
	require.NoError(t, err)

	assert.Equal(t, mutantIDs(first), mutantIDs(second))
}

func TestBatchAnnealingNeverGrows(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	opts := DefaultBatchOptions()
	opts.MaxMutations = 16

	greedy, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
	require.NoError(t, err)

	opts.Algorithm = BatchAnnealing
	opts.AnnealingTemperature = 0

	annealed, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(annealed), len(greedy))
}

func TestAnnealMergesSingletons(t *testing.T) {
	a := newTestTarget("crate::a", m.SafeUnsafety, "t1")
	b := newTestTarget("crate::b", m.SafeUnsafety, "t2")
	muts := []*m.Mut{newTestMut(1, a, 1), newTestMut(2, b, 2)}
	graph := buildConflicts(t, muts)

	bins := batchNone(muts)
	out := anneal(bins, graph, BatchOptions{MaxMutations: 2, AnnealingIterations: 100}, rand.New(rand.NewSource(1)))

	require.Len(t, out, 1)
	assert.Len(t, out[0].muts, 2)
}

func TestBatchErrors(t *testing.T) {
	muts := conflictFixture()
	graph := buildConflicts(t, muts)

	t.Run("cap below one", func(t *testing.T) {
		opts := DefaultBatchOptions()
		opts.MaxMutations = 0

		_, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
		require.Error(t, err)
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		opts := DefaultBatchOptions()
		opts.Algorithm = "tabu"

		_, err := NewBatcher().Batch(context.Background(), muts, graph, opts)
		require.Error(t, err)
	})
}

func TestParseBatching(t *testing.T) {
	algorithm, err := ParseBatchingAlgorithm(" Annealing ")
	require.NoError(t, err)
	assert.Equal(t, BatchAnnealing, algorithm)

	algorithm, err = ParseBatchingAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, BatchGreedy, algorithm)

	_, err = ParseBatchingAlgorithm("tabu")
	require.Error(t, err)

	ordering, err := ParseBatchOrdering("conflicts-desc")
	require.NoError(t, err)
	assert.Equal(t, OrderConflictsDesc, ordering)

	_, err = ParseBatchOrdering("sideways")
	require.Error(t, err)
}
