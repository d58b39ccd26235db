package domain

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	m "github.com/babydessy/mutest-rs/internal/model"
)

// BatchingAlgorithm selects how mutations are grouped into mutants.
type BatchingAlgorithm string

// Batching algorithms.
const (
	BatchNone      BatchingAlgorithm = "none"
	BatchGreedy    BatchingAlgorithm = "greedy"
	BatchRandom    BatchingAlgorithm = "random"
	BatchAnnealing BatchingAlgorithm = "annealing"
)

// BatchOrdering is the order greedy batching considers mutations in.
type BatchOrdering string

// Greedy orderings.
const (
	OrderNone          BatchOrdering = "none"
	OrderConflictsAsc  BatchOrdering = "conflicts-asc"
	OrderConflictsDesc BatchOrdering = "conflicts-desc"
	OrderRandom        BatchOrdering = "random"
)

// ParseBatchingAlgorithm parses a batching algorithm name.
func ParseBatchingAlgorithm(value string) (BatchingAlgorithm, error) {
	switch a := BatchingAlgorithm(strings.ToLower(strings.TrimSpace(value))); a {
	case BatchNone, BatchGreedy, BatchRandom, BatchAnnealing:
		return a, nil
	case "":
		return BatchGreedy, nil
	}

	return "", fmt.Errorf("unknown batching algorithm %q", value)
}

// ParseBatchOrdering parses a greedy ordering name.
func ParseBatchOrdering(value string) (BatchOrdering, error) {
	switch o := BatchOrdering(strings.ToLower(strings.TrimSpace(value))); o {
	case OrderNone, OrderConflictsAsc, OrderConflictsDesc, OrderRandom:
		return o, nil
	case "":
		return OrderNone, nil
	}

	return "", fmt.Errorf("unknown batching ordering %q", value)
}

// BatchOptions configures the batching engine.
type BatchOptions struct {
	Algorithm    BatchingAlgorithm `validate:"oneof=none greedy random annealing"`
	Ordering     BatchOrdering     `validate:"oneof=none conflicts-asc conflicts-desc random"`
	Epsilon      float64           `validate:"gte=0,lte=1"`
	MaxMutations int               `validate:"gte=1"`
	Seed         int64
	// RandomAttempts bounds how many mutants random batching tries.
	RandomAttempts int `validate:"gte=1"`
	// AnnealingIterations and AnnealingTemperature drive the annealing
	// refinement, which starts from a greedy batching.
	AnnealingIterations  int     `validate:"gte=0"`
	AnnealingTemperature float64 `validate:"gte=0"`
}

// DefaultBatchOptions returns greedy batching of single mutations.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		Algorithm:            BatchGreedy,
		Ordering:             OrderNone,
		MaxMutations:         1,
		RandomAttempts:       16,
		AnnealingIterations:  10000,
		AnnealingTemperature: 1,
	}
}

// Batcher partitions mutations into conflict-free mutants.
type Batcher interface {
	Batch(ctx context.Context, muts []*m.Mut, graph *MutationConflictGraph, opts BatchOptions) ([]*m.Mutant, error)
}

type batcher struct{}

// NewBatcher creates a Batcher.
func NewBatcher() Batcher {
	return &batcher{}
}

func (b *batcher) Batch(ctx context.Context, muts []*m.Mut, graph *MutationConflictGraph, opts BatchOptions) ([]*m.Mutant, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "batching")
	defer span.End()

	if opts.MaxMutations < 1 {
		return nil, fmt.Errorf("mutant size cap must be at least 1, got %d", opts.MaxMutations)
	}

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec // reproducible batching, not security

	var bins []*bin

	switch opts.Algorithm {
	case BatchNone:
		bins = batchNone(muts)
	case BatchGreedy, "":
		bins = batchGreedy(muts, graph, opts, rng)
	case BatchRandom:
		bins = batchRandom(muts, graph, opts, rng)
	case BatchAnnealing:
		bins = batchGreedy(muts, graph, opts, rng)
		bins = anneal(bins, graph, opts, rng)
	default:
		return nil, fmt.Errorf("unknown batching algorithm %q", opts.Algorithm)
	}

	mutants := make([]*m.Mutant, 0, len(bins))
	for i, b := range bins {
		mutants = append(mutants, &m.Mutant{ID: m.MutantID(i + 1), Mutations: b.muts})
	}

	if err := ValidateMutants(mutants, muts, graph); err != nil {
		slog.Error("batching produced invalid mutants", "algorithm", opts.Algorithm, "error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("algorithm", string(opts.Algorithm)),
		attribute.Int("mutants", len(mutants)),
	)

	slog.Debug("mutations batched", "algorithm", opts.Algorithm, "mutations", len(muts), "mutants", len(mutants))

	return mutants, nil
}

// bin is a mutant under construction.
type bin struct {
	muts   []*m.Mut
	unsafe bool
}

// accepts reports whether mut can join the bin without breaking the cap or
// conflicting with a member.
func (b *bin) accepts(mut *m.Mut, graph *MutationConflictGraph, limit int) bool {
	if b.unsafe || len(b.muts) >= limit {
		return false
	}

	for _, other := range b.muts {
		if other.ID != mut.ID && graph.Conflicting(mut.ID, other.ID) {
			return false
		}
	}

	return true
}

func (b *bin) remove(mut *m.Mut) {
	for i, other := range b.muts {
		if other.ID == mut.ID {
			b.muts = append(b.muts[:i], b.muts[i+1:]...)
			return
		}
	}
}

func singleton(mut *m.Mut, graph *MutationConflictGraph) *bin {
	return &bin{muts: []*m.Mut{mut}, unsafe: graph != nil && graph.IsUnsafe(mut.ID)}
}

func batchNone(muts []*m.Mut) []*bin {
	bins := make([]*bin, 0, len(muts))
	for _, mut := range muts {
		bins = append(bins, &bin{muts: []*m.Mut{mut}})
	}

	return bins
}

// orderMutations returns a copy of muts in the requested order. Ties keep
// the id order.
func orderMutations(muts []*m.Mut, graph *MutationConflictGraph, ordering BatchOrdering, rng *rand.Rand) []*m.Mut {
	out := make([]*m.Mut, len(muts))
	copy(out, muts)

	switch ordering {
	case OrderConflictsAsc, OrderConflictsDesc:
		counts := make(map[m.MutID]int, len(out))
		for _, mut := range out {
			counts[mut.ID] = graph.ConflictCount(mut.ID)
		}

		sort.SliceStable(out, func(i, j int) bool {
			if ordering == OrderConflictsAsc {
				return counts[out[i].ID] < counts[out[j].ID]
			}

			return counts[out[i].ID] > counts[out[j].ID]
		})
	case OrderRandom:
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}

	return out
}

func batchGreedy(muts []*m.Mut, graph *MutationConflictGraph, opts BatchOptions, rng *rand.Rand) []*bin {
	var bins []*bin

	for _, mut := range orderMutations(muts, graph, opts.Ordering, rng) {
		if graph.IsUnsafe(mut.ID) {
			bins = append(bins, singleton(mut, graph))
			continue
		}

		var chosen *bin

		if opts.Epsilon > 0 && rng.Float64() < opts.Epsilon {
			var candidates []*bin

			for _, b := range bins {
				if b.accepts(mut, graph, opts.MaxMutations) {
					candidates = append(candidates, b)
				}
			}

			if len(candidates) > 0 {
				chosen = candidates[rng.Intn(len(candidates))]
			}
		} else {
			for _, b := range bins {
				if b.accepts(mut, graph, opts.MaxMutations) {
					chosen = b
					break
				}
			}
		}

		if chosen == nil {
			bins = append(bins, singleton(mut, graph))
			continue
		}

		chosen.muts = append(chosen.muts, mut)
	}

	return bins
}

func batchRandom(muts []*m.Mut, graph *MutationConflictGraph, opts BatchOptions, rng *rand.Rand) []*bin {
	var bins []*bin

	attempts := max(opts.RandomAttempts, 1)

	for _, mut := range muts {
		if graph.IsUnsafe(mut.ID) {
			bins = append(bins, singleton(mut, graph))
			continue
		}

		placed := false

		for k, idx := range rng.Perm(len(bins)) {
			if k >= attempts {
				break
			}

			if bins[idx].accepts(mut, graph, opts.MaxMutations) {
				bins[idx].muts = append(bins[idx].muts, mut)
				placed = true

				break
			}
		}

		if !placed {
			bins = append(bins, singleton(mut, graph))
		}
	}

	return bins
}
