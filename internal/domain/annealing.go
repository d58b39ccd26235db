package domain

import (
	"log/slog"
	"math"
	"math/rand"
)

// anneal refines a batching by moving single mutations between compatible
// mutants. Energy is the number of mutants, so a move that empties its
// source mutant lowers it by one. Only compatible destinations are ever
// proposed, so every intermediate state is conflict-free.
func anneal(bins []*bin, graph *MutationConflictGraph, opts BatchOptions, rng *rand.Rand) []*bin {
	iterations := opts.AnnealingIterations
	if iterations <= 0 || len(bins) < 2 {
		return bins
	}

	initial := len(bins)

	for it := 0; it < iterations; it++ {
		temperature := opts.AnnealingTemperature * (1 - float64(it)/float64(iterations))

		from := rng.Intn(len(bins))
		source := bins[from]

		if source.unsafe || len(source.muts) == 0 {
			continue
		}

		mut := source.muts[rng.Intn(len(source.muts))]

		var candidates []int

		for i, b := range bins {
			if i != from && b.accepts(mut, graph, opts.MaxMutations) {
				candidates = append(candidates, i)
			}
		}

		if len(candidates) == 0 {
			continue
		}

		to := candidates[rng.Intn(len(candidates))]

		delta := 0.0
		if len(source.muts) == 1 {
			delta = -1
		}

		if !accept(delta, temperature, rng) {
			continue
		}

		source.remove(mut)
		bins[to].muts = append(bins[to].muts, mut)

		if len(source.muts) == 0 {
			bins = append(bins[:from], bins[from+1:]...)
		}
	}

	slog.Debug("annealing finished", "iterations", iterations, "before", initial, "after", len(bins))

	return bins
}

// accept is the Metropolis criterion.
func accept(delta, temperature float64, rng *rand.Rand) bool {
	if delta < 0 {
		return true
	}

	if temperature <= 0 {
		return false
	}

	return rng.Float64() < math.Exp(-delta/temperature)
}
