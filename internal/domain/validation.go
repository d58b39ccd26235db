package domain

import (
	"errors"
	"fmt"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

var (
	// ErrDummySubstitution is returned when an operator anchored a
	// substitution to a node that does not exist in the target body.
	ErrDummySubstitution = errors.New("substitution anchored to a dummy node")
	// ErrMisplacedSubstitution is returned when a substitution anchor is
	// neither the mutated node nor one of its direct children.
	ErrMisplacedSubstitution = errors.New("substitution anchored away from the mutated node")
	// ErrConflictingBatch is returned when a mutant holds two conflicting
	// mutations.
	ErrConflictingBatch = errors.New("conflicting mutations batched together")
	// ErrIncompleteBatching is returned when mutants do not partition the
	// mutations exactly.
	ErrIncompleteBatching = errors.New("mutants do not partition the mutations")
)

// ValidateSubstitutions checks that every substitution anchor is a real node
// of the body the mutation was found in, and is the mutated node or one of
// its direct children. All violations are reported.
func ValidateSubstitutions(muts []*m.Mut, bodies map[hir.DefID]*m.LoweredFn) error {
	indexes := make(map[hir.DefID]map[ast.NodeID]ast.Node)

	var errs []error

	for _, mut := range muts {
		if mut.Target == nil {
			continue
		}

		index, ok := indexes[mut.Target.Def]
		if !ok {
			if body := bodies[mut.Target.Def]; body != nil {
				index = ast.IndexNodes(body.Ast)
			}

			indexes[mut.Target.Def] = index
		}

		for _, subst := range mut.Substs() {
			if subst.Location.IsDummy() {
				errs = append(errs, fmt.Errorf("%w: mutation %d (%s) at %s", ErrDummySubstitution, mut.ID, mut.Mutation.Operator, mut.Span))
				continue
			}

			if _, found := index[subst.Location.Node]; !found {
				errs = append(errs, fmt.Errorf("%w: mutation %d (%s) anchors node #%d outside %s",
					ErrDummySubstitution, mut.ID, mut.Mutation.Operator, subst.Location.Node, mut.Target.Def))

				continue
			}

			if mut.Node != nil && !anchoredAt(mut.Node, subst.Location.Node) {
				errs = append(errs, fmt.Errorf("%w: mutation %d (%s) anchors node #%d, not #%d or a child of it",
					ErrMisplacedSubstitution, mut.ID, mut.Mutation.Operator, subst.Location.Node, mut.Node.NodeID()))
			}
		}
	}

	return errors.Join(errs...)
}

func anchoredAt(node ast.Node, anchor ast.NodeID) bool {
	if node.NodeID() == anchor {
		return true
	}

	for _, child := range ast.Children(node) {
		if child.NodeID() == anchor {
			return true
		}
	}

	return false
}

// ValidateMutants checks the batching invariants: every mutation is in
// exactly one mutant, no mutant holds a conflicting pair, and unsafe
// mutations are alone.
func ValidateMutants(mutants []*m.Mutant, muts []*m.Mut, graph *MutationConflictGraph) error {
	var errs []error

	seen := make(map[m.MutID]m.MutantID, len(muts))

	for _, mutant := range mutants {
		for i, a := range mutant.Mutations {
			if prev, dup := seen[a.ID]; dup {
				errs = append(errs, fmt.Errorf("%w: mutation %d is in mutants %d and %d", ErrIncompleteBatching, a.ID, prev, mutant.ID))
			}

			seen[a.ID] = mutant.ID

			if graph.IsUnsafe(a.ID) && len(mutant.Mutations) > 1 {
				errs = append(errs, fmt.Errorf("%w: mutant %d holds unsafe mutation %d with %d others",
					ErrConflictingBatch, mutant.ID, a.ID, len(mutant.Mutations)-1))
			}

			for _, b := range mutant.Mutations[i+1:] {
				if graph.Conflicting(a.ID, b.ID) {
					errs = append(errs, fmt.Errorf("%w: mutant %d holds %d and %d", ErrConflictingBatch, mutant.ID, a.ID, b.ID))
				}
			}
		}
	}

	for _, mut := range muts {
		if _, ok := seen[mut.ID]; !ok {
			errs = append(errs, fmt.Errorf("%w: mutation %d is in no mutant", ErrIncompleteBatching, mut.ID))
		}
	}

	return errors.Join(errs...)
}
