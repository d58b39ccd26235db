package model

import (
	"sort"

	"github.com/babydessy/mutest-rs/internal/model/ast"
	"github.com/babydessy/mutest-rs/internal/model/hir"
)

// EntryPointAssociation records how a single test reaches a target.
type EntryPointAssociation struct {
	Distance int
	// UnsafeCallPath is the most severe unsafety seen on a call path from the
	// test, nil when every path is safe.
	UnsafeCallPath *UnsafeSource
}

// Target is a definition reachable from at least one test.
type Target struct {
	Def           hir.DefID
	Name          string
	Span          ast.Span
	Unsafety      Unsafety
	Distance      int
	ReachableFrom map[hir.TestID]*EntryPointAssociation
}

// NewTarget creates a target without any reaching tests.
func NewTarget(def *hir.Definition, unsafety Unsafety, distance int) *Target {
	return &Target{
		Def:           def.ID,
		Name:          def.Name,
		Span:          def.Span,
		Unsafety:      unsafety,
		Distance:      distance,
		ReachableFrom: make(map[hir.TestID]*EntryPointAssociation),
	}
}

// ReachingTests returns the ids of all tests reaching the target, sorted.
func (t *Target) ReachingTests() []hir.TestID {
	tests := make([]hir.TestID, 0, len(t.ReachableFrom))
	for test := range t.ReachableFrom {
		tests = append(tests, test)
	}

	sort.Slice(tests, func(i, j int) bool { return tests[i] < tests[j] })

	return tests
}

// SortTargets orders targets by definition id.
func SortTargets(targets []*Target) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].Def < targets[j].Def })
}
