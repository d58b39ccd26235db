// Package model defines the data structures shared by the analysis phases.
package model

import (
	"fmt"
	"strings"

	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// Mutation describes one atomic program edit produced by an operator.
type Mutation struct {
	Operator    string
	DisplayName string
	SpanLabel   string
	Substs      []SubstDef
}

// MutationSafety is the reported safety of a mutation.
type MutationSafety string

// Mutation safety levels.
const (
	MutationSafe    MutationSafety = "safe"
	MutationTainted MutationSafety = "tainted"
	MutationUnsafe  MutationSafety = "unsafe"
)

// MutID numbers mutations densely from 1.
type MutID uint32

// Mut is a numbered mutation at a location inside a target.
type Mut struct {
	ID       MutID
	Target   *Target
	Span     ast.Span
	Location MutLocKind

	// Node is the syntax node the mutation was found at.
	Node            ast.Node
	IsInUnsafeBlock bool
	Mutation        Mutation
}

// Substs returns the substitutions of the mutation.
func (m *Mut) Substs() []SubstDef {
	return m.Mutation.Substs
}

// DisplayName returns the human readable description.
func (m *Mut) DisplayName() string {
	return m.Mutation.DisplayName
}

// Safety classifies the mutation from its block and target.
func (m *Mut) Safety() MutationSafety {
	if m.IsInUnsafeBlock {
		return MutationUnsafe
	}

	if m.Target == nil {
		return MutationSafe
	}

	switch {
	case m.Target.Unsafety == UnsafeOf(Unsafe):
		return MutationUnsafe
	case !m.Target.Unsafety.IsNone():
		return MutationTainted
	default:
		return MutationSafe
	}
}

// IsUnsafe reports whether the mutation must be run alone under targeting.
func (m *Mut) IsUnsafe(targeting UnsafeTargeting) bool {
	if m.IsInUnsafeBlock {
		return true
	}

	return m.Target != nil && m.Target.Unsafety.IsUnsafe(targeting)
}

func (m *Mut) String() string {
	return fmt.Sprintf("[%d] %s at %s", m.ID, m.Mutation.DisplayName, m.Span)
}

// MutantID numbers mutants densely from 1.
type MutantID uint32

// Mutant is a batch of mutually compatible mutations.
type Mutant struct {
	ID        MutantID
	Mutations []*Mut
}

// IsUnsafe reports whether any mutation of the mutant is unsafe under
// targeting.
func (m *Mutant) IsUnsafe(targeting UnsafeTargeting) bool {
	for _, mut := range m.Mutations {
		if mut.IsUnsafe(targeting) {
			return true
		}
	}

	return false
}

// Substs returns all substitutions of the mutant.
func (m *Mutant) Substs() []SubstDef {
	var substs []SubstDef
	for _, mut := range m.Mutations {
		substs = append(substs, mut.Substs()...)
	}

	return substs
}

// UndetectedDiagnostic is the message shown when no test detects the mutant.
func (m *Mutant) UndetectedDiagnostic() string {
	var b strings.Builder

	b.WriteString("warning: the following mutations were not detected\n")

	for _, mut := range m.Mutations {
		fmt.Fprintf(&b, "  --> %s\n   = note: %s\n", mut.Span, mut.Mutation.DisplayName)
	}

	return b.String()
}
