package domain

import (
	"strings"
	"time"

	m "github.com/babydessy/mutest-rs/internal/model"
	"github.com/babydessy/mutest-rs/internal/model/ast"
)

// buildReport converts an analysis into its persisted form.
func buildReport(a *Analysis, args AnalyzeArgs, now time.Time) (*m.Report, []m.MutantRecord) {
	report := &m.Report{
		RunID:     a.RunID,
		Program:   args.Program,
		CreatedAt: now.UTC(),
		Options: m.ReportOptions{
			CallGraphDepth:  args.CallGraphDepth,
			MutationDepth:   args.MutationDepth,
			UnsafeTargeting: args.Targeting.String(),
			Algorithm:       string(args.Batching.Algorithm),
			MaxMutations:    args.Batching.MaxMutations,
			Seed:            args.Batching.Seed,
		},
		Timings:     a.Timings,
		Mutants:     len(a.Mutants),
		Diagnostics: a.Diagnostics,
	}

	for _, t := range a.Targets() {
		report.Targets = append(report.Targets, targetRecord(t))
	}

	for _, mut := range a.Muts {
		report.Mutations = append(report.Mutations, mutationRecord(mut))
	}

	if a.Conflicts != nil {
		report.Conflicts = a.Conflicts.NumConflicts()
	}

	mutants := make([]m.MutantRecord, 0, len(a.Mutants))

	for _, mutant := range a.Mutants {
		record := m.MutantRecord{
			ID:         uint32(mutant.ID),
			Unsafe:     mutant.IsUnsafe(args.Targeting),
			Undetected: mutant.UndetectedDiagnostic(),
		}

		for _, mut := range mutant.Mutations {
			record.Mutations = append(record.Mutations, uint32(mut.ID))
		}

		mutants = append(mutants, record)
	}

	return report, mutants
}

func targetRecord(t *m.Target) m.TargetRecord {
	record := m.TargetRecord{
		Def:      string(t.Def),
		Name:     t.Name,
		Unsafety: t.Unsafety.String(),
		Distance: t.Distance,
	}

	for _, test := range t.ReachingTests() {
		record.Tests = append(record.Tests, string(test))
	}

	return record
}

func mutationRecord(mut *m.Mut) m.MutationRecord {
	record := m.MutationRecord{
		ID:          uint32(mut.ID),
		Operator:    mut.Mutation.Operator,
		DisplayName: mut.DisplayName(),
		Location:    mut.Span.String(),
		Safety:      string(mut.Safety()),
	}

	if mut.Node != nil {
		record.Original = ast.Sprint(mut.Node)
	}

	substitutes := make([]string, 0, len(mut.Substs()))
	for _, subst := range mut.Substs() {
		substitutes = append(substitutes, subst.Substitute.String())
	}

	record.Substitute = strings.Join(substitutes, "\n")

	if mut.Target != nil {
		record.Target = string(mut.Target.Def)

		for _, test := range mut.Target.ReachingTests() {
			record.Tests = append(record.Tests, string(test))
		}
	}

	return record
}
