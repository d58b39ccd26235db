package controller

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pmezard/go-difflib/difflib"

	m "github.com/babydessy/mutest-rs/internal/model"
)

func newTable(buf *bytes.Buffer, header []string, alignment []int) *tablewriter.Table {
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment(alignment)

	return table
}

func renderSummary(report *m.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s of %s\n", report.RunID, report.Program)
	fmt.Fprintf(&b, "  call graph depth %d, mutation depth %d, unsafe targeting %s\n",
		report.Options.CallGraphDepth, report.Options.MutationDepth, report.Options.UnsafeTargeting)
	fmt.Fprintf(&b, "  batching %s (at most %d mutations per mutant, seed %d)\n",
		report.Options.Algorithm, report.Options.MaxMutations, report.Options.Seed)
	fmt.Fprintf(&b, "  %d targets, %d mutations, %d conflicts, %d mutants\n",
		len(report.Targets), len(report.Mutations), report.Conflicts, report.Mutants)

	return b.String()
}

func renderTargetsTable(targets []m.TargetRecord) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Target", "Distance", "Unsafety", "Tests"},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, t := range targets {
		table.Append([]string{t.Def, fmt.Sprintf("%d", t.Distance), t.Unsafety, strings.Join(t.Tests, ", ")})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Targets %d", len(targets)), "", "", ""})
	table.Render()

	return buf.String()
}

func renderMutationsTable(mutations []m.MutationRecord) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"ID", "Target", "Operator", "Safety", "Mutation"},
		[]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	unsafe := 0

	for _, mut := range mutations {
		if mut.Safety != string(m.MutationSafe) {
			unsafe++
		}

		table.Append([]string{fmt.Sprintf("%d", mut.ID), mut.Target, mut.Operator, mut.Safety, mut.DisplayName})
	}

	table.SetFooter([]string{"", fmt.Sprintf("Total Mutations %d", len(mutations)), "", fmt.Sprintf("%d unsafe", unsafe), ""})
	table.Render()

	return buf.String()
}

func renderMutants(mutants []m.MutantRecord, mutations []m.MutationRecord) string {
	byID := make(map[uint32]m.MutationRecord, len(mutations))
	for _, mut := range mutations {
		byID[mut.ID] = mut
	}

	var b strings.Builder

	for _, mutant := range mutants {
		marker := ""
		if mutant.Unsafe {
			marker = " (unsafe)"
		}

		fmt.Fprintf(&b, "mutant %d%s\n", mutant.ID, marker)

		for _, id := range mutant.Mutations {
			mut, ok := byID[id]
			if !ok {
				fmt.Fprintf(&b, "  [%d] <unknown mutation>\n", id)
				continue
			}

			fmt.Fprintf(&b, "  [%d] %s in %s", mut.ID, mut.DisplayName, mut.Target)

			if mut.Location != "" {
				fmt.Fprintf(&b, " at %s", mut.Location)
			}

			b.WriteString("\n")

			if diff := renderSubstitutionDiff(mut); diff != "" {
				b.WriteString(indent(diff, "      "))
			}
		}
	}

	return b.String()
}

func renderUndetected(mutants []m.MutantRecord) string {
	var b strings.Builder

	for _, mutant := range mutants {
		if mutant.Undetected == "" {
			continue
		}

		fmt.Fprintf(&b, "mutant %d: %s\n", mutant.ID, mutant.Undetected)
	}

	return b.String()
}

// renderSubstitutionDiff shows the mutated node before and after the edit.
func renderSubstitutionDiff(mut m.MutationRecord) string {
	if mut.Original == "" && mut.Substitute == "" {
		return ""
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(mut.Original + "\n"),
		B:        difflib.SplitLines(mut.Substitute + "\n"),
		FromFile: "original",
		ToFile:   mut.Operator,
		Context:  1,
	})
	if err != nil {
		return ""
	}

	return diff
}

func renderDiagnostics(diagnostics []m.Diagnostic) string {
	var b strings.Builder

	for _, d := range diagnostics {
		b.WriteString(d.String())
		b.WriteString("\n")
	}

	return b.String()
}

func renderTimingsTable(timings m.Timings) string {
	var buf bytes.Buffer

	table := newTable(&buf, []string{"Phase", "Duration"}, []int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	table.Append([]string{"targets", timings.Targets.String()})
	table.Append([]string{"mutations", timings.Mutations.String()})
	table.Append([]string{"conflicts", timings.Conflicts.String()})
	table.Append([]string{"batching", timings.Batching.String()})
	table.SetFooter([]string{"total", timings.Total.String()})
	table.Render()

	return buf.String()
}

func indent(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")

	var b strings.Builder

	for _, line := range lines {
		if line == "" {
			continue
		}

		b.WriteString(prefix)
		b.WriteString(line)
	}

	return b.String()
}
