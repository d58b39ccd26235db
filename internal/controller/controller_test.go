package controller

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/babydessy/mutest-rs/internal/model"
)

func testReport() *m.Report {
	return &m.Report{
		RunID:   "run-1",
		Program: "examples/basic/program.yaml",
		Options: m.ReportOptions{
			CallGraphDepth:  3,
			MutationDepth:   2,
			UnsafeTargeting: "none",
			Algorithm:       "greedy",
			MaxMutations:    4,
			Seed:            7,
		},
		Targets: []m.TargetRecord{
			{Def: "crate::add", Name: "add", Unsafety: "none", Distance: 0, Tests: []string{"crate::tests::it_adds"}},
		},
		Mutations: []m.MutationRecord{
			{ID: 1, Target: "crate::add", Operator: "op_add_sub_swap", DisplayName: "swap operator `+` for `-`", Location: "src/lib.rs:4:13", Safety: "safe", Original: "a + b", Substitute: "a - b"},
			{ID: 2, Target: "crate::raw", Operator: "op_add_mul_swap", DisplayName: "swap operator `+` for `*`", Safety: "unsafe"},
		},
		Mutants:   2,
		Conflicts: 1,
		Timings:   m.Timings{Targets: time.Millisecond, Total: 2 * time.Millisecond},
	}
}

func testMutants() []m.MutantRecord {
	return []m.MutantRecord{
		{ID: 1, Mutations: []uint32{1}},
		{ID: 2, Unsafe: true, Mutations: []uint32{2, 9}},
	}
}

func TestRenderSummary(t *testing.T) {
	out := renderSummary(testReport())

	assert.Contains(t, out, "Run run-1 of examples/basic/program.yaml")
	assert.Contains(t, out, "call graph depth 3, mutation depth 2, unsafe targeting none")
	assert.Contains(t, out, "batching greedy (at most 4 mutations per mutant, seed 7)")
	assert.Contains(t, out, "1 targets, 2 mutations, 1 conflicts, 2 mutants")
}

func TestRenderTables(t *testing.T) {
	report := testReport()

	targets := renderTargetsTable(report.Targets)
	assert.Contains(t, targets, "crate::add")
	assert.Contains(t, targets, "crate::tests::it_adds")

	mutations := renderMutationsTable(report.Mutations)
	assert.Contains(t, mutations, "op_add_sub_swap")
	assert.Contains(t, mutations, "1 UNSAFE")

	timings := renderTimingsTable(report.Timings)
	assert.Contains(t, timings, "1ms")
	assert.Contains(t, timings, "TOTAL")
}

func TestRenderMutants(t *testing.T) {
	report := testReport()
	out := renderMutants(testMutants(), report.Mutations)

	assert.Contains(t, out, "mutant 1\n")
	assert.Contains(t, out, "mutant 2 (unsafe)\n")
	assert.Contains(t, out, "[1] swap operator `+` for `-` in crate::add at src/lib.rs:4:13\n")
	assert.Contains(t, out, "[2] swap operator `+` for `*` in crate::raw\n")
	assert.Contains(t, out, "      -a + b")
	assert.Contains(t, out, "      +a - b")
	assert.Contains(t, out, "[9] <unknown mutation>")
}

func TestRenderSubstitutionDiffWithoutText(t *testing.T) {
	assert.Empty(t, renderSubstitutionDiff(m.MutationRecord{}))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "> a\n> b\n", indent("a\nb\n", "> "))
	assert.Equal(t, "> a", indent("a", "> "))
}

func TestSimpleUI(t *testing.T) {
	ctx := context.Background()

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	ui := NewSimpleUI(cmd)
	report := testReport()

	require.NoError(t, ui.Start(ctx, WithAnalyzeMode()))
	require.NoError(t, ui.DisplaySummary(ctx, report))
	require.NoError(t, ui.DisplayGraph(ctx, "Conflict graph", "1 -- 2\n"))
	require.NoError(t, ui.DisplayDiagnostics(ctx, nil))
	require.NoError(t, ui.DisplayDiagnostics(ctx, []m.Diagnostic{{Level: m.LevelWarning, Message: "dynamic call"}}))
	require.NoError(t, ui.DisplayMutants(ctx, testMutants(), report.Mutations))
	ui.Wait(ctx)
	ui.Close(ctx)

	text := out.String()
	assert.Contains(t, text, "Run run-1")
	assert.Contains(t, text, "Conflict graph:\n1 -- 2\n")
	assert.Contains(t, text, "warning: dynamic call")
	assert.Contains(t, text, "mutant 2 (unsafe)")
}

func TestRenderUndetected(t *testing.T) {
	mutants := testMutants()
	mutants[1].Undetected = "warning: the following mutations were not detected\n  --> src/lib.rs:4:13: 4:18\n   = note: replace `+` with `*`\n"

	out := renderUndetected(mutants)

	assert.NotContains(t, out, "mutant 1")
	assert.Equal(t,
		"mutant 2: warning: the following mutations were not detected\n  --> src/lib.rs:4:13: 4:18\n   = note: replace `+` with `*`\n\n",
		out)

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	require.NoError(t, NewSimpleUI(cmd).DisplayUndetected(context.Background(), mutants))
	assert.Equal(t, out, buf.String())
}

func TestSimpleUICancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ui := NewSimpleUI(&cobra.Command{})

	require.ErrorIs(t, ui.Start(ctx), context.Canceled)
	require.ErrorIs(t, ui.DisplaySummary(ctx, testReport()), context.Canceled)
	require.ErrorIs(t, ui.DisplayTimings(ctx, m.Timings{}), context.Canceled)
	require.ErrorIs(t, ui.DisplayUndetected(ctx, testMutants()), context.Canceled)
}

func TestTUIPrintsShortOutputDirectly(t *testing.T) {
	ctx := context.Background()
	out := &bytes.Buffer{}

	ui := NewTUI(out)
	require.NoError(t, ui.Start(ctx, WithViewMode()))
	require.NoError(t, ui.DisplaySummary(ctx, testReport()))
	require.NoError(t, ui.DisplayMutations(ctx, testReport().Mutations))
	require.NoError(t, ui.DisplayDiagnostics(ctx, nil))
	ui.Wait(ctx)
	ui.Close(ctx)

	text := out.String()
	assert.Contains(t, text, "stored report")
	assert.Contains(t, text, "Mutations")
	assert.Contains(t, text, "op_add_mul_swap")
	assert.NotContains(t, text, "Diagnostics")
}

func TestTUIWaitWithoutSections(t *testing.T) {
	out := &bytes.Buffer{}

	ui := NewTUI(out)
	require.NoError(t, ui.Start(context.Background()))
	ui.Wait(context.Background())

	assert.Empty(t, out.String())
}

func TestReportModel(t *testing.T) {
	content := ""
	for i := 0; i < 50; i++ {
		content += "line\n"
	}

	model := newReportModel("title", content)
	assert.False(t, model.needsPagination())
	assert.Equal(t, "loading...\n", model.View())

	model = model.resize(80, 20)
	assert.True(t, model.needsPagination())
	assert.Equal(t, 16, model.viewport.Height)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 100})
	assert.False(t, updated.(reportModel).needsPagination())

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.NotNil(t, cmd)
	assert.Empty(t, updated.View())
}

func TestNewUI(t *testing.T) {
	cmd := &cobra.Command{}

	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false))
	assert.IsType(t, &TUI{}, NewUI(cmd, true))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
