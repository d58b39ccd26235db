package controller

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	m "github.com/babydessy/mutest-rs/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(_ context.Context) {}

// DisplaySummary prints the headline figures of a report.
func (s *SimpleUI) DisplaySummary(ctx context.Context, report *m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", renderSummary(report))

	return nil
}

// DisplayTargets prints the mutation targets.
func (s *SimpleUI) DisplayTargets(ctx context.Context, targets []m.TargetRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", renderTargetsTable(targets))

	return nil
}

// DisplayGraph prints a rendered graph under a title.
func (s *SimpleUI) DisplayGraph(ctx context.Context, title string, graph string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s:\n%s\n", title, graph)

	return nil
}

// DisplayMutations prints the mutations.
func (s *SimpleUI) DisplayMutations(ctx context.Context, mutations []m.MutationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", renderMutationsTable(mutations))

	return nil
}

// DisplayMutants prints every mutant with the edits it applies.
func (s *SimpleUI) DisplayMutants(ctx context.Context, mutants []m.MutantRecord, mutations []m.MutationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", renderMutants(mutants, mutations))

	return nil
}

// DisplayUndetected prints the diagnostic of each mutant for when no test
// detects it.
func (s *SimpleUI) DisplayUndetected(ctx context.Context, mutants []m.MutantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderUndetected(mutants))

	return nil
}

// DisplayDiagnostics prints warnings and notes.
func (s *SimpleUI) DisplayDiagnostics(ctx context.Context, diagnostics []m.Diagnostic) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(diagnostics) == 0 {
		return nil
	}

	s.printf("%s\n", renderDiagnostics(diagnostics))

	return nil
}

// DisplayTimings prints the phase durations.
func (s *SimpleUI) DisplayTimings(ctx context.Context, timings m.Timings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n", renderTimingsTable(timings))

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
