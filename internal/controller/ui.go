// Package controller provides output adapters for displaying analysis results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "github.com/babydessy/mutest-rs/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeAnalyze StartMode = iota
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithAnalyzeMode sets the UI to print the results of a fresh analysis.
func WithAnalyzeMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeAnalyze
	}
}

// WithViewMode sets the UI to browse a stored report.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// UI defines the interface for displaying analysis results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplaySummary(ctx context.Context, report *m.Report) error
	DisplayTargets(ctx context.Context, targets []m.TargetRecord) error
	DisplayGraph(ctx context.Context, title string, graph string) error
	DisplayMutations(ctx context.Context, mutations []m.MutationRecord) error
	DisplayMutants(ctx context.Context, mutants []m.MutantRecord, mutations []m.MutationRecord) error
	DisplayUndetected(ctx context.Context, mutants []m.MutantRecord) error
	DisplayDiagnostics(ctx context.Context, diagnostics []m.Diagnostic) error
	DisplayTimings(ctx context.Context, timings m.Timings) error
}

// NewUI returns the interactive UI on a terminal and the plain one otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
