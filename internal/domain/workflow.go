// Package domain contains the analysis phases and the workflow running them.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/babydessy/mutest-rs/internal/adapter"
	"github.com/babydessy/mutest-rs/internal/controller"
	"github.com/babydessy/mutest-rs/internal/domain/operators"
	m "github.com/babydessy/mutest-rs/internal/model"
)

// GraphFormat selects how graphs are printed.
type GraphFormat string

// Graph formats.
const (
	GraphSimple   GraphFormat = "simple"
	GraphGraphviz GraphFormat = "graphviz"
)

// PrintOptions selects the sections printed after an analysis.
type PrintOptions struct {
	Targets       bool
	CallGraph     bool
	ConflictGraph bool
	Mutations     bool
	Mutants       bool
	Undetected    bool
	Timings       bool
	Format        GraphFormat `validate:"omitempty,oneof=simple graphviz"`
	Graph         GraphOptions
}

// AnalyzeArgs contains the arguments of an analysis run.
type AnalyzeArgs struct {
	Program        m.Path `validate:"required"`
	Reports        m.Path
	CallGraphDepth int `validate:"gte=1"`
	MutationDepth  int `validate:"gte=1"`
	Targeting      m.UnsafeTargeting
	Operators      []string
	Batching       BatchOptions
	Parallel       int `validate:"gte=0"`
	Print          PrintOptions
	MetricsFile    string
}

// ViewArgs contains the arguments for showing a stored report.
type ViewArgs struct {
	Reports m.Path `validate:"required"`
	Print   PrintOptions
}

// Analysis is everything one run produced.
type Analysis struct {
	RunID        string
	Program      *m.Program
	Reachability *Reachability
	Muts         []*m.Mut
	Conflicts    *MutationConflictGraph
	Mutants      []*m.Mutant
	Diagnostics  []m.Diagnostic
	Timings      m.Timings
}

// Targets returns the reachable definitions.
func (a *Analysis) Targets() []*m.Target {
	if a.Reachability == nil {
		return nil
	}

	return a.Reachability.Targets
}

// Workflow defines the interface for the analysis workflow.
type Workflow interface {
	Analyze(ctx context.Context, args AnalyzeArgs) (*Analysis, error)
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	adapter.ProgramLoader
	adapter.ReportStore
	controller.UI
	MutationCollector
	ConflictGraphBuilder
	Batcher

	reachability ReachabilityAnalyzer
	metrics      *Metrics
	validate     *validator.Validate
	now          func() time.Time
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	loader adapter.ProgramLoader,
	reportStore adapter.ReportStore,
	ui controller.UI,
	reachability ReachabilityAnalyzer,
	collector MutationCollector,
	conflicts ConflictGraphBuilder,
	batcher Batcher,
	metrics *Metrics,
) Workflow {
	return &workflow{
		ProgramLoader:        loader,
		ReportStore:          reportStore,
		UI:                   ui,
		MutationCollector:    collector,
		ConflictGraphBuilder: conflicts,
		Batcher:              batcher,
		reachability:         reachability,
		metrics:              metrics,
		validate:             validator.New(),
		now:                  time.Now,
	}
}

func (w *workflow) Analyze(ctx context.Context, args AnalyzeArgs) (*Analysis, error) {
	if err := w.validate.Struct(args); err != nil {
		return nil, fmt.Errorf("invalid analysis arguments: %w", err)
	}

	ops, err := operators.ByName(args.Operators...)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "analyze",
		trace.WithAttributes(attribute.String("program", string(args.Program))))
	defer span.End()

	analysis := &Analysis{RunID: uuid.NewString()}
	started := w.now()

	slog.Info("starting analysis", "run", analysis.RunID, "program", args.Program)

	oracle, program, err := w.Load(ctx, args.Program)
	if err != nil {
		return nil, failPhase(span, "load program", err)
	}

	analysis.Program = program

	phase := w.now()

	analysis.Reachability, err = w.reachability.Analyze(ctx, oracle, args.CallGraphDepth)
	if err != nil {
		return nil, failPhase(span, "reachability", err)
	}

	analysis.Timings.Targets = w.now().Sub(phase)
	phase = w.now()

	collection, err := w.Collect(ctx, oracle, analysis.Targets(), CollectOptions{
		Targeting:     args.Targeting,
		MutationDepth: args.MutationDepth,
		Operators:     ops,
	})
	if err != nil {
		return nil, failPhase(span, "collect mutations", err)
	}

	analysis.Muts = collection.Muts
	analysis.Timings.Mutations = w.now().Sub(phase)
	phase = w.now()

	analysis.Conflicts, err = w.Build(ctx, analysis.Muts, BuildOptions{
		Targeting: args.Targeting,
		Parallel:  args.Parallel,
	})
	if err != nil {
		return nil, failPhase(span, "conflict graph", err)
	}

	analysis.Timings.Conflicts = w.now().Sub(phase)
	phase = w.now()

	analysis.Mutants, err = w.Batch(ctx, analysis.Muts, analysis.Conflicts, args.Batching)
	if err != nil {
		return nil, failPhase(span, "batch mutations", err)
	}

	analysis.Timings.Batching = w.now().Sub(phase)
	analysis.Timings.Total = w.now().Sub(started)

	analysis.Diagnostics = append(append([]m.Diagnostic{}, analysis.Reachability.Diagnostics...), collection.Diagnostics...)

	span.SetAttributes(
		attribute.String("run_id", analysis.RunID),
		attribute.Int("mutations", len(analysis.Muts)),
		attribute.Int("mutants", len(analysis.Mutants)),
	)

	slog.Info("analysis finished",
		"run", analysis.RunID,
		"targets", len(analysis.Targets()),
		"mutations", len(analysis.Muts),
		"mutants", len(analysis.Mutants),
		"duration", analysis.Timings.Total)

	report, mutants := buildReport(analysis, args, w.now())

	if args.Reports != "" {
		if err := w.Save(ctx, args.Reports, report, mutants); err != nil {
			return nil, failPhase(span, "save report", err)
		}
	}

	if w.metrics != nil {
		w.metrics.Observe(analysis)

		if args.MetricsFile != "" {
			if err := w.metrics.WriteTextfile(args.MetricsFile); err != nil {
				return nil, err
			}
		}
	}

	if err := w.display(ctx, controller.WithAnalyzeMode(), report, mutants, analysis, args.Print); err != nil {
		return nil, err
	}

	return analysis, nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := w.validate.Struct(args); err != nil {
		return fmt.Errorf("invalid view arguments: %w", err)
	}

	report, err := w.LoadSummary(ctx, args.Reports)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}

	spill, err := w.LoadMutants(ctx, args.Reports)
	if err != nil {
		return fmt.Errorf("load mutants: %w", err)
	}
	defer spill.Close()

	mutants := make([]m.MutantRecord, 0, spill.Len())

	if err := spill.Range(func(_ uint64, record m.MutantRecord) error {
		mutants = append(mutants, record)
		return nil
	}); err != nil {
		slog.Error("failed to read mutants", "error", err)
		return fmt.Errorf("read mutants: %w", err)
	}

	return w.display(ctx, controller.WithViewMode(), report, mutants, nil, args.Print)
}

// display shows the selected sections. Graphs are only available right
// after an analysis.
func (w *workflow) display(ctx context.Context, mode controller.StartOption, report *m.Report, mutants []m.MutantRecord, analysis *Analysis, opts PrintOptions) error {
	if err := w.Start(ctx, mode); err != nil {
		slog.Error("failed to start UI", "error", err)
		return err
	}
	defer w.Close(ctx)

	steps := []func() error{
		func() error { return w.DisplaySummary(ctx, report) },
		func() error { return w.DisplayDiagnostics(ctx, report.Diagnostics) },
	}

	if opts.Targets {
		steps = append(steps, func() error { return w.DisplayTargets(ctx, report.Targets) })
	}

	if opts.CallGraph && analysis != nil {
		steps = append(steps, func() error {
			text, err := renderCallGraph(analysis.Reachability.CallGraph, opts.Format)
			if err != nil {
				return err
			}

			return w.DisplayGraph(ctx, "Call graph", text)
		})
	}

	if opts.ConflictGraph && analysis != nil {
		steps = append(steps, func() error {
			return w.DisplayGraph(ctx, "Conflict graph", renderConflictGraph(analysis.Conflicts, opts))
		})
	}

	if opts.Mutations {
		steps = append(steps, func() error { return w.DisplayMutations(ctx, report.Mutations) })
	}

	if opts.Mutants {
		steps = append(steps, func() error { return w.DisplayMutants(ctx, mutants, report.Mutations) })
	}

	if opts.Undetected {
		steps = append(steps, func() error { return w.DisplayUndetected(ctx, mutants) })
	}

	if opts.Timings {
		steps = append(steps, func() error { return w.DisplayTimings(ctx, report.Timings) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			slog.Error("failed to display results", "error", err)
			return fmt.Errorf("display: %w", err)
		}
	}

	w.Wait(ctx)

	return nil
}

// failPhase records err on span and wraps it with the failed phase.
func failPhase(span trace.Span, phase string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, phase)

	return fmt.Errorf("%s: %w", phase, err)
}

func renderCallGraph(g *CallGraph, format GraphFormat) (string, error) {
	if format != GraphGraphviz {
		return g.String(), nil
	}

	data, err := g.MarshalDOT()
	if err != nil {
		return "", fmt.Errorf("render call graph: %w", err)
	}

	return string(data), nil
}

func renderConflictGraph(g *MutationConflictGraph, opts PrintOptions) string {
	if opts.Format == GraphGraphviz {
		return g.FormatDOT(opts.Graph)
	}

	return g.Format(opts.Graph)
}
