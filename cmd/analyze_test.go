package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/babydessy/mutest-rs/internal/domain"
	domainmocks "github.com/babydessy/mutest-rs/internal/domain/mocks"
	m "github.com/babydessy/mutest-rs/internal/model"
)

func newTestAnalyzeCmd(t *testing.T) (*domainmocks.MockWorkflow, func(args ...string) error) {
	t.Helper()

	mockWorkflow := domainmocks.NewMockWorkflow(t)

	originalWorkflow := workflow
	workflow = mockWorkflow
	t.Cleanup(func() { workflow = originalWorkflow })

	run := func(args ...string) error {
		cmd := newRootCmd()
		cmd.AddCommand(newAnalyzeCmd())
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"analyze", "--" + logFileFlagName, filepath.Join(t.TempDir(), "mutest.log")}, args...))

		return cmd.Execute()
	}

	return mockWorkflow, run
}

func TestAnalyzeCmd_Defaults(t *testing.T) {
	mockWorkflow, run := newTestAnalyzeCmd(t)

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.MatchedBy(func(args domain.AnalyzeArgs) bool {
		return args.Program == m.Path("program.yaml") &&
			args.Reports == m.Path(".mutest-reports") &&
			args.CallGraphDepth == 3 &&
			args.MutationDepth == 3 &&
			args.Targeting == m.UnsafeTargetingNone &&
			args.Batching == domain.DefaultBatchOptions() &&
			len(args.Operators) > 0 &&
			args.Print == domain.PrintOptions{Format: domain.GraphSimple}
	})).Return(&domain.Analysis{}, nil)

	require.NoError(t, run("program.yaml"))
}

func TestAnalyzeCmd_FlagsOverrideConfig(t *testing.T) {
	mockWorkflow, run := newTestAnalyzeCmd(t)

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.MatchedBy(func(args domain.AnalyzeArgs) bool {
		return args.CallGraphDepth == 5 &&
			args.MutationDepth == 2 &&
			args.Targeting == m.UnsafeTargetingEnclosingUnsafe &&
			args.Batching.Algorithm == domain.BatchRandom &&
			args.Batching.Ordering == domain.OrderConflictsDesc &&
			args.Batching.MaxMutations == 4 &&
			args.Batching.Seed == 7 &&
			args.Parallel == 2 &&
			assert.ObjectsAreEqual([]string{"bool_lit_flip", "call_stmt_delete"}, args.Operators)
	})).Return(&domain.Analysis{}, nil)

	require.NoError(t, run("program.yaml",
		"--call-graph-depth", "5",
		"--mutation-depth", "2",
		"--unsafe-targeting", "enclosing-unsafe",
		"--batching", "random",
		"--ordering", "conflicts-desc",
		"--max-mutations", "4",
		"--seed", "7",
		"--parallel", "2",
		"--operators", "bool_lit_flip,call_stmt_delete",
	))
}

func TestAnalyzeCmd_PrintOptions(t *testing.T) {
	mockWorkflow, run := newTestAnalyzeCmd(t)

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.MatchedBy(func(args domain.AnalyzeArgs) bool {
		p := args.Print
		return p.Targets && p.CallGraph && p.ConflictGraph && p.Mutants && !p.Mutations &&
			p.Timings &&
			p.Format == domain.GraphGraphviz &&
			p.Graph.Compatibility && p.Graph.ExcludeUnsafe &&
			args.Reports == ""
	})).Return(&domain.Analysis{}, nil)

	require.NoError(t, run("program.yaml",
		"--print", "targets,call-graph,conflict-graph,mutants",
		"--graph-format", "graphviz",
		"--compatibility-graph",
		"--exclude-unsafe",
		"--timings",
		"--no-report",
	))
}

func TestAnalyzeCmd_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing program", nil},
		{"unknown targeting", []string{"program.yaml", "--unsafe-targeting", "sometimes"}},
		{"unknown batching", []string{"program.yaml", "--batching", "tabu"}},
		{"unknown ordering", []string{"program.yaml", "--ordering", "sideways"}},
		{"unknown print section", []string{"program.yaml", "--print", "everything"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, run := newTestAnalyzeCmd(t)
			require.Error(t, run(tt.args...))
		})
	}
}

func TestAnalyzeCmd_TraceFile(t *testing.T) {
	mockWorkflow, run := newTestAnalyzeCmd(t)
	tracePath := filepath.Join(t.TempDir(), "trace.json")

	mockWorkflow.EXPECT().Analyze(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ domain.AnalyzeArgs) (*domain.Analysis, error) {
			_, span := otel.Tracer("test").Start(ctx, "analyze-under-test")
			span.End()

			return &domain.Analysis{}, nil
		})

	require.NoError(t, run("program.yaml", "--trace-file", tracePath))

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "analyze-under-test")
}

func TestAnalyzeCmd_EpsilonUsage(t *testing.T) {
	flag := newAnalyzeCmd().Flags().Lookup(epsilonFlagName)
	require.NotNil(t, flag)

	assert.Contains(t, flag.Usage, "random compatible mutant")
	assert.NotContains(t, flag.Usage, "new mutant")
}

func TestParsePrintOptions(t *testing.T) {
	opts, err := parsePrintOptions([]string{"Targets", " mutations ", ""})
	require.NoError(t, err)
	assert.Equal(t, domain.PrintOptions{Targets: true, Mutations: true}, opts)

	opts, err = parsePrintOptions([]string{"mutants", "undetected"})
	require.NoError(t, err)
	assert.Equal(t, domain.PrintOptions{Mutants: true, Undetected: true}, opts)

	_, err = parsePrintOptions([]string{"call-graph", "bogus"})
	require.Error(t, err)
}
