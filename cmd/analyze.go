package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/babydessy/mutest-rs/internal/domain"
	"github.com/babydessy/mutest-rs/internal/domain/operators"
	m "github.com/babydessy/mutest-rs/internal/model"
)

const analyzeLongDescription = `Analyze a program description: find the definitions reachable from its
tests, collect mutations for them, build the mutation conflict graph and
batch the mutations into mutants.

Sections printed after the summary are chosen with --print, a comma
separated list of: targets, call-graph, conflict-graph, mutations, mutants.`

var (
	analyzePrintFlag         []string
	analyzeGraphFormatFlag   string
	analyzeCompatibilityFlag bool
	analyzeExcludeUnsafeFlag bool
	analyzeTimingsFlag       bool
	analyzeMetricsFileFlag   string
	analyzeTraceFileFlag     string
	analyzeNoReportFlag      bool

	callGraphDepthFlag  int
	mutationDepthFlag   int
	unsafeTargetingFlag string
	operatorsFlag       []string
	batchingFlag        string
	orderingFlag        string
	epsilonFlag         float64
	maxMutationsFlag    int
	seedFlag            int64
	parallelFlag        int
)

// analyzeCmd represents the analyze command.
var analyzeCmd = newAnalyzeCmd()

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <program.yaml>",
		Short: "Collect and batch mutations of a program",
		Long:  analyzeLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzeArgs, err := analyzeArgsFromConfig(m.Path(args[0]))
			if err != nil {
				return err
			}

			shutdown, err := setupTracing(analyzeTraceFileFlag)
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdown(cmd.Context()); err != nil {
					slog.Error("failed to flush traces", "error", err)
				}
			}()

			_, err = workflow.Analyze(cmd.Context(), analyzeArgs)

			return err
		},
	}

	configureAnalyzeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func configureAnalyzeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	defaults := domain.DefaultBatchOptions()

	flags.IntVar(&callGraphDepthFlag, callGraphDepthFlagName, defaultCallGraphDepth, "maximum call depth explored from each test")
	bindFlagToConfig(flags.Lookup(callGraphDepthFlagName), callGraphDepthKey)

	flags.IntVar(&mutationDepthFlag, mutationDepthFlagName, defaultMutationDepth, "only mutate targets closer to a test than this")
	bindFlagToConfig(flags.Lookup(mutationDepthFlagName), mutationDepthKey)

	flags.StringVar(&unsafeTargetingFlag, unsafeTargetingFlagName, defaultUnsafeTargeting, "unsafe code to mutate: none, enclosing, enclosing-unsafe or all")
	bindFlagToConfig(flags.Lookup(unsafeTargetingFlagName), unsafeTargetingKey)

	flags.StringSliceVar(&operatorsFlag, operatorsFlagName, operators.Names(), "mutation operators to apply")
	bindFlagToConfig(flags.Lookup(operatorsFlagName), operatorsKey)

	flags.StringVar(&batchingFlag, batchingFlagName, string(defaults.Algorithm), "batching algorithm: none, greedy, random or annealing")
	bindFlagToConfig(flags.Lookup(batchingFlagName), batchingAlgorithmKey)

	flags.StringVar(&orderingFlag, orderingFlagName, string(defaults.Ordering), "greedy ordering: none, conflicts-asc, conflicts-desc or random")
	bindFlagToConfig(flags.Lookup(orderingFlagName), batchingOrderingKey)

	flags.Float64Var(&epsilonFlag, epsilonFlagName, defaults.Epsilon, "probability of placing a mutation in a random compatible mutant instead of the first one in greedy batching")
	bindFlagToConfig(flags.Lookup(epsilonFlagName), batchingEpsilonKey)

	flags.IntVar(&maxMutationsFlag, maxMutationsFlagName, defaults.MaxMutations, "maximum mutations per mutant")
	bindFlagToConfig(flags.Lookup(maxMutationsFlagName), batchingMaxMutationsKey)

	flags.Int64Var(&seedFlag, seedFlagName, defaults.Seed, "seed of the randomized batching algorithms")
	bindFlagToConfig(flags.Lookup(seedFlagName), batchingSeedKey)

	flags.IntVarP(&parallelFlag, runParallelFlagName, "p", defaultRunParallel, "workers building the conflict graph (0 for one per CPU)")
	bindFlagToConfig(flags.Lookup(runParallelFlagName), runParallelConfigKey)

	flags.StringSliceVar(&analyzePrintFlag, "print", nil, "sections to print: targets, call-graph, conflict-graph, mutations, mutants, undetected")
	flags.StringVar(&analyzeGraphFormatFlag, "graph-format", string(domain.GraphSimple), "graph output format: simple or graphviz")
	flags.BoolVar(&analyzeCompatibilityFlag, "compatibility-graph", false, "print the compatibility graph instead of the conflict graph")
	flags.BoolVar(&analyzeExcludeUnsafeFlag, "exclude-unsafe", false, "leave unsafe mutations out of the printed graph")
	flags.BoolVar(&analyzeTimingsFlag, "timings", false, "print the duration of each phase")
	flags.StringVar(&analyzeMetricsFileFlag, "metrics-file", "", "write prometheus metrics of the run to this file")
	flags.StringVar(&analyzeTraceFileFlag, "trace-file", "", "write the spans of the run to this file")
	flags.BoolVar(&analyzeNoReportFlag, "no-report", false, "do not write the report to the output directory")
}

func analyzeArgsFromConfig(program m.Path) (domain.AnalyzeArgs, error) {
	targeting, err := m.ParseUnsafeTargeting(viper.GetString(unsafeTargetingKey))
	if err != nil {
		return domain.AnalyzeArgs{}, err
	}

	batching, err := batchOptionsFromConfig()
	if err != nil {
		return domain.AnalyzeArgs{}, err
	}

	printOpts, err := parsePrintOptions(analyzePrintFlag)
	if err != nil {
		return domain.AnalyzeArgs{}, err
	}

	printOpts.Format = domain.GraphFormat(analyzeGraphFormatFlag)
	printOpts.Timings = analyzeTimingsFlag
	printOpts.Graph = domain.GraphOptions{
		Compatibility: analyzeCompatibilityFlag,
		ExcludeUnsafe: analyzeExcludeUnsafeFlag,
	}

	reports := m.Path(viper.GetString(outputFlagName))
	if analyzeNoReportFlag {
		reports = ""
	}

	return domain.AnalyzeArgs{
		Program:        program,
		Reports:        reports,
		CallGraphDepth: viper.GetInt(callGraphDepthKey),
		MutationDepth:  viper.GetInt(mutationDepthKey),
		Targeting:      targeting,
		Operators:      viper.GetStringSlice(operatorsKey),
		Batching:       batching,
		Parallel:       viper.GetInt(runParallelConfigKey),
		Print:          printOpts,
		MetricsFile:    analyzeMetricsFileFlag,
	}, nil
}

// parsePrintOptions reads the sections named by --print.
func parsePrintOptions(sections []string) (domain.PrintOptions, error) {
	var opts domain.PrintOptions

	for _, section := range sections {
		switch strings.ToLower(strings.TrimSpace(section)) {
		case "targets":
			opts.Targets = true
		case "call-graph":
			opts.CallGraph = true
		case "conflict-graph":
			opts.ConflictGraph = true
		case "mutations":
			opts.Mutations = true
		case "mutants":
			opts.Mutants = true
		case "undetected":
			opts.Undetected = true
		case "":
		default:
			return opts, fmt.Errorf("unknown print section %q", section)
		}
	}

	return opts, nil
}
