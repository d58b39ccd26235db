// Package cmd provides the root command and CLI setup for mutest.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/babydessy/mutest-rs/internal/adapter"
	"github.com/babydessy/mutest-rs/internal/controller"
	"github.com/babydessy/mutest-rs/internal/domain"
)

var fsAdapter adapter.FSAdapter
var programLoader adapter.ProgramLoader
var reportStore adapter.ReportStore
var metrics *domain.Metrics
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// logFileFlag and verboseFlag configure the log file before any command runs.
var logFileFlag string
var verboseFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	fsAdapter = adapter.NewLocalFSAdapter()
	programLoader = adapter.NewProgramLoader(fsAdapter)
	reportStore = adapter.NewReportStore(fsAdapter)
	metrics = domain.NewMetrics()
	workflow = domain.NewWorkflow(
		programLoader,
		reportStore,
		ui,
		domain.NewReachabilityAnalyzer(),
		domain.NewMutationCollector(),
		domain.NewConflictGraphBuilder(),
		domain.NewBatcher(),
		metrics,
	)
}

const rootLongDescription = `Mutest finds the code reachable from a program's tests, generates
mutations for it and batches compatible mutations into mutants, so that
each mutant can be evaluated with a single build and test run.

Programs are read from YAML program descriptions.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

// newRootCmd returns a fresh root command with its persistent flags.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mutest",
		Short: "Mutation analysis and batching tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for analysis reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
