package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/babydessy/mutest-rs/internal/domain"
	m "github.com/babydessy/mutest-rs/internal/model"
)

var viewPrintFlag []string
var viewTimingsFlag bool

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the last analysis report",
		Long:  "View the analysis report stored in the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			printOpts, err := parsePrintOptions(viewPrintFlag)
			if err != nil {
				return err
			}

			printOpts.Timings = viewTimingsFlag
			reportsPath := m.Path(viper.GetString(outputFlagName))

			return workflow.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath, Print: printOpts})
		},
	}

	cmd.Flags().StringSliceVar(&viewPrintFlag, "print", []string{"mutations", "mutants"}, "sections to print: targets, mutations, mutants, undetected")
	cmd.Flags().BoolVar(&viewTimingsFlag, "timings", false, "print the duration of each phase")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
