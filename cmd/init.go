package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const forceFlagName = "force"

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default mutest.yaml configuration file",
		Long: `Create a mutest.yaml in the current working directory holding the analysis,
batching and logging settings currently in effect, so they can be edited manually.
An existing file is kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			force, err := cmd.Flags().GetBool(forceFlagName)
			if err != nil {
				return err
			}

			write := viper.SafeWriteConfigAs
			if force {
				write = viper.WriteConfigAs
			}

			if err := write(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("wrote %s (batching %s, at most %d mutations per mutant)\n",
				targetPath, viper.GetString(batchingAlgorithmKey), viper.GetInt(batchingMaxMutationsKey))

			return nil
		},
	}

	cmd.Flags().Bool(forceFlagName, false, "overwrite an existing configuration file")

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}
