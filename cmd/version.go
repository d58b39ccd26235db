package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/babydessy/mutest-rs/internal/domain/operators"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the mutest build, the Go toolchain, the config format and the operator catalog size.",
		Run: func(cmd *cobra.Command, _ []string) {
			goVersion := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion
			}

			cmd.Println("mutest version\t", buildVersion())
			cmd.Println("go version\t", goVersion)
			cmd.Println("config version\t", currentConfigVersion)
			cmd.Println("operators\t", len(operators.All()))
		},
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "unknown"
	}

	return info.Main.Version
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
