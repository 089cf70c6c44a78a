package commands

import (
	"github.com/spf13/cobra"
	"github.com/tliron/kutil/version"
)

func init() {
	rootCommand.AddCommand(versionCommand)
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show the version of " + toolName,
	Run: func(command *cobra.Command, args []string) {
		version.Print()
	},
}

// serverVersion is reported to clients on initialize. GitVersion is set at
// build time with -ldflags.
func serverVersion() string {
	if version.GitVersion != "" {
		return version.GitVersion
	}
	return "0.1.0"
}
