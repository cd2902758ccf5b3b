// Package cli implements the vexobs command-line interface: append
// operations for the three log streams, health snapshots, monthly
// reports, archival maintenance, and the MCP server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "vexobs",
	Short: "vexobs - observability layer for local AI tooling",
	Long: `vexobs records operational events of a local AI-tooling platform
(token spend, operation latency, errors and warnings) into durable
append-only logs, and derives health snapshots and monthly reports
from them.

Producers append through log-tokens, log-trace, and log-error; health
and report read the logs and never mutate them.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vexobs %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
