package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	obsmcp "github.com/vexhq/vexobs/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the vexobs MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vexobs MCP server on stdio",
	Long: `Start the vexobs MCP server on stdio transport.

The server exposes observability operations as MCP tools that AI coding
assistants can call: log_token_usage, log_latency_trace, report_error,
get_health, generate_report.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TokenLog == nil {
			return fmt.Errorf("log stores not initialized")
		}

		srv := obsmcp.NewServer(TokenLog, TraceLog, Reporter, HealthEval, ReportGen, Estimator, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
