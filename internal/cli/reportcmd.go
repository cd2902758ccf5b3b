package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexhq/vexobs/internal/report"
)

var (
	reportCategory string
	reportMonth    string
	reportOutput   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a monthly report",
	Long: `Generate a monthly report from the logs: token spend, latency
distribution, or error summary. The report is written under
<root>/reports unless --output names another path.

A month with no matching records is not an error: the command reports
"no data" and exits successfully without producing an artifact.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ReportGen == nil {
			return fmt.Errorf("report generator not initialized")
		}

		month := time.Now().UTC().AddDate(0, -1, 0).Format("2006-01")
		if reportMonth != "" {
			month = reportMonth
		}
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("invalid month %q: use YYYY-MM", month)
		}

		rep, err := ReportGen.Generate(report.Category(reportCategory), parsed.Year(), parsed.Month())
		if errors.Is(err, report.ErrNoData) {
			fmt.Printf("no %s data for %s, no report generated\n", reportCategory, month)
			return nil
		}
		if err != nil {
			return err
		}

		var path string
		if reportOutput != "" {
			path = reportOutput
			if err := os.WriteFile(path, []byte(rep.Body), 0o600); err != nil {
				return fmt.Errorf("writing report to %s: %w", path, err)
			}
		} else {
			path, err = ReportGen.Write(rep)
			if err != nil {
				return err
			}
		}

		fmt.Printf("wrote %s report for %s to %s\n", rep.Category, month, path)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportCategory, "category", "tokens", "Report category: tokens, latency, or errors")
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Calendar month as YYYY-MM (defaults to last month)")
	reportCmd.Flags().StringVar(&reportOutput, "output", "", "Write the report to this path instead of the reports directory")
	rootCmd.AddCommand(reportCmd)
}
