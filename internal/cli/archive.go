package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexhq/vexobs/internal/store"
)

var archiveBefore string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move cold log files out of the active log tree",
	Long: `Move per-conversation trace files and the error log into the archive
directory when they have not been written since the cutoff month. Files
keep their content; archived streams are simply no longer scanned by
health or report.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if LogsRoot == "" {
			return fmt.Errorf("logs root not initialized")
		}

		cutoff, err := time.Parse("2006-01", archiveBefore)
		if err != nil {
			return fmt.Errorf("invalid cutoff %q: use YYYY-MM", archiveBefore)
		}

		moved, err := store.ArchiveBefore(LogsRoot, cutoff)
		if err != nil {
			return fmt.Errorf("archiving logs: %w", err)
		}

		if len(moved) == 0 {
			fmt.Println("no log files older than cutoff")
			return nil
		}
		for _, path := range moved {
			fmt.Printf("archived %s\n", path)
		}
		fmt.Printf("archived %d file(s)\n", len(moved))
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVar(&archiveBefore, "before", "", "Archive files last written before this month (YYYY-MM)")
	archiveCmd.MarkFlagRequired("before")
	rootCmd.AddCommand(archiveCmd)
}
