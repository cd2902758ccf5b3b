package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexhq/vexobs/internal/store"
	"github.com/vexhq/vexobs/pkg/models"
)

var (
	trcConversationID string
	trcTraceID        string
	trcParentTraceID  string
	trcOperationType  string
	trcOperationName  string
	trcStartNS        int64
	trcEndNS          int64
	trcMetadata       string
)

var logTraceCmd = &cobra.Command{
	Use:   "log-trace",
	Short: "Record one timed span",
	Long: `Append a latency trace record to the per-conversation trace stream.

Start and end times are Unix nanoseconds (as produced by date +%s%N or
time.time_ns()). The computed duration is printed for the caller's
convenience. Spans nest via --parent-trace-id, forming a call tree
within the conversation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TraceLog == nil {
			return fmt.Errorf("trace log store not initialized")
		}

		metadata, err := models.NormalizeBag(trcMetadata)
		if err != nil {
			return err
		}

		rec := models.LatencyTrace{
			ConversationID: trcConversationID,
			TraceID:        trcTraceID,
			ParentTraceID:  trcParentTraceID,
			OperationType:  trcOperationType,
			OperationName:  trcOperationName,
			StartTime:      time.Unix(0, trcStartNS).UTC(),
			EndTime:        time.Unix(0, trcEndNS).UTC(),
			Metadata:       metadata,
		}
		if rec.TraceID == "" {
			rec.TraceID = store.NewTraceID()
		}

		duration, err := TraceLog.Append(&rec)
		if err != nil {
			return fmt.Errorf("logging latency trace: %w", err)
		}

		fmt.Printf("recorded span %s: %.3fms\n", rec.TraceID, duration)
		return nil
	},
}

func init() {
	logTraceCmd.Flags().StringVar(&trcConversationID, "conversation-id", "", "Conversation correlation key (defaults to unknown)")
	logTraceCmd.Flags().StringVar(&trcTraceID, "trace-id", "", "Unique span identifier (generated when absent)")
	logTraceCmd.Flags().StringVar(&trcParentTraceID, "parent-trace-id", "", "Parent span identifier for nested spans")
	logTraceCmd.Flags().StringVar(&trcOperationType, "operation-type", "", "Operation category")
	logTraceCmd.Flags().StringVar(&trcOperationName, "operation-name", "", "Specific operation identifier")
	logTraceCmd.Flags().Int64Var(&trcStartNS, "start-time", 0, "Span start as Unix nanoseconds")
	logTraceCmd.Flags().Int64Var(&trcEndNS, "end-time", 0, "Span end as Unix nanoseconds")
	logTraceCmd.Flags().StringVar(&trcMetadata, "metadata", "", "Opaque JSON object passed through unparsed")
	rootCmd.AddCommand(logTraceCmd)
}
