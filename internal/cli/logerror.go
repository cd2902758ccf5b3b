package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vexhq/vexobs/internal/bridge"
	"github.com/vexhq/vexobs/pkg/models"
)

var (
	errConversationID string
	errSeverity       string
	errSource         string
	errMessage        string
	errType           string
	errExitCode       int
	errContext        string
	errStackTrace     string
	errResolutionHint string
	errRecovered      bool
)

var logErrorCmd = &cobra.Command{
	Use:   "log-error",
	Short: "Report an error into the shared error stream",
	Long: `Report an error, warning, or informational condition through the error
bridge. Missing required fields are a usage error; once validated, the
report never fails the caller's flow, even if the error log itself
cannot be written.

An unrecovered report prints a one-line notice to stderr so failures
are visible in real time; pass --recovered for expected, handled
conditions to suppress it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reporter == nil {
			return fmt.Errorf("error bridge not initialized")
		}

		contextBag, err := models.NormalizeBag(errContext)
		if err != nil {
			return err
		}

		rep := bridge.Report{
			ConversationID: errConversationID,
			Severity:       models.Severity(errSeverity),
			Source:         errSource,
			Message:        errMessage,
			ErrorType:      errType,
			ExitCode:       errExitCode,
			Context:        contextBag,
			StackTrace:     errStackTrace,
			ResolutionHint: errResolutionHint,
			Recovered:      errRecovered,
		}
		if err := Reporter.Report(rep); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	logErrorCmd.Flags().StringVar(&errConversationID, "conversation-id", "", "Conversation correlation key (defaults to unknown)")
	logErrorCmd.Flags().StringVar(&errSeverity, "severity", "", "One of: error, warning, info")
	logErrorCmd.Flags().StringVar(&errSource, "source", "", "Identifier of the reporting component")
	logErrorCmd.Flags().StringVar(&errMessage, "message", "", "Human-readable error message")
	logErrorCmd.Flags().StringVar(&errType, "error-type", "", "Free-form classification tag")
	logErrorCmd.Flags().IntVar(&errExitCode, "exit-code", 0, "Process exit status (0 when not applicable)")
	logErrorCmd.Flags().StringVar(&errContext, "context", "", "Opaque JSON object passed through unparsed")
	logErrorCmd.Flags().StringVar(&errStackTrace, "stack-trace", "", "Captured stack trace text")
	logErrorCmd.Flags().StringVar(&errResolutionHint, "resolution-hint", "", "Suggested remediation")
	logErrorCmd.Flags().BoolVar(&errRecovered, "recovered", false, "The caller continued after logging")
	rootCmd.AddCommand(logErrorCmd)
}
