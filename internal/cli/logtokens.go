package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vexhq/vexobs/pkg/models"
)

var (
	tokConversationID string
	tokOperationType  string
	tokOperationName  string
	tokInputTokens    int64
	tokOutputTokens   int64
	tokModel          string
	tokEstimateText   string
	tokMetadata       string
)

var logTokensCmd = &cobra.Command{
	Use:   "log-tokens",
	Short: "Record the token spend of one operation",
	Long: `Append a token usage record to the token log stream.

Total tokens and cost are derived before the record is written. When
exact counts are unknown, pass --estimate-text to approximate the output
token count from text; the record is then flagged as estimated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TokenLog == nil {
			return fmt.Errorf("token log store not initialized")
		}

		metadata, err := models.NormalizeBag(tokMetadata)
		if err != nil {
			return err
		}

		rec := models.TokenUsage{
			ConversationID: tokConversationID,
			OperationType:  tokOperationType,
			OperationName:  tokOperationName,
			InputTokens:    tokInputTokens,
			OutputTokens:   tokOutputTokens,
			Model:          tokModel,
			Metadata:       metadata,
		}
		if tokEstimateText != "" && tokInputTokens == 0 && tokOutputTokens == 0 {
			count, _ := Estimator.Estimate(tokModel, tokEstimateText)
			rec.OutputTokens = count
			rec.Estimated = true
		}

		if err := TokenLog.Append(&rec); err != nil {
			return fmt.Errorf("logging token usage: %w", err)
		}

		fmt.Printf("recorded %d tokens ($%.6f) for %s/%s\n",
			rec.TotalTokens, rec.Cost, rec.OperationType, rec.OperationName)
		return nil
	},
}

func init() {
	logTokensCmd.Flags().StringVar(&tokConversationID, "conversation-id", "", "Conversation correlation key (defaults to unknown)")
	logTokensCmd.Flags().StringVar(&tokOperationType, "operation-type", "", "Operation category (e.g. rag_search, rag_index)")
	logTokensCmd.Flags().StringVar(&tokOperationName, "operation-name", "", "Specific operation identifier")
	logTokensCmd.Flags().Int64Var(&tokInputTokens, "input-tokens", 0, "Exact input token count")
	logTokensCmd.Flags().Int64Var(&tokOutputTokens, "output-tokens", 0, "Exact output token count")
	logTokensCmd.Flags().StringVar(&tokModel, "model", "", "Model identifier used for pricing")
	logTokensCmd.Flags().StringVar(&tokEstimateText, "estimate-text", "", "Estimate output tokens from this text when counts are unknown")
	logTokensCmd.Flags().StringVar(&tokMetadata, "metadata", "", "Opaque JSON object passed through unparsed")
	rootCmd.AddCommand(logTokensCmd)
}
