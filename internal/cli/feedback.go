package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/learning"
)

// NewFeedbackCmd creates the 'feedback' command for rating search results.
func NewFeedbackCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "feedback <result-id> <relevance>",
		Short: "Rate a search result's relevance",
		Long: `Submit a relevance rating for a previously served search result.

Relevance is a score in [0, 1]: 1.0 means the result answered the query,
0.0 means it was useless. Feedback is buffered and committed in batches;
each committed batch adapts the ranking weights. The command flushes the
buffer before exiting so CLI feedback takes effect immediately.`,
		Example: `  codebase-index-mcp feedback "internal/auth/login.go#login" 0.9 --query "token validation"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			relevance, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("relevance must be a number in [0, 1]: %w", err)
			}
			return runFeedback(cmd, query, args[0], relevance)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "The query the result was served for")
	cmd.MarkFlagRequired("query")

	return cmd
}

func runFeedback(cmd *cobra.Command, query, resultID string, relevance float64) error {
	event, err := learning.NewFeedbackEvent(query, resultID, relevance)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	comps, err := buildComponents(cfg, true)
	if err != nil {
		return err
	}
	defer comps.close()

	if err := comps.learning.CollectFeedback(event); err != nil {
		return fmt.Errorf("failed to collect feedback: %w", err)
	}

	// CLI invocations are one-shot; commit the event now rather than
	// waiting for the batch threshold.
	if err := comps.learning.FlushFeedbackBuffer(); err != nil {
		return fmt.Errorf("failed to commit feedback: %w", err)
	}

	cmd.Printf("Feedback committed for %s (relevance %.2f).\n", resultID, relevance)
	return nil
}
