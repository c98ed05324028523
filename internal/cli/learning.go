/*
Package cli learning commands.

These commands inspect and control the adaptive ranking loop: view the
current weights and accuracy, toggle feedback collection, and clear
collected data.
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/config"
)

// NewLearningCmd creates the learning command group.
func NewLearningCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learning",
		Short: "Manage the adaptive ranking loop",
		Long: `The learning loop adapts search ranking weights from relevance feedback.

Feedback events are buffered and committed in batches; each commit updates
the per-channel feature weights and checkpoints them as a model version.
All data is stored locally in ~/.codebase-index-mcp/index.db with privacy
protection (SHA256 hashing of queries).

Commands:
  status  Show adaptive weights and accuracy statistics
  enable  Turn on feedback collection
  disable Turn off feedback collection
  reset   Delete all learning data`,
	}

	cmd.AddCommand(newLearningStatusCmd())
	cmd.AddCommand(newLearningEnableCmd())
	cmd.AddCommand(newLearningDisableCmd())
	cmd.AddCommand(newLearningResetCmd())

	return cmd
}

// newLearningStatusCmd shows the live weights and counters.
func newLearningStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show adaptive weights and accuracy statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			comps, err := buildComponents(cfg, false)
			if err != nil {
				return err
			}
			defer comps.close()

			weights := comps.learning.GetAdaptiveWeights()
			snapshot := comps.learning.PerformanceMonitoring()

			cmd.Println("Learning Status")
			cmd.Println("===============")
			cmd.Printf("Enabled: %v\n", comps.learning.IsEnabled())
			cmd.Printf("Algorithm: %s\n", cfg.Learning.Algorithm)
			cmd.Printf("Batch threshold: %d\n", cfg.Learning.BatchThreshold)
			cmd.Println()

			cmd.Println("Adaptive weights:")
			for _, feature := range comps.learning.Features() {
				cmd.Printf("  %-10s %.4f\n", feature, weights[feature])
			}
			cmd.Println()

			if current, ok := comps.learning.CurrentVersion(); ok {
				cmd.Printf("Model version: %s (saved %s)\n",
					current.VersionID, current.CreatedAt.Format("2006-01-02 15:04:05"))
			} else {
				cmd.Println("Model version: (none saved)")
			}
			cmd.Printf("Feedback: %d total (%d positive, %d negative)\n",
				snapshot.TotalFeedback, snapshot.PositiveFeedback, snapshot.NegativeFeedback)
			cmd.Printf("Model accuracy: %.4f\n", snapshot.ModelAccuracy)

			return nil
		},
	}
}

// newLearningEnableCmd turns feedback collection on in the config file.
func newLearningEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Turn on feedback collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setLearningEnabled(true); err != nil {
				return err
			}
			cmd.Println("Learning enabled")
			return nil
		},
	}
}

// newLearningDisableCmd turns feedback collection off in the config file.
func newLearningDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn off feedback collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setLearningEnabled(false); err != nil {
				return err
			}
			cmd.Println("Learning disabled. Saved model versions are preserved.")
			return nil
		},
	}
}

func setLearningEnabled(enabled bool) error {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return err
	}
	cfg.Learning.Enabled = enabled
	return config.Save(cfg, path)
}

// newLearningResetCmd deletes the learning database after confirmation.
func newLearningResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all learning data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Print("This will delete all learning data including model versions. Continue? (y/N): ")
			var response string
			fmt.Scanln(&response)

			if response != "y" && response != "Y" {
				cmd.Println("Cancelled")
				return nil
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			dbPath := filepath.Join(home, ".codebase-index-mcp", "index.db")

			if err := os.Remove(dbPath); err != nil {
				if os.IsNotExist(err) {
					cmd.Println("No learning data found")
					return nil
				}
				return fmt.Errorf("failed to delete database: %w", err)
			}

			cmd.Println("Learning data cleared successfully")
			return nil
		},
	}
}
