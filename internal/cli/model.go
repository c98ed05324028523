package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewModelCmd creates the model command group for weight checkpoints.
func NewModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage ranking model versions",
		Long: `Model versions are checkpoints of the adaptive ranking weights.

A new version is saved automatically after every committed feedback batch;
'model save' checkpoints manually. Rollback moves the current pointer to an
earlier version without deleting history, so a rollback can itself be
rolled back.`,
	}

	cmd.AddCommand(newModelSaveCmd())
	cmd.AddCommand(newModelHistoryCmd())
	cmd.AddCommand(newModelRollbackCmd())

	return cmd
}

// newModelSaveCmd checkpoints the current weights.
func newModelSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Checkpoint the current ranking weights",
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

			saved, err := comps.learning.SaveModel()
			if err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}

			cmd.Printf("Saved model version %s\n", saved.VersionID)
			return nil
		},
	}
}

// newModelHistoryCmd lists all saved versions.
func newModelHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List all saved model versions",
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

			history := comps.learning.ModelHistory()
			if len(history) == 0 {
				cmd.Println("No model versions saved yet. Use 'model save' to create one.")
				return nil
			}

			current, hasCurrent := comps.learning.CurrentVersion()

			cmd.Printf("Model versions (%d):\n", len(history))
			for _, v := range history {
				marker := "  "
				if hasCurrent && v.VersionID == current.VersionID {
					marker = "* "
				}
				cmd.Printf("%s%s  saved %s\n", marker, v.VersionID,
					v.CreatedAt.Format("2006-01-02 15:04:05"))
				for _, feature := range comps.learning.Features() {
					cmd.Printf("    %-10s %.4f\n", feature, v.Weights[feature])
				}
			}
			return nil
		},
	}
}

// newModelRollbackCmd restores an earlier version's weights.
func newModelRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Restore the weights of an earlier model version",
		Args:  cobra.ExactArgs(1),
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

			versionID := args[0]
			if !comps.learning.RollbackToVersion(versionID) {
				return fmt.Errorf("version '%s' not found (see 'model history')", versionID)
			}

			cmd.Printf("Rolled back to model version %s\n", versionID)
			return nil
		},
	}
}
