package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/mcp"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
//
// This is the main command that exposes the 6 meta-tools via stdio transport:
// search_code, submit_feedback, learning_stats, model_save, model_rollback,
// model_history.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the codebase-index-mcp server using stdio transport.

This server exposes 6 meta-tools to AI clients:
  • search_code     - Hybrid code search with adaptive reranking
  • submit_feedback - Rate result relevance to improve rankings
  • learning_stats  - Inspect adaptive weights and accuracy
  • model_save      - Checkpoint the current ranking weights
  • model_rollback  - Restore an earlier weight checkpoint
  • model_history   - List all weight checkpoints

Relevance feedback is buffered and committed in batches; each committed
batch adapts the ranking feature weights.`,
		Example: `  # Run directly
  codebase-index-mcp serve

  # Add to Claude Code
  claude mcp add codebase-index -- codebase-index-mcp serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	return cmd
}

// runServe starts the MCP server with stdio transport and signal handling.
// Implements graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	comps, err := buildComponents(cfg, true)
	if err != nil {
		return err
	}

	server := mcp.NewServer(cfg, comps.indexer, comps.embeddings, comps.reranker, comps.learning, comps.store)
	log := logging.Component("serve")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	select {
	case sig := <-sigChan:
		log.Infof("received signal %v, shutting down", sig)
		comps.close()
		log.Info("shutdown complete")
		return nil

	case err := <-errChan:
		// Run() returned (stdin closed or error); flush and release.
		comps.close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
