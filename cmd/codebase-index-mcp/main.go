/*
Package main is the entry point for codebase-index-mcp CLI.

codebase-index-mcp is a hybrid code-search MCP server whose result
ranking adapts to relevance feedback. Searches combine BM25 keyword
scoring with optional semantic similarity, then a reranker weighs the
per-result feature channels by weights learned from past feedback.

Usage:
  codebase-index-mcp [command]

Available Commands:
  index       Index a codebase directory for search
  serve       Run the MCP server (stdio transport)
  search      Search the indexed codebase
  feedback    Rate a search result's relevance
  learning    Manage the adaptive ranking loop
  model       Manage ranking model versions
  version     Show version information
  help        Help about any command

Examples:
  # Index a project, then serve it over MCP
  codebase-index-mcp index ~/src/myproject
  codebase-index-mcp serve

  # One-shot search with feedback
  codebase-index-mcp search "token validation"
  codebase-index-mcp feedback "internal/auth/login.go#login" 0.9 --query "token validation"
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/cli"
	"github.com/kkkqkx123/codebase-index-mcp/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "codebase-index-mcp",
		Short: "Self-improving hybrid code search over MCP",
		Long: `codebase-index-mcp indexes a codebase and serves hybrid code search
(BM25 keyword + semantic similarity) over the Model Context Protocol.

Result ranking improves with use: relevance feedback is collected in
batches and each committed batch adapts the per-channel feature weights
(keyword, semantic, recency, path). Every adaptation is checkpointed as
a model version that can be inspected and rolled back.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewIndexCmd())
	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewSearchCmd())
	rootCmd.AddCommand(cli.NewFeedbackCmd())
	rootCmd.AddCommand(cli.NewLearningCmd())
	rootCmd.AddCommand(cli.NewModelCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
