package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/search"
	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
)

// NewSearchCmd creates the 'search' command for one-shot queries.
func NewSearchCmd() *cobra.Command {
	var limit int
	var language string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Long: `Run a hybrid search against the persistent index and print the
reranked results with their feature scores.`,
		Example: `  codebase-index-mcp search "parse json config"
  codebase-index-mcp search "token validation" --limit 5 --language go`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), limit, language)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (default from config)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Restrict to a language (e.g. go)")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int, language string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	comps, err := buildComponents(cfg, true)
	if err != nil {
		return err
	}
	defer comps.close()

	if limit <= 0 {
		limit = cfg.Search.ResultLimit
	}

	fusion := search.FusionConfig{
		SemanticWeight: cfg.Search.SemanticWeight,
		KeywordWeight:  cfg.Search.KeywordWeight,
	}

	var results []search.SearchResult
	if language != "" {
		results, err = comps.indexer.SearchByLanguage(query, language, limit)
	} else {
		results, err = comps.indexer.SearchHybrid(query, limit, fusion, comps.embeddings)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results = comps.reranker.Rerank(query, results)

	if err := comps.store.RecordSearch(storage.SearchRecord{
		SearchID:     uuid.NewString(),
		QueryHash:    storage.HashQuery(query),
		Timestamp:    time.Now(),
		ResultsCount: len(results),
	}); err != nil {
		logging.Component("cli").Warnf("failed to record search: %v", err)
	}

	if len(results) == 0 {
		cmd.Printf("No results for '%s'.\n", query)
		return nil
	}

	cmd.Printf("Results for '%s' (%d):\n", query, len(results))
	for i, r := range results {
		cmd.Printf("%d. %s", i+1, r.Path)
		if r.Symbol != "" {
			cmd.Printf(" (%s)", r.Symbol)
		}
		cmd.Printf("  score=%.3f\n", r.Score)
		if len(r.Features) > 0 {
			cmd.Printf("   channels: keyword=%.2f semantic=%.2f recency=%.2f path=%.2f\n",
				r.Features[search.FeatureKeyword],
				r.Features[search.FeatureSemantic],
				r.Features[search.FeatureRecency],
				r.Features[search.FeaturePath])
		}
		cmd.Printf("   id: %s\n", r.ID)
	}

	return nil
}
