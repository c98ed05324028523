/*
Package cli implements the codebase-index-mcp command-line interface.

Commands are built with cobra; each command constructor is a separate
function for testability. The shared wiring helpers here assemble the
storage, search and learning components from configuration.
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kkkqkx123/codebase-index-mcp/internal/config"
	"github.com/kkkqkx123/codebase-index-mcp/internal/learning"
	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/search"
	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
)

// components bundles everything a command needs at runtime.
type components struct {
	cfg        *config.Config
	store      storage.Storage
	indexer    *search.Indexer
	embeddings *search.EmbeddingModel
	memory     *search.FeatureMemory
	reranker   *search.Reranker
	learning   *learning.Service
}

// loadConfig reads the config file, creating defaults on first run.
func loadConfig() (*config.Config, error) {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return config.LoadOrCreate(path)
}

// defaultIndexPath returns ~/.codebase-index-mcp/index.bleve.
func defaultIndexPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".codebase-index-mcp", "index.bleve"), nil
}

// buildComponents assembles storage, index, search and learning from config.
// When persistent is true the bleve index is opened on disk so separate
// invocations share it; otherwise the index lives in memory.
func buildComponents(cfg *config.Config, persistent bool) (*components, error) {
	logging.Init(cfg.LogLevel)

	var store storage.Storage
	if cfg.Storage != nil && cfg.Storage.DBPath != "" {
		store = storage.NewStorageAt(cfg.Storage.DBPath)
	} else {
		store = storage.NewStorage()
	}
	if err := store.Init(); err != nil {
		// Storage degrades to disabled; commands still work in memory.
		logging.Component("cli").Warnf("storage unavailable: %v", err)
	}

	var indexer *search.Indexer
	var err error
	if persistent {
		indexPath := cfg.Search.IndexPath
		if indexPath == "" {
			indexPath, err = defaultIndexPath()
			if err != nil {
				return nil, err
			}
		}
		indexer, err = search.NewIndexerWithPath(indexPath)
	} else {
		indexer, err = search.NewIndexer()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	// No embedder is bundled; semantic scoring activates when one is
	// configured and hybrid search falls back to BM25 until then.
	embeddings := search.NewEmbeddingModel(nil, store)

	memory := search.NewFeatureMemory()

	learningCfg := learningConfigFrom(cfg, memory)
	svc := learning.NewService(learningCfg, store)
	if cfg.Learning != nil && !cfg.Learning.Enabled {
		svc.Disable()
	}

	reranker := search.NewReranker(svc, memory)

	return &components{
		cfg:        cfg,
		store:      store,
		indexer:    indexer,
		embeddings: embeddings,
		memory:     memory,
		reranker:   reranker,
		learning:   svc,
	}, nil
}

// learningConfigFrom maps file configuration onto the learning service
// config, attributing feedback through the served-result feature memory.
func learningConfigFrom(cfg *config.Config, memory *search.FeatureMemory) learning.Config {
	lc := learning.DefaultConfig()
	if l := cfg.Learning; l != nil {
		lc.BatchThreshold = l.BatchThreshold
		lc.PositiveThreshold = l.PositiveThreshold
		lc.MaxHistoryLength = l.MaxHistoryLength
		lc.Alpha = l.EMAAlpha
		lc.LearningRate = l.RegretLearningRate
		lc.Algorithm = learning.Algorithm(l.Algorithm)
	}
	lc.Extractor = learning.NewRelevanceExtractor(memory)
	return lc
}

// close releases all component resources in dependency order.
func (c *components) close() {
	c.learning.Stop()
	if err := c.indexer.Close(); err != nil {
		logging.Component("cli").Warnf("failed to close index: %v", err)
	}
	if err := c.store.Close(); err != nil {
		logging.Component("cli").Warnf("failed to close storage: %v", err)
	}
}
