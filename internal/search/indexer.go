package search

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sirupsen/logrus"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
)

// Indexer manages the search index over code chunks.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
	indexPath  string
	log        *logrus.Entry
}

// NewIndexer creates a new search indexer with in-memory Bleve index.
func NewIndexer() (*Indexer, error) {
	indexMapping := buildIndexMapping()

	// In-memory index for fast startup and tests
	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{
		bleveIndex: index,
		indexPath:  "",
		log:        logging.Component("indexer"),
	}, nil
}

// NewIndexerWithPath creates a new indexer with persistent disk storage.
func NewIndexerWithPath(indexPath string) (*Indexer, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	indexMapping := buildIndexMapping()

	// Open or create index with Scorch backend
	index, err := bleve.NewUsing(indexPath, indexMapping, scorch.Name, scorch.Name, nil)
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open/create index: %w", err)
		}
	}

	return &Indexer{
		bleveIndex: index,
		indexPath:  indexPath,
		log:        logging.Component("indexer"),
	}, nil
}

// buildIndexMapping creates the Bleve index mapping for code chunks.
func buildIndexMapping() mapping.IndexMapping {
	chunkMapping := bleve.NewDocumentMapping()

	// Content field: the main searchable text
	contentFieldMapping := bleve.NewTextFieldMapping()
	chunkMapping.AddFieldMappingsAt("content", contentFieldMapping)

	// Symbol field: searchable identifiers
	symbolFieldMapping := bleve.NewTextFieldMapping()
	chunkMapping.AddFieldMappingsAt("symbol", symbolFieldMapping)

	// Path field: searchable for filtering by file
	pathFieldMapping := bleve.NewTextFieldMapping()
	chunkMapping.AddFieldMappingsAt("path", pathFieldMapping)

	// Raw path: un-analyzed copy for exact-match deletion by file
	pathRawMapping := bleve.NewTextFieldMapping()
	pathRawMapping.Analyzer = keyword.Name
	pathRawMapping.IncludeInAll = false
	chunkMapping.AddFieldMappingsAt("pathRaw", pathRawMapping)

	// Language field: keyword-style filtering
	langFieldMapping := bleve.NewTextFieldMapping()
	chunkMapping.AddFieldMappingsAt("language", langFieldMapping)

	// ModTime: stored but not indexed (for recency scoring)
	modTimeMapping := bleve.NewTextFieldMapping()
	modTimeMapping.Index = false
	modTimeMapping.IncludeInAll = false
	chunkMapping.AddFieldMappingsAt("modTime", modTimeMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", chunkMapping)

	return indexMapping
}

// IndexChunks indexes a batch of code chunks.
func (i *Indexer) IndexChunks(chunks []CodeChunk) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()

	for _, chunk := range chunks {
		doc := map[string]interface{}{
			"content":  chunk.Content,
			"symbol":   chunk.Symbol,
			"path":     chunk.Path,
			"pathRaw":  chunk.Path,
			"language": chunk.Language,
			"modTime":  chunk.ModTime.Format(time.RFC3339),
		}

		docID := chunk.ID
		if docID == "" {
			docID = fmt.Sprintf("%s#%s", chunk.Path, chunk.Symbol)
		}

		if err := batch.Index(docID, doc); err != nil {
			i.log.Warnf("failed to index chunk %s: %v", docID, err)
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index chunks: %w", err)
	}

	return nil
}

// RemoveFile removes all chunks belonging to a file (for reindexing).
// Matching runs against the un-analyzed pathRaw copy, so only exact path
// matches are deleted.
func (i *Indexer) RemoveFile(path string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	q := bleve.NewTermQuery(path)
	q.SetField("pathRaw")

	for {
		searchRequest := bleve.NewSearchRequestOptions(q, 1000, 0, false)
		results, err := i.bleveIndex.Search(searchRequest)
		if err != nil {
			return fmt.Errorf("failed to find file chunks: %w", err)
		}
		if len(results.Hits) == 0 {
			return nil
		}

		batch := i.bleveIndex.NewBatch()
		for _, hit := range results.Hits {
			batch.Delete(hit.ID)
		}
		if err := i.bleveIndex.Batch(batch); err != nil {
			return fmt.Errorf("failed to batch delete: %w", err)
		}
	}
}

// Count returns the total number of indexed chunks.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}

	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}

	return nil
}

// buildMatchQuery creates a match query for BM25 search.
func (i *Indexer) buildMatchQuery(searchText string) query.Query {
	return bleve.NewMatchQuery(searchText)
}
