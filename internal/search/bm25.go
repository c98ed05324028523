package search

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// SearchBM25 performs BM25 keyword search using Bleve.
func (i *Indexer) SearchBM25(query string, limit int) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	searchQuery := i.buildMatchQuery(query)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	searchRequest.Fields = []string{"content", "symbol", "path", "language", "modTime"}

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// SearchByLanguage performs BM25 search scoped to a single language.
func (i *Indexer) SearchByLanguage(query, language string, limit int) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	// Conjunction query: (match query) AND (language filter)
	matchQuery := i.buildMatchQuery(query)
	langQuery := bleve.NewTermQuery(language)
	langQuery.SetField("language")

	conjunctionQuery := bleve.NewConjunctionQuery(matchQuery, langQuery)

	searchRequest := bleve.NewSearchRequestOptions(conjunctionQuery, limit, 0, false)
	searchRequest.Fields = []string{"content", "symbol", "path", "language", "modTime"}

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// convertBleveResults converts Bleve search results to our SearchResult format.
func convertBleveResults(results *bleve.SearchResult) []SearchResult {
	searchResults := make([]SearchResult, 0, len(results.Hits))

	for _, hit := range results.Hits {
		content, _ := hit.Fields["content"].(string)
		symbol, _ := hit.Fields["symbol"].(string)
		path, _ := hit.Fields["path"].(string)
		language, _ := hit.Fields["language"].(string)

		result := SearchResult{
			ID:       hit.ID,
			Path:     path,
			Symbol:   symbol,
			Snippet:  makeSnippet(content),
			Language: language,
			Score:    hit.Score,
			ModTime:  resultModTime(hit.Fields),
		}

		searchResults = append(searchResults, result)
	}

	return searchResults
}

// resultModTime extracts the stored modification time from a bleve hit,
// returning the zero time when absent or malformed.
func resultModTime(fields map[string]interface{}) time.Time {
	raw, ok := fields["modTime"].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
