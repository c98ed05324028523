package search

import (
	"testing"
	"time"
)

func testChunks() []CodeChunk {
	now := time.Now()
	return []CodeChunk{
		{
			ID:       "internal/auth/login.go#ValidateToken",
			Path:     "internal/auth/login.go",
			Symbol:   "ValidateToken",
			Content:  "func ValidateToken(token string) error { // verify JWT signature and expiry }",
			Language: "go",
			ModTime:  now,
		},
		{
			ID:       "internal/auth/session.go#NewSession",
			Path:     "internal/auth/session.go",
			Symbol:   "NewSession",
			Content:  "func NewSession(userID string) *Session { // create authenticated session }",
			Language: "go",
			ModTime:  now.Add(-48 * time.Hour),
		},
		{
			ID:       "web/static/app.js#renderChart",
			Path:     "web/static/app.js",
			Symbol:   "renderChart",
			Content:  "function renderChart(data) { /* draw the metrics chart */ }",
			Language: "javascript",
			ModTime:  now.Add(-30 * 24 * time.Hour),
		},
	}
}

func newTestIndexer(t *testing.T) *Indexer {
	t.Helper()

	idx, err := NewIndexer()
	if err != nil {
		t.Fatalf("NewIndexer failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	if err := idx.IndexChunks(testChunks()); err != nil {
		t.Fatalf("IndexChunks failed: %v", err)
	}
	return idx
}

func TestIndexer_IndexAndCount(t *testing.T) {
	idx := newTestIndexer(t)

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 indexed chunks, got %d", count)
	}
}

func TestIndexer_SearchBM25(t *testing.T) {
	idx := newTestIndexer(t)

	results, err := idx.SearchBM25("token", 10)
	if err != nil {
		t.Fatalf("SearchBM25 failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result for 'token'")
	}
	if results[0].Symbol != "ValidateToken" {
		t.Errorf("expected ValidateToken first, got %s", results[0].Symbol)
	}
	if results[0].Path != "internal/auth/login.go" {
		t.Errorf("unexpected path %s", results[0].Path)
	}
	if results[0].ModTime.IsZero() {
		t.Error("expected mod time carried through from index")
	}
}

func TestIndexer_SearchBM25_NoMatch(t *testing.T) {
	idx := newTestIndexer(t)

	results, err := idx.SearchBM25("nonexistentquerystring", 10)
	if err != nil {
		t.Fatalf("SearchBM25 failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestIndexer_SearchByLanguage(t *testing.T) {
	idx := newTestIndexer(t)

	results, err := idx.SearchByLanguage("chart", "javascript", 10)
	if err != nil {
		t.Fatalf("SearchByLanguage failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 javascript result, got %d", len(results))
	}
	if results[0].Symbol != "renderChart" {
		t.Errorf("expected renderChart, got %s", results[0].Symbol)
	}

	// Same query scoped to go should find nothing.
	results, err = idx.SearchByLanguage("chart", "go", 10)
	if err != nil {
		t.Fatalf("SearchByLanguage failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no go results for 'chart', got %d", len(results))
	}
}

func TestIndexer_RemoveFile(t *testing.T) {
	idx := newTestIndexer(t)

	if err := idx.RemoveFile("internal/auth/login.go"); err != nil {
		t.Fatalf("RemoveFile failed: %v", err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 chunks after removal, got %d", count)
	}

	results, err := idx.SearchBM25("ValidateToken", 10)
	if err != nil {
		t.Fatalf("SearchBM25 failed: %v", err)
	}
	for _, r := range results {
		if r.Path == "internal/auth/login.go" {
			t.Errorf("removed file still in results: %s", r.ID)
		}
	}
}

func TestIndexer_RemoveFileThenReindexDropsStaleSymbol(t *testing.T) {
	idx := newTestIndexer(t)

	// Same file reindexed under a new symbol gets a new doc ID; the old
	// one must not survive the refresh.
	if err := idx.RemoveFile("internal/auth/login.go"); err != nil {
		t.Fatalf("RemoveFile failed: %v", err)
	}
	renamed := []CodeChunk{{
		ID:       "internal/auth/login.go#CheckToken",
		Path:     "internal/auth/login.go",
		Symbol:   "CheckToken",
		Content:  "func CheckToken(token string) error { // verify JWT signature and expiry }",
		Language: "go",
		ModTime:  time.Now(),
	}}
	if err := idx.IndexChunks(renamed); err != nil {
		t.Fatalf("IndexChunks failed: %v", err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 chunks after refresh, got %d", count)
	}

	results, err := idx.SearchBM25("ValidateToken", 10)
	if err != nil {
		t.Fatalf("SearchBM25 failed: %v", err)
	}
	for _, r := range results {
		if r.ID == "internal/auth/login.go#ValidateToken" {
			t.Errorf("stale chunk survived refresh: %s", r.ID)
		}
	}
}

func TestIndexer_ReindexOverwrites(t *testing.T) {
	idx := newTestIndexer(t)

	updated := []CodeChunk{{
		ID:       "internal/auth/login.go#ValidateToken",
		Path:     "internal/auth/login.go",
		Symbol:   "ValidateToken",
		Content:  "func ValidateToken(token string) error { // now checks revocation list }",
		Language: "go",
		ModTime:  time.Now(),
	}}
	if err := idx.IndexChunks(updated); err != nil {
		t.Fatalf("IndexChunks failed: %v", err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("reindex should overwrite, expected 3 chunks, got %d", count)
	}

	results, err := idx.SearchBM25("revocation", 10)
	if err != nil {
		t.Fatalf("SearchBM25 failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected updated content searchable, got %d results", len(results))
	}
}
