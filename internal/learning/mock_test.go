package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
)

// mockStorage is an in-memory storage.Storage for tests, with optional
// failure injection.
type mockStorage struct {
	mu       sync.Mutex
	versions []storage.ModelVersion
	current  string
	batches  []storage.BatchRecord
	searches []storage.SearchRecord

	failSave    bool
	corruptRead bool
}

func newMockStorage() *mockStorage {
	return &mockStorage{}
}

func (m *mockStorage) Init() error { return nil }

func (m *mockStorage) SaveModelVersion(v storage.ModelVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave {
		return storage.ErrUnavailable
	}
	m.versions = append(m.versions, v)
	return nil
}

func (m *mockStorage) ListModelVersions() ([]storage.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]storage.ModelVersion, len(m.versions))
	copy(out, m.versions)
	return out, nil
}

func (m *mockStorage) GetModelVersion(versionID string) (*storage.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.versions {
		if m.versions[i].VersionID == versionID {
			v := m.versions[i]
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrVersionNotFound, versionID)
}

func (m *mockStorage) SetCurrentModelVersion(versionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave {
		return storage.ErrUnavailable
	}
	m.current = versionID
	return nil
}

func (m *mockStorage) CurrentModelVersion() (*storage.ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.corruptRead {
		return nil, fmt.Errorf("%w: mock", storage.ErrCorruptRecord)
	}
	if m.current == "" {
		return nil, nil
	}
	for i := range m.versions {
		if m.versions[i].VersionID == m.current {
			v := m.versions[i]
			return &v, nil
		}
	}
	return nil, nil
}

func (m *mockStorage) RecordFeedbackBatch(batch storage.BatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockStorage) RecordSearch(search storage.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, search)
	return nil
}

func (m *mockStorage) SaveEmbedding(string, []float32, string) error { return nil }

func (m *mockStorage) GetEmbedding(string) ([]float32, string, error) { return nil, "", nil }

func (m *mockStorage) Cleanup(time.Duration) error { return nil }

func (m *mockStorage) Close() error { return nil }

func (m *mockStorage) savedVersions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.versions)
}

func (m *mockStorage) recordedBatches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// event is a test helper for a valid feedback event.
func event(resultID string, relevance float64) FeedbackEvent {
	return FeedbackEvent{
		Query:     "test query",
		ResultID:  resultID,
		Relevance: relevance,
		Timestamp: time.Now(),
	}
}
