package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s := NewStorageAt(filepath.Join(t.TempDir(), "index.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	return s
}

func TestInit_Idempotent(t *testing.T) {
	s := newTestStorage(t)

	// Second Init must be a no-op, not a re-migration failure.
	if err := s.Init(); err != nil {
		t.Errorf("second Init failed: %v", err)
	}
}

func TestSaveModelVersion_RoundTrip(t *testing.T) {
	s := newTestStorage(t)

	saved := ModelVersion{
		VersionID: "1.0.0",
		Weights:   map[string]float64{"keyword": 0.3, "semantic": 0.7},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := s.SaveModelVersion(saved); err != nil {
		t.Fatalf("SaveModelVersion failed: %v", err)
	}

	got, err := s.GetModelVersion("1.0.0")
	if err != nil {
		t.Fatalf("GetModelVersion failed: %v", err)
	}

	if got.VersionID != saved.VersionID {
		t.Errorf("expected version %q, got %q", saved.VersionID, got.VersionID)
	}
	if got.Weights["keyword"] != 0.3 || got.Weights["semantic"] != 0.7 {
		t.Errorf("weights did not round-trip: %v", got.Weights)
	}
}

func TestGetModelVersion_NotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetModelVersion("9.9.9")
	if !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("expected ErrVersionNotFound, got %v", err)
	}
}

func TestListModelVersions_Ordered(t *testing.T) {
	s := newTestStorage(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"1.0.0", "1.0.1", "1.0.2"} {
		v := ModelVersion{
			VersionID: id,
			Weights:   map[string]float64{"keyword": float64(i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveModelVersion(v); err != nil {
			t.Fatalf("SaveModelVersion(%s) failed: %v", id, err)
		}
	}

	versions, err := s.ListModelVersions()
	if err != nil {
		t.Fatalf("ListModelVersions failed: %v", err)
	}

	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	for i, id := range []string{"1.0.0", "1.0.1", "1.0.2"} {
		if versions[i].VersionID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, versions[i].VersionID)
		}
	}
}

func TestCurrentModelVersion_NoneSaved(t *testing.T) {
	s := newTestStorage(t)

	current, err := s.CurrentModelVersion()
	if err != nil {
		t.Fatalf("CurrentModelVersion failed: %v", err)
	}
	if current != nil {
		t.Errorf("expected nil current version, got %v", current)
	}
}

func TestSetCurrentModelVersion_Repoint(t *testing.T) {
	s := newTestStorage(t)

	for _, id := range []string{"1.0.0", "1.0.1"} {
		v := ModelVersion{
			VersionID: id,
			Weights:   map[string]float64{"keyword": 0.5},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.SaveModelVersion(v); err != nil {
			t.Fatalf("SaveModelVersion(%s) failed: %v", id, err)
		}
	}

	if err := s.SetCurrentModelVersion("1.0.1"); err != nil {
		t.Fatalf("SetCurrentModelVersion failed: %v", err)
	}
	// Repoint back to the older version (rollback path).
	if err := s.SetCurrentModelVersion("1.0.0"); err != nil {
		t.Fatalf("SetCurrentModelVersion repoint failed: %v", err)
	}

	current, err := s.CurrentModelVersion()
	if err != nil {
		t.Fatalf("CurrentModelVersion failed: %v", err)
	}
	if current == nil || current.VersionID != "1.0.0" {
		t.Errorf("expected current 1.0.0, got %v", current)
	}

	// The newer version must still exist; rollback never deletes history.
	if _, err := s.GetModelVersion("1.0.1"); err != nil {
		t.Errorf("expected 1.0.1 to remain in history: %v", err)
	}
}

func TestCorruptWeights_Detected(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.db.Exec(
		"INSERT INTO model_versions (version_id, weights, created_at) VALUES (?, ?, ?)",
		"1.0.0", "{not json", time.Now().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert corrupt row: %v", err)
	}

	_, err = s.GetModelVersion("1.0.0")
	if !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("expected ErrCorruptRecord, got %v", err)
	}
}

func TestDisabledStorage_ModelWritesUnavailable(t *testing.T) {
	s := &SQLiteStorage{enabled: false}

	err := s.SaveModelVersion(ModelVersion{VersionID: "1.0.0"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	if err := s.SetCurrentModelVersion("1.0.0"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	// Analytics writes degrade silently.
	if err := s.RecordSearch(SearchRecord{}); err != nil {
		t.Errorf("expected RecordSearch no-op, got %v", err)
	}
}

func TestRecordFeedbackBatch(t *testing.T) {
	s := newTestStorage(t)

	batch := BatchRecord{
		BatchID:   "b-1",
		Size:      10,
		Positive:  7,
		Negative:  3,
		Accuracy:  0.7,
		Algorithm: "ema",
		Timestamp: time.Now().UTC(),
	}
	if err := s.RecordFeedbackBatch(batch); err != nil {
		t.Fatalf("RecordFeedbackBatch failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM feedback_batches").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 batch record, got %d", count)
	}
}

func TestEmbedding_RoundTrip(t *testing.T) {
	s := newTestStorage(t)

	vector := []float32{0.1, 0.2, 0.3}
	if err := s.SaveEmbedding("chunk-1", vector, "v1"); err != nil {
		t.Fatalf("SaveEmbedding failed: %v", err)
	}

	got, version, err := s.GetEmbedding("chunk-1")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if version != "v1" {
		t.Errorf("expected version v1, got %q", version)
	}
	if len(got) != 3 || got[1] != 0.2 {
		t.Errorf("vector did not round-trip: %v", got)
	}
}

func TestEmbedding_Miss(t *testing.T) {
	s := newTestStorage(t)

	got, version, err := s.GetEmbedding("missing")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if got != nil || version != "" {
		t.Errorf("expected cache miss, got %v %q", got, version)
	}
}

func TestCleanup_RemovesOldAnalyticsOnly(t *testing.T) {
	s := newTestStorage(t)

	old := time.Now().Add(-60 * 24 * time.Hour)
	if err := s.RecordFeedbackBatch(BatchRecord{BatchID: "old", Size: 1, Timestamp: old}); err != nil {
		t.Fatalf("RecordFeedbackBatch failed: %v", err)
	}
	if err := s.RecordSearch(SearchRecord{SearchID: "old", QueryHash: "h", Timestamp: old}); err != nil {
		t.Fatalf("RecordSearch failed: %v", err)
	}
	v := ModelVersion{VersionID: "1.0.0", Weights: map[string]float64{"keyword": 1}, CreatedAt: old}
	if err := s.SaveModelVersion(v); err != nil {
		t.Fatalf("SaveModelVersion failed: %v", err)
	}

	if err := s.Cleanup(30 * 24 * time.Hour); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM feedback_batches").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected old batch records removed, found %d", count)
	}

	// Version history is never subject to retention.
	if _, err := s.GetModelVersion("1.0.0"); err != nil {
		t.Errorf("expected model version to survive cleanup: %v", err)
	}
}

func TestHashQuery_StableAndPrivate(t *testing.T) {
	h1 := HashQuery("find the auth middleware")
	h2 := HashQuery("find the auth middleware")

	if h1 != h2 {
		t.Error("expected identical queries to hash identically")
	}
	if h1 == "find the auth middleware" {
		t.Error("expected query to be hashed, not stored raw")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64-char sha256 hex, got %d chars", len(h1))
	}
}
