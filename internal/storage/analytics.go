package storage

import (
	"time"
)

// RecordFeedbackBatch records a processed batch summary for analytics.
// Analytics writes degrade to warnings; losing a batch record must not
// fail the flush cycle that produced it.
func (s *SQLiteStorage) RecordFeedbackBatch(batch BatchRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO feedback_batches (batch_id, size, positive, negative, accuracy, algorithm, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		batch.BatchID,
		batch.Size,
		batch.Positive,
		batch.Negative,
		batch.Accuracy,
		batch.Algorithm,
		batch.Timestamp.Format(time.RFC3339),
	)

	if err != nil {
		s.log.Warnf("failed to record feedback batch: %v", err)
	}

	return nil
}

// RecordSearch records a search query for analytics.
func (s *SQLiteStorage) RecordSearch(search SearchRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO search_history (search_id, query_hash, timestamp, results_count)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		search.SearchID,
		search.QueryHash,
		search.Timestamp.Format(time.RFC3339),
		search.ResultsCount,
	)

	if err != nil {
		s.log.Warnf("failed to record search: %v", err)
	}

	return nil
}

// Cleanup removes old analytics records based on retention policy.
// Model versions are never removed; the version history is an audit log.
func (s *SQLiteStorage) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retention).Format(time.RFC3339)

	if _, err := s.db.Exec("DELETE FROM feedback_batches WHERE timestamp < ?", cutoff); err != nil {
		s.log.Warnf("failed to cleanup feedback_batches: %v", err)
	}

	if _, err := s.db.Exec("DELETE FROM search_history WHERE timestamp < ?", cutoff); err != nil {
		s.log.Warnf("failed to cleanup search_history: %v", err)
	}

	// Vacuum to reclaim space
	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.log.Warnf("failed to vacuum database: %v", err)
	}

	return nil
}
