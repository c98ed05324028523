package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveEmbedding caches an embedding vector for a code chunk.
func (s *SQLiteStorage) SaveEmbedding(chunkID string, vector []float32, version string) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO chunk_embeddings (chunk_id, vector, version, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			version = excluded.version,
			created_at = excluded.created_at
	`

	_, err := s.db.Exec(query,
		chunkID,
		vectorToJSON(vector),
		version,
		time.Now().Format(time.RFC3339),
	)

	if err != nil {
		s.log.Warnf("failed to save embedding for %s: %v", chunkID, err)
	}

	return nil
}

// GetEmbedding retrieves a cached embedding for a code chunk.
// Returns (nil, "", nil) on a cache miss.
func (s *SQLiteStorage) GetEmbedding(chunkID string) ([]float32, string, error) {
	if !s.enabled || s.db == nil {
		return nil, "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT vector, version FROM chunk_embeddings WHERE chunk_id = ?",
		chunkID,
	)

	var vectorStr, version string
	if err := row.Scan(&vectorStr, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read embedding for %s: %w", chunkID, err)
	}

	vector, err := jsonToVector(vectorStr)
	if err != nil {
		return nil, "", fmt.Errorf("%w: embedding for %s: %v", ErrCorruptRecord, chunkID, err)
	}

	return vector, version, nil
}
