package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveModelVersion appends a weight snapshot to the version history.
func (s *SQLiteStorage) SaveModelVersion(v ModelVersion) error {
	if !s.enabled || s.db == nil {
		return ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	weights, err := weightsToJSON(v.Weights)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO model_versions (version_id, weights, created_at)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.Exec(query, v.VersionID, weights, v.CreatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save model version %s: %w", v.VersionID, err)
	}

	return nil
}

// ListModelVersions returns all stored versions ordered oldest first.
func (s *SQLiteStorage) ListModelVersions() ([]ModelVersion, error) {
	if !s.enabled || s.db == nil {
		return []ModelVersion{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT version_id, weights, created_at
		FROM model_versions
		ORDER BY created_at ASC, version_id ASC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query model versions: %w", err)
	}
	defer rows.Close()

	var versions []ModelVersion
	for rows.Next() {
		v, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

// GetModelVersion retrieves a single version by its identifier.
func (s *SQLiteStorage) GetModelVersion(versionID string) (*ModelVersion, error) {
	if !s.enabled || s.db == nil {
		return nil, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getModelVersionLocked(versionID)
}

// getModelVersionLocked reads one version row. Caller must hold s.mu.
func (s *SQLiteStorage) getModelVersionLocked(versionID string) (*ModelVersion, error) {
	query := `
		SELECT version_id, weights, created_at
		FROM model_versions
		WHERE version_id = ?
	`
	row := s.db.QueryRow(query, versionID)

	var v ModelVersion
	var weightsStr, timestampStr string
	if err := row.Scan(&v.VersionID, &weightsStr, &timestampStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
		}
		return nil, fmt.Errorf("failed to read model version %s: %w", versionID, err)
	}

	weights, err := jsonToWeights(weightsStr)
	if err != nil {
		return nil, err
	}
	v.Weights = weights

	v.CreatedAt, err = time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp on %s: %v", ErrCorruptRecord, versionID, err)
	}

	return &v, nil
}

// SetCurrentModelVersion repoints the live-version marker.
func (s *SQLiteStorage) SetCurrentModelVersion(versionID string) error {
	if !s.enabled || s.db == nil {
		return ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO model_current (id, version_id) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id
	`
	if _, err := s.db.Exec(query, versionID); err != nil {
		return fmt.Errorf("failed to set current model version: %w", err)
	}

	return nil
}

// CurrentModelVersion returns the version the marker points at, or nil
// when no version has been saved yet.
func (s *SQLiteStorage) CurrentModelVersion() (*ModelVersion, error) {
	if !s.enabled || s.db == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow("SELECT version_id FROM model_current WHERE id = 1")

	var versionID string
	if err := row.Scan(&versionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read current model pointer: %w", err)
	}

	return s.getModelVersionLocked(versionID)
}

// scanner abstracts *sql.Row and *sql.Rows for scanModelVersion.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanModelVersion(row scanner) (ModelVersion, error) {
	var v ModelVersion
	var weightsStr, timestampStr string

	if err := row.Scan(&v.VersionID, &weightsStr, &timestampStr); err != nil {
		return v, fmt.Errorf("failed to scan model version: %w", err)
	}

	weights, err := jsonToWeights(weightsStr)
	if err != nil {
		return v, err
	}
	v.Weights = weights

	v.CreatedAt, err = time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		return v, fmt.Errorf("%w: bad timestamp on %s: %v", ErrCorruptRecord, v.VersionID, err)
	}

	return v, nil
}
