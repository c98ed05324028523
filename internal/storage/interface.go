/*
Package storage implements a persistent storage layer for the adaptive model
lifecycle, feedback analytics and embedding cache.

This package provides SQLite-based storage for versioned weight snapshots,
processed batch summaries, search history, and chunk embedding caching with
graceful degradation if the database is unavailable.

The database is stored at ~/.codebase-index-mcp/index.db and uses
modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
)

// ErrUnavailable is returned when the persistence medium cannot accept
// writes (database disabled or not initialized).
var ErrUnavailable = errors.New("storage unavailable")

// ErrCorruptRecord is returned when a stored snapshot cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt stored record")

// ErrVersionNotFound is returned when a requested model version does not exist.
var ErrVersionNotFound = errors.New("model version not found")

// Storage defines the interface for persistent storage operations.
type Storage interface {
	// Init initializes the database and runs migrations.
	Init() error

	// SaveModelVersion appends a weight snapshot to the version history.
	SaveModelVersion(v ModelVersion) error

	// ListModelVersions returns all stored versions ordered oldest first.
	ListModelVersions() ([]ModelVersion, error)

	// GetModelVersion retrieves a single version by its identifier.
	GetModelVersion(versionID string) (*ModelVersion, error)

	// SetCurrentModelVersion repoints the live-version marker.
	SetCurrentModelVersion(versionID string) error

	// CurrentModelVersion returns the version the marker points at,
	// or nil when no version has been saved yet.
	CurrentModelVersion() (*ModelVersion, error)

	// RecordFeedbackBatch records a processed batch summary for analytics.
	RecordFeedbackBatch(batch BatchRecord) error

	// RecordSearch records a search query for analytics.
	RecordSearch(search SearchRecord) error

	// SaveEmbedding caches an embedding vector for a code chunk.
	SaveEmbedding(chunkID string, vector []float32, version string) error

	// GetEmbedding retrieves a cached embedding for a code chunk.
	GetEmbedding(chunkID string) ([]float32, string, error)

	// Cleanup removes old analytics records based on retention policy.
	// Model versions are never removed; history is append-only.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
	log      *logrus.Entry
}

// NewStorage creates a new SQLite storage instance.
//
// The database is created at ~/.codebase-index-mcp/index.db.
// If the directory doesn't exist, it will be created.
// If the database cannot be opened, the storage will be disabled; analytics
// writes become no-ops and model writes report ErrUnavailable.
func NewStorage() *SQLiteStorage {
	home, err := os.UserHomeDir()
	if err != nil {
		logging.Component("storage").Warnf("failed to get home directory: %v", err)
		return &SQLiteStorage{enabled: false, log: logging.Component("storage")}
	}

	return NewStorageAt(filepath.Join(home, ".codebase-index-mcp", "index.db"))
}

// NewStorageAt creates a SQLite storage instance backed by the given path.
func NewStorageAt(dbPath string) *SQLiteStorage {
	return &SQLiteStorage{
		dbPath:  dbPath,
		enabled: true,
		log:     logging.Component("storage"),
	}
}

// Init initializes the database and runs migrations.
//
// If initialization fails, storage is disabled and subsequent analytics
// operations become no-ops (graceful degradation). Model lifecycle
// operations surface ErrUnavailable instead so callers can report the
// durability gap.
func (s *SQLiteStorage) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			s.log.Warnf("%v", initErr)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			s.log.Warnf("%v", initErr)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			s.log.Warnf("%v", initErr)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// HashQuery creates a SHA256 hash of a query string for privacy.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
