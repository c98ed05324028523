package learning

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
)

// initialVersion is the version assigned to the first saved snapshot.
const initialVersion = "1.0.0"

// ModelVersion is an immutable, timestamped copy of adaptive weights
// retained for audit and rollback.
type ModelVersion struct {
	VersionID string
	Weights   map[string]float64
	CreatedAt time.Time
}

// toStorage converts a model version to its storage model.
func (v ModelVersion) toStorage() storage.ModelVersion {
	return storage.ModelVersion{
		VersionID: v.VersionID,
		Weights:   copyWeights(v.Weights),
		CreatedAt: v.CreatedAt,
	}
}

func versionFromStorage(v storage.ModelVersion) ModelVersion {
	return ModelVersion{
		VersionID: v.VersionID,
		Weights:   copyWeights(v.Weights),
		CreatedAt: v.CreatedAt,
	}
}

// ModelStore keeps the versioned history of weight snapshots with a
// movable "current" pointer.
//
// History is a flat append-only log: after a rollback, future saves append
// forward from the rolled-back point rather than branching. The in-memory
// history is authoritative for ordering; the storage layer mirrors it for
// durability and survives process restarts.
type ModelStore struct {
	mu       sync.Mutex
	storage  storage.Storage
	history  []ModelVersion
	current  int // index into history, -1 when empty
	defaults map[string]float64
	log      *logrus.Entry
}

// NewModelStore creates a model store backed by the given storage. Any
// previously persisted history is rehydrated; rehydration failures degrade
// to an empty history with a warning so the service can still start.
func NewModelStore(st storage.Storage, defaults map[string]float64) *ModelStore {
	m := &ModelStore{
		storage:  st,
		current:  -1,
		defaults: copyWeights(defaults),
		log:      logging.Component("modelstore"),
	}
	m.rehydrate()
	return m
}

// rehydrate loads persisted versions and the current pointer.
func (m *ModelStore) rehydrate() {
	if m.storage == nil {
		return
	}

	versions, err := m.storage.ListModelVersions()
	if err != nil {
		m.log.WithError(err).Warn("failed to rehydrate model history")
		return
	}
	for _, v := range versions {
		m.history = append(m.history, versionFromStorage(v))
	}
	if len(m.history) == 0 {
		return
	}

	m.current = len(m.history) - 1
	currentVersion, err := m.storage.CurrentModelVersion()
	if err != nil || currentVersion == nil {
		if err != nil {
			m.log.WithError(err).Warn("failed to read current model pointer")
		}
		return
	}
	for i, v := range m.history {
		if v.VersionID == currentVersion.VersionID {
			m.current = i
			return
		}
	}
}

// Save assigns the next version identifier, appends the snapshot to the
// history, repoints current at it, and persists it.
//
// A persistence failure does not lose the snapshot: it stays live in the
// in-memory history and the error is reported as ErrStorageUnavailable so
// the caller can surface the durability gap.
func (m *ModelStore) Save(weights map[string]float64) (ModelVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := ModelVersion{
		VersionID: m.nextVersionID(),
		Weights:   copyWeights(weights),
		CreatedAt: time.Now().UTC(),
	}

	m.history = append(m.history, version)
	m.current = len(m.history) - 1

	// The returned snapshot must not alias the history entry's map, or a
	// caller mutating it would rewrite stored history.
	returned := ModelVersion{
		VersionID: version.VersionID,
		Weights:   copyWeights(version.Weights),
		CreatedAt: version.CreatedAt,
	}

	if m.storage == nil {
		return returned, nil
	}
	if err := m.storage.SaveModelVersion(version.toStorage()); err != nil {
		m.log.WithError(err).WithField("version", version.VersionID).
			Warn("failed to persist model version")
		return returned, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := m.storage.SetCurrentModelVersion(version.VersionID); err != nil {
		m.log.WithError(err).WithField("version", version.VersionID).
			Warn("failed to persist current model pointer")
		return returned, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return returned, nil
}

// nextVersionID bumps the patch component of the newest recorded version.
// Caller must hold m.mu.
func (m *ModelStore) nextVersionID() string {
	if len(m.history) == 0 {
		return initialVersion
	}

	last := m.history[len(m.history)-1].VersionID
	v, err := semver.NewVersion(last)
	if err != nil {
		m.log.WithField("version", last).Warn("unparseable version in history, restarting sequence")
		return fmt.Sprintf("%s+%d", initialVersion, len(m.history))
	}

	next := v.IncPatch()
	return next.String()
}

// Load returns the weights of the current version. When no version has
// ever been saved it falls back to persisted state, then to the configured
// defaults. A snapshot that cannot be decoded is reported as
// ErrCorruptModel without touching any in-memory state.
func (m *ModelStore) Load() (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current >= 0 {
		return copyWeights(m.history[m.current].Weights), nil
	}

	if m.storage != nil {
		persisted, err := m.storage.CurrentModelVersion()
		if err != nil {
			if errors.Is(err, storage.ErrCorruptRecord) {
				return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if persisted != nil {
			return copyWeights(persisted.Weights), nil
		}
	}

	return copyWeights(m.defaults), nil
}

// Rollback repoints current at the requested version. Returns false when
// the version is unknown; an unknown target is an expected operator
// mistake, not a fatal error. History entries are never deleted.
func (m *ModelStore) Rollback(versionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, v := range m.history {
		if v.VersionID != versionID {
			continue
		}

		m.current = i
		if m.storage != nil {
			if err := m.storage.SetCurrentModelVersion(versionID); err != nil {
				m.log.WithError(err).WithField("version", versionID).
					Warn("failed to persist rollback pointer")
			}
		}
		return true
	}

	return false
}

// CurrentVersion returns the version the current pointer refers to.
func (m *ModelStore) CurrentVersion() (ModelVersion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current < 0 {
		return ModelVersion{}, false
	}
	v := m.history[m.current]
	return ModelVersion{
		VersionID: v.VersionID,
		Weights:   copyWeights(v.Weights),
		CreatedAt: v.CreatedAt,
	}, true
}

// History returns a copy of the full version log, oldest first.
func (m *ModelStore) History() []ModelVersion {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ModelVersion, len(m.history))
	for i, v := range m.history {
		out[i] = ModelVersion{
			VersionID: v.VersionID,
			Weights:   copyWeights(v.Weights),
			CreatedAt: v.CreatedAt,
		}
	}
	return out
}

// copyWeights returns an independent copy of a weight map.
func copyWeights(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	return out
}
