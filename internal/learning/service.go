package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
)

const (
	// flushQueueSize bounds the detached-batch handoff queue. With one
	// consumer and threshold-sized batches this is effectively never hit.
	flushQueueSize = 16

	// defaultWeight is the neutral prior for a ranking feature.
	defaultWeight = 0.5
)

// DefaultFeatures are the ranking feature channels the reranker consumes.
// The feature key set is fixed at service initialization; no key is added
// or removed afterwards.
var DefaultFeatures = []string{"keyword", "semantic", "recency", "path"}

// Config is the construction-time configuration of the learning service.
// It is read once and never mutated at runtime.
type Config struct {
	// BatchThreshold is the buffer size that triggers a flush (default 10).
	BatchThreshold int

	// PositiveThreshold classifies feedback as positive (default 0.5).
	PositiveThreshold float64

	// MaxHistoryLength caps the accuracy time series (default 1000).
	MaxHistoryLength int

	// Alpha is the EMA smoothing factor (default 0.3).
	Alpha float64

	// LearningRate is the regret adjustment rate (default 0.1).
	LearningRate float64

	// Algorithm is the update rule applied on each flush (default "ema").
	Algorithm Algorithm

	// Features are the ranking feature keys (default DefaultFeatures).
	Features []string

	// DefaultWeights are the initial weights. Missing features get a
	// neutral 0.5 prior.
	DefaultWeights map[string]float64

	// Extractor turns a batch into per-feature signals. Defaults to a
	// RelevanceExtractor with uniform attribution.
	Extractor SignalExtractor

	// Selector picks the update rule per feature. Defaults to a
	// FixedSelector on Algorithm.
	Selector Selector
}

// DefaultConfig returns the standard service configuration.
func DefaultConfig() Config {
	return Config{
		BatchThreshold:    defaultBatchThreshold,
		PositiveThreshold: defaultPositiveThreshold,
		MaxHistoryLength:  defaultMaxHistory,
		Alpha:             defaultAlpha,
		LearningRate:      defaultLearningRate,
		Algorithm:         AlgorithmEMA,
		Features:          DefaultFeatures,
	}
}

// flushRequest is one detached batch handed to the consumer. done, when
// non-nil, receives the cycle outcome exactly once.
type flushRequest struct {
	batch []FeedbackEvent
	done  chan error
}

// Service wires the feedback buffer, adaptation engine, model store and
// performance monitor together.
//
// Producers submit feedback concurrently; detached batches travel over a
// bounded queue to a single consumer goroutine that owns the
// weight-mutation critical section, so exactly one flush-and-apply cycle
// is in flight at any time. Rollback and load take the same commit mutex
// as the flush cycle and can never interleave with its writes.
type Service struct {
	cfg       Config
	buffer    *Buffer
	extractor SignalExtractor
	selector  Selector
	store     *ModelStore
	monitor   *Monitor
	analytics storage.Storage
	log       *logrus.Entry

	// commitMu serializes full flush cycles with rollback/load/save.
	commitMu sync.Mutex

	// weightsMu guards only the live weights map, so reads stay cheap
	// while a cycle is persisting.
	weightsMu sync.RWMutex
	weights   map[string]float64

	flushCh  chan flushRequest
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// statusMu guards the enabled flag and the stopped transition.
	statusMu sync.RWMutex
	enabled  bool
	stopped  bool
}

// NewService creates and starts a learning service. The background
// consumer runs until Stop is called. st may be a disabled storage; the
// service then runs memory-only and reports durability gaps on save.
func NewService(cfg Config, st storage.Storage) *Service {
	if cfg.BatchThreshold <= 0 {
		cfg.BatchThreshold = defaultBatchThreshold
	}
	if cfg.PositiveThreshold <= 0 {
		cfg.PositiveThreshold = defaultPositiveThreshold
	}
	if cfg.MaxHistoryLength <= 0 {
		cfg.MaxHistoryLength = defaultMaxHistory
	}
	if !cfg.Algorithm.Valid() {
		cfg.Algorithm = AlgorithmEMA
	}
	if len(cfg.Features) == 0 {
		cfg.Features = DefaultFeatures
	}

	weights := make(map[string]float64, len(cfg.Features))
	for _, f := range cfg.Features {
		if w, ok := cfg.DefaultWeights[f]; ok {
			weights[f] = w
		} else {
			weights[f] = defaultWeight
		}
	}

	extractor := cfg.Extractor
	if extractor == nil {
		extractor = NewRelevanceExtractor(nil)
	}
	selector := cfg.Selector
	if selector == nil {
		selector = FixedSelector{Algorithm: cfg.Algorithm}
	}

	// Rehydrate persisted values, but keep the configured key set fixed:
	// a stale snapshot never adds or removes features.
	store := NewModelStore(st, weights)
	if persisted, err := store.Load(); err == nil {
		for f := range weights {
			if w, ok := persisted[f]; ok {
				weights[f] = w
			}
		}
	}

	s := &Service{
		cfg:       cfg,
		buffer:    NewBuffer(cfg.BatchThreshold),
		extractor: extractor,
		selector:  selector,
		store:     store,
		monitor:   NewMonitor(cfg.PositiveThreshold, cfg.MaxHistoryLength),
		analytics: st,
		log:       logging.Component("learning"),
		weights:   weights,
		flushCh:   make(chan flushRequest, flushQueueSize),
		stopChan:  make(chan struct{}),
		enabled:   true,
	}

	s.wg.Add(1)
	go s.processLoop()

	return s
}

// CollectFeedback validates and buffers a feedback event. When the batch
// threshold is reached the detached batch is handed to the consumer; the
// call never blocks on an in-flight flush.
func (s *Service) CollectFeedback(event FeedbackEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.statusMu.RLock()
	stopped, enabled := s.stopped, s.enabled
	s.statusMu.RUnlock()
	if stopped {
		return ErrStopped
	}
	if !enabled {
		return nil
	}

	batch, ready := s.buffer.Collect(event)
	s.log.WithFields(logrus.Fields{
		"result":    event.ResultID,
		"relevance": event.Relevance,
	}).Debug("feedback collected")

	if ready {
		s.submit(flushRequest{batch: batch})
	}
	return nil
}

// FlushFeedbackBuffer forces an out-of-cycle flush and waits for its cycle
// to complete, observing any cycle already in flight first. Flushing an
// empty buffer is a no-op: no counters change and no snapshot is written.
func (s *Service) FlushFeedbackBuffer() error {
	req := flushRequest{
		batch: s.buffer.Flush(),
		done:  make(chan error, 1),
	}
	s.submit(req)
	return <-req.done
}

// submit hands a detached batch to the consumer. The send happens under
// the status read lock, so every queued request is visible to the consumer
// before Stop marks the service stopped; once stopped, the cycle runs
// inline on the caller and accepted feedback is never dropped.
func (s *Service) submit(req flushRequest) {
	s.statusMu.RLock()
	stopped := s.stopped
	if !stopped {
		s.flushCh <- req
	}
	s.statusMu.RUnlock()

	if stopped {
		s.process(req)
	}
}

// Stop flushes remaining feedback and shuts the consumer down. Safe to
// call more than once. After Stop, CollectFeedback returns ErrStopped.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if err := s.FlushFeedbackBuffer(); err != nil {
			s.log.WithError(err).Warn("final flush reported an error")
		}
		s.statusMu.Lock()
		s.stopped = true
		s.statusMu.Unlock()
		close(s.stopChan)
		s.wg.Wait()
	})
}

// processLoop is the single consumer that owns weight mutation.
func (s *Service) processLoop() {
	defer s.wg.Done()

	for {
		select {
		case req := <-s.flushCh:
			s.process(req)
		case <-s.stopChan:
			// Drain pending batches, then exit.
			for {
				select {
				case req := <-s.flushCh:
					s.process(req)
				default:
					return
				}
			}
		}
	}
}

// process runs one flush cycle: extract signals, apply the update rule,
// commit to live weights, checkpoint a snapshot, update the monitor.
// A cycle, once started, always runs to completion; there is no partial
// commit. Persistence failure keeps the computed live weights and is
// surfaced as ErrStorageUnavailable.
func (s *Service) process(req flushRequest) {
	var err error
	defer func() {
		if req.done != nil {
			req.done <- err
		}
	}()

	if len(req.batch) == 0 {
		return
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	signals := s.extractor.Extract(req.batch, s.cfg.Features)
	params := Params{Alpha: s.cfg.Alpha, LearningRate: s.cfg.LearningRate}

	s.weightsMu.RLock()
	current := copyWeights(s.weights)
	s.weightsMu.RUnlock()

	updated, applyErr := Apply(signals, current, s.selector, params)
	if applyErr != nil {
		s.log.WithError(applyErr).Error("weight adaptation failed, batch skipped")
		err = applyErr
		return
	}

	s.weightsMu.Lock()
	s.weights = updated
	s.weightsMu.Unlock()

	version, saveErr := s.store.Save(updated)
	if saveErr != nil {
		// Live weights stay fresh even when the checkpoint is lost.
		s.log.WithError(saveErr).Warn("checkpoint persistence failed")
		err = saveErr
	}

	s.monitor.Record(req.batch)
	s.recordBatchAnalytics(req.batch)

	s.log.WithFields(logrus.Fields{
		"batch_size": len(req.batch),
		"algorithm":  string(s.cfg.Algorithm),
		"version":    version.VersionID,
		"accuracy":   s.monitor.Snapshot().ModelAccuracy,
	}).Info("feedback batch committed")
}

// recordBatchAnalytics writes the batch summary to the analytics log.
func (s *Service) recordBatchAnalytics(batch []FeedbackEvent) {
	if s.analytics == nil {
		return
	}

	positive := 0
	for _, e := range batch {
		if e.Positive(s.cfg.PositiveThreshold) {
			positive++
		}
	}

	record := storage.BatchRecord{
		BatchID:   uuid.NewString(),
		Size:      len(batch),
		Positive:  positive,
		Negative:  len(batch) - positive,
		Accuracy:  s.monitor.Snapshot().ModelAccuracy,
		Algorithm: string(s.cfg.Algorithm),
		Timestamp: time.Now().UTC(),
	}
	if err := s.analytics.RecordFeedbackBatch(record); err != nil {
		s.log.WithError(err).Warn("failed to record batch analytics")
	}
}

// GetAdaptiveWeights returns a read-only copy of the live weights.
func (s *Service) GetAdaptiveWeights() map[string]float64 {
	s.weightsMu.RLock()
	defer s.weightsMu.RUnlock()
	return copyWeights(s.weights)
}

// Features returns the fixed ranking feature keys.
func (s *Service) Features() []string {
	out := make([]string, len(s.cfg.Features))
	copy(out, s.cfg.Features)
	return out
}

// SaveModel snapshots the live weights into a new model version.
func (s *Service) SaveModel() (ModelVersion, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.weightsMu.RLock()
	weights := copyWeights(s.weights)
	s.weightsMu.RUnlock()

	version, err := s.store.Save(weights)
	if err != nil {
		return version, err
	}

	s.log.WithField("version", version.VersionID).Info("model saved")
	return version, nil
}

// LoadModel replaces the live weights with the current stored snapshot
// atomically. A failed load leaves the live weights untouched.
func (s *Service) LoadModel() error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	weights, err := s.store.Load()
	if err != nil {
		s.log.WithError(err).Error("model load failed")
		return err
	}

	s.weightsMu.Lock()
	s.weights = weights
	s.weightsMu.Unlock()

	s.log.Info("model loaded")
	return nil
}

// RollbackToVersion repoints the model at a previously saved version and,
// on success, replaces the live weights with that snapshot atomically.
// An unknown version returns false and changes nothing.
func (s *Service) RollbackToVersion(versionID string) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.store.Rollback(versionID) {
		s.log.WithField("version", versionID).Warn("rollback target not found")
		return false
	}

	weights, err := s.store.Load()
	if err != nil {
		// In-memory history is always decodable once Rollback succeeds.
		s.log.WithError(err).WithField("version", versionID).Error("rollback load failed")
		return false
	}

	s.weightsMu.Lock()
	s.weights = weights
	s.weightsMu.Unlock()

	s.log.WithField("version", versionID).Info("model rolled back")
	return true
}

// ModelHistory returns the full version log, oldest first.
func (s *Service) ModelHistory() []ModelVersion {
	return s.store.History()
}

// CurrentVersion returns the version the model currently points at.
func (s *Service) CurrentVersion() (ModelVersion, bool) {
	return s.store.CurrentVersion()
}

// PerformanceMonitoring returns the running statistics snapshot.
func (s *Service) PerformanceMonitoring() PerformanceSnapshot {
	return s.monitor.Snapshot()
}

// PendingFeedback returns the number of events waiting in the buffer.
func (s *Service) PendingFeedback() int {
	return s.buffer.Len()
}

// Disable stops accepting feedback (events are ignored).
func (s *Service) Disable() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.enabled = false
}

// Enable resumes accepting feedback.
func (s *Service) Enable() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.enabled = true
}

// IsEnabled reports whether feedback collection is active.
func (s *Service) IsEnabled() bool {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.enabled
}

// AlgorithmSet exposes the pure update rules for direct use and testing.
type AlgorithmSet struct {
	ExponentialMovingAverage  func(previous, observed, alpha float64) float64
	ConfidenceWeightedAverage func(samples []WeightedSample) (float64, error)
	RegretBasedAdjustment     func(current, observedReward, learningRate float64) float64
}

// Algorithms returns the three adaptation rules.
func (s *Service) Algorithms() AlgorithmSet {
	return AlgorithmSet{
		ExponentialMovingAverage:  ExponentialMovingAverage,
		ConfidenceWeightedAverage: ConfidenceWeightedAverage,
		RegretBasedAdjustment:     RegretBasedAdjustment,
	}
}

// String implements fmt.Stringer for log readability.
func (v ModelVersion) String() string {
	return fmt.Sprintf("ModelVersion(%s, %d features)", v.VersionID, len(v.Weights))
}
