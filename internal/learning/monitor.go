package learning

import (
	"sync"
	"time"
)

const (
	// defaultPositiveThreshold classifies relevance >= 0.5 as positive.
	defaultPositiveThreshold = 0.5

	// defaultMaxHistory caps the accuracy time series.
	defaultMaxHistory = 1000
)

// PerformancePoint is one sample of the accuracy time series.
type PerformancePoint struct {
	Timestamp time.Time
	Accuracy  float64
}

// PerformanceSnapshot is a read-only copy of the running statistics.
// Counters grow monotonically; the snapshot is a log of what was observed
// and is never reverted by a model rollback.
type PerformanceSnapshot struct {
	TotalFeedback    int
	PositiveFeedback int
	NegativeFeedback int
	ModelAccuracy    float64
	History          []PerformancePoint
}

// Monitor derives running statistics from processed batches.
type Monitor struct {
	mu                sync.Mutex
	positiveThreshold float64
	maxHistory        int

	total    int
	positive int
	negative int
	accuracy float64
	history  []PerformancePoint
}

// NewMonitor creates a performance monitor. A non-positive threshold or
// history cap falls back to the defaults (0.5, 1000).
func NewMonitor(positiveThreshold float64, maxHistory int) *Monitor {
	if positiveThreshold <= 0 {
		positiveThreshold = defaultPositiveThreshold
	}
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Monitor{
		positiveThreshold: positiveThreshold,
		maxHistory:        maxHistory,
	}
}

// Record folds a processed batch into the running statistics and appends
// an accuracy sample. The history is capped: once full, the oldest sample
// is dropped for each new one.
func (m *Monitor) Record(batch []FeedbackEvent) {
	if len(batch) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, event := range batch {
		m.total++
		if event.Positive(m.positiveThreshold) {
			m.positive++
		} else {
			m.negative++
		}
	}

	if m.total > 0 {
		m.accuracy = float64(m.positive) / float64(m.total)
	}

	m.history = append(m.history, PerformancePoint{
		Timestamp: time.Now(),
		Accuracy:  m.accuracy,
	})
	if len(m.history) > m.maxHistory {
		m.history = m.history[len(m.history)-m.maxHistory:]
	}
}

// Snapshot returns a deep copy of the current aggregate.
func (m *Monitor) Snapshot() PerformanceSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]PerformancePoint, len(m.history))
	copy(history, m.history)

	return PerformanceSnapshot{
		TotalFeedback:    m.total,
		PositiveFeedback: m.positive,
		NegativeFeedback: m.negative,
		ModelAccuracy:    m.accuracy,
		History:          history,
	}
}
