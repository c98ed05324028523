package learning

import "sync"

const (
	// defaultBatchThreshold is the buffer size that triggers a flush.
	defaultBatchThreshold = 10
)

// Buffer accumulates feedback events until a batch is ready.
//
// The threshold check and batch detachment happen under one exclusive
// region, so concurrent Collect calls can never observe "threshold
// reached" twice for the same batch, and no event is lost or
// double-counted across a flush boundary.
type Buffer struct {
	mu        sync.Mutex
	events    []FeedbackEvent
	threshold int
}

// NewBuffer creates a feedback buffer with the given batch threshold.
// A threshold <= 0 falls back to the default of 10.
func NewBuffer(threshold int) *Buffer {
	if threshold <= 0 {
		threshold = defaultBatchThreshold
	}
	return &Buffer{
		events:    make([]FeedbackEvent, 0, threshold),
		threshold: threshold,
	}
}

// Collect appends an event. When the buffer reaches the threshold the
// accumulated batch is atomically detached and returned with ready=true,
// and the buffer resets to empty for the next generation.
func (b *Buffer) Collect(event FeedbackEvent) (batch []FeedbackEvent, ready bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) < b.threshold {
		return nil, false
	}

	batch = b.events
	b.events = make([]FeedbackEvent, 0, b.threshold)
	return batch, true
}

// Flush forces a detach-and-reset regardless of current size and returns
// the possibly-empty drained batch. An empty result is a no-op for the
// caller, not an error.
func (b *Buffer) Flush() []FeedbackEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.events
	b.events = make([]FeedbackEvent, 0, b.threshold)
	return batch
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Threshold returns the configured batch threshold.
func (b *Buffer) Threshold() int {
	return b.threshold
}
