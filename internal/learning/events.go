/*
Package learning implements the adaptive reranking feedback engine.

This package provides buffered collection of relevance feedback, pluggable
weight-adaptation algorithms, versioned rollback-capable model state, and
running performance statistics. Producers submit feedback concurrently; a
single background consumer owns the weight-mutation critical section, so at
most one flush-and-apply cycle is ever in flight.
*/
package learning

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRelevance is returned when a feedback event carries a relevance
// score outside [0, 1]. Such events never enter the buffer.
var ErrInvalidRelevance = errors.New("relevance score out of [0,1]")

// ErrNoSamples is returned when an aggregate is requested over zero samples
// or samples whose confidences sum to zero.
var ErrNoSamples = errors.New("no samples with non-zero confidence")

// ErrCorruptModel is returned when a stored snapshot cannot be decoded.
// The live in-memory weights are left untouched.
var ErrCorruptModel = errors.New("corrupt model snapshot")

// ErrStorageUnavailable is returned when the persistence medium rejects a
// write. The in-memory state still reflects the operation: the system
// favors serving fresh weights over strict durability.
var ErrStorageUnavailable = errors.New("model storage unavailable")

// ErrStopped is returned when feedback is submitted after shutdown.
var ErrStopped = errors.New("learning service stopped")

// FeedbackEvent is a single observation of result relevance supplied by a
// user or automated judge. Immutable once created; it lives in the buffer
// until flushed and is not persisted individually.
type FeedbackEvent struct {
	// Query is the search query the result was returned for.
	Query string

	// ResultID identifies the search result the feedback refers to.
	ResultID string

	// Relevance is the judged relevance in [0, 1].
	Relevance float64

	// Timestamp is when the feedback was produced.
	Timestamp time.Time
}

// NewFeedbackEvent creates a validated feedback event stamped with the
// current time.
func NewFeedbackEvent(query, resultID string, relevance float64) (FeedbackEvent, error) {
	e := FeedbackEvent{
		Query:     query,
		ResultID:  resultID,
		Relevance: relevance,
		Timestamp: time.Now(),
	}
	if err := e.Validate(); err != nil {
		return FeedbackEvent{}, err
	}
	return e, nil
}

// Validate rejects structurally malformed events.
func (e FeedbackEvent) Validate() error {
	if e.Relevance < 0 || e.Relevance > 1 {
		return fmt.Errorf("%w: %f", ErrInvalidRelevance, e.Relevance)
	}
	return nil
}

// Positive reports whether the event counts as positive feedback against
// the given classification threshold.
func (e FeedbackEvent) Positive(threshold float64) bool {
	return e.Relevance >= threshold
}
