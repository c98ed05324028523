package learning

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// epsilon is the default exploration rate (0.1 = 10% explore).
	epsilon = 0.1
)

// Selector chooses the update rule applied to a feature for one batch.
type Selector interface {
	Select(feature string, signal Signal) Algorithm
}

// FixedSelector always applies the same rule. This is the production
// default; the configured algorithm applies to every feature.
type FixedSelector struct {
	Algorithm Algorithm
}

// Select returns the fixed rule.
func (f FixedSelector) Select(string, Signal) Algorithm {
	return f.Algorithm
}

// EpsilonGreedySelector applies the preferred rule most of the time and,
// with probability ε, explores one of the other rules. Useful for offline
// comparison of the update rules on live traffic.
type EpsilonGreedySelector struct {
	// Epsilon is the exploration rate (default: 0.1).
	Epsilon float64

	// Preferred is the rule exploited with probability 1-ε.
	Preferred Algorithm

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEpsilonGreedySelector creates an ε-greedy selector with default
// exploration rate.
func NewEpsilonGreedySelector(preferred Algorithm) *EpsilonGreedySelector {
	return &EpsilonGreedySelector{
		Epsilon:   epsilon,
		Preferred: preferred,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Select returns the preferred rule, or a random rule with probability ε.
func (e *EpsilonGreedySelector) Select(string, Signal) Algorithm {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if e.rng.Float64() < e.Epsilon {
		all := []Algorithm{AlgorithmEMA, AlgorithmConfidence, AlgorithmRegret}
		return all[e.rng.Intn(len(all))]
	}
	return e.Preferred
}

// SetEpsilon updates the exploration rate. Values outside [0, 1] are ignored.
func (e *EpsilonGreedySelector) SetEpsilon(eps float64) {
	if eps < 0 || eps > 1 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Epsilon = eps
}
