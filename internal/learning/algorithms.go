package learning

import (
	"fmt"
)

const (
	// defaultAlpha is the default EMA smoothing factor.
	defaultAlpha = 0.3

	// defaultLearningRate is the default regret adjustment rate.
	defaultLearningRate = 0.1
)

// Algorithm selects one of the interchangeable weight-update rules.
type Algorithm string

const (
	// AlgorithmEMA applies an exponential moving average per feature.
	AlgorithmEMA Algorithm = "ema"

	// AlgorithmConfidence applies a confidence-weighted average over the
	// batch samples per feature.
	AlgorithmConfidence Algorithm = "confidence"

	// AlgorithmRegret applies the regret-based adjustment per feature.
	AlgorithmRegret Algorithm = "regret"
)

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmEMA, AlgorithmConfidence, AlgorithmRegret:
		return true
	}
	return false
}

// WeightedSample is a single observation with an attribution confidence.
type WeightedSample struct {
	Value      float64
	Confidence float64
}

// Params carries the tunable constants for the update rules.
type Params struct {
	// Alpha is the EMA smoothing factor in (0, 1].
	Alpha float64

	// LearningRate is the regret adjustment rate.
	LearningRate float64
}

// DefaultParams returns the standard rule constants.
func DefaultParams() Params {
	return Params{Alpha: defaultAlpha, LearningRate: defaultLearningRate}
}

// ExponentialMovingAverage blends an observation into a previous estimate:
//
//	previous + alpha*(observed - previous)
//
// A larger alpha weights recent observations more heavily. Deterministic,
// no side effects.
func ExponentialMovingAverage(previous, observed, alpha float64) float64 {
	return previous + alpha*(observed-previous)
}

// ConfidenceWeightedAverage aggregates samples by attribution confidence:
//
//	sum(value_i * confidence_i) / sum(confidence_i)
//
// Returns ErrNoSamples when the slice is empty or all confidences are zero;
// callers must guard against empty batches before invoking.
func ConfidenceWeightedAverage(samples []WeightedSample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}

	var weighted, total float64
	for _, s := range samples {
		weighted += s.Value * s.Confidence
		total += s.Confidence
	}

	if total == 0 {
		return 0, ErrNoSamples
	}
	return weighted / total, nil
}

// RegretBasedAdjustment nudges the current estimate away from the observed
// reward:
//
//	current - learningRate*(observedReward - current)
//
// The subtraction is intentional: the rule decreases the weight when the
// observed reward exceeds the current estimate. The calibrated model
// depends on this sign convention; see DESIGN.md before changing it.
func RegretBasedAdjustment(current, observedReward, learningRate float64) float64 {
	return current - learningRate*(observedReward-current)
}

// Apply computes updated weights from extracted batch signals using the
// rule chosen by the selector for each feature key.
//
// The input weights map is never mutated; a new map is returned so the
// caller decides whether and when to commit. Keys are fixed: features
// absent from the signals, or whose samples carry no confidence, keep
// their previous value.
func Apply(signals map[string]Signal, weights map[string]float64, selector Selector, p Params) (map[string]float64, error) {
	if p.Alpha <= 0 || p.Alpha > 1 {
		p.Alpha = defaultAlpha
	}
	if p.LearningRate <= 0 {
		p.LearningRate = defaultLearningRate
	}
	if selector == nil {
		selector = FixedSelector{Algorithm: AlgorithmEMA}
	}

	updated := make(map[string]float64, len(weights))
	for feature, previous := range weights {
		signal, ok := signals[feature]
		if !ok {
			updated[feature] = previous
			continue
		}

		algorithm := selector.Select(feature, signal)
		switch algorithm {
		case AlgorithmEMA:
			updated[feature] = ExponentialMovingAverage(previous, signal.Value, p.Alpha)
		case AlgorithmConfidence:
			value, err := ConfidenceWeightedAverage(signal.Samples)
			if err != nil {
				// No usable samples for this feature; keep the prior.
				updated[feature] = previous
				continue
			}
			updated[feature] = value
		case AlgorithmRegret:
			updated[feature] = RegretBasedAdjustment(previous, signal.Value, p.LearningRate)
		default:
			return nil, fmt.Errorf("unknown adaptation algorithm: %q", algorithm)
		}
	}

	return updated, nil
}
