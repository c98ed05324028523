package config

import "fmt"

var validAlgorithms = map[string]bool{
	"ema":        true,
	"confidence": true,
	"regret":     true,
}

// Validate checks a configuration for out-of-range knobs. It assumes
// defaults have already been applied.
func Validate(cfg *Config) error {
	if l := cfg.Learning; l != nil {
		if l.BatchThreshold < 1 {
			return fmt.Errorf("learning.batchThreshold must be at least 1, got %d", l.BatchThreshold)
		}
		if l.PositiveThreshold < 0 || l.PositiveThreshold > 1 {
			return fmt.Errorf("learning.positiveThreshold must be in [0, 1], got %f", l.PositiveThreshold)
		}
		if l.MaxHistoryLength < 1 {
			return fmt.Errorf("learning.maxHistoryLength must be at least 1, got %d", l.MaxHistoryLength)
		}
		if l.EMAAlpha <= 0 || l.EMAAlpha > 1 {
			return fmt.Errorf("learning.emaAlpha must be in (0, 1], got %f", l.EMAAlpha)
		}
		if l.RegretLearningRate <= 0 || l.RegretLearningRate > 1 {
			return fmt.Errorf("learning.regretLearningRate must be in (0, 1], got %f", l.RegretLearningRate)
		}
		if !validAlgorithms[l.Algorithm] {
			return fmt.Errorf("learning.algorithm must be ema, confidence, or regret, got %q", l.Algorithm)
		}
	}

	if s := cfg.Search; s != nil {
		if s.SemanticWeight < 0 || s.KeywordWeight < 0 {
			return fmt.Errorf("search fusion weights must be non-negative")
		}
		if s.SemanticWeight == 0 && s.KeywordWeight == 0 {
			return fmt.Errorf("search fusion weights must not both be zero")
		}
		if s.ResultLimit < 1 {
			return fmt.Errorf("search.resultLimit must be at least 1, got %d", s.ResultLimit)
		}
	}

	return nil
}
