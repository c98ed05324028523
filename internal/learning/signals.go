package learning

// Signal is the per-feature scalar observation extracted from a batch.
type Signal struct {
	// Value is the aggregate observation for the feature (mean relevance
	// weighted by attribution confidence).
	Value float64

	// Confidence is how strongly the batch speaks about this feature,
	// normalized to [0, 1] by batch size.
	Confidence float64

	// Samples are the individual weighted observations, preserved for
	// the confidence-weighted update rule.
	Samples []WeightedSample
}

// FeatureScorer attributes a query/result pair to ranking feature channels.
// The search layer implements this by remembering the per-channel scores of
// results it served; scores are in [0, 1].
type FeatureScorer interface {
	FeatureScores(query, resultID string) map[string]float64
}

// SignalExtractor turns a feedback batch into per-feature signals.
type SignalExtractor interface {
	Extract(batch []FeedbackEvent, features []string) map[string]Signal
}

// RelevanceExtractor is the default signal extractor. Each event's
// relevance becomes a weighted sample on every feature, with the weight
// taken from the scorer's attribution for that query/result pair. Events
// the scorer knows nothing about contribute with uniform confidence, so a
// batch is never silently discarded.
type RelevanceExtractor struct {
	Scorer FeatureScorer
}

// NewRelevanceExtractor creates a relevance extractor with the given
// feature attribution source. A nil scorer yields uniform attribution.
func NewRelevanceExtractor(scorer FeatureScorer) *RelevanceExtractor {
	return &RelevanceExtractor{Scorer: scorer}
}

// Extract implements SignalExtractor.
func (r *RelevanceExtractor) Extract(batch []FeedbackEvent, features []string) map[string]Signal {
	signals := make(map[string]Signal, len(features))
	if len(batch) == 0 {
		return signals
	}

	for _, feature := range features {
		samples := make([]WeightedSample, 0, len(batch))
		for _, event := range batch {
			confidence := r.attribution(event, feature)
			if confidence <= 0 {
				continue
			}
			samples = append(samples, WeightedSample{
				Value:      event.Relevance,
				Confidence: confidence,
			})
		}
		if len(samples) == 0 {
			continue
		}

		value, err := ConfidenceWeightedAverage(samples)
		if err != nil {
			continue
		}

		var total float64
		for _, s := range samples {
			total += s.Confidence
		}
		confidence := total / float64(len(batch))
		if confidence > 1 {
			confidence = 1
		}

		signals[feature] = Signal{
			Value:      value,
			Confidence: confidence,
			Samples:    samples,
		}
	}

	return signals
}

// attribution returns the scorer's weight for one event on one feature,
// falling back to uniform attribution when the pair is unknown.
func (r *RelevanceExtractor) attribution(event FeedbackEvent, feature string) float64 {
	if r.Scorer == nil {
		return 1.0
	}

	scores := r.Scorer.FeatureScores(event.Query, event.ResultID)
	if scores == nil {
		return 1.0
	}

	return scores[feature]
}
