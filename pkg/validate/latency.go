package validate

import "strings"

// LatencyResult reports a response-time check.
type LatencyResult struct {
	Passed           bool
	LatencySeconds   float64
	ThresholdSeconds float64
	MarginSeconds    float64 // threshold minus actual; negative when over
}

// Latency validates that the pipeline responded within an acceptance
// threshold.
type Latency struct {
	maxLatency float64
}

// NewLatency creates a latency validator with a threshold in seconds.
func NewLatency(maxLatencySeconds float64) *Latency {
	return &Latency{maxLatency: maxLatencySeconds}
}

// Validate checks a measured latency against the threshold.
func (v *Latency) Validate(latencySeconds float64) LatencyResult {
	return LatencyResult{
		Passed:           latencySeconds <= v.maxLatency,
		LatencySeconds:   latencySeconds,
		ThresholdSeconds: v.maxLatency,
		MarginSeconds:    v.maxLatency - latencySeconds,
	}
}

// ContainsAny reports whether the text contains any of the keywords,
// case-insensitively, and returns those found. Used for the soft
// checks (empathy, activity suggestions) that warn rather than fail.
func ContainsAny(text string, keywords []string) (bool, []string) {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return len(found) > 0, found
}
