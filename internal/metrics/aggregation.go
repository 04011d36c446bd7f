// Package metrics aggregates recorded inference calls into latency, token
// and error statistics.
package metrics

import (
	"sort"

	"github.com/jackzampolin/mitnm/internal/llmcall"
)

// Stats provides statistics over a set of calls, including latency
// percentiles and token totals.
type Stats struct {
	// Basic counts
	Count        int `json:"count" yaml:"count"`
	SuccessCount int `json:"success_count" yaml:"success_count"`
	ErrorCount   int `json:"error_count" yaml:"error_count"`
	RetryCount   int `json:"retry_count" yaml:"retry_count"` // Calls made as a retry
	Documents    int `json:"documents" yaml:"documents"`     // Distinct document ids

	// Latency percentiles (milliseconds)
	LatencyP50 float64 `json:"latency_p50_ms" yaml:"latency_p50_ms"`
	LatencyP95 float64 `json:"latency_p95_ms" yaml:"latency_p95_ms"`
	LatencyP99 float64 `json:"latency_p99_ms" yaml:"latency_p99_ms"`
	LatencyAvg float64 `json:"latency_avg_ms" yaml:"latency_avg_ms"`
	LatencyMin float64 `json:"latency_min_ms" yaml:"latency_min_ms"`
	LatencyMax float64 `json:"latency_max_ms" yaml:"latency_max_ms"`

	// Token stats
	TotalInputTokens  int `json:"total_input_tokens" yaml:"total_input_tokens"`
	TotalOutputTokens int `json:"total_output_tokens" yaml:"total_output_tokens"`

	// Average tokens per call
	AvgInputTokens  float64 `json:"avg_input_tokens" yaml:"avg_input_tokens"`
	AvgOutputTokens float64 `json:"avg_output_tokens" yaml:"avg_output_tokens"`
}

// SuccessRate returns the fraction of successful calls, or 0 without calls.
func (s *Stats) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.Count)
}

// Compute returns statistics for calls.
func Compute(calls []llmcall.Call) *Stats {
	stats := &Stats{Count: len(calls)}
	if len(calls) == 0 {
		return stats
	}

	// Collect latencies for percentile calculation
	var latencies []float64
	docs := make(map[string]struct{})

	for _, c := range calls {
		if c.Success {
			stats.SuccessCount++
		} else {
			stats.ErrorCount++
		}
		if c.Attempt > 1 {
			stats.RetryCount++
		}
		if c.DocumentID != "" {
			docs[c.DocumentID] = struct{}{}
		}

		stats.TotalInputTokens += c.InputTokens
		stats.TotalOutputTokens += c.OutputTokens

		if c.LatencyMs > 0 {
			latencies = append(latencies, float64(c.LatencyMs))
		}
	}
	stats.Documents = len(docs)

	count := float64(stats.Count)
	stats.AvgInputTokens = float64(stats.TotalInputTokens) / count
	stats.AvgOutputTokens = float64(stats.TotalOutputTokens) / count

	if len(latencies) > 0 {
		sort.Float64s(latencies)

		stats.LatencyMin = latencies[0]
		stats.LatencyMax = latencies[len(latencies)-1]

		var sum float64
		for _, l := range latencies {
			sum += l
		}
		stats.LatencyAvg = sum / float64(len(latencies))

		stats.LatencyP50 = percentile(latencies, 50)
		stats.LatencyP95 = percentile(latencies, 95)
		stats.LatencyP99 = percentile(latencies, 99)
	}

	return stats
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (p / 100.0) * float64(len(sorted)-1)

	// Interpolate between floor and ceil indices
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
