// Package estimator derives error bounds for noised counts.
package estimator

import (
	"math"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/noise"
)

// CIResult contains confidence interval metadata for one released count.
type CIResult struct {
	Bucket          string  `json:"bucket"`
	Estimate        int64   `json:"estimate"`
	HalfWidth       float64 `json:"half_width"`
	ConfidenceLevel float64 `json:"confidence_level"`
	Lower           float64 `json:"ci_low"`
	Upper           float64 `json:"ci_high"`
}

// CountIntervals builds a symmetric interval around every noised count. The
// half width is the smallest integer a with P(|noise| > a) <= alpha, so each
// interval covers the true count with probability at least 1-alpha. Lower
// bounds are clamped at zero since true counts are never negative.
func CountIntervals(buckets []string, noised []int64, m noise.Mechanism, scale, alpha float64) []CIResult {
	hw := noise.AccuracyFor(m, scale, alpha)
	out := make([]CIResult, len(noised))
	for i, v := range noised {
		label := ""
		if i < len(buckets) {
			label = buckets[i]
		}
		est := float64(v)
		out[i] = CIResult{
			Bucket:          label,
			Estimate:        v,
			HalfWidth:       hw,
			ConfidenceLevel: 1 - alpha,
			Lower:           math.Max(0, est-hw),
			Upper:           est + hw,
		}
	}
	return out
}

// ErrorSummary describes how far a noised vector landed from the true one.
type ErrorSummary struct {
	MaxAbs  int64   `json:"max_abs_error"`
	MeanAbs float64 `json:"mean_abs_error"`
	// Covered counts buckets whose noise stayed within the target accuracy.
	Covered int `json:"covered"`
}

// ObservedError compares counts with noised index by index. Vectors of
// different length are compared over their common prefix.
func ObservedError(counts []uint64, noised []int64, accuracy float64) ErrorSummary {
	n := len(counts)
	if len(noised) < n {
		n = len(noised)
	}
	var s ErrorSummary
	if n == 0 {
		return s
	}
	var total float64
	for i := 0; i < n; i++ {
		d := noised[i] - int64(counts[i])
		if d < 0 {
			d = -d
		}
		if d > s.MaxAbs {
			s.MaxAbs = d
		}
		if float64(d) <= accuracy {
			s.Covered++
		}
		total += float64(d)
	}
	s.MeanAbs = total / float64(n)
	return s
}
