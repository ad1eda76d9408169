package noise

import (
	"math"
	"math/rand/v2"
)

// Apply adds one independent draw of m's noise at scale to every count. The
// result has the same length and order as counts and may hold negatives.
func Apply(counts []uint64, m Mechanism, scale float64, src rand.Source) ([]int64, error) {
	sampler, err := NewSampler(m, scale, src)
	if err != nil {
		return nil, err
	}

	noised := make([]int64, len(counts))
	for i, c := range counts {
		if c > math.MaxInt64 {
			return nil, &SamplingError{Mechanism: m, Scale: scale, Reason: "count overflows int64"}
		}
		noised[i] = int64(c) + sampler.Sample()
	}
	return noised, nil
}
