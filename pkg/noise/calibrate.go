package noise

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	maxBracketSteps = 1100
	maxBisectSteps  = 200
	bisectRelTol    = 1e-12

	// Series terms below this fraction of the running sum are dropped.
	gaussianSumEpsilon = 1e-18
)

// Calibrate returns the largest scale for which a single draw of m's discrete
// distribution exceeds accuracy in absolute value with probability at most
// alpha. For Laplace the scale is b in P(k) ∝ exp(-|k|/b); for Gaussian it is
// sigma in P(k) ∝ exp(-k²/2σ²).
func Calibrate(m Mechanism, accuracy, alpha float64) (float64, error) {
	if !m.Valid() {
		return 0, &CalibrationError{Mechanism: m, Accuracy: accuracy, Alpha: alpha, Reason: "unknown mechanism"}
	}
	if math.IsNaN(accuracy) || math.IsInf(accuracy, 0) || accuracy <= 0 {
		return 0, &CalibrationError{Mechanism: m, Accuracy: accuracy, Alpha: alpha, Reason: "accuracy must be positive and finite"}
	}
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return 0, &CalibrationError{Mechanism: m, Accuracy: accuracy, Alpha: alpha, Reason: "alpha must be in (0, 1)"}
	}

	bound := math.Floor(accuracy)
	tail := func(scale float64) float64 { return tailAbove(m, scale, bound) }

	scale, ok := solveScale(tail, initialGuess(m, bound, alpha), alpha)
	if !ok || scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return 0, &CalibrationError{Mechanism: m, Accuracy: accuracy, Alpha: alpha, Reason: "no finite scale satisfies the bound"}
	}
	return scale, nil
}

// Tail returns P(|X| > accuracy) for X drawn from m's discrete distribution
// with the given scale.
func Tail(m Mechanism, scale, accuracy float64) float64 {
	if accuracy < 0 {
		return 1
	}
	return tailAbove(m, scale, math.Floor(accuracy))
}

// AccuracyFor is the inverse of Calibrate: the smallest integer accuracy a
// with P(|X| > a) <= alpha at the given scale.
func AccuracyFor(m Mechanism, scale, alpha float64) float64 {
	if scale <= 0 || alpha <= 0 || alpha >= 1 {
		return math.Inf(1)
	}
	var hi float64 = 1
	for tailAbove(m, scale, hi) > alpha {
		hi *= 2
		if math.IsInf(hi, 0) {
			return hi
		}
	}
	lo := 0.0
	if tailAbove(m, scale, lo) <= alpha {
		return 0
	}
	for hi-lo > 1 {
		mid := math.Floor((lo + hi) / 2)
		if tailAbove(m, scale, mid) <= alpha {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// tailAbove is P(|X| > bound) for an integer bound >= 0.
func tailAbove(m Mechanism, scale, bound float64) float64 {
	if scale <= 0 {
		return 0
	}
	switch m {
	case Laplace:
		return laplaceTail(scale, bound)
	case Gaussian:
		return gaussianTail(scale, bound)
	default:
		return 1
	}
}

// laplaceTail uses P(|X| >= k) = 2p^k/(1+p), p = exp(-1/b), for k >= 1.
func laplaceTail(scale, bound float64) float64 {
	logP := -1 / scale
	p := math.Exp(logP)
	return 2 * math.Exp((bound+1)*logP) / (1 + p)
}

// gaussianTail returns P(|X| > bound) for the discrete Gaussian. The
// normaliser uses the Poisson summation form when sigma >= 1, so the cost
// grows with min(bound, sigma) and not with sigma alone.
func gaussianTail(sigma, bound float64) float64 {
	twoVar := 2 * sigma * sigma
	weight := func(k float64) float64 { return math.Exp(-k * k / twoVar) }

	if bound >= sigma {
		// Terms past bound shrink at least geometrically; sum them directly.
		var above float64
		for k := bound + 1; ; k++ {
			w := weight(k)
			above += 2 * w
			if w == 0 || w < gaussianSumEpsilon*above {
				break
			}
		}
		return above / gaussianNorm(sigma)
	}

	norm := gaussianNorm(sigma)
	inner := 1.0
	for k := 1.0; k <= bound; k++ {
		inner += 2 * weight(k)
	}
	return math.Max(0, (norm-inner)/norm)
}

// gaussianNorm is sum over all integers k of exp(-k²/2σ²).
func gaussianNorm(sigma float64) float64 {
	if sigma < 1 {
		twoVar := 2 * sigma * sigma
		norm := 1.0
		for k := 1.0; ; k++ {
			w := math.Exp(-k * k / twoVar)
			norm += 2 * w
			if w < gaussianSumEpsilon*norm {
				return norm
			}
		}
	}
	// sum_k e^{-k²/2σ²} = σ√(2π) · sum_n e^{-2π²σ²n²}
	c := 2 * math.Pi * math.Pi * sigma * sigma
	dual := 1.0
	for n := 1.0; ; n++ {
		w := math.Exp(-c * n * n)
		dual += 2 * w
		if w < gaussianSumEpsilon*dual {
			break
		}
	}
	return sigma * math.Sqrt(2*math.Pi) * dual
}

// initialGuess seeds the bracket from the continuous counterpart of each
// distribution.
func initialGuess(m Mechanism, bound, alpha float64) float64 {
	a := bound + 1
	switch m {
	case Gaussian:
		z := distuv.UnitNormal.Quantile(1 - alpha/2)
		if z <= 0 || math.IsNaN(z) {
			return a
		}
		return a / z
	default:
		return a / math.Log(1/alpha)
	}
}

// solveScale finds the largest scale with tail(scale) <= alpha, assuming tail
// is non-decreasing in scale.
func solveScale(tail func(float64) float64, guess, alpha float64) (float64, bool) {
	if guess <= 0 || math.IsNaN(guess) || math.IsInf(guess, 0) {
		guess = 1
	}

	lo := guess
	for i := 0; tail(lo) > alpha; i++ {
		if i >= maxBracketSteps {
			return 0, false
		}
		lo /= 2
	}
	hi := math.Max(guess, lo)
	for i := 0; tail(hi) <= alpha; i++ {
		if i >= maxBracketSteps || math.IsInf(hi, 0) {
			return 0, false
		}
		lo = hi
		hi *= 2
	}

	for i := 0; i < maxBisectSteps && hi-lo > bisectRelTol*hi; i++ {
		mid := lo + (hi-lo)/2
		if tail(mid) <= alpha {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, lo > 0
}
