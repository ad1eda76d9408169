package noise

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws integer noise.
type Sampler interface {
	Sample() int64
}

// NewSampler builds the discrete sampler for m at scale. src may be nil, in
// which case the global source is used.
func NewSampler(m Mechanism, scale float64, src rand.Source) (Sampler, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return nil, &SamplingError{Mechanism: m, Scale: scale, Reason: "scale must be positive and finite"}
	}
	switch m {
	case Laplace:
		return newDiscreteLaplace(m, scale, src)
	case Gaussian:
		return newDiscreteGaussian(scale, src)
	default:
		return nil, &SamplingError{Mechanism: m, Scale: scale, Reason: "unknown mechanism"}
	}
}

// discreteLaplace draws the two-sided geometric distribution
// P(k) ∝ p^|k| as the difference of two one-sided geometric draws. Each
// geometric is the Polya(1, p) Gamma-Poisson mixture.
type discreteLaplace struct {
	p     float64
	gamma distuv.Gamma
	src   rand.Source
}

func newDiscreteLaplace(m Mechanism, scale float64, src rand.Source) (*discreteLaplace, error) {
	p := math.Exp(-1 / scale)
	if p >= 1 {
		return nil, &SamplingError{Mechanism: m, Scale: scale, Reason: "scale too large to represent"}
	}
	d := &discreteLaplace{p: p, src: src}
	if p > 0 {
		d.gamma = distuv.Gamma{Alpha: 1, Beta: (1 - p) / p, Src: src}
	}
	return d, nil
}

func (d *discreteLaplace) geometric() int64 {
	if d.p == 0 {
		return 0
	}
	lambda := d.gamma.Rand()
	if lambda <= 0 {
		return 0
	}
	return int64(distuv.Poisson{Lambda: lambda, Src: d.src}.Rand())
}

func (d *discreteLaplace) Sample() int64 {
	return d.geometric() - d.geometric()
}

// discreteGaussian samples P(k) ∝ exp(-k²/2σ²) by rejection from a discrete
// Laplace with scale floor(σ)+1 (Canonne, Kamath, Steinke 2020).
type discreteGaussian struct {
	sigma float64
	t     float64
	base  *discreteLaplace
	src   rand.Source
}

func newDiscreteGaussian(sigma float64, src rand.Source) (*discreteGaussian, error) {
	t := math.Floor(sigma) + 1
	base, err := newDiscreteLaplace(Gaussian, t, src)
	if err != nil {
		return nil, err
	}
	return &discreteGaussian{sigma: sigma, t: t, base: base, src: src}, nil
}

func (g *discreteGaussian) Sample() int64 {
	variance := g.sigma * g.sigma
	for {
		y := g.base.Sample()
		d := math.Abs(float64(y)) - variance/g.t
		accept := distuv.Bernoulli{P: math.Exp(-d * d / (2 * variance)), Src: g.src}
		if accept.Rand() == 1 {
			return y
		}
	}
}
