// Package noise calibrates and draws the discrete noise added to released
// counts.
package noise

import (
	"fmt"
	"strings"
)

// Mechanism is the noise distribution family. It is a closed set.
type Mechanism int

const (
	Laplace Mechanism = iota
	Gaussian
)

func (m Mechanism) String() string {
	switch m {
	case Laplace:
		return "Laplace"
	case Gaussian:
		return "Gaussian"
	default:
		return fmt.Sprintf("Mechanism(%d)", int(m))
	}
}

// Valid reports whether m is one of the supported mechanisms.
func (m Mechanism) Valid() bool {
	return m == Laplace || m == Gaussian
}

// Toggle flips Laplace and Gaussian.
func (m Mechanism) Toggle() Mechanism {
	if m == Laplace {
		return Gaussian
	}
	return Laplace
}

// ParseMechanism accepts "laplace" or "gaussian" in any case.
func ParseMechanism(s string) (Mechanism, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "laplace":
		return Laplace, nil
	case "gaussian":
		return Gaussian, nil
	default:
		return 0, fmt.Errorf("unknown mechanism %q", s)
	}
}

// CalibrationError is returned when no finite scale satisfies the requested
// accuracy and tolerance.
type CalibrationError struct {
	Mechanism Mechanism
	Accuracy  float64
	Alpha     float64
	Reason    string
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibrate %s (accuracy=%g, alpha=%g): %s", e.Mechanism, e.Accuracy, e.Alpha, e.Reason)
}

// SamplingError is returned when a sampler cannot be built for a scale.
type SamplingError struct {
	Mechanism Mechanism
	Scale     float64
	Reason    string
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampler %s (scale=%g): %s", e.Mechanism, e.Scale, e.Reason)
}
