package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/san-kum/pidlab/internal/tf"
)

type Stability int

const (
	Stable Stability = iota
	Marginal
	Unstable
)

func (s Stability) String() string {
	switch s {
	case Stable:
		return "stable"
	case Marginal:
		return "marginal"
	case Unstable:
		return "unstable"
	}
	return fmt.Sprintf("Stability(%d)", int(s))
}

// axisTol is how close to the imaginary axis a pole may sit and still be
// classed as marginal.
const axisTol = 1e-9

// Summary describes a transfer function by its roots.
type Summary struct {
	Poles     []complex128
	Zeros     []complex128
	Stability Stability

	// Dominant is the pole with the largest real part. Damping and
	// NaturalFreq are its ζ and ωn; both are NaN when there are no poles.
	Dominant    complex128
	Damping     float64
	NaturalFreq float64
}

// Summarize computes poles, zeros and stability of g.
func Summarize(g tf.TransferFunction) (Summary, error) {
	poles, err := Roots(g.Den())
	if err != nil {
		return Summary{}, fmt.Errorf("poles: %w", err)
	}
	zeros, err := Roots(g.Num())
	if err != nil {
		return Summary{}, fmt.Errorf("zeros: %w", err)
	}

	s := Summary{
		Poles:       poles,
		Zeros:       zeros,
		Stability:   Classify(poles),
		Damping:     math.NaN(),
		NaturalFreq: math.NaN(),
	}
	if len(poles) > 0 {
		s.Dominant = poles[0]
		s.NaturalFreq = cmplx.Abs(s.Dominant)
		if s.NaturalFreq > 0 {
			s.Damping = -real(s.Dominant) / s.NaturalFreq
		}
	}
	return s, nil
}

// Classify returns Unstable if any pole is in the right half-plane,
// Marginal if the rightmost pole is on the imaginary axis, else Stable.
func Classify(poles []complex128) Stability {
	worst := Stable
	for _, p := range poles {
		switch re := real(p); {
		case re > axisTol:
			return Unstable
		case re >= -axisTol:
			worst = Marginal
		}
	}
	return worst
}

// FormatRoots renders roots as a comma separated list.
func FormatRoots(roots []complex128) string {
	if len(roots) == 0 {
		return "none"
	}
	parts := make([]string, len(roots))
	for i, r := range roots {
		parts[i] = formatComplex(r)
	}
	return strings.Join(parts, ", ")
}

func formatComplex(z complex128) string {
	re, im := real(z), imag(z)
	if math.Abs(im) < 1e-12 {
		return fmt.Sprintf("%.4g", re)
	}
	sign := "+"
	if im < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%.4g %s %.4gj", re, sign, math.Abs(im))
}
