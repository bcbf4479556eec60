package lti

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/tf"
)

// StateSpace is a SISO continuous-time system
//
//	x' = A·x + B·u
//	y  = C·x + D·u
type StateSpace struct {
	A Matrix
	B []float64
	C []float64
	D float64
}

// Order is the state dimension.
func (s *StateSpace) Order() int { return len(s.B) }

// Output evaluates C·x + D·u.
func (s *StateSpace) Output(x dynamo.State, u float64) float64 {
	y := s.D * u
	for i, c := range s.C {
		y += c * x[i]
	}
	return y
}

// Derive evaluates A·x + B·u into dst.
func (s *StateSpace) Derive(dst, x dynamo.State, u float64) {
	n := s.Order()
	for i := 0; i < n; i++ {
		sum := s.B[i] * u
		for j, a := range s.A.Row(i) {
			sum += a * x[j]
		}
		dst[i] = sum
	}
}

// Realize returns the controllable canonical realization of g. The state
// dimension equals the denominator degree. g must be proper.
//
// With D(s) = s^n + a1·s^(n-1) + ... + an (after normalization) and the
// numerator padded to b0·s^n + ... + bn:
//
//	A = [-a1 -a2 ... -an; I 0],  B = e1,  C_i = b_i - b0·a_i,  D = b0
func Realize(g tf.TransferFunction) (*StateSpace, error) {
	if !g.IsProper() {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrImproperSystem, g)
	}
	g = g.Normalize()
	den := g.Den()
	n := len(den) - 1

	num := make([]float64, n+1)
	raw := g.Num()
	if !raw.IsZero() {
		copy(num[n+1-len(raw):], raw)
	}

	ss := &StateSpace{
		A: NewMatrix(n, n),
		B: make([]float64, n),
		C: make([]float64, n),
		D: num[0],
	}
	if n == 0 {
		return ss, nil
	}
	for j := 0; j < n; j++ {
		ss.A.Set(0, j, -den[j+1])
		ss.C[j] = num[j+1] - num[0]*den[j+1]
	}
	for i := 1; i < n; i++ {
		ss.A.Set(i, i-1, 1)
	}
	ss.B[0] = 1
	return ss, nil
}

// Discretize returns Φ = e^(A·dt) and Γ = ∫₀^dt e^(A·τ)·B dτ, the exact
// zero-order-hold transition for a constant input over dt. Both come from
// one exponential of the augmented matrix [[A, B], [0, 0]]·dt.
func Discretize(s *StateSpace, dt float64) (Matrix, []float64) {
	n := s.Order()
	aug := NewMatrix(n+1, n+1)
	for i := 0; i < n; i++ {
		for j, a := range s.A.Row(i) {
			aug.Set(i, j, a*dt)
		}
		aug.Set(i, n, s.B[i]*dt)
	}

	e := Expm(aug)
	phi := NewMatrix(n, n)
	gamma := make([]float64, n)
	for i := 0; i < n; i++ {
		copy(phi.Row(i), e.Row(i)[:n])
		gamma[i] = e.At(i, n)
	}
	return phi, gamma
}
