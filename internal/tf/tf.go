package tf

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/dynamo"
)

// TransferFunction is the rational function N(s)/D(s). It is immutable:
// every operation returns a new value and accessors return copies.
type TransferFunction struct {
	num Poly
	den Poly
}

// New builds N(s)/D(s) from descending-power coefficients. An empty or
// all-zero numerator is the zero system. A zero denominator is rejected.
func New(num, den []float64) (TransferFunction, error) {
	n, d := Poly(num), Poly(den)
	if !n.isFinite() || !d.isFinite() {
		return TransferFunction{}, fmt.Errorf("%w: non-finite coefficient", dynamo.ErrParameterBounds)
	}
	if len(d) == 0 || d.IsZero() {
		return TransferFunction{}, fmt.Errorf("%w: denominator is the zero polynomial", dynamo.ErrDegenerateSystem)
	}
	return TransferFunction{num: n.Trim(), den: d.Trim()}, nil
}

// MustNew is New for literals known to be valid.
func MustNew(num, den []float64) TransferFunction {
	g, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return g
}

func (g TransferFunction) Num() Poly { return append(Poly(nil), g.num...) }
func (g TransferFunction) Den() Poly { return append(Poly(nil), g.den...) }

// Order is the degree of the denominator.
func (g TransferFunction) Order() int { return g.den.Degree() }

func (g TransferFunction) IsZero() bool { return g.num.IsZero() }

// IsProper reports deg N <= deg D.
func (g TransferFunction) IsProper() bool {
	return g.num.IsZero() || g.num.Degree() <= g.den.Degree()
}

// IsStrictlyProper reports deg N < deg D, or a zero numerator.
func (g TransferFunction) IsStrictlyProper() bool {
	return g.num.IsZero() || g.num.Degree() < g.den.Degree()
}

// Mul cascades g and h: numerators and denominators are convolved.
func (g TransferFunction) Mul(h TransferFunction) TransferFunction {
	return TransferFunction{num: g.num.Mul(h.num), den: g.den.Mul(h.den)}
}

// AddUnity returns N(s) + D(s), the characteristic polynomial of g under
// unity negative feedback.
func (g TransferFunction) AddUnity() Poly {
	return g.num.Add(g.den)
}

// Feedback closes g with unity negative feedback: G/(1+G) = N/(N+D).
func (g TransferFunction) Feedback() (TransferFunction, error) {
	den := g.AddUnity()
	if den.IsZero() {
		return TransferFunction{}, fmt.Errorf("%w: N(s)+D(s) vanishes for %s", dynamo.ErrDegenerateSystem, g)
	}
	return TransferFunction{num: g.num.Trim(), den: den}, nil
}

// Normalize scales numerator and denominator so the leading denominator
// coefficient is 1.
func (g TransferFunction) Normalize() TransferFunction {
	lead := g.den.Lead()
	if lead == 1 {
		return g
	}
	return TransferFunction{num: g.num.Scale(1 / lead), den: g.den.Scale(1 / lead)}
}

// CancelOrigin removes a factor s^k shared exactly by numerator and
// denominator. Pole-zero pairs at the origin leave the input-output
// behavior from rest unchanged.
func (g TransferFunction) CancelOrigin() TransferFunction {
	if g.num.IsZero() {
		return TransferFunction{num: Poly{0}, den: g.den[:len(g.den)-g.den.trailingZeros()]}
	}
	k := min(g.num.trailingZeros(), g.den.trailingZeros())
	if k == 0 {
		return g
	}
	return TransferFunction{
		num: g.num[:len(g.num)-k].Trim(),
		den: g.den[:len(g.den)-k].Trim(),
	}
}

// Equivalent reports whether g and h describe the same rational function,
// i.e. Ng·Dh = Nh·Dg up to a relative tolerance.
func (g TransferFunction) Equivalent(h TransferFunction, tol float64) bool {
	return g.num.Mul(h.den).approxEqual(h.num.Mul(g.den), tol)
}

// DCGain is G(0). It is ±Inf for a pole at the origin and NaN for 0/0.
func (g TransferFunction) DCGain() float64 {
	n := g.num[len(g.num)-1]
	d := g.den[len(g.den)-1]
	if d == 0 {
		if n == 0 {
			return math.NaN()
		}
		return math.Copysign(math.Inf(1), n)
	}
	return n / d
}

// Eval evaluates G at a complex frequency.
func (g TransferFunction) Eval(s complex128) complex128 {
	return g.num.EvalComplex(s) / g.den.EvalComplex(s)
}

func (g TransferFunction) String() string {
	return fmt.Sprintf("(%s) / (%s)", g.num, g.den)
}
