// Package tf implements rational transfer functions in the Laplace variable s.
//
// Coefficients are stored in descending powers of s, so [1, 2, 1] is
// s² + 2s + 1. Polynomials of different lengths are aligned by power,
// never by index.
package tf

import (
	"fmt"
	"math"
	"strings"
)

// Poly holds polynomial coefficients in descending powers of s.
type Poly []float64

// Trim returns a copy without leading zero coefficients. The zero
// polynomial trims to [0].
func (p Poly) Trim() Poly {
	i := 0
	for i < len(p)-1 && p[i] == 0 {
		i++
	}
	if len(p) == 0 {
		return Poly{0}
	}
	out := make(Poly, len(p)-i)
	copy(out, p[i:])
	return out
}

// Degree returns the degree after trimming. Constants, including the zero
// polynomial, have degree 0.
func (p Poly) Degree() int {
	return len(p.Trim()) - 1
}

func (p Poly) IsZero() bool {
	for _, c := range p {
		if c != 0 {
			return false
		}
	}
	return true
}

// Lead returns the leading coefficient of the trimmed polynomial.
func (p Poly) Lead() float64 {
	return p.Trim()[0]
}

// Add returns p + q with the shorter operand left-padded.
func (p Poly) Add(q Poly) Poly {
	n := max(len(p), len(q))
	out := make(Poly, n)
	for i, c := range p {
		out[n-len(p)+i] += c
	}
	for i, c := range q {
		out[n-len(q)+i] += c
	}
	return out.Trim()
}

// Mul returns the convolution of p and q.
func (p Poly) Mul(q Poly) Poly {
	if len(p) == 0 || len(q) == 0 {
		return Poly{0}
	}
	out := make(Poly, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			out[i+j] += a * b
		}
	}
	return out.Trim()
}

func (p Poly) Scale(k float64) Poly {
	out := make(Poly, len(p))
	for i, c := range p {
		out[i] = c * k
	}
	return out.Trim()
}

// Eval evaluates p at a real point using Horner's rule.
func (p Poly) Eval(x float64) float64 {
	acc := 0.0
	for _, c := range p {
		acc = acc*x + c
	}
	return acc
}

// EvalComplex evaluates p at a complex point.
func (p Poly) EvalComplex(s complex128) complex128 {
	var acc complex128
	for _, c := range p {
		acc = acc*s + complex(c, 0)
	}
	return acc
}

// trailingZeros counts the zero coefficients at the low-order end, i.e. the
// multiplicity of the root s = 0. The zero polynomial reports 0.
func (p Poly) trailingZeros() int {
	if p.IsZero() {
		return 0
	}
	k := 0
	for i := len(p) - 1; i >= 0 && p[i] == 0; i-- {
		k++
	}
	return k
}

func (p Poly) isFinite() bool {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// approxEqual compares two polynomials coefficient by coefficient after
// alignment, relative to the largest coefficient magnitude.
func (p Poly) approxEqual(q Poly, tol float64) bool {
	diff := p.Add(q.Scale(-1))
	scale := 1.0
	for _, c := range p {
		scale = math.Max(scale, math.Abs(c))
	}
	for _, c := range q {
		scale = math.Max(scale, math.Abs(c))
	}
	for _, c := range diff {
		if math.Abs(c) > tol*scale {
			return false
		}
	}
	return true
}

func (p Poly) String() string {
	t := p.Trim()
	deg := len(t) - 1
	var sb strings.Builder
	for i, c := range t {
		if c == 0 && deg > 0 {
			continue
		}
		pow := deg - i
		if sb.Len() > 0 {
			if c < 0 {
				sb.WriteString(" - ")
			} else {
				sb.WriteString(" + ")
			}
			c = math.Abs(c)
		}
		switch {
		case pow == 0:
			fmt.Fprintf(&sb, "%g", c)
		case c == 1:
		case c == -1:
			sb.WriteString("-")
		default:
			fmt.Fprintf(&sb, "%g", c)
		}
		switch pow {
		case 0:
		case 1:
			sb.WriteString("s")
		default:
			fmt.Fprintf(&sb, "s^%d", pow)
		}
	}
	return sb.String()
}
