package lti

import (
	"math"
)

// padeOrder is the diagonal Padé degree used after scaling. With
// ||A/2^s|| <= 1/2 the truncation error of degree 6 is below 1e-15.
const padeOrder = 6

// Expm returns the matrix exponential e^A using a diagonal Padé
// approximant with scaling and squaring.
func Expm(a Matrix) Matrix {
	if !a.isSquare() {
		panic("lti: Expm of non-square matrix")
	}
	n := a.rows
	if n == 0 {
		return NewMatrix(0, 0)
	}

	norm := a.NormInf()
	squarings := 0
	if norm > 0.5 {
		squarings = int(math.Max(0, math.Ceil(math.Log2(norm/0.5))))
	}
	x := a.Scale(math.Ldexp(1, -squarings))

	c := 0.5
	power := x.Clone()
	id := Identity(n)
	num := id.addScaled(x, c)
	den := id.addScaled(x, -c)
	sign := 1.0
	for k := 2; k <= padeOrder; k++ {
		c *= float64(padeOrder-k+1) / float64(k*(2*padeOrder-k+1))
		power = x.Mul(power)
		num = num.addScaled(power, c)
		den = den.addScaled(power, sign*c)
		sign = -sign
	}

	e, err := solve(den, num)
	if err != nil {
		// The Padé denominator is nonsingular for ||x|| <= 1/2.
		panic(err)
	}
	for i := 0; i < squarings; i++ {
		e = e.Mul(e)
	}
	return e
}
