// Package lti realizes transfer functions as continuous-time state-space
// systems and discretizes them exactly.
//
// The dense matrix type here covers only what realization and the matrix
// exponential need; plant and controller orders stay small.
package lti

import (
	"fmt"
	"math"
	"strings"
)

// Matrix is a dense row-major matrix.
type Matrix struct {
	rows, cols int
	data       []float64
}

func NewMatrix(rows, cols int) Matrix {
	return Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

func Identity(n int) Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// FromRows builds a matrix from equal-length rows.
func FromRows(rows [][]float64) Matrix {
	if len(rows) == 0 {
		return NewMatrix(0, 0)
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.cols {
			panic(fmt.Sprintf("lti: ragged row %d", i))
		}
		copy(m.data[i*m.cols:], r)
	}
	return m
}

func (m Matrix) Dims() (int, int) { return m.rows, m.cols }
func (m Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }
func (m Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }
func (m Matrix) Row(i int) []float64 { return m.data[i*m.cols : (i+1)*m.cols] }
func (m Matrix) RawData() []float64 { return m.data }
func (m Matrix) sameShape(o Matrix) bool { return m.rows == o.rows && m.cols == o.cols }
func (m Matrix) isSquare() bool { return m.rows == m.cols }

func (m Matrix) Clone() Matrix {
	c := NewMatrix(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

func (m Matrix) Mul(o Matrix) Matrix {
	if m.cols != o.rows {
		panic(fmt.Sprintf("lti: cannot multiply %dx%d by %dx%d", m.rows, m.cols, o.rows, o.cols))
	}
	out := NewMatrix(m.rows, o.cols)
	for i := 0; i < m.rows; i++ {
		for k := 0; k < m.cols; k++ {
			a := m.data[i*m.cols+k]
			if a == 0 {
				continue
			}
			for j := 0; j < o.cols; j++ {
				out.data[i*o.cols+j] += a * o.data[k*o.cols+j]
			}
		}
	}
	return out
}

// MulVec returns m·v.
func (m Matrix) MulVec(v []float64) []float64 {
	out := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		row := m.data[i*m.cols : (i+1)*m.cols]
		for j, a := range row {
			sum += a * v[j]
		}
		out[i] = sum
	}
	return out
}

func (m Matrix) Scale(k float64) Matrix {
	out := NewMatrix(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = v * k
	}
	return out
}

// addScaled returns m + k·o.
func (m Matrix) addScaled(o Matrix, k float64) Matrix {
	if !m.sameShape(o) {
		panic("lti: shape mismatch")
	}
	out := NewMatrix(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = m.data[i] + k*o.data[i]
	}
	return out
}

// NormInf is the maximum absolute row sum.
func (m Matrix) NormInf() float64 {
	norm := 0.0
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		for _, v := range m.Row(i) {
			sum += math.Abs(v)
		}
		norm = math.Max(norm, sum)
	}
	return norm
}

// solve returns X with a·X = b by Gaussian elimination with partial
// pivoting. a must be square and nonsingular.
func solve(a, b Matrix) (Matrix, error) {
	n := a.rows
	lu := a.Clone()
	x := b.Clone()
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(lu.At(r, col)) > math.Abs(lu.At(pivot, col)) {
				pivot = r
			}
		}
		if lu.At(pivot, col) == 0 {
			return Matrix{}, fmt.Errorf("lti: singular matrix")
		}
		if pivot != col {
			swapRows(lu, pivot, col)
			swapRows(x, pivot, col)
		}
		inv := 1 / lu.At(col, col)
		for r := col + 1; r < n; r++ {
			f := lu.At(r, col) * inv
			if f == 0 {
				continue
			}
			for c := col; c < n; c++ {
				lu.Set(r, c, lu.At(r, c)-f*lu.At(col, c))
			}
			for c := 0; c < x.cols; c++ {
				x.Set(r, c, x.At(r, c)-f*x.At(col, c))
			}
		}
	}
	for col := n - 1; col >= 0; col-- {
		inv := 1 / lu.At(col, col)
		for c := 0; c < x.cols; c++ {
			sum := x.At(col, c)
			for k := col + 1; k < n; k++ {
				sum -= lu.At(col, k) * x.At(k, c)
			}
			x.Set(col, c, sum*inv)
		}
	}
	return x, nil
}

func swapRows(m Matrix, i, j int) {
	ri, rj := m.Row(i), m.Row(j)
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

func (m Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteString("[")
		for j, v := range m.Row(i) {
			if j > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%10.4g", v)
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
