package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pidlab/internal/tf"
)

var errEigen = errors.New("analysis: eigenvalue decomposition did not converge")

// Roots returns the roots of p sorted by descending real part, then by
// imaginary part. Roots at the origin are extracted exactly.
func Roots(p tf.Poly) ([]complex128, error) {
	p = p.Trim()
	if p.IsZero() {
		return nil, nil
	}

	var roots []complex128
	for len(p) > 1 && p[len(p)-1] == 0 {
		roots = append(roots, 0)
		p = p[:len(p)-1]
	}

	n := len(p) - 1
	switch n {
	case 0:
	case 1:
		roots = append(roots, complex(-p[1]/p[0], 0))
	default:
		companion := mat.NewDense(n, n, nil)
		for j := 0; j < n; j++ {
			companion.Set(0, j, -p[j+1]/p[0])
		}
		for i := 1; i < n; i++ {
			companion.Set(i, i-1, 1)
		}

		var eig mat.Eigen
		if !eig.Factorize(companion, mat.EigenNone) {
			return nil, errEigen
		}
		roots = append(roots, eig.Values(nil)...)
	}

	sortRoots(roots)
	return roots, nil
}

func sortRoots(r []complex128) {
	sort.SliceStable(r, func(i, j int) bool {
		// Conjugate pairs may differ in real part by rounding.
		a, b := real(r[i]), real(r[j])
		if math.Abs(a-b) > 1e-9*(1+math.Max(math.Abs(a), math.Abs(b))) {
			return a > b
		}
		return imag(r[i]) < imag(r[j])
	})
}
