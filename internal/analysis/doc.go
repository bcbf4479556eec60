// Package analysis characterizes a closed loop by its poles and zeros.
//
//   - [Roots]: polynomial roots from companion-matrix eigenvalues
//   - [Summarize]: poles, zeros, stability class and the dominant pole
//
// # Stability
//
// A loop is stable when every pole lies strictly in the left half-plane:
//
//	s, err := analysis.Summarize(loop)
//	if s.Stability != analysis.Stable {
//	    // the step response will not settle
//	}
package analysis
