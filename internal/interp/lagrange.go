package interp

import (
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
)

// lagrange interpolates each of the six state components independently,
// as SPK types 8 and 9 prescribe.
func (e *Engine) lagrange(f *daf.File, seg catalog.Segment, et float64) ([6]float64, error) {
	var out [6]float64
	t, err := readTable(f, seg)
	if err != nil {
		return out, err
	}
	xs, states, err := e.window(f, seg, t, et)
	if err != nil {
		return out, err
	}
	vals := make([]float64, len(xs))
	work := make([]float64, len(xs))
	for c := range 6 {
		for i := range xs {
			vals[i] = states[6*i+c]
		}
		out[c] = neville(xs, vals, et, work)
	}
	return out, nil
}

// neville evaluates the Lagrange polynomial through (xs, ys) at x with
// Neville's scheme, in the operation order of SPICE LGRINT. work must hold
// len(xs) values.
func neville(xs, ys []float64, x float64, work []float64) float64 {
	n := len(xs)
	copy(work, ys)
	for j := 1; j < n; j++ {
		for i := 0; i < n-j; i++ {
			c1 := x - xs[i+j]
			c2 := xs[i] - x
			denom := xs[i] - xs[i+j]
			work[i] = (c1*work[i] + c2*work[i+1]) / denom
		}
	}
	return work[0]
}
