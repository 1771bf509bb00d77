package interp

import (
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
)

// hermite interpolates position using the tabulated velocities as
// derivatives; the derivative of the interpolant gives the velocity.
// SPK types 12 and 13.
func (e *Engine) hermite(f *daf.File, seg catalog.Segment, et float64) ([6]float64, error) {
	var out [6]float64
	t, err := readTable(f, seg)
	if err != nil {
		return out, err
	}
	xs, states, err := e.window(f, seg, t, et)
	if err != nil {
		return out, err
	}
	n := len(xs)
	ys := make([]float64, 2*n)
	work := make([]float64, 4*n)
	for c := range 3 {
		for i := range n {
			ys[2*i] = states[6*i+c]
			ys[2*i+1] = states[6*i+c+3]
		}
		out[c], out[c+3] = hrmint(xs, ys, et, work)
	}
	return out, nil
}

// hrmint evaluates the Hermite interpolating polynomial and its derivative
// at x. ys interleaves values and first derivatives at each abscissa. The
// divided-difference table is built exactly as SPICE HRMINT does it; work
// must hold 4*len(xs) values.
func hrmint(xs, ys []float64, x float64, work []float64) (f, df float64) {
	n := len(xs)
	w1 := work[:2*n]      // value column
	w2 := work[2*n : 4*n] // derivative column
	copy(w1, ys)

	for i := 0; i < n-1; i++ {
		c1 := xs[i+1] - x
		c2 := x - xs[i]
		denom := xs[i+1] - xs[i]

		prev, this, next := 2*i, 2*i+1, 2*i+2
		w2[prev] = w1[this]
		w2[this] = (w1[next] - w1[prev]) / denom

		temp := w1[this]*(x-xs[i]) + w1[prev]
		w1[this] = (c1*w1[prev] + c2*w1[next]) / denom
		w1[prev] = temp
	}
	w2[2*n-2] = w1[2*n-1]
	w1[2*n-2] = w1[2*n-1]*(x-xs[n-1]) + w1[2*n-2]

	for j := 2; j <= 2*n-1; j++ {
		for i := 1; i <= 2*n-j; i++ {
			xi := (i+1)/2 - 1
			xij := (i+j+1)/2 - 1
			c1 := xs[xij] - x
			c2 := x - xs[xi]
			denom := xs[xij] - xs[xi]

			k := i - 1
			w2[k] = (c1*w2[k] + c2*w2[k+1] + (w1[k+1] - w1[k])) / denom
			w1[k] = (c1*w1[k] + c2*w1[k+1]) / denom
		}
	}
	return w1[0], w2[0]
}
