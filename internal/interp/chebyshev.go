package interp

import (
	"fmt"
	"math"

	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
)

// windowSlack is how far, in units of the record half-width, an epoch may
// sit outside the selected record before it is rejected. It absorbs the
// rounding of boundary epochs.
const windowSlack = 1e-6

// chebyshev evaluates a Chebyshev segment. Each record is MID, RADIUS and
// the coefficients of three components; with derivs the record carries
// three more components holding the derivatives, otherwise they come from
// differentiating the series. The segment ends with INIT, INTLEN, RSIZE, N.
func (e *Engine) chebyshev(f *daf.File, seg catalog.Segment, et float64, derivs bool) ([6]float64, error) {
	var out [6]float64
	tr, err := trailer(f, seg)
	if err != nil {
		return out, err
	}
	init, intlen := tr[0], tr[1]
	rsize, n := int(tr[2]), int(tr[3])
	comps := 3
	if derivs {
		comps = 6
	}
	if n < 1 || rsize < 2+comps || (rsize-2)%comps != 0 || !(intlen > 0) {
		return out, fmt.Errorf("%w: INTLEN=%v RSIZE=%d N=%d", ErrDegenerate, intlen, rsize, n)
	}
	ncoef := (rsize - 2) / comps

	idx := int(math.Floor((et - init) / intlen))
	idx = max(0, min(idx, n-1))

	rec, err := e.words(f, seg, blockRecord, idx, seg.StartAddr+idx*rsize, rsize)
	if err != nil {
		return out, err
	}
	mid, radius := rec[0], rec[1]
	if !(radius > 0) {
		return out, fmt.Errorf("%w: record %d radius %v", ErrDegenerate, idx, radius)
	}
	if math.Abs(et-mid) > radius*(1+windowSlack) {
		return out, fmt.Errorf("%w: record %d spans [%.6f, %.6f]", ErrEpochOutOfWindow, idx, mid-radius, mid+radius)
	}

	coef := func(i int) []float64 {
		return rec[2+i*ncoef : 2+(i+1)*ncoef]
	}
	if derivs {
		for i := range 6 {
			out[i] = chbval(coef(i), mid, radius, et)
		}
		return out, nil
	}
	for i := range 3 {
		out[i], out[i+3] = chbint(coef(i), mid, radius, et)
	}
	return out, nil
}

// chbval evaluates Σ cₖ Tₖ(s), s = (x - mid) / radius, by the Clenshaw
// recurrence in the same operation order as SPICE CHBVAL.
func chbval(cp []float64, mid, radius, x float64) float64 {
	s := (x - mid) / radius
	s2 := 2 * s
	var w0, w1, w2 float64
	for j := len(cp) - 1; j > 0; j-- {
		w2 = w1
		w1 = w0
		w0 = cp[j] + (s2*w1 - w2)
	}
	return s*w0 - w1 + cp[0]
}

// chbint returns the series value and its derivative with respect to x,
// following SPICE CHBINT.
func chbint(cp []float64, mid, radius, x float64) (p, dp float64) {
	s := (x - mid) / radius
	s2 := 2 * s
	var w0, w1, w2, dw0, dw1, dw2 float64
	for j := len(cp) - 1; j > 0; j-- {
		w2 = w1
		w1 = w0
		w0 = cp[j] + (s2*w1 - w2)

		dw2 = dw1
		dw1 = dw0
		dw0 = w1*2 + dw1*s2 - dw2
	}
	p = cp[0] + (s*w0 - w1)
	dp = (w0 + s*dw0 - dw1) / radius
	return p, dp
}
