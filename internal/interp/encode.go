package interp

import (
	"fmt"
	"math"
)

// The encoders below produce segment payloads for daf.Builder. They back
// the synthetic kernels of the CLI and the tests.

// FitChebyshev samples fn at the Chebyshev nodes of n equal records
// covering [start, end] and returns a type 2 payload (three components)
// or, when fn yields six components and comps is 6, a type 3 payload.
// Polynomials up to degree are reproduced exactly.
func FitChebyshev(fn func(et float64) []float64, comps int, start, end float64, n, degree int) ([]float64, error) {
	if comps != 3 && comps != 6 {
		return nil, fmt.Errorf("chebyshev fit: %d components, want 3 or 6", comps)
	}
	if n < 1 || degree < 0 || !(end > start) {
		return nil, fmt.Errorf("chebyshev fit: %d records of degree %d over [%v, %v]", n, degree, start, end)
	}
	m := degree + 1
	intlen := (end - start) / float64(n)
	rsize := 2 + comps*m
	out := make([]float64, 0, n*rsize+4)

	samples := make([][]float64, m)
	for r := range n {
		mid := start + (float64(r)+0.5)*intlen
		radius := intlen / 2
		for k := range m {
			node := math.Cos(math.Pi * (float64(k) + 0.5) / float64(m))
			v := fn(mid + node*radius)
			if len(v) < comps {
				return nil, fmt.Errorf("chebyshev fit: sample has %d components", len(v))
			}
			samples[k] = v
		}
		out = append(out, mid, radius)
		for c := range comps {
			for j := range m {
				var sum float64
				for k := range m {
					node := math.Pi * (float64(k) + 0.5) / float64(m)
					sum += samples[k][c] * math.Cos(float64(j)*node)
				}
				coef := 2 * sum / float64(m)
				if j == 0 {
					coef /= 2
				}
				out = append(out, coef)
			}
		}
	}
	return append(out, start, intlen, float64(rsize), float64(n)), nil
}

// ChebyshevRecord is one record of raw coefficients, one slice per
// component, all of equal length.
type ChebyshevRecord struct {
	Mid, Radius float64
	Coeffs      [][]float64
}

// EncodeChebyshev lays out records verbatim followed by the directory.
func EncodeChebyshev(records []ChebyshevRecord, init, intlen float64) ([]float64, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("chebyshev: no records")
	}
	rsize := 2
	for _, c := range records[0].Coeffs {
		rsize += len(c)
	}
	out := make([]float64, 0, len(records)*rsize+4)
	for i, r := range records {
		size := 2
		out = append(out, r.Mid, r.Radius)
		for _, c := range r.Coeffs {
			size += len(c)
			out = append(out, c...)
		}
		if size != rsize {
			return nil, fmt.Errorf("chebyshev: record %d has %d words, want %d", i, size, rsize)
		}
	}
	return append(out, init, intlen, float64(rsize), float64(len(records))), nil
}

// EncodeEqualStep returns a type 8 or 12 payload. param is the Lagrange
// degree for type 8 or the window size minus one for type 12.
func EncodeEqualStep(states [][6]float64, start, step float64, param int) []float64 {
	out := make([]float64, 0, 6*len(states)+4)
	for _, s := range states {
		out = append(out, s[:]...)
	}
	return append(out, start, step, float64(param), float64(len(states)))
}

// EncodeUnequalStep returns a type 9 or 13 payload, including the epoch
// directory of every hundredth epoch.
func EncodeUnequalStep(states [][6]float64, epochs []float64, param int) ([]float64, error) {
	n := len(states)
	if n == 0 || len(epochs) != n {
		return nil, fmt.Errorf("unequal step: %d states, %d epochs", n, len(epochs))
	}
	out := make([]float64, 0, 7*n+(n-1)/100+2)
	for _, s := range states {
		out = append(out, s[:]...)
	}
	out = append(out, epochs...)
	for k := 1; k <= (n-1)/100; k++ {
		out = append(out, epochs[100*k-1])
	}
	return append(out, float64(param), float64(n)), nil
}
