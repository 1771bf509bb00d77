package interp

import (
	"fmt"
	"math"
	"sort"

	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/daf"
)

// tableSlack is how far, in seconds, an epoch may fall outside the segment
// bounds before a tabulated segment refuses it.
const tableSlack = 1e-6

// table describes a segment of tabulated states: N six-component states
// followed, for unequal steps, by N epochs and an epoch directory.
type table struct {
	n      int
	window int
	equal  bool
	start  float64
	step   float64
	states int // address of the first state
	epochs int // address of the first epoch, unequal steps only
}

// readTable decodes the trailer of types 8, 9, 12 and 13. Lagrange
// trailers store the polynomial degree, Hermite trailers the window size
// minus one; either way the window holds one more point than stored.
func readTable(f *daf.File, seg catalog.Segment) (table, error) {
	tr, err := trailer(f, seg)
	if err != nil {
		return table{}, err
	}
	t := table{states: seg.StartAddr}
	n, ok1 := wordCount(tr[3])
	stored, ok2 := wordCount(tr[2])
	if !ok1 || !ok2 || n < 1 {
		return table{}, fmt.Errorf("%w: window parameter %v, N=%v", ErrDegenerate, tr[2], tr[3])
	}
	t.n = n
	t.window = min(stored+1, n)

	switch seg.Type {
	case catalog.SPKLagrangeEqual, catalog.SPKHermiteEqual:
		t.equal = true
		t.start, t.step = tr[0], tr[1]
		if !(t.step > 0) {
			return table{}, fmt.Errorf("%w: step %v", ErrDegenerate, t.step)
		}
	default:
		t.epochs = seg.StartAddr + 6*n
	}
	return t, nil
}

func wordCount(v float64) (int, bool) {
	if v < 0 || v > math.MaxInt32 || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// window selects the W table entries used at et. With cnt the number of
// epochs not after et, an even window starts W/2 entries before cnt so that
// et sits in its middle interval; an odd window is centered on the nearest
// epoch. Equal-step tables round (et-start)/step half away from zero, so a
// tie goes to the later epoch; unequal-step tables keep the earlier one.
// The start is clamped so the window stays inside the table.
func (e *Engine) window(f *daf.File, seg catalog.Segment, t table, et float64) (xs, states []float64, err error) {
	if et < seg.StartET-tableSlack || et > seg.EndET+tableSlack {
		return nil, nil, fmt.Errorf("%w: segment spans [%.6f, %.6f]", ErrEpochOutOfWindow, seg.StartET, seg.EndET)
	}

	epochAt := func(i int) (float64, error) {
		if t.equal {
			return t.start + float64(i)*t.step, nil
		}
		return f.Double(t.epochs + i)
	}

	var cnt int
	if t.equal {
		if et >= t.start {
			cnt = min(t.n, int(math.Floor((et-t.start)/t.step))+1)
		}
	} else {
		var readErr error
		cnt = sort.Search(t.n, func(i int) bool {
			x, err := epochAt(i)
			if err != nil && readErr == nil {
				readErr = err
			}
			return x > et
		})
		if readErr != nil {
			return nil, nil, readErr
		}
	}

	w := t.window
	var first int
	if w%2 == 0 {
		first = cnt - w/2
	} else {
		near := cnt - 1
		switch {
		case t.equal:
			near = int(math.Round((et - t.start) / t.step))
		case cnt == 0:
			near = 0
		case cnt < t.n:
			lo, err := epochAt(cnt - 1)
			if err != nil {
				return nil, nil, err
			}
			hi, err := epochAt(cnt)
			if err != nil {
				return nil, nil, err
			}
			if hi-et < et-lo {
				near = cnt
			}
		}
		first = near - (w-1)/2
	}
	first = max(0, min(first, t.n-w))

	states, err = e.words(f, seg, blockStates, first, t.states+6*first, 6*w)
	if err != nil {
		return nil, nil, err
	}
	if t.equal {
		xs = make([]float64, w)
		for i := range xs {
			xs[i] = t.start + float64(first+i)*t.step
		}
	} else if xs, err = e.words(f, seg, blockEpochs, first, t.epochs+first, w); err != nil {
		return nil, nil, err
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, nil, fmt.Errorf("%w: epochs %v and %v out of order", ErrDegenerate, xs[i-1], xs[i])
		}
	}
	return xs, states, nil
}
