package daf

import (
	"math"
	"strings"
)

// Summary is one array descriptor from a summary record.
type Summary struct {
	DC   []float64 // ND double components
	IC   []int32   // NI integer components; the last two are start/end addresses
	Name string

	Record int // summary record holding this entry
	Slot   int // 0-based position within the record
}

// StartAddr returns the 1-based word address of the array's first element.
func (s Summary) StartAddr() int {
	return int(s.IC[len(s.IC)-2])
}

// EndAddr returns the 1-based word address of the array's last element.
func (s Summary) EndAddr() int {
	return int(s.IC[len(s.IC)-1])
}

// Len returns the number of doubles in the array.
func (s Summary) Len() int {
	return s.EndAddr() - s.StartAddr() + 1
}

// Summaries walks the summary record chain from the forward pointer and
// decodes every array summary in file order. A zero next pointer terminates
// the chain; revisiting a record is reported as a format error.
func (f *File) Summaries() ([]Summary, error) {
	var out []Summary
	err := f.WalkSummaries(func(s Summary) error {
		out = append(out, s)
		return nil
	})
	return out, err
}

// WalkSummaries calls fn for each summary in file order. An error returned
// by fn stops the walk and is returned as is.
func (f *File) WalkSummaries(fn func(Summary) error) error {
	h := f.Header
	ss := h.SummaryWords()
	nc := 8 * ss
	visited := make(map[int]bool)

	for recno := h.Forward; recno != 0; {
		if visited[recno] {
			return formatErr(ErrBadSummary, "summary chain revisits record %d", recno)
		}
		visited[recno] = true

		ctl := make([]float64, WordsPerRecord)
		if err := f.ReadDoubles((recno-1)*WordsPerRecord+1, ctl); err != nil {
			return formatErr(ErrTruncated, "summary record %d: %v", recno, err)
		}
		next, ok1 := wordInt(ctl[0])
		nsum, ok2 := wordInt(ctl[2])
		if !ok1 || !ok2 || next < 0 || nsum < 0 || 3+nsum*ss > WordsPerRecord {
			return formatErr(ErrBadSummary, "summary record %d: NEXT=%v NSUM=%v", recno, ctl[0], ctl[2])
		}

		var names []byte
		if nsum > 0 {
			nameRec, err := f.Record(recno + 1)
			if err != nil {
				return formatErr(ErrTruncated, "name record %d missing", recno+1)
			}
			names = nameRec
		}

		raw, _ := f.Record(recno)
		for i := 0; i < nsum; i++ {
			off := 3 + i*ss
			s := Summary{
				DC:     append([]float64(nil), ctl[off:off+h.ND]...),
				IC:     make([]int32, h.NI),
				Name:   strings.TrimRight(string(names[i*nc:(i+1)*nc]), " \x00"),
				Record: recno,
				Slot:   i,
			}
			ib := raw[(off+h.ND)*8:]
			for j := range s.IC {
				s.IC[j] = int32(h.ByteOrder.Uint32(ib[j*4:]))
			}
			if err := fn(s); err != nil {
				return err
			}
		}
		recno = next
	}
	return nil
}

// wordInt converts a control word holding an integral double.
func wordInt(w float64) (int, bool) {
	if math.IsNaN(w) || math.IsInf(w, 0) || w != math.Trunc(w) || math.Abs(w) > math.MaxInt32 {
		return 0, false
	}
	return int(w), true
}
