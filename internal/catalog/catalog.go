package catalog

import (
	"fmt"
	"sort"

	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// Mode selects how Build treats malformed segments.
type Mode int

const (
	// Strict fails the whole build on the first bad segment.
	Strict Mode = iota
	// BestEffort skips bad segments and lists them in Catalog.Rejected.
	BestEffort
)

// Rejection records a segment skipped in BestEffort mode.
type Rejection struct {
	Index int
	Name  string
	Err   error
}

// Catalog is the immutable segment index of one kernel.
type Catalog struct {
	Kernel KernelID
	Kind   daf.Kind
	File   *daf.File

	Rejected []Rejection

	segments []Segment
	index    map[Key]*run
	byTarget map[int][]Key
}

// run is the segments of one key sorted by (Start, Index), with the running
// maximum of End used to stop the backward scan early.
type run struct {
	segs   []int
	maxEnd []timescale.Epoch
}

// Build decodes every summary of f into a Segment and indexes them.
func Build(f *daf.File, kernel KernelID, mode Mode) (*Catalog, error) {
	kind := f.Header.Kind
	if kind == daf.KindUnknown {
		kind = inferKind(f.Header)
	}
	if kind != daf.KindSPK && kind != daf.KindPCK {
		return nil, &daf.FormatError{Kind: ErrUnsupportedSegmentType,
			Detail: fmt.Sprintf("%s kernels are not supported", f.Header.Kind)}
	}

	c := &Catalog{
		Kernel:   kernel,
		Kind:     kind,
		File:     f,
		index:    make(map[Key]*run),
		byTarget: make(map[int][]Key),
	}

	n := 0
	err := f.WalkSummaries(func(s daf.Summary) error {
		idx := n
		n++
		seg, err := decode(f, kind, s)
		if err == nil {
			err = validateLayout(f, seg)
		}
		if err != nil {
			if mode == Strict {
				return fmt.Errorf("segment %d (%q): %w", idx, s.Name, err)
			}
			c.Rejected = append(c.Rejected, Rejection{Index: idx, Name: s.Name, Err: err})
			return nil
		}
		seg.Kernel = kernel
		seg.Index = idx
		c.segments = append(c.segments, seg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, s := range c.segments {
		r := c.index[s.Key()]
		if r == nil {
			r = &run{}
			c.index[s.Key()] = r
			c.byTarget[s.Target] = append(c.byTarget[s.Target], s.Key())
		}
		r.segs = append(r.segs, i)
	}
	for _, r := range c.index {
		sort.SliceStable(r.segs, func(a, b int) bool {
			return c.segments[r.segs[a]].Start.Before(c.segments[r.segs[b]].Start)
		})
		r.maxEnd = make([]timescale.Epoch, len(r.segs))
		for j, si := range r.segs {
			end := c.segments[si].End
			if j > 0 && r.maxEnd[j-1].After(end) {
				end = r.maxEnd[j-1]
			}
			r.maxEnd[j] = end
		}
	}
	return c, nil
}

// inferKind recognizes legacy NAIF/DAF files by their summary shape.
func inferKind(h daf.Header) daf.Kind {
	switch {
	case h.ND == 2 && h.NI == 6:
		return daf.KindSPK
	case h.ND == 2 && h.NI == 5:
		return daf.KindPCK
	}
	return daf.KindUnknown
}

func decode(f *daf.File, kind daf.Kind, s daf.Summary) (Segment, error) {
	var seg Segment
	switch kind {
	case daf.KindSPK:
		if len(s.DC) != 2 || len(s.IC) != 6 {
			return seg, &daf.FormatError{Kind: daf.ErrBadSummary, Detail: "SPK summary must have ND=2 NI=6"}
		}
		seg.Target, seg.Center, seg.Frame = int(s.IC[0]), int(s.IC[1]), int(s.IC[2])
	case daf.KindPCK:
		if len(s.DC) != 2 || len(s.IC) != 5 {
			return seg, &daf.FormatError{Kind: daf.ErrBadSummary, Detail: "PCK summary must have ND=2 NI=5"}
		}
		seg.Target, seg.Center, seg.Frame = int(s.IC[0]), int(s.IC[1]), int(s.IC[1])
	}
	code := int(s.IC[len(s.IC)-3])
	typ, ok := classify(kind, code)
	if !ok {
		return seg, &daf.FormatError{Kind: ErrUnsupportedSegmentType,
			Detail: fmt.Sprintf("%s type %d", kind, code)}
	}

	seg.Name = s.Name
	seg.Type = typ
	seg.StartET, seg.EndET = s.DC[0], s.DC[1]
	seg.StartAddr, seg.EndAddr = s.StartAddr(), s.EndAddr()

	if !(seg.StartET <= seg.EndET) {
		return seg, &daf.FormatError{Kind: daf.ErrBadSummary,
			Detail: fmt.Sprintf("start %v after end %v", seg.StartET, seg.EndET)}
	}
	if seg.StartAddr < 1 || seg.EndAddr < seg.StartAddr || seg.EndAddr > f.WordCount() {
		return seg, &daf.FormatError{Kind: daf.ErrOutOfRange,
			Detail: fmt.Sprintf("addresses %d..%d outside %d words", seg.StartAddr, seg.EndAddr, f.WordCount())}
	}
	seg.Start = timescale.FromET(seg.StartET)
	seg.End = timescale.FromET(seg.EndET)
	return seg, nil
}

// validateLayout checks that the trailer words of a segment agree with its
// length, so the interpolation layer can trust them.
func validateLayout(f *daf.File, seg Segment) error {
	bad := func(format string, args ...any) error {
		return &daf.FormatError{Kind: daf.ErrBadSummary, Detail: fmt.Sprintf(format, args...)}
	}
	length := seg.Len()
	if length < 4 {
		return bad("segment of %d words is too short", length)
	}
	tail := make([]float64, 4)
	if err := f.ReadDoubles(seg.EndAddr-3, tail); err != nil {
		return err
	}
	n, ok := exactInt(tail[3])
	if !ok || n < 1 {
		return bad("record count %v", tail[3])
	}

	switch seg.Type {
	case SPKChebyshevPosition, SPKChebyshevState, PCKChebyshevAngles, PCKChebyshevAngleRates:
		rsize, ok := exactInt(tail[2])
		minSize := 2 + 3
		if seg.Type == SPKChebyshevState || seg.Type == PCKChebyshevAngleRates {
			minSize = 2 + 6
		}
		if !ok || rsize < minSize || (rsize-2)%(minSize-2) != 0 {
			return bad("record size %v", tail[2])
		}
		if !(tail[1] > 0) {
			return bad("interval length %v", tail[1])
		}
		if n*rsize+4 != length {
			return bad("%d records of %d words do not fill %d words", n, rsize, length)
		}
	case SPKLagrangeEqual, SPKHermiteEqual:
		if !(tail[1] > 0) {
			return bad("step %v", tail[1])
		}
		if w, ok := exactInt(tail[2]); !ok || w < 0 {
			return bad("window parameter %v", tail[2])
		}
		if 6*n+4 != length {
			return bad("%d states do not fill %d words", n, length)
		}
	case SPKLagrangeUnequal, SPKHermiteUnequal:
		if w, ok := exactInt(tail[2]); !ok || w < 0 {
			return bad("window parameter %v", tail[2])
		}
		if 7*n+(n-1)/100+2 != length {
			return bad("%d states do not fill %d words", n, length)
		}
	}
	return nil
}

func exactInt(v float64) (int, bool) {
	i := int(v)
	if float64(i) != v || v < 0 || v > 1<<31 {
		return 0, false
	}
	return i, true
}

// Len returns the number of indexed segments.
func (c *Catalog) Len() int {
	return len(c.segments)
}

// Segments returns the indexed segments in file order.
func (c *Catalog) Segments() []Segment {
	return append([]Segment(nil), c.segments...)
}

// Keys returns every indexed key.
func (c *Catalog) Keys() []Key {
	keys := make([]Key, 0, len(c.index))
	for k := range c.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Target != keys[j].Target {
			return keys[i].Target < keys[j].Target
		}
		return keys[i].Center < keys[j].Center
	})
	return keys
}

// Lookup returns the segment for (target, center) covering ep. Bounds are
// inclusive; among covering segments the latest Start wins, then the later
// one in file order.
func (c *Catalog) Lookup(target, center int, ep timescale.Epoch) (Segment, error) {
	if s, ok := c.find(Key{target, center}, ep); ok {
		return s, nil
	}
	return Segment{}, noCoverage(target, center, ep)
}

func (c *Catalog) find(k Key, ep timescale.Epoch) (Segment, bool) {
	r := c.index[k]
	if r == nil {
		return Segment{}, false
	}
	// First position whose Start is after ep.
	hi := sort.Search(len(r.segs), func(i int) bool {
		return c.segments[r.segs[i]].Start.After(ep)
	})
	for j := hi - 1; j >= 0; j-- {
		if r.maxEnd[j].Before(ep) {
			break
		}
		if s := c.segments[r.segs[j]]; !s.End.Before(ep) {
			return s, true
		}
	}
	return Segment{}, false
}

// LookupAny returns a segment for target covering ep regardless of center.
// Candidates are ranked like Lookup.
func (c *Catalog) LookupAny(target int, ep timescale.Epoch) (Segment, error) {
	if s, ok := c.findAny(target, ep); ok {
		return s, nil
	}
	return Segment{}, noCoverage(target, AnyCenter, ep)
}

func (c *Catalog) findAny(target int, ep timescale.Epoch) (Segment, bool) {
	var best Segment
	found := false
	for _, k := range c.byTarget[target] {
		s, ok := c.find(k, ep)
		if ok && (!found || outranks(s, best)) {
			best, found = s, true
		}
	}
	return best, found
}

func outranks(a, b Segment) bool {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c > 0
	}
	return a.Index > b.Index
}
