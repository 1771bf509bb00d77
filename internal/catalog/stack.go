package catalog

import (
	"fmt"
	"sort"

	"github.com/litescript/ls-ephem/internal/daf"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// Match is a segment together with the kernel file holding its data.
type Match struct {
	Segment
	File *daf.File
}

// Stack is an immutable, load-ordered list of catalogs. Lookups walk it
// newest first, so a later-loaded kernel masks earlier ones wherever their
// coverage overlaps. Masked segments stay addressable through LookupIn.
type Stack struct {
	layers []*Catalog // oldest first
}

// Push returns a new stack with c on top.
func (s *Stack) Push(c *Catalog) *Stack {
	layers := make([]*Catalog, 0, s.Len()+1)
	if s != nil {
		layers = append(layers, s.layers...)
	}
	return &Stack{layers: append(layers, c)}
}

// Remove returns a new stack without the given kernel.
func (s *Stack) Remove(k KernelID) *Stack {
	out := &Stack{}
	if s == nil {
		return out
	}
	for _, c := range s.layers {
		if c.Kernel != k {
			out.layers = append(out.layers, c)
		}
	}
	return out
}

// Len returns the number of catalogs.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Catalogs returns the catalogs, oldest first.
func (s *Stack) Catalogs() []*Catalog {
	if s == nil {
		return nil
	}
	return append([]*Catalog(nil), s.layers...)
}

// Catalog returns the catalog of kernel k.
func (s *Stack) Catalog(k KernelID) (*Catalog, bool) {
	if s == nil {
		return nil, false
	}
	for _, c := range s.layers {
		if c.Kernel == k {
			return c, true
		}
	}
	return nil, false
}

// Lookup returns the highest-precedence segment for (target, center)
// covering ep.
func (s *Stack) Lookup(target, center int, ep timescale.Epoch) (Match, error) {
	if s != nil {
		for i := len(s.layers) - 1; i >= 0; i-- {
			c := s.layers[i]
			if seg, ok := c.find(Key{target, center}, ep); ok {
				return Match{Segment: seg, File: c.File}, nil
			}
		}
	}
	return Match{}, noCoverage(target, center, ep)
}

// LookupAny returns the highest-precedence segment for target covering ep,
// whatever its center.
func (s *Stack) LookupAny(target int, ep timescale.Epoch) (Match, error) {
	if s != nil {
		for i := len(s.layers) - 1; i >= 0; i-- {
			c := s.layers[i]
			if seg, ok := c.findAny(target, ep); ok {
				return Match{Segment: seg, File: c.File}, nil
			}
		}
	}
	return Match{}, noCoverage(target, AnyCenter, ep)
}

// LookupIn searches only kernel k, ignoring precedence.
func (s *Stack) LookupIn(k KernelID, target, center int, ep timescale.Epoch) (Match, error) {
	c, ok := s.Catalog(k)
	if !ok {
		return Match{}, fmt.Errorf("catalog: kernel %d not loaded", k)
	}
	seg, err := c.Lookup(target, center, ep)
	if err != nil {
		return Match{}, err
	}
	return Match{Segment: seg, File: c.File}, nil
}

// Masked returns the segments of kernel k whose whole interval is covered
// by later-loaded kernels for the same key.
func (s *Stack) Masked(k KernelID) []Segment {
	if s == nil {
		return nil
	}
	pos := -1
	for i, c := range s.layers {
		if c.Kernel == k {
			pos = i
		}
	}
	if pos < 0 {
		return nil
	}

	var out []Segment
	later := s.layers[pos+1:]
	for _, seg := range s.layers[pos].segments {
		var ws []Window
		for _, c := range later {
			ws = append(ws, c.windows(seg.Key())...)
		}
		if covered(merge(ws), seg.Start, seg.End) {
			out = append(out, seg)
		}
	}
	return out
}

// Coverage returns the merged windows over which target is available
// relative to center. AnyCenter merges every center.
func (s *Stack) Coverage(target, center int) []Window {
	var ws []Window
	for _, c := range s.Catalogs() {
		ws = append(ws, c.coverage(target, center)...)
	}
	return merge(ws)
}

// Bodies returns every target present in the stack, sorted.
func (s *Stack) Bodies() []int {
	seen := make(map[int]bool)
	for _, c := range s.Catalogs() {
		for t := range c.byTarget {
			seen[t] = true
		}
	}
	out := make([]int, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}
