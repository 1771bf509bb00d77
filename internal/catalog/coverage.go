package catalog

import (
	"sort"

	"github.com/litescript/ls-ephem/internal/timescale"
)

// Window is a closed time interval.
type Window struct {
	Start, End timescale.Epoch
}

// Coverage returns the merged windows of this catalog for (target, center);
// AnyCenter merges every center.
func (c *Catalog) Coverage(target, center int) []Window {
	return merge(c.coverage(target, center))
}

func (c *Catalog) coverage(target, center int) []Window {
	if center != AnyCenter {
		return c.windows(Key{target, center})
	}
	var ws []Window
	for _, k := range c.byTarget[target] {
		ws = append(ws, c.windows(k)...)
	}
	return ws
}

func (c *Catalog) windows(k Key) []Window {
	r := c.index[k]
	if r == nil {
		return nil
	}
	ws := make([]Window, len(r.segs))
	for i, si := range r.segs {
		ws[i] = Window{Start: c.segments[si].Start, End: c.segments[si].End}
	}
	return ws
}

// merge unions closed windows. Windows that touch are joined.
func merge(ws []Window) []Window {
	if len(ws) == 0 {
		return nil
	}
	sort.Slice(ws, func(i, j int) bool { return ws[i].Start.Before(ws[j].Start) })
	out := []Window{ws[0]}
	for _, w := range ws[1:] {
		last := &out[len(out)-1]
		if w.Start.After(last.End) {
			out = append(out, w)
			continue
		}
		if w.End.After(last.End) {
			last.End = w.End
		}
	}
	return out
}

// covered reports whether merged windows contain [start, end].
func covered(merged []Window, start, end timescale.Epoch) bool {
	for _, w := range merged {
		if !w.Start.After(start) && !w.End.Before(end) {
			return true
		}
	}
	return false
}
