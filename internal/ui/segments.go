package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/timescale"
)

// SegmentsModel lists the segments of one kernel with a coverage timeline.
type SegmentsModel struct {
	width      int
	height     int
	offset     int
	hideMasked bool
	handle     ephem.KernelHandle
	open       bool
	segs       []ephem.SegmentSummary
}

// NewSegmentsModel creates an empty segment view.
func NewSegmentsModel() SegmentsModel {
	return SegmentsModel{}
}

// SetSize updates the viewport size.
func (m SegmentsModel) SetSize(width, height int) SegmentsModel {
	m.width = width
	m.height = height
	return m
}

// SetKernel shows the segments of h.
func (m SegmentsModel) SetKernel(h ephem.KernelHandle, segs []ephem.SegmentSummary) SegmentsModel {
	if h != m.handle {
		m.offset = 0
	}
	m.handle, m.open, m.segs = h, true, segs
	return m
}

// Clear forgets the kernel, as after it is unloaded.
func (m SegmentsModel) Clear() SegmentsModel {
	return SegmentsModel{width: m.width, height: m.height, hideMasked: m.hideMasked}
}

// Kernel returns the kernel shown, if any.
func (m SegmentsModel) Kernel() (ephem.KernelHandle, bool) {
	return m.handle, m.open
}

func (m SegmentsModel) visible() []ephem.SegmentSummary {
	if !m.hideMasked {
		return m.segs
	}
	var out []ephem.SegmentSummary
	for _, s := range m.segs {
		if !s.Masked {
			out = append(out, s)
		}
	}
	return out
}

// Update handles messages.
func (m SegmentsModel) Update(msg tea.Msg) (SegmentsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := len(m.visible())
	switch key.String() {
	case "up", "k":
		if m.offset > 0 {
			m.offset--
		}
	case "down", "j":
		if m.offset < n-1 {
			m.offset++
		}
	case "home":
		m.offset = 0
	case "m":
		m.hideMasked = !m.hideMasked
		m.offset = 0
	}
	return m, nil
}

// View renders the segment table.
func (m SegmentsModel) View() string {
	var b strings.Builder
	if !m.open {
		b.WriteString(titleStyle.Render("  SEGMENTS"))
		b.WriteString("\n\n")
		b.WriteString(maskedStyle.Render("  Select a kernel and press enter."))
		return b.String()
	}

	b.WriteString(titleStyle.Render("  SEGMENTS · " + m.handle.Name))
	b.WriteString("\n\n")

	segs := m.visible()
	if len(segs) == 0 {
		b.WriteString(maskedStyle.Render("  No segments to show."))
		return b.String()
	}
	lo, hi := span(m.segs)

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-4s %-22s %-18s %-18s %-8s %-19s %-19s %s",
		"#", "NAME", "TARGET", "CENTER", "TYPE", "START (TDB)", "END (TDB)", "COVERAGE")))
	b.WriteString("\n")

	rows := len(segs) - m.offset
	if m.height > 4 && rows > m.height-4 {
		rows = m.height - 4
	}
	for _, s := range segs[m.offset : m.offset+rows] {
		line := fmt.Sprintf("%-4d %-22s %-18s %-18s %-8s %-19s %-19s %s",
			s.Index, truncate(s.Name, 22), truncate(ephem.Name(s.Target), 18), truncate(ephem.Name(s.Center), 18),
			s.Type, shortDate(s.Start), shortDate(s.End), timeline(s.StartET, s.EndET, lo, hi, 24))
		switch {
		case s.Rejected != "":
			b.WriteString(errorStyle.Render(line + "  " + s.Rejected))
		case s.Masked:
			b.WriteString(maskedStyle.Render(line + "  masked"))
		default:
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if more := len(segs) - m.offset - rows; more > 0 {
		b.WriteString(maskedStyle.Render(fmt.Sprintf("  … %d more", more)))
	}
	return b.String()
}

// span returns the extent in seconds past J2000 of the kernel's segments.
func span(segs []ephem.SegmentSummary) (lo, hi float64) {
	for i, s := range segs {
		if i == 0 || s.StartET < lo {
			lo = s.StartET
		}
		if i == 0 || s.EndET > hi {
			hi = s.EndET
		}
	}
	return lo, hi
}

// timeline draws [start, end] inside [lo, hi] as a bar of width cells.
func timeline(start, end, lo, hi float64, width int) string {
	if hi <= lo {
		return "[" + strings.Repeat("█", width) + "]"
	}
	scale := float64(width) / (hi - lo)
	a := int((start - lo) * scale)
	z := int((end-lo)*scale + 0.999)
	a = min(max(a, 0), width-1)
	z = min(max(z, a+1), width)
	return "[" + strings.Repeat(" ", a) + barStyle.Render(strings.Repeat("█", z-a)) + strings.Repeat(" ", width-z) + "]"
}

func shortDate(e timescale.Epoch) string {
	c, err := timescale.ToCalendar(e, timescale.TDB, nil)
	if err != nil {
		return e.String()
	}
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", c.Year, int(c.Month), c.Day, c.Hour, c.Minute, c.Second)
}
