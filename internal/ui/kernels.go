package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-ephem/internal/ephem"
)

// Styles shared by the views.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	maskedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9D4EDD"))
)

// KernelsModel lists the loaded kernels.
type KernelsModel struct {
	width   int
	height  int
	cursor  int
	kernels []ephem.KernelInfo
}

// NewKernelsModel creates an empty kernel list.
func NewKernelsModel() KernelsModel {
	return KernelsModel{}
}

// SetSize updates the viewport size.
func (m KernelsModel) SetSize(width, height int) KernelsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the kernel list, keeping the cursor in range.
func (m KernelsModel) UpdateData(kernels []ephem.KernelInfo) KernelsModel {
	m.kernels = kernels
	if m.cursor >= len(kernels) {
		m.cursor = max(len(kernels)-1, 0)
	}
	return m
}

// Len returns the number of kernels listed.
func (m KernelsModel) Len() int {
	return len(m.kernels)
}

// Selected returns the kernel under the cursor.
func (m KernelsModel) Selected() (ephem.KernelInfo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.kernels) {
		return ephem.KernelInfo{}, false
	}
	return m.kernels[m.cursor], true
}

// Update handles messages.
func (m KernelsModel) Update(msg tea.Msg) (KernelsModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.kernels)-1 {
			m.cursor++
		}
	case "home":
		m.cursor = 0
	case "end":
		m.cursor = max(len(m.kernels)-1, 0)
	case "enter":
		if k, ok := m.Selected(); ok {
			return m, func() tea.Msg { return OpenKernelMsg{Handle: k.Handle} }
		}
	}
	return m, nil
}

// View renders the kernel table. Later rows take precedence.
func (m KernelsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  LOADED KERNELS"))
	b.WriteString("\n\n")

	if len(m.kernels) == 0 {
		b.WriteString(maskedStyle.Render("  No kernels loaded."))
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-28s %-4s %9s %5s %-12s %s", "#", "FILE", "KIND", "SIZE", "SEGS", "MASKED", "LOADED")))
	b.WriteString("\n")

	for i, k := range m.kernels {
		masked := 0.0
		if k.Segments > 0 {
			masked = float64(k.Masked) / float64(k.Segments)
		}
		line := fmt.Sprintf("%-3d %-28s %-4s %9s %5d %s %s",
			i+1, truncate(k.Handle.Name, 28), k.Kind, humanize.IBytes(uint64(k.Size)), k.Segments,
			m.renderMaskBar(masked, 10), humanize.Time(k.LoadedAt))
		if k.Rejected > 0 {
			line += errorStyle.Render(fmt.Sprintf("  %d rejected", k.Rejected))
		}
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderMaskBar draws the fraction of a kernel's segments that newer
// kernels mask.
func (m KernelsModel) renderMaskBar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled) + "]"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
