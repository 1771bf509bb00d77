// Package ui provides the terminal kernel browser using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/state"
	"github.com/litescript/ls-ephem/internal/timescale"
	"github.com/litescript/ls-ephem/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewKernels ViewMode = iota
	ViewSegments
	ViewState
	ViewEvents
)

// EventSource is implemented by providers that record pool events.
type EventSource interface {
	Events(n int) []state.Event
}

// Msg types for Bubble Tea
type (
	// TickMsg triggers a refresh from the provider.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// OpenKernelMsg requests the segment view for a kernel.
	OpenKernelMsg struct {
		Handle ephem.KernelHandle
	}

	// ErrorMsg reports an error to the status line.
	ErrorMsg struct {
		Error error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	provider ephem.Provider
	events   EventSource
	now      func() time.Time

	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	kernels  KernelsModel
	segments SegmentsModel
	states   StateModel
	log      EventsModel

	lastRefresh time.Time
}

// New creates a browser over p. When p also records pool events they are
// shown in the events view.
func New(p ephem.Provider) Model {
	m := Model{
		provider: p,
		now:      time.Now,
		viewMode: ViewKernels,
		kernels:  NewKernelsModel(),
		segments: NewSegmentsModel(),
		states:   NewStateModel(),
		log:      NewEventsModel(),
	}
	if es, ok := p.(EventSource); ok {
		m.events = es
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), animTickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1":
			m.viewMode = ViewKernels
		case "2":
			m.viewMode = ViewSegments
		case "3":
			m.viewMode = ViewState
		case "4":
			m.viewMode = ViewEvents
		case "tab":
			m.viewMode = (m.viewMode + 1) % 4
		case "r":
			m.refresh()
			m.statusMsg = "Refreshed"
		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Logo and tabs take ~10 lines, footer ~2.
		contentHeight := msg.Height - 12
		m.kernels = m.kernels.SetSize(msg.Width, contentHeight)
		m.segments = m.segments.SetSize(msg.Width, contentHeight)
		m.states = m.states.SetSize(msg.Width, contentHeight)
		m.log = m.log.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.refresh()

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case OpenKernelMsg:
		segs, err := m.provider.Inspect(msg.Handle)
		if err != nil {
			m.statusMsg = "Inspect failed: " + err.Error()
			break
		}
		m.segments = m.segments.SetKernel(msg.Handle, segs)
		m.viewMode = ViewSegments

	case ErrorMsg:
		m.statusMsg = "Error: " + msg.Error.Error()

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

// refresh pulls the current pool contents from the provider.
func (m *Model) refresh() {
	now := m.now()
	m.lastRefresh = now
	m.kernels = m.kernels.UpdateData(m.provider.Kernels())

	if h, ok := m.segments.Kernel(); ok {
		segs, err := m.provider.Inspect(h)
		if err != nil {
			m.segments = m.segments.Clear()
		} else {
			m.segments = m.segments.SetKernel(h, segs)
		}
	}

	ep, err := timescale.FromTime(now, nil)
	if err == nil {
		m.states = m.states.UpdateData(m.provider, ep)
	}

	if m.events != nil {
		m.log = m.log.UpdateData(m.events.Events(200))
	}
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewKernels:
		m.kernels, cmd = m.kernels.Update(msg)
	case ViewSegments:
		m.segments, cmd = m.segments.Update(msg)
	case ViewState:
		m.states, cmd = m.states.Update(msg, m.provider)
	case ViewEvents:
		m.log, cmd = m.log.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewKernels:
		content = m.kernels.View()
	case ViewSegments:
		content = m.segments.View()
	case ViewState:
		content = m.states.View()
	case ViewEvents:
		content = m.log.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderTabs() + "\n"
}

func (m Model) renderLogo() string {
	logo := []string{
		`  ██╗     ███████╗      ███████╗██████╗ ██╗  ██╗███████╗███╗   ███╗`,
		`  ██║     ██╔════╝      ██╔════╝██╔══██╗██║  ██║██╔════╝████╗ ████║`,
		`  ██║     ███████╗█████╗█████╗  ██████╔╝███████║█████╗  ██╔████╔██║`,
		`  ██║     ╚════██║╚════╝██╔══╝  ██╔═══╝ ██╔══██║██╔══╝  ██║╚██╔╝██║`,
		`  ███████╗███████║      ███████╗██║     ██║  ██║███████╗██║ ╚═╝ ██║`,
		`  ╚══════╝╚══════╝      ╚══════╝╚═╝     ╚═╝  ╚═╝╚══════╝╚═╝     ╚═╝`,
	}

	var b strings.Builder
	b.WriteString("\n")
	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  Ephemeris kernels · v%s", version.Version)))
	b.WriteString("\n\n")
	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient:
// blue to purple to magenta to pink, darker toward the bottom.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	switch {
	case xRatio < 0.33:
		t := xRatio / 0.33
		r, g, b = 59+t*(139-59), 130+t*(92-130), 246
	case xRatio < 0.66:
		t := (xRatio - 0.33) / 0.33
		r, g, b = 139+t*(217-139), 92+t*(70-92), 246+t*(239-246)
	default:
		t := (xRatio - 0.66) / 0.34
		r, g, b = 217+t*(236-217), 70+t*(72-70), 239+t*(153-239)
	}

	f := 1.0 - yRatio*0.5
	return fmt.Sprintf("#%02X%02X%02X", clamp8(r*f), clamp8(g*f), clamp8(b*f))
}

func clamp8(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Kernels", "[2] Segments", "[3] State", "[4] Events"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	if n := m.kernels.Len(); n > 0 {
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" %d kernels · %s UTC", n, m.lastRefresh.UTC().Format("15:04:05")))
	} else {
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Waiting for kernels...")
	}

	var help string
	switch m.viewMode {
	case ViewSegments:
		help = "↑↓: scroll | m: hide masked"
	case ViewState:
		help = "j/k: target | o/O: observer | a: aberration | f: frame | +/-: step | n: now"
	case ViewEvents:
		help = "↑↓: scroll"
	default:
		help = "↑↓: navigate | enter: segments | tab: switch view"
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// renderShimmerText renders text with a moving highlight.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	pos := m.animTick % (len(runes) + 8)

	var b strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}
		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 160, 220
		case dist <= 3:
			r8, g8, b8 = 140, 120, 180
		case dist <= 5:
			r8, g8, b8 = 110, 90, 150
		default:
			r8, g8, b8 = 80, 70, 120
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)))
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendError creates a command that reports an error.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

// Run starts the browser on the terminal and blocks until it exits.
func Run(p ephem.Provider) error {
	_, err := tea.NewProgram(New(p), tea.WithAltScreen()).Run()
	return err
}
