package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-ephem/internal/state"
)

// EventsModel lists kernel pool events, newest first.
type EventsModel struct {
	width  int
	height int
	offset int
	events []state.Event
}

// NewEventsModel creates an empty event log.
func NewEventsModel() EventsModel {
	return EventsModel{}
}

// SetSize updates the viewport size.
func (m EventsModel) SetSize(width, height int) EventsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the events, given oldest first.
func (m EventsModel) UpdateData(events []state.Event) EventsModel {
	m.events = make([]state.Event, len(events))
	for i, e := range events {
		m.events[len(events)-1-i] = e
	}
	if m.offset >= len(m.events) {
		m.offset = 0
	}
	return m
}

// Update handles messages.
func (m EventsModel) Update(msg tea.Msg) (EventsModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.events)-1 {
				m.offset++
			}
		}
	}
	return m, nil
}

// View renders the event log.
func (m EventsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  EVENTS"))
	b.WriteString("\n\n")
	if len(m.events) == 0 {
		b.WriteString(maskedStyle.Render("  No events yet."))
		return b.String()
	}

	rows := len(m.events) - m.offset
	if m.height > 3 && rows > m.height-3 {
		rows = m.height - 3
	}
	for _, e := range m.events[m.offset : m.offset+rows] {
		style := rowStyle
		if e.Type == state.EventMasked {
			style = maskedStyle
		}
		line := fmt.Sprintf("  %s  %-9s %s", e.Timestamp.Format("15:04:05.000"), e.Type, e.Path)
		if e.Detail != "" {
			line += " · " + e.Detail
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
