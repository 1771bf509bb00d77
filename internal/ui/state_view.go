package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/timescale"
)

var (
	stateFrames = []string{"J2000", "ECLIPJ2000", "IAU_EARTH"}
	stateSteps  = []time.Duration{time.Minute, time.Hour, 24 * time.Hour}
	aberrations = []ephem.Aberration{ephem.None, ephem.LT, ephem.LTS, ephem.CN, ephem.CNS}
)

// StateModel shows the live state of a target seen from an observer.
type StateModel struct {
	width  int
	height int

	bodies   []int
	target   int
	observer int
	frame    int
	ab       int
	step     int
	shift    time.Duration

	epoch timescale.Epoch
	sv    ephem.StateVector
	err   error
}

// NewStateModel creates a state view observing from the Earth.
func NewStateModel() StateModel {
	return StateModel{target: -1, observer: -1, step: 1}
}

// SetSize updates the viewport size.
func (m StateModel) SetSize(width, height int) StateModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData refreshes the body list and re-evaluates at now plus the
// user's time shift.
func (m StateModel) UpdateData(p ephem.Provider, now timescale.Epoch) StateModel {
	m.bodies = p.Bodies()
	m.epoch = now
	if m.target < 0 || m.target >= len(m.bodies) {
		m.target = m.defaultIndex(ephem.Moon, 0)
	}
	if m.observer < 0 || m.observer >= len(m.bodies) {
		m.observer = m.defaultIndex(ephem.Earth, len(m.bodies)-1)
	}
	return m.evaluate(p)
}

func (m StateModel) defaultIndex(id, fallback int) int {
	for i, b := range m.bodies {
		if b == id {
			return i
		}
	}
	return max(fallback, 0)
}

func (m StateModel) evaluate(p ephem.Provider) StateModel {
	if len(m.bodies) == 0 {
		m.sv, m.err = ephem.StateVector{}, nil
		return m
	}
	m.sv, m.err = p.State(m.bodies[m.target], m.bodies[m.observer], stateFrames[m.frame],
		m.epoch.Add(m.shift), aberrations[m.ab])
	return m
}

// Update handles key presses and re-evaluates against p.
func (m StateModel) Update(msg tea.Msg, p ephem.Provider) (StateModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || len(m.bodies) == 0 {
		return m, nil
	}
	n := len(m.bodies)
	switch key.String() {
	case "j", "down":
		m.target = (m.target + 1) % n
	case "k", "up":
		m.target = (m.target + n - 1) % n
	case "o":
		m.observer = (m.observer + 1) % n
	case "O":
		m.observer = (m.observer + n - 1) % n
	case "a":
		m.ab = (m.ab + 1) % len(aberrations)
	case "f":
		m.frame = (m.frame + 1) % len(stateFrames)
	case "s":
		m.step = (m.step + 1) % len(stateSteps)
	case "+", "=":
		m.shift += stateSteps[m.step]
	case "-":
		m.shift -= stateSteps[m.step]
	case "n":
		m.shift = 0
	default:
		return m, nil
	}
	return m.evaluate(p), nil
}

// View renders the state readout.
func (m StateModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  STATE"))
	b.WriteString("\n\n")

	if len(m.bodies) == 0 {
		b.WriteString(maskedStyle.Render("  No trajectory data loaded."))
		return b.String()
	}

	target, observer := m.bodies[m.target], m.bodies[m.observer]
	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", label, rowStyle.Render(value)))
	}
	field("Target", fmt.Sprintf("%s (%d)", ephem.Name(target), target))
	field("Observer", fmt.Sprintf("%s (%d)", ephem.Name(observer), observer))
	field("Frame", stateFrames[m.frame])
	field("Correction", aberrations[m.ab].String())
	ep := m.epoch.Add(m.shift)
	shift := ""
	switch {
	case m.shift > 0:
		shift = fmt.Sprintf("  (now +%s)", m.shift)
	case m.shift < 0:
		shift = fmt.Sprintf("  (now %s)", m.shift)
	}
	field("Epoch", shortDate(ep)+" TDB"+shift)
	field("Step", stateSteps[m.step].String())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("  " + m.err.Error()))
		return b.String()
	}

	p, v := m.sv.Position, m.sv.Velocity
	field("Position", fmt.Sprintf("%16.3f %16.3f %16.3f km", p.X, p.Y, p.Z))
	field("Velocity", fmt.Sprintf("%16.6f %16.6f %16.6f km/s", v.X, v.Y, v.Z))
	field("Range", fmt.Sprintf("%.3f km (%.6f AU)", m.sv.Range(), astro.KmToAU(m.sv.Range())))
	field("Range rate", fmt.Sprintf("%.6f km/s", m.sv.RangeRate()))
	lt := m.sv.LightTime
	if lt == 0 {
		lt = astro.LightTime(m.sv.Range())
	}
	field("Light time", astro.FormatLightTime(lt))
	return b.String()
}
