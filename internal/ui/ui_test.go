package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-ephem/internal/astro"
	"github.com/litescript/ls-ephem/internal/catalog"
	"github.com/litescript/ls-ephem/internal/ephem"
	"github.com/litescript/ls-ephem/internal/frames"
	"github.com/litescript/ls-ephem/internal/state"
	"github.com/litescript/ls-ephem/internal/timescale"
)

type fakeProvider struct {
	kernels []ephem.KernelInfo
	segs    map[uuid.UUID][]ephem.SegmentSummary
	bodies  []int
	events  []state.Event
	calls   []string
}

func (f *fakeProvider) Kernels() []ephem.KernelInfo { return f.kernels }

func (f *fakeProvider) Inspect(h ephem.KernelHandle) ([]ephem.SegmentSummary, error) {
	s, ok := f.segs[h.ID]
	if !ok {
		return nil, state.ErrNotLoaded
	}
	return s, nil
}

func (f *fakeProvider) Coverage(int) []catalog.Window { return nil }

func (f *fakeProvider) Bodies() []int { return f.bodies }

func (f *fakeProvider) State(target, observer int, frame string, ep timescale.Epoch, ab ephem.Aberration) (ephem.StateVector, error) {
	f.calls = append(f.calls, ephem.Name(target)+"/"+ephem.Name(observer)+"/"+frame+"/"+ab.String())
	if target == ephem.Mars {
		return ephem.StateVector{}, errors.New("no coverage for mars")
	}
	return ephem.StateVector{Target: target, Observer: observer, Position: astro.Vec3{X: 384400}}, nil
}

func (f *fakeProvider) Transform(string, string, timescale.Epoch) (frames.Transform, error) {
	return frames.Transform{}, nil
}

func (f *fakeProvider) Events(n int) []state.Event { return f.events }

func newFake() *fakeProvider {
	h1 := ephem.KernelHandle{ID: uuid.New(), Name: "de440s.bsp"}
	h2 := ephem.KernelHandle{ID: uuid.New(), Name: "moon_patch.bsp"}
	return &fakeProvider{
		kernels: []ephem.KernelInfo{
			{Handle: h1, Kind: "SPK", Size: 32 << 20, Segments: 4, Masked: 1, LoadedAt: time.Now()},
			{Handle: h2, Kind: "SPK", Size: 4096, Segments: 1, LoadedAt: time.Now()},
		},
		segs: map[uuid.UUID][]ephem.SegmentSummary{
			h1.ID: {
				{Index: 0, Name: "EMB", Target: 3, Center: 0, Type: "CHEBYSHEV POSITION", StartET: -100, EndET: 100},
				{Index: 1, Name: "MOON", Target: 301, Center: 3, Type: "CHEBYSHEV POSITION", StartET: -100, EndET: 0, Masked: true},
			},
			h2.ID: {{Index: 0, Name: "MOON PATCH", Target: 301, Center: 3, StartET: -50, EndET: 50}},
		},
		bodies: []int{ephem.EarthBarycenter, ephem.Moon, ephem.Earth, ephem.Mars},
		events: []state.Event{
			{Type: state.EventLoaded, Path: "de440s.bsp"},
			{Type: state.EventLoaded, Path: "moon_patch.bsp"},
			{Type: state.EventMasked, Path: "de440s.bsp", Detail: "1 segment masked"},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestRenderMaskBar(t *testing.T) {
	m := KernelsModel{}
	tests := []struct {
		name       string
		frac       float64
		width      int
		wantFilled int
	}{
		{"empty", 0, 10, 0},
		{"full", 1, 10, 10},
		{"half", 0.5, 10, 5},
		{"quarter", 0.25, 8, 2},
		{"over", 1.5, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := m.renderMaskBar(tt.frac, tt.width)
			assert.True(t, strings.HasPrefix(bar, "[") && strings.HasSuffix(bar, "]"), bar)
			assert.Equal(t, tt.wantFilled, strings.Count(bar, "█"))
			assert.Equal(t, tt.width-tt.wantFilled, strings.Count(bar, "░"))
		})
	}
}

func TestTimeline(t *testing.T) {
	assert.Equal(t, 10, strings.Count(timeline(-100, 100, -100, 100, 10), "█"))
	assert.Equal(t, 5, strings.Count(timeline(-100, 0, -100, 100, 10), "█"))
	assert.Equal(t, 1, strings.Count(timeline(100, 100, -100, 100, 10), "█"), "instant still visible")
	assert.Equal(t, 4, strings.Count(timeline(0, 0, 0, 0, 4), "█"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestKernelsNavigation(t *testing.T) {
	f := newFake()
	m := NewKernelsModel().UpdateData(f.kernels)

	m, _ = m.Update(key("j"))
	m, _ = m.Update(key("j"))
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "moon_patch.bsp", sel.Handle.Name, "cursor stops at the last row")

	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenKernelMsg{Handle: sel.Handle}, cmd())

	m = m.UpdateData(f.kernels[:1])
	sel, _ = m.Selected()
	assert.Equal(t, "de440s.bsp", sel.Handle.Name, "cursor clamped after unload")

	assert.Contains(t, NewKernelsModel().View(), "No kernels loaded")
	view := m.View()
	assert.Contains(t, view, "de440s.bsp")
	assert.Contains(t, view, "32 MiB")
}

func TestModelOpenKernel(t *testing.T) {
	f := newFake()
	m := New(f)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	assert.Contains(t, m.View(), "LOADED KERNELS")

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, ViewSegments, m.viewMode)
	view := m.segments.View()
	assert.Contains(t, view, "MOON")
	assert.Contains(t, view, "masked")

	m, _ = update(t, m, key("m"))
	assert.NotContains(t, m.segments.View(), "masked")

	m, _ = update(t, m, OpenKernelMsg{Handle: ephem.KernelHandle{ID: uuid.New()}})
	assert.Contains(t, m.statusMsg, "Inspect failed")
}

func TestModelRefreshDropsUnloadedKernel(t *testing.T) {
	f := newFake()
	m := New(f)
	m, _ = update(t, m, OpenKernelMsg{Handle: f.kernels[1].Handle})
	_, open := m.segments.Kernel()
	require.True(t, open)

	delete(f.segs, f.kernels[1].Handle.ID)
	f.kernels = f.kernels[:1]
	m, _ = update(t, m, TickMsg(time.Now()))
	_, open = m.segments.Kernel()
	assert.False(t, open)
	assert.Equal(t, 1, m.kernels.Len())
}

func TestModelTabsAndQuit(t *testing.T) {
	m := New(newFake())
	m, _ = update(t, m, key("tab"))
	assert.Equal(t, ViewSegments, m.viewMode)
	m, _ = update(t, m, key("4"))
	assert.Equal(t, ViewEvents, m.viewMode)
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStateView(t *testing.T) {
	f := newFake()
	m := NewStateModel().UpdateData(f, timescale.J2000)
	assert.Equal(t, "MOON/EARTH/J2000/NONE", f.calls[len(f.calls)-1])
	assert.Contains(t, m.View(), "384400.000")

	m, _ = m.Update(key("a"), f)
	m, _ = m.Update(key("f"), f)
	assert.Equal(t, "MOON/EARTH/ECLIPJ2000/LT", f.calls[len(f.calls)-1])

	m, _ = m.Update(key("+"), f)
	assert.Equal(t, time.Hour, m.shift)
	assert.Contains(t, m.View(), "now +1h0m0s")
	m, _ = m.Update(key("n"), f)
	assert.Zero(t, m.shift)

	m, _ = m.Update(key("j"), f)
	m, _ = m.Update(key("j"), f)
	assert.Contains(t, m.View(), "no coverage for mars")

	m, _ = m.Update(key("O"), f)
	assert.Equal(t, "MARS/MOON/ECLIPJ2000/LT", f.calls[len(f.calls)-1])

	empty := NewStateModel().UpdateData(&fakeProvider{}, timescale.J2000)
	assert.Contains(t, empty.View(), "No trajectory data")
}

func TestEventsView(t *testing.T) {
	f := newFake()
	m := NewEventsModel().UpdateData(f.events)
	require.Len(t, m.events, 3)
	assert.Equal(t, state.EventMasked, m.events[0].Type, "newest first")
	assert.Contains(t, m.View(), "1 segment masked")
}

func TestGradientColor(t *testing.T) {
	assert.Equal(t, "#3B82F6", gradientColor(0, 0, 100, 6))
	c := gradientColor(99, 5, 100, 6)
	assert.Len(t, c, 7)
	assert.Equal(t, 255, clamp8(300))
	assert.Equal(t, 0, clamp8(-3))
}
