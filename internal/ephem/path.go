package ephem

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/litescript/ls-ephem/internal/timescale"
)

// maxPathPoints caps the number of samples in one series.
const maxPathPoints = 1_000_000

// Series is a trajectory sampled at a fixed step.
type Series struct {
	Target     int           `json:"target"`
	Observer   int           `json:"observer"`
	Frame      string        `json:"frame"`
	Aberration Aberration    `json:"aberration"`
	Start      float64       `json:"start_et"`
	End        float64       `json:"end_et"`
	Step       float64       `json:"step_s"`
	Points     []StateVector `json:"points"`
}

// Path samples the state of target relative to observer from start to end
// inclusive. The whole series is evaluated against one snapshot of the
// pool, so a concurrent load never splits it.
func (a *Almanac) Path(target, observer int, frame string, start, end timescale.Epoch, step time.Duration, ab Aberration) (*Series, error) {
	fail := func(ep timescale.Epoch, err error) (*Series, error) {
		return nil, &QueryError{Op: "path", Target: target, Observer: observer, Frame: frame, Epoch: ep, Err: err}
	}
	if step <= 0 {
		return fail(start, fmt.Errorf("step %v must be positive", step))
	}
	if end.Before(start) {
		return fail(start, fmt.Errorf("end %v before start %v", end, start))
	}
	n := int(end.Sub(start)/step.Seconds()) + 1
	if n > maxPathPoints {
		return fail(start, fmt.Errorf("%d samples exceed the limit of %d", n, maxPathPoints))
	}

	snap := a.pool.Snapshot()
	s := &Series{
		Target:     target,
		Observer:   observer,
		Frame:      frame,
		Aberration: ab,
		Start:      start.ET(),
		End:        end.ET(),
		Step:       step.Seconds(),
		Points:     make([]StateVector, 0, n),
	}
	for ep := start; !ep.After(end); ep = ep.Add(step) {
		sv, err := a.state(snap, target, observer, frame, ep, ab)
		if err != nil {
			a.metrics.ObserveQuery("path", err)
			return fail(ep, err)
		}
		s.Frame = sv.Frame
		s.Points = append(s.Points, sv)
	}
	a.metrics.ObserveQuery("path", nil)
	return s, nil
}

// WriteJSON writes the series as indented JSON.
func (s *Series) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// csvHeader names the columns written by WriteCSV.
var csvHeader = []string{"et", "x_km", "y_km", "z_km", "vx_km_s", "vy_km_s", "vz_km_s", "range_km", "light_time_s"}

// WriteCSV writes one row per sample.
func (s *Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, p := range s.Points {
		row := []string{
			f(p.ET),
			f(p.Position.X), f(p.Position.Y), f(p.Position.Z),
			f(p.Velocity.X), f(p.Velocity.Y), f(p.Velocity.Z),
			f(p.Range()), f(p.LightTime),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
