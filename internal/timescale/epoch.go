// Package timescale represents instants as fixed-point TDB seconds past
// J2000 and converts between TDB, TT, TAI, GPS and leap-second aware UTC.
//
// Conversions happen only at the edges: every numerical layer works with an
// Epoch, and an Epoch is always TDB.
package timescale

import (
	"math"
	"time"
)

const nanosPerSecond = 1_000_000_000

// Epoch is an instant in TDB, stored as whole seconds past J2000
// (2000-01-01T12:00:00 TDB) plus nanoseconds in [0, 1e9).
type Epoch struct {
	sec  int64
	nsec int32
}

// J2000 is the reference epoch.
var J2000 = Epoch{}

// FromET converts ephemeris seconds past J2000 to an Epoch, rounding to the
// nearest nanosecond.
func FromET(et float64) Epoch {
	whole := math.Floor(et)
	nsec := math.Round((et - whole) * nanosPerSecond)
	e := Epoch{sec: int64(whole)}
	return e.addNanos(int64(nsec))
}

// FromSeconds builds an Epoch from whole seconds and nanoseconds; nsec may
// be outside [0, 1e9).
func FromSeconds(sec int64, nsec int64) Epoch {
	return Epoch{sec: sec}.addNanos(nsec)
}

// ET returns the float64 seconds past J2000 used by the numerical layers.
func (e Epoch) ET() float64 {
	return float64(e.sec) + float64(e.nsec)/nanosPerSecond
}

// Seconds returns the whole-second and nanosecond parts.
func (e Epoch) Seconds() (int64, int32) {
	return e.sec, e.nsec
}

// Add returns e shifted by d.
func (e Epoch) Add(d time.Duration) Epoch {
	return e.addNanos(int64(d))
}

// AddSeconds returns e shifted by s seconds, rounded to the nanosecond.
func (e Epoch) AddSeconds(s float64) Epoch {
	whole := math.Floor(s)
	out := Epoch{sec: e.sec + int64(whole), nsec: e.nsec}
	return out.addNanos(int64(math.Round((s - whole) * nanosPerSecond)))
}

// Sub returns e - o in seconds. A float is used because ephemeris spans
// routinely exceed the range of time.Duration.
func (e Epoch) Sub(o Epoch) float64 {
	return float64(e.sec-o.sec) + float64(e.nsec-o.nsec)/nanosPerSecond
}

// Compare returns -1, 0 or +1.
func (e Epoch) Compare(o Epoch) int {
	switch {
	case e.sec < o.sec:
		return -1
	case e.sec > o.sec:
		return 1
	case e.nsec < o.nsec:
		return -1
	case e.nsec > o.nsec:
		return 1
	}
	return 0
}

func (e Epoch) Before(o Epoch) bool { return e.Compare(o) < 0 }
func (e Epoch) After(o Epoch) bool  { return e.Compare(o) > 0 }
func (e Epoch) Equal(o Epoch) bool  { return e == o }

// String formats the epoch as a TDB calendar date.
func (e Epoch) String() string {
	c, _ := ToCalendar(e, TDB, nil)
	return c.String()
}

func (e Epoch) addNanos(n int64) Epoch {
	total := int64(e.nsec) + n
	sec := e.sec + total/nanosPerSecond
	rem := total % nanosPerSecond
	if rem < 0 {
		rem += nanosPerSecond
		sec--
	}
	return Epoch{sec: sec, nsec: int32(rem)}
}
