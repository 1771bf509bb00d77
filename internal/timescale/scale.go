package timescale

import (
	"fmt"
	"math"
	"strings"
)

// Scale identifies a time scale.
type Scale int

const (
	TDB Scale = iota
	TT
	TAI
	UTC
	GPS
)

func (s Scale) String() string {
	switch s {
	case TDB:
		return "TDB"
	case TT:
		return "TT"
	case TAI:
		return "TAI"
	case UTC:
		return "UTC"
	case GPS:
		return "GPS"
	default:
		return fmt.Sprintf("Scale(%d)", int(s))
	}
}

// ParseScale parses a scale name, case-insensitively. ET is accepted as an
// alias for TDB.
func ParseScale(s string) (Scale, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TDB", "ET":
		return TDB, nil
	case "TT", "TDT":
		return TT, nil
	case "TAI":
		return TAI, nil
	case "UTC", "Z":
		return UTC, nil
	case "GPS":
		return GPS, nil
	}
	return TDB, fmt.Errorf("unknown time scale %q", s)
}

// gpsMinusTAI is the fixed GPS - TAI offset in seconds.
const gpsMinusTAI = -19

// Model holds the TT-TDB and TT-TAI parameters of a leapseconds kernel.
// TDB - TT = K sin(E), E = M + EB sin(M), M = M0 + M1 * t.
type Model struct {
	DeltaTA float64 // TT - TAI
	K       float64
	EB      float64
	M0, M1  float64
}

// DefaultModel carries the constants distributed with every NAIF LSK.
var DefaultModel = Model{
	DeltaTA: 32.184,
	K:       1.657e-3,
	EB:      1.671e-2,
	M0:      6.239996,
	M1:      1.99096871e-7,
}

// TDBMinusTT returns TDB - TT in seconds at tt seconds past J2000 TT.
func (m Model) TDBMinusTT(tt float64) float64 {
	ma := m.M0 + m.M1*tt
	return m.K * math.Sin(ma+m.EB*math.Sin(ma))
}

func (m Model) ttToTDB(tt Epoch) Epoch {
	return tt.AddSeconds(m.TDBMinusTT(tt.ET()))
}

func (m Model) tdbToTT(tdb Epoch) Epoch {
	tt := tdb
	for range 3 {
		tt = tdb.AddSeconds(-m.TDBMinusTT(tt.ET()))
	}
	return tt
}

// toTDB converts a count of seconds past J2000 in scale s into a TDB Epoch.
// UTC inputs must not fall on a leap second; callers handle second 60.
func toTDB(naive Epoch, s Scale, ls *LeapSeconds) (Epoch, error) {
	m := ls.model()
	var tt Epoch
	switch s {
	case TDB:
		return naive, nil
	case TT:
		tt = naive
	case TAI:
		tt = naive.AddSeconds(m.DeltaTA)
	case GPS:
		tt = naive.AddSeconds(m.DeltaTA - gpsMinusTAI)
	case UTC:
		dat, err := ls.deltaAT(naive)
		if err != nil {
			return Epoch{}, err
		}
		tt = naive.AddSeconds(float64(dat) + m.DeltaTA)
	default:
		return Epoch{}, fmt.Errorf("unsupported scale %v", s)
	}
	return m.ttToTDB(tt), nil
}

// fromTDB converts e into seconds past J2000 in scale s. leap reports that a
// UTC result lies inside an inserted leap second, in which case the naive
// value is the preceding 23:59:59.
func fromTDB(e Epoch, s Scale, ls *LeapSeconds) (naive Epoch, leap bool, err error) {
	m := ls.model()
	if s == TDB {
		return e, false, nil
	}
	tt := m.tdbToTT(e)
	switch s {
	case TT:
		return tt, false, nil
	case TAI:
		return tt.AddSeconds(-m.DeltaTA), false, nil
	case GPS:
		return tt.AddSeconds(-m.DeltaTA + gpsMinusTAI), false, nil
	case UTC:
		return ls.utcFromTAI(tt.AddSeconds(-m.DeltaTA))
	}
	return Epoch{}, false, fmt.Errorf("unsupported scale %v", s)
}

// Convert returns the seconds past J2000 of e expressed in scale s, as a
// float. Inside a UTC leap second the value repeats the last second of the
// day.
func Convert(e Epoch, s Scale, ls *LeapSeconds) (float64, error) {
	naive, _, err := fromTDB(e, s, ls)
	if err != nil {
		return 0, err
	}
	return naive.ET(), nil
}
