package timescale

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoPattern = regexp.MustCompile(
	`^(-?\d{1,4})-(\d{1,2})-(\d{1,2})(?:[T ](\d{1,2}):(\d{2})(?::(\d{2})(?:\.(\d{1,9}))?)?)?(Z)?$`)

// Parse reads an instant in one of these forms:
//
//	2024-03-01T12:00:00.5 [SCALE]   calendar, UTC unless a scale follows
//	2024-03-01 12:00 TDB
//	JD 2451545.0 [SCALE]            Julian date, TDB unless a scale follows
//	ET 86400.0                      TDB seconds past J2000
func Parse(s string, ls *LeapSeconds) (Epoch, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return Epoch{}, timeErr(s, ErrParse)
	}

	switch strings.ToUpper(fields[0]) {
	case "ET":
		if len(fields) != 2 {
			return Epoch{}, timeErr(s, ErrParse)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Epoch{}, timeErr(s, fmt.Errorf("%w: %v", ErrParse, err))
		}
		return FromET(v), nil
	case "JD":
		if len(fields) < 2 || len(fields) > 3 {
			return Epoch{}, timeErr(s, ErrParse)
		}
		jd, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Epoch{}, timeErr(s, fmt.Errorf("%w: %v", ErrParse, err))
		}
		scale := TDB
		if len(fields) == 3 {
			if scale, err = ParseScale(fields[2]); err != nil {
				return Epoch{}, timeErr(s, fmt.Errorf("%w: %v", ErrParse, err))
			}
		}
		return FromJulianDate(jd, scale, ls)
	}

	// A space may separate date and time, so rejoin everything but a
	// trailing scale name.
	scale := UTC
	if len(fields) > 1 {
		if sc, err := ParseScale(fields[len(fields)-1]); err == nil {
			scale = sc
			fields = fields[:len(fields)-1]
		}
	}
	m := isoPattern.FindStringSubmatch(strings.Join(fields, " "))
	if m == nil {
		return Epoch{}, timeErr(s, ErrParse)
	}
	if m[8] == "Z" {
		scale = UTC
	}

	c := Calendar{Scale: scale}
	c.Year, _ = strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	c.Month = time.Month(mo)
	c.Day, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		c.Hour, _ = strconv.Atoi(m[4])
		c.Minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		c.Second, _ = strconv.Atoi(m[6])
	}
	if m[7] != "" {
		frac := m[7] + strings.Repeat("0", 9-len(m[7]))
		c.Nanosecond, _ = strconv.Atoi(frac)
	}
	return ToEpoch(c, ls)
}
