package timescale

import (
	"fmt"
	"time"
)

// daysToJ2000 is the day number of 2000-01-01 counted from 1970-01-01.
const daysToJ2000 = 10957

const secondsPerDay = 86400

// Calendar is a broken-down date and time in a given scale. Second may be
// 60 only for UTC on a day that ends with a leap second.
type Calendar struct {
	Year       int
	Month      time.Month
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	Scale      Scale
}

func (c Calendar) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%09d %s",
		c.Year, int(c.Month), c.Day, c.Hour, c.Minute, c.Second, c.Nanosecond, c.Scale)
}

func (c Calendar) validate() error {
	switch {
	case c.Month < time.January || c.Month > time.December:
		return fmt.Errorf("%w: month %d", ErrBadCalendar, int(c.Month))
	case c.Day < 1 || c.Day > daysIn(c.Year, c.Month):
		return fmt.Errorf("%w: day %d of %04d-%02d", ErrBadCalendar, c.Day, c.Year, int(c.Month))
	case c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59:
		return fmt.Errorf("%w: time %02d:%02d", ErrBadCalendar, c.Hour, c.Minute)
	case c.Second < 0 || c.Second > 60 || (c.Second == 60 && c.Scale != UTC):
		return fmt.Errorf("%w: second %d in %v", ErrBadCalendar, c.Second, c.Scale)
	case c.Nanosecond < 0 || c.Nanosecond >= nanosPerSecond:
		return fmt.Errorf("%w: nanosecond %d", ErrBadCalendar, c.Nanosecond)
	}
	return nil
}

// naive returns the seconds past 2000-01-01T12:00:00 of the calendar fields,
// ignoring the scale.
func (c Calendar) naive() Epoch {
	days := daysFromCivil(c.Year, c.Month, c.Day) - daysToJ2000
	sec := days*secondsPerDay + int64(c.Hour*3600+c.Minute*60+c.Second) - secondsPerDay/2
	return FromSeconds(sec, int64(c.Nanosecond))
}

// ToEpoch converts calendar fields in their scale to a TDB Epoch. ls may be
// nil for scales other than UTC, in which case the built-in table is used.
func ToEpoch(c Calendar, ls *LeapSeconds) (Epoch, error) {
	if err := c.validate(); err != nil {
		return Epoch{}, timeErr(c.String(), err)
	}
	if c.Second != 60 {
		e, err := toTDB(c.naive(), c.Scale, ls)
		if err != nil {
			return Epoch{}, timeErr(c.String(), err)
		}
		return e, nil
	}

	// 23:59:60 exists only when the following midnight raises ΔAT.
	if c.Hour != 23 || c.Minute != 59 {
		return Epoch{}, timeErr(c.String(), fmt.Errorf("%w: second 60 outside 23:59", ErrBadCalendar))
	}
	base := c
	base.Second = 59
	before, err := ls.deltaAT(base.naive())
	if err != nil {
		return Epoch{}, timeErr(c.String(), err)
	}
	after, err := ls.deltaAT(base.naive().AddSeconds(1))
	if err != nil {
		return Epoch{}, timeErr(c.String(), err)
	}
	if after <= before {
		return Epoch{}, timeErr(c.String(), fmt.Errorf("%w: no leap second at end of %04d-%02d-%02d",
			ErrBadCalendar, c.Year, int(c.Month), c.Day))
	}
	m := ls.model()
	tt := base.naive().AddSeconds(1 + float64(before) + m.DeltaTA)
	return m.ttToTDB(tt), nil
}

// ToCalendar converts e to calendar fields in scale s.
func ToCalendar(e Epoch, s Scale, ls *LeapSeconds) (Calendar, error) {
	naive, leap, err := fromTDB(e, s, ls)
	if err != nil {
		return Calendar{}, timeErr(e.rawString(), err)
	}
	c := calendarOf(naive, s)
	if leap {
		c.Second = 60
	}
	return c, nil
}

func calendarOf(naive Epoch, s Scale) Calendar {
	sec := naive.sec + secondsPerDay/2
	days := floorDiv(sec, secondsPerDay)
	rem := sec - days*secondsPerDay
	y, m, d := civilFromDays(days + daysToJ2000)
	return Calendar{
		Year:       y,
		Month:      m,
		Day:        d,
		Hour:       int(rem / 3600),
		Minute:     int(rem % 3600 / 60),
		Second:     int(rem % 60),
		Nanosecond: int(naive.nsec),
		Scale:      s,
	}
}

func (e Epoch) rawString() string {
	return fmt.Sprintf("ET %d.%09d", e.sec, e.nsec)
}

// JulianDate returns the Julian date of e in scale s.
func JulianDate(e Epoch, s Scale, ls *LeapSeconds) (float64, error) {
	sec, err := Convert(e, s, ls)
	if err != nil {
		return 0, err
	}
	return 2451545.0 + sec/secondsPerDay, nil
}

// FromJulianDate converts a Julian date in scale s to an Epoch. The day
// number is split before scaling to keep sub-millisecond precision.
func FromJulianDate(jd float64, s Scale, ls *LeapSeconds) (Epoch, error) {
	whole := jd - 2451545.0
	days := int64(whole)
	frac := whole - float64(days)
	naive := FromSeconds(days*secondsPerDay, 0).AddSeconds(frac * secondsPerDay)
	e, err := toTDB(naive, s, ls)
	if err != nil {
		return Epoch{}, timeErr(fmt.Sprintf("JD %.9f %v", jd, s), err)
	}
	return e, nil
}

// FromTime converts a Go time, interpreted as UTC, to an Epoch.
func FromTime(t time.Time, ls *LeapSeconds) (Epoch, error) {
	t = t.UTC()
	return ToEpoch(Calendar{
		Year: t.Year(), Month: t.Month(), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Nanosecond: t.Nanosecond(), Scale: UTC,
	}, ls)
}

// Time converts e to a UTC Go time. A leap second folds into the first
// second of the next day since time.Time cannot represent it.
func Time(e Epoch, ls *LeapSeconds) (time.Time, error) {
	c, err := ToCalendar(e, UTC, ls)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, c.Nanosecond, time.UTC), nil
}

// daysFromCivil returns days since 1970-01-01 in the proleptic Gregorian
// calendar.
func daysFromCivil(y int, m time.Month, d int) int64 {
	yy := int64(y)
	if m <= time.February {
		yy--
	}
	era := floorDiv(yy, 400)
	yoe := yy - era*400
	mp := (int64(m) + 9) % 12
	doy := (153*mp+2)/5 + int64(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int64) (int, time.Month, int) {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return int(y), time.Month(m), int(d)
}

func daysIn(y int, m time.Month) int {
	return int(daysFromCivil(y, m+1, 1) - daysFromCivil(y, m, 1))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
