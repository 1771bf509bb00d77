package timescale

import (
	"fmt"
	"sort"
	"time"
)

// LeapSecond records that ΔAT = TAI - UTC takes Value from the start of the
// given UTC date.
type LeapSecond struct {
	Year  int
	Month time.Month
	Day   int
	Value int
}

// LeapSeconds is an immutable ΔAT table plus the TDB model constants.
// A nil *LeapSeconds behaves like Default().
type LeapSeconds struct {
	entries []leapEntry
	// validUntil bounds UTC conversions after the last entry; zero means
	// the last ΔAT holds indefinitely.
	validUntil Epoch
	bounded    bool
	Model      Model
}

type leapEntry struct {
	LeapSecond
	start Epoch // naive UTC seconds of the effective midnight
}

var builtin = []LeapSecond{
	{1972, time.January, 1, 10}, {1972, time.July, 1, 11},
	{1973, time.January, 1, 12}, {1974, time.January, 1, 13},
	{1975, time.January, 1, 14}, {1976, time.January, 1, 15},
	{1977, time.January, 1, 16}, {1978, time.January, 1, 17},
	{1979, time.January, 1, 18}, {1980, time.January, 1, 19},
	{1981, time.July, 1, 20}, {1982, time.July, 1, 21},
	{1983, time.July, 1, 22}, {1985, time.July, 1, 23},
	{1988, time.January, 1, 24}, {1990, time.January, 1, 25},
	{1991, time.January, 1, 26}, {1992, time.July, 1, 27},
	{1993, time.July, 1, 28}, {1994, time.July, 1, 29},
	{1996, time.January, 1, 30}, {1997, time.July, 1, 31},
	{1999, time.January, 1, 32}, {2006, time.January, 1, 33},
	{2009, time.January, 1, 34}, {2012, time.July, 1, 35},
	{2015, time.July, 1, 36}, {2017, time.January, 1, 37},
}

var defaultTable = mustTable(builtin)

// Default returns the built-in table. The last ΔAT holds indefinitely.
func Default() *LeapSeconds {
	return defaultTable
}

func mustTable(entries []LeapSecond) *LeapSeconds {
	ls, err := NewLeapSeconds(entries, time.Time{}, DefaultModel)
	if err != nil {
		panic(err)
	}
	return ls
}

// NewLeapSeconds builds a table. Entries are sorted by date; ΔAT must not
// decrease. A zero validUntil leaves the table open-ended.
func NewLeapSeconds(entries []LeapSecond, validUntil time.Time, m Model) (*LeapSeconds, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("leap second table is empty")
	}
	ls := &LeapSeconds{Model: m}
	for _, e := range entries {
		c := Calendar{Year: e.Year, Month: e.Month, Day: e.Day, Scale: UTC}
		if err := c.validate(); err != nil {
			return nil, err
		}
		ls.entries = append(ls.entries, leapEntry{LeapSecond: e, start: c.naive()})
	}
	sort.Slice(ls.entries, func(i, j int) bool {
		return ls.entries[i].start.Before(ls.entries[j].start)
	})
	for i := 1; i < len(ls.entries); i++ {
		if ls.entries[i].Value < ls.entries[i-1].Value {
			return nil, fmt.Errorf("ΔAT decreases at %04d-%02d-%02d",
				ls.entries[i].Year, int(ls.entries[i].Month), ls.entries[i].Day)
		}
	}
	if !validUntil.IsZero() {
		u := validUntil.UTC()
		ls.validUntil = Calendar{
			Year: u.Year(), Month: u.Month(), Day: u.Day(),
			Hour: u.Hour(), Minute: u.Minute(), Second: u.Second(), Scale: UTC,
		}.naive()
		ls.bounded = true
	}
	return ls, nil
}

// Entries returns a copy of the table.
func (ls *LeapSeconds) Entries() []LeapSecond {
	ls = ls.orDefault()
	out := make([]LeapSecond, len(ls.entries))
	for i, e := range ls.entries {
		out[i] = e.LeapSecond
	}
	return out
}

// ValidUntil returns the end of the table's validity, or false when the
// table is open-ended.
func (ls *LeapSeconds) ValidUntil() (time.Time, bool) {
	ls = ls.orDefault()
	if !ls.bounded {
		return time.Time{}, false
	}
	c := calendarOf(ls.validUntil, UTC)
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC), true
}

func (ls *LeapSeconds) orDefault() *LeapSeconds {
	if ls == nil {
		return defaultTable
	}
	return ls
}

func (ls *LeapSeconds) model() Model {
	return ls.orDefault().Model
}

// deltaAT returns TAI - UTC at a naive UTC instant.
func (ls *LeapSeconds) deltaAT(utc Epoch) (int, error) {
	ls = ls.orDefault()
	if utc.Before(ls.entries[0].start) {
		return 0, fmt.Errorf("%w: %v precedes the first leap second entry", ErrUnknownLeapSecondEra, calendarOf(utc, UTC))
	}
	if ls.bounded && !utc.Before(ls.validUntil) {
		return 0, fmt.Errorf("%w: %v is past the table's validity", ErrUnknownLeapSecondEra, calendarOf(utc, UTC))
	}
	i := sort.Search(len(ls.entries), func(i int) bool {
		return ls.entries[i].start.After(utc)
	})
	return ls.entries[i-1].Value, nil
}

// utcFromTAI maps a TAI instant to naive UTC seconds.
func (ls *LeapSeconds) utcFromTAI(tai Epoch) (Epoch, bool, error) {
	ls = ls.orDefault()
	taiStart := func(i int) Epoch {
		return ls.entries[i].start.AddSeconds(float64(ls.entries[i].Value))
	}
	i := sort.Search(len(ls.entries), func(i int) bool {
		return taiStart(i).After(tai)
	}) - 1
	if i < 0 {
		return Epoch{}, false, fmt.Errorf("%w: TAI %v precedes the first leap second entry",
			ErrUnknownLeapSecondEra, calendarOf(tai, TAI))
	}
	dat := ls.entries[i].Value
	if ls.bounded && !tai.Before(ls.validUntil.AddSeconds(float64(dat))) {
		return Epoch{}, false, fmt.Errorf("%w: TAI %v is past the table's validity",
			ErrUnknownLeapSecondEra, calendarOf(tai, TAI))
	}
	if i+1 < len(ls.entries) {
		step := ls.entries[i+1].Value - dat
		if step > 0 && !tai.Before(taiStart(i+1).AddSeconds(-float64(step))) {
			return tai.AddSeconds(-float64(dat) - 1), true, nil
		}
	}
	return tai.AddSeconds(-float64(dat)), false, nil
}
