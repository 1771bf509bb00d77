package timescale

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) Epoch {
	t.Helper()
	e, err := Parse(s, nil)
	require.NoError(t, err, s)
	return e
}

func TestFromET(t *testing.T) {
	tests := []struct {
		et   float64
		sec  int64
		nsec int32
	}{
		{0, 0, 0},
		{1.5, 1, 500_000_000},
		{-0.5, -1, 500_000_000},
		{-1e-9, -1, 999_999_999},
		{86400.000000001, 86400, 1},
	}
	for _, tt := range tests {
		sec, nsec := FromET(tt.et).Seconds()
		assert.Equal(t, tt.sec, sec, "et=%v", tt.et)
		assert.Equal(t, tt.nsec, nsec, "et=%v", tt.et)
	}
}

func TestEpochArithmetic(t *testing.T) {
	e := FromSeconds(10, 999_999_999)
	next := e.Add(time.Nanosecond)
	sec, nsec := next.Seconds()
	assert.Equal(t, int64(11), sec)
	assert.Equal(t, int32(0), nsec)
	assert.True(t, e.Before(next))
	assert.True(t, next.After(e))
	assert.Equal(t, 0, e.Compare(e))
	assert.InDelta(t, 1e-9, next.Sub(e), 1e-15)

	back := next.AddSeconds(-11)
	assert.True(t, back.Equal(J2000))
	assert.InDelta(t, -2.25, J2000.AddSeconds(-2.25).ET(), 0)
}

func TestJ2000(t *testing.T) {
	assert.Equal(t, J2000, mustParse(t, "2000-01-01T12:00:00 TDB"))
	assert.Equal(t, "2000-01-01T12:00:00.000000000 TDB", J2000.String())

	jd, err := JulianDate(J2000, TDB, nil)
	require.NoError(t, err)
	assert.Equal(t, 2451545.0, jd)
	assert.Equal(t, J2000, mustParse(t, "JD 2451545.0"))
}

func TestUTCToET(t *testing.T) {
	// 64.184 s of TT-UTC plus the periodic TDB-TT term.
	e := mustParse(t, "2000-01-01T12:00:00")
	assert.InDelta(t, 64.183927284731, e.ET(), 1e-6)

	e = mustParse(t, "2000-01-01T11:58:55.816 UTC")
	assert.InDelta(t, 0, e.ET(), 1e-3)
}

func TestScaleOffsets(t *testing.T) {
	e := mustParse(t, "2020-06-01T00:00:00 TDB")
	get := func(s Scale) float64 {
		v, err := Convert(e, s, nil)
		require.NoError(t, err)
		return v
	}
	assert.InDelta(t, 37, get(TAI)-get(UTC), 1e-6)
	assert.InDelta(t, 19, get(TAI)-get(GPS), 1e-6)
	assert.InDelta(t, 32.184, get(TT)-get(TAI), 1e-6)
	assert.Less(t, math.Abs(get(TDB)-get(TT)), 2e-3)
}

func TestCalendarRoundTrip(t *testing.T) {
	for _, scale := range []Scale{TDB, TT, TAI, GPS, UTC} {
		t.Run(scale.String(), func(t *testing.T) {
			in := Calendar{Year: 2024, Month: time.February, Day: 29, Hour: 17, Minute: 3, Second: 9, Nanosecond: 123_456_789, Scale: scale}
			e, err := ToEpoch(in, nil)
			require.NoError(t, err)
			out, err := ToCalendar(e, scale, nil)
			require.NoError(t, err)
			back, err := ToEpoch(out, nil)
			require.NoError(t, err)
			assert.InDelta(t, 0, back.Sub(e), 2e-9)
			assert.Equal(t, in.Year, out.Year)
			assert.Equal(t, in.Day, out.Day)
			assert.Equal(t, in.Minute, out.Minute)
		})
	}
}

func TestLeapSecond(t *testing.T) {
	before := mustParse(t, "2016-12-31T23:59:59 UTC")
	leap := mustParse(t, "2016-12-31T23:59:60 UTC")
	after := mustParse(t, "2017-01-01T00:00:00 UTC")

	assert.InDelta(t, 1.0, leap.Sub(before), 1e-6)
	assert.InDelta(t, 1.0, after.Sub(leap), 1e-6)

	c, err := ToCalendar(leap.AddSeconds(0.25), UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, 60, c.Second)
	assert.Equal(t, 59, c.Minute)
	assert.Equal(t, 31, c.Day)

	c, err = ToCalendar(after, UTC, nil)
	require.NoError(t, err)
	assert.Equal(t, 2017, c.Year)
	assert.Equal(t, 0, c.Second)

	_, err = Parse("2016-06-30T23:59:60 UTC", nil)
	assert.ErrorIs(t, err, ErrBadCalendar)
	_, err = Parse("2016-12-31T23:59:60 TDB", nil)
	assert.ErrorIs(t, err, ErrBadCalendar)
}

func TestLeapSecondEra(t *testing.T) {
	_, err := Parse("1965-01-01T00:00:00 UTC", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownLeapSecondEra)
	var te *TimeError
	assert.ErrorAs(t, err, &te)

	// The built-in table is open-ended; an explicit bound is honored.
	utc, err := Parse("2030-01-01 UTC", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0, utc.Sub(mustParse(t, "2030-01-01T00:01:09.184 TT")), 1e-6)
	_, bounded := Default().ValidUntil()
	assert.False(t, bounded)

	ls, err := NewLeapSeconds(Default().Entries(), time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), DefaultModel)
	require.NoError(t, err)
	_, err = Parse("2030-01-01 UTC", ls)
	assert.ErrorIs(t, err, ErrUnknownLeapSecondEra)

	_, err = ToCalendar(mustParse(t, "1960-01-01 TDB"), UTC, nil)
	assert.ErrorIs(t, err, ErrUnknownLeapSecondEra)

	// Other scales are not bounded by the table.
	_, err = Parse("1800-01-01T00:00:00 TT", nil)
	assert.NoError(t, err)
}

func TestParseForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ET 0", "ET 0"},
		{"2000-01-01 12:00 TDB", "ET 0"},
		{"2000-01-01T12:00:00.000000001 TDB", "ET 0.000000001"},
		{"2000-01-02 TDB", "ET 43200"},
		{"JD 2451546.0 TDB", "ET 86400"},
		{"2000-01-01T12:00:00Z", "2000-01-01T12:00:00 UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, mustParse(t, tt.want), mustParse(t, tt.in))
		})
	}

	for _, bad := range []string{"", "yesterday", "2000-13-01", "2000-02-30", "ET", "JD x", "2000-01-01T25:00"} {
		_, err := Parse(bad, nil)
		assert.Error(t, err, bad)
	}
}

func TestGoTime(t *testing.T) {
	in := time.Date(2021, time.March, 4, 5, 6, 7, 800, time.UTC)
	e, err := FromTime(in, nil)
	require.NoError(t, err)
	out, err := Time(e, nil)
	require.NoError(t, err)
	assert.WithinDuration(t, in, out, time.Nanosecond)
}

const sampleLSK = `KPL/LSK

\begintext
Leapseconds kernel excerpt.

\begindata

DELTET/DELTA_T_A       =   32.184
DELTET/K               =    1.657D-3
DELTET/EB              =    1.671D-2
DELTET/M               = (  6.239996D0   1.99096871D-7 )

DELTET/DELTA_AT        = ( 10,   @1972-JAN-1
                           11,   @1972-JUL-1
                           12,   @1973-JAN-1 )
DELTET/DELTA_AT       += ( 37,   @2017-JAN-1 )

\begintext
`

func TestParseLSK(t *testing.T) {
	ls, err := ParseLSK(strings.NewReader(sampleLSK))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, ls.Model)

	entries := ls.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, LeapSecond{Year: 1972, Month: time.July, Day: 1, Value: 11}, entries[1])
	assert.Equal(t, 37, entries[3].Value)

	_, bounded := ls.ValidUntil()
	assert.False(t, bounded)

	// Open-ended: far future UTC converts.
	_, err = Parse("2090-01-01 UTC", ls)
	assert.NoError(t, err)

	_, err = ParseLSK(strings.NewReader("\\begindata\nDELTET/K = 1\n"))
	assert.ErrorIs(t, err, ErrParse)
}
