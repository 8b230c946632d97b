// Package timescale converts between the civil and astronomical time scales
// used by the ephemeris: JST, UTC, UT1, TAI and TT.
//
// Every scale is carried as a time.Time whose wall clock reads in that scale.
// Only UTC and JST values are true instants in the Go sense; UT1, TAI and TT
// values must not be compared against UTC with Sub or Before.
package timescale

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// JST is Japan Standard Time, UTC+9 with no daylight saving.
var JST = time.FixedZone("JST", 9*60*60)

// TTMinusTAI is the constant offset of Terrestrial Time from TAI.
const TTMinusTAI = 32.184 // s

const (
	jstDigits    = len("20060102150405")
	maxJSTDigits = jstDigits + 9
)

// ParseJST parses the compact form YYYYMMDDhhmmss[fraction] in JST, where the
// optional fraction has up to nine digits.
func ParseJST(s string) (time.Time, error) {
	if len(s) < jstDigits || len(s) > maxJSTDigits {
		return time.Time{}, fmt.Errorf("timescale: %q must have %d to %d digits", s, jstDigits, maxJSTDigits)
	}
	if strings.Trim(s, "0123456789") != "" {
		return time.Time{}, fmt.Errorf("timescale: %q is not all digits", s)
	}

	t, err := time.ParseInLocation("20060102150405", s[:jstDigits], JST)
	if err != nil {
		return time.Time{}, fmt.Errorf("timescale: %q: %w", s, err)
	}
	if frac := s[jstDigits:]; frac != "" {
		frac += strings.Repeat("0", 9-len(frac))
		var ns int
		for _, c := range frac {
			ns = ns*10 + int(c-'0')
		}
		t = t.Add(time.Duration(ns))
	}
	return t, nil
}

// ParseInstant accepts RFC3339 (with optional fractional seconds) or the
// compact JST digit form.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s != "" && strings.Trim(s, "0123456789") == "" {
		return ParseJST(s)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timescale: %q is neither RFC3339 nor YYYYMMDDhhmmss[fraction]", s)
	}
	return t, nil
}

// seconds converts a float number of seconds to a Duration, rounded to the
// nearest nanosecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * 1e9))
}

// UTCToUT1 applies DUT1 = UT1 - UTC (seconds).
func UTCToUT1(utc time.Time, dut1 float64) time.Time {
	return utc.UTC().Add(seconds(dut1))
}

// ErrBeforeLeapTable is returned for instants before 1972, when UTC did not
// yet step by whole leap seconds.
var ErrBeforeLeapTable = errors.New("timescale: instant precedes the leap second table (1972)")

// leapSeconds lists TAI-UTC from each effective date onward.
var leapSeconds = []struct {
	from   time.Time
	offset float64
}{
	{date(1972, 1, 1), 10},
	{date(1972, 7, 1), 11},
	{date(1973, 1, 1), 12},
	{date(1974, 1, 1), 13},
	{date(1975, 1, 1), 14},
	{date(1976, 1, 1), 15},
	{date(1977, 1, 1), 16},
	{date(1978, 1, 1), 17},
	{date(1979, 1, 1), 18},
	{date(1980, 1, 1), 19},
	{date(1981, 7, 1), 20},
	{date(1982, 7, 1), 21},
	{date(1983, 7, 1), 22},
	{date(1985, 7, 1), 23},
	{date(1988, 1, 1), 24},
	{date(1990, 1, 1), 25},
	{date(1991, 1, 1), 26},
	{date(1992, 7, 1), 27},
	{date(1993, 7, 1), 28},
	{date(1994, 7, 1), 29},
	{date(1996, 1, 1), 30},
	{date(1997, 7, 1), 31},
	{date(1999, 1, 1), 32},
	{date(2006, 1, 1), 33},
	{date(2009, 1, 1), 34},
	{date(2012, 7, 1), 35},
	{date(2015, 7, 1), 36},
	{date(2017, 1, 1), 37},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TAIMinusUTC returns the accumulated leap seconds at utc.
func TAIMinusUTC(utc time.Time) (float64, error) {
	if utc.Before(leapSeconds[0].from) {
		return 0, ErrBeforeLeapTable
	}
	offset := leapSeconds[0].offset
	for _, ls := range leapSeconds[1:] {
		if utc.Before(ls.from) {
			break
		}
		offset = ls.offset
	}
	return offset, nil
}

// UTCToTAI adds the leap second count to utc.
func UTCToTAI(utc time.Time) (time.Time, error) {
	dat, err := TAIMinusUTC(utc)
	if err != nil {
		return time.Time{}, err
	}
	return utc.UTC().Add(seconds(dat)), nil
}

// TAIToTT adds the fixed 32.184 s offset.
func TAIToTT(tai time.Time) time.Time {
	return tai.Add(seconds(TTMinusTAI))
}

// JulianDate returns the Julian Date of the wall clock reading of t.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// Format prints t as YYYY-MM-DD hh:mm:ss.nnnnnnnnn in t's own location.
func Format(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000000")
}

// Scales is one instant expressed in every supported scale.
type Scales struct {
	JST time.Time `json:"jst" yaml:"jst"`
	UTC time.Time `json:"utc" yaml:"utc"`
	UT1 time.Time `json:"ut1" yaml:"ut1"`
	TAI time.Time `json:"tai" yaml:"tai"`
	TT  time.Time `json:"tt" yaml:"tt"`
}

// NewScales derives all scales from a UTC instant and DUT1 (seconds).
func NewScales(utc time.Time, dut1 float64) (Scales, error) {
	utc = utc.UTC()
	tai, err := UTCToTAI(utc)
	if err != nil {
		return Scales{}, err
	}
	return Scales{
		JST: utc.In(JST),
		UTC: utc,
		UT1: UTCToUT1(utc, dut1),
		TAI: tai,
		TT:  TAIToTT(tai),
	}, nil
}
