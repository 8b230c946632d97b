package tle

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// LineLength is the fixed width of both element lines.
const LineLength = 69

// ErrChecksum is returned when a line's modulo-10 checksum does not match.
var ErrChecksum = errors.New("checksum mismatch")

// ParseError describes a field that could not be decoded.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tle line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Checksum computes the modulo-10 checksum of the first 68 columns:
// digits count their value, minus signs count one, everything else zero.
func Checksum(line string) int {
	sum := 0
	n := len(line)
	if n > LineLength-1 {
		n = LineLength - 1
	}
	for i := 0; i < n; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func verifyLine(line string, num int) error {
	if len(line) != LineLength {
		return &ParseError{Line: num, Field: "length", Err: fmt.Errorf("got %d columns, want %d", len(line), LineLength)}
	}
	if line[0] != byte('0'+num) || line[1] != ' ' {
		return &ParseError{Line: num, Field: "line number", Err: fmt.Errorf("line starts with %q", line[:2])}
	}
	want := line[LineLength-1]
	if want < '0' || want > '9' {
		return &ParseError{Line: num, Field: "checksum", Err: fmt.Errorf("non-digit checksum %q", want)}
	}
	if got := Checksum(line); got != int(want-'0') {
		return &ParseError{Line: num, Field: "checksum", Err: fmt.Errorf("%w: computed %d, line has %c", ErrChecksum, got, want)}
	}
	return nil
}

// ParseElements decodes a two-line element set into Elements.
// Both lines must be exactly 69 columns with valid checksums.
func ParseElements(line1, line2 string) (Elements, error) {
	line1 = strings.TrimRight(line1, "\r\n")
	line2 = strings.TrimRight(line2, "\r\n")
	if err := verifyLine(line1, 1); err != nil {
		return Elements{}, err
	}
	if err := verifyLine(line2, 2); err != nil {
		return Elements{}, err
	}

	var (
		el  Elements
		err error
	)
	f := fieldReader{}

	el.SatNum = f.satnum(1, line1[2:7])
	el.Classification = string(line1[7])
	el.IntlDesignator = strings.TrimSpace(line1[9:17])
	yy := f.integer(1, "epoch year", line1[18:20])
	el.EpochDay = f.float(1, "epoch day", line1[20:32])
	el.MeanMotionDot = f.float(1, "mean motion dot", line1[33:43])
	el.MeanMotionDDot = f.exp(1, "mean motion ddot", line1[44:52])
	el.BStar = f.exp(1, "bstar", line1[53:61])
	el.ElementSetNumber = f.integerOrZero(1, "element set number", line1[64:68])

	sat2 := f.satnum(2, line2[2:7])
	el.Inclination = f.float(2, "inclination", line2[8:16])
	el.RAAN = f.float(2, "raan", line2[17:25])
	el.Eccentricity = f.float(2, "eccentricity", "0."+strings.TrimSpace(line2[26:33]))
	el.ArgPerigee = f.float(2, "argument of perigee", line2[34:42])
	el.MeanAnomaly = f.float(2, "mean anomaly", line2[43:51])
	el.MeanMotion = f.float(2, "mean motion", line2[52:63])
	el.RevNumber = f.integerOrZero(2, "revolution number", line2[63:68])

	if f.err != nil {
		return Elements{}, f.err
	}
	if sat2 != el.SatNum {
		return Elements{}, &ParseError{Line: 2, Field: "satellite number", Err: fmt.Errorf("%d does not match line 1 (%d)", sat2, el.SatNum)}
	}

	if yy < 57 {
		el.EpochYear = 2000 + yy
	} else {
		el.EpochYear = 1900 + yy
	}
	if el.Epoch, err = epochTime(el.EpochYear, el.EpochDay); err != nil {
		return Elements{}, &ParseError{Line: 1, Field: "epoch", Err: err}
	}
	if err := el.Validate(); err != nil {
		return Elements{}, err
	}
	return el, nil
}

// Validate checks the physical ranges of the element set.
func (el Elements) Validate() error {
	switch {
	case math.IsNaN(el.Eccentricity) || el.Eccentricity < 0 || el.Eccentricity >= 1:
		return &ParseError{Line: 2, Field: "eccentricity", Err: fmt.Errorf("%g outside [0,1)", el.Eccentricity)}
	case math.IsNaN(el.Inclination) || el.Inclination < 0 || el.Inclination > 180:
		return &ParseError{Line: 2, Field: "inclination", Err: fmt.Errorf("%g outside [0,180]", el.Inclination)}
	case !(el.MeanMotion > 0):
		return &ParseError{Line: 2, Field: "mean motion", Err: fmt.Errorf("%g is not positive", el.MeanMotion)}
	}
	return nil
}

// epochTime converts a year and 1-based fractional day of year to UTC.
func epochTime(year int, day float64) (time.Time, error) {
	if day < 1 || day >= 367 {
		return time.Time{}, fmt.Errorf("day of year %g out of range", day)
	}
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	whole := math.Floor(day)
	frac := day - whole
	t := start.AddDate(0, 0, int(whole)-1)
	return t.Add(time.Duration(math.Round(frac * 86400e9))), nil
}

// fieldReader accumulates the first decode error so the parser can read
// every column without checking after each one.
type fieldReader struct {
	err error
}

func (f *fieldReader) fail(line int, field string, err error) {
	if f.err == nil {
		f.err = &ParseError{Line: line, Field: field, Err: err}
	}
}

func (f *fieldReader) float(line int, field, s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		f.fail(line, field, err)
	}
	return v
}

func (f *fieldReader) integer(line int, field, s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		f.fail(line, field, err)
	}
	return v
}

func (f *fieldReader) integerOrZero(line int, field, s string) int {
	if strings.TrimSpace(s) == "" {
		return 0
	}
	return f.integer(line, field, s)
}

// satnum decodes a catalog number, including the Alpha-5 form where a
// leading letter (I and O skipped) stands for 10..33 ten-thousands.
func (f *fieldReader) satnum(line int, s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		f.fail(line, "satellite number", errors.New("empty"))
		return 0
	}
	c := s[0]
	if c >= 'A' && c <= 'Z' && c != 'I' && c != 'O' {
		lead := int(c-'A') + 10
		if c > 'I' {
			lead--
		}
		if c > 'O' {
			lead--
		}
		return lead*10000 + f.integer(line, "satellite number", s[1:])
	}
	return f.integer(line, "satellite number", s)
}

// exp decodes the implied-decimal exponent form " 12345-3" = 0.12345e-3.
func (f *fieldReader) exp(line int, field, s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	sign := 1.0
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if len(s) < 3 {
		f.fail(line, field, fmt.Errorf("malformed exponent field %q", s))
		return 0
	}
	mant, ex := s[:len(s)-2], s[len(s)-2:]
	m, err := strconv.ParseFloat("0."+strings.TrimSpace(mant), 64)
	if err != nil {
		f.fail(line, field, err)
		return 0
	}
	e, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(ex, "+")))
	if err != nil {
		f.fail(line, field, err)
		return 0
	}
	return sign * m * math.Pow(10, float64(e))
}
