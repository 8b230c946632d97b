// Package eop loads Earth orientation parameters and interpolates them to
// an instant.
package eop

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sample holds the Earth orientation parameters at one instant.
type Sample struct {
	Time time.Time `json:"time" yaml:"time"`
	PMX  float64   `json:"pm_x_arcsec" yaml:"pm_x_arcsec"` // polar motion x
	PMY  float64   `json:"pm_y_arcsec" yaml:"pm_y_arcsec"` // polar motion y
	DUT1 float64   `json:"dut1_s" yaml:"dut1_s"`           // UT1 - UTC
	LOD  float64   `json:"lod_s" yaml:"lod_s"`             // excess length of day
}

// Provider returns the Earth orientation parameters at an instant.
type Provider interface {
	At(t time.Time) (Sample, error)
}

// Static is a Provider that returns the same values for every instant.
type Static Sample

// At returns s stamped with t.
func (s Static) At(t time.Time) (Sample, error) {
	out := Sample(s)
	out.Time = t
	return out, nil
}

// OutOfRangeError reports an instant outside the loaded table.
type OutOfRangeError struct {
	At    time.Time
	First time.Time
	Last  time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("eop: %s outside table range [%s, %s]",
		e.At.UTC().Format(time.RFC3339), e.First.UTC().Format(time.RFC3339), e.Last.UTC().Format(time.RFC3339))
}

// ErrEmpty is returned when a table has no data rows.
var ErrEmpty = errors.New("eop: table has no rows")

// Table is a time-ordered set of EOP rows. It is immutable after Load and
// safe for concurrent use.
type Table struct {
	rows []Sample
}

var header = []string{"date", "pm_x", "pm_y", "dut1", "lod"}

// Load reads CSV with the header date,pm_x,pm_y,dut1,lod. The date column is
// YYYY-MM-DD (00:00 UTC) or RFC3339. Lines starting with # are ignored.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("eop: reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	for i, name := range header {
		if strings.ToLower(strings.TrimSpace(records[0][i])) != name {
			return nil, fmt.Errorf("eop: header column %d is %q, want %q", i+1, records[0][i], name)
		}
	}

	rows := make([]Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("eop: row %d: %w", i+2, err)
		}
		rows = append(rows, s)
	}
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	for i := 1; i < len(rows); i++ {
		if rows[i].Time.Equal(rows[i-1].Time) {
			return nil, fmt.Errorf("eop: duplicate row for %s", rows[i].Time.Format(time.RFC3339))
		}
	}
	return &Table{rows: rows}, nil
}

// LoadFile reads a table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("eop: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func parseRow(rec []string) (Sample, error) {
	var s Sample
	var err error
	if s.Time, err = parseDate(strings.TrimSpace(rec[0])); err != nil {
		return Sample{}, err
	}
	fields := []*float64{&s.PMX, &s.PMY, &s.DUT1, &s.LOD}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %s: %w", header[i+1], err)
		}
		*dst = v
	}
	return s, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t.UTC(), nil
}

// Span returns the first and last row times.
func (t *Table) Span() (first, last time.Time) {
	return t.rows[0].Time, t.rows[len(t.rows)-1].Time
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// At returns the parameters at at, linearly interpolated between the two
// bracketing rows. An instant that matches a row returns that row.
func (t *Table) At(at time.Time) (Sample, error) {
	first, last := t.Span()
	if at.Before(first) || at.After(last) {
		return Sample{}, &OutOfRangeError{At: at, First: first, Last: last}
	}

	// First row strictly after at.
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Time.After(at) })
	lo := t.rows[i-1]
	if lo.Time.Equal(at) || i == len(t.rows) {
		lo.Time = at
		return lo, nil
	}
	hi := t.rows[i]

	f := float64(at.Sub(lo.Time)) / float64(hi.Time.Sub(lo.Time))
	lerp := func(a, b float64) float64 { return a + (b-a)*f }
	dut1 := lerp(lo.DUT1, hi.DUT1)
	if math.Abs(hi.DUT1-lo.DUT1) > 0.5 {
		// A leap second lies between the rows; DUT1 steps rather than drifts.
		dut1 = lo.DUT1
	}
	return Sample{
		Time: at,
		PMX:  lerp(lo.PMX, hi.PMX),
		PMY:  lerp(lo.PMY, hi.PMY),
		DUT1: dut1,
		LOD:  lerp(lo.LOD, hi.LOD),
	}, nil
}
