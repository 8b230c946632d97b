package tle

import "time"

// Elements is the mean element set carried by one TLE.
// Angles are in degrees and mean motion in revolutions per day, exactly as
// written in the element set. Values are immutable once parsed.
type Elements struct {
	SatNum         int
	Classification string
	IntlDesignator string

	Epoch     time.Time // UTC
	EpochYear int       // four-digit year
	EpochDay  float64   // fractional day of year, 1-based

	MeanMotionDot  float64 // rev/day², the ṅ/2 field
	MeanMotionDDot float64 // rev/day³, the n̈/6 field
	BStar          float64 // 1/earth radii

	Inclination  float64 // deg
	RAAN         float64 // deg
	Eccentricity float64
	ArgPerigee   float64 // deg
	MeanAnomaly  float64 // deg
	MeanMotion   float64 // rev/day

	ElementSetNumber int
	RevNumber        int
}

// Entry is one named element set from a catalog.
type Entry struct {
	NORADID  int      `json:"norad_id" yaml:"norad_id"`
	Name     string   `json:"name" yaml:"name"`
	Line1    string   `json:"line1" yaml:"line1"`
	Line2    string   `json:"line2" yaml:"line2"`
	Elements Elements `json:"-" yaml:"-"`
}

// Epoch returns the element set epoch.
func (e Entry) Epoch() time.Time {
	return e.Elements.Epoch
}

// EpochRange represents the minimum and maximum epoch times in a dataset.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Dataset is a parsed catalog together with where and when it was loaded.
type Dataset struct {
	Source     string
	FetchedAt  time.Time
	EpochRange EpochRange
	Entries    []Entry
}

// NewDataset builds a Dataset and computes its epoch range.
func NewDataset(source string, fetchedAt time.Time, entries []Entry) *Dataset {
	ds := &Dataset{
		Source:    source,
		FetchedAt: fetchedAt,
		Entries:   entries,
	}
	for i, e := range entries {
		ep := e.Epoch()
		if i == 0 || ep.Before(ds.EpochRange.Min) {
			ds.EpochRange.Min = ep
		}
		if i == 0 || ep.After(ds.EpochRange.Max) {
			ds.EpochRange.Max = ep
		}
	}
	return ds
}

// BySatellite returns the entries for one catalog number, in file order.
func (ds *Dataset) BySatellite(noradID int) []Entry {
	var out []Entry
	for _, e := range ds.Entries {
		if e.NORADID == noradID {
			out = append(out, e)
		}
	}
	return out
}
