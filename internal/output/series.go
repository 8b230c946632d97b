package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/star/issblh/internal/ephemeris"
)

// seriesRow is the compact per-fix record of a series.
type seriesRow struct {
	UTC    time.Time `json:"utc" yaml:"utc"`
	Lat    float64   `json:"lat_deg" yaml:"lat_deg"`
	Lon    float64   `json:"lon_deg" yaml:"lon_deg"`
	Height float64   `json:"height_km" yaml:"height_km"`
	Speed  float64   `json:"speed_kms" yaml:"speed_kms"`
	X      float64   `json:"x_km" yaml:"x_km"`
	Y      float64   `json:"y_km" yaml:"y_km"`
	Z      float64   `json:"z_km" yaml:"z_km"`
}

type series struct {
	NORADID int         `json:"norad_id" yaml:"norad_id"`
	Line1   string      `json:"line1" yaml:"line1"`
	Line2   string      `json:"line2" yaml:"line2"`
	Gravity string      `json:"gravity" yaml:"gravity"`
	Fixes   []seriesRow `json:"fixes" yaml:"fixes"`
}

func newSeries(fixes []ephemeris.Fix) series {
	var s series
	if len(fixes) > 0 {
		s.NORADID = fixes[0].TLE.NORADID
		s.Line1 = fixes[0].TLE.Line1
		s.Line2 = fixes[0].TLE.Line2
		s.Gravity = fixes[0].Gravity
	}
	s.Fixes = make([]seriesRow, len(fixes))
	for i, f := range fixes {
		s.Fixes[i] = seriesRow{
			UTC:    f.Time.UTC,
			Lat:    f.Geodetic.Lat,
			Lon:    f.Geodetic.Lon,
			Height: f.Geodetic.Height / 1000.0,
			Speed:  f.Geodetic.Speed,
			X:      f.ECEF.X,
			Y:      f.ECEF.Y,
			Z:      f.ECEF.Z,
		}
	}
	return s
}

// RenderSeries writes a series of fixes, one row per fix in text format.
func RenderSeries(w io.Writer, fixes []ephemeris.Fix, format Format) error {
	s := newSeries(fixes)
	switch format {
	case Text:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "UTC\tLAT(°)\tLON(°)\tHEIGHT(km)\tVEL(km/s)\t")
		for _, row := range s.Fixes {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
				row.UTC.Format("2006-01-02T15:04:05.000Z"), row.Lat, row.Lon, row.Height, row.Speed)
		}
		return tw.Flush()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}
