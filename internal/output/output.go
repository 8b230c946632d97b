// Package output renders fixes as the classic text block, JSON or YAML.
package output

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/timescale"
	"github.com/star/issblh/internal/transform"
)

// Format selects the rendering.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ErrFormat is returned for an unknown format name.
var ErrFormat = errors.New("output: unknown format")

// ParseFormat accepts text, json and yaml in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, s)
	}
}

// Report is a fix plus the optional look angles from a ground observer.
type Report struct {
	ephemeris.Fix `yaml:",inline"`
	Observer      *transform.Geodetic  `json:"observer,omitempty" yaml:"observer,omitempty"`
	Look          *transform.LookAngle `json:"look,omitempty" yaml:"look,omitempty"`
}

// NewReport wraps fix and, when observer is non-nil, adds its look angles.
func NewReport(fix ephemeris.Fix, observer *transform.Geodetic) Report {
	r := Report{Fix: fix}
	if observer != nil {
		obs := *observer
		look := transform.LookAngles(obs, fix.ECEF)
		r.Observer = &obs
		r.Look = &look
	}
	return r
}

// Render writes one report in the given format.
func Render(w io.Writer, r Report, format Format) error {
	switch format {
	case Text:
		return renderText(w, r)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
}

func renderText(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)
	f := r.Fix

	fmt.Fprintf(bw, "%s JST\n", timescale.Format(f.Time.JST))
	fmt.Fprintf(bw, "%s UTC\n", timescale.Format(f.Time.UTC))
	fmt.Fprintf(bw, "%s UT1\n", timescale.Format(f.Time.UT1))
	fmt.Fprintf(bw, "%s TAI\n", timescale.Format(f.Time.TAI))
	fmt.Fprintf(bw, "%s TT\n", timescale.Format(f.Time.TT))
	fmt.Fprintln(bw, "---")
	fmt.Fprintf(bw, "EOP: %s %11.8f %11.8f %11.8f %11.8f\n",
		f.EOP.Time.UTC().Format("2006-01-02T15:04:05Z"), f.EOP.PMX, f.EOP.PMY, f.EOP.DUT1, f.EOP.LOD)
	fmt.Fprintln(bw, "---")
	fmt.Fprintf(bw, "TLE: %s\n", f.TLE.Line1)
	fmt.Fprintf(bw, "     %s\n", f.TLE.Line2)
	fmt.Fprintln(bw, "---")
	fmt.Fprintf(bw, "TEME: POS = [%16.8f, %16.8f, %16.8f]\n", f.TEME.X, f.TEME.Y, f.TEME.Z)
	fmt.Fprintf(bw, "      VEL = [%16.8f, %16.8f, %16.8f]\n", f.TEME.VX, f.TEME.VY, f.TEME.VZ)
	fmt.Fprintln(bw, "---")
	fmt.Fprintln(bw, "WGS84(BLH):")
	fmt.Fprintf(bw, "     BETA(Latitude) = %9.4f °\n", f.Geodetic.Lat)
	fmt.Fprintf(bw, "  LAMBDA(Longitude) = %9.4f °\n", f.Geodetic.Lon)
	fmt.Fprintf(bw, "             HEIGHT = %9.4f km\n", f.Geodetic.Height/1000.0)
	fmt.Fprintf(bw, "           VELOCITY = %9.4f km/s\n", f.Geodetic.Speed)

	if r.Look != nil {
		fmt.Fprintln(bw, "---")
		fmt.Fprintf(bw, "LOOK(%.4f, %.4f, %.1f m):\n", r.Observer.Lat, r.Observer.Lon, r.Observer.Height)
		fmt.Fprintf(bw, "            AZIMUTH = %9.4f °\n", r.Look.Azimuth)
		fmt.Fprintf(bw, "          ELEVATION = %9.4f °\n", r.Look.Elevation)
		fmt.Fprintf(bw, "              RANGE = %9.4f km\n", r.Look.Range)
	}
	return bw.Flush()
}
