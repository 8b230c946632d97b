// Package passes predicts when a satellite is above an observer's horizon.
package passes

import (
	"context"
	"fmt"
	"time"

	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/transform"
)

// GroundTrackPoint is a sub-satellite position at a specific time during a pass.
type GroundTrackPoint struct {
	Time      time.Time `json:"time" yaml:"time"`
	Lat       float64   `json:"lat_deg" yaml:"lat_deg"`
	Lon       float64   `json:"lon_deg" yaml:"lon_deg"`
	Height    float64   `json:"height_m" yaml:"height_m"`
	Elevation float64   `json:"elevation_deg" yaml:"elevation_deg"` // above the observer's horizon
}

// Pass describes one pass over the observer.
type Pass struct {
	Start           time.Time          `json:"start" yaml:"start"`
	Max             time.Time          `json:"max" yaml:"max"`
	End             time.Time          `json:"end" yaml:"end"`
	DurationSeconds float64            `json:"duration_s" yaml:"duration_s"`
	MaxElevation    float64            `json:"max_elevation_deg" yaml:"max_elevation_deg"`
	AzimuthAtMax    float64            `json:"max_azimuth_deg" yaml:"max_azimuth_deg"`
	StartAzimuth    float64            `json:"start_azimuth_deg" yaml:"start_azimuth_deg"`
	EndAzimuth      float64            `json:"end_azimuth_deg" yaml:"end_azimuth_deg"`
	GroundTrack     []GroundTrackPoint `json:"ground_track" yaml:"ground_track"`
}

// Locator returns the fix at an instant. *ephemeris.Generator implements it.
type Locator interface {
	FixAt(ctx context.Context, utc time.Time) (ephemeris.Fix, error)
}

// Request holds the parameters for a pass prediction.
type Request struct {
	Observer     transform.Geodetic
	Start        time.Time
	Horizon      time.Duration
	MinElevation float64 // deg
	MaxPasses    int
}

const (
	coarseStep      = 30 * time.Second
	fineStep        = time.Second
	groundTrackStep = 10 * time.Second
	minPassDur      = 10 * time.Second
)

// Predict scans [Start, Start+Horizon) for passes above MinElevation: a
// coarse scan finds the satellite above the horizon, then a one-second scan
// backs up to the rise and follows the pass to its set. The first fix error
// aborts the scan.
func Predict(ctx context.Context, loc Locator, req Request) ([]Pass, error) {
	end := req.Start.Add(req.Horizon)
	var passes []Pass

	t := req.Start
	for t.Before(end) && (req.MaxPasses <= 0 || len(passes) < req.MaxPasses) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s, err := sampleAt(ctx, loc, req.Observer, t)
		if err != nil {
			return nil, err
		}
		if s.look.Elevation <= 0 {
			t = t.Add(coarseStep)
			continue
		}

		// Found a candidate window; fine scan to find the full pass.
		pass, windowEnd, err := refine(ctx, loc, req, t, end)
		if err != nil {
			return nil, err
		}
		if pass != nil && pass.End.Sub(pass.Start) >= minPassDur {
			passes = append(passes, *pass)
		}
		// Jump past the end of this window.
		t = windowEnd.Add(coarseStep)
	}
	return passes, nil
}

type sample struct {
	look transform.LookAngle
	geo  transform.Geodetic
}

func sampleAt(ctx context.Context, loc Locator, obs transform.Geodetic, t time.Time) (sample, error) {
	fix, err := loc.FixAt(ctx, t)
	if err != nil {
		return sample{}, fmt.Errorf("pass scan at %s: %w", t.UTC().Format(time.RFC3339), err)
	}
	return sample{look: transform.LookAngles(obs, fix.ECEF), geo: fix.Geodetic}, nil
}

// refine scans at one-second resolution around a coarse hit. It returns the
// pass (nil when the satellite never rose above MinElevation) and the time
// the scan stopped.
func refine(ctx context.Context, loc Locator, req Request, coarseHit, windowEnd time.Time) (*Pass, time.Time, error) {
	t := coarseHit.Add(-coarseStep)
	if t.Before(req.Start) {
		t = req.Start
	}

	var (
		p         Pass
		rose, set bool
		wasAbove  bool
		aboveZero bool
	)
	for ; t.Before(windowEnd); t = t.Add(fineStep) {
		if err := ctx.Err(); err != nil {
			return nil, t, err
		}
		s, err := sampleAt(ctx, loc, req.Observer, t)
		if err != nil {
			return nil, t, err
		}
		el := s.look.Elevation
		above := el >= req.MinElevation
		aboveZero = aboveZero || el > 0

		if above && !wasAbove && !rose {
			rose = true
			p.Start, p.StartAzimuth = t, s.look.Azimuth
			p.Max, p.MaxElevation, p.AzimuthAtMax = t, el, s.look.Azimuth
		}
		if above && rose {
			if el > p.MaxElevation {
				p.Max, p.MaxElevation, p.AzimuthAtMax = t, el, s.look.Azimuth
			}
			if t.Sub(p.Start)%groundTrackStep == 0 {
				p.GroundTrack = append(p.GroundTrack, GroundTrackPoint{
					Time:      t,
					Lat:       s.geo.Lat,
					Lon:       s.geo.Lon,
					Height:    s.geo.Height,
					Elevation: el,
				})
			}
		}
		if !above && wasAbove && rose {
			p.End, p.EndAzimuth = t, s.look.Azimuth
			set = true
			break
		}
		// Below the horizon again without reaching MinElevation.
		if !rose && aboveZero && el <= 0 {
			break
		}
		wasAbove = above
	}

	if !rose {
		return nil, t, nil
	}
	if !set {
		// Still above at the end of the window: close the pass there.
		p.End, p.EndAzimuth = t, p.AzimuthAtMax
		if s, err := sampleAt(ctx, loc, req.Observer, t); err == nil {
			p.EndAzimuth = s.look.Azimuth
		}
	}
	p.DurationSeconds = p.End.Sub(p.Start).Seconds()
	return &p, t, nil
}
