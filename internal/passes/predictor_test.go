package passes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/star/issblh/internal/eop"
	"github.com/star/issblh/internal/ephemeris"
	"github.com/star/issblh/internal/tle"
	"github.com/star/issblh/internal/transform"
)

const (
	issLine1 = "1 25544U 98067A   21147.51562500  .00001264  00000-0  31275-4 0  9994"
	issLine2 = "2 25544  51.6435  94.3410 0003404  21.4512 101.3276 15.48949830285526"
)

var (
	tokyo = transform.Geodetic{Lat: 35.6812, Lon: 139.7671, Height: 40}
	start = time.Date(2021, 5, 27, 12, 0, 0, 0, time.UTC)
)

func issGenerator(t *testing.T) *ephemeris.Generator {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ds, err := tle.Load([]byte(issLine1+"\n"+issLine2+"\n"), "test", start, logger)
	if err != nil {
		t.Fatal(err)
	}
	store := tle.NewStore()
	store.Set(ds)
	return ephemeris.NewGenerator(store, eop.Static{}, ephemeris.Config{}, logger)
}

func TestPredictISS(t *testing.T) {
	req := Request{
		Observer:  tokyo,
		Start:     start,
		Horizon:   24 * time.Hour,
		MaxPasses: 10,
	}
	passes, err := Predict(context.Background(), issGenerator(t), req)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// ISS in LEO should have multiple passes over 24h from Tokyo.
	if len(passes) < 2 {
		t.Fatalf("expected several ISS passes over Tokyo in 24h, got %d", len(passes))
	}

	var prevEnd time.Time
	for i, p := range passes {
		if p.DurationSeconds < 10 || p.DurationSeconds > 15*60 {
			t.Errorf("pass %d: duration %.1fs implausible", i, p.DurationSeconds)
		}
		if p.MaxElevation <= 0 || p.MaxElevation > 90 {
			t.Errorf("pass %d: max elevation %.2f out of range", i, p.MaxElevation)
		}
		for _, az := range []float64{p.AzimuthAtMax, p.StartAzimuth, p.EndAzimuth} {
			if az < 0 || az >= 360 {
				t.Errorf("pass %d: azimuth %.2f out of range", i, az)
			}
		}
		if p.Start.Before(req.Start) || p.Max.Before(p.Start) || p.End.Before(p.Max) {
			t.Errorf("pass %d: time ordering violated: start=%v max=%v end=%v", i, p.Start, p.Max, p.End)
		}
		if p.Start.Before(prevEnd) {
			t.Errorf("pass %d overlaps the previous pass", i)
		}
		prevEnd = p.End

		if len(p.GroundTrack) == 0 {
			t.Errorf("pass %d: expected ground track points, got none", i)
		}
		for j, gt := range p.GroundTrack {
			if gt.Height < 350_000 || gt.Height > 460_000 {
				t.Errorf("pass %d gt %d: height %.0f m out of ISS range", i, j, gt.Height)
			}
			if gt.Elevation < 0 || gt.Elevation > 90 {
				t.Errorf("pass %d gt %d: elevation %.2f out of range", i, j, gt.Elevation)
			}
		}

		t.Logf("pass %d: start=%v maxEl=%.1f° az=%.1f° dur=%.0fs groundTrack=%d pts",
			i, p.Start.Format(time.RFC3339), p.MaxElevation, p.AzimuthAtMax, p.DurationSeconds, len(p.GroundTrack))
	}
}

func TestPredictMinElevationFilter(t *testing.T) {
	gen := issGenerator(t)
	low, err := Predict(context.Background(), gen, Request{Observer: tokyo, Start: start, Horizon: 48 * time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	high, err := Predict(context.Background(), gen, Request{Observer: tokyo, Start: start, Horizon: 48 * time.Hour, MinElevation: 30})
	if err != nil {
		t.Fatal(err)
	}
	if len(high) > len(low) {
		t.Errorf("min elevation 30° found %d passes, more than %d at 0°", len(high), len(low))
	}
	for i, p := range high {
		if p.MaxElevation < 30 {
			t.Errorf("pass %d: max elevation %.2f below filter", i, p.MaxElevation)
		}
		for _, gt := range p.GroundTrack {
			if gt.Elevation < 30 {
				t.Errorf("pass %d: ground track point at %.2f° below filter", i, gt.Elevation)
			}
		}
	}
}

func TestPredictMaxPasses(t *testing.T) {
	passes, err := Predict(context.Background(), issGenerator(t), Request{
		Observer:  tokyo,
		Start:     start,
		Horizon:   72 * time.Hour,
		MaxPasses: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(passes) != 1 {
		t.Errorf("got %d passes, want 1", len(passes))
	}
}

func TestPredictCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Predict(ctx, issGenerator(t), Request{Observer: tokyo, Start: start, Horizon: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type failingLocator struct{ err error }

func (f failingLocator) FixAt(context.Context, time.Time) (ephemeris.Fix, error) {
	return ephemeris.Fix{}, f.err
}

func TestPredictFixError(t *testing.T) {
	want := &eop.OutOfRangeError{}
	_, err := Predict(context.Background(), failingLocator{err: want}, Request{Observer: tokyo, Start: start, Horizon: time.Hour})
	var oor *eop.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Errorf("error = %v, want *eop.OutOfRangeError", err)
	}
}
