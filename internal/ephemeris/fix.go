// Package ephemeris runs the full chain from a UTC instant to a geodetic
// position: EOP lookup, time scales, SGP4, and the frame transforms.
package ephemeris

import (
	"errors"
	"fmt"
	"time"

	"github.com/star/issblh/internal/eop"
	"github.com/star/issblh/internal/metrics"
	"github.com/star/issblh/internal/propagation"
	"github.com/star/issblh/internal/timescale"
	"github.com/star/issblh/internal/tle"
	"github.com/star/issblh/internal/transform"
)

// Fix is the result of one evaluation of the chain, with every intermediate
// value kept for output.
type Fix struct {
	Time     timescale.Scales   `json:"time" yaml:"time"`
	EOP      eop.Sample         `json:"eop" yaml:"eop"`
	TLE      tle.Entry          `json:"tle" yaml:"tle"`
	Gravity  string             `json:"gravity" yaml:"gravity"`
	Minutes  float64            `json:"minutes_since_epoch" yaml:"minutes_since_epoch"`
	TEME     transform.PV       `json:"teme" yaml:"teme"`
	PEF      transform.PV       `json:"pef" yaml:"pef"`
	ECEF     transform.PV       `json:"ecef" yaml:"ecef"`
	Geodetic transform.Geodetic `json:"geodetic" yaml:"geodetic"`
}

// Compute evaluates the chain at utc in a fixed order:
//
//	EOP → time scales → SGP4 → TEME→PEF → PEF→ECEF → ECEF→geodetic
//
// SGP4 runs at UT1: the elapsed time is UT1 minus the element epoch. The
// first failing stage aborts the call. Its error is wrapped with the stage
// name and stays reachable through errors.As.
func Compute(p *propagation.SGP4Propagator, eops eop.Provider, utc time.Time) (Fix, error) {
	utc = utc.UTC()

	sample, err := eops.At(utc)
	if err != nil {
		return Fix{}, fmt.Errorf("eop lookup: %w", err)
	}

	scales, err := timescale.NewScales(utc, sample.DUT1)
	if err != nil {
		return Fix{}, fmt.Errorf("time scales: %w", err)
	}

	el := p.Elements()
	minutes := scales.UT1.Sub(el.Epoch).Minutes()
	teme, err := p.Propagate(minutes)
	if err != nil {
		return Fix{}, fmt.Errorf("propagate %d at %s: %w", el.SatNum, utc.Format(time.RFC3339Nano), err)
	}

	pef := transform.TEMEToPEF(teme, scales.UT1, sample.LOD)
	ecef := transform.PEFToECEF(pef, sample.PMX, sample.PMY)

	return Fix{
		Time:     scales,
		EOP:      sample,
		TLE:      tle.Entry{NORADID: el.SatNum, Elements: el},
		Gravity:  p.Gravity().Name,
		Minutes:  minutes,
		TEME:     teme,
		PEF:      pef,
		ECEF:     ecef,
		Geodetic: transform.ECEFToGeodetic(ecef),
	}, nil
}

// Classify maps an error from Compute to a metrics result label.
func Classify(err error) string {
	var (
		decayed  *propagation.SatelliteDecayedError
		invalid  *propagation.InvalidElementError
		nonconv  *propagation.NonConvergenceError
		outRange *eop.OutOfRangeError
	)
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.As(err, &decayed):
		return metrics.ResultDecayed
	case errors.As(err, &invalid):
		return metrics.ResultInvalid
	case errors.As(err, &nonconv):
		return metrics.ResultNonConvergence
	case errors.As(err, &outRange):
		return metrics.ResultEOPRange
	default:
		return metrics.ResultError
	}
}
