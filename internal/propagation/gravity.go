package propagation

import (
	"fmt"
	"math"
	"strings"
)

// GravityModel is a named set of Earth constants used by SGP4.
type GravityModel struct {
	Name   string
	Mu     float64 // km³/s²
	Radius float64 // equatorial radius, km
	XKE    float64 // sqrt(μ) in earth radii^1.5 per minute
	TuMin  float64 // minutes per time unit, 1/XKE
	J2     float64
	J3     float64
	J4     float64
	J3OJ2  float64
}

func newGravityModel(name string, mu, radius, xke, j2, j3, j4 float64) GravityModel {
	if xke == 0 {
		xke = 60.0 / math.Sqrt(radius*radius*radius/mu)
	}
	return GravityModel{
		Name:   name,
		Mu:     mu,
		Radius: radius,
		XKE:    xke,
		TuMin:  1.0 / xke,
		J2:     j2,
		J3:     j3,
		J4:     j4,
		J3OJ2:  j3 / j2,
	}
}

var (
	// WGS72Old is the constant set of the original Spacetrack Report #3,
	// with its truncated xke.
	WGS72Old = newGravityModel("wgs72old", 398600.79964, 6378.135, 0.0743669161,
		0.001082616, -0.00000253881, -0.00000165597)

	// WGS72 is the constant set the published element sets are fitted with.
	WGS72 = newGravityModel("wgs72", 398600.8, 6378.135, 0,
		0.001082616, -0.00000253881, -0.00000165597)

	// WGS84 is the constant set of the WGS-84 ellipsoid.
	WGS84 = newGravityModel("wgs84", 398600.5, 6378.137, 0,
		0.00108262998905, -0.00000253215306, -0.00000161098761)
)

// GravityByName returns the gravity model for wgs72old, wgs72 or wgs84.
// Matching ignores case and an optional dash ("WGS-84").
func GravityByName(name string) (GravityModel, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "") {
	case "wgs72old":
		return WGS72Old, nil
	case "wgs72":
		return WGS72, nil
	case "wgs84":
		return WGS84, nil
	default:
		return GravityModel{}, fmt.Errorf("unknown gravity model %q (want wgs72old, wgs72 or wgs84)", name)
	}
}

// velocityScale converts earth radii per minute to km/s.
func (g GravityModel) velocityScale() float64 {
	return g.Radius * g.XKE / 60.0
}
