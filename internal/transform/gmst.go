package transform

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// OmegaEarth is Earth's nominal rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// EarthRotationRate returns the rotation rate in rad/s for a day that is
// lod seconds longer than 86400 SI seconds.
func EarthRotationRate(lod float64) float64 {
	return OmegaEarth * (1.0 - lod/86400.0)
}

// GMST calculates Greenwich Mean Sidereal Time in radians for a UT1 instant.
// The wall clock of ut1 is read as UT1, not UTC.
func GMST(ut1 time.Time) float64 {
	return GMSTFromJD(julian.TimeToJD(ut1))
}

// GMSTFromJD calculates GMST in radians, normalized to [0, 2π), from a UT1
// Julian Date. Uses the IAU-82 model as described in Vallado
// "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMSTFromJD(jdUT1 float64) float64 {
	tUT1 := (jdUT1 - j2000) / 36525.0

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// 240 seconds of time per degree.
	gmst := math.Mod(gmstSec*(math.Pi/180.0)/240.0, 2*math.Pi)
	if gmst < 0 {
		gmst += 2 * math.Pi
	}
	return gmst
}
