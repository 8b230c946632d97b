package transform

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// WGS-84 ellipsoid parameters.
const (
	WGS84A  = 6378.137              // semi-major axis (km)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

const (
	geodeticTol     = 1e-12 // rad
	geodeticMaxIter = 10
)

// ECEFToGeodetic converts an ECEF state (km, km/s) to WGS-84 latitude,
// longitude and height. Speed is the norm of the ECEF velocity, so it is
// relative to the rotating Earth.
//
// Latitude is found by fixed-point iteration on
//
//	φ = atan2(z + e²·N(φ)·sin φ, p)
//
// starting from the spherical-height guess, and height from
//
//	h = p·cos φ + z·sin φ − a·√(1 − e²·sin²φ)
//
// which stays finite at the poles where p = 0.
func ECEFToGeodetic(ecef PV) Geodetic {
	x, y, z := ecef.X, ecef.Y, ecef.Z
	p := math.Hypot(x, y)

	lon := 0.0
	if p > 0 {
		lon = math.Atan2(y, x)
	}

	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < geodeticMaxIter; i++ {
		sinLat := math.Sin(lat)
		n := WGS84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		next := math.Atan2(z+wgs84E2*n*sinLat, p)
		done := math.Abs(next-lat) < geodeticTol
		lat = next
		if done {
			break
		}
	}

	sinLat, cosLat := math.Sincos(lat)
	h := p*cosLat + z*sinLat - WGS84A*math.Sqrt(1-wgs84E2*sinLat*sinLat)

	v := ecef.Velocity()
	return Geodetic{
		Lat:    lat * 180.0 / math.Pi,
		Lon:    lon * 180.0 / math.Pi,
		Height: h * 1000.0,
		Speed:  floats.Norm(v[:], 2),
	}
}

// GeodeticToECEF converts a WGS-84 geodetic position to ECEF km.
// Latitude and longitude are in degrees, height in meters above the ellipsoid.
func GeodeticToECEF(g Geodetic) [3]float64 {
	lat := g.Lat * math.Pi / 180.0
	lon := g.Lon * math.Pi / 180.0
	h := g.Height / 1000.0

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// Radius of curvature in the prime vertical.
	n := WGS84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return [3]float64{
		(n + h) * cosLat * cosLon,
		(n + h) * cosLat * sinLon,
		(n*(1-wgs84E2) + h) * sinLat,
	}
}
