package transform

import "math"

// LookAngle holds azimuth, elevation, and range from an observer to a satellite.
type LookAngle struct {
	Azimuth   float64 `json:"azimuth_deg" yaml:"azimuth_deg"`     // 0 = North, clockwise
	Elevation float64 `json:"elevation_deg" yaml:"elevation_deg"` // 0 = horizon, 90 = zenith
	Range     float64 `json:"range_km" yaml:"range_km"`
}

// LookAngles computes azimuth, elevation, and range from a ground observer
// to a satellite given as an ECEF state.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
func LookAngles(obs Geodetic, sat PV) LookAngle {
	o := GeodeticToECEF(obs)
	rx := sat.X - o[0]
	ry := sat.Y - o[1]
	rz := sat.Z - o[2]

	sinLat, cosLat := math.Sincos(obs.Lat * math.Pi / 180.0)
	sinLon, cosLon := math.Sincos(obs.Lon * math.Pi / 180.0)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rng := math.Sqrt(south*south + east*east + zenith*zenith)
	if rng == 0 {
		return LookAngle{Elevation: 90}
	}

	el := math.Asin(zenith / rng)

	// In SEZ, North = -South direction.
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngle{
		Azimuth:   az * 180.0 / math.Pi,
		Elevation: el * 180.0 / math.Pi,
		Range:     rng,
	}
}
