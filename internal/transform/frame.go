// Package transform carries SGP4 output from the TEME frame to WGS-84
// geodetic coordinates.
//
// The chain has three stages, applied in this order by the caller:
//
//	TEMEToPEF      rotate by Greenwich mean sidereal time (needs UT1, LOD)
//	PEFToECEF      apply polar motion (needs xp, yp)
//	ECEFToGeodetic solve the WGS-84 ellipsoid for latitude and height
//
// Each stage is a pure function of its arguments. Positions are in km and
// velocities in km/s until the geodetic stage, which reports height in meters.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3,
// and Vallado et al. "Revisiting Spacetrack Report #3" (AIAA 2006-6753), App. C.
package transform

import (
	"fmt"
	"math"
)

// Frame identifies the reference frame a PV is expressed in.
type Frame int

const (
	// FrameTEME is the True Equator, Mean Equinox frame of SGP4 output.
	FrameTEME Frame = iota + 1
	// FramePEF is the Pseudo Earth Fixed frame: TEME rotated by GMST.
	FramePEF
	// FrameECEF is the Earth-fixed frame after polar motion (ITRF).
	FrameECEF
)

func (f Frame) String() string {
	switch f {
	case FrameTEME:
		return "TEME"
	case FramePEF:
		return "PEF"
	case FrameECEF:
		return "ECEF"
	default:
		return fmt.Sprintf("Frame(%d)", int(f))
	}
}

// MarshalText renders the frame name in JSON and YAML output.
func (f Frame) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a frame name written by MarshalText.
func (f *Frame) UnmarshalText(b []byte) error {
	for _, c := range []Frame{FrameTEME, FramePEF, FrameECEF} {
		if string(b) == c.String() {
			*f = c
			return nil
		}
	}
	return fmt.Errorf("transform: unknown frame %q", b)
}

// PV is a position/velocity pair tagged with its frame.
type PV struct {
	Frame Frame   `json:"frame" yaml:"frame"`
	X     float64 `json:"x_km" yaml:"x_km"`
	Y     float64 `json:"y_km" yaml:"y_km"`
	Z     float64 `json:"z_km" yaml:"z_km"`
	VX    float64 `json:"vx_kms" yaml:"vx_kms"`
	VY    float64 `json:"vy_kms" yaml:"vy_kms"`
	VZ    float64 `json:"vz_kms" yaml:"vz_kms"`
}

// NewPV builds a PV from position and velocity arrays.
func NewPV(frame Frame, r, v [3]float64) PV {
	return PV{
		Frame: frame,
		X:     r[0], Y: r[1], Z: r[2],
		VX: v[0], VY: v[1], VZ: v[2],
	}
}

// Position returns the position vector in km.
func (p PV) Position() [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}

// Velocity returns the velocity vector in km/s.
func (p PV) Velocity() [3]float64 {
	return [3]float64{p.VX, p.VY, p.VZ}
}

// Radius returns the distance from the Earth's center in km.
func (p PV) Radius() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Finite reports whether every component is a finite number.
func (p PV) Finite() bool {
	for _, v := range [...]float64{p.X, p.Y, p.Z, p.VX, p.VY, p.VZ} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Geodetic is a WGS-84 geodetic position with the Earth-relative speed.
type Geodetic struct {
	Lat    float64 `json:"lat_deg" yaml:"lat_deg"`
	Lon    float64 `json:"lon_deg" yaml:"lon_deg"`
	Height float64 `json:"height_m" yaml:"height_m"`
	Speed  float64 `json:"speed_kms" yaml:"speed_kms"`
}
