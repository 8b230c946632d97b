package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// arcsecToRad converts arc-seconds to radians.
const arcsecToRad = math.Pi / (180.0 * 3600.0)

// PolarMotion returns the IAU-76/FK5 polar motion matrix W = R1(yp)·R2(xp)
// for pole offsets in arc-seconds. W maps ECEF into PEF.
func PolarMotion(xp, yp float64) *mat.Dense {
	var w mat.Dense
	w.Mul(R1(yp*arcsecToRad), R2(xp*arcsecToRad))
	return &w
}

// PEFToECEF applies polar motion to a PEF state. xp and yp are the pole
// offsets in arc-seconds.
//
//	r_ECEF = Wᵀ * r_PEF,  v_ECEF = Wᵀ * v_PEF
//
// Velocity needs no extra term because W is constant over the interval.
func PEFToECEF(pef PV, xp, yp float64) PV {
	wt := PolarMotion(xp, yp).T()
	r := mxv(wt, pef.Position())
	v := mxv(wt, pef.Velocity())
	return NewPV(FrameECEF, r, v)
}
