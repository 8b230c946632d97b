package transform

import "time"

// TEMEToPEF rotates a TEME state into the Pseudo Earth Fixed frame at the
// given UT1 instant. lod is the excess length of day in seconds (0 for the
// nominal rotation rate).
//
// Position transform: r_PEF = R3(θ) * r_TEME
// Velocity transform: v_PEF = R3(θ) * v_TEME - ω × r_PEF
//
// where θ is GMST and ω = [0, 0, ω_earth] is Earth's angular velocity vector.
func TEMEToPEF(teme PV, ut1 time.Time, lod float64) PV {
	return TEMEToPEFWithGMST(teme, GMST(ut1), lod)
}

// TEMEToPEFWithGMST is TEMEToPEF with a precomputed GMST angle (radians).
func TEMEToPEFWithGMST(teme PV, gmst, lod float64) PV {
	st := R3(gmst)
	r := mxv(st, teme.Position())
	v := mxv(st, teme.Velocity())

	// ω × r_PEF = [-ω*y, ω*x, 0]
	omega := EarthRotationRate(lod)
	v[0] += omega * r[1]
	v[1] -= omega * r[0]

	return NewPV(FramePEF, r, v)
}
