package propagation

import (
	"math"
	"time"

	"github.com/star/issblh/internal/transform"
)

const (
	keplerTol     = 1e-12
	keplerMaxIter = 10
	keplerMaxStep = 0.95 // rad
)

// PropagateAt propagates to the UTC instant t.
func (p *SGP4Propagator) PropagateAt(t time.Time) (transform.PV, error) {
	return p.Propagate(t.Sub(p.elements.Epoch).Minutes())
}

// Propagate returns the TEME state tsince minutes after the element epoch.
// It does not modify the receiver.
func (p *SGP4Propagator) Propagate(tsince float64) (transform.PV, error) {
	g := p.grav
	t := tsince

	// Secular gravity and atmospheric drag.
	xmdf := p.mo + p.mdot*t
	argpdf := p.argpo + p.argpdot*t
	nodedf := p.nodeo + p.nodedot*t
	t2 := t * t

	m := meanElements{
		em:    p.ecco,
		argpm: argpdf,
		inclm: p.inclo,
		mm:    xmdf,
		nodem: nodedf + p.nodecf*t2,
		nm:    p.no,
	}
	tempa := 1.0 - p.cc1*t
	tempe := p.bstar * p.cc4 * t
	templ := p.t2cof * t2

	if !p.isimp {
		delomg := p.omgcof * t
		delmtemp := 1.0 + p.eta*math.Cos(xmdf)
		delm := p.xmcof * (delmtemp*delmtemp*delmtemp - p.delmo)
		temp := delomg + delm
		m.mm = xmdf + temp
		m.argpm = argpdf - temp
		t3 := t2 * t
		t4 := t3 * t
		tempa = tempa - p.d2*t2 - p.d3*t3 - p.d4*t4
		tempe += p.bstar * p.cc5 * (math.Sin(m.mm) - p.sinmao)
		templ += p.t3cof*t3 + t4*(p.t4cof+t*p.t5cof)
	}

	if p.deep != nil {
		m = p.deep.dspace(p, t, m)
	}

	if m.nm <= 0 {
		return transform.PV{}, &InvalidElementError{Tsince: t, Reason: "mean motion is not positive"}
	}
	am := math.Pow(g.XKE/m.nm, x2o3) * tempa * tempa
	nm := g.XKE / math.Pow(am, 1.5)
	em := m.em - tempe

	if em >= 1.0 || em < -0.001 {
		return transform.PV{}, &InvalidElementError{Tsince: t, Reason: "mean eccentricity outside [-0.001,1)"}
	}
	// Near-circular guard.
	if em < 1.0e-6 {
		em = 1.0e-6
	}
	mm := m.mm + p.no*templ
	xlm := mm + m.argpm + m.nodem
	nodem := math.Mod(m.nodem, twoPi)
	argpm := math.Mod(m.argpm, twoPi)
	xlm = math.Mod(xlm, twoPi)
	mm = math.Mod(xlm-argpm-nodem, twoPi)

	// Lunar-solar periodics.
	ep := em
	xincp := m.inclm
	argpp := argpm
	nodep := nodem
	mp := mm
	sinip, cosip := math.Sin(xincp), math.Cos(xincp)
	aycof, xlcof := p.aycof, p.xlcof
	con41, x1mth2, x7thm1 := p.con41, p.x1mth2, p.x7thm1

	if p.deep != nil {
		ep, xincp, nodep, argpp, mp = p.deep.dpper(t, ep, xincp, nodep, argpp, mp)
		if xincp < 0 {
			xincp = -xincp
			nodep += math.Pi
			argpp -= math.Pi
		}
		if ep < 0 || ep > 1 {
			return transform.PV{}, &InvalidElementError{Tsince: t, Reason: "perturbed eccentricity outside [0,1]"}
		}
		sinip, cosip = math.Sin(xincp), math.Cos(xincp)
		aycof = -0.5 * g.J3OJ2 * sinip
		xlcof = longPeriodCoef(g.J3OJ2, sinip, cosip)

		cosisq := cosip * cosip
		con41 = 3.0*cosisq - 1.0
		x1mth2 = 1.0 - cosisq
		x7thm1 = 7.0*cosisq - 1.0
	}

	// Long-period periodics.
	axnl := ep * math.Cos(argpp)
	temp := 1.0 / (am * (1.0 - ep*ep))
	aynl := ep*math.Sin(argpp) + temp*aycof
	xl := mp + argpp + nodep + temp*xlcof*axnl

	u := math.Mod(xl-nodep, twoPi)
	k := solveKepler(u, axnl, aynl)
	if !k.converged() {
		return transform.PV{}, &NonConvergenceError{Tsince: t, Iterations: k.iterations, Residual: k.residual}
	}

	// Short-period preliminary quantities.
	ecose := axnl*k.cos + aynl*k.sin
	esine := axnl*k.sin - aynl*k.cos
	el2 := axnl*axnl + aynl*aynl
	pl := am * (1.0 - el2)
	if pl < 0 {
		return transform.PV{}, &InvalidElementError{Tsince: t, Reason: "semi-latus rectum is negative"}
	}

	rl := am * (1.0 - ecose)
	rdotl := math.Sqrt(am) * esine / rl
	rvdotl := math.Sqrt(pl) / rl
	betal := math.Sqrt(1.0 - el2)
	temp = esine / (1.0 + betal)
	sinu := am / rl * (k.sin - aynl - axnl*temp)
	cosu := am / rl * (k.cos - axnl + aynl*temp)
	su := math.Atan2(sinu, cosu)
	sin2u := (cosu + cosu) * sinu
	cos2u := 1.0 - 2.0*sinu*sinu
	temp = 1.0 / pl
	temp1 := 0.5 * g.J2 * temp
	temp2 := temp1 * temp

	// Short-period periodics.
	mrt := rl*(1.0-1.5*temp2*betal*con41) + 0.5*temp1*x1mth2*cos2u
	su -= 0.25 * temp2 * x7thm1 * sin2u
	xnode := nodep + 1.5*temp2*cosip*sin2u
	xinc := xincp + 1.5*temp2*cosip*sinip*cos2u
	mvt := rdotl - nm*temp1*x1mth2*sin2u/g.XKE
	rvdot := rvdotl + nm*temp1*(x1mth2*cos2u+1.5*con41)/g.XKE

	// Orientation vectors.
	sinsu, cossu := math.Sin(su), math.Cos(su)
	snod, cnod := math.Sin(xnode), math.Cos(xnode)
	sini, cosi := math.Sin(xinc), math.Cos(xinc)
	xmx := -snod * cosi
	xmy := cnod * cosi
	ux := xmx*sinsu + cnod*cossu
	uy := xmy*sinsu + snod*cossu
	uz := sini * sinsu
	vx := xmx*cossu - cnod*sinsu
	vy := xmy*cossu - snod*sinsu
	vz := sini * cossu

	if mrt < 1.0 {
		return transform.PV{}, &SatelliteDecayedError{Tsince: t, Radius: mrt * g.Radius}
	}

	vkmpersec := g.velocityScale()
	r := [3]float64{mrt * ux * g.Radius, mrt * uy * g.Radius, mrt * uz * g.Radius}
	v := [3]float64{
		(mvt*ux + rvdot*vx) * vkmpersec,
		(mvt*uy + rvdot*vy) * vkmpersec,
		(mvt*uz + rvdot*vz) * vkmpersec,
	}
	return transform.NewPV(transform.FrameTEME, r, v), nil
}

// keplerSolution is the eccentric longitude solved from Kepler's equation in
// the form used by SGP4: u = E - axnl·sin E + aynl·cos E.
type keplerSolution struct {
	eo1        float64
	sin, cos   float64
	iterations int
	residual   float64 // last Newton step
}

func (k keplerSolution) converged() bool {
	return math.Abs(k.residual) < keplerTol
}

// solveKepler runs Newton-Raphson from E = u with each step clamped to
// ±0.95 rad, stopping when the step is below 1e-12 or after 10 iterations.
func solveKepler(u, axnl, aynl float64) keplerSolution {
	k := keplerSolution{eo1: u, residual: 9999.9}
	for math.Abs(k.residual) >= keplerTol && k.iterations < keplerMaxIter {
		k.sin, k.cos = math.Sin(k.eo1), math.Cos(k.eo1)
		step := 1.0 - k.cos*axnl - k.sin*aynl
		step = (u - aynl*k.cos + axnl*k.sin - k.eo1) / step
		if math.Abs(step) >= keplerMaxStep {
			step = math.Copysign(keplerMaxStep, step)
		}
		k.eo1 += step
		k.residual = step
		k.iterations++
	}
	return k
}
