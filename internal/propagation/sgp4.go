package propagation

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"

	"github.com/star/issblh/internal/tle"
	"github.com/star/issblh/internal/transform"
)

// SGP4 implementation: Vallado et al., "Revisiting Spacetrack Report #3"
// (AIAA 2006-6753), revised version of 2006, including the SDP4 deep-space
// terms, the 12h and 24h resonance integrator and the Lyddane modification
// for low inclination.

const (
	twoPi  = 2 * math.Pi
	x2o3   = 2.0 / 3.0
	deg2rd = math.Pi / 180.0
	xpdotp = 1440.0 / twoPi // rev/day per rad/min

	// jd1950 is the Julian Date of 1950 Jan 0.0 UTC, the SGP4 epoch origin.
	jd1950 = 2433281.5

	// deepSpacePeriod is the orbital period (minutes) at which SDP4 takes over.
	deepSpacePeriod = 225.0
)

// Resonance classifies the deep-space resonance handled by the integrator.
type Resonance int

const (
	ResonanceNone Resonance = iota
	Resonance24h            // geosynchronous
	Resonance12h            // half-day, e.g. Molniya
)

func (r Resonance) String() string {
	switch r {
	case Resonance24h:
		return "24h"
	case Resonance12h:
		return "12h"
	default:
		return "none"
	}
}

// SGP4Propagator propagates one element set.
//
// All fields are computed by NewSGP4Propagator and only read afterwards, so a
// single propagator may be shared by any number of goroutines.
type SGP4Propagator struct {
	elements tle.Elements
	grav     GravityModel

	epoch float64 // days since 1950 Jan 0.0 UTC
	gsto  float64 // GMST at epoch, rad

	// Mean elements at epoch (rad, rad/min).
	ecco, inclo, nodeo, argpo, mo float64
	bstar                         float64
	no                            float64 // un-Kozai'd mean motion
	ao                            float64 // semi-major axis, earth radii

	isimp bool // simplified drag: low perigee or deep space

	con41, x1mth2, x7thm1 float64
	cosio, sinio          float64

	eta, cc1, cc4, cc5       float64
	mdot, argpdot, nodedot   float64
	omgcof, xmcof, nodecf    float64
	t2cof, xlcof, aycof      float64
	delmo, sinmao            float64
	d2, d3, d4               float64
	t3cof, t4cof, t5cof      float64

	deep *deepSpace // nil for near-earth orbits
}

// NewSGP4Propagator initializes SGP4 for el with the given gravity model and
// checks the model at epoch. It fails with *InvalidElementError when the
// elements are out of range and with the error of Propagate(0) otherwise.
func NewSGP4Propagator(el tle.Elements, gm GravityModel) (*SGP4Propagator, error) {
	switch {
	case el.Eccentricity < 0 || el.Eccentricity >= 1:
		return nil, &InvalidElementError{Reason: fmt.Sprintf("eccentricity %g outside [0,1)", el.Eccentricity)}
	case el.Inclination < 0 || el.Inclination > 180:
		return nil, &InvalidElementError{Reason: fmt.Sprintf("inclination %g deg outside [0,180]", el.Inclination)}
	case el.MeanMotion <= 0:
		return nil, &InvalidElementError{Reason: fmt.Sprintf("mean motion %g rev/day is not positive", el.MeanMotion)}
	}

	p := &SGP4Propagator{
		elements: el,
		grav:     gm,
		epoch:    epochDays(el),
		ecco:     el.Eccentricity,
		inclo:    el.Inclination * deg2rd,
		nodeo:    el.RAAN * deg2rd,
		argpo:    el.ArgPerigee * deg2rd,
		mo:       el.MeanAnomaly * deg2rd,
		bstar:    el.BStar,
	}

	if err := p.init(el.MeanMotion / xpdotp); err != nil {
		return nil, err
	}
	if _, err := p.Propagate(0); err != nil {
		return nil, err
	}
	return p, nil
}

// epochDays returns the element epoch in days since 1950 Jan 0.0. The TLE
// year and day are used directly when present so that no precision is lost
// through time.Time.
func epochDays(el tle.Elements) float64 {
	if el.EpochYear != 0 {
		return julian.CalendarGregorianToJD(el.EpochYear, 1, 0) + el.EpochDay - jd1950
	}
	return julian.TimeToJD(el.Epoch) - jd1950
}

// init computes every time-independent coefficient (Vallado's initl and
// sgp4init). noKozai is the TLE mean motion in rad/min.
func (p *SGP4Propagator) init(noKozai float64) error {
	g := p.grav
	ecco, inclo := p.ecco, p.inclo

	ss := 78.0/g.Radius + 1.0
	qzms2t := math.Pow((120.0-78.0)/g.Radius, 4)

	// Recover the original mean motion and semi-major axis from the
	// Kozai mean motion in the element set.
	eccsq := ecco * ecco
	omeosq := 1.0 - eccsq
	rteosq := math.Sqrt(omeosq)
	cosio := math.Cos(inclo)
	cosio2 := cosio * cosio

	ak := math.Pow(g.XKE/noKozai, x2o3)
	d1 := 0.75 * g.J2 * (3.0*cosio2 - 1.0) / (rteosq * omeosq)
	del := d1 / (ak * ak)
	adel := ak * (1.0 - del*del - del*(1.0/3.0+134.0*del*del/81.0))
	del = d1 / (adel * adel)
	p.no = noKozai / (1.0 + del)
	p.ao = math.Pow(g.XKE/p.no, x2o3)

	if p.ao <= 1.0 {
		return &InvalidElementError{
			Reason: fmt.Sprintf("semi-major axis %.6f earth radii is inside the earth", p.ao),
		}
	}

	sinio := math.Sin(inclo)
	po := p.ao * omeosq
	con42 := 1.0 - 5.0*cosio2
	p.con41 = -con42 - cosio2 - cosio2
	posq := po * po
	rp := p.ao * (1.0 - ecco)
	p.gsto = transform.GMSTFromJD(p.epoch + jd1950)
	p.cosio, p.sinio = cosio, sinio

	p.isimp = rp < 220.0/g.Radius+1.0

	// Atmospheric density parameters for low perigees.
	sfour := ss
	qzms24 := qzms2t
	perige := (rp - 1.0) * g.Radius
	if perige < 156.0 {
		sfour = perige - 78.0
		if perige < 98.0 {
			sfour = 20.0
		}
		qzms24 = math.Pow((120.0-sfour)/g.Radius, 4)
		sfour = sfour/g.Radius + 1.0
	}

	pinvsq := 1.0 / posq
	tsi := 1.0 / (p.ao - sfour)
	p.eta = p.ao * ecco * tsi
	etasq := p.eta * p.eta
	eeta := ecco * p.eta
	psisq := math.Abs(1.0 - etasq)
	coef := qzms24 * math.Pow(tsi, 4)
	coef1 := coef / math.Pow(psisq, 3.5)

	cc2 := coef1 * p.no * (p.ao*(1.0+1.5*etasq+eeta*(4.0+etasq)) +
		0.375*g.J2*tsi/psisq*p.con41*(8.0+3.0*etasq*(8.0+etasq)))
	p.cc1 = p.bstar * cc2
	cc3 := 0.0
	if ecco > 1.0e-4 {
		cc3 = -2.0 * coef * tsi * g.J3OJ2 * p.no * sinio / ecco
	}
	p.x1mth2 = 1.0 - cosio2
	p.cc4 = 2.0 * p.no * coef1 * p.ao * omeosq *
		(p.eta*(2.0+0.5*etasq) + ecco*(0.5+2.0*etasq) -
			g.J2*tsi/(p.ao*psisq)*(-3.0*p.con41*(1.0-2.0*eeta+etasq*(1.5-0.5*eeta))+
				0.75*p.x1mth2*(2.0*etasq-eeta*(1.0+etasq))*math.Cos(2.0*p.argpo)))
	p.cc5 = 2.0 * coef1 * p.ao * omeosq * (1.0 + 2.75*(etasq+eeta) + eeta*etasq)

	// Secular rates from J2 and J4.
	cosio4 := cosio2 * cosio2
	temp1 := 1.5 * g.J2 * pinvsq * p.no
	temp2 := 0.5 * temp1 * g.J2 * pinvsq
	temp3 := -0.46875 * g.J4 * pinvsq * pinvsq * p.no
	p.mdot = p.no + 0.5*temp1*rteosq*p.con41 + 0.0625*temp2*rteosq*(13.0-78.0*cosio2+137.0*cosio4)
	p.argpdot = -0.5*temp1*con42 + 0.0625*temp2*(7.0-114.0*cosio2+395.0*cosio4) +
		temp3*(3.0-36.0*cosio2+49.0*cosio4)
	xhdot1 := -temp1 * cosio
	p.nodedot = xhdot1 + (0.5*temp2*(4.0-19.0*cosio2)+2.0*temp3*(3.0-7.0*cosio2))*cosio
	xpidot := p.argpdot + p.nodedot

	p.omgcof = p.bstar * cc3 * math.Cos(p.argpo)
	if ecco > 1.0e-4 {
		p.xmcof = -x2o3 * coef * p.bstar / eeta
	}
	p.nodecf = 3.5 * omeosq * xhdot1 * p.cc1
	p.t2cof = 1.5 * p.cc1
	p.xlcof = longPeriodCoef(g.J3OJ2, sinio, cosio)
	p.aycof = -0.5 * g.J3OJ2 * sinio
	delmotemp := 1.0 + p.eta*math.Cos(p.mo)
	p.delmo = delmotemp * delmotemp * delmotemp
	p.sinmao = math.Sin(p.mo)
	p.x7thm1 = 7.0*cosio2 - 1.0

	if twoPi/p.no >= deepSpacePeriod {
		p.isimp = true
		p.deep = newDeepSpace(p, eccsq, xpidot)
	}

	if !p.isimp {
		cc1sq := p.cc1 * p.cc1
		p.d2 = 4.0 * p.ao * tsi * cc1sq
		temp := p.d2 * tsi * p.cc1 / 3.0
		p.d3 = (17.0*p.ao + sfour) * temp
		p.d4 = 0.5 * temp * p.ao * tsi * (221.0*p.ao + 31.0*sfour) * p.cc1
		p.t3cof = p.d2 + 2.0*cc1sq
		p.t4cof = 0.25 * (3.0*p.d3 + p.cc1*(12.0*p.d2+10.0*cc1sq))
		p.t5cof = 0.2 * (3.0*p.d4 + 12.0*p.cc1*p.d3 + 6.0*p.d2*p.d2 + 15.0*cc1sq*(2.0*p.d2+cc1sq))
	}
	return nil
}

// longPeriodCoef returns the J3 long-period coefficient. The divisor is
// clamped to avoid a singularity at 180° inclination.
func longPeriodCoef(j3oj2, sini, cosi float64) float64 {
	const tiny = 1.5e-12
	den := 1.0 + cosi
	if math.Abs(den) <= tiny {
		den = tiny
	}
	return -0.25 * j3oj2 * sini * (3.0 + 5.0*cosi) / den
}

// Elements returns the element set the propagator was built from.
func (p *SGP4Propagator) Elements() tle.Elements {
	return p.elements
}

// Gravity returns the gravity model in use.
func (p *SGP4Propagator) Gravity() GravityModel {
	return p.grav
}

// Epoch returns the element set epoch in UTC.
func (p *SGP4Propagator) Epoch() time.Time {
	return p.elements.Epoch
}

// IsDeepSpace reports whether the orbital period is at least 225 minutes,
// which selects the SDP4 deep-space terms.
func (p *SGP4Propagator) IsDeepSpace() bool {
	return p.deep != nil
}

// Resonance reports the deep-space resonance class.
func (p *SGP4Propagator) Resonance() Resonance {
	if p.deep == nil {
		return ResonanceNone
	}
	return p.deep.irez
}
