package unicycle

import "math"

// Gains of the polar-coordinate law. Local exponential stability needs
// KRho > 0, KBeta < 0 and KAlpha > KRho.
type Gains struct {
	KRho   float64
	KAlpha float64
	KBeta  float64
}

// DefaultGains are used by the nominal controller when no gains are given.
var DefaultGains = Gains{KRho: 1.0, KAlpha: 3.0, KBeta: -1.0}

// Control computes the saturated input driving s to the origin with zero
// heading.
//
//	rho   = |p|
//	alpha = atan2(-y, -x) - heading
//	beta  = -heading - alpha
//	v     = KRho * rho
//	omega = KAlpha * alpha + KBeta * beta
func Control(g Gains, s State, vMax, omegaMax float64) Input {
	dx, dy := -s.X, -s.Y
	rho := math.Hypot(dx, dy)
	if rho < 1e-9 {
		return Input{}
	}
	alpha := wrapToPi(math.Atan2(dy, dx) - s.Alpha)
	beta := wrapToPi(-s.Alpha - alpha)

	v := g.KRho * rho
	omega := g.KAlpha*alpha + g.KBeta*beta
	return Input{
		V:     saturate(v, vMax),
		Omega: saturate(omega, omegaMax),
	}
}

// GainsFromCosts derives polar-law gains from diagonal state cost q (x, y,
// heading) and input cost r (v, omega). Each channel uses the scalar LQR
// gain sqrt(q/r) of a single integrator; the heading gain is offset by the
// distance gain to keep KAlpha > KRho.
func GainsFromCosts(q, r []float64) Gains {
	qPos := (q[0] + q[1]) / 2
	kRho := math.Sqrt(qPos / r[0])
	kHead := math.Sqrt(q[2] / r[1])
	return Gains{KRho: kRho, KAlpha: kRho + kHead, KBeta: -kRho / 2}
}

// StageCost is the quadratic running cost x'Qx + u'Ru with diagonal weights.
func StageCost(q, r []float64, s State, u Input) float64 {
	return q[0]*s.X*s.X + q[1]*s.Y*s.Y + q[2]*s.Alpha*s.Alpha +
		r[0]*u.V*u.V + r[1]*u.Omega*u.Omega
}
