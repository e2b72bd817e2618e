// Package unicycle is a small stand-in for the three-wheel robot simulator.
//
// It integrates a non-holonomic unicycle ("3wrobotNI") towards the origin
// under a polar-coordinate stabilizing law and writes logs in the same layout
// as the real simulator: a metadata preamble, a header row starting with the
// time column, then one comma-separated row per sampling step. It accepts the
// same command line, so a whole batch can be dry-run without the real
// simulator installed.
package unicycle

import "math"

// State is the robot pose.
type State struct {
	X     float64 // (m)
	Y     float64 // (m)
	Alpha float64 // heading (rad)
}

// Input is the commanded linear and angular velocity.
type Input struct {
	V     float64 // (m/s)
	Omega float64 // (rad/s)
}

// saturate limits x to the actuator range [-limit, limit].
func saturate(x, limit float64) float64 {
	return math.Max(-limit, math.Min(x, limit))
}

// wrapToPi maps a heading onto [-π, π].
func wrapToPi(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}

type deriv struct {
	XDot, YDot, AlphaDot float64
}

// dynamics is the unicycle kinematics.
func dynamics(s State, u Input) deriv {
	return deriv{
		XDot:     u.V * math.Cos(s.Alpha),
		YDot:     u.V * math.Sin(s.Alpha),
		AlphaDot: u.Omega,
	}
}

// rk4Step advances s by dt with the input held constant.
func rk4Step(s *State, dt float64, u Input) {
	addScaled := func(a State, k deriv, h float64) State {
		out := a
		out.X += h * k.XDot
		out.Y += h * k.YDot
		out.Alpha += h * k.AlphaDot
		return out
	}

	k1 := dynamics(*s, u)
	k2 := dynamics(addScaled(*s, k1, 0.5*dt), u)
	k3 := dynamics(addScaled(*s, k2, 0.5*dt), u)
	k4 := dynamics(addScaled(*s, k3, dt), u)

	s.X += (dt / 6.0) * (k1.XDot + 2.0*k2.XDot + 2.0*k3.XDot + k4.XDot)
	s.Y += (dt / 6.0) * (k1.YDot + 2.0*k2.YDot + 2.0*k3.YDot + k4.YDot)
	s.Alpha += (dt / 6.0) * (k1.AlphaDot + 2.0*k2.AlphaDot + 2.0*k3.AlphaDot + k4.AlphaDot)

	s.Alpha = wrapToPi(s.Alpha)
}
