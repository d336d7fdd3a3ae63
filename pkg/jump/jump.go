package jump

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// Class is the conventional jump type keyed on the upstream Froude number.
type Class string

const (
	NoJump      Class = "none"
	Undular     Class = "undular"
	Weak        Class = "weak"
	Oscillating Class = "oscillating"
	Steady      Class = "steady"
	Strong      Class = "strong"
)

// Classify returns the jump type for upstream Froude number Fr1.
func Classify(Fr1 float64) Class {
	switch {
	case Fr1 < 1.0:
		return NoJump
	case Fr1 < 1.7:
		return Undular
	case Fr1 < 2.5:
		return Weak
	case Fr1 < 4.5:
		return Oscillating
	case Fr1 < 9.0:
		return Steady
	}
	return Strong
}

// EnergyLoss returns E(y1) − E(y2) (m).
func EnergyLoss(m flow.Model, sec channel.Section, y1, y2, Q float64) (float64, error) {
	e1, err := m.SpecificEnergy(sec, y1, Q)
	if err != nil {
		return 0, err
	}
	e2, err := m.SpecificEnergy(sec, y2, Q)
	if err != nil {
		return 0, err
	}
	return e1 - e2, nil
}

// EnergyLossFraction returns the share of the upstream specific energy
// dissipated by the jump.
func EnergyLossFraction(m flow.Model, sec channel.Section, y1, y2, Q float64) (float64, error) {
	loss, err := EnergyLoss(m, sec, y1, y2, Q)
	if err != nil {
		return 0, err
	}
	e1, err := m.SpecificEnergy(sec, y1, Q)
	if err != nil {
		return 0, err
	}
	return loss / e1, nil
}

// ForceOnObstacle returns the force (N, or N/m on a wide channel) that an
// obstacle must exert to hold the flow change from y1 to y2: the change in
// momentum flux plus the change in hydrostatic thrust. The thrust uses y/2
// on rectangular sections and half the hydraulic depth otherwise.
func ForceOnObstacle(m flow.Model, sec channel.Section, y1, y2, Q float64) (float64, error) {
	s1, err := m.State(sec, y1, Q)
	if err != nil {
		return 0, err
	}
	s2, err := m.State(sec, y2, Q)
	if err != nil {
		return 0, err
	}
	rho, g := m.Density, m.Gravity

	flux := rho * Q * (s1.Velocity() - s2.Velocity())
	arm1, arm2 := s1.HydraulicDepth()/2, s2.HydraulicDepth()/2
	if sec.IsRectangular() {
		arm1, arm2 = y1/2, y2/2
	}
	thrust := rho * g * (s1.Area()*arm1 - s2.Area()*arm2)
	return flux + thrust, nil
}

// Length estimates the jump length 6(y2 − y1) for rectangular channels.
func Length(sec channel.Section, y1, y2 float64) (float64, error) {
	if !sec.IsRectangular() {
		return 0, fmt.Errorf("%w: jump length correlation applies to rectangular channels, not %s",
			channel.ErrUnsupportedShape, sec.Shape())
	}
	return 6 * (y2 - y1), nil
}

// DragForce returns ½·cd·ρ·V²·A (N) on a block of frontal area A.
func DragForce(cd, V, A, rho float64) float64 {
	return 0.5 * cd * rho * V * V * A
}

// Jump summarises a hydraulic jump from a supercritical depth.
type Jump struct {
	Upstream   float64
	Downstream float64
	Froude1    float64
	Froude2    float64
	// Class is empty when the upstream Froude number is not finite.
	Class              Class
	EnergyLoss         float64
	EnergyLossFraction float64
	Force              float64
	// Length is zero where no length correlation applies.
	Length float64
}

// Analyze computes the sequent depth of y1 and the quantities derived from it.
func Analyze(m flow.Model, sec channel.Section, y1, Q float64) (Jump, error) {
	j := Jump{Upstream: y1}
	fr1, err := m.FroudeNumber(sec, y1, Q)
	if err != nil {
		return j, err
	}
	j.Froude1 = fr1
	if !math.IsInf(fr1, 0) && !math.IsNaN(fr1) {
		j.Class = Classify(fr1)
	}

	y2, err := SequentDepth(m, sec, y1, Q)
	if err != nil {
		return j, err
	}
	j.Downstream = y2
	if j.Froude2, err = m.FroudeNumber(sec, y2, Q); err != nil {
		return j, err
	}
	if j.EnergyLoss, err = EnergyLoss(m, sec, y1, y2, Q); err != nil {
		return j, err
	}
	if j.EnergyLossFraction, err = EnergyLossFraction(m, sec, y1, y2, Q); err != nil {
		return j, err
	}
	if j.Force, err = ForceOnObstacle(m, sec, y1, y2, Q); err != nil {
		return j, err
	}
	if l, err := Length(sec, y1, y2); err == nil {
		j.Length = l
	}
	return j, nil
}
