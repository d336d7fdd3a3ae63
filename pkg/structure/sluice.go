package structure

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
	"github.com/chrissnell/openchannel/pkg/jump"
)

// SluiceDischarge returns the discharge under a sluice gate from Bernoulli
// between the upstream depth y1 and the vena contracta depth y2:
//
//	y1 + V1²/2g = y2 + (1 + k)·V2²/2g
//
// where k is the loss coefficient applied to the jet velocity head.
func SluiceDischarge(m flow.Model, sec channel.Section, y1, y2, lossCoeff float64) (float64, error) {
	if !(lossCoeff >= 0) || math.IsInf(lossCoeff, 0) {
		return 0, fmt.Errorf("%w: loss coefficient %g must be non-negative", channel.ErrDomain, lossCoeff)
	}
	if !(y2 > 0) || !(y1 > y2) {
		return 0, fmt.Errorf("%w: upstream depth %g must exceed downstream depth %g > 0", channel.ErrDomain, y1, y2)
	}
	g1, err := sec.At(y1)
	if err != nil {
		return 0, err
	}
	g2, err := sec.At(y2)
	if err != nil {
		return 0, err
	}
	den := (1+lossCoeff)/(g2.Area*g2.Area) - 1/(g1.Area*g1.Area)
	if !(den > 0) {
		return 0, fmt.Errorf("%w: gate flow area %g is not smaller than the approach area %g", channel.ErrDomain, g2.Area, g1.Area)
	}
	return math.Sqrt(2 * m.Gravity * (y1 - y2) / den), nil
}

// SluiceUpstreamDepth returns the subcritical depth upstream of a gate that
// passes Q at the supercritical depth y2, assuming no loss through the gate.
func SluiceUpstreamDepth(m flow.Model, sec channel.Section, Q, y2 float64) (float64, error) {
	st, err := m.State(sec, y2, Q)
	if err != nil {
		return 0, err
	}
	if st.Regime() != flow.Supercritical {
		return 0, fmt.Errorf("%w: depth %g below the gate is not supercritical (Fr=%.3f)", channel.ErrDomain, y2, st.Froude())
	}
	return m.AlternateDepth(sec, Q, st.SpecificEnergy(), flow.Subcritical)
}

// SluiceDownstreamDepth returns the supercritical depth below a gate that
// passes Q with the subcritical depth y1 upstream, assuming no loss.
func SluiceDownstreamDepth(m flow.Model, sec channel.Section, Q, y1 float64) (float64, error) {
	st, err := m.State(sec, y1, Q)
	if err != nil {
		return 0, err
	}
	if st.Regime() != flow.Subcritical {
		return 0, fmt.Errorf("%w: depth %g above the gate is not subcritical (Fr=%.3f)", channel.ErrDomain, y1, st.Froude())
	}
	return m.AlternateDepth(sec, Q, st.SpecificEnergy(), flow.Supercritical)
}

// SluiceForce returns the force on the gate from the momentum balance between
// the upstream and downstream sections.
func SluiceForce(m flow.Model, sec channel.Section, y1, y2, Q float64) (float64, error) {
	return jump.ForceOnObstacle(m, sec, y1, y2, Q)
}

// FreeOverfall returns the brink depth 0.715·yc at a free overfall from a
// rectangular channel on a mild slope.
func FreeOverfall(m flow.Model, sec channel.Section, Q float64) (float64, error) {
	if !sec.IsRectangular() {
		return 0, fmt.Errorf("%w: brink depth ratio applies to rectangular channels, not %s",
			channel.ErrUnsupportedShape, sec.Shape())
	}
	yc, err := m.CriticalDepth(sec, Q)
	if err != nil {
		return 0, err
	}
	return 0.715 * yc, nil
}

// Drowned reports whether the tailwater depth exceeds the sequent depth of
// the supercritical jet, which submerges the jump against the structure.
func Drowned(yDownstream, ySequent float64) bool {
	return yDownstream > ySequent
}
