package flow

import (
	"github.com/chrissnell/openchannel/pkg/channel"
)

// State is a flow of Q through a section at depth y. Everything else is
// derived from that triple when asked for.
type State struct {
	Section   channel.Section
	Depth     float64
	Discharge float64

	model Model
	geom  channel.Geometry
}

// State validates the triple and returns the flow state.
func (m Model) State(sec channel.Section, y, Q float64) (State, error) {
	if Q < 0 {
		return State{}, domainf("discharge %g must be non-negative", Q)
	}
	g, err := m.wetted(sec, y)
	if err != nil {
		return State{}, err
	}
	return State{Section: sec, Depth: y, Discharge: Q, model: m, geom: g}, nil
}

// Geometry returns the section geometry at the state depth.
func (s State) Geometry() channel.Geometry { return s.geom }

func (s State) Area() float64 { return s.geom.Area }

func (s State) Velocity() float64 { return s.Discharge / s.geom.Area }

func (s State) HydraulicDepth() float64 { return s.geom.HydraulicDepth }

// Froude returns the Froude number, +Inf where the top width vanishes.
func (s State) Froude() float64 { return s.model.froude(s.geom, s.Discharge) }

// SpecificEnergy returns y + V²/2g.
func (s State) SpecificEnergy() float64 { return s.model.energy(s.geom, s.Discharge) }

func (s State) Regime() Regime { return s.model.ClassifyRegime(s.Froude()) }
