// Package structure models flow-control structures with the specific-energy
// and momentum relations: weirs, humps, sluice gates, transitions and free
// overfalls.
package structure

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// Crossing is the flow state where water passes over a bed rise or into a
// different section.
type Crossing struct {
	// ApproachDepth is the depth upstream of the structure. It is raised above
	// the given approach depth when the structure chokes the flow.
	ApproachDepth  float64
	ApproachEnergy float64
	// AvailableEnergy is the approach energy less the bed rise.
	AvailableEnergy float64
	CriticalDepth   float64
	CriticalEnergy  float64
	// Depth is the depth over the crest or within the transition.
	Depth  float64
	Choked bool
}

// Obstacle passes Q over a bed rise of height rise within one section.
func Obstacle(m flow.Model, sec channel.Section, Q, rise, yApproach float64) (Crossing, error) {
	return Transition(m, sec, sec, Q, yApproach, rise)
}

// Transition passes Q from the approach section up into the downstream
// section, whose bed is bedChange higher (negative for a drop). When the
// energy left after the bed change is below the critical energy of the
// downstream section, the flow is choked: the downstream section runs
// critical and the approach depth rises to supply Ec + bedChange. Otherwise
// the depth in the transition is the alternate depth on the approach branch.
func Transition(m flow.Model, up, down channel.Section, Q, yApproach, bedChange float64) (Crossing, error) {
	if math.IsNaN(bedChange) || math.IsInf(bedChange, 0) {
		return Crossing{}, fmt.Errorf("%w: bed change %g must be finite", channel.ErrDomain, bedChange)
	}
	if !(Q > 0) {
		return Crossing{}, fmt.Errorf("%w: discharge %g must be positive", channel.ErrDomain, Q)
	}
	approach, err := m.State(up, yApproach, Q)
	if err != nil {
		return Crossing{}, err
	}

	c := Crossing{
		ApproachDepth:  yApproach,
		ApproachEnergy: approach.SpecificEnergy(),
	}
	c.AvailableEnergy = c.ApproachEnergy - bedChange
	if c.CriticalEnergy, c.CriticalDepth, err = m.CriticalEnergy(down, Q); err != nil {
		return c, err
	}

	branch := flow.Subcritical
	if approach.Regime() == flow.Supercritical {
		branch = flow.Supercritical
	}

	if c.AvailableEnergy <= c.CriticalEnergy {
		c.Choked = true
		c.Depth = c.CriticalDepth
		if c.AvailableEnergy < c.CriticalEnergy {
			// A choked supercritical approach jumps, so the raised
			// approach depth is always subcritical.
			raised, err := m.AlternateDepth(up, Q, c.CriticalEnergy+bedChange, flow.Subcritical)
			if err != nil {
				return c, err
			}
			c.ApproachDepth = raised
			c.ApproachEnergy = c.CriticalEnergy + bedChange
			c.AvailableEnergy = c.CriticalEnergy
		}
		return c, nil
	}

	c.Depth, err = m.AlternateDepth(down, Q, c.AvailableEnergy, branch)
	return c, err
}
