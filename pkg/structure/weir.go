package structure

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/internal/numeric"
	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// WeirFlow is the flow over a broad-crested weir.
type WeirFlow struct {
	Height          float64
	UpstreamDepth   float64
	CrestDepth      float64
	DownstreamDepth float64
	Choked          bool
	Crossing        Crossing
}

// Weir places a broad-crested weir of the given height in a channel whose
// undisturbed depth is yApproach, usually the normal depth. Far downstream
// the flow returns to yApproach.
func Weir(m flow.Model, sec channel.Section, Q, height, yApproach float64) (WeirFlow, error) {
	if !(height > 0) || math.IsInf(height, 0) {
		return WeirFlow{}, fmt.Errorf("%w: weir height %g must be positive", channel.ErrDomain, height)
	}
	c, err := Obstacle(m, sec, Q, height, yApproach)
	if err != nil {
		return WeirFlow{}, err
	}
	return WeirFlow{
		Height:          height,
		UpstreamDepth:   c.ApproachDepth,
		CrestDepth:      c.Depth,
		DownstreamDepth: yApproach,
		Choked:          c.Choked,
		Crossing:        c,
	}, nil
}

// WeirHeightForCritical returns the smallest weir height that makes the
// flow critical over the crest without raising the approach depth:
// E(yApproach) − Ec.
func WeirHeightForCritical(m flow.Model, sec channel.Section, Q, yApproach float64) (float64, error) {
	E, err := m.SpecificEnergy(sec, yApproach, Q)
	if err != nil {
		return 0, err
	}
	Ec, _, err := m.CriticalEnergy(sec, Q)
	if err != nil {
		return 0, err
	}
	return E - Ec, nil
}

// WeirDischarge returns the discharge over a broad-crested weir of the given
// height when the upstream depth is yUpstream, taking the upstream velocity
// head as negligible so that the crest runs at critical energy
// Ec = yUpstream − height.
func WeirDischarge(m flow.Model, sec channel.Section, yUpstream, height float64) (float64, error) {
	if !(height >= 0) {
		return 0, fmt.Errorf("%w: weir height %g must be non-negative", channel.ErrDomain, height)
	}
	head := yUpstream - height
	if !(head > 0) {
		return 0, fmt.Errorf("%w: upstream depth %g does not overtop the weir (height %g)", channel.ErrDomain, yUpstream, height)
	}

	residual := func(Q float64) float64 {
		Ec, _, err := m.CriticalEnergy(sec, Q)
		if err != nil {
			return math.NaN()
		}
		return Ec/head - 1
	}

	guess := 1.0
	if g, err := sec.At(2 * head / 3); err == nil && g.TopWidth > 0 {
		// Critical flow in an equivalent rectangle.
		guess = g.Area * math.Sqrt(m.Gravity*g.HydraulicDepth)
	}
	return numeric.Solve(residual, numeric.Problem{
		Quantity: "weir discharge",
		Lower:    guess / 100,
		Upper:    guess,
		Limit:    1e6,
		Guess:    guess,
		Options:  m.Options(),
	})
}
