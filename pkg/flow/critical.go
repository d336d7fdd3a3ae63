package flow

import (
	"math"

	"github.com/chrissnell/openchannel/internal/numeric"
	"github.com/chrissnell/openchannel/pkg/channel"
)

// CriticalDepth finds the depth at which Q²T/(gA³) = 1.
func (m Model) CriticalDepth(sec channel.Section, Q float64) (float64, error) {
	if !positive(Q) {
		return 0, domainf("discharge %g must be positive", Q)
	}
	residual := func(y float64) float64 {
		g, err := sec.At(y)
		if err != nil || g.Area <= 0 {
			return math.NaN()
		}
		return Q*Q*g.TopWidth/(m.Gravity*g.Area*g.Area*g.Area) - 1
	}
	p := m.Search("critical depth", m.depthLimit(sec))
	if sec.IsRectangular() {
		q := Q / sec.Width()
		p.Guess = math.Cbrt(q * q / m.Gravity)
	}
	return numeric.Solve(residual, p)
}

// CriticalSlope returns the slope whose normal depth equals the critical
// depth yc, by inverting the resistance law at yc.
func (m Model) CriticalSlope(sec channel.Section, Q float64, r Resistance, yc float64) (float64, error) {
	if !positive(Q) {
		return 0, domainf("discharge %g must be positive", Q)
	}
	if !positive(yc) {
		return 0, domainf("critical depth %g must be positive", yc)
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	g, err := sec.At(yc)
	if err != nil {
		return 0, err
	}
	return r.FrictionSlope(Q/g.Area, g.HydraulicRadius), nil
}

// Velocity returns the mean velocity Q/A at depth y.
func (m Model) Velocity(sec channel.Section, y, Q float64) (float64, error) {
	g, err := m.wetted(sec, y)
	if err != nil {
		return 0, err
	}
	return Q / g.Area, nil
}

// FroudeNumber returns V/√(gD). It is +Inf where the top width vanishes.
func (m Model) FroudeNumber(sec channel.Section, y, Q float64) (float64, error) {
	g, err := m.wetted(sec, y)
	if err != nil {
		return 0, err
	}
	return m.froude(g, Q), nil
}

func (m Model) froude(g channel.Geometry, Q float64) float64 {
	if g.HydraulicDepth <= 0 {
		return math.Inf(1)
	}
	return (Q / g.Area) / math.Sqrt(m.Gravity*g.HydraulicDepth)
}

// SpecificEnergy returns y + V²/2g (m) relative to the channel bed.
func (m Model) SpecificEnergy(sec channel.Section, y, Q float64) (float64, error) {
	g, err := m.wetted(sec, y)
	if err != nil {
		return 0, err
	}
	return m.energy(g, Q), nil
}

func (m Model) energy(g channel.Geometry, Q float64) float64 {
	v := Q / g.Area
	return g.Depth + v*v/(2*m.Gravity)
}

// CriticalEnergy returns the minimum specific energy for Q and the critical
// depth at which it occurs.
func (m Model) CriticalEnergy(sec channel.Section, Q float64) (E, yc float64, err error) {
	yc, err = m.CriticalDepth(sec, Q)
	if err != nil {
		return 0, 0, err
	}
	E, err = m.SpecificEnergy(sec, yc, Q)
	return E, yc, err
}

// AlternateDepth returns the depth on the given branch whose specific
// energy for Q equals E. Asking for the critical regime returns the critical
// depth when E matches the critical energy.
func (m Model) AlternateDepth(sec channel.Section, Q, E float64, regime Regime) (float64, error) {
	if !positive(E) {
		return 0, domainf("specific energy %g must be positive", E)
	}
	Ec, yc, err := m.CriticalEnergy(sec, Q)
	if err != nil {
		return 0, err
	}
	switch {
	case regime == Critical:
		if math.Abs(E-Ec) > m.CriticalBand*Ec {
			return 0, domainf("specific energy %g is not critical (Ec=%g)", E, Ec)
		}
		return yc, nil
	case math.Abs(E-Ec) <= m.Tolerance*math.Max(1, Ec):
		return yc, nil
	case E < Ec:
		return 0, domainf("specific energy %g is below the critical energy %g for Q=%g", E, Ec, Q)
	}

	residual := func(y float64) float64 {
		g, err := sec.At(y)
		if err != nil || g.Area <= 0 {
			return math.NaN()
		}
		return m.energy(g, Q)/E - 1
	}

	var p numeric.Problem
	if regime == Supercritical {
		p = numeric.Problem{
			Quantity: "supercritical alternate depth",
			Lower:    math.Min(m.MinDepth, yc/2),
			Upper:    yc,
			Limit:    yc,
			Guess:    yc / 2,
			Options:  m.Options(),
		}
	} else {
		limit := E
		if d, ok := sec.Bounded(); ok {
			limit = math.Min(limit, d)
		}
		p = numeric.Problem{
			Quantity: "subcritical alternate depth",
			Lower:    yc,
			Upper:    limit,
			Limit:    limit,
			Guess:    0.8 * E,
			Options:  m.Options(),
		}
	}
	return numeric.Solve(residual, p)
}

// wetted evaluates sec at a strictly positive depth.
func (m Model) wetted(sec channel.Section, y float64) (channel.Geometry, error) {
	if !positive(y) {
		return channel.Geometry{}, domainf("depth %g must be positive", y)
	}
	g, err := sec.At(y)
	if err != nil {
		return channel.Geometry{}, err
	}
	if g.Area <= 0 {
		return channel.Geometry{}, domainf("flow area at depth %g is zero", y)
	}
	return g, nil
}
