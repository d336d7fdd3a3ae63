package flow

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/internal/numeric"
	"github.com/chrissnell/openchannel/pkg/channel"
)

// Discharge returns the uniform-flow discharge (m³/s) at depth y on slope S.
func (m Model) Discharge(sec channel.Section, y, S float64, r Resistance) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	if math.IsNaN(S) || S < 0 {
		return 0, domainf("slope %g must be non-negative", S)
	}
	g, err := sec.At(y)
	if err != nil {
		return 0, err
	}
	return g.Area * r.Velocity(g.HydraulicRadius, S), nil
}

// NormalDepth finds the depth at which uniform flow on slope S carries Q.
// Closed conduits are searched only up to the depth of maximum discharge.
func (m Model) NormalDepth(sec channel.Section, Q, S float64, r Resistance) (float64, error) {
	if !positive(Q) {
		return 0, domainf("discharge %g must be positive", Q)
	}
	if math.IsNaN(S) || math.IsInf(S, 0) || S < 0 {
		return 0, domainf("slope %g must be non-negative", S)
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}

	limit := m.depthLimit(sec)
	if _, closed := sec.Bounded(); closed {
		yMax, err := m.MaxDischargeDepth(sec, r.Law)
		if err != nil {
			return 0, err
		}
		limit = yMax
	}

	residual := func(y float64) float64 {
		q, err := m.Discharge(sec, y, S, r)
		if err != nil {
			return math.NaN()
		}
		return q/Q - 1
	}
	p := m.Search("normal depth", limit)
	if guess, ok := m.normalDepthGuess(sec, Q, S, r); ok {
		p.Guess = math.Min(guess, limit)
	}
	return numeric.Solve(residual, p)
}

// normalDepthGuess estimates the normal depth of an equivalent wide
// rectangle of the section's width at InitialDepth.
func (m Model) normalDepthGuess(sec channel.Section, Q, S float64, r Resistance) (float64, bool) {
	if S <= 0 {
		return 0, false
	}
	g, err := sec.At(m.InitialDepth)
	if err != nil || g.TopWidth <= 0 {
		return 0, false
	}
	q := Q / g.TopWidth
	var y float64
	if r.Law == ChezyLaw {
		y = math.Pow(q/(r.Coefficient*math.Sqrt(S)), 2.0/3.0)
	} else {
		y = math.Pow(q*r.Coefficient/math.Sqrt(S), 3.0/5.0)
	}
	return y, positive(y)
}

// MaxDischargeDepth returns the depth of maximum uniform-flow discharge in a
// circular conduit, which lies just below the crown. A compound section on a
// circular bottom without a top section is the same conduit.
func (m Model) MaxDischargeDepth(sec channel.Section, law Law) (float64, error) {
	d, ok := sec.Bounded()
	if !ok {
		return 0, fmt.Errorf("%w: maximum discharge depth is defined for circular conduits only, not %s",
			channel.ErrUnsupportedShape, sec.Shape())
	}
	exp := Resistance{Law: law}.conveyanceExponent()
	conveyance := func(y float64) float64 {
		g, err := sec.At(y)
		if err != nil {
			return math.NaN()
		}
		return g.Area * math.Pow(g.HydraulicRadius, exp)
	}
	opts := m.Options()
	opts.MaxIterations = max(opts.MaxIterations, 200)
	st := numeric.Maximize(conveyance, d/2, d, opts)
	if st.Status != numeric.Converged {
		return 0, &channel.ConvergenceError{
			Quantity: "maximum discharge depth",
			Stages: []channel.Stage{{
				Method: st.Method, Status: st.Status.String(), Root: st.Root,
				Residual: st.Residual, Iterations: st.Iterations,
			}},
		}
	}
	return st.Root, nil
}

// Roughness back-calculates the resistance coefficient of the given law from
// an observed uniform flow of Q at depth y on slope S.
func (m Model) Roughness(sec channel.Section, Q, y, S float64, law Law) (Resistance, error) {
	if !positive(Q) {
		return Resistance{}, domainf("discharge %g must be positive", Q)
	}
	if !positive(y) {
		return Resistance{}, domainf("depth %g must be positive", y)
	}
	if !positive(S) {
		return Resistance{}, domainf("slope %g must be positive", S)
	}
	g, err := sec.At(y)
	if err != nil {
		return Resistance{}, err
	}
	V := Q / g.Area
	R := g.HydraulicRadius
	switch law {
	case ManningLaw:
		return Manning(math.Pow(R, 2.0/3.0) * math.Sqrt(S) / V), nil
	case ChezyLaw:
		return Chezy(V / math.Sqrt(R*S)), nil
	}
	return Resistance{}, fmt.Errorf("%w: no resistance law selected", channel.ErrAmbiguousSpec)
}
