// Package jump solves the momentum balance across a hydraulic jump: sequent
// depths, energy dissipated, and forces on the obstacles that hold a jump.
package jump

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/internal/numeric"
	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// SpecificMomentum returns M = Q²/(gA) + A·ȳ (m³) at depth y, where ȳ is the
// centroid depth below the free surface.
func SpecificMomentum(m flow.Model, sec channel.Section, y, Q float64) (float64, error) {
	if !(y > 0) {
		return 0, fmt.Errorf("%w: depth %g must be positive", channel.ErrDomain, y)
	}
	g, err := sec.At(y)
	if err != nil {
		return 0, err
	}
	return momentum(m, g, Q), nil
}

func momentum(m flow.Model, g channel.Geometry, Q float64) float64 {
	return Q*Q/(m.Gravity*g.Area) + g.Area*g.Centroid
}

// Belanger returns the rectangular-channel sequent depth
// y2 = (y1/2)(√(1+8Fr1²) − 1).
func Belanger(y1, Fr1 float64) float64 {
	return y1 / 2 * (math.Sqrt(1+8*Fr1*Fr1) - 1)
}

// SequentDepth returns the subcritical depth after a jump from the
// supercritical depth y1 for discharge Q. Upstream Froude numbers within the
// model's critical band of 1, or below it, form no jump. Rectangular and wide
// sections use the Belanger formula; every other shape searches for the
// other root of M(y) = M(y1).
func SequentDepth(m flow.Model, sec channel.Section, y1, Q float64) (float64, error) {
	if err := checkInputs(sec, y1, Q); err != nil {
		return 0, err
	}
	fr1, err := m.FroudeNumber(sec, y1, Q)
	if err != nil {
		return 0, err
	}
	if !(fr1 > 1+m.CriticalBand) {
		return 0, fmt.Errorf("%w: upstream Froude number %.4g at depth %g is not supercritical, no jump forms",
			channel.ErrDomain, fr1, y1)
	}
	if sec.IsRectangular() {
		v := Q / (sec.Width() * y1)
		return Belanger(y1, v/math.Sqrt(m.Gravity*y1)), nil
	}
	return SequentDepthGeneral(m, sec, y1, Q)
}

// SequentDepthGeneral always solves the momentum balance numerically, on
// either side of the momentum minimum: a supercritical y1 yields a
// subcritical sequent depth and vice versa.
func SequentDepthGeneral(m flow.Model, sec channel.Section, y1, Q float64) (float64, error) {
	if err := checkInputs(sec, y1, Q); err != nil {
		return 0, err
	}
	g1, err := sec.At(y1)
	if err != nil {
		return 0, err
	}
	M1 := momentum(m, g1, Q)
	M := func(y float64) float64 {
		g, err := sec.At(y)
		if err != nil || g.Area <= 0 {
			return math.NaN()
		}
		return momentum(m, g, Q)
	}

	upper, err := searchBound(m, sec, y1, Q)
	if err != nil {
		return 0, err
	}

	opts := m.Options()
	opts.MaxIterations = max(opts.MaxIterations, 200)
	lo := math.Min(m.MinDepth, y1/2)
	minimum := numeric.Minimize(M, lo, upper, opts)
	if minimum.Status != numeric.Converged {
		return 0, &channel.ConvergenceError{
			Quantity: "momentum minimum",
			Stages: []channel.Stage{{Method: minimum.Method, Status: minimum.Status.String(),
				Root: minimum.Root, Residual: minimum.Residual, Iterations: minimum.Iterations}},
		}
	}
	yMin, Mmin := minimum.Root, minimum.Residual
	if (M1-Mmin)/M1 <= 1e-9 {
		return 0, fmt.Errorf("%w: depth %g is at the momentum minimum, no jump forms", channel.ErrDomain, y1)
	}

	residual := func(y float64) float64 { return M(y)/M1 - 1 }
	p := numeric.Problem{Quantity: "sequent depth", Options: m.Options()}
	if y1 < yMin {
		p.Lower, p.Upper, p.Limit = yMin, upper, upper
	} else {
		p.Lower, p.Upper, p.Limit = lo, yMin, yMin
	}
	p.Guess = equivalentRectangleGuess(m, g1, Q)
	if p.Guess <= p.Lower || p.Guess >= p.Limit {
		p.Guess = 0.5 * (p.Lower + p.Limit)
	}
	return numeric.Solve(residual, p)
}

// searchBound is the largest depth considered for a sequent depth: the
// diameter of a closed conduit, otherwise a multiple of max(y1, yc).
func searchBound(m flow.Model, sec channel.Section, y1, Q float64) (float64, error) {
	if d, ok := sec.Bounded(); ok {
		return d, nil
	}
	yc, err := m.CriticalDepth(sec, Q)
	if err != nil {
		return 0, err
	}
	return m.JumpSearchFactor * math.Max(y1, yc), nil
}

// equivalentRectangleGuess applies the Belanger formula to a rectangle as
// wide as the local top width and as deep as the hydraulic depth.
func equivalentRectangleGuess(m flow.Model, g channel.Geometry, Q float64) float64 {
	if g.TopWidth <= 0 || g.HydraulicDepth <= 0 {
		return 2 * g.Depth
	}
	v := Q / g.Area
	return Belanger(g.HydraulicDepth, v/math.Sqrt(m.Gravity*g.HydraulicDepth))
}

func checkInputs(sec channel.Section, y1, Q float64) error {
	if !(y1 > 0) || math.IsInf(y1, 0) {
		return fmt.Errorf("%w: upstream depth %g must be positive", channel.ErrDomain, y1)
	}
	if !(Q > 0) || math.IsInf(Q, 0) {
		return fmt.Errorf("%w: discharge %g must be positive", channel.ErrDomain, Q)
	}
	if d, ok := sec.Bounded(); ok && y1 >= d {
		return fmt.Errorf("%w: upstream depth %g fills the conduit (D=%g)", channel.ErrDomain, y1, d)
	}
	return nil
}
