// Package gvf integrates gradually varied flow profiles,
// dy/dx = (S0 − Sf) / (1 − Fr²), and classifies the resulting curves.
package gvf

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/openchannel/internal/numeric"
	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// Reach is a prismatic channel carrying a steady discharge on a bed slope.
type Reach struct {
	Section    channel.Section
	Discharge  float64
	Slope      float64
	Resistance flow.Resistance
}

func (r Reach) validate() error {
	if !(r.Discharge > 0) || math.IsInf(r.Discharge, 0) {
		return fmt.Errorf("%w: discharge %g must be positive", channel.ErrDomain, r.Discharge)
	}
	if math.IsNaN(r.Slope) || math.IsInf(r.Slope, 0) {
		return fmt.Errorf("%w: bed slope %g must be finite", channel.ErrDomain, r.Slope)
	}
	return r.Resistance.Validate()
}

// Direction is the marching direction of a profile from its control point.
type Direction int

const (
	Downstream Direction = iota + 1
	Upstream
)

func (d Direction) String() string {
	if d == Upstream {
		return "upstream"
	}
	return "downstream"
}

// ParseDirection accepts "upstream" or "downstream".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "downstream":
		return Downstream, nil
	case "upstream":
		return Upstream, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", channel.ErrAmbiguousSpec, s)
}

// Derivative returns dy/dx at depth y. Where |1 − Fr²| falls below the
// model's near-critical threshold, or the top width vanishes, it returns 0.
func Derivative(m flow.Model, r Reach, y float64) (float64, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	return derivative(m, r, y)
}

func derivative(m flow.Model, r Reach, y float64) (float64, error) {
	if !(y > 0) {
		return 0, fmt.Errorf("%w: depth %g must be positive", channel.ErrDomain, y)
	}
	g, err := r.Section.At(y)
	if err != nil {
		return 0, err
	}
	if g.Area <= 0 || g.TopWidth <= 0 {
		return 0, nil
	}
	Q := r.Discharge
	v := Q / g.Area
	sf := r.Resistance.FrictionSlope(v, g.HydraulicRadius)
	fr2 := Q * Q * g.TopWidth / (m.Gravity * g.Area * g.Area * g.Area)
	den := 1 - fr2
	if math.Abs(den) < m.NearCritical {
		return 0, nil
	}
	return (r.Slope - sf) / den, nil
}

// Profile is a computed water-surface profile. X is measured from the
// control point and is negative for upstream profiles.
type Profile struct {
	X []float64 `json:"x" msgpack:"x"`
	Y []float64 `json:"y" msgpack:"y"`
}

// End returns the depth at the far end of the profile.
func (p Profile) End() float64 {
	if len(p.Y) == 0 {
		return math.NaN()
	}
	return p.Y[len(p.Y)-1]
}

// Length returns the marched distance.
func (p Profile) Length() float64 {
	if len(p.X) == 0 {
		return 0
	}
	return math.Abs(p.X[len(p.X)-1])
}

// StepProfile marches the profile from yStart over distance in steps equal
// explicit Euler steps. Depths are floored at the model's minimum depth.
func StepProfile(m flow.Model, r Reach, yStart, distance float64, steps int, dir Direction) (Profile, error) {
	if err := r.validate(); err != nil {
		return Profile{}, err
	}
	if !(yStart > 0) || math.IsInf(yStart, 0) {
		return Profile{}, fmt.Errorf("%w: start depth %g must be positive", channel.ErrDomain, yStart)
	}
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return Profile{}, fmt.Errorf("%w: distance %g must be non-negative", channel.ErrDomain, distance)
	}
	if steps < 1 {
		return Profile{}, fmt.Errorf("%w: step count %d must be at least 1", channel.ErrDomain, steps)
	}
	return march(m, r, yStart, distance, steps, dir)
}

func march(m flow.Model, r Reach, yStart, distance float64, steps int, dir Direction) (Profile, error) {
	end := distance
	if dir == Upstream {
		end = -distance
	}
	p := Profile{
		X: floats.Span(make([]float64, steps+1), 0, end),
		Y: make([]float64, steps+1),
	}
	dx := end / float64(steps)

	p.Y[0] = yStart
	for i := 0; i < steps; i++ {
		slope, err := derivative(m, r, p.Y[i])
		if err != nil {
			return Profile{}, err
		}
		p.Y[i+1] = math.Max(p.Y[i]+slope*dx, m.MinDepth)
	}
	return p, nil
}

// DirectionTowards returns the marching direction in which a surface with
// slope dydx at yStart moves towards yTarget.
func DirectionTowards(dydx, yStart, yTarget float64) Direction {
	if (dydx > 0) != (yTarget > yStart) {
		return Upstream
	}
	return Downstream
}

const distanceQuantity = "distance to depth"

// DistanceToDepth finds the distance from yStart at which the stepped
// profile reaches yTarget. Trial profiles of growing length, up to
// maxDistance, are scanned station by station for the first crossing of the
// target; a profile that passes critical depth first does not reach it. The
// distance is then refined near that crossing so that a profile of steps
// steps over it ends at yTarget, or, failing that, on the trial profile
// itself.
func DistanceToDepth(m flow.Model, r Reach, yStart, yTarget float64, steps int, maxDistance float64) (float64, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	if !(yStart > 0) || !(yTarget > 0) {
		return 0, fmt.Errorf("%w: depths %g and %g must be positive", channel.ErrDomain, yStart, yTarget)
	}
	if steps < 1 {
		return 0, fmt.Errorf("%w: step count %d must be at least 1", channel.ErrDomain, steps)
	}
	if !(maxDistance > 0) {
		return 0, fmt.Errorf("%w: maximum distance %g must be positive", channel.ErrDomain, maxDistance)
	}
	if yStart == yTarget {
		return 0, nil
	}

	d0, err := derivative(m, r, yStart)
	if err != nil {
		return 0, err
	}
	if d0 == 0 {
		return 0, &channel.ConvergenceError{
			Quantity: distanceQuantity,
			Stages: []channel.Stage{{Method: "direction", Status: numeric.Stalled.String(),
				Root: yStart, Residual: yTarget - yStart}},
		}
	}
	dir := DirectionTowards(d0, yStart, yTarget)

	yc := math.NaN()
	if v, err := m.CriticalDepth(r.Section, r.Discharge); err == nil {
		yc = v
		if (yStart > yc) != (yTarget > yc) {
			return 0, fmt.Errorf("%w: target depth %g lies across critical depth %.4g from %g",
				channel.ErrDomain, yTarget, yc, yStart)
		}
	}
	scale := math.Abs(yTarget - yStart)

	trial, a, b, br, err := bracketCrossing(m, r, yStart, yTarget, yc, steps, dir, maxDistance)
	if err != nil {
		return 0, err
	}
	stages := []numeric.Stage{br}
	if br.Status != numeric.Converged {
		return math.NaN(), numeric.Failure(distanceQuantity, stages...)
	}

	opts := m.Options()
	endResidual := func(L float64) float64 {
		p, err := march(m, r, yStart, L, steps, dir)
		if err != nil {
			return math.NaN()
		}
		return (p.End() - yTarget) / scale
	}
	if lo, hi, ok := signChange(endResidual, a, b, trial.Length()); ok {
		st := numeric.Brent(endResidual, lo, hi, opts)
		stages = append(stages, st)
		if st.Accepted(numeric.DefaultResidual) {
			return st.Root, nil
		}
	}

	onTrial := func(L float64) float64 { return (trial.depthAt(L) - yTarget) / scale }
	st := numeric.Brent(onTrial, a, b, opts)
	st.Method = "brent (trial profile)"
	stages = append(stages, st)
	if st.Accepted(numeric.DefaultResidual) {
		return st.Root, nil
	}
	return math.NaN(), numeric.Failure(distanceQuantity, stages...)
}

// bracketCrossing marches trial profiles of doubling length until one
// crosses yTarget, returning it with the distances of the stations on either
// side of the first crossing.
func bracketCrossing(m flow.Model, r Reach, yStart, yTarget, yc float64, steps int, dir Direction,
	maxDistance float64) (Profile, float64, float64, numeric.Stage, error) {
	br := numeric.Stage{Method: "bracket", Status: numeric.NoSignChange, Root: math.NaN(), Residual: math.NaN()}
	L := math.Min(100*math.Abs(yTarget-yStart), maxDistance)
	for i := 1; ; i++ {
		p, err := march(m, r, yStart, L, steps, dir)
		if err != nil {
			return Profile{}, 0, 0, br, err
		}
		br.Iterations, br.Root = i, L
		br.Residual = (p.End() - yTarget) / math.Abs(yTarget-yStart)
		if a, b, ok := p.firstCrossing(yTarget, yc); ok {
			br.Status = numeric.Converged
			return p, a, b, br, nil
		}
		if L >= maxDistance {
			return p, 0, 0, br, nil
		}
		L = math.Min(2*L, maxDistance)
	}
}

// firstCrossing returns the distances of the stations either side of the
// first point where the profile passes yTarget. It reports false when the
// profile passes critical depth yc first, or never reaches the target.
func (p Profile) firstCrossing(yTarget, yc float64) (float64, float64, bool) {
	if len(p.Y) == 0 {
		return 0, 0, false
	}
	y0 := p.Y[0]
	above := y0 > yTarget
	for i := 1; i < len(p.Y); i++ {
		y := p.Y[i]
		if y == yTarget || (y > yTarget) != above {
			return math.Abs(p.X[i-1]), math.Abs(p.X[i]), true
		}
		if !math.IsNaN(yc) && (y > yc) != (y0 > yc) {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

// depthAt interpolates the profile depth at distance L from the control
// point.
func (p Profile) depthAt(L float64) float64 {
	n := len(p.X)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || L <= 0 {
		return p.Y[0]
	}
	dx := p.Length() / float64(n-1)
	i := int(L / dx)
	if i >= n-1 {
		return p.Y[n-1]
	}
	t := (L - float64(i)*dx) / dx
	return p.Y[i] + t*(p.Y[i+1]-p.Y[i])
}

// signChange looks for the first sign change of f over 0, a, b and points
// past b at doubling offsets, no further than a quarter of b beyond it or
// limit.
func signChange(f func(float64) float64, a, b, limit float64) (float64, float64, bool) {
	limit = math.Min(limit, 1.25*b)
	pts := []float64{0, a, b}
	for off := b - a; off > 0 && b+off < limit; off *= 2 {
		pts = append(pts, b+off)
	}
	if b < limit {
		pts = append(pts, limit)
	}

	prev := f(pts[0])
	for i := 1; i < len(pts); i++ {
		if pts[i] <= pts[i-1] {
			continue
		}
		cur := f(pts[i])
		if math.IsNaN(cur) || math.IsNaN(prev) {
			return 0, 0, false
		}
		if cur == 0 || math.Signbit(cur) != math.Signbit(prev) {
			return pts[i-1], pts[i], true
		}
		prev = cur
	}
	return 0, 0, false
}
