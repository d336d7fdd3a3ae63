package solver

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
	"github.com/chrissnell/openchannel/pkg/gvf"
	"github.com/chrissnell/openchannel/pkg/jump"
	"github.com/chrissnell/openchannel/pkg/structure"
)

const (
	defaultSteps       = 100
	defaultMaxDistance = 10000.0
)

// notComputed marks a field that depends on another field that failed.
func notComputed(name string, err error) error {
	return fmt.Errorf("%s not computed: %w", name, err)
}

func discharge(p Params) (float64, error) {
	return p.Require("discharge", "flow_rate", "Q")
}

// singleSlope reads a slope that must be a single value.
func singleSlope(p Params) (float64, error) {
	slopes, ok, err := p.Floats("slope")
	if err != nil {
		return 0, err
	}
	if !ok || len(slopes) == 0 {
		return 0, missing("slope")
	}
	if len(slopes) > 1 {
		return 0, fmt.Errorf("%w: this problem takes a single slope, got %d", channel.ErrAmbiguousSpec, len(slopes))
	}
	return slopes[0], nil
}

// slopeClass extends the mild/critical/steep classification with the
// horizontal and adverse beds.
func (s *Solver) slopeClass(S, Sc float64) string {
	switch {
	case S == 0:
		return "horizontal"
	case S < 0:
		return "adverse"
	}
	return string(s.model.ClassifySlope(S, Sc))
}

type channelState struct {
	yn, yc, sc          float64
	ynErr, ycErr, scErr error
}

// channelFields records normal depth, critical depth, critical slope and
// slope classification, the preamble shared by the weir and gvf problems.
func (s *Solver) channelFields(res *Result, sec channel.Section, Q, S float64, r flow.Resistance) channelState {
	m := s.model
	var c channelState

	c.yn, c.ynErr = m.NormalDepth(sec, Q, S, r)
	res.record("normal_depth", c.yn, c.ynErr)

	c.yc, c.ycErr = m.CriticalDepth(sec, Q)
	res.record("critical_depth", c.yc, c.ycErr)

	if c.ycErr != nil {
		c.scErr = notComputed("critical_depth", c.ycErr)
	} else {
		c.sc, c.scErr = m.CriticalSlope(sec, Q, r, c.yc)
	}
	res.record("critical_slope", c.sc, c.scErr)

	if c.scErr != nil && S > 0 {
		res.fail("slope_classification", notComputed("critical_slope", c.scErr))
	} else {
		res.set("slope_classification", s.slopeClass(S, c.sc))
	}
	return c
}

func (s *Solver) basicFlow(sec channel.Section, p Params) (Result, error) {
	Q, err := discharge(p)
	if err != nil {
		return Result{}, err
	}
	slopes, ok, err := p.Floats("slope")
	if err != nil {
		return Result{}, err
	}
	if !ok || len(slopes) == 0 {
		return Result{}, missing("slope")
	}
	r, err := ParseResistance(p)
	if err != nil {
		return Result{}, err
	}

	m := s.model
	var res Result

	yc, ycErr := m.CriticalDepth(sec, Q)
	res.record("critical_depth", yc, ycErr)

	Ec, _, err := m.CriticalEnergy(sec, Q)
	res.record("critical_energy", Ec, err)

	var (
		sc    float64
		scErr error
	)
	if ycErr != nil {
		scErr = notComputed("critical_depth", ycErr)
	} else {
		sc, scErr = m.CriticalSlope(sec, Q, r, yc)
	}
	res.record("critical_slope", sc, scErr)

	for i, S := range slopes {
		prefix := ""
		if len(slopes) > 1 {
			prefix = fmt.Sprintf("slope_%d.", i+1)
			res.set(prefix+"slope", S)
		}
		s.uniformFlow(&res, prefix, sec, Q, S, r, sc, scErr)
	}

	if sec.IsRectangular() {
		yb, err := structure.FreeOverfall(m, sec, Q)
		res.record("free_overfall_depth", yb, err)
	}
	return res, nil
}

func (s *Solver) uniformFlow(res *Result, prefix string, sec channel.Section, Q, S float64, r flow.Resistance, sc float64, scErr error) {
	m := s.model
	yn, err := m.NormalDepth(sec, Q, S, r)
	if !res.record(prefix+"normal_depth", yn, err) {
		dep := notComputed("normal_depth", res.Fields[len(res.Fields)-1].Err)
		for _, name := range []string{"velocity", "froude_number", "flow_regime", "specific_energy"} {
			res.fail(prefix+name, dep)
		}
	} else {
		st, err := m.State(sec, yn, Q)
		if err != nil {
			for _, name := range []string{"velocity", "froude_number", "flow_regime", "specific_energy"} {
				res.fail(prefix+name, err)
			}
		} else {
			res.set(prefix+"velocity", st.Velocity())
			res.set(prefix+"froude_number", st.Froude())
			res.set(prefix+"flow_regime", string(st.Regime()))
			res.set(prefix+"specific_energy", st.SpecificEnergy())
		}
	}

	if scErr != nil && S > 0 {
		res.fail(prefix+"slope_classification", notComputed("critical_slope", scErr))
		return
	}
	res.set(prefix+"slope_classification", s.slopeClass(S, sc))
}

func (s *Solver) hydraulicJump(sec channel.Section, p Params) (Result, error) {
	Q, err := discharge(p)
	if err != nil {
		return Result{}, err
	}
	y1, err := p.Require("depth_1", "upstream_depth")
	if err != nil {
		return Result{}, err
	}
	y2Given, hasY2, err := p.Float("depth_2")
	if err != nil {
		return Result{}, err
	}
	cd, hasCd, err := p.Float("drag_coefficient")
	if err != nil {
		return Result{}, err
	}
	blockArea, hasBlock, err := p.Float("block_area")
	if err != nil {
		return Result{}, err
	}

	m := s.model
	var res Result
	res.set("depth_1", y1)

	fr1, err := m.FroudeNumber(sec, y1, Q)
	if res.record("froude_1", fr1, err) {
		res.set("jump_type", string(jump.Classify(fr1)))
	} else {
		res.fail("jump_type", notComputed("froude_1", res.Fields[len(res.Fields)-1].Err))
	}

	M1, err := jump.SpecificMomentum(m, sec, y1, Q)
	res.record("specific_momentum", M1, err)

	y2, seqErr := jump.SequentDepth(m, sec, y1, Q)
	res.record("sequent_depth", y2, seqErr)
	dependents := []string{"energy_loss", "energy_loss_fraction", "jump_length"}
	if seqErr != nil {
		for _, name := range dependents {
			res.fail(name, notComputed("sequent_depth", seqErr))
		}
	} else {
		dE, err := jump.EnergyLoss(m, sec, y1, y2, Q)
		res.record("energy_loss", dE, err)
		frac, err := jump.EnergyLossFraction(m, sec, y1, y2, Q)
		res.record("energy_loss_fraction", frac, err)
		L, err := jump.Length(sec, y1, y2)
		res.record("jump_length", L, err)
	}

	// A measured tailwater replaces the sequent depth as the downstream state.
	yDown, downErr := y2, seqErr
	if hasY2 {
		yDown, downErr = y2Given, nil
	}
	res.record("depth_2", yDown, downErr)
	if downErr != nil {
		res.fail("froude_2", notComputed("depth_2", downErr))
		res.fail("force_on_obstacle", notComputed("depth_2", downErr))
	} else {
		fr2, err := m.FroudeNumber(sec, yDown, Q)
		res.record("froude_2", fr2, err)
		F, err := jump.ForceOnObstacle(m, sec, y1, yDown, Q)
		res.record("force_on_obstacle", F, err)
	}

	if hasY2 {
		if seqErr != nil {
			res.fail("drowned", notComputed("sequent_depth", seqErr))
		} else {
			res.set("drowned", structure.Drowned(y2Given, y2))
		}
	}

	if hasCd && hasBlock {
		V1, err := m.Velocity(sec, y1, Q)
		if err == nil && (cd < 0 || blockArea < 0) {
			err = fmt.Errorf("%w: drag coefficient and block area must not be negative", channel.ErrDomain)
		}
		res.record("drag_force", jump.DragForce(cd, V1, blockArea, m.Density), err)
	}
	return res, nil
}

func (s *Solver) gradualFlow(sec channel.Section, p Params) (Result, error) {
	Q, err := discharge(p)
	if err != nil {
		return Result{}, err
	}
	S, err := singleSlope(p)
	if err != nil {
		return Result{}, err
	}
	r, err := ParseResistance(p)
	if err != nil {
		return Result{}, err
	}
	y0, err := p.Require("start_depth", "depth")
	if err != nil {
		return Result{}, err
	}
	yTarget, hasTarget, err := p.Float("target_depth")
	if err != nil {
		return Result{}, err
	}
	steps := defaultSteps
	if v, ok, err := p.Float("num_steps"); err != nil {
		return Result{}, err
	} else if ok {
		if v < 1 || v != math.Trunc(v) {
			return Result{}, fmt.Errorf("%w: num_steps %g must be a positive integer", channel.ErrDomain, v)
		}
		steps = int(v)
	}
	maxDistance := defaultMaxDistance
	if v, ok, err := p.Float("max_distance"); err != nil {
		return Result{}, err
	} else if ok {
		maxDistance = v
	}
	profileDistance, hasProfile, err := p.Float("profile_distance")
	if err != nil {
		return Result{}, err
	}
	dirName, _ := p.String("direction")
	dir, err := gvf.ParseDirection(dirName)
	if err != nil {
		return Result{}, err
	}

	m := s.model
	var res Result
	c := s.channelFields(&res, sec, Q, S, r)

	switch {
	case c.ycErr != nil:
		res.fail("gvf_curve", notComputed("critical_depth", c.ycErr))
	case S > 0 && c.scErr != nil:
		res.fail("gvf_curve", notComputed("critical_slope", c.scErr))
	case S > 0 && c.ynErr != nil:
		res.fail("gvf_curve", notComputed("normal_depth", c.ynErr))
	default:
		yn := c.yn
		if S <= 0 {
			yn = math.Inf(1)
		}
		curve := gvf.ClassifyCurve(S, c.sc, y0, yn, c.yc)
		res.set("gvf_curve", string(curve))
		if info, ok := gvf.Describe(curve); ok {
			res.set("curve_description", info.Description)
		} else {
			res.fail("curve_description", fmt.Errorf("%w: no description for curve %s", channel.ErrDomain, curve))
		}
	}

	reach := gvf.Reach{Section: sec, Discharge: Q, Slope: S, Resistance: r}
	d0, err := gvf.Derivative(m, reach, y0)
	res.record("start_slope", d0, err)

	if hasTarget {
		L, err := gvf.DistanceToDepth(m, reach, y0, yTarget, steps, maxDistance)
		res.record("distance", L, err)
	}

	if hasProfile {
		prof, err := gvf.StepProfile(m, reach, y0, profileDistance, steps, dir)
		res.record("profile", prof, err)
		if err == nil {
			res.set("end_depth", prof.End())
		}
	}
	return res, nil
}
