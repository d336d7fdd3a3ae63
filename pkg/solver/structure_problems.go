package solver

import (
	"fmt"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/jump"
	"github.com/chrissnell/openchannel/pkg/structure"
)

// weir solves the weir problem, or only the critical weir height when
// heightOnly is set.
func (s *Solver) weir(sec channel.Section, p Params, heightOnly bool) (Result, error) {
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
	var height float64
	if !heightOnly {
		if height, err = p.Require("weir_height"); err != nil {
			return Result{}, err
		}
	}
	yGiven, hasApproach, err := p.Float("approach_depth")
	if err != nil {
		return Result{}, err
	}

	m := s.model
	var res Result
	c := s.channelFields(&res, sec, Q, S, r)

	yApproach, approachErr := c.yn, c.ynErr
	if hasApproach {
		yApproach, approachErr = yGiven, nil
	}
	if approachErr != nil {
		approachErr = notComputed("normal_depth", approachErr)
	}

	if !heightOnly {
		res.set("weir_height", height)
	}
	if approachErr != nil {
		res.fail("weir_height_for_critical", approachErr)
	} else {
		h, err := structure.WeirHeightForCritical(m, sec, Q, yApproach)
		res.record("weir_height_for_critical", h, err)
	}
	if heightOnly {
		return res, nil
	}

	outputs := []string{"upstream_depth", "depth_over_weir", "downstream_depth", "choked"}
	if approachErr != nil {
		for _, name := range outputs {
			res.fail(name, approachErr)
		}
		return res, nil
	}
	w, err := structure.Weir(m, sec, Q, height, yApproach)
	if err != nil {
		for _, name := range outputs {
			res.fail(name, err)
		}
		return res, nil
	}
	res.set("upstream_depth", w.UpstreamDepth)
	res.set("depth_over_weir", w.CrestDepth)
	res.set("downstream_depth", w.DownstreamDepth)
	res.set("choked", w.Choked)
	return res, nil
}

func (s *Solver) sluiceGate(sec channel.Section, p Params) (Result, error) {
	Q, _, hasQ, err := p.FloatAny("discharge", "flow_rate", "Q")
	if err != nil {
		return Result{}, err
	}
	y1, hasY1, err := p.Float("upstream_depth")
	if err != nil {
		return Result{}, err
	}
	y2, hasY2, err := p.Float("downstream_depth")
	if err != nil {
		return Result{}, err
	}
	known := 0
	for _, ok := range []bool{hasQ, hasY1, hasY2} {
		if ok {
			known++
		}
	}
	if known < 2 {
		return Result{}, fmt.Errorf("%w: a sluice gate needs two of discharge, upstream_depth and downstream_depth",
			channel.ErrAmbiguousSpec)
	}
	k, _, err := p.Float("loss_coefficient")
	if err != nil {
		return Result{}, err
	}
	findForce, err := p.Bool("find_force", true)
	if err != nil {
		return Result{}, err
	}
	tailwater, hasTailwater, err := p.Float("tailwater_depth")
	if err != nil {
		return Result{}, err
	}

	m := s.model
	var res Result

	var qErr, y1Err, y2Err error
	switch {
	case !hasQ:
		Q, qErr = structure.SluiceDischarge(m, sec, y1, y2, k)
	case !hasY1:
		y1, y1Err = structure.SluiceUpstreamDepth(m, sec, Q, y2)
	case !hasY2:
		y2, y2Err = structure.SluiceDownstreamDepth(m, sec, Q, y1)
	}
	okQ := res.record("discharge", Q, qErr)
	okY1 := res.record("upstream_depth", y1, y1Err)
	okY2 := res.record("downstream_depth", y2, y2Err)
	solved := okQ && okY1 && okY2
	unsolved := firstErr(res, "discharge", "upstream_depth", "downstream_depth")

	if solved {
		fr1, err := m.FroudeNumber(sec, y1, Q)
		res.record("froude_upstream", fr1, err)
		fr2, err := m.FroudeNumber(sec, y2, Q)
		res.record("froude_downstream", fr2, err)
	} else {
		res.fail("froude_upstream", unsolved)
		res.fail("froude_downstream", unsolved)
	}

	if findForce {
		if solved {
			F, err := structure.SluiceForce(m, sec, y1, y2, Q)
			res.record("force_on_gate", F, err)
		} else {
			res.fail("force_on_gate", unsolved)
		}
	}

	if hasTailwater {
		if !solved {
			res.fail("sequent_depth", unsolved)
			res.fail("drowned", unsolved)
		} else {
			ySeq, err := jump.SequentDepth(m, sec, y2, Q)
			if res.record("sequent_depth", ySeq, err) {
				res.set("drowned", structure.Drowned(tailwater, ySeq))
			} else {
				res.fail("drowned", firstErr(res, "sequent_depth"))
			}
		}
	}

	if p.Has("slope") && okQ {
		if S, err := singleSlope(p); err != nil {
			res.fail("normal_depth", err)
		} else if r, err := ParseResistance(p); err != nil {
			res.fail("normal_depth", err)
		} else {
			yn, err := m.NormalDepth(sec, Q, S, r)
			res.record("normal_depth", yn, err)
		}
	}

	if okQ {
		yc, err := m.CriticalDepth(sec, Q)
		res.record("critical_depth", yc, err)
	} else {
		res.fail("critical_depth", unsolved)
	}
	return res, nil
}

// firstErr wraps the error of the first failed field among names.
func firstErr(res Result, names ...string) error {
	for _, name := range names {
		if f, ok := res.Get(name); ok && !f.OK() {
			return notComputed(name, f.Err)
		}
	}
	return nil
}

func (s *Solver) transition(sec channel.Section, p Params) (Result, error) {
	Q, err := discharge(p)
	if err != nil {
		return Result{}, err
	}
	yApproach, err := p.Require("approach_depth", "upstream_depth")
	if err != nil {
		return Result{}, err
	}
	bedChange, _, err := p.Float("bed_change")
	if err != nil {
		return Result{}, err
	}

	down := sec
	if sub := p.Sub("transition"); len(sub) > 0 {
		// Keys the transition section leaves out come from the approach section.
		for k, v := range p {
			if _, ok := sub[k]; !ok {
				sub[k] = v
			}
		}
		if down, err = ParseSection(sub); err != nil {
			return Result{}, fmt.Errorf("transition section: %w", err)
		}
	}

	var res Result
	c, err := structure.Transition(s.model, sec, down, Q, yApproach, bedChange)
	if err != nil {
		for _, name := range catalogue[Transition].Outputs {
			res.fail(name, err)
		}
		return res, nil
	}
	res.set("approach_energy", c.ApproachEnergy)
	res.set("available_energy", c.AvailableEnergy)
	res.set("critical_depth_transition", c.CriticalDepth)
	res.set("critical_energy_transition", c.CriticalEnergy)
	res.set("flow_goes_critical", c.Choked)
	res.set("depth_in_transition", c.Depth)
	res.set("approach_depth_required", c.ApproachDepth)
	return res, nil
}
