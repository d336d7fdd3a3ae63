package solver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chrissnell/openchannel/pkg/channel"
)

// ProblemType names a family of problems the solver understands.
type ProblemType string

const (
	BasicFlow     ProblemType = "basic_flow"
	Weir          ProblemType = "weir"
	WeirHeight    ProblemType = "weir_height"
	SluiceGate    ProblemType = "sluice_gate"
	HydraulicJump ProblemType = "hydraulic_jump"
	GVF           ProblemType = "gvf"
	Transition    ProblemType = "transition"
)

// ErrUnknownProblem is returned for a problem type outside the catalogue.
var ErrUnknownProblem = errors.New("unknown problem type")

// ParseProblem accepts a problem name in any case, with dashes or underscores.
func ParseProblem(name string) (ProblemType, error) {
	p := ProblemType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	if _, ok := catalogue[p]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProblem, name)
}

// ProblemInfo documents the parameters of a problem.
type ProblemInfo struct {
	Type        ProblemType `json:"type" yaml:"type"`
	Description string      `json:"description" yaml:"description"`
	Required    []string    `json:"required" yaml:"required"`
	Optional    []string    `json:"optional,omitempty" yaml:"optional,omitempty"`
	Outputs     []string    `json:"outputs" yaml:"outputs"`
}

var sectionParams = []string{"shape", "width | bottom_width, side_slope | diameter | side_slope or semi_angle | break_depth, bottom.*, top.*"}

var roughnessParam = "n (Manning) | C (Chezy)"

var catalogue = map[ProblemType]ProblemInfo{
	BasicFlow: {
		Description: "Normal depth, critical depth, Froude number and regime for one or more bed slopes",
		Required:    append(append([]string{}, sectionParams...), "discharge", "slope", roughnessParam),
		Outputs: []string{"critical_depth", "critical_energy", "critical_slope", "normal_depth", "velocity",
			"froude_number", "flow_regime", "specific_energy", "slope_classification"},
	},
	Weir: {
		Description: "Depths upstream of, over and downstream of a broad-crested weir",
		Required:    append(append([]string{}, sectionParams...), "discharge", "slope", roughnessParam, "weir_height"),
		Optional:    []string{"approach_depth"},
		Outputs: []string{"normal_depth", "critical_depth", "critical_slope", "slope_classification", "weir_height",
			"weir_height_for_critical", "upstream_depth", "depth_over_weir", "downstream_depth", "choked"},
	},
	WeirHeight: {
		Description: "Smallest weir height that makes the flow critical over the crest",
		Required:    append(append([]string{}, sectionParams...), "discharge", "slope", roughnessParam),
		Optional:    []string{"approach_depth"},
		Outputs:     []string{"normal_depth", "critical_depth", "critical_slope", "slope_classification", "weir_height_for_critical"},
	},
	SluiceGate: {
		Description: "Sluice gate discharge, depths, Froude numbers and force on the gate; any two of discharge, upstream_depth, downstream_depth",
		Required:    append(append([]string{}, sectionParams...), "two of: discharge, upstream_depth, downstream_depth"),
		Optional:    []string{"loss_coefficient", "find_force", "tailwater_depth", "slope", roughnessParam},
		Outputs: []string{"discharge", "upstream_depth", "downstream_depth", "froude_upstream", "froude_downstream",
			"force_on_gate", "sequent_depth", "drowned", "normal_depth", "critical_depth"},
	},
	HydraulicJump: {
		Description: "Sequent depth, energy loss and jump type from an upstream depth",
		Required:    append(append([]string{}, sectionParams...), "discharge", "depth_1"),
		Optional:    []string{"depth_2", "drag_coefficient", "block_area"},
		Outputs: []string{"depth_1", "froude_1", "jump_type", "specific_momentum", "sequent_depth", "energy_loss",
			"energy_loss_fraction", "jump_length", "depth_2", "froude_2", "force_on_obstacle", "drowned", "drag_force"},
	},
	GVF: {
		Description: "Gradually varied flow: curve type and distance between two depths",
		Required:    append(append([]string{}, sectionParams...), "discharge", "slope", roughnessParam, "start_depth"),
		Optional:    []string{"target_depth", "num_steps", "max_distance", "profile_distance", "direction"},
		Outputs: []string{"normal_depth", "critical_depth", "critical_slope", "slope_classification", "gvf_curve",
			"curve_description", "start_slope", "distance", "profile"},
	},
	Transition: {
		Description: "Flow through a contraction, expansion or bed step",
		Required:    append(append([]string{}, sectionParams...), "discharge", "approach_depth"),
		Optional:    []string{"bed_change", "transition.* (downstream section; defaults to the approach section)"},
		Outputs: []string{"approach_energy", "available_energy", "critical_depth_transition", "critical_energy_transition",
			"flow_goes_critical", "depth_in_transition", "approach_depth_required"},
	},
}

var order = []ProblemType{BasicFlow, Weir, WeirHeight, SluiceGate, HydraulicJump, GVF, Transition}

// Problems returns the catalogue in a stable order.
func Problems() []ProblemInfo {
	out := make([]ProblemInfo, 0, len(order))
	for _, p := range order {
		info := catalogue[p]
		info.Type = p
		out = append(out, info)
	}
	return out
}

// Request is one problem to solve.
type Request struct {
	Problem ProblemType `json:"problem" yaml:"problem"`
	Params  Params      `json:"params" yaml:"params"`
}

func missing(name string) error {
	return fmt.Errorf("%w: missing parameter %q", channel.ErrAmbiguousSpec, name)
}
