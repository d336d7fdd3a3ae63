package solver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
	"github.com/chrissnell/openchannel/pkg/gvf"
)

func newSolver(t *testing.T) *Solver {
	t.Helper()
	s, err := New(flow.DefaultModel(), nil)
	require.NoError(t, err)
	return s
}

func value(t *testing.T, r Result, name string) float64 {
	t.Helper()
	f, ok := r.Get(name)
	require.True(t, ok, "field %s missing", name)
	require.NoError(t, f.Err, "field %s", name)
	v, ok := f.Value.(float64)
	require.True(t, ok, "field %s is %T", name, f.Value)
	return v
}

func rectChannel() Params {
	return Params{"shape": "rectangular", "width": 5.0, "discharge": 20.0, "slope": 0.001, "n": 0.02}
}

func TestNewRejectsInvalidModel(t *testing.T) {
	m := flow.DefaultModel()
	m.Gravity = 0
	_, err := New(m, nil)
	assert.Error(t, err)
}

func TestBasicFlow(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: BasicFlow, Params: rectChannel()})
	require.NoError(t, err)

	assert.Equal(t, BasicFlow, res.Problem)
	assert.Zero(t, res.Failed())
	assert.InDelta(t, 2.26, value(t, res, "normal_depth"), 0.01)
	assert.InDelta(t, 0.38, value(t, res, "froude_number"), 0.01)
	assert.InDelta(t, 1.177, value(t, res, "critical_depth"), 0.001)
	assert.InDelta(t, 0.715*value(t, res, "critical_depth"), value(t, res, "free_overfall_depth"), 1e-9)
	assert.Equal(t, "subcritical", res.Values()["flow_regime"])
	assert.Equal(t, "mild", res.Values()["slope_classification"])
}

func TestBasicFlowSeveralSlopes(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["slope"] = []any{0.001, "0.01"}
	res, err := s.Solve(Request{Problem: BasicFlow, Params: p})
	require.NoError(t, err)

	assert.Equal(t, 0.001, value(t, res, "slope_1.slope"))
	assert.Equal(t, 0.01, value(t, res, "slope_2.slope"))
	assert.Greater(t, value(t, res, "slope_1.normal_depth"), value(t, res, "slope_2.normal_depth"))
	v := res.Values()
	assert.Equal(t, "mild", v["slope_1.slope_classification"])
	assert.Equal(t, "steep", v["slope_2.slope_classification"])
	assert.Equal(t, "supercritical", v["slope_2.flow_regime"])
	_, ok := res.Get("normal_depth")
	assert.False(t, ok)
}

func TestBasicFlowPerFieldFailure(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["slope"] = 0.0
	res, err := s.Solve(Request{Problem: BasicFlow, Params: p})
	require.NoError(t, err)

	f, _ := res.Get("normal_depth")
	assert.ErrorIs(t, f.Err, channel.ErrNonConvergence)
	f, _ = res.Get("froude_number")
	assert.ErrorIs(t, f.Err, channel.ErrNonConvergence)
	assert.Contains(t, f.Err.Error(), "not computed")

	assert.InDelta(t, 1.177, value(t, res, "critical_depth"), 0.001)
	assert.Equal(t, "horizontal", res.Values()["slope_classification"])
	assert.Nil(t, res.Values()["normal_depth"])
	assert.Contains(t, res.Errors(), "normal_depth")
}

func TestRequestErrors(t *testing.T) {
	s := newSolver(t)
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown problem", Request{Problem: "dam_break", Params: rectChannel()}, ErrUnknownProblem},
		{"missing shape", Request{Problem: BasicFlow, Params: Params{"discharge": 1.0}}, channel.ErrAmbiguousSpec},
		{"unknown shape", Request{Problem: BasicFlow, Params: Params{"shape": "hexagonal"}}, channel.ErrUnsupportedShape},
		{"bad width", Request{Problem: BasicFlow, Params: Params{"shape": "rectangular", "width": -1.0}}, channel.ErrDomain},
		{"missing discharge", Request{Problem: BasicFlow, Params: Params{"shape": "wide", "slope": 0.001, "n": 0.02}}, channel.ErrAmbiguousSpec},
		{"both roughness laws", Request{Problem: BasicFlow, Params: func() Params {
			p := rectChannel()
			p["C"] = 50.0
			return p
		}()}, channel.ErrAmbiguousSpec},
		{"no roughness", Request{Problem: GVF, Params: Params{"shape": "wide", "discharge": 1.0, "slope": 0.001, "start_depth": 1.0}}, channel.ErrAmbiguousSpec},
		{"non-numeric", Request{Problem: HydraulicJump, Params: Params{"shape": "wide", "discharge": "lots", "depth_1": 0.2}}, channel.ErrDomain},
		{"one sluice known", Request{Problem: SluiceGate, Params: Params{"shape": "rectangular", "width": 3.0, "discharge": 5.0}}, channel.ErrAmbiguousSpec},
		{"weir without height", Request{Problem: Weir, Params: rectChannel()}, channel.ErrAmbiguousSpec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Solve(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsRequestError(err))
		})
	}
}

func TestProblemNamesAreNormalised(t *testing.T) {
	p, err := ParseProblem(" Hydraulic-Jump ")
	require.NoError(t, err)
	assert.Equal(t, HydraulicJump, p)
	assert.Len(t, Problems(), 7)
}

func TestHydraulicJump(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: HydraulicJump, Params: Params{
		"shape": "rectangular", "width": 4.0, "discharge": 10.0, "depth_1": 0.5,
		"drag_coefficient": 0.5, "block_area": 0.1,
	}})
	require.NoError(t, err)
	assert.Zero(t, res.Failed(), res.Errors())

	assert.InDelta(t, 2.26, value(t, res, "froude_1"), 0.01)
	y2 := value(t, res, "sequent_depth")
	assert.InDelta(t, 1.37, y2, 0.01)
	assert.Equal(t, y2, value(t, res, "depth_2"))
	assert.Equal(t, "weak", res.Values()["jump_type"])
	assert.InDelta(t, 6*(y2-0.5), value(t, res, "jump_length"), 1e-9)
	assert.Greater(t, value(t, res, "energy_loss"), 0.0)
	assert.InDelta(t, 0, value(t, res, "force_on_obstacle"), 1e-3)
	assert.InDelta(t, 0.5*0.5*1000*25*0.1, value(t, res, "drag_force"), 1e-9)
}

func TestHydraulicJumpWithTailwater(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: HydraulicJump, Params: Params{
		"shape": "rectangular", "width": 4.0, "discharge": 10.0, "depth_1": 0.5, "depth_2": 1.6,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1.6, value(t, res, "depth_2"))
	assert.Equal(t, true, res.Values()["drowned"])
	assert.Less(t, value(t, res, "force_on_obstacle"), 0.0)
}

func TestHydraulicJumpKeepsFroudeWhenSequentFails(t *testing.T) {
	s := newSolver(t)
	// The jet carries more momentum than the full pipe can hold.
	res, err := s.Solve(Request{Problem: HydraulicJump, Params: Params{
		"shape": "circular", "diameter": 1.0, "discharge": 0.5, "depth_1": 0.1,
	}})
	require.NoError(t, err)

	assert.Greater(t, value(t, res, "froude_1"), 1.0)
	assert.Greater(t, value(t, res, "specific_momentum"), 0.0)
	for _, name := range []string{"sequent_depth", "energy_loss", "depth_2", "froude_2"} {
		f, ok := res.Get(name)
		require.True(t, ok, name)
		assert.ErrorIs(t, f.Err, channel.ErrNonConvergence, name)
	}
}

func TestHydraulicJumpFromSubcriticalDepth(t *testing.T) {
	s := newSolver(t)
	for _, y1 := range []float64{0.860472516, 2.0} {
		res, err := s.Solve(Request{Problem: HydraulicJump, Params: Params{
			"shape": "rectangular", "width": 4.0, "discharge": 10.0, "depth_1": y1,
		}})
		require.NoError(t, err)

		assert.LessOrEqual(t, value(t, res, "froude_1"), 1.0+1e-6)
		assert.Contains(t, res.Values(), "jump_type")
		for _, name := range []string{"sequent_depth", "energy_loss", "energy_loss_fraction", "jump_length", "depth_2", "froude_2", "force_on_obstacle"} {
			f, ok := res.Get(name)
			require.True(t, ok, name)
			assert.ErrorIs(t, f.Err, channel.ErrDomain, "y1=%g %s", y1, name)
		}
	}
}

func TestHydraulicJumpLengthIsRectangularOnly(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: HydraulicJump, Params: Params{
		"shape": "trapezoidal", "bottom_width": 3.0, "side_slope": 1.5, "discharge": 12.0, "depth_1": 0.4,
	}})
	require.NoError(t, err)

	f, _ := res.Get("jump_length")
	assert.ErrorIs(t, f.Err, channel.ErrUnsupportedShape)
	assert.Equal(t, 1, res.Failed())
	assert.Greater(t, value(t, res, "sequent_depth"), 0.4)
}

func TestWeir(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["weir_height"] = 1.0
	res, err := s.Solve(Request{Problem: Weir, Params: p})
	require.NoError(t, err)
	assert.Zero(t, res.Failed(), res.Errors())

	v := res.Values()
	assert.Equal(t, true, v["choked"])
	assert.InDelta(t, value(t, res, "critical_depth"), value(t, res, "depth_over_weir"), 1e-9)
	assert.Greater(t, value(t, res, "upstream_depth"), value(t, res, "normal_depth"))
	assert.Equal(t, value(t, res, "normal_depth"), value(t, res, "downstream_depth"))

	height, err := s.Solve(Request{Problem: WeirHeight, Params: rectChannel()})
	require.NoError(t, err)
	assert.Equal(t, value(t, res, "weir_height_for_critical"), value(t, height, "weir_height_for_critical"))
	_, ok := height.Get("upstream_depth")
	assert.False(t, ok)
}

func TestSluiceGate(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: SluiceGate, Params: Params{
		"shape": "rectangular", "width": 3.0, "upstream_depth": 2.0, "downstream_depth": 0.3,
		"tailwater_depth": 2.0,
	}})
	require.NoError(t, err)
	assert.Zero(t, res.Failed(), res.Errors())

	Q := value(t, res, "discharge")
	assert.InDelta(t, 5.257, Q, 0.001)
	assert.Less(t, value(t, res, "froude_upstream"), 1.0)
	assert.Greater(t, value(t, res, "froude_downstream"), 1.0)
	assert.Greater(t, value(t, res, "force_on_gate"), 0.0)
	assert.InDelta(t, 1.30, value(t, res, "sequent_depth"), 0.01)
	assert.Equal(t, true, res.Values()["drowned"])

	back, err := s.Solve(Request{Problem: SluiceGate, Params: Params{
		"shape": "rectangular", "width": 3.0, "discharge": Q, "downstream_depth": 0.3, "find_force": false,
	}})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, value(t, back, "upstream_depth"), 1e-6)
	_, ok := back.Get("force_on_gate")
	assert.False(t, ok)
}

func TestSluiceGateFailedUnknownPropagates(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: SluiceGate, Params: Params{
		"shape": "rectangular", "width": 3.0, "discharge": 5.0, "downstream_depth": 2.0,
	}})
	require.NoError(t, err)

	f, _ := res.Get("upstream_depth")
	assert.ErrorIs(t, f.Err, channel.ErrDomain)
	f, _ = res.Get("force_on_gate")
	assert.ErrorIs(t, f.Err, channel.ErrDomain)
	assert.Greater(t, value(t, res, "critical_depth"), 0.0)
}

func TestGVF(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["start_depth"] = 3.0
	p["target_depth"] = 2.8
	p["profile_distance"] = 500.0
	p["direction"] = "upstream"
	res, err := s.Solve(Request{Problem: GVF, Params: p})
	require.NoError(t, err)
	assert.Zero(t, res.Failed(), res.Errors())

	v := res.Values()
	assert.Equal(t, "M1", v["gvf_curve"])
	assert.NotEmpty(t, v["curve_description"])
	assert.Greater(t, value(t, res, "start_slope"), 0.0)
	assert.Greater(t, value(t, res, "distance"), 0.0)

	prof, ok := v["profile"].(gvf.Profile)
	require.True(t, ok)
	assert.Len(t, prof.Y, defaultSteps+1)
	assert.Equal(t, prof.End(), value(t, res, "end_depth"))
	assert.Less(t, prof.End(), 3.0)
}

func TestGVFHorizontalBed(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["slope"] = 0.0
	p["start_depth"] = 2.0
	res, err := s.Solve(Request{Problem: GVF, Params: p})
	require.NoError(t, err)

	v := res.Values()
	assert.Equal(t, "horizontal", v["slope_classification"])
	assert.Equal(t, "H2", v["gvf_curve"])
	assert.Less(t, value(t, res, "start_slope"), 0.0)
	f, _ := res.Get("normal_depth")
	assert.ErrorIs(t, f.Err, channel.ErrNonConvergence)
}

func TestGVFRejectsBadOptions(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["start_depth"] = 3.0
	p["num_steps"] = 2.5
	_, err := s.Solve(Request{Problem: GVF, Params: p})
	assert.ErrorIs(t, err, channel.ErrDomain)

	p["num_steps"] = 10
	p["direction"] = "sideways"
	_, err = s.Solve(Request{Problem: GVF, Params: p})
	assert.ErrorIs(t, err, channel.ErrAmbiguousSpec)

	p["direction"] = "downstream"
	p["slope"] = []any{0.001, 0.002}
	_, err = s.Solve(Request{Problem: GVF, Params: p})
	assert.ErrorIs(t, err, channel.ErrAmbiguousSpec)
}

func TestTransition(t *testing.T) {
	s := newSolver(t)
	base := Params{"shape": "rectangular", "width": 5.0, "discharge": 20.0, "approach_depth": 2.26}

	res, err := s.Solve(Request{Problem: Transition, Params: base})
	require.NoError(t, err)
	assert.Equal(t, false, res.Values()["flow_goes_critical"])
	assert.InDelta(t, 2.26, value(t, res, "depth_in_transition"), 1e-6)

	narrow := Params{"transition": map[string]any{"width": 3.0}}
	for k, v := range base {
		narrow[k] = v
	}
	res, err = s.Solve(Request{Problem: Transition, Params: narrow})
	require.NoError(t, err)
	assert.Zero(t, res.Failed(), res.Errors())
	assert.Equal(t, true, res.Values()["flow_goes_critical"])
	assert.Equal(t, value(t, res, "critical_depth_transition"), value(t, res, "depth_in_transition"))
	assert.Greater(t, value(t, res, "approach_depth_required"), 2.26)
}

func TestCompoundSectionFromDottedKeys(t *testing.T) {
	s := newSolver(t)
	res, err := s.Solve(Request{Problem: BasicFlow, Params: Params{
		"shape": "compound", "break_depth": 1.0,
		"bottom.shape": "rectangular", "bottom.width": 2.0,
		"top":       map[string]any{"shape": "rectangular", "width": 6.0},
		"discharge": 5.0, "slope": 0.001, "n": 0.03,
	}})
	require.NoError(t, err)
	assert.Zero(t, res.Failed(), res.Errors())
	_, ok := res.Get("free_overfall_depth")
	assert.False(t, ok)
}

func TestResultJSON(t *testing.T) {
	s := newSolver(t)
	p := rectChannel()
	p["slope"] = 0.0
	res, err := s.Solve(Request{Problem: BasicFlow, Params: p})
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded struct {
		Problem string            `json:"problem"`
		Results map[string]any    `json:"results"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "basic_flow", decoded.Problem)
	assert.Contains(t, decoded.Results, "normal_depth")
	assert.Nil(t, decoded.Results["normal_depth"])
	assert.NotEmpty(t, decoded.Errors["normal_depth"])
}

func TestSolveBatch(t *testing.T) {
	s := newSolver(t)
	reqs := []Request{
		{Problem: BasicFlow, Params: rectChannel()},
		{Problem: "nonsense"},
		{Problem: HydraulicJump, Params: Params{"shape": "rectangular", "width": 4.0, "discharge": 10.0, "depth_1": 0.5}},
	}
	out, err := s.SolveBatch(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.NoError(t, out[0].Err)
	assert.Equal(t, BasicFlow, out[0].Result.Problem)
	assert.ErrorIs(t, out[1].Err, ErrUnknownProblem)
	assert.NoError(t, out[2].Err)
	assert.InDelta(t, 1.37, value(t, out[2].Result, "sequent_depth"), 0.01)
}

func TestSolveBatchCancelled(t *testing.T) {
	s := newSolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := s.SolveBatch(ctx, []Request{{Problem: BasicFlow, Params: rectChannel()}}, 0)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 1)
	assert.ErrorIs(t, out[0].Err, context.Canceled)
}
