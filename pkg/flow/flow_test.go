package flow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/openchannel/pkg/channel"
)

type shapeCase struct {
	name    string
	section channel.Section
	Q       float64
}

func shapeCases(t *testing.T) []shapeCase {
	t.Helper()
	must := func(s channel.Section, err error) channel.Section {
		require.NoError(t, err)
		return s
	}
	rect := must(channel.NewRectangular(2))
	top := must(channel.NewRectangular(6))
	return []shapeCase{
		{"rectangular", must(channel.NewRectangular(5)), 20},
		{"trapezoidal", must(channel.NewTrapezoidal(3, 1.5)), 12},
		{"circular", must(channel.NewCircular(2)), 2},
		{"triangular", must(channel.NewTriangular(1)), 3},
		{"wide", channel.NewWide(), 2},
		{"compound", must(channel.NewCompound(rect, 1, &top)), 5},
	}
}

func TestScenarioBasicFlow(t *testing.T) {
	m := DefaultModel()
	sec, err := channel.NewRectangular(5)
	require.NoError(t, err)

	yn, err := m.NormalDepth(sec, 20, 0.001, Manning(0.02))
	require.NoError(t, err)
	assert.InDelta(t, 2.26, yn, 0.01)

	fr, err := m.FroudeNumber(sec, yn, 20)
	require.NoError(t, err)
	assert.InDelta(t, 0.38, fr, 0.01)
	assert.Equal(t, Subcritical, ClassifyRegime(fr))

	yc, err := m.CriticalDepth(sec, 20)
	require.NoError(t, err)
	assert.InDelta(t, 1.177, yc, 0.001)
	assert.InDelta(t, math.Cbrt(16/9.81), yc, 1e-8)
}

func TestCriticalDepthInvariant(t *testing.T) {
	m := DefaultModel()
	for _, tc := range shapeCases(t) {
		t.Run(tc.name, func(t *testing.T) {
			yc, err := m.CriticalDepth(tc.section, tc.Q)
			require.NoError(t, err)
			fr, err := m.FroudeNumber(tc.section, yc, tc.Q)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, fr, 1e-3)
		})
	}
}

func TestNormalDepthRoundTrip(t *testing.T) {
	m := DefaultModel()
	laws := []Resistance{Manning(0.015), Chezy(55)}
	for _, tc := range shapeCases(t) {
		for _, r := range laws {
			t.Run(tc.name+"/"+r.Law.String(), func(t *testing.T) {
				const S = 0.001
				yn, err := m.NormalDepth(tc.section, tc.Q, S, r)
				require.NoError(t, err)
				q, err := m.Discharge(tc.section, yn, S, r)
				require.NoError(t, err)
				assert.InDelta(t, tc.Q, q, 1e-3*tc.Q)
			})
		}
	}
}

func TestNormalDepthDomain(t *testing.T) {
	m := DefaultModel()
	sec, err := channel.NewRectangular(3)
	require.NoError(t, err)

	_, err = m.NormalDepth(sec, 0, 0.001, Manning(0.02))
	assert.ErrorIs(t, err, channel.ErrDomain)
	_, err = m.NormalDepth(sec, -1, 0.001, Manning(0.02))
	assert.ErrorIs(t, err, channel.ErrDomain)
	_, err = m.NormalDepth(sec, 5, -0.001, Manning(0.02))
	assert.ErrorIs(t, err, channel.ErrDomain)
	_, err = m.NormalDepth(sec, 5, 0.001, Manning(0))
	assert.ErrorIs(t, err, channel.ErrDomain)

	_, err = m.NormalDepth(sec, 5, 0, Manning(0.02))
	assert.ErrorIs(t, err, channel.ErrNonConvergence, "a horizontal bed has no normal depth")
	var ce *channel.ConvergenceError
	require.ErrorAs(t, err, &ce)
	assert.NotEmpty(t, ce.Stages)
}

func TestNormalDepthBeyondConduitCapacity(t *testing.T) {
	m := DefaultModel()
	pipe, err := channel.NewCircular(0.5)
	require.NoError(t, err)
	_, err = m.NormalDepth(pipe, 50, 0.001, Manning(0.013))
	assert.ErrorIs(t, err, channel.ErrNonConvergence)
}

func TestMaxDischargeDepth(t *testing.T) {
	m := DefaultModel()
	pipe, err := channel.NewCircular(1)
	require.NoError(t, err)
	y, err := m.MaxDischargeDepth(pipe, ManningLaw)
	require.NoError(t, err)
	assert.InDelta(t, 0.938, y, 0.002)

	_, err = m.MaxDischargeDepth(channel.NewWide(), ManningLaw)
	assert.ErrorIs(t, err, channel.ErrUnsupportedShape)
}

func TestNormalDepthInPipeShapedCompound(t *testing.T) {
	m := DefaultModel()
	pipe, err := channel.NewCircular(1)
	require.NoError(t, err)
	extended, err := channel.NewCompound(pipe, 0.5, nil)
	require.NoError(t, err)
	r := Manning(0.013)

	yMax, err := m.MaxDischargeDepth(extended, ManningLaw)
	require.NoError(t, err)
	yMaxPipe, err := m.MaxDischargeDepth(pipe, ManningLaw)
	require.NoError(t, err)
	assert.InDelta(t, yMaxPipe, yMax, 1e-6)

	// Above full-pipe capacity the discharge curve has two roots; both
	// sections must report the lower one.
	want, err := m.NormalDepth(pipe, 0.78, 0.001, r)
	require.NoError(t, err)
	assert.Less(t, want, yMaxPipe)
	got, err := m.NormalDepth(extended, 0.78, 0.001, r)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-6)
}

func TestCriticalSlopeGivesCriticalNormalDepth(t *testing.T) {
	m := DefaultModel()
	for _, tc := range shapeCases(t) {
		if tc.section.Shape() == channel.Compound {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			r := Manning(0.014)
			yc, err := m.CriticalDepth(tc.section, tc.Q)
			require.NoError(t, err)
			sc, err := m.CriticalSlope(tc.section, tc.Q, r, yc)
			require.NoError(t, err)
			yn, err := m.NormalDepth(tc.section, tc.Q, sc, r)
			require.NoError(t, err)
			assert.InDelta(t, yc, yn, 1e-6)
			assert.Equal(t, CriticalSlope, ClassifySlope(sc, sc))
		})
	}
}

func TestAlternateDepths(t *testing.T) {
	m := DefaultModel()
	sec, err := channel.NewRectangular(4)
	require.NoError(t, err)
	const Q = 10.0

	E, err := m.SpecificEnergy(sec, 0.5, Q)
	require.NoError(t, err)

	sup, err := m.AlternateDepth(sec, Q, E, Supercritical)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, sup, 1e-8)

	sub, err := m.AlternateDepth(sec, Q, E, Subcritical)
	require.NoError(t, err)
	assert.Greater(t, sub, 0.5)
	Esub, err := m.SpecificEnergy(sec, sub, Q)
	require.NoError(t, err)
	assert.InDelta(t, E, Esub, 1e-8)

	Ec, yc, err := m.CriticalEnergy(sec, Q)
	require.NoError(t, err)
	assert.InDelta(t, 1.5*yc, Ec, 1e-8)
	_, err = m.AlternateDepth(sec, Q, 0.9*Ec, Subcritical)
	assert.ErrorIs(t, err, channel.ErrDomain)
	y, err := m.AlternateDepth(sec, Q, Ec, Critical)
	require.NoError(t, err)
	assert.Equal(t, yc, y)
}

func TestRoughnessBackCalculation(t *testing.T) {
	m := DefaultModel()
	sec, err := channel.NewTrapezoidal(2, 1)
	require.NoError(t, err)
	for _, r := range []Resistance{Manning(0.025), Chezy(40)} {
		q, err := m.Discharge(sec, 1.2, 0.0005, r)
		require.NoError(t, err)
		got, err := m.Roughness(sec, q, 1.2, 0.0005, r.Law)
		require.NoError(t, err)
		assert.Equal(t, r.Law, got.Law)
		assert.InDelta(t, r.Coefficient, got.Coefficient, 1e-9)
	}
}

func TestResistanceFrom(t *testing.T) {
	n, c := 0.02, 50.0
	r, err := ResistanceFrom(&n, nil)
	require.NoError(t, err)
	assert.Equal(t, Manning(0.02), r)

	r, err = ResistanceFrom(nil, &c)
	require.NoError(t, err)
	assert.Equal(t, Chezy(50), r)

	_, err = ResistanceFrom(&n, &c)
	assert.ErrorIs(t, err, channel.ErrAmbiguousSpec)
	_, err = ResistanceFrom(nil, nil)
	assert.ErrorIs(t, err, channel.ErrAmbiguousSpec)

	neg := -1.0
	_, err = ResistanceFrom(&neg, nil)
	assert.ErrorIs(t, err, channel.ErrDomain)
}

func TestClassification(t *testing.T) {
	regimes := []struct {
		fr   float64
		want Regime
	}{
		{0.5, Subcritical},
		{0.995, Critical},
		{1.0, Critical},
		{1.009, Critical},
		{1.02, Supercritical},
		{math.Inf(1), Supercritical},
	}
	for _, tt := range regimes {
		assert.Equal(t, tt.want, ClassifyRegime(tt.fr), "Fr=%g", tt.fr)
	}

	slopes := []struct {
		s, sc float64
		want  SlopeClass
	}{
		{0.001, 0.002, Mild},
		{0.00199, 0.002, CriticalSlope},
		{0.00201, 0.002, CriticalSlope},
		{0.003, 0.002, Steep},
	}
	for _, tt := range slopes {
		assert.Equal(t, tt.want, ClassifySlope(tt.s, tt.sc), "S=%g Sc=%g", tt.s, tt.sc)
	}
}

func TestState(t *testing.T) {
	m := DefaultModel()
	sec, err := channel.NewRectangular(4)
	require.NoError(t, err)
	st, err := m.State(sec, 0.5, 10)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, st.Area(), 1e-12)
	assert.InDelta(t, 5.0, st.Velocity(), 1e-12)
	assert.InDelta(t, 5/math.Sqrt(9.81*0.5), st.Froude(), 1e-12)
	assert.InDelta(t, 0.5+25/(2*9.81), st.SpecificEnergy(), 1e-12)
	assert.Equal(t, Supercritical, st.Regime())

	_, err = m.State(sec, 0, 10)
	assert.ErrorIs(t, err, channel.ErrDomain)
}

func TestModelValidate(t *testing.T) {
	require.NoError(t, DefaultModel().Validate())
	m := DefaultModel()
	m.Gravity = 0
	assert.ErrorIs(t, m.Validate(), channel.ErrDomain)
	m = DefaultModel()
	m.MinDepth = 200
	assert.Error(t, m.Validate())
}
