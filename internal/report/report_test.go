package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/chrissnell/openchannel/pkg/flow"
	"github.com/chrissnell/openchannel/pkg/gvf"
	"github.com/chrissnell/openchannel/pkg/solver"
)

func newSolver(t *testing.T) *solver.Solver {
	t.Helper()
	s, err := solver.New(flow.DefaultModel(), nil)
	require.NoError(t, err)
	return s
}

func gvfRequest() solver.Request {
	return solver.Request{Problem: solver.GVF, Params: solver.Params{
		"shape": "rectangular", "width": 5.0, "discharge": 20.0, "slope": 0.001, "n": 0.02,
		"start_depth": 3.0, "target_depth": 2.5,
	}}
}

func TestSummarize(t *testing.T) {
	s := Summarize(gvf.Profile{X: []float64{0, -10, -20, -30}, Y: []float64{3, 2.8, 2.6, 2.4}})
	assert.Equal(t, 4, s.Points)
	assert.InDelta(t, 30, s.Length, 1e-12)
	assert.InDelta(t, 2.4, s.Min, 1e-12)
	assert.InDelta(t, 3.0, s.Max, 1e-12)
	assert.InDelta(t, 2.7, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.2/3), s.StdDev, 1e-12)

	assert.Equal(t, ProfileSummary{}, Summarize(gvf.Profile{}))
}

func TestChart(t *testing.T) {
	prof := gvf.Profile{X: []float64{0, 100, 200}, Y: []float64{3, 2.8, 2.7}}
	png, err := Chart(prof, 2.26, 1.18, vg.Points(300), vg.Points(200))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "not a PNG")

	_, err = Chart(gvf.Profile{X: []float64{0}, Y: []float64{1}}, 1, 1, vg.Points(300), vg.Points(200))
	assert.Error(t, err)
}

func TestPrepareAddsProfile(t *testing.T) {
	doc, err := Prepare(newSolver(t), "id", time.Now(), gvfRequest())
	require.NoError(t, err)

	prof, ok := doc.Profile()
	require.True(t, ok, "profile missing: %v", doc.Result.Errors())
	assert.Less(t, prof.X[len(prof.X)-1], 0.0, "M1 curve should be traced upstream")
	assert.InDelta(t, 2.5, prof.End(), 0.01)
	assert.False(t, doc.Request.Params.Has("profile_distance"), "request must not be modified")
}

func TestPrepareRejectsBadRequest(t *testing.T) {
	_, err := Prepare(newSolver(t), "", time.Time{}, solver.Request{Problem: "nope"})
	assert.ErrorIs(t, err, solver.ErrUnknownProblem)
}

func TestWrite(t *testing.T) {
	s := newSolver(t)
	for _, req := range []solver.Request{
		gvfRequest(),
		{Problem: solver.BasicFlow, Params: solver.Params{
			"shape": "rectangular", "width": 5.0, "discharge": 20.0, "slope": 0.0, "n": 0.02,
		}},
	} {
		t.Run(string(req.Problem), func(t *testing.T) {
			doc, err := Prepare(s, "4a4a7c1e-0b6e-4d0c-8f43-3b9d1f7a0c11", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), req)
			require.NoError(t, err)
			pdf, err := Bytes(doc)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "not a PDF")
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "2.25", formatValue(2.25))
	assert.Equal(t, "yes", formatValue(true))
	assert.Equal(t, "-", formatValue(nil))
	assert.Equal(t, "0.001, 0.01", formatValue([]any{0.001, 0.01}))
	assert.Equal(t, "d=1, shape=circular", formatValue(map[string]any{"shape": "circular", "d": 1.0}))
	assert.Equal(t, "7", formatValue(7))
}
