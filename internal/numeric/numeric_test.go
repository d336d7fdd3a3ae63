package numeric

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/openchannel/pkg/channel"
)

func TestBracketExpands(t *testing.T) {
	f := func(x float64) float64 { return x - 37 }
	a, b, st := Bracket(f, 0.001, 1, 100, 2)
	require.Equal(t, Converged, st.Status)
	assert.Equal(t, 0.001, a)
	assert.GreaterOrEqual(t, b, 37.0)
	assert.LessOrEqual(t, b, 100.0)
}

func TestBracketStopsAtLimit(t *testing.T) {
	f := func(x float64) float64 { return x + 1 }
	_, b, st := Bracket(f, 0.001, 1, 50, 2)
	assert.Equal(t, NoSignChange, st.Status)
	assert.Equal(t, 50.0, b)
}

func TestBrent(t *testing.T) {
	tests := []struct {
		name string
		f    Func
		a, b float64
		want float64
	}{
		{"linear", func(x float64) float64 { return 2*x - 3 }, 0, 10, 1.5},
		{"cubic", func(x float64) float64 { return x*x*x - 2*x - 5 }, 2, 3, 2.0945514815423265},
		{"cosine", func(x float64) float64 { return math.Cos(x) - x }, 0, 1, 0.7390851332151607},
		{"root at endpoint", func(x float64) float64 { return x - 4 }, 4, 9, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Brent(tt.f, tt.a, tt.b, Options{Tolerance: 1e-12})
			require.Equal(t, Converged, st.Status)
			assert.InDelta(t, tt.want, st.Root, 1e-9)
		})
	}

	st := Brent(func(x float64) float64 { return x*x + 1 }, -1, 1, Options{})
	assert.Equal(t, NoSignChange, st.Status)
}

func TestNewton(t *testing.T) {
	st := Newton(func(x float64) float64 { return x*x - 2 }, 1, 0, 10, Options{Tolerance: 1e-12})
	require.Equal(t, Converged, st.Status)
	assert.InDelta(t, math.Sqrt2, st.Root, 1e-9)

	flat := Newton(func(float64) float64 { return 3 }, 1, 0, 10, Options{})
	assert.Equal(t, Stalled, flat.Status)
}

func TestNewtonStaysInBounds(t *testing.T) {
	var seen []float64
	f := func(x float64) float64 {
		seen = append(seen, x)
		return x - 100
	}
	st := Newton(f, 1, 0.5, 5, Options{})
	for _, x := range seen {
		assert.GreaterOrEqual(t, x, 0.5)
		assert.LessOrEqual(t, x, 5.0)
	}
	assert.Equal(t, OutOfBounds, st.Status, "halving towards the bound is not convergence")
	assert.InDelta(t, 5.0, st.Root, 1e-9)
	assert.False(t, st.Accepted(DefaultResidual))

	atBound := Newton(f, 5, 0.5, 5, Options{})
	assert.Equal(t, OutOfBounds, atBound.Status)
	assert.Equal(t, 1, atBound.Iterations)
	assert.InDelta(t, -95, atBound.Residual, 1e-9)
}

func TestSolve(t *testing.T) {
	root, err := Solve(func(x float64) float64 { return x*x/9 - 1 }, Problem{
		Quantity: "x",
		Lower:    0.001,
		Upper:    1,
		Limit:    100,
		Guess:    1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, root, 1e-8)
}

func TestSolveReportsEveryStage(t *testing.T) {
	_, err := Solve(func(x float64) float64 { return x*x + 1 }, Problem{
		Quantity: "imaginary",
		Lower:    0.001,
		Upper:    1,
		Limit:    10,
		Guess:    1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, channel.ErrNonConvergence))

	var ce *channel.ConvergenceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "imaginary", ce.Quantity)
	require.Len(t, ce.Stages, 2)
	assert.Equal(t, "bracket", ce.Stages[0].Method)
	assert.Equal(t, NoSignChange.String(), ce.Stages[0].Status)
	assert.Equal(t, "newton", ce.Stages[1].Method)
	assert.Contains(t, err.Error(), "newton")
}

func TestSolveRespectsLimit(t *testing.T) {
	// The only root lies beyond the search limit in the first call.
	f := func(x float64) float64 { return x - 20 }
	root, err := Solve(f, Problem{Lower: 1, Upper: 2, Limit: 2, Guess: 1})
	assert.Error(t, err, "newton must not leave the admissible interval")
	assert.True(t, math.IsNaN(root))
	var ce *channel.ConvergenceError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Stages, 2)
	assert.Equal(t, OutOfBounds.String(), ce.Stages[1].Status)

	root, err = Solve(f, Problem{Lower: 1, Upper: 2, Limit: 30, Guess: 1})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, root, 1e-8)
}

func TestMinimize(t *testing.T) {
	st := Minimize(func(x float64) float64 { return (x - 1.3) * (x - 1.3) }, 0, 5, Options{Tolerance: 1e-9})
	require.Equal(t, Converged, st.Status)
	assert.InDelta(t, 1.3, st.Root, 1e-6)
	assert.InDelta(t, 0, st.Residual, 1e-12)

	mx := Maximize(func(x float64) float64 { return math.Sin(x) }, 0, math.Pi, Options{Tolerance: 1e-9})
	require.Equal(t, Converged, mx.Status)
	assert.InDelta(t, math.Pi/2, mx.Root, 1e-6)
	assert.InDelta(t, 1, mx.Residual, 1e-9)
}
