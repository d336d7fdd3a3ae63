package numeric

import (
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
)

// Problem describes a bounded root search for Solve.
type Problem struct {
	// Quantity names the unknown in error messages, e.g. "normal depth".
	Quantity string

	// Lower and Upper form the initial bracket. Upper is grown towards Limit
	// until f changes sign.
	Lower, Upper float64
	Limit        float64
	Factor       float64

	// Guess seeds the open-method fallback.
	Guess float64

	// Residual is the largest |f(x)| accepted at a root. Functions handed to
	// Solve should be normalised so that this is a relative measure.
	Residual float64

	Options
}

// DefaultResidual is the residual accepted when a Problem leaves it unset.
const DefaultResidual = 1e-6

// Solve runs a bracketing search followed by Brent's method and, if that
// fails, Newton's method from p.Guess. A root is returned only when a stage
// converged and its residual is within p.Residual; otherwise the error is a
// *channel.ConvergenceError listing every stage.
func Solve(f Func, p Problem) (float64, error) {
	if p.Residual <= 0 {
		p.Residual = DefaultResidual
	}
	limit := math.Max(p.Limit, p.Upper)
	stages := make([]Stage, 0, 3)

	a, b, br := Bracket(f, p.Lower, p.Upper, limit, p.Factor)
	stages = append(stages, br)
	if br.Status == Converged {
		st := Brent(f, a, b, p.Options)
		stages = append(stages, st)
		if st.Accepted(p.Residual) {
			return st.Root, nil
		}
	}

	st := Newton(f, p.Guess, p.Lower, limit, p.Options)
	stages = append(stages, st)
	if st.Accepted(p.Residual) {
		return st.Root, nil
	}

	return math.NaN(), Failure(p.Quantity, stages...)
}

// Accepted reports whether st converged to a finite root whose residual is
// within residual.
func (st Stage) Accepted(residual float64) bool {
	return st.Status == Converged && !invalid(st.Root) && math.Abs(st.Residual) <= residual
}

// Failure builds the *channel.ConvergenceError for a search that produced
// no accepted root.
func Failure(quantity string, stages ...Stage) error {
	return &channel.ConvergenceError{Quantity: quantity, Stages: toChannelStages(stages)}
}
