// Package numeric holds the scalar root finders and the extremum search used
// by the hydraulic solvers. Every routine takes its tolerances and iteration
// caps as arguments and keeps no state between calls.
package numeric

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
)

// Func is a scalar function of one variable.
type Func func(float64) float64

// Status is the outcome of one numeric stage.
type Status int

const (
	Converged Status = iota + 1
	NoSignChange
	IterationLimit
	Stalled
	OutOfBounds
	InvalidValue
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case NoSignChange:
		return "no sign change"
	case IterationLimit:
		return "iteration limit"
	case Stalled:
		return "stalled"
	case OutOfBounds:
		return "out of bounds"
	case InvalidValue:
		return "invalid value"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Stage records what one method did.
type Stage struct {
	Method     string
	Status     Status
	Root       float64
	Residual   float64
	Iterations int
}

// Options bounds an iterative method.
type Options struct {
	// Tolerance is the absolute tolerance on x.
	Tolerance float64
	// MaxIterations caps the number of function evaluations per stage.
	MaxIterations int
}

const (
	defaultTolerance     = 1e-10
	defaultMaxIterations = 100
)

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 || math.IsNaN(o.Tolerance) {
		o.Tolerance = defaultTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	return o
}

func toChannelStages(stages []Stage) []channel.Stage {
	out := make([]channel.Stage, 0, len(stages))
	for _, s := range stages {
		out = append(out, channel.Stage{
			Method:     s.Method,
			Status:     s.Status.String(),
			Root:       s.Root,
			Residual:   s.Residual,
			Iterations: s.Iterations,
		})
	}
	return out
}

func invalid(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
