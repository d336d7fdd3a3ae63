// Package solver is the problem facade of the engine. It turns a problem
// type and a flat parameter map into named results, computing each result
// independently so that one failure never hides the others.
package solver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/openchannel/pkg/channel"
	"github.com/chrissnell/openchannel/pkg/flow"
)

// Solver evaluates problems against one physical model. It holds no mutable
// state and is safe for concurrent use.
type Solver struct {
	model  flow.Model
	logger *zap.SugaredLogger
}

// New returns a Solver for model. A nil logger discards log output.
func New(model flow.Model, logger *zap.SugaredLogger) (*Solver, error) {
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Solver{model: model, logger: logger}, nil
}

// Model returns the physical model in use.
func (s *Solver) Model() flow.Model { return s.model }

// Solve evaluates one problem. The returned error is reserved for
// request-level faults: an unknown problem, an invalid section, missing
// knowns or an ambiguous roughness. Numeric failures of individual outputs
// are reported in the Result.
func (s *Solver) Solve(req Request) (Result, error) {
	problem, err := ParseProblem(string(req.Problem))
	if err != nil {
		return Result{}, err
	}
	params := req.Params
	if params == nil {
		params = Params{}
	}

	res, err := s.solve(problem, params)
	res.Problem = problem
	if err != nil {
		s.logger.Debugw("problem rejected", "problem", problem, "error", err)
		return res, err
	}
	s.logger.Debugw("problem solved", "problem", problem, "fields", len(res.Fields), "failed", res.Failed())
	return res, nil
}

func (s *Solver) solve(problem ProblemType, p Params) (Result, error) {
	sec, err := ParseSection(p)
	if err != nil {
		return Result{}, err
	}
	switch problem {
	case BasicFlow:
		return s.basicFlow(sec, p)
	case Weir:
		return s.weir(sec, p, false)
	case WeirHeight:
		return s.weir(sec, p, true)
	case SluiceGate:
		return s.sluiceGate(sec, p)
	case HydraulicJump:
		return s.hydraulicJump(sec, p)
	case GVF:
		return s.gradualFlow(sec, p)
	case Transition:
		return s.transition(sec, p)
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownProblem, problem)
}

// Outcome pairs a batch entry's result with its request-level error.
type Outcome struct {
	Result Result
	Err    error
}

// SolveBatch evaluates independent problems concurrently on at most workers
// goroutines (GOMAXPROCS when workers <= 0). Outcomes are returned in
// request order. Cancellation is checked between problems; problems not
// started when ctx is done carry ctx's error.
func (s *Solver) SolveBatch(ctx context.Context, reqs []Request, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, len(reqs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(reqs); j++ {
				out[j].Err = err
			}
			break
		}
		i := i
		g.Go(func() error {
			out[i].Result, out[i].Err = s.Solve(reqs[i])
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debugw("batch solved", "problems", len(reqs), "workers", workers)
	return out, ctx.Err()
}

// IsRequestError reports whether err is a caller fault rather than an
// internal failure.
func IsRequestError(err error) bool {
	return errors.Is(err, channel.ErrAmbiguousSpec) ||
		errors.Is(err, channel.ErrDomain) ||
		errors.Is(err, channel.ErrUnsupportedShape) ||
		errors.Is(err, ErrUnknownProblem)
}
