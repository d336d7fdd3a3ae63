package channel

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared by every solver in the engine. Solvers wrap one of these
// with fmt.Errorf("%w: ...") so callers can test the kind with errors.Is.
var (
	// ErrDomain indicates a negative or zero depth, discharge or area where a
	// strictly positive value is required.
	ErrDomain = errors.New("domain error")

	// ErrNonConvergence indicates that the bracketing search and the open-method
	// fallback both failed to produce a verified root.
	ErrNonConvergence = errors.New("no convergence")

	// ErrUnsupportedShape indicates a formula invoked on a cross-section for
	// which no exact or approximate formulation exists.
	ErrUnsupportedShape = errors.New("unsupported shape combination")

	// ErrAmbiguousSpec indicates an under-determined problem or a missing or
	// doubly-specified roughness convention.
	ErrAmbiguousSpec = errors.New("ambiguous specification")
)

// Stage reports the outcome of one stage of a root-finding fallback chain.
type Stage struct {
	Method     string
	Status     string
	Root       float64
	Residual   float64
	Iterations int
}

// ConvergenceError carries the status of every stage that was attempted for a
// quantity. It unwraps to ErrNonConvergence.
type ConvergenceError struct {
	Quantity string
	Stages   []Stage
}

func (e *ConvergenceError) Error() string {
	parts := make([]string, 0, len(e.Stages))
	for _, s := range e.Stages {
		parts = append(parts, fmt.Sprintf("%s: %s after %d iterations (x=%g, residual=%g)",
			s.Method, s.Status, s.Iterations, s.Root, s.Residual))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s: %v", e.Quantity, ErrNonConvergence)
	}
	return fmt.Sprintf("%s: %v [%s]", e.Quantity, ErrNonConvergence, strings.Join(parts, "; "))
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNonConvergence
}

func domainErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDomain}, args...)...)
}
