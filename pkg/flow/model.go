// Package flow implements uniform and critical flow in open channels: the
// Manning and Chezy resistance laws, normal and critical depth, critical
// slope, Froude number, specific energy and alternate depths.
package flow

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/internal/numeric"
	"github.com/chrissnell/openchannel/pkg/channel"
)

// Model carries the physical constants and numeric bounds shared by every
// solver. It is a plain value; solvers never modify it.
type Model struct {
	// Gravity is the gravitational acceleration (m/s²).
	Gravity float64
	// Density is the water density (kg/m³), used for forces.
	Density float64

	// Tolerance is the absolute depth tolerance of the root finders (m).
	Tolerance     float64
	MaxIterations int

	// MinDepth is the smallest depth considered by any search (m).
	MinDepth float64
	// MaxDepth bounds the bracket expansion of open sections (m).
	MaxDepth float64
	// InitialDepth is the first trial depth and the open-method seed (m).
	InitialDepth float64

	// CriticalBand is the relative band around 1 (Froude number) or around
	// the critical slope treated as critical.
	CriticalBand float64
	// NearCritical is the threshold on |1 - Fr²| below which the GVF
	// derivative is taken as zero.
	NearCritical float64
	// JumpSearchFactor bounds the sequent-depth search on open sections as a
	// multiple of max(y1, yc).
	JumpSearchFactor float64
}

// DefaultModel returns SI constants and the default numeric bounds.
func DefaultModel() Model {
	return Model{
		Gravity:          9.81,
		Density:          1000,
		Tolerance:        1e-10,
		MaxIterations:    100,
		MinDepth:         0.001,
		MaxDepth:         100,
		InitialDepth:     1,
		CriticalBand:     0.01,
		NearCritical:     1e-6,
		JumpSearchFactor: 20,
	}
}

// Validate checks that every constant is usable.
func (m Model) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"gravity", m.Gravity},
		{"density", m.Density},
		{"tolerance", m.Tolerance},
		{"min depth", m.MinDepth},
		{"max depth", m.MaxDepth},
		{"initial depth", m.InitialDepth},
		{"near-critical threshold", m.NearCritical},
		{"jump search factor", m.JumpSearchFactor},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value <= 0 {
			return fmt.Errorf("%w: model %s must be positive, got %g", channel.ErrDomain, c.name, c.value)
		}
	}
	if m.CriticalBand < 0 || m.CriticalBand >= 1 {
		return fmt.Errorf("%w: model critical band %g must lie in [0, 1)", channel.ErrDomain, m.CriticalBand)
	}
	if m.MaxIterations <= 0 {
		return fmt.Errorf("%w: model max iterations must be positive", channel.ErrDomain)
	}
	if m.MinDepth >= m.MaxDepth {
		return fmt.Errorf("%w: model min depth %g must be below max depth %g", channel.ErrDomain, m.MinDepth, m.MaxDepth)
	}
	return nil
}

// Options returns the root-finder settings implied by the model.
func (m Model) Options() numeric.Options {
	return numeric.Options{Tolerance: m.Tolerance, MaxIterations: m.MaxIterations}
}

// Search returns a depth search starting at InitialDepth and bounded by limit.
func (m Model) Search(quantity string, limit float64) numeric.Problem {
	upper := math.Min(m.InitialDepth, limit)
	lower := math.Min(m.MinDepth, upper/2)
	return numeric.Problem{
		Quantity: quantity,
		Lower:    lower,
		Upper:    upper,
		Limit:    limit,
		Guess:    upper,
		Options:  m.Options(),
	}
}

// depthLimit is the largest depth a search on sec may consider.
func (m Model) depthLimit(sec channel.Section) float64 {
	if d, ok := sec.Bounded(); ok {
		return d
	}
	return m.MaxDepth
}

func domainf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{channel.ErrDomain}, args...)...)
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
