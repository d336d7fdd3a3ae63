package flow

import (
	"fmt"
	"math"

	"github.com/chrissnell/openchannel/pkg/channel"
)

// Law selects a resistance formula.
type Law int

const (
	ManningLaw Law = iota + 1
	ChezyLaw
)

func (l Law) String() string {
	switch l {
	case ManningLaw:
		return "manning"
	case ChezyLaw:
		return "chezy"
	}
	return fmt.Sprintf("law(%d)", int(l))
}

// Resistance is a resistance law together with its coefficient: Manning's n
// (m^-1/3·s) or Chezy's C (m^1/2/s).
type Resistance struct {
	Law         Law
	Coefficient float64
}

// Manning returns the Manning law with roughness n.
func Manning(n float64) Resistance { return Resistance{Law: ManningLaw, Coefficient: n} }

// Chezy returns the Chezy law with coefficient c.
func Chezy(c float64) Resistance { return Resistance{Law: ChezyLaw, Coefficient: c} }

// ResistanceFrom picks the law from whichever coefficient was supplied.
// Supplying both or neither is ambiguous.
func ResistanceFrom(n, c *float64) (Resistance, error) {
	switch {
	case n != nil && c != nil:
		return Resistance{}, fmt.Errorf("%w: both Manning n and Chezy C supplied", channel.ErrAmbiguousSpec)
	case n != nil:
		r := Manning(*n)
		return r, r.Validate()
	case c != nil:
		r := Chezy(*c)
		return r, r.Validate()
	}
	return Resistance{}, fmt.Errorf("%w: a Manning n or a Chezy C is required", channel.ErrAmbiguousSpec)
}

// Validate reports whether the coefficient is positive and the law known.
func (r Resistance) Validate() error {
	if r.Law != ManningLaw && r.Law != ChezyLaw {
		return fmt.Errorf("%w: no resistance law selected", channel.ErrAmbiguousSpec)
	}
	if !positive(r.Coefficient) {
		return domainf("%s coefficient %g must be positive", r.Law, r.Coefficient)
	}
	return nil
}

// Velocity returns the mean velocity for hydraulic radius R and slope S.
func (r Resistance) Velocity(R, S float64) float64 {
	if R <= 0 || S <= 0 {
		return 0
	}
	if r.Law == ChezyLaw {
		return r.Coefficient * math.Sqrt(R*S)
	}
	return math.Pow(R, 2.0/3.0) * math.Sqrt(S) / r.Coefficient
}

// FrictionSlope returns the energy slope that sustains velocity V at
// hydraulic radius R.
func (r Resistance) FrictionSlope(V, R float64) float64 {
	if R <= 0 {
		return math.Inf(1)
	}
	if r.Law == ChezyLaw {
		return V * V / (r.Coefficient * r.Coefficient * R)
	}
	nv := r.Coefficient * V
	return nv * nv / math.Pow(R, 4.0/3.0)
}

// conveyanceExponent is the power of R in the velocity law.
func (r Resistance) conveyanceExponent() float64 {
	if r.Law == ChezyLaw {
		return 0.5
	}
	return 2.0 / 3.0
}

func (r Resistance) String() string {
	if r.Law == ChezyLaw {
		return fmt.Sprintf("Chezy C=%g", r.Coefficient)
	}
	return fmt.Sprintf("Manning n=%g", r.Coefficient)
}
