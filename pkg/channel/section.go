// Package channel provides the cross-section geometry used by every
// open-channel solver: flow area, wetted perimeter, top width and the derived
// hydraulic radius, hydraulic depth and centroid depth.
package channel

import (
	"fmt"
	"math"
	"strings"
)

// Shape tags the variant held by a Section.
type Shape int

const (
	Rectangular Shape = iota + 1
	Trapezoidal
	Circular
	Triangular
	Wide
	Compound
)

var shapeNames = map[Shape]string{
	Rectangular: "rectangular",
	Trapezoidal: "trapezoidal",
	Circular:    "circular",
	Triangular:  "triangular",
	Wide:        "wide",
	Compound:    "compound",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape converts a shape name such as "trapezoidal" into its tag.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for shape, n := range shapeNames {
		if n == name {
			return shape, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown channel shape %q", ErrUnsupportedShape, name)
}

// Section is an immutable cross-section. Build one with the New* constructors;
// the zero value is not a valid section.
type Section struct {
	shape Shape

	// width is the rectangular width or the trapezoidal bottom width.
	width float64
	// sideSlope is horizontal run per unit rise (m in mH:1V).
	sideSlope float64
	diameter  float64

	breakDepth float64
	bottom     *Section
	top        *Section
}

// NewRectangular returns a rectangular section of the given width (m).
func NewRectangular(width float64) (Section, error) {
	if !positive(width) {
		return Section{}, domainErrorf("rectangular width %g must be positive", width)
	}
	return Section{shape: Rectangular, width: width}, nil
}

// NewTrapezoidal returns a trapezoidal section with the given bottom width (m)
// and side slope (horizontal:vertical). A zero side slope degenerates to a
// rectangle and is accepted.
func NewTrapezoidal(bottomWidth, sideSlope float64) (Section, error) {
	if !finite(bottomWidth) || bottomWidth < 0 {
		return Section{}, domainErrorf("trapezoidal bottom width %g must be non-negative", bottomWidth)
	}
	if !finite(sideSlope) || sideSlope < 0 {
		return Section{}, domainErrorf("trapezoidal side slope %g must be non-negative", sideSlope)
	}
	if bottomWidth == 0 && sideSlope == 0 {
		return Section{}, domainErrorf("trapezoidal section with zero bottom width and zero side slope has no area")
	}
	return Section{shape: Trapezoidal, width: bottomWidth, sideSlope: sideSlope}, nil
}

// NewCircular returns a partially full circular conduit of the given diameter (m).
func NewCircular(diameter float64) (Section, error) {
	if !positive(diameter) {
		return Section{}, domainErrorf("circular diameter %g must be positive", diameter)
	}
	return Section{shape: Circular, diameter: diameter}, nil
}

// NewTriangular returns a symmetric V-shaped section with the given side slope
// (horizontal:vertical).
func NewTriangular(sideSlope float64) (Section, error) {
	if !positive(sideSlope) {
		return Section{}, domainErrorf("triangular side slope %g must be positive", sideSlope)
	}
	return Section{shape: Triangular, sideSlope: sideSlope}, nil
}

// NewTriangularFromAngle returns a triangular section whose sides make the
// given semi-angle (degrees) with the vertical.
func NewTriangularFromAngle(semiAngleDeg float64) (Section, error) {
	if !finite(semiAngleDeg) || semiAngleDeg <= 0 || semiAngleDeg >= 90 {
		return Section{}, domainErrorf("triangular semi-angle %g must lie in (0, 90) degrees", semiAngleDeg)
	}
	return NewTriangular(math.Tan(semiAngleDeg * math.Pi / 180))
}

// NewWide returns a unit-width rectangular section whose hydraulic radius is
// taken equal to the depth.
func NewWide() Section {
	return Section{shape: Wide, width: 1}
}

// NewCompound stacks two sections at breakDepth. Below the break the bottom
// section applies; above it the top section applies to the depth measured from
// the break, or the bottom section's own geometry is extrapolated when top is nil.
// The constituents are copied and owned by the returned section.
func NewCompound(bottom Section, breakDepth float64, top *Section) (Section, error) {
	if err := checkConstituent(bottom, "bottom"); err != nil {
		return Section{}, err
	}
	if !positive(breakDepth) {
		return Section{}, domainErrorf("compound break depth %g must be positive", breakDepth)
	}
	if d, ok := bottom.Bounded(); ok && breakDepth > d {
		return Section{}, domainErrorf("compound break depth %g exceeds bottom conduit diameter %g", breakDepth, d)
	}

	b := bottom
	s := Section{shape: Compound, breakDepth: breakDepth, bottom: &b}
	if top != nil {
		if err := checkConstituent(*top, "top"); err != nil {
			return Section{}, err
		}
		t := *top
		s.top = &t
	}
	return s, nil
}

func checkConstituent(s Section, role string) error {
	switch s.shape {
	case Rectangular, Trapezoidal, Triangular, Circular:
		return nil
	case 0:
		return fmt.Errorf("%w: compound %s section is not initialised", ErrUnsupportedShape, role)
	default:
		return fmt.Errorf("%w: compound %s section cannot be %s", ErrUnsupportedShape, role, s.shape)
	}
}

// Shape returns the variant tag.
func (s Section) Shape() Shape { return s.shape }

// Width returns the rectangular width or the trapezoidal bottom width.
func (s Section) Width() float64 { return s.width }

// SideSlope returns the side slope of trapezoidal and triangular sections.
func (s Section) SideSlope() float64 { return s.sideSlope }

// Diameter returns the diameter of a circular section.
func (s Section) Diameter() float64 { return s.diameter }

// BreakDepth returns the break depth of a compound section.
func (s Section) BreakDepth() float64 { return s.breakDepth }

// Bottom returns the bottom constituent of a compound section.
func (s Section) Bottom() (Section, bool) {
	if s.bottom == nil {
		return Section{}, false
	}
	return *s.bottom, true
}

// Top returns the explicit top constituent of a compound section, if any.
func (s Section) Top() (Section, bool) {
	if s.top == nil {
		return Section{}, false
	}
	return *s.top, true
}

// Bounded reports the physical depth limit of the section. Only closed
// conduits have one.
func (s Section) Bounded() (float64, bool) {
	switch s.shape {
	case Circular:
		return s.diameter, true
	case Compound:
		if s.top == nil {
			return s.bottom.Bounded()
		}
	}
	return 0, false
}

// IsRectangular reports whether closed-form rectangular relations apply.
func (s Section) IsRectangular() bool {
	return s.shape == Rectangular || s.shape == Wide
}

func (s Section) String() string {
	switch s.shape {
	case Rectangular:
		return fmt.Sprintf("rectangular (b=%g m)", s.width)
	case Trapezoidal:
		return fmt.Sprintf("trapezoidal (b=%g m, m=%g)", s.width, s.sideSlope)
	case Circular:
		return fmt.Sprintf("circular (D=%g m)", s.diameter)
	case Triangular:
		return fmt.Sprintf("triangular (m=%g)", s.sideSlope)
	case Wide:
		return "wide (unit width)"
	case Compound:
		if s.top != nil {
			return fmt.Sprintf("compound (%s below %g m, %s above)", s.bottom, s.breakDepth, s.top)
		}
		return fmt.Sprintf("compound (%s, break at %g m)", s.bottom, s.breakDepth)
	}
	return "invalid section"
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
