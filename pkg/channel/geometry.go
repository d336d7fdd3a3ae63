package channel

import (
	"fmt"
	"math"
)

// Geometry is the set of geometric properties of a section at one depth.
// HydraulicRadius and HydraulicDepth are 0 when their denominators are 0.
type Geometry struct {
	Depth           float64
	Area            float64
	WettedPerimeter float64
	TopWidth        float64
	HydraulicRadius float64
	HydraulicDepth  float64

	// Centroid is the depth of the area centroid below the free surface.
	Centroid float64
}

// At evaluates the section at the given depth. Depth 0 yields a zero Geometry;
// a negative depth is a domain error.
func (s Section) At(depth float64) (Geometry, error) {
	if math.IsNaN(depth) || depth < 0 {
		return Geometry{}, domainErrorf("depth %g must be non-negative", depth)
	}
	if s.shape < Rectangular || s.shape > Compound {
		return Geometry{}, fmt.Errorf("%w: %s", ErrUnsupportedShape, s.shape)
	}
	if depth == 0 {
		return Geometry{}, nil
	}

	a, p, t := s.measure(depth)
	g := Geometry{
		Depth:           depth,
		Area:            a,
		WettedPerimeter: p,
		TopWidth:        t,
	}
	if p > 0 {
		g.HydraulicRadius = a / p
	}
	if t > 0 {
		g.HydraulicDepth = a / t
	}
	if s.shape == Wide {
		g.HydraulicRadius = depth
	}
	g.Centroid = s.centroid(depth, g)
	return g, nil
}

// measure returns area, wetted perimeter and top width for depth > 0.
func (s Section) measure(y float64) (area, perimeter, top float64) {
	switch s.shape {
	case Rectangular, Wide:
		return s.width * y, s.width + 2*y, s.width

	case Trapezoidal:
		m := s.sideSlope
		return (s.width + m*y) * y, s.width + 2*y*math.Sqrt(1+m*m), s.width + 2*m*y

	case Triangular:
		m := s.sideSlope
		return m * y * y, 2 * y * math.Sqrt(1+m*m), 2 * m * y

	case Circular:
		r := s.diameter / 2
		theta := s.halfAngle(y)
		sin, cos := math.Sincos(theta)
		return r * r * (theta - sin*cos), 2 * r * theta, 2 * r * sin

	case Compound:
		return s.measureCompound(y)
	}
	return 0, 0, 0
}

func (s Section) measureCompound(y float64) (area, perimeter, top float64) {
	if y <= s.breakDepth {
		return s.bottom.measure(y)
	}

	if s.top == nil {
		return s.bottom.measure(y)
	}

	aBreak, pBreak, tBreak := s.bottom.measure(s.breakDepth)
	aTop, pTop, tTop := s.top.measure(y - s.breakDepth)
	// The interface at the break is open water, not wetted boundary.
	return aBreak + aTop, pBreak + pTop - tBreak, tTop
}

// halfAngle returns the half-angle θ subtended by the free surface of a
// circular section, measured from the invert, clamped to [0, π].
func (s Section) halfAngle(y float64) float64 {
	r := s.diameter / 2
	if y <= 0 {
		return 0
	}
	if y >= 2*r {
		return math.Pi
	}
	c := 1 - y/r
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

func (s Section) centroid(y float64, g Geometry) float64 {
	switch s.shape {
	case Rectangular, Wide:
		return y / 2
	case Triangular:
		return y / 3
	case Circular:
		return s.circularCentroid(y)
	default:
		// Trapezoidal and compound sections use half the hydraulic depth,
		// which is exact only for rectangles.
		return g.HydraulicDepth / 2
	}
}

// circularCentroid returns the depth below the surface of the centroid of a
// circular segment filled to depth y.
func (s Section) circularCentroid(y float64) float64 {
	r := s.diameter / 2
	theta := s.halfAngle(y)
	if theta == 0 {
		return 0
	}
	den := theta - 0.5*math.Sin(2*theta)
	if den == 0 {
		return 0
	}
	// Distance from the circle centre down to the segment centroid.
	dBar := r * (2.0 / 3.0) * math.Pow(math.Sin(theta), 3) / den
	return math.Min(y, y-r+dBar)
}

// Area returns the flow area (m²) at depth.
func (s Section) Area(depth float64) (float64, error) {
	g, err := s.At(depth)
	return g.Area, err
}

// WettedPerimeter returns the wetted perimeter (m) at depth.
func (s Section) WettedPerimeter(depth float64) (float64, error) {
	g, err := s.At(depth)
	return g.WettedPerimeter, err
}

// TopWidth returns the free-surface width (m) at depth.
func (s Section) TopWidth(depth float64) (float64, error) {
	g, err := s.At(depth)
	return g.TopWidth, err
}

// HydraulicRadius returns A/P at depth.
func (s Section) HydraulicRadius(depth float64) (float64, error) {
	g, err := s.At(depth)
	return g.HydraulicRadius, err
}

// HydraulicDepth returns A/T at depth.
func (s Section) HydraulicDepth(depth float64) (float64, error) {
	g, err := s.At(depth)
	return g.HydraulicDepth, err
}

// CentroidDepth returns the depth of the area centroid below the free surface.
func (s Section) CentroidDepth(depth float64) (float64, error) {
	g, err := s.At(depth)
	return g.Centroid, err
}
