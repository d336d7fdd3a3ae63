package gvf

import (
	"math"

	"github.com/chrissnell/openchannel/pkg/flow"
)

// Curve is a profile type such as "M1" or "S2": slope letter then zone.
type Curve string

// slope letters
const (
	mild       = "M"
	steep      = "S"
	critical   = "C"
	horizontal = "H"
	adverse    = "A"
)

// ClassifyCurve labels the profile through depth y on a bed of slope S0,
// given the critical slope Sc, normal depth yn and critical depth yc. yn is
// ignored on horizontal and adverse beds, where no normal depth exists.
func ClassifyCurve(S0, Sc, y, yn, yc float64) Curve {
	var letter string
	switch {
	case math.Abs(S0) < 1e-10:
		letter = horizontal
	case S0 < 0:
		letter = adverse
	case math.Abs(S0-Sc) < 0.01*Sc:
		letter = critical
	case S0 < Sc:
		letter = mild
	default:
		letter = steep
	}

	zone := "3"
	switch letter {
	case mild:
		if y > yn {
			zone = "1"
		} else if y > yc {
			zone = "2"
		}
	case steep:
		if y > yc {
			zone = "1"
		} else if y > yn {
			zone = "2"
		}
	case critical:
		if y > yc {
			zone = "1"
		}
	default:
		if y > yc {
			zone = "2"
		}
	}
	return Curve(letter + zone)
}

// Trend is the direction the surface moves in the direction of flow.
type Trend string

const (
	Rising  Trend = "rising"
	Falling Trend = "falling"
)

// CurveInfo describes a profile type.
type CurveInfo struct {
	Curve       Curve
	Bed         string
	Regime      flow.Regime
	Trend       Trend
	Description string
}

var curves = map[Curve]CurveInfo{
	"M1": {Bed: "mild", Regime: flow.Subcritical, Trend: Rising, Description: "backwater above normal depth, e.g. behind a dam or weir"},
	"M2": {Bed: "mild", Regime: flow.Subcritical, Trend: Falling, Description: "drawdown towards critical depth at a free overfall"},
	"M3": {Bed: "mild", Regime: flow.Supercritical, Trend: Rising, Description: "supercritical flow below a gate rising towards a jump"},
	"S1": {Bed: "steep", Regime: flow.Subcritical, Trend: Rising, Description: "subcritical backwater after a jump, rising to a control"},
	"S2": {Bed: "steep", Regime: flow.Supercritical, Trend: Falling, Description: "drawdown from critical depth towards normal depth"},
	"S3": {Bed: "steep", Regime: flow.Supercritical, Trend: Rising, Description: "supercritical flow below a gate rising towards normal depth"},
	"C1": {Bed: "critical", Regime: flow.Subcritical, Trend: Rising, Description: "nearly level backwater above critical depth"},
	"C3": {Bed: "critical", Regime: flow.Supercritical, Trend: Rising, Description: "supercritical flow rising towards critical depth"},
	"H2": {Bed: "horizontal", Regime: flow.Subcritical, Trend: Falling, Description: "drawdown on a horizontal bed"},
	"H3": {Bed: "horizontal", Regime: flow.Supercritical, Trend: Rising, Description: "supercritical flow on a horizontal bed rising towards a jump"},
	"A2": {Bed: "adverse", Regime: flow.Subcritical, Trend: Falling, Description: "drawdown on an adverse bed"},
	"A3": {Bed: "adverse", Regime: flow.Supercritical, Trend: Rising, Description: "supercritical flow on an adverse bed rising towards a jump"},
}

// Describe returns the properties of a curve type. Unknown curves report
// ok = false.
func Describe(c Curve) (CurveInfo, bool) {
	info, ok := curves[c]
	info.Curve = c
	return info, ok
}
