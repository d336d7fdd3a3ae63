package flow

// Regime is the flow regime implied by the Froude number.
type Regime string

const (
	Subcritical   Regime = "subcritical"
	Critical      Regime = "critical"
	Supercritical Regime = "supercritical"
)

// SlopeClass is the classification of a bed slope against the critical slope.
type SlopeClass string

const (
	Mild          SlopeClass = "mild"
	CriticalSlope SlopeClass = "critical"
	Steep         SlopeClass = "steep"
)

const defaultCriticalBand = 0.01

// ClassifyRegime labels Fr within ±1% of 1 as critical.
func ClassifyRegime(Fr float64) Regime {
	return classifyRegime(Fr, defaultCriticalBand)
}

// ClassifySlope labels S within ±1% of Sc as critical. The band keeps round-off
// at true equality from flipping the label.
func ClassifySlope(S, Sc float64) SlopeClass {
	return classifySlope(S, Sc, defaultCriticalBand)
}

// ClassifyRegime labels Fr using the model's critical band.
func (m Model) ClassifyRegime(Fr float64) Regime {
	return classifyRegime(Fr, m.CriticalBand)
}

// ClassifySlope labels S using the model's critical band.
func (m Model) ClassifySlope(S, Sc float64) SlopeClass {
	return classifySlope(S, Sc, m.CriticalBand)
}

func classifyRegime(Fr, band float64) Regime {
	switch {
	case Fr < 1-band:
		return Subcritical
	case Fr > 1+band:
		return Supercritical
	}
	return Critical
}

func classifySlope(S, Sc, band float64) SlopeClass {
	switch {
	case S < Sc*(1-band):
		return Mild
	case S > Sc*(1+band):
		return Steep
	}
	return CriticalSlope
}
