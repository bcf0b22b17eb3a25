package postprocess

// Regime classifies the overall market environment, driving a
// blanket allocation multiplier (spec §4.7.4).
type Regime string

const (
	RegimeHealthy  Regime = "HEALTHY"
	RegimeCautious Regime = "CAUTIOUS"
	RegimeStressed Regime = "STRESSED"
	RegimeCrisis   Regime = "CRISIS"
)

// RegimeMultiplier applies the regime-derived allocation multiplier,
// with carve-outs for all-weather and defensive-sector instruments
// under CRISIS.
func RegimeMultiplier(multipliers map[string]float64, regime Regime, isAllWeather, isDefensiveSector bool) float64 {
	if regime == RegimeCrisis {
		if isAllWeather {
			return 1.0
		}
		if isDefensiveSector {
			return 0.5
		}
	}
	if m, ok := multipliers[string(regime)]; ok {
		return m
	}
	return 1.0
}
