package postprocess

import "position-signal-engine/config"

// VolatilityRegime classifies short-term realized volatility for the
// slippage component of the execution cost model — distinct from the
// market-breadth Regime used by the regime multiplier stage.
type VolatilityRegime string

const (
	VolatilityStable      VolatilityRegime = "STABLE"
	VolatilityExpanding   VolatilityRegime = "EXPANDING"
	VolatilityExplosive   VolatilityRegime = "EXPLOSIVE"
	VolatilityContracting VolatilityRegime = "CONTRACTING"
)

// CostBreakdown itemizes the round-trip execution cost so reports can
// explain why a net edge failed the floor.
type CostBreakdown struct {
	FX       float64
	Courtage float64
	Spread   float64
	Slippage float64
	Total    float64
}

// ExecutionCost computes the round-trip cost model (spec §4.7.3): FX
// + courtage + spread + slippage. Courtage is reported in absolute
// notional currency, but FX/spread/slippage are fractional rates, so
// Total expresses courtage as courtage/notional before summing —
// otherwise an absolute fee would swamp a fractional net_edge_floor
// regardless of how small the edge actually is.
func ExecutionCost(cfg config.CostConfig, geography string, notional float64, liquidityTier string, regime VolatilityRegime) CostBreakdown {
	fx := fxCost(cfg.FXByGeography, geography)
	courtage := courtageCost(cfg.CourtageTiers, notional)
	spread := spreadCost(cfg.SpreadByLiquidity, liquidityTier)
	slippage := cfg.SlippageBase * slippageMultiplier(regime)

	courtagePct := 0.0
	if notional > 0 {
		courtagePct = courtage / notional
	}

	return CostBreakdown{
		FX:       fx,
		Courtage: courtage,
		Spread:   spread,
		Slippage: slippage,
		Total:    fx + courtagePct + spread + slippage,
	}
}

func fxCost(byGeography map[string]float64, geography string) float64 {
	if v, ok := byGeography[geography]; ok {
		return v
	}
	switch geography {
	case "SE":
		return 0
	case "NO", "DK", "FI", "IS":
		return 0.0025
	default:
		return 0.005
	}
}

// courtageCost finds the first tier whose MaxNotional covers the
// trade and applies its fee floor/rate, doubled for the round trip.
func courtageCost(tiers []config.CourtageTier, notional float64) float64 {
	if len(tiers) == 0 {
		return defaultCourtage(notional) * 2
	}
	for _, tier := range tiers {
		if notional <= tier.MaxNotional {
			fee := notional * tier.Rate
			if fee < tier.MinFee {
				fee = tier.MinFee
			}
			return fee * 2
		}
	}
	last := tiers[len(tiers)-1]
	fee := notional * last.Rate
	if fee < last.MinFee {
		fee = last.MinFee
	}
	return fee * 2
}

func defaultCourtage(notional float64) float64 {
	switch {
	case notional <= 100_000:
		return maxf(1, notional*0.00015)
	case notional <= 250_000:
		return maxf(7, notional*0.00035)
	default:
		return maxf(15, notional*0.00056)
	}
}

func spreadCost(byLiquidity map[string]float64, liquidityTier string) float64 {
	if v, ok := byLiquidity[liquidityTier]; ok {
		return v
	}
	switch liquidityTier {
	case "large_cap":
		return 0.0005
	case "mid_cap":
		return 0.0015
	default:
		return 0.0030
	}
}

func slippageMultiplier(regime VolatilityRegime) float64 {
	switch regime {
	case VolatilityExpanding:
		return 2
	case VolatilityExplosive:
		return 4
	case VolatilityContracting:
		return 0.5
	default:
		return 1
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
