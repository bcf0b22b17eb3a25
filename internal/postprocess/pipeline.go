package postprocess

import (
	"fmt"

	"position-signal-engine/config"
	"position-signal-engine/internal/marketdata"
	"position-signal-engine/internal/model"
	"position-signal-engine/internal/screener"
)

// Instrument carries the static attributes Run needs beyond what the
// screener already computed: sector/geography for cost and cap
// decisions, and the all-weather/defensive flags for the regime
// stage.
type Instrument struct {
	Ticker            string
	Sector            string
	Geography         string
	LiquidityTier     string
	IsAllWeather      bool
	IsDefensiveSector bool
}

// Run applies the per-instrument post-processing chain to one
// screener.Result: trend filter, V-Kelly sizing, execution cost gate,
// regime multiplier. Any stage may reject; a reject never aborts the
// run, it returns a *model.Rejection instead. The sector cap and
// minimum-position floor are NOT applied here: they depend on every
// other surviving instrument's allocation too, so they are applied in
// a single deterministic pass by ApplySectorCaps once every
// instrument's Run has completed (spec §5's sector-cap mutex
// requirement and §8's worker-count-independent determinism
// invariant are both satisfied by never sharing the tracker across
// concurrent goroutines in the first place).
func Run(inst Instrument, md *marketdata.MarketData, result screener.Result, cfg *config.Config, regime Regime, volRegime VolatilityRegime) (*model.Setup, *model.Rejection) {
	if result.Rejected || result.Best == nil {
		stage := "pattern"
		if result.RejectionReason == "context" {
			stage = "context"
		}
		return nil, &model.Rejection{Ticker: inst.Ticker, Stage: stage, Reason: result.RejectionReason}
	}

	trend := TrendFilter(md)
	if trend.Rejected {
		return nil, &model.Rejection{Ticker: inst.Ticker, Stage: "trend", Reason: "strong_downtrend"}
	}
	baseAlloc := result.RawAllocation * trend.Discount

	alloc, _ := VKellySize(md, baseAlloc)

	notionalForCosts := alloc * cfg.Portfolio.CurrencyAmount
	costs := ExecutionCost(cfg.Costs, inst.Geography, notionalForCosts, inst.LiquidityTier, volRegime)
	netEdge := result.Best.ExpectedValue - costs.Total
	netEdgeFloor := cfg.Costs.NetEdgeFloor
	if netEdgeFloor == 0 {
		netEdgeFloor = 0.003
	}
	if netEdge < netEdgeFloor {
		return nil, &model.Rejection{Ticker: inst.Ticker, Stage: "cost", Reason: "net_edge_below_floor"}
	}

	multiplier := RegimeMultiplier(cfg.Regime.Multipliers, regime, inst.IsAllWeather, inst.IsDefensiveSector)
	alloc *= multiplier

	var notes []string
	if trend.Discount < 1.0 {
		notes = append(notes, "mild_downtrend_discount")
	}
	if !result.Best.Situation.Metadata.VolumeConfirmed {
		notes = append(notes, "volume_not_confirmed")
	}
	if result.Best.RiskRewardRatio >= rrrSentinel {
		notes = append(notes, fmt.Sprintf("risk_reward_sentinel_%d", int(rrrSentinel)))
	}

	horizonEdges := make(map[int]float64, len(result.Best.Horizons))
	for h, stats := range result.Best.Horizons {
		horizonEdges[h] = stats.Mean
	}

	// PositionPct here is the pre-sector-cap, pre-min-position-floor
	// allocation; PositionCurrency is left zero. ApplySectorCaps fills
	// both in once every instrument's Run has returned.
	return &model.Setup{
		Ticker:         inst.Ticker,
		Sector:         inst.Sector,
		PatternName:    result.Best.Situation.ID,
		Tier:           string(result.Best.Tier),
		Score:          result.Score,
		RobustScore:    result.Best.Robust.RobustScore,
		HorizonEdges:   horizonEdges,
		WinRate:        result.Best.EvalHorizonStats.WinRate,
		WinRateCILower: result.Best.EvalHorizonStats.WinRateCILower,
		WinRateCIUpper: result.Best.EvalHorizonStats.WinRateCIUpper,
		ExpectedValue:  result.Best.ExpectedValue,
		RiskReward:     result.Best.RiskRewardRatio,
		StopLossPct:    1.5 * absf(result.Best.EvalHorizonStats.AvgLoss),
		PositionPct:    alloc,
		Notes:          notes,
	}, nil
}

const rrrSentinel = 999

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
