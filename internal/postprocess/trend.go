// Package postprocess applies the fixed-order risk/cost/regime
// adjustment chain to a screener Result, producing either a final
// Setup or a Rejection (spec §4.7). Combines a half-Kelly-derived
// position-sizing step with a distance-from-moving-average trend
// read, generalized to the
// spec's stage pipeline.
package postprocess

import "position-signal-engine/internal/marketdata"

// TrendVerdict is the outcome of the trend filter, the pipeline's
// first post-processing stage.
type TrendVerdict struct {
	Distance float64
	Rejected bool
	Discount float64 // multiplicative discount applied to base_alloc, 1.0 = none
}

// TrendFilter rejects instruments in a strong downtrend relative to
// EMA(200) and discounts allocation for a mild downtrend.
func TrendFilter(md *marketdata.MarketData) TrendVerdict {
	closes := md.History.Close()
	ema200 := md.EMA(200)
	n := len(closes)
	if n == 0 {
		return TrendVerdict{Rejected: true}
	}

	last := n - 1
	baseline := ema200[last]
	if baseline == 0 || isNaN(baseline) {
		return TrendVerdict{Rejected: true}
	}

	distance := (closes[last] - baseline) / baseline
	if distance < -0.10 {
		return TrendVerdict{Distance: distance, Rejected: true}
	}
	if distance < 0 {
		return TrendVerdict{Distance: distance, Discount: 0.70}
	}
	return TrendVerdict{Distance: distance, Discount: 1.0}
}

func isNaN(x float64) bool { return x != x }
