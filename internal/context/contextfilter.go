// Package context implements the "Vattenpasset" market-context gate:
// an instrument must be meaningfully off its recent high before any
// pattern on it is scored (spec §4.5).
package context

import "position-signal-engine/internal/marketdata"

// Result carries the context gate's verdict plus the decline figure
// that drove it, surfaced in reports even on a pass.
type Result struct {
	DeclineFromHigh float64
	Valid           bool
}

// Evaluate computes decline_from_high over the trailing lookback
// window and requires it to be at or below -minDeclinePct
// (minDeclinePct is a positive fraction, e.g. 0.10 for a 10% decline)
// before the instrument is allowed into scoring.
func Evaluate(md *marketdata.MarketData, lookbackBars int, minDeclinePct float64) Result {
	closes := md.History.Close()
	n := len(closes)
	if n == 0 {
		return Result{}
	}

	start := n - lookbackBars
	if start < 0 {
		start = 0
	}
	high := closes[start]
	for i := start; i < n; i++ {
		if closes[i] > high {
			high = closes[i]
		}
	}
	if high == 0 {
		return Result{}
	}

	last := closes[n-1]
	decline := (last - high) / high
	return Result{
		DeclineFromHigh: decline,
		Valid:           decline <= -minDeclinePct,
	}
}
