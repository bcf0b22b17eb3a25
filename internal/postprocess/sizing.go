package postprocess

import "position-signal-engine/internal/marketdata"

// VKellySize implements the volatility-scaled ("V-Kelly") position
// sizing step: scale the base allocation down as realized
// volatility (ATR%) exceeds a 2% target, the same half-Kelly shape
// a risk manager would apply to a live order.
func VKellySize(md *marketdata.MarketData, baseAlloc float64) (alloc, volatilityFactor float64) {
	closes := md.History.Close()
	atr14 := md.ATR(14)
	n := len(closes)
	if n == 0 {
		return 0, 0
	}

	last := n - 1
	atr := atr14[last]
	close := closes[last]
	if isNaN(atr) || close == 0 {
		return 0, 0
	}

	atrPct := atr / close
	if atrPct <= 0 {
		return baseAlloc, 1.0
	}

	volatilityFactor = 0.02 / atrPct
	if volatilityFactor > 1 {
		volatilityFactor = 1
	}
	if volatilityFactor < 0 {
		volatilityFactor = 0
	}
	return baseAlloc * volatilityFactor, volatilityFactor
}
