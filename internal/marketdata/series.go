package marketdata

import (
	"fmt"
	"math"
	"sync"
)

// MarketData owns the memoized derived-series cache for exactly one
// PriceHistory, for the lifetime of a single pipeline run (spec §3
// "Ownership"). The cache is an arena keyed by (kind, window),
// released once the owning per-instrument worker completes — in
// practice, once the *MarketData value is dropped.
type MarketData struct {
	History *PriceHistory

	mu    sync.Mutex
	cache map[string][]float64
}

// New wraps a PriceHistory in a MarketData with an empty derived-
// series cache.
func New(history *PriceHistory) *MarketData {
	return &MarketData{History: history, cache: make(map[string][]float64)}
}

func (m *MarketData) memo(key string, compute func() []float64) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.cache[key]; ok {
		return v
	}
	v := compute()
	m.cache[key] = v
	return v
}

// Returns is the simple one-bar return series, NaN at index 0.
func (m *MarketData) Returns() []float64 {
	return m.memo("returns", func() []float64 {
		closes := m.History.Close()
		out := make([]float64, len(closes))
		if len(out) > 0 {
			out[0] = math.NaN()
		}
		for i := 1; i < len(closes); i++ {
			if closes[i-1] == 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = closes[i]/closes[i-1] - 1
		}
		return out
	})
}

// LogReturns is the log-return series, NaN at index 0.
func (m *MarketData) LogReturns() []float64 {
	return m.memo("log_returns", func() []float64 {
		closes := m.History.Close()
		out := make([]float64, len(closes))
		if len(out) > 0 {
			out[0] = math.NaN()
		}
		for i := 1; i < len(closes); i++ {
			if closes[i-1] <= 0 || closes[i] <= 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = math.Log(closes[i] / closes[i-1])
		}
		return out
	})
}

// RollingMean is the n-bar rolling mean of Close, leading NaN for
// i < n-1.
func (m *MarketData) RollingMean(n int) []float64 {
	return m.memo(fmt.Sprintf("rolling_mean:%d", n), func() []float64 {
		return rollingMean(m.History.Close(), n)
	})
}

// RollingStd is the n-bar rolling (population) standard deviation of
// Close, leading NaN for i < n-1.
func (m *MarketData) RollingStd(n int) []float64 {
	return m.memo(fmt.Sprintf("rolling_std:%d", n), func() []float64 {
		return rollingStd(m.History.Close(), n)
	})
}

// EMA is the n-bar exponential moving average of Close, seeded from
// the simple mean of the first n bars, leading NaN for i < n-1. No
// look-ahead: ema[i] depends only on bars <= i.
func (m *MarketData) EMA(n int) []float64 {
	return m.memo(fmt.Sprintf("ema:%d", n), func() []float64 {
		return ema(m.History.Close(), n)
	})
}

// RSI is the n-bar Relative Strength Index using Wilder smoothing,
// leading NaN for i < n.
func (m *MarketData) RSI(n int) []float64 {
	return m.memo(fmt.Sprintf("rsi:%d", n), func() []float64 {
		return rsi(m.History.Close(), n)
	})
}

// ATR is the n-bar Average True Range using Wilder smoothing, leading
// NaN for i < n.
func (m *MarketData) ATR(n int) []float64 {
	return m.memo(fmt.Sprintf("atr:%d", n), func() []float64 {
		return atr(m.History.High(), m.History.Low(), m.History.Close(), n)
	})
}

func rollingMean(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := range closes {
		sum += closes[i]
		if i >= n {
			sum -= closes[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func rollingStd(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 1 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum, sumSq float64
	for i := range closes {
		x := closes[i]
		sum += x
		sumSq += x * x
		if i >= n {
			y := closes[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := sumSq/float64(n) - mean*mean
			if variance < 0 {
				variance = 0
			}
			out[i] = math.Sqrt(variance)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// ema seeds the first value from the simple mean of the first n bars,
// then smooths forward. A window too large to fill returns all-NaN.
func ema(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(closes) < n {
		return out
	}

	var seedSum float64
	for i := 0; i < n; i++ {
		seedSum += closes[i]
	}
	out[n-1] = seedSum / float64(n)

	k := 2.0 / float64(n+1)
	for i := n; i < len(closes); i++ {
		out[i] = closes[i]*k + out[i-1]*(1-k)
	}
	return out
}

// rsi implements Wilder's smoothed RSI. Indices before n are NaN; the
// first full window of n changes closes at index n, which holds the
// first value.
func rsi(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(closes) <= n {
		return out
	}

	var gain, loss float64
	for i := 1; i <= n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(n)
	avgLoss := loss / float64(n)
	out[n] = rsiFromAvgs(avgGain, avgLoss)

	for i := n + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(n-1) + g) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + l) / float64(n)
		out[i] = rsiFromAvgs(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvgs(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// atr implements Wilder's smoothed Average True Range, seeded from the
// simple mean of the first n true ranges.
func atr(highs, lows, closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if n <= 0 || len(closes) <= n {
		return out
	}

	trueRange := func(i int) float64 {
		if i == 0 {
			return highs[0] - lows[0]
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		return math.Max(hl, math.Max(hc, lc))
	}

	var seedSum float64
	for i := 1; i <= n; i++ {
		seedSum += trueRange(i)
	}
	prevATR := seedSum / float64(n)
	out[n] = prevATR

	for i := n + 1; i < len(closes); i++ {
		tr := trueRange(i)
		prevATR = (prevATR*float64(n-1) + tr) / float64(n)
		out[i] = prevATR
	}
	return out
}
