package marketdata

import (
	"fmt"
	"math"
)

// OBV is the On-Balance Volume series: running sum of volume signed
// by the direction of the day's close versus the prior close. Index 0
// is always 0 (no prior bar to compare against).
func (m *MarketData) OBV() []float64 {
	return m.memo("obv", func() []float64 {
		closes := m.History.Close()
		volume := m.History.Volume()
		out := make([]float64, len(closes))
		for i := 1; i < len(closes); i++ {
			switch {
			case closes[i] > closes[i-1]:
				out[i] = out[i-1] + volume[i]
			case closes[i] < closes[i-1]:
				out[i] = out[i-1] - volume[i]
			default:
				out[i] = out[i-1]
			}
		}
		return out
	})
}

// VolumeRatio is bar volume divided by its trailing n-bar average,
// leading NaN for i < n-1 and wherever the trailing average is zero.
func (m *MarketData) VolumeRatio(n int) []float64 {
	return m.memo(fmt.Sprintf("volume_ratio:%d", n), func() []float64 {
		volume := m.History.Volume()
		avg := rollingMean(volume, n)
		out := make([]float64, len(volume))
		for i := range volume {
			if math.IsNaN(avg[i]) || avg[i] == 0 {
				out[i] = math.NaN()
				continue
			}
			out[i] = volume[i] / avg[i]
		}
		return out
	})
}

// VolumeConfirmedAt reports whether bar i's volume ratio against its
// trailing n-bar average meets threshold: callers use 2.0 for
// breakout/continuation patterns and 1.5 for reversals. Out-of-range
// or NaN ratios are unconfirmed, never a panic or a silent true.
func (m *MarketData) VolumeConfirmedAt(i, n int, threshold float64) bool {
	if i < 0 || i >= m.History.Len() {
		return false
	}
	ratio := m.VolumeRatio(n)[i]
	if math.IsNaN(ratio) {
		return false
	}
	return ratio >= threshold
}
