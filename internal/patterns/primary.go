package patterns

import (
	"math"

	"position-signal-engine/internal/marketdata"
)

// DoubleBottomDetector finds a double bottom after a prior decline
// (spec §4.2). It buckets the separation between the two bottoms
// instead of re-scanning five fixed window lengths independently: any
// separation up to the largest named window (120 bars) is considered,
// which subsumes a 40/60/80/100/120 fixed-window scan without
// re-walking the series five times.
type DoubleBottomDetector struct{}

func (d *DoubleBottomDetector) ID() string { return "double_bottom_after_decline" }

func (d *DoubleBottomDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	s := seriesOf(md)
	n := len(s.close)
	if n < 130 {
		return nil, nil
	}

	minima := localMinimaIndices(s.low, 0, n, 5)
	var indices []int
	for a := 0; a < len(minima); a++ {
		for b := a + 1; b < len(minima); b++ {
			l1, l2 := minima[a], minima[b]
			sep := l2 - l1
			if sep < 10 || sep > 120 {
				continue
			}
			if s.low[l1] <= 0 {
				continue
			}
			if abs(s.low[l2]-s.low[l1])/s.low[l1] >= 0.05 {
				continue
			}
			reactionHigh := maxOf(s.high, l1, l2+1)
			if (reactionHigh-s.low[l1])/s.low[l1] < 0.02 {
				continue
			}
			if s.volume[l2] >= s.volume[l1] {
				continue
			}
			priorStart := l1 - 90
			if priorStart < 0 {
				priorStart = 0
			}
			priorHigh := maxOf(s.high, priorStart, l1)
			if priorHigh == 0 || (priorHigh-s.low[l2])/priorHigh < 0.10 {
				continue
			}
			indices = dedupAppendIndex(indices, l2)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "double bottom after a qualifying decline, second low on lighter volume",
		Indices:     indices,
		Confidence:  0.6,
		Metadata:    newMetadata(Primary, SignalReversal, volumeConfirmedAt(md, indices, 1.5)),
	}, nil
}

// InverseHeadShouldersDetector finds a head-and-shoulders bottom with
// optional neckline confirmation.
type InverseHeadShouldersDetector struct{}

func (d *InverseHeadShouldersDetector) ID() string { return "inverse_head_and_shoulders" }

func (d *InverseHeadShouldersDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	s := seriesOf(md)
	n := len(s.close)
	if n < 90 {
		return nil, nil
	}

	minima := localMinimaIndices(s.low, 0, n, 5)
	var indices []int
	for i := 0; i+2 < len(minima); i++ {
		ls, h, rs := minima[i], minima[i+1], minima[i+2]
		if s.low[h] >= s.low[ls] || s.low[h] >= s.low[rs] {
			continue
		}
		if s.low[ls] <= 0 || abs(s.low[ls]-s.low[rs])/s.low[ls] >= 0.10 {
			continue
		}
		if h <= ls+1 || rs <= h+1 {
			continue
		}
		neckline := maxOf(s.high, ls+1, h)
		if nk := maxOf(s.high, h+1, rs); nk > neckline {
			neckline = nk
		}
		if neckline <= 0 {
			continue
		}

		confirmed := -1
		lookahead := rs + 20
		if lookahead > n {
			lookahead = n
		}
		for j := rs + 1; j < lookahead; j++ {
			if s.close[j] > neckline {
				confirmed = j
				break
			}
		}
		if confirmed == -1 {
			continue
		}
		indices = dedupAppendIndex(indices, confirmed)
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "inverse head & shoulders confirmed by a close above the neckline",
		Indices:     indices,
		Confidence:  0.65,
		Metadata:    newMetadata(Primary, SignalReversal, volumeConfirmedAt(md, indices, 1.5)),
	}, nil
}

// BullFlagAfterDeclineDetector finds a >=15% decline followed by a
// lower-volatility sideways channel lasting 10-30 bars.
type BullFlagAfterDeclineDetector struct{}

func (d *BullFlagAfterDeclineDetector) ID() string { return "bull_flag_after_decline" }

func (d *BullFlagAfterDeclineDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	s := seriesOf(md)
	returns := md.Returns()
	n := len(s.close)
	if n < 100 {
		return nil, nil
	}

	troughs := localMinimaIndices(s.low, 60, n, 5)
	var indices []int
	for _, trough := range troughs {
		peakStart := trough - 60
		if peakStart < 0 {
			peakStart = 0
		}
		peak := peakStart
		for i := peakStart; i < trough; i++ {
			if s.high[i] > s.high[peak] {
				peak = i
			}
		}
		if s.high[peak] <= 0 {
			continue
		}
		decline := (s.low[trough] - s.high[peak]) / s.high[peak]
		if decline > -0.15 {
			continue
		}
		declineVol := stdDev(returns, peak, trough)
		if declineVol == 0 {
			continue
		}

		for length := 10; length <= 30; length++ {
			end := trough + length
			if end >= n {
				break
			}
			channelVol := stdDev(returns, trough, end)
			if channelVol > 0 && channelVol < declineVol {
				indices = dedupAppendIndex(indices, end-1)
				break
			}
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "sideways channel with compressed volatility after a >=15% decline",
		Indices:     indices,
		Confidence:  0.55,
		Metadata:    newMetadata(Primary, SignalContinuation, volumeConfirmedAt(md, indices, 2.0)),
	}, nil
}

// HigherLowsReversalDetector finds three or more successive local
// minima each strictly higher than the previous.
type HigherLowsReversalDetector struct{}

func (d *HigherLowsReversalDetector) ID() string { return "higher_lows_reversal" }

func (d *HigherLowsReversalDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	s := seriesOf(md)
	n := len(s.close)
	if n < 40 {
		return nil, nil
	}

	minima := localMinimaIndices(s.low, 0, n, 5)
	var indices []int
	runStart := 0
	for i := 1; i <= len(minima); i++ {
		broke := i == len(minima) || s.low[minima[i]] <= s.low[minima[i-1]]
		if broke {
			runLen := i - runStart
			if runLen >= 3 {
				indices = dedupAppendIndex(indices, minima[i-1])
			}
			runStart = i
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "three or more successive higher lows",
		Indices:     indices,
		Confidence:  0.5,
		Metadata:    newMetadata(Primary, SignalReversal, volumeConfirmedAt(md, indices, 1.5)),
	}, nil
}

// NewLowReclaimDetector finds a 252-bar low followed by a close back
// above EMA(20) within five bars.
type NewLowReclaimDetector struct{}

func (d *NewLowReclaimDetector) ID() string { return "new_multi_period_low_reclaim" }

func (d *NewLowReclaimDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	s := seriesOf(md)
	ema20 := md.EMA(20)
	n := len(s.close)
	if n < 260 {
		return nil, nil
	}

	var indices []int
	for i := 252; i < n; i++ {
		windowLow := minOf(s.close, i-252, i+1)
		if s.close[i] > windowLow {
			continue
		}
		limit := i + 5
		if limit >= n {
			limit = n - 1
		}
		for j := i + 1; j <= limit; j++ {
			if math.IsNaN(ema20[j]) {
				continue
			}
			if s.close[j] > ema20[j] {
				indices = dedupAppendIndex(indices, j)
				break
			}
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "new 252-bar low reclaimed above EMA(20) within 5 bars",
		Indices:     indices,
		Confidence:  0.5,
		Metadata:    newMetadata(Primary, SignalReversal, volumeConfirmedAt(md, indices, 1.5)),
	}, nil
}

// stdDev computes the population standard deviation of v[start:end),
// skipping NaN entries (the leading return at index 0).
func stdDev(v []float64, start, end int) float64 {
	if end > len(v) {
		end = len(v)
	}
	var sum, sumSq float64
	count := 0
	for i := start; i < end; i++ {
		if math.IsNaN(v[i]) {
			continue
		}
		sum += v[i]
		sumSq += v[i] * v[i]
		count++
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)
	variance := sumSq/float64(count) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
