package patterns

import (
	"math"

	"position-signal-engine/internal/marketdata"
)

// RSIOversoldDetector fires wherever RSI(14) drops below 30.
type RSIOversoldDetector struct{}

func (d *RSIOversoldDetector) ID() string { return "rsi_oversold" }

func (d *RSIOversoldDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	rsi := md.RSI(14)
	var indices []int
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		if v < 30 {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "RSI(14) below 30",
		Indices:     indices,
		Confidence:  0.4,
		Metadata:    newMetadata(Secondary, SignalMomentum, volumeConfirmedAt(md, indices, 1.5)),
	}, nil
}

// GoldenCrossDetector fires where EMA(50) crosses above EMA(200).
type GoldenCrossDetector struct{}

func (d *GoldenCrossDetector) ID() string { return "golden_cross" }

func (d *GoldenCrossDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	fast := md.EMA(50)
	slow := md.EMA(200)
	var indices []int
	for i := 1; i < len(fast); i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) || math.IsNaN(fast[i-1]) || math.IsNaN(slow[i-1]) {
			continue
		}
		crossedUp := fast[i-1] <= slow[i-1] && fast[i] > slow[i]
		if crossedUp {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "EMA(50) crosses above EMA(200)",
		Indices:     indices,
		Confidence:  0.45,
		Metadata:    newMetadata(Secondary, SignalMomentum, volumeConfirmedAt(md, indices, 1.5)),
	}, nil
}

// GapDetector fires wherever the open gaps more than 2% from the
// prior close, in either direction.
type GapDetector struct{}

func (d *GapDetector) ID() string { return "gap" }

func (d *GapDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	bars := md.History.Bars
	var indices []int
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		if prevClose == 0 {
			continue
		}
		gap := (bars[i].Open - prevClose) / prevClose
		if abs(gap) > 0.02 {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "open gaps more than 2% from the prior close",
		Indices:     indices,
		Confidence:  0.35,
		Metadata:    newMetadata(Secondary, SignalMomentum, volumeConfirmedAt(md, indices, 2.0)),
	}, nil
}

// CalendarDetector fires on the turn-of-month window (the last three
// trading bars of a calendar month), a documented seasonal regularity.
type CalendarDetector struct{}

func (d *CalendarDetector) ID() string { return "turn_of_month" }

func (d *CalendarDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	bars := md.History.Bars
	var indices []int
	for i := range bars {
		if isTurnOfMonth(bars, i) {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "within the last three trading bars of the calendar month",
		Indices:     indices,
		Confidence:  0.3,
		Metadata:    newMetadata(Secondary, SignalCalendar, false),
	}, nil
}

func isTurnOfMonth(bars []marketdata.Bar, i int) bool {
	month := bars[i].Time.Month()
	for j := i + 1; j < len(bars) && j <= i+3; j++ {
		if bars[j].Time.Month() != month {
			return true
		}
	}
	return false
}

// FairValueGapDetector finds bullish fair value gaps: a three-bar
// sequence where the first bar's high sits below the third bar's low
// by at least minFVGGapPct, firing on the third bar. No fill test is
// applied: the detector does not look past the bar it fires on, so whether a later
// bar eventually fills the gap has no bearing on this fire.
type FairValueGapDetector struct{}

func (d *FairValueGapDetector) ID() string { return "bullish_fair_value_gap" }

const minFVGGapPct = 0.001 // 0.1% minimum gap size before a gap counts

func (d *FairValueGapDetector) Detect(md *marketdata.MarketData) (*Situation, error) {
	s := seriesOf(md)
	n := len(s.close)
	if n < 3 {
		return nil, nil
	}

	var indices []int
	for i := 0; i+2 < n; i++ {
		c1High, c3Low := s.high[i], s.low[i+2]
		if c1High <= 0 || c1High >= c3Low {
			continue
		}
		if (c3Low-c1High)/c1High < minFVGGapPct {
			continue
		}
		indices = dedupAppendIndex(indices, i+2)
	}
	if len(indices) == 0 {
		return nil, nil
	}
	return &Situation{
		ID:          d.ID(),
		Description: "bullish fair value gap between bar[i].high and bar[i+2].low",
		Indices:     indices,
		Confidence:  0.35,
		Metadata:    newMetadata(Secondary, SignalContinuation, volumeConfirmedAt(md, indices, 2.0)),
	}, nil
}
