// Package marketdata wraps a PriceHistory in aligned, memoized
// derived series (returns, ATR, EMA, RSI, rolling stats) used by
// detectors and sizing. Every series is indexed by bar ordinal, never
// by timestamp (spec §3 "Invariant").
package marketdata

import (
	"time"

	"position-signal-engine/internal/errs"
)

// Bar is one sampled OHLCV interval.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceHistory is an ordered, immutable sequence of Bars for one
// ticker. Created by the data-source collaborator; never mutated
// after construction.
type PriceHistory struct {
	Ticker string
	Bars   []Bar
}

// NewPriceHistory validates and wraps bars: strictly increasing
// timestamps, no duplicates, no negative prices, volume >= 0.
func NewPriceHistory(ticker string, bars []Bar) (*PriceHistory, error) {
	for i, b := range bars {
		if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 {
			return nil, &errs.DataError{Ticker: ticker, Reason: "negative price"}
		}
		if b.Volume < 0 {
			return nil, &errs.DataError{Ticker: ticker, Reason: "negative volume"}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return nil, &errs.DataError{Ticker: ticker, Reason: "non-monotonic or duplicate timestamp"}
		}
	}
	return &PriceHistory{Ticker: ticker, Bars: bars}, nil
}

// Len returns the number of bars.
func (p *PriceHistory) Len() int { return len(p.Bars) }

// Close returns the aligned close-price series.
func (p *PriceHistory) Close() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Close
	}
	return out
}

// High returns the aligned high-price series.
func (p *PriceHistory) High() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.High
	}
	return out
}

// Low returns the aligned low-price series.
func (p *PriceHistory) Low() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Low
	}
	return out
}

// Volume returns the aligned volume series.
func (p *PriceHistory) Volume() []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Volume
	}
	return out
}
