// Package patterns turns a MarketData into a map of named Situations.
// The detector library is split into PRIMARY (structural reversal in
// a declined context) and SECONDARY (supporting evidence); only
// PRIMARY detectors may drive a final buy (spec §4.2). Each detector
// is a variant implementing the Detector capability — a registry holds
// an ordered list of detectors, so adding a pattern is a registry entry plus a pure
// function, never an inheritance hierarchy (spec §9).
package patterns

import "position-signal-engine/internal/marketdata"

// Priority classifies a detector's role in best-pattern selection.
type Priority string

const (
	Primary   Priority = "PRIMARY"
	Secondary Priority = "SECONDARY"
)

// SignalType further describes what kind of evidence a detector
// contributes, surfaced in Situation.Metadata for diagnostics.
type SignalType string

const (
	SignalReversal     SignalType = "reversal"
	SignalContinuation SignalType = "continuation"
	SignalMomentum     SignalType = "momentum"
	SignalCalendar     SignalType = "calendar"
)

// Metadata carries detector-supplied context about a Situation.
type Metadata struct {
	Priority        Priority
	SignalType      SignalType
	VolumeConfirmed bool
}

// Situation is a named, mechanically detectable market condition at a
// set of bars (spec §3). Indices refer to bars where the condition
// fires and must never exceed len(MarketData)-1. Situation holds only
// bar indices into the MarketData it was computed from — never a
// reference to the MarketData itself (spec §9 "Cyclic references").
type Situation struct {
	ID          string
	Description string
	Indices     []int
	Confidence  float64 // [0,1]
	Metadata    Metadata
}

// Detector is the detect-capability every pattern implements: a pure
// read-side function of a MarketData, never looking at forward bars.
type Detector interface {
	ID() string
	Detect(md *marketdata.MarketData) (*Situation, error)
}

// Registry is the ordered list of Detectors driving pattern detection;
// DetectAll runs them in registration order.
type Registry struct {
	detectors []Detector
}

// NewRegistry builds the full PRIMARY + SECONDARY detector library.
func NewRegistry() *Registry {
	return &Registry{
		detectors: []Detector{
			&DoubleBottomDetector{},
			&InverseHeadShouldersDetector{},
			&BullFlagAfterDeclineDetector{},
			&HigherLowsReversalDetector{},
			&NewLowReclaimDetector{},
			&RSIOversoldDetector{},
			&GoldenCrossDetector{},
			&GapDetector{},
			&CalendarDetector{},
			&FairValueGapDetector{},
		},
	}
}

// DetectAll runs every registered detector against md and returns the
// situations that fired (a detector contributing no fires is simply
// omitted, never an error for the caller).
func (r *Registry) DetectAll(md *marketdata.MarketData) []Situation {
	var out []Situation
	for _, d := range r.detectors {
		s, err := d.Detect(md)
		if err != nil || s == nil || len(s.Indices) == 0 {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// clampConfidence keeps a computed confidence inside [0,1], the same
// guard a confidence computation applies before it is surfaced.
func clampConfidence(c float64) float64 {
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}
