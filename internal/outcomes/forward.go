// Package outcomes measures the empirical forward behavior of a
// Situation: per-horizon return samples, basic statistics and a
// robustness layer (Wilson intervals, Laplace smoothing, a one-sample
// t-test, pessimistic EV) used by the evaluator to tier patterns.
package outcomes

import "position-signal-engine/internal/patterns"

// ForwardReturns collects r_h(i) = close[i+h]/close[i] - 1 for every
// fire index i where i+h does not run past the end of the series.
// Fires too close to the end are excluded from that horizon only,
// never from the whole Situation.
func ForwardReturns(close []float64, s patterns.Situation, horizon int) []float64 {
	last := len(close) - 1
	out := make([]float64, 0, len(s.Indices))
	for _, i := range s.Indices {
		if i+horizon > last {
			continue
		}
		if close[i] == 0 {
			continue
		}
		out = append(out, close[i+horizon]/close[i]-1)
	}
	return out
}
