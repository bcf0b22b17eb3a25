package postprocess

import "position-signal-engine/internal/model"

// SectorCapTracker enforces a cumulative per-sector allocation cap
// across the set of Setups being assembled (spec §4.7.5). Overflow
// beyond the cap is truncated, never rescaled across the rest of the
// sector's candidates.
type SectorCapTracker struct {
	capPct     float64
	cumulative map[string]float64
}

// NewSectorCapTracker builds an empty tracker for one ranking run.
func NewSectorCapTracker(capPct float64) *SectorCapTracker {
	return &SectorCapTracker{capPct: capPct, cumulative: make(map[string]float64)}
}

// Admit attempts to add alloc to sector's running total. It returns
// the (possibly truncated) allocation actually admitted, and whether
// anything was admitted at all (false when the sector is already at
// its cap).
func (t *SectorCapTracker) Admit(sector string, alloc float64) (admitted float64, ok bool) {
	used := t.cumulative[sector]
	remaining := t.capPct - used
	if remaining <= 0 {
		return 0, false
	}
	if alloc > remaining {
		alloc = remaining
	}
	t.cumulative[sector] = used + alloc
	return alloc, true
}

// MinPositionFloor converts alloc to notional currency and rejects
// positions smaller than minPositionCurrency (spec §4.7.6).
func MinPositionFloor(alloc, portfolioCurrencyAmount, minPositionCurrency float64) (notional float64, ok bool) {
	notional = alloc * portfolioCurrencyAmount
	return notional, notional >= minPositionCurrency
}

// ApplySectorCaps admits each candidate's pre-cap PositionPct against
// a single SectorCapTracker, strictly in the order setups is given,
// then applies MinPositionFloor to whatever was admitted. Call this
// once, sequentially, after every instrument's postprocess.Run has
// returned — never from concurrent goroutines — so the outcome never
// depends on worker_count or goroutine completion order (spec §8
// "byte-identical output independent of worker_count"). Callers pass
// setups pre-sorted in a stable, run-independent order (e.g. universe
// declaration order).
func ApplySectorCaps(setups []model.Setup, capPct, portfolioCurrencyAmount, minPositionCurrency float64) ([]model.Setup, []model.Rejection) {
	tracker := NewSectorCapTracker(capPct)

	var admitted []model.Setup
	var rejections []model.Rejection
	for _, s := range setups {
		alloc, ok := tracker.Admit(s.Sector, s.PositionPct)
		if !ok || alloc <= 0 {
			rejections = append(rejections, model.Rejection{Ticker: s.Ticker, Stage: "sector_cap", Reason: "sector_cap_exhausted"})
			continue
		}
		notional, ok := MinPositionFloor(alloc, portfolioCurrencyAmount, minPositionCurrency)
		if !ok {
			rejections = append(rejections, model.Rejection{Ticker: s.Ticker, Stage: "sizing", Reason: "below_min_position"})
			continue
		}
		s.PositionPct = alloc
		s.PositionCurrency = notional
		admitted = append(admitted, s)
	}
	return admitted, rejections
}
