// Package ranker produces the final deterministic, ranked Setup list
// (spec §4.8). Ranking is a pure sort over already-computed Setups —
// no new statistics are derived here.
package ranker

import (
	"sort"

	"position-signal-engine/internal/model"
)

var tierRank = map[string]int{
	"CORE":      3,
	"PRIMARY":   2,
	"SECONDARY": 1,
}

// Rank stable-sorts setups by (tier desc, robust/expected_value desc,
// ticker asc) and returns the top N. The ticker tiebreaker guarantees
// the result is reproducible regardless of worker_count or input
// order (spec §5 "Ordering guarantees").
func Rank(setups []model.Setup, topN int) []model.Setup {
	ranked := make([]model.Setup, len(setups))
	copy(ranked, setups)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if tierRank[a.Tier] != tierRank[b.Tier] {
			return tierRank[a.Tier] > tierRank[b.Tier]
		}
		if a.RobustScore != b.RobustScore {
			return a.RobustScore > b.RobustScore
		}
		if a.ExpectedValue != b.ExpectedValue {
			return a.ExpectedValue > b.ExpectedValue
		}
		return a.Ticker < b.Ticker
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
