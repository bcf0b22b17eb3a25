// Package evaluator turns a Situation's per-horizon outcome
// statistics into a tiered, gated EvaluatedPattern: sample-size
// tiering, expected-value and risk/reward floors, a permutation
// significance test and a regime-stability split (spec §4.4).
package evaluator

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"position-signal-engine/config"
	"position-signal-engine/internal/errs"
	"position-signal-engine/internal/outcomes"
	"position-signal-engine/internal/patterns"
)

// Tier classifies a pattern's statistical trustworthiness by sample
// size and detector priority.
type Tier string

const (
	TierCore         Tier = "CORE"
	TierPrimary      Tier = "PRIMARY"
	TierSecondary    Tier = "SECONDARY"
	TierInsufficient Tier = "INSUFFICIENT"
)

// rrrSentinel is the risk/reward ratio reported when avg_loss == 0
// (spec §9 open question: treat as accept, but surface the sentinel
// so a human reviewing the report can see it was undefined).
const rrrSentinel = 999

// EvaluatedPattern is one Situation's tiered, gated evaluation on the
// evaluation horizon, carrying enough detail for the screener to pick
// a best pattern and for reports to explain a rejection.
type EvaluatedPattern struct {
	Situation         patterns.Situation
	Horizons          map[int]outcomes.OutcomeStatistics
	EvalHorizonStats  outcomes.OutcomeStatistics
	Robust            outcomes.RobustStatistics
	Tier              Tier
	ExpectedValue     float64
	RiskRewardRatio   float64
	PermutationPassed bool
	RegimeStable      bool
	Accepted          bool
	RejectionReason   string
}

// Evaluate computes per-horizon stats for a Situation, then applies
// tiering and the quality gates. A rejected pattern is still returned
// (Accepted=false, RejectionReason set) so rejections are never
// silently dropped (spec §4.8).
func Evaluate(close []float64, s patterns.Situation, cfg *config.Config, seed int64) (EvaluatedPattern, error) {
	if len(close) == 0 {
		return EvaluatedPattern{}, &errs.InternalInvariant{Where: "evaluator.Evaluate", Want: "non-empty close series", Got: "empty"}
	}

	horizonStats := make(map[int]outcomes.OutcomeStatistics, len(cfg.Horizons.Bars))
	var evalReturns []float64
	var evalStats outcomes.OutcomeStatistics

	for _, h := range cfg.Horizons.Bars {
		r := outcomes.ForwardReturns(close, s, h)
		stats := outcomes.Compute(r)
		horizonStats[h] = stats
		if h == cfg.Horizons.EvaluationHorizon {
			evalReturns = r
			evalStats = stats
		}
	}

	robust := outcomes.ComputeRobust(evalReturns, evalStats)

	ep := EvaluatedPattern{
		Situation:        s,
		Horizons:         horizonStats,
		EvalHorizonStats: evalStats,
		Robust:           robust,
	}

	tier := tierFor(evalStats.N, s.Metadata.Priority, cfg.SampleSizeTiers)
	ep.Tier = tier
	if tier == TierInsufficient {
		ep.RejectionReason = "insufficient_sample"
		return ep, nil
	}

	ep.ExpectedValue = evalStats.WinRate*evalStats.AvgWin - (1-evalStats.WinRate)*absf(evalStats.AvgLoss)
	if ep.ExpectedValue <= cfg.QualityGates.EVFloor {
		ep.RejectionReason = "ev_below_floor"
		return ep, nil
	}

	ep.RiskRewardRatio = riskRewardRatio(evalStats.AvgWin, evalStats.AvgLoss)
	if ep.RiskRewardRatio < cfg.QualityGates.RRRFloor {
		ep.RejectionReason = "rrr_below_floor"
		return ep, nil
	}

	// A degenerate (empty) return sample is a recoverable EvaluationError
	// (spec §7): the pattern is simply treated as not significant, the
	// run continues.
	passed := permutationTest(evalReturns, seedFor(seed, s.ID), cfg.QualityGates.PermutationTrials, cfg.QualityGates.PermutationPct)
	ep.PermutationPassed = passed
	if !passed {
		ep.RejectionReason = "permutation_failed"
		return ep, nil
	}

	ep.RegimeStable = regimeStable(evalReturns, cfg.QualityGates.RegimeStabilityFactor)
	if !ep.RegimeStable {
		ep.RejectionReason = "regime_unstable"
		return ep, nil
	}

	ep.Accepted = true
	return ep, nil
}

func tierFor(n int, priority patterns.Priority, tiers config.SampleSizeTiersConfig) Tier {
	if priority == patterns.Primary {
		if n >= tiers.Core {
			return TierCore
		}
		if n >= tiers.Primary {
			return TierPrimary
		}
	}
	if n >= tiers.Secondary {
		return TierSecondary
	}
	return TierInsufficient
}

func riskRewardRatio(avgWin, avgLoss float64) float64 {
	if avgLoss == 0 {
		return rrrSentinel
	}
	return avgWin / absf(avgLoss)
}

// permutationTest shuffles the sign of each return 1,000 times (by
// default) and requires the observed mean to exceed the percentile
// threshold of the shuffled-mean distribution. An empty sample is a
// degenerate EvaluationError (spec §7): treated as "not significant"
// rather than propagated.
func permutationTest(returns []float64, seed int64, trials int, percentile float64) bool {
	n := len(returns)
	if n == 0 {
		return false
	}
	observed := meanOf(returns)

	rng := rand.New(rand.NewSource(seed))
	shuffled := make([]float64, trials)
	buf := make([]float64, n)
	for t := 0; t < trials; t++ {
		for i, r := range returns {
			if rng.Intn(2) == 0 {
				buf[i] = -r
			} else {
				buf[i] = r
			}
		}
		shuffled[t] = meanOf(buf)
	}
	sort.Float64s(shuffled)

	idx := int(percentile * float64(trials))
	if idx >= trials {
		idx = trials - 1
	}
	threshold := shuffled[idx]
	return observed > threshold
}

// regimeStable splits the sample into two halves (chronological
// order preserved, as fire indices are already ordered) and requires
// the worse half's win rate to retain at least `factor` of the whole
// sample's win rate.
func regimeStable(returns []float64, factor float64) bool {
	n := len(returns)
	if n < 2 {
		return true
	}
	mid := n / 2
	first := winRateOf(returns[:mid])
	second := winRateOf(returns[mid:])
	overall := winRateOf(returns)

	worse := first
	if second < worse {
		worse = second
	}
	return worse >= factor*overall
}

func winRateOf(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(returns))
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// seedFor derives a per-pattern seed from the seed passed to Evaluate
// (the per-instrument seed, hash(master_seed, ticker), derived by the
// pipeline) and the pattern key, so parallel workers stay deterministic
// regardless of scheduling order (spec §9 "Randomness").
func seedFor(masterSeed int64, key string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", masterSeed, key)
	return int64(h.Sum64())
}
