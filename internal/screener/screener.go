// Package screener runs the per-instrument pipeline: context gate,
// detection, evaluation, best-pattern selection and composite scoring
// (spec §4.6). A single-instrument evaluation call the orchestrator
// fans out over, rather than a scheduled scan across a ticker list.
package screener

import (
	"position-signal-engine/config"
	appcontext "position-signal-engine/internal/context"
	"position-signal-engine/internal/evaluator"
	"position-signal-engine/internal/marketdata"
	"position-signal-engine/internal/patterns"
)

var tierRank = map[evaluator.Tier]int{
	evaluator.TierCore:         3,
	evaluator.TierPrimary:      2,
	evaluator.TierSecondary:    1,
	evaluator.TierInsufficient: 0,
}

var tierBonus = map[evaluator.Tier]float64{
	evaluator.TierCore:      10,
	evaluator.TierPrimary:   7,
	evaluator.TierSecondary: 3,
}

// Result is one instrument's screening outcome: either a Score for
// the best surviving pattern, or a rejection reason when nothing
// survived the context gate or pattern evaluation.
type Result struct {
	Ticker          string
	ContextValid    bool
	DeclineFromHigh float64
	Best            *evaluator.EvaluatedPattern
	Score           float64
	RawAllocation   float64
	Rejected        bool
	RejectionReason string
	AllEvaluated    []evaluator.EvaluatedPattern
}

// Screen runs the full per-instrument pipeline against one
// instrument's MarketData: context gate, detection, evaluation,
// best-pattern selection, composite score and raw allocation.
func Screen(ticker string, md *marketdata.MarketData, registry *patterns.Registry, cfg *config.Config, seed int64) Result {
	ctxResult := appcontext.Evaluate(md, cfg.ContextConfig.LookbackBars, cfg.ContextConfig.MinDeclinePct)
	if !ctxResult.Valid {
		return Result{
			Ticker:          ticker,
			ContextValid:    false,
			DeclineFromHigh: ctxResult.DeclineFromHigh,
			Rejected:        true,
			RejectionReason: "context",
		}
	}

	situations := registry.DetectAll(md)
	close := md.History.Close()

	evaluated := make([]evaluator.EvaluatedPattern, 0, len(situations))
	for _, s := range situations {
		ep, err := evaluator.Evaluate(close, s, cfg, seed)
		if err != nil {
			continue
		}
		evaluated = append(evaluated, ep)
	}

	best := bestPattern(evaluated)
	if best == nil {
		return Result{
			Ticker:          ticker,
			ContextValid:    true,
			DeclineFromHigh: ctxResult.DeclineFromHigh,
			Rejected:        true,
			RejectionReason: "no_qualifying_pattern",
			AllEvaluated:    evaluated,
		}
	}

	score := compositeScore(*best, ctxResult.Valid)
	rawAlloc := rawAllocation(best.EvalHorizonStats.WinRate)

	return Result{
		Ticker:          ticker,
		ContextValid:    true,
		DeclineFromHigh: ctxResult.DeclineFromHigh,
		Best:            best,
		Score:           score,
		RawAllocation:   rawAlloc,
		AllEvaluated:    evaluated,
	}
}

// bestPattern prefers the highest tier with at least one accepted
// member; within a tier, the highest expected_value wins. Only
// PRIMARY patterns are eligible: SECONDARY patterns stay in
// Result.AllEvaluated but never drive a final buy and do not change
// the score.
func bestPattern(evaluated []evaluator.EvaluatedPattern) *evaluator.EvaluatedPattern {
	var best *evaluator.EvaluatedPattern
	for i := range evaluated {
		ep := &evaluated[i]
		if !ep.Accepted {
			continue
		}
		if ep.Situation.Metadata.Priority != patterns.Primary {
			continue
		}
		if best == nil {
			best = ep
			continue
		}
		if tierRank[ep.Tier] > tierRank[best.Tier] {
			best = ep
			continue
		}
		if tierRank[ep.Tier] == tierRank[best.Tier] && ep.ExpectedValue > best.ExpectedValue {
			best = ep
		}
	}
	return best
}

// compositeScore implements spec §4.6's base + bonuses, then the
// volume-not-confirmed x0.9 penalty, clamped to [0,100]. No
// earnings-risk penalty is applied.
func compositeScore(ep evaluator.EvaluatedPattern, contextValid bool) float64 {
	base := 0.50 * ep.Robust.RobustScore
	if contextValid {
		base += 30
	}
	base += tierBonus[ep.Tier]
	if ep.Situation.Metadata.VolumeConfirmed {
		base += 3
	}

	score := base
	if !ep.Situation.Metadata.VolumeConfirmed {
		score *= 0.9
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// rawAllocation implements spec §4.6's allocation formula, clamped to
// [0.001, 0.05].
func rawAllocation(winRate float64) float64 {
	excess := winRate - 0.60
	if excess < 0 {
		excess = 0
	}
	alloc := 0.015 + excess*0.0375
	if alloc < 0.001 {
		alloc = 0.001
	}
	if alloc > 0.05 {
		alloc = 0.05
	}
	return alloc
}
