package evaluator

import (
	"testing"

	"position-signal-engine/config"
	"position-signal-engine/internal/patterns"
)

func testConfig() *config.Config {
	return &config.Config{
		Horizons: config.HorizonsConfig{Bars: []int{21, 42, 63}, EvaluationHorizon: 63},
		SampleSizeTiers: config.SampleSizeTiersConfig{
			Core: 150, Primary: 75, Secondary: 30,
		},
		QualityGates: config.QualityGatesConfig{
			EVFloor:               0,
			RRRFloor:              3.0,
			PermutationTrials:     200,
			PermutationPct:        0.95,
			RegimeStabilityFactor: 0.5,
		},
	}
}

func syntheticCloseSeries(fires int, winFraction float64, bars int) ([]float64, patterns.Situation) {
	close := make([]float64, bars+64)
	price := 100.0
	for i := range close {
		close[i] = price
		price *= 1.0002
	}
	indices := make([]int, 0, fires)
	step := bars / fires
	for i := 0; i < fires; i++ {
		idx := i * step
		if idx+63 >= len(close) {
			break
		}
		indices = append(indices, idx)
		win := float64(i)/float64(fires) < winFraction
		if win {
			close[idx+63] = close[idx] * 1.08
		} else {
			close[idx+63] = close[idx] * 0.97
		}
	}
	return close, patterns.Situation{
		ID:      "synthetic",
		Indices: indices,
		Metadata: patterns.Metadata{
			Priority: patterns.Primary,
		},
	}
}

func TestEvaluateInsufficientSampleRejected(t *testing.T) {
	close, s := syntheticCloseSeries(5, 0.8, 400)
	cfg := testConfig()
	ep, err := Evaluate(close, s, cfg, 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ep.Tier != TierInsufficient {
		t.Errorf("Tier = %v, want INSUFFICIENT", ep.Tier)
	}
	if ep.Accepted {
		t.Error("expected Accepted=false for insufficient sample")
	}
	if ep.RejectionReason != "insufficient_sample" {
		t.Errorf("RejectionReason = %q, want insufficient_sample", ep.RejectionReason)
	}
}

func TestEvaluateTierBoundaries(t *testing.T) {
	tiers := config.SampleSizeTiersConfig{Core: 150, Primary: 75, Secondary: 30}
	cases := []struct {
		n        int
		priority patterns.Priority
		want     Tier
	}{
		{200, patterns.Primary, TierCore},
		{100, patterns.Primary, TierPrimary},
		{50, patterns.Primary, TierSecondary},
		{10, patterns.Primary, TierInsufficient},
		{50, patterns.Secondary, TierSecondary},
		{200, patterns.Secondary, TierSecondary},
	}
	for _, c := range cases {
		got := tierFor(c.n, c.priority, tiers)
		if got != c.want {
			t.Errorf("tierFor(%d,%v) = %v, want %v", c.n, c.priority, got, c.want)
		}
	}
}

func TestRiskRewardRatioSentinel(t *testing.T) {
	got := riskRewardRatio(0.05, 0)
	if got != rrrSentinel {
		t.Errorf("riskRewardRatio with zero avg_loss = %v, want sentinel %v", got, rrrSentinel)
	}
}

func TestRiskRewardRatioNormal(t *testing.T) {
	got := riskRewardRatio(0.09, -0.03)
	if !almostEqual(got, 3.0, 1e-9) {
		t.Errorf("riskRewardRatio = %v, want 3.0", got)
	}
}

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestRegimeStableSplitHalf(t *testing.T) {
	returns := []float64{0.1, 0.1, 0.1, 0.1, -0.1, -0.1, -0.1, -0.1}
	if regimeStable(returns, 0.5) {
		t.Error("expected unstable: second half all losses vs first half all wins")
	}

	balanced := []float64{0.1, -0.1, 0.1, -0.1, 0.1, -0.1, 0.1, -0.1}
	if !regimeStable(balanced, 0.5) {
		t.Error("expected stable: even split across halves")
	}
}

func TestSeedForIsDeterministic(t *testing.T) {
	a := seedFor(42, "AAPL")
	b := seedFor(42, "AAPL")
	c := seedFor(42, "MSFT")
	if a != b {
		t.Error("seedFor should be deterministic for the same inputs")
	}
	if a == c {
		t.Error("seedFor should differ across tickers")
	}
}

func TestEvaluateRejectsEmptyCloseSeries(t *testing.T) {
	cfg := testConfig()
	_, err := Evaluate(nil, patterns.Situation{}, cfg, 1)
	if err == nil {
		t.Error("expected an error for an empty close series")
	}
}
