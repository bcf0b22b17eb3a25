package ranker

import (
	"testing"

	"position-signal-engine/internal/model"
)

func TestRankOrdersByTierThenRobustScoreThenEVThenTicker(t *testing.T) {
	setups := []model.Setup{
		{Ticker: "ZZZ", Tier: "SECONDARY", RobustScore: 90, ExpectedValue: 0.1},
		{Ticker: "AAA", Tier: "CORE", RobustScore: 50, ExpectedValue: 0.2},
		{Ticker: "BBB", Tier: "CORE", RobustScore: 50, ExpectedValue: 0.3},
		{Ticker: "CCC", Tier: "CORE", RobustScore: 80, ExpectedValue: 0.1},
	}
	ranked := Rank(setups, 10)

	want := []string{"CCC", "BBB", "AAA", "ZZZ"}
	if len(ranked) != len(want) {
		t.Fatalf("len(ranked) = %d, want %d", len(ranked), len(want))
	}
	for i, ticker := range want {
		if ranked[i].Ticker != ticker {
			t.Errorf("ranked[%d].Ticker = %s, want %s", i, ranked[i].Ticker, ticker)
		}
	}
}

func TestRankTruncatesToTopN(t *testing.T) {
	setups := make([]model.Setup, 10)
	for i := range setups {
		setups[i] = model.Setup{Ticker: string(rune('A' + i)), Tier: "CORE", RobustScore: float64(i)}
	}
	ranked := Rank(setups, 5)
	if len(ranked) != 5 {
		t.Fatalf("len(ranked) = %d, want 5", len(ranked))
	}
}

func TestRankIsDeterministicRegardlessOfInputOrder(t *testing.T) {
	a := []model.Setup{
		{Ticker: "AAA", Tier: "CORE", RobustScore: 50},
		{Ticker: "BBB", Tier: "CORE", RobustScore: 50},
	}
	b := []model.Setup{
		{Ticker: "BBB", Tier: "CORE", RobustScore: 50},
		{Ticker: "AAA", Tier: "CORE", RobustScore: 50},
	}
	ra := Rank(a, 10)
	rb := Rank(b, 10)
	for i := range ra {
		if ra[i].Ticker != rb[i].Ticker {
			t.Errorf("index %d: %s vs %s, expected identical ordering via ticker tiebreak", i, ra[i].Ticker, rb[i].Ticker)
		}
	}
}

func TestRankDoesNotMutateInputSlice(t *testing.T) {
	setups := []model.Setup{
		{Ticker: "ZZZ", Tier: "SECONDARY"},
		{Ticker: "AAA", Tier: "CORE"},
	}
	_ = Rank(setups, 10)
	if setups[0].Ticker != "ZZZ" {
		t.Error("Rank must not mutate its input slice")
	}
}
