package context

import (
	"testing"
	"time"

	"position-signal-engine/internal/marketdata"
)

func buildMD(t *testing.T, closes []float64) *marketdata.MarketData {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, len(closes))
	for i, c := range closes {
		bars[i] = marketdata.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	h, err := marketdata.NewPriceHistory("TEST", bars)
	if err != nil {
		t.Fatalf("NewPriceHistory: %v", err)
	}
	return marketdata.New(h)
}

func TestContextValidOnQualifyingDecline(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	closes[50] = 150 // 90-bar high inside the lookback
	closes[99] = 120 // decline of (120-150)/150 = -0.20

	md := buildMD(t, closes)
	r := Evaluate(md, 90, 0.10)
	if !r.Valid {
		t.Errorf("expected context valid, decline=%v", r.DeclineFromHigh)
	}
}

func TestContextInvalidNearHigh(t *testing.T) {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100
	}
	closes[99] = 102 // new high, decline is positive

	md := buildMD(t, closes)
	r := Evaluate(md, 90, 0.10)
	if r.Valid {
		t.Errorf("expected context invalid near a new high, decline=%v", r.DeclineFromHigh)
	}
}

func TestContextEmptyHistory(t *testing.T) {
	md := buildMD(t, nil)
	r := Evaluate(md, 90, 0.10)
	if r.Valid {
		t.Error("expected invalid result for empty history")
	}
}
