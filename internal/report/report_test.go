package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"position-signal-engine/internal/model"
)

func sampleSetups() []model.Setup {
	return []model.Setup{
		{Ticker: "AAA", Tier: "CORE", Score: 91.2, RobustScore: 88.0, WinRate: 0.62, ExpectedValue: 0.018, RiskReward: 3.4, PositionPct: 0.025, Notes: []string{"volume_not_confirmed"}},
		{Ticker: "BBB", Tier: "PRIMARY", Score: 70.5, RobustScore: 65.0, WinRate: 0.55, ExpectedValue: 0.011, RiskReward: 999, PositionPct: 0.015, Notes: []string{"risk_reward_sentinel_999"}},
	}
}

func sampleRejections() []model.Rejection {
	return []model.Rejection{
		{Ticker: "CCC", Stage: "evaluator", Reason: "insufficient_sample"},
		{Ticker: "DDD", Stage: "context", Reason: "no_qualifying_decline"},
	}
}

func TestWriteTextContainsRankedTickers(t *testing.T) {
	var buf bytes.Buffer
	summary := Summary{Analysed: 10, Evaluated: 6, RejectedByStage: map[string]int{"evaluator": 1, "context": 1}}
	if err := WriteText(&buf, sampleSetups(), summary); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "AAA") || !strings.Contains(out, "BBB") {
		t.Errorf("output missing expected tickers: %s", out)
	}
	if !strings.Contains(out, "analysed=10 evaluated=6 surviving=2") {
		t.Errorf("output missing summary line: %s", out)
	}
	if !strings.Contains(out, "volume_not_confirmed") {
		t.Errorf("output missing note: %s", out)
	}
}

func TestWriteTextHandlesEmptySetups(t *testing.T) {
	var buf bytes.Buffer
	summary := Summary{Analysed: 3, Evaluated: 0, RejectedByStage: map[string]int{"context": 3}}
	if err := WriteText(&buf, nil, summary); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "surviving=0") {
		t.Errorf("expected surviving=0 in output: %s", buf.String())
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	summary := Summary{Analysed: 10, Evaluated: 6, RejectedByStage: map[string]int{"evaluator": 1}}
	if err := WriteJSON(&buf, sampleSetups(), sampleRejections(), summary); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got jsonPayload
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Setups) != 2 || len(got.Rejections) != 2 {
		t.Fatalf("got %d setups, %d rejections, want 2/2", len(got.Setups), len(got.Rejections))
	}
	if got.Analysed != 10 || got.Evaluated != 6 {
		t.Errorf("summary counts not carried through: %+v", got)
	}
}

func TestLogWarningsEmitsOnePerNote(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	LogWarnings(logger, sampleSetups())
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("got %d log lines, want 2 (one per note across both setups)", lines)
	}
	if !strings.Contains(buf.String(), "risk_reward_sentinel_999") {
		t.Errorf("missing sentinel note in log output: %s", buf.String())
	}
}

func TestLogRejectionsEmitsOnePerRejection(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	LogRejections(logger, sampleRejections())
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("got %d log lines, want 2", lines)
	}
	if !strings.Contains(buf.String(), "insufficient_sample") {
		t.Errorf("missing reason in log output: %s", buf.String())
	}
}
