package outcomes

import (
	"testing"

	"position-signal-engine/internal/patterns"
)

func TestForwardReturnsExcludesOverrunningFires(t *testing.T) {
	close := []float64{100, 101, 102, 103, 104, 105}
	s := patterns.Situation{Indices: []int{0, 2, 4}}
	r := ForwardReturns(close, s, 2)
	// index 4 + horizon 2 = 6 > last index 5, excluded.
	if len(r) != 2 {
		t.Fatalf("len(r) = %d, want 2", len(r))
	}
	want0 := 102.0/100.0 - 1
	if !almostEqual(r[0], want0, 1e-9) {
		t.Errorf("r[0] = %v, want %v", r[0], want0)
	}
}

func TestForwardReturnsEmptyWhenNoFiresFit(t *testing.T) {
	close := []float64{100, 101}
	s := patterns.Situation{Indices: []int{1}}
	r := ForwardReturns(close, s, 5)
	if len(r) != 0 {
		t.Errorf("len(r) = %d, want 0", len(r))
	}
}
