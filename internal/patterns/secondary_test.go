package patterns

import "testing"

func TestFairValueGapDetectorFindsUnfilledGap(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	// bar 19 gaps up hard from bar 17's high, and nothing after
	// trades back down into the gap.
	closes[19] = 130
	for i := 20; i < len(closes); i++ {
		closes[i] = 130 + float64(i-19)
	}

	md := buildHistory(t, closes)
	d := &FairValueGapDetector{}
	s, err := d.Detect(md)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if s == nil {
		t.Fatal("expected a fair value gap situation")
	}
	found := false
	for _, idx := range s.Indices {
		if idx == 19 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fire at index 19, got %v", s.Indices)
	}
}

// TestFairValueGapDetectorFiresRegardlessOfLaterFill guards against
// reintroducing a forward scan: a bar well after the gap trading back
// into it must not change whether bar 19 fired, since detectors never
// access bars after the one they fire on.
func TestFairValueGapDetectorFiresRegardlessOfLaterFill(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 130
	for i := 20; i < len(closes); i++ {
		closes[i] = 130 + float64(i-19)
	}
	// a later bar trades back down through the gap; this must have no
	// bearing on the fire at 19.
	closes[30] = 100

	md := buildHistory(t, closes)
	d := &FairValueGapDetector{}
	s, err := d.Detect(md)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if s == nil {
		t.Fatal("expected a fair value gap situation despite the later fill")
	}
	found := false
	for _, idx := range s.Indices {
		if idx == 19 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fire at index 19 regardless of bar 30's later fill, got %v", s.Indices)
	}
}

// TestFairValueGapDetectorPrefixStable checks that truncating history
// right after the fire index never changes whether it fired: a
// detector that consults bars beyond its fire index to decide whether
// to report it would fail this as soon as the truncation removes the
// bar that used to "fill" the gap.
func TestFairValueGapDetectorPrefixStable(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 130
	for i := 20; i < len(closes); i++ {
		closes[i] = 130 + float64(i-19)
	}

	d := &FairValueGapDetector{}
	full, err := d.Detect(buildHistory(t, closes))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	prefix, err := d.Detect(buildHistory(t, closes[:22]))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if full == nil || prefix == nil {
		t.Fatal("expected a fair value gap situation in both the full and truncated runs")
	}

	fullFires := map[int]bool{}
	for _, idx := range full.Indices {
		fullFires[idx] = true
	}
	prefixFires := map[int]bool{}
	for _, idx := range prefix.Indices {
		prefixFires[idx] = true
	}
	if fullFires[19] != prefixFires[19] {
		t.Errorf("fire at 19 differs between full (%v) and truncated (%v) runs", fullFires[19], prefixFires[19])
	}
}

func TestFairValueGapDetectorShortHistory(t *testing.T) {
	md := buildHistory(t, []float64{100, 101})
	d := &FairValueGapDetector{}
	s, err := d.Detect(md)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if s != nil {
		t.Error("expected nil situation for history shorter than 3 bars")
	}
}
