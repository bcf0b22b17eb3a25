package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"position-signal-engine/internal/model"
)

// IndicatorCache and RedisFront both require a live Postgres/Redis
// connection to exercise end to end, so they are not unit tested
// here. redisKey is pure string formatting and is covered below;
// the SQL in indicator_cache.go is reviewed by hand instead.

func TestRedisKeyFormat(t *testing.T) {
	key := IndicatorKey{
		Ticker:    "AAA",
		AsOf:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Indicator: "atr",
		Window:    14,
	}
	got := redisKey(key)
	want := "AAA:2024-03-15:atr:14"
	if got != want {
		t.Errorf("redisKey() = %q, want %q", got, want)
	}
}

func TestRedisKeyDistinguishesWindow(t *testing.T) {
	base := IndicatorKey{Ticker: "AAA", AsOf: time.Now(), Indicator: "ema"}
	k1 := base
	k1.Window = 50
	k2 := base
	k2.Window = 200
	if redisKey(k1) == redisKey(k2) {
		t.Error("redisKey should differ across windows")
	}
}

func TestNewRunSnapshotStampsFields(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	setups := []model.Setup{{Ticker: "AAA", Tier: "CORE"}}
	rejections := []model.Rejection{{Ticker: "BBB", Stage: "context", Reason: "no_qualifying_decline"}}

	snap := NewRunSnapshot(ts, "cfgdigest", "unidigest", false, setups, rejections)

	if snap.RunID == "" {
		t.Error("RunID should be populated")
	}
	if !snap.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", snap.Timestamp, ts)
	}
	if snap.ConfigDigest != "cfgdigest" || snap.UniverseDigest != "unidigest" {
		t.Error("digests not carried through")
	}
	if snap.Partial {
		t.Error("Partial should be false")
	}
	if len(snap.Setups) != 1 || len(snap.Rejections) != 1 {
		t.Error("setups/rejections not carried through")
	}
}

func TestNewRunSnapshotUniqueRunIDs(t *testing.T) {
	ts := time.Now().UTC()
	a := NewRunSnapshot(ts, "c", "u", false, nil, nil)
	b := NewRunSnapshot(ts, "c", "u", false, nil, nil)
	if a.RunID == b.RunID {
		t.Error("two snapshots should not share a run id")
	}
}

func TestWriteSnapshotRoundTrips(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	snap := NewRunSnapshot(ts, "cfgdigest", "unidigest", false,
		[]model.Setup{{Ticker: "AAA", Tier: "CORE", Score: 82.5}},
		[]model.Rejection{{Ticker: "BBB", Stage: "evaluator", Reason: "insufficient_sample"}})

	path, err := WriteSnapshot(dir, snap)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got RunSnapshot
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.RunID != snap.RunID || got.ConfigDigest != snap.ConfigDigest {
		t.Error("round-tripped snapshot does not match original")
	}
	if len(got.Setups) != 1 || got.Setups[0].Ticker != "AAA" {
		t.Error("setups did not round-trip")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not survive a successful write")
	}
}

func TestWriteSnapshotTwiceProducesTwoFiles(t *testing.T) {
	dir := t.TempDir()
	first := NewRunSnapshot(time.Now().UTC(), "c", "u", false, nil, nil)
	second := NewRunSnapshot(time.Now().UTC(), "c", "u", false, nil, nil)

	p1, err := WriteSnapshot(dir, first)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	p2, err := WriteSnapshot(dir, second)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if p1 == p2 {
		t.Error("distinct run ids should produce distinct files")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestListSnapshotsOrdersNewestFirst(t *testing.T) {
	dir := t.TempDir()
	older := NewRunSnapshot(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "c", "u", false, nil, nil)
	newer := NewRunSnapshot(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "c", "u", false, nil, nil)
	if _, err := WriteSnapshot(dir, older); err != nil {
		t.Fatalf("WriteSnapshot(older): %v", err)
	}
	if _, err := WriteSnapshot(dir, newer); err != nil {
		t.Fatalf("WriteSnapshot(newer): %v", err)
	}

	snapshots, err := ListSnapshots(dir)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("len(snapshots) = %d, want 2", len(snapshots))
	}
	if snapshots[0].RunID != newer.RunID {
		t.Errorf("snapshots[0] = %s, want newest run %s", snapshots[0].RunID, newer.RunID)
	}
}

func TestListSnapshotsMissingDirReturnsEmpty(t *testing.T) {
	snapshots, err := ListSnapshots(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snapshots) != 0 {
		t.Errorf("expected no snapshots for a missing directory, got %d", len(snapshots))
	}
}

func TestLoadSnapshotRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snap := NewRunSnapshot(time.Now().UTC(), "c", "u", false, []model.Setup{{Ticker: "AAA"}}, nil)
	path, err := WriteSnapshot(dir, snap)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.RunID != snap.RunID || len(got.Setups) != 1 {
		t.Errorf("LoadSnapshot round-trip mismatch: %+v", got)
	}
}

func TestWriteSnapshotCreatesMissingDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "nested", "runlog")
	snap := NewRunSnapshot(time.Now().UTC(), "c", "u", true, nil, nil)

	path, err := WriteSnapshot(dir, snap)
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file missing at %s: %v", path, err)
	}
}
