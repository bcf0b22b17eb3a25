package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"position-signal-engine/internal/model"
)

// RunSnapshot is one run's full materialized output: every surviving
// Setup plus every Rejection, fingerprinted by config and universe
// digest so two runs over identical inputs can be diffed (spec §6,
// §8 "Round-trip").
type RunSnapshot struct {
	RunID          string            `json:"run_id"`
	Timestamp      time.Time         `json:"timestamp"`
	ConfigDigest   string            `json:"config_digest"`
	UniverseDigest string            `json:"universe_digest"`
	Partial        bool              `json:"partial"`
	Setups         []model.Setup     `json:"setups"`
	Rejections     []model.Rejection `json:"rejections"`
}

// NewRunSnapshot stamps a new run with a fresh uuid and the supplied
// timestamp (callers pass time.Now() so this package stays free of
// hidden clock reads).
func NewRunSnapshot(timestamp time.Time, configDigest, universeDigest string, partial bool, setups []model.Setup, rejections []model.Rejection) RunSnapshot {
	return RunSnapshot{
		RunID:          uuid.NewString(),
		Timestamp:      timestamp,
		ConfigDigest:   configDigest,
		UniverseDigest: universeDigest,
		Partial:        partial,
		Setups:         setups,
		Rejections:     rejections,
	}
}

// WriteSnapshot marshals snapshot to dir/<run_id>.json, writing via a
// temp file plus atomic rename so a crash mid-write never leaves a
// truncated snapshot behind (spec §6 "corruption-safe via atomic
// rename").
func WriteSnapshot(dir string, snapshot RunSnapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	final := filepath.Join(dir, snapshot.RunID+".json")
	tmp := final + ".tmp"

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("atomic rename of run snapshot: %w", err)
	}
	return final, nil
}

// LoadSnapshot reads and decodes one run snapshot file.
func LoadSnapshot(path string) (RunSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunSnapshot{}, err
	}
	var snap RunSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return RunSnapshot{}, fmt.Errorf("decoding run snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ListSnapshots returns every *.json snapshot under dir, newest first.
// Used by the read-only query surface to list and fetch past runs
// without holding them all in memory.
func ListSnapshots(dir string) ([]RunSnapshot, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshots []RunSnapshot
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		snap, err := LoadSnapshot(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}
