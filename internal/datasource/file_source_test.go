package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileSourceFetchParsesCSV(t *testing.T) {
	dir := t.TempDir()
	contents := "date,open,high,low,close,volume\n" +
		"2024-01-01,100,101,99,100.5,1000\n" +
		"2024-01-02,100.5,102,100,101.5,1100\n"
	if err := os.WriteFile(filepath.Join(dir, "AAA.csv"), []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src := &FileSource{Dir: dir}
	asOf := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	hist, err := src.Fetch(context.Background(), "AAA", asOf, 5)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if hist.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", hist.Len())
	}
	if hist.Bars[1].Close != 101.5 {
		t.Errorf("Bars[1].Close = %v, want 101.5", hist.Bars[1].Close)
	}
}

func TestFileSourceFetchMissingFile(t *testing.T) {
	src := &FileSource{Dir: t.TempDir()}
	_, err := src.Fetch(context.Background(), "NOPE", time.Now(), 5)
	if err == nil {
		t.Error("expected error for missing fixture file")
	}
}

func TestFileSourceFetchExcludesOutsideLookback(t *testing.T) {
	dir := t.TempDir()
	contents := "date,open,high,low,close,volume\n" +
		"2010-01-01,100,101,99,100,1000\n" +
		"2024-01-02,100,102,100,101,1100\n"
	if err := os.WriteFile(filepath.Join(dir, "AAA.csv"), []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	src := &FileSource{Dir: dir}
	asOf := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	hist, err := src.Fetch(context.Background(), "AAA", asOf, 5)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if hist.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (2010 bar excluded by 5y lookback)", hist.Len())
	}
}
