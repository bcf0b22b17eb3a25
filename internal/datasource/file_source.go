package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"position-signal-engine/internal/marketdata"
)

// FileSource reads one CSV fixture per ticker from a directory,
// columns `date,open,high,low,close,volume`. Used for local runs and
// tests where no live upstream is configured.
type FileSource struct {
	Dir string
}

func (f *FileSource) Fetch(_ context.Context, ticker string, asOf time.Time, lookbackYears int) (*marketdata.PriceHistory, error) {
	path := filepath.Join(f.Dir, ticker+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	cutoff := asOf.AddDate(-lookbackYears, 0, 0)
	var bars []marketdata.Bar
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "date" {
			continue // header
		}
		if len(row) < 6 {
			return nil, fmt.Errorf("%s: row %d has %d columns, want 6", path, i, len(row))
		}
		t, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		if t.Before(cutoff) || t.After(asOf) {
			continue
		}
		o, _ := strconv.ParseFloat(row[1], 64)
		h, _ := strconv.ParseFloat(row[2], 64)
		l, _ := strconv.ParseFloat(row[3], 64)
		c, _ := strconv.ParseFloat(row[4], 64)
		v, _ := strconv.ParseFloat(row[5], 64)
		bars = append(bars, marketdata.Bar{Time: t, Open: o, High: h, Low: l, Close: c, Volume: v})
	}

	return marketdata.NewPriceHistory(ticker, bars)
}
