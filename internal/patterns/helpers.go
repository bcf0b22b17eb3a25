package patterns

import "position-signal-engine/internal/marketdata"

// localMinimaIndices returns indices in [start,end) where low[i] is the
// smallest value within +/-radius bars on each side, never reaching
// outside [start,end) (no look-ahead past the window under scan).
func localMinimaIndices(low []float64, start, end, radius int) []int {
	var out []int
	for i := start; i < end; i++ {
		isMin := true
		lo := i - radius
		if lo < start {
			lo = start
		}
		hi := i + radius
		if hi >= end {
			hi = end - 1
		}
		for j := lo; j <= hi; j++ {
			if j != i && low[j] < low[i] {
				isMin = false
				break
			}
		}
		if isMin {
			out = append(out, i)
		}
	}
	return out
}

// localMaximaIndices mirrors localMinimaIndices for highs.
func localMaximaIndices(high []float64, start, end, radius int) []int {
	var out []int
	for i := start; i < end; i++ {
		isMax := true
		lo := i - radius
		if lo < start {
			lo = start
		}
		hi := i + radius
		if hi >= end {
			hi = end - 1
		}
		for j := lo; j <= hi; j++ {
			if j != i && high[j] > high[i] {
				isMax = false
				break
			}
		}
		if isMax {
			out = append(out, i)
		}
	}
	return out
}

// maxOf returns the maximum value in v[start:end) (end exclusive,
// clamped to len(v)).
func maxOf(v []float64, start, end int) float64 {
	if end > len(v) {
		end = len(v)
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return 0
	}
	m := v[start]
	for i := start + 1; i < end; i++ {
		if v[i] > m {
			m = v[i]
		}
	}
	return m
}

func minOf(v []float64, start, end int) float64 {
	if end > len(v) {
		end = len(v)
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return 0
	}
	m := v[start]
	for i := start + 1; i < end; i++ {
		if v[i] < m {
			m = v[i]
		}
	}
	return m
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// dedupAppendIndex appends i to indices unless it is already present,
// keeping insertion order; the slice need not be sorted.
func dedupAppendIndex(indices []int, i int) []int {
	for _, existing := range indices {
		if existing == i {
			return indices
		}
	}
	return append(indices, i)
}

func newMetadata(priority Priority, signal SignalType, volumeConfirmed bool) Metadata {
	return Metadata{Priority: priority, SignalType: signal, VolumeConfirmed: volumeConfirmed}
}

// volumeConfirmedAt checks the most recent confirming bar's volume
// against its trailing 20-bar average. Reversal/momentum patterns use
// the lighter 1.5x threshold; continuation/breakout patterns need the
// stronger 2x threshold before volume counts as confirming.
func volumeConfirmedAt(md *marketdata.MarketData, indices []int, threshold float64) bool {
	if len(indices) == 0 {
		return false
	}
	return md.VolumeConfirmedAt(indices[len(indices)-1], 20, threshold)
}

// series bundles the read-only price arrays a detector needs, so each
// Detect implementation takes one argument instead of four.
type series struct {
	close  []float64
	high   []float64
	low    []float64
	volume []float64
}

func seriesOf(md *marketdata.MarketData) series {
	return series{
		close:  md.History.Close(),
		high:   md.History.High(),
		low:    md.History.Low(),
		volume: md.History.Volume(),
	}
}
