package outcomes

import (
	"math"
	"sort"
)

// wilsonZ95 is the two-sided z-score for a 95% Wilson score interval.
const wilsonZ95 = 1.959963985

// OutcomeStatistics is the basic statistical summary of one return
// sample R_h at a single horizon, plus its Wilson 95% win-rate
// interval. All formulas return the zero value on an empty sample.
type OutcomeStatistics struct {
	N                  int
	Mean               float64
	Median             float64
	Std                float64
	WinRate            float64
	AvgWin             float64
	AvgLoss            float64
	SharpeLike         float64
	Skewness           float64
	Kurtosis           float64
	WorstDrawdownProxy float64
	WinRateCILower     float64
	WinRateCIUpper     float64
	WinRateCIMargin    float64
}

// Compute derives OutcomeStatistics from a forward-return sample.
func Compute(returns []float64) OutcomeStatistics {
	n := len(returns)
	if n == 0 {
		return OutcomeStatistics{}
	}

	mean := meanOf(returns)
	std := stdOf(returns, mean)
	median := medianOf(returns)

	var wins, losses []float64
	for _, r := range returns {
		if r > 0 {
			wins = append(wins, r)
		} else if r < 0 {
			losses = append(losses, r)
		}
	}
	winRate := float64(len(wins)) / float64(n)
	avgWin := meanOf(wins)
	avgLoss := meanOf(losses)

	sharpe := 0.0
	if std > 0 {
		sharpe = mean / std
	}

	skew, kurt := momentsOf(returns, mean, std)

	worst := 0.0
	if n > 0 {
		worst = returns[0]
		for _, r := range returns[1:] {
			if r < worst {
				worst = r
			}
		}
		if worst > 0 {
			worst = 0
		}
	}

	lower, upper, margin := wilsonInterval(len(wins), n)

	return OutcomeStatistics{
		N:                  n,
		Mean:               mean,
		Median:             median,
		Std:                std,
		WinRate:            winRate,
		AvgWin:             avgWin,
		AvgLoss:            avgLoss,
		SharpeLike:         sharpe,
		Skewness:           skew,
		Kurtosis:           kurt,
		WorstDrawdownProxy: worst,
		WinRateCILower:     lower,
		WinRateCIUpper:     upper,
		WinRateCIMargin:    margin,
	}
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func stdOf(v []float64, mean float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range v {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(v)))
}

func medianOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sorted := make([]float64, len(v))
	copy(sorted, v)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// momentsOf returns population skewness and excess kurtosis; both are
// 0 when std is 0 (a degenerate, all-identical sample).
func momentsOf(v []float64, mean, std float64) (skew, kurt float64) {
	if std == 0 || len(v) == 0 {
		return 0, 0
	}
	var sum3, sum4 float64
	for _, x := range v {
		d := (x - mean) / std
		sum3 += d * d * d
		sum4 += d * d * d * d
	}
	n := float64(len(v))
	skew = sum3 / n
	kurt = sum4/n - 3
	return skew, kurt
}

// wilsonInterval computes the Wilson score interval for a binomial
// proportion w/n at 95% confidence. Returns zeros for n == 0.
func wilsonInterval(w, n int) (lower, upper, margin float64) {
	if n == 0 {
		return 0, 0, 0
	}
	nf := float64(n)
	phat := float64(w) / nf
	z := wilsonZ95
	z2 := z * z

	denom := 1 + z2/nf
	centre := phat + z2/(2*nf)
	adj := z * math.Sqrt(phat*(1-phat)/nf+z2/(4*nf*nf))

	lower = (centre - adj) / denom
	upper = (centre + adj) / denom
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}
	margin = (upper - lower) / 2
	return lower, upper, margin
}
