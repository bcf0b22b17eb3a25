package outcomes

import "math"

// RobustStatistics applies Bayesian smoothing, significance testing
// and a pessimistic EV estimate to one horizon's return sample (spec
// §4.3), computed on the evaluation horizon (default 63 bars).
type RobustStatistics struct {
	SampleSize        int
	RawWinRate        float64
	AdjustedWinRate   float64
	SampleSizeFactor  float64
	ReturnConsistency float64
	TStatistic        float64
	PValue            float64
	IsSignificant     bool
	PessimisticEV     float64
	ConfidenceScore   float64
	RobustScore       float64
}

// ComputeRobust derives RobustStatistics from a horizon's basic stats
// and its underlying return sample.
func ComputeRobust(returns []float64, basic OutcomeStatistics) RobustStatistics {
	n := basic.N
	if n == 0 {
		return RobustStatistics{}
	}

	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	rawWinRate := float64(wins) / float64(n)
	adjustedWinRate := (float64(wins) + 1) / (float64(n) + 2)
	sizeFactor := sampleSizeFactor(n)

	consistency := 0.0
	if basic.Std != 0 {
		consistency = basic.Mean / basic.Std
	}

	tStat, pValue := oneSampleTTest(returns)
	significant := pValue < 0.05

	worstLoss := basic.WorstDrawdownProxy
	pessimisticEV := adjustedWinRate*basic.AvgWin - (1-adjustedWinRate)*(0.5*math.Abs(basic.AvgLoss)+0.5*math.Abs(worstLoss))

	sigTerm := 0.0
	switch {
	case significant:
		sigTerm = 1
	case pValue < 0.10:
		sigTerm = 0.5
	}
	confidence := 40*sizeFactor + 30*clamp01(consistency/3) + 20*sigTerm + 10*clamp01(adjustedWinRate/0.7)
	confidence *= 1 // already on 0-100 scale by construction

	evTerm := clamp01(pessimisticEV / 0.10)
	sigScore := 50.0
	if significant {
		sigScore = 100
	}
	robust := 0.40*confidence + 0.30*evTerm*100 + 0.20*clamp01(consistency/3)*100 + 0.10*sigScore

	return RobustStatistics{
		SampleSize:        n,
		RawWinRate:        rawWinRate,
		AdjustedWinRate:   adjustedWinRate,
		SampleSizeFactor:  sizeFactor,
		ReturnConsistency: consistency,
		TStatistic:        tStat,
		PValue:            pValue,
		IsSignificant:     significant,
		PessimisticEV:     pessimisticEV,
		ConfidenceScore:   clampRange(confidence, 0, 100),
		RobustScore:       clampRange(robust, 0, 100),
	}
}

// sampleSizeFactor interpolates the sample-size confidence factor:
// 0.20 below 5, linear 0.20->0.60 on [5,15), linear 0.60->1.00 on
// [15,30), 1.00 at and above 30.
func sampleSizeFactor(n int) float64 {
	switch {
	case n < 5:
		return 0.20
	case n < 15:
		return 0.20 + (0.60-0.20)*float64(n-5)/10
	case n < 30:
		return 0.60 + (1.00-0.60)*float64(n-15)/15
	default:
		return 1.00
	}
}

func clamp01(x float64) float64 {
	return clampRange(x, 0, 1)
}

func clampRange(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
