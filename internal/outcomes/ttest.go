package outcomes

import "math"

// oneSampleTTest runs a one-sample t-test of returns against a mean
// of 0, returning the t-statistic and two-sided p-value. Uses the
// sample (Bessel-corrected) standard deviation, distinct from the
// population std carried on OutcomeStatistics.
func oneSampleTTest(returns []float64) (tStat, pValue float64) {
	n := len(returns)
	if n < 2 {
		return 0, 1
	}
	mean := meanOf(returns)
	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	sampleVar := sumSq / float64(n-1)
	if sampleVar == 0 {
		return 0, 1
	}
	stdErr := math.Sqrt(sampleVar / float64(n))
	t := mean / stdErr
	df := float64(n - 1)
	p := 2 * (1 - studentTCDF(math.Abs(t), df))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return t, p
}

// studentTCDF returns P(T <= t) for Student's t distribution with df
// degrees of freedom, via the regularized incomplete beta function.
func studentTCDF(t, df float64) float64 {
	x := df / (df + t*t)
	ib := incompleteBeta(x, df/2, 0.5)
	if t > 0 {
		return 1 - 0.5*ib
	}
	return 0.5 * ib
}

// incompleteBeta is the regularized incomplete beta function I_x(a,b),
// evaluated via a continued fraction (Numerical Recipes' betacf).
func incompleteBeta(x, a, b float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lbeta := lgamma(a+b) - lgamma(a) - lgamma(b)
	front := math.Exp(lbeta + a*math.Log(x) + b*math.Log(1-x))
	if x < (a+1)/(a+b+2) {
		return front * betacf(x, a, b) / a
	}
	return 1 - front*betacf(1-x, b, a)/b
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// betacf is the continued-fraction expansion used by incompleteBeta.
func betacf(x, a, b float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-12
		tiny    = 1e-30
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		mf := float64(m)
		m2 := 2 * mf

		aa := mf * (b - mf) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + mf) * (qab + mf) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		delta := d * c
		h *= delta

		if math.Abs(delta-1) < eps {
			break
		}
	}
	return h
}
