package dist

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNotOverdispersed is returned when negative binomial parameters
// are requested for a variance which does not exceed the mean.
var ErrNotOverdispersed = errors.New("variance does not exceed mean")

// NegativeBinomialParams converts mean and variance into the (r, p)
// parameterization, p = mean/variance, r = mean^2/(variance-mean).
func NegativeBinomialParams(mean, variance float64) (r, p float64, err error) {
	if !(variance > mean) {
		return 0, 0, ErrNotOverdispersed
	}
	p = mean / variance
	r = mean * mean / (variance - mean)
	return
}

// LnNegativeBinomial returns the log probability of x under negative
// binomial distribution with r successes and success probability p.
func LnNegativeBinomial(x int, r, p float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	xf := float64(x)
	lgrx, _ := math.Lgamma(r + xf)
	lgr, _ := math.Lgamma(r)
	return lgrx + (r+xf)*math.Log1p(-p) - LnFactorial(x) - lgr - r*math.Log(1/p-1)
}

// LnPoisson returns the log probability of x under Poisson
// distribution with the given mean. Mean of zero puts all the mass
// at x=0.
func LnPoisson(x int, mean float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	if mean == 0 {
		if x == 0 {
			return 0
		}
		return math.Inf(-1)
	}
	return distuv.Poisson{Lambda: mean}.LogProb(float64(x))
}

// LnDirichletMultinomial returns the log density of Dirichlet
// multinomial distribution. counts and alpha have the same length,
// the total count is the sum of counts. If the total count is zero
// the density is 1 (log density is 0).
//
// Only non-zero counts contribute to the sum:
//  log(n) + lnB(A, n) - sum_{x_i>0} [log(x_i) + lnB(alpha_i, x_i)]
// where A is the sum of alpha and n is the total count.
func LnDirichletMultinomial(counts []int, alpha []float64) float64 {
	if len(counts) != len(alpha) {
		panic("counts and concentrations lengths differ")
	}
	n := 0
	a := 0.0
	for i, c := range counts {
		n += c
		a += alpha[i]
	}
	if n == 0 {
		return 0
	}
	res := math.Log(float64(n)) + LnBeta(a, float64(n))
	for i, c := range counts {
		if c > 0 {
			res -= math.Log(float64(c)) + LnBeta(alpha[i], float64(c))
		}
	}
	return res
}

// LnBetaBinomial returns the log probability of x successes out of n
// trials under beta-binomial distribution with shapes a and b.
func LnBetaBinomial(x, n int, a, b float64) float64 {
	if x < 0 || x > n {
		return math.Inf(-1)
	}
	xf := float64(x)
	nf := float64(n)
	return LnFactorial(n) - LnFactorial(x) - LnFactorial(n-x) +
		LnBeta(xf+a, nf-xf+b) - LnBeta(a, b)
}
