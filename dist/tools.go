// Package dist implements the probability densities and summary
// statistics used by the read-count models.
package dist

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
)

// LnBeta returns log of Beta function.
func LnBeta(p, q float64) float64 {
	return mathext.Lbeta(p, q)
}

// LnFactorial returns log(n!).
func LnFactorial(n int) float64 {
	lg, _ := math.Lgamma(float64(n) + 1)
	return lg
}

// LogSumExp returns log(sum(exp(x))) computed without overflow. If
// every value is -Inf the result is -Inf.
func LogSumExp(x []float64) float64 {
	return floats.LogSumExp(x)
}

// GeometricMean returns the geometric mean of positive values in x.
// Non-positive values are skipped. If there are no positive values,
// 0 is returned.
func GeometricMean(x []float64) float64 {
	s := 0.0
	n := 0
	for _, v := range x {
		if v > 0 {
			s += math.Log(v)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Exp(s / float64(n))
}

// Median returns the median of x; x is sorted in place. For an even
// number of values the two middle values are averaged. Median of an
// empty slice is NaN.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(x)
	if n%2 == 1 {
		return x[n/2]
	}
	return (x[n/2-1] + x[n/2]) / 2
}

// MaxIndices returns indices of all the maximal elements of x.
func MaxIndices(x []float64) (ind []int) {
	if len(x) == 0 {
		return nil
	}
	max := floats.Max(x)
	for i, v := range x {
		if v == max {
			ind = append(ind, i)
		}
	}
	return
}
