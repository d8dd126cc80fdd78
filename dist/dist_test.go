package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-6

/*** Tests if a and b are approximately equal ***/
func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

func TestNegativeBinomialSumsToOne(tst *testing.T) {
	r, p, err := NegativeBinomialParams(10, 25)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s := 0.0
	for x := 0; x < 1000; x++ {
		s += math.Exp(LnNegativeBinomial(x, r, p))
	}
	if !appreq(s, 1) {
		tst.Error("Expected sum 1, got ", s)
	}
}

func TestNegativeBinomialMean(tst *testing.T) {
	r, p, err := NegativeBinomialParams(7.5, 20)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	m := 0.0
	for x := 0; x < 2000; x++ {
		m += float64(x) * math.Exp(LnNegativeBinomial(x, r, p))
	}
	if math.Abs(m-7.5) > 1e-4 {
		tst.Error("Expected mean 7.5, got ", m)
	}
}

func TestNegativeBinomialNotOverdispersed(tst *testing.T) {
	for _, v := range []float64{5, 4, 0} {
		if _, _, err := NegativeBinomialParams(5, v); err != ErrNotOverdispersed {
			tst.Error("Expected ErrNotOverdispersed for variance ", v, ", got ", err)
		}
	}
}

func TestPoisson(tst *testing.T) {
	if LnPoisson(0, 0) != 0 {
		tst.Error("Expected zero mean to put all the mass at 0")
	}
	if !math.IsInf(LnPoisson(3, 0), -1) {
		tst.Error("Expected -Inf for positive count with zero mean")
	}
	l := LnPoisson(2, 3)
	ref := 2*math.Log(3) - 3 - math.Log(2)
	if !appreq(l, ref) {
		tst.Error("Expected ", ref, ", got ", l)
	}
}

func TestDirichletMultinomialZero(tst *testing.T) {
	l := LnDirichletMultinomial([]int{0, 0, 0, 0, 0}, []float64{1, 2, 3, 4, 10})
	if l != 0 {
		tst.Error("Expected log density 0 for all-zero counts, got ", l)
	}
}

// With a single non-zero count the Dirichlet multinomial reduces to
// the beta-binomial of the two categories.
func TestDirichletMultinomialBinary(tst *testing.T) {
	alpha := []float64{0.3, 1.7}
	for x := 0; x <= 6; x++ {
		counts := []int{x, 6 - x}
		l := LnDirichletMultinomial(counts, alpha)
		ref := LnBetaBinomial(x, 6, alpha[0], alpha[1])
		tst.Log("x=", x, ", L=", l, ", Ref=", ref)
		if !appreq(l, ref) {
			tst.Error("Expected ", ref, ", got ", l)
		}
	}
}

func TestDirichletMultinomialSumsToOne(tst *testing.T) {
	alpha := []float64{0.5, 0.1, 0.2, 2}
	n := 5
	s := 0.0
	for a := 0; a <= n; a++ {
		for b := 0; a+b <= n; b++ {
			for c := 0; a+b+c <= n; c++ {
				s += math.Exp(LnDirichletMultinomial([]int{a, b, c, n - a - b - c}, alpha))
			}
		}
	}
	if !appreq(s, 1) {
		tst.Error("Expected sum 1, got ", s)
	}
}

func TestBetaBinomialZeroTrials(tst *testing.T) {
	if l := LnBetaBinomial(0, 0, 0.3, 4); !appreq(l, 0) {
		tst.Error("Expected 0, got ", l)
	}
}

func TestLogSumExp(tst *testing.T) {
	l := LogSumExp([]float64{math.Log(0.25), math.Log(0.5)})
	if !appreq(l, math.Log(0.75)) {
		tst.Error("Expected ", math.Log(0.75), ", got ", l)
	}
	l = LogSumExp([]float64{-1000, math.Inf(-1)})
	if l != -1000 {
		tst.Error("Expected -1000, got ", l)
	}
	l = LogSumExp([]float64{math.Inf(-1), math.Inf(-1)})
	if !math.IsInf(l, -1) {
		tst.Error("Expected -Inf, got ", l)
	}
}

func TestGeometricMean(tst *testing.T) {
	if g := GeometricMean([]float64{0, 2, 8}); !appreq(g, 4) {
		tst.Error("Expected 4, got ", g)
	}
	if g := GeometricMean([]float64{0, 0}); g != 0 {
		tst.Error("Expected 0, got ", g)
	}
}

func TestMedian(tst *testing.T) {
	if m := Median([]float64{3, 1, 2}); m != 2 {
		tst.Error("Expected 2, got ", m)
	}
	if m := Median([]float64{4, 1, 2, 3}); m != 2.5 {
		tst.Error("Expected 2.5, got ", m)
	}
	if m := Median(nil); !math.IsNaN(m) {
		tst.Error("Expected NaN, got ", m)
	}
}

func TestMaxIndices(tst *testing.T) {
	ind := MaxIndices([]float64{1, 3, 2, 3})
	if len(ind) != 2 || ind[0] != 1 || ind[1] != 3 {
		tst.Error("Expected [1 3], got ", ind)
	}
}
