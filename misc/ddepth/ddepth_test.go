package main

import (
	"math"
	"testing"
)

func TestLnDepth(tst *testing.T) {
	sum, mean := 0.0, 0.0
	for x, l := range lnDepth(5, 2, 2, 1, 500) {
		sum += math.Exp(l)
		mean += float64(x) * math.Exp(l)
	}
	if math.Abs(sum-1) > 1e-6 {
		tst.Error("Expected probabilities to sum to one, got ", sum)
	}
	if math.Abs(mean-10) > 1e-3 {
		tst.Error("Expected mean of 10, got ", mean)
	}
}
