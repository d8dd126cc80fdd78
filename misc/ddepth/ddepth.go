// ddepth prints the sequencing depth distribution of a cell carrying
// a number of sequenced alleles.
package main

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/scread/dist"
)

const eps = 1e-6

var (
	app     = kingpin.New("ddepth", "depth distribution of a cell")
	cov     = app.Flag("cov", "allelic coverage").Default("5").Float64()
	rawVar  = app.Flag("rawvar", "allelic raw variance").Default("2").Float64()
	sf      = app.Flag("sf", "size factor").Default("1").Float64()
	alleles = app.Flag("alleles", "number of sequenced alleles").Default("2").Int()
	max     = app.Flag("max", "maximum coverage").Default("30").Int()
)

// lnDepth returns log probabilities of coverage 0..max.
func lnDepth(cov, rawVar, sf float64, alleles, max int) []float64 {
	a := float64(alleles) + eps
	mean := a * cov * sf
	variance := mean + sf*sf*a*a*rawVar
	res := make([]float64, max+1)
	r, p, err := dist.NegativeBinomialParams(mean, variance)
	for x := range res {
		switch {
		case mean <= 0:
			res[x] = dist.LnPoisson(x, 0)
		case err != nil:
			res[x] = dist.LnPoisson(x, mean)
		default:
			res[x] = dist.LnNegativeBinomial(x, r, p)
		}
	}
	return res
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	for x, l := range lnDepth(*cov, *rawVar, *sf, *alleles, *max) {
		fmt.Printf("%d\t%g\n", x, math.Exp(l))
	}
}
