// dsupport prints nucleotide support likelihoods of read counts for
// every genotype category.
package main

import (
	"fmt"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/nucreads"
)

var (
	app      = kingpin.New("dsupport", "nucleotide support likelihoods")
	variant  = app.Flag("support", "support model (dm or bb)").Default("dm").Enum("dm", "bb")
	errRate  = app.Flag("err", "effective sequencing error rate").Default("0.001").Float64()
	shapeHom = app.Flag("shape-hom", "shape controller for homozygous genotypes").Default("100").Float64()
	shapeHet = app.Flag("shape-het", "shape controller for heterozygous genotypes").Default("6").Float64()
	counts   = app.Arg("counts", "read counts, e.g. 3,0,1,20").Required().Strings()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	v, err := nucreads.ParseVariant(*variant)
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	m, err := nucreads.New(nucreads.Config{Variant: v, ErrRate: *errRate, ShapeHom: *shapeHom, ShapeHet: *shapeHet})
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	fmt.Print("counts")
	for _, c := range m.Categories() {
		fmt.Printf("\t%v", c)
	}
	fmt.Println()
	for _, s := range *counts {
		rc, err := bio.ParseReadCounts(s)
		if err != nil {
			kingpin.Fatalf("%v", err)
		}
		fmt.Print(rc)
		for _, l := range m.SupportLikelihoods(rc, nil) {
			fmt.Printf("\t%g", l)
		}
		fmt.Println()
	}
}
