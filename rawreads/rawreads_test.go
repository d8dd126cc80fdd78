package rawreads

import (
	"errors"
	"math"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/genotype"
	"bitbucket.org/Davydov/scread/nucreads"
	"bitbucket.org/Davydov/scread/seqcov"
)

const smallDiff = 1e-9

func init() {
	for _, m := range []string{"rawreads", "seqcov", "nucreads", "bio"} {
		logging.SetLevel(logging.WARNING, m)
	}
}

func rc(alt, cov int) bio.ReadCounts {
	return bio.ReadCounts{Alt: []int{alt, 0, 0}, Coverage: cov}
}

// testAlignment has three cells and four loci, loci 0 and 3 share a
// pattern.
func testAlignment(tst *testing.T) *bio.Alignment {
	counts := [][]bio.ReadCounts{
		{rc(0, 10), rc(5, 12), rc(0, 8)},
		{rc(1, 14), rc(6, 11), rc(9, 9)},
		{rc(0, 0), rc(3, 7), rc(2, 15)},
		{rc(0, 10), rc(5, 12), rc(0, 8)},
	}
	ali, err := bio.NewAlignment([]string{"c1", "c2", "c3"}, []string{"l1", "l2", "l3", "l4"}, counts)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	return ali
}

func newModel(tst *testing.T, cfg Config, dcfg seqcov.Config, ali *bio.Alignment, nMatrices int) *Model {
	depth, err := seqcov.New(dcfg)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	support, err := nucreads.New(nucreads.Config{ErrRate: 0.01, ShapeHom: 50, ShapeHet: 20, UseLog: cfg.UseLog})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	m, err := New(cfg, depth, support)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err := m.Initialize(ali, nMatrices); err != nil {
		tst.Fatal("Error: ", err)
	}
	for c := 0; c < ali.NCells(); c++ {
		if _, err := m.InitializeLeaf(c, nil); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	m.Store()
	m.Clean()
	return m
}

func shared(useLog bool) seqcov.Config {
	return seqcov.Config{Variant: seqcov.Shared, AllelicCov: 5, AllelicRawVar: 2, UseLog: useLog}
}

func depthIndex(m *Model, alleles int) int {
	for i, a := range m.Alleles() {
		if a == alleles {
			return i
		}
	}
	return -1
}

func TestNoDropout(tst *testing.T) {
	ali := testAlignment(tst)
	m := newModel(tst, Config{AdoRate: 0}, shared(false), ali, 1)
	if len(m.Alleles()) != 1 || m.Alleles()[0] != 2 {
		tst.Fatal("Expected only two sequenced alleles, got ", m.Alleles())
	}
	s := m.Support()
	for cell := 0; cell < ali.NCells(); cell++ {
		d2 := m.Depth().Likelihood(cell, 0, 1, 0)
		het, _ := s.Index(nucreads.Het)
		lh, ml, err := m.MixedLikelihoodML(0, 1, cell, genotype.Het)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if exp := s.Likelihood(cell, 1, het) * d2; math.Abs(lh-exp) > smallDiff*exp {
			tst.Errorf("Cell %d: expected %v, got %v", cell, exp, lh)
		}
		if ml.Len() != 1 || !ml.Has(2) {
			tst.Error("Expected {2}, got ", ml)
		}
	}
}

func TestTotalDropout(tst *testing.T) {
	ali := testAlignment(tst)
	m := newModel(tst, Config{AdoRate: 1}, shared(false), ali, 1)
	s := m.Support()
	hr, _ := s.Index(nucreads.HomRef)
	ha, _ := s.Index(nucreads.HomAlt)
	d1 := m.Depth().Likelihood(1, 0, 0, depthIndex(m, 1))
	lh, ml, err := m.MixedLikelihoodML(0, 0, 1, genotype.Het)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	exp := (s.Likelihood(1, 0, hr) + s.Likelihood(1, 0, ha)) / 2 * d1
	if math.Abs(lh-exp) > smallDiff*exp {
		tst.Errorf("Expected %v, got %v", exp, lh)
	}
	if ml.Len() != 1 || !ml.Has(1) {
		tst.Error("Expected {1}, got ", ml)
	}

	locus := newModel(tst, Config{AdoRate: 1, LocusADO: true}, shared(false), ali, 1)
	if len(locus.Alleles()) != 3 {
		tst.Fatal("Expected 0, 1 and 2 sequenced alleles, got ", locus.Alleles())
	}
	for _, g := range locus.Genotypes() {
		lh, ml, err := locus.MixedLikelihoodML(0, 2, 0, g)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if exp := locus.Depth().Likelihood(0, 0, 2, 0); lh != exp {
			tst.Errorf("%v: expected depth likelihood %v, got %v", g, exp, lh)
		}
		if !ml.Has(0) || ml.Len() != 1 {
			tst.Error("Expected {0}, got ", ml)
		}
	}
}

func TestTies(tst *testing.T) {
	ali := testAlignment(tst)
	m := newModel(tst, Config{AdoRate: 0.5}, seqcov.Config{Variant: seqcov.Disabled}, ali, 1)
	_, ml, err := m.MixedLikelihoodML(0, 0, 0, genotype.HomRef)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if ml.Len() != 2 || !ml.Has(1) || !ml.Has(2) {
		tst.Error("Expected a tie {1,2}, got ", ml)
	}
}

func TestLogLinear(tst *testing.T) {
	ali := testAlignment(tst)
	for _, locus := range []bool{false, true} {
		lin := newModel(tst, Config{Genotypes: genotype.FiniteMuExtended, AdoRate: 0.2, LocusADO: locus}, shared(false), ali, 2)
		lg := newModel(tst, Config{Genotypes: genotype.FiniteMuExtended, AdoRate: 0.2, LocusADO: locus, UseLog: true}, shared(true), ali, 2)
		for cell := 0; cell < ali.NCells(); cell++ {
			for p := 0; p < ali.NPatterns(); p++ {
				for _, g := range lin.Genotypes() {
					l1, ml1, err := lin.MixedLikelihoodML(1, p, cell, g)
					if err != nil {
						tst.Fatal("Error: ", err)
					}
					l2, ml2, err := lg.MixedLikelihoodML(1, p, cell, g)
					if err != nil {
						tst.Fatal("Error: ", err)
					}
					if math.Abs(l1-math.Exp(l2)) > smallDiff {
						tst.Errorf("Locus ADO=%v, cell %d, pattern %d, %v: %v != exp(%v)", locus, cell, p, g, l1, l2)
					}
					if ml1 != ml2 {
						tst.Errorf("Maximum likelihood alleles differ: %v, %v", ml1, ml2)
					}
				}
			}
		}
	}
}

func TestUnexpectedGenotype(tst *testing.T) {
	ali := testAlignment(tst)
	m := newModel(tst, Config{AdoRate: 0.1}, shared(false), ali, 1)
	for _, g := range []genotype.Genotype{genotype.HomAltPrivate, genotype.Genotype(7), genotype.Genotype(-1)} {
		if _, err := m.MixedLikelihood(0, 0, 0, g); !errors.Is(err, ErrUnexpectedGenotype) {
			tst.Errorf("%v: expected unexpected genotype error, got %v", g, err)
		}
	}

	depth, _ := seqcov.New(shared(false))
	bb, _ := nucreads.New(nucreads.Config{Variant: nucreads.BetaBinomial, ErrRate: 0.01, ShapeHom: 1, ShapeHet: 1})
	if _, err := New(Config{Genotypes: genotype.FiniteMuExtended}, depth, bb); err == nil {
		tst.Error("Beta-binomial model should not support 1/1'")
	}
	if _, err := New(Config{AdoRate: 1.5}, depth, bb); err == nil {
		tst.Error("Expected an error for ADO rate 1.5")
	}
}

func TestDuplicate(tst *testing.T) {
	ali := testAlignment(tst)
	m := newModel(tst, Config{AdoRate: 0.2}, shared(true), ali, 2)
	full := make([][]float64, ali.NCells())
	for c := range full {
		full[c] = make([]float64, m.PartialsSize())
		if err := m.ComputeLeaf(c, full[c], nil); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	shards, err := ali.Shards(2)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for _, s := range shards {
		d, err := m.Duplicate(s)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		for c := 0; c < s.NCells(); c++ {
			partials, err := d.InitializeLeaf(c, nil)
			if err != nil {
				tst.Fatal("Error: ", err)
			}
			for matrix := 0; matrix < d.NMatrices(); matrix++ {
				for l := 0; l < s.NLoci(); l++ {
					i := d.PartialIndex(matrix, s.PatternIndex(l))
					j := m.PartialIndex(matrix, ali.PatternIndex(s.OriginalLocus(l)))
					for g := range d.Genotypes() {
						if partials[i+g] != full[c][j+g] {
							tst.Errorf("Locus %s, cell %d: %v != %v", s.Loci[l], c, partials[i+g], full[c][j+g])
						}
					}
				}
			}
		}
	}
}

func TestStoreRestore(tst *testing.T) {
	ali := testAlignment(tst)
	m := newModel(tst, Config{AdoRate: 0.2, EstimateADO: true}, shared(true), ali, 1)
	pars := m.Parameters()
	if len(pars) != 1 || pars[0].Name() != "adoRate" {
		tst.Fatal("Expected adoRate parameter, got ", pars.NamesString())
	}
	partials := make([]float64, m.PartialsSize())
	m.ComputeLeaf(0, partials, nil)
	old := partials[1]
	m.Parameters()[0].Set(0.4)
	if !m.Changed() {
		tst.Error("Model should be changed")
	}
	m.ComputeLeaf(0, partials, nil)
	if partials[1] == old {
		tst.Error("Heterozygous likelihood should depend on ADO rate")
	}
	m.Parameters()[0].Set(0.2)
	m.Restore()
	if m.Changed() {
		tst.Error("Restored model should be unchanged")
	}
	m.ComputeLeaf(0, partials, nil)
	if partials[1] != old {
		tst.Error("Likelihood should be restored")
	}
}

func TestUpdatePartialLeaf(tst *testing.T) {
	ali := testAlignment(tst)
	dcfg := seqcov.Config{Variant: seqcov.PerLocus, AllelicCov: 3, AllelicRawVar: 1}
	m := newModel(tst, Config{AdoRate: 0.2}, dcfg, ali, 1)
	if !m.NeedsUpdate() {
		tst.Fatal("Model should need updates")
	}
	partials := make([][]float64, ali.NCells())
	ml := make([][]genotype.AlleleSet, ali.NCells())
	for c := range partials {
		partials[c] = make([]float64, m.PartialsSize())
		ml[c] = make([]genotype.AlleleSet, m.PartialsSize())
		if err := m.ComputeLeaf(c, partials[c], ml[c]); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	mp := seqcov.MatrixPattern{Matrix: 0, Pattern: 1}
	if _, err := m.SetCombinations(mp, seqcov.NewCombinations([][]int{{2, 2, 1}})); err != nil {
		tst.Fatal("Error: ", err)
	}
	changed, err := m.Estimate([]seqcov.MatrixPattern{mp})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(changed) != 1 {
		tst.Fatal("Statistics should change")
	}
	m.StoreStatistics()
	before := append([]float64(nil), partials[0]...)
	if err := m.UpdatePartialLeaf(0, changed, partials[0], ml[0]); err != nil {
		tst.Fatal("Error: ", err)
	}
	for p := 0; p < ali.NPatterns(); p++ {
		i := m.PartialIndex(0, p)
		if p == 1 && partials[0][i] == before[i] {
			tst.Error("Partials of a changed pattern should be updated")
		}
		if p != 1 && partials[0][i] != before[i] {
			tst.Error("Partials of an unchanged pattern should be kept")
		}
	}

	if _, err := newModel(tst, Config{AdoRate: 0.2}, shared(false), ali, 1).Estimate(changed); !errors.Is(err, seqcov.ErrUnsupported) {
		tst.Error("Expected unsupported error, got ", err)
	}
}
