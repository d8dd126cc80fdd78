package seqcov

import (
	"fmt"
	"math"
	"sort"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/dist"
	"bitbucket.org/Davydov/scread/lhcache"
)

// base contains the state shared by all the variants.
type base struct {
	cfg       Config
	ali       *bio.Alignment
	nMatrices int
	alleles   []int

	sizeFactors []float64
	// coverage after zero coverage processing, [pattern][cell]
	processed [][]int
	// statistics estimated from the whole data set
	covStarter, varStarter float64

	// cached likelihoods, [cell][(matrix*nPatterns+pattern)*nAlleles+allele]
	cache   *lhcache.Buffer
	changed bool
}

func (b *base) init(ali *bio.Alignment, nMatrices int, alleles []int) (err error) {
	if nMatrices < 1 {
		return fmt.Errorf("number of matrices should be positive, got %d", nMatrices)
	}
	if len(alleles) == 0 {
		return fmt.Errorf("at least one allele count should be modeled")
	}
	if !sort.IntsAreSorted(alleles) || alleles[0] < 0 {
		return fmt.Errorf("modeled allele counts should be sorted and non-negative: %v", alleles)
	}
	b.ali = ali
	b.nMatrices = nMatrices
	b.alleles = append([]int(nil), alleles...)
	b.sizeFactors, b.processed, b.covStarter, b.varStarter, err = sizeFactors(ali, b.cfg.ZeroCovMode)
	b.changed = true
	return err
}

func (b *base) allocate() {
	b.cache = lhcache.New(b.ali.NCells(), b.nMatrices*b.ali.NPatterns()*len(b.alleles))
}

// duplicate creates a copy of the shared state for a partition and
// returns the mapping from target patterns to source patterns.
func (b *base) duplicate(target *bio.Alignment) (nb base, pm []int, err error) {
	pm, err = patternMap(b.ali, target)
	if err != nil {
		return
	}
	nb = base{
		cfg:         b.cfg,
		ali:         target,
		nMatrices:   b.nMatrices,
		alleles:     append([]int(nil), b.alleles...),
		sizeFactors: append([]float64(nil), b.sizeFactors...),
		processed:   make([][]int, target.NPatterns()),
		covStarter:  b.covStarter,
		varStarter:  b.varStarter,
		changed:     true,
	}
	for p, src := range pm {
		nb.processed[p] = append([]int(nil), b.processed[src]...)
	}
	if b.cache != nil {
		nb.allocate()
	}
	return
}

// patternMap returns for every target pattern the corresponding
// pattern of src. target should be src itself or a partition of it.
func patternMap(src, target *bio.Alignment) ([]int, error) {
	pm := make([]int, target.NPatterns())
	if target == src {
		for p := range pm {
			pm[p] = p
		}
		return pm, nil
	}
	if target.Original() != src {
		return nil, fmt.Errorf("target alignment is not a partition of the model alignment")
	}
	for l := 0; l < target.NLoci(); l++ {
		pm[target.PatternIndex(l)] = src.PatternIndex(target.OriginalLocus(l))
	}
	return pm, nil
}

func (b *base) index(matrix, pattern, allele int) int {
	return (matrix*b.ali.NPatterns()+pattern)*len(b.alleles) + allele
}

// density returns the (log) density of the coverage of a cell.
func (b *base) density(cov, alleles, cell int, covStat, rawVar float64) float64 {
	sf := b.sizeFactors[cell]
	a := float64(alleles) + eps
	mean := a * covStat * sf
	variance := mean + sf*sf*a*a*rawVar
	var l float64
	if mean <= 0 {
		l = dist.LnPoisson(cov, 0)
	} else if r, p, err := dist.NegativeBinomialParams(mean, variance); err == nil {
		l = dist.LnNegativeBinomial(cov, r, p)
	} else {
		// no overdispersion, Poisson limit of negative binomial
		l = dist.LnPoisson(cov, mean)
	}
	if b.cfg.UseLog {
		return l
	}
	return math.Exp(l)
}

func (b *base) checkedDensity(cov, alleles, cell int, covStat, rawVar float64) (float64, error) {
	if cov < 0 || alleles < 0 {
		return 0, fmt.Errorf("coverage (%d) and number of alleles (%d) should be non-negative", cov, alleles)
	}
	if cell < 0 || cell >= len(b.sizeFactors) {
		return 0, fmt.Errorf("cell index out of range: %d", cell)
	}
	d := b.density(cov, alleles, cell, covStat, rawVar)
	if math.IsNaN(d) {
		return 0, fmt.Errorf("%w: depth density of coverage %d with %d alleles (cov=%v, rawVar=%v)",
			ErrNumerical, cov, alleles, covStat, rawVar)
	}
	return d, nil
}

// fill computes likelihoods of a pattern for every modeled allele
// count into the current buffer of a cell.
func (b *base) fill(cell, matrix, pattern int, covStat, rawVar float64) error {
	lh := b.cache.Current(cell)
	cov := b.ali.Coverage(pattern, cell)
	i := b.index(matrix, pattern, 0)
	for j, a := range b.alleles {
		lh[i+j] = b.density(cov, a, cell, covStat, rawVar)
		if math.IsNaN(lh[i+j]) {
			return fmt.Errorf("%w: depth density of pattern %d, matrix %d, cell %d with %d alleles (cov=%v, rawVar=%v)",
				ErrNumerical, pattern, matrix, cell, a, covStat, rawVar)
		}
	}
	return nil
}

func (b *base) NMatrices() int {
	return b.nMatrices
}

func (b *base) Alleles() []int {
	return b.alleles
}

func (b *base) SizeFactors() []float64 {
	return b.sizeFactors
}

func (b *base) Changed() bool {
	return b.changed
}

func (b *base) Clean() {
	b.changed = false
}

func (b *base) Likelihood(cell, matrix, pattern, allele int) float64 {
	return b.cache.Current(cell)[b.index(matrix, pattern, allele)]
}

func (b *base) Store() {
	if b.cache != nil {
		b.cache.Store()
	}
}

func (b *base) Restore() {
	if b.cache != nil {
		b.cache.Restore()
	}
	b.changed = false
}

// normalized returns coverage of a cell divided by its size factor.
func (b *base) normalized(pattern, cell int) float64 {
	return float64(b.processed[pattern][cell]) / b.sizeFactors[cell]
}
