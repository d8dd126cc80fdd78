package seqcov

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/optimize"
)

// PerLocusModel has allelic coverage and raw variance for every
// pattern and matrix. They are re-estimated from maximum likelihood
// allele count combinations unless running in variant calling mode
// or the combination is deterministic.
type PerLocusModel struct {
	base
	needsUpdate bool
	// [matrix*nPatterns+pattern]
	cov, rawVar             []float64
	storedCov, storedRawVar []float64
	combinations            []Combinations
	// discarded is the number of allele count groups with
	// non-positive variance estimates.
	discarded int
}

func (m *PerLocusModel) Variant() Variant {
	return PerLocus
}

func (m *PerLocusModel) Initialize(ali *bio.Alignment, nMatrices int, alleles []int) error {
	if err := m.init(ali, nMatrices, alleles); err != nil {
		return err
	}
	m.needsUpdate = len(alleles) > 1
	if !m.needsUpdate {
		// the combination of allele counts is deterministic
		m.nMatrices = 1
	}
	n := m.nMatrices * ali.NPatterns()
	m.cov = make([]float64, n)
	m.rawVar = make([]float64, n)
	m.storedCov = make([]float64, n)
	m.storedRawVar = make([]float64, n)
	if m.needsUpdate {
		m.combinations = make([]Combinations, n)
	}

	startCov, startVar := m.cfg.AllelicCov, m.cfg.AllelicRawVar
	if m.cfg.InitFromData {
		startCov = m.covStarter
		if m.varStarter < startVar {
			startVar = m.varStarter
		}
	}
	switch {
	case m.cfg.VariantCalling:
		if err := m.parseArrays(m.cfg.AllelicCovArray, m.cfg.AllelicRawVarArray); err != nil {
			return err
		}
		m.needsUpdate = false
	case m.needsUpdate:
		setAll(m.cov, startCov)
		setAll(m.rawVar, startVar)
	default:
		setAll(m.rawVar, startVar)
		m.deterministic()
	}
	m.StoreStatistics()
	m.allocate()
	return nil
}

func setAll(x []float64, v float64) {
	for i := range x {
		x[i] = v
	}
}

// parseArrays parses variant calling statistics: matrices are
// separated by ';', loci by ','.
func (m *PerLocusModel) parseArrays(covArray, varArray string) error {
	covs := strings.Split(strings.TrimSpace(covArray), ";")
	vars := strings.Split(strings.TrimSpace(varArray), ";")
	if len(covs) != m.nMatrices || len(vars) != m.nMatrices {
		return fmt.Errorf("expected statistics for %d matrices, got %d and %d", m.nMatrices, len(covs), len(vars))
	}
	nPatterns := m.ali.NPatterns()
	for matrix := 0; matrix < m.nMatrices; matrix++ {
		cov, err := parseFloats(covs[matrix], m.ali.NLoci())
		if err != nil {
			return fmt.Errorf("allelic coverage array, matrix %d: %v", matrix, err)
		}
		rawVar, err := parseFloats(vars[matrix], m.ali.NLoci())
		if err != nil {
			return fmt.Errorf("allelic coverage raw variance array, matrix %d: %v", matrix, err)
		}
		added := make([]bool, nPatterns)
		for l := range cov {
			i := matrix*nPatterns + m.ali.PatternIndex(l)
			if added[m.ali.PatternIndex(l)] {
				if m.cov[i] != cov[l] || m.rawVar[i] != rawVar[l] {
					return fmt.Errorf("ambiguous values mapped to the same pattern for locus %s", m.ali.Loci[l])
				}
				continue
			}
			added[m.ali.PatternIndex(l)] = true
			m.cov[i] = cov[l]
			m.rawVar[i] = rawVar[l]
		}
	}
	return nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(strings.TrimSpace(s), ",")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d loci, got %d", n, len(fields))
	}
	res := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("negative value %v for locus %d", v, i)
		}
		res[i] = v
	}
	return res, nil
}

func (m *PerLocusModel) NeedsUpdate() bool {
	return m.needsUpdate
}

func (m *PerLocusModel) Parameters() optimize.FloatParameters {
	return nil
}

func (m *PerLocusModel) statIndex(matrix, pattern int) int {
	return matrix*m.ali.NPatterns() + pattern
}

func (m *PerLocusModel) DepthLikelihood(cov, alleles, cell, matrix, pattern int) (float64, error) {
	if matrix < 0 || matrix >= m.nMatrices || pattern < 0 || pattern >= m.ali.NPatterns() {
		return 0, fmt.Errorf("matrix (%d) or pattern (%d) out of range", matrix, pattern)
	}
	i := m.statIndex(matrix, pattern)
	return m.checkedDensity(cov, alleles, cell, m.cov[i], m.rawVar[i])
}

func (m *PerLocusModel) Compute(cell int) error {
	m.cache.Flip(cell)
	for matrix := 0; matrix < m.nMatrices; matrix++ {
		for p := 0; p < m.ali.NPatterns(); p++ {
			i := m.statIndex(matrix, p)
			if err := m.fill(cell, matrix, p, m.cov[i], m.rawVar[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *PerLocusModel) ComputePatterns(cell int, mps []MatrixPattern) error {
	m.cache.Flip(cell)
	for _, mp := range mps {
		i := m.statIndex(mp.Matrix, mp.Pattern)
		if err := m.fill(cell, mp.Matrix, mp.Pattern, m.cov[i], m.rawVar[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *PerLocusModel) StoreStatistics() {
	copy(m.storedCov, m.cov)
	copy(m.storedRawVar, m.rawVar)
}

func (m *PerLocusModel) Statistics(matrix, pattern int) (float64, float64) {
	i := m.statIndex(matrix, pattern)
	return m.cov[i], m.rawVar[i]
}

// SetStatistics sets allelic coverage and raw variance of a pattern,
// e.g. when restoring from a checkpoint.
func (m *PerLocusModel) SetStatistics(matrix, pattern int, cov, rawVar float64) {
	i := m.statIndex(matrix, pattern)
	m.cov[i] = cov
	m.rawVar[i] = rawVar
	m.changed = true
}

// Discarded returns the number of allele count groups which were
// skipped because their variance estimate was not positive.
func (m *PerLocusModel) Discarded() int {
	return m.discarded
}

func (m *PerLocusModel) LogCovar(w io.Writer, pattern int) error {
	for matrix := 0; matrix < m.nMatrices; matrix++ {
		if matrix != 0 {
			if _, err := io.WriteString(w, ";"); err != nil {
				return err
			}
		}
		cov, rawVar := m.Statistics(matrix, pattern)
		if _, err := fmt.Fprintf(w, "%v,%v", cov, rawVar); err != nil {
			return err
		}
	}
	return nil
}

func (m *PerLocusModel) Duplicate(target *bio.Alignment) (Model, error) {
	nb, pm, err := m.duplicate(target)
	if err != nil {
		return nil, err
	}
	d := &PerLocusModel{
		base:        nb,
		needsUpdate: m.needsUpdate,
	}
	n := d.nMatrices * target.NPatterns()
	d.cov = make([]float64, n)
	d.rawVar = make([]float64, n)
	d.storedCov = make([]float64, n)
	d.storedRawVar = make([]float64, n)
	if m.needsUpdate {
		d.combinations = make([]Combinations, n)
	}
	for matrix := 0; matrix < d.nMatrices; matrix++ {
		for p, src := range pm {
			i := d.statIndex(matrix, p)
			j := m.statIndex(matrix, src)
			d.cov[i] = m.cov[j]
			d.rawVar[i] = m.rawVar[j]
			d.storedCov[i] = m.storedCov[j]
			d.storedRawVar[i] = m.storedRawVar[j]
			if m.needsUpdate {
				d.combinations[i] = m.combinations[j].copy()
			}
		}
	}
	return d, nil
}
