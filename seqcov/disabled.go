package seqcov

import (
	"io"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/optimize"
)

// DisabledModel ignores sequencing depth: every density is 1.
type DisabledModel struct {
	base
}

func (m *DisabledModel) Variant() Variant {
	return Disabled
}

// Initialize records the dimensions; size factors are not computed.
func (m *DisabledModel) Initialize(ali *bio.Alignment, nMatrices int, alleles []int) error {
	m.ali = ali
	m.nMatrices = nMatrices
	m.alleles = append([]int(nil), alleles...)
	m.sizeFactors = make([]float64, ali.NCells())
	for i := range m.sizeFactors {
		m.sizeFactors[i] = 1
	}
	return nil
}

func (m *DisabledModel) NeedsUpdate() bool {
	return false
}

func (m *DisabledModel) Parameters() optimize.FloatParameters {
	return nil
}

func (m *DisabledModel) neutral() float64 {
	if m.cfg.UseLog {
		return 0
	}
	return 1
}

func (m *DisabledModel) DepthLikelihood(cov, alleles, cell, matrix, pattern int) (float64, error) {
	return m.neutral(), nil
}

func (m *DisabledModel) Compute(cell int) error {
	return nil
}

func (m *DisabledModel) ComputePatterns(cell int, mps []MatrixPattern) error {
	return nil
}

func (m *DisabledModel) Likelihood(cell, matrix, pattern, allele int) float64 {
	return m.neutral()
}

func (m *DisabledModel) SetCombinations(mp MatrixPattern, c Combinations) (bool, error) {
	return false, ErrUnsupported
}

func (m *DisabledModel) Estimate(mps []MatrixPattern) ([]MatrixPattern, error) {
	return nil, ErrUnsupported
}

func (m *DisabledModel) StoreStatistics() {
}

func (m *DisabledModel) Statistics(matrix, pattern int) (float64, float64) {
	return 0, 0
}

func (m *DisabledModel) LogCovar(w io.Writer, pattern int) error {
	return ErrUnsupported
}

func (m *DisabledModel) Duplicate(target *bio.Alignment) (Model, error) {
	if _, err := patternMap(m.ali, target); err != nil {
		return nil, err
	}
	d := &DisabledModel{base: base{cfg: m.cfg}}
	err := d.Initialize(target, m.nMatrices, m.alleles)
	return d, err
}
