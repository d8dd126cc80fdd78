package rawreads

import (
	"fmt"

	"bitbucket.org/Davydov/scread/genotype"
	"bitbucket.org/Davydov/scread/seqcov"
)

// PartialsSize returns the length of a leaf partials vector.
func (m *Model) PartialsSize() int {
	return m.nMatrices * m.ali.NPatterns() * len(m.genotypes)
}

// PartialIndex returns the position of the first genotype of a
// matrix and pattern in a partials vector.
func (m *Model) PartialIndex(matrix, pattern int) int {
	return (matrix*m.ali.NPatterns() + pattern) * len(m.genotypes)
}

// InitializeLeaf computes the sub-model caches of a cell and returns
// its partials ordered as [matrix][pattern][genotype]. ml receives
// the maximum likelihood numbers of sequenced alleles in the same
// order if it is not nil.
func (m *Model) InitializeLeaf(cell int, ml []genotype.AlleleSet) ([]float64, error) {
	if err := m.depth.Compute(cell); err != nil {
		return nil, err
	}
	m.support.Compute(cell)
	partials := make([]float64, m.PartialsSize())
	return partials, m.fillLeaf(cell, partials, ml)
}

// ComputeLeaf recomputes the sub-model caches of a cell which have
// changed and fills its partials.
func (m *Model) ComputeLeaf(cell int, partials []float64, ml []genotype.AlleleSet) error {
	if m.depth.Changed() {
		if err := m.depth.Compute(cell); err != nil {
			return err
		}
	}
	if m.support.Changed() {
		m.support.Compute(cell)
	}
	return m.fillLeaf(cell, partials, ml)
}

func (m *Model) fillLeaf(cell int, partials []float64, ml []genotype.AlleleSet) error {
	if len(partials) != m.PartialsSize() || (ml != nil && len(ml) != len(partials)) {
		return fmt.Errorf("expected partials of length %d, got %d", m.PartialsSize(), len(partials))
	}
	for matrix := 0; matrix < m.nMatrices; matrix++ {
		for p := 0; p < m.ali.NPatterns(); p++ {
			if err := m.fillPattern(cell, matrix, p, partials, ml); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Model) fillPattern(cell, matrix, pattern int, partials []float64, ml []genotype.AlleleSet) (err error) {
	i := m.PartialIndex(matrix, pattern)
	for j, g := range m.genotypes {
		if ml == nil {
			partials[i+j], err = m.MixedLikelihood(matrix, pattern, cell, g)
		} else {
			partials[i+j], ml[i+j], err = m.MixedLikelihoodML(matrix, pattern, cell, g)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdatePartialLeaf recomputes depth likelihoods and partials of a
// cell only for the listed pairs, whose allelic statistics were
// re-estimated.
func (m *Model) UpdatePartialLeaf(cell int, changed []seqcov.MatrixPattern, partials []float64, ml []genotype.AlleleSet) error {
	if err := m.depth.ComputePatterns(cell, changed); err != nil {
		return err
	}
	for _, mp := range changed {
		if err := m.fillPattern(cell, mp.Matrix, mp.Pattern, partials, ml); err != nil {
			return err
		}
	}
	return nil
}
