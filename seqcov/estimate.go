package seqcov

import (
	"fmt"
	"math"
	"sort"
)

// deterministic estimates statistics when a single allele count is
// modeled.
func (m *PerLocusModel) deterministic() {
	a := float64(m.alleles[0]) + eps
	for p := 0; p < m.ali.NPatterns(); p++ {
		cells := make([]int, m.ali.NCells())
		for c := range cells {
			cells[c] = c
		}
		q, z, ok := m.moments(p, cells)
		m.cov[p] = q / a
		if ok && z > 0 {
			m.rawVar[p] = z / (a * a)
		} else if ok {
			m.discarded++
			log.Debugf("Pattern %d: non-positive variance estimate (%v), keeping %v", p, z, m.rawVar[p])
		}
	}
}

// moments returns the mean of normalized coverage of the cells and
// the variance in excess of the Poisson noise. ok is false if there
// are less than two cells.
func (m *PerLocusModel) moments(pattern int, cells []int) (q, z float64, ok bool) {
	for _, c := range cells {
		q += m.normalized(pattern, c)
	}
	q /= float64(len(cells))
	if len(cells) < 2 {
		return q, 0, false
	}
	var w, inv float64
	for _, c := range cells {
		d := m.normalized(pattern, c) - q
		w += d * d
		inv += 1 / m.sizeFactors[c]
	}
	w /= float64(len(cells) - 1)
	z = w - q*inv/float64(len(cells))
	return q, z, true
}

func (m *PerLocusModel) SetCombinations(mp MatrixPattern, c Combinations) (bool, error) {
	if !m.needsUpdate {
		return false, ErrUnsupported
	}
	if mp.Matrix < 0 || mp.Matrix >= m.nMatrices || mp.Pattern < 0 || mp.Pattern >= m.ali.NPatterns() {
		return false, fmt.Errorf("matrix (%d) or pattern (%d) out of range", mp.Matrix, mp.Pattern)
	}
	for _, a := range c.Alleles {
		if len(a) != m.ali.NCells() {
			return false, fmt.Errorf("expected allele counts for %d cells, got %d", m.ali.NCells(), len(a))
		}
	}
	i := m.statIndex(mp.Matrix, mp.Pattern)
	if m.combinations[i].Equal(c) {
		return false, nil
	}
	m.combinations[i] = c.copy()
	return true, nil
}

// Estimate computes allelic coverage and raw variance from the
// maximum likelihood combinations of allele counts. The coverage is
// the weighted mean over combinations of the per allele count group
// estimates; groups with less than two cells or a non-positive
// variance estimate do not contribute to the raw variance.
//
// A pattern is reported as changed if its new statistics differ from
// the ones accepted by the last StoreStatistics call, so repeated
// calls without StoreStatistics report the same patterns again.
func (m *PerLocusModel) Estimate(mps []MatrixPattern) ([]MatrixPattern, error) {
	if !m.needsUpdate {
		return nil, ErrUnsupported
	}
	var changed []MatrixPattern
	for _, mp := range mps {
		if mp.Matrix < 0 || mp.Matrix >= m.nMatrices || mp.Pattern < 0 || mp.Pattern >= m.ali.NPatterns() {
			return nil, fmt.Errorf("matrix (%d) or pattern (%d) out of range", mp.Matrix, mp.Pattern)
		}
		i := m.statIndex(mp.Matrix, mp.Pattern)
		comb := m.combinations[i]
		if comb.Len() == 0 {
			return nil, fmt.Errorf("no allele count combinations for matrix %d, pattern %d", mp.Matrix, mp.Pattern)
		}

		var sumCov, sumVar float64
		var covWeights, varWeights int
		for ci, assignment := range comb.Alleles {
			groups := make([][]int, len(m.alleles))
			for c, a := range assignment {
				j := sort.SearchInts(m.alleles, a)
				if j == len(m.alleles) || m.alleles[j] != a {
					return nil, fmt.Errorf("allele count %d of cell %d is not modeled (%v)", a, c, m.alleles)
				}
				groups[j] = append(groups[j], c)
			}
			var sumT, sumV float64
			var n0, n1 int
			for j, cells := range groups {
				if len(cells) == 0 {
					continue
				}
				a := float64(m.alleles[j]) + eps
				q, z, ok := m.moments(mp.Pattern, cells)
				n0++
				sumT += q / a
				if !ok {
					continue
				}
				if z <= 0 {
					m.discarded++
					log.Debugf("Matrix %d, pattern %d, %d alleles: non-positive variance estimate (%v)",
						mp.Matrix, mp.Pattern, m.alleles[j], z)
					continue
				}
				n1++
				sumV += z / (a * a)
			}
			w := comb.Weights[ci]
			sumCov += float64(w) * sumT / float64(n0)
			covWeights += w
			if n1 > 0 {
				sumVar += float64(w) * sumV / float64(n1)
				varWeights += w
			}
		}

		m.cov[i] = sumCov / float64(covWeights)
		if sumVar > 0 {
			m.rawVar[i] = sumVar / float64(varWeights)
		}
		if math.IsNaN(m.cov[i]) || math.IsNaN(m.rawVar[i]) {
			return nil, fmt.Errorf("%w: statistics of matrix %d, pattern %d", ErrNumerical, mp.Matrix, mp.Pattern)
		}
		if m.cov[i] != m.storedCov[i] || m.rawVar[i] != m.storedRawVar[i] {
			changed = append(changed, mp)
		}
	}
	if len(changed) > 0 {
		m.changed = true
	}
	return changed, nil
}
