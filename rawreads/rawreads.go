// Package rawreads combines sequencing depth and nucleotide support
// likelihoods into genotype likelihoods of cells. Every genotype is
// a mixture over allelic dropout situations: no dropout, one allele
// dropped and, with locus dropout, both alleles dropped.
package rawreads

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/dist"
	"bitbucket.org/Davydov/scread/genotype"
	"bitbucket.org/Davydov/scread/nucreads"
	"bitbucket.org/Davydov/scread/optimize"
	"bitbucket.org/Davydov/scread/seqcov"
)

var log = logging.MustGetLogger("rawreads")

// ErrUnexpectedGenotype is returned for a genotype the model does not
// know.
var ErrUnexpectedGenotype = errors.New("unexpected genotype")

// maxDropped is the largest number of dropped alleles.
const maxDropped = 2

// Model is a read count model of a single alignment or partition.
type Model struct {
	cfg        Config
	theta      float64
	parameters optimize.FloatParameters

	depth   seqcov.Model
	support *nucreads.Model

	ali       *bio.Alignment
	genotypes []genotype.Genotype
	alleles   []int
	nMatrices int
	// support category cache indices
	hr, ha, hai, het int
	// depthIndex[d] is the index of 2-d alleles in alleles or -1
	depthIndex [maxDropped + 1]int
	changed    bool
}

// New creates a read count model from its sub-models.
func New(cfg Config, depth seqcov.Model, support *nucreads.Model) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		cfg:       cfg,
		theta:     cfg.AdoRate,
		depth:     depth,
		support:   support,
		genotypes: cfg.Genotypes.Genotypes(),
		changed:   true,
	}
	var ok bool
	m.hr, _ = support.Index(nucreads.HomRef)
	m.ha, _ = support.Index(nucreads.HomAlt)
	m.het, _ = support.Index(nucreads.Het)
	if m.hai, ok = support.Index(nucreads.HomAltImbalanced); !ok && cfg.Genotypes == genotype.FiniteMuExtended {
		return nil, fmt.Errorf("%v support model cannot be used with %v", support.Variant(), cfg.Genotypes)
	}
	if cfg.EstimateADO {
		m.setParameters()
	}
	return m, nil
}

func (m *Model) setParameters() {
	m.parameters = nil
	theta := optimize.NewBasicFloatParameter(&m.theta, "adoRate")
	theta.SetMin(0)
	theta.SetMax(1)
	theta.SetPriorFunc(optimize.UniformPrior(0, 1, true, true))
	theta.SetProposalFunc(optimize.NormalProposal(0.05))
	theta.SetOnChange(m.touch)
	m.parameters.Append(theta)
}

func (m *Model) touch() {
	m.changed = true
}

// Initialize prepares the sub-models for an alignment and the number
// of rate matrix categories.
func (m *Model) Initialize(ali *bio.Alignment, nMatrices int) error {
	alleles, err := genotype.ModeledAlleles(m.cfg.Genotypes.Alleles(), m.cfg.varying(), !m.cfg.LocusADO)
	if err != nil {
		return err
	}
	if err := m.depth.Initialize(ali, nMatrices, alleles); err != nil {
		return err
	}
	if err := m.support.Initialize(ali); err != nil {
		return err
	}
	m.ali = ali
	m.setAlleles(alleles)
	log.Infof("Modeled numbers of sequenced alleles: %v", alleles)
	return nil
}

func (m *Model) setAlleles(alleles []int) {
	m.alleles = alleles
	m.nMatrices = m.depth.NMatrices()
	for d := range m.depthIndex {
		m.depthIndex[d] = -1
		for i, a := range alleles {
			if a == 2-d {
				m.depthIndex[d] = i
			}
		}
	}
}

// Depth returns the sequencing depth model.
func (m *Model) Depth() seqcov.Model {
	return m.depth
}

// Support returns the nucleotide support model.
func (m *Model) Support() *nucreads.Model {
	return m.support
}

// Alignment returns the alignment of the model.
func (m *Model) Alignment() *bio.Alignment {
	return m.ali
}

// Genotypes returns the modeled genotypes in partial order.
func (m *Model) Genotypes() []genotype.Genotype {
	return m.genotypes
}

// Alleles returns the modeled numbers of sequenced alleles.
func (m *Model) Alleles() []int {
	return m.alleles
}

// NMatrices returns the number of matrices of the depth model.
func (m *Model) NMatrices() int {
	return m.nMatrices
}

// UseLog returns true if likelihoods are in log space.
func (m *Model) UseLog() bool {
	return m.cfg.UseLog
}

// AdoRate returns the current allelic dropout rate.
func (m *Model) AdoRate() float64 {
	return m.theta
}

// Parameters returns the parameters of the model and its sub-models.
func (m *Model) Parameters() (pars optimize.FloatParameters) {
	pars = append(pars, m.parameters...)
	pars = append(pars, m.support.Parameters()...)
	pars = append(pars, m.depth.Parameters()...)
	return
}

// Changed returns true if leaf likelihoods should be recomputed.
func (m *Model) Changed() bool {
	return m.changed || m.depth.Changed() || m.support.Changed()
}

// Clean marks all the caches up to date.
func (m *Model) Clean() {
	m.changed = false
	m.depth.Clean()
	m.support.Clean()
}

// Store accepts the current state of the caches.
func (m *Model) Store() {
	m.depth.Store()
	m.support.Store()
}

// Restore reverts the caches to the last stored state.
func (m *Model) Restore() {
	m.depth.Restore()
	m.support.Restore()
	m.changed = false
}

// NeedsUpdate returns true if allelic statistics are re-estimated.
func (m *Model) NeedsUpdate() bool {
	return m.depth.NeedsUpdate()
}

// SetCombinations forwards maximum likelihood allele count
// combinations to the depth model.
func (m *Model) SetCombinations(mp seqcov.MatrixPattern, c seqcov.Combinations) (bool, error) {
	return m.depth.SetCombinations(mp, c)
}

// Estimate re-estimates allelic statistics of the changed pairs and
// returns the pairs which are still changing.
func (m *Model) Estimate(changed []seqcov.MatrixPattern) ([]seqcov.MatrixPattern, error) {
	return m.depth.Estimate(changed)
}

// StoreStatistics accepts the current allelic statistics.
func (m *Model) StoreStatistics() {
	m.depth.StoreStatistics()
}

// LogCovar writes allelic statistics of a pattern.
func (m *Model) LogCovar(w io.Writer, pattern int) error {
	return m.depth.LogCovar(w, pattern)
}

// Duplicate creates an independent model for a partition of the
// alignment.
func (m *Model) Duplicate(target *bio.Alignment) (*Model, error) {
	depth, err := m.depth.Duplicate(target)
	if err != nil {
		return nil, err
	}
	support, err := m.support.Duplicate(target)
	if err != nil {
		return nil, err
	}
	cfg := m.cfg
	cfg.AdoRate = m.theta
	d, err := New(cfg, depth, support)
	if err != nil {
		return nil, err
	}
	d.ali = target
	d.setAlleles(m.alleles)
	return d, nil
}

// weights returns probabilities of dropping d alleles.
func (m *Model) weights() (w [maxDropped + 1]float64, n int) {
	th := m.theta
	if m.cfg.LocusADO {
		w[0] = (1 - th) * (1 - th)
		w[1] = 2 * th * (1 - th)
		w[2] = th * th
		return w, 3
	}
	w[0] = 1 - th
	w[1] = th
	return w, 2
}

// supportFactor returns the support likelihood of a genotype with d
// alleles dropped.
func (m *Model) supportFactor(g genotype.Genotype, d, cell, pattern int) (float64, error) {
	if d == 2 {
		// nothing is sequenced
		if m.cfg.UseLog {
			return 0, nil
		}
		return 1, nil
	}
	sup := func(i int) float64 {
		return m.support.Likelihood(cell, pattern, i)
	}
	switch g {
	case genotype.HomRef:
		return sup(m.hr), nil
	case genotype.Het:
		if d == 0 {
			return sup(m.het), nil
		}
		// either allele is left
		if m.cfg.UseLog {
			return dist.LogSumExp([]float64{sup(m.hr), sup(m.ha)}) - math.Ln2, nil
		}
		return (sup(m.hr) + sup(m.ha)) / 2, nil
	case genotype.HomAlt:
		return sup(m.ha), nil
	case genotype.HomAltPrivate:
		if d == 0 && m.hai >= 0 {
			return sup(m.hai), nil
		}
		return sup(m.ha), nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnexpectedGenotype, g)
}

func (m *Model) known(g genotype.Genotype) bool {
	for _, mg := range m.genotypes {
		if mg == g {
			return true
		}
	}
	return false
}

// terms computes the mixture terms of a genotype; counts[i] is the
// number of sequenced alleles of terms[i].
func (m *Model) terms(matrix, pattern, cell int, g genotype.Genotype, terms, counts []float64) (n int, err error) {
	if !m.known(g) {
		return 0, fmt.Errorf("%w: %v", ErrUnexpectedGenotype, g)
	}
	w, nw := m.weights()
	for d := 0; d < nw; d++ {
		if w[d] == 0 {
			continue
		}
		if m.depthIndex[d] < 0 {
			return 0, fmt.Errorf("%d sequenced alleles are not modeled (%v)", 2-d, m.alleles)
		}
		s, err := m.supportFactor(g, d, cell, pattern)
		if err != nil {
			return 0, err
		}
		dp := m.depth.Likelihood(cell, matrix, pattern, m.depthIndex[d])
		if m.cfg.UseLog {
			terms[n] = math.Log(w[d]) + s + dp
		} else {
			terms[n] = w[d] * s * dp
		}
		counts[n] = float64(2 - d)
		n++
	}
	return n, nil
}

func (m *Model) sum(terms []float64) float64 {
	if m.cfg.UseLog {
		return dist.LogSumExp(terms)
	}
	s := 0.0
	for _, t := range terms {
		s += t
	}
	return s
}

// MixedLikelihood returns the likelihood of a genotype of a cell at
// a pattern. Sub-model caches should be computed.
func (m *Model) MixedLikelihood(matrix, pattern, cell int, g genotype.Genotype) (float64, error) {
	var terms, counts [maxDropped + 1]float64
	n, err := m.terms(matrix, pattern, cell, g, terms[:], counts[:])
	if err != nil {
		return 0, err
	}
	return m.sum(terms[:n]), nil
}

// MixedLikelihoodML returns the likelihood of a genotype and the
// numbers of sequenced alleles of the maximal mixture terms. All the
// tied terms are reported.
func (m *Model) MixedLikelihoodML(matrix, pattern, cell int, g genotype.Genotype) (float64, genotype.AlleleSet, error) {
	var terms, counts [maxDropped + 1]float64
	n, err := m.terms(matrix, pattern, cell, g, terms[:], counts[:])
	if err != nil {
		return 0, 0, err
	}
	var ml genotype.AlleleSet
	for _, i := range dist.MaxIndices(terms[:n]) {
		ml = ml.Add(int(counts[i]))
	}
	return m.sum(terms[:n]), ml, nil
}
