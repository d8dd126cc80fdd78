package seqcov

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/optimize"
)

// SharedModel uses one allelic coverage and raw variance for all the
// loci. They are either fixed or explored as parameters.
type SharedModel struct {
	base
	cov, rawVar float64
	parameters  optimize.FloatParameters
}

func newSharedModel(cfg Config) *SharedModel {
	m := &SharedModel{
		base:   base{cfg: cfg},
		cov:    cfg.AllelicCov,
		rawVar: cfg.AllelicRawVar,
	}
	if cfg.Estimate {
		m.setParameters()
	}
	return m
}

func (m *SharedModel) setParameters() {
	m.parameters = nil
	cov := optimize.NewBasicFloatParameter(&m.cov, "allelicCov")
	cov.SetMin(0)
	cov.SetMax(1e4)
	cov.SetPriorFunc(optimize.UniformPrior(0, 1e4, false, true))
	cov.SetProposalFunc(optimize.NormalProposal(0.5))
	cov.SetOnChange(m.touch)
	m.parameters.Append(cov)

	rawVar := optimize.NewBasicFloatParameter(&m.rawVar, "allelicRawVar")
	rawVar.SetMin(0)
	rawVar.SetMax(1e6)
	rawVar.SetPriorFunc(optimize.ExponentialPrior(1e-2, true))
	rawVar.SetProposalFunc(optimize.NormalProposal(1))
	rawVar.SetOnChange(m.touch)
	m.parameters.Append(rawVar)
}

func (m *SharedModel) touch() {
	m.changed = true
}

func (m *SharedModel) Variant() Variant {
	return Shared
}

func (m *SharedModel) Initialize(ali *bio.Alignment, nMatrices int, alleles []int) error {
	if err := m.init(ali, nMatrices, alleles); err != nil {
		return err
	}
	if m.cfg.VariantCalling {
		var err error
		if m.cov, err = parseSingle(m.cfg.AllelicCovArray); err != nil {
			return fmt.Errorf("allelic coverage: %v", err)
		}
		if m.rawVar, err = parseSingle(m.cfg.AllelicRawVarArray); err != nil {
			return fmt.Errorf("allelic coverage raw variance: %v", err)
		}
	} else if m.cfg.InitFromData {
		m.cov = m.covStarter
		if m.varStarter < m.rawVar {
			m.rawVar = m.varStarter
		}
	}
	log.Infof("Shared allelic coverage=%v, raw variance=%v", m.cov, m.rawVar)
	m.allocate()
	return nil
}

func parseSingle(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("should be non-negative, got %v", v)
	}
	return v, nil
}

func (m *SharedModel) NeedsUpdate() bool {
	return false
}

func (m *SharedModel) Parameters() optimize.FloatParameters {
	return m.parameters
}

func (m *SharedModel) DepthLikelihood(cov, alleles, cell, matrix, pattern int) (float64, error) {
	return m.checkedDensity(cov, alleles, cell, m.cov, m.rawVar)
}

func (m *SharedModel) Compute(cell int) error {
	m.cache.Flip(cell)
	for p := 0; p < m.ali.NPatterns(); p++ {
		if err := m.fill(cell, 0, p, m.cov, m.rawVar); err != nil {
			return err
		}
	}
	m.expand(cell)
	return nil
}

// expand copies likelihoods of the first matrix to the others.
func (m *SharedModel) expand(cell int) {
	lh := m.cache.Current(cell)
	n := m.ali.NPatterns() * len(m.alleles)
	for matrix := 1; matrix < m.nMatrices; matrix++ {
		copy(lh[matrix*n:(matrix+1)*n], lh[:n])
	}
}

func (m *SharedModel) ComputePatterns(cell int, mps []MatrixPattern) error {
	return ErrUnsupported
}

func (m *SharedModel) SetCombinations(mp MatrixPattern, c Combinations) (bool, error) {
	return false, ErrUnsupported
}

func (m *SharedModel) Estimate(mps []MatrixPattern) ([]MatrixPattern, error) {
	return nil, ErrUnsupported
}

// StoreStatistics does nothing: shared statistics are parameters and
// are stored by the sampler.
func (m *SharedModel) StoreStatistics() {
}

func (m *SharedModel) Statistics(matrix, pattern int) (float64, float64) {
	return m.cov, m.rawVar
}

func (m *SharedModel) LogCovar(w io.Writer, pattern int) error {
	return ErrUnsupported
}

func (m *SharedModel) Duplicate(target *bio.Alignment) (Model, error) {
	nb, _, err := m.duplicate(target)
	if err != nil {
		return nil, err
	}
	d := &SharedModel{
		base:   nb,
		cov:    m.cov,
		rawVar: m.rawVar,
	}
	if m.parameters != nil {
		d.setParameters()
	}
	return d, nil
}
