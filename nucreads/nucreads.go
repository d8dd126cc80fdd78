// Package nucreads implements nucleotide support models. Read counts
// of a cell are scored under a fixed set of support categories, each
// a Dirichlet-multinomial (or beta-binomial) distribution with
// concentrations derived from the effective sequencing error rate
// and two shape controllers.
package nucreads

import (
	"fmt"
	"math"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/dist"
	"bitbucket.org/Davydov/scread/lhcache"
	"bitbucket.org/Davydov/scread/optimize"
)

var log = logging.MustGetLogger("nucreads")

// Category is a support category.
type Category int

const (
	// HomRef is 0/0.
	HomRef Category = iota
	// HomAlt is 1/1.
	HomAlt
	// HomAltImbalanced is 1/1', two different alternative
	// nucleotides.
	HomAltImbalanced
	// Het is 0/1.
	Het
)

func (c Category) String() string {
	switch c {
	case HomRef:
		return "0/0"
	case HomAlt:
		return "1/1"
	case HomAltImbalanced:
		return "1/1'"
	case Het:
		return "0/1"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Model computes and caches support likelihoods for every cell and
// pattern. A model is owned by a single goroutine.
type Model struct {
	cfg        Config
	errRate    float64
	w1, w2     float64
	parameters optimize.FloatParameters

	ali *bio.Alignment
	// [cell][pattern*nCategories+index]
	cache   *lhcache.Buffer
	changed bool
}

// New creates a support model.
func New(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		cfg:     cfg,
		errRate: cfg.ErrRate,
		w1:      cfg.ShapeHom,
		w2:      cfg.ShapeHet,
		changed: true,
	}
	if cfg.Estimate {
		m.setParameters()
	}
	return m, nil
}

func (m *Model) setParameters() {
	m.parameters = nil
	errRate := optimize.NewBasicFloatParameter(&m.errRate, "effSeqErrRate")
	errRate.SetMin(0)
	errRate.SetMax(0.5)
	errRate.SetPriorFunc(optimize.UniformPrior(0, 0.5, m.cfg.Variant == DirichletMultinomial, true))
	errRate.SetProposalFunc(optimize.NormalProposal(0.005))
	errRate.SetOnChange(m.touch)
	m.parameters.Append(errRate)

	for _, p := range []struct {
		v    *float64
		name string
	}{{&m.w1, "shapeCtrl1"}, {&m.w2, "shapeCtrl2"}} {
		par := optimize.NewBasicFloatParameter(p.v, p.name)
		par.SetMin(1e-3)
		par.SetMax(1e4)
		par.SetPriorFunc(optimize.ExponentialPrior(1e-2, false))
		par.SetProposalFunc(optimize.NormalProposal(1))
		par.SetOnChange(m.touch)
		m.parameters.Append(par)
	}
}

func (m *Model) touch() {
	m.changed = true
}

// Variant returns the distribution variant.
func (m *Model) Variant() Variant {
	return m.cfg.Variant
}

// Categories returns the modeled categories in cache order.
func (m *Model) Categories() []Category {
	if m.cfg.Variant == BetaBinomial {
		return []Category{HomRef, HomAlt, Het}
	}
	return []Category{HomRef, HomAlt, HomAltImbalanced, Het}
}

// NCategories returns the number of support categories.
func (m *Model) NCategories() int {
	return len(m.Categories())
}

// Index returns the cache index of a category; ok is false if the
// category is not modeled.
func (m *Model) Index(c Category) (i int, ok bool) {
	for i, mc := range m.Categories() {
		if mc == c {
			return i, true
		}
	}
	return -1, false
}

// Initialize allocates likelihood caches for an alignment.
func (m *Model) Initialize(ali *bio.Alignment) error {
	if m.cfg.Variant == DirichletMultinomial && ali.NAlt != 3 {
		return fmt.Errorf("dirichlet-multinomial model requires nucleotide supports, got %d alternative nucleotide(s)", ali.NAlt)
	}
	m.ali = ali
	m.cache = lhcache.New(ali.NCells(), ali.NPatterns()*m.NCategories())
	m.changed = true
	return nil
}

// Parameters returns the explored parameters (nil unless estimated).
func (m *Model) Parameters() optimize.FloatParameters {
	return m.parameters
}

// Params returns the effective sequencing error rate and the shape
// controllers.
func (m *Model) Params() (errRate, w1, w2 float64) {
	return m.errRate, m.w1, m.w2
}

func (m *Model) Changed() bool {
	return m.changed
}

func (m *Model) Clean() {
	m.changed = false
}

// SupportLikelihoods computes densities of read counts for every
// category into out, which is allocated if nil.
func (m *Model) SupportLikelihoods(rc bio.ReadCounts, out []float64) []float64 {
	if out == nil {
		out = make([]float64, m.NCategories())
	}
	if m.cfg.Variant == BetaBinomial {
		m.betaBinomial(rc, out)
	} else {
		m.dirichletMultinomial(rc, out)
	}
	if !m.cfg.UseLog {
		for i, l := range out {
			out[i] = math.Exp(l)
		}
	}
	return out
}

func (m *Model) dirichletMultinomial(rc bio.ReadCounts, out []float64) {
	counts := rc.Full()[:4]
	e3 := m.errRate / 3
	hom := [2][4]float64{
		{e3, e3, e3, 1 - m.errRate},
		{1 - m.errRate, e3, e3, e3},
	}
	het := [2][4]float64{
		{0.5 - e3, 0.5 - e3, e3, e3},
		{0.5 - e3, e3, e3, 0.5 - e3},
	}
	alpha := make([]float64, 4)
	for i := 0; i < 2; i++ {
		for j := range alpha {
			alpha[j] = hom[i][j] * m.w1
		}
		out[i] = dist.LnDirichletMultinomial(counts, alpha)
	}
	for i := 0; i < 2; i++ {
		for j := range alpha {
			alpha[j] = het[i][j] * m.w2
		}
		out[2+i] = dist.LnDirichletMultinomial(counts, alpha)
	}
}

func (m *Model) betaBinomial(rc bio.ReadCounts, out []float64) {
	n := rc.Coverage
	alt := n - rc.Ref()
	e3 := m.errRate / 3
	// 0/0: alternative reads are errors
	out[0] = dist.LnBetaBinomial(alt, n, e3*m.w1, (1-e3)*m.w1)
	// 1/1: reference reads are errors
	out[1] = dist.LnBetaBinomial(n-alt, n, m.errRate*m.w1, (1-m.errRate)*m.w1)
	// 0/1
	out[2] = dist.LnBetaBinomial(alt, n, (0.5-e3)*m.w2, (0.5+e3)*m.w2)
}

// WildTypeParams returns the concentrations of the homozygous
// reference category followed by their sum.
func (m *Model) WildTypeParams() []float64 {
	e3 := m.errRate / 3 * m.w1
	return []float64{e3, e3, e3, (1 - m.errRate) * m.w1, m.w1}
}

// Compute fills the current cache of a cell for all patterns.
func (m *Model) Compute(cell int) {
	m.cache.Flip(cell)
	lh := m.cache.Current(cell)
	n := m.NCategories()
	for p := 0; p < m.ali.NPatterns(); p++ {
		m.SupportLikelihoods(m.ali.Counts(p, cell), lh[p*n:(p+1)*n])
	}
}

// Likelihood returns a cached density; index is a position in
// Categories().
func (m *Model) Likelihood(cell, pattern, index int) float64 {
	return m.cache.Current(cell)[pattern*m.NCategories()+index]
}

// Store accepts the current cache.
func (m *Model) Store() {
	if m.cache != nil {
		m.cache.Store()
	}
}

// Restore reverts the cache to the last stored state.
func (m *Model) Restore() {
	if m.cache != nil {
		m.cache.Restore()
	}
	m.changed = false
}

// Duplicate creates an independent model for a partition of the
// alignment. Parameters of the duplicate are its own; use
// optimize.LinkParameters to share them.
func (m *Model) Duplicate(target *bio.Alignment) (*Model, error) {
	cfg := m.cfg
	cfg.ErrRate, cfg.ShapeHom, cfg.ShapeHet = m.errRate, m.w1, m.w2
	d, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if m.ali != nil {
		if err := d.Initialize(target); err != nil {
			return nil, err
		}
	}
	log.Debugf("Support model duplicated for %d patterns", target.NPatterns())
	return d, nil
}
