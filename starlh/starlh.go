// Package starlh evaluates read count models on a star tree: cells
// are independent given a genotype prior. Loci are split into shards
// evaluated in parallel, each with its own model duplicate.
//
//  L = sum_p w_p log sum_m 1/M prod_c sum_g pi_g leaf(m, p, c, g)
package starlh

import (
	"fmt"
	"math"

	"github.com/exascience/pargo/parallel"
	"github.com/op/go-logging"
	"github.com/willf/bitset"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/dist"
	"bitbucket.org/Davydov/scread/lhcache"
	"bitbucket.org/Davydov/scread/optimize"
	"bitbucket.org/Davydov/scread/rawreads"
)

var log = logging.MustGetLogger("starlh")

// Model is a star tree likelihood. It implements
// optimize.Optimizable, optimize.Transactional,
// optimize.PostProcessor and optimize.Stateful.
type Model struct {
	cfg        Config
	ali        *bio.Alignment
	logFreq    []float64
	shards     []*shard
	parameters optimize.FloatParameters
}

type shard struct {
	ali   *bio.Alignment
	model *rawreads.Model
	// [cell][matrix][pattern][genotype]
	partials *lhcache.Buffer
	// pairs with changed allele count combinations
	pending        *bitset.BitSet
	lnL, storedLnL float64
	stale          bool
}

// New creates a star tree likelihood. model should be initialized
// with the whole alignment; it is used as a template for the shards.
func New(cfg Config, model *rawreads.Model) (*Model, error) {
	if model.Alignment() == nil {
		return nil, fmt.Errorf("read count model is not initialized")
	}
	if err := cfg.Validate(len(model.Genotypes())); err != nil {
		return nil, err
	}
	m := &Model{
		cfg:     cfg,
		ali:     model.Alignment(),
		logFreq: make([]float64, len(cfg.Frequencies)),
	}
	for i, f := range cfg.Frequencies {
		m.logFreq[i] = math.Log(f)
	}
	alis, err := m.ali.Shards(cfg.Shards)
	if err != nil {
		return nil, err
	}
	m.shards = make([]*shard, len(alis))
	for i, ali := range alis {
		d, err := model.Duplicate(ali)
		if err != nil {
			return nil, err
		}
		m.shards[i] = &shard{ali: ali, model: d}
	}
	if err := m.initialize(); err != nil {
		return nil, err
	}
	log.Infof("Star tree likelihood with %d shard(s)", len(m.shards))
	return m, nil
}

func (m *Model) initialize() error {
	errs := make([]error, len(m.shards))
	parallel.Range(0, len(m.shards), len(m.shards), func(low, high int) {
		for i := low; i < high; i++ {
			errs[i] = m.shards[i].initialize(m.logFreq)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	pars := make([]optimize.FloatParameters, len(m.shards))
	for i, s := range m.shards {
		pars[i] = s.model.Parameters()
	}
	m.parameters = optimize.LinkParameters(pars...)
	return nil
}

func (s *shard) initialize(logFreq []float64) error {
	s.partials = lhcache.New(s.ali.NCells(), s.model.PartialsSize())
	s.pending = bitset.New(uint(s.model.NMatrices() * s.ali.NPatterns()))
	for c := 0; c < s.ali.NCells(); c++ {
		partials, err := s.model.InitializeLeaf(c, nil)
		if err != nil {
			return err
		}
		copy(s.partials.Current(c), partials)
	}
	s.model.Clean()
	s.lnL = s.sum(logFreq)
	s.store()
	return nil
}

// NeedsUpdate returns true if allelic statistics are re-estimated.
func (m *Model) NeedsUpdate() bool {
	return m.shards[0].model.NeedsUpdate()
}

// Alignment returns the whole alignment.
func (m *Model) Alignment() *bio.Alignment {
	return m.ali
}

// NShards returns the number of shards.
func (m *Model) NShards() int {
	return len(m.shards)
}

func (m *Model) GetFloatParameters() optimize.FloatParameters {
	return m.parameters
}

// Discarded returns the number of allele count groups skipped so far
// because their raw variance estimate was not positive.
func (m *Model) Discarded() (n int) {
	for _, s := range m.shards {
		if d, ok := s.model.Depth().(interface{ Discarded() int }); ok {
			n += d.Discarded()
		}
	}
	return
}

// Copy creates an independent model with the same parameter values
// and allelic statistics.
func (m *Model) Copy() optimize.Optimizable {
	c := &Model{
		cfg:     m.cfg,
		ali:     m.ali,
		logFreq: m.logFreq,
		shards:  make([]*shard, len(m.shards)),
	}
	for i, s := range m.shards {
		d, err := s.model.Duplicate(s.ali)
		if err != nil {
			panic(fmt.Sprintf("cannot copy shard %d: %v", i, err))
		}
		c.shards[i] = &shard{ali: s.ali, model: d}
	}
	if err := c.initialize(); err != nil {
		panic(fmt.Sprintf("cannot initialize a copy: %v", err))
	}
	return c
}

// cellLikelihood returns the log likelihood of a cell given
// genotype partials.
func (s *shard) cellLikelihood(logFreq, lh []float64, buf []float64) float64 {
	if s.model.UseLog() {
		for g, l := range lh {
			buf[g] = logFreq[g] + l
		}
		return dist.LogSumExp(buf)
	}
	sum := 0.0
	for g, l := range lh {
		sum += math.Exp(logFreq[g]) * l
	}
	return math.Log(sum)
}

// sum computes the shard log likelihood from the partials.
func (s *shard) sum(logFreq []float64) float64 {
	nG := len(logFreq)
	nM := s.model.NMatrices()
	buf := make([]float64, nG)
	mats := make([]float64, nM)
	lnM := math.Log(float64(nM))
	res := 0.0
	for p := 0; p < s.ali.NPatterns(); p++ {
		for matrix := range mats {
			i := s.model.PartialIndex(matrix, p)
			mats[matrix] = -lnM
			for c := 0; c < s.ali.NCells(); c++ {
				mats[matrix] += s.cellLikelihood(logFreq, s.partials.Current(c)[i:i+nG], buf)
			}
		}
		res += float64(s.ali.Weight(p)) * dist.LogSumExp(mats)
	}
	return res
}

func (s *shard) update(logFreq []float64) error {
	if !s.model.Changed() && !s.stale {
		return nil
	}
	for c := 0; c < s.ali.NCells(); c++ {
		s.partials.Flip(c)
		if err := s.model.ComputeLeaf(c, s.partials.Current(c), nil); err != nil {
			return err
		}
	}
	s.model.Clean()
	s.stale = false
	s.lnL = s.sum(logFreq)
	return nil
}

// Likelihood returns the log likelihood. Shards with changed
// parameters are recomputed in parallel. Errors are logged and give
// negative infinity.
func (m *Model) Likelihood() float64 {
	l, err := m.likelihood()
	if err != nil {
		log.Errorf("Error computing likelihood: %v", err)
		return math.Inf(-1)
	}
	return l
}

func (m *Model) likelihood() (float64, error) {
	errs := make([]error, len(m.shards))
	parallel.Range(0, len(m.shards), len(m.shards), func(low, high int) {
		for i := low; i < high; i++ {
			errs[i] = m.shards[i].update(m.logFreq)
		}
	})
	l := 0.0
	for i, s := range m.shards {
		if errs[i] != nil {
			return math.NaN(), errs[i]
		}
		l += s.lnL
	}
	return l, nil
}

func (s *shard) store() {
	s.model.Store()
	s.partials.Store()
	s.storedLnL = s.lnL
}

// Store accepts the current state.
func (m *Model) Store() {
	for _, s := range m.shards {
		s.store()
	}
}

// Restore reverts to the last accepted state.
func (m *Model) Restore() {
	for _, s := range m.shards {
		s.model.Restore()
		s.partials.Restore()
		s.lnL = s.storedLnL
	}
}
