package starlh

import (
	"math"

	"github.com/exascience/pargo/parallel"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/dist"
	"bitbucket.org/Davydov/scread/genotype"
	"bitbucket.org/Davydov/scread/seqcov"
)

// Reestimate re-estimates per locus allelic statistics from the
// maximum likelihood numbers of sequenced alleles until they converge
// or the round limit is reached. The new state is accepted and the
// new log likelihood is returned.
func (m *Model) Reestimate() (float64, error) {
	if !m.NeedsUpdate() {
		return m.likelihood()
	}
	if _, err := m.likelihood(); err != nil {
		return math.NaN(), err
	}
	errs := make([]error, len(m.shards))
	rounds := make([]int, len(m.shards))
	parallel.Range(0, len(m.shards), len(m.shards), func(low, high int) {
		for i := low; i < high; i++ {
			rounds[i], errs[i] = m.shards[i].reestimate(m.cfg, m.logFreq)
		}
	})
	for _, err := range errs {
		if err != nil {
			return math.NaN(), err
		}
	}
	log.Debugf("Re-estimation rounds per shard: %v", rounds)
	m.Store()
	return m.likelihood()
}

// PostProcess calls Reestimate.
func (m *Model) PostProcess() (float64, error) {
	return m.Reestimate()
}

func (s *shard) reestimate(cfg Config, logFreq []float64) (round int, err error) {
	nP := s.ali.NPatterns()
	for round = 0; round < cfg.MaxRounds; round++ {
		s.pending.ClearAll()
		for matrix := 0; matrix < s.model.NMatrices(); matrix++ {
			for p := 0; p < nP; p++ {
				mp := seqcov.MatrixPattern{Matrix: matrix, Pattern: p}
				comb, err := s.combinations(mp, logFreq, cfg.MaxCombinations)
				if err != nil {
					return round, err
				}
				changed, err := s.model.SetCombinations(mp, comb)
				if err != nil {
					return round, err
				}
				if changed {
					s.pending.Set(uint(matrix*nP + p))
				}
			}
		}
		if s.pending.None() {
			break
		}
		list := make([]seqcov.MatrixPattern, 0, s.pending.Count())
		for i, ok := s.pending.NextSet(0); ok; i, ok = s.pending.NextSet(i + 1) {
			list = append(list, seqcov.MatrixPattern{Matrix: int(i) / nP, Pattern: int(i) % nP})
		}
		still, err := s.model.Estimate(list)
		if err != nil {
			return round, err
		}
		s.model.StoreStatistics()
		if len(still) == 0 {
			break
		}
		for c := 0; c < s.ali.NCells(); c++ {
			s.partials.Flip(c)
			if err := s.model.UpdatePartialLeaf(c, still, s.partials.Current(c), nil); err != nil {
				return round, err
			}
		}
		s.model.Clean()
		s.lnL = s.sum(logFreq)
	}
	return round, nil
}

// scores returns prior weighted genotype likelihoods of a cell in
// log space.
func (s *shard) scores(logFreq []float64, cell, matrix, pattern int, buf []float64) []float64 {
	i := s.model.PartialIndex(matrix, pattern)
	lh := s.partials.Current(cell)[i : i+len(logFreq)]
	for g, l := range lh {
		if s.model.UseLog() {
			buf[g] = logFreq[g] + l
		} else {
			buf[g] = logFreq[g] + math.Log(l)
		}
	}
	return buf
}

// combinations returns the maximum likelihood assignments of the
// number of sequenced alleles to cells. Ties in genotypes and allele
// counts are expanded up to max assignments.
func (s *shard) combinations(mp seqcov.MatrixPattern, logFreq []float64, max int) (seqcov.Combinations, error) {
	genotypes := s.model.Genotypes()
	sets := make([]genotype.AlleleSet, s.ali.NCells())
	buf := make([]float64, len(logFreq))
	for c := range sets {
		for _, g := range dist.MaxIndices(s.scores(logFreq, c, mp.Matrix, mp.Pattern, buf)) {
			_, ml, err := s.model.MixedLikelihoodML(mp.Matrix, mp.Pattern, c, genotypes[g])
			if err != nil {
				return seqcov.Combinations{}, err
			}
			sets[c] |= ml
		}
	}
	return seqcov.NewCombinations(expand(sets, max)), nil
}

// expand returns up to max elements of the cartesian product of sets.
func expand(sets []genotype.AlleleSet, max int) (res [][]int) {
	vals := make([][]int, len(sets))
	for i, s := range sets {
		vals[i] = s.Values()
		if len(vals[i]) == 0 {
			return nil
		}
	}
	idx := make([]int, len(sets))
	for {
		a := make([]int, len(sets))
		for i := range a {
			a[i] = vals[i][idx[i]]
		}
		res = append(res, a)
		if len(res) >= max {
			if log.IsEnabledFor(logging.DEBUG) {
				log.Debugf("Allele count combinations truncated at %d", max)
			}
			return
		}
		i := 0
		for ; i < len(idx); i++ {
			idx[i]++
			if idx[i] < len(vals[i]) {
				break
			}
			idx[i] = 0
		}
		if i == len(idx) {
			return
		}
	}
}
