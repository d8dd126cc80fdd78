package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/genotype"
	"bitbucket.org/Davydov/scread/nucreads"
	"bitbucket.org/Davydov/scread/rawreads"
	"bitbucket.org/Davydov/scread/seqcov"
	"bitbucket.org/Davydov/scread/starlh"
)

// modelSettings stores settings for creating a new model.
type modelSettings struct {
	counts    string
	nMatrices int

	depth   seqcov.Config
	support nucreads.Config
	reads   rawreads.Config
	star    starlh.Config

	genotypes   string
	supportName string
	depthName   string
	frequencies string

	randomize bool
}

// newModelSettings initializes modelSettings from global
// variables (command-line arguments).
func newModelSettings(counts string) *modelSettings {
	useLog := !*linear
	return &modelSettings{
		counts:    counts,
		nMatrices: *nMatrices,

		depth: seqcov.Config{
			ZeroCovMode:        seqcov.ZeroCovMode(*zeroCov),
			UseLog:             useLog,
			AllelicCov:         *allelicCov,
			AllelicRawVar:      *allelicVar,
			InitFromData:       *initFromData,
			Estimate:           *estimateCov,
			VariantCalling:     *covArray != "" || *varArray != "",
			AllelicCovArray:    *covArray,
			AllelicRawVarArray: *varArray,
		},
		support: nucreads.Config{
			ErrRate:  *errRate,
			ShapeHom: *shapeHom,
			ShapeHet: *shapeHet,
			Estimate: *estimateSupport,
			UseLog:   useLog,
		},
		reads: rawreads.Config{
			AdoRate:     *adoRate,
			LocusADO:    *locusADO,
			EstimateADO: *estimateADO,
			UseLog:      useLog,
		},
		star: starlh.Config{
			Shards:          *shards,
			MaxCombinations: *maxComb,
			MaxRounds:       *maxRounds,
		},

		genotypes:   *genotypes,
		supportName: *support,
		depthName:   *depth,
		frequencies: *frequencies,

		randomize: *randomize,
	}
}

// readAlignment reads the read counts file.
func (ms *modelSettings) readAlignment() (*bio.Alignment, error) {
	f, err := os.Open(ms.counts)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ali, err := bio.ParseAlignment(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", ms.counts, err)
	}
	log.Infof("Read %d loci (%d patterns) in %d cells, %.2f%% missing",
		ali.NLoci(), ali.NPatterns(), ali.NCells(), 100*ali.MissingFraction())
	return ali, nil
}

// parseFrequencies converts comma-separated genotype frequencies.
func parseFrequencies(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	freq := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("genotype frequency %q: %v", f, err)
		}
		freq[i] = v
	}
	return freq, nil
}

// createReadModel creates the read count model and its sub-models
// from modelSettings and initializes it with the alignment.
func (ms *modelSettings) createReadModel(ali *bio.Alignment) (*rawreads.Model, error) {
	var err error
	if ms.depth.Variant, err = seqcov.ParseVariant(ms.depthName); err != nil {
		return nil, err
	}
	if ms.support.Variant, err = nucreads.ParseVariant(ms.supportName); err != nil {
		return nil, err
	}
	if ms.reads.Genotypes, err = genotype.ParseModel(ms.genotypes); err != nil {
		return nil, err
	}
	log.Infof("Using %v depth model, %v support model, %v genotypes", ms.depth.Variant, ms.support.Variant, ms.reads.Genotypes)
	if ms.reads.LocusADO {
		log.Warning("Locus dropout is experimental")
	}

	depth, err := seqcov.New(ms.depth)
	if err != nil {
		return nil, err
	}
	support, err := nucreads.New(ms.support)
	if err != nil {
		return nil, err
	}
	m, err := rawreads.New(ms.reads, depth, support)
	if err != nil {
		return nil, err
	}
	if err := m.Initialize(ali, ms.nMatrices); err != nil {
		return nil, err
	}
	log.Infof("Modeled numbers of sequenced alleles: %v", m.Alleles())
	return m, nil
}

// createModel creates and initializes a star tree likelihood from
// modelSettings.
func (ms *modelSettings) createModel() (*starlh.Model, error) {
	ali, err := ms.readAlignment()
	if err != nil {
		return nil, err
	}
	tmpl, err := ms.createReadModel(ali)
	if err != nil {
		return nil, err
	}
	if ms.star.Frequencies, err = parseFrequencies(ms.frequencies); err != nil {
		return nil, err
	}
	if ms.star.Shards == 0 {
		ms.star.Shards = runtime.GOMAXPROCS(0)
	}
	m, err := starlh.New(ms.star, tmpl)
	if err != nil {
		return nil, err
	}

	log.Infof("Model has %d parameters.", len(m.GetFloatParameters()))
	if ms.randomize {
		log.Info("Using uniform (in the boundaries) random starting point")
		par := m.GetFloatParameters()
		par.Randomize()
	}
	return m, nil
}

// modelSummary returns the summary of a model.
func (ms *modelSettings) modelSummary(m *starlh.Model) *ModelSummary {
	par := m.GetFloatParameters()
	return &ModelSummary{
		Depth:      ms.depth.Variant.String(),
		Support:    ms.support.Variant.String(),
		Genotypes:  ms.reads.Genotypes.String(),
		Matrices:   ms.nMatrices,
		Shards:     m.NShards(),
		Parameters: par.ValuesMap(),
		Discarded:  m.Discarded(),
	}
}
