// Package seqcov implements sequencing depth models. The depth of a
// cell at a locus is negative binomial with the mean and the
// variance proportional to the number of sequenced alleles, the
// allelic coverage and the cell size factor:
//
//  mean = (a + eps) * cov * sf
//  var  = mean + sf^2 * (a + eps)^2 * rawVar
//
// The allelic coverage and its raw variance are either ignored
// (Disabled), shared by all the loci (Shared) or estimated for every
// site pattern (PerLocus).
package seqcov

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/optimize"
)

var log = logging.MustGetLogger("seqcov")

// eps is added to the number of sequenced alleles so that zero
// alleles still give a proper distribution.
const eps = 1e-6

var (
	// ErrUnsupported is returned by operations a model variant
	// does not implement.
	ErrUnsupported = errors.New("unsupported function")
	// ErrNumerical is returned if a density cannot be computed.
	ErrNumerical = errors.New("numerical error")
)

// Variant is a depth model variant.
type Variant int

const (
	// Disabled ignores sequencing depth.
	Disabled Variant = iota
	// Shared uses one allelic coverage and raw variance.
	Shared
	// PerLocus uses allelic coverage and raw variance per pattern.
	PerLocus
)

var variantNames = [...]string{"disabled", "shared", "perlocus"}

func (v Variant) String() string {
	if v < Disabled || v > PerLocus {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant converts a variant name into a Variant.
func ParseVariant(s string) (Variant, error) {
	for i, n := range variantNames {
		if strings.EqualFold(s, n) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown depth model: %q", s)
}

// MatrixPattern identifies statistics of a pattern in a rate matrix
// category.
type MatrixPattern struct {
	Matrix, Pattern int
}

// Model is a sequencing depth model. Likelihoods are cached per cell
// for every matrix, pattern and modeled allele count. A model is
// owned by a single goroutine.
type Model interface {
	Variant() Variant
	// Initialize prepares the model for an alignment, the number of
	// rate matrix categories and the sorted modeled allele counts.
	Initialize(ali *bio.Alignment, nMatrices int, alleles []int) error
	// NMatrices returns the number of matrices; it can be smaller
	// than requested if the statistics are deterministic.
	NMatrices() int
	// Alleles returns the modeled allele counts.
	Alleles() []int
	// NeedsUpdate returns true if statistics should be
	// re-estimated during inference.
	NeedsUpdate() bool
	// Parameters returns the parameters explored by inference.
	Parameters() optimize.FloatParameters
	// Changed returns true if parameters changed since the last
	// call to Clean.
	Changed() bool
	// Clean marks cached likelihoods up to date.
	Clean()

	// DepthLikelihood returns the density of coverage given the
	// number of sequenced alleles.
	DepthLikelihood(cov, alleles, cell, matrix, pattern int) (float64, error)
	// Compute fills the cache of a cell for all matrices and
	// patterns.
	Compute(cell int) error
	// ComputePatterns fills the cache of a cell for the listed
	// matrices and patterns only.
	ComputePatterns(cell int, mps []MatrixPattern) error
	// Likelihood returns a cached density; alleleIndex is an index
	// in Alleles().
	Likelihood(cell, matrix, pattern, alleleIndex int) float64

	// Store accepts the current cache.
	Store()
	// Restore reverts the cache to the last stored state.
	Restore()

	// SetCombinations records the maximum likelihood allele count
	// combinations of a pattern; it returns false if they did not
	// change.
	SetCombinations(mp MatrixPattern, c Combinations) (bool, error)
	// Estimate re-estimates statistics of the listed patterns from
	// their combinations and returns the patterns whose statistics
	// differ from the stored ones.
	Estimate(mps []MatrixPattern) ([]MatrixPattern, error)
	// StoreStatistics accepts the current statistics.
	StoreStatistics()
	// Statistics returns allelic coverage and raw variance.
	Statistics(matrix, pattern int) (cov, rawVar float64)
	// LogCovar writes "cov,var" of a pattern for every matrix,
	// separated by ';'.
	LogCovar(w io.Writer, pattern int) error

	SizeFactors() []float64
	// Duplicate creates an independent model for a partition of
	// the alignment.
	Duplicate(target *bio.Alignment) (Model, error)
}

// New creates a depth model from a configuration.
func New(cfg Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Variant {
	case Disabled:
		return &DisabledModel{base: base{cfg: cfg}}, nil
	case Shared:
		return newSharedModel(cfg), nil
	case PerLocus:
		return &PerLocusModel{base: base{cfg: cfg}}, nil
	}
	panic("unreachable")
}
