package nucreads

import (
	"fmt"
	"math"
	"strings"
)

// Variant is a nucleotide support distribution.
type Variant int

const (
	// DirichletMultinomial models four nucleotide supports.
	DirichletMultinomial Variant = iota
	// BetaBinomial models alternative support out of coverage.
	BetaBinomial
)

var variantNames = [...]string{"dm", "bb"}

func (v Variant) String() string {
	if v < DirichletMultinomial || v > BetaBinomial {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant converts a variant name ("dm" or "bb") into a Variant.
func ParseVariant(s string) (Variant, error) {
	for i, n := range variantNames {
		if strings.EqualFold(s, n) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown nucleotide support model: %q", s)
}

// Config is a support model configuration.
type Config struct {
	Variant Variant
	// ErrRate is the effective sequencing error rate.
	ErrRate float64
	// ShapeHom and ShapeHet are the shape controllers for
	// homozygous and heterozygous genotypes.
	ShapeHom float64
	ShapeHet float64
	// Estimate exposes error rate and shapes as parameters.
	Estimate bool
	UseLog   bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Variant < DirichletMultinomial || c.Variant > BetaBinomial {
		return fmt.Errorf("unknown nucleotide support model variant: %d", c.Variant)
	}
	if math.IsNaN(c.ErrRate) || c.ErrRate < 0 || c.ErrRate >= 1 {
		return fmt.Errorf("effective sequencing error rate should be in [0, 1), got %v", c.ErrRate)
	}
	if c.Variant == BetaBinomial && c.ErrRate == 0 {
		return fmt.Errorf("beta-binomial model requires a positive sequencing error rate")
	}
	if !(c.ShapeHom > 0) || math.IsInf(c.ShapeHom, 0) {
		return fmt.Errorf("homozygous shape controller should be positive, got %v", c.ShapeHom)
	}
	if !(c.ShapeHet > 0) || math.IsInf(c.ShapeHet, 0) {
		return fmt.Errorf("heterozygous shape controller should be positive, got %v", c.ShapeHet)
	}
	return nil
}
