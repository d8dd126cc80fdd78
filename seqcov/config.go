package seqcov

import (
	"fmt"
	"math"
)

// ZeroCovMode controls how zero coverage is treated when computing
// size factors.
type ZeroCovMode int

const (
	// ZeroCovOmit skips zero coverage.
	ZeroCovOmit ZeroCovMode = iota
	// ZeroCovIncrement adds one to every coverage.
	ZeroCovIncrement
)

// Config is a depth model configuration.
type Config struct {
	Variant     Variant
	ZeroCovMode ZeroCovMode
	// UseLog makes all the densities log densities.
	UseLog bool

	// AllelicCov and AllelicRawVar are the starting (or fixed)
	// statistics outside of variant calling mode.
	AllelicCov    float64
	AllelicRawVar float64
	// InitFromData replaces starting statistics with estimates
	// from the data: half the mean coverage, and a quarter of the
	// coverage variance if it is smaller than AllelicRawVar.
	InitFromData bool
	// Estimate exposes shared statistics as parameters.
	Estimate bool

	// VariantCalling uses precomputed statistics and disables
	// re-estimation. Arrays contain comma-separated values per
	// locus, matrices are separated by semicolons. Shared model
	// expects single values.
	VariantCalling     bool
	AllelicCovArray    string
	AllelicRawVarArray string
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Variant < Disabled || c.Variant > PerLocus {
		return fmt.Errorf("unknown depth model variant: %d", c.Variant)
	}
	if c.ZeroCovMode != ZeroCovOmit && c.ZeroCovMode != ZeroCovIncrement {
		return fmt.Errorf("zero coverage mode should be 0 or 1, got %d", c.ZeroCovMode)
	}
	if c.Variant == Disabled {
		return nil
	}
	if c.VariantCalling {
		if c.AllelicCovArray == "" || c.AllelicRawVarArray == "" {
			return fmt.Errorf("variant calling mode requires allelic coverage and raw variance arrays")
		}
		if c.Estimate || c.InitFromData {
			return fmt.Errorf("statistics cannot be estimated in variant calling mode")
		}
		return nil
	}
	if c.AllelicCovArray != "" || c.AllelicRawVarArray != "" {
		return fmt.Errorf("allelic coverage arrays are only used in variant calling mode")
	}
	if c.AllelicCov < 0 || math.IsNaN(c.AllelicCov) || math.IsInf(c.AllelicCov, 0) {
		return fmt.Errorf("allelic coverage should be non-negative, got %v", c.AllelicCov)
	}
	if c.AllelicRawVar < 0 || math.IsNaN(c.AllelicRawVar) || math.IsInf(c.AllelicRawVar, 0) {
		return fmt.Errorf("allelic coverage raw variance should be non-negative, got %v", c.AllelicRawVar)
	}
	if c.Estimate && c.Variant != Shared {
		return fmt.Errorf("only shared statistics can be explored as parameters")
	}
	return nil
}
