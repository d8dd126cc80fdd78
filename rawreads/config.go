package rawreads

import (
	"fmt"
	"math"

	"bitbucket.org/Davydov/scread/genotype"
)

// Config is a read count model configuration.
type Config struct {
	Genotypes genotype.Model
	// AdoRate is the allelic dropout rate.
	AdoRate float64
	// LocusADO allows both alleles to drop; by default at most one
	// allele drops per site.
	LocusADO    bool
	EstimateADO bool
	UseLog      bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Genotypes != genotype.FiniteMu && c.Genotypes != genotype.FiniteMuExtended {
		return fmt.Errorf("unknown evolutionary model: %d", c.Genotypes)
	}
	if math.IsNaN(c.AdoRate) || c.AdoRate < 0 || c.AdoRate > 1 {
		return fmt.Errorf("allelic dropout rate should be in [0, 1], got %v", c.AdoRate)
	}
	return nil
}

// varying returns true if the number of sequenced alleles can differ
// from the number of alleles.
func (c *Config) varying() bool {
	return c.EstimateADO || c.AdoRate > 0
}
