package starlh

import (
	"fmt"
	"math"
)

const (
	defaultMaxCombinations = 64
	defaultMaxRounds       = 10
)

// Config is a star tree likelihood configuration.
type Config struct {
	// Shards is the number of partitions evaluated in parallel.
	Shards int
	// Frequencies is the genotype prior; uniform if nil.
	Frequencies []float64
	// MaxCombinations caps the number of allele count assignments
	// a pattern with tied cells expands into.
	MaxCombinations int
	// MaxRounds caps the number of re-estimation rounds.
	MaxRounds int
}

// Validate checks the configuration and sets the defaults.
func (c *Config) Validate(nGenotypes int) error {
	if c.Shards < 1 {
		return fmt.Errorf("number of shards should be positive, got %d", c.Shards)
	}
	if c.MaxCombinations == 0 {
		c.MaxCombinations = defaultMaxCombinations
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = defaultMaxRounds
	}
	if c.MaxCombinations < 1 || c.MaxRounds < 1 {
		return fmt.Errorf("combination (%d) and round (%d) limits should be positive", c.MaxCombinations, c.MaxRounds)
	}
	if c.Frequencies == nil {
		c.Frequencies = make([]float64, nGenotypes)
		for i := range c.Frequencies {
			c.Frequencies[i] = 1 / float64(nGenotypes)
		}
		return nil
	}
	if len(c.Frequencies) != nGenotypes {
		return fmt.Errorf("expected %d genotype frequencies, got %d", nGenotypes, len(c.Frequencies))
	}
	sum := 0.0
	for _, f := range c.Frequencies {
		if f < 0 || math.IsNaN(f) {
			return fmt.Errorf("genotype frequencies should be non-negative: %v", c.Frequencies)
		}
		sum += f
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("genotype frequencies should sum to 1, got %v", sum)
	}
	return nil
}
