// Package genotype defines genotype states, the evolutionary models
// enumerating them, and sets of sequenced allele counts.
package genotype

import (
	"fmt"
	"strconv"
	"strings"
)

// Genotype is a genotype state. Values are used as indices in leaf
// likelihood vectors.
type Genotype int

const (
	// HomRef is homozygous reference, 0/0.
	HomRef Genotype = iota
	// Het is heterozygous, 0/1.
	Het
	// HomAlt is homozygous alternative, 1/1.
	HomAlt
	// HomAltPrivate is homozygous alternative with two different
	// alternative alleles, 1/1'.
	HomAltPrivate
)

var labels = [...]string{"0/0", "0/1", "1/1", "1/1'"}

// Valid returns true if g is one of the known states.
func (g Genotype) Valid() bool {
	return g >= HomRef && g <= HomAltPrivate
}

func (g Genotype) String() string {
	if !g.Valid() {
		return "genotype(" + strconv.Itoa(int(g)) + ")"
	}
	return labels[g]
}

// NAlleles returns the number of alleles of a genotype.
func (g Genotype) NAlleles() int {
	return 2
}

// Model is an evolutionary model as far as the read count model is
// concerned: which genotypes are reachable and how many alleles they
// carry.
type Model int

const (
	// FiniteMu allows 0/0, 0/1 and 1/1.
	FiniteMu Model = iota
	// FiniteMuExtended also allows 1/1'.
	FiniteMuExtended
)

// ParseModel converts a model name into a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "finitemu":
		return FiniteMu, nil
	case "finitemuext", "finitemuextended":
		return FiniteMuExtended, nil
	}
	return 0, fmt.Errorf("unknown evolutionary model: %q", s)
}

func (m Model) String() string {
	if m == FiniteMuExtended {
		return "FiniteMuExtended"
	}
	return "FiniteMu"
}

// Genotypes returns the genotype states of the model.
func (m Model) Genotypes() []Genotype {
	if m == FiniteMuExtended {
		return []Genotype{HomRef, Het, HomAlt, HomAltPrivate}
	}
	return []Genotype{HomRef, Het, HomAlt}
}

// Alleles returns the sorted distinct numbers of alleles of the model
// genotypes.
func (m Model) Alleles() []int {
	var s AlleleSet
	for _, g := range m.Genotypes() {
		s = s.Add(g.NAlleles())
	}
	return s.Values()
}
