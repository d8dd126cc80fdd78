package seqcov

import (
	"fmt"
	"sort"
)

// Combinations are the maximum likelihood assignments of the number
// of sequenced alleles to cells for a pattern. Alleles[i][cell] is an
// allele count; Weights[i] is the number of times the assignment was
// observed.
type Combinations struct {
	Alleles [][]int
	Weights []int
}

// NewCombinations counts unique assignments. Every assignment should
// have one allele count per cell.
func NewCombinations(assignments [][]int) Combinations {
	idx := make(map[string]int, len(assignments))
	var c Combinations
	for _, a := range assignments {
		key := fmt.Sprint(a)
		if i, ok := idx[key]; ok {
			c.Weights[i]++
			continue
		}
		idx[key] = len(c.Alleles)
		c.Alleles = append(c.Alleles, append([]int(nil), a...))
		c.Weights = append(c.Weights, 1)
	}
	sort.Sort(byAlleles(c))
	return c
}

// Len returns the number of unique assignments.
func (c Combinations) Len() int {
	return len(c.Alleles)
}

// Equal returns true if both have the same assignments with the
// same weights.
func (c Combinations) Equal(o Combinations) bool {
	if len(c.Alleles) != len(o.Alleles) {
		return false
	}
	for i, a := range c.Alleles {
		if c.Weights[i] != o.Weights[i] || len(a) != len(o.Alleles[i]) {
			return false
		}
		for j := range a {
			if a[j] != o.Alleles[i][j] {
				return false
			}
		}
	}
	return true
}

func (c Combinations) copy() Combinations {
	d := Combinations{
		Alleles: make([][]int, len(c.Alleles)),
		Weights: append([]int(nil), c.Weights...),
	}
	for i, a := range c.Alleles {
		d.Alleles[i] = append([]int(nil), a...)
	}
	return d
}

type byAlleles Combinations

func (c byAlleles) Len() int { return len(c.Alleles) }

func (c byAlleles) Swap(i, j int) {
	c.Alleles[i], c.Alleles[j] = c.Alleles[j], c.Alleles[i]
	c.Weights[i], c.Weights[j] = c.Weights[j], c.Weights[i]
}

func (c byAlleles) Less(i, j int) bool {
	a, b := c.Alleles[i], c.Alleles[j]
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}
