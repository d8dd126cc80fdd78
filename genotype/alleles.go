package genotype

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxAlleles is the largest allele count an AlleleSet can hold plus
// one.
const MaxAlleles = 16

// AlleleSet is a set of sequenced allele counts stored as a bit mask.
type AlleleSet uint16

// Add returns the set with n added.
func (s AlleleSet) Add(n int) AlleleSet {
	if n < 0 || n >= MaxAlleles {
		panic("allele count out of range")
	}
	return s | 1<<uint(n)
}

// Has returns true if n is in the set.
func (s AlleleSet) Has(n int) bool {
	if n < 0 || n >= MaxAlleles {
		return false
	}
	return s&(1<<uint(n)) != 0
}

// Len returns the number of elements.
func (s AlleleSet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Values returns the elements in ascending order.
func (s AlleleSet) Values() (v []int) {
	for n := 0; n < MaxAlleles; n++ {
		if s.Has(n) {
			v = append(v, n)
		}
	}
	return
}

func (s AlleleSet) String() string {
	v := s.Values()
	str := make([]string, len(v))
	for i, n := range v {
		str[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(str, ",") + "}"
}

// ModeledAlleles returns the sorted distinct allele counts which can
// be observed given the evolutionary allele counts. If allelic
// dropout varies, a dropped allele (a-1) is possible, and with locus
// dropout both alleles (a-2) can be lost.
func ModeledAlleles(evolution []int, varying, singleADO bool) ([]int, error) {
	var s AlleleSet
	for _, a := range evolution {
		if a < 0 || a >= MaxAlleles {
			return nil, fmt.Errorf("allele count out of range: %d", a)
		}
		s = s.Add(a)
		if varying {
			if a >= 1 {
				s = s.Add(a - 1)
			}
			if !singleADO && a >= 2 {
				s = s.Add(a - 2)
			}
		}
	}
	if s == 0 {
		return nil, fmt.Errorf("no modeled alleles")
	}
	return s.Values(), nil
}
