// Package bio provides single-cell read count data: per-cell
// nucleotide supports, their compression into site patterns and
// partitioning of loci.
package bio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ReadCounts is the observation for a single cell at a single locus.
type ReadCounts struct {
	// Alt are supports of the alternative nucleotides: three for
	// nucleotide data, one for binary data.
	Alt []int
	// Coverage is the total number of reads.
	Coverage int
}

// Ref returns the reference nucleotide support.
func (rc ReadCounts) Ref() int {
	r := rc.Coverage
	for _, a := range rc.Alt {
		r -= a
	}
	return r
}

// Full returns supports in the order expected by Dirichlet
// multinomial: alternative supports, reference support, coverage.
func (rc ReadCounts) Full() []int {
	f := make([]int, len(rc.Alt)+2)
	copy(f, rc.Alt)
	f[len(rc.Alt)] = rc.Ref()
	f[len(rc.Alt)+1] = rc.Coverage
	return f
}

// Check returns an error if counts are inconsistent.
func (rc ReadCounts) Check() error {
	if rc.Coverage < 0 {
		return errors.New("negative coverage")
	}
	for _, a := range rc.Alt {
		if a < 0 {
			return errors.New("negative support")
		}
	}
	if rc.Ref() < 0 {
		return fmt.Errorf("supports exceed coverage (%d)", rc.Coverage)
	}
	return nil
}

// ParseReadCounts parses comma-separated supports followed by
// coverage, e.g. "3,0,1,20".
func ParseReadCounts(s string) (rc ReadCounts, err error) {
	fields := strings.Split(s, ",")
	if len(fields) < 2 {
		return rc, fmt.Errorf("too few fields in %q", s)
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		vals[i], err = strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return rc, err
		}
	}
	rc.Alt = vals[:len(vals)-1]
	rc.Coverage = vals[len(vals)-1]
	return rc, rc.Check()
}

func (rc ReadCounts) String() string {
	var b strings.Builder
	for _, a := range rc.Alt {
		b.WriteString(strconv.Itoa(a))
		b.WriteByte(',')
	}
	b.WriteString(strconv.Itoa(rc.Coverage))
	return b.String()
}
