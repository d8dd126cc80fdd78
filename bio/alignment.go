package bio

import (
	"errors"
	"fmt"
	"strings"
)

// Alignment is a matrix of read counts (loci x cells) compressed into
// site patterns. Loci with identical observations in all the cells
// share a pattern; the pattern weight is the number of such loci.
type Alignment struct {
	Cells []string
	Loci  []string
	// NAlt is the number of alternative nucleotides (3 or 1).
	NAlt int

	// [pattern][cell]
	patterns [][]ReadCounts
	weights  []int
	// locus -> pattern
	index []int

	// original is the unfiltered alignment, origLoci are locus
	// indices in it.
	original *Alignment
	origLoci []int
}

// NewAlignment creates a new alignment from read counts indexed as
// [locus][cell].
func NewAlignment(cells, loci []string, counts [][]ReadCounts) (*Alignment, error) {
	if len(cells) == 0 {
		return nil, errors.New("no cells")
	}
	if len(loci) == 0 || len(loci) != len(counts) {
		return nil, fmt.Errorf("number of loci (%d) doesn't match read counts (%d)", len(loci), len(counts))
	}
	if len(counts[0]) == 0 {
		return nil, fmt.Errorf("locus %s: no read counts", loci[0])
	}
	ali := &Alignment{
		Cells: cells,
		Loci:  loci,
		NAlt:  len(counts[0][0].Alt),
		index: make([]int, len(loci)),
	}
	if ali.NAlt != 1 && ali.NAlt != 3 {
		return nil, fmt.Errorf("unsupported number of alternative nucleotides: %d", ali.NAlt)
	}
	patterns := make(map[string]int, len(loci))
	var key strings.Builder
	for l, col := range counts {
		if len(col) != len(cells) {
			return nil, fmt.Errorf("locus %s: expected %d cells, got %d", loci[l], len(cells), len(col))
		}
		key.Reset()
		for c, rc := range col {
			if len(rc.Alt) != ali.NAlt {
				return nil, fmt.Errorf("locus %s, cell %s: expected %d supports, got %d",
					loci[l], cells[c], ali.NAlt, len(rc.Alt))
			}
			if err := rc.Check(); err != nil {
				return nil, fmt.Errorf("locus %s, cell %s: %v", loci[l], cells[c], err)
			}
			key.WriteString(rc.String())
			key.WriteByte(';')
		}
		p, ok := patterns[key.String()]
		if !ok {
			p = len(ali.patterns)
			patterns[key.String()] = p
			ali.patterns = append(ali.patterns, col)
			ali.weights = append(ali.weights, 0)
		}
		ali.weights[p]++
		ali.index[l] = p
	}
	log.Infof("%d loci compressed into %d patterns", len(loci), len(ali.patterns))
	return ali, nil
}

// NCells returns the number of cells.
func (ali *Alignment) NCells() int {
	return len(ali.Cells)
}

// NLoci returns the number of loci.
func (ali *Alignment) NLoci() int {
	return len(ali.index)
}

// NPatterns returns the number of site patterns.
func (ali *Alignment) NPatterns() int {
	return len(ali.patterns)
}

// Counts returns read counts of a cell for a pattern.
func (ali *Alignment) Counts(pattern, cell int) ReadCounts {
	return ali.patterns[pattern][cell]
}

// Coverage returns coverage of a cell for a pattern.
func (ali *Alignment) Coverage(pattern, cell int) int {
	return ali.patterns[pattern][cell].Coverage
}

// Weight returns the number of loci sharing a pattern.
func (ali *Alignment) Weight(pattern int) int {
	return ali.weights[pattern]
}

// PatternIndex returns the pattern of a locus.
func (ali *Alignment) PatternIndex(locus int) int {
	return ali.index[locus]
}

// CellIndex returns index of the cell with the given name or -1.
func (ali *Alignment) CellIndex(name string) int {
	for i, c := range ali.Cells {
		if c == name {
			return i
		}
	}
	return -1
}

// Filtered returns true if the alignment is a partition of another
// alignment.
func (ali *Alignment) Filtered() bool {
	return ali.original != nil
}

// Original returns the alignment the partition was created from or
// the alignment itself.
func (ali *Alignment) Original() *Alignment {
	if ali.original == nil {
		return ali
	}
	return ali.original
}

// OriginalLocus returns the index of a locus in the original
// alignment.
func (ali *Alignment) OriginalLocus(locus int) int {
	if ali.original == nil {
		return locus
	}
	return ali.origLoci[locus]
}

// Filter creates a partition containing a subset of loci.
func (ali *Alignment) Filter(loci []int) (*Alignment, error) {
	if len(loci) == 0 {
		return nil, errors.New("empty partition")
	}
	names := make([]string, len(loci))
	counts := make([][]ReadCounts, len(loci))
	orig := make([]int, len(loci))
	for i, l := range loci {
		if l < 0 || l >= ali.NLoci() {
			return nil, fmt.Errorf("locus index out of range: %d", l)
		}
		names[i] = ali.Loci[l]
		counts[i] = ali.patterns[ali.index[l]]
		orig[i] = ali.OriginalLocus(l)
	}
	f, err := NewAlignment(ali.Cells, names, counts)
	if err != nil {
		return nil, err
	}
	f.original = ali.Original()
	f.origLoci = orig
	return f, nil
}

// Shards splits loci into n contiguous partitions of nearly equal
// size. If there are fewer loci than n, fewer partitions are
// returned.
func (ali *Alignment) Shards(n int) ([]*Alignment, error) {
	if n < 1 {
		return nil, fmt.Errorf("number of shards should be positive, got %d", n)
	}
	if n > ali.NLoci() {
		n = ali.NLoci()
	}
	shards := make([]*Alignment, n)
	start := 0
	for i := range shards {
		end := start + (ali.NLoci()-start)/(n-i)
		loci := make([]int, end-start)
		for j := range loci {
			loci[j] = start + j
		}
		s, err := ali.Filter(loci)
		if err != nil {
			return nil, err
		}
		shards[i] = s
		start = end
	}
	return shards, nil
}

// MissingFraction returns the fraction of cell-locus observations
// with zero coverage.
func (ali *Alignment) MissingFraction() float64 {
	missing := 0
	for p, col := range ali.patterns {
		for _, rc := range col {
			if rc.Coverage == 0 {
				missing += ali.weights[p]
			}
		}
	}
	return float64(missing) / float64(ali.NLoci()*ali.NCells())
}
