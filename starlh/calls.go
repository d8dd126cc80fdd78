package starlh

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"bitbucket.org/Davydov/scread/dist"
	"bitbucket.org/Davydov/scread/genotype"
)

// Call is a genotype call for a cell at a locus.
type Call struct {
	Cell      string
	Locus     string
	Genotype  genotype.Genotype
	Posterior float64
	// Alleles are the maximum likelihood numbers of sequenced alleles
	// given the genotype, under the allelic statistics matrix with the
	// highest posterior of the genotype.
	Alleles genotype.AlleleSet
}

// Calls returns maximum posterior genotypes for every locus and cell.
// Posteriors are averaged over allelic statistics matrices. Loci are
// in the alignment order.
func (m *Model) Calls() ([]Call, error) {
	if _, err := m.likelihood(); err != nil {
		return nil, err
	}
	nC := m.ali.NCells()
	calls := make([]Call, m.ali.NLoci()*nC)
	genotypes := m.shards[0].model.Genotypes()
	post := make([]float64, len(genotypes))
	buf := make([]float64, len(genotypes))
	start := 0
	for _, s := range m.shards {
		nM := s.model.NMatrices()
		perMatrix := make([][]float64, nM)
		for matrix := range perMatrix {
			perMatrix[matrix] = make([]float64, len(genotypes))
		}
		for l := 0; l < s.ali.NLoci(); l++ {
			p := s.ali.PatternIndex(l)
			for c := 0; c < nC; c++ {
				for g := range post {
					post[g] = 0
				}
				for matrix := 0; matrix < nM; matrix++ {
					sc := s.scores(m.logFreq, c, matrix, p, buf)
					norm := dist.LogSumExp(sc)
					for g, v := range sc {
						pg := math.Exp(v - norm)
						perMatrix[matrix][g] = pg
						post[g] += pg / float64(nM)
					}
				}
				best := dist.MaxIndices(post)
				if len(best) == 0 || math.IsNaN(post[best[0]]) {
					return nil, fmt.Errorf("locus %s, cell %s: %w", s.ali.Loci[l], s.ali.Cells[c], errNoPosterior)
				}
				g := genotypes[best[0]]
				_, ml, err := s.model.MixedLikelihoodML(bestMatrix(perMatrix, best[0]), p, c, g)
				if err != nil {
					return nil, err
				}
				calls[(start+l)*nC+c] = Call{
					Cell:      s.ali.Cells[c],
					Locus:     s.ali.Loci[l],
					Genotype:  g,
					Posterior: post[best[0]],
					Alleles:   ml,
				}
			}
		}
		start += s.ali.NLoci()
	}
	return calls, nil
}

// bestMatrix returns the matrix with the highest posterior of the
// genotype g, the first one in case of ties.
func bestMatrix(perMatrix [][]float64, g int) int {
	best := 0
	for matrix := 1; matrix < len(perMatrix); matrix++ {
		if perMatrix[matrix][g] > perMatrix[best][g] {
			best = matrix
		}
	}
	return best
}

// WriteCalls writes calls as tab separated values with a header.
func WriteCalls(w io.Writer, calls []Call) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "locus\tcell\tgenotype\tposterior\talleles")
	for _, c := range calls {
		fmt.Fprintf(bw, "%s\t%s\t%s\t%.6g\t%s\n", c.Locus, c.Cell, c.Genotype, c.Posterior, c.Alleles)
	}
	return bw.Flush()
}

// WriteCovar writes the allelic statistics of every locus, one line
// per locus.
func (m *Model) WriteCovar(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range m.shards {
		for l := 0; l < s.ali.NLoci(); l++ {
			if _, err := fmt.Fprintf(bw, "%s\t", s.ali.Loci[l]); err != nil {
				return err
			}
			if err := s.model.LogCovar(bw, s.ali.PatternIndex(l)); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(bw); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
