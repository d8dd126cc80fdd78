package seqcov

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/dist"
)

// sizeFactors computes cell size factors with the median of ratios
// method. The ratio of a cell at a locus is its coverage divided by
// the geometric mean of the locus coverage among the cells. It also
// returns the processed coverage and the starting statistics: half
// the mean coverage and a quarter of its variance.
func sizeFactors(ali *bio.Alignment, mode ZeroCovMode) (sf []float64, processed [][]int, covStarter, varStarter float64, err error) {
	nCells := ali.NCells()
	processed = make([][]int, ali.NPatterns())
	geoMean := make([]float64, ali.NPatterns())
	all := make([]float64, 0, ali.NPatterns()*nCells)
	row := make([]float64, nCells)
	for p := range processed {
		processed[p] = make([]int, nCells)
		for c := 0; c < nCells; c++ {
			cov := ali.Coverage(p, c)
			if mode == ZeroCovIncrement {
				cov++
			}
			processed[p][c] = cov
			row[c] = float64(cov)
			all = append(all, row[c])
		}
		geoMean[p] = dist.GeometricMean(row)
	}

	covStarter = stat.Mean(all, nil) / 2
	varStarter = 0
	if len(all) > 1 {
		varStarter = stat.Variance(all, nil) / 4
	}
	log.Infof("Percentage of missing data: %.1f%%", ali.MissingFraction()*100)
	log.Infof("Mean of allelic sequencing coverage: %.1f", covStarter)
	log.Infof("Mean of allelic sequencing coverage raw variance: %.1f", varStarter)

	sf = make([]float64, nCells)
	ratios := make([]float64, 0, ali.NLoci())
	for c := range sf {
		ratios = ratios[:0]
		for p := range processed {
			if mode == ZeroCovOmit && (processed[p][c] == 0 || geoMean[p] == 0) {
				continue
			}
			r := float64(processed[p][c]) / geoMean[p]
			for w := ali.Weight(p); w > 0; w-- {
				ratios = append(ratios, r)
			}
		}
		if len(ratios) == 0 {
			return nil, nil, 0, 0, fmt.Errorf("cell %s has no coverage, cannot compute size factor", ali.Cells[c])
		}
		sf[c] = dist.Median(ratios)
	}
	log.Debugf("Size factors: %v", sf)
	return
}
