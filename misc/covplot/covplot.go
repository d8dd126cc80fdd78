// covplot creates a scatter plot of allelic coverage against raw
// variance from the output of "scread covar".
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app    = kingpin.New("covplot", "plot allelic coverage against raw variance")
	input  = app.Arg("covar", "allelic statistics file").Required().ExistingFile()
	output = app.Flag("out", "output image").Default("covar.png").String()
	size   = app.Flag("size", "image size in inches").Default("5").Float64()
)

// readCovar reads "locus<TAB>cov,var;cov,var..." lines and returns
// points per matrix.
func readCovar(rd io.Reader) ([]plotter.XYs, error) {
	var pts []plotter.XYs
	scanner := bufio.NewScanner(rd)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", lineNo, len(fields))
		}
		mats := strings.Split(fields[1], ";")
		if pts == nil {
			pts = make([]plotter.XYs, len(mats))
		}
		if len(mats) != len(pts) {
			return nil, fmt.Errorf("line %d: expected %d matrices, got %d", lineNo, len(pts), len(mats))
		}
		for i, m := range mats {
			cv := strings.Split(m, ",")
			if len(cv) != 2 {
				return nil, fmt.Errorf("line %d: wrong statistics %q", lineNo, m)
			}
			x, err := strconv.ParseFloat(cv[0], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			y, err := strconv.ParseFloat(cv[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", lineNo, err)
			}
			pts[i] = append(pts[i], plotter.XY{X: x, Y: y})
		}
	}
	return pts, scanner.Err()
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	f, err := os.Open(*input)
	if err != nil {
		panic(err)
	}
	pts, err := readCovar(f)
	f.Close()
	if err != nil {
		panic(err)
	}
	if len(pts) == 0 {
		panic("no allelic statistics found")
	}
	fmt.Printf("%d loci, %d matrices\n", len(pts[0]), len(pts))

	p := plot.New()
	p.X.Label.Text = "allelic coverage"
	p.Y.Label.Text = "raw variance"
	for i, xys := range pts {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			panic(err)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("matrix %d", i), s)
	}

	if err := p.Save(vg.Length(*size)*vg.Inch, vg.Length(*size)*vg.Inch, *output); err != nil {
		panic(err)
	}
}
