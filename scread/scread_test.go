package main

import (
	"io/ioutil"
	"math"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/nucreads"
	"bitbucket.org/Davydov/scread/rawreads"
	"bitbucket.org/Davydov/scread/seqcov"
	"bitbucket.org/Davydov/scread/starlh"
)

const smallDiff = 1e-8

const counts = `locus	c1	c2	c3
# comment
l1	0,0,0,10	5,0,0,12	0,0,0,8
l2	1,0,0,14	6,0,1,11	9,0,0,9
l3	0,0,0,3	3,0,0,7	2,0,0,15
l4	0,0,0,10	5,0,0,12	0,0,0,8
`

func init() {
	for _, m := range []string{"scread", "starlh", "rawreads", "seqcov", "nucreads", "bio", "optimize", "checkpoint"} {
		logging.SetLevel(logging.WARNING, m)
	}
}

func testSettings(tst *testing.T, depth string) *modelSettings {
	fn := filepath.Join(tst.TempDir(), "counts.tsv")
	if err := ioutil.WriteFile(fn, []byte(counts), 0666); err != nil {
		tst.Fatal("Error: ", err)
	}
	return &modelSettings{
		counts:    fn,
		nMatrices: 1,
		depth:     seqcov.Config{AllelicCov: 5, AllelicRawVar: 2, UseLog: true},
		support:   nucreads.Config{ErrRate: 0.001, ShapeHom: 100, ShapeHet: 6, UseLog: true},
		reads:     rawreads.Config{AdoRate: 0.1, EstimateADO: true, UseLog: true},
		star:      starlh.Config{Shards: 2},

		genotypes:   "finitemu",
		supportName: "dm",
		depthName:   depth,
	}
}

func TestParseFrequencies(tst *testing.T) {
	f, err := parseFrequencies("0.5, 0.25,0.25")
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(f) != 3 || f[1] != 0.25 {
		tst.Error("Wrong frequencies: ", f)
	}
	if f, err := parseFrequencies(""); err != nil || f != nil {
		tst.Error("Expected no frequencies, got ", f, err)
	}
	if _, err := parseFrequencies("0.5,x"); err == nil {
		tst.Error("Expected an error")
	}
}

func TestCreateModel(tst *testing.T) {
	for _, depth := range []string{"disabled", "shared", "perlocus"} {
		ms := testSettings(tst, depth)
		m, err := ms.createModel()
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if l := m.Likelihood(); math.IsNaN(l) || math.IsInf(l, 0) {
			tst.Errorf("%s: expected finite likelihood, got %v", depth, l)
		}
		s := ms.modelSummary(m)
		if s.Depth != depth || s.Shards != 2 {
			tst.Errorf("Wrong summary: %+v", s)
		}
		if _, ok := s.Parameters["adoRate"]; !ok {
			tst.Error("Expected adoRate parameter, got ", s.Parameters)
		}
	}
	ms := testSettings(tst, "shared")
	ms.genotypes = "finitemuext"
	ms.supportName = "bb"
	if _, err := ms.createModel(); err == nil {
		tst.Error("Expected an error for beta-binomial with the extended model")
	}
}

func TestUnknownOptimizer(tst *testing.T) {
	o := &optimizerSettings{method: "lbfgsb"}
	if _, err := o.getOptimizer(); err == nil {
		tst.Error("Expected an error")
	}
}

func TestCheckpoint(tst *testing.T) {
	if testing.Short() {
		tst.Skip("skipping sampling in short mode")
	}
	db, err := openCheckpoint(filepath.Join(tst.TempDir(), "cp.db"))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	defer db.Close()

	ms := testSettings(tst, "perlocus")
	m, err := ms.createModel()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	o := &optimizerSettings{
		method:      "mh",
		model:       m,
		iterations:  30,
		report:      10,
		accept:      10,
		updateEvery: 10,
		out:         ioutil.Discard,
		cpDB:        db,
		cpKey:       "test",
		runID:       newRunID(),
	}
	opt, err := o.create()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	opt.Run(o.iterations)
	l := opt.GetL()

	// a new model resumes from the final checkpoint
	m2, err := testSettings(tst, "perlocus").createModel()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	o.model = m2
	if _, err := o.create(); err != nil {
		tst.Fatal("Error: ", err)
	}
	if l2 := m2.Likelihood(); math.Abs(l2-l) > smallDiff {
		tst.Errorf("Likelihood after resuming %v, expected %v", l2, l)
	}
}

func TestSampleFixedModel(tst *testing.T) {
	ms := testSettings(tst, "perlocus")
	ms.reads.EstimateADO = false
	m, err := ms.createModel()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if n := len(m.GetFloatParameters()); n != 0 {
		tst.Fatal("Expected no parameters, got ", n)
	}
	o := &optimizerSettings{
		method:      "mh",
		model:       m,
		iterations:  30,
		report:      10,
		accept:      10,
		updateEvery: 10,
		out:         ioutil.Discard,
	}
	opt, err := o.create()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	opt.Run(o.iterations)
	if l := opt.GetL(); math.IsNaN(l) || math.IsInf(l, 0) {
		tst.Error("Expected finite likelihood, got ", l)
	}

	o.method = "bfgs"
	opt, err = o.create()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if a := opt.Summary().Algorithm; a != "none" {
		tst.Error("Expected none instead of bfgs, got ", a)
	}
}
