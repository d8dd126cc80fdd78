package optimize

import (
	"io/ioutil"
	"math"
	"math/rand"
	"testing"

	"github.com/op/go-logging"
)

func init() {
	logging.SetLevel(logging.WARNING, "optimize")
}

// quadratic is a model with the maximum at x=1, y=-2.
type quadratic struct {
	x, y       float64
	parameters FloatParameters
	stores     int
	restores   int
	post       int
}

func newQuadratic(x, y float64) *quadratic {
	q := &quadratic{x: x, y: y}
	for _, p := range []struct {
		v    *float64
		name string
	}{{&q.x, "x"}, {&q.y, "y"}} {
		par := NewBasicFloatParameter(p.v, p.name)
		par.SetMin(-10)
		par.SetMax(10)
		par.SetPriorFunc(UniformPrior(-10, 10, true, true))
		par.SetProposalFunc(NormalProposal(0.3))
		q.parameters.Append(par)
	}
	return q
}

func (q *quadratic) GetFloatParameters() FloatParameters {
	return q.parameters
}

func (q *quadratic) Likelihood() float64 {
	return -(q.x-1)*(q.x-1) - (q.y+2)*(q.y+2)
}

func (q *quadratic) Copy() Optimizable {
	return newQuadratic(q.x, q.y)
}

func (q *quadratic) Store() {
	q.stores++
}

func (q *quadratic) Restore() {
	q.restores++
}

func (q *quadratic) PostProcess() (float64, error) {
	q.post++
	return q.Likelihood(), nil
}

func TestMH(tst *testing.T) {
	rand.Seed(1)
	q := newQuadratic(5, 5)
	mh := NewMH(false, 0)
	mh.SetOptimizable(q)
	mh.SetOutput(ioutil.Discard)
	mh.PostProcessPeriod = 50
	mh.Run(2000)
	if mh.GetMaxL() < -0.1 {
		tst.Error("Expected maximum likelihood close to 0, got ", mh.GetMaxL())
	}
	// one store per accepted iteration plus the start
	if q.stores+q.restores != 2001 {
		tst.Error("Expected 2001 stores and restores, got ", q.stores, "+", q.restores)
	}
	if q.post != 39 {
		tst.Error("Expected 39 post processing calls, got ", q.post)
	}
	s := mh.Summary()
	if s.LikelihoodCalls != 2001 || s.Algorithm != "mh" {
		tst.Error("Unexpected summary: ", s)
	}
}

func TestDS(tst *testing.T) {
	q := newQuadratic(5, 5)
	ds := NewDS()
	ds.SetOptimizable(q)
	ds.SetOutput(ioutil.Discard)
	ds.Run(1000)
	if math.Abs(q.x-1) > 1e-3 || math.Abs(q.y+2) > 1e-3 {
		tst.Error("Expected (1, -2), got ", q.x, q.y)
	}
}

func TestBFGS(tst *testing.T) {
	q := newQuadratic(5, 5)
	b := NewBFGS()
	b.SetOptimizable(q)
	b.SetOutput(ioutil.Discard)
	b.Run(100)
	if math.Abs(q.x-1) > 1e-2 || math.Abs(q.y+2) > 1e-2 {
		tst.Error("Expected (1, -2), got ", q.x, q.y)
	}
}

func TestNone(tst *testing.T) {
	q := newQuadratic(1, -2)
	n := NewNone()
	n.SetOptimizable(q)
	n.SetOutput(ioutil.Discard)
	n.Run(10)
	if n.GetL() != 0 {
		tst.Error("Expected 0, got ", n.GetL())
	}
}

// fixed is a model without parameters.
type fixed struct {
	quadratic
}

func (f *fixed) GetFloatParameters() FloatParameters {
	return nil
}

func TestMHNoParameters(tst *testing.T) {
	f := &fixed{}
	mh := NewMH(false, 0)
	mh.SetOptimizable(f)
	mh.SetOutput(ioutil.Discard)
	mh.PostProcessPeriod = 50
	mh.Run(200)
	if f.post != 3 {
		tst.Error("Expected 3 post processing calls, got ", f.post)
	}
	// the start only
	if f.stores != 1 || f.restores != 0 {
		tst.Error("Expected one store and no restores, got ", f.stores, "+", f.restores)
	}
	if l := mh.GetL(); math.Abs(l+5) > 1e-10 {
		tst.Error("Expected -5, got ", l)
	}
}
