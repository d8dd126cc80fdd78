package optimize

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	gopt "gonum.org/v1/gonum/optimize"
)

// BFGS is a quasi-Newton maximizer with finite difference gradients.
type BFGS struct {
	BaseOptimizer
	dH float64
}

// NewBFGS creates a new BFGS optimizer.
func NewBFGS() (bfgs *BFGS) {
	bfgs = &BFGS{
		BaseOptimizer: BaseOptimizer{
			name:      "bfgs",
			repPeriod: 10,
		},
		dH: 1e-6,
	}
	return
}

// Init is a part of gonum optimize.Recorder interface.
func (b *BFGS) Init() error {
	return nil
}

// Record is a part of gonum optimize.Recorder interface.
func (b *BFGS) Record(l *gopt.Location, op gopt.Operation, s *gopt.Stats) error {
	if op == gopt.MajorIteration {
		b.i = s.MajorIterations
		b.PrintLine(-l.F, b.repPeriod)
		b.SaveCheckpoint(false)
	}
	if b.signalled() {
		return errors.New("exiting by signal")
	}
	return nil
}

func (b *BFGS) negLikelihood(x []float64) float64 {
	if !b.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}
	// the length is checked by ValuesInRange
	_ = b.parameters.SetValues(x)
	l := b.Likelihood()
	b.calls++
	b.updateMax(l)
	return -l
}

func (b *BFGS) gradient(grad, x []float64) {
	formula := fd.Forward
	for i, par := range b.parameters {
		if !par.ValueInRange(x[i] + b.dH) {
			formula = fd.Backward
			break
		}
	}
	fd.Gradient(grad, b.negLikelihood, x, &fd.Settings{Formula: formula, Step: b.dH})
	// restore parameter values
	_ = b.parameters.SetValues(x)
}

// Run maximizes the likelihood.
func (b *BFGS) Run(iterations int) {
	b.SaveStart()
	b.PrintHeader()
	problem := gopt.Problem{
		Func: b.negLikelihood,
		Grad: b.gradient,
	}
	settings := &gopt.Settings{
		MajorIterations:   iterations,
		GradientThreshold: 1e-3,
		Recorder:          b,
	}

	res, err := gopt.Minimize(problem, b.parameters.Values(nil), settings, &gopt.BFGS{})
	if err != nil {
		log.Warningf("Optimization error: %v", err)
	}
	if res != nil {
		log.Infof("BFGS finished: %v", res.Status)
	}

	if b.maxLPar != nil {
		_ = b.parameters.SetValues(b.maxLPar)
	}
	b.l = b.Likelihood()
	b.calls++
	b.saveDeltaT()
	b.SaveCheckpoint(true)
	b.PrintFinal()
}
