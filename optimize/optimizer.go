// Package optimize implements model parameters, priors, proposals,
// a Metropolis-Hastings sampler and maximum likelihood optimizers.
package optimize

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/checkpoint"
)

var log = logging.MustGetLogger("optimize")

// Optimizable is a model which can be optimized or sampled.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Likelihood() float64
	Copy() Optimizable
}

// Transactional is implemented by models which can cheaply keep the
// last accepted state. Store is called after an accepted step,
// Restore after a rejected one.
type Transactional interface {
	Store()
	Restore()
}

// PostProcessor is implemented by models which re-estimate internal
// statistics between iterations. PostProcess returns the new
// likelihood.
type PostProcessor interface {
	PostProcess() (float64, error)
}

// Stateful is implemented by models which store more than parameter
// values in checkpoints.
type Stateful interface {
	MarshalState() ([]byte, error)
	UnmarshalState([]byte) error
}

// Optimizer is an optimizer or a sampler.
type Optimizer interface {
	SetOptimizable(Optimizable)
	SetOutput(io.Writer)
	SetCheckpointIO(*checkpoint.CheckpointIO, string)
	LoadCheckpoint() error
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	Run(iterations int)
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
	Summary() Summary
}

// Summary is an optimizer run summary.
type Summary struct {
	Algorithm       string             `json:"algorithm"`
	LikelihoodCalls int                `json:"likelihoodCalls"`
	Iterations      int                `json:"iterations"`
	StartLnL        float64            `json:"startLnL"`
	FinalLnL        float64            `json:"finalLnL"`
	MaxLnL          float64            `json:"maxLnL"`
	MaxLParameters  map[string]float64 `json:"maxLParameters"`
	Time            float64            `json:"time"`
}

// BaseOptimizer contains the code shared by all the optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	name       string
	i          int
	startI     int
	l          float64
	startL     float64
	maxL       float64
	maxLPar    []float64
	repPeriod  int
	calls      int
	start      time.Time
	deltaT     float64
	sig        chan os.Signal
	out        io.Writer
	cpIO       *checkpoint.CheckpointIO
	runID      string
	// Quiet disables printing the iteration table.
	Quiet bool
}

func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
	o.maxL = math.Inf(-1)
}

// SetOutput sets where the iteration table is written, standard
// output by default.
func (o *BaseOptimizer) SetOutput(w io.Writer) {
	o.out = w
}

// SetCheckpointIO enables checkpointing.
func (o *BaseOptimizer) SetCheckpointIO(cpIO *checkpoint.CheckpointIO, runID string) {
	o.cpIO = cpIO
	o.runID = runID
}

// WatchSignals makes the optimizer stop after receiving one of the
// signals.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetReportPeriod sets how often the iteration table is printed.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

func (o *BaseOptimizer) output() io.Writer {
	if o.out == nil {
		return os.Stdout
	}
	return o.out
}

// PrintHeader prints the iteration table header.
func (o *BaseOptimizer) PrintHeader() {
	if !o.Quiet {
		fmt.Fprintf(o.output(), "iteration\tlikelihood\t%s\n", o.parameters.NamesString())
	}
}

// PrintLine prints a line of iteration table every repPeriod
// iterations.
func (o *BaseOptimizer) PrintLine(l float64, repPeriod int) {
	if !o.Quiet && repPeriod > 0 && o.i%repPeriod == 0 {
		fmt.Fprintf(o.output(), "%d\t%f\t%s\n", o.i, l, o.parameters.ValuesString())
	}
}

// PrintFinal logs the final parameter values.
func (o *BaseOptimizer) PrintFinal() {
	log.Noticef("Maximum likelihood: %v", o.maxL)
	log.Infof("Parameter  names: %v", o.parameters.NamesString())
	log.Infof("Parameter values: %v", o.parameters.ValuesString())
}

// SaveStart computes the starting likelihood.
func (o *BaseOptimizer) SaveStart() {
	o.start = time.Now()
	o.l = o.Likelihood()
	o.calls++
	o.startL = o.l
	o.updateMax(o.l)
	if t, ok := o.Optimizable.(Transactional); ok {
		t.Store()
	}
}

func (o *BaseOptimizer) updateMax(l float64) {
	if l > o.maxL {
		o.maxL = l
		o.maxLPar = o.parameters.Values(o.maxLPar)
	}
}

func (o *BaseOptimizer) saveDeltaT() {
	o.deltaT = time.Since(o.start).Seconds()
}

// signalled returns true if a watched signal was received.
func (o *BaseOptimizer) signalled() bool {
	select {
	case s := <-o.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
		return false
	}
}

// LoadCheckpoint sets parameter values and model state from the
// checkpoint if there is one.
func (o *BaseOptimizer) LoadCheckpoint() error {
	if o.cpIO == nil {
		return nil
	}
	data, err := o.cpIO.Load()
	if err != nil || data == nil {
		return err
	}
	if err := o.parameters.SetValuesMap(data.Parameters); err != nil {
		return err
	}
	if st, ok := o.Optimizable.(Stateful); ok && len(data.State) > 0 {
		if err := st.UnmarshalState(data.State); err != nil {
			return err
		}
	}
	o.startI = data.Iter
	log.Infof("Resuming from iteration %d", data.Iter)
	return nil
}

// SaveCheckpoint saves the current state if checkpointing is enabled
// and the last checkpoint is old enough. The final checkpoint is
// always saved.
func (o *BaseOptimizer) SaveCheckpoint(final bool) {
	if o.cpIO == nil || !(final || o.cpIO.Old()) {
		return
	}
	data := &checkpoint.CheckpointData{
		RunID:      o.runID,
		Parameters: o.parameters.ValuesMap(),
		Likelihood: o.l,
		Iter:       o.i,
		Final:      final,
	}
	if st, ok := o.Optimizable.(Stateful); ok {
		state, err := st.MarshalState()
		if err != nil {
			log.Errorf("Cannot save model state: %v", err)
			return
		}
		data.State = json.RawMessage(state)
	}
	// errors are logged by checkpoint
	_ = o.cpIO.Save(data)
}

func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Summary returns the run summary.
func (o *BaseOptimizer) Summary() Summary {
	s := Summary{
		Algorithm:       o.name,
		LikelihoodCalls: o.calls,
		Iterations:      o.i,
		StartLnL:        o.startL,
		FinalLnL:        o.l,
		MaxLnL:          o.maxL,
		MaxLParameters:  make(map[string]float64, len(o.parameters)),
		Time:            o.deltaT,
	}
	for i, par := range o.parameters {
		if i < len(o.maxLPar) {
			s.MaxLParameters[par.Name()] = o.maxLPar[i]
		}
	}
	return s
}
