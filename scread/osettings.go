package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/scread/checkpoint"
	"bitbucket.org/Davydov/scread/optimize"
)

// optimizerSettings stores settings for creation of a new optimizer.
type optimizerSettings struct {
	method string
	model  optimize.Optimizable

	iterations  int
	report      int
	accept      int
	updateEvery int

	out io.Writer

	cpDB      *bolt.DB
	cpKey     string
	cpSeconds float64
	runID     string
}

// newOptimizerSettings creates a new optimizerSettings from
// the command line parameters (global variables).
func newOptimizerSettings(model optimize.Optimizable, out io.Writer, db *bolt.DB, runID string) *optimizerSettings {
	return &optimizerSettings{
		method: *method,
		model:  model,

		iterations:  *iterations,
		report:      *report,
		accept:      *accept,
		updateEvery: *updateEvery,

		out: out,

		cpDB:      db,
		cpKey:     *cpKey,
		cpSeconds: *cpSeconds,
		runID:     runID,
	}
}

// create creates and initializes a new optimizer from
// optimizerSettings. The checkpoint is loaded if there is one.
func (o *optimizerSettings) create() (optimize.Optimizer, error) {
	if len(o.model.GetFloatParameters()) == 0 && (o.method == "simplex" || o.method == "bfgs") {
		log.Warningf("Model has no free parameters (see --estimate-ado, --estimate-cov, --estimate-support), %s replaced by none", o.method)
		o.method = "none"
	}
	opt, err := o.getOptimizer()
	if err != nil {
		return nil, err
	}
	log.Infof("Using %s optimization.", o.method)

	opt.SetOutput(o.out)
	opt.SetOptimizable(o.model)
	opt.SetReportPeriod(o.report)
	opt.WatchSignals(os.Interrupt)

	if o.cpDB != nil {
		cpIO := checkpoint.NewCheckpointIO(o.cpDB, []byte(o.cpKey), o.cpSeconds)
		opt.SetCheckpointIO(cpIO, o.runID)
		if err := opt.LoadCheckpoint(); err != nil {
			return nil, fmt.Errorf("loading checkpoint: %v", err)
		}
	}
	return opt, nil
}

// getOptimizer returns an optimizer from settings.
func (o *optimizerSettings) getOptimizer() (optimize.Optimizer, error) {
	switch o.method {
	case "simplex":
		return optimize.NewDS(), nil
	case "bfgs":
		return optimize.NewBFGS(), nil
	case "mh":
		chain := optimize.NewMH(false, 0)
		chain.AccPeriod = o.accept
		chain.PostProcessPeriod = o.updateEvery
		return chain, nil
	case "annealing":
		chain := optimize.NewMH(true, 0)
		chain.AccPeriod = o.accept
		chain.PostProcessPeriod = o.updateEvery
		return chain, nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("Unknown optimization method: %s", o.method)
}

// openCheckpoint opens the checkpoint database, or returns nil if
// the name is empty.
func openCheckpoint(fn string) (*bolt.DB, error) {
	if fn == "" {
		return nil, nil
	}
	db, err := bolt.Open(fn, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %v", err)
	}
	return db, nil
}

// newRunID returns a random run identifier.
func newRunID() string {
	return uuid.New().String()
}
