package main

import (
	"fmt"

	"bitbucket.org/Davydov/scread/starlh"
)

// prepare creates the model and re-estimates allelic statistics if
// required.
func prepare(counts string, reestimate bool, summary *RunSummary) (*starlh.Model, *modelSettings, error) {
	ms := newModelSettings(counts)
	m, err := ms.createModel()
	if err != nil {
		return nil, nil, err
	}
	if reestimate && m.NeedsUpdate() {
		l, err := m.Reestimate()
		if err != nil {
			return nil, nil, err
		}
		log.Infof("Re-estimated allelic statistics, lnL=%v", l)
	}
	summary.LnL = m.Likelihood()
	summary.Model = ms.modelSummary(m)
	return m, ms, nil
}

func runLikelihood(summary *RunSummary) error {
	if _, _, err := prepare(*likelihoodAli, *likelihoodRe, summary); err != nil {
		return err
	}
	log.Noticef("lnL=%v", summary.LnL)
	_, err := fmt.Println(summary.LnL)
	return err
}

func runSample(summary *RunSummary) error {
	ms := newModelSettings(*sampleAli)
	m, err := ms.createModel()
	if err != nil {
		return err
	}

	f, err := create(*outF)
	if err != nil {
		return fmt.Errorf("creating trajectory file: %v", err)
	}
	defer closeFile(f)

	db, err := openCheckpoint(*cpF)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	opt, err := newOptimizerSettings(m, f, db, summary.RunID).create()
	if err != nil {
		return err
	}
	opt.Run(*iterations)
	s := opt.Summary()
	summary.Optimizer = &s
	summary.LnL = opt.GetL()
	summary.Model = ms.modelSummary(m)

	if *covarF != "" && !m.NeedsUpdate() {
		log.Warning("Allelic statistics are not estimated, not writing them")
	} else if *covarF != "" {
		cf, err := create(*covarF)
		if err != nil {
			return err
		}
		defer closeFile(cf)
		return m.WriteCovar(cf)
	}
	return nil
}

func runCall(summary *RunSummary) error {
	m, _, err := prepare(*callAli, true, summary)
	if err != nil {
		return err
	}
	calls, err := m.Calls()
	if err != nil {
		return err
	}
	f, err := create(*callOut)
	if err != nil {
		return err
	}
	defer closeFile(f)
	summary.Calls = len(calls)
	return starlh.WriteCalls(f, calls)
}

func runCovar(summary *RunSummary) error {
	m, _, err := prepare(*covarAli, true, summary)
	if err != nil {
		return err
	}
	f, err := create(*covarOut)
	if err != nil {
		return err
	}
	defer closeFile(f)
	return m.WriteCovar(f)
}
