package optimize

import (
	"math"
	"math/rand"
)

// MH is a Metropolis-Hastings sampler.
type MH struct {
	BaseOptimizer
	// AccPeriod is how often the acceptance rate is reported.
	AccPeriod int
	// PostProcessPeriod is how often (in iterations) a
	// PostProcessor model re-estimates its statistics; 0 disables
	// post processing.
	PostProcessPeriod int
	annealing         bool
	// iteration to skip before annealing
	annealingSkip int
}

// NewMH creates a new MH sampler.
func NewMH(annealing bool, annealingSkip int) (mcmc *MH) {
	mcmc = &MH{
		BaseOptimizer: BaseOptimizer{
			name:      "mh",
			repPeriod: 10,
		},
		AccPeriod:     100,
		annealing:     annealing,
		annealingSkip: annealingSkip,
	}
	return
}

// Run starts sampling. A model without parameters is only post
// processed.
func (m *MH) Run(iterations int) {
	m.SaveStart()
	m.PrintHeader()
	tr, transactional := m.Optimizable.(Transactional)
	pp, postProcessor := m.Optimizable.(PostProcessor)
	accepted := 0
	lastReported := -1
	l := m.l
Iter:
	for m.i = m.startI; m.i < iterations; m.i++ {
		var T float64
		if m.annealing && m.i >= m.annealingSkip {
			T = math.Pow(0.9, float64(m.i-m.annealingSkip)/float64(iterations-m.annealingSkip)*100)
		} else {
			T = 1
		}
		if m.i > m.startI && m.i%m.AccPeriod == 0 {
			log.Infof("Acceptance rate %.2f%%", 100*float64(accepted)/float64(m.AccPeriod))
			accepted = 0
		}

		if postProcessor && m.PostProcessPeriod > 0 && m.i > m.startI && m.i%m.PostProcessPeriod == 0 {
			newL, err := pp.PostProcess()
			if err != nil {
				log.Errorf("Post processing failed: %v", err)
				break Iter
			}
			log.Debugf("%d: post processing L=%f -> %f", m.i, l, newL)
			l = newL
			m.l = l
			m.updateMax(l)
		}

		m.PrintLine(l, m.repPeriod)
		if m.i%m.repPeriod == 0 {
			if m.annealing {
				log.Debugf("%d: L=%f, T=%f", m.i, l, T)
			} else {
				log.Debugf("%d: L=%f", m.i, l)
			}
			lastReported = m.i
			m.SaveCheckpoint(false)
		}
		if len(m.parameters) == 0 {
			// nothing to propose, only post processing
			if m.signalled() {
				break Iter
			}
			continue
		}
		p := rand.Intn(len(m.parameters))
		par := m.parameters[p]
		par.Propose()
		newL := m.Likelihood()
		m.calls++

		var a float64
		if m.annealing {
			a = math.Exp((newL - l) / T)
		} else {
			a = math.Exp((par.Prior() - par.OldPrior() + newL - l))
		}

		if a > 1 || rand.Float64() < a {
			l = newL
			m.l = l
			par.Accept(m.i)
			if transactional {
				tr.Store()
			}
			accepted++
			m.updateMax(l)
		} else {
			// Restore after Reject: restoring marks the model
			// clean, rejecting marks it dirty.
			par.Reject()
			if transactional {
				tr.Restore()
			}
		}

		if m.signalled() {
			break Iter
		}
	}

	if m.i != lastReported {
		m.PrintLine(l, 1)
	}

	m.saveDeltaT()
	m.SaveCheckpoint(true)
	m.PrintFinal()
}
