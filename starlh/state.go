package starlh

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNoPosterior = errors.New("posterior is undefined")

// statistics is implemented by depth models with per locus allelic
// statistics.
type statistics interface {
	Statistics(matrix, pattern int) (cov, rawVar float64)
	SetStatistics(matrix, pattern int, cov, rawVar float64)
}

type locusState struct {
	Cov float64 `json:"cov"`
	Var float64 `json:"var"`
}

// MarshalState returns allelic statistics indexed as [matrix][locus].
// Models without per locus statistics produce null.
func (m *Model) MarshalState() ([]byte, error) {
	if _, ok := m.shards[0].model.Depth().(statistics); !ok {
		return json.Marshal(nil)
	}
	nM := m.shards[0].model.NMatrices()
	state := make([][]locusState, nM)
	for matrix := range state {
		state[matrix] = make([]locusState, m.ali.NLoci())
	}
	start := 0
	for _, s := range m.shards {
		st := s.model.Depth().(statistics)
		for l := 0; l < s.ali.NLoci(); l++ {
			ol := start + l
			for matrix := 0; matrix < nM; matrix++ {
				cov, rawVar := st.Statistics(matrix, s.ali.PatternIndex(l))
				state[matrix][ol] = locusState{cov, rawVar}
			}
		}
		start += s.ali.NLoci()
	}
	return json.Marshal(state)
}

// UnmarshalState restores allelic statistics saved by MarshalState
// and accepts the new state.
func (m *Model) UnmarshalState(data []byte) error {
	var state [][]locusState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	if _, ok := m.shards[0].model.Depth().(statistics); !ok {
		return errors.New("depth model has no per locus statistics")
	}
	if len(state) != m.shards[0].model.NMatrices() {
		return fmt.Errorf("expected %d matrices, got %d", m.shards[0].model.NMatrices(), len(state))
	}
	for matrix, row := range state {
		if len(row) != m.ali.NLoci() {
			return fmt.Errorf("matrix %d: expected %d loci, got %d", matrix, m.ali.NLoci(), len(row))
		}
	}
	start := 0
	for _, s := range m.shards {
		st := s.model.Depth().(statistics)
		for l := 0; l < s.ali.NLoci(); l++ {
			ol := start + l
			for matrix, row := range state {
				st.SetStatistics(matrix, s.ali.PatternIndex(l), row[ol].Cov, row[ol].Var)
			}
		}
		s.model.StoreStatistics()
		s.stale = true
		start += s.ali.NLoci()
	}
	if _, err := m.likelihood(); err != nil {
		return err
	}
	m.Store()
	return nil
}
