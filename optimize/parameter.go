package optimize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

const (
	// MIN and MAX bound random starting values of unbounded
	// parameters.
	MIN = -10
	MAX = +10
)

// FloatParameter is a real-valued model parameter.
type FloatParameter interface {
	Name() string
	Prior() float64
	OldPrior() float64
	Propose()
	Accept(int)
	Reject()
	String() string
	SetMin(float64)
	SetMax(float64)
	GetMin() float64
	GetMax() float64
	SetOnChange(func())
	SetProposalFunc(func(float64) float64)
	SetPriorFunc(func(float64) float64)
	Get() float64
	Set(float64)
	InRange() bool
	ValueInRange(float64) bool
}

// FloatParameterGenerator creates a parameter for a model variable.
type FloatParameterGenerator func(*float64, string) FloatParameter

// FloatParameters is a list of parameters.
type FloatParameters []FloatParameter

// Append adds a parameter.
func (p *FloatParameters) Append(par FloatParameter) {
	*p = append(*p, par)
}

// Names returns parameter names; is is reused if not nil.
func (p *FloatParameters) Names(is []string) (s []string) {
	if is == nil {
		s = make([]string, len(*p))
	} else {
		s = is
	}
	for i, par := range *p {
		s[i] = par.Name()
	}
	return
}

// Values returns parameter values; iv is reused if not nil.
func (p *FloatParameters) Values(iv []float64) (v []float64) {
	if iv == nil {
		v = make([]float64, len(*p))
	} else {
		v = iv
	}
	for i, par := range *p {
		v[i] = par.Get()
	}
	return
}

// ValuesMap returns parameter values indexed by names.
func (p *FloatParameters) ValuesMap() map[string]float64 {
	m := make(map[string]float64, len(*p))
	for _, par := range *p {
		m[par.Name()] = par.Get()
	}
	return m
}

// ValuesInRange checks that all the values are within parameter
// bounds.
func (p *FloatParameters) ValuesInRange(vals []float64) bool {
	if len(vals) != len(*p) {
		panic("Incorrect number of parameters")
	}
	for i, par := range *p {
		if !par.ValueInRange(vals[i]) {
			return false
		}
	}
	return true
}

// SetValues sets parameter values.
func (p *FloatParameters) SetValues(v []float64) error {
	if len(v) != len(*p) {
		return fmt.Errorf("incorrect number of parameters: expected %d, got %d", len(*p), len(v))
	}
	for i, par := range *p {
		par.Set(v[i])
	}
	return nil
}

// SetValuesMap sets parameter values from a map. Every parameter
// should be present.
func (p *FloatParameters) SetValuesMap(m map[string]float64) error {
	for _, par := range *p {
		v, ok := m[par.Name()]
		if !ok {
			return fmt.Errorf("no value for parameter %s", par.Name())
		}
		par.Set(v)
	}
	return nil
}

// Randomize sets random values within parameter bounds.
func (p *FloatParameters) Randomize() {
	for _, par := range *p {
		min := math.Max(MIN, par.GetMin())
		max := math.Min(MAX, par.GetMax())
		d := max - min
		par.Set(min + rand.Float64()*d)
	}
}

// InRange returns true if all the parameters are within bounds.
func (p *FloatParameters) InRange() bool {
	for _, par := range *p {
		if !par.InRange() {
			return false
		}
	}
	return true
}

// Prior returns the sum of log priors.
func (p *FloatParameters) Prior() (s float64) {
	for _, par := range *p {
		s += par.Prior()
	}
	return
}

// NamesString returns tab-separated names.
func (p *FloatParameters) NamesString() (s string) {
	for i, par := range *p {
		if i != 0 {
			s += "\t"
		}
		s += par.Name()
	}
	return
}

// ValuesString returns tab-separated values.
func (p *FloatParameters) ValuesString() (s string) {
	for i, par := range *p {
		if i != 0 {
			s += "\t"
		}
		s += par.String()
	}
	return
}

// MarshalJSON encodes parameters as a JSON object keeping the
// parameter order.
func (p FloatParameters) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, par := range p {
		if i != 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(par.Name())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(par.Get())
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON sets parameter values from a JSON object.
func (p *FloatParameters) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	return p.SetValuesMap(m)
}

// BasicFloatParameter is a parameter backed by a model variable.
type BasicFloatParameter struct {
	*float64
	old          float64
	name         string
	priorFunc    func(float64) float64
	proposalFunc func(float64) float64
	min          float64
	max          float64
	onChange     func()
}

// NewBasicFloatParameter creates a parameter for a variable.
func NewBasicFloatParameter(par *float64, name string) *BasicFloatParameter {
	return &BasicFloatParameter{
		float64:      par,
		name:         name,
		priorFunc:    UniformPrior(-1, 1, true, true),
		proposalFunc: NormalProposal(1),
		min:          math.Inf(-1),
		max:          math.Inf(+1),
	}
}

// BasicFloatParameterGenerator is a FloatParameterGenerator for
// basic parameters.
func BasicFloatParameterGenerator(par *float64, name string) FloatParameter {
	return NewBasicFloatParameter(par, name)
}

func (p *BasicFloatParameter) SetMin(min float64) {
	p.min = min
}

func (p *BasicFloatParameter) SetMax(max float64) {
	p.max = max
}

func (p *BasicFloatParameter) SetPriorFunc(f func(float64) float64) {
	p.priorFunc = f
}

func (p *BasicFloatParameter) SetProposalFunc(f func(float64) float64) {
	p.proposalFunc = f
}

// SetOnChange sets a function called every time the value changes.
func (p *BasicFloatParameter) SetOnChange(f func()) {
	p.onChange = f
}

func (p *BasicFloatParameter) Get() float64 {
	return *p.float64
}

func (p *BasicFloatParameter) Set(v float64) {
	if *p.float64 == v {
		// do nothing if value has not changed
		return
	}
	*p.float64 = v
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) GetMin() float64 {
	return p.min
}

func (p *BasicFloatParameter) GetMax() float64 {
	return p.max
}

func (p *BasicFloatParameter) ValueInRange(v float64) bool {
	return v >= p.min && v <= p.max
}

func (p *BasicFloatParameter) InRange() bool {
	return p.ValueInRange(*p.float64)
}

func (p *BasicFloatParameter) Name() string {
	return p.name
}

func (p *BasicFloatParameter) Prior() float64 {
	return p.priorFunc(*p.float64)
}

func (p *BasicFloatParameter) OldPrior() float64 {
	return p.priorFunc(p.old)
}

// reflect moves a proposed value back into bounds.
func (p *BasicFloatParameter) reflect() {
	for *p.float64 < p.min || *p.float64 > p.max {
		if *p.float64 < p.min {
			*p.float64 = p.min + (p.min - *p.float64)
		}
		if *p.float64 > p.max {
			*p.float64 = p.max - (*p.float64 - p.max)
		}
	}
}

func (p *BasicFloatParameter) Propose() {
	p.old, *p.float64 = *p.float64, p.proposalFunc(*p.float64)
	p.reflect()
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) Reject() {
	*p.float64, p.old = p.old, *p.float64
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) Accept(iter int) {
}

func (p *BasicFloatParameter) String() string {
	return strconv.FormatFloat(*p.float64, 'f', 6, 64)
}
