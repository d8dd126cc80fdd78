package optimize

// LinkedParameter is a parameter whose value is copied to followers
// every time it changes. It is used when several model replicas
// share a parameter.
type LinkedParameter struct {
	FloatParameter
	followers []FloatParameter
}

// NewLinkedParameter creates a parameter linking followers to the
// leader. Followers get the leader value immediately.
func NewLinkedParameter(leader FloatParameter, followers ...FloatParameter) *LinkedParameter {
	p := &LinkedParameter{
		FloatParameter: leader,
		followers:      followers,
	}
	p.sync()
	return p
}

func (p *LinkedParameter) sync() {
	v := p.Get()
	for _, f := range p.followers {
		f.Set(v)
	}
}

func (p *LinkedParameter) Set(v float64) {
	p.FloatParameter.Set(v)
	p.sync()
}

func (p *LinkedParameter) Propose() {
	p.FloatParameter.Propose()
	p.sync()
}

func (p *LinkedParameter) Reject() {
	p.FloatParameter.Reject()
	p.sync()
}

// LinkParameters links parameters with the same names of several
// replicas; the first replica leads.
func LinkParameters(replicas ...FloatParameters) (linked FloatParameters) {
	if len(replicas) == 0 {
		return nil
	}
	for i, leader := range replicas[0] {
		followers := make([]FloatParameter, 0, len(replicas)-1)
		for _, r := range replicas[1:] {
			for _, f := range r {
				if f.Name() == leader.Name() {
					followers = append(followers, f)
					break
				}
			}
		}
		if len(followers) != len(replicas)-1 {
			log.Warningf("Parameter %s (%d) is missing in some replicas", leader.Name(), i)
		}
		linked.Append(NewLinkedParameter(leader, followers...))
	}
	return
}
