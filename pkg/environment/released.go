package environment

// Released means the tracker stack artifacts are on the instance, ready to
// be started.
type Released struct {
	env
}

// StateName implements Any.
func (Released) StateName() string { return StateNameReleased }

// StartRunning begins the run workflow.
func (r Released) StartRunning() Running {
	return Running{env: r.env}
}

// StartDestroying begins the destroy workflow.
func (r Released) StartDestroying() Destroying {
	return Destroying{env: r.env}
}

// AsReleased restores the typed Released state from the envelope.
func AsReleased(a Any) (Released, error) {
	if s, ok := a.(Released); ok {
		return s, nil
	}
	return Released{}, &UnexpectedStateError{Expected: StateNameReleased, Actual: a.StateName()}
}
