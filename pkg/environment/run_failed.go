package environment

// RunStep names the units of work in the run workflow.
type RunStep string

const (
	RunStepStartServices     RunStep = "StartServices"
	RunStepWaitServiceHealth RunStep = "WaitServiceHealth"
)

// RunFailureContext is the failure context attached to the RunFailed state.
type RunFailureContext struct {
	FailedStep RunStep
	Kind       ErrorKind
	Base       BaseFailureContext
}

// RunFailed is the error state for a failed run workflow.
type RunFailed struct {
	env
	failure RunFailureContext
}

// StateName implements Any.
func (RunFailed) StateName() string { return StateNameRunFailed }

// Failure returns the context captured when the run failed.
func (r RunFailed) Failure() RunFailureContext { return r.failure }

// StartDestroying begins the destroy workflow.
func (r RunFailed) StartDestroying() Destroying {
	return Destroying{env: r.env}
}

// AsRunFailed restores the typed RunFailed state from the envelope.
func AsRunFailed(a Any) (RunFailed, error) {
	if s, ok := a.(RunFailed); ok {
		return s, nil
	}
	return RunFailed{}, &UnexpectedStateError{Expected: StateNameRunFailed, Actual: a.StateName()}
}
