package environment

// DestroyStep names the units of work in the destroy workflow.
type DestroyStep string

const (
	DestroyStepLoadEnvironment       DestroyStep = "LoadEnvironment"
	DestroyStepDestroyInfrastructure DestroyStep = "DestroyInfrastructure"
	DestroyStepCleanupStateFiles     DestroyStep = "CleanupStateFiles"
)

// DestroyFailureContext is the failure context attached to the DestroyFailed
// state.
type DestroyFailureContext struct {
	FailedStep DestroyStep
	Kind       ErrorKind
	Base       BaseFailureContext
}

// DestroyFailed is the error state for a failed destroy workflow. Unlike the
// other failure states it keeps a direct retry edge back to Destroying.
type DestroyFailed struct {
	env
	failure DestroyFailureContext
}

// StateName implements Any.
func (DestroyFailed) StateName() string { return StateNameDestroyFailed }

// Failure returns the context captured when destruction failed.
func (d DestroyFailed) Failure() DestroyFailureContext { return d.failure }

// StartDestroying retries the destroy workflow.
func (d DestroyFailed) StartDestroying() Destroying {
	return Destroying{env: d.env}
}

// AsDestroyFailed restores the typed DestroyFailed state from the envelope.
func AsDestroyFailed(a Any) (DestroyFailed, error) {
	if s, ok := a.(DestroyFailed); ok {
		return s, nil
	}
	return DestroyFailed{}, &UnexpectedStateError{Expected: StateNameDestroyFailed, Actual: a.StateName()}
}
