package environment

// ReleaseStep names the units of work in the release workflow.
type ReleaseStep string

const (
	ReleaseStepRenderComposeTemplates ReleaseStep = "RenderComposeTemplates"
	ReleaseStepTransferFiles          ReleaseStep = "TransferFiles"
	ReleaseStepValidateStack          ReleaseStep = "ValidateStack"
)

// ReleaseFailureContext is the failure context attached to the ReleaseFailed
// state.
type ReleaseFailureContext struct {
	FailedStep ReleaseStep
	Kind       ErrorKind
	Base       BaseFailureContext
}

// ReleaseFailed is the error state for a failed release workflow.
type ReleaseFailed struct {
	env
	failure ReleaseFailureContext
}

// StateName implements Any.
func (ReleaseFailed) StateName() string { return StateNameReleaseFailed }

// Failure returns the context captured when the release failed.
func (r ReleaseFailed) Failure() ReleaseFailureContext { return r.failure }

// StartDestroying begins the destroy workflow.
func (r ReleaseFailed) StartDestroying() Destroying {
	return Destroying{env: r.env}
}

// AsReleaseFailed restores the typed ReleaseFailed state from the envelope.
func AsReleaseFailed(a Any) (ReleaseFailed, error) {
	if s, ok := a.(ReleaseFailed); ok {
		return s, nil
	}
	return ReleaseFailed{}, &UnexpectedStateError{Expected: StateNameReleaseFailed, Actual: a.StateName()}
}
