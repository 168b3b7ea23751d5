package environment

// ProvisionStep names every distinguishable unit of work in the provision
// workflow, in execution order. The values are stable: they appear in
// persisted failure records.
type ProvisionStep string

const (
	ProvisionStepRenderTofuTemplates    ProvisionStep = "RenderOpenTofuTemplates"
	ProvisionStepTofuInit               ProvisionStep = "OpenTofuInit"
	ProvisionStepTofuValidate           ProvisionStep = "OpenTofuValidate"
	ProvisionStepTofuPlan               ProvisionStep = "OpenTofuPlan"
	ProvisionStepTofuApply              ProvisionStep = "OpenTofuApply"
	ProvisionStepGetInstanceInfo        ProvisionStep = "GetInstanceInfo"
	ProvisionStepRenderAnsibleTemplates ProvisionStep = "RenderAnsibleTemplates"
	ProvisionStepWaitSSHConnectivity    ProvisionStep = "WaitSshConnectivity"
	ProvisionStepCloudInitWait          ProvisionStep = "CloudInitWait"
)

// ProvisionFailureContext is the failure context attached to the
// ProvisionFailed state.
type ProvisionFailureContext struct {
	FailedStep ProvisionStep
	Kind       ErrorKind
	Base       BaseFailureContext
}

// ProvisionFailed is the error state for a failed provision workflow.
// Recovery goes through the destroy workflow: destroy and recreate.
type ProvisionFailed struct {
	env
	failure ProvisionFailureContext
}

// StateName implements Any.
func (ProvisionFailed) StateName() string { return StateNameProvisionFailed }

// Failure returns the context captured when provisioning failed.
func (p ProvisionFailed) Failure() ProvisionFailureContext { return p.failure }

// StartDestroying begins the destroy workflow.
func (p ProvisionFailed) StartDestroying() Destroying {
	return Destroying{env: p.env}
}

// AsProvisionFailed restores the typed ProvisionFailed state from the
// envelope.
func AsProvisionFailed(a Any) (ProvisionFailed, error) {
	if s, ok := a.(ProvisionFailed); ok {
		return s, nil
	}
	return ProvisionFailed{}, &UnexpectedStateError{Expected: StateNameProvisionFailed, Actual: a.StateName()}
}
