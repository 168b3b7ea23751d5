package environment

import "net/netip"

// Provisioning is the in-progress state while the provision workflow creates
// infrastructure.
type Provisioning struct {
	env
}

// StateName implements Any.
func (Provisioning) StateName() string { return StateNameProvisioning }

// Provisioned completes provisioning with the address of the new instance.
func (p Provisioning) Provisioned(ip netip.Addr) Provisioned {
	e := p.env
	e.instanceIP = ip
	return Provisioned{env: e}
}

// ProvisionFailed records a provision workflow failure. The context is built
// by the workflow handler; the state machine only stores it.
func (p Provisioning) ProvisionFailed(ctx ProvisionFailureContext) ProvisionFailed {
	return ProvisionFailed{env: p.env, failure: ctx}
}

// AsProvisioning restores the typed Provisioning state from the envelope.
func AsProvisioning(a Any) (Provisioning, error) {
	if s, ok := a.(Provisioning); ok {
		return s, nil
	}
	return Provisioning{}, &UnexpectedStateError{Expected: StateNameProvisioning, Actual: a.StateName()}
}
