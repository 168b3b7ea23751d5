// Package environment contains the deployment environment aggregate and its
// lifecycle state machine.
//
// An environment moves through a fixed transition graph:
//
//	Created -> Provisioning -> Provisioned -> Configuring -> Configured
//	  -> Releasing -> Released -> Running
//
// with one failure state per workflow (ProvisionFailed, ConfigureFailed,
// ReleaseFailed, RunFailed, DestroyFailed) and a destroy path
// (Destroying -> Destroyed) reachable from every settled or failed state.
//
// Each lifecycle state is a distinct Go type carrying the full aggregate, so
// a transition method exists only on the state that legally allows it and
// returns a fresh value in the destination state. The Any interface is the
// type-erased envelope used at the persistence boundary; As<State> functions
// restore the typed form and fail when the stored state does not match.
package environment
