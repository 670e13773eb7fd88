package kernel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kernel's failure taxonomy. Callers match them with
// errors.Is; the wrapping message names the features involved.
var (
	// ErrUnknownFeature is returned by Feature for an unregistered name.
	ErrUnknownFeature = errors.New("unknown feature")

	// ErrFeatureNotEnabled is returned when a disabled feature is consulted
	// where an enabled one is required.
	ErrFeatureNotEnabled = errors.New("feature is not enabled")

	// ErrMissingDependency is returned by the strict resolver pass when an
	// enabled feature requires a feature that does not exist.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrDisabledDependency is returned by the strict resolver pass when an
	// enabled feature requires a feature that is disabled.
	ErrDisabledDependency = errors.New("disabled dependency")

	// ErrDependencyCycle is returned by the strict resolver pass when the
	// starts-after graph of enabled features contains a cycle.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrPrivilegeViolation is returned when privileges are raised or
	// dropped after the permanent drop.
	ErrPrivilegeViolation = errors.New("privilege invariant violated")

	// ErrDuplicateFeature is raised (via panic) when a feature name is
	// registered twice.
	ErrDuplicateFeature = errors.New("duplicate feature")
)

// LifecycleError wraps a failure from a feature's lifecycle hook, naming the
// feature and the phase in which it failed.
type LifecycleError struct {
	Feature string
	Phase   Phase
	Err     error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("feature %q failed in phase %s: %v", e.Feature, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }
