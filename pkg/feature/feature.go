// Package feature defines the contract every kernel subsystem implements.
//
// A Feature is a pluggable unit (logger, metrics endpoint, storage engine)
// that the kernel drives through a fixed lifecycle: option collection,
// option loading and validation, daemonization, preparation under the
// privilege gate, start, and stop. Features declare ordering and enablement
// relationships by name; the kernel resolves them into a single linear
// startup order.
package feature

import "github.com/marmos91/corekernel/pkg/options"

// Feature is the capability set the kernel requires from every subsystem.
//
// Lifecycle rules:
//   - CollectOptions runs once, in unspecified order, over enabled features.
//   - LoadOptions, ValidateOptions, Daemonize, Prepare and Start run in
//     dependency order; Stop and BeginShutdown run in reverse order.
//   - Features must not spawn goroutines or write persistent state before
//     Start. Writes that need elevated privileges belong in Prepare.
type Feature interface {
	// Name returns the unique feature name.
	Name() string

	// IsEnabled reports whether the feature takes part in the lifecycle.
	IsEnabled() bool

	// IsOptional reports whether the host considers the feature optional.
	IsOptional() bool

	// IsRequired is the complement of IsOptional.
	IsRequired() bool

	// StartsAfter lists features whose Prepare/Start must run before this
	// feature's. Names that are not registered are ignored for ordering.
	StartsAfter() []string

	// Requires lists features that must exist and be enabled whenever this
	// feature is enabled. Violations are fatal in the strict resolver pass.
	Requires() []string

	// EnableWith names at most one feature whose enabled state this feature
	// mirrors at fixed point. Empty means no follow-enablement.
	EnableWith() string

	// RequiresElevatedPrivileges reports whether Prepare must run with
	// elevated privileges.
	RequiresElevatedPrivileges() bool

	// SetEnabled sets the enabled state. It has no effect once the feature
	// has been force-disabled.
	SetEnabled(enabled bool)

	// Disable switches the feature off.
	Disable()

	// ForceDisable switches the feature off permanently; later SetEnabled
	// calls are ignored.
	ForceDisable()

	// CollectOptions registers the feature's option schema.
	CollectOptions(opts *options.Options)

	// LoadOptions reads parsed option values.
	LoadOptions(opts *options.Options)

	// ValidateOptions checks parsed values. A non-nil error is fatal.
	ValidateOptions(opts *options.Options) error

	// Daemonize runs process-control work before preparation.
	Daemonize() error

	// Prepare runs privileged setup. No goroutines, no unprivileged state.
	Prepare() error

	// Start brings the feature online. Goroutines may be spawned here.
	Start() error

	// Stop tears the feature down and joins any goroutines it started.
	Stop() error

	// BeginShutdown notifies the feature that shutdown has been requested.
	// Peers are still resolvable at this point.
	BeginShutdown()
}
