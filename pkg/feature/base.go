package feature

import "github.com/marmos91/corekernel/pkg/options"

// Base carries the declarative state shared by all features. Concrete
// features embed it and override the lifecycle hooks they need; the zero
// hooks are no-ops so a feature only implements the phases it cares about.
//
// Example:
//
//	type cacheFeature struct {
//	    feature.Base
//	}
//
//	func newCacheFeature() *cacheFeature {
//	    f := &cacheFeature{Base: feature.NewBase("cache")}
//	    f.SetStartsAfter("logging")
//	    return f
//	}
type Base struct {
	name          string
	enabled       bool
	forceDisabled bool
	optional      bool
	elevated      bool
	startsAfter   []string
	requires      []string
	enableWith    string
}

// NewBase creates the state for a named feature. Features start enabled.
func NewBase(name string) Base {
	if name == "" {
		panic("feature name must not be empty")
	}
	return Base{name: name, enabled: true}
}

func (b *Base) Name() string      { return b.name }
func (b *Base) IsEnabled() bool   { return b.enabled }
func (b *Base) IsOptional() bool  { return b.optional }
func (b *Base) IsRequired() bool  { return !b.optional }
func (b *Base) EnableWith() string { return b.enableWith }

func (b *Base) StartsAfter() []string { return b.startsAfter }
func (b *Base) Requires() []string    { return b.requires }

func (b *Base) RequiresElevatedPrivileges() bool { return b.elevated }

// SetEnabled sets the enabled state unless the feature was force-disabled;
// force-disable is sticky.
func (b *Base) SetEnabled(enabled bool) {
	if b.forceDisabled {
		return
	}
	b.enabled = enabled
}

// Disable switches the feature off.
func (b *Base) Disable() { b.enabled = false }

// ForceDisable switches the feature off and pins it there.
func (b *Base) ForceDisable() {
	b.enabled = false
	b.forceDisabled = true
}

// IsForceDisabled reports whether the feature was permanently disabled.
func (b *Base) IsForceDisabled() bool { return b.forceDisabled }

// SetOptional marks the feature optional for the host.
func (b *Base) SetOptional(optional bool) { b.optional = optional }

// SetRequiresElevatedPrivileges marks the Prepare hook as privileged.
func (b *Base) SetRequiresElevatedPrivileges(elevated bool) { b.elevated = elevated }

// SetStartsAfter declares ordering constraints against the named features.
func (b *Base) SetStartsAfter(names ...string) {
	b.startsAfter = append(b.startsAfter, names...)
}

// SetRequires declares hard dependencies on the named features.
func (b *Base) SetRequires(names ...string) {
	b.requires = append(b.requires, names...)
}

// SetEnableWith makes this feature's enabled state follow the named feature.
func (b *Base) SetEnableWith(name string) { b.enableWith = name }

// Default no-op lifecycle hooks.

func (b *Base) CollectOptions(*options.Options)        {}
func (b *Base) LoadOptions(*options.Options)           {}
func (b *Base) ValidateOptions(*options.Options) error { return nil }
func (b *Base) Daemonize() error                       { return nil }
func (b *Base) Prepare() error                         { return nil }
func (b *Base) Start() error                           { return nil }
func (b *Base) Stop() error                            { return nil }
func (b *Base) BeginShutdown()                         {}
