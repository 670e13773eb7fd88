// Package kernel implements the application lifecycle orchestrator: a
// process-wide registry of features, a dependency resolver producing one
// deterministic startup order, and the phase driver that walks every enabled
// feature through options, preparation, start and stop around the one-shot
// privilege fence.
package kernel

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/pkg/feature"
	"github.com/marmos91/corekernel/pkg/options"
)

var (
	instanceMu sync.Mutex
	instance   *Server
)

// Instance returns the process-wide kernel handle, or nil before New. It
// exists so features can resolve peers by name from inside their own
// lifecycle hooks.
func Instance() *Server {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

// PhaseObserver is notified after every completed phase with its duration.
type PhaseObserver func(phase Phase, elapsed time.Duration)

// Server owns the features and drives them through the lifecycle. All phase
// work runs on the goroutine that calls Run; only BeginShutdown may be
// called from elsewhere.
type Server struct {
	opts *options.Options

	features map[string]feature.Feature
	// added keeps registration order; the resolver and the dependency dump
	// iterate it so identical registries produce identical output.
	added []string

	ordered []feature.Feature

	phase      Phase
	phaseStart time.Time
	gate       privilegeGate

	stopping     atomic.Bool
	stopCh       chan struct{}
	shutdownOnce sync.Once

	observers []PhaseObserver

	dumpDependencies bool

	// out receives help and dependency-dump output. Defaults to stdout.
	out io.Writer
}

// New creates a kernel around the given option registry and installs it as
// the process-wide instance. Constructing a second kernel while one is live
// is reported and the new one wins, matching teardown via Close.
func New(opts *options.Options) *Server {
	s := &Server{
		opts:     opts,
		features: make(map[string]feature.Feature),
		stopCh:   make(chan struct{}),
		out:      os.Stdout,
	}

	instanceMu.Lock()
	if instance != nil {
		logger.Error("Kernel initialized twice")
	}
	instance = s
	instanceMu.Unlock()

	return s
}

// Close releases the process-wide handle. Features are torn down by the
// stop phase; the registry itself holds no other resources.
func (s *Server) Close() {
	instanceMu.Lock()
	if instance == s {
		instance = nil
	}
	instanceMu.Unlock()
}

// SetOutput redirects help and dependency-dump output, mainly for tests.
func (s *Server) SetOutput(w io.Writer) { s.out = w }

// AddPhaseObserver registers a callback invoked after each completed phase.
// Must be called before Run.
func (s *Server) AddPhaseObserver(obs PhaseObserver) {
	s.observers = append(s.observers, obs)
}

// Options returns the option registry the kernel was built with.
func (s *Server) Options() *options.Options { return s.opts }

// StructuredOptions exports the sealed configuration as a nested document,
// omitting the given option paths.
func (s *Server) StructuredOptions(excludes map[string]struct{}) map[string]any {
	return s.opts.ToStructured(excludes)
}

// AddFeature registers a feature. The kernel owns it for the rest of the
// process lifetime. Registering two features with the same name is a
// programmer error and panics.
func (s *Server) AddFeature(f feature.Feature) {
	name := f.Name()
	if _, exists := s.features[name]; exists {
		panic(fmt.Errorf("%w: %q", ErrDuplicateFeature, name))
	}
	s.features[name] = f
	s.added = append(s.added, name)
}

// Exists reports whether a feature with the given name is registered.
func (s *Server) Exists(name string) bool {
	_, ok := s.features[name]
	return ok
}

// Feature returns the named feature or ErrUnknownFeature.
func (s *Server) Feature(name string) (feature.Feature, error) {
	f, ok := s.features[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	return f, nil
}

// EnabledFeature returns the named feature, failing with
// ErrFeatureNotEnabled when it exists but is disabled.
func (s *Server) EnabledFeature(name string) (feature.Feature, error) {
	f, err := s.Feature(name)
	if err != nil {
		return nil, err
	}
	if !f.IsEnabled() {
		return nil, fmt.Errorf("%w: %q", ErrFeatureNotEnabled, name)
	}
	return f, nil
}

// TryFeature returns the named feature if present. It never fails.
func (s *Server) TryFeature(name string) (feature.Feature, bool) {
	f, ok := s.features[name]
	return f, ok
}

// IsEnabled reports the enabled state of the named feature.
func (s *Server) IsEnabled(name string) (bool, error) {
	f, err := s.Feature(name)
	if err != nil {
		return false, err
	}
	return f.IsEnabled(), nil
}

// IsOptional reports the optional flag of the named feature.
func (s *Server) IsOptional(name string) (bool, error) {
	f, err := s.Feature(name)
	if err != nil {
		return false, err
	}
	return f.IsOptional(), nil
}

// IsRequired reports the required flag of the named feature.
func (s *Server) IsRequired(name string) (bool, error) {
	f, err := s.Feature(name)
	if err != nil {
		return false, err
	}
	return f.IsRequired(), nil
}

// DisableFeatures disables the named features. Unknown names are ignored.
func (s *Server) DisableFeatures(names ...string) {
	s.mutateFeatures(names, func(f feature.Feature) { f.Disable() })
}

// ForceDisableFeatures permanently disables the named features. Unknown
// names are ignored.
func (s *Server) ForceDisableFeatures(names ...string) {
	s.mutateFeatures(names, func(f feature.Feature) { f.ForceDisable() })
}

func (s *Server) mutateFeatures(names []string, mutate func(feature.Feature)) {
	if s.phase >= PhaseOrdered {
		panic("kernel: enablement is frozen once the feature order is committed")
	}
	for _, name := range names {
		if f, ok := s.features[name]; ok {
			mutate(f)
		}
	}
}

// Apply invokes the callback for every feature, or every enabled feature
// when enabledOnly is set. The iteration order is unspecified; callers must
// not depend on it.
func (s *Server) Apply(fn func(feature.Feature), enabledOnly bool) {
	for _, f := range s.features {
		if !enabledOnly || f.IsEnabled() {
			fn(f)
		}
	}
}

// ResolveOrder runs the automatic-enablement pass and the soft dependency
// pass, returning the computed startup order of enabled features. Intended
// for inspection commands; it does not advance the phase machine.
func (s *Server) ResolveOrder() ([]string, error) {
	if err := s.enableAutomaticFeatures(); err != nil {
		return nil, err
	}
	if err := s.setupDependencies(false); err != nil {
		return nil, err
	}
	return s.OrderedNames(), nil
}

// Names returns all registered feature names in registration order.
func (s *Server) Names() []string {
	return append([]string(nil), s.added...)
}

// OrderedNames returns the names of the committed ordered list.
func (s *Server) OrderedNames() []string {
	names := make([]string, len(s.ordered))
	for i, f := range s.ordered {
		names[i] = f.Name()
	}
	return names
}

// Run drives the full lifecycle once: collect and parse options, resolve
// dependencies, prepare under the privilege gate, start, block until
// shutdown is signalled, then stop in reverse order.
//
// A --help or --dump-dependencies request returns nil before any lifecycle
// hook runs; the caller exits with success. Every error return is fatal for
// the process.
func (s *Server) Run(args []string) error {
	logger.Debug("Kernel run starting")

	s.enterPhase(PhaseCollectingOptions)
	s.collectOptions()
	s.leavePhase(PhaseCollectingOptions)

	// Soft dependency pass: ordering is computed so load-options can walk
	// features in order, but graph errors are suppressed until after
	// parsing so --help works on an inconsistent registry.
	_ = s.setupDependencies(false)

	s.enterPhase(PhaseParsingOptions)
	result, err := s.opts.Parse(args)
	if err != nil {
		return fmt.Errorf("parsing options: %w", err)
	}
	if result.HelpRequested {
		s.opts.PrintHelp(s.out, result.HelpSection)
		return nil
	}
	if s.dumpDependencies {
		s.dumpDependencyGraph(s.out)
		return nil
	}
	for _, f := range s.ordered {
		if f.IsEnabled() {
			logger.Debug("Loading options", "feature", f.Name())
			f.LoadOptions(s.opts)
		}
	}
	s.leavePhase(PhaseParsingOptions)

	s.enterPhase(PhaseOptionsSealed)
	s.opts.Seal()
	s.leavePhase(PhaseOptionsSealed)

	s.enterPhase(PhaseValidated)
	for _, f := range s.ordered {
		if f.IsEnabled() {
			logger.Debug("Validating options", "feature", f.Name())
			if err := f.ValidateOptions(s.opts); err != nil {
				return s.fail(&LifecycleError{Feature: f.Name(), Phase: PhaseValidated, Err: err})
			}
		}
	}
	s.leavePhase(PhaseValidated)

	s.enterPhase(PhaseAutomaticResolved)
	if err := s.enableAutomaticFeatures(); err != nil {
		return s.fail(err)
	}
	s.leavePhase(PhaseAutomaticResolved)

	s.enterPhase(PhaseOrdered)
	if err := s.setupDependencies(true); err != nil {
		return s.fail(err)
	}
	s.leavePhase(PhaseOrdered)

	s.enterPhase(PhaseDaemonized)
	for _, f := range s.ordered {
		logger.Debug("Daemonizing", "feature", f.Name())
		if err := f.Daemonize(); err != nil {
			return s.fail(&LifecycleError{Feature: f.Name(), Phase: PhaseDaemonized, Err: err})
		}
	}
	s.leavePhase(PhaseDaemonized)

	s.enterPhase(PhasePrepared)
	if err := s.prepare(); err != nil {
		return s.fail(err)
	}
	s.leavePhase(PhasePrepared)

	s.enterPhase(PhasePrivilegesDropped)
	if err := s.gate.dropPermanently(); err != nil {
		return s.fail(err)
	}
	s.leavePhase(PhasePrivilegesDropped)

	s.enterPhase(PhaseStarted)
	for _, f := range s.ordered {
		logger.Debug("Starting", "feature", f.Name())
		if err := f.Start(); err != nil {
			return s.fail(&LifecycleError{Feature: f.Name(), Phase: PhaseStarted, Err: err})
		}
	}
	s.leavePhase(PhaseStarted)

	logger.Info("Kernel started", "features", len(s.ordered))
	s.Wait()

	s.enterPhase(PhaseStopping)
	for i := len(s.ordered) - 1; i >= 0; i-- {
		f := s.ordered[i]
		logger.Debug("Stopping", "feature", f.Name())
		if err := f.Stop(); err != nil {
			// Teardown continues past a failing feature; the error is
			// reported but later features still stop.
			logger.Error("Feature stop failed", "feature", f.Name(), "error", err)
		}
	}
	s.leavePhase(PhaseStopping)

	s.enterPhase(PhaseStopped)
	logger.Info("Kernel stopped")
	return nil
}

// collectOptions registers the kernel's own options and every enabled
// feature's schema. Collection order is unspecified.
func (s *Server) collectOptions() {
	s.opts.BindBool("dump-dependencies", &s.dumpDependencies, false,
		"print the feature dependency graph and exit")
	s.opts.MarkHidden("dump-dependencies")

	s.Apply(func(f feature.Feature) {
		logger.Debug("Collecting options", "feature", f.Name())
		f.CollectOptions(s.opts)
	}, true)
}

// prepare walks the ordered features under the privilege gate. The gate is
// switched so each feature's Prepare runs at its declared privilege level;
// when a Prepare fails the privilege level that held before that feature is
// restored before the error propagates.
func (s *Server) prepare() error {
	elevated := true

	for _, f := range s.ordered {
		requiresElevated := f.RequiresElevatedPrivileges()
		wasElevated := elevated

		if requiresElevated != elevated {
			if requiresElevated {
				if err := s.gate.raiseTemporarily(); err != nil {
					return err
				}
			} else {
				if err := s.gate.dropTemporarily(); err != nil {
					return err
				}
			}
			elevated = requiresElevated
		}

		logger.Debug("Preparing", "feature", f.Name())
		if err := f.Prepare(); err != nil {
			if elevated != wasElevated {
				var restoreErr error
				if wasElevated {
					restoreErr = s.gate.raiseTemporarily()
				} else {
					restoreErr = s.gate.dropTemporarily()
				}
				if restoreErr != nil {
					logger.Error("Privilege restore failed", "error", restoreErr)
				}
			}
			return &LifecycleError{Feature: f.Name(), Phase: PhasePrepared, Err: err}
		}
	}
	return nil
}

// BeginShutdown signals the kernel to leave the wait phase. It is
// idempotent: only the first call walks the features. Enabled features see
// BeginShutdown in reverse start order before the stopping flag is raised,
// so they may still resolve peers.
func (s *Server) BeginShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Info("Shutdown requested")
		for i := len(s.ordered) - 1; i >= 0; i-- {
			if s.ordered[i].IsEnabled() {
				s.ordered[i].BeginShutdown()
			}
		}
		s.stopping.Store(true)
		close(s.stopCh)
	})
}

// IsStopping reports whether shutdown has been signalled.
func (s *Server) IsStopping() bool { return s.stopping.Load() }

// Wait blocks until BeginShutdown is called.
func (s *Server) Wait() { <-s.stopCh }

// fail logs the fatal error once at error severity and returns it; the
// command layer owns the non-zero exit.
func (s *Server) fail(err error) error {
	logger.Error("Cannot proceed", "reason", err)
	return err
}

func (s *Server) enterPhase(p Phase) {
	s.transition(p)
	s.phaseStart = time.Now()
}

func (s *Server) leavePhase(p Phase) {
	elapsed := time.Since(s.phaseStart)
	for _, obs := range s.observers {
		obs(p, elapsed)
	}
}
