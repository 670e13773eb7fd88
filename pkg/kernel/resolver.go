package kernel

import (
	"fmt"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/pkg/feature"
)

// enableAutomaticFeatures propagates follow-enablement to a fixed point:
// every feature with an enable-with target mirrors that target's enabled
// state. Force-disabled features never come back, so the sweep converges
// even over enable-with cycles. An enable-with target that does not exist
// is fatal.
func (s *Server) enableAutomaticFeatures() error {
	for changed := true; changed; {
		changed = false
		for _, name := range s.added {
			f := s.features[name]
			other := f.EnableWith()
			if other == "" {
				continue
			}
			target, ok := s.features[other]
			if !ok {
				return fmt.Errorf("%w: feature %q follows unknown feature %q",
					ErrUnknownFeature, f.Name(), other)
			}
			if target.IsEnabled() != f.IsEnabled() {
				f.SetEnabled(target.IsEnabled())
				// A sticky force-disable refuses the flip; without the
				// re-check the sweep would never settle.
				if f.IsEnabled() == target.IsEnabled() {
					changed = true
				}
			}
		}
	}
	return nil
}

// setupDependencies validates the requires edges, linearizes the
// starts-after partial order, and commits the ordered list of enabled
// features. The soft pass (failOnMissing=false) skips validation and cycle
// detection so options can still be parsed over a broken graph.
func (s *Server) setupDependencies(failOnMissing bool) error {
	if failOnMissing {
		if err := s.validateRequirements(); err != nil {
			return err
		}
		if err := s.detectCycles(); err != nil {
			return err
		}
	}

	// Insertion scan over every feature, enabled or not, in registration
	// order. Each feature lands just before the leftmost element that
	// declares it in starts-after; with an acyclic graph the result is a
	// stable topological order, and identical registries produce identical
	// lists.
	ordered := make([]feature.Feature, 0, len(s.added))
	for _, name := range s.added {
		f := s.features[name]
		insertAt := len(ordered)
		for i := len(ordered); i > 0; i-- {
			if startsAfterContains(ordered[i-1], f.Name()) {
				insertAt = i - 1
			}
		}
		ordered = append(ordered, nil)
		copy(ordered[insertAt+1:], ordered[insertAt:])
		ordered[insertAt] = f
	}

	logger.Debug("Feature order resolved")
	for _, f := range ordered {
		suffix := ""
		if !f.IsEnabled() {
			suffix = " (disabled)"
		}
		logger.Debug("  "+f.Name()+suffix, "starts_after", f.StartsAfter())
	}

	// The committed list holds enabled features only.
	enabled := ordered[:0]
	for _, f := range ordered {
		if f.IsEnabled() {
			enabled = append(enabled, f)
		}
	}
	s.ordered = enabled
	return nil
}

// validateRequirements checks every enabled feature's requires edges:
// the target must exist and be enabled.
func (s *Server) validateRequirements() error {
	for _, name := range s.added {
		f := s.features[name]
		if !f.IsEnabled() {
			continue
		}
		for _, other := range f.Requires() {
			target, ok := s.features[other]
			if !ok {
				return fmt.Errorf("%w: feature %q depends on unknown feature %q",
					ErrMissingDependency, f.Name(), other)
			}
			if !target.IsEnabled() {
				return fmt.Errorf("%w: enabled feature %q depends on feature %q, which is disabled",
					ErrDisabledDependency, f.Name(), other)
			}
		}
	}
	return nil
}

// detectCycles runs a DFS over the starts-after edges of enabled features.
// Edges to unknown or disabled features are not ordering constraints and
// are skipped. The insertion scan itself would produce an arbitrary order
// for a cyclic graph, so cycles are rejected outright.
func (s *Server) detectCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.added))

	var visit func(name string, trail []string) error
	visit = func(name string, trail []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %v", ErrDependencyCycle, append(trail, name))
		case done:
			return nil
		}
		state[name] = visiting
		for _, other := range s.features[name].StartsAfter() {
			target, ok := s.features[other]
			if !ok || !target.IsEnabled() {
				continue
			}
			if err := visit(other, append(trail, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range s.added {
		if !s.features[name].IsEnabled() {
			continue
		}
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

func startsAfterContains(f feature.Feature, name string) bool {
	for _, other := range f.StartsAfter() {
		if other == name {
			return true
		}
	}
	return false
}
