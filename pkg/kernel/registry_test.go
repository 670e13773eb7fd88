package kernel

import (
	"errors"
	"testing"

	"github.com/marmos91/corekernel/pkg/feature"
)

func TestAddFeatureDuplicatePanics(t *testing.T) {
	s := newTestServer(t)
	s.AddFeature(newTestFeature("A", nil))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on duplicate feature")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrDuplicateFeature) {
			t.Fatalf("expected ErrDuplicateFeature panic, got %v", r)
		}
	}()
	s.AddFeature(newTestFeature("A", nil))
}

func TestFeatureLookup(t *testing.T) {
	s := newTestServer(t)
	a := newTestFeature("A", nil)
	s.AddFeature(a)

	got, err := s.Feature("A")
	if err != nil {
		t.Fatalf("Feature(A) failed: %v", err)
	}
	if got != feature.Feature(a) {
		t.Error("lookup returned a different feature")
	}

	if _, err := s.Feature("missing"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}

	if !s.Exists("A") || s.Exists("missing") {
		t.Error("Exists misreports registration")
	}

	if _, ok := s.TryFeature("missing"); ok {
		t.Error("TryFeature found a missing feature")
	}
	if f, ok := s.TryFeature("A"); !ok || f != feature.Feature(a) {
		t.Error("TryFeature misses a registered feature")
	}
}

func TestEnablementQueries(t *testing.T) {
	s := newTestServer(t)
	a := newTestFeature("A", nil)
	a.SetOptional(true)
	a.Disable()
	s.AddFeature(a)

	enabled, err := s.IsEnabled("A")
	if err != nil || enabled {
		t.Errorf("IsEnabled(A) = %v, %v; want false, nil", enabled, err)
	}
	optional, err := s.IsOptional("A")
	if err != nil || !optional {
		t.Errorf("IsOptional(A) = %v, %v; want true, nil", optional, err)
	}
	required, err := s.IsRequired("A")
	if err != nil || required {
		t.Errorf("IsRequired(A) = %v, %v; want false, nil", required, err)
	}

	if _, err := s.IsEnabled("missing"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}

	if _, err := s.EnabledFeature("A"); !errors.Is(err, ErrFeatureNotEnabled) {
		t.Errorf("expected ErrFeatureNotEnabled, got %v", err)
	}
	if _, err := s.EnabledFeature("missing"); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("expected ErrUnknownFeature, got %v", err)
	}
}

func TestDisableFeatures(t *testing.T) {
	s := newTestServer(t)
	a := newTestFeature("A", nil)
	b := newTestFeature("B", nil)
	s.AddFeature(a)
	s.AddFeature(b)

	// Unknown names are ignored.
	s.DisableFeatures("A", "missing")
	if a.IsEnabled() {
		t.Error("A still enabled after DisableFeatures")
	}

	s.ForceDisableFeatures("B")
	b.SetEnabled(true)
	if b.IsEnabled() {
		t.Error("force-disabled feature was re-enabled")
	}
}

func TestApplyVisitsEnabledOnly(t *testing.T) {
	s := newTestServer(t)
	a := newTestFeature("A", nil)
	b := newTestFeature("B", nil)
	b.Disable()
	s.AddFeature(a)
	s.AddFeature(b)

	seen := make(map[string]bool)
	s.Apply(func(f feature.Feature) { seen[f.Name()] = true }, true)
	if !seen["A"] || seen["B"] {
		t.Errorf("enabled-only Apply visited %v", seen)
	}

	seen = make(map[string]bool)
	s.Apply(func(f feature.Feature) { seen[f.Name()] = true }, false)
	if !seen["A"] || !seen["B"] {
		t.Errorf("full Apply visited %v", seen)
	}
}

func TestInstanceHandle(t *testing.T) {
	s := newTestServer(t)
	if Instance() != s {
		t.Error("Instance does not return the live kernel")
	}
	s.Close()
	if Instance() != nil {
		t.Error("Instance not cleared by Close")
	}
}

func TestPhaseTransitionPanics(t *testing.T) {
	s := newTestServer(t)
	s.transition(PhaseCollectingOptions)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on skipping transition")
		}
	}()
	s.transition(PhaseOrdered)
}

func TestEnablementFrozenAfterOrdering(t *testing.T) {
	s := newTestServer(t)
	s.AddFeature(newTestFeature("A", nil))
	s.BeginShutdown()
	if err := s.Run(nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mutation after ordering")
		}
	}()
	s.DisableFeatures("A")
}
