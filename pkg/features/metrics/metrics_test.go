package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/marmos91/corekernel/pkg/config"
)

func startMetrics(t *testing.T) *Feature {
	t.Helper()
	f := New(config.MetricsConfig{Enabled: true, Address: "127.0.0.1:0"}, "test")
	if err := f.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := f.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = f.Stop() })
	return f
}

func TestMetricsEndpoint(t *testing.T) {
	f := startMetrics(t)

	resp, err := http.Get("http://" + f.BoundAddress() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	text := string(body)
	if !strings.Contains(text, "corekernel_build_info") {
		t.Errorf("missing build info metric:\n%.500s", text)
	}
	if !strings.Contains(text, "go_goroutines") {
		t.Errorf("missing runtime collector output:\n%.500s", text)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := startMetrics(t)

	resp, err := http.Get("http://" + f.BoundAddress() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("unexpected status %d", resp.StatusCode)
	}
}

func TestStopIsIdempotentWhenNeverStarted(t *testing.T) {
	f := New(config.MetricsConfig{Enabled: true, Address: "127.0.0.1:0"}, "test")
	if err := f.Stop(); err != nil {
		t.Errorf("Stop on unstarted feature failed: %v", err)
	}
}

func TestDisabledWhenConfiguredOff(t *testing.T) {
	f := New(config.MetricsConfig{Enabled: false, Address: "127.0.0.1:0"}, "test")
	f.LoadOptions(nil)
	if f.IsEnabled() {
		t.Error("metrics should disable itself when not configured")
	}
}

func TestValidateOptions(t *testing.T) {
	f := New(config.MetricsConfig{Enabled: true, Address: ""}, "test")
	if err := f.ValidateOptions(nil); err == nil {
		t.Error("expected validation error for empty address")
	}
}
