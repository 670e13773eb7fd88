package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != DefaultLogFormat {
		t.Errorf("expected default format, got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Metrics.Address != DefaultMetricsAddress {
		t.Errorf("expected default metrics address, got %q", cfg.Metrics.Address)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: WARN
  format: json
  output: stdout
metrics:
  enabled: true
  address: 0.0.0.0:9100
store:
  enabled: true
  directory: /tmp/corekernel-test
shutdown_timeout: 5s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Errorf("expected json format, got %q", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Address != "0.0.0.0:9100" {
		t.Errorf("unexpected metrics config: %+v", cfg.Metrics)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected 5s shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Store.Directory != "/tmp/corekernel-test" {
		t.Errorf("unexpected store directory %q", cfg.Store.Directory)
	}
}

func TestLoadInvalidLevel(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: SHOUTING\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for invalid log level")
	}
}

func TestLoadInvalidFormat(t *testing.T) {
	path := writeConfig(t, "logging:\n  format: logfmt\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for invalid log format")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidateSampleConfig(t *testing.T) {
	path := writeConfig(t, SampleConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("unexpected sample level %q", cfg.Logging.Level)
	}
}
