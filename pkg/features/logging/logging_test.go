package logging

import (
	"testing"

	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/options"
)

func defaults() config.LoggingConfig {
	return config.LoggingConfig{Level: "INFO", Format: "text", Output: "stderr"}
}

func TestCollectOptionsRegistersSection(t *testing.T) {
	f := New(defaults())
	opts := options.New()
	f.CollectOptions(opts)

	if _, err := opts.Parse([]string{"--log.level", "DEBUG", "--log.format", "json"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.level != "DEBUG" || f.format != "json" {
		t.Errorf("flags not bound: level=%q format=%q", f.level, f.format)
	}
}

func TestValidateOptions(t *testing.T) {
	f := New(defaults())
	if err := f.ValidateOptions(nil); err != nil {
		t.Errorf("valid defaults rejected: %v", err)
	}

	f.level = "LOUD"
	if err := f.ValidateOptions(nil); err == nil {
		t.Error("invalid level accepted")
	}

	f.level = "INFO"
	f.format = "logfmt"
	if err := f.ValidateOptions(nil); err == nil {
		t.Error("invalid format accepted")
	}
}

func TestFeatureIsRequired(t *testing.T) {
	f := New(defaults())
	if f.IsOptional() {
		t.Error("logging must be a required feature")
	}
	if f.Name() != Name {
		t.Errorf("unexpected name %q", f.Name())
	}
}
