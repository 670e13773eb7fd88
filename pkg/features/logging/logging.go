// Package logging implements the builtin feature that configures the
// process-wide logger from parsed options. Every other feature starts after
// it so their lifecycle logs honor the requested level and format.
package logging

import (
	"fmt"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/feature"
	"github.com/marmos91/corekernel/pkg/options"
)

// Name is the feature name peers use in starts-after declarations.
const Name = "logging"

// Feature applies the log.* options.
type Feature struct {
	feature.Base

	level  string
	format string
	output string
}

// New creates the logging feature seeded with config file defaults.
func New(defaults config.LoggingConfig) *Feature {
	return &Feature{
		Base:   feature.NewBase(Name),
		level:  defaults.Level,
		format: defaults.Format,
		output: defaults.Output,
	}
}

func (f *Feature) CollectOptions(opts *options.Options) {
	opts.AddSection("log", "Logging", "log output configuration")
	opts.BindString("log.level", &f.level, f.level, "minimum log level (DEBUG, INFO, WARN, ERROR)")
	opts.BindString("log.format", &f.format, f.format, "log output format (text, json)")
	opts.BindString("log.output", &f.output, f.output, "log destination (stdout, stderr, or a file path)")
}

func (f *Feature) ValidateOptions(*options.Options) error {
	if !logger.IsValidLevel(f.level) {
		return fmt.Errorf("invalid log level %q", f.level)
	}
	if !logger.IsValidFormat(f.format) {
		return fmt.Errorf("invalid log format %q", f.format)
	}
	return nil
}

// Prepare applies the configuration. Opening a log file is the only write
// and belongs here rather than in Start.
func (f *Feature) Prepare() error {
	return logger.Init(logger.Config{
		Level:  f.level,
		Format: f.format,
		Output: f.output,
	})
}
