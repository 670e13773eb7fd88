package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/internal/telemetry"
	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/features/logging"
	"github.com/marmos91/corekernel/pkg/features/logview"
	"github.com/marmos91/corekernel/pkg/features/metrics"
	"github.com/marmos91/corekernel/pkg/features/store"
	"github.com/marmos91/corekernel/pkg/kernel"
	"github.com/marmos91/corekernel/pkg/options"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the kernel and its features",
	Long: `Start the kernel: collect and parse feature options, resolve the
dependency order, prepare under the privilege gate, start every enabled
feature, and block until SIGINT or SIGTERM.

Feature options are parsed by the kernel itself; use --help after start to
see them grouped by section:

  corekernel start --help
  corekernel start --help=log
  corekernel start --log.level DEBUG --metrics.enabled

The configuration file seeds option defaults; command line flags win.`,
	// The kernel owns the option surface; cobra must not eat its flags.
	DisableFlagParsing: true,
	RunE:               runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfgPath := configPathFromArgs(args)
	if cfgPath == "" {
		cfgPath = GetConfigFile()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	// Apply file-level logging before any feature output; the logging
	// feature re-applies it once flags are known.
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "corekernel",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("Telemetry shutdown error", logger.KeyError, err)
		}
	}()

	opts := options.New()
	configFlag := cfgPath
	opts.BindString("config", &configFlag, configFlag, "path to the configuration file")

	srv := kernel.New(opts)
	defer srv.Close()

	srv.AddFeature(logging.New(cfg.Logging))
	srv.AddFeature(metrics.New(cfg.Metrics, Version))
	srv.AddFeature(store.New(cfg.Store))
	srv.AddFeature(logview.New())

	if cfg.Telemetry.Enabled {
		srv.AddPhaseObserver(func(phase kernel.Phase, elapsed time.Duration) {
			telemetry.RecordPhase(ctx, phase.String(), time.Now().Add(-elapsed), elapsed)
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Signal received, shutting down", logger.KeyName, sig.String())
			srv.BeginShutdown()
		case <-ctx.Done():
		}
	}()

	return srv.Run(args)
}

// configPathFromArgs pre-scans raw arguments for --config; the kernel's
// option registry parses them for real later, but the file must be read
// before features are constructed with its defaults.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
	}
	return ""
}
