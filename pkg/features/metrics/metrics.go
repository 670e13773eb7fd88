// Package metrics implements the builtin feature exposing Prometheus
// metrics about the kernel itself: phase durations, feature counts, and
// build information, served over a chi-routed HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/corekernel/internal/logger"
	"github.com/marmos91/corekernel/pkg/config"
	"github.com/marmos91/corekernel/pkg/feature"
	"github.com/marmos91/corekernel/pkg/features/logging"
	"github.com/marmos91/corekernel/pkg/kernel"
	"github.com/marmos91/corekernel/pkg/options"
)

// Name is the feature name peers use in starts-after declarations.
const Name = "metrics"

const shutdownTimeout = 5 * time.Second

// Feature serves /metrics and observes kernel phases.
type Feature struct {
	feature.Base

	enabled bool
	address string
	version string

	registry      *prometheus.Registry
	phaseDuration *prometheus.HistogramVec
	featureCount  prometheus.Gauge

	server    *http.Server
	boundAddr string
	done      chan struct{}
}

// New creates the metrics feature seeded with config file defaults.
func New(defaults config.MetricsConfig, version string) *Feature {
	f := &Feature{
		Base:    feature.NewBase(Name),
		enabled: defaults.Enabled,
		address: defaults.Address,
		version: version,
	}
	f.SetOptional(true)
	f.SetStartsAfter(logging.Name)
	return f
}

func (f *Feature) CollectOptions(opts *options.Options) {
	opts.AddSection("metrics", "Metrics", "Prometheus metrics endpoint")
	opts.BindBool("metrics.enabled", &f.enabled, f.enabled, "serve Prometheus metrics on /metrics")
	opts.BindString("metrics.address", &f.address, f.address, "listen address for the metrics endpoint")
}

func (f *Feature) LoadOptions(*options.Options) {
	if !f.enabled {
		f.Disable()
	}
}

func (f *Feature) ValidateOptions(*options.Options) error {
	if f.enabled && f.address == "" {
		return errors.New("metrics.address must not be empty")
	}
	return nil
}

// Prepare builds the registry and hooks the kernel's phase observer so the
// remaining phases are measured.
func (f *Feature) Prepare() error {
	f.registry = prometheus.NewRegistry()
	f.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f.phaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "corekernel",
		Subsystem: "kernel",
		Name:      "phase_duration_seconds",
		Help:      "Duration of kernel lifecycle phases.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"phase"})
	f.registry.MustRegister(f.phaseDuration)

	f.featureCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "corekernel",
		Subsystem: "kernel",
		Name:      "features_enabled",
		Help:      "Number of features in the committed startup order.",
	})
	f.registry.MustRegister(f.featureCount)

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "corekernel",
		Name:      "build_info",
		Help:      "Build information.",
	}, []string{"version"})
	buildInfo.WithLabelValues(f.version).Set(1)
	f.registry.MustRegister(buildInfo)

	if srv := kernel.Instance(); srv != nil {
		srv.AddPhaseObserver(func(phase kernel.Phase, elapsed time.Duration) {
			f.phaseDuration.WithLabelValues(phase.String()).Observe(elapsed.Seconds())
		})
	}
	return nil
}

func (f *Feature) Start() error {
	if srv := kernel.Instance(); srv != nil {
		f.featureCount.Set(float64(len(srv.OrderedNames())))
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	listener, err := net.Listen("tcp", f.address)
	if err != nil {
		return fmt.Errorf("metrics listener on %s: %w", f.address, err)
	}

	f.server = &http.Server{Handler: router}
	f.boundAddr = listener.Addr().String()
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logger.KeyError, err)
		}
	}()

	logger.Info("Metrics endpoint listening", logger.KeyAddress, listener.Addr().String())
	return nil
}

func (f *Feature) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := f.server.Shutdown(ctx)
	<-f.done
	return err
}

// Registry exposes the Prometheus registry so peers can add collectors.
func (f *Feature) Registry() *prometheus.Registry { return f.registry }

// Address returns the configured listen address.
func (f *Feature) Address() string { return f.address }

// BoundAddress returns the address the listener actually bound, which
// differs from Address when port 0 was requested.
func (f *Feature) BoundAddress() string { return f.boundAddr }
