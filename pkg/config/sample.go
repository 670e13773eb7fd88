package config

// SampleConfig is the commented configuration written by `corekernel init`.
const SampleConfig = `# corekernel configuration
#
# Every value can be overridden with an environment variable:
#   COREKERNEL_<SECTION>_<KEY>, e.g. COREKERNEL_LOGGING_LEVEL=DEBUG
# and most values map to a command line flag, e.g. --log.level.

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Output format: text or json
  format: text
  # Destination: stdout, stderr, or a file path
  output: stderr

metrics:
  # Serve Prometheus metrics on /metrics
  enabled: false
  address: 127.0.0.1:9464

telemetry:
  # Export startup phase spans over OTLP gRPC
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0

store:
  # Embedded key-value store used by view features
  enabled: false
  directory: /var/lib/corekernel/store

# Graceful shutdown duration (validated; the stop phase does not enforce it)
shutdown_timeout: 30s
`
