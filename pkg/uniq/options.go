package uniq

import (
	"log/slog"

	"github.com/jazzfool/uniq/pkg/uniq/config"
	"github.com/jazzfool/uniq/pkg/uniq/observability"
)

// defaultTrimThreshold is the retained-entry count at which a bucket becomes
// eligible for opportunistic trimming.
const defaultTrimThreshold = 256

// queueConfig holds construction-time queue configuration.
type queueConfig struct {
	exclusive     bool
	trimThreshold int
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	tracing       bool
}

// defaultQueueConfig returns the default queue configuration: shared mode,
// no logging, no-op metrics and tracing.
func defaultQueueConfig() queueConfig {
	return queueConfig{
		trimThreshold: defaultTrimThreshold,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// Option configures a Queue at construction.
type Option func(*queueConfig)

// WithExclusive selects the single-goroutine queue variant: no internal
// locking on the event log or on listeners. The caller promises that every
// Emit, Build, Dispatch, and Close touching this queue happens on one
// goroutine. Cheapest mode; the default is the internally synchronized
// shared mode.
func WithExclusive() Option {
	return func(c *queueConfig) {
		c.exclusive = true
	}
}

// WithTrimThreshold sets the number of retained entries at which a bucket
// becomes eligible for opportunistic trimming after an emit or dispatch.
// Default: 256
//
// Lower values reclaim memory sooner at the cost of more frequent low-water
// mark scans; cursor removal always trims regardless of the threshold.
// Values below 1 are ignored.
func WithTrimThreshold(n int) Option {
	return func(c *queueConfig) {
		if n > 0 {
			c.trimThreshold = n
		}
	}
}

// WithObservabilityLogger enables structured logging for the queue and its
// listeners. Emission, dispatch, and trim activity log at Debug; dispatch
// failures log at Error. A nil logger disables logging (the default).
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	q := uniq.New(uniq.WithObservabilityLogger(logger))
func WithObservabilityLogger(logger *slog.Logger) Option {
	return func(c *queueConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for the queue. Uses the global
// meter provider; configure it before constructing the queue.
func WithMetrics(enabled bool) Option {
	return func(c *queueConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing for dispatch calls. Uses the
// global tracer provider; configure it before constructing the queue.
func WithTracing(enabled bool) Option {
	return func(c *queueConfig) {
		c.tracing = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// FromConfig maps a loaded configuration onto queue options.
//
// Recognized keys:
//   - exclusive (bool): select the single-goroutine variant
//   - trim_threshold (int): see WithTrimThreshold
//   - metrics (bool): see WithMetrics
//   - tracing (bool): see WithTracing
//
// Example:
//
//	cfg, err := config.FromFile("uniq.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	q := uniq.New(uniq.FromConfig(cfg)...)
func FromConfig(cfg config.Config) []Option {
	var opts []Option
	if cfg.Bool("exclusive", false) {
		opts = append(opts, WithExclusive())
	}
	if n := cfg.Int("trim_threshold", 0); n > 0 {
		opts = append(opts, WithTrimThreshold(n))
	}
	if cfg.Bool("metrics", false) {
		opts = append(opts, WithMetrics(true))
	}
	if cfg.Bool("tracing", false) {
		opts = append(opts, WithTracing(true))
	}
	return opts
}
