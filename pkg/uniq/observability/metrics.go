package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records queue metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records one event appended to the log.
	RecordEmit(ctx context.Context, eventType string)

	// RecordDispatch records a dispatch call with its handler count,
	// duration, and failure status.
	RecordDispatch(ctx context.Context, listenerID string, handled int, duration time.Duration, err error)

	// RecordTrim records entries reclaimed from one event type's bucket.
	RecordTrim(ctx context.Context, eventType string, entries int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsEmitted   metric.Int64Counter
	dispatchRuns    metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	handlersInvoked metric.Int64Counter
	logTrimmed      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("uniq")

	eventsEmitted, err := meter.Int64Counter("uniq.events.emitted",
		metric.WithDescription("Number of events emitted"),
	)
	if err != nil {
		return nil, err
	}

	dispatchRuns, err := meter.Int64Counter("uniq.dispatch.runs",
		metric.WithDescription("Number of dispatch calls"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("uniq.dispatch.latency_ms",
		metric.WithDescription("Dispatch call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	handlersInvoked, err := meter.Int64Counter("uniq.handlers.invoked",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	logTrimmed, err := meter.Int64Counter("uniq.log.trimmed",
		metric.WithDescription("Number of log entries reclaimed"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsEmitted:   eventsEmitted,
		dispatchRuns:    dispatchRuns,
		dispatchLatency: dispatchLatency,
		handlersInvoked: handlersInvoked,
		logTrimmed:      logTrimmed,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records one emitted event.
func (m *otelMetrics) RecordEmit(ctx context.Context, eventType string) {
	m.eventsEmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordDispatch records a dispatch call.
func (m *otelMetrics) RecordDispatch(ctx context.Context, listenerID string, handled int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("listener_id", listenerID),
		attribute.Bool("success", err == nil),
	}

	m.dispatchRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if handled > 0 {
		m.handlersInvoked.Add(ctx, int64(handled), metric.WithAttributes(
			attribute.String("listener_id", listenerID),
		))
	}
}

// RecordTrim records reclaimed log entries.
func (m *otelMetrics) RecordTrim(ctx context.Context, eventType string, entries int64) {
	m.logTrimmed.Add(ctx, entries, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}
