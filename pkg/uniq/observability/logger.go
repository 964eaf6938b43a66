// Package observability provides production-grade observability features
// for uniq: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds queue context to a logger.
// Returns a new logger with queue_id and listener_id fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, q.ID(), l.ID())
//	enriched.Info("draining") // includes queue_id, listener_id
func EnrichLogger(logger *slog.Logger, queueID, listenerID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("queue_id", queueID),
		slog.String("listener_id", listenerID),
	)
}

// LogEmit logs one event appended to the log.
func LogEmit(logger *slog.Logger, queueID, eventType string, source uint64) {
	if logger == nil {
		return
	}
	logger.Debug("event emitted",
		slog.String("queue_id", queueID),
		slog.String("event_type", eventType),
		slog.Uint64("source", source),
	)
}

// LogListenerRegistered logs a listener going live with its cursor.
func LogListenerRegistered(logger *slog.Logger, queueID, listenerID string, types int) {
	if logger == nil {
		return
	}
	logger.Debug("listener registered",
		slog.String("queue_id", queueID),
		slog.String("listener_id", listenerID),
		slog.Int("event_types", types),
	)
}

// LogListenerClosed logs a listener releasing its cursor.
func LogListenerClosed(logger *slog.Logger, queueID, listenerID string) {
	if logger == nil {
		return
	}
	logger.Debug("listener closed",
		slog.String("queue_id", queueID),
		slog.String("listener_id", listenerID),
	)
}

// LogDispatchStart logs the start of a dispatch call.
func LogDispatchStart(logger *slog.Logger, queueID, listenerID string) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch starting",
		slog.String("queue_id", queueID),
		slog.String("listener_id", listenerID),
	)
}

// LogDispatchComplete logs successful dispatch completion.
func LogDispatchComplete(logger *slog.Logger, queueID, listenerID string, handled int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch completed",
		slog.String("queue_id", queueID),
		slog.String("listener_id", listenerID),
		slog.Int("handled", handled),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDispatchError logs a dispatch call abandoned by a handler failure.
func LogDispatchError(logger *slog.Logger, queueID, listenerID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("dispatch failed",
		slog.String("queue_id", queueID),
		slog.String("listener_id", listenerID),
		slog.String("error", err.Error()),
	)
}

// LogTrim logs entries reclaimed from one event type's bucket.
func LogTrim(logger *slog.Logger, queueID, eventType string, entries int) {
	if logger == nil {
		return
	}
	logger.Debug("log trimmed",
		slog.String("queue_id", queueID),
		slog.String("event_type", eventType),
		slog.Int("trimmed", entries),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
