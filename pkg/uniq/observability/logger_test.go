package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler captures log records for testing.
type testHandler struct {
	buf    *bytes.Buffer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newTestHandler() *testHandler {
	return &testHandler{
		buf:   &bytes.Buffer{},
		level: slog.LevelDebug,
	}
}

func (h *testHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *testHandler) Handle(_ context.Context, r slog.Record) error {
	// Build a map from the record
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	// Add pre-configured attrs
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}

	// Add record attrs
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})

	// Encode as JSON
	enc := json.NewEncoder(h.buf)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return nil
}

func (h *testHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := &testHandler{
		buf:    h.buf,
		level:  h.level,
		attrs:  make([]slog.Attr, len(h.attrs)+len(attrs)),
		groups: h.groups,
	}
	copy(newH.attrs, h.attrs)
	copy(newH.attrs[len(h.attrs):], attrs)
	return newH
}

func (h *testHandler) WithGroup(name string) slog.Handler {
	newH := &testHandler{
		buf:    h.buf,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(h.groups, name),
	}
	return newH
}

func (h *testHandler) getLastRecord() map[string]any {
	lines := bytes.Split(h.buf.Bytes(), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) > 0 {
			var m map[string]any
			if err := json.Unmarshal(lines[i], &m); err == nil {
				return m
			}
		}
	}
	return nil
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds queue_id and listener_id", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		enriched := EnrichLogger(logger, "q-123", "lst-abc")
		enriched.Info("test message")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "q-123", record["queue_id"])
		assert.Equal(t, "lst-abc", record["listener_id"])
		assert.Equal(t, "test message", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		enriched := EnrichLogger(nil, "q-123", "lst-abc")
		assert.Nil(t, enriched)
	})
}

func TestLogEmit(t *testing.T) {
	t.Run("logs event type and source at DEBUG level", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogEmit(logger, "q-1", "main.ButtonPress", 7)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "event emitted", record["msg"])
		assert.Equal(t, "q-1", record["queue_id"])
		assert.Equal(t, "main.ButtonPress", record["event_type"])
		assert.Equal(t, float64(7), record["source"]) // JSON decodes ints as float64
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogEmit(nil, "q-1", "main.ButtonPress", 0)
		})
	})
}

func TestLogListenerRegistered(t *testing.T) {
	t.Run("logs listener identity and type count", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogListenerRegistered(logger, "q-1", "lst-0001", 3)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "listener registered", record["msg"])
		assert.Equal(t, "lst-0001", record["listener_id"])
		assert.Equal(t, float64(3), record["event_types"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogListenerRegistered(nil, "q-1", "lst-0001", 0)
		})
	})
}

func TestLogListenerClosed(t *testing.T) {
	t.Run("logs listener identity", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogListenerClosed(logger, "q-1", "lst-0002")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "listener closed", record["msg"])
		assert.Equal(t, "lst-0002", record["listener_id"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogListenerClosed(nil, "q-1", "lst-0002")
		})
	})
}

func TestLogDispatchStart(t *testing.T) {
	t.Run("logs at DEBUG level", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogDispatchStart(logger, "q-1", "lst-0003")

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "dispatch starting", record["msg"])
		assert.Equal(t, "lst-0003", record["listener_id"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogDispatchStart(nil, "q-1", "lst-0003")
		})
	})
}

func TestLogDispatchComplete(t *testing.T) {
	t.Run("logs handler count and duration", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogDispatchComplete(logger, "q-1", "lst-0004", 5, 12.5)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "dispatch completed", record["msg"])
		assert.Equal(t, float64(5), record["handled"])
		assert.Equal(t, 12.5, record["duration_ms"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogDispatchComplete(nil, "q-1", "lst-0004", 0, 0)
		})
	})
}

func TestLogDispatchError(t *testing.T) {
	t.Run("logs error at ERROR level", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)
		testErr := errors.New("handler panicked; dispatch aborted")

		LogDispatchError(logger, "q-1", "lst-0005", testErr)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "ERROR", record["level"])
		assert.Equal(t, "dispatch failed", record["msg"])
		assert.Equal(t, "lst-0005", record["listener_id"])
		assert.Equal(t, testErr.Error(), record["error"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogDispatchError(nil, "q-1", "lst-0005", errors.New("x"))
		})
	})
}

func TestLogTrim(t *testing.T) {
	t.Run("logs event type and reclaimed count", func(t *testing.T) {
		h := newTestHandler()
		logger := slog.New(h)

		LogTrim(logger, "q-1", "main.Tick", 128)

		record := h.getLastRecord()
		require.NotNil(t, record)
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "log trimmed", record["msg"])
		assert.Equal(t, "main.Tick", record["event_type"])
		assert.Equal(t, float64(128), record["trimmed"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			LogTrim(nil, "q-1", "main.Tick", 0)
		})
	})
}

func TestTimedOperation(t *testing.T) {
	t.Run("measures elapsed time", func(t *testing.T) {
		done := TimedOperation()
		time.Sleep(10 * time.Millisecond)
		elapsed := done()

		assert.GreaterOrEqual(t, elapsed, float64(5))
	})

	t.Run("can be called multiple times", func(t *testing.T) {
		done := TimedOperation()
		first := done()
		time.Sleep(5 * time.Millisecond)
		second := done()

		assert.GreaterOrEqual(t, second, first)
	})
}
