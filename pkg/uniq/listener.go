package uniq

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jazzfool/uniq/pkg/uniq/observability"
)

// handlerKey identifies a handler registration: one emitter, one concrete
// event type.
type handlerKey struct {
	src SourceID
	typ reflect.Type
}

// erase validates a typed handler and wraps it for storage under its
// (source, event type) key.
func erase[C Caps, E any](src SourceID, fn func(C, E)) (handlerKey, func(C, any), error) {
	key := handlerKey{src: src, typ: reflect.TypeOf((*E)(nil)).Elem()}
	if fn == nil {
		return key, nil, ErrNilHandler
	}
	if key.typ.Kind() == reflect.Interface {
		return key, nil, ErrInterfaceEventType
	}
	return key, func(cx C, payload any) { fn(cx, payload.(E)) }, nil
}

// ListenerBuilder accumulates handler registrations for a listener before it
// goes live. Chain On calls (and optionally Replay), then call Build.
//
// The listener's cursor into the event log is registered by Build, not
// before: events emitted while the builder is still being configured are not
// delivered to the resulting listener unless Replay is set.
//
// A builder is not safe for concurrent use.
//
// Example:
//
//	b := uniq.Listen[uniq.None](q)
//	uniq.On(b, button, func(_ uniq.None, ev ButtonPress) { ... })
//	uniq.On(b, window, func(_ uniq.None, ev WindowClose) { ... })
//	l := b.Build()
//	defer l.Close()
type ListenerBuilder[C Caps] struct {
	q        *Queue
	handlers map[handlerKey]func(C, any)
	types    []reflect.Type
	replay   bool
}

// Listen starts building a listener on q with capability context shape C.
//
// C is one of the shapes admitted by Caps: None, a single Read or Write, or
// a Caps2..Caps10 tuple. Every handler registered on the builder takes the
// same C as its first parameter, enforced by the compiler.
//
// Panics if q is nil.
func Listen[C Caps](q *Queue) *ListenerBuilder[C] {
	if q == nil {
		panic("uniq: queue cannot be nil")
	}
	return &ListenerBuilder[C]{
		q:        q,
		handlers: make(map[handlerKey]func(C, any)),
	}
}

// On registers fn to handle events of type E emitted by src.
// Returns the builder for chaining.
//
// Each (source, event type) pair supports exactly one handler per listener;
// registering a second is a caller error. Dispatch invokes handlers grouped
// by event type in the order the types were first registered here.
//
// Panics if:
//   - fn is nil
//   - E is an interface type (events are routed by concrete type)
//   - a handler for (src, E) is already registered on this builder
func On[C Caps, E any](b *ListenerBuilder[C], src SourceID, fn func(C, E)) *ListenerBuilder[C] {
	key, h, err := erase(src, fn)
	if err != nil {
		panic(fmt.Sprintf("uniq: %v (source %d, event type %s)", err, src, key.typ))
	}
	if _, dup := b.handlers[key]; dup {
		panic(fmt.Sprintf("uniq: duplicate handler for source %d, event type %s", src, key.typ))
	}
	b.handlers[key] = h
	if !slices.Contains(b.types, key.typ) {
		b.types = append(b.types, key.typ)
	}
	return b
}

// Replay makes the listener start at the earliest retained entry of each
// handled event type instead of the current end, delivering the backlog on
// its first dispatch. Entries already reclaimed by trimming are gone and
// cannot be replayed.
// Returns the builder for chaining.
func (b *ListenerBuilder[C]) Replay() *ListenerBuilder[C] {
	b.replay = true
	return b
}

// Build finalizes the builder into a live listener and registers its cursor
// with the queue's event log. From this point the listener retains events of
// its handled types until they are dispatched or trimmed.
//
// Build cannot fail: every configuration error panics at its On call site.
// A listener with no handlers is valid and dispatches nothing. The builder
// may be reused; each Build produces an independent listener.
func (b *ListenerBuilder[C]) Build() *Listener[C] {
	l := &Listener[C]{
		q:        b.q,
		id:       "lst-" + uuid.New().String()[:8],
		mu:       b.q.newLocker(),
		handlers: make(map[handlerKey]func(C, any), len(b.handlers)),
		types:    slices.Clone(b.types),
	}
	maps.Copy(l.handlers, b.handlers)
	l.cursor = b.q.log.register(l.types, b.replay)
	observability.LogListenerRegistered(b.q.cfg.logger, b.q.id, l.id, len(l.types))
	return l
}

// Listener consumes events from a queue. It owns a cursor into the queue's
// event log and a table of handlers keyed by (source, event type).
//
// Nothing runs in the background: deliveries happen only inside Dispatch,
// on the calling goroutine.
//
// On a shared queue a listener may be used from multiple goroutines; its
// operations serialize against each other, so two concurrent Dispatch calls
// split the pending entries between them rather than double-delivering. On
// an exclusive queue all use must stay on one goroutine.
type Listener[C Caps] struct {
	q        *Queue
	id       string
	mu       sync.Locker
	handlers map[handlerKey]func(C, any)
	types    []reflect.Type
	cursor   uint64
	closed   bool
}

// ID returns the listener's identifier, as used in log fields and span
// attributes.
func (l *Listener[C]) ID() string {
	return l.id
}

// Dispatch drains the events pending for this listener and invokes the
// matching handlers synchronously, passing cx to each.
//
// Delivery order: handled event types in the order they were first
// registered; within one type, emission order. An entry whose source has no
// handler on this listener is skipped silently and never redelivered. Each
// entry is delivered at most once per listener.
//
// Write slots in cx are held for the duration of the call; a concurrent
// dispatch presenting the same Write panics with ErrCapabilityHeld.
//
// A handler panic propagates to the caller unmodified and abandons the
// remainder of the pass: capability mutations already applied stay applied,
// and entries drained but not yet handled are not redelivered. Handlers may
// Emit into the queue re-entrantly; an event so emitted is delivered when
// the pass reaches its type's bucket, or on the next dispatch if that
// bucket was already drained. Handlers must not call Dispatch, Attach,
// Detach, or Close on their own listener.
//
// Panics if the listener is closed.
func (l *Listener[C]) Dispatch(cx C) {
	l.DispatchContext(context.Background(), cx)
}

// DispatchContext is Dispatch with a caller-supplied context for trace and
// metric correlation. The context is not consulted for cancellation:
// dispatch never suspends, so there is nothing to cancel.
func (l *Listener[C]) DispatchContext(ctx context.Context, cx C) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		panic("uniq: dispatch on closed listener")
	}
	if err := cx.acquire(); err != nil {
		panic("uniq: " + err.Error())
	}
	defer cx.release()

	cfg := &l.q.cfg
	observability.LogDispatchStart(cfg.logger, l.q.id, l.id)

	var span trace.Span
	if cfg.tracing {
		ctx, span = cfg.spans.StartDispatchSpan(ctx, l.q.id, l.id)
	}

	start := time.Now()
	handled := 0
	finished := false
	defer func() {
		var err error
		if !finished {
			err = errDispatchAborted
		}
		if cfg.tracing {
			cfg.spans.EndSpanWithError(span, err)
		}
		cfg.metrics.RecordDispatch(ctx, l.id, handled, time.Since(start), err)
		if err != nil {
			observability.LogDispatchError(cfg.logger, l.q.id, l.id, err)
		} else {
			observability.LogDispatchComplete(cfg.logger, l.q.id, l.id, handled,
				float64(time.Since(start).Milliseconds()))
		}
	}()

	for _, typ := range l.types {
		view, trimmed := l.q.log.drain(l.cursor, typ)
		l.q.reportTrim(typ, trimmed)
		if cfg.tracing && trimmed > 0 {
			cfg.spans.AddSpanEvent(ctx, "log_trimmed",
				attribute.String("event_type", typ.String()),
				attribute.Int("entries", trimmed))
		}
		for i := range view {
			if h, ok := l.handlers[handlerKey{src: view[i].src, typ: typ}]; ok {
				h(cx, view[i].payload)
				handled++
			}
		}
	}
	finished = true
}

// Close unregisters the listener's cursor and trims whatever it was keeping
// retained. A closed listener rejects further registrations and panics on
// Dispatch. Idempotent.
func (l *Listener[C]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	for typ, n := range l.q.log.unregister(l.cursor) {
		l.q.reportTrim(typ, n)
	}
	observability.LogListenerClosed(l.q.cfg.logger, l.q.id, l.id)
	return nil
}

// Attach registers fn to handle events of type E emitted by src on a live
// listener. The builder-time rules apply unchanged, reported as errors
// instead of panics: one handler per (source, event type) pair, concrete
// event types only.
//
// If the listener did not previously handle E, its cursor picks up the type
// at the current end: events of type E emitted before the Attach are not
// delivered.
//
// Returns a *RegistrationError wrapping ErrNilHandler,
// ErrInterfaceEventType, ErrDuplicateHandler, or ErrListenerClosed.
func Attach[C Caps, E any](l *Listener[C], src SourceID, fn func(C, E)) error {
	key, h, err := erase(src, fn)
	if err != nil {
		return &RegistrationError{Source: src, EventType: key.typ, Err: err}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return &RegistrationError{Source: src, EventType: key.typ, Err: ErrListenerClosed}
	}
	if _, dup := l.handlers[key]; dup {
		return &RegistrationError{Source: src, EventType: key.typ, Err: ErrDuplicateHandler}
	}
	l.handlers[key] = h
	if !slices.Contains(l.types, key.typ) {
		l.types = append(l.types, key.typ)
		l.q.log.addInterest(l.cursor, key.typ)
	}
	return nil
}

// Detach removes the handler for (src, E). Reports whether a handler was
// removed; detaching on a closed listener reports false.
//
// Removing the last handler for a type drops the cursor's interest in it:
// pending entries of that type become reclaimable, and a later Attach for
// the type resumes at the then-current end.
func Detach[E any, C Caps](l *Listener[C], src SourceID) bool {
	key := handlerKey{src: src, typ: reflect.TypeOf((*E)(nil)).Elem()}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	if _, ok := l.handlers[key]; !ok {
		return false
	}
	delete(l.handlers, key)
	for k := range l.handlers {
		if k.typ == key.typ {
			// another source still handles this type
			return true
		}
	}
	i := slices.Index(l.types, key.typ)
	l.types = slices.Delete(l.types, i, i+1)
	trimmed := l.q.log.dropInterest(l.cursor, key.typ)
	l.q.reportTrim(key.typ, trimmed)
	return true
}

// Handles reports whether the listener has a handler for (src, E).
// Always false on a closed listener.
func Handles[E any, C Caps](l *Listener[C], src SourceID) bool {
	key := handlerKey{src: src, typ: reflect.TypeOf((*E)(nil)).Elem()}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	_, ok := l.handlers[key]
	return ok
}
