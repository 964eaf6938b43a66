/*
Package uniq routes strongly-typed in-process events from identified sources
to listeners.

# Overview

uniq is a Go library for wiring decoupled components together without
direct references. Producers tag each event with a numeric source
identifier; consumers register handlers on exact (source, event type) pairs
and pull deliveries with an explicit dispatch call. Two sources emitting the
same event type stay fully discriminated, which is the point: "handle unique
events in an isolated manner."

There are no background goroutines and no channels. Emission appends to an
in-memory log; dispatch drains the log on the calling goroutine. The library
is built from:

  - SourceID / NextSourceID: process-unique emitter identifiers
  - Queue: owns the event log; producers Emit into it
  - Listener: built with Listen/On/Build; consumers Dispatch it
  - capability contexts (None, Read, Write, Caps2..Caps10): typed state
    injected into every handler of a dispatch call

# Basic Usage

	type ButtonPress struct{ X, Y int }
	type WindowClose struct{}

	func main() {
	    q := uniq.New()
	    button := uniq.NextSourceID()
	    window := uniq.NextSourceID()

	    b := uniq.Listen[uniq.None](q)
	    uniq.On(b, button, func(_ uniq.None, ev ButtonPress) {
	        fmt.Println("press at", ev.X, ev.Y)
	    })
	    uniq.On(b, window, func(_ uniq.None, ev WindowClose) {
	        fmt.Println("closing")
	    })
	    l := b.Build()
	    defer l.Close()

	    q.Emit(button, ButtonPress{X: 10, Y: 20})
	    q.Emit(window, WindowClose{})
	    l.Dispatch(uniq.None{})
	}

Listen and On are functions rather than methods because Go methods cannot
introduce type parameters.

# Routing and Ordering

An event is routed by its concrete type and its source. A listener receives
an event only when both match a registration, the event was emitted after
the listener was built (see Build and Replay), and the event has not already
been delivered to this listener.

Within one dispatch call, handlers run grouped by event type in the order
the types were first registered, and within one type in emission order.
Entries whose source has no handler on the listener are skipped silently.
Ordering across different event types does not follow global emission order.

Each (source, type) pair takes exactly one handler per listener; registering
a duplicate panics at the On call site (or returns ErrDuplicateHandler from
Attach). Use Attach, Detach, and Handles to change a live listener's
registrations between dispatches.

# Capability Context

Handlers often need shared state: a collector to append to, configuration to
read. Rather than closing over it ad hoc, a listener declares a capability
context shape as its type parameter and every handler receives a value of
that shape from Dispatch:

	type report = uniq.Caps2[uniq.Read[Config], uniq.Write[Stats]]

	b := uniq.Listen[report](q)
	uniq.On(b, src, func(cx report, ev Request) {
	    if cx.A.Get().Verbose {
	        cx.B.Get().Served++
	    }
	})
	l := b.Build()

	stats := uniq.NewWrite(&Stats{})
	cfg := uniq.NewRead(&appConfig)
	l.Dispatch(report{A: cfg, B: stats})

Read slots are shared: any number of handlers and concurrent dispatches may
observe the same value. Write slots are exclusive: while one dispatch call
holds a Write, a concurrent dispatch presenting the same Write panics with
ErrCapabilityHeld rather than aliasing the value. Shapes go up to ten slots
(Caps10); there is no wider shape.

# Late Joiners, Replay, and Reclamation

A listener's cursor into the log is created by Build at the current end of
each handled type: events emitted earlier are invisible to it. Builders may
opt into Replay to start at the earliest retained entry instead.

Events stay in the log until every listener interested in their type has
moved past them, then get reclaimed: opportunistically once a type's backlog
reaches a threshold (WithTrimThreshold), and immediately when a listener
closes or detaches a type. Types nobody listens to are bounded by the same
threshold. Close listeners you are done with; a forgotten open listener
retains every event of its handled types.

# Concurrency

The default queue is shared: Emit, Build, Dispatch, Attach, Detach, and
Close may be called from any goroutine. Internal locks are held only for
pointer and index updates, never across a handler invocation, so handlers
may re-entrantly Emit into their own queue. A handler must not call
Dispatch, Attach, Detach, or Close on its own listener.

WithExclusive removes all internal locking for callers that confine a queue
and its listeners to a single goroutine.

# Observability

Structured logging, metrics, and tracing are opt-in per queue:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	q := uniq.New(
	    uniq.WithObservabilityLogger(logger),
	    uniq.WithMetrics(true),
	    uniq.WithTracing(true),
	)

Logs carry queue_id, listener_id, event_type, source, handled, duration_ms,
and trimmed fields. OpenTelemetry metrics: uniq.events.emitted,
uniq.dispatch.runs, uniq.dispatch.latency_ms, uniq.handlers.invoked,
uniq.log.trimmed. Tracing emits a uniq.dispatch span per dispatch call.

Queues can also be configured from YAML or JSON via the config subpackage
and FromConfig.

# Error Handling

Configuration mistakes fail fast at their call site: builder misuse (nil
handlers, interface event types, duplicate pairs) panics with a "uniq:"
message, and the same mistakes through Attach return a *RegistrationError
wrapping a sentinel (ErrDuplicateHandler, ErrNilHandler,
ErrInterfaceEventType, ErrListenerClosed) for errors.Is.

Handler panics are not recovered: they propagate out of Dispatch unchanged,
abandoning the remainder of that pass. Capability mutations already applied
stay applied. The library makes no attempt at handler retry or isolation.

# Thread Safety

  - NextSourceID IS safe for unlimited concurrent callers
  - Queue and Listener ARE safe for concurrent use on a shared queue
  - Queue and Listener are NOT synchronized under WithExclusive
  - ListenerBuilder is NOT safe for concurrent use
  - A Write capability enforces its own exclusivity across dispatches

# Subpackages

  - config: file-based queue configuration (YAML, JSON)
  - observability: logging, metrics, and tracing helpers
*/
package uniq
