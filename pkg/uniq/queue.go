package uniq

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/jazzfool/uniq/pkg/uniq/observability"
)

// Queue owns an event log and routes typed events from sources to listeners.
//
// Producers call Emit; consumers build listeners with Listen/On/Build and
// pull deliveries with Dispatch. The queue never invokes handlers itself and
// never blocks an emitter on a consumer.
//
// By default a queue is safe for concurrent use from multiple goroutines.
// With WithExclusive all synchronization is elided and the caller confines
// the queue and its listeners to a single goroutine.
type Queue struct {
	id  string
	cfg queueConfig
	log *eventLog
}

// New creates an empty queue.
//
// Example:
//
//	q := uniq.New()
//	src := uniq.NextSourceID()
//	q.Emit(src, ButtonPress{X: 10, Y: 20})
func New(opts ...Option) *Queue {
	cfg := defaultQueueConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	q := &Queue{
		id:  uuid.New().String(),
		cfg: cfg,
	}
	q.log = newEventLog(q.newLocker(), cfg.trimThreshold)
	return q
}

// newLocker returns a locker matching the queue's concurrency mode. Each
// call returns a distinct locker so listeners never contend with the log.
func (q *Queue) newLocker() sync.Locker {
	if q.cfg.exclusive {
		return nopLocker{}
	}
	return &sync.Mutex{}
}

// ID returns the queue's unique identifier, as used in log fields and span
// attributes.
func (q *Queue) ID() string {
	return q.id
}

// Emit appends an event to the log, tagged with the source that emitted it.
//
// The event is routed by its concrete type: it lands in that type's bucket
// and is observable by every listener that registered a handler for exactly
// (src, type) before the emission. Listeners built later never see it
// (unless they opt into Replay). Emit never blocks on consumers and returns
// before any handler runs; handlers only run inside Dispatch.
//
// Emitting a value and emitting a pointer to it are different event types.
//
// Panics if event is nil.
func (q *Queue) Emit(src SourceID, event any) {
	if event == nil {
		panic("uniq: cannot emit nil event")
	}
	typ, trimmed := q.log.append(src, event)
	observability.LogEmit(q.cfg.logger, q.id, typ.String(), uint64(src))
	q.cfg.metrics.RecordEmit(context.Background(), typ.String())
	q.reportTrim(typ, trimmed)
}

// reportTrim forwards reclamation activity to the ambient logger and metrics.
func (q *Queue) reportTrim(typ reflect.Type, n int) {
	if n == 0 {
		return
	}
	observability.LogTrim(q.cfg.logger, q.id, typ.String(), n)
	q.cfg.metrics.RecordTrim(context.Background(), typ.String(), int64(n))
}

// nopLocker is the locker used in exclusive mode.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}
