package uniq

import "sync/atomic"

// SourceID identifies an event emitter. Values are plain integers with no
// embedded structure; dispatch matches them by exact equality.
//
// Producers obtain fresh identifiers from NextSourceID. Nothing prevents a
// caller from minting its own SourceID values (for example, well-known
// constants), but mixing hand-picked values with generated ones risks
// collisions.
type SourceID uint64

// nextSourceID is the process-wide identifier counter.
var nextSourceID atomic.Uint64

// NextSourceID returns a new process-unique source identifier.
//
// Identifiers start at 0 and increase by 1 per call. The counter is a single
// atomic; concurrent callers never receive the same value, and the values
// handed to any one goroutine are strictly increasing. Overflow of the 64-bit
// counter is not handled.
//
// Example:
//
//	button := uniq.NextSourceID()
//	window := uniq.NextSourceID()
//	q.Emit(button, ButtonPress{X: 10, Y: 20})
func NextSourceID() SourceID {
	return SourceID(nextSourceID.Add(1) - 1)
}
