package uniq

import "sync/atomic"

// Caps is the constraint for a listener's capability context: the ordered set
// of values injected into every handler a dispatch call invokes.
//
// The set of context shapes is closed. A context is one of:
//   - None: no slots
//   - Read[T] or Write[T]: a single slot
//   - Caps2 through Caps10: an ordered tuple of slots
//
// Shapes beyond ten slots are not expressible. The shape is fixed by the
// listener's type parameter, so a handler whose context type differs from its
// listener's does not compile.
type Caps interface {
	acquire() error
	release()
}

// None is the empty capability context, for listeners whose handlers need no
// injected state.
//
//	b := uniq.Listen[uniq.None](q)
//	uniq.On(b, src, func(_ uniq.None, ev Tick) { ... })
type None struct{}

func (None) acquire() error { return nil }
func (None) release()       {}

// Read is a shared capability slot. Every handler invoked during a dispatch
// call sees the same underlying value through Get, without copying, and the
// same Read may be presented to any number of concurrent dispatches.
//
// Handlers must treat the value as read-only; use Write for mutation.
type Read[T any] struct {
	v *T
}

// NewRead wraps v as a shared capability slot.
func NewRead[T any](v *T) Read[T] {
	return Read[T]{v: v}
}

// Get returns the wrapped value.
func (r Read[T]) Get() *T { return r.v }

func (Read[T]) acquire() error { return nil }
func (Read[T]) release()       {}

// Write is an exclusive capability slot. For the duration of a dispatch call
// the slot is held: a concurrent dispatch presenting the same Write, on any
// listener, panics with ErrCapabilityHeld instead of aliasing the value. The
// hold is released when dispatch returns, whether normally or by panic.
//
// The hold state is shared by all copies of a Write produced by the same
// NewWrite call. Exclusivity is enforced per capability value: two separate
// NewWrite wrappers around the same object are not correlated, so construct
// the Write once, alongside the object it guards.
//
// The zero value is not usable; dispatching with it panics.
type Write[T any] struct {
	v    *T
	held *atomic.Bool
}

// NewWrite wraps v as an exclusive capability slot.
func NewWrite[T any](v *T) Write[T] {
	return Write[T]{v: v, held: new(atomic.Bool)}
}

// Get returns the wrapped value. Valid only inside a handler invocation,
// where the dispatch call holds the slot.
func (w Write[T]) Get() *T { return w.v }

func (w Write[T]) acquire() error {
	if w.held == nil {
		return errWriteUnset
	}
	if !w.held.CompareAndSwap(false, true) {
		return ErrCapabilityHeld
	}
	return nil
}

func (w Write[T]) release() {
	if w.held != nil {
		w.held.Store(false)
	}
}

// acquireAll acquires slots in order, releasing the already-held prefix if a
// later slot fails.
func acquireAll(caps ...Caps) error {
	for i, c := range caps {
		if err := c.acquire(); err != nil {
			for j := i - 1; j >= 0; j-- {
				caps[j].release()
			}
			return err
		}
	}
	return nil
}

// releaseAll releases slots in reverse acquisition order.
func releaseAll(caps ...Caps) {
	for i := len(caps) - 1; i >= 0; i-- {
		caps[i].release()
	}
}

// Caps2 through Caps10 are ordered capability tuples. Slots are acquired
// first-to-last and released last-to-first; each slot is itself a None, Read,
// Write, or nested tuple.
//
//	type appCaps = uniq.Caps2[uniq.Read[Config], uniq.Write[Stats]]
//
//	uniq.On(b, src, func(cx appCaps, ev Request) {
//	    cx.B.Get().Served++
//	    _ = cx.A.Get().Limit
//	})
//
//	l.Dispatch(appCaps{A: cfg, B: stats})
type Caps2[A, B Caps] struct {
	A A
	B B
}

func (c Caps2[A, B]) acquire() error { return acquireAll(c.A, c.B) }
func (c Caps2[A, B]) release()       { releaseAll(c.A, c.B) }

// Caps3 is an ordered capability tuple of three slots.
type Caps3[A, B, C Caps] struct {
	A A
	B B
	C C
}

func (c Caps3[A, B, C]) acquire() error { return acquireAll(c.A, c.B, c.C) }
func (c Caps3[A, B, C]) release()       { releaseAll(c.A, c.B, c.C) }

// Caps4 is an ordered capability tuple of four slots.
type Caps4[A, B, C, D Caps] struct {
	A A
	B B
	C C
	D D
}

func (c Caps4[A, B, C, D]) acquire() error { return acquireAll(c.A, c.B, c.C, c.D) }
func (c Caps4[A, B, C, D]) release()       { releaseAll(c.A, c.B, c.C, c.D) }

// Caps5 is an ordered capability tuple of five slots.
type Caps5[A, B, C, D, E Caps] struct {
	A A
	B B
	C C
	D D
	E E
}

func (c Caps5[A, B, C, D, E]) acquire() error { return acquireAll(c.A, c.B, c.C, c.D, c.E) }
func (c Caps5[A, B, C, D, E]) release()       { releaseAll(c.A, c.B, c.C, c.D, c.E) }

// Caps6 is an ordered capability tuple of six slots.
type Caps6[A, B, C, D, E, F Caps] struct {
	A A
	B B
	C C
	D D
	E E
	F F
}

func (c Caps6[A, B, C, D, E, F]) acquire() error {
	return acquireAll(c.A, c.B, c.C, c.D, c.E, c.F)
}

func (c Caps6[A, B, C, D, E, F]) release() {
	releaseAll(c.A, c.B, c.C, c.D, c.E, c.F)
}

// Caps7 is an ordered capability tuple of seven slots.
type Caps7[A, B, C, D, E, F, G Caps] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
}

func (c Caps7[A, B, C, D, E, F, G]) acquire() error {
	return acquireAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G)
}

func (c Caps7[A, B, C, D, E, F, G]) release() {
	releaseAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G)
}

// Caps8 is an ordered capability tuple of eight slots.
type Caps8[A, B, C, D, E, F, G, H Caps] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
	H H
}

func (c Caps8[A, B, C, D, E, F, G, H]) acquire() error {
	return acquireAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G, c.H)
}

func (c Caps8[A, B, C, D, E, F, G, H]) release() {
	releaseAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G, c.H)
}

// Caps9 is an ordered capability tuple of nine slots.
type Caps9[A, B, C, D, E, F, G, H, I Caps] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
	H H
	I I
}

func (c Caps9[A, B, C, D, E, F, G, H, I]) acquire() error {
	return acquireAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G, c.H, c.I)
}

func (c Caps9[A, B, C, D, E, F, G, H, I]) release() {
	releaseAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G, c.H, c.I)
}

// Caps10 is an ordered capability tuple of ten slots, the widest shape.
type Caps10[A, B, C, D, E, F, G, H, I, J Caps] struct {
	A A
	B B
	C C
	D D
	E E
	F F
	G G
	H H
	I I
	J J
}

func (c Caps10[A, B, C, D, E, F, G, H, I, J]) acquire() error {
	return acquireAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G, c.H, c.I, c.J)
}

func (c Caps10[A, B, C, D, E, F, G, H, I, J]) release() {
	releaseAll(c.A, c.B, c.C, c.D, c.E, c.F, c.G, c.H, c.I, c.J)
}

// Compile-time interface checks.
var (
	_ Caps = None{}
	_ Caps = Read[int]{}
	_ Caps = Write[int]{}
	_ Caps = Caps2[None, None]{}
	_ Caps = Caps3[None, None, None]{}
	_ Caps = Caps4[None, None, None, None]{}
	_ Caps = Caps5[None, None, None, None, None]{}
	_ Caps = Caps6[None, None, None, None, None, None]{}
	_ Caps = Caps7[None, None, None, None, None, None, None]{}
	_ Caps = Caps8[None, None, None, None, None, None, None, None]{}
	_ Caps = Caps9[None, None, None, None, None, None, None, None, None]{}
	_ Caps = Caps10[None, None, None, None, None, None, None, None, None, None]{}
)
