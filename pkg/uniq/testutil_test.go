package uniq

// Test event types used across tests

// Click is a pointer-device event.
type Click struct {
	X, Y int
}

// KeyPress is a keyboard event.
type KeyPress struct {
	Code int
}

// Tick is a timer event.
type Tick struct {
	N int
}

// WindowClose is a shutdown request event.
type WindowClose struct {
	Reason string
}

// Packet is a network arrival event.
type Packet struct {
	Seq int
}

// Test capability targets

// Settings is read-only handler state.
type Settings struct {
	Limit int
}

// Stats is mutable handler state guarded by a Write slot.
type Stats struct {
	Clicks int
	Events int
}

// Helper handler factories

// record appends each delivered event to the given slice.
func record[E any](into *[]E) func(None, E) {
	return func(_ None, ev E) {
		*into = append(*into, ev)
	}
}

// count increments the given counter per delivery.
func count[E any](n *int) func(None, E) {
	return func(_ None, _ E) {
		*n++
	}
}

// panicOn panics with the given value on every delivery.
func panicOn[E any](value any) func(None, E) {
	return func(_ None, _ E) {
		panic(value)
	}
}
