package uniq

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for handler registration.
var (
	// ErrDuplicateHandler indicates a handler is already registered for the
	// (source, event type) pair.
	ErrDuplicateHandler = errors.New("handler already registered for source and event type")

	// ErrNilHandler indicates a nil handler function was supplied.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInterfaceEventType indicates a handler was registered with an
	// interface event type. Events are routed by their concrete type, so a
	// handler keyed by an interface could never match.
	ErrInterfaceEventType = errors.New("event type must be concrete, not an interface")

	// ErrListenerClosed indicates an operation on a listener after Close.
	ErrListenerClosed = errors.New("listener is closed")
)

// Sentinel errors for capability contexts.
var (
	// ErrCapabilityHeld indicates a Write slot was presented to a dispatch
	// call while another dispatch still holds it.
	ErrCapabilityHeld = errors.New("write capability already held by another dispatch")

	// errWriteUnset indicates a zero-value Write was used instead of one
	// constructed with NewWrite.
	errWriteUnset = errors.New("write capability not initialized (use NewWrite)")
)

// errDispatchAborted marks dispatch observability records when a handler
// panic unwinds the call. The panic itself propagates unmodified.
var errDispatchAborted = errors.New("handler panicked; dispatch aborted")

// RegistrationError wraps a handler registration failure with the pair that
// caused it.
type RegistrationError struct {
	// Source is the emitter identifier the registration targeted.
	Source SourceID
	// EventType is the concrete event type the registration targeted.
	EventType reflect.Type
	// Err is the underlying error (ErrDuplicateHandler, ErrNilHandler, ...).
	Err error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register handler for source %d, type %s: %v", e.Source, e.EventType, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
