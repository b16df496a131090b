// Package flow holds the pieces shared by the client's orchestrating views:
// the outcome of a user-initiated operation and the latch that keeps at most
// one of them in flight per view.
package flow

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when an operation is started while another one of
// the same view is still running.
var ErrInFlight = errors.New("flow: operation already in progress")

// ErrClosed is returned when a response arrives after the view was closed.
var ErrClosed = errors.New("flow: view closed")

// Kind classifies a Result.
type Kind int

const (
	None     Kind = iota
	Success       // confirmed by the server
	Error         // rejected locally or by the server
	Warning       // accepted, but the outcome could not be confirmed
	NoChange      // nothing to submit
	Ignored       // dropped: another operation was in flight
	Discarded     // the view closed before the response arrived
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case NoChange:
		return "no-change"
	case Ignored:
		return "ignored"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Result is the user-visible outcome of one operation.
type Result struct {
	Kind    Kind
	Message string
	Field   string // set when a single input caused a validation error
	Err     error
}

// OK reports whether the operation was confirmed.
func (r Result) OK() bool { return r.Kind == Success }

// Fail builds an Error result.
func Fail(msg string, err error) Result {
	return Result{Kind: Error, Message: msg, Err: err}
}

// Invalid builds an Error result for one input field.
func Invalid(field, msg string, err error) Result {
	return Result{Kind: Error, Field: field, Message: msg, Err: err}
}

// Latch is a non-reentrant busy flag plus a closed flag for one view.
// The zero value is ready to use.
type Latch struct {
	mu     sync.Mutex
	busy   bool
	closed bool
}

// Acquire marks the view busy. It reports false if it already was.
func (l *Latch) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return false
	}
	l.busy = true
	return true
}

// Release clears the busy flag.
func (l *Latch) Release() {
	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
}

// Busy reports whether an operation is running.
func (l *Latch) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}

// Close marks the view closed. Responses arriving afterwards must be dropped.
func (l *Latch) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Closed reports whether Close was called.
func (l *Latch) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Ignore is the result of an operation rejected by a busy Latch.
func Ignore() Result {
	return Result{Kind: Ignored, Err: ErrInFlight}
}

// Discard is the result of an operation whose view closed mid-flight.
func Discard() Result {
	return Result{Kind: Discarded, Err: ErrClosed}
}
