package runtime

import (
	"context"
	"errors"
)

// Runtime abstracts how possibly-pending values are produced and composed.
// The executor is written once against this interface; the three backends
// (Blocking, Pool, Loop) give it three different concurrency models with
// identical ordering and error semantics.
//
// General contract
//   - Every operation accepts plain values and wrapped values
//     interchangeably. A wrapped value is recognized by a cheap type
//     assertion against Wrapped; a plain value is never Wrapped. The check
//     has no false negatives: a pending value always asserts as Wrapped.
//   - Operations are total. They never panic on user input; failures travel
//     inside wrapped values and surface from Await.
//   - Gather preserves input order in its output regardless of completion
//     order. The first error among the inputs becomes the aggregate error;
//     inputs that are still pending are not cancelled because a sibling
//     failed. Cancelling the aggregate attempts to cancel every
//     not-yet-complete input; an input that was cancelled individually is a
//     local failure of its slot, not of the whole aggregate.
//   - Map flattens: when fn returns a wrapped value, the result settles with
//     that value's eventual outcome, not with the wrapper itself. Unwrap is
//     Map with the identity function and exists for resolvers that return
//     wrappers of wrappers.
//   - WrapCallable adapts a callable so that invoking it schedules the work
//     under this backend's model. The cooperative backend uses it to push
//     blocking callables onto helper goroutines so the loop never stalls.
//   - Await is the only operation that blocks the caller (or, for the
//     cooperative backend, drives the loop). It is intended for the
//     top-level caller; the executor composes everything else through Map
//     and Gather.
//
// Streams
//   - MapStream derives an event stream for subscription execution. A
//     backend without stream support reports SupportsStreams() == false and
//     returns ErrNoStreams before any event is consumed.
type Runtime interface {
	// EnsureWrapped coerces v into this backend's wrapped representation
	// without scheduling new work when v is already wrapped.
	EnsureWrapped(v any) any

	// Submit schedules fn under this backend's concurrency model and
	// returns a handle to its eventual result.
	Submit(ctx context.Context, fn Callable) any

	// Gather combines independent possibly-pending values into one pending
	// list, preserving input order in the output.
	Gather(ctx context.Context, vs []any) any

	// Map invokes fn once v settles successfully. When v (or fn) fails and
	// rescue is non-nil and accepts the error, the rescue value substitutes
	// the failure; any other error propagates.
	Map(ctx context.Context, v any, fn MapFunc, rescue RescueFunc) any

	// Unwrap flattens nested wrapped-of-wrapped values until the result
	// settles with a concrete value.
	Unwrap(ctx context.Context, v any) any

	// WrapCallable returns a function that runs fn under this backend's
	// concurrency model when invoked, returning its possibly-pending result.
	WrapCallable(fn Callable) func(ctx context.Context) any

	// Await resolves v to a concrete value, blocking or driving the backend
	// as needed. Top-level use only.
	Await(ctx context.Context, v any) (any, error)

	// SupportsStreams reports whether MapStream is available.
	SupportsStreams() bool

	// MapStream derives a stream whose events are fn applied to the source
	// events. Calling it on a backend without stream support returns
	// ErrNoStreams.
	MapStream(ctx context.Context, s Stream, fn MapFunc) (Stream, error)
}

// Callable is a unit of work scheduled on a Runtime.
type Callable func(ctx context.Context) (any, error)

// MapFunc transforms a settled value. It may return a wrapped value, which
// the runtime flattens.
type MapFunc func(v any) (any, error)

// RescueFunc inspects a failure and may substitute a value for it.
// Returning ok == false propagates the original error.
type RescueFunc func(err error) (v any, ok bool)

// Wrapped marks a backend-specific possibly-pending value.
type Wrapped interface {
	// pendingValue reports whether the value has not settled yet.
	pendingValue() bool
}

// IsPending reports whether v is a wrapped value that has not settled.
// Plain values are never pending.
func IsPending(v any) bool {
	w, ok := v.(Wrapped)
	return ok && w.pendingValue()
}

// IsWrapped reports whether v carries a backend wrapper, settled or not.
func IsWrapped(v any) bool {
	_, ok := v.(Wrapped)
	return ok
}

// ErrCanceled is the failure recorded for work cancelled before it ran.
var ErrCanceled = errors.New("runtime: task canceled")

// ErrNoStreams is returned when subscription streaming is requested from a
// backend without stream support.
var ErrNoStreams = errors.New("runtime: backend has no stream support")

// ErrStalled is returned when the cooperative loop runs out of runnable
// work while the awaited value is still pending.
var ErrStalled = errors.New("runtime: cooperative loop stalled")

// cancellable is implemented by wrapped values whose underlying work can be
// cancelled before it starts.
type cancellable interface {
	cancel()
}

// Cancel attempts to cancel the work behind v. It reports whether v was
// cancellable at all; already-settled values are unaffected.
func Cancel(v any) bool {
	c, ok := v.(cancellable)
	if !ok {
		return false
	}
	c.cancel()
	return true
}
