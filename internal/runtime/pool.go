package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Pool runs submitted work on goroutines bounded by a weighted semaphore.
// Values settle in parallel; Gather's output order is fixed by input order,
// never by completion order. Cancelling a future prevents not-yet-started
// work from running; work already running finishes.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a pool backend allowing at most workers concurrent tasks.
// workers < 1 defaults to 1.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

var _ Runtime = (*Pool)(nil)

// future is the pool's wrapped value: an eventual outcome with one-shot
// completion and pre-start cancellation.
type future struct {
	done      chan struct{}
	once      sync.Once
	val       any
	err       error
	cancelled atomic.Bool
}

func newFuture() *future { return &future{done: make(chan struct{})} }

func (f *future) pendingValue() bool {
	select {
	case <-f.done:
		return false
	default:
		return true
	}
}

func (f *future) complete(v any, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

func (f *future) cancel() {
	f.cancelled.Store(true)
}

func (f *future) await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) EnsureWrapped(v any) any {
	if IsWrapped(v) {
		return v
	}
	return settled{val: v}
}

func (p *Pool) Submit(ctx context.Context, fn Callable) any {
	f := newFuture()
	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			f.complete(nil, err)
			return
		}
		defer p.sem.Release(1)
		if f.cancelled.Load() {
			f.complete(nil, ErrCanceled)
			return
		}
		v, err := fn(ctx)
		f.complete(v, err)
	}()
	return f
}

// gatherFuture fans cancellation out to every not-yet-complete input.
type gatherFuture struct {
	*future
	children []any
}

func (g *gatherFuture) cancel() {
	g.future.cancel()
	for _, c := range g.children {
		if IsPending(c) {
			Cancel(c)
		}
	}
}

func (p *Pool) Gather(ctx context.Context, vs []any) any {
	inputs := make([]any, len(vs))
	copy(inputs, vs)
	agg := &gatherFuture{future: newFuture(), children: inputs}
	go func() {
		out := make([]any, len(inputs))
		var firstErr error
		for i, v := range inputs {
			val, err := awaitValue(ctx, v)
			switch {
			case err == nil:
				out[i] = val
			case errors.Is(err, ErrCanceled):
				// A cancelled branch fails locally; the aggregate survives.
			case firstErr == nil:
				firstErr = err
			}
		}
		if firstErr != nil {
			agg.complete(nil, firstErr)
			return
		}
		agg.complete(out, nil)
	}()
	return agg
}

func (p *Pool) Map(ctx context.Context, v any, fn MapFunc, rescue RescueFunc) any {
	f := newFuture()
	go func() {
		val, err := awaitValue(ctx, v)
		if err == nil {
			val, err = fn(val)
		}
		if err == nil && IsWrapped(val) {
			val, err = awaitValue(ctx, val)
		}
		if err != nil {
			val, err = applyRescue(err, rescue)
		}
		f.complete(val, err)
	}()
	return f
}

func (p *Pool) Unwrap(ctx context.Context, v any) any {
	if !IsWrapped(v) {
		return settled{val: v}
	}
	return p.Map(ctx, v, func(v any) (any, error) { return v, nil }, nil)
}

func (p *Pool) WrapCallable(fn Callable) func(ctx context.Context) any {
	return func(ctx context.Context) any { return p.Submit(ctx, fn) }
}

func (p *Pool) Await(ctx context.Context, v any) (any, error) {
	return awaitValue(ctx, v)
}

func (p *Pool) SupportsStreams() bool { return true }

func (p *Pool) MapStream(ctx context.Context, s Stream, fn MapFunc) (Stream, error) {
	return &mappedStream{rt: p, src: s, fn: fn}, nil
}
