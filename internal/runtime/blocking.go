package runtime

import "context"

// Blocking runs everything on the caller's stack. There is no concurrency
// and no suspension; Submit executes immediately and every returned value is
// already settled. It is the backend of choice for deterministic tests and
// for callers that bring their own parallelism.
type Blocking struct{}

// NewBlocking returns the blocking backend.
func NewBlocking() *Blocking { return &Blocking{} }

var _ Runtime = (*Blocking)(nil)

func (b *Blocking) EnsureWrapped(v any) any {
	if IsWrapped(v) {
		return v
	}
	return settled{val: v}
}

func (b *Blocking) Submit(ctx context.Context, fn Callable) any {
	if err := ctx.Err(); err != nil {
		return settled{err: err}
	}
	v, err := fn(ctx)
	return settled{val: v, err: err}
}

func (b *Blocking) Gather(ctx context.Context, vs []any) any {
	out := make([]any, len(vs))
	var firstErr error
	for i, v := range vs {
		val, err := b.Await(ctx, v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[i] = val
	}
	if firstErr != nil {
		return settled{err: firstErr}
	}
	return settled{val: out}
}

func (b *Blocking) Map(ctx context.Context, v any, fn MapFunc, rescue RescueFunc) any {
	val, err := b.Await(ctx, v)
	if err == nil {
		val, err = fn(val)
	}
	if err == nil && IsWrapped(val) {
		val, err = b.Await(ctx, val)
	}
	if err != nil {
		val, err = applyRescue(err, rescue)
	}
	return settled{val: val, err: err}
}

func (b *Blocking) Unwrap(ctx context.Context, v any) any {
	val, err := b.Await(ctx, v)
	return settled{val: val, err: err}
}

func (b *Blocking) WrapCallable(fn Callable) func(ctx context.Context) any {
	return func(ctx context.Context) any { return b.Submit(ctx, fn) }
}

func (b *Blocking) Await(ctx context.Context, v any) (any, error) {
	return awaitValue(ctx, v)
}

func (b *Blocking) SupportsStreams() bool { return false }

func (b *Blocking) MapStream(ctx context.Context, s Stream, fn MapFunc) (Stream, error) {
	return nil, ErrNoStreams
}
