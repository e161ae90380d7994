package runtime

import "context"

// settled is a wrapped value that already carries its outcome. The blocking
// backend produces nothing else; the other backends use it for values that
// settle without scheduling work.
type settled struct {
	val any
	err error
}

func (settled) pendingValue() bool { return false }

func (s settled) await(ctx context.Context) (any, error) { return s.val, s.err }

// awaitable is implemented by every wrapped value in this package. await
// returns the settled outcome, blocking or driving a loop as required, and
// may itself return another wrapped value when outcomes nest.
type awaitable interface {
	await(ctx context.Context) (any, error)
}

// awaitValue fully resolves v, flattening nested wrapped values.
func awaitValue(ctx context.Context, v any) (any, error) {
	for {
		aw, ok := v.(awaitable)
		if !ok {
			return v, nil
		}
		var err error
		v, err = aw.await(ctx)
		if err != nil {
			return nil, err
		}
	}
}

// Resolved wraps a concrete value as an already-settled wrapped value.
func Resolved(v any) any { return settled{val: v} }

// Failed wraps an error as an already-settled wrapped value.
func Failed(err error) any { return settled{err: err} }

// applyRescue routes an error through the optional rescue handler.
func applyRescue(err error, rescue RescueFunc) (any, error) {
	if rescue != nil {
		if v, ok := rescue(err); ok {
			return v, nil
		}
	}
	return nil, err
}
