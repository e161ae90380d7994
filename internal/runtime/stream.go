package runtime

import (
	"context"
	"sync"
)

// Stream is an ordered source of events, one per subscription result.
type Stream interface {
	// Next returns the next event. ok == false means the stream ended
	// normally; an error ends the stream abnormally.
	Next(ctx context.Context) (event any, ok bool, err error)
	// Close releases the source. Safe to call more than once.
	Close() error
}

// mappedStream applies fn to each source event through the runtime, so the
// per-event work runs under the backend's concurrency model.
type mappedStream struct {
	rt  Runtime
	src Stream
	fn  MapFunc
}

func (m *mappedStream) Next(ctx context.Context) (any, bool, error) {
	ev, ok, err := m.src.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out, err := m.rt.Await(ctx, m.rt.Map(ctx, m.rt.EnsureWrapped(ev), m.fn, nil))
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (m *mappedStream) Close() error { return m.src.Close() }

// chanStream adapts a channel to a Stream. The channel closing ends the
// stream; Close only detaches the consumer, it cannot close the producer's
// channel.
type chanStream struct {
	ch     <-chan any
	closed chan struct{}
	once   sync.Once
}

// FromChannel exposes ch as a Stream.
func FromChannel(ch <-chan any) Stream {
	return &chanStream{ch: ch, closed: make(chan struct{})}
}

func (c *chanStream) Next(ctx context.Context) (any, bool, error) {
	select {
	case <-c.closed:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case ev, ok := <-c.ch:
		if !ok {
			return nil, false, nil
		}
		return ev, true, nil
	}
}

func (c *chanStream) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// sliceStream yields a fixed set of events; handy in tests and examples.
type sliceStream struct {
	events []any
	pos    int
}

// FromSlice exposes events as a Stream.
func FromSlice(events ...any) Stream {
	return &sliceStream{events: events}
}

func (s *sliceStream) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.pos >= len(s.events) {
		return nil, false, nil
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, true, nil
}

func (s *sliceStream) Close() error { return nil }
