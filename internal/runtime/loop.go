package runtime

import (
	"context"
	"errors"
	"sync"
)

// Loop is the cooperative single-threaded backend. Tasks and continuations
// run one at a time on whichever goroutine drives Await; suspension happens
// only between tasks. Because no two tasks ever run simultaneously, code
// composed over a Loop needs no locking of its own. Callables wrapped with
// WrapCallable are offloaded to helper goroutines and their completions are
// posted back to the loop, so a blocking callable never stalls the
// scheduler. Cancellation of in-flight work is the host's responsibility;
// the loop only honors ctx between steps.
type Loop struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []func()
	offloads int
}

// NewLoop returns a cooperative loop backend.
func NewLoop() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

var _ Runtime = (*Loop)(nil)

// loopTask is the loop's wrapped value. All state is guarded by the loop's
// mutex; waiters run as loop steps once the task settles.
type loopTask struct {
	l       *Loop
	done    bool
	val     any
	err     error
	waiters []func()
}

func (l *Loop) newTask() *loopTask { return &loopTask{l: l} }

func (t *loopTask) pendingValue() bool {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	return !t.done
}

func (t *loopTask) await(ctx context.Context) (any, error) {
	l := t.l
	l.mu.Lock()
	for !t.done {
		if err := ctx.Err(); err != nil {
			l.mu.Unlock()
			return nil, err
		}
		if len(l.queue) > 0 {
			step := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			step()
			l.mu.Lock()
			continue
		}
		if l.offloads > 0 {
			l.cond.Wait()
			continue
		}
		l.mu.Unlock()
		return nil, ErrStalled
	}
	val, err := t.val, t.err
	l.mu.Unlock()
	return val, err
}

func (l *Loop) enqueue(step func()) {
	l.mu.Lock()
	l.queue = append(l.queue, step)
	l.cond.Signal()
	l.mu.Unlock()
}

// post delivers an offloaded completion back onto the loop.
func (l *Loop) post(step func()) {
	l.mu.Lock()
	l.queue = append(l.queue, step)
	l.offloads--
	l.cond.Signal()
	l.mu.Unlock()
}

func (l *Loop) settle(t *loopTask, v any, err error) {
	l.mu.Lock()
	if t.done {
		l.mu.Unlock()
		return
	}
	t.done = true
	t.val, t.err = v, err
	l.queue = append(l.queue, t.waiters...)
	t.waiters = nil
	l.cond.Signal()
	l.mu.Unlock()
}

// whenSettled schedules cb once v settles. cb always runs as a loop step.
func (l *Loop) whenSettled(v any, cb func(val any, err error)) {
	switch w := v.(type) {
	case *loopTask:
		l.mu.Lock()
		if w.done {
			val, err := w.val, w.err
			l.queue = append(l.queue, func() { cb(val, err) })
			l.cond.Signal()
		} else {
			w.waiters = append(w.waiters, func() { cb(w.val, w.err) })
		}
		l.mu.Unlock()
	case settled:
		l.enqueue(func() { cb(w.val, w.err) })
	default:
		l.enqueue(func() { cb(v, nil) })
	}
}

func (l *Loop) EnsureWrapped(v any) any {
	if IsWrapped(v) {
		return v
	}
	return settled{val: v}
}

func (l *Loop) Submit(ctx context.Context, fn Callable) any {
	t := l.newTask()
	l.enqueue(func() {
		if err := ctx.Err(); err != nil {
			l.settle(t, nil, err)
			return
		}
		v, err := fn(ctx)
		if err == nil && IsWrapped(v) {
			l.whenSettled(v, func(val any, err error) { l.settle(t, val, err) })
			return
		}
		l.settle(t, v, err)
	})
	return t
}

func (l *Loop) Gather(ctx context.Context, vs []any) any {
	t := l.newTask()
	n := len(vs)
	if n == 0 {
		l.settle(t, []any{}, nil)
		return t
	}
	out := make([]any, n)
	var firstErr error
	remaining := n
	for i, v := range vs {
		i := i
		l.whenSettled(v, func(val any, err error) {
			// Runs on the loop; no lock needed around out/remaining.
			if err != nil {
				if firstErr == nil && !errors.Is(err, ErrCanceled) {
					firstErr = err
				}
			} else {
				out[i] = val
			}
			remaining--
			if remaining == 0 {
				if firstErr != nil {
					l.settle(t, nil, firstErr)
				} else {
					l.settle(t, out, nil)
				}
			}
		})
	}
	return t
}

func (l *Loop) Map(ctx context.Context, v any, fn MapFunc, rescue RescueFunc) any {
	t := l.newTask()
	l.whenSettled(v, func(val any, err error) {
		if err == nil {
			val, err = fn(val)
		}
		if err == nil && IsWrapped(val) {
			l.whenSettled(val, func(val any, err error) {
				if err != nil {
					val, err = applyRescue(err, rescue)
				}
				l.settle(t, val, err)
			})
			return
		}
		if err != nil {
			val, err = applyRescue(err, rescue)
		}
		l.settle(t, val, err)
	})
	return t
}

func (l *Loop) Unwrap(ctx context.Context, v any) any {
	if !IsWrapped(v) {
		return settled{val: v}
	}
	return l.Map(ctx, v, func(v any) (any, error) { return v, nil }, nil)
}

func (l *Loop) WrapCallable(fn Callable) func(ctx context.Context) any {
	return func(ctx context.Context) any {
		t := l.newTask()
		l.mu.Lock()
		l.offloads++
		l.mu.Unlock()
		go func() {
			v, err := fn(ctx)
			l.post(func() { l.settle(t, v, err) })
		}()
		return t
	}
}

func (l *Loop) Await(ctx context.Context, v any) (any, error) {
	return awaitValue(ctx, v)
}

func (l *Loop) SupportsStreams() bool { return true }

func (l *Loop) MapStream(ctx context.Context, s Stream, fn MapFunc) (Stream, error) {
	return &mappedStream{rt: l, src: s, fn: fn}, nil
}
