// Package eventbus is a small in-process pub/sub spine. Instrumentation
// layers (logging, tracing) subscribe to typed events; the packages doing
// the work publish them without knowing who listens.
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

// Bus dispatches events to handlers registered for their concrete type.
// Dispatch is synchronous and in registration order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[reflect.Type][]subscription
}

type subscription struct {
	id int
	fn func(context.Context, any)
}

// New creates an empty Bus.
func New() *Bus { return &Bus{subs: make(map[reflect.Type][]subscription)} }

func (b *Bus) add(t reflect.Type, fn func(context.Context, any)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[t] = append(b.subs[t], subscription{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) publish(ctx context.Context, t reflect.Type, e any) {
	b.mu.RLock()
	list := b.subs[t]
	handlers := make([]subscription, len(list))
	copy(handlers, list)
	b.mu.RUnlock()
	for _, s := range handlers {
		s.fn(ctx, e)
	}
}

// SubscribeTo registers h on the given bus and returns an unsubscribe
// function.
func SubscribeTo[T any](b *Bus, h Handler[T]) func() {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.add(t, func(ctx context.Context, e any) { h(ctx, e.(T)) })
}

// PublishTo delivers e to every handler registered for its type on b.
func PublishTo[T any](b *Bus, ctx context.Context, e T) {
	b.publish(ctx, reflect.TypeOf((*T)(nil)).Elem(), e)
}

// defaultBus serves the package-level Subscribe/Publish used across the
// process.
var defaultBus = New()

// Subscribe registers h on the default bus.
func Subscribe[T any](h Handler[T]) func() { return SubscribeTo(defaultBus, h) }

// Publish delivers e on the default bus.
func Publish[T any](ctx context.Context, e T) { PublishTo(defaultBus, ctx, e) }
