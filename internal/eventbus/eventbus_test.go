package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type userCreated struct{ Name string }

type orderPlaced struct{ ID int }

func TestPublishDispatchesByType(t *testing.T) {
	b := New()
	var users []string
	var orders []int
	SubscribeTo(b, func(ctx context.Context, e userCreated) { users = append(users, e.Name) })
	SubscribeTo(b, func(ctx context.Context, e orderPlaced) { orders = append(orders, e.ID) })

	ctx := context.Background()
	PublishTo(b, ctx, userCreated{Name: "ada"})
	PublishTo(b, ctx, orderPlaced{ID: 7})
	PublishTo(b, ctx, userCreated{Name: "lin"})

	require.Equal(t, []string{"ada", "lin"}, users)
	require.Equal(t, []int{7}, orders)
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	b := New()
	var order []string
	SubscribeTo(b, func(ctx context.Context, e userCreated) { order = append(order, "first") })
	SubscribeTo(b, func(ctx context.Context, e userCreated) { order = append(order, "second") })

	PublishTo(b, context.Background(), userCreated{})
	require.Equal(t, []string{"first", "second"}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	calls := 0
	unsub := SubscribeTo(b, func(ctx context.Context, e userCreated) { calls++ })

	PublishTo(b, context.Background(), userCreated{})
	unsub()
	unsub() // second call is a no-op
	PublishTo(b, context.Background(), userCreated{})

	require.Equal(t, 1, calls)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := New()
	PublishTo(b, context.Background(), orderPlaced{ID: 1})
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := New()
	var mu sync.Mutex
	seen := 0
	SubscribeTo(b, func(ctx context.Context, e orderPlaced) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				PublishTo(b, context.Background(), orderPlaced{ID: i})
			} else {
				unsub := SubscribeTo(b, func(ctx context.Context, e userCreated) {})
				unsub()
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 8, seen)
}
