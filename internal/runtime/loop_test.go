package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoop_TasksRunOneAtATime(t *testing.T) {
	rt := NewLoop()
	ctx := context.Background()

	// Unsynchronized state: safe iff tasks never overlap.
	depth := 0
	maxDepth := 0
	vs := make([]any, 16)
	for i := range vs {
		vs[i] = rt.Submit(ctx, func(ctx context.Context) (any, error) {
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
			depth--
			return nil, nil
		})
	}
	if _, err := rt.Await(ctx, rt.Gather(ctx, vs)); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if maxDepth != 1 {
		t.Fatalf("max overlap = %d, want 1", maxDepth)
	}
}

func TestLoop_SubmissionOrder(t *testing.T) {
	rt := NewLoop()
	ctx := context.Background()

	var order []int
	vs := make([]any, 4)
	for i := range vs {
		i := i
		vs[i] = rt.Submit(ctx, func(ctx context.Context) (any, error) {
			order = append(order, i)
			return i, nil
		})
	}
	got, err := rt.Await(ctx, rt.Gather(ctx, vs))
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if diff := cmp.Diff([]any{0, 1, 2, 3}, got); diff != "" {
		t.Fatalf("gathered mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, order); diff != "" {
		t.Fatalf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoop_StalledDetection(t *testing.T) {
	rt := NewLoop()

	// A task that never settles: nothing queued, nothing offloaded.
	orphan := rt.newTask()
	if _, err := rt.Await(context.Background(), orphan); !errors.Is(err, ErrStalled) {
		t.Fatalf("err = %v, want ErrStalled", err)
	}
}

func TestLoop_OffloadedCallablePostsBack(t *testing.T) {
	rt := NewLoop()
	ctx := context.Background()

	release := make(chan string)
	call := rt.WrapCallable(func(ctx context.Context) (any, error) {
		return <-release, nil
	})
	w := call(ctx)
	go func() { release <- "posted" }()

	// Awaiting parks on the condition variable until the offload posts back
	// instead of reporting a stall.
	got, err := rt.Await(ctx, w)
	if err != nil || got != "posted" {
		t.Fatalf("Await = %v, %v", got, err)
	}
}

func TestLoop_ContinuationsInterleaveWithOffloads(t *testing.T) {
	rt := NewLoop()
	ctx := context.Background()

	slow := rt.WrapCallable(func(ctx context.Context) (any, error) {
		return 100, nil
	})(ctx)
	chained := rt.Map(ctx, slow, func(v any) (any, error) {
		return v.(int) + 1, nil
	}, nil)
	quick := rt.Submit(ctx, func(ctx context.Context) (any, error) {
		return 1, nil
	})

	got, err := rt.Await(ctx, rt.Gather(ctx, []any{chained, quick}))
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if diff := cmp.Diff([]any{101, 1}, got); diff != "" {
		t.Fatalf("gathered mismatch (-want +got):\n%s", diff)
	}
}
