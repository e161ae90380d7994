package runtime

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func drain(t *testing.T, s Stream) []any {
	t.Helper()
	defer s.Close()
	var out []any
	for {
		ev, ok, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestStream_FromSlice(t *testing.T) {
	got := drain(t, FromSlice(1, 2, 3))
	if diff := cmp.Diff([]any{1, 2, 3}, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_FromChannel(t *testing.T) {
	ch := make(chan any, 3)
	ch <- "a"
	ch <- "b"
	close(ch)

	got := drain(t, FromChannel(ch))
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_CloseDetachesConsumer(t *testing.T) {
	ch := make(chan any)
	s := FromChannel(ch)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	_, ok, err := s.Next(context.Background())
	if ok || err != nil {
		t.Fatalf("Next after close = %v, %v", ok, err)
	}
}

func TestStream_MapStreamRunsPerEvent(t *testing.T) {
	for _, rt := range []Runtime{NewPool(2), NewLoop()} {
		mapped, err := rt.MapStream(context.Background(), FromSlice(1, 2, 3), func(v any) (any, error) {
			return v.(int) * 2, nil
		})
		if err != nil {
			t.Fatalf("MapStream: %v", err)
		}
		got := drain(t, mapped)
		if diff := cmp.Diff([]any{2, 4, 6}, got); diff != "" {
			t.Fatalf("events mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestStream_BlockingHasNoStreams(t *testing.T) {
	rt := NewBlocking()
	if rt.SupportsStreams() {
		t.Fatal("blocking backend must not claim stream support")
	}
	if _, err := rt.MapStream(context.Background(), FromSlice(1), nil); err != ErrNoStreams {
		t.Fatalf("err = %v, want ErrNoStreams", err)
	}
}
