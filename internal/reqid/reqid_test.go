package reqid

import (
	"context"
	"testing"
)

func TestNewContextAndFromContext(t *testing.T) {
	ctx, id := NewContext(context.Background())
	if id == "" {
		t.Fatal("empty request ID")
	}
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Fatalf("FromContext = %q, %v; want %q", got, ok, id)
	}
}

func TestFromContextMissing(t *testing.T) {
	if id, ok := FromContext(context.Background()); ok || id != "" {
		t.Fatalf("FromContext on bare context = %q, %v", id, ok)
	}
}

func TestIDsAreUnique(t *testing.T) {
	_, a := NewContext(context.Background())
	_, b := NewContext(context.Background())
	if a == b {
		t.Fatal("two requests got the same ID")
	}
}
