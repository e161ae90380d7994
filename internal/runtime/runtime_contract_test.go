package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func eachRuntime(t *testing.T, fn func(t *testing.T, rt Runtime)) {
	t.Helper()
	backends := map[string]func() Runtime{
		"blocking": func() Runtime { return NewBlocking() },
		"pool":     func() Runtime { return NewPool(4) },
		"loop":     func() Runtime { return NewLoop() },
	}
	for name, make := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, make())
		})
	}
}

func TestContract_EnsureWrappedIsIdempotent(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		w := rt.EnsureWrapped(42)
		if !IsWrapped(w) {
			t.Fatal("EnsureWrapped did not wrap")
		}
		if again := rt.EnsureWrapped(w); again != w {
			t.Fatal("EnsureWrapped re-wrapped an already wrapped value")
		}
		got, err := rt.Await(context.Background(), w)
		if err != nil || got != 42 {
			t.Fatalf("Await = %v, %v", got, err)
		}
	})
}

func TestContract_SubmitAndAwait(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		w := rt.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return "done", nil
		})
		got, err := rt.Await(context.Background(), w)
		if err != nil || got != "done" {
			t.Fatalf("Await = %v, %v", got, err)
		}
	})
}

func TestContract_SubmitError(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		boom := errors.New("boom")
		w := rt.Submit(context.Background(), func(ctx context.Context) (any, error) {
			return nil, boom
		})
		if _, err := rt.Await(context.Background(), w); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
	})
}

func TestContract_MapTransformsAndFlattens(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		w := rt.Map(ctx, rt.EnsureWrapped(3), func(v any) (any, error) {
			// Returning a wrapped value must flatten, not nest.
			return rt.Submit(ctx, func(ctx context.Context) (any, error) {
				return v.(int) * 10, nil
			}), nil
		}, nil)
		got, err := rt.Await(ctx, w)
		if err != nil || got != 30 {
			t.Fatalf("Await = %v, %v", got, err)
		}
	})
}

func TestContract_MapRescue(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		failing := rt.Submit(ctx, func(ctx context.Context) (any, error) {
			return nil, errors.New("resolver blew up")
		})
		rescued := rt.Map(ctx, failing, func(v any) (any, error) {
			t.Fatal("fn must not run on a failed input")
			return nil, nil
		}, func(err error) (any, bool) {
			return "fallback", true
		})
		got, err := rt.Await(ctx, rescued)
		if err != nil || got != "fallback" {
			t.Fatalf("Await = %v, %v", got, err)
		}

		declined := rt.Map(ctx, failing, func(v any) (any, error) {
			return v, nil
		}, func(err error) (any, bool) {
			return nil, false
		})
		if _, err := rt.Await(ctx, declined); err == nil {
			t.Fatal("declining rescue must keep the failure")
		}
	})
}

func TestContract_GatherPreservesInputOrder(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		vs := make([]any, 5)
		for i := range vs {
			i := i
			vs[i] = rt.Submit(ctx, func(ctx context.Context) (any, error) {
				return i * i, nil
			})
		}
		got, err := rt.Await(ctx, rt.Gather(ctx, vs))
		if err != nil {
			t.Fatalf("Await: %v", err)
		}
		want := []any{0, 1, 4, 9, 16}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("gathered mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestContract_GatherEmpty(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		got, err := rt.Await(ctx, rt.Gather(ctx, nil))
		if err != nil {
			t.Fatalf("Await: %v", err)
		}
		if diff := cmp.Diff([]any{}, got); diff != "" {
			t.Fatalf("gathered mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestContract_GatherFirstErrorWins(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		vs := []any{
			rt.EnsureWrapped(1),
			Failed(fmt.Errorf("first")),
			Failed(fmt.Errorf("second")),
		}
		_, err := rt.Await(ctx, rt.Gather(ctx, vs))
		if err == nil || err.Error() != "first" {
			t.Fatalf("err = %v, want first", err)
		}
	})
}

func TestContract_UnwrapNestedValues(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		nested := rt.EnsureWrapped(rt.EnsureWrapped(rt.EnsureWrapped("core")))
		got, err := rt.Await(ctx, rt.Unwrap(ctx, nested))
		if err != nil || got != "core" {
			t.Fatalf("Await = %v, %v", got, err)
		}
	})
}

func TestContract_WrapCallable(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		ctx := context.Background()
		call := rt.WrapCallable(func(ctx context.Context) (any, error) {
			return "lifted", nil
		})
		got, err := rt.Await(ctx, call(ctx))
		if err != nil || got != "lifted" {
			t.Fatalf("Await = %v, %v", got, err)
		}
	})
}

func TestContract_AwaitPlainValue(t *testing.T) {
	eachRuntime(t, func(t *testing.T, rt Runtime) {
		got, err := rt.Await(context.Background(), "bare")
		if err != nil || got != "bare" {
			t.Fatalf("Await = %v, %v", got, err)
		}
	})
}

func TestContract_ResolvedAndFailed(t *testing.T) {
	if !IsWrapped(Resolved(1)) || !IsWrapped(Failed(errors.New("x"))) {
		t.Fatal("Resolved/Failed must produce wrapped values")
	}
	if IsPending(Resolved(1)) {
		t.Fatal("a settled value must not be pending")
	}
}
