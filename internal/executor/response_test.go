package executor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	runtime "github.com/quellhq/quell/internal/runtime"
)

func TestResponseMap_PreservesInsertionOrder(t *testing.T) {
	m := newResponseMap(3)
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", nil)
	m.Set("z", 9) // overwrite keeps the original position

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"z":9,"a":2,"m":null}`
	if diff := cmp.Diff(want, string(b)); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"z", "a", "m"}, m.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestResult_Extensions(t *testing.T) {
	exec := NewExecutor(orderingSchema(), runtime.NewBlocking())
	exec.RegisterExtension("tracing", func(ctx context.Context, result *Result) any {
		return map[string]any{"fields": 1}
	})
	res := exec.Execute(context.Background(), mustParseQuery(t, "{ b }"), "", nil, nil)

	want := `{"data":{"b":"B"},"extensions":{"tracing":{"fields":1}}}`
	if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestPath_String(t *testing.T) {
	p := Path{"user", "friends", 2, "name"}
	if got := p.String(); got != "user.friends[2].name" {
		t.Fatalf("Path.String() = %q", got)
	}
}
