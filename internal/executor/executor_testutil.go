package executor

import (
	"encoding/json"
	"testing"

	language "github.com/quellhq/quell/internal/language"
	runtime "github.com/quellhq/quell/internal/runtime"
)

// mustParseQuery parses a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return d
}

// resultJSON renders a result the way a transport would, so tests can assert
// the exact wire shape including key order and omitted keys.
func resultJSON(t *testing.T, res *Result) string {
	t.Helper()
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return string(b)
}

// eachBackend runs the test once per runtime backend. Semantics must not
// depend on the backend; tests that pin down backend-specific behavior use a
// single runtime directly.
func eachBackend(t *testing.T, fn func(t *testing.T, rt runtime.Runtime)) {
	t.Helper()
	backends := map[string]func() runtime.Runtime{
		"blocking": func() runtime.Runtime { return runtime.NewBlocking() },
		"pool":     func() runtime.Runtime { return runtime.NewPool(8) },
		"loop":     func() runtime.Runtime { return runtime.NewLoop() },
	}
	for name, make := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, make())
		})
	}
}
