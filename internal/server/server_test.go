package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	runtime "github.com/quellhq/quell/internal/runtime"
	schema "github.com/quellhq/quell/internal/schema"
)

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	sdl := `type Query { hello: String counter: Int }`
	sch, err := schema.BuildFromSDL(sdl, schema.Resolvers{
		"Query.hello": func(ctx context.Context, src any, args map[string]any, info *schema.ResolveInfo) (any, error) {
			return "world", nil
		},
		"Query.counter": func(ctx context.Context, src any, args map[string]any, info *schema.ResolveInfo) (any, error) {
			return 42, nil
		},
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	h, err := New(runtime.NewBlocking(), sch, opts...)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func postJSON(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPostQuery(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `{"query":"{ hello }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	got := strings.TrimSpace(w.Body.String())
	want := `{"data":{"hello":"world"}}`
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestGetQuery(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("GET", "/?query="+url.QueryEscape("{ counter }"), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	got := strings.TrimSpace(w.Body.String())
	want := `{"data":{"counter":42}}`
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestValidationSuggestsFieldName(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `{"query":"{ counte }"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message   string `json:"message"`
			Locations []struct {
				Line   int `json:"line"`
				Column int `json:"column"`
			} `json:"locations"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data != nil {
		t.Fatalf("expected no data key, got %s", resp.Data)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
	msg := resp.Errors[0].Message
	if !strings.Contains(msg, "counte") || !strings.Contains(msg, "Did you mean") {
		t.Fatalf("message %q lacks suggestion", msg)
	}
	if len(resp.Errors[0].Locations) == 0 {
		t.Fatalf("expected locations on validation error")
	}
}

func TestWithoutValidationSkipsCheck(t *testing.T) {
	h := newTestHandler(t, WithoutValidation())
	w := postJSON(t, h, `{"query":"{ counte }"}`)
	// The executor still reports the unknown field as a field error.
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %+v", resp.Errors)
	}
}

func TestBatchRequest(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `[{"query":"{ hello }"},{"query":"{ counter }"}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	got := strings.TrimSpace(w.Body.String())
	want := `[{"data":{"hello":"world"}},{"data":{"counter":42}}]`
	if got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(16))
	w := postJSON(t, h, `{"query":"{ hello hello2 hello3 }"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d, want 413", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("DELETE", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", w.Code)
	}
}

func TestMissingQuery(t *testing.T) {
	h := newTestHandler(t)
	w := postJSON(t, h, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://app.example.com"))

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatalf("missing Allow-Methods header")
	}

	req = httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected Allow-Origin %q for disallowed origin", got)
	}
}

func TestGraphiQLPage(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "graphiql") {
		t.Fatalf("page does not embed GraphiQL")
	}
}
