package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	runtime "github.com/quellhq/quell/internal/runtime"
	schema "github.com/quellhq/quell/internal/schema"
)

func errorResolver(msg string) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return nil, errors.New(msg)
	}
}

func TestErrors_NullableFieldFailure_KeepsSiblings(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "good", Type: schema.NamedType("String"), Resolver: valueResolver("yes")},
				{Name: "broken", Type: schema.NamedType("String"), Resolver: errorResolver("boom")},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(sch, rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ good broken }"), "", nil, nil)

		want := `{"data":{"good":"yes","broken":null},"errors":[{"message":"boom","locations":[{"line":1,"column":8}],"path":["broken"]}]}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestErrors_NonNullBubbling_ToNullableAncestor(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "outer", Type: schema.NamedType("Outer"), Resolver: valueResolver(map[string]any{})},
				{Name: "sibling", Type: schema.NamedType("String"), Resolver: valueResolver("untouched")},
			}},
			"Outer": {Name: "Outer", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "inner", Type: schema.NonNullType(schema.NamedType("Inner")), Resolver: valueResolver(map[string]any{})},
			}},
			"Inner": {Name: "Inner", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "value", Type: schema.NonNullType(schema.NamedType("String")), Resolver: errorResolver("deep failure")},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(sch, rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ outer { inner { value } } sibling }"), "", nil, nil)

		// The failure nulls value, bubbles through inner (non-null) and stops
		// at outer (nullable); the sibling branch is untouched, and the error
		// is recorded once.
		data := res.Data.(*ResponseMap)
		if v, _ := data.Get("outer"); v != nil {
			t.Fatalf("outer = %v, want null", v)
		}
		if v, _ := data.Get("sibling"); v != "untouched" {
			t.Fatalf("sibling = %v, want untouched", v)
		}
		if len(res.Errors) != 1 {
			t.Fatalf("want exactly one error, got %+v", res.Errors)
		}
		wantPath := Path{"outer", "inner", "value"}
		if diff := cmp.Diff(wantPath, res.Errors[0].Path); diff != "" {
			t.Fatalf("error path mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestErrors_NonNullNullResult_RecordsViolation(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "holder", Type: schema.NamedType("Holder"), Resolver: valueResolver(map[string]any{})},
			}},
			"Holder": {Name: "Holder", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "required", Type: schema.NonNullType(schema.NamedType("String")), Resolver: valueResolver(nil)},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(sch, rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ holder { required } }"), "", nil, nil)

		want := `{"data":{"holder":null},"errors":[{"message":"Cannot return null for non-nullable field holder.required","locations":[{"line":1,"column":12}],"path":["holder","required"]}]}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestErrors_RootNonNullFailure_OmitsData(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "mandatory", Type: schema.NonNullType(schema.NamedType("String")), Resolver: errorResolver("total failure")},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(sch, rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ mandatory }"), "", nil, nil)

		if res.HasData {
			t.Fatalf("data should be absent, got %s", resultJSON(t, res))
		}
		want := `{"errors":[{"message":"total failure","locations":[{"line":1,"column":3}],"path":["mandatory"]}]}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestErrors_UnknownOperation_IsRequestFatal(t *testing.T) {
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(orderingSchema(), rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "query A { a } query B { b }"), "C", nil, nil)

		if res.HasData {
			t.Fatalf("data should be absent, got %s", resultJSON(t, res))
		}
		if len(res.Errors) != 1 {
			t.Fatalf("errors = %+v", res.Errors)
		}
	})
}

func TestErrors_ParseFailure_HasLocations(t *testing.T) {
	exec := NewExecutor(orderingSchema(), runtime.NewBlocking())
	res := exec.ExecuteRequest(context.Background(), &Request{Query: "{ a"})

	if res.HasData {
		t.Fatalf("data should be absent, got %s", resultJSON(t, res))
	}
	if len(res.Errors) != 1 || len(res.Errors[0].Locations) == 0 {
		t.Fatalf("errors = %+v", res.Errors)
	}
}
