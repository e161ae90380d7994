package executor

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	runtime "github.com/quellhq/quell/internal/runtime"
	schema "github.com/quellhq/quell/internal/schema"
)

func valueResolver(v any) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		return v, nil
	}
}

func slowResolver(d time.Duration, v any) schema.ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
		time.Sleep(d)
		return v, nil
	}
}

func orderingSchema() *schema.Schema {
	return &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query",
				Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "a", Type: schema.NamedType("String"), Resolver: slowResolver(20*time.Millisecond, "A")},
					{Name: "b", Type: schema.NamedType("String"), Resolver: valueResolver("B")},
					{Name: "c", Type: schema.NamedType("String"), Resolver: slowResolver(10*time.Millisecond, "C")},
				},
			},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
}

func TestOrdering_FieldOutput(t *testing.T) {
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(orderingSchema(), rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ a b c }"), "", nil, nil)

		want := `{"data":{"a":"A","b":"B","c":"C"}}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestOrdering_Aliases(t *testing.T) {
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(orderingSchema(), rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ z: c y: a c }"), "", nil, nil)

		want := `{"data":{"z":"C","y":"A","c":"C"}}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestOrdering_FragmentMerge_DuplicateFields(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "obj", Type: schema.NamedType("Obj"), Resolver: valueResolver(map[string]any{})},
			}},
			"Obj": {Name: "Obj", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "a", Type: schema.NamedType("String"), Resolver: valueResolver("first")},
				{Name: "b", Type: schema.NamedType("String"), Resolver: valueResolver("second")},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(sch, rt)
		query := `
			{ obj { a ...F } }
			fragment F on Obj { a b }
		`
		res := exec.Execute(context.Background(), mustParseQuery(t, query), "", nil, nil)

		// The duplicate selection of a merges into the first occurrence.
		want := `{"data":{"obj":{"a":"first","b":"second"}}}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestOrdering_NestedObjects(t *testing.T) {
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "outer", Type: schema.NamedType("Outer"), Resolver: valueResolver(map[string]any{})},
			}},
			"Outer": {Name: "Outer", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "slow", Type: schema.NamedType("String"), Resolver: slowResolver(15*time.Millisecond, "s")},
				{Name: "fast", Type: schema.NamedType("String"), Resolver: valueResolver("f")},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(sch, rt)
		res := exec.Execute(context.Background(), mustParseQuery(t, "{ outer { slow fast } __typename }"), "", nil, nil)

		want := `{"data":{"outer":{"slow":"s","fast":"f"},"__typename":"Query"}}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}
