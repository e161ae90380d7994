package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	runtime "github.com/quellhq/quell/internal/runtime"
	schema "github.com/quellhq/quell/internal/schema"
)

func TestCollect_SkipAndInclude(t *testing.T) {
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(orderingSchema(), rt)
		query := `query ($s: Boolean!, $i: Boolean!) {
			a @skip(if: $s)
			b @include(if: $i)
			c @skip(if: $s) @include(if: $i)
		}`
		cases := []struct {
			s, i bool
			want string
		}{
			{false, true, `{"data":{"a":"A","b":"B","c":"C"}}`},
			{true, true, `{"data":{"b":"B"}}`},
			{false, false, `{"data":{"a":"A"}}`},
			// skip wins over include
			{true, false, `{"data":{}}`},
		}
		for _, tc := range cases {
			res := exec.Execute(context.Background(), mustParseQuery(t, query), "",
				map[string]any{"s": tc.s, "i": tc.i}, nil)
			if diff := cmp.Diff(tc.want, resultJSON(t, res)); diff != "" {
				t.Fatalf("skip=%v include=%v mismatch (-want +got):\n%s", tc.s, tc.i, diff)
			}
		}
	})
}

func TestCollect_FragmentSpreadOncePerSet(t *testing.T) {
	calls := 0
	sch := &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
				{Name: "x", Type: schema.NamedType("String"), Resolver: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
					calls++
					return "X", nil
				}},
			}},
			"String": {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
	exec := NewExecutor(sch, runtime.NewBlocking())
	query := `
		{ ...F ...F }
		fragment F on Query { x }
	`
	res := exec.Execute(context.Background(), mustParseQuery(t, query), "", nil, nil)

	want := `{"data":{"x":"X"}}`
	if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("resolver ran %d times, want 1", calls)
	}
}

func TestCollect_InlineFragmentTypeCondition(t *testing.T) {
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		exec := NewExecutor(petsSchema(), rt)
		query := `{
			pet {
				name
				... on Dog { barks }
				... on Person { __typename }
			}
		}`
		res := exec.Execute(context.Background(), mustParseQuery(t, query), "", nil, nil)

		// The Person condition cannot apply to a Dog, so its selection drops.
		want := `{"data":{"pet":{"name":"Rex","barks":true}}}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

// Two parents select the same fragment first and then diverge. The merged
// sub-selections share their leading node, so a content-keyed collection
// cache would hand the second parent the first parent's grouping.
func TestCollect_SharedFragmentPrefixStaysDistinct(t *testing.T) {
	eachBackend(t, func(t *testing.T, rt runtime.Runtime) {
		sch := &schema.Schema{
			QueryType: "Query",
			Types: map[string]*schema.Type{
				"Query": {Name: "Query", Kind: schema.TypeKindObject, Fields: []*schema.Field{
					{Name: "p", Type: schema.NamedType("T"), Resolver: valueResolver(map[string]any{
						"child": map[string]any{"a": "pa", "b": "pb", "c": "pc"},
					})},
					{Name: "q", Type: schema.NamedType("T"), Resolver: valueResolver(map[string]any{
						"child": map[string]any{"a": "qa", "b": "qb", "c": "qc"},
					})},
				}},
				"T": {Name: "T", Kind: schema.TypeKindObject, Fields: []*schema.Field{
					{Name: "child", Type: schema.NamedType("C")},
				}},
				"C": {Name: "C", Kind: schema.TypeKindObject, Fields: []*schema.Field{
					{Name: "a", Type: schema.NamedType("String")},
					{Name: "b", Type: schema.NamedType("String")},
					{Name: "c", Type: schema.NamedType("String")},
				}},
				"String": {Name: "String", Kind: schema.TypeKindScalar},
			},
		}
		exec := NewExecutor(sch, rt)
		query := `
			fragment F on T { child { a } }
			{
				p { ...F child { b } }
				q { ...F child { c } }
			}
		`
		res := exec.Execute(context.Background(), mustParseQuery(t, query), "", nil, nil)

		want := `{"data":{"p":{"child":{"a":"pa","b":"pb"}},"q":{"child":{"a":"qa","c":"qc"}}}}`
		if diff := cmp.Diff(want, resultJSON(t, res)); diff != "" {
			t.Fatalf("result mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCollectKeys_WithoutSchema(t *testing.T) {
	doc := mustParseQuery(t, `
		query ($flag: Boolean!) {
			a
			z: b
			...F
			c @skip(if: $flag)
		}
		fragment F on Query { d a }
	`)
	got := CollectKeys(doc, doc.Operations[0].SelectionSet, map[string]any{"flag": true})
	want := []string{"a", "z", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}
