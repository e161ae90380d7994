// Package introspection extends a schema with the __schema and __type entry
// points and the __-prefixed type system types, implemented as ordinary
// resolvers so the executor needs no special casing.
package introspection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	schema "github.com/quellhq/quell/internal/schema"
)

// Extend returns a copy of the schema with introspection wired in. The
// original schema is not modified.
func Extend(original *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(original.Types)+8),
		Directives:       original.Directives,
		Description:      original.Description,
		DefaultResolver:  original.DefaultResolver,
	}
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	for name, typ := range introspectionTypes() {
		extended.Types[name] = typ
	}

	queryType := extended.Types[extended.QueryType]
	if queryType == nil {
		return extended
	}
	withMeta := &schema.Type{
		Name:            queryType.Name,
		Kind:            queryType.Kind,
		Description:     queryType.Description,
		Interfaces:      queryType.Interfaces,
		IsTypeOf:        queryType.IsTypeOf,
		DefaultResolver: queryType.DefaultResolver,
		Fields:          make([]*schema.Field, len(queryType.Fields), len(queryType.Fields)+2),
	}
	copy(withMeta.Fields, queryType.Fields)
	withMeta.Fields = append(withMeta.Fields,
		&schema.Field{
			Name:        "__schema",
			Description: "Access the current type schema of this server.",
			Type:        schema.NonNullType(schema.NamedType("__Schema")),
			Resolver: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				return info.Schema, nil
			},
		},
		&schema.Field{
			Name:        "__type",
			Description: "Request the type information of a single type.",
			Type:        schema.NamedType("__Type"),
			Arguments: []*schema.InputValue{
				{
					Name:        "name",
					Description: "The name of the type to look up.",
					Type:        schema.NonNullType(schema.NamedType("String")),
				},
			},
			Resolver: func(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
				name, _ := args["name"].(string)
				typ := info.Schema.Types[name]
				if typ == nil || strings.HasPrefix(typ.Name, "__") {
					return nil, nil
				}
				return typ, nil
			},
		},
	)
	extended.Types[extended.QueryType] = withMeta
	return extended
}

// resolveSchemaField serves __Schema fields with the schema as source.
func resolveSchemaField(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	sch, ok := source.(*schema.Schema)
	if !ok {
		return nil, fmt.Errorf("__Schema cannot introspect %T", source)
	}
	switch info.FieldName {
	case "types":
		names := make([]string, 0, len(sch.Types))
		for name := range sch.Types {
			if strings.HasPrefix(name, "__") {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = sch.Types[name]
		}
		return out, nil
	case "queryType":
		return sch.GetQueryType(), nil
	case "mutationType":
		return sch.GetMutationType(), nil
	case "subscriptionType":
		return sch.GetSubscriptionType(), nil
	case "directives":
		names := make([]string, 0, len(sch.Directives))
		for name := range sch.Directives {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = sch.Directives[name]
		}
		return out, nil
	case "description":
		return nullableString(sch.Description), nil
	}
	return nil, nil
}

// resolveTypeField serves __Type fields. The source is either a named type
// definition or a wrapping TypeRef (LIST / NON_NULL).
func resolveTypeField(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	if ref, ok := source.(*schema.TypeRef); ok {
		return resolveTypeRefField(ref, args, info)
	}
	typ, ok := source.(*schema.Type)
	if !ok {
		return nil, fmt.Errorf("__Type cannot introspect %T", source)
	}
	switch info.FieldName {
	case "kind":
		return string(typ.Kind), nil
	case "name":
		return typ.Name, nil
	case "description":
		return nullableString(typ.Description), nil
	case "specifiedByURL":
		return typ.SpecifiedByURL, nil
	case "isOneOf":
		return typ.OneOf, nil
	case "ofType":
		// Only wrapper refs carry ofType.
		return nil, nil
	case "fields":
		if typ.Kind != schema.TypeKindObject && typ.Kind != schema.TypeKindInterface {
			return nil, nil
		}
		out := []any{}
		for _, f := range typ.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			if f.IsDeprecated && !boolArg(args, "includeDeprecated") {
				continue
			}
			out = append(out, f)
		}
		return out, nil
	case "interfaces":
		if typ.Kind != schema.TypeKindObject && typ.Kind != schema.TypeKindInterface {
			return nil, nil
		}
		out := []any{}
		for _, name := range typ.Interfaces {
			if def := info.Schema.Types[name]; def != nil {
				out = append(out, def)
			}
		}
		return out, nil
	case "possibleTypes":
		if !typ.Kind.IsAbstract() {
			return nil, nil
		}
		possible := info.Schema.PossibleTypes(typ)
		sort.Slice(possible, func(i, j int) bool { return possible[i].Name < possible[j].Name })
		out := make([]any, len(possible))
		for i, t := range possible {
			out[i] = t
		}
		return out, nil
	case "enumValues":
		if typ.Kind != schema.TypeKindEnum {
			return nil, nil
		}
		out := []any{}
		for _, ev := range typ.EnumValues {
			if ev.IsDeprecated && !boolArg(args, "includeDeprecated") {
				continue
			}
			out = append(out, ev)
		}
		return out, nil
	case "inputFields":
		if typ.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		out := []any{}
		for _, iv := range typ.InputFields {
			if iv.IsDeprecated && !boolArg(args, "includeDeprecated") {
				continue
			}
			out = append(out, iv)
		}
		return out, nil
	}
	return nil, nil
}

func resolveTypeRefField(ref *schema.TypeRef, args map[string]any, info *schema.ResolveInfo) (any, error) {
	switch ref.Kind {
	case schema.TypeRefKindList, schema.TypeRefKindNonNull:
		switch info.FieldName {
		case "kind":
			return string(ref.Kind), nil
		case "name", "description":
			return nil, nil
		case "ofType":
			return ref.OfType, nil
		}
		return nil, nil
	default:
		// A named ref introspects as its type definition.
		if def := info.Schema.Types[ref.Named]; def != nil {
			return resolveTypeField(context.Background(), def, args, info)
		}
		return nil, nil
	}
}

func resolveFieldField(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	f, ok := source.(*schema.Field)
	if !ok {
		return nil, fmt.Errorf("__Field cannot introspect %T", source)
	}
	switch info.FieldName {
	case "name":
		return f.Name, nil
	case "description":
		return nullableString(f.Description), nil
	case "type":
		return f.Type, nil
	case "isDeprecated":
		return f.IsDeprecated, nil
	case "deprecationReason":
		if !f.IsDeprecated {
			return nil, nil
		}
		return f.DeprecationReason, nil
	case "args":
		out := []any{}
		for _, a := range f.Arguments {
			if a.IsDeprecated && !boolArg(args, "includeDeprecated") {
				continue
			}
			out = append(out, a)
		}
		return out, nil
	}
	return nil, nil
}

func resolveInputValueField(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	iv, ok := source.(*schema.InputValue)
	if !ok {
		return nil, fmt.Errorf("__InputValue cannot introspect %T", source)
	}
	switch info.FieldName {
	case "name":
		return iv.Name, nil
	case "description":
		return nullableString(iv.Description), nil
	case "type":
		return iv.Type, nil
	case "defaultValue":
		if !iv.HasDefault {
			return nil, nil
		}
		return renderDefaultValue(iv.DefaultValue), nil
	case "isDeprecated":
		return iv.IsDeprecated, nil
	case "deprecationReason":
		if !iv.IsDeprecated {
			return nil, nil
		}
		return iv.DeprecationReason, nil
	}
	return nil, nil
}

func resolveEnumValueField(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	ev, ok := source.(*schema.EnumValue)
	if !ok {
		return nil, fmt.Errorf("__EnumValue cannot introspect %T", source)
	}
	switch info.FieldName {
	case "name":
		return ev.Name, nil
	case "description":
		return nullableString(ev.Description), nil
	case "isDeprecated":
		return ev.IsDeprecated, nil
	case "deprecationReason":
		if !ev.IsDeprecated {
			return nil, nil
		}
		return ev.DeprecationReason, nil
	}
	return nil, nil
}

func resolveDirectiveField(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	d, ok := source.(*schema.Directive)
	if !ok {
		return nil, fmt.Errorf("__Directive cannot introspect %T", source)
	}
	switch info.FieldName {
	case "name":
		return d.Name, nil
	case "description":
		return nullableString(d.Description), nil
	case "isRepeatable":
		return d.IsRepeatable, nil
	case "locations":
		out := make([]any, len(d.Locations))
		for i, loc := range d.Locations {
			out[i] = loc
		}
		return out, nil
	case "args":
		out := []any{}
		for _, a := range d.Arguments {
			if a.IsDeprecated && !boolArg(args, "includeDeprecated") {
				continue
			}
			out = append(out, a)
		}
		return out, nil
	}
	return nil, nil
}

// renderDefaultValue prints an input default the way it would appear in SDL.
func renderDefaultValue(v any) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}
