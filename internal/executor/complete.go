package executor

import (
	"context"
	"fmt"
	"reflect"

	language "github.com/quellhq/quell/internal/language"
	schema "github.com/quellhq/quell/internal/schema"
)

// bubbledNull marks a frame nulled by an error whose null must keep rising
// until a nullable ancestor absorbs it. The error behind it has already been
// recorded; intermediate non-null frames pass the sentinel through without
// adding duplicates.
type bubbledNull struct{}

func isBubbled(v any) bool {
	_, ok := v.(bubbledNull)
	return ok
}

// skippedField marks a response key that must be omitted (unknown field on
// a type); the error was already recorded.
type skippedField struct{}

// completeValue completes a possibly-pending raw value against its declared
// type. It returns a wrapped value settling to the completed value, nil, or
// bubbledNull.
func completeValue(
	rctx *resolutionContext,
	ctx context.Context,
	fieldType *schema.TypeRef,
	fields []*language.Field,
	value any,
	path Path,
) any {
	rt := rctx.runtime

	if schema.IsNonNull(fieldType) {
		// Recurse through completeInner, not completeValue: the nullable
		// entry point would absorb a rising bubbledNull into nil and this
		// frame would then record a second error for the same failure.
		inner := completeInner(rctx, ctx, schema.Unwrap(fieldType), fields, value, path)
		return rt.Map(ctx, inner, func(v any) (any, error) {
			if isBubbled(v) {
				return v, nil
			}
			if v == nil {
				rctx.addErrorAt(
					fmt.Sprintf("Cannot return null for non-nullable field %s", path),
					fields, path)
				return bubbledNull{}, nil
			}
			return v, nil
		}, nil)
	}

	inner := completeInner(rctx, ctx, fieldType, fields, value, path)
	return rt.Map(ctx, inner, func(v any) (any, error) {
		// A nullable position absorbs bubbled nulls.
		if isBubbled(v) {
			return nil, nil
		}
		return v, nil
	}, nil)
}

// completeInner handles the nullable-position cases: null, list, leaf,
// composite, abstract. It never absorbs bubbledNull; the caller decides what
// the sentinel means at its position.
func completeInner(
	rctx *resolutionContext,
	ctx context.Context,
	fieldType *schema.TypeRef,
	fields []*language.Field,
	value any,
	path Path,
) any {
	rt := rctx.runtime
	return rt.Map(ctx, rt.Unwrap(ctx, value), func(result any) (any, error) {
		if isBubbled(result) {
			return result, nil
		}
		if isNullish(result) {
			return nil, nil
		}
		if schema.IsList(fieldType) {
			return completeListValue(rctx, ctx, fieldType, fields, result, path), nil
		}

		namedType := schema.GetNamedType(fieldType)
		typ := rctx.schema.Types[namedType]
		if typ == nil {
			rctx.addErrorAt(fmt.Sprintf("Unknown type %q", namedType), fields, path)
			return bubbledNull{}, nil
		}

		switch typ.Kind {
		case schema.TypeKindScalar, schema.TypeKindEnum:
			return completeLeafValue(rctx, typ, fields, result, path), nil
		case schema.TypeKindObject:
			return executeSelectionSet(rctx, ctx, typ, rctx.mergedSelectionSet(fields), result, path), nil
		case schema.TypeKindInterface, schema.TypeKindUnion:
			return completeAbstractValue(rctx, ctx, typ, fields, result, path), nil
		default:
			rctx.addErrorAt(fmt.Sprintf("Cannot complete value of unexpected type kind %s", typ.Kind), fields, path)
			return bubbledNull{}, nil
		}
	}, nil)
}

// completeListValue completes each item concurrently at path+index. A
// bubbled item (only possible with a non-null element type) nulls the whole
// list value and keeps bubbling.
func completeListValue(
	rctx *resolutionContext,
	ctx context.Context,
	listType *schema.TypeRef,
	fields []*language.Field,
	result any,
	path Path,
) any {
	rt := rctx.runtime

	items, ok := asSlice(result)
	if !ok {
		rctx.addErrorAt(fmt.Sprintf("Expected a list value for field %s, got %T", path, result), fields, path)
		return bubbledNull{}
	}

	innerType := schema.Unwrap(listType)
	wrapped := make([]any, len(items))
	for i, item := range items {
		wrapped[i] = completeValue(rctx, ctx, innerType, fields, rt.EnsureWrapped(item), appendPath(path, i))
	}
	gathered := rt.Gather(ctx, wrapped)
	return rt.Map(ctx, gathered, func(v any) (any, error) {
		completed := v.([]any)
		for _, item := range completed {
			if isBubbled(item) {
				return bubbledNull{}, nil
			}
		}
		return completed, nil
	}, nil)
}

// completeLeafValue serializes a scalar or enum value.
func completeLeafValue(
	rctx *resolutionContext,
	typ *schema.Type,
	fields []*language.Field,
	result any,
	path Path,
) any {
	serialized, err := serializeLeaf(typ, result)
	if err != nil {
		rctx.addErrorAt(err.Error(), fields, path)
		return bubbledNull{}
	}
	return serialized
}

func serializeLeaf(typ *schema.Type, value any) (any, error) {
	if typ.Serialize != nil {
		return typ.Serialize(value)
	}
	if typ.Kind == schema.TypeKindEnum {
		name, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("enum %s cannot represent %v (%T)", typ.Name, value, value)
		}
		for _, ev := range typ.EnumValues {
			if ev.Name == name {
				return name, nil
			}
		}
		return nil, fmt.Errorf("enum %s cannot represent %q", typ.Name, name)
	}
	return value, nil
}

// completeAbstractValue resolves the concrete runtime type for an interface
// or union value, then completes it as an object.
func completeAbstractValue(
	rctx *resolutionContext,
	ctx context.Context,
	abstractType *schema.Type,
	fields []*language.Field,
	result any,
	path Path,
) any {
	typeName, err := resolveAbstractType(rctx, ctx, abstractType, result)
	if err != nil {
		rctx.addErrorAt(err.Error(), fields, path)
		return bubbledNull{}
	}
	concrete := rctx.schema.Types[typeName]
	if concrete == nil || concrete.Kind != schema.TypeKindObject || !rctx.schema.IsPossibleType(abstractType, concrete) {
		rctx.addErrorAt(
			fmt.Sprintf("Abstract type %s was resolved to %q, which is not a possible type", abstractType.Name, typeName),
			fields, path)
		return bubbledNull{}
	}
	return executeSelectionSet(rctx, ctx, concrete, rctx.mergedSelectionSet(fields), result, path)
}

func resolveAbstractType(rctx *resolutionContext, ctx context.Context, abstractType *schema.Type, value any) (string, error) {
	if abstractType.ResolveType != nil {
		return abstractType.ResolveType(ctx, value)
	}
	if m, ok := value.(map[string]any); ok {
		if typename, ok := m["__typename"].(string); ok {
			return typename, nil
		}
	}
	for _, candidate := range rctx.schema.PossibleTypes(abstractType) {
		if candidate.IsTypeOf != nil && candidate.IsTypeOf(ctx, value) {
			return candidate.Name, nil
		}
	}
	return "", fmt.Errorf("could not resolve the concrete type of abstract type %s", abstractType.Name)
}

func asSlice(result any) ([]any, bool) {
	if direct, ok := result.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(result)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func appendPath(path Path, elem PathElement) Path {
	next := make(Path, len(path)+1)
	copy(next, path)
	next[len(path)] = elem
	return next
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
