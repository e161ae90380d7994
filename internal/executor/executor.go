package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	eventbus "github.com/quellhq/quell/internal/eventbus"
	events "github.com/quellhq/quell/internal/events"
	language "github.com/quellhq/quell/internal/language"
	runtime "github.com/quellhq/quell/internal/runtime"
	schema "github.com/quellhq/quell/internal/schema"
)

// ExtensionFunc computes the payload published under its registered name in
// the response extensions map. It runs after execution settles, with the
// finished result.
type ExtensionFunc func(ctx context.Context, result *Result) any

// Executor evaluates parsed operations against a schema on top of a
// concurrency runtime. It is safe for concurrent use; all per-request state
// lives in a resolutionContext.
type Executor struct {
	schema     *schema.Schema
	runtime    runtime.Runtime
	extensions []namedExtension
}

type namedExtension struct {
	name string
	fn   ExtensionFunc
}

func NewExecutor(sch *schema.Schema, rt runtime.Runtime) *Executor {
	return &Executor{schema: sch, runtime: rt}
}

// RegisterExtension attaches a named extension computed for every result.
func (e *Executor) RegisterExtension(name string, fn ExtensionFunc) {
	e.extensions = append(e.extensions, namedExtension{name: name, fn: fn})
}

// Request carries one GraphQL request through ExecuteRequest.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
	RootValue     any
}

// ExecuteRequest parses and executes a request, returning the response in
// all cases; request-fatal problems come back as an errors-only result.
func (e *Executor) ExecuteRequest(ctx context.Context, req *Request) *Result {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return e.finish(ctx, fatalResult(toGraphQLErrors(err)...))
	}
	return e.Execute(ctx, doc, req.OperationName, req.Variables, req.RootValue)
}

// Execute runs one operation from an already-parsed document.
func (e *Executor) Execute(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variables map[string]any,
	rootValue any,
) *Result {
	operation, err := getOperation(document, operationName)
	if err != nil {
		return e.finish(ctx, fatalResult(GraphQLError{Message: err.Error()}))
	}
	if operation.Operation == language.Subscription {
		return e.finish(ctx, fatalResult(GraphQLError{
			Message: "Subscription operations must be executed through Subscribe",
		}))
	}

	coerced, err := coerceVariableValues(e.schema, operation, variables)
	if err != nil {
		return e.finish(ctx, fatalResult(GraphQLError{Message: err.Error()}))
	}

	rootType, err := e.rootType(operation)
	if err != nil {
		return e.finish(ctx, fatalResult(GraphQLError{Message: err.Error()}))
	}

	rctx := newResolutionContext(e.runtime, e.schema, document, operation, coerced, rootValue)
	wrapped := executeSelectionSet(rctx, ctx, rootType, operation.SelectionSet, rootValue, nil)
	data, awaitErr := e.runtime.Await(ctx, wrapped)
	if awaitErr != nil {
		rctx.addError(GraphQLError{Message: awaitErr.Error()})
		data = bubbledNull{}
	}
	return e.finish(ctx, assembleResult(rctx, data))
}

func (e *Executor) rootType(operation *language.OperationDefinition) (*schema.Type, error) {
	var name string
	switch operation.Operation {
	case language.Query:
		name = e.schema.QueryType
	case language.Mutation:
		name = e.schema.MutationType
	case language.Subscription:
		name = e.schema.SubscriptionType
	}
	if name == "" {
		return nil, fmt.Errorf("schema does not support %s operations", operation.Operation)
	}
	typ := e.schema.Types[name]
	if typ == nil || typ.Kind != schema.TypeKindObject {
		return nil, fmt.Errorf("root type %q is not an object type", name)
	}
	return typ, nil
}

func (e *Executor) finish(ctx context.Context, result *Result) *Result {
	for _, ext := range e.extensions {
		if result.Extensions == nil {
			result.Extensions = make(map[string]any, len(e.extensions))
		}
		result.Extensions[ext.name] = ext.fn(ctx, result)
	}
	return result
}

func assembleResult(rctx *resolutionContext, data any) *Result {
	result := &Result{Errors: rctx.collectedErrors()}
	if !isBubbled(data) {
		result.Data = data
		result.HasData = true
	}
	return result
}

func getOperation(document *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		if len(document.Operations) != 1 {
			return nil, fmt.Errorf("must provide operation name if query contains multiple operations")
		}
		return document.Operations[0], nil
	}
	for _, op := range document.Operations {
		if op.Name == operationName {
			return op, nil
		}
	}
	return nil, fmt.Errorf("unknown operation named %q", operationName)
}

// toGraphQLErrors converts parser and validator errors into response errors,
// keeping their source locations.
func toGraphQLErrors(err error) []GraphQLError {
	var list language.ErrorList
	if !errors.As(err, &list) {
		var single *language.Error
		if errors.As(err, &single) {
			list = language.ErrorList{single}
		} else {
			return []GraphQLError{{Message: err.Error()}}
		}
	}
	out := make([]GraphQLError, 0, len(list))
	for _, item := range list {
		gqlErr := GraphQLError{Message: item.Message}
		for _, loc := range item.Locations {
			gqlErr.Locations = append(gqlErr.Locations, Location{Line: loc.Line, Column: loc.Column})
		}
		out = append(out, gqlErr)
	}
	return out
}

// executeSelectionSet collects the fields of one selection set and resolves
// them, returning a wrapped value settling to a *ResponseMap keyed in field
// order, or to bubbledNull if a non-null member field failed. Mutation root
// fields run serially by chaining each field after the previous one settled;
// everything else runs as wide as the backend allows.
func executeSelectionSet(
	rctx *resolutionContext,
	ctx context.Context,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	source any,
	path Path,
) any {
	rt := rctx.runtime
	grouped := collectFields(rctx, objectType, selectionSet).ordered()

	serial := rctx.operation.Operation == language.Mutation && len(path) == 0

	values := make([]any, len(grouped))
	if serial {
		chain := rt.EnsureWrapped(nil)
		for i, group := range grouped {
			group := group
			chain = rt.Map(ctx, chain, func(any) (any, error) {
				return executeField(rctx, ctx, objectType, source, group, path), nil
			}, nil)
			values[i] = chain
		}
	} else {
		for i, group := range grouped {
			values[i] = executeField(rctx, ctx, objectType, source, group, path)
		}
	}

	gathered := rt.Gather(ctx, values)
	return rt.Map(ctx, gathered, func(v any) (any, error) {
		completed := v.([]any)
		response := newResponseMap(len(grouped))
		for i, group := range grouped {
			value := completed[i]
			if _, skipped := value.(skippedField); skipped {
				continue
			}
			if isBubbled(value) {
				return bubbledNull{}, nil
			}
			response.Set(group.ResponseKey, value)
		}
		return response, nil
	}, nil)
}

// executeField resolves and completes a single field group. Resolver errors
// surface through the rescue of the outermost stage only, so a failure deep
// in a pending chain is recorded exactly once.
func executeField(
	rctx *resolutionContext,
	ctx context.Context,
	objectType *schema.Type,
	source any,
	group fieldGroup,
	path Path,
) any {
	rt := rctx.runtime
	field := group.Fields[0]

	if field.Name == "__typename" {
		return rt.EnsureWrapped(objectType.Name)
	}

	fieldDef := rctx.fieldDefinition(objectType, field.Name)
	if fieldDef == nil {
		rctx.addErrorAt(
			fmt.Sprintf("Cannot query field %q on type %q", field.Name, objectType.Name),
			group.Fields, path)
		return rt.EnsureWrapped(skippedField{})
	}

	fieldPath := appendPath(path, group.ResponseKey)

	args, err := rctx.coerceArgumentValues(fieldDef, field)
	if err != nil {
		rctx.addErrorAt(err.Error(), group.Fields, fieldPath)
		if schema.IsNonNull(fieldDef.Type) {
			return rt.EnsureWrapped(bubbledNull{})
		}
		return rt.EnsureWrapped(nil)
	}

	info := rctx.resolveInfo(objectType, fieldDef, group.Fields, fieldPath)
	resolver := resolverFor(rctx, objectType, fieldDef)

	resolved := rt.Submit(ctx, func(ctx context.Context) (any, error) {
		eventbus.Publish(ctx, events.ResolveStart{
			ParentType: objectType.Name,
			FieldName:  field.Name,
			Path:       fieldPath.String(),
		})
		start := time.Now()
		v, err := resolver(ctx, source, args, info)
		eventbus.Publish(ctx, events.ResolveFinish{
			ParentType: objectType.Name,
			FieldName:  field.Name,
			Path:       fieldPath.String(),
			Err:        err,
			Duration:   time.Since(start),
		})
		return v, err
	})

	completed := completeValue(rctx, ctx, fieldDef.Type, group.Fields, resolved, fieldPath)
	return rt.Map(ctx, completed, func(v any) (any, error) {
		return v, nil
	}, func(err error) (any, bool) {
		rctx.addError(GraphQLError{
			Message:   err.Error(),
			Locations: locationsOf(group.Fields),
			Path:      fieldPath,
		})
		if schema.IsNonNull(fieldDef.Type) {
			return bubbledNull{}, true
		}
		return nil, true
	})
}

func resolverFor(rctx *resolutionContext, objectType *schema.Type, fieldDef *schema.Field) schema.ResolveFunc {
	if fieldDef.Resolver != nil {
		return fieldDef.Resolver
	}
	if objectType.DefaultResolver != nil {
		return objectType.DefaultResolver
	}
	if rctx.schema.DefaultResolver != nil {
		return rctx.schema.DefaultResolver
	}
	return defaultFieldResolver
}

// defaultFieldResolver looks the field up as a map key, then as an exported
// struct field or method on the source value.
func defaultFieldResolver(ctx context.Context, source any, args map[string]any, info *schema.ResolveInfo) (any, error) {
	if source == nil {
		return nil, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[info.FieldName], nil
	}

	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		mv := rv.MapIndex(reflect.ValueOf(info.FieldName))
		if !mv.IsValid() {
			return nil, nil
		}
		return mv.Interface(), nil
	}
	if rv.Kind() != reflect.Struct {
		return nil, nil
	}

	if method := methodByFieldName(reflect.ValueOf(source), info.FieldName); method.IsValid() {
		return callResolverMethod(ctx, method, args)
	}
	if fv := structFieldByName(rv, info.FieldName); fv.IsValid() {
		return fv.Interface(), nil
	}
	return nil, nil
}

func methodByFieldName(rv reflect.Value, name string) reflect.Value {
	exported := exportedName(name)
	if m := rv.MethodByName(exported); m.IsValid() {
		return m
	}
	return reflect.Value{}
}

func callResolverMethod(ctx context.Context, method reflect.Value, args map[string]any) (any, error) {
	mt := method.Type()
	in := make([]reflect.Value, 0, mt.NumIn())
	for i := 0; i < mt.NumIn(); i++ {
		switch mt.In(i) {
		case reflect.TypeOf((*context.Context)(nil)).Elem():
			in = append(in, reflect.ValueOf(ctx))
		case reflect.TypeOf(map[string]any(nil)):
			in = append(in, reflect.ValueOf(args))
		default:
			return nil, fmt.Errorf("cannot supply resolver method parameter of type %s", mt.In(i))
		}
	}
	out := method.Call(in)
	switch len(out) {
	case 1:
		return out[0].Interface(), nil
	case 2:
		var err error
		if !out[1].IsNil() {
			err = out[1].Interface().(error)
		}
		return out[0].Interface(), err
	default:
		return nil, fmt.Errorf("resolver method must return one or two values, got %d", len(out))
	}
}

func structFieldByName(rv reflect.Value, name string) reflect.Value {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Name == exportedName(name) {
			return rv.Field(i)
		}
		if tag, ok := f.Tag.Lookup("json"); ok && tagName(tag) == name {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

func exportedName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

func tagName(tag string) string {
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			return tag[:i]
		}
	}
	return tag
}
