package executor

import (
	"context"
	"fmt"

	eventbus "github.com/quellhq/quell/internal/eventbus"
	events "github.com/quellhq/quell/internal/events"
	language "github.com/quellhq/quell/internal/language"
	runtime "github.com/quellhq/quell/internal/runtime"
)

// Subscribe sets up a subscription: it resolves the source event stream for
// the single root field and returns a stream of *Result, one per event. Each
// event is executed with its own resolution context, so errors in one result
// never leak into the next.
func (e *Executor) Subscribe(ctx context.Context, req *Request) (runtime.Stream, error) {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return nil, err
	}
	operation, err := getOperation(doc, req.OperationName)
	if err != nil {
		return nil, err
	}
	if operation.Operation != language.Subscription {
		return nil, fmt.Errorf("operation %q is not a subscription", operation.Name)
	}
	if !e.runtime.SupportsStreams() {
		return nil, runtime.ErrNoStreams
	}

	coerced, err := coerceVariableValues(e.schema, operation, req.Variables)
	if err != nil {
		return nil, err
	}
	rootType, err := e.rootType(operation)
	if err != nil {
		return nil, err
	}

	setupCtx := newResolutionContext(e.runtime, e.schema, doc, operation, coerced, req.RootValue)
	grouped := collectFields(setupCtx, rootType, operation.SelectionSet).ordered()
	if len(grouped) != 1 {
		return nil, fmt.Errorf("subscription operations must select exactly one root field, got %d", len(grouped))
	}

	group := grouped[0]
	field := group.Fields[0]
	fieldDef := setupCtx.fieldDefinition(rootType, field.Name)
	if fieldDef == nil {
		return nil, fmt.Errorf("cannot subscribe to unknown field %q on type %q", field.Name, rootType.Name)
	}
	if fieldDef.Subscriber == nil {
		return nil, fmt.Errorf("field %q has no subscriber", field.Name)
	}

	args, err := setupCtx.coerceArgumentValues(fieldDef, field)
	if err != nil {
		return nil, err
	}

	fieldPath := Path{group.ResponseKey}
	info := setupCtx.resolveInfo(rootType, fieldDef, group.Fields, fieldPath)
	source, err := fieldDef.Subscriber(ctx, req.RootValue, args, info)
	if err != nil {
		return nil, err
	}
	stream, ok := source.(runtime.Stream)
	if !ok {
		return nil, fmt.Errorf("subscriber for %q returned %T, want a runtime.Stream", field.Name, source)
	}

	return e.runtime.MapStream(ctx, stream, func(event any) (any, error) {
		rctx := newResolutionContext(e.runtime, e.schema, doc, operation, coerced, event)
		wrapped := executeSelectionSet(rctx, ctx, rootType, operation.SelectionSet, event, nil)
		return e.runtime.Map(ctx, wrapped, func(data any) (any, error) {
			result := e.finish(ctx, assembleResult(rctx, data))
			eventbus.Publish(ctx, events.SubscriptionEvent{
				OperationName: operation.Name,
				Field:         field.Name,
				ErrorCount:    len(result.Errors),
			})
			return result, nil
		}, func(err error) (any, bool) {
			rctx.addError(GraphQLError{Message: err.Error()})
			return e.finish(ctx, assembleResult(rctx, bubbledNull{})), true
		}), nil
	})
}
