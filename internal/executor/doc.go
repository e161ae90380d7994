// Package executor implements a GraphQL executor over a pluggable concurrency
// runtime: field resolution, value completion, Non-Null null-propagation, and
// spec-shaped response assembly, all expressed against runtime.Runtime so the
// same recursion runs blocking, on a goroutine pool, or on a cooperative
// single-threaded loop.
//
// # Overview
//
// Execution never blocks on an individual field. Every stage returns a wrapped
// value: resolvers are submitted through Runtime.Submit, completion stages are
// chained with Runtime.Map, and sibling fields are joined with Runtime.Gather.
// Only the top of ExecuteRequest awaits, once, for the fully assembled
// response. A blocking backend settles each wrapped value immediately, so the
// recursion degenerates into plain depth-first execution; a pool backend gives
// the same code fan-out across goroutines.
//
// # Preparation
//
// Before executing, the executor:
//  1. Parses the request document and chooses the operation (by name, or by
//     uniqueness when unnamed).
//  2. Coerces variables against the operation's variable definitions. Errors
//     here are request-fatal and produce an errors-only result.
//  3. Builds a resolutionContext: schema, document, operation, coerced
//     variables, root value, the runtime, the error accumulator, and the
//     per-request caches for grouped fields, field definitions, fragment
//     applicability, and argument values.
//  4. Determines the root object type from the operation kind and collects the
//     root selection set.
//
// # Field Collection
//
// collectFields walks a selection set for a concrete object type, evaluating
// @skip and @include (@skip wins), inlining applicable inline fragments and
// named fragment spreads (each named fragment at most once per set), and
// grouping surviving fields under their response key in first-appearance
// order. Response field order is this collection order; ResponseMap preserves
// it through JSON encoding.
//
// # Field Execution
//
// For each field group the executor looks up the field definition, coerces
// arguments, picks a resolver (field resolver, then the type's default, then
// the schema's default, then the built-in key/struct lookup), and submits the
// resolver through the runtime. The resolved value flows into completeValue;
// the outermost Map stage of the field carries the only rescue, so a resolver
// error surfacing anywhere in the chain is recorded exactly once, located at
// the field and its response path.
//
// Mutation root fields are executed serially by chaining each field's wrapped
// value after the previous one. Because Map flattens nested wrapped values,
// a link in the chain settles only when its field's nested completion has
// fully settled, which gives the sequential root-field semantics without any
// backend cooperation. All other selection sets execute as wide as the
// backend allows, and Gather re-establishes field order in the result.
//
// # Value Completion
//
//   - Non-Null: complete the inner type; a null inner value records a
//     Non-Null violation and converts to a bubbled-null marker that rises
//     through enclosing frames.
//   - Null: nil results (including typed nils) produce GraphQL null.
//   - List: complete each element concurrently with index-aware paths and
//     Gather the items in order. A bubbled element nullifies the entire list
//     value and keeps rising.
//   - Leaf (Scalar/Enum): serialize through the type's Serialize hook, or the
//     enum membership check.
//   - Abstract (Interface/Union): resolve the concrete type via ResolveType,
//     a __typename key on map values, or an IsTypeOf scan over the possible
//     types; validate membership, then complete as an object.
//   - Object: collect subfields from the merged selection sets and execute
//     them against the completed source value.
//
// # Errors and Partial Success
//
// Field errors accumulate as located errors (message, source locations,
// response path) while execution continues elsewhere. A Non-Null violation
// nulls out the nearest nullable ancestor, discarding that subtree but
// leaving sibling branches untouched. The response carries data and errors
// together; the data key disappears entirely only when bubbling reaches the
// root.
//
// # Subscriptions
//
// Subscribe resolves the event source for the single subscription root field
// and maps the stream through per-event execution: each event gets a fresh
// resolutionContext and produces one complete *Result. Backends without
// stream support refuse at setup with runtime.ErrNoStreams.
package executor
