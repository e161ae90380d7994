package executor

import (
	"sync"

	language "github.com/quellhq/quell/internal/language"
	runtime "github.com/quellhq/quell/internal/runtime"
	schema "github.com/quellhq/quell/internal/schema"
)

// resolutionContext is the per-request execution state: coerced variables,
// the fragment table, the field-error accumulator, and four idempotent
// caches. One instance lives for one ExecuteRequest call; completion frames
// hold a read/append-only reference. The pool backend resolves sibling
// branches on separate goroutines, so every mutation goes through a mutex;
// a cache race can at worst recompute an identical entry.
type resolutionContext struct {
	runtime   runtime.Runtime
	schema    *schema.Schema
	document  *language.QueryDocument
	operation *language.OperationDefinition
	variables map[string]any
	rootValue any

	mu     sync.Mutex
	errors []GraphQLError

	groupedFields map[groupKey]*groupedFieldSet
	mergedSets    map[mergeKey]language.SelectionSet
	fieldDefs     map[fieldDefKey]*schema.Field
	applicability map[applicabilityKey]bool
	argumentVals  map[argumentsKey]coercedArgs
}

// groupKey identifies a selection set by the address of its backing array.
// Content-based keys are not safe here: two merged sets can share their
// leading nodes (the same fragment spread under different parents) while
// differing afterwards.
type groupKey struct {
	typeName string
	set      *language.Selection
	size     int
}

type mergeKey struct {
	first **language.Field
	size  int
}

type argumentsKey struct {
	def  *schema.Field
	node *language.Field
}

type fieldDefKey struct {
	typeName  string
	fieldName string
}

type applicabilityKey struct {
	condition string
	concrete  string
}

type coercedArgs struct {
	args map[string]any
	err  error
}

func newResolutionContext(
	rt runtime.Runtime,
	sch *schema.Schema,
	document *language.QueryDocument,
	operation *language.OperationDefinition,
	variables map[string]any,
	rootValue any,
) *resolutionContext {
	return &resolutionContext{
		runtime:       rt,
		schema:        sch,
		document:      document,
		operation:     operation,
		variables:     variables,
		rootValue:     rootValue,
		groupedFields: make(map[groupKey]*groupedFieldSet),
		mergedSets:    make(map[mergeKey]language.SelectionSet),
		fieldDefs:     make(map[fieldDefKey]*schema.Field),
		applicability: make(map[applicabilityKey]bool),
		argumentVals:  make(map[argumentsKey]coercedArgs),
	}
}

func (rctx *resolutionContext) addError(err GraphQLError) {
	rctx.mu.Lock()
	rctx.errors = append(rctx.errors, err)
	rctx.mu.Unlock()
}

func (rctx *resolutionContext) addErrorAt(message string, fields []*language.Field, path Path) {
	rctx.addError(GraphQLError{Message: message, Locations: locationsOf(fields), Path: path})
}

func (rctx *resolutionContext) collectedErrors() []GraphQLError {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	out := make([]GraphQLError, len(rctx.errors))
	copy(out, rctx.errors)
	return out
}

// fieldDefinition resolves and caches the field definition for a type/field
// name pair. Nil is cached too: an unknown field stays unknown.
func (rctx *resolutionContext) fieldDefinition(objectType *schema.Type, fieldName string) *schema.Field {
	key := fieldDefKey{typeName: objectType.Name, fieldName: fieldName}
	rctx.mu.Lock()
	if def, ok := rctx.fieldDefs[key]; ok {
		rctx.mu.Unlock()
		return def
	}
	rctx.mu.Unlock()
	def := objectType.Field(fieldName)
	rctx.mu.Lock()
	rctx.fieldDefs[key] = def
	rctx.mu.Unlock()
	return def
}

// fragmentApplies reports whether a fragment type condition can apply to the
// concrete object type, caching the membership test.
func (rctx *resolutionContext) fragmentApplies(condition string, objectType *schema.Type) bool {
	if condition == "" || condition == objectType.Name {
		return true
	}
	key := applicabilityKey{condition: condition, concrete: objectType.Name}
	rctx.mu.Lock()
	if ok, hit := rctx.applicability[key]; hit {
		rctx.mu.Unlock()
		return ok
	}
	rctx.mu.Unlock()

	applies := false
	if condType := rctx.schema.Types[condition]; condType != nil {
		switch {
		case condType.Kind.IsAbstract():
			applies = rctx.schema.IsPossibleType(condType, objectType)
		default:
			applies = condType.Name == objectType.Name
		}
	}
	rctx.mu.Lock()
	rctx.applicability[key] = applies
	rctx.mu.Unlock()
	return applies
}

// resolveInfo builds the per-field resolution record handed to resolvers.
func (rctx *resolutionContext) resolveInfo(
	parentType *schema.Type,
	fieldDef *schema.Field,
	fields []*language.Field,
	path Path,
) *schema.ResolveInfo {
	return &schema.ResolveInfo{
		FieldName:  fieldDef.Name,
		FieldDef:   fieldDef,
		FieldNodes: fields,
		ReturnType: fieldDef.Type,
		ParentType: parentType,
		Path:       append([]any(nil), path...),
		Schema:     rctx.schema,
		Operation:  rctx.operation,
		Fragments:  rctx.document.Fragments,
		Variables:  rctx.variables,
		RootValue:  rctx.rootValue,
	}
}
