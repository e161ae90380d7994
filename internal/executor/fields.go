package executor

import (
	language "github.com/quellhq/quell/internal/language"
	schema "github.com/quellhq/quell/internal/schema"
)

// groupedFieldSet maps response keys to the field nodes contributing to
// them, preserving first-appearance key order and per-key arrival order.
type groupedFieldSet struct {
	groups []fieldGroup
	index  map[string]int
}

type fieldGroup struct {
	ResponseKey string
	Fields      []*language.Field
}

func newGroupedFieldSet() *groupedFieldSet {
	return &groupedFieldSet{index: make(map[string]int)}
}

func (gfs *groupedFieldSet) add(responseKey string, field *language.Field) {
	if idx, exists := gfs.index[responseKey]; exists {
		gfs.groups[idx].Fields = append(gfs.groups[idx].Fields, field)
		return
	}
	gfs.index[responseKey] = len(gfs.groups)
	gfs.groups = append(gfs.groups, fieldGroup{ResponseKey: responseKey, Fields: []*language.Field{field}})
}

func (gfs *groupedFieldSet) ordered() []fieldGroup {
	return gfs.groups
}

// collectFields groups the selection set's fields per response key for the
// given concrete object type, resolving fragments and @skip/@include.
// Results are cached per (type, selection set) for the request's lifetime.
func collectFields(rctx *resolutionContext, objectType *schema.Type, selectionSet language.SelectionSet) *groupedFieldSet {
	var key groupKey
	if len(selectionSet) > 0 {
		key = groupKey{typeName: objectType.Name, set: &selectionSet[0], size: len(selectionSet)}
		rctx.mu.Lock()
		if cached, ok := rctx.groupedFields[key]; ok {
			rctx.mu.Unlock()
			return cached
		}
		rctx.mu.Unlock()
	}

	grouped := newGroupedFieldSet()
	collectFieldsImpl(rctx, objectType, selectionSet, grouped, make(map[string]bool))

	if len(selectionSet) > 0 {
		rctx.mu.Lock()
		rctx.groupedFields[key] = grouped
		rctx.mu.Unlock()
	}
	return grouped
}

func collectFieldsImpl(
	rctx *resolutionContext,
	objectType *schema.Type,
	selectionSet language.SelectionSet,
	grouped *groupedFieldSet,
	seenFragments map[string]bool,
) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(rctx.variables, sel.Directives) {
				continue
			}
			responseKey := sel.Alias
			if responseKey == "" {
				responseKey = sel.Name
			}
			grouped.add(responseKey, sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(rctx.variables, sel.Directives) {
				continue
			}
			if !rctx.fragmentApplies(sel.TypeCondition, objectType) {
				continue
			}
			collectFieldsImpl(rctx, objectType, sel.SelectionSet, grouped, seenFragments)

		case *language.FragmentSpread:
			if !shouldIncludeNode(rctx.variables, sel.Directives) {
				continue
			}
			if seenFragments[sel.Name] {
				continue
			}
			seenFragments[sel.Name] = true
			fragment := rctx.document.Fragments.ForName(sel.Name)
			if fragment == nil {
				continue
			}
			if !rctx.fragmentApplies(fragment.TypeCondition, objectType) {
				continue
			}
			if !shouldIncludeNode(rctx.variables, fragment.Directives) {
				continue
			}
			collectFieldsImpl(rctx, objectType, fragment.SelectionSet, grouped, seenFragments)
		}
	}
}

// shouldIncludeNode evaluates @skip and @include. @skip(if: true) omits the
// node unconditionally; otherwise @include(if: false) omits it.
func shouldIncludeNode(variables map[string]any, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if cond, ok := directiveCondition(variables, skip); ok && cond {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if cond, ok := directiveCondition(variables, include); ok && !cond {
			return false
		}
	}
	return true
}

func directiveCondition(variables map[string]any, directive *language.Directive) (bool, bool) {
	for _, arg := range directive.Arguments {
		if arg.Name != "if" {
			continue
		}
		v := valueWithVariables(arg.Value, variables)
		b, ok := v.(bool)
		return b, ok
	}
	return false, false
}

// CollectKeys is the schema-unaware collection variant: it traverses a
// selection set and its fragments honoring @skip/@include but ignoring type
// conditions, returning response keys in response order. Intended for
// tooling that inspects selections without a type system.
func CollectKeys(
	document *language.QueryDocument,
	selectionSet language.SelectionSet,
	variables map[string]any,
) []string {
	var keys []string
	seenKeys := make(map[string]bool)
	seenFragments := make(map[string]bool)
	var walk func(selectionSet language.SelectionSet)
	walk = func(selectionSet language.SelectionSet) {
		for _, selection := range selectionSet {
			switch sel := selection.(type) {
			case *language.Field:
				if !shouldIncludeNode(variables, sel.Directives) {
					continue
				}
				key := sel.Alias
				if key == "" {
					key = sel.Name
				}
				if !seenKeys[key] {
					seenKeys[key] = true
					keys = append(keys, key)
				}
			case *language.InlineFragment:
				if !shouldIncludeNode(variables, sel.Directives) {
					continue
				}
				walk(sel.SelectionSet)
			case *language.FragmentSpread:
				if !shouldIncludeNode(variables, sel.Directives) {
					continue
				}
				if seenFragments[sel.Name] {
					continue
				}
				seenFragments[sel.Name] = true
				if fragment := document.Fragments.ForName(sel.Name); fragment != nil {
					walk(fragment.SelectionSet)
				}
			}
		}
	}
	walk(selectionSet)
	return keys
}

// mergedSelectionSet concatenates the sub-selections of a group's field
// nodes. The merged set is memoized per group so every completion of the
// same group (each list item, say) sees one allocation, which is what the
// grouped-fields cache keys on.
func (rctx *resolutionContext) mergedSelectionSet(fields []*language.Field) language.SelectionSet {
	key := mergeKey{first: &fields[0], size: len(fields)}
	rctx.mu.Lock()
	if merged, ok := rctx.mergedSets[key]; ok {
		rctx.mu.Unlock()
		return merged
	}
	rctx.mu.Unlock()

	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}

	rctx.mu.Lock()
	rctx.mergedSets[key] = merged
	rctx.mu.Unlock()
	return merged
}
