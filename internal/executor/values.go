package executor

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/quellhq/quell/internal/language"
	schema "github.com/quellhq/quell/internal/schema"
)

// coerceVariableValues coerces the provided variable values against the
// operation's variable definitions. Any failure here is request-fatal.
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := schema.TypeRefFromAST(varDef.Type)
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				coerced[name] = language.GoValue(varDef.DefaultValue)
				continue
			}
			if schema.IsNonNull(t) {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t)
			}
			continue
		}
		if val == nil && schema.IsNonNull(t) {
			return nil, fmt.Errorf("variable $%s of non-null type %s cannot be null", name, t)
		}
		cv, err := coerceValue(sch, val, t)
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %w", name, t, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces a field's argument literals and variable
// references against the field definition. A failure is a field error, not a
// request failure. Results are cached per (field definition, field node)
// pair: the same node inside an interface-conditioned fragment executes
// against several concrete types whose definitions may carry different
// argument defaults.
func (rctx *resolutionContext) coerceArgumentValues(fieldDef *schema.Field, field *language.Field) (map[string]any, error) {
	key := argumentsKey{def: fieldDef, node: field}
	rctx.mu.Lock()
	if cached, ok := rctx.argumentVals[key]; ok {
		rctx.mu.Unlock()
		return cached.args, cached.err
	}
	rctx.mu.Unlock()

	args, err := coerceArguments(rctx.schema, fieldDef, field.Arguments, rctx.variables)

	rctx.mu.Lock()
	rctx.argumentVals[key] = coercedArgs{args: args, err: err}
	rctx.mu.Unlock()
	return args, err
}

func coerceArguments(
	sch *schema.Schema,
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		argDef := fieldDef.Argument(arg.Name)
		if argDef == nil {
			continue
		}
		val := valueWithVariables(arg.Value, variableValues)
		if val == nil && arg.Value != nil && arg.Value.Kind == language.Variable {
			// Absent variable: fall through to the default below.
			continue
		}
		cv, err := coerceValue(sch, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q cannot be coerced: %w", arg.Name, err)
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := coerced[argDef.Name]; ok {
			continue
		}
		if argDef.HasDefault {
			coerced[argDef.Name] = argDef.DefaultValue
			continue
		}
		if schema.IsNonNull(argDef.Type) {
			return nil, fmt.Errorf("argument %q of required type %s was not provided", argDef.Name, argDef.Type)
		}
	}
	return coerced, nil
}

// valueWithVariables converts an AST value to a Go value, substituting
// variable references from the coerced variable map.
func valueWithVariables(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return variableValues[value.Raw]
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueWithVariables(c.Value, variableValues)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			m[f.Name] = valueWithVariables(f.Value, variableValues)
		}
		return m
	default:
		return language.GoValue(value)
	}
}

// coerceValue coerces a runtime value to the given input type.
func coerceValue(sch *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", targetType)
		}
		return coerceValue(sch, value, schema.Unwrap(targetType))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(targetType) {
		return coerceListValue(sch, value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	typ := sch.Types[namedType]
	if typ == nil {
		return value, nil
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		return coerceEnumValue(typ, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, typ, value)
	default:
		if typ.ParseValue != nil {
			return typ.ParseValue(value)
		}
		return value, nil
	}
}

func coerceListValue(sch *schema.Schema, value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		coerced := make([]any, len(slice))
		for i, item := range slice {
			cv, err := coerceValue(sch, item, innerType)
			if err != nil {
				return nil, err
			}
			coerced[i] = cv
		}
		return coerced, nil
	}
	// A single value coerces to a one-element list.
	cv, err := coerceValue(sch, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{cv}, nil
}

func coerceEnumValue(typ *schema.Type, value any) (any, error) {
	name, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("enum %s cannot represent %v (%T)", typ.Name, value, value)
	}
	for _, ev := range typ.EnumValues {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("value %q does not exist in enum %s", name, typ.Name)
}

func coerceInputObject(sch *schema.Schema, typ *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("input object %s cannot represent %v (%T)", typ.Name, value, value)
	}
	coerced := make(map[string]any, len(fields))
	for _, inputField := range typ.InputFields {
		val, provided := fields[inputField.Name]
		if !provided {
			if inputField.HasDefault {
				coerced[inputField.Name] = inputField.DefaultValue
				continue
			}
			if schema.IsNonNull(inputField.Type) {
				return nil, fmt.Errorf("input field %s.%s of required type was not provided", typ.Name, inputField.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, val, inputField.Type)
		if err != nil {
			return nil, err
		}
		coerced[inputField.Name] = cv
	}
	for name := range fields {
		if known := func() bool {
			for _, inputField := range typ.InputFields {
				if inputField.Name == name {
					return true
				}
			}
			return false
		}(); !known {
			return nil, fmt.Errorf("unknown input field %s on %s", name, typ.Name)
		}
	}
	if typ.OneOf && len(coerced) != 1 {
		return nil, fmt.Errorf("oneOf input %s must have exactly one field set", typ.Name)
	}
	return coerced, nil
}

// Basic scalar coercion. Int follows the 32-bit rule: non-integral numbers
// and values outside the signed 32-bit range are errors, not truncated.
func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return intInRange(int64(v))
	case int32:
		return int(v), nil
	case int64:
		return intInRange(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", v)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("Int cannot represent value outside 32-bit range: %v", v)
		}
		return int(v), nil
	case float32:
		return coerceToInt(float64(v))
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return intInRange(int64(iv))
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func intInRange(v int64) (any, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, fmt.Errorf("Int cannot represent value outside 32-bit range: %d", v)
	}
	return int(v), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
	}
}
