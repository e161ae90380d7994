package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from the Schema. Output ordering is deterministic:
// types and directives are sorted by name. Built-in scalars, the prelude
// directives and introspection types are omitted since the validator's
// prelude supplies them.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	w := &sdlWriter{}
	w.schemaDefinition(s)

	for _, name := range renderableTypeNames(s) {
		w.typeDefinition(s.Types[name])
	}
	for _, name := range renderableDirectiveNames(s) {
		w.directiveDefinition(s.Directives[name])
	}
	return w.output()
}

func renderableTypeNames(s *Schema) []string {
	names := make([]string, 0, len(s.Types))
	for name, typ := range s.Types {
		if strings.HasPrefix(name, "__") || isBuiltinScalar(typ) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func renderableDirectiveNames(s *Schema) []string {
	names := make([]string, 0, len(s.Directives))
	for name, d := range s.Directives {
		switch d {
		case includeDirective, skipDirective, deprecatedDirective:
		default:
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func isBuiltinScalar(t *Type) bool {
	switch t {
	case stringType, intType, floatType, booleanType, idType:
		return true
	}
	return false
}

type sdlWriter struct {
	b strings.Builder
}

func (w *sdlWriter) output() string {
	return strings.TrimRight(w.b.String(), "\n") + "\n"
}

func (w *sdlWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format+"\n", args...)
}

func (w *sdlWriter) description(desc string) {
	if desc == "" {
		return
	}
	w.line(`"""`)
	w.line("%s", strings.ReplaceAll(desc, `"`, `\"`))
	w.line(`"""`)
}

// schemaDefinition emits an explicit schema block only when a root type
// departs from its conventional name.
func (w *sdlWriter) schemaDefinition(s *Schema) {
	conventional := (s.QueryType == "" || s.QueryType == "Query") &&
		(s.MutationType == "" || s.MutationType == "Mutation") &&
		(s.SubscriptionType == "" || s.SubscriptionType == "Subscription")
	if conventional {
		return
	}
	w.description(s.Description)
	w.line("schema {")
	for _, root := range []struct{ op, name string }{
		{"query", s.QueryType},
		{"mutation", s.MutationType},
		{"subscription", s.SubscriptionType},
	} {
		if root.name != "" {
			w.line("  %s: %s", root.op, root.name)
		}
	}
	w.line("}")
	w.line("")
}

func (w *sdlWriter) typeDefinition(t *Type) {
	w.description(t.Description)
	switch t.Kind {
	case TypeKindScalar:
		decl := "scalar " + t.Name
		if t.SpecifiedByURL != nil {
			decl += fmt.Sprintf(" @specifiedBy(url: %q)", *t.SpecifiedByURL)
		}
		w.line("%s", decl)
	case TypeKindEnum:
		w.line("enum %s {", t.Name)
		for _, ev := range t.EnumValues {
			w.description(ev.Description)
			w.line("  %s%s", ev.Name, deprecation(ev.IsDeprecated, ev.DeprecationReason))
		}
		w.line("}")
	case TypeKindInputObject:
		decl := "input " + t.Name
		if t.OneOf {
			decl += " @oneOf"
		}
		w.line("%s {", decl)
		for _, in := range t.InputFields {
			w.description(in.Description)
			w.line("  %s%s", inputValueSDL(in), deprecation(in.IsDeprecated, in.DeprecationReason))
		}
		w.line("}")
	case TypeKindObject, TypeKindInterface:
		keyword := "type"
		if t.Kind == TypeKindInterface {
			keyword = "interface"
		}
		decl := keyword + " " + t.Name
		if len(t.Interfaces) > 0 {
			decl += " implements " + strings.Join(t.Interfaces, " & ")
		}
		w.line("%s {", decl)
		for _, f := range t.Fields {
			w.fieldDefinition(f)
		}
		w.line("}")
	case TypeKindUnion:
		w.line("union %s = %s", t.Name, strings.Join(t.PossibleTypes, " | "))
	}
	w.line("")
}

func (w *sdlWriter) fieldDefinition(f *Field) {
	if strings.HasPrefix(f.Name, "__") {
		return
	}
	w.description(f.Description)
	w.line("  %s%s: %s%s",
		f.Name, argumentsSDL(f.Arguments), f.Type.String(),
		deprecation(f.IsDeprecated, f.DeprecationReason))
}

func (w *sdlWriter) directiveDefinition(d *Directive) {
	w.description(d.Description)
	decl := "directive @" + d.Name + argumentsSDL(d.Arguments)
	if d.IsRepeatable {
		decl += " repeatable"
	}
	w.line("%s on %s", decl, strings.Join(d.Locations, " | "))
	w.line("")
}

func argumentsSDL(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = inputValueSDL(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func inputValueSDL(in *InputValue) string {
	s := in.Name + ": " + in.Type.String()
	if in.HasDefault {
		s += " = " + valueSDL(in.DefaultValue)
	}
	return s
}

func deprecation(deprecated bool, reason string) string {
	if !deprecated {
		return ""
	}
	if reason == "" {
		return " @deprecated"
	}
	return fmt.Sprintf(" @deprecated(reason: %q)", reason)
}

// valueSDL renders a Go value in GraphQL value notation, used for default
// values and directive arguments.
func valueSDL(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = valueSDL(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + valueSDL(v[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		// Enum values arrive as bare identifiers.
		return fmt.Sprint(v)
	}
}
