package schema

import (
	"fmt"

	language "github.com/quellhq/quell/internal/language"
	"github.com/vektah/gqlparser/v2/ast"
)

// NewSchema creates an empty schema carrying the built-in scalar types and
// executable directives.
func NewSchema(description string) *Schema {
	s := &Schema{
		Description: description,
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
	}
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective).
		AddDirective(deprecatedDirective)
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	s.Directives[d.Name] = d
	return s
}

// SetDefaultResolver sets the schema-wide resolver fallback.
func (s *Schema) SetDefaultResolver(r ResolveFunc) *Schema {
	s.DefaultResolver = r
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type           { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type    { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type { t.PossibleTypes = append(t.PossibleTypes, name); return t }
func (t *Type) AddEnumValue(v *EnumValue) *Type   { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type { t.InputFields = append(t.InputFields, v); return t }
func (t *Type) SetOneOf(oneOf bool) *Type         { t.OneOf = oneOf; return t }

func (t *Type) SetSerialize(f SerializeFunc) *Type      { t.Serialize = f; return t }
func (t *Type) SetParseValue(f SerializeFunc) *Type     { t.ParseValue = f; return t }
func (t *Type) SetResolveType(f ResolveTypeFunc) *Type  { t.ResolveType = f; return t }
func (t *Type) SetIsTypeOf(f IsTypeOfFunc) *Type        { t.IsTypeOf = f; return t }
func (t *Type) SetDefaultResolver(r ResolveFunc) *Type  { t.DefaultResolver = r; return t }

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) AddArgument(v *InputValue) *Field    { f.Arguments = append(f.Arguments, v); return f }
func (f *Field) SetResolver(r ResolveFunc) *Field    { f.Resolver = r; return f }
func (f *Field) SetSubscriber(s SubscribeFunc) *Field { f.Subscriber = s; return f }
func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(value any) *InputValue {
	v.DefaultValue = value
	v.HasDefault = true
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	return e
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) AddArgument(v *InputValue) *Directive { d.Arguments = append(d.Arguments, v); return d }
func (d *Directive) SetRepeatable(r bool) *Directive      { d.IsRepeatable = r; return d }

// Resolvers maps "Type.field" keys to resolver functions for BuildFromSDL.
type Resolvers map[string]ResolveFunc

// Subscribers maps "Type.field" keys to subscribe functions for BuildFromSDL.
type Subscribers map[string]SubscribeFunc

// BuildFromSDL parses a type-system document and returns the corresponding
// executable schema with the given resolvers bound by "Type.field" key.
// Root operation types default to Query/Mutation/Subscription when the
// document has no schema definition; a root type is only registered when the
// document actually defines it.
func BuildFromSDL(sdl string, resolvers Resolvers) (*Schema, error) {
	return BuildFromSDLWithSubscribers(sdl, resolvers, nil)
}

// BuildFromSDLWithSubscribers is BuildFromSDL with subscription root field
// bindings.
func BuildFromSDLWithSubscribers(sdl string, resolvers Resolvers, subscribers Subscribers) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}

	s := NewSchema("")
	queryName, mutationName, subscriptionName := "Query", "Mutation", "Subscription"
	for _, sd := range append(doc.Schema, doc.SchemaExtension...) {
		s.Description = sd.Description
		for _, opType := range sd.OperationTypes {
			switch opType.Operation {
			case language.Query:
				queryName = opType.Type
			case language.Mutation:
				mutationName = opType.Type
			case language.Subscription:
				subscriptionName = opType.Type
			}
		}
	}

	for _, def := range append(doc.Definitions, doc.Extensions...) {
		t, err := buildDefinition(def)
		if err != nil {
			return nil, err
		}
		if existing, ok := s.Types[def.Name]; ok && existing.Kind == t.Kind {
			mergeType(existing, t)
			continue
		}
		s.AddType(t)
	}
	for _, dir := range doc.Directives {
		s.AddDirective(buildDirectiveDef(dir))
	}

	if _, ok := s.Types[queryName]; ok {
		s.SetQueryType(queryName)
	}
	if _, ok := s.Types[mutationName]; ok {
		s.SetMutationType(mutationName)
	}
	if _, ok := s.Types[subscriptionName]; ok {
		s.SetSubscriptionType(subscriptionName)
	}

	for key, r := range resolvers {
		if err := bindResolver(s, key, r, nil); err != nil {
			return nil, err
		}
	}
	for key, sub := range subscribers {
		if err := bindResolver(s, key, nil, sub); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func bindResolver(s *Schema, key string, r ResolveFunc, sub SubscribeFunc) error {
	typeName, fieldName, ok := splitFieldKey(key)
	if !ok {
		return fmt.Errorf("invalid resolver key %q: want \"Type.field\"", key)
	}
	t := s.Types[typeName]
	if t == nil {
		return fmt.Errorf("resolver key %q: unknown type %s", key, typeName)
	}
	f := t.Field(fieldName)
	if f == nil {
		return fmt.Errorf("resolver key %q: type %s has no field %s", key, typeName, fieldName)
	}
	if r != nil {
		f.Resolver = r
	}
	if sub != nil {
		f.Subscriber = sub
	}
	return nil
}

func splitFieldKey(key string) (typeName, fieldName string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], key[:i] != "" && key[i+1:] != ""
		}
	}
	return "", "", false
}

func buildDefinition(def *ast.Definition) (*Type, error) {
	switch def.Kind {
	case ast.Object, ast.Interface:
		kind := TypeKindObject
		if def.Kind == ast.Interface {
			kind = TypeKindInterface
		}
		t := NewType(def.Name, kind, def.Description)
		for _, iface := range def.Interfaces {
			t.AddInterface(iface)
		}
		for _, fd := range def.Fields {
			f := NewField(fd.Name, fd.Description, typeRefFromAST(fd.Type))
			for _, ad := range fd.Arguments {
				in := NewInputValue(ad.Name, ad.Description, typeRefFromAST(ad.Type))
				if ad.DefaultValue != nil {
					in.SetDefault(language.GoValue(ad.DefaultValue))
				}
				f.AddArgument(in)
			}
			if reason, ok := deprecationOf(fd.Directives); ok {
				f.Deprecate(reason)
			}
			t.AddField(f)
		}
		return t, nil
	case ast.Union:
		t := NewType(def.Name, TypeKindUnion, def.Description)
		for _, member := range def.Types {
			t.AddPossibleType(member)
		}
		return t, nil
	case ast.Enum:
		t := NewType(def.Name, TypeKindEnum, def.Description)
		for _, ev := range def.EnumValues {
			e := NewEnumValue(ev.Name, ev.Description)
			if reason, ok := deprecationOf(ev.Directives); ok {
				e.Deprecate(reason)
			}
			t.AddEnumValue(e)
		}
		return t, nil
	case ast.Scalar:
		return NewType(def.Name, TypeKindScalar, def.Description), nil
	case ast.InputObject:
		t := NewType(def.Name, TypeKindInputObject, def.Description)
		for _, fd := range def.Fields {
			in := NewInputValue(fd.Name, fd.Description, typeRefFromAST(fd.Type))
			if fd.DefaultValue != nil {
				in.SetDefault(language.GoValue(fd.DefaultValue))
			}
			if reason, ok := deprecationOf(fd.Directives); ok {
				in.Deprecate(reason)
			}
			t.AddInputField(in)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported definition kind %s for %s", def.Kind, def.Name)
}

func deprecationOf(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil {
		if s, ok := language.GoValue(arg.Value).(string); ok {
			return s, true
		}
	}
	return "No longer supported", true
}

func mergeType(dst, src *Type) {
	dst.Fields = append(dst.Fields, src.Fields...)
	dst.Interfaces = append(dst.Interfaces, src.Interfaces...)
	dst.PossibleTypes = append(dst.PossibleTypes, src.PossibleTypes...)
	dst.EnumValues = append(dst.EnumValues, src.EnumValues...)
	dst.InputFields = append(dst.InputFields, src.InputFields...)
}

func buildDirectiveDef(dir *ast.DirectiveDefinition) *Directive {
	d := NewDirective(dir.Name, dir.Description).SetRepeatable(dir.IsRepeatable)
	for _, loc := range dir.Locations {
		d.Locations = append(d.Locations, string(loc))
	}
	for _, ad := range dir.Arguments {
		in := NewInputValue(ad.Name, ad.Description, typeRefFromAST(ad.Type))
		if ad.DefaultValue != nil {
			in.SetDefault(language.GoValue(ad.DefaultValue))
		}
		d.AddArgument(in)
	}
	return d
}

// TypeRefFromAST converts a gqlparser type reference into the schema model.
func TypeRefFromAST(t *language.Type) *TypeRef { return typeRefFromAST(t) }

func typeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	return ListType(typeRefFromAST(t.Elem))
}
