package schema

import (
	"context"

	language "github.com/quellhq/quell/internal/language"
)

// Schema is the complete type system for one service. It is built once and
// treated as read-only during execution.
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	// DefaultResolver is the schema-wide fallback used when neither the
	// field nor its parent type declares one. When nil the builtin
	// key/struct-field lookup applies.
	DefaultResolver ResolveFunc
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// IsPossibleType reports whether concrete is a legal runtime type for the
// abstract (interface or union) type.
func (s *Schema) IsPossibleType(abstract *Type, concrete *Type) bool {
	if abstract == nil || concrete == nil || concrete.Kind != TypeKindObject {
		return false
	}
	switch abstract.Kind {
	case TypeKindUnion:
		for _, name := range abstract.PossibleTypes {
			if name == concrete.Name {
				return true
			}
		}
	case TypeKindInterface:
		for _, name := range concrete.Interfaces {
			if name == abstract.Name {
				return true
			}
		}
		for _, name := range abstract.PossibleTypes {
			if name == concrete.Name {
				return true
			}
		}
	}
	return false
}

// PossibleTypes returns the concrete object types a value of the given
// abstract type may resolve to.
func (s *Schema) PossibleTypes(abstract *Type) []*Type {
	if abstract == nil {
		return nil
	}
	var out []*Type
	switch abstract.Kind {
	case TypeKindUnion:
		for _, name := range abstract.PossibleTypes {
			if t := s.Types[name]; t != nil {
				out = append(out, t)
			}
		}
	case TypeKindInterface:
		for _, t := range s.Types {
			if t.Kind == TypeKindObject && s.IsPossibleType(abstract, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// ResolveInfo is the per-field resolution record passed to resolvers. One is
// created per field execution and discarded once the field's value is
// completed.
type ResolveInfo struct {
	FieldName  string
	FieldDef   *Field
	FieldNodes []*language.Field
	ReturnType *TypeRef
	ParentType *Type
	Path       []any
	Schema     *Schema
	Operation  *language.OperationDefinition
	Fragments  language.FragmentDefinitionList
	Variables  map[string]any
	RootValue  any
}

// ResolveFunc produces the raw value for one field. The returned value may
// itself be a runtime-wrapped (pending) value; the executor unwraps it.
type ResolveFunc func(ctx context.Context, source any, args map[string]any, info *ResolveInfo) (any, error)

// SubscribeFunc produces the event source for a subscription root field.
// The returned value must be a runtime.Stream.
type SubscribeFunc func(ctx context.Context, source any, args map[string]any, info *ResolveInfo) (any, error)

// SerializeFunc converts an internal leaf value into a JSON-safe Go value.
type SerializeFunc func(value any) (any, error)

// ResolveTypeFunc maps a value of an abstract type to its concrete object
// type name.
type ResolveTypeFunc func(ctx context.Context, value any) (string, error)

// IsTypeOfFunc reports whether a value belongs to an object type; used as a
// fallback during abstract type resolution.
type IsTypeOfFunc func(ctx context.Context, value any) bool

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool

	// Serialize applies to SCALAR and ENUM kinds. Nil means identity for
	// scalars and name passthrough with membership check for enums.
	Serialize SerializeFunc
	// ParseValue coerces an input value for SCALAR kinds. Nil means identity.
	ParseValue SerializeFunc
	// ResolveType applies to INTERFACE and UNION kinds. Nil selects the
	// default strategy (__typename key, then IsTypeOf scan).
	ResolveType ResolveTypeFunc
	// IsTypeOf applies to OBJECT kinds.
	IsTypeOf IsTypeOfFunc
	// DefaultResolver applies to OBJECT kinds; overrides the schema-wide
	// default for fields of this type.
	DefaultResolver ResolveFunc
}

// Field returns the field definition with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	Resolver          ResolveFunc   // nil falls back to the default chain
	Subscriber        SubscribeFunc // subscription root fields only
	IsDeprecated      bool
	DeprecationReason string
}

// Argument returns the argument definition with the given name, or nil.
func (f *Field) Argument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// IsAbstract reports whether the kind requires runtime type resolution.
func (k TypeKind) IsAbstract() bool {
	return k == TypeKindInterface || k == TypeKindUnion
}

// IsLeaf reports whether the kind completes via serialization.
func (k TypeKind) IsLeaf() bool {
	return k == TypeKindScalar || k == TypeKindEnum
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	return t != nil && t.Kind == TypeRefKindList
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Int!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindNamed:
		return t.Named
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	}
	return ""
}

type EnumValue struct {
	Name              string
	Description       string
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	HasDefault        bool
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the outermost wrapper is a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
