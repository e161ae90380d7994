package language

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// Error and ErrorList alias gqlparser's error types so parse and validation
// failures carry positions through the module unchanged.
type (
	Error     = gqlerror.Error
	ErrorList = gqlerror.List
	Location  = gqlerror.Location
)

// ParseQuery parses an executable document (operations and fragments).
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses a type-system document without building a usable schema.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema builds a validated schema from SDL. The result is only used for
// operation validation; execution runs against the schema package's model.
func LoadSchema(name, source string) (*ValidatedSchema, error) {
	sch, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Validate runs the GraphQL validation rules for doc against sch. The returned
// list is nil when the document is valid. Unknown-field errors include
// "Did you mean" suggestions from the validator.
func Validate(sch *ValidatedSchema, doc *QueryDocument) ErrorList {
	return validator.Validate(sch, doc)
}
