package executor

import (
	"bytes"
	"encoding/json"
	"fmt"

	language "github.com/quellhq/quell/internal/language"
)

// Path locates a value within the response tree: field response keys as
// strings, list indices as ints.
type Path []PathElement

type PathElement = any

// String renders the path in dotted/indexed notation, e.g. "user.posts[2].title".
func (p Path) String() string {
	out := ""
	for _, elem := range p {
		switch v := elem.(type) {
		case string:
			if out != "" {
				out += "."
			}
			out += v
		case int:
			out += fmt.Sprintf("[%d]", v)
		}
	}
	return out
}

// Location is a 1-based source position within the request document.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is a field-recoverable or request-fatal error in the
// response's errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

func locationsOf(fields []*language.Field) []Location {
	var locs []Location
	for _, f := range fields {
		if f.Position != nil {
			locs = append(locs, Location{Line: f.Position.Line, Column: f.Position.Column})
		}
	}
	return locs
}

// Result is the response to one executed operation. Data is tri-state:
// unset (HasData false, key omitted entirely), explicit null, or a
// structured tree.
type Result struct {
	Data       any
	HasData    bool
	Errors     []GraphQLError
	Extensions map[string]any
}

// MarshalJSON emits the GraphQL response shape: data (only when set), errors
// (only when non-empty), extensions (only when non-empty), in that order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	if r.HasData {
		buf.WriteString(`"data":`)
		b, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		first = false
	}
	if len(r.Errors) > 0 {
		if !first {
			buf.WriteByte(',')
		}
		buf.WriteString(`"errors":`)
		b, err := json.Marshal(r.Errors)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
		first = false
	}
	if len(r.Extensions) > 0 {
		if !first {
			buf.WriteByte(',')
		}
		buf.WriteString(`"extensions":`)
		b, err := json.Marshal(r.Extensions)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// fatalResult builds a request-fatal response: errors only, no data key.
func fatalResult(errs ...GraphQLError) *Result {
	return &Result{Errors: errs}
}
