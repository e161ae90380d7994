package executor

import (
	"bytes"
	"encoding/json"
)

// ResponseMap is a string-keyed object in the response tree that preserves
// key insertion order, so sibling fields serialize in selection order no
// matter which branch settled first.
type ResponseMap struct {
	keys   []string
	values map[string]any
}

func newResponseMap(capacity int) *ResponseMap {
	return &ResponseMap{
		keys:   make([]string, 0, capacity),
		values: make(map[string]any, capacity),
	}
}

// Set stores v under key, keeping the key's first-insertion position.
func (m *ResponseMap) Set(key string, v any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *ResponseMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the response keys in selection order.
func (m *ResponseMap) Keys() []string {
	return m.keys
}

// Len returns the number of keys.
func (m *ResponseMap) Len() int { return len(m.keys) }

// MarshalJSON writes the object with keys in selection order.
func (m *ResponseMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
