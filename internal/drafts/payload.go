package drafts

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Field is one named form value.
type Field struct {
	Name  string
	Value any
}

// Payload is the full editable state of one form: an ordered mapping of
// field name to a scalar value (string, float64, bool or nil). Field order
// is preserved through JSON encoding so a restored form lists fields the
// way it saved them.
//
// The zero Payload is empty and ready to use.
type Payload struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewPayload builds a Payload from fields in order.
func NewPayload(fields ...Field) Payload {
	var p Payload
	for _, f := range fields {
		p.Set(f.Name, f.Value)
	}
	return p
}

// Set stores value under name. Setting an existing name keeps its position.
// Integer and float kinds are stored as float64, non-finite floats as nil,
// and any other type as its fmt.Sprint string.
func (p *Payload) Set(name string, value any) {
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
	p.m.Set(name, normalize(value))
}

// Get returns the value stored under name.
func (p Payload) Get(name string) (any, bool) {
	if p.m == nil {
		return nil, false
	}
	return p.m.Get(name)
}

// String returns the named value formatted for a text input. Missing and
// nil values are "".
func (p Payload) String(name string) string {
	v, _ := p.Get(name)
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}

// Len returns the number of fields.
func (p Payload) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Fields returns the fields in insertion order.
func (p Payload) Fields() []Field {
	fields := make([]Field, 0, p.Len())
	if p.m == nil {
		return fields
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, Field{Name: pair.Key, Value: pair.Value})
	}
	return fields
}

// Clone returns a copy that shares nothing with p.
func (p Payload) Clone() Payload {
	return NewPayload(p.Fields()...)
}

// IsEmpty reports whether every field is semantically empty. A payload
// with no fields is empty.
func (p Payload) IsEmpty() bool {
	for _, f := range p.Fields() {
		if !isEmptyValue(f.Value) {
			return false
		}
	}
	return true
}

// isEmptyValue: blank strings, numbers <= 0, false and nil are empty.
func isEmptyValue(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return !(v > 0)
	case bool:
		return !v
	default:
		return false
	}
}

func normalize(v any) any {
	switch v := v.(type) {
	case nil, string, bool:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		return normalize(float64(v))
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return fmt.Sprint(v)
	}
}

// MarshalJSON encodes the payload as a JSON object in field order.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order. Nested arrays
// and objects are rejected.
func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = Payload{}

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("payload: expected object")
	}

	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Value.(type) {
		case nil, string, float64, bool:
		default:
			return fmt.Errorf("payload: field %q is not a scalar", pair.Key)
		}
		p.Set(pair.Key, pair.Value)
	}
	return nil
}
