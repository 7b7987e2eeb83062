// Package patch carries tri-state update semantics for optional fields in
// partial updates: a field can be absent from the request (leave the stored
// value), set to a value, or set to null (clear the stored value).
package patch

import "encoding/json"

// Field is a single tri-state patch field.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Value returns a field explicitly set to v.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Clear returns a field explicitly cleared.
func Clear[T any]() Field[T] {
	return Field[T]{Set: true}
}

// IsZero lets encoding/json omit unset fields via the omitzero tag.
func (f Field[T]) IsZero() bool {
	return !f.Set
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}
