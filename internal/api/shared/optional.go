package shared

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that tells apart "absent", "null" and a value.
// Absent leaves Set false; an explicit null sets Set and Null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns the value when one was given, nil otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// Cleared reports whether the field was sent as null.
func (o Optional[T]) Cleared() bool {
	return o.Set && o.Null
}
