package services

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that tells an omitted JSON member apart from an
// explicit null: Set is false when the member was absent, and Value is nil
// when it was null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NewNullable returns a field set to v.
func NewNullable[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a field that clears the stored value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
