// Package patch distingue en un PUT parcial entre "campo ausente",
// "campo en null" y "campo con valor".
package patch

import (
	"bytes"
	"encoding/json"
)

// Field se usa como campo de un DTO. Si la clave no viene en el JSON,
// UnmarshalJSON nunca se llama y Set queda en false.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(b, &f.Value)
}

// Present indica que vino un valor concreto (no null).
func (f Field[T]) Present() bool { return f.Set && !f.Null }

// Ptr devuelve nil para null y un puntero al valor en otro caso.
// Solo tiene sentido si Set es true.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

func Of[T any](v T) Field[T] { return Field[T]{Set: true, Value: v} }

func Null[T any]() Field[T] { return Field[T]{Set: true, Null: true} }
