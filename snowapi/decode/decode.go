// Package decode converts the untyped string matrix returned by the
// statements endpoint into typed Go values.
//
// A row type is described once with a Schema: one Field per projected column,
// in projection order. Each field either runs a scalar Decoder over the raw
// cell or parses the cell as embedded JSON.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnexpectedNull is the cause reported when a non-nullable field receives NULL.
var ErrUnexpectedNull = errors.New("unexpected null for non-nullable value")

// ErrMissingCell is the cause reported when a row is shorter than the schema.
var ErrMissingCell = errors.New("row has no cell for this field")

// Kind classifies the step that failed while decoding a field.
type Kind int

const (
	// KindScalar is a failure of a scalar Decoder.
	KindScalar Kind = iota + 1
	// KindJSON is a failure to parse an embedded-JSON cell.
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// FieldError reports which field of which row failed, with the raw cell.
type FieldError struct {
	Row    int
	Column int
	Field  string
	Raw    *string
	Kind   Kind
	Err    error
}

// RawValue returns the raw cell, or "NULL" when the cell was absent.
func (e *FieldError) RawValue() string {
	if e.Raw == nil {
		return "NULL"
	}
	return *e.Raw
}

func (e *FieldError) Error() string {
	raw := "NULL"
	if e.Raw != nil {
		raw = strconv.Quote(*e.Raw)
	}
	return fmt.Sprintf("decode row %d field %q (column %d, %s) from %s: %v",
		e.Row, e.Field, e.Column, e.Kind, raw, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Field decodes one column into a member of T.
type Field[T any] struct {
	name   string
	kind   Kind
	decode func(raw *string, dst *T) error
}

// Name returns the field name used in errors.
func (f Field[T]) Name() string { return f.name }

// Column builds a scalar field: dec parses the cell and set stores the result.
func Column[T, V any](name string, dec Decoder[V], set func(*T, V)) Field[T] {
	return Field[T]{
		name: name,
		kind: KindScalar,
		decode: func(raw *string, dst *T) error {
			v, err := dec(raw)
			if err != nil {
				return err
			}
			set(dst, v)
			return nil
		},
	}
}

// JSONColumn builds a field whose cell holds a JSON document. A NULL cell is
// parsed as JSON null.
func JSONColumn[T, V any](name string, set func(*T, V)) Field[T] {
	return Field[T]{
		name: name,
		kind: KindJSON,
		decode: func(raw *string, dst *T) error {
			v, err := parseJSON[V](raw)
			if err != nil {
				return err
			}
			set(dst, v)
			return nil
		},
	}
}

func parseJSON[V any](raw *string) (V, error) {
	var v V
	doc := "null"
	if raw != nil {
		doc = *raw
	}
	err := json.Unmarshal([]byte(doc), &v)
	return v, err
}

// Schema is the decoding plan for a row type, built once and reused.
type Schema[T any] struct {
	fields []Field[T]
}

// NewSchema returns a schema whose i-th field reads the i-th projected column.
func NewSchema[T any](fields ...Field[T]) *Schema[T] {
	return &Schema[T]{fields: fields}
}

// Fields returns the field names in column order.
func (s *Schema[T]) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// DecodeRow decodes a single row. Errors are *FieldError with Row set to 0.
func (s *Schema[T]) DecodeRow(row []*string) (T, error) {
	return s.decodeRow(0, row)
}

func (s *Schema[T]) decodeRow(n int, row []*string) (T, error) {
	var out T
	for i, f := range s.fields {
		if i >= len(row) {
			return out, &FieldError{Row: n, Column: i, Field: f.name, Kind: f.kind, Err: ErrMissingCell}
		}
		if err := f.decode(row[i], &out); err != nil {
			return out, &FieldError{Row: n, Column: i, Field: f.name, Raw: row[i], Kind: f.kind, Err: err}
		}
	}
	return out, nil
}

// DecodeAll decodes every row in order and stops at the first failure,
// returning no partial output. sizeHint is the row count reported by the
// server; it pre-sizes the result but is clamped to len(rows).
func (s *Schema[T]) DecodeAll(rows [][]*string, sizeHint int) ([]T, error) {
	out := make([]T, 0, min(max(sizeHint, 0), len(rows)))
	for n, row := range rows {
		v, err := s.decodeRow(n, row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
