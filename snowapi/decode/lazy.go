package decode

import "fmt"

// UnknownColumnError is returned when a lazy lookup names a column the
// result does not have.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Name)
}

// ColumnIndexError is returned when a lazy lookup is out of range.
type ColumnIndexError struct {
	Index int
	Len   int
}

func (e *ColumnIndexError) Error() string {
	return fmt.Sprintf("invalid column index %d (row has %d columns)", e.Index, e.Len)
}

// Rows keeps a result as a name-indexed column table plus the raw matrix and
// decodes a cell only when asked.
type Rows struct {
	columns []string
	index   map[string]int
	data    [][]*string
}

// NewRows builds a lazy view. When a name repeats, the first column wins.
func NewRows(columns []string, data [][]*string) *Rows {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return &Rows{columns: columns, index: index, data: data}
}

func (r *Rows) Len() int { return len(r.data) }

func (r *Rows) Columns() []string { return r.columns }

// ColumnIndex returns the position of the named column.
func (r *Rows) ColumnIndex(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// At returns row n, or false when n is out of range.
func (r *Rows) At(n int) (Row, bool) {
	if n < 0 || n >= len(r.data) {
		return Row{}, false
	}
	return Row{n: n, columns: r.columns, index: r.index, cells: r.data[n]}, true
}

// Row is a view onto one row of Rows.
type Row struct {
	n       int
	columns []string
	index   map[string]int
	cells   []*string
}

// ColumnIndex returns the position of the named column.
func (r Row) ColumnIndex(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Raw returns the undecoded cell for the named column.
func (r Row) Raw(column string) (*string, error) {
	i, ok := r.index[column]
	if !ok {
		return nil, &UnknownColumnError{Name: column}
	}
	return r.RawAt(i)
}

// RawAt returns the undecoded cell at position i.
func (r Row) RawAt(i int) (*string, error) {
	if i < 0 || i >= len(r.cells) {
		return nil, &ColumnIndexError{Index: i, Len: len(r.cells)}
	}
	return r.cells[i], nil
}

func (r Row) name(i int) string {
	if i < len(r.columns) {
		return r.columns[i]
	}
	return fmt.Sprintf("#%d", i)
}

// Get decodes the named column of r with dec.
func Get[V any](r Row, column string, dec Decoder[V]) (V, error) {
	i, ok := r.index[column]
	if !ok {
		var zero V
		return zero, &UnknownColumnError{Name: column}
	}
	return GetAt(r, i, dec)
}

// GetAt decodes column i of r with dec.
func GetAt[V any](r Row, i int, dec Decoder[V]) (V, error) {
	return getAt[V](r, i, KindScalar, dec)
}

// GetJSON parses the named column of r as a JSON document.
func GetJSON[V any](r Row, column string) (V, error) {
	i, ok := r.index[column]
	if !ok {
		var zero V
		return zero, &UnknownColumnError{Name: column}
	}
	return GetJSONAt[V](r, i)
}

// GetJSONAt parses column i of r as a JSON document.
func GetJSONAt[V any](r Row, i int) (V, error) {
	return getAt[V](r, i, KindJSON, parseJSON[V])
}

func getAt[V any](r Row, i int, kind Kind, dec Decoder[V]) (V, error) {
	raw, err := r.RawAt(i)
	if err != nil {
		var zero V
		return zero, err
	}
	v, err := dec(raw)
	if err != nil {
		return v, &FieldError{Row: r.n, Column: i, Field: r.name(i), Raw: raw, Kind: kind, Err: err}
	}
	return v, nil
}
