// Package frame provides a small row-indexed table of float64 columns.
//
// A Frame keeps its column order and a row index whose labels travel
// unchanged through selections and predictions, so results can be joined
// back to the rows they came from.
package frame

import (
	"errors"
	"fmt"
)

// ErrColumnNotFound is returned when a named column does not exist.
var ErrColumnNotFound = errors.New("column not found")

// Frame is an immutable table: ordered named columns of equal length plus a
// row index.
type Frame struct {
	columns []string
	values  [][]float64
	index   []any
	pos     map[string]int
}

// New builds a frame from per-column values. A nil index becomes
// RangeIndex of the row count. Slices are copied.
func New(columns []string, values [][]float64, index []any) (*Frame, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("frame: %d column names for %d columns", len(columns), len(values))
	}

	rows := len(index)
	if index == nil && len(values) > 0 {
		rows = len(values[0])
	}

	f := &Frame{
		columns: append([]string(nil), columns...),
		values:  make([][]float64, len(values)),
		pos:     make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("frame: column %d has an empty name", i)
		}
		if _, dup := f.pos[name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", name)
		}
		if len(values[i]) != rows {
			return nil, fmt.Errorf("frame: column %q has %d rows, want %d", name, len(values[i]), rows)
		}
		f.pos[name] = i
		f.values[i] = append([]float64(nil), values[i]...)
	}

	if index == nil {
		f.index = RangeIndex(rows)
	} else {
		f.index = append([]any(nil), index...)
	}
	return f, nil
}

// RangeIndex returns the labels 0..n-1.
func RangeIndex(n int) []any {
	index := make([]any, n)
	for i := range index {
		index[i] = i
	}
	return index
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Index returns the row labels.
func (f *Frame) Index() []any {
	return append([]any(nil), f.index...)
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, bool) {
	i, ok := f.pos[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), f.values[i]...), true
}

// HasColumns returns the names that are not columns of f, in argument order.
func (f *Frame) HasColumns(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := f.pos[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Select returns a frame with the named columns in the given order and the
// same index.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if missing := f.HasColumns(names...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrColumnNotFound, missing)
	}
	values := make([][]float64, len(names))
	for i, name := range names {
		values[i] = f.values[f.pos[name]]
	}
	return New(names, values, f.index)
}

// Rows flattens the table row-major: row r, column c is at r*width+c.
func (f *Frame) Rows() []float64 {
	width := len(f.columns)
	out := make([]float64, f.Len()*width)
	for c, col := range f.values {
		for r, v := range col {
			out[r*width+c] = v
		}
	}
	return out
}
