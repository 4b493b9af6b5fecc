package predictor

import (
	"fmt"
	"strings"

	"gorgonia.org/tensor"

	"github.com/lzoffoli-tg/checkupy/frame"
)

// matrixInput checks a Matrix against the input width and reads it as
// float32.
func matrixInput(m Matrix, width int) ([]float32, int, error) {
	shape := m.Dense.Shape()
	if m.Dense.Dims() != 2 || shape[1] != width {
		return nil, 0, fmt.Errorf("%w: matrix shape %v, want (N, %d)", ErrShape, []int(shape), width)
	}
	data, err := denseFloat32(m.Dense)
	if err != nil {
		return nil, 0, err
	}
	return data, shape[0], nil
}

// tableInput selects the input labels from a Table in label order.
func tableInput(t Table, labels Labels) ([]float32, int, error) {
	names := labels.Names()
	if missing := t.Frame.HasColumns(names...); len(missing) > 0 {
		return nil, 0, &ColumnError{Required: names, Missing: missing}
	}
	sel, err := t.Frame.Select(names...)
	if err != nil {
		return nil, 0, err
	}
	return convert[float32](sel.Rows()), sel.Len(), nil
}

// mappingInput reads every label's value as a column and stacks the columns
// in label order. All columns must have the same length.
func mappingInput(m Mapping, labels Labels) ([]float32, int, error) {
	names := labels.Names()
	var missing []string
	for _, name := range names {
		if _, ok := m[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, 0, &ColumnError{Required: names, Missing: missing}
	}

	columns := make([][]float32, len(names))
	for i, name := range names {
		col, err := columnOf(m[name])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: label %q: %w", ErrUnsupportedType, name, err)
		}
		columns[i] = col
	}

	n := len(columns[0])
	for _, col := range columns[1:] {
		if len(col) != n {
			return nil, 0, fmt.Errorf("%w: mapping columns differ in length: %s", ErrShape, lengths(names, columns))
		}
	}

	width := len(names)
	data := make([]float32, n*width)
	for c, col := range columns {
		for r, v := range col {
			data[r*width+c] = v
		}
	}
	return data, n, nil
}

func lengths(names []string, columns [][]float32) string {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, len(columns[i]))
	}
	return strings.Join(parts, ", ")
}

// columnOf flattens a mapping value to a 1-D float32 column. Scalars become
// a column of length 1.
//
//nolint:gocyclo,cyclop // one case per accepted Go type.
func columnOf(v any) ([]float32, error) {
	switch x := v.(type) {
	case float32:
		return []float32{x}, nil
	case float64:
		return []float32{float32(x)}, nil
	case int:
		return []float32{float32(x)}, nil
	case int32:
		return []float32{float32(x)}, nil
	case int64:
		return []float32{float32(x)}, nil
	case []float32:
		return append([]float32(nil), x...), nil
	case []float64:
		return convert[float32](x), nil
	case []int:
		return convert[float32](x), nil
	case []int32:
		return convert[float32](x), nil
	case []int64:
		return convert[float32](x), nil
	case []any:
		out := make([]float32, len(x))
		for i, e := range x {
			col, err := columnOf(e)
			if err != nil || len(col) != 1 {
				return nil, fmt.Errorf("element %d: %T is not a number", i, e)
			}
			out[i] = col[0]
		}
		return out, nil
	case *frame.Frame:
		if x == nil {
			return nil, fmt.Errorf("nil frame")
		}
		return convert[float32](x.Rows()), nil
	case *tensor.Dense:
		if x == nil {
			return nil, fmt.Errorf("nil tensor")
		}
		return denseFloat32(x)
	default:
		return nil, fmt.Errorf("%T", v)
	}
}

// denseFloat32 returns the flattened elements of d as float32. Float32 data
// is returned without copying.
func denseFloat32(d *tensor.Dense) ([]float32, error) {
	// Data panics on arrays with no elements.
	if d.Shape().TotalSize() == 0 {
		return []float32{}, nil
	}
	if d.IsView() {
		if m, ok := d.Materialize().(*tensor.Dense); ok {
			d = m
		}
	}
	switch x := d.Data().(type) {
	case []float32:
		return x, nil
	case []float64:
		return convert[float32](x), nil
	case []int:
		return convert[float32](x), nil
	case []int32:
		return convert[float32](x), nil
	case []int64:
		return convert[float32](x), nil
	case float32:
		return []float32{x}, nil
	case float64:
		return []float32{float32(x)}, nil
	default:
		return nil, fmt.Errorf("%w: tensor dtype %v", ErrUnsupportedType, d.Dtype())
	}
}

type number interface {
	~float32 | ~float64 | ~int | ~int32 | ~int64
}

func convert[T, S number](src []S) []T {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	return out
}

// checkOutput validates the engine's first output against n rows and the
// output labels.
func checkOutput(outputs []*tensor.Dense, n int, labels Labels) (*tensor.Dense, error) {
	if len(outputs) == 0 || outputs[0] == nil {
		return nil, fmt.Errorf("%w: engine returned no output", ErrOutputShape)
	}
	out := outputs[0]
	shape := out.Shape()
	if out.Dims() != 2 || shape[0] != n || shape[1] != labels.Len() {
		return nil, fmt.Errorf("%w: got %v, want (%d, %d)", ErrOutputShape, []int(shape), n, labels.Len())
	}
	return out, nil
}

// outputColumns splits an (n, k) output into k columns.
func outputColumns(out *tensor.Dense, n, k int) ([][]float32, error) {
	data, err := denseFloat32(out)
	if err != nil {
		return nil, err
	}
	columns := make([][]float32, k)
	for c := range columns {
		columns[c] = make([]float32, n)
		for r := range n {
			columns[c][r] = data[r*k+c]
		}
	}
	return columns, nil
}

// emptyOutput shapes a zero-row result without running the engine.
func emptyOutput(rec Record, labels Labels) (Record, error) {
	k := labels.Len()
	switch r := rec.(type) {
	case Table:
		values := make([][]float64, k)
		for i := range values {
			values[i] = []float64{}
		}
		f, err := frame.New(labels.Names(), values, r.Frame.Index())
		if err != nil {
			return nil, err
		}
		return Table{Frame: f}, nil
	case Mapping:
		out := make(Mapping, k)
		for _, name := range labels.Names() {
			out[name] = []float32{}
		}
		return out, nil
	default:
		return Matrix{Dense: tensor.New(tensor.WithShape(0, k), tensor.WithBacking([]float32{}))}, nil
	}
}

func mappingOutput(out *tensor.Dense, n int, labels Labels) (Mapping, error) {
	columns, err := outputColumns(out, n, labels.Len())
	if err != nil {
		return nil, err
	}
	result := make(Mapping, labels.Len())
	for i, col := range columns {
		result[labels.At(i)] = col
	}
	return result, nil
}

func tableOutput(out *tensor.Dense, in *frame.Frame, labels Labels) (Table, error) {
	columns, err := outputColumns(out, in.Len(), labels.Len())
	if err != nil {
		return Table{}, err
	}
	values := make([][]float64, len(columns))
	for i, col := range columns {
		values[i] = convert[float64](col)
	}
	f, err := frame.New(labels.Names(), values, in.Index())
	if err != nil {
		return Table{}, err
	}
	return Table{Frame: f}, nil
}
