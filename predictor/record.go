package predictor

import (
	"fmt"

	"gorgonia.org/tensor"

	"github.com/lzoffoli-tg/checkupy/frame"
)

// Record is the caller data accepted and returned by Predict. It has exactly
// three implementations: Matrix, Table and Mapping.
type Record interface {
	record()
}

// Matrix is a 2-D array whose column i holds the i-th input label.
type Matrix struct {
	Dense *tensor.Dense
}

// Table is a row-indexed table. Columns are matched by name; the index is
// carried over to the prediction.
type Table struct {
	Frame *frame.Frame
}

// Mapping maps each label to a scalar, a 1-D numeric slice, or a column-like
// value (*frame.Frame or *tensor.Dense). Predictions come back as []float32.
type Mapping map[string]any

func (Matrix) record()  {}
func (Table) record()   {}
func (Mapping) record() {}

// NewRecord resolves caller data into a Record. Records pass through;
// *tensor.Dense and [][]float64 / [][]float32 become a Matrix; *frame.Frame
// becomes a Table; string-keyed maps become a Mapping.
func NewRecord(data any) (Record, error) {
	switch v := data.(type) {
	case Matrix:
		if v.Dense == nil {
			return nil, fmt.Errorf("%w: nil matrix", ErrUnsupportedType)
		}
		return v, nil
	case Table:
		if v.Frame == nil {
			return nil, fmt.Errorf("%w: nil table", ErrUnsupportedType)
		}
		return v, nil
	case Mapping:
		return v, nil
	case *tensor.Dense:
		if v == nil {
			return nil, fmt.Errorf("%w: nil matrix", ErrUnsupportedType)
		}
		return Matrix{Dense: v}, nil
	case *frame.Frame:
		if v == nil {
			return nil, fmt.Errorf("%w: nil table", ErrUnsupportedType)
		}
		return Table{Frame: v}, nil
	case map[string]any:
		return Mapping(v), nil
	case map[string][]float64:
		return mappingOf(v), nil
	case map[string][]float32:
		return mappingOf(v), nil
	case map[string][]int:
		return mappingOf(v), nil
	case map[string][]int64:
		return mappingOf(v), nil
	case map[string]float64:
		return mappingOf(v), nil
	case map[string]float32:
		return mappingOf(v), nil
	case map[string]int:
		return mappingOf(v), nil
	case map[string]int64:
		return mappingOf(v), nil
	case [][]float64:
		return matrixFromRows(v)
	case [][]float32:
		return matrixFromRows(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, data)
	}
}

func mappingOf[V any](m map[string]V) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// matrixFromRows packs row slices into an (N, k) float32 matrix.
func matrixFromRows[T float32 | float64](rows [][]T) (Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: matrix has no rows", ErrShape)
	}
	width := len(rows[0])
	data := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, row 0 has %d", ErrShape, i, len(row), width)
		}
		for _, v := range row {
			data = append(data, float32(v))
		}
	}
	if width == 0 {
		return nil, fmt.Errorf("%w: matrix has no columns", ErrShape)
	}
	return Matrix{Dense: tensor.New(tensor.WithShape(len(rows), width), tensor.WithBacking(data))}, nil
}
