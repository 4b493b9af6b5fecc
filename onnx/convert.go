package onnx

import (
	"fmt"

	"gorgonia.org/tensor"

	runtime "github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// fromDense copies a gorgonia array into a runtime tensor. Floating data
// becomes float32; integer data becomes int64.
func fromDense(d *tensor.Dense) (*runtime.Tensor, error) {
	if d == nil {
		return nil, fmt.Errorf("nil tensor")
	}
	if d.IsView() {
		if m, ok := d.Materialize().(*tensor.Dense); ok {
			d = m
		}
	}

	var shape runtime.Shape
	if !d.IsScalar() {
		shape = runtime.Shape(append([]int(nil), d.Shape()...))
	}
	// Data panics on arrays with no elements.
	if d.Shape().TotalSize() == 0 {
		return emptyTensor(shape, d.Dtype())
	}

	switch v := d.Data().(type) {
	case []float32:
		return runtime.FromFloat32(shape, append([]float32(nil), v...))
	case []float64:
		return runtime.FromFloat32(shape, convertSlice[float32](v))
	case []int64:
		return runtime.FromInt64(shape, append([]int64(nil), v...))
	case []int:
		return runtime.FromInt64(shape, convertSlice[int64](v))
	case []int32:
		return runtime.FromInt64(shape, convertSlice[int64](v))
	case float32:
		return runtime.FromFloat32(shape, []float32{v})
	case float64:
		return runtime.FromFloat32(shape, []float32{float32(v)})
	case int64:
		return runtime.FromInt64(shape, []int64{v})
	case int:
		return runtime.FromInt64(shape, []int64{int64(v)})
	default:
		return nil, fmt.Errorf("unsupported dtype %v", d.Dtype())
	}
}

func emptyTensor(shape runtime.Shape, dt tensor.Dtype) (*runtime.Tensor, error) {
	switch dt {
	case tensor.Float32, tensor.Float64:
		return runtime.FromFloat32(shape, []float32{})
	case tensor.Int, tensor.Int32, tensor.Int64:
		return runtime.FromInt64(shape, []int64{})
	default:
		return nil, fmt.Errorf("unsupported dtype %v", dt)
	}
}

// toDense wraps a runtime tensor's data in a gorgonia array without copying.
func toDense(t *runtime.Tensor) *tensor.Dense {
	shape := t.Shape()
	if len(shape) == 0 {
		if t.DataType() == runtime.Int64 {
			return tensor.New(tensor.FromScalar(t.Int64()[0]))
		}
		return tensor.New(tensor.FromScalar(t.Float32()[0]))
	}
	if t.DataType() == runtime.Int64 {
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(nonNil(t.Int64())))
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(nonNil(t.Float32())))
}

// nonNil keeps the element type of an empty backing slice.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type number interface {
	~float32 | ~float64 | ~int | ~int32 | ~int64
}

func convertSlice[T, S number](src []S) []T {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	return out
}
