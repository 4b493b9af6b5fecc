package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense row-major tensor.
// Exactly one of the backing slices is populated, matching dtype.
type Tensor struct {
	dtype DataType
	shape Shape
	f32   []float32
	i64   []int64
}

// New creates a zero-filled tensor.
func New(dtype DataType, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	t := &Tensor{dtype: dtype, shape: shape.Clone()}
	switch dtype {
	case Float32:
		t.f32 = make([]float32, shape.NumElements())
	case Int64:
		t.i64 = make([]int64, shape.NumElements())
	default:
		return nil, fmt.Errorf("unsupported data type: %d", dtype)
	}
	return t, nil
}

// FromFloat32 wraps data as a float32 tensor. The slice is not copied.
func FromFloat32(shape Shape, data []float32) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}
	return &Tensor{dtype: Float32, shape: shape.Clone(), f32: data}, nil
}

// FromInt64 wraps data as an int64 tensor. The slice is not copied.
func FromInt64(shape Shape, data []int64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}
	return &Tensor{dtype: Int64, shape: shape.Clone(), i64: data}, nil
}

// DataType returns the element type.
func (t *Tensor) DataType() DataType {
	return t.dtype
}

// Shape returns a copy of the tensor dimensions.
func (t *Tensor) Shape() Shape {
	return t.shape.Clone()
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the number of stored elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Float32 returns the backing float32 slice, or nil for int64 tensors.
func (t *Tensor) Float32() []float32 {
	return t.f32
}

// Int64 returns the backing int64 slice, or nil for float32 tensors.
func (t *Tensor) Int64() []int64 {
	return t.i64
}

// Ints returns the elements as ints, converting from either data type.
// Used for shape, axes and index tensors.
func (t *Tensor) Ints() []int {
	out := make([]int, t.NumElements())
	switch t.dtype {
	case Int64:
		for i, v := range t.i64 {
			out[i] = int(v)
		}
	case Float32:
		for i, v := range t.f32 {
			out[i] = int(v)
		}
	}
	return out
}

// Reshape returns a tensor sharing t's data with a new shape.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("cannot reshape %v (%d elements) to %v (%d elements)",
			t.shape, t.NumElements(), shape, shape.NumElements())
	}
	return &Tensor{dtype: t.dtype, shape: shape.Clone(), f32: t.f32, i64: t.i64}, nil
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{dtype: t.dtype, shape: t.shape.Clone()}
	if t.f32 != nil {
		c.f32 = append([]float32(nil), t.f32...)
	}
	if t.i64 != nil {
		c.i64 = append([]int64(nil), t.i64...)
	}
	return c
}

// Cast converts the tensor to dtype. Float to integer conversion truncates
// toward zero. Casting to the same type returns t.
func (t *Tensor) Cast(dtype DataType) (*Tensor, error) {
	if dtype == t.dtype {
		return t, nil
	}
	out, err := New(dtype, t.shape)
	if err != nil {
		return nil, err
	}
	switch {
	case t.dtype == Float32 && dtype == Int64:
		for i, v := range t.f32 {
			out.i64[i] = int64(math.Trunc(float64(v)))
		}
	case t.dtype == Int64 && dtype == Float32:
		for i, v := range t.i64 {
			out.f32[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("cast from %s to %s not supported", t.dtype, dtype)
	}
	return out, nil
}

// String returns a short description.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(%s, %v)", t.dtype, t.shape)
}
