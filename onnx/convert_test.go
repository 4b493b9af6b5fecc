package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	runtime "github.com/lzoffoli-tg/checkupy/internal/tensor"
)

func TestFromDenseEmpty(t *testing.T) {
	tests := []struct {
		name  string
		dense *tensor.Dense
		want  runtime.DataType
	}{
		{"float32", tensor.New(tensor.WithShape(0, 2), tensor.WithBacking([]float32{})), runtime.Float32},
		{"float64", tensor.New(tensor.WithShape(0, 3), tensor.WithBacking([]float64{})), runtime.Float32},
		{"int64", tensor.New(tensor.WithShape(0, 2), tensor.WithBacking([]int64{})), runtime.Int64},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var (
				got *runtime.Tensor
				err error
			)
			require.NotPanics(t, func() { got, err = fromDense(tc.dense) })
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.DataType())
			assert.Equal(t, []int(tc.dense.Shape()), []int(got.Shape()))
			assert.Equal(t, 0, got.NumElements())
		})
	}
}

func TestToDenseEmpty(t *testing.T) {
	rt, err := runtime.FromFloat32(runtime.Shape{0, 1}, nil)
	require.NoError(t, err)

	d := toDense(rt)
	assert.Equal(t, []int{0, 1}, []int(d.Shape()))
	assert.Equal(t, tensor.Float32, d.Dtype())

	back, err := fromDense(d)
	require.NoError(t, err)
	assert.Equal(t, runtime.Shape{0, 1}, back.Shape())
}

func TestDenseRoundTrip(t *testing.T) {
	d := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]float64{1, 2, 3, 4}))

	rt, err := fromDense(d)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, rt.Float32())
	assert.Equal(t, []float32{1, 2, 3, 4}, toDense(rt).Data())
}
