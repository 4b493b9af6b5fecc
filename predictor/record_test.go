package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/lzoffoli-tg/checkupy/frame"
)

func TestNewRecord(t *testing.T) {
	dense := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]float32{1, 2}))
	f, err := frame.New([]string{"a"}, [][]float64{{1}}, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		data any
		want any
	}{
		{"matrix passes through", Matrix{Dense: dense}, Matrix{}},
		{"dense", dense, Matrix{}},
		{"rows float64", [][]float64{{1, 2}, {3, 4}}, Matrix{}},
		{"rows float32", [][]float32{{1, 2}}, Matrix{}},
		{"frame", f, Table{}},
		{"table passes through", Table{Frame: f}, Table{}},
		{"map any", map[string]any{"a": 1.0}, Mapping{}},
		{"mapping passes through", Mapping{"a": 1.0}, Mapping{}},
		{"map slices", map[string][]float64{"a": {1}}, Mapping{}},
		{"map float32 slices", map[string][]float32{"a": {1}}, Mapping{}},
		{"map scalars", map[string]float64{"a": 1}, Mapping{}},
		{"map int slices", map[string][]int{"a": {1}}, Mapping{}},
		{"map int64 slices", map[string][]int64{"a": {1}}, Mapping{}},
		{"map int scalars", map[string]int{"a": 1}, Mapping{}},
		{"map int64 scalars", map[string]int64{"a": 1}, Mapping{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := NewRecord(tc.data)
			require.NoError(t, err)
			assert.IsType(t, tc.want, rec)
		})
	}
}

func TestNewRecordRows(t *testing.T) {
	rec, err := NewRecord([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	m := rec.(Matrix)
	assert.Equal(t, []int{3, 2}, []int(m.Dense.Shape()))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, m.Dense.Data())
}

func TestNewRecordShapeErrors(t *testing.T) {
	_, err := NewRecord([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewRecord([][]float64{})
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewRecord([][]float32{{}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestNewRecordUnsupported(t *testing.T) {
	for _, data := range []any{
		nil,
		42,
		3.5,
		"abc",
		[]float64{1, 2},
		map[int]float64{1: 1},
		Matrix{},
		Table{},
		(*frame.Frame)(nil),
	} {
		_, err := NewRecord(data)
		assert.ErrorIs(t, err, ErrUnsupportedType, "%T", data)
	}
}
