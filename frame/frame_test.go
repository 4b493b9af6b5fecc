package frame

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	f, err := New([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}}, []any{"r1", "r2"})
	require.NoError(t, err)

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"a", "b"}, f.Columns())
	assert.Equal(t, []any{"r1", "r2"}, f.Index())

	col, ok := f.Column("b")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, col)

	_, ok = f.Column("z")
	assert.False(t, ok)
}

func TestNewDefaultIndex(t *testing.T) {
	f, err := New([]string{"a"}, [][]float64{{5, 6, 7}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{0, 1, 2}, f.Index())
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		values  [][]float64
		index   []any
	}{
		{"names vs columns", []string{"a"}, nil, nil},
		{"ragged", []string{"a", "b"}, [][]float64{{1}, {1, 2}}, nil},
		{"duplicate", []string{"a", "a"}, [][]float64{{1}, {2}}, nil},
		{"empty name", []string{""}, [][]float64{{1}}, nil},
		{"index length", []string{"a"}, [][]float64{{1, 2}}, []any{0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.columns, tc.values, tc.index)
			assert.Error(t, err)
		})
	}
}

func TestFrameIsImmutable(t *testing.T) {
	values := [][]float64{{1, 2}}
	f, err := New([]string{"a"}, values, nil)
	require.NoError(t, err)

	values[0][0] = 99
	col, _ := f.Column("a")
	col[1] = 99

	again, _ := f.Column("a")
	assert.Equal(t, []float64{1, 2}, again)
}

func TestHasColumnsAndSelect(t *testing.T) {
	f, err := New([]string{"a", "b", "c"}, [][]float64{{1, 2}, {3, 4}, {5, 6}}, []any{10, 11})
	require.NoError(t, err)

	assert.Empty(t, f.HasColumns("c", "a"))
	assert.Equal(t, []string{"x", "y"}, f.HasColumns("a", "x", "y"))

	sel, err := f.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.Columns())
	assert.Equal(t, []any{10, 11}, sel.Index())
	assert.Equal(t, []float64{5, 1, 6, 2}, sel.Rows())

	_, err = f.Select("a", "x")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestReadCSV(t *testing.T) {
	in := "id,a,b\n7,1.5,2\n8,,-3\n"

	f, err := ReadCSV(strings.NewReader(in), "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, f.Columns())
	assert.Equal(t, []any{int64(7), int64(8)}, f.Index())

	a, _ := f.Column("a")
	assert.Equal(t, 1.5, a[0])
	assert.True(t, math.IsNaN(a[1]))
}

func TestReadCSVWithoutIndex(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), "")
	require.NoError(t, err)
	assert.Equal(t, []any{0}, f.Index())
	assert.Equal(t, []float64{1, 2}, f.Rows())
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "")
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a\n1\n"), "id")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = ReadCSV(strings.NewReader("a\nfoo\n"), "")
	assert.ErrorContains(t, err, `line 2, column "a"`)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	f, err := New([]string{"x"}, [][]float64{{4, 6.5}}, []any{"r1", "r2"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf, "id"))
	assert.Equal(t, "id,x\nr1,4\nr2,6.5\n", buf.String())

	back, err := ReadCSV(&buf, "id")
	require.NoError(t, err)
	assert.Equal(t, f.Index(), back.Index())
	assert.Equal(t, f.Rows(), back.Rows())
}
