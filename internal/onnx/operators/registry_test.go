package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

func f32(t *testing.T, shape tensor.Shape, data ...float32) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromFloat32(shape, data)
	require.NoError(t, err)
	return out
}

func i64(t *testing.T, shape tensor.Shape, data ...int64) *tensor.Tensor {
	t.Helper()
	out, err := tensor.FromInt64(shape, data)
	require.NoError(t, err)
	return out
}

func run(t *testing.T, node *Node, inputs ...*tensor.Tensor) *tensor.Tensor {
	t.Helper()
	outs, err := NewRegistry().Execute(&Context{Opset: 17}, node, inputs)
	require.NoError(t, err)
	require.NotEmpty(t, outs)
	return outs[0]
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	essentialOps := []string{
		"Add", "Sub", "Mul", "Div", "Pow", "MatMul", "Gemm",
		"Relu", "Sigmoid", "Tanh", "Softmax",
		"Reshape", "Transpose", "Flatten",
		"Identity", "Dropout", "Cast",
		"Scaler", "LinearRegressor",
	}
	for _, op := range essentialOps {
		_, ok := r.Get(op)
		assert.True(t, ok, "operator %s should be registered", op)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("UnknownOp")
	assert.False(t, ok)

	_, err := r.Execute(&Context{}, &Node{OpType: "UnknownOp"}, nil)
	assert.ErrorContains(t, err, "unsupported operator: UnknownOp")
}

func TestSupportedOpsSorted(t *testing.T) {
	ops := NewRegistry().SupportedOps()

	assert.GreaterOrEqual(t, len(ops), 35)
	assert.IsIncreasing(t, ops)
}

func TestRegisterCustomOp(t *testing.T) {
	r := NewRegistry()
	r.Register("MyCustomOp", func(_ *Context, _ *Node, _ []*tensor.Tensor) ([]*tensor.Tensor, error) {
		return nil, nil
	})

	_, ok := r.Get("MyCustomOp")
	assert.True(t, ok)
}

func TestWrongInputCount(t *testing.T) {
	a := f32(t, tensor.Shape{1}, 1)

	_, err := NewRegistry().Execute(&Context{}, &Node{OpType: "Add"}, []*tensor.Tensor{a})
	assert.ErrorContains(t, err, "Add requires 2 inputs, got 1")
}

func TestGemmAttributes(t *testing.T) {
	node := &Node{
		OpType: "Gemm",
		Attributes: []Attribute{
			{Name: "transB", I: 1},
			{Name: "beta", F: 2},
		},
	}
	a := f32(t, tensor.Shape{1, 2}, 1, 2)
	b := f32(t, tensor.Shape{2, 2}, 1, 0, 0, 1)
	c := f32(t, tensor.Shape{2}, 1, 1)

	out := run(t, node, a, b, c)
	assert.Equal(t, []float32{3, 4}, out.Float32())
}

func TestActivations(t *testing.T) {
	x := f32(t, tensor.Shape{3}, -2, 0, 3)

	assert.Equal(t, []float32{0, 0, 3}, run(t, &Node{OpType: "Relu"}, x).Float32())
	assert.InDeltaSlice(t, []float32{-0.2, 0, 3},
		run(t, &Node{OpType: "LeakyRelu", Attributes: []Attribute{{Name: "alpha", F: 0.1}}}, x).Float32(), 1e-6)
	assert.InDeltaSlice(t, []float32{0.1192029, 0.5, 0.9525741},
		run(t, &Node{OpType: "Sigmoid"}, x).Float32(), 1e-6)
	assert.Equal(t, []float32{-1, 0, 1},
		run(t, &Node{OpType: "Clip"}, x, f32(t, tensor.Shape{}, -1), f32(t, tensor.Shape{}, 1)).Float32())
}

func TestSoftmaxDefaultAxis(t *testing.T) {
	x := f32(t, tensor.Shape{2, 2}, 1, 1, 0, 0)

	out := run(t, &Node{OpType: "Softmax"}, x)
	assert.InDeltaSlice(t, []float32{0.5, 0.5, 0.5, 0.5}, out.Float32(), 1e-6)
}

func TestReshapeMarkers(t *testing.T) {
	x := f32(t, tensor.Shape{2, 3, 4}, make([]float32, 24)...)

	out := run(t, &Node{OpType: "Reshape"}, x, i64(t, tensor.Shape{2}, 0, -1))
	assert.Equal(t, tensor.Shape{2, 12}, out.Shape())

	_, err := NewRegistry().Execute(&Context{}, &Node{OpType: "Reshape"},
		[]*tensor.Tensor{x, i64(t, tensor.Shape{2}, -1, -1)})
	assert.Error(t, err)
}

func TestFlatten(t *testing.T) {
	x := f32(t, tensor.Shape{2, 3, 4}, make([]float32, 24)...)

	assert.Equal(t, tensor.Shape{2, 12}, run(t, &Node{OpType: "Flatten"}, x).Shape())
	assert.Equal(t, tensor.Shape{1, 24},
		run(t, &Node{OpType: "Flatten", Attributes: []Attribute{{Name: "axis", I: 0}}}, x).Shape())
}

func TestSqueezeUnsqueeze(t *testing.T) {
	x := f32(t, tensor.Shape{3}, 1, 2, 3)

	u := run(t, &Node{OpType: "Unsqueeze"}, x, i64(t, tensor.Shape{1}, -1))
	assert.Equal(t, tensor.Shape{3, 1}, u.Shape())

	s := run(t, &Node{OpType: "Squeeze", Attributes: []Attribute{{Name: "axes", Ints: []int64{1}}}}, u)
	assert.Equal(t, tensor.Shape{3}, s.Shape())

	_, err := NewRegistry().Execute(&Context{}, &Node{OpType: "Squeeze"},
		[]*tensor.Tensor{x, i64(t, tensor.Shape{1}, 0)})
	assert.Error(t, err)
}

func TestShapeGatherChain(t *testing.T) {
	x := f32(t, tensor.Shape{5, 7}, make([]float32, 35)...)

	shape := run(t, &Node{OpType: "Shape"}, x)
	assert.Equal(t, []int64{5, 7}, shape.Int64())

	dim := run(t, &Node{OpType: "Gather"}, shape, i64(t, tensor.Shape{}, 1))
	assert.Equal(t, []int64{7}, dim.Int64())
}

func TestConstantAndCast(t *testing.T) {
	value := f32(t, tensor.Shape{2}, 1.5, -2.5)
	c := run(t, &Node{OpType: "Constant", Attributes: []Attribute{{Name: "value", T: value}}})
	assert.Same(t, value, c)

	ints := run(t, &Node{OpType: "Cast", Attributes: []Attribute{{Name: "to", I: castInt64}}}, c)
	assert.Equal(t, []int64{1, -2}, ints.Int64())

	b := run(t, &Node{OpType: "Cast", Attributes: []Attribute{{Name: "to", I: castBool}}}, c)
	assert.Equal(t, []int64{1, 1}, b.Int64())

	_, err := NewRegistry().Execute(&Context{}, &Node{OpType: "Constant"}, nil)
	assert.Error(t, err)
}

func TestBatchNormalization(t *testing.T) {
	x := f32(t, tensor.Shape{1, 2}, 2, 4)
	scale := f32(t, tensor.Shape{2}, 1, 2)
	bias := f32(t, tensor.Shape{2}, 0, 1)
	mean := f32(t, tensor.Shape{2}, 1, 2)
	variance := f32(t, tensor.Shape{2}, 1, 4)

	out := run(t, &Node{OpType: "BatchNormalization", Attributes: []Attribute{{Name: "epsilon", F: 0}}},
		x, scale, bias, mean, variance)
	assert.InDeltaSlice(t, []float32{1, 3}, out.Float32(), 1e-6)
}

func TestScaler(t *testing.T) {
	node := &Node{
		OpType: "Scaler",
		Domain: "ai.onnx.ml",
		Attributes: []Attribute{
			{Name: "offset", Floats: []float32{1, 2}},
			{Name: "scale", Floats: []float32{0.5}},
		},
	}
	x := f32(t, tensor.Shape{2, 2}, 3, 4, 5, 6)

	out := run(t, node, x)
	assert.Equal(t, []float32{1, 1, 2, 2}, out.Float32())
}

func TestLinearRegressor(t *testing.T) {
	node := &Node{
		OpType: "LinearRegressor",
		Domain: "ai.onnx.ml",
		Attributes: []Attribute{
			{Name: "coefficients", Floats: []float32{1, 1}},
			{Name: "intercepts", Floats: []float32{0.5}},
		},
	}
	x := f32(t, tensor.Shape{2, 2}, 1, 3, 2, 4)

	out := run(t, node, x)
	assert.Equal(t, tensor.Shape{2, 1}, out.Shape())
	assert.Equal(t, []float32{4.5, 6.5}, out.Float32())

	node.Attributes[0].Floats = []float32{1, 1, 1}
	_, err := NewRegistry().Execute(&Context{}, node, []*tensor.Tensor{x})
	assert.Error(t, err)
}
