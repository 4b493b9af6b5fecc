package onnx

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lzoffoli-tg/checkupy/internal/onnx/onnxtest"
)

func TestParseSumModel(t *testing.T) {
	model, err := Parse(onnxtest.SumModel().Metadata("author", "lab").Bytes())
	require.NoError(t, err)

	assert.Equal(t, int64(8), model.IRVersion)
	assert.Equal(t, "onnxtest", model.ProducerName)
	require.Len(t, model.OpsetImport, 1)
	assert.Equal(t, int64(13), model.OpsetImport[0].Version)
	assert.Equal(t, []StringStringEntry{{Key: "author", Value: "lab"}}, model.MetadataProps)

	require.NotNil(t, model.Graph)
	require.Len(t, model.Graph.Nodes, 1)
	node := model.Graph.Nodes[0]
	assert.Equal(t, "MatMul", node.OpType)
	assert.Equal(t, []string{"x", "w"}, node.Inputs)
	assert.Equal(t, []string{"y"}, node.Outputs)
}

func TestParseInitializer(t *testing.T) {
	model, err := Parse(onnxtest.SumModel().Bytes())
	require.NoError(t, err)

	require.Len(t, model.Graph.Initializers, 1)
	init := model.Graph.Initializers[0]
	assert.Equal(t, "w", init.Name)
	assert.Equal(t, int32(TensorProtoFloat), init.DataType)
	assert.Equal(t, []int64{2, 1}, init.Dims)
	assert.Len(t, init.RawData, 8)
}

func TestParseInputOutput(t *testing.T) {
	model, err := Parse(onnxtest.SumModel().Bytes())
	require.NoError(t, err)

	require.Len(t, model.Graph.Inputs, 1)
	require.Len(t, model.Graph.Outputs, 1)

	input := model.Graph.Inputs[0]
	assert.Equal(t, "x", input.Name)
	require.NotNil(t, input.Type)
	require.NotNil(t, input.Type.TensorType)
	assert.Equal(t, int32(TensorProtoFloat), input.Type.TensorType.ElemType)
	require.NotNil(t, input.Type.TensorType.Shape)
	assert.Equal(t, []DimensionProto{{DimParam: "N"}, {DimValue: 2}}, input.Type.TensorType.Shape.Dims)
}

func TestParseAttributes(t *testing.T) {
	data := onnxtest.NewBuilder(13).
		Input("x", 1, 4).
		Output("y", 1, 4).
		Node("Gemm", []string{"x", "w"}, []string{"y"},
			onnxtest.FloatAttr("alpha", 0.5),
			onnxtest.IntAttr("transB", 1),
			onnxtest.IntsAttr("perm", 1, 0),
			onnxtest.FloatsAttr("scale", 1, 2),
			onnxtest.StringAttr("mode", "fast"),
			onnxtest.TensorAttr("value", []int64{2}, []float32{3, 4}),
		).
		Bytes()

	model, err := Parse(data)
	require.NoError(t, err)

	attrs := model.Graph.Nodes[0].Attributes
	require.Len(t, attrs, 6)
	assert.Equal(t, float32(0.5), attrs[0].F)
	assert.Equal(t, int32(AttributeProtoFloat), attrs[0].Type)
	assert.Equal(t, int64(1), attrs[1].I)
	assert.Equal(t, []int64{1, 0}, attrs[2].Ints)
	assert.Equal(t, []float32{1, 2}, attrs[3].Floats)
	assert.Equal(t, "fast", string(attrs[4].S))
	require.NotNil(t, attrs[5].T)
	assert.Equal(t, []int64{2}, attrs[5].T.Dims)
}

func TestParseNegativeInt(t *testing.T) {
	data := onnxtest.NewBuilder(13).
		Input("x", 2).
		Output("y", 2).
		Node("Softmax", []string{"x"}, []string{"y"}, onnxtest.IntAttr("axis", -1)).
		Bytes()

	model, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), model.Graph.Nodes[0].Attributes[0].I)
}

func TestParsePackedAndUnpackedFloats(t *testing.T) {
	// float_data written once unpacked, then packed.
	var b []byte
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, TensorProtoFloat)
	b = protowire.AppendTag(b, 4, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, math.Float32bits(1))
	var packed []byte
	packed = protowire.AppendFixed32(packed, math.Float32bits(2))
	packed = protowire.AppendFixed32(packed, math.Float32bits(3))
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	tp, err := readTensor(b)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, tp.FloatData)
}

func TestParseTruncated(t *testing.T) {
	data := onnxtest.SumModel().Bytes()

	_, err := Parse(data[:len(data)-3])
	assert.Error(t, err)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.onnx"))
	assert.ErrorContains(t, err, "failed to read file")
}
