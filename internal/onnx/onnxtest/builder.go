// Package onnxtest builds ONNX model bytes in memory for tests.
//
// Messages are encoded field by field with protowire, so fixtures need no
// generated onnx.proto code and no model files checked into the repository.
package onnxtest

import (
	"encoding/binary"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ONNX element types used by the builder.
const (
	Float = 1
	Int64 = 7
)

// Builder accumulates the parts of a single-graph model.
type Builder struct {
	opset    int64
	mlOpset  int64
	producer string
	nodes    [][]byte
	inits    [][]byte
	inputs   [][]byte
	outputs  [][]byte
	meta     [][]byte
}

// NewBuilder starts a model importing the default domain at opset.
func NewBuilder(opset int64) *Builder {
	return &Builder{opset: opset, producer: "onnxtest"}
}

// MLOpset adds an ai.onnx.ml opset import.
func (b *Builder) MLOpset(version int64) *Builder {
	b.mlOpset = version
	return b
}

// Producer sets producer_name.
func (b *Builder) Producer(name string) *Builder {
	b.producer = name
	return b
}

// Metadata adds a metadata_props entry.
func (b *Builder) Metadata(key, value string) *Builder {
	var e []byte
	e = appendString(e, 1, key)
	e = appendString(e, 2, value)
	b.meta = append(b.meta, e)
	return b
}

// Input declares a float graph input. A negative dim is written as the
// symbolic dimension "N".
func (b *Builder) Input(name string, dims ...int64) *Builder {
	b.inputs = append(b.inputs, valueInfo(name, Float, dims))
	return b
}

// Output declares a float graph output.
func (b *Builder) Output(name string, dims ...int64) *Builder {
	b.outputs = append(b.outputs, valueInfo(name, Float, dims))
	return b
}

// Initializer adds a float32 weight stored as raw_data.
func (b *Builder) Initializer(name string, dims []int64, data []float32) *Builder {
	b.inits = append(b.inits, FloatTensor(name, dims, data))
	return b
}

// Int64Initializer adds an int64 weight stored as raw_data.
func (b *Builder) Int64Initializer(name string, dims []int64, data []int64) *Builder {
	b.inits = append(b.inits, Int64Tensor(name, dims, data))
	return b
}

// Node adds a node. Domain is taken from the first DomainAttr, if any.
func (b *Builder) Node(opType string, inputs, outputs []string, attrs ...Attr) *Builder {
	var n []byte
	for _, in := range inputs {
		n = appendString(n, 1, in)
	}
	for _, out := range outputs {
		n = appendString(n, 2, out)
	}
	n = appendString(n, 3, opType+"_"+outputs[0])
	n = appendString(n, 4, opType)
	for _, a := range attrs {
		if a.domain != "" {
			n = appendString(n, 7, a.domain)
			continue
		}
		n = appendMessage(n, 5, a.raw)
	}
	b.nodes = append(b.nodes, n)
	return b
}

// Bytes encodes the ModelProto.
func (b *Builder) Bytes() []byte {
	var g []byte
	for _, n := range b.nodes {
		g = appendMessage(g, 1, n)
	}
	g = appendString(g, 2, "graph")
	for _, t := range b.inits {
		g = appendMessage(g, 5, t)
	}
	for _, vi := range b.inputs {
		g = appendMessage(g, 11, vi)
	}
	for _, vi := range b.outputs {
		g = appendMessage(g, 12, vi)
	}

	var m []byte
	m = appendVarint(m, 1, 8) // ir_version
	m = appendString(m, 2, b.producer)
	m = appendString(m, 3, "1.0")
	m = appendMessage(m, 7, g)
	m = appendMessage(m, 8, opsetID("", b.opset))
	if b.mlOpset > 0 {
		m = appendMessage(m, 8, opsetID("ai.onnx.ml", b.mlOpset))
	}
	for _, e := range b.meta {
		m = appendMessage(m, 14, e)
	}
	return m
}

// WriteFile writes the encoded model to path.
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o600)
}

// SumModel computes y = x @ [[1],[1]], the sum of the two columns of an
// (N, 2) input named "x", as an (N, 1) output named "y".
func SumModel() *Builder {
	return NewBuilder(13).
		Input("x", -1, 2).
		Output("y", -1, 1).
		Initializer("w", []int64{2, 1}, []float32{1, 1}).
		Node("MatMul", []string{"x", "w"}, []string{"y"})
}

// Attr is an encoded AttributeProto.
type Attr struct {
	raw    []byte
	domain string
}

// Domain marks the node's operator domain.
func Domain(name string) Attr {
	return Attr{domain: name}
}

// IntAttr encodes an INT attribute.
func IntAttr(name string, v int64) Attr {
	a := appendString(nil, 1, name)
	a = appendVarint(a, 3, uint64(v)) //nolint:gosec // G115: two's complement varint.
	a = appendVarint(a, 20, 2)
	return Attr{raw: a}
}

// FloatAttr encodes a FLOAT attribute.
func FloatAttr(name string, v float32) Attr {
	a := appendString(nil, 1, name)
	a = protowire.AppendTag(a, 2, protowire.Fixed32Type)
	a = protowire.AppendFixed32(a, math.Float32bits(v))
	a = appendVarint(a, 20, 1)
	return Attr{raw: a}
}

// StringAttr encodes a STRING attribute.
func StringAttr(name, v string) Attr {
	a := appendString(nil, 1, name)
	a = appendString(a, 4, v)
	a = appendVarint(a, 20, 3)
	return Attr{raw: a}
}

// FloatsAttr encodes a packed FLOATS attribute.
func FloatsAttr(name string, vs ...float32) Attr {
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	a := appendString(nil, 1, name)
	a = appendMessage(a, 7, packed)
	a = appendVarint(a, 20, 6)
	return Attr{raw: a}
}

// IntsAttr encodes INTS as unpacked repeated varints.
func IntsAttr(name string, vs ...int64) Attr {
	a := appendString(nil, 1, name)
	for _, v := range vs {
		a = appendVarint(a, 8, uint64(v)) //nolint:gosec // G115: two's complement varint.
	}
	a = appendVarint(a, 20, 7)
	return Attr{raw: a}
}

// TensorAttr encodes a TENSOR attribute holding a float32 tensor.
func TensorAttr(name string, dims []int64, data []float32) Attr {
	a := appendString(nil, 1, name)
	a = appendMessage(a, 5, FloatTensor("", dims, data))
	a = appendVarint(a, 20, 4)
	return Attr{raw: a}
}

// FloatTensor encodes a float32 TensorProto with raw_data.
func FloatTensor(name string, dims []int64, data []float32) []byte {
	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return tensorProto(name, Float, dims, raw)
}

// Int64Tensor encodes an int64 TensorProto with raw_data.
func Int64Tensor(name string, dims []int64, data []int64) []byte {
	raw := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(v)) //nolint:gosec // G115: two's complement.
	}
	return tensorProto(name, Int64, dims, raw)
}

func tensorProto(name string, dataType uint64, dims []int64, raw []byte) []byte {
	var packed []byte
	for _, d := range dims {
		packed = protowire.AppendVarint(packed, uint64(d)) //nolint:gosec // G115: dims are non-negative.
	}
	var t []byte
	if len(dims) > 0 {
		t = appendMessage(t, 1, packed)
	}
	t = appendVarint(t, 2, dataType)
	if name != "" {
		t = appendString(t, 8, name)
	}
	return appendMessage(t, 9, raw)
}

func valueInfo(name string, elemType uint64, dims []int64) []byte {
	var shape []byte
	for _, d := range dims {
		var dim []byte
		if d < 0 {
			dim = appendString(dim, 2, "N")
		} else {
			dim = appendVarint(dim, 1, uint64(d))
		}
		shape = appendMessage(shape, 1, dim)
	}
	var tt []byte
	tt = appendVarint(tt, 1, elemType)
	tt = appendMessage(tt, 2, shape)

	vi := appendString(nil, 1, name)
	return appendMessage(vi, 2, appendMessage(nil, 1, tt))
}

func opsetID(domain string, version int64) []byte {
	var o []byte
	if domain != "" {
		o = appendString(o, 1, domain)
	}
	return appendVarint(o, 2, uint64(version)) //nolint:gosec // G115: opset versions are positive.
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}
