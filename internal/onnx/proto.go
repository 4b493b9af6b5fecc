package onnx

// Decoded onnx.proto messages. Fields the runtime never reads are skipped
// by the parser and have no counterpart here.

// ModelProto is a decoded ModelProto.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string // e.g. "skl2onnx", "pytorch"
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto holds the nodes and the named values flowing between them.
// Older exporters list initializers among Inputs as well.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
	DocString    string
	ValueInfo    []ValueInfoProto
}

// NodeProto is one operator application. An empty input name marks an
// omitted optional input.
type NodeProto struct {
	Name       string
	OpType     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	Domain     string
	DocString  string
}

// TensorProto carries tensor data either in RawData (little-endian) or in
// one of the typed repeated fields.
type TensorProto struct {
	Name       string
	DataType   int32
	Dims       []int64
	RawData    []byte
	FloatData  []float32
	Int32Data  []int32 // also int8, uint8, bool and float16 bits
	Int64Data  []int64
	DoubleData []float64
	DocString  string
}

// ValueInfoProto names a graph value and its type.
type ValueInfoProto struct {
	Name      string
	Type      *TypeProto
	DocString string
}

// TypeProto keeps only the tensor_type branch of the oneof.
type TypeProto struct {
	TensorType *TensorTypeProto
}

type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto // nil when the exporter left the rank unknown
}

type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is either a fixed size or a symbolic name like "N".
type DimensionProto struct {
	DimValue int64
	DimParam string
}

type AttributeProto struct {
	Name      string
	Type      int32
	F         float32
	I         int64
	S         []byte
	T         *TensorProto
	Floats    []float32
	Ints      []int64
	Strings   [][]byte
	Tensors   []TensorProto
	DocString string
}

// OperatorSetID pins the opset version of one operator domain.
type OperatorSetID struct {
	Domain  string
	Version int64
}

type StringStringEntry struct {
	Key   string
	Value string
}

// TensorProto.DataType values handled by the runtime.
const (
	TensorProtoFloat   = 1
	TensorProtoUint8   = 2
	TensorProtoInt8    = 3
	TensorProtoInt32   = 6
	TensorProtoInt64   = 7
	TensorProtoString  = 8
	TensorProtoBool    = 9
	TensorProtoFloat16 = 10
	TensorProtoDouble  = 11
)

// AttributeProto.Type values.
const (
	AttributeProtoFloat   = 1
	AttributeProtoInt     = 2
	AttributeProtoString  = 3
	AttributeProtoTensor  = 4
	AttributeProtoFloats  = 6
	AttributeProtoInts    = 7
	AttributeProtoStrings = 8
)

// Operator domains.
const (
	DomainDefault = ""
	DomainONNX    = "ai.onnx"
	DomainML      = "ai.onnx.ml"
)
