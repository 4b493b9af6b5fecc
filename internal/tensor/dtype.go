// Package tensor provides the dense tensor type used by the ONNX runtime.
//
// Tensors are row-major and hold either float32 values (model activations and
// weights) or int64 values (shapes, indices and axes produced inside graphs).
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Int64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Int64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// element is the set of Go types a tensor can store.
type element interface {
	~float32 | ~int64
}
