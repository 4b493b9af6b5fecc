package operators

import "github.com/lzoffoli-tg/checkupy/internal/tensor"

// Node is an ONNX operation node as seen by handlers. It mirrors the fields
// of onnx.NodeProto to avoid an import cycle between onnx and operators.
type Node struct {
	Name       string      // Node name (optional)
	OpType     string      // Operation type (e.g., "Gemm", "Relu")
	Inputs     []string    // Input value names
	Outputs    []string    // Output value names
	Attributes []Attribute // Operation attributes
	Domain     string      // Operator domain
}

// Attribute is a decoded node attribute. Tensor-valued attributes arrive
// already converted to runtime tensors.
type Attribute struct {
	Name    string
	Type    int32
	F       float32
	I       int64
	S       []byte
	T       *tensor.Tensor
	Floats  []float32
	Ints    []int64
	Strings [][]byte
}

func (n *Node) attr(name string) (*Attribute, bool) {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			return &n.Attributes[i], true
		}
	}
	return nil, false
}

// GetAttrInt returns an integer attribute or defaultVal.
func GetAttrInt(node *Node, name string, defaultVal int64) int64 {
	if a, ok := node.attr(name); ok {
		return a.I
	}
	return defaultVal
}

// GetAttrInts returns an integer array attribute, or nil.
func GetAttrInts(node *Node, name string) []int64 {
	if a, ok := node.attr(name); ok {
		return a.Ints
	}
	return nil
}

// GetAttrFloat returns a float attribute or defaultVal.
func GetAttrFloat(node *Node, name string, defaultVal float32) float32 {
	if a, ok := node.attr(name); ok {
		return a.F
	}
	return defaultVal
}

// GetAttrFloats returns a float array attribute, or nil.
func GetAttrFloats(node *Node, name string) []float32 {
	if a, ok := node.attr(name); ok {
		return a.Floats
	}
	return nil
}

// GetAttrString returns a string attribute or defaultVal.
func GetAttrString(node *Node, name, defaultVal string) string {
	if a, ok := node.attr(name); ok {
		return string(a.S)
	}
	return defaultVal
}

// toInts converts attribute integers to ints.
func toInts(v []int64) []int {
	if v == nil {
		return nil
	}
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}
