package onnx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/lzoffoli-tg/checkupy/internal/onnx/operators"
	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// Model represents a loaded ONNX model ready for inference.
// A Model is immutable after loading; each run keeps its own value table, so
// concurrent runs are safe.
type Model struct {
	proto        *ModelProto
	registry     *operators.Registry
	weights      map[string]*tensor.Tensor
	inputs       []ValueInfo
	outputs      []ValueInfo
	inputNames   []string
	outputNames  []string
	nodes        []*operators.Node
	opsetVersion int64
}

// ValueInfo describes a graph input or output.
type ValueInfo struct {
	Name     string
	ElemType int32
	// Shape holds static dims; symbolic or unknown dims are -1.
	// Nil when the graph declares no shape.
	Shape []int64
}

// InputNames returns the names of model inputs, initializers excluded.
func (m *Model) InputNames() []string {
	return m.inputNames
}

// OutputNames returns the names of model outputs in declared order.
func (m *Model) OutputNames() []string {
	return m.outputNames
}

// Inputs describes the model inputs.
func (m *Model) Inputs() []ValueInfo {
	return m.inputs
}

// Outputs describes the model outputs.
func (m *Model) Outputs() []ValueInfo {
	return m.outputs
}

// OpsetVersion returns the default-domain ONNX opset version.
func (m *Model) OpsetVersion() int64 {
	return m.opsetVersion
}

// Metadata returns model metadata as key-value pairs.
func (m *Model) Metadata() map[string]string {
	meta := make(map[string]string)
	for _, prop := range m.proto.MetadataProps {
		meta[prop.Key] = prop.Value
	}
	meta["producer_name"] = m.proto.ProducerName
	meta["producer_version"] = m.proto.ProducerVersion
	meta["domain"] = m.proto.Domain
	return meta
}

// Forward runs inference with a single input tensor.
// For models with multiple inputs, use Run or ForwardNamed.
func (m *Model) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(m.inputNames) != 1 {
		return nil, fmt.Errorf("model has %d inputs, use ForwardNamed", len(m.inputNames))
	}
	if len(m.outputNames) != 1 {
		return nil, fmt.Errorf("model has %d outputs, use Run", len(m.outputNames))
	}

	outputs, err := m.Run(map[string]*tensor.Tensor{m.inputNames[0]: input})
	if err != nil {
		return nil, err
	}
	return outputs[0], nil
}

// ForwardNamed runs inference with named inputs and returns outputs by name.
func (m *Model) ForwardNamed(inputs map[string]*tensor.Tensor) (map[string]*tensor.Tensor, error) {
	outputs, err := m.Run(inputs)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*tensor.Tensor, len(outputs))
	for i, name := range m.outputNames {
		result[name] = outputs[i]
	}
	return result, nil
}

// Run executes the graph and returns the outputs in OutputNames order.
func (m *Model) Run(inputs map[string]*tensor.Tensor) ([]*tensor.Tensor, error) {
	values := make(map[string]*tensor.Tensor, len(m.weights)+len(inputs)+len(m.nodes))
	for name, t := range m.weights {
		values[name] = t
	}
	for name, t := range inputs {
		values[name] = t
	}

	for _, name := range m.inputNames {
		if values[name] == nil {
			return nil, fmt.Errorf("missing input: %s", name)
		}
	}

	ctx := &operators.Context{Opset: m.opsetVersion}
	for _, node := range m.nodes {
		nodeInputs := make([]*tensor.Tensor, len(node.Inputs))
		for i, name := range node.Inputs {
			if name == "" {
				continue
			}
			t, ok := values[name]
			if !ok {
				return nil, fmt.Errorf("node %s: missing input %s", node.Name, name)
			}
			nodeInputs[i] = t
		}

		outputs, err := m.registry.Execute(ctx, node, nodeInputs)
		if err != nil {
			return nil, fmt.Errorf("node %s (%s): %w", node.Name, node.OpType, err)
		}

		for i, name := range node.Outputs {
			if i < len(outputs) && name != "" {
				values[name] = outputs[i]
			}
		}
	}

	result := make([]*tensor.Tensor, len(m.outputNames))
	for i, name := range m.outputNames {
		t, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing output: %s", name)
		}
		result[i] = t
	}
	return result, nil
}

// compile prepares the model for inference.
func (m *Model) compile() error {
	graph := m.proto.Graph
	if graph == nil {
		return fmt.Errorf("model has no graph")
	}

	m.weights = make(map[string]*tensor.Tensor, len(graph.Initializers))
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		t, err := tensorFromProto(init)
		if err != nil {
			return fmt.Errorf("failed to load initializer %s: %w", init.Name, err)
		}
		m.weights[init.Name] = t
	}

	// Inputs are graph inputs minus initializers.
	for i := range graph.Inputs {
		vi := &graph.Inputs[i]
		if _, ok := m.weights[vi.Name]; ok {
			continue
		}
		m.inputs = append(m.inputs, valueInfoFromProto(vi))
		m.inputNames = append(m.inputNames, vi.Name)
	}
	for i := range graph.Outputs {
		m.outputs = append(m.outputs, valueInfoFromProto(&graph.Outputs[i]))
		m.outputNames = append(m.outputNames, graph.Outputs[i].Name)
	}

	sorted, err := topologicalSort(graph.Nodes)
	if err != nil {
		return err
	}
	m.nodes = make([]*operators.Node, len(sorted))
	for i := range sorted {
		node, err := nodeProtoToOperatorNode(&sorted[i])
		if err != nil {
			return fmt.Errorf("node %s (%s): %w", sorted[i].Name, sorted[i].OpType, err)
		}
		m.nodes[i] = node
	}

	for _, opset := range m.proto.OpsetImport {
		if opset.Domain == DomainDefault || opset.Domain == DomainONNX {
			m.opsetVersion = opset.Version
			break
		}
	}

	return nil
}

func valueInfoFromProto(vi *ValueInfoProto) ValueInfo {
	info := ValueInfo{Name: vi.Name}
	if vi.Type == nil || vi.Type.TensorType == nil {
		return info
	}
	info.ElemType = vi.Type.TensorType.ElemType
	if shape := vi.Type.TensorType.Shape; shape != nil {
		info.Shape = make([]int64, len(shape.Dims))
		for i, d := range shape.Dims {
			if d.DimParam != "" || d.DimValue <= 0 {
				info.Shape[i] = -1
				continue
			}
			info.Shape[i] = d.DimValue
		}
	}
	return info
}

// tensorFromProto converts a TensorProto to a runtime tensor. Floating types
// become float32; integer and bool types become int64.
//
//nolint:gocyclo,cyclop // one branch per storage field and element type.
func tensorFromProto(proto *TensorProto) (*tensor.Tensor, error) {
	shape := make(tensor.Shape, len(proto.Dims))
	for i, dim := range proto.Dims {
		shape[i] = int(dim)
	}
	n := shape.NumElements()
	raw := proto.RawData

	switch proto.DataType {
	case TensorProtoFloat:
		data := make([]float32, n)
		switch {
		case len(raw) > 0:
			if len(raw) != 4*n {
				return nil, rawSizeError(proto, 4*n)
			}
			for i := range data {
				data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
			}
		case len(proto.FloatData) > 0:
			copy(data, proto.FloatData)
		}
		return tensor.FromFloat32(shape, data)

	case TensorProtoDouble:
		data := make([]float32, n)
		switch {
		case len(raw) > 0:
			if len(raw) != 8*n {
				return nil, rawSizeError(proto, 8*n)
			}
			for i := range data {
				data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])))
			}
		case len(proto.DoubleData) > 0:
			for i, v := range proto.DoubleData {
				data[i] = float32(v)
			}
		}
		return tensor.FromFloat32(shape, data)

	case TensorProtoFloat16:
		data := make([]float32, n)
		switch {
		case len(raw) > 0:
			if len(raw) != 2*n {
				return nil, rawSizeError(proto, 2*n)
			}
			for i := range data {
				data[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[2*i:])).Float32()
			}
		case len(proto.Int32Data) > 0:
			// Legacy storage keeps the 16-bit pattern in int32_data.
			for i, v := range proto.Int32Data {
				data[i] = float16.Frombits(uint16(v)).Float32() //nolint:gosec // G115: low 16 bits hold the value.
			}
		}
		return tensor.FromFloat32(shape, data)

	case TensorProtoInt64:
		data := make([]int64, n)
		switch {
		case len(raw) > 0:
			if len(raw) != 8*n {
				return nil, rawSizeError(proto, 8*n)
			}
			for i := range data {
				data[i] = int64(binary.LittleEndian.Uint64(raw[8*i:])) //nolint:gosec // G115: two's complement.
			}
		case len(proto.Int64Data) > 0:
			copy(data, proto.Int64Data)
		}
		return tensor.FromInt64(shape, data)

	case TensorProtoInt32:
		data := make([]int64, n)
		switch {
		case len(raw) > 0:
			if len(raw) != 4*n {
				return nil, rawSizeError(proto, 4*n)
			}
			for i := range data {
				data[i] = int64(int32(binary.LittleEndian.Uint32(raw[4*i:]))) //nolint:gosec // G115: two's complement.
			}
		case len(proto.Int32Data) > 0:
			for i, v := range proto.Int32Data {
				data[i] = int64(v)
			}
		}
		return tensor.FromInt64(shape, data)

	case TensorProtoInt8, TensorProtoUint8, TensorProtoBool:
		data := make([]int64, n)
		switch {
		case len(raw) > 0:
			if len(raw) != n {
				return nil, rawSizeError(proto, n)
			}
			for i, b := range raw {
				if proto.DataType == TensorProtoInt8 {
					data[i] = int64(int8(b)) //nolint:gosec // G115: two's complement.
				} else {
					data[i] = int64(b)
				}
			}
		case len(proto.Int32Data) > 0:
			for i, v := range proto.Int32Data {
				data[i] = int64(v)
			}
		}
		return tensor.FromInt64(shape, data)

	default:
		return nil, fmt.Errorf("unsupported tensor data type %d", proto.DataType)
	}
}

func rawSizeError(proto *TensorProto, want int) error {
	return fmt.Errorf("tensor %s: raw data has %d bytes, want %d", proto.Name, len(proto.RawData), want)
}

// nodeProtoToOperatorNode converts NodeProto to operators.Node, decoding
// tensor attributes once at load time.
func nodeProtoToOperatorNode(proto *NodeProto) (*operators.Node, error) {
	attrs := make([]operators.Attribute, len(proto.Attributes))
	for i := range proto.Attributes {
		attr := &proto.Attributes[i]
		attrs[i] = operators.Attribute{
			Name:    attr.Name,
			Type:    attr.Type,
			F:       attr.F,
			I:       attr.I,
			S:       attr.S,
			Floats:  attr.Floats,
			Ints:    attr.Ints,
			Strings: attr.Strings,
		}
		if attr.T != nil {
			t, err := tensorFromProto(attr.T)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", attr.Name, err)
			}
			attrs[i].T = t
		}
	}
	return &operators.Node{
		Name:       proto.Name,
		OpType:     proto.OpType,
		Inputs:     proto.Inputs,
		Outputs:    proto.Outputs,
		Attributes: attrs,
		Domain:     proto.Domain,
	}, nil
}

// topologicalSort sorts nodes in execution order.
// Ensures dependencies are executed before dependents and rejects cycles.
func topologicalSort(nodes []NodeProto) ([]NodeProto, error) {
	outputToNode := make(map[string]int)
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			if output != "" {
				outputToNode[output] = i
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(nodes))
	result := make([]NodeProto, 0, len(nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("graph has a cycle through node %s (%s)", nodes[i].Name, nodes[i].OpType)
		}
		state[i] = visiting

		for _, input := range nodes[i].Inputs {
			if depIdx, ok := outputToNode[input]; ok {
				if err := visit(depIdx); err != nil {
					return err
				}
			}
		}

		state[i] = done
		result = append(result, nodes[i])
		return nil
	}

	for i := range nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return result, nil
}
