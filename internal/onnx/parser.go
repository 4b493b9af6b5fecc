package onnx

import (
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: reading a caller-supplied model path is the point.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	model, err := readModel(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	return model, nil
}

// field is one decoded protobuf field. Only the member matching typ is set.
type field struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	bytes   []byte
	fixed32 uint32
	fixed64 uint64
}

// eachField decodes the fields of one message and hands them to fn in wire order.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		case protowire.Fixed32Type:
			f.fixed32, n = protowire.ConsumeFixed32(b)
		case protowire.Fixed64Type:
			f.fixed64, n = protowire.ConsumeFixed64(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func (f field) str() string {
	return string(f.bytes)
}

func (f field) i64() int64 {
	return int64(f.varint) //nolint:gosec // G115: protobuf int64 fields are two's complement varints.
}

func (f field) i32() int32 {
	return int32(f.varint) //nolint:gosec // G115: protobuf int32 fields are two's complement varints.
}

func (f field) f32() float32 {
	return math.Float32frombits(f.fixed32)
}

// int64s decodes a repeated varint field, packed or not.
func (f field) int64s() ([]int64, error) {
	if f.typ != protowire.BytesType {
		return []int64{f.i64()}, nil
	}
	var out []int64
	for b := f.bytes; len(b) > 0; {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, int64(v)) //nolint:gosec // G115: see i64.
		b = b[n:]
	}
	return out, nil
}

// float32s decodes a repeated float field, packed or not.
func (f field) float32s() ([]float32, error) {
	if f.typ != protowire.BytesType {
		return []float32{f.f32()}, nil
	}
	var out []float32
	for b := f.bytes; len(b) > 0; {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, math.Float32frombits(v))
		b = b[n:]
	}
	return out, nil
}

// float64s decodes a repeated double field, packed or not.
func (f field) float64s() ([]float64, error) {
	if f.typ != protowire.BytesType {
		return []float64{math.Float64frombits(f.fixed64)}, nil
	}
	var out []float64
	for b := f.bytes; len(b) > 0; {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, math.Float64frombits(v))
		b = b[n:]
	}
	return out, nil
}

func readModel(b []byte) (*ModelProto, error) {
	m := &ModelProto{}
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // ir_version
			m.IRVersion = f.i64()
		case 2: // producer_name
			m.ProducerName = f.str()
		case 3: // producer_version
			m.ProducerVersion = f.str()
		case 4: // domain
			m.Domain = f.str()
		case 5: // model_version
			m.ModelVersion = f.i64()
		case 6: // doc_string
			m.DocString = f.str()
		case 7: // graph
			g, err := readGraph(f.bytes)
			if err != nil {
				return fmt.Errorf("graph: %w", err)
			}
			m.Graph = g
		case 8: // opset_import
			opset, err := readOperatorSetID(f.bytes)
			if err != nil {
				return fmt.Errorf("opset_import: %w", err)
			}
			m.OpsetImport = append(m.OpsetImport, opset)
		case 14: // metadata_props
			entry, err := readStringStringEntry(f.bytes)
			if err != nil {
				return fmt.Errorf("metadata_props: %w", err)
			}
			m.MetadataProps = append(m.MetadataProps, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func readGraph(b []byte) (*GraphProto, error) {
	g := &GraphProto{}
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // node
			node, err := readNode(f.bytes)
			if err != nil {
				return fmt.Errorf("node %d: %w", len(g.Nodes), err)
			}
			g.Nodes = append(g.Nodes, node)
		case 2: // name
			g.Name = f.str()
		case 5: // initializer
			t, err := readTensor(f.bytes)
			if err != nil {
				return fmt.Errorf("initializer %d: %w", len(g.Initializers), err)
			}
			g.Initializers = append(g.Initializers, t)
		case 10: // doc_string
			g.DocString = f.str()
		case 11, 12, 13: // input, output, value_info
			vi, err := readValueInfo(f.bytes)
			if err != nil {
				return fmt.Errorf("value info: %w", err)
			}
			switch f.num {
			case 11:
				g.Inputs = append(g.Inputs, vi)
			case 12:
				g.Outputs = append(g.Outputs, vi)
			default:
				g.ValueInfo = append(g.ValueInfo, vi)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func readNode(b []byte) (NodeProto, error) {
	var n NodeProto
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // input
			n.Inputs = append(n.Inputs, f.str())
		case 2: // output
			n.Outputs = append(n.Outputs, f.str())
		case 3: // name
			n.Name = f.str()
		case 4: // op_type
			n.OpType = f.str()
		case 5: // attribute
			attr, err := readAttribute(f.bytes)
			if err != nil {
				return fmt.Errorf("attribute: %w", err)
			}
			n.Attributes = append(n.Attributes, attr)
		case 6: // doc_string
			n.DocString = f.str()
		case 7: // domain
			n.Domain = f.str()
		}
		return nil
	})
	return n, err
}

//nolint:gocyclo,cyclop // one case per TensorProto field.
func readTensor(b []byte) (TensorProto, error) {
	var t TensorProto
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // dims
			dims, err := f.int64s()
			if err != nil {
				return fmt.Errorf("dims: %w", err)
			}
			t.Dims = append(t.Dims, dims...)
		case 2: // data_type
			t.DataType = f.i32()
		case 4: // float_data
			vals, err := f.float32s()
			if err != nil {
				return fmt.Errorf("float_data: %w", err)
			}
			t.FloatData = append(t.FloatData, vals...)
		case 5: // int32_data
			vals, err := f.int64s()
			if err != nil {
				return fmt.Errorf("int32_data: %w", err)
			}
			for _, v := range vals {
				t.Int32Data = append(t.Int32Data, int32(v)) //nolint:gosec // G115: int32 field.
			}
		case 7: // int64_data
			vals, err := f.int64s()
			if err != nil {
				return fmt.Errorf("int64_data: %w", err)
			}
			t.Int64Data = append(t.Int64Data, vals...)
		case 8: // name
			t.Name = f.str()
		case 9: // raw_data
			t.RawData = f.bytes
		case 10: // double_data
			vals, err := f.float64s()
			if err != nil {
				return fmt.Errorf("double_data: %w", err)
			}
			t.DoubleData = append(t.DoubleData, vals...)
		case 12: // doc_string
			t.DocString = f.str()
		}
		return nil
	})
	return t, err
}

func readValueInfo(b []byte) (ValueInfoProto, error) {
	var vi ValueInfoProto
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // name
			vi.Name = f.str()
		case 2: // type
			tp, err := readType(f.bytes)
			if err != nil {
				return fmt.Errorf("type: %w", err)
			}
			vi.Type = tp
		case 3: // doc_string
			vi.DocString = f.str()
		}
		return nil
	})
	return vi, err
}

func readType(b []byte) (*TypeProto, error) {
	tp := &TypeProto{}
	err := eachField(b, func(f field) error {
		if f.num != 1 { // tensor_type
			return nil
		}
		tt := &TensorTypeProto{}
		err := eachField(f.bytes, func(f field) error {
			switch f.num {
			case 1: // elem_type
				tt.ElemType = f.i32()
			case 2: // shape
				shape, err := readShape(f.bytes)
				if err != nil {
					return err
				}
				tt.Shape = shape
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("tensor_type: %w", err)
		}
		tp.TensorType = tt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

func readShape(b []byte) (*TensorShapeProto, error) {
	shape := &TensorShapeProto{}
	err := eachField(b, func(f field) error {
		if f.num != 1 { // dim
			return nil
		}
		var dim DimensionProto
		err := eachField(f.bytes, func(f field) error {
			switch f.num {
			case 1: // dim_value
				dim.DimValue = f.i64()
			case 2: // dim_param
				dim.DimParam = f.str()
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("dim: %w", err)
		}
		shape.Dims = append(shape.Dims, dim)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shape, nil
}

//nolint:gocyclo,cyclop // one case per AttributeProto field.
func readAttribute(b []byte) (AttributeProto, error) {
	var a AttributeProto
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // name
			a.Name = f.str()
		case 2: // f
			a.F = f.f32()
		case 3: // i
			a.I = f.i64()
		case 4: // s
			a.S = f.bytes
		case 5: // t
			t, err := readTensor(f.bytes)
			if err != nil {
				return fmt.Errorf("t: %w", err)
			}
			a.T = &t
		case 7: // floats
			vals, err := f.float32s()
			if err != nil {
				return fmt.Errorf("floats: %w", err)
			}
			a.Floats = append(a.Floats, vals...)
		case 8: // ints
			vals, err := f.int64s()
			if err != nil {
				return fmt.Errorf("ints: %w", err)
			}
			a.Ints = append(a.Ints, vals...)
		case 9: // strings
			a.Strings = append(a.Strings, f.bytes)
		case 10: // tensors
			t, err := readTensor(f.bytes)
			if err != nil {
				return fmt.Errorf("tensors: %w", err)
			}
			a.Tensors = append(a.Tensors, t)
		case 13: // doc_string
			a.DocString = f.str()
		case 20: // type
			a.Type = f.i32()
		}
		return nil
	})
	return a, err
}

func readOperatorSetID(b []byte) (OperatorSetID, error) {
	var id OperatorSetID
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // domain
			id.Domain = f.str()
		case 2: // version
			id.Version = f.i64()
		}
		return nil
	})
	return id, err
}

func readStringStringEntry(b []byte) (StringStringEntry, error) {
	var e StringStringEntry
	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // key
			e.Key = f.str()
		case 2: // value
			e.Value = f.str()
		}
		return nil
	})
	return e, err
}
