package operators

import (
	"fmt"
	"math"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// ONNX element types accepted by Cast. They duplicate the TensorProto
// constants of package onnx, which imports this package.
const (
	castFloat    = 1
	castUint8    = 2
	castInt8     = 3
	castUint16   = 4
	castInt16    = 5
	castInt32    = 6
	castInt64    = 7
	castBool     = 9
	castFloat16  = 10
	castDouble   = 11
	castUint32   = 12
	castUint64   = 13
	castBfloat16 = 16
)

// registerUtilityOps adds utility operators to the registry.
func (r *Registry) registerUtilityOps() {
	r.Register("Identity", handleIdentity)
	r.Register("Dropout", handleDropout)
	r.Register("Constant", handleConstant)
	r.Register("Cast", handleCast)
	r.Register("Shape", handleShape)
	r.Register("BatchNormalization", handleBatchNormalization)
}

func handleIdentity(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	return inputs, nil
}

// handleDropout is the identity at inference. The optional mask output is
// all ones.
func handleDropout(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 3); err != nil {
		return nil, err
	}
	outputs := []*tensor.Tensor{inputs[0]}
	if len(node.Outputs) > 1 {
		mask := make([]int64, inputs[0].NumElements())
		for i := range mask {
			mask[i] = 1
		}
		m, err := tensor.FromInt64(inputs[0].Shape(), mask)
		if err != nil {
			return nil, fmt.Errorf("dropout: %w", err)
		}
		outputs = append(outputs, m)
	}
	return outputs, nil
}

func handleConstant(_ *Context, node *Node, _ []*tensor.Tensor) ([]*tensor.Tensor, error) {
	for i := range node.Attributes {
		attr := &node.Attributes[i]
		var (
			t   *tensor.Tensor
			err error
		)
		switch attr.Name {
		case "value":
			if attr.T == nil {
				return nil, fmt.Errorf("constant: value attribute has no tensor")
			}
			t = attr.T
		case "value_float":
			t, err = tensor.FromFloat32(tensor.Shape{}, []float32{attr.F})
		case "value_int":
			t, err = tensor.FromInt64(tensor.Shape{}, []int64{attr.I})
		case "value_floats":
			t, err = tensor.FromFloat32(tensor.Shape{len(attr.Floats)}, append([]float32(nil), attr.Floats...))
		case "value_ints":
			t, err = tensor.FromInt64(tensor.Shape{len(attr.Ints)}, append([]int64(nil), attr.Ints...))
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", attr.Name, err)
		}
		return single(t)
	}
	return nil, fmt.Errorf("constant: no value attribute found")
}

func handleCast(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	to := GetAttrInt(node, "to", castFloat)

	switch to {
	case castFloat, castFloat16, castDouble, castBfloat16:
		result, err := x.Cast(tensor.Float32)
		if err != nil {
			return nil, fmt.Errorf("cast: %w", err)
		}
		return single(result)
	case castBool:
		out := make([]int64, x.NumElements())
		if x.DataType() == tensor.Float32 {
			for i, v := range x.Float32() {
				if v != 0 {
					out[i] = 1
				}
			}
		} else {
			for i, v := range x.Int64() {
				if v != 0 {
					out[i] = 1
				}
			}
		}
		result, err := tensor.FromInt64(x.Shape(), out)
		if err != nil {
			return nil, fmt.Errorf("cast: %w", err)
		}
		return single(result)
	case castUint8, castInt8, castUint16, castInt16, castInt32, castInt64, castUint32, castUint64:
		result, err := x.Cast(tensor.Int64)
		if err != nil {
			return nil, fmt.Errorf("cast: %w", err)
		}
		return single(result)
	default:
		return nil, fmt.Errorf("cast: unsupported target type %d", to)
	}
}

func handleShape(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	shape := inputs[0].Shape()
	rank := len(shape)

	start := int(GetAttrInt(node, "start", 0))
	end := int(GetAttrInt(node, "end", int64(rank)))
	if start < 0 {
		start += rank
	}
	if end < 0 {
		end += rank
	}
	start = min(max(start, 0), rank)
	end = min(max(end, start), rank)

	data := make([]int64, 0, end-start)
	for _, d := range shape[start:end] {
		data = append(data, int64(d))
	}
	result, err := tensor.FromInt64(tensor.Shape{len(data)}, data)
	if err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}
	return single(result)
}

// handleBatchNormalization applies inference-mode normalization over the
// channel axis (dim 1): y = scale*(x-mean)/sqrt(var+epsilon) + bias.
func handleBatchNormalization(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 5, 5); err != nil {
		return nil, err
	}
	x, scale, bias, mean, variance := inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
	for _, t := range inputs {
		if t.DataType() != tensor.Float32 {
			return nil, fmt.Errorf("batchNormalization requires float32 inputs, got %s", t.DataType())
		}
	}
	shape := x.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("batchNormalization requires rank >= 2, got %d", len(shape))
	}
	channels := shape[1]
	for _, p := range []*tensor.Tensor{scale, bias, mean, variance} {
		if p.NumElements() != channels {
			return nil, fmt.Errorf("batchNormalization: parameter has %d elements, want %d", p.NumElements(), channels)
		}
	}

	epsilon := float64(GetAttrFloat(node, "epsilon", 1e-5))
	inner := 1
	for _, d := range shape[2:] {
		inner *= d
	}

	src := x.Float32()
	out := make([]float32, len(src))
	s, b, m, v := scale.Float32(), bias.Float32(), mean.Float32(), variance.Float32()
	for i, val := range src {
		c := (i / inner) % channels
		norm := (float64(val) - float64(m[c])) / math.Sqrt(float64(v[c])+epsilon)
		out[i] = float32(norm*float64(s[c]) + float64(b[c]))
	}
	result, err := tensor.FromFloat32(shape, out)
	if err != nil {
		return nil, fmt.Errorf("batchNormalization: %w", err)
	}
	return single(result)
}
