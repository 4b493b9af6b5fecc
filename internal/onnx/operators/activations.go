package operators

import (
	"fmt"
	"math"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// registerActivations adds activation operators to the registry.
func (r *Registry) registerActivations() {
	r.Register("Relu", handleRelu)
	r.Register("LeakyRelu", handleLeakyRelu)
	r.Register("Elu", handleElu)
	r.Register("Sigmoid", unaryHandler("sigmoid", sigmoid))
	r.Register("Tanh", unaryHandler("tanh", func(x float32) float32 { return float32(math.Tanh(float64(x))) }))
	r.Register("Softplus", unaryHandler("softplus", softplus))
	r.Register("Softmax", softmaxHandler(false))
	r.Register("LogSoftmax", softmaxHandler(true))
	r.Register("Clip", handleClip)
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func softplus(x float32) float32 {
	v := float64(x)
	// log1p(exp(x)) overflows for large x, where it equals x.
	if v > 20 {
		return x
	}
	return float32(math.Log1p(math.Exp(v)))
}

func handleRelu(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	result, err := tensor.Map(inputs[0], func(x float32) float32 { return max(x, 0) })
	if err != nil {
		return nil, fmt.Errorf("relu: %w", err)
	}
	return single(result)
}

func handleLeakyRelu(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	alpha := GetAttrFloat(node, "alpha", 0.01)
	result, err := tensor.Map(inputs[0], func(x float32) float32 {
		if x < 0 {
			return alpha * x
		}
		return x
	})
	if err != nil {
		return nil, fmt.Errorf("leakyRelu: %w", err)
	}
	return single(result)
}

func handleElu(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	alpha := GetAttrFloat(node, "alpha", 1.0)
	result, err := tensor.Map(inputs[0], func(x float32) float32 {
		if x < 0 {
			return alpha * float32(math.Expm1(float64(x)))
		}
		return x
	})
	if err != nil {
		return nil, fmt.Errorf("elu: %w", err)
	}
	return single(result)
}

// softmaxHandler covers Softmax and LogSoftmax. Before opset 13 the default
// axis is 1; from 13 on it is -1.
func softmaxHandler(logarithm bool) OpHandler {
	return func(ctx *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
		if err := requireInputs(node, inputs, 1, 1); err != nil {
			return nil, err
		}
		defaultAxis := int64(-1)
		if ctx != nil && ctx.Opset > 0 && ctx.Opset < 13 {
			defaultAxis = 1
		}
		axis := int(GetAttrInt(node, "axis", defaultAxis))
		result, err := tensor.Softmax(inputs[0], axis, logarithm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.OpType, err)
		}
		return single(result)
	}
}

func handleClip(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 3); err != nil {
		return nil, err
	}

	// Opset 11+ passes min and max as inputs; older models use attributes.
	minVal := GetAttrFloat(node, "min", -math.MaxFloat32)
	maxVal := GetAttrFloat(node, "max", math.MaxFloat32)
	if len(inputs) >= 2 && inputs[1] != nil {
		minVal = scalarFloat(inputs[1])
	}
	if len(inputs) >= 3 && inputs[2] != nil {
		maxVal = scalarFloat(inputs[2])
	}

	result, err := tensor.Map(inputs[0], func(x float32) float32 {
		return min(max(x, minVal), maxVal)
	})
	if err != nil {
		return nil, fmt.Errorf("clip: %w", err)
	}
	return single(result)
}

// scalarFloat reads the first element of t as float32.
func scalarFloat(t *tensor.Tensor) float32 {
	if t.DataType() == tensor.Int64 {
		if v := t.Int64(); len(v) > 0 {
			return float32(v[0])
		}
		return 0
	}
	if v := t.Float32(); len(v) > 0 {
		return v[0]
	}
	return 0
}
