package operators

import (
	"fmt"
	"math"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// registerMathOps adds math operators to the registry.
func (r *Registry) registerMathOps() {
	r.Register("Add", binaryHandler(tensor.OpAdd))
	r.Register("Sub", binaryHandler(tensor.OpSub))
	r.Register("Mul", binaryHandler(tensor.OpMul))
	r.Register("Div", binaryHandler(tensor.OpDiv))
	r.Register("Pow", binaryHandler(tensor.OpPow))
	r.Register("MatMul", handleMatMul)
	r.Register("Gemm", handleGemm)
	r.Register("Sqrt", unaryHandler("sqrt", func(x float32) float32 { return float32(math.Sqrt(float64(x))) }))
	r.Register("Exp", unaryHandler("exp", func(x float32) float32 { return float32(math.Exp(float64(x))) }))
	r.Register("Log", unaryHandler("log", func(x float32) float32 { return float32(math.Log(float64(x))) }))
	r.Register("Abs", handleAbs)
	r.Register("Neg", handleNeg)
	r.Register("Sum", handleSum)
	r.Register("ReduceSum", reduceHandler(false))
	r.Register("ReduceMean", reduceHandler(true))
}

func binaryHandler(op tensor.BinaryOp) OpHandler {
	return func(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
		if err := requireInputs(node, inputs, 2, 2); err != nil {
			return nil, err
		}
		result, err := tensor.Binary(op, inputs[0], inputs[1])
		if err != nil {
			return nil, err
		}
		return single(result)
	}
}

func unaryHandler(name string, f func(float32) float32) OpHandler {
	return func(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
		if err := requireInputs(node, inputs, 1, 1); err != nil {
			return nil, err
		}
		result, err := tensor.Map(inputs[0], f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return single(result)
	}
}

func handleMatMul(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 2, 2); err != nil {
		return nil, err
	}
	result, err := tensor.MatMul(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	return single(result)
}

// handleGemm implements General Matrix Multiplication: Y = alpha*A*B + beta*C.
func handleGemm(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 2, 3); err != nil {
		return nil, err
	}

	alpha := GetAttrFloat(node, "alpha", 1.0)
	beta := GetAttrFloat(node, "beta", 1.0)
	transA := GetAttrInt(node, "transA", 0) != 0
	transB := GetAttrInt(node, "transB", 0) != 0

	var c *tensor.Tensor
	if len(inputs) == 3 {
		c = inputs[2]
	}

	result, err := tensor.Gemm(inputs[0], inputs[1], c, alpha, beta, transA, transB)
	if err != nil {
		return nil, err
	}
	return single(result)
}

func handleAbs(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	if x.DataType() == tensor.Int64 {
		out := make([]int64, x.NumElements())
		for i, v := range x.Int64() {
			if v < 0 {
				v = -v
			}
			out[i] = v
		}
		result, err := tensor.FromInt64(x.Shape(), out)
		if err != nil {
			return nil, err
		}
		return single(result)
	}
	result, err := tensor.Map(x, func(v float32) float32 { return float32(math.Abs(float64(v))) })
	if err != nil {
		return nil, fmt.Errorf("abs: %w", err)
	}
	return single(result)
}

func handleNeg(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	if x.DataType() == tensor.Int64 {
		out := make([]int64, x.NumElements())
		for i, v := range x.Int64() {
			out[i] = -v
		}
		result, err := tensor.FromInt64(x.Shape(), out)
		if err != nil {
			return nil, err
		}
		return single(result)
	}
	result, err := tensor.Map(x, func(v float32) float32 { return -v })
	if err != nil {
		return nil, fmt.Errorf("neg: %w", err)
	}
	return single(result)
}

// handleSum adds any number of broadcastable inputs.
func handleSum(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, -1); err != nil {
		return nil, err
	}
	result := inputs[0]
	for _, in := range inputs[1:] {
		var err error
		if result, err = tensor.Binary(tensor.OpAdd, result, in); err != nil {
			return nil, err
		}
	}
	return single(result)
}

// reduceHandler covers ReduceSum and ReduceMean. Axes come from the second
// input (opset 13+ for ReduceSum, 18+ for ReduceMean) or the axes attribute.
func reduceHandler(mean bool) OpHandler {
	return func(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
		if err := requireInputs(node, inputs, 1, 2); err != nil {
			return nil, err
		}
		keepDims := GetAttrInt(node, "keepdims", 1) != 0
		axes := toInts(GetAttrInts(node, "axes"))
		if len(inputs) == 2 && inputs[1] != nil {
			axes = inputs[1].Ints()
		}
		if len(axes) == 0 && GetAttrInt(node, "noop_with_empty_axes", 0) != 0 {
			return single(inputs[0])
		}
		result, err := tensor.Reduce(inputs[0], axes, keepDims, mean)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.OpType, err)
		}
		return single(result)
	}
}
