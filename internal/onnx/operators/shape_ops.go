package operators

import (
	"fmt"
	"slices"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// registerShapeOps adds shape manipulation operators to the registry.
func (r *Registry) registerShapeOps() {
	r.Register("Reshape", handleReshape)
	r.Register("Flatten", handleFlatten)
	r.Register("Transpose", handleTranspose)
	r.Register("Squeeze", handleSqueeze)
	r.Register("Unsqueeze", handleUnsqueeze)
	r.Register("Concat", handleConcat)
	r.Register("Gather", handleGather)
}

func handleReshape(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 2, 2); err != nil {
		return nil, err
	}
	allowZero := GetAttrInt(node, "allowzero", 0) != 0
	shape, err := resolveReshape(inputs[0].Shape(), inputs[1].Ints(), allowZero)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	result, err := inputs[0].Reshape(shape)
	if err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	return single(result)
}

// resolveReshape expands the 0 (copy input dim) and -1 (infer) markers of a
// Reshape target.
func resolveReshape(in tensor.Shape, target []int, allowZero bool) (tensor.Shape, error) {
	out := make(tensor.Shape, len(target))
	infer := -1
	known := 1
	for i, d := range target {
		switch {
		case d == -1:
			if infer >= 0 {
				return nil, fmt.Errorf("more than one -1 in shape %v", target)
			}
			infer = i
			continue
		case d == 0 && !allowZero:
			if i >= len(in) {
				return nil, fmt.Errorf("dim %d copies a missing input dim of %v", i, in)
			}
			d = in[i]
		case d < 0:
			return nil, fmt.Errorf("invalid dim %d in shape %v", d, target)
		}
		out[i] = d
		known *= d
	}
	if infer >= 0 {
		total := in.NumElements()
		if known == 0 || total%known != 0 {
			return nil, fmt.Errorf("cannot infer dim of %v from %v", target, in)
		}
		out[infer] = total / known
	}
	return out, nil
}

func handleFlatten(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x := inputs[0]
	axis := int(GetAttrInt(node, "axis", 1))
	if axis < 0 {
		axis += x.Rank()
	}
	if axis < 0 || axis > x.Rank() {
		return nil, fmt.Errorf("flatten: axis %d out of range for rank %d", axis, x.Rank())
	}
	shape := x.Shape()
	outer := 1
	for _, d := range shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range shape[axis:] {
		inner *= d
	}
	result, err := x.Reshape(tensor.Shape{outer, inner})
	if err != nil {
		return nil, fmt.Errorf("flatten: %w", err)
	}
	return single(result)
}

func handleTranspose(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	result, err := tensor.Transpose(inputs[0], toInts(GetAttrInts(node, "perm"))...)
	if err != nil {
		return nil, fmt.Errorf("transpose: %w", err)
	}
	return single(result)
}

// axesOf reads axes from the optional second input (opset 13+) or the
// axes attribute.
func axesOf(node *Node, inputs []*tensor.Tensor) []int {
	if len(inputs) >= 2 && inputs[1] != nil {
		return inputs[1].Ints()
	}
	return toInts(GetAttrInts(node, "axes"))
}

func handleSqueeze(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 2); err != nil {
		return nil, err
	}
	x := inputs[0]
	shape := x.Shape()
	rank := len(shape)

	drop := make([]bool, rank)
	axes := axesOf(node, inputs)
	if len(axes) == 0 {
		for i, d := range shape {
			drop[i] = d == 1
		}
	}
	for _, a := range axes {
		if a < 0 {
			a += rank
		}
		if a < 0 || a >= rank {
			return nil, fmt.Errorf("squeeze: axis %d out of range for rank %d", a, rank)
		}
		if shape[a] != 1 {
			return nil, fmt.Errorf("squeeze: dim %d has size %d, not 1", a, shape[a])
		}
		drop[a] = true
	}

	out := make(tensor.Shape, 0, rank)
	for i, d := range shape {
		if !drop[i] {
			out = append(out, d)
		}
	}
	result, err := x.Reshape(out)
	if err != nil {
		return nil, fmt.Errorf("squeeze: %w", err)
	}
	return single(result)
}

func handleUnsqueeze(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 2); err != nil {
		return nil, err
	}
	x := inputs[0]
	axes := axesOf(node, inputs)
	if len(axes) == 0 {
		return nil, fmt.Errorf("unsqueeze requires axes")
	}

	rank := x.Rank() + len(axes)
	insert := make([]bool, rank)
	for _, a := range axes {
		if a < 0 {
			a += rank
		}
		if a < 0 || a >= rank || insert[a] {
			return nil, fmt.Errorf("unsqueeze: invalid axis %d for output rank %d", a, rank)
		}
		insert[a] = true
	}

	src := x.Shape()
	out := make(tensor.Shape, 0, rank)
	for i := range rank {
		if insert[i] {
			out = append(out, 1)
			continue
		}
		out = append(out, src[0])
		src = src[1:]
	}
	result, err := x.Reshape(out)
	if err != nil {
		return nil, fmt.Errorf("unsqueeze: %w", err)
	}
	return single(result)
}

func handleConcat(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, -1); err != nil {
		return nil, err
	}
	if slices.Contains(inputs, nil) {
		return nil, fmt.Errorf("concat: missing input")
	}
	axis := int(GetAttrInt(node, "axis", 0))
	result, err := tensor.Concat(axis, inputs...)
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}
	return single(result)
}

func handleGather(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 2, 2); err != nil {
		return nil, err
	}
	axis := int(GetAttrInt(node, "axis", 0))
	result, err := tensor.Gather(inputs[0], inputs[1], axis)
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}
	return single(result)
}
