package operators

import (
	"fmt"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// registerMLOps adds the ai.onnx.ml operators emitted by scikit-learn
// exporters for linear pipelines.
func (r *Registry) registerMLOps() {
	r.Register("Scaler", handleScaler)
	r.Register("LinearRegressor", handleLinearRegressor)
}

// asFloat32 casts integer inputs, which ML operators accept, to float32.
func asFloat32(t *tensor.Tensor) (*tensor.Tensor, error) {
	return t.Cast(tensor.Float32)
}

// handleScaler computes (x - offset) * scale per feature. A single offset or
// scale value applies to every feature.
func handleScaler(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	x, err := asFloat32(inputs[0])
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	shape := x.Shape()
	features := 1
	if len(shape) > 0 {
		features = shape[len(shape)-1]
	}

	offset := GetAttrFloats(node, "offset")
	scale := GetAttrFloats(node, "scale")
	for name, v := range map[string][]float32{"offset": offset, "scale": scale} {
		if len(v) > 1 && len(v) != features {
			return nil, fmt.Errorf("scaler: %s has %d values for %d features", name, len(v), features)
		}
	}
	pick := func(v []float32, j int, def float32) float32 {
		switch len(v) {
		case 0:
			return def
		case 1:
			return v[0]
		default:
			return v[j]
		}
	}

	src := x.Float32()
	out := make([]float32, len(src))
	for i, val := range src {
		j := i % features
		out[i] = (val - pick(offset, j, 0)) * pick(scale, j, 1)
	}
	result, err := tensor.FromFloat32(shape, out)
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}
	return single(result)
}

// handleLinearRegressor computes x @ coefficients^T + intercepts, where the
// flat coefficients attribute holds one row of input features per target.
func handleLinearRegressor(_ *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := requireInputs(node, inputs, 1, 1); err != nil {
		return nil, err
	}
	if pt := GetAttrString(node, "post_transform", "NONE"); pt != "NONE" {
		return nil, fmt.Errorf("linearRegressor: post_transform %s not supported", pt)
	}
	x, err := asFloat32(inputs[0])
	if err != nil {
		return nil, fmt.Errorf("linearRegressor: %w", err)
	}
	if x.Rank() == 1 {
		if x, err = x.Reshape(tensor.Shape{1, x.NumElements()}); err != nil {
			return nil, fmt.Errorf("linearRegressor: %w", err)
		}
	}
	if x.Rank() != 2 {
		return nil, fmt.Errorf("linearRegressor requires a 2-D input, got shape %v", x.Shape())
	}

	targets := int(GetAttrInt(node, "targets", 1))
	coefficients := GetAttrFloats(node, "coefficients")
	features := x.Shape()[1]
	if targets <= 0 || len(coefficients) != targets*features {
		return nil, fmt.Errorf("linearRegressor: %d coefficients for %d targets and %d features",
			len(coefficients), targets, features)
	}
	coef, err := tensor.FromFloat32(tensor.Shape{targets, features}, coefficients)
	if err != nil {
		return nil, fmt.Errorf("linearRegressor: %w", err)
	}

	var bias *tensor.Tensor
	if intercepts := GetAttrFloats(node, "intercepts"); len(intercepts) > 0 {
		if len(intercepts) != targets {
			return nil, fmt.Errorf("linearRegressor: %d intercepts for %d targets", len(intercepts), targets)
		}
		if bias, err = tensor.FromFloat32(tensor.Shape{targets}, intercepts); err != nil {
			return nil, fmt.Errorf("linearRegressor: %w", err)
		}
	}

	result, err := tensor.Gemm(x, coef, bias, 1, 1, false, true)
	if err != nil {
		return nil, fmt.Errorf("linearRegressor: %w", err)
	}
	return single(result)
}
