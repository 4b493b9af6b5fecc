package onnx

import (
	"fmt"

	"gorgonia.org/tensor"

	internalonnx "github.com/lzoffoli-tg/checkupy/internal/onnx"
	runtime "github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// Model represents a loaded ONNX model ready for inference.
//
// This interface hides the internal implementation and allows for:
//   - Easy mocking in tests
//   - Other engines behind the same surface
//
// Tensors cross the boundary as gorgonia dense arrays. Floating inputs are
// converted to float32 and integer inputs to int64 before execution.
type Model interface {
	// Run executes the graph and returns the outputs in OutputNames order.
	// All input names from InputNames() must be provided.
	Run(inputs map[string]*tensor.Dense) ([]*tensor.Dense, error)

	// ForwardNamed runs inference with named inputs and returns a map of
	// output name to tensor.
	//
	// Example:
	//
	//	outputs, err := model.ForwardNamed(map[string]*tensor.Dense{
	//	    "float_input": features,
	//	})
	//	if err != nil {
	//	    log.Fatal(err)
	//	}
	//	prediction := outputs["variable"]
	ForwardNamed(inputs map[string]*tensor.Dense) (map[string]*tensor.Dense, error)

	// InputNames returns the names of model inputs.
	InputNames() []string

	// OutputNames returns the names of model outputs.
	OutputNames() []string

	// OpsetVersion returns the ONNX opset version used by the model.
	OpsetVersion() int64

	// Metadata returns model metadata as key-value pairs.
	//
	// Common metadata keys:
	//   - "producer_name": Framework that exported the model (e.g., "skl2onnx")
	//   - "producer_version": Version of the exporter
	//   - "domain": Domain of the model (usually "")
	//   - Custom keys from model.metadata_props
	Metadata() map[string]string
}

type model struct {
	*internalonnx.Model
}

func (m model) Run(inputs map[string]*tensor.Dense) ([]*tensor.Dense, error) {
	converted := make(map[string]*runtime.Tensor, len(inputs))
	for name, d := range inputs {
		t, err := fromDense(d)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		converted[name] = t
	}

	outputs, err := m.Model.Run(converted)
	if err != nil {
		return nil, err
	}

	result := make([]*tensor.Dense, len(outputs))
	for i, t := range outputs {
		result[i] = toDense(t)
	}
	return result, nil
}

func (m model) ForwardNamed(inputs map[string]*tensor.Dense) (map[string]*tensor.Dense, error) {
	outputs, err := m.Run(inputs)
	if err != nil {
		return nil, err
	}
	names := m.OutputNames()
	result := make(map[string]*tensor.Dense, len(outputs))
	for i, d := range outputs {
		result[names[i]] = d
	}
	return result, nil
}
