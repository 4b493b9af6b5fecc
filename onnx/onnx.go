// Package onnx loads ONNX models into the pure-Go runtime.
//
// Models exported from scikit-learn, PyTorch and other frameworks run without
// cgo or a native runtime library. Tensors are exchanged as gorgonia dense
// arrays.
//
// # Supported Features
//
//   - ONNX format parsing (protobuf wire format)
//   - Default-domain math, activation and shape operators
//   - ai.onnx.ml Scaler and LinearRegressor
//   - float32, float64 and float16 initializers
//   - Named input/output support
//
// # Example Usage
//
//	model, err := onnx.Load("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	input := tensor.New(tensor.WithShape(1, 3), tensor.WithBacking([]float32{1, 2, 3}))
//	outputs, err := model.Run(map[string]*tensor.Dense{model.InputNames()[0]: input})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Use [ListSupportedOps] to get the complete list of supported operators.
package onnx

import (
	internalonnx "github.com/lzoffoli-tg/checkupy/internal/onnx"
)

// LoadOptions configures ONNX model loading behavior.
type LoadOptions = internalonnx.LoadOptions

// DefaultLoadOptions returns the default options for loading ONNX models.
//
// Default configuration:
//   - Strict mode: disabled (unsupported operators are logged and fail at run time)
//   - Logger: none
func DefaultLoadOptions() LoadOptions {
	return internalonnx.DefaultLoadOptions()
}

// Load loads an ONNX model from a file path.
//
// The function parses the ONNX protobuf format, validates operators,
// and compiles the computation graph for inference.
//
// Example:
//
//	model, err := onnx.Load("pipeline.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inputs:", model.InputNames())
//	fmt.Println("Outputs:", model.OutputNames())
//	fmt.Println("Opset:", model.OpsetVersion())
//
// For custom loading options, pass LoadOptions:
//
//	opts := onnx.DefaultLoadOptions()
//	opts.StrictMode = true // Fail on unsupported ops
//	model, err := onnx.Load("model.onnx", opts)
func Load(path string, opts ...LoadOptions) (Model, error) {
	m, err := internalonnx.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return model{m}, nil
}

// LoadFromBytes loads an ONNX model from raw bytes.
//
// This is useful when the model is embedded in the binary.
func LoadFromBytes(data []byte, opts ...LoadOptions) (Model, error) {
	m, err := internalonnx.LoadFromBytes(data, opts...)
	if err != nil {
		return nil, err
	}
	return model{m}, nil
}

// ModelInfo contains metadata about an ONNX model without loading weights.
//
// Use [GetModelInfo] to quickly inspect a model file before loading.
type ModelInfo = internalonnx.ModelInfo

// GetModelInfo extracts metadata from an ONNX file without compiling it.
//
// Example:
//
//	info, err := onnx.GetModelInfo("model.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Producer: %s\n", info.ProducerName)
//	fmt.Printf("Opset: %d\n", info.OpsetVersion)
//	fmt.Printf("Operators: %v\n", info.Operators)
func GetModelInfo(path string) (*ModelInfo, error) {
	return internalonnx.GetModelInfo(path)
}

// ListSupportedOps returns the supported ONNX operators, sorted.
func ListSupportedOps() []string {
	return internalonnx.ListSupportedOps()
}
