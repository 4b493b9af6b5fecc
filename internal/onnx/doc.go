// Package onnx loads and executes ONNX models in pure Go.
//
// Model files are decoded from the onnx.proto wire format with protowire into
// the plain structs of proto.go, then compiled into a Model: initializers
// become tensors, nodes are sorted topologically and bound to operator
// handlers from package operators.
//
// Key components:
//   - ModelProto: Top-level ONNX model structure with metadata and graph
//   - GraphProto: Computation graph with nodes, inputs, outputs, and initializers
//   - NodeProto: Single operation in the graph (e.g., Gemm, Relu, Scaler)
//   - TensorProto: Weight/initializer tensor with data and shape
//   - Model: Compiled graph, safe for concurrent Run calls
//
// Initializers of type float32, float64 and float16 load as float32; int8,
// uint8, bool, int32 and int64 load as int64.
//
// Example usage:
//
//	model, err := onnx.Load("pipeline.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(model.InputNames(), model.OutputNames())
package onnx
