// Package operators maps ONNX operators onto the runtime's tensor functions.
//
// The package provides a registry of operator handlers keyed by op type. Each
// handler validates its inputs and attributes, then delegates to package
// tensor. Coverage targets the graphs produced when exporting tabular and
// small dense models:
//   - Default domain: element-wise math, matrix products, reductions,
//     activations and shape manipulation
//   - ai.onnx.ml: Scaler and LinearRegressor
package operators
