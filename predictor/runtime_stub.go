//go:build !onnxruntime

package predictor

import "errors"

// RuntimeSupported reports whether this binary links ONNX Runtime.
const RuntimeSupported = false

var errNoRuntime = errors.New("built without onnxruntime support (rebuild with -tags onnxruntime)")

// OpenRuntime always fails: the binary was built without the onnxruntime tag.
func OpenRuntime(string) (Session, error) {
	return nil, errNoRuntime
}

// RuntimeOpener returns an Opener that always fails: the binary was built
// without the onnxruntime tag.
func RuntimeOpener(string) Opener {
	return OpenRuntime
}
