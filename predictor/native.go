package predictor

import (
	"gorgonia.org/tensor"

	"github.com/lzoffoli-tg/checkupy/onnx"
)

// nativeSession runs models on the pure-Go runtime. Runs never mutate the
// compiled model, so a session may be shared by goroutines.
type nativeSession struct {
	model onnx.Model
}

// OpenNative loads path into the pure-Go ONNX runtime with default options.
func OpenNative(path string) (Session, error) {
	return NativeOpener(onnx.DefaultLoadOptions())(path)
}

// NativeOpener returns an Opener for the pure-Go runtime using opts.
func NativeOpener(opts onnx.LoadOptions) Opener {
	return func(path string) (Session, error) {
		model, err := onnx.Load(path, opts)
		if err != nil {
			return nil, err
		}
		return &nativeSession{model: model}, nil
	}
}

func (s *nativeSession) InputNames() []string {
	return s.model.InputNames()
}

func (s *nativeSession) OutputNames() []string {
	return s.model.OutputNames()
}

func (s *nativeSession) Run(inputs map[string]*tensor.Dense) ([]*tensor.Dense, error) {
	return s.model.Run(inputs)
}

func (s *nativeSession) Metadata() map[string]string {
	return s.model.Metadata()
}

func (s *nativeSession) Close() error {
	return nil
}
