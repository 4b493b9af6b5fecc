//go:build onnxruntime

package predictor

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// RuntimeSupported reports whether this binary links ONNX Runtime.
const RuntimeSupported = true

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the ONNX Runtime shared library once per process.
// An empty libraryPath uses the library's default lookup.
func initRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortErr = fmt.Errorf("initialize onnxruntime: %w", err)
		}
	})
	return ortErr
}

// runtimeSession runs models on ONNX Runtime through a dynamic session, so
// the batch dimension may change between runs.
type runtimeSession struct {
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

// OpenRuntime opens path with ONNX Runtime using the default library lookup.
func OpenRuntime(path string) (Session, error) {
	return RuntimeOpener("")(path)
}

// RuntimeOpener returns an Opener that loads the ONNX Runtime library from
// libraryPath on first use.
func RuntimeOpener(libraryPath string) Opener {
	return func(path string) (Session, error) {
		if err := initRuntime(libraryPath); err != nil {
			return nil, err
		}

		inInfo, outInfo, err := ort.GetInputOutputInfo(path)
		if err != nil {
			return nil, fmt.Errorf("read model io: %w", err)
		}
		s := &runtimeSession{}
		for _, info := range inInfo {
			s.inputs = append(s.inputs, info.Name)
		}
		for _, info := range outInfo {
			s.outputs = append(s.outputs, info.Name)
		}

		s.session, err = ort.NewDynamicAdvancedSession(path, s.inputs, s.outputs, nil)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		return s, nil
	}
}

func (s *runtimeSession) InputNames() []string {
	return append([]string(nil), s.inputs...)
}

func (s *runtimeSession) OutputNames() []string {
	return append([]string(nil), s.outputs...)
}

func (s *runtimeSession) Run(inputs map[string]*tensor.Dense) ([]*tensor.Dense, error) {
	values := make([]ort.Value, len(s.inputs))
	defer destroyValues(values)
	for i, name := range s.inputs {
		d, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("missing input: %s", name)
		}
		data, err := denseFloat32(d)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		dims := make([]int64, 0, d.Dims())
		for _, v := range d.Shape() {
			dims = append(dims, int64(v))
		}
		t, err := ort.NewTensor(ort.NewShape(dims...), data)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", name, err)
		}
		values[i] = t
	}

	// Nil outputs are allocated by ONNX Runtime with the shapes it infers.
	outputs := make([]ort.Value, len(s.outputs))
	defer destroyValues(outputs)
	if err := s.session.Run(values, outputs); err != nil {
		return nil, err
	}

	result := make([]*tensor.Dense, len(outputs))
	for i, v := range outputs {
		d, err := denseFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", s.outputs[i], err)
		}
		result[i] = d
	}
	return result, nil
}

// denseFromValue copies an ONNX Runtime tensor into a gorgonia array.
func denseFromValue(v ort.Value) (*tensor.Dense, error) {
	var (
		shape ort.Shape
		data  any
	)
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		shape, data = t.GetShape(), append([]float32(nil), t.GetData()...)
	case *ort.Tensor[float64]:
		shape, data = t.GetShape(), append([]float64(nil), t.GetData()...)
	case *ort.Tensor[int64]:
		shape, data = t.GetShape(), append([]int64(nil), t.GetData()...)
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	return tensor.New(tensor.WithShape(dims...), tensor.WithBacking(data)), nil
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			_ = v.Destroy()
		}
	}
}

func (s *runtimeSession) Close() error {
	return s.session.Destroy()
}
