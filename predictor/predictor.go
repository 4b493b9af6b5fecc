// Package predictor adapts an ONNX model to row-oriented caller data.
//
// A Predictor binds a model to ordered input and output labels. Predict
// accepts a Matrix, a Table or a Mapping, builds the (N, len(inputs)) float32
// matrix the model expects, runs the session once and returns the result in
// the caller's shape: Matrix for Matrix, Table (same index) for Table,
// Mapping for Mapping.
//
//	p, err := predictor.New("model.onnx", []string{"a", "b"}, []string{"x"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//	out, err := p.Predict(predictor.Mapping{"a": []float64{1, 2}, "b": []float64{3, 4}})
package predictor

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Session is an inference engine session. Run receives tensors keyed by
// input name and returns the outputs in OutputNames order.
type Session interface {
	InputNames() []string
	OutputNames() []string
	Run(inputs map[string]*tensor.Dense) ([]*tensor.Dense, error)
	Close() error
}

// Opener creates a session for the model at path.
type Opener func(path string) (Session, error)

// Options configures New.
type Options struct {
	// Opener creates the engine session. Defaults to OpenNative.
	Opener Opener
}

// PredictFunc is the function form of Predictor.Predict.
type PredictFunc func(data any) (Record, error)

// Predictor runs a model on Matrix, Table and Mapping records.
// It holds no mutable state after New.
type Predictor struct {
	session   Session
	inputName string
	inputs    Labels
	outputs   Labels
}

// New opens the model at path and binds it to the given labels.
func New(path string, inputs, outputs []string, opts ...Options) (*Predictor, error) {
	in, err := NewLabels(inputs...)
	if err != nil {
		return nil, fmt.Errorf("input labels: %w", err)
	}
	out, err := NewLabels(outputs...)
	if err != nil {
		return nil, fmt.Errorf("output labels: %w", err)
	}

	opener := OpenNative
	if len(opts) > 0 && opts[0].Opener != nil {
		opener = opts[0].Opener
	}

	session, err := opener(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}
	names := session.InputNames()
	if len(names) == 0 {
		_ = session.Close()
		return nil, fmt.Errorf("%w: %s: model declares no input", ErrLoad, path)
	}

	return &Predictor{
		session:   session,
		inputName: names[0],
		inputs:    in,
		outputs:   out,
	}, nil
}

// InputLabels returns the input feature order.
func (p *Predictor) InputLabels() Labels {
	return p.inputs
}

// OutputLabels returns the output feature order.
func (p *Predictor) OutputLabels() Labels {
	return p.outputs
}

// Predict runs the model on data and returns a record of the same kind.
// Engine errors are returned as is. Input with zero rows yields an empty
// result of the same kind without running the engine.
func (p *Predictor) Predict(data any) (Record, error) {
	rec, err := NewRecord(data)
	if err != nil {
		return nil, err
	}

	var (
		values []float32
		n      int
	)
	switch r := rec.(type) {
	case Matrix:
		values, n, err = matrixInput(r, p.inputs.Len())
	case Table:
		values, n, err = tableInput(r, p.inputs)
	case Mapping:
		values, n, err = mappingInput(r, p.inputs)
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return emptyOutput(rec, p.outputs)
	}

	x := tensor.New(tensor.WithShape(n, p.inputs.Len()), tensor.WithBacking(values))
	outputs, err := p.session.Run(map[string]*tensor.Dense{p.inputName: x})
	if err != nil {
		return nil, err
	}
	out, err := checkOutput(outputs, n, p.outputs)
	if err != nil {
		return nil, err
	}

	switch r := rec.(type) {
	case Table:
		return tableOutput(out, r.Frame, p.outputs)
	case Mapping:
		return mappingOutput(out, n, p.outputs)
	default:
		return Matrix{Dense: out}, nil
	}
}

// Func returns Predict as a function value.
func (p *Predictor) Func() PredictFunc {
	return p.Predict
}

// Metadata returns model metadata when the session provides it.
func (p *Predictor) Metadata() map[string]string {
	if m, ok := p.session.(interface{ Metadata() map[string]string }); ok {
		return m.Metadata()
	}
	return nil
}

// Close releases the engine session.
func (p *Predictor) Close() error {
	return p.session.Close()
}
