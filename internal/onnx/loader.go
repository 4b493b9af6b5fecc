package onnx

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/lzoffoli-tg/checkupy/internal/onnx/operators"
)

// LoadOptions configures model loading behavior.
type LoadOptions struct {
	// StrictMode fails on unsupported operators (default: false = warn and
	// fail only when the node runs).
	StrictMode bool

	// CustomOps provides custom operator handlers.
	CustomOps map[string]operators.OpHandler

	// Logger receives load diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultLoadOptions returns default loading options.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{}
}

// Load loads an ONNX model from file and prepares it for inference.
//
// Example:
//
//	model, err := onnx.Load("pipeline.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	outputs, err := model.Run(map[string]*tensor.Tensor{"x": input})
func Load(path string, opts ...LoadOptions) (*Model, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	proto, err := ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX file: %w", err)
	}

	if opt.Logger != nil {
		opt.Logger = opt.Logger.With(zap.String("path", path))
	}
	return LoadFromProto(proto, opt)
}

// LoadFromBytes loads an ONNX model from bytes.
func LoadFromBytes(data []byte, opts ...LoadOptions) (*Model, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	proto, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ONNX data: %w", err)
	}

	return LoadFromProto(proto, opt)
}

// LoadFromProto loads a model from parsed ModelProto.
func LoadFromProto(proto *ModelProto, opt LoadOptions) (*Model, error) {
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := operators.NewRegistry()
	for opType, handler := range opt.CustomOps {
		registry.Register(opType, handler)
	}

	if err := validateOperators(proto.Graph, registry); err != nil {
		if opt.StrictMode {
			return nil, err
		}
		logger.Warn("model uses unsupported operators", zap.Error(err))
	}

	model := &Model{
		proto:    proto,
		registry: registry,
	}
	if err := model.compile(); err != nil {
		return nil, fmt.Errorf("failed to compile model: %w", err)
	}

	logger.Debug("model loaded",
		zap.String("producer", proto.ProducerName),
		zap.Int64("opset", model.opsetVersion),
		zap.Strings("inputs", model.inputNames),
		zap.Strings("outputs", model.outputNames),
		zap.Int("nodes", len(model.nodes)),
		zap.Int("weights", len(model.weights)),
	)
	return model, nil
}

// validateOperators checks that all operators are supported.
func validateOperators(graph *GraphProto, registry *operators.Registry) error {
	if graph == nil {
		return fmt.Errorf("model has no graph")
	}
	if registry == nil {
		return fmt.Errorf("registry is nil")
	}

	seen := make(map[string]bool)
	unsupported := make([]string, 0)
	for i := range graph.Nodes {
		op := graph.Nodes[i].OpType
		if _, ok := registry.Get(op); !ok && !seen[op] {
			seen[op] = true
			unsupported = append(unsupported, op)
		}
	}

	if len(unsupported) > 0 {
		return fmt.Errorf("unsupported operators: %v", unsupported)
	}

	return nil
}

// ModelInfo contains basic information about an ONNX model without fully loading it.
type ModelInfo struct {
	IRVersion       int64
	OpsetVersion    int64
	ProducerName    string
	ProducerVersion string
	InputNames      []string
	OutputNames     []string
	NodeCount       int
	WeightCount     int
	// Operators lists the distinct op types used by the graph, sorted.
	Operators []string
	Metadata  map[string]string
}

// GetModelInfo extracts basic info from an ONNX file.
func GetModelInfo(path string) (*ModelInfo, error) {
	proto, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	info := &ModelInfo{
		IRVersion:       proto.IRVersion,
		ProducerName:    proto.ProducerName,
		ProducerVersion: proto.ProducerVersion,
		Metadata:        make(map[string]string, len(proto.MetadataProps)),
	}
	for _, prop := range proto.MetadataProps {
		info.Metadata[prop.Key] = prop.Value
	}

	for _, opset := range proto.OpsetImport {
		if opset.Domain == DomainDefault || opset.Domain == DomainONNX {
			info.OpsetVersion = opset.Version
			break
		}
	}

	if proto.Graph != nil {
		initNames := make(map[string]bool)
		for i := range proto.Graph.Initializers {
			initNames[proto.Graph.Initializers[i].Name] = true
		}
		for i := range proto.Graph.Inputs {
			if !initNames[proto.Graph.Inputs[i].Name] {
				info.InputNames = append(info.InputNames, proto.Graph.Inputs[i].Name)
			}
		}

		for i := range proto.Graph.Outputs {
			info.OutputNames = append(info.OutputNames, proto.Graph.Outputs[i].Name)
		}

		ops := make(map[string]bool)
		for i := range proto.Graph.Nodes {
			ops[proto.Graph.Nodes[i].OpType] = true
		}
		for op := range ops {
			info.Operators = append(info.Operators, op)
		}
		sort.Strings(info.Operators)

		info.NodeCount = len(proto.Graph.Nodes)
		info.WeightCount = len(proto.Graph.Initializers)
	}

	return info, nil
}

// ListSupportedOps returns all supported ONNX operators, sorted.
func ListSupportedOps() []string {
	return operators.NewRegistry().SupportedOps()
}
