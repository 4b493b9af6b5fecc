package operators

import (
	"fmt"
	"sort"

	"github.com/lzoffoli-tg/checkupy/internal/tensor"
)

// OpHandler processes an ONNX node and returns its output tensors.
// Omitted optional inputs arrive as nil.
type OpHandler func(ctx *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error)

// Context carries per-run state shared by handlers.
type Context struct {
	// Opset is the default-domain opset version of the model being executed.
	Opset int64
}

// Registry maps ONNX operator types to handler functions.
type Registry struct {
	handlers map[string]OpHandler
}

// NewRegistry creates a registry with every built-in operator.
func NewRegistry() *Registry {
	r := &Registry{
		handlers: make(map[string]OpHandler),
	}

	r.registerMathOps()
	r.registerActivations()
	r.registerShapeOps()
	r.registerUtilityOps()
	r.registerMLOps()

	return r
}

// Register adds or replaces an operator handler.
func (r *Registry) Register(opType string, handler OpHandler) {
	r.handlers[opType] = handler
}

// Get returns the handler for an operator type.
func (r *Registry) Get(opType string) (OpHandler, bool) {
	h, ok := r.handlers[opType]
	return h, ok
}

// Execute runs an operator with the given inputs.
func (r *Registry) Execute(ctx *Context, node *Node, inputs []*tensor.Tensor) ([]*tensor.Tensor, error) {
	handler, ok := r.handlers[node.OpType]
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", node.OpType)
	}
	return handler(ctx, node, inputs)
}

// SupportedOps returns every registered operator type, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// single wraps one output tensor.
func single(t *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{t}, nil
}

// requireInputs checks the number of non-omitted leading inputs.
func requireInputs(node *Node, inputs []*tensor.Tensor, minCount, maxCount int) error {
	if len(inputs) < minCount || (maxCount >= 0 && len(inputs) > maxCount) {
		if minCount == maxCount {
			return fmt.Errorf("%s requires %d inputs, got %d", node.OpType, minCount, len(inputs))
		}
		return fmt.Errorf("%s requires %d to %d inputs, got %d", node.OpType, minCount, maxCount, len(inputs))
	}
	for i := 0; i < minCount; i++ {
		if inputs[i] == nil {
			return fmt.Errorf("%s: input %d is required", node.OpType, i)
		}
	}
	return nil
}
