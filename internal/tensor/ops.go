package tensor

import (
	"fmt"
	"math"

	"github.com/lzoffoli-tg/checkupy/internal/parallel"
)

// workers splits large element-wise loops across goroutines.
var workers = parallel.Default()

// BinaryOp identifies an element-wise broadcasting operation.
type BinaryOp int

// Supported element-wise operations.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
)

// String returns the operation name.
func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpPow:
		return "pow"
	default:
		return "unknown"
	}
}

func (op BinaryOp) float32Func() func(x, y float32) float32 {
	switch op {
	case OpAdd:
		return func(x, y float32) float32 { return x + y }
	case OpSub:
		return func(x, y float32) float32 { return x - y }
	case OpMul:
		return func(x, y float32) float32 { return x * y }
	case OpDiv:
		return func(x, y float32) float32 { return x / y }
	case OpPow:
		return func(x, y float32) float32 { return float32(math.Pow(float64(x), float64(y))) }
	default:
		return nil
	}
}

func (op BinaryOp) int64Func() func(x, y int64) int64 {
	switch op {
	case OpAdd:
		return func(x, y int64) int64 { return x + y }
	case OpSub:
		return func(x, y int64) int64 { return x - y }
	case OpMul:
		return func(x, y int64) int64 { return x * y }
	case OpDiv:
		// Integer division by zero yields zero instead of panicking.
		return func(x, y int64) int64 {
			if y == 0 {
				return 0
			}
			return x / y
		}
	case OpPow:
		return func(x, y int64) int64 {
			r := int64(1)
			for ; y > 0; y-- {
				r *= x
			}
			return r
		}
	default:
		return nil
	}
}

// Binary applies op element-wise with NumPy broadcasting.
// A Pow with an int64 exponent over float32 data promotes the exponent.
func Binary(op BinaryOp, a, b *Tensor) (*Tensor, error) {
	if a.dtype != b.dtype {
		if op != OpPow || a.dtype != Float32 {
			return nil, fmt.Errorf("%s: data type mismatch %s vs %s", op, a.dtype, b.dtype)
		}
		var err error
		if b, err = b.Cast(Float32); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	shape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &Tensor{dtype: a.dtype, shape: shape}
	switch a.dtype {
	case Float32:
		out.f32 = broadcastApply(a.f32, a.shape, b.f32, b.shape, shape, op.float32Func())
	case Int64:
		out.i64 = broadcastApply(a.i64, a.shape, b.i64, b.shape, shape, op.int64Func())
	}
	return out, nil
}

func broadcastApply[T element](a []T, as Shape, b []T, bs Shape, out Shape, f func(x, y T) T) []T {
	n := out.NumElements()
	res := make([]T, n)

	if as.Equal(bs) {
		parallel.Range(n, workers, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				res[i] = f(a[i], b[i])
			}
		})
		return res
	}

	aStrides := broadcastStrides(as, out)
	bStrides := broadcastStrides(bs, out)
	idx := make([]int, len(out))
	for i := 0; i < n; i++ {
		ai, bi := 0, 0
		for d, v := range idx {
			ai += v * aStrides[d]
			bi += v * bStrides[d]
		}
		res[i] = f(a[ai], b[bi])
		nextIndex(idx, out)
	}
	return res
}

// Map applies f to every element of a float32 tensor.
func Map(t *Tensor, f func(float32) float32) (*Tensor, error) {
	if t.dtype != Float32 {
		return nil, fmt.Errorf("element-wise function requires float32, got %s", t.dtype)
	}
	out := &Tensor{dtype: Float32, shape: t.shape.Clone(), f32: make([]float32, len(t.f32))}
	parallel.Range(len(t.f32), workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out.f32[i] = f(t.f32[i])
		}
	})
	return out, nil
}

// Reduce sums (or averages, when mean is set) a float32 tensor over axes.
// Empty axes reduce over every dimension.
func Reduce(t *Tensor, axes []int, keepDims, mean bool) (*Tensor, error) {
	if t.dtype != Float32 {
		return nil, fmt.Errorf("reduce requires float32, got %s", t.dtype)
	}
	rank := t.Rank()
	reduced := make([]bool, rank)
	if len(axes) == 0 {
		for i := range reduced {
			reduced[i] = true
		}
	}
	for _, a := range axes {
		ax, err := normalizeAxis(a, rank)
		if err != nil {
			return nil, fmt.Errorf("reduce: %w", err)
		}
		reduced[ax] = true
	}

	kept := make(Shape, rank)
	count := 1
	for i, d := range t.shape {
		if reduced[i] {
			kept[i] = 1
			count *= d
		} else {
			kept[i] = d
		}
	}
	keptStrides := kept.ComputeStrides()

	sums := make([]float32, kept.NumElements())
	idx := make([]int, rank)
	for _, v := range t.f32 {
		off := 0
		for d, i := range idx {
			if !reduced[d] {
				off += i * keptStrides[d]
			}
		}
		sums[off] += v
		nextIndex(idx, t.shape)
	}
	if mean && count > 0 {
		for i := range sums {
			sums[i] /= float32(count)
		}
	}

	shape := kept
	if !keepDims {
		shape = make(Shape, 0, rank)
		for i, d := range t.shape {
			if !reduced[i] {
				shape = append(shape, d)
			}
		}
	}
	return FromFloat32(shape, sums)
}

// Softmax normalizes a float32 tensor along axis. With logarithm set it
// returns log-softmax.
func Softmax(t *Tensor, axis int, logarithm bool) (*Tensor, error) {
	if t.dtype != Float32 {
		return nil, fmt.Errorf("softmax requires float32, got %s", t.dtype)
	}
	ax, err := normalizeAxis(axis, t.Rank())
	if err != nil {
		return nil, fmt.Errorf("softmax: %w", err)
	}

	outer := product(t.shape[:ax])
	dim := t.shape[ax]
	inner := product(t.shape[ax+1:])
	out := make([]float32, len(t.f32))

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dim*inner + in
			maxVal := float32(math.Inf(-1))
			for k := 0; k < dim; k++ {
				maxVal = max(maxVal, t.f32[base+k*inner])
			}
			var sum float64
			for k := 0; k < dim; k++ {
				sum += math.Exp(float64(t.f32[base+k*inner] - maxVal))
			}
			for k := 0; k < dim; k++ {
				shifted := float64(t.f32[base+k*inner] - maxVal)
				if logarithm {
					out[base+k*inner] = float32(shifted - math.Log(sum))
				} else {
					out[base+k*inner] = float32(math.Exp(shifted) / sum)
				}
			}
		}
	}
	return FromFloat32(t.shape, out)
}
