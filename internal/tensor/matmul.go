package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// MatMul multiplies float32 tensors with NumPy matmul semantics for the
// shapes exported tabular models use: 1-D operands are promoted to matrices,
// and a rank > 2 left operand is treated as a stack of rows when the right
// operand is 2-D. Batched operands must share their leading dimensions.
func MatMul(a, b *Tensor) (*Tensor, error) {
	if a.dtype != Float32 || b.dtype != Float32 {
		return nil, fmt.Errorf("matmul requires float32, got %s and %s", a.dtype, b.dtype)
	}
	if a.Rank() == 0 || b.Rank() == 0 {
		return nil, fmt.Errorf("matmul: scalar operands not allowed")
	}

	as, bs := a.shape, b.shape
	squeezeRows, squeezeCols := false, false
	if len(as) == 1 {
		as = Shape{1, as[0]}
		squeezeRows = true
	}
	if len(bs) == 1 {
		bs = Shape{bs[0], 1}
		squeezeCols = true
	}

	k := as[len(as)-1]
	if bs[len(bs)-2] != k {
		return nil, fmt.Errorf("matmul: inner dimensions differ: %v x %v", a.shape, b.shape)
	}
	m := as[len(as)-2]
	n := bs[len(bs)-1]

	var outShape Shape
	var batches int
	switch {
	case len(bs) == 2:
		// Fold every leading dimension of a into rows.
		batches = 1
		m = product(as[:len(as)-1])
		outShape = append(as[:len(as)-1].Clone(), n)
	case Shape(as[:len(as)-2]).Equal(bs[:len(bs)-2]):
		batches = product(as[:len(as)-2])
		outShape = append(as[:len(as)-2].Clone(), m, n)
	default:
		return nil, fmt.Errorf("matmul: batch dimensions differ: %v x %v", a.shape, b.shape)
	}

	out := make([]float32, batches*m*n)
	for i := 0; i < batches; i++ {
		gemm(blas.NoTrans, blas.NoTrans, 1,
			a.f32[i*m*k:(i+1)*m*k], m, k,
			b.f32[i*k*n:(i+1)*k*n], k, n,
			out[i*m*n:(i+1)*m*n])
	}

	switch {
	case squeezeRows && squeezeCols:
		outShape = outShape[:len(outShape)-2]
	case squeezeRows:
		outShape = append(outShape[:len(outShape)-2], n)
	case squeezeCols:
		outShape = outShape[:len(outShape)-1]
	}
	return FromFloat32(outShape, out)
}

// Gemm computes alpha*A'*B' + beta*C for 2-D A and B, where ' is an optional
// transpose and C broadcasts to the (M, N) result.
func Gemm(a, b, c *Tensor, alpha, beta float32, transA, transB bool) (*Tensor, error) {
	if a.dtype != Float32 || b.dtype != Float32 {
		return nil, fmt.Errorf("gemm requires float32, got %s and %s", a.dtype, b.dtype)
	}
	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, fmt.Errorf("gemm requires 2-D operands, got %v and %v", a.shape, b.shape)
	}

	ta, tb := blas.NoTrans, blas.NoTrans
	m, k := a.shape[0], a.shape[1]
	if transA {
		ta = blas.Trans
		m, k = k, m
	}
	kb, n := b.shape[0], b.shape[1]
	if transB {
		tb = blas.Trans
		kb, n = n, kb
	}
	if k != kb {
		return nil, fmt.Errorf("gemm: inner dimensions differ: %v x %v (transA=%t, transB=%t)",
			a.shape, b.shape, transA, transB)
	}

	out := make([]float32, m*n)
	gemm(ta, tb, alpha, a.f32, a.shape[0], a.shape[1], b.f32, b.shape[0], b.shape[1], out)
	result, err := FromFloat32(Shape{m, n}, out)
	if err != nil {
		return nil, err
	}

	if c == nil || beta == 0 {
		return result, nil
	}
	if beta != 1 {
		if c, err = Map(c, func(v float32) float32 { return v * beta }); err != nil {
			return nil, fmt.Errorf("gemm: %w", err)
		}
	}
	return Binary(OpAdd, result, c)
}

// gemm writes op(A)*op(B) scaled by alpha into c. A is stored as ar x ac and
// B as br x bc, row-major; c must hold the (M, N) product.
func gemm(ta, tb blas.Transpose, alpha float32, a []float32, ar, ac int, b []float32, br, bc int, c []float32) {
	m, k := ar, ac
	if ta == blas.Trans {
		m, k = ac, ar
	}
	n := bc
	if tb == blas.Trans {
		n = br
	}
	if m == 0 || n == 0 || k == 0 {
		return
	}
	blas32.Gemm(ta, tb, alpha,
		blas32.General{Rows: ar, Cols: ac, Stride: ac, Data: a},
		blas32.General{Rows: br, Cols: bc, Stride: bc, Data: b},
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: c})
}
