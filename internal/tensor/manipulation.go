package tensor

import "fmt"

// Transpose permutes the dimensions of t. An empty perm reverses them.
func Transpose(t *Tensor, perm ...int) (*Tensor, error) {
	rank := t.Rank()
	if len(perm) == 0 {
		perm = make([]int, rank)
		for i := range perm {
			perm[i] = rank - 1 - i
		}
	}
	if len(perm) != rank {
		return nil, fmt.Errorf("transpose: perm %v does not match rank %d", perm, rank)
	}

	seen := make([]bool, rank)
	outShape := make(Shape, rank)
	inStrides := t.shape.ComputeStrides()
	strides := make([]int, rank)
	for i, p := range perm {
		if p < 0 || p >= rank || seen[p] {
			return nil, fmt.Errorf("transpose: invalid perm %v", perm)
		}
		seen[p] = true
		outShape[i] = t.shape[p]
		strides[i] = inStrides[p]
	}

	out := &Tensor{dtype: t.dtype, shape: outShape}
	switch t.dtype {
	case Float32:
		out.f32 = permute(t.f32, outShape, strides)
	case Int64:
		out.i64 = permute(t.i64, outShape, strides)
	}
	return out, nil
}

func permute[T element](src []T, outShape Shape, strides []int) []T {
	n := outShape.NumElements()
	dst := make([]T, n)
	idx := make([]int, len(outShape))
	for i := 0; i < n; i++ {
		off := 0
		for d, v := range idx {
			off += v * strides[d]
		}
		dst[i] = src[off]
		nextIndex(idx, outShape)
	}
	return dst
}

// Concat joins tensors along axis. All inputs must share data type, rank
// and every dimension except axis.
func Concat(axis int, ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("concat requires at least 1 input")
	}
	first := ts[0]
	ax, err := normalizeAxis(axis, first.Rank())
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}

	outShape := first.shape.Clone()
	outShape[ax] = 0
	for _, t := range ts {
		if t.dtype != first.dtype {
			return nil, fmt.Errorf("concat: data type mismatch %s vs %s", first.dtype, t.dtype)
		}
		if t.Rank() != first.Rank() {
			return nil, fmt.Errorf("concat: rank mismatch %v vs %v", first.shape, t.shape)
		}
		for d := range t.shape {
			if d != ax && t.shape[d] != first.shape[d] {
				return nil, fmt.Errorf("concat: shape mismatch %v vs %v on axis %d", first.shape, t.shape, d)
			}
		}
		outShape[ax] += t.shape[ax]
	}

	outer := product(first.shape[:ax])
	inner := product(first.shape[ax+1:])
	out := &Tensor{dtype: first.dtype, shape: outShape}
	switch first.dtype {
	case Float32:
		parts := make([][]float32, len(ts))
		for i, t := range ts {
			parts[i] = t.f32
		}
		out.f32 = concatChunks(parts, ts, ax, outer, inner)
	case Int64:
		parts := make([][]int64, len(ts))
		for i, t := range ts {
			parts[i] = t.i64
		}
		out.i64 = concatChunks(parts, ts, ax, outer, inner)
	}
	return out, nil
}

func concatChunks[T element](parts [][]T, ts []*Tensor, ax, outer, inner int) []T {
	var dst []T
	for o := 0; o < outer; o++ {
		for i, t := range ts {
			chunk := t.shape[ax] * inner
			dst = append(dst, parts[i][o*chunk:(o+1)*chunk]...)
		}
	}
	if dst == nil {
		dst = []T{}
	}
	return dst
}

// Gather selects slices of data along axis using int64 indices.
// Negative indices count from the end of the axis.
func Gather(data, indices *Tensor, axis int) (*Tensor, error) {
	ax, err := normalizeAxis(axis, data.Rank())
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}

	dim := data.shape[ax]
	idx := indices.Ints()
	for i, v := range idx {
		if v < 0 {
			v += dim
		}
		if v < 0 || v >= dim {
			return nil, fmt.Errorf("gather: index %d out of range for axis size %d", idx[i], dim)
		}
		idx[i] = v
	}

	outShape := make(Shape, 0, data.Rank()-1+indices.Rank())
	outShape = append(outShape, data.shape[:ax]...)
	outShape = append(outShape, indices.shape...)
	outShape = append(outShape, data.shape[ax+1:]...)

	outer := product(data.shape[:ax])
	inner := product(data.shape[ax+1:])
	out := &Tensor{dtype: data.dtype, shape: outShape}
	switch data.dtype {
	case Float32:
		out.f32 = gatherChunks(data.f32, idx, outer, dim, inner)
	case Int64:
		out.i64 = gatherChunks(data.i64, idx, outer, dim, inner)
	}
	return out, nil
}

func gatherChunks[T element](src []T, idx []int, outer, dim, inner int) []T {
	dst := make([]T, 0, outer*len(idx)*inner)
	for o := 0; o < outer; o++ {
		for _, i := range idx {
			start := (o*dim + i) * inner
			dst = append(dst, src[start:start+inner]...)
		}
	}
	return dst
}
