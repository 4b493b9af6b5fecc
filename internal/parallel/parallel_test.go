package parallel

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type span struct{ lo, hi int }

func collect(n int, cfg Config) []span {
	var (
		mu    sync.Mutex
		spans []span
	)
	Range(n, cfg, func(lo, hi int) {
		mu.Lock()
		spans = append(spans, span{lo, hi})
		mu.Unlock()
	})
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	return spans
}

func TestRangeCoversEveryIndexOnce(t *testing.T) {
	for _, n := range []int{1, 7, 100, 1001} {
		spans := collect(n, Config{Workers: 4, MinChunk: 10})

		next := 0
		for _, s := range spans {
			assert.Equal(t, next, s.lo)
			assert.Greater(t, s.hi, s.lo)
			next = s.hi
		}
		assert.Equal(t, n, next)
		assert.LessOrEqual(t, len(spans), 4)
	}
}

func TestRangeSmallInputRunsInline(t *testing.T) {
	assert.Equal(t, []span{{0, 50}}, collect(50, Config{Workers: 8, MinChunk: 64}))
	assert.Equal(t, []span{{0, 5000}}, collect(5000, Config{Workers: 1, MinChunk: 1}))
}

func TestRangeEmpty(t *testing.T) {
	assert.Empty(t, collect(0, Default()))
}

func TestRangeWritesDisjointChunks(t *testing.T) {
	out := make([]int, 10000)
	Range(len(out), Config{Workers: 8, MinChunk: 100}, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = i * 2
		}
	})
	for i, v := range out {
		if v != i*2 {
			t.Fatalf("out[%d] = %d", i, v)
		}
	}
}
