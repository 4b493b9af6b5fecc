// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config bounds the fan-out of Range.
type Config struct {
	Workers  int // Maximum goroutines per call. Values below 2 run inline.
	MinChunk int // Ranges shorter than this per worker run inline.
}

// Default uses one worker per schedulable CPU.
func Default() Config {
	return Config{
		Workers:  runtime.GOMAXPROCS(0),
		MinChunk: 1 << 14,
	}
}

// Range calls f on disjoint [lo, hi) chunks covering [0, n) and returns once
// every call has finished. f must be safe to run concurrently on disjoint
// chunks.
func Range(n int, cfg Config, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	chunk := max(cfg.MinChunk, 1)
	workers := min(cfg.Workers, (n+chunk-1)/chunk)
	if workers < 2 {
		f(0, n)
		return
	}

	size := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(lo, hi)
		}()
	}
	wg.Wait()
}
