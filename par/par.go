// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package par implements the data-parallel map/reduce helpers used by the solver.
// Work is split into contiguous chunks, one per worker; chunk boundaries only depend
// on the number of items and workers, so reductions over per-worker buffers are
// reproducible for a fixed worker count.
package par

import (
	"runtime"
	"sync"
)

// MinChunk is the smallest number of items handed to a goroutine.
// Smaller loops run on the calling goroutine.
var MinChunk = 64

// Workers returns the number of workers to use for a requested value;
// nw <= 0 means GOMAXPROCS
func Workers(nw int) int {
	if nw <= 0 {
		nw = runtime.GOMAXPROCS(0)
	}
	if nw < 1 {
		nw = 1
	}
	return nw
}

// Chunk returns the range [lo,hi) of items handled by worker w
func Chunk(n, nw, w int) (lo, hi int) {
	size := n / nw
	rem := n % nw
	lo = w*size + min(w, rem)
	hi = lo + size
	if w < rem {
		hi++
	}
	return
}

// For runs fcn over [0,n) split into nw contiguous chunks.
//  fcn -- receives the chunk [lo,hi) and the worker index w in [0,nw)
// Worker w always receives the same chunk for the same (n,nw).
func For(n, nw int, fcn func(lo, hi, w int)) {
	if n <= 0 {
		return
	}
	nw = Workers(nw)
	if nw > n {
		nw = n
	}
	if nw == 1 || n < MinChunk {
		for w := 0; w < nw; w++ {
			lo, hi := Chunk(n, nw, w)
			fcn(lo, hi, w)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(nw)
	for w := 0; w < nw; w++ {
		lo, hi := Chunk(n, nw, w)
		go func(lo, hi, w int) {
			defer wg.Done()
			fcn(lo, hi, w)
		}(lo, hi, w)
	}
	wg.Wait()
}

// Any runs pred over [0,n) in parallel and returns the smallest index for which pred
// returned true, or -1
func Any(n, nw int, pred func(i int) bool) int {
	if n <= 0 {
		return -1
	}
	nw = Workers(nw)
	if nw > n {
		nw = n
	}
	first := make([]int, nw)
	for w := range first {
		first[w] = -1
	}
	For(n, nw, func(lo, hi, w int) {
		for i := lo; i < hi; i++ {
			if pred(i) {
				first[w] = i
				return
			}
		}
	})
	for w := 0; w < nw; w++ {
		if first[w] >= 0 {
			return first[w]
		}
	}
	return -1
}
