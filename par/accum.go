// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package par

import "github.com/go-gl/mathgl/mgl64"

// Accum implements a per-vertex accumulator for scatter-add operations executed by
// many workers. Each worker owns a private buffer; Reduce gathers the buffers in
// worker order. No locks or atomics are needed during the scatter phase.
type Accum struct {
	Nw   int            // number of workers
	Out  []mgl64.Vec3   // [n] reduced values
	bufs [][]mgl64.Vec3 // [nw][n] per-worker buffers
}

// NewAccum returns a new accumulator for n items and nw workers
func NewAccum(n, nw int) (o *Accum) {
	o = new(Accum)
	o.Nw = Workers(nw)
	o.Out = make([]mgl64.Vec3, n)
	o.bufs = make([][]mgl64.Vec3, o.Nw)
	for w := 0; w < o.Nw; w++ {
		o.bufs[w] = make([]mgl64.Vec3, n)
	}
	return
}

// Buf returns the private buffer of worker w
func (o *Accum) Buf(w int) []mgl64.Vec3 {
	return o.bufs[w]
}

// Zero clears all buffers
func (o *Accum) Zero() {
	For(len(o.Out), o.Nw, func(lo, hi, _ int) {
		for w := 0; w < o.Nw; w++ {
			b := o.bufs[w]
			for i := lo; i < hi; i++ {
				b[i] = mgl64.Vec3{}
			}
		}
		for i := lo; i < hi; i++ {
			o.Out[i] = mgl64.Vec3{}
		}
	})
}

// Reduce sums all worker buffers into Out
func (o *Accum) Reduce() {
	For(len(o.Out), o.Nw, func(lo, hi, _ int) {
		for i := lo; i < hi; i++ {
			var s mgl64.Vec3
			for w := 0; w < o.Nw; w++ {
				s = s.Add(o.bufs[w][i])
			}
			o.Out[i] = s
		}
	})
}

// MatAccum is the 3×3 block version of Accum
type MatAccum struct {
	Nw   int
	Out  []mgl64.Mat3
	bufs [][]mgl64.Mat3
}

// NewMatAccum returns a new block accumulator
func NewMatAccum(n, nw int) (o *MatAccum) {
	o = new(MatAccum)
	o.Nw = Workers(nw)
	o.Out = make([]mgl64.Mat3, n)
	o.bufs = make([][]mgl64.Mat3, o.Nw)
	for w := 0; w < o.Nw; w++ {
		o.bufs[w] = make([]mgl64.Mat3, n)
	}
	return
}

// Buf returns the private buffer of worker w
func (o *MatAccum) Buf(w int) []mgl64.Mat3 {
	return o.bufs[w]
}

// Zero clears all buffers
func (o *MatAccum) Zero() {
	For(len(o.Out), o.Nw, func(lo, hi, _ int) {
		for w := 0; w < o.Nw; w++ {
			b := o.bufs[w]
			for i := lo; i < hi; i++ {
				b[i] = mgl64.Mat3{}
			}
		}
		for i := lo; i < hi; i++ {
			o.Out[i] = mgl64.Mat3{}
		}
	})
}

// Reduce sums all worker buffers into Out
func (o *MatAccum) Reduce() {
	For(len(o.Out), o.Nw, func(lo, hi, _ int) {
		for i := lo; i < hi; i++ {
			var s mgl64.Mat3
			for w := 0; w < o.Nw; w++ {
				s = s.Add(o.bufs[w][i])
			}
			o.Out[i] = s
		}
	})
}
