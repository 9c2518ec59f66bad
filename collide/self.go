// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/msh"
	"github.com/gofem/softfem/par"
)

// SelfCollider detects surface vertices inside tetrahedra of the same body and pushes
// them out through the nearest face. Corrections are computed from a snapshot of the
// positions and applied afterwards (Jacobi style), so the result does not depend on
// the order of the vertices.
type SelfCollider struct {
	Tets  [][4]int // connectivity
	Surf  []int    // surface vertices
	Nw    int      // number of workers
	Cell  float64  // spatial hash cell size
	Relax float64  // fraction of the correction applied in each call; default 1

	// auxiliary
	grid  map[[3]int][]int32 // spatial hash of element bounds
	snap  []mgl64.Vec3       // positions snapshot
	corr  []mgl64.Vec3       // [nsurf] corrections
	ncorr []int              // [nw] number of corrected vertices per worker
}

// NewSelfCollider returns a new self-collision handler for mesh m
func NewSelfCollider(m *msh.Mesh, nw int) (o *SelfCollider) {
	o = new(SelfCollider)
	o.Tets = m.Tets
	o.Nw = par.Workers(nw)
	o.Relax = 1
	seen := make([]bool, m.Nverts())
	for _, tri := range m.Surface() {
		for _, v := range tri {
			if !seen[v] {
				seen[v] = true
				o.Surf = append(o.Surf, v)
			}
		}
	}
	var lsum float64
	for e := range m.Tets {
		lsum += math.Cbrt(m.Vol[e] * 6.0)
	}
	o.Cell = math.Max(lsum/float64(m.Ntets()), 1e-6)
	o.snap = make([]mgl64.Vec3, m.Nverts())
	o.corr = make([]mgl64.Vec3, len(o.Surf))
	o.ncorr = make([]int, o.Nw)
	return
}

// Resolve pushes penetrating surface vertices out and removes the inward part of
// their velocities. Returns the number of corrected vertices.
//  fixed -- [optional] vertices that must not be modified
func (o *SelfCollider) Resolve(x, v []mgl64.Vec3, fixed []bool) (ncorrected int) {
	copy(o.snap, x)
	o.build()
	for w := range o.ncorr {
		o.ncorr[w] = 0
	}
	par.For(len(o.Surf), o.Nw, func(lo, hi, w int) {
		for s := lo; s < hi; s++ {
			o.corr[s] = mgl64.Vec3{}
			i := o.Surf[s]
			if fixed != nil && fixed[i] {
				continue
			}
			if d, ok := o.correction(i); ok {
				o.corr[s] = d
				o.ncorr[w]++
			}
		}
	})
	par.For(len(o.Surf), o.Nw, func(lo, hi, _ int) {
		for s := lo; s < hi; s++ {
			d := o.corr[s]
			l := d.Len()
			if l == 0 {
				continue
			}
			i := o.Surf[s]
			x[i] = x[i].Add(d.Mul(o.Relax))
			n := d.Mul(1.0 / l)
			if vn := v[i].Dot(n); vn < 0 {
				v[i] = v[i].Sub(n.Mul(vn))
			}
		}
	})
	for _, c := range o.ncorr {
		ncorrected += c
	}
	return
}

// build fills the spatial hash with element bounds
func (o *SelfCollider) build() {
	if o.grid == nil {
		o.grid = make(map[[3]int][]int32)
	}
	for k, l := range o.grid {
		o.grid[k] = l[:0]
	}
	for e, t := range o.Tets {
		lo, hi := o.snap[t[0]], o.snap[t[0]]
		for _, v := range t[1:] {
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], o.snap[v][k])
				hi[k] = math.Max(hi[k], o.snap[v][k])
			}
		}
		a, b := o.key(lo), o.key(hi)
		for i := a[0]; i <= b[0]; i++ {
			for j := a[1]; j <= b[1]; j++ {
				for k := a[2]; k <= b[2]; k++ {
					c := [3]int{i, j, k}
					o.grid[c] = append(o.grid[c], int32(e))
				}
			}
		}
	}
}

func (o *SelfCollider) key(p mgl64.Vec3) (c [3]int) {
	for k := 0; k < 3; k++ {
		c[k] = int(math.Floor(p[k] / o.Cell))
	}
	return
}

// correction computes the displacement moving vertex i out of the deepest tetrahedron containing it
func (o *SelfCollider) correction(i int) (d mgl64.Vec3, found bool) {
	p := o.snap[i]
	best := 1e-9 * o.Cell
	for _, e32 := range o.grid[o.key(p)] {
		t := o.Tets[e32]
		if t[0] == i || t[1] == i || t[2] == i || t[3] == i {
			continue
		}
		x := [4]mgl64.Vec3{o.snap[t[0]], o.snap[t[1]], o.snap[t[2]], o.snap[t[3]]}
		if msh.ShapeMatrix(x[0], x[1], x[2], x[3]).Det() <= 0 {
			continue // inverted elements are handled by the material
		}
		depth, n, inside := faceDepth(p, x)
		if inside && depth > best {
			best, d, found = depth, n.Mul(depth), true
		}
	}
	return
}

// faceDepth returns the distance from p to the nearest face plane of a positively
// oriented tetrahedron and that face's outward normal; inside is false if p is outside
func faceDepth(p mgl64.Vec3, x [4]mgl64.Vec3) (depth float64, n mgl64.Vec3, inside bool) {
	depth = math.Inf(1)
	for _, f := range msh.TetFaces {
		a, b, c := x[f[0]], x[f[1]], x[f[2]]
		nf := b.Sub(a).Cross(c.Sub(a))
		l := nf.Len()
		if l == 0 {
			return 0, n, false
		}
		nf = nf.Mul(1.0 / l)
		s := -nf.Dot(p.Sub(a)) // positive inside
		if s < 0 {
			return 0, n, false
		}
		if s < depth {
			depth, n = s, nf
		}
	}
	return depth, n, true
}
