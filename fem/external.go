// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/par"
)

// Pin fixes vertices at their current positions with zero velocity
func (o *Body) Pin(verts ...int) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err = o.checkVerts(verts); err != nil {
		return
	}
	for _, i := range verts {
		o.pinned[i] = true
		o.pinX[i] = o.State.X[i]
		o.State.V[i] = mgl64.Vec3{}
	}
	o.updateFixed()
	return
}

// Unpin releases vertices
func (o *Body) Unpin(verts ...int) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err = o.checkVerts(verts); err != nil {
		return
	}
	for _, i := range verts {
		o.pinned[i] = false
	}
	o.updateFixed()
	return
}

// Pinned returns the ids of pinned vertices in increasing order
func (o *Body) Pinned() (verts []int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, p := range o.pinned {
		if p {
			verts = append(verts, i)
		}
	}
	return
}

// SetTargets makes vertices kinematic: during the next steps they move linearly from
// their position at the beginning of each frame to the target position at its end.
// Pins take precedence over targets.
func (o *Body) SetTargets(targets map[int]mgl64.Vec3) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, x := range targets {
		if i < 0 || i >= len(o.pinned) {
			return chk.Err("target vertex %d is out of range [0,%d)", i, len(o.pinned))
		}
		if !finite(x) {
			return chk.Err("target of vertex %d is not finite: %v", i, x)
		}
	}
	for i, x := range targets {
		o.targets[i] = x
	}
	o.updateFixed()
	return
}

// ClearTargets releases all kinematic vertices
func (o *Body) ClearTargets() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.targets = make(map[int]mgl64.Vec3)
	o.updateFixed()
}

// external adds gravity to free vertices and zeroes the force on fixed ones
func (o *Body) external(f []mgl64.Vec3, g mgl64.Vec3) {
	par.For(len(f), o.nw, func(lo, hi, w int) {
		for i := lo; i < hi; i++ {
			if o.fixed[i] {
				f[i] = mgl64.Vec3{}
				continue
			}
			f[i] = f[i].Add(g.Mul(o.Mesh.Mass[i]))
		}
	})
}

// enforce sets positions and velocities of pinned and kinematic vertices
//  frac -- fraction of the frame completed
//  dt   -- frame time step
func (o *Body) enforce(frac, dt float64) {
	s := o.State
	for i, x := range o.targets {
		if o.pinned[i] {
			continue
		}
		d := x.Sub(o.tstart[i])
		s.X[i] = o.tstart[i].Add(d.Mul(frac))
		s.V[i] = d.Mul(1.0 / dt)
	}
	for i, p := range o.pinned {
		if p {
			s.X[i] = o.pinX[i]
			s.V[i] = mgl64.Vec3{}
		}
	}
}

// updateFixed recomputes the fixed flags
func (o *Body) updateFixed() {
	for i := range o.fixed {
		_, kinematic := o.targets[i]
		o.fixed[i] = o.pinned[i] || kinematic
	}
}

// sortedTargets returns the kinematic vertices in increasing order
func (o *Body) sortedTargets() (verts []int) {
	for i := range o.targets {
		verts = append(verts, i)
	}
	sort.Ints(verts)
	return
}

// checkVerts checks vertex ids
func (o *Body) checkVerts(verts []int) error {
	for _, i := range verts {
		if i < 0 || i >= len(o.pinned) {
			return chk.Err("vertex %d is out of range [0,%d)", i, len(o.pinned))
		}
	}
	return nil
}

// finite tells whether all components are finite
func finite(x mgl64.Vec3) bool {
	for _, c := range x {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
