// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/ele"
	"github.com/gofem/softfem/par"
)

// Symplectic implements the semi-implicit (symplectic) Euler method
//   v ← (v + h・f/m)・decay
//   x ← x + h・v
type Symplectic struct {
	mass []float64
	nw   int
}

// add integrator to factory
func init() {
	integrators["symplectic"] = func() Integrator { return new(Symplectic) }
}

// Init initialises integrator
func (o *Symplectic) Init(b *Body) (err error) {
	o.mass = b.Mesh.Mass
	o.nw = b.nw
	return
}

// Explicit returns true
func (o *Symplectic) Explicit() bool { return true }

// Advance advances free vertices
func (o *Symplectic) Advance(s *ele.State, f []mgl64.Vec3, _ []mgl64.Mat3, fixed []bool, h, decay float64) (err error) {
	par.For(len(s.X), o.nw, func(lo, hi, _ int) {
		for i := lo; i < hi; i++ {
			if fixed[i] {
				continue
			}
			s.V[i] = s.V[i].Add(f[i].Mul(h / o.mass[i])).Mul(decay)
			s.X[i] = s.X[i].Add(s.V[i].Mul(h))
		}
	})
	return
}
