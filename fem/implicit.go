// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/ele"
	"github.com/gofem/softfem/mdl/solid"
	"github.com/gofem/softfem/par"
)

// Implicit implements the backward Euler method linearised once per substep
//
//   (M + h・D + h²・K) Δv = h・(f - h・K・v)
//   v ← (v + Δv)・decay
//   x ← x + h・v
//
//  with K = -∂f/∂x and D = -∂f/∂v. The linear system is solved by conjugate gradients
//  without assembling a global matrix; element matrices are applied directly. The
//  iterations stop early on negative curvature, which may appear for strongly
//  compressed elements.
type Implicit struct {
	tets  []*ele.Tet
	mass  []float64
	nw    int
	tol   float64
	maxIt int

	// workspace
	K2  [][12][12]float64 // [ntets] h²・K
	Dh  [][12][12]float64 // [ntets] h・D
	acc *par.Accum        // scatter buffers
	b   la.Vector         // right-hand side
	dv  la.Vector         // Δv
	r   la.Vector         // residual
	z   la.Vector         // preconditioned residual
	p   la.Vector         // search direction
	ap  la.Vector         // A・p
	dia la.Vector         // Jacobi preconditioner
	dd  la.Vector         // diagonal of D
	u   []mgl64.Vec3      // search direction as vectors

	// statistics
	NitLast int // number of iterations in the last solve
}

// add integrator to factory
func init() {
	integrators["implicit"] = func() Integrator { return new(Implicit) }
}

// Init initialises integrator
func (o *Implicit) Init(b *Body) (err error) {
	if !solid.HasTangent(b.Mdl) {
		return chk.Err("implicit integrator requires a material with tangent; model %q has none", b.Mat.Model)
	}
	o.tets = b.Tets
	o.mass = b.Mesh.Mass
	o.nw = b.nw
	o.tol = b.stg.CgTol
	o.maxIt = b.stg.CgMaxIt
	o.K2 = make([][12][12]float64, len(o.tets))
	o.Dh = make([][12][12]float64, len(o.tets))
	n := len(o.mass)
	o.acc = par.NewAccum(n, o.nw)
	o.b = la.NewVector(3 * n)
	o.dv = la.NewVector(3 * n)
	o.r = la.NewVector(3 * n)
	o.z = la.NewVector(3 * n)
	o.p = la.NewVector(3 * n)
	o.ap = la.NewVector(3 * n)
	o.dia = la.NewVector(3 * n)
	o.u = make([]mgl64.Vec3, n)

	// D does not depend on the state
	o.dd = la.NewVector(3 * n)
	var D [12][12]float64
	for _, tet := range o.tets {
		tet.Damping(&D)
		for a, vid := range tet.Verts {
			for k := 0; k < 3; k++ {
				o.dd[3*vid+k] += D[3*a+k][3*a+k]
			}
		}
	}
	return
}

// Explicit returns false
func (o *Implicit) Explicit() bool { return false }

// Advance advances free vertices
func (o *Implicit) Advance(s *ele.State, f []mgl64.Vec3, jac []mgl64.Mat3, fixed []bool, h, decay float64) (err error) {

	// element matrices
	par.For(len(o.tets), o.nw, func(lo, hi, _ int) {
		for e := lo; e < hi; e++ {
			tet := o.tets[e]
			tet.Stiffness(&o.K2[e], tet.Gather(s.X))
			tet.Damping(&o.Dh[e])
			for i := 0; i < 12; i++ {
				for j := 0; j < 12; j++ {
					o.K2[e][i][j] *= h * h
					o.Dh[e][i][j] *= h
				}
			}
		}
	})

	// right-hand side: b = h・f - h²・K・v
	o.apply(o.b, s.V, fixed, true)
	for i := range o.mass {
		for k := 0; k < 3; k++ {
			I := 3*i + k
			if fixed[i] {
				o.b[I] = 0
				continue
			}
			o.b[I] = h*f[i][k] - o.b[I]
		}
	}

	// Jacobi preconditioner
	o.diagonal(jac, fixed, h)

	// solve
	o.solve(fixed)

	// update
	par.For(len(s.X), o.nw, func(lo, hi, _ int) {
		for i := lo; i < hi; i++ {
			if fixed[i] {
				continue
			}
			Δv := mgl64.Vec3{o.dv[3*i], o.dv[3*i+1], o.dv[3*i+2]}
			s.V[i] = s.V[i].Add(Δv).Mul(decay)
			s.X[i] = s.X[i].Add(s.V[i].Mul(h))
		}
	})
	return
}

// solve runs preconditioned conjugate gradients on (M + A)・dv = b
func (o *Implicit) solve(fixed []bool) {
	for I := range o.dv {
		o.dv[I] = 0
	}
	copy(o.r, o.b)
	bnorm := math.Sqrt(la.VecDot(o.b, o.b))
	o.NitLast = 0
	if bnorm == 0 {
		return
	}
	o.precond()
	copy(o.p, o.z)
	rz := la.VecDot(o.r, o.z)
	for it := 0; it < o.maxIt; it++ {
		o.NitLast = it + 1
		o.matvec(o.ap, o.p, fixed)
		pAp := la.VecDot(o.p, o.ap)
		if pAp <= 0 {
			if it == 0 {
				o.explicitFallback()
			}
			return
		}
		α := rz / pAp
		for I := range o.dv {
			o.dv[I] += α * o.p[I]
			o.r[I] -= α * o.ap[I]
		}
		if math.Sqrt(la.VecDot(o.r, o.r)) <= o.tol*bnorm {
			return
		}
		o.precond()
		rzNew := la.VecDot(o.r, o.z)
		β := rzNew / rz
		rz = rzNew
		for I := range o.p {
			o.p[I] = o.z[I] + β*o.p[I]
		}
	}
}

// explicitFallback sets dv = M⁻¹・b
func (o *Implicit) explicitFallback() {
	for i, m := range o.mass {
		for k := 0; k < 3; k++ {
			o.dv[3*i+k] = o.b[3*i+k] / m
		}
	}
}

// precond computes z = diag⁻¹・r
func (o *Implicit) precond() {
	for I := range o.r {
		o.z[I] = o.r[I] / o.dia[I]
	}
}

// matvec computes y = (M + h・D + h²・K)・p with fixed equations filtered out
func (o *Implicit) matvec(y, p la.Vector, fixed []bool) {
	for i := range o.u {
		o.u[i] = mgl64.Vec3{p[3*i], p[3*i+1], p[3*i+2]}
	}
	o.apply(y, o.u, fixed, false)
	for i, m := range o.mass {
		for k := 0; k < 3; k++ {
			I := 3*i + k
			if fixed[i] {
				y[I] = 0
				continue
			}
			y[I] += m * p[I]
		}
	}
}

// apply computes y = h²・K・u (stiffOnly) or y = (h・D + h²・K)・u by scattering element products
func (o *Implicit) apply(y la.Vector, u []mgl64.Vec3, fixed []bool, stiffOnly bool) {
	o.acc.Zero()
	par.For(len(o.tets), o.nw, func(lo, hi, w int) {
		buf := o.acc.Buf(w)
		for e := lo; e < hi; e++ {
			tet := o.tets[e]
			var ue [12]float64
			for a, vid := range tet.Verts {
				if fixed[vid] && !stiffOnly {
					continue
				}
				ue[3*a], ue[3*a+1], ue[3*a+2] = u[vid][0], u[vid][1], u[vid][2]
			}
			for a, vid := range tet.Verts {
				var s mgl64.Vec3
				for k := 0; k < 3; k++ {
					I := 3*a + k
					for J := 0; J < 12; J++ {
						s[k] += o.K2[e][I][J] * ue[J]
						if !stiffOnly {
							s[k] += o.Dh[e][I][J] * ue[J]
						}
					}
				}
				buf[vid] = buf[vid].Add(s)
			}
		}
	})
	o.acc.Reduce()
	for i, s := range o.acc.Out {
		y[3*i], y[3*i+1], y[3*i+2] = s[0], s[1], s[2]
	}
}

// diagonal computes the diagonal of M + h・D + h²・K from the assembled blocks of K
func (o *Implicit) diagonal(jac []mgl64.Mat3, fixed []bool, h float64) {
	for i, m := range o.mass {
		for k := 0; k < 3; k++ {
			I := 3*i + k
			d := m + h*o.dd[I]
			if jac != nil {
				d += h * h * jac[i].At(k, k)
			}
			if fixed[i] || d <= 0 {
				d = m
			}
			o.dia[I] = d
		}
	}
}
