// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collide

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/par"
)

// contact resolution methods
const (
	Projection = "projection" // position projection plus velocity filter after the advance
	Penalty    = "penalty"    // spring-damper forces added before the advance
)

// Params holds contact parameters
type Params struct {
	Method      string  `yaml:"method" json:"method"`           // "projection" or "penalty"
	Offset      float64 `yaml:"offset" json:"offset"`           // contact thickness added to the collider surface
	Friction    float64 `yaml:"friction" json:"friction"`       // Coulomb coefficient μ
	Restitution float64 `yaml:"restitution" json:"restitution"` // coefficient of restitution e ∈ [0,1]
	Passes      int     `yaml:"passes" json:"passes"`           // relaxation passes over all colliders (projection)
	Ke          float64 `yaml:"ke" json:"ke"`                   // normal stiffness (penalty)
	Kd          float64 `yaml:"kd" json:"kd"`                   // normal damping (penalty)
	Kf          float64 `yaml:"kf" json:"kf"`                   // friction stiffness (penalty)
	Self        bool    `yaml:"self" json:"self"`               // enable self-collision
}

// DefaultParams returns the default contact parameters
func DefaultParams() Params {
	return Params{
		Method:      Projection,
		Offset:      0,
		Friction:    0.5,
		Restitution: 0,
		Passes:      4,
		Ke:          1e3,
		Kd:          0,
		Kf:          1e3,
	}
}

// Check checks parameters
func (o *Params) Check() (err error) {
	if o.Method != Projection && o.Method != Penalty {
		return chk.Err("contact method %q is invalid. options are %q and %q", o.Method, Projection, Penalty)
	}
	if o.Offset < 0 || o.Friction < 0 || o.Ke < 0 || o.Kd < 0 || o.Kf < 0 {
		return chk.Err("contact parameters must be non-negative: offset=%g friction=%g ke=%g kd=%g kf=%g", o.Offset, o.Friction, o.Ke, o.Kd, o.Kf)
	}
	if o.Restitution < 0 || o.Restitution > 1 {
		return chk.Err("restitution must be in [0,1]. %g is invalid", o.Restitution)
	}
	if o.Passes < 1 {
		o.Passes = 1
	}
	return
}

// Resolver applies contacts between vertices and a set of colliders
type Resolver struct {
	Prms      Params     // parameters
	Colliders []Collider // initialised colliders
	Nw        int        // number of workers
	count     []int      // [nw] contacts found by each worker
}

// NewResolver returns a new resolver
func NewResolver(prms Params, colliders []Collider, nw int) (o *Resolver) {
	o = &Resolver{Prms: prms, Colliders: colliders, Nw: par.Workers(nw)}
	o.count = make([]int, o.Nw)
	return
}

// Project moves vertices found within Offset of a collider back to its surface and
// filters their velocities: the inward normal component is reflected with restitution
// and the tangential part is reduced by Coulomb friction. Each vertex only touches its
// own data, so the loop runs unordered in parallel.
//  fixed -- [optional] vertices that must not be modified
// Returns the number of vertices in contact.
func (o *Resolver) Project(x, v []mgl64.Vec3, fixed []bool) (ncontacts int) {
	if len(o.Colliders) == 0 {
		return 0
	}
	for w := range o.count {
		o.count[w] = 0
	}
	par.For(len(x), o.Nw, func(lo, hi, w int) {
		for i := lo; i < hi; i++ {
			if fixed != nil && fixed[i] {
				continue
			}
			if o.projectVertex(&x[i], &v[i]) {
				o.count[w]++
			}
		}
	})
	for _, c := range o.count {
		ncontacts += c
	}
	return
}

// projectVertex resolves one vertex
func (o *Resolver) projectVertex(x, v *mgl64.Vec3) (touched bool) {
	μ, e, δ := o.Prms.Friction, o.Prms.Restitution, o.Prms.Offset
	for pass := 0; pass < o.Prms.Passes; pass++ {
		moved := false
		for _, c := range o.Colliders {
			φ, n := c.Query(*x)
			if φ >= δ {
				continue
			}
			*x = x.Add(n.Mul(δ - φ))
			moved, touched = true, true
			vc := c.Velocity(*x)
			vr := v.Sub(vc)
			vn := vr.Dot(n)
			if vn >= 0 {
				continue
			}
			vt := vr.Sub(n.Mul(vn))
			Δvn := -(1.0 + e) * vn
			if lt := vt.Len(); lt > 0 {
				vt = vt.Mul(math.Max(0, 1.0-μ*Δvn/lt))
			}
			*v = vc.Add(n.Mul(-e * vn)).Add(vt)
		}
		if !moved {
			break
		}
	}
	return
}

// AddPenalty adds spring-damper contact forces to f
//
//   c  = min(φ - offset, 0)
//   fn = ke・c + kd・min(vn, 0)
//   ft = min(kf・|vt|, μ・|fn|)
//   f += -(n・fn + t・ft)         t = vt / |vt|
//
//  Returns the number of vertices in contact.
func (o *Resolver) AddPenalty(f, x, v []mgl64.Vec3, fixed []bool) (ncontacts int) {
	if len(o.Colliders) == 0 {
		return 0
	}
	for w := range o.count {
		o.count[w] = 0
	}
	p := o.Prms
	par.For(len(x), o.Nw, func(lo, hi, w int) {
		for i := lo; i < hi; i++ {
			if fixed != nil && fixed[i] {
				continue
			}
			for _, col := range o.Colliders {
				φ, n := col.Query(x[i])
				c := math.Min(φ-p.Offset, 0)
				if c >= 0 {
					continue
				}
				o.count[w]++
				vr := v[i].Sub(col.Velocity(x[i]))
				vn := vr.Dot(n)
				fn := p.Ke*c + p.Kd*math.Min(vn, 0)
				vt := vr.Sub(n.Mul(vn))
				fc := n.Mul(-fn)
				if vs := vt.Len(); vs > 0 {
					ft := math.Min(p.Kf*vs, p.Friction*math.Abs(fn))
					fc = fc.Sub(vt.Mul(ft / vs))
				}
				f[i] = f[i].Add(fc)
			}
		}
	})
	for _, c := range o.count {
		ncontacts += c
	}
	return
}

// Penetration returns the deepest penetration (positive) of x into the colliders
func (o *Resolver) Penetration(x []mgl64.Vec3) (depth float64) {
	for _, c := range o.Colliders {
		for _, p := range x {
			φ, _ := c.Query(p)
			depth = math.Max(depth, -φ)
		}
	}
	return
}
