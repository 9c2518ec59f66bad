// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/ele"
	"github.com/gofem/softfem/mdl/solid"
	"github.com/gofem/softfem/par"
)

// Assembler computes internal forces of all elements in parallel. Each worker scatters
// into a private buffer; buffers are gathered per vertex in worker order afterwards.
type Assembler struct {
	Tets []*ele.Tet // elements
	Nw   int        // number of workers

	// accumulators
	force *par.Accum    // forces
	jac   *par.MatAccum // diagonal blocks of K = -∂f/∂x
	ener  []float64     // [nw] partial energies
}

// NewAssembler returns a new assembler
func NewAssembler(tets []*ele.Tet, nverts, nw int) (o *Assembler) {
	o = new(Assembler)
	o.Tets = tets
	o.Nw = par.Workers(nw)
	o.force = par.NewAccum(nverts, o.Nw)
	o.ener = make([]float64, o.Nw)
	return
}

// Assemble computes per-vertex internal forces and, if requested, the 3×3 diagonal
// blocks of the stiffness K = -∂f/∂x. The returned slices are owned by the assembler
// and overwritten by the next call. jac is nil if not requested or if the material
// has no tangent.
func (o *Assembler) Assemble(x, v []mgl64.Vec3, withJac bool) (f []mgl64.Vec3, jac []mgl64.Mat3) {
	o.force.Zero()
	withJac = withJac && len(o.Tets) > 0 && o.hasTangent()
	if withJac {
		if o.jac == nil {
			o.jac = par.NewMatAccum(len(x), o.Nw)
		}
		o.jac.Zero()
	}
	par.For(len(o.Tets), o.Nw, func(lo, hi, w int) {
		buf := o.force.Buf(w)
		var jbuf []mgl64.Mat3
		if withJac {
			jbuf = o.jac.Buf(w)
		}
		var fe [4]mgl64.Vec3
		var K [12][12]float64
		for e := lo; e < hi; e++ {
			tet := o.Tets[e]
			xe, ve := tet.Gather(x), tet.Gather(v)
			tet.Forces(&fe, xe, ve)
			for a, vid := range tet.Verts {
				buf[vid] = buf[vid].Add(fe[a])
			}
			if withJac {
				tet.Stiffness(&K, xe)
				for a, vid := range tet.Verts {
					jbuf[vid] = jbuf[vid].Add(block(&K, a, a))
				}
			}
		}
	})
	o.force.Reduce()
	if withJac {
		o.jac.Reduce()
		return o.force.Out, o.jac.Out
	}
	return o.force.Out, nil
}

// Energy returns the total strain energy
func (o *Assembler) Energy(x []mgl64.Vec3) (res float64) {
	for w := range o.ener {
		o.ener[w] = 0
	}
	par.For(len(o.Tets), o.Nw, func(lo, hi, w int) {
		for e := lo; e < hi; e++ {
			o.ener[w] += o.Tets[e].Energy(o.Tets[e].Gather(x))
		}
	})
	for _, ew := range o.ener {
		res += ew
	}
	return
}

// AssembleKb assembles the global stiffness K = -∂f/∂x into a triplet with
// equations numbered as 3・vertex + direction
func (o *Assembler) AssembleKb(Kb *la.Triplet, x []mgl64.Vec3) (err error) {
	Kb.Start()
	for _, tet := range o.Tets {
		err = tet.AddToKb(Kb, tet.Gather(x))
		if err != nil {
			return chk.Err("cannot assemble global stiffness:\n%v", err)
		}
	}
	return
}

// NnzKb returns the number of non-zeros needed by AssembleKb
func (o *Assembler) NnzKb() int {
	return 144 * len(o.Tets)
}

func (o *Assembler) hasTangent() bool {
	for _, tet := range o.Tets {
		if !solid.HasTangent(tet.Mdl) {
			return false
		}
	}
	return true
}

// block extracts the 3×3 block (a,b) of a 12×12 element matrix
func block(K *[12][12]float64, a, b int) (B mgl64.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			B.Set(i, j, K[3*a+i][3*b+j])
		}
	}
	return
}
