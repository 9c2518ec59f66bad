// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ele

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/mdl/solid"
	"github.com/gofem/softfem/msh"
)

// Tet implements the linear (constant strain) tetrahedron
//
//   F  = Ds・Dm⁻¹          Ds = [x1-x0 | x2-x0 | x3-x0]
//   H  = -V・P(F)・Dm⁻ᵀ    f1, f2, f3 = columns of H,  f0 = -(f1 + f2 + f3)
//
//  Stress damping adds kd・Ḟ to P with Ḟ = Vs・Dm⁻¹. The stiffness K = -∂f/∂x and
//  the damping matrix D = -∂f/∂v are 12×12 with equations ordered as {x0,y0,z0,x1,…}.
type Tet struct {
	Id    int         // element index
	Verts [4]int      // vertex indices
	DmInv mgl64.Mat3  // inverse of rest shape matrix
	Vol   float64     // rest volume
	Mdl   solid.Model // material model
	Kd    float64     // stress damping coefficient

	// auxiliary
	B    [4][3]float64 // ∂F_ij/∂x_{a,i} = B[a][j]
	Umap [12]int       // global equation numbers
}

// NewTets allocates all elements of a mesh sharing the same material model
func NewTets(m *msh.Mesh, mdl solid.Model) (tets []*Tet) {
	kd, _ := mdl.Damping()
	tets = make([]*Tet, m.Ntets())
	for e, verts := range m.Tets {
		o := &Tet{Id: e, Verts: verts, DmInv: m.DmInv[e], Vol: m.Vol[e], Mdl: mdl, Kd: kd}
		for j := 0; j < 3; j++ {
			for a := 1; a < 4; a++ {
				o.B[a][j] = o.DmInv.At(a-1, j)
				o.B[0][j] -= o.B[a][j]
			}
		}
		for a, v := range verts {
			for k := 0; k < 3; k++ {
				o.Umap[3*a+k] = 3*v + k
			}
		}
		tets[e] = o
	}
	return
}

// Gather collects the nodal values of this element from a global array
func (o *Tet) Gather(global []mgl64.Vec3) (local [4]mgl64.Vec3) {
	for a, v := range o.Verts {
		local[a] = global[v]
	}
	return
}

// DefGrad computes F (or Ḟ when given velocities)
func (o *Tet) DefGrad(x [4]mgl64.Vec3) mgl64.Mat3 {
	return msh.ShapeMatrix(x[0], x[1], x[2], x[3]).Mul3(o.DmInv)
}

// Forces computes the internal (elastic plus damping) nodal forces
func (o *Tet) Forces(f *[4]mgl64.Vec3, x, v [4]mgl64.Vec3) {
	F := o.DefGrad(x)
	P := o.Mdl.Stress(F)
	if o.Kd > 0 {
		P = P.Add(o.DefGrad(v).Mul(o.Kd))
	}
	H := P.Mul3(o.DmInv.Transpose()).Mul(-o.Vol)
	f[1], f[2], f[3] = H.Col(0), H.Col(1), H.Col(2)
	f[0] = f[1].Add(f[2]).Add(f[3]).Mul(-1)
}

// Energy returns the strain energy V・Ψ(F)
func (o *Tet) Energy(x [4]mgl64.Vec3) float64 {
	return o.Vol * o.Mdl.Energy(o.DefGrad(x))
}

// Stiffness computes K = -∂f/∂x. It returns false if the model provides no tangent
func (o *Tet) Stiffness(K *[12][12]float64, x [4]mgl64.Vec3) (ok bool) {
	_, A := solid.Evaluate(o.Mdl, o.DefGrad(x), true)
	if A == nil {
		return false
	}
	// K[(a,i),(b,k)] = V Σ_j Σ_l A[i+3j][k+3l] B[a][j] B[b][l]
	var AB [9][4]float64 // AB[i+3j][b] for fixed k
	for k := 0; k < 3; k++ {
		for r := 0; r < 9; r++ {
			for b := 0; b < 4; b++ {
				AB[r][b] = 0
				for l := 0; l < 3; l++ {
					AB[r][b] += A[r][k+3*l] * o.B[b][l]
				}
			}
		}
		for a := 0; a < 4; a++ {
			for i := 0; i < 3; i++ {
				for b := 0; b < 4; b++ {
					var s float64
					for j := 0; j < 3; j++ {
						s += AB[i+3*j][b] * o.B[a][j]
					}
					K[3*a+i][3*b+k] = o.Vol * s
				}
			}
		}
	}
	return true
}

// Damping computes D = -∂f/∂v = V・kd・Σ_j B[a][j] B[b][j] ⊗ I
func (o *Tet) Damping(D *[12][12]float64) {
	*D = [12][12]float64{}
	if o.Kd <= 0 {
		return
	}
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			var s float64
			for j := 0; j < 3; j++ {
				s += o.B[a][j] * o.B[b][j]
			}
			for k := 0; k < 3; k++ {
				D[3*a+k][3*b+k] = o.Vol * o.Kd * s
			}
		}
	}
}

// AddToKb adds element K to global Jacobian matrix Kb
func (o *Tet) AddToKb(Kb *la.Triplet, x [4]mgl64.Vec3) (err error) {
	var K [12][12]float64
	if !o.Stiffness(&K, x) {
		return chk.Err("cannot compute stiffness of element %d: model has no tangent", o.Id)
	}
	for i, I := range o.Umap {
		for j, J := range o.Umap {
			Kb.Put(I, J, K[i][j])
		}
	}
	return
}
