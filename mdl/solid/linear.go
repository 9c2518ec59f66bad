// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/go-gl/mathgl/mgl64"
)

// Linear implements small strain linear elasticity written in terms of F
//
//   ε = (F + Fᵀ)/2 - I
//   Ψ = μ ε:ε + λ/2 tr(ε)²
//   P = 2μ ε + λ tr(ε) I
//
//  It is not rotation invariant; it serves as reference for small deformations.
type Linear struct {
	Elastic
}

// add model to factory
func init() {
	register("linear", func() Model { return new(Linear) })
}

// Init initialises model
func (o *Linear) Init(prms dbf.Params) (err error) {
	return o.Elastic.Init(prms, -2.0/3.0)
}

// GetPrms gets (an example) of parameters
func (o Linear) GetPrms() dbf.Params {
	if o.Mu > 0 {
		return o.Elastic.GetPrms()
	}
	return dbf.Params{
		&dbf.P{N: "E", V: 1e4},
		&dbf.P{N: "nu", V: 0.25},
		&dbf.P{N: "rho", V: 100},
	}
}

// Stress computes P(F)
func (o *Linear) Stress(F mgl64.Mat3) mgl64.Mat3 {
	ε := strain(F)
	tr := ε.Trace()
	return ε.Mul(2.0 * o.Mu).Add(mgl64.Ident3().Mul(o.La * tr))
}

// Energy computes Ψ(F)
func (o *Linear) Energy(F mgl64.Mat3) float64 {
	ε := strain(F)
	tr := ε.Trace()
	return o.Mu*frobenius2(ε) + o.La/2.0*tr*tr
}

// CalcA computes A = ∂P/∂F; it is constant
//   ∂P_ij/∂F_kl = μ (δik δjl + δil δjk) + λ δij δkl
func (o *Linear) CalcA(A *Tangent, F mgl64.Mat3) {
	*A = Tangent{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a := i + 3*j
			A[a][a] += o.Mu
			A[a][j+3*i] += o.Mu
			if i == j {
				for k := 0; k < 3; k++ {
					A[a][k+3*k] += o.La
				}
			}
		}
	}
}

func strain(F mgl64.Mat3) mgl64.Mat3 {
	return F.Add(F.Transpose()).Mul(0.5).Sub(mgl64.Ident3())
}
