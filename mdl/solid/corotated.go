// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Corotated implements the fixed corotated model (Stomakhin et al. 2012)
//
//   Ψ = μ ‖F - R‖² + λ/2 (J - 1)²
//   P = 2μ (F - R) + λ (J - 1) cof(F)
//
//  where R is the rotation of the polar decomposition computed from the SVD of F
//  with the reflection moved to the smallest singular value. No tangent is provided.
type Corotated struct {
	Elastic
}

// add model to factory
func init() {
	register("corotated", func() Model { return new(Corotated) })
}

// Init initialises model
func (o *Corotated) Init(prms dbf.Params) (err error) {
	return o.Elastic.Init(prms, -2.0/3.0)
}

// GetPrms gets (an example) of parameters
func (o Corotated) GetPrms() dbf.Params {
	if o.Mu > 0 {
		return o.Elastic.GetPrms()
	}
	return dbf.Params{
		&dbf.P{N: "E", V: 1e4},
		&dbf.P{N: "nu", V: 0.3},
		&dbf.P{N: "rho", V: 100},
	}
}

// Stress computes P(F)
func (o *Corotated) Stress(F mgl64.Mat3) mgl64.Mat3 {
	R := Rotation(F)
	J := F.Det()
	return F.Sub(R).Mul(2.0 * o.Mu).Add(cofactor(F).Mul(o.La * (J - 1.0)))
}

// Energy computes Ψ(F)
func (o *Corotated) Energy(F mgl64.Mat3) float64 {
	R := Rotation(F)
	J := F.Det()
	return o.Mu*frobenius2(F.Sub(R)) + o.La/2.0*(J-1.0)*(J-1.0)
}

// Rotation returns the rotation R = U・Vᵀ from the SVD F = U・Σ・Vᵀ. If det(U) or
// det(V) is negative, the corresponding last column is flipped so that R is a proper
// rotation even for inverted elements.
func Rotation(F mgl64.Mat3) mgl64.Mat3 {
	a := mat.NewDense(3, 3, []float64{
		F.At(0, 0), F.At(0, 1), F.At(0, 2),
		F.At(1, 0), F.At(1, 1), F.At(1, 2),
		F.At(2, 0), F.At(2, 1), F.At(2, 2),
	})
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return mgl64.Ident3()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	U, V := toMat3(&u), toMat3(&v)
	if U.Det() < 0 {
		U = flipLast(U)
	}
	if V.Det() < 0 {
		V = flipLast(V)
	}
	return U.Mul3(V.Transpose())
}

func toMat3(m *mat.Dense) (res mgl64.Mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			res.Set(i, j, m.At(i, j))
		}
	}
	return
}

func flipLast(m mgl64.Mat3) mgl64.Mat3 {
	m[6], m[7], m[8] = -m[6], -m[7], -m[8]
	return m
}
