// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"math"

	"github.com/cpmech/gosl/fun/dbf"
	"github.com/go-gl/mathgl/mgl64"
)

// NeoHookean implements the stable Neo-Hookean model (Smith, de Goes and Kim 2018)
//
//   Ψ = μ/2 (Ic - 3) + λ/2 (J - α)² - μ/2 log((Ic + 1) / 4) - λ/2 (1 - α)²
//   P = μ (1 - 1/(Ic+1)) F + λ (J - α) cof(F)
//
//  with α = 1 + 3μ/(4λ), Ic = F:F and J = det(F). There is no log(J) term, thus
//  the response is finite for inverted elements (J ≤ 0) and pushes them back.
type NeoHookean struct {
	Elastic
	α float64
}

// add model to factory
func init() {
	register("neohookean", func() Model { return new(NeoHookean) })
}

// Init initialises model
func (o *NeoHookean) Init(prms dbf.Params) (err error) {
	err = o.Elastic.Init(prms, 0)
	if err != nil {
		return
	}
	o.α = 1.0 + 3.0*o.Mu/(4.0*o.La)
	return
}

// GetPrms gets (an example) of parameters
func (o NeoHookean) GetPrms() dbf.Params {
	if o.Mu > 0 {
		return o.Elastic.GetPrms()
	}
	return dbf.Params{
		&dbf.P{N: "mu", V: 1000},
		&dbf.P{N: "lambda", V: 5000},
		&dbf.P{N: "rho", V: 100},
		&dbf.P{N: "kd", V: 0},
	}
}

// Stress computes P(F)
func (o *NeoHookean) Stress(F mgl64.Mat3) mgl64.Mat3 {
	Ic := frobenius2(F)
	J := F.Det()
	C := cofactor(F)
	return F.Mul(o.Mu * (1.0 - 1.0/(Ic+1.0))).Add(C.Mul(o.La * (J - o.α)))
}

// Energy computes Ψ(F)
func (o *NeoHookean) Energy(F mgl64.Mat3) float64 {
	Ic := frobenius2(F)
	J := F.Det()
	return o.Mu/2.0*(Ic-3.0) + o.La/2.0*(J-o.α)*(J-o.α) -
		o.Mu/2.0*math.Log((Ic+1.0)/4.0) - o.La/2.0*(1.0-o.α)*(1.0-o.α)
}

// CalcA computes A = ∂P/∂F
//
//   A = μ(1 - 1/(Ic+1)) I + 2μ/(Ic+1)² F⊗F + λ C⊗C + λ(J - α) ∂C/∂F
//
func (o *NeoHookean) CalcA(A *Tangent, F mgl64.Mat3) {
	Ic := frobenius2(F)
	J := F.Det()
	C := cofactor(F)
	a := o.Mu * (1.0 - 1.0/(Ic+1.0))
	b := 2.0 * o.Mu / ((Ic + 1.0) * (Ic + 1.0))
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			A[i][j] = b*F[i]*F[j] + o.La*C[i]*C[j]
		}
		A[i][i] += a
	}
	addCofactorDeriv(A, F, o.La*(J-o.α))
}

// auxiliary ////////////////////////////////////////////////////////////////////////////////////

// frobenius2 returns F:F
func frobenius2(F mgl64.Mat3) (res float64) {
	for _, v := range F {
		res += v * v
	}
	return
}

// cofactor returns cof(F) = ∂J/∂F whose columns are {f1×f2, f2×f0, f0×f1}
func cofactor(F mgl64.Mat3) mgl64.Mat3 {
	f0, f1, f2 := F.Col(0), F.Col(1), F.Col(2)
	return mgl64.Mat3FromCols(f1.Cross(f2), f2.Cross(f0), f0.Cross(f1))
}

// addCofactorDeriv adds s・∂cof(F)/∂F to A. Block (i,j) holds ∂c_i/∂f_j
//  (0,1) = -[f2]ₓ   (0,2) =  [f1]ₓ
//  (1,0) =  [f2]ₓ   (1,2) = -[f0]ₓ
//  (2,0) = -[f1]ₓ   (2,1) =  [f0]ₓ
func addCofactorDeriv(A *Tangent, F mgl64.Mat3, s float64) {
	f := [3]mgl64.Vec3{F.Col(0), F.Col(1), F.Col(2)}
	add := func(bi, bj int, v mgl64.Vec3, sign float64) {
		X := skew(v)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				A[3*bi+r][3*bj+c] += sign * s * X.At(r, c)
			}
		}
	}
	add(0, 1, f[2], -1)
	add(0, 2, f[1], +1)
	add(1, 0, f[2], +1)
	add(1, 2, f[0], -1)
	add(2, 0, f[1], -1)
	add(2, 1, f[0], +1)
}

// skew returns [v]ₓ such that [v]ₓ u = v × u
func skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		0, v[2], -v[1], // column 0
		-v[2], 0, v[0], // column 1
		v[1], -v[0], 0, // column 2
	}
}
