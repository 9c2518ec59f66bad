// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solid implements hyperelastic models for soft solids
/*
 *  All models are written in terms of the deformation gradient F and return the
 *  first Piola-Kirchhoff stress P = ∂Ψ/∂F. Matrices are 3×3 column-major (mgl64) and
 *  the tangent A = ∂P/∂F is stored as a 9×9 array using the same flattening:
 *
 *     A[a][b] = ∂P[a] / ∂F[b]    with   P[i+3j] = P_ij
 *
 *  Inversion handling belongs to each model: the stress must stay finite for J ≤ 0.
 */
package solid

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/go-gl/mathgl/mgl64"
)

// Tangent holds ∂P/∂F flattened as described in the package documentation
type Tangent [9][9]float64

// Model defines the interface for hyperelastic solid models
type Model interface {
	Init(prms dbf.Params) error     // initialises model
	GetPrms() dbf.Params            // gets (an example) of parameters
	GetRho() float64                // returns density
	Lame() (μ, λ float64)           // returns the (small strain) Lamé parameters
	Damping() (kd, cv float64)      // returns stress damping and velocity damping coefficients
	Stress(F mgl64.Mat3) mgl64.Mat3 // computes the first Piola-Kirchhoff stress P(F)
	Energy(F mgl64.Mat3) float64    // computes the strain energy density Ψ(F)
}

// WithTangent defines models that can compute the consistent tangent ∂P/∂F
type WithTangent interface {
	CalcA(A *Tangent, F mgl64.Mat3) // computes A = ∂P/∂F
}

// New returns new solid model
func New(name string) (model Model, err error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, chk.Err("model %q is not available in 'solid' database", name)
	}
	return allocator(), nil
}

// Names returns the names of all available models
func Names() (names []string) {
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// Evaluate computes the stress and, if requested and available, the tangent.
// A is nil when the model has no tangent.
func Evaluate(m Model, F mgl64.Mat3, wantA bool) (P mgl64.Mat3, A *Tangent) {
	P = m.Stress(F)
	if !wantA {
		return
	}
	if mt, ok := m.(WithTangent); ok {
		A = new(Tangent)
		mt.CalcA(A, F)
	}
	return
}

// HasTangent tells whether model m implements WithTangent
func HasTangent(m Model) bool {
	_, ok := m.(WithTangent)
	return ok
}

// allocators holds all available solid models; modelname => allocator
var allocators = map[string]func() Model{}

// register adds a model to the factory
func register(name string, allocator func() Model) {
	if _, ok := allocators[name]; ok {
		chk.Panic("cannot register solid model %q because it exists already", name)
	}
	allocators[name] = allocator
}
