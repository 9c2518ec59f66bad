// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ana

import "math"

// LameFromEnu returns the Lamé parameters for given Young's modulus and Poisson's coefficient
func LameFromEnu(E, ν float64) (μ, λ float64) {
	μ = E / (2.0 * (1.0 + ν))
	λ = E * ν / ((1.0 + ν) * (1.0 - 2.0*ν))
	return
}

// PwaveSpeed returns the speed of dilatational waves c = sqrt((λ+2μ)/ρ)
func PwaveSpeed(μ, λ, ρ float64) float64 {
	return math.Sqrt((λ + 2.0*μ) / ρ)
}

// RegularTet holds geometric properties of a regular tetrahedron with edge A
type RegularTet struct {
	A float64 // edge length
}

// Volume returns A³/(6√2)
func (o RegularTet) Volume() float64 {
	return o.A * o.A * o.A / (6.0 * math.Sqrt2)
}

// Altitude returns the height A・√(2/3)
func (o RegularTet) Altitude() float64 {
	return o.A * math.Sqrt(2.0/3.0)
}

// FaceArea returns √3・A²/4
func (o RegularTet) FaceArea() float64 {
	return math.Sqrt(3.0) * o.A * o.A / 4.0
}

// CriticalDt returns the CFL time step h/c for given material
func (o RegularTet) CriticalDt(μ, λ, ρ float64) float64 {
	return o.Altitude() / PwaveSpeed(μ, λ, ρ)
}
