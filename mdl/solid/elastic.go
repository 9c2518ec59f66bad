// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"math"
	"strings"

	"github.com/cpmech/gosl/fun/dbf"
)

// Elastic holds the parameters shared by all models
//  Either {E, nu} or {mu, lambda} must be given. If both sets are
//  present, {E, nu} takes precedence.
type Elastic struct {
	E   float64 // Young's modulus
	Nu  float64 // Poisson's coefficient
	Mu  float64 // shear modulus μ
	La  float64 // Lamé's first parameter λ
	Rho float64 // density
	Kd  float64 // stress (Rayleigh-like) damping: P += kd・dF/dt
	Cv  float64 // velocity damping [1/s]

	// auxiliary
	useEnu bool
}

// Init parses parameters and checks their ranges
//  λmin -- exclusive lower bound for λ relative to μ: λ > λmin・μ
func (o *Elastic) Init(prms dbf.Params, λmin float64) (err error) {
	var hasE, hasNu, hasMu, hasLa bool
	*o = Elastic{}
	for _, p := range prms {
		switch strings.ToLower(p.N) {
		case "e":
			o.E, hasE = p.V, true
		case "nu":
			o.Nu, hasNu = p.V, true
		case "mu", "g":
			o.Mu, hasMu = p.V, true
		case "lambda", "la":
			o.La, hasLa = p.V, true
		case "rho":
			o.Rho = p.V
		case "kd":
			o.Kd = p.V
		case "cv":
			o.Cv = p.V
		default:
			return &MaterialDomainError{p.N, p.V, "unknown parameter"}
		}
		if math.IsNaN(p.V) || math.IsInf(p.V, 0) {
			return &MaterialDomainError{p.N, p.V, "value must be finite"}
		}
	}

	// elastic constants
	switch {
	case hasE || hasNu:
		if !hasE {
			return &MaterialDomainError{"E", 0, "nu given without E"}
		}
		if !hasNu {
			return &MaterialDomainError{"nu", 0, "E given without nu"}
		}
		if o.E <= 0 {
			return &MaterialDomainError{"E", o.E, "Young's modulus must be positive"}
		}
		if o.Nu <= -1 || o.Nu >= 0.5 {
			return &MaterialDomainError{"nu", o.Nu, "Poisson's coefficient must be in (-1, 0.5)"}
		}
		o.Mu = o.E / (2.0 * (1.0 + o.Nu))
		o.La = o.E * o.Nu / ((1.0 + o.Nu) * (1.0 - 2.0*o.Nu))
		o.useEnu = true
	case hasMu && hasLa:
		if o.Mu <= 0 {
			return &MaterialDomainError{"mu", o.Mu, "shear modulus must be positive"}
		}
		o.E = o.Mu * (3.0*o.La + 2.0*o.Mu) / (o.La + o.Mu)
		o.Nu = o.La / (2.0 * (o.La + o.Mu))
	default:
		return &MaterialDomainError{"mu", 0, "elastic constants {E, nu} or {mu, lambda} must be given"}
	}
	if o.La <= λmin*o.Mu {
		return &MaterialDomainError{"lambda", o.La, "lambda is too small for the selected model"}
	}

	// other
	if !(o.Rho > 0) {
		return &MaterialDomainError{"rho", o.Rho, "density must be positive"}
	}
	if o.Kd < 0 {
		return &MaterialDomainError{"kd", o.Kd, "stress damping must be non-negative"}
	}
	if o.Cv < 0 {
		return &MaterialDomainError{"cv", o.Cv, "velocity damping must be non-negative"}
	}
	return
}

// GetPrms returns the parameters in the same format they were given
func (o Elastic) GetPrms() dbf.Params {
	if o.useEnu {
		return dbf.Params{
			&dbf.P{N: "E", V: o.E},
			&dbf.P{N: "nu", V: o.Nu},
			&dbf.P{N: "rho", V: o.Rho},
			&dbf.P{N: "kd", V: o.Kd},
			&dbf.P{N: "cv", V: o.Cv},
		}
	}
	return dbf.Params{
		&dbf.P{N: "mu", V: o.Mu},
		&dbf.P{N: "lambda", V: o.La},
		&dbf.P{N: "rho", V: o.Rho},
		&dbf.P{N: "kd", V: o.Kd},
		&dbf.P{N: "cv", V: o.Cv},
	}
}

// GetRho returns density
func (o Elastic) GetRho() float64 { return o.Rho }

// Lame returns μ and λ
func (o Elastic) Lame() (μ, λ float64) { return o.Mu, o.La }

// Damping returns kd and cv
func (o Elastic) Damping() (kd, cv float64) { return o.Kd, o.Cv }

// WaveSpeed returns the dilatational wave speed √((λ+2μ)/ρ)
func (o Elastic) WaveSpeed() float64 {
	return math.Sqrt((o.La + 2.0*o.Mu) / o.Rho)
}
