// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"github.com/cpmech/gosl/chk"

	"github.com/gofem/softfem/collide"
)

// Settings holds the solver settings shared by all bodies of a Driver
type Settings struct {

	// time stepping
	Integrator   string  `yaml:"integrator" json:"integrator"`       // "symplectic" or "implicit"
	Substeps     int     `yaml:"substeps" json:"substeps"`           // minimum number of substeps per frame
	AutoSubsteps bool    `yaml:"auto_substeps" json:"auto_substeps"` // increase substeps to satisfy the explicit stability bound
	Safety       float64 `yaml:"safety" json:"safety"`               // fraction of the critical time step used by AutoSubsteps
	MaxSubsteps  int     `yaml:"max_substeps" json:"max_substeps"`   // upper limit for the number of substeps

	// damping and divergence control
	Damping  float64 `yaml:"damping" json:"damping"`     // global velocity damping [1/s]; added to the material's cv
	MaxSpeed float64 `yaml:"max_speed" json:"max_speed"` // speeds above this value are reported as divergence; ≤ 0 disables

	// implicit solver
	CgTol   float64 `yaml:"cg_tol" json:"cg_tol"`       // relative tolerance of conjugate gradients
	CgMaxIt int     `yaml:"cg_max_it" json:"cg_max_it"` // maximum number of conjugate gradient iterations

	// contact
	Contact collide.Params `yaml:"contact" json:"contact"` // contact parameters

	// parallelism
	Workers int `yaml:"workers" json:"workers"` // number of workers per body; ≤ 0 means GOMAXPROCS
}

// DefaultSettings returns the default settings
func DefaultSettings() Settings {
	return Settings{
		Integrator:   "symplectic",
		Substeps:     32,
		AutoSubsteps: true,
		Safety:       0.5,
		MaxSubsteps:  4096,
		Damping:      0,
		MaxSpeed:     1e3,
		CgTol:        1e-8,
		CgMaxIt:      200,
		Contact:      collide.DefaultParams(),
		Workers:      0,
	}
}

// Check checks and fixes settings
func (o *Settings) Check() (err error) {
	if _, ok := integrators[o.Integrator]; !ok {
		return chk.Err("integrator %q is not available. options are %v", o.Integrator, IntegratorNames())
	}
	if o.Substeps < 1 {
		return chk.Err("number of substeps must be at least 1. %d is invalid", o.Substeps)
	}
	if o.MaxSubsteps < o.Substeps {
		o.MaxSubsteps = o.Substeps
	}
	if o.Safety <= 0 || o.Safety > 1 {
		return chk.Err("safety factor must be in (0,1]. %g is invalid", o.Safety)
	}
	if o.Damping < 0 {
		return chk.Err("damping must be non-negative. %g is invalid", o.Damping)
	}
	if o.CgTol <= 0 {
		o.CgTol = 1e-8
	}
	if o.CgMaxIt < 1 {
		o.CgMaxIt = 200
	}
	err = o.Contact.Check()
	if err != nil {
		return chk.Err("invalid contact settings:\n%v", err)
	}
	return
}
