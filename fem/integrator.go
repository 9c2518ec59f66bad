// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/ele"
)

// Integrator advances the state of one body over one substep
type Integrator interface {
	Init(b *Body) error // allocates internal data for body b
	Explicit() bool     // tells whether the stability bound applies

	// Advance updates velocities and positions of free vertices in s
	//  f     -- total forces (internal + external + contact) at the beginning of the substep
	//  jac   -- 3×3 diagonal blocks of K = -∂f/∂x; nil for explicit integrators
	//  fixed -- vertices that must not be modified (pinned or kinematic)
	//  h     -- substep size
	//  decay -- velocity damping factor exp(-c・h) applied to the new velocities
	Advance(s *ele.State, f []mgl64.Vec3, jac []mgl64.Mat3, fixed []bool, h, decay float64) error
}

// NewIntegrator returns a new integrator
func NewIntegrator(name string) (Integrator, error) {
	allocator, ok := integrators[name]
	if !ok {
		return nil, chk.Err("integrator %q is not available. options are %v", name, IntegratorNames())
	}
	return allocator(), nil
}

// IntegratorNames returns the names of all available integrators
func IntegratorNames() (names []string) {
	for name := range integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// integrators holds all available integrators
var integrators = make(map[string]func() Integrator)
