// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana implements analytical solutions used to verify the solver
package ana

import "math"

// FreeFall computes the motion of a point under constant acceleration when integrated
// with the symplectic (semi-implicit) Euler method:
//
//    v_{n+1} = v_n + g・Δt
//    x_{n+1} = x_n + v_{n+1}・Δt
//
//  thus
//
//    v_n = v0 + n・g・Δt
//    x_n = x0 + n・v0・Δt + g・Δt²・n(n+1)/2
//
type FreeFall struct {
	X0 float64 // initial position
	V0 float64 // initial velocity
	G  float64 // acceleration (signed)
	Dt float64 // time step
}

// Init initialises this structure
func (o *FreeFall) Init(x0, v0, g, dt float64) {
	o.X0, o.V0, o.G, o.Dt = x0, v0, g, dt
}

// Calc returns position and velocity after n steps
func (o FreeFall) Calc(n int) (x, v float64) {
	m := float64(n)
	v = o.V0 + m*o.G*o.Dt
	x = o.X0 + m*o.V0*o.Dt + o.G*o.Dt*o.Dt*m*(m+1)/2.0
	return
}

// Exact returns the continuous solution at time t
func (o FreeFall) Exact(t float64) (x, v float64) {
	v = o.V0 + o.G*t
	x = o.X0 + o.V0*t + o.G*t*t/2.0
	return
}

// ImpactTime returns the continuous time to fall from X0 to height h (G < 0, X0 > h)
func (o FreeFall) ImpactTime(h float64) float64 {
	a, b, c := o.G/2.0, o.V0, o.X0-h
	return (-b - math.Sqrt(b*b-4*a*c)) / (2 * a)
}
