// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ele

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State holds the simulation state of one body; the only data carried between frames
type State struct {
	T float64      // current time
	X []mgl64.Vec3 // [nverts] positions
	V []mgl64.Vec3 // [nverts] velocities
}

// NewState returns a state at rest with positions x0
func NewState(x0 []mgl64.Vec3) (o *State) {
	o = new(State)
	o.X = make([]mgl64.Vec3, len(x0))
	o.V = make([]mgl64.Vec3, len(x0))
	o.Reset(x0)
	return
}

// Reset sets positions to x0, zeroes velocities and time
func (o *State) Reset(x0 []mgl64.Vec3) {
	o.T = 0
	copy(o.X, x0)
	for i := range o.V {
		o.V[i] = mgl64.Vec3{}
	}
}

// Set copies another state into this one; both must have the same size
func (o *State) Set(another *State) {
	o.T = another.T
	copy(o.X, another.X)
	copy(o.V, another.V)
}

// GetCopy returns a deep copy of this state
func (o *State) GetCopy() *State {
	other := &State{
		T: o.T,
		X: make([]mgl64.Vec3, len(o.X)),
		V: make([]mgl64.Vec3, len(o.V)),
	}
	copy(other.X, o.X)
	copy(other.V, o.V)
	return other
}

// NonFinite returns the first vertex with NaN or Inf position or velocity, or -1
func (o *State) NonFinite(lo, hi int) int {
	for i := lo; i < hi; i++ {
		for k := 0; k < 3; k++ {
			if bad(o.X[i][k]) || bad(o.V[i][k]) {
				return i
			}
		}
	}
	return -1
}

// MaxSpeed returns the largest vertex speed
func (o *State) MaxSpeed() (vmax float64) {
	for _, v := range o.V {
		vmax = math.Max(vmax, v.Len())
	}
	return
}

func bad(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
