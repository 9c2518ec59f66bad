// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is an infinite half-space; the solid region is behind the normal
type Plane struct {
	Motion `yaml:",inline"`
	Point  mgl64.Vec3 `yaml:"point" json:"point"`   // a point on the plane
	Normal mgl64.Vec3 `yaml:"normal" json:"normal"` // outward normal; normalised by Init

	done setup
}

// add collider to factory
func init() {
	allocators["plane"] = func() Collider { return new(Plane) }
}

// NewGround returns an initialised horizontal plane at height z
func NewGround(z float64) *Plane {
	return &Plane{Point: mgl64.Vec3{0, 0, z}, Normal: mgl64.Vec3{0, 0, 1}}
}

// Init initialises the plane once; later calls return the first result
func (o *Plane) Init() error { return o.done.run(o.prepare) }

// prepare validates and normalises the normal vector
func (o *Plane) prepare() (err error) {
	l := o.Normal.Len()
	if l < 1e-12 || math.IsNaN(l) {
		return &ColliderDegenerateError{"plane", "normal vector has zero length"}
	}
	o.Normal = o.Normal.Mul(1.0 / l)
	return
}

// Kind returns "plane"
func (o *Plane) Kind() string { return "plane" }

// Query returns signed distance and normal
func (o *Plane) Query(p mgl64.Vec3) (φ float64, n mgl64.Vec3) {
	return o.Normal.Dot(p.Sub(o.Point)), o.Normal
}

// Velocity returns the velocity of the plane at p
func (o *Plane) Velocity(p mgl64.Vec3) mgl64.Vec3 {
	return o.at(p, o.Point)
}

// Bounds returns infinite bounds
func (o *Plane) Bounds() (lo, hi mgl64.Vec3) {
	inf := math.Inf(1)
	return mgl64.Vec3{-inf, -inf, -inf}, mgl64.Vec3{inf, inf, inf}
}
