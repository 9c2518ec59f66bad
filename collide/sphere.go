// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is a solid ball
type Sphere struct {
	Motion `yaml:",inline"`
	Centre mgl64.Vec3 `yaml:"centre" json:"centre"` // centre
	Radius float64    `yaml:"radius" json:"radius"` // radius

	done setup
}

// add collider to factory
func init() {
	allocators["sphere"] = func() Collider { return new(Sphere) }
}

// Init initialises the sphere once; later calls return the first result
func (o *Sphere) Init() error { return o.done.run(o.prepare) }

// prepare checks the radius
func (o *Sphere) prepare() (err error) {
	if !(o.Radius > 0) || math.IsInf(o.Radius, 0) {
		return &ColliderDegenerateError{"sphere", "radius must be positive and finite"}
	}
	return
}

// Kind returns "sphere"
func (o *Sphere) Kind() string { return "sphere" }

// Query returns signed distance and normal
func (o *Sphere) Query(p mgl64.Vec3) (φ float64, n mgl64.Vec3) {
	d := p.Sub(o.Centre)
	l := d.Len()
	if l < 1e-14 {
		return -o.Radius, mgl64.Vec3{0, 0, 1}
	}
	return l - o.Radius, d.Mul(1.0 / l)
}

// Velocity returns the velocity of the sphere surface at p
func (o *Sphere) Velocity(p mgl64.Vec3) mgl64.Vec3 {
	return o.at(p, o.Centre)
}

// Bounds returns the bounding box
func (o *Sphere) Bounds() (lo, hi mgl64.Vec3) {
	r := mgl64.Vec3{o.Radius, o.Radius, o.Radius}
	return o.Centre.Sub(r), o.Centre.Add(r)
}
