// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collide

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an oriented box
type Box struct {
	Motion `yaml:",inline"`
	Centre mgl64.Vec3 `yaml:"centre" json:"centre"` // centre
	Half   mgl64.Vec3 `yaml:"half" json:"half"`     // half extents along the local axes
	Axis   mgl64.Vec3 `yaml:"axis" json:"axis"`     // rotation axis; zero means no rotation
	Angle  float64    `yaml:"angle" json:"angle"`   // rotation angle [rad]

	// derived
	rot  mgl64.Quat // local => world
	irot mgl64.Quat // world => local
	done setup
}

// add collider to factory
func init() {
	allocators["box"] = func() Collider { return new(Box) }
}

// Init initialises the box once; later calls return the first result
func (o *Box) Init() error { return o.done.run(o.prepare) }

// prepare checks the extents and computes the orientation
func (o *Box) prepare() (err error) {
	for k := 0; k < 3; k++ {
		if !(o.Half[k] > 0) || math.IsInf(o.Half[k], 0) {
			return &ColliderDegenerateError{"box", "half extents must be positive and finite"}
		}
	}
	o.rot = mgl64.QuatIdent()
	if l := o.Axis.Len(); l > 1e-12 && o.Angle != 0 {
		o.rot = mgl64.QuatRotate(o.Angle, o.Axis.Mul(1.0/l))
	}
	o.irot = o.rot.Inverse()
	return
}

// Kind returns "box"
func (o *Box) Kind() string { return "box" }

// Query returns signed distance and normal
func (o *Box) Query(p mgl64.Vec3) (φ float64, n mgl64.Vec3) {
	q := o.irot.Rotate(p.Sub(o.Centre))
	var d, s mgl64.Vec3
	for k := 0; k < 3; k++ {
		s[k] = 1
		if q[k] < 0 {
			s[k] = -1
		}
		d[k] = math.Abs(q[k]) - o.Half[k]
	}

	// outside
	var out mgl64.Vec3
	for k := 0; k < 3; k++ {
		out[k] = math.Max(d[k], 0) * s[k]
	}
	if l := out.Len(); l > 0 {
		return l, o.rot.Rotate(out.Mul(1.0 / l))
	}

	// inside: closest face
	k := 0
	if d[1] > d[k] {
		k = 1
	}
	if d[2] > d[k] {
		k = 2
	}
	var nl mgl64.Vec3
	nl[k] = s[k]
	return d[k], o.rot.Rotate(nl)
}

// Velocity returns the velocity of the box at p
func (o *Box) Velocity(p mgl64.Vec3) mgl64.Vec3 {
	return o.at(p, o.Centre)
}

// Bounds returns the bounding box of the rotated box
func (o *Box) Bounds() (lo, hi mgl64.Vec3) {
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = lo.Mul(-1)
	for i := 0; i < 8; i++ {
		c := mgl64.Vec3{o.Half[0], o.Half[1], o.Half[2]}
		for k := 0; k < 3; k++ {
			if i&(1<<uint(k)) != 0 {
				c[k] = -c[k]
			}
		}
		x := o.Centre.Add(o.rot.Rotate(c))
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], x[k])
			hi[k] = math.Max(hi[k], x[k])
		}
	}
	return
}
