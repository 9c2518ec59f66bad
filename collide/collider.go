// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package collide implements colliders and contact resolution for soft bodies
package collide

import (
	"sort"
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/go-gl/mathgl/mgl64"
)

// Collider defines static or kinematic obstacles. Colliders are read-only during a step,
// thus Query and Velocity may be called concurrently after Init. Init runs only once, so
// the same collider may be shared by bodies stepping concurrently.
type Collider interface {
	Init() error                                  // validates and precomputes data
	Kind() string                                 // returns the kind; e.g. "plane"
	Query(p mgl64.Vec3) (φ float64, n mgl64.Vec3) // signed distance (negative inside) and outward normal
	Velocity(p mgl64.Vec3) mgl64.Vec3             // velocity of the surface point closest to p
	Bounds() (lo, hi mgl64.Vec3)                  // axis aligned bounds; infinite for planes
}

// ColliderDegenerateError reports a collider with zero area or zero volume
type ColliderDegenerateError struct {
	Kind string // collider kind
	Msg  string // description
}

// Error implements error
func (o *ColliderDegenerateError) Error() string {
	return io.Sf("degenerate %s collider: %s", o.Kind, o.Msg)
}

// Motion holds the rigid velocity of a kinematic collider
//  v(p) = Vel + Omega × (p - centre)
type Motion struct {
	Vel   mgl64.Vec3 `yaml:"vel" json:"vel"`     // linear velocity
	Omega mgl64.Vec3 `yaml:"omega" json:"omega"` // angular velocity
}

// at returns the velocity of point p for a body rotating about c
func (o Motion) at(p, c mgl64.Vec3) mgl64.Vec3 {
	return o.Vel.Add(o.Omega.Cross(p.Sub(c)))
}

// setup runs the initialisation of a collider once
type setup struct {
	once sync.Once
	err  error
}

// run calls fcn on the first call; concurrent callers wait for it to finish
func (o *setup) run(fcn func() error) error {
	o.once.Do(func() { o.err = fcn() })
	return o.err
}

// New returns a new (uninitialised) collider
func New(kind string) (c Collider, err error) {
	allocator, ok := allocators[kind]
	if !ok {
		return nil, chk.Err("collider %q is not available. options are %v", kind, Kinds())
	}
	return allocator(), nil
}

// Kinds returns the available kinds of colliders
func Kinds() (kinds []string) {
	for kind := range allocators {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return
}

// allocators holds all available colliders; kind => allocator
var allocators = map[string]func() Collider{}
