// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package fem implements the soft-body solver: assembly of tetrahedral elements, time
// integration with substeps, contacts, constraints and divergence control
package fem

import (
	"context"
	"sort"
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gofem/softfem/collide"
	"github.com/gofem/softfem/mdl/solid"
)

// Handle identifies a body in a Driver
type Handle int

// Driver holds all bodies of a simulation
type Driver struct {
	Stg Settings    // settings shared by all bodies
	Log *zap.Logger // logger

	bodies map[Handle]*Body // all bodies
	next   Handle           // next handle
	mu     sync.RWMutex     // protects bodies
}

// NewDriver returns a new driver
//  log -- logger; may be nil
func NewDriver(stg Settings, log *zap.Logger) (o *Driver, err error) {
	err = stg.Check()
	if err != nil {
		return nil, chk.Err("invalid settings:\n%v", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	o = &Driver{Stg: stg, Log: log, bodies: make(map[Handle]*Body), next: 1}
	return
}

// CreateBody validates the mesh and material and allocates a new body at rest.
// Errors are *msh.InvalidTopologyError, *solid.MaterialDomainError or wrapped errors.
func (o *Driver) CreateBody(verts []mgl64.Vec3, tets [][4]int, mat solid.Material) (h Handle, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, err := newBody(o.next, verts, tets, mat, o.Stg, o.Log)
	if err != nil {
		return 0, err
	}
	h = o.next
	o.next++
	o.bodies[h] = b
	o.Log.Info("body created", zap.Int("body", int(h)), zap.Int("nverts", b.Mesh.Nverts()),
		zap.Int("ntets", b.Mesh.Ntets()), zap.String("model", b.Mat.Model), zap.Float64("dtcrit", b.Dtcrit))
	return
}

// Body returns the body with handle h
func (o *Driver) Body(h Handle) (b *Body, err error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	b, ok := o.bodies[h]
	if !ok {
		return nil, chk.Err("cannot find body with handle %d", h)
	}
	return
}

// Handles returns all handles in increasing order
func (o *Driver) Handles() (hs []Handle) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for h := range o.bodies {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return
}

// Remove deletes a body
func (o *Driver) Remove(h Handle) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.bodies[h]; !ok {
		return chk.Err("cannot remove body %d: not found", h)
	}
	delete(o.bodies, h)
	o.Log.Info("body removed", zap.Int("body", int(h)))
	return
}

// SetColliders sets the colliders acting on body h. Degenerate colliders are skipped and
// returned as warnings (*collide.ColliderDegenerateError).
func (o *Driver) SetColliders(h Handle, colliders []collide.Collider) (warnings []error, err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.SetColliders(colliders)
}

// Pin fixes vertices of body h at their current positions
func (o *Driver) Pin(h Handle, verts ...int) (err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.Pin(verts...)
}

// Unpin releases vertices of body h
func (o *Driver) Unpin(h Handle, verts ...int) (err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.Unpin(verts...)
}

// SetTargets sets kinematic targets of body h
func (o *Driver) SetTargets(h Handle, targets map[int]mgl64.Vec3) (err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.SetTargets(targets)
}

// ClearTargets releases all kinematic vertices of body h
func (o *Driver) ClearTargets(h Handle) (err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	b.ClearTargets()
	return
}

// Step advances body h by dt under gravity g
func (o *Driver) Step(h Handle, dt float64, g mgl64.Vec3) (res *StepResult, err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.Step(dt, g)
}

// StepAll advances all bodies concurrently. Results of the bodies that succeeded are
// returned together with the first error.
func (o *Driver) StepAll(ctx context.Context, dt float64, g mgl64.Vec3) (results map[Handle]*StepResult, err error) {
	var bodies []*Body
	for _, h := range o.Handles() {
		b, e := o.Body(h)
		if e == nil {
			bodies = append(bodies, b)
		}
	}
	var mu sync.Mutex
	results = make(map[Handle]*StepResult)
	eg, ctx := errgroup.WithContext(ctx)
	for _, b := range bodies {
		b := b
		eg.Go(func() error {
			if e := ctx.Err(); e != nil {
				return e
			}
			res, e := b.Step(dt, g)
			if e != nil {
				return e
			}
			mu.Lock()
			results[b.Handle] = res
			mu.Unlock()
			return nil
		})
	}
	err = eg.Wait()
	return
}

// Reset restores the rest state of body h
func (o *Driver) Reset(h Handle) (err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	b.Reset()
	o.Log.Debug("body reset", zap.Int("body", int(h)))
	return
}

// Restore sets the state of body h; e.g. from a cached frame. v may be nil.
func (o *Driver) Restore(h Handle, t float64, x, v []mgl64.Vec3) (err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.Restore(t, x, v)
}

// Energy returns the mechanical energy of body h for gravity g
func (o *Driver) Energy(h Handle, g mgl64.Vec3) (res Energy, err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.Energy(g), nil
}

// Jacobian assembles the global stiffness of body h at its current state
func (o *Driver) Jacobian(h Handle) (Kb *la.Triplet, err error) {
	b, err := o.Body(h)
	if err != nil {
		return
	}
	return b.Jacobian()
}
