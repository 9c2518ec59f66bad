// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"errors"
	"math"
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/utl"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gofem/softfem/collide"
	"github.com/gofem/softfem/ele"
	"github.com/gofem/softfem/mdl/solid"
	"github.com/gofem/softfem/msh"
	"github.com/gofem/softfem/par"
)

// StepResult holds the published state after a step
type StepResult struct {
	T          float64      // time after the step
	Positions  []mgl64.Vec3 // [nverts] positions
	Velocities []mgl64.Vec3 // [nverts] velocities
	Substeps   int          // number of substeps used
	Contacts   int          // number of vertices in contact during the last substep
}

// Energy holds the mechanical energy of a body
type Energy struct {
	Kinetic float64 // Σ m v²/2
	Elastic float64 // Σ V Ψ(F)
	Gravity float64 // -Σ m g・x
}

// Total returns the sum of all parts
func (o Energy) Total() float64 { return o.Kinetic + o.Elastic + o.Gravity }

// Body holds one simulated soft body: mesh, material, state and the stages acting on it.
// Only one step may run on a body at a time.
type Body struct {
	Handle Handle         // handle in the driver
	Mesh   *msh.Mesh      // mesh (immutable)
	Mat    solid.Material // material
	Mdl    solid.Model    // material model
	Tets   []*ele.Tet     // elements
	State  *ele.State     // committed state
	Dtcrit float64        // critical time step of the explicit method

	// constraints
	pinned  []bool             // pinned vertices
	pinX    []mgl64.Vec3       // positions of pinned vertices
	targets map[int]mgl64.Vec3 // kinematic vertices => target position at the end of the next frame
	tstart  []mgl64.Vec3       // positions of kinematic vertices at the beginning of a frame
	fixed   []bool             // pinned or kinematic

	// stages
	asm      *Assembler
	integ    Integrator
	resolver *collide.Resolver
	selfcol  *collide.SelfCollider

	// control
	stg      Settings    // settings
	nw       int         // number of workers
	log      *zap.Logger // logger
	bkp      *ele.State  // backup state for divergence control
	halted   bool        // a previous step diverged
	failedDt float64     // frame time step that diverged
	mu       sync.Mutex  // one step at a time
}

// newBody allocates a new body
func newBody(h Handle, verts []mgl64.Vec3, tets [][4]int, mat solid.Material, stg Settings, log *zap.Logger) (o *Body, err error) {

	// material
	o = &Body{Handle: h, Mat: mat, stg: stg, log: log}
	o.Mdl, err = mat.Alloc()
	if err != nil {
		return nil, err
	}

	// mesh
	o.Mesh, err = msh.Build(verts, tets, o.Mdl.GetRho())
	if err != nil {
		return nil, err
	}
	nv := o.Mesh.Nverts()

	// elements and state
	o.nw = par.Workers(stg.Workers)
	o.Tets = ele.NewTets(o.Mesh, o.Mdl)
	o.State = ele.NewState(o.Mesh.X0)
	o.bkp = o.State.GetCopy()
	o.pinned = make([]bool, nv)
	o.pinX = make([]mgl64.Vec3, nv)
	o.tstart = make([]mgl64.Vec3, nv)
	o.fixed = make([]bool, nv)
	o.targets = make(map[int]mgl64.Vec3)

	// stages
	o.asm = NewAssembler(o.Tets, nv, o.nw)
	o.integ, err = NewIntegrator(stg.Integrator)
	if err != nil {
		return nil, err
	}
	err = o.integ.Init(o)
	if err != nil {
		return nil, chk.Err("cannot initialise integrator:\n%v", err)
	}
	o.resolver = collide.NewResolver(stg.Contact, nil, o.nw)
	if stg.Contact.Self {
		o.selfcol = collide.NewSelfCollider(o.Mesh, o.nw)
	}
	o.Dtcrit = o.criticalDt()
	return
}

// Step advances the body by dt with substeps. On failure, the state before the call
// is restored. After a DivergenceError the body is halted: further calls fail until
// Reset is called or dt is smaller than the one that diverged.
func (o *Body) Step(dt float64, g mgl64.Vec3) (res *StepResult, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// check
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, chk.Err("time step must be non-negative and finite. dt=%g is invalid", dt)
	}
	if o.halted && !(dt < o.failedDt) {
		return nil, &DivergenceError{Body: o.Handle, Vertex: -1, Time: o.State.T, Dt: dt, Substep: -1,
			Reason: haltedReason}
	}
	if dt == 0 {
		return o.result(0, 0), nil
	}

	// substeps
	n := o.substeps(dt)
	h := dt / float64(n)
	o.backup()
	for _, k := range o.sortedTargets() {
		o.tstart[k] = o.State.X[k]
	}

	// run
	var ncontacts int
	for s := 1; s <= n; s++ {
		ncontacts, err = o.substep(h, g, float64(s)/float64(n), dt)
		if err != nil {
			o.restore()
			return nil, chk.Err("substep %d of body %d failed:\n%v", s, o.Handle, err)
		}
		if vid, reason := o.diverged(); vid >= 0 {
			t0 := o.bkp.T
			o.restore()
			o.halted, o.failedDt = true, dt
			o.log.Warn("body diverged", zap.Int("body", int(o.Handle)), zap.Float64("t", t0),
				zap.Float64("dt", dt), zap.Int("substep", s), zap.Int("vertex", vid), zap.String("reason", reason))
			return nil, &DivergenceError{Body: o.Handle, Vertex: vid, Time: t0, Dt: dt, Substep: s, Reason: reason}
		}
	}
	o.halted = false
	o.log.Debug("step", zap.Int("body", int(o.Handle)), zap.Float64("t", o.State.T),
		zap.Int("substeps", n), zap.Int("contacts", ncontacts))
	return o.result(n, ncontacts), nil
}

// haltedReason is reported when a halted body is asked to step
const haltedReason = "body is halted after a previous divergence; call Reset or use a smaller time step"

// substep runs all stages for one substep
//  frac -- fraction of the frame completed after this substep
func (o *Body) substep(h float64, g mgl64.Vec3, frac, dt float64) (ncontacts int, err error) {
	s := o.State

	// internal and external forces
	f, jac := o.asm.Assemble(s.X, s.V, !o.integ.Explicit())
	o.external(f, g)
	if o.stg.Contact.Method == collide.Penalty {
		ncontacts = o.resolver.AddPenalty(f, s.X, s.V, o.fixed)
	}

	// advance
	_, cv := o.Mdl.Damping()
	decay := math.Exp(-(cv + o.stg.Damping) * h)
	err = o.integ.Advance(s, f, jac, o.fixed, h, decay)
	if err != nil {
		return
	}

	// collisions
	if o.stg.Contact.Method == collide.Projection {
		ncontacts = o.resolver.Project(s.X, s.V, o.fixed)
	}
	if o.selfcol != nil {
		// the spatial hash cannot bound runaway coordinates; the caller reports them
		if vid, _ := o.diverged(); vid >= 0 {
			return
		}
		o.selfcol.Resolve(s.X, s.V, o.fixed)
	}

	// pins and targets
	o.enforce(frac, dt)
	s.T += h
	return
}

// substeps returns the number of substeps for a frame of size dt
func (o *Body) substeps(dt float64) (n int) {
	n = o.stg.Substeps
	if o.stg.AutoSubsteps && o.integ.Explicit() {
		nmin := int(math.Ceil(dt / (o.stg.Safety * o.Dtcrit)))
		if nmin > n {
			n = nmin
		}
	}
	if n > o.stg.MaxSubsteps {
		o.log.Debug("substeps capped", zap.Int("body", int(o.Handle)), zap.Int("required", n), zap.Int("max", o.stg.MaxSubsteps))
		n = o.stg.MaxSubsteps
	}
	return
}

// criticalDt estimates the stability limit of the explicit method
//   h/c     with c = √((λ+2μ)/ρ)    (elasticity)
//   ρh²/kd                         (stress damping)
//   √(m/ke)                        (penalty contact)
func (o *Body) criticalDt() (dt float64) {
	hmin := o.Mesh.MinAltitude()
	μ, λ := o.Mdl.Lame()
	ρ := o.Mdl.GetRho()
	dt = hmin / math.Sqrt((λ+2.0*μ)/ρ)
	if kd, _ := o.Mdl.Damping(); kd > 0 {
		dt = utl.Min(dt, ρ*hmin*hmin/kd)
	}
	if o.stg.Contact.Method == collide.Penalty && o.stg.Contact.Ke > 0 {
		mmin := math.Inf(1)
		for _, m := range o.Mesh.Mass {
			mmin = utl.Min(mmin, m)
		}
		dt = utl.Min(dt, math.Sqrt(mmin/o.stg.Contact.Ke))
	}
	return
}

// diverged returns the first vertex with non-finite state or runaway speed, or -1
func (o *Body) diverged() (vid int, reason string) {
	s := o.State
	vid = par.Any(len(s.X), o.nw, func(i int) bool { return s.NonFinite(i, i+1) >= 0 })
	if vid >= 0 {
		return vid, "non-finite position or velocity"
	}
	if o.stg.MaxSpeed > 0 {
		vmax2 := o.stg.MaxSpeed * o.stg.MaxSpeed
		vid = par.Any(len(s.V), o.nw, func(i int) bool { return s.V[i].LenSqr() > vmax2 })
		if vid >= 0 {
			return vid, "speed exceeds the maximum allowed"
		}
	}
	return -1, ""
}

// result publishes a copy of the state
func (o *Body) result(nsub, ncontacts int) *StepResult {
	c := o.State.GetCopy()
	return &StepResult{T: c.T, Positions: c.X, Velocities: c.V, Substeps: nsub, Contacts: ncontacts}
}

// backup saves a copy of the state
func (o *Body) backup() {
	o.bkp.Set(o.State)
}

// restore restores the state
func (o *Body) restore() {
	o.State.Set(o.bkp)
}

// Reset restores rest positions, zero velocities and time; pins are kept at their rest positions
func (o *Body) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.State.Reset(o.Mesh.X0)
	for i, p := range o.pinned {
		if p {
			o.pinX[i] = o.Mesh.X0[i]
		}
	}
	o.halted, o.failedDt = false, 0
}

// Restore sets the state; e.g. to warm start from a cached frame
func (o *Body) Restore(t float64, x, v []mgl64.Vec3) (err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := o.Mesh.Nverts()
	if len(x) != n || (v != nil && len(v) != n) {
		return chk.Err("state size mismatch: body has %d vertices; got %d positions and %d velocities", n, len(x), len(v))
	}
	tmp := &ele.State{T: t, X: x, V: v}
	if v == nil {
		tmp.V = make([]mgl64.Vec3, n)
	}
	if vid := tmp.NonFinite(0, n); vid >= 0 {
		return chk.Err("cannot restore non-finite state at vertex %d", vid)
	}
	o.State.Set(tmp)
	for i, p := range o.pinned {
		if p {
			o.pinX[i] = x[i]
			o.State.V[i] = mgl64.Vec3{}
		}
	}
	o.halted, o.failedDt = false, 0
	return
}

// SetColliders initialises and sets the colliders acting on this body. Degenerate
// colliders are skipped and reported in warnings.
func (o *Body) SetColliders(colliders []collide.Collider) (warnings []error, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var valid []collide.Collider
	for i, c := range colliders {
		if c == nil {
			continue
		}
		e := c.Init()
		if e == nil {
			valid = append(valid, c)
			continue
		}
		var derr *collide.ColliderDegenerateError
		if !errors.As(e, &derr) {
			return nil, chk.Err("cannot initialise collider %d:\n%v", i, e)
		}
		warnings = append(warnings, e)
		o.log.Warn("skipping degenerate collider", zap.Int("body", int(o.Handle)), zap.Int("collider", i), zap.Error(e))
	}
	o.resolver = collide.NewResolver(o.stg.Contact, valid, o.nw)
	return
}

// Colliders returns the active colliders
func (o *Body) Colliders() []collide.Collider {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resolver.Colliders
}

// Energy computes the mechanical energy for gravity g
func (o *Body) Energy(g mgl64.Vec3) (res Energy) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, m := range o.Mesh.Mass {
		res.Kinetic += 0.5 * m * o.State.V[i].LenSqr()
		res.Gravity -= m * g.Dot(o.State.X[i])
	}
	res.Elastic = o.asm.Energy(o.State.X)
	return
}

// Jacobian assembles the global stiffness K = -∂f/∂x at the current state
func (o *Body) Jacobian() (Kb *la.Triplet, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 3 * o.Mesh.Nverts()
	Kb = new(la.Triplet)
	Kb.Init(n, n, o.asm.NnzKb())
	err = o.asm.AssembleKb(Kb, o.State.X)
	return
}
