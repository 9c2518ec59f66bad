// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/ana"
	"github.com/gofem/softfem/collide"
	"github.com/gofem/softfem/mdl/solid"
	"github.com/gofem/softfem/msh"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

var gravity = mgl64.Vec3{0, 0, -9.81}

// rubber returns a material without stress damping
func rubber(model string) solid.Material {
	return solid.Material{Name: "rubber", Model: model, Prms: dbf.Params{
		&dbf.P{N: "mu", V: 1000},
		&dbf.P{N: "lambda", V: 5000},
		&dbf.P{N: "rho", V: 100},
	}}
}

// newDriver returns a driver with a fresh body
func newDriver(tst *testing.T, stg Settings, verts []mgl64.Vec3, tets [][4]int, mat solid.Material) (d *Driver, h Handle) {
	d, err := NewDriver(stg, nil)
	if err != nil {
		tst.Fatalf("NewDriver failed:\n%v", err)
	}
	h, err = d.CreateBody(verts, tets, mat)
	if err != nil {
		tst.Fatalf("CreateBody failed:\n%v", err)
	}
	return
}

func centroid(x []mgl64.Vec3) (c mgl64.Vec3) {
	for _, p := range x {
		c = c.Add(p)
	}
	return c.Mul(1.0 / float64(len(x)))
}

func flatten(x []mgl64.Vec3) (res []float64) {
	for _, p := range x {
		res = append(res, p[0], p[1], p[2])
	}
	return
}

func Test_driver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver01. rest state and handles")

	verts, tets := msh.Grid([3]int{2, 2, 1}, 0.1, mgl64.Vec3{0, 0, 1})
	d, h := newDriver(tst, DefaultSettings(), verts, tets, rubber("neohookean"))
	chk.Int(tst, "handle", int(h), 1)

	// dt = 0
	res, err := d.Step(h, 0, gravity)
	if err != nil {
		tst.Errorf("Step failed:\n%v", err)
		return
	}
	chk.Float64(tst, "t", 1e-17, res.T, 0)
	chk.Int(tst, "substeps", res.Substeps, 0)
	chk.Array(tst, "x", 1e-17, flatten(res.Positions), flatten(verts))
	chk.Array(tst, "v", 1e-17, flatten(res.Velocities), make([]float64, 3*len(verts)))

	// negative dt
	_, err = d.Step(h, -0.1, gravity)
	if err == nil {
		tst.Errorf("negative dt should fail")
	}

	// more bodies
	h2, err := d.CreateBody(verts, tets, rubber("corotated"))
	if err != nil {
		tst.Errorf("CreateBody failed:\n%v", err)
		return
	}
	chk.Int(tst, "handle2", int(h2), 2)
	chk.Int(tst, "nbodies", len(d.Handles()), 2)
	err = d.Remove(h)
	if err != nil {
		tst.Errorf("Remove failed:\n%v", err)
	}
	if _, err = d.Step(h, 0.1, gravity); err == nil {
		tst.Errorf("stepping a removed body should fail")
	}
	if err = d.Remove(h); err == nil {
		tst.Errorf("removing twice should fail")
	}

	// typed errors
	_, err = d.CreateBody(verts, [][4]int{{0, 1, 2, 100}}, rubber(""))
	var terr *msh.InvalidTopologyError
	if !errors.As(err, &terr) {
		tst.Errorf("InvalidTopologyError expected. got %v", err)
	}
	mat := rubber("neohookean")
	mat.Set("mu", -1)
	_, err = d.CreateBody(verts, tets, mat)
	var merr *solid.MaterialDomainError
	if !errors.As(err, &merr) {
		tst.Errorf("MaterialDomainError expected. got %v", err)
	}

	// settings
	for i, modify := range []func(*Settings){
		func(s *Settings) { s.Integrator = "rk4" },
		func(s *Settings) { s.Substeps = 0 },
		func(s *Settings) { s.Safety = 1.5 },
		func(s *Settings) { s.Damping = -1 },
	} {
		stg := DefaultSettings()
		modify(&stg)
		if _, err = NewDriver(stg, nil); err == nil {
			tst.Errorf("invalid settings %d should fail", i)
		}
	}
	stg := DefaultSettings()
	stg.MaxSubsteps = 1
	if err = stg.Check(); err != nil {
		tst.Errorf("Check failed:\n%v", err)
	}
	chk.Int(tst, "maxsubsteps", stg.MaxSubsteps, stg.Substeps)
}

func Test_freefall01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("freefall01. centroid of free bodies")

	stg := DefaultSettings()
	stg.AutoSubsteps = false
	stg.Substeps = 10
	tetVerts, tetTets := msh.RegularTet(1, mgl64.Vec3{0, 0, 5})
	gridVerts, gridTets := msh.Grid([3]int{2, 2, 2}, 0.5, mgl64.Vec3{0, 0, 5})
	for _, mesh := range []struct {
		name  string
		verts []mgl64.Vec3
		tets  [][4]int
	}{
		{"tet", tetVerts, tetTets},
		{"grid", gridVerts, gridTets},
	} {
		io.Pfyel("%s: %d tetrahedra\n", mesh.name, len(mesh.tets))
		d, h := newDriver(tst, stg, mesh.verts, mesh.tets, rubber("neohookean"))
		dt := 1.0 / 24.0
		var sol ana.FreeFall
		c0 := centroid(mesh.verts)
		sol.Init(c0[2], 0, gravity[2], dt/float64(stg.Substeps))
		for frame := 1; frame <= 12; frame++ {
			res, err := d.Step(h, dt, gravity)
			if err != nil {
				tst.Errorf("Step failed:\n%v", err)
				return
			}
			c := centroid(res.Positions)
			z, vz := sol.Calc(frame * stg.Substeps)
			io.Pforan("t = %6.4f  z = %10.6f  z(ana) = %10.6f\n", res.T, c[2], z)
			chk.Float64(tst, mesh.name+": zc", 1e-9, c[2], z)
			chk.Float64(tst, mesh.name+": xc", 1e-9, c[0], c0[0])
			chk.Float64(tst, mesh.name+": yc", 1e-9, c[1], c0[1])
			chk.Float64(tst, mesh.name+": vz", 1e-9, centroid(res.Velocities)[2], vz)
			chk.Float64(tst, mesh.name+": t", 1e-12, res.T, float64(frame)*dt)
		}
	}
}

func Test_pins01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("pins01. hanging block and kinematic targets")

	verts, tets := msh.Grid([3]int{2, 2, 2}, 0.1, mgl64.Vec3{0, 0, 1})
	d, h := newDriver(tst, DefaultSettings(), verts, tets, rubber("neohookean"))

	// pin top layer
	var top []int
	for i, x := range verts {
		if math.Abs(x[2]-1.2) < 1e-12 {
			top = append(top, i)
		}
	}
	chk.Int(tst, "ntop", len(top), 9)
	err := d.Pin(h, top...)
	if err != nil {
		tst.Errorf("Pin failed:\n%v", err)
		return
	}
	if err = d.Pin(h, len(verts)); err == nil {
		tst.Errorf("out-of-range pin should fail")
	}

	// hang
	var res *StepResult
	for frame := 0; frame < 24; frame++ {
		res, err = d.Step(h, 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		for _, i := range top {
			chk.Array(tst, io.Sf("x%d", i), 1e-17, res.Positions[i][:], verts[i][:])
			chk.Array(tst, io.Sf("v%d", i), 1e-17, res.Velocities[i][:], []float64{0, 0, 0})
		}
	}
	if res.Positions[0][2] >= verts[0][2] {
		tst.Errorf("bottom vertex should move down: z = %g", res.Positions[0][2])
	}

	// kinematic vertex
	target := res.Positions[0].Add(mgl64.Vec3{0.01, 0, 0})
	start := res.Positions[0]
	dt := 0.01
	err = d.SetTargets(h, map[int]mgl64.Vec3{0: target})
	if err != nil {
		tst.Errorf("SetTargets failed:\n%v", err)
		return
	}
	res, err = d.Step(h, dt, gravity)
	if err != nil {
		tst.Errorf("Step failed:\n%v", err)
		return
	}
	chk.Array(tst, "target", 1e-14, res.Positions[0][:], target[:])
	vtarget := target.Sub(start).Mul(1.0 / dt)
	chk.Array(tst, "vtarget", 1e-10, res.Velocities[0][:], vtarget[:])
	err = d.SetTargets(h, map[int]mgl64.Vec3{1: {math.NaN(), 0, 0}})
	if err == nil {
		tst.Errorf("non-finite target should fail")
	}

	// release
	d.ClearTargets(h)
	err = d.Unpin(h, top...)
	if err != nil {
		tst.Errorf("Unpin failed:\n%v", err)
		return
	}
	b, _ := d.Body(h)
	chk.Int(tst, "npinned", len(b.Pinned()), 0)
	res, err = d.Step(h, dt, gravity)
	if err != nil {
		tst.Errorf("Step failed:\n%v", err)
		return
	}
	if res.Positions[top[0]][2] >= verts[top[0]][2] {
		tst.Errorf("released vertex should fall")
	}
}

func Test_settle01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("settle01. block resting on ground")

	stg := DefaultSettings()
	stg.Damping = 5
	verts, tets := msh.Grid([3]int{2, 2, 2}, 0.1, mgl64.Vec3{0, 0, 0.05})
	mat, err := solid.Preset("JELLY")
	if err != nil {
		tst.Errorf("Preset failed:\n%v", err)
		return
	}
	d, h := newDriver(tst, stg, verts, tets, mat)
	warns, err := d.SetColliders(h, []collide.Collider{collide.NewGround(0), &collide.Sphere{Radius: 0}})
	if err != nil {
		tst.Errorf("SetColliders failed:\n%v", err)
		return
	}
	chk.Int(tst, "nwarnings", len(warns), 1)
	var derr *collide.ColliderDegenerateError
	if !errors.As(warns[0], &derr) {
		tst.Errorf("ColliderDegenerateError expected. got %v", warns[0])
	}

	// run 2 seconds
	var kmax, kend float64
	var contacts int
	for frame := 0; frame < 48; frame++ {
		res, err := d.Step(h, 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		for i, x := range res.Positions {
			if x[2] < -1e-9 {
				tst.Errorf("vertex %d penetrates the ground: z = %g", i, x[2])
				return
			}
		}
		e, _ := d.Energy(h, gravity)
		kmax = math.Max(kmax, e.Kinetic)
		kend = e.Kinetic
		contacts = res.Contacts
	}
	io.Pforan("kmax = %g  kend = %g  contacts = %d\n", kmax, kend, contacts)
	if kend > 1e-2*kmax {
		tst.Errorf("kinetic energy should decay: kmax = %g, kend = %g", kmax, kend)
	}
	if contacts < 9 {
		tst.Errorf("bottom layer should touch the ground. contacts = %d", contacts)
	}
}

func Test_settle02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("settle02. kinetic energy decays once in contact")

	// overdamped block released at rest on the ground
	stg := DefaultSettings()
	stg.Damping = 200
	verts, tets := msh.Grid([3]int{2, 2, 2}, 0.1, mgl64.Vec3{})
	mat, _ := solid.Preset("JELLY")
	d, h := newDriver(tst, stg, verts, tets, mat)
	d.SetColliders(h, []collide.Collider{collide.NewGround(0)})

	var kprev, kmax float64
	touched := false
	for frame := 0; frame < 24; frame++ {
		res, err := d.Step(h, 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		e, _ := d.Energy(h, gravity)
		io.Pforan("frame %2d: contacts = %2d  K = %g\n", frame, res.Contacts, e.Kinetic)
		if touched && e.Kinetic > kprev*(1+1e-9) && e.Kinetic > 1e-10*kmax {
			tst.Errorf("kinetic energy increased at frame %d: %g > %g", frame, e.Kinetic, kprev)
			return
		}
		if res.Contacts > 0 {
			touched = true
		}
		kprev = e.Kinetic
		kmax = math.Max(kmax, e.Kinetic)
	}
	if !touched {
		tst.Errorf("block should touch the ground")
	}
}

func Test_penalty01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("penalty01. block on ground with penalty contacts")

	verts, tets := msh.Grid([3]int{2, 2, 1}, 0.1, mgl64.Vec3{0, 0, 0.01})
	ref, r := newDriver(tst, DefaultSettings(), verts, tets, rubber("neohookean"))
	stg := DefaultSettings()
	stg.Damping = 5
	stg.Contact.Method = collide.Penalty
	d, h := newDriver(tst, stg, verts, tets, rubber("neohookean"))
	d.SetColliders(h, []collide.Collider{collide.NewGround(0)})

	// contact stiffness limits the time step
	b, _ := d.Body(h)
	br, _ := ref.Body(r)
	mmin := b.Mesh.Mass[0]
	for _, m := range b.Mesh.Mass {
		mmin = math.Min(mmin, m)
	}
	chk.Float64(tst, "dtcrit", 1e-17, b.Dtcrit, math.Min(br.Dtcrit, math.Sqrt(mmin/stg.Contact.Ke)))
	if !(b.Dtcrit < br.Dtcrit) {
		tst.Errorf("penalty contacts should reduce the critical time step: %g >= %g", b.Dtcrit, br.Dtcrit)
	}

	var res *StepResult
	var err error
	for frame := 0; frame < 48; frame++ {
		res, err = d.Step(h, 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		for i, x := range res.Positions {
			if x[2] < -0.01 {
				tst.Errorf("vertex %d sinks too deep at frame %d: z = %g", i, frame, x[2])
				return
			}
		}
	}
	zmin := math.Inf(1)
	for _, x := range res.Positions {
		zmin = math.Min(zmin, x[2])
	}
	io.Pforan("zmin = %g  contacts = %d\n", zmin, res.Contacts)
	if res.Contacts == 0 {
		tst.Errorf("bottom layer should be in contact")
	}
	if zmin > 0 || zmin < -2e-3 {
		tst.Errorf("penalty contacts need a small penetration. zmin = %g", zmin)
	}
}

// overlapping returns two regular tetrahedra where vertex 4 lies at the centroid of the first one
func overlapping() (verts []mgl64.Vec3, tets [][4]int) {
	va, ta := msh.RegularTet(1, mgl64.Vec3{})
	c := va[0].Add(va[1]).Add(va[2]).Add(va[3]).Mul(0.25)
	vb, _ := msh.RegularTet(1, c)
	return append(va, vb...), append(ta, [4]int{4, 5, 6, 7})
}

func Test_self01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("self01. self-collision within a step")

	verts, tets := overlapping()
	var zero mgl64.Vec3
	for _, self := range []bool{false, true} {
		stg := DefaultSettings()
		stg.AutoSubsteps = false
		stg.Substeps = 1
		stg.Contact.Self = self
		d, h := newDriver(tst, stg, verts, tets, rubber("neohookean"))
		res, err := d.Step(h, 1e-4, zero)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		moved := res.Positions[4].Sub(verts[4]).Len()
		io.Pforan("self = %v  moved = %g\n", self, moved)
		if self {
			chk.Float64(tst, "moved (self)", 1e-9, moved, 1.0/(2.0*math.Sqrt(6)))
		} else {
			chk.Float64(tst, "moved", 1e-9, moved, 0)
		}
		for i := 0; i < 8; i++ {
			if i != 4 {
				chk.Array(tst, io.Sf("x%d", i), 1e-9, res.Positions[i][:], verts[i][:])
			}
		}
	}
}

// perturbed returns the regular tetrahedron with vertex 3 moved up by δ
func perturbed(δ float64) (verts, x []mgl64.Vec3, tets [][4]int) {
	verts, tets = msh.RegularTet(1, mgl64.Vec3{})
	x = make([]mgl64.Vec3, len(verts))
	copy(x, verts)
	x[3][2] += δ
	return
}

func Test_energy01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("energy01. undamped oscillation")

	stg := DefaultSettings()
	stg.AutoSubsteps = false
	stg.Substeps = 40
	verts, x, tets := perturbed(0.05)
	d, h := newDriver(tst, stg, verts, tets, rubber("neohookean"))
	err := d.Restore(h, 0, x, nil)
	if err != nil {
		tst.Errorf("Restore failed:\n%v", err)
		return
	}

	var zero mgl64.Vec3
	e0, _ := d.Energy(h, zero)
	chk.Float64(tst, "kinetic0", 1e-17, e0.Kinetic, 0)
	if e0.Elastic <= 0 {
		tst.Errorf("elastic energy should be positive")
		return
	}
	for frame := 0; frame < 200; frame++ {
		_, err = d.Step(h, 0.01, zero)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		e, _ := d.Energy(h, zero)
		if math.Abs(e.Total()-e0.Total()) > 0.05*e0.Total() {
			tst.Errorf("energy drift is too large at frame %d: E = %g, E0 = %g", frame, e.Total(), e0.Total())
			return
		}
	}

	// reset
	err = d.Reset(h)
	if err != nil {
		tst.Errorf("Reset failed:\n%v", err)
		return
	}
	res, _ := d.Step(h, 0, zero)
	chk.Float64(tst, "t", 1e-17, res.T, 0)
	chk.Array(tst, "x", 1e-17, flatten(res.Positions), flatten(verts))
	chk.Array(tst, "v", 1e-17, flatten(res.Velocities), make([]float64, 12))
}

func Test_divergence01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("divergence01. time step far above stability bound")

	mat, _ := solid.Preset("STIFF")
	verts, x, tets := perturbed(0.1)

	// stable: automatic substeps
	d, h := newDriver(tst, DefaultSettings(), verts, tets, mat)
	d.Restore(h, 0, x, nil)
	for frame := 0; frame < 24; frame++ {
		_, err := d.Step(h, 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("Step failed below stability bound:\n%v", err)
			return
		}
	}

	// unstable: one substep
	stg := DefaultSettings()
	stg.AutoSubsteps = false
	stg.Substeps = 1
	d, h = newDriver(tst, stg, verts, tets, mat)
	d.Restore(h, 0, x, nil)
	b, _ := d.Body(h)
	dt := 40 * b.Dtcrit
	var derr *DivergenceError
	var last *StepResult
	for frame := 0; frame < 50; frame++ {
		res, err := d.Step(h, dt, gravity)
		if err != nil {
			if !errors.As(err, &derr) {
				tst.Errorf("DivergenceError expected. got %v", err)
				return
			}
			break
		}
		last = res
	}
	if derr == nil {
		tst.Errorf("DivergenceError expected")
		return
	}
	io.Pforan("%v\n", derr)
	chk.Int(tst, "substep", derr.Substep, 1)

	// rolled back
	res, err := d.Step(h, 0, gravity)
	if err != nil {
		tst.Errorf("dt = 0 should always succeed:\n%v", err)
		return
	}
	if last != nil {
		chk.Float64(tst, "t", 1e-17, res.T, last.T)
		chk.Array(tst, "x", 1e-17, flatten(res.Positions), flatten(last.Positions))
	} else {
		chk.Array(tst, "x", 1e-17, flatten(res.Positions), flatten(x))
	}

	// halted
	_, err = d.Step(h, dt, gravity)
	if !errors.As(err, &derr) {
		tst.Errorf("halted body should fail with DivergenceError. got %v", err)
		return
	}
	chk.Int(tst, "substep", derr.Substep, -1)

	// reset
	d.Reset(h)
	_, err = d.Step(h, b.Dtcrit/4, gravity)
	if err != nil {
		tst.Errorf("Step after Reset failed:\n%v", err)
	}

	// runaway state is reported before self-collision sees it
	stg.Contact.Self = true
	d, h = newDriver(tst, stg, verts, tets, mat)
	d.Restore(h, 0, x, nil)
	derr = nil
	for frame := 0; frame < 50; frame++ {
		if _, err = d.Step(h, dt, gravity); err != nil {
			break
		}
	}
	if !errors.As(err, &derr) {
		tst.Errorf("DivergenceError expected with self-collision. got %v", err)
	}
}

func Test_implicit01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("implicit01. backward Euler with large time steps")

	stg := DefaultSettings()
	stg.Integrator = "implicit"
	stg.Substeps = 1
	verts, x, tets := perturbed(0.02)
	d, h := newDriver(tst, stg, verts, tets, rubber("neohookean"))
	d.Restore(h, 0, x, nil)
	b, _ := d.Body(h)

	var zero mgl64.Vec3
	e0, _ := d.Energy(h, zero)
	dt := 10 * b.Dtcrit
	for frame := 0; frame < 10; frame++ {
		res, err := d.Step(h, dt, zero)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		chk.Int(tst, "substeps", res.Substeps, 1)
	}
	e, _ := d.Energy(h, zero)
	io.Pforan("E0 = %g  E = %g  nit = %d\n", e0.Total(), e.Total(), b.integ.(*Implicit).NitLast)
	if e.Total() > e0.Total() {
		tst.Errorf("backward Euler should dissipate energy: E = %g > E0 = %g", e.Total(), e0.Total())
	}

	// material without tangent
	_, err := d.CreateBody(verts, tets, rubber("corotated"))
	if err == nil {
		tst.Errorf("implicit integrator with corotated model should fail")
	}
}

func Test_stepall01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("stepall01. concurrent bodies")

	stg := DefaultSettings()
	stg.Workers = 2
	d, err := NewDriver(stg, nil)
	if err != nil {
		tst.Errorf("NewDriver failed:\n%v", err)
		return
	}
	ref, err := NewDriver(stg, nil)
	if err != nil {
		tst.Errorf("NewDriver failed:\n%v", err)
		return
	}
	verts, tets := msh.Grid([3]int{2, 1, 1}, 0.1, mgl64.Vec3{0, 0, 0.2})
	var hs []Handle
	for i := 0; i < 3; i++ {
		h, err := d.CreateBody(verts, tets, rubber("neohookean"))
		if err != nil {
			tst.Errorf("CreateBody failed:\n%v", err)
			return
		}
		d.SetColliders(h, []collide.Collider{collide.NewGround(0)})
		hs = append(hs, h)
	}
	r, _ := ref.CreateBody(verts, tets, rubber("neohookean"))
	ref.SetColliders(r, []collide.Collider{collide.NewGround(0)})

	var results map[Handle]*StepResult
	var expected *StepResult
	for frame := 0; frame < 12; frame++ {
		results, err = d.StepAll(context.Background(), 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("StepAll failed:\n%v", err)
			return
		}
		expected, _ = ref.Step(r, 1.0/24.0, gravity)
	}
	chk.Int(tst, "nresults", len(results), 3)
	for _, h := range hs {
		chk.Array(tst, io.Sf("x%d", h), 1e-17, flatten(results[h].Positions), flatten(expected.Positions))
	}

	// cancelled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.StepAll(ctx, 1.0/24.0, gravity)
	if !errors.Is(err, context.Canceled) {
		tst.Errorf("context.Canceled expected. got %v", err)
	}
}

func Test_shared01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("shared01. colliders shared by bodies")

	verts, tets := msh.Grid([3]int{2, 1, 1}, 0.1, mgl64.Vec3{0, 0, 0.05})
	d, h1 := newDriver(tst, DefaultSettings(), verts, tets, rubber("neohookean"))
	h2, err := d.CreateBody(verts, tets, rubber("neohookean"))
	if err != nil {
		tst.Errorf("CreateBody failed:\n%v", err)
		return
	}
	ref, r := newDriver(tst, DefaultSettings(), verts, tets, rubber("neohookean"))
	ref.SetColliders(r, []collide.Collider{collide.NewGround(0)})

	// step h1 while h2 receives the same colliders again and again
	shared := []collide.Collider{&collide.Plane{Normal: mgl64.Vec3{0, 0, 2}}}
	d.SetColliders(h1, shared)
	var res *StepResult
	var errStep error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for frame := 0; frame < 24 && errStep == nil; frame++ {
			res, errStep = d.Step(h1, 1.0/24.0, gravity)
		}
	}()
	go func() {
		defer wg.Done()
		for k := 0; k < 24; k++ {
			if _, e := d.SetColliders(h2, shared); e != nil {
				tst.Errorf("SetColliders failed:\n%v", e)
				return
			}
		}
	}()
	wg.Wait()
	if errStep != nil {
		tst.Errorf("Step failed:\n%v", errStep)
		return
	}
	var expected *StepResult
	for frame := 0; frame < 24; frame++ {
		expected, _ = ref.Step(r, 1.0/24.0, gravity)
	}
	chk.Array(tst, "x", 1e-15, flatten(res.Positions), flatten(expected.Positions))
	chk.Array(tst, "n", 1e-15, shared[0].(*collide.Plane).Normal[:], []float64{0, 0, 1})
}

func Test_jacobian01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("jacobian01. global stiffness of deformed block")

	verts, tets := msh.Grid([3]int{1, 1, 1}, 0.5, mgl64.Vec3{})
	d, h := newDriver(tst, DefaultSettings(), verts, tets, rubber("neohookean"))
	x := make([]mgl64.Vec3, len(verts))
	for i, p := range verts {
		x[i] = mgl64.Vec3{1.1 * p[0], p[1] + 0.05*p[2], 0.9 * p[2]}
	}
	err := d.Restore(h, 0, x, nil)
	if err != nil {
		tst.Errorf("Restore failed:\n%v", err)
		return
	}
	Kb, err := d.Jacobian(h)
	if err != nil {
		tst.Errorf("Jacobian failed:\n%v", err)
		return
	}
	K := Kb.ToDense()
	n := 3 * len(verts)

	// symmetry and rigid translations
	kmax := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kmax = utl.Max(kmax, math.Abs(K.Get(i, j)))
		}
	}
	tol := 1e-12 * kmax
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			chk.Float64(tst, io.Sf("K%d%d", i, j), tol, K.Get(i, j), K.Get(j, i))
		}
		for k := 0; k < 3; k++ {
			sum := 0.0
			for a := 0; a < len(verts); a++ {
				sum += K.Get(i, 3*a+k)
			}
			chk.Float64(tst, io.Sf("K%d・t%d", i, k), tol*float64(n), sum, 0)
		}
	}

	// diagonal blocks from the parallel assembler
	b, _ := d.Body(h)
	v := make([]mgl64.Vec3, len(verts))
	f0, _ := b.asm.Assemble(x, v, false)
	f0 = append([]mgl64.Vec3{}, f0...)
	f, jac := b.asm.Assemble(x, v, true)
	chk.Int(tst, "njac", len(jac), len(verts))
	chk.Array(tst, "f", 1e-15, flatten(f), flatten(f0))
	for a := range verts {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				chk.Float64(tst, io.Sf("jac%d[%d,%d]", a, i, j), tol, jac[a].At(i, j), K.Get(3*a+i, 3*a+j))
			}
		}
	}

	// no blocks without tangent
	hc, err := d.CreateBody(verts, tets, rubber("corotated"))
	if err != nil {
		tst.Errorf("CreateBody failed:\n%v", err)
		return
	}
	bc, _ := d.Body(hc)
	if _, jac = bc.asm.Assemble(verts, v, true); jac != nil {
		tst.Errorf("corotated model has no tangent; blocks should be nil")
	}
}

func Test_drop01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("drop01. regular tetrahedron dropped onto ground")

	stg := DefaultSettings()
	stg.Damping = 5
	verts, tets := msh.RegularTet(0.5, mgl64.Vec3{0, 0, 0.5})
	mat := solid.Material{Model: "neohookean", Prms: dbf.Params{
		&dbf.P{N: "E", V: 1e4},
		&dbf.P{N: "nu", V: 0.3},
		&dbf.P{N: "rho", V: 100},
		&dbf.P{N: "kd", V: 0.5},
	}}
	d, h := newDriver(tst, stg, verts, tets, mat)
	d.SetColliders(h, []collide.Collider{collide.NewGround(0)})

	var res *StepResult
	var err error
	for frame := 0; frame < 72; frame++ {
		res, err = d.Step(h, 1.0/24.0, gravity)
		if err != nil {
			tst.Errorf("Step failed:\n%v", err)
			return
		}
		for i, x := range res.Positions {
			if x[2] < -1e-9 {
				tst.Errorf("vertex %d penetrates the ground at frame %d: z = %g", i, frame, x[2])
				return
			}
		}
	}
	vmax := 0.0
	for _, v := range res.Velocities {
		vmax = utl.Max(vmax, v.Len())
	}
	io.Pforan("vmax = %g  z = %v\n", vmax, []float64{res.Positions[0][2], res.Positions[1][2], res.Positions[2][2], res.Positions[3][2]})
	if vmax > 1e-2 {
		tst.Errorf("tetrahedron should come to rest. vmax = %g", vmax)
	}
	for i := 0; i < 3; i++ {
		chk.Float64(tst, io.Sf("z%d", i), 1e-6, res.Positions[i][2], 0)
	}
	if res.Positions[3][2] < 0.3 {
		tst.Errorf("apex should stay well above the ground. z = %g", res.Positions[3][2])
	}
}
