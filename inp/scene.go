// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a scene (.yaml) file
package inp

import (
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/gofem/softfem/collide"
	"github.com/gofem/softfem/fem"
	"github.com/gofem/softfem/mdl/solid"
	"github.com/gofem/softfem/msh"
)

// Data holds global data for simulations
type Data struct {
	Desc       string     `yaml:"desc"`        // description of simulation
	DirOut     string     `yaml:"dirout"`      // directory for output; e.g. /tmp/softfem
	Encoder    string     `yaml:"encoder"`     // encoder name; e.g. "gob" (default) or "json"
	Fps        float64    `yaml:"fps"`         // frames per second
	FrameStart int        `yaml:"frame_start"` // first frame
	FrameEnd   int        `yaml:"frame_end"`   // last frame
	Gravity    [3]float64 `yaml:"gravity"`     // gravity vector
}

// MeshData holds data for generating or reading a mesh
type MeshData struct {
	Kind   string  `yaml:"kind"`    // "grid", "tet" or "file"
	Dims   [3]int  `yaml:"dims"`    // grid: number of cells along x, y and z
	Cell   float64 `yaml:"cell"`    // grid: cell size
	Edge   float64 `yaml:"edge"`    // tet: edge length
	File   string  `yaml:"file"`    // file: mesh file with "verts" and "tets"; relative to the scene file
	UpAxis string  `yaml:"up_axis"` // file: "z" (default) or "y"; y-up files are converted to z-up
}

// MatData holds material data
type MatData struct {
	Preset string             `yaml:"preset"` // preset name; e.g. "SOFT_RUBBER"
	Model  string             `yaml:"model"`  // model name; overrides the preset's
	Prms   map[string]float64 `yaml:"prms"`   // parameters; override the preset's
}

// BodyData holds body data
type BodyData struct {
	Name     string     `yaml:"name"`      // name of body
	Mesh     MeshData   `yaml:"mesh"`      // mesh
	Mat      MatData    `yaml:"material"`  // material
	Position [3]float64 `yaml:"position"`  // translation applied to the mesh
	Axis     [3]float64 `yaml:"axis"`      // rotation axis applied before translation; zero means none
	Angle    float64    `yaml:"angle"`     // rotation angle [deg]
	Velocity [3]float64 `yaml:"velocity"`  // initial velocity
	Pins     []int      `yaml:"pins"`      // pinned vertices
	PinBelow *float64   `yaml:"pin_below"` // [optional] pin all vertices with z below this value

	// derived
	Verts []mgl64.Vec3 `yaml:"-"` // vertices after transformation
	Tets  [][4]int     `yaml:"-"` // connectivity
}

// ColliderData holds one collider read from the scene file
type ColliderData struct {
	Kind     string           // "plane", "sphere", "box" or "trimesh"
	Collider collide.Collider // allocated collider
}

// UnmarshalYAML allocates the collider named by "kind" and decodes the node into it
func (o *ColliderData) UnmarshalYAML(node *yaml.Node) (err error) {
	var head struct {
		Kind string `yaml:"kind"`
	}
	err = node.Decode(&head)
	if err != nil {
		return
	}
	o.Kind = head.Kind
	o.Collider, err = collide.New(head.Kind)
	if err != nil {
		return
	}
	return node.Decode(o.Collider)
}

// Scene holds all scene data
type Scene struct {

	// input
	Data      Data            `yaml:"data"`      // global data
	Settings  fem.Settings    `yaml:"settings"`  // solver settings
	Bodies    []*BodyData     `yaml:"bodies"`    // all bodies
	Colliders []*ColliderData `yaml:"colliders"` // colliders acting on all bodies

	// derived
	Key     string  // scene key; e.g. drop.yaml => drop or drop-alias
	DirOut  string  // directory to save results
	EncType string  // encoder type
	Dt      float64 // frame time step = 1/fps
}

// ReadScene reads all scene data from a .yaml file
func ReadScene(scenefile, alias string) (o *Scene, err error) {

	// read file
	b, err := io.ReadFile(scenefile)
	if err != nil {
		return nil, chk.Err("cannot read scene file %q:\n%v", scenefile, err)
	}

	// set default values
	o = new(Scene)
	o.Settings = fem.DefaultSettings()
	o.Data.Fps = 24
	o.Data.FrameStart = 1
	o.Data.FrameEnd = 250
	o.Data.Gravity = [3]float64{0, 0, -9.81}

	// decode
	err = yaml.Unmarshal(b, o)
	if err != nil {
		return nil, chk.Err("cannot unmarshal scene file %q:\n%v", scenefile, err)
	}

	// key and output directory
	dir := os.ExpandEnv(filepath.Dir(scenefile))
	o.Key = io.FnKey(filepath.Base(scenefile))
	if alias != "" {
		o.Key += "-" + alias
	}
	o.DirOut = o.Data.DirOut
	if o.DirOut == "" {
		o.DirOut = "/tmp/softfem/" + o.Key
	}
	o.EncType = o.Data.Encoder
	if o.EncType != "gob" && o.EncType != "json" {
		o.EncType = "gob"
	}

	// check
	if !(o.Data.Fps > 0) {
		return nil, chk.Err("fps must be positive. %g is invalid", o.Data.Fps)
	}
	if o.Data.FrameEnd < o.Data.FrameStart {
		return nil, chk.Err("frame range [%d,%d] is invalid", o.Data.FrameStart, o.Data.FrameEnd)
	}
	o.Dt = 1.0 / o.Data.Fps
	err = o.Settings.Check()
	if err != nil {
		return nil, chk.Err("invalid settings in %q:\n%v", scenefile, err)
	}
	if len(o.Bodies) == 0 {
		return nil, chk.Err("scene %q has no bodies", scenefile)
	}

	// meshes
	for i, body := range o.Bodies {
		err = body.genMesh(dir)
		if err != nil {
			return nil, chk.Err("cannot generate mesh of body %d (%q):\n%v", i, body.Name, err)
		}
	}
	return
}

// Gravity returns the gravity vector
func (o *Scene) Gravity() mgl64.Vec3 {
	return mgl64.Vec3(o.Data.Gravity)
}

// Nframes returns the number of frames
func (o *Scene) Nframes() int {
	return o.Data.FrameEnd - o.Data.FrameStart + 1
}

// Build creates all bodies in driver d and sets colliders, pins and initial velocities.
// Warnings about degenerate colliders are returned separately.
func (o *Scene) Build(d *fem.Driver) (handles []fem.Handle, warnings []error, err error) {
	var colliders []collide.Collider
	for _, c := range o.Colliders {
		if c != nil {
			colliders = append(colliders, c.Collider)
		}
	}
	for i, body := range o.Bodies {
		mat, e := body.Mat.Material()
		if e != nil {
			return nil, nil, chk.Err("invalid material of body %d (%q):\n%v", i, body.Name, e)
		}
		h, e := d.CreateBody(body.Verts, body.Tets, mat)
		if e != nil {
			return nil, nil, e
		}
		handles = append(handles, h)
		if len(colliders) > 0 {
			w, e := d.SetColliders(h, colliders)
			if e != nil {
				return nil, nil, e
			}
			if i == 0 {
				warnings = append(warnings, w...)
			}
		}
		pins := body.PinList()
		if len(pins) > 0 {
			e = d.Pin(h, pins...)
			if e != nil {
				return nil, nil, chk.Err("cannot pin vertices of body %d (%q):\n%v", i, body.Name, e)
			}
		}
		if body.Velocity != [3]float64{} {
			v := make([]mgl64.Vec3, len(body.Verts))
			for k := range v {
				v[k] = mgl64.Vec3(body.Velocity)
			}
			for _, k := range pins {
				v[k] = mgl64.Vec3{}
			}
			e = d.Restore(h, 0, body.Verts, v)
			if e != nil {
				return nil, nil, e
			}
		}
	}
	return
}

// Material returns the material described by this data
func (o MatData) Material() (mat solid.Material, err error) {
	if o.Preset != "" {
		mat, err = solid.Preset(o.Preset)
		if err != nil {
			return
		}
	}
	if o.Model != "" {
		mat.Model = o.Model
	}
	keys := make([]string, 0, len(o.Prms))
	for k := range o.Prms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		mat.Set(k, o.Prms[k])
	}
	if len(mat.Prms) == 0 {
		return mat, chk.Err("material needs a preset or parameters")
	}
	return
}

// PinList returns the sorted list of pinned vertices
func (o *BodyData) PinList() (pins []int) {
	set := make(map[int]bool)
	for _, i := range o.Pins {
		set[i] = true
	}
	if o.PinBelow != nil {
		for i, x := range o.Verts {
			if x[2] < *o.PinBelow {
				set[i] = true
			}
		}
	}
	for i := range set {
		pins = append(pins, i)
	}
	sort.Ints(pins)
	return
}

// genMesh generates or reads the mesh and applies rotation and translation
func (o *BodyData) genMesh(dir string) (err error) {
	switch o.Mesh.Kind {
	case "grid":
		if o.Mesh.Dims[0] < 1 || o.Mesh.Dims[1] < 1 || o.Mesh.Dims[2] < 1 || !(o.Mesh.Cell > 0) {
			return chk.Err("grid needs positive dims and cell size. dims=%v cell=%g", o.Mesh.Dims, o.Mesh.Cell)
		}
		o.Verts, o.Tets = msh.Grid(o.Mesh.Dims, o.Mesh.Cell, mgl64.Vec3{})
	case "tet":
		if !(o.Mesh.Edge > 0) {
			return chk.Err("tet needs a positive edge length. %g is invalid", o.Mesh.Edge)
		}
		o.Verts, o.Tets = msh.RegularTet(o.Mesh.Edge, mgl64.Vec3{})
	case "file":
		fn := o.Mesh.File
		if !filepath.IsAbs(fn) {
			fn = filepath.Join(dir, fn)
		}
		o.Verts, o.Tets, err = ReadMesh(fn)
		if err != nil {
			return
		}
		switch o.Mesh.UpAxis {
		case "", "z":
		case "y":
			YupToZup(o.Verts)
		default:
			return chk.Err("up axis %q is invalid. options are \"z\" and \"y\"", o.Mesh.UpAxis)
		}
		FixOrientation(o.Verts, o.Tets)
	default:
		return chk.Err("mesh kind %q is invalid. options are \"grid\", \"tet\" and \"file\"", o.Mesh.Kind)
	}
	var rot mgl64.Quat
	hasRot := o.Angle != 0 && o.Axis != [3]float64{}
	if hasRot {
		rot = mgl64.QuatRotate(o.Angle*math.Pi/180.0, mgl64.Vec3(o.Axis).Normalize())
	}
	for i, x := range o.Verts {
		if hasRot {
			x = rot.Rotate(x)
		}
		o.Verts[i] = x.Add(mgl64.Vec3(o.Position))
	}
	return
}

// meshFile holds the contents of a mesh file
type meshFile struct {
	Verts [][3]float64 `yaml:"verts"`
	Tets  [][4]int     `yaml:"tets"`
}

// ReadMesh reads vertices and tetrahedra from a .yaml (or .json) mesh file
func ReadMesh(fn string) (verts []mgl64.Vec3, tets [][4]int, err error) {
	b, err := io.ReadFile(fn)
	if err != nil {
		return nil, nil, chk.Err("cannot read mesh file %q:\n%v", fn, err)
	}
	var mf meshFile
	err = yaml.Unmarshal(b, &mf)
	if err != nil {
		return nil, nil, chk.Err("cannot unmarshal mesh file %q:\n%v", fn, err)
	}
	if len(mf.Verts) == 0 || len(mf.Tets) == 0 {
		return nil, nil, chk.Err("mesh file %q has no vertices or tetrahedra", fn)
	}
	for e, t := range mf.Tets {
		for _, v := range t {
			if v < 0 || v >= len(mf.Verts) {
				return nil, nil, chk.Err("tetrahedron %d of mesh file %q has invalid vertex %d", e, fn, v)
			}
		}
	}
	verts = make([]mgl64.Vec3, len(mf.Verts))
	for i, x := range mf.Verts {
		verts[i] = mgl64.Vec3(x)
	}
	return verts, mf.Tets, nil
}

// YupToZup converts y-up coordinates to z-up by swapping y and z.
// The swap is a reflection, so every tetrahedron changes orientation.
func YupToZup(verts []mgl64.Vec3) {
	for i, x := range verts {
		verts[i] = mgl64.Vec3{x[0], x[2], x[1]}
	}
}

// FixOrientation swaps the first two vertices of every tetrahedron when all of them have
// non-positive signed volume. Meshes with only some inverted tetrahedra are left unchanged.
//  Output:
//   ninv -- number of tetrahedra with non-positive volume after the fix
func FixOrientation(verts []mgl64.Vec3, tets [][4]int) (ninv int) {
	for _, t := range tets {
		if msh.ShapeMatrix(verts[t[0]], verts[t[1]], verts[t[2]], verts[t[3]]).Det() <= 0 {
			ninv++
		}
	}
	if ninv == 0 || ninv < len(tets) {
		return
	}
	for e := range tets {
		tets[e][0], tets[e][1] = tets[e][1], tets[e][0]
	}
	ninv = 0
	for _, t := range tets {
		if msh.ShapeMatrix(verts[t[0]], verts[t[1]], verts[t[2]], verts[t[3]]).Det() <= 0 {
			ninv++
		}
	}
	return
}
