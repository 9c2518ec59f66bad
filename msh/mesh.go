// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package msh implements the tetrahedral mesh model: topology, rest geometry and lumped masses
package msh

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/io"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gofem/softfem/mdl/solid"
)

// DegenerateTol is the relative tolerance for rest volumes: a tetrahedron with
// volume <= DegenerateTol * Lmax³ (Lmax = longest edge) is considered degenerate
var DegenerateTol = 1e-12

// Mesh holds the immutable data of a tetrahedral mesh. All slices are indexed by
// vertex id or tetrahedron id and must not be modified after Build.
type Mesh struct {

	// input
	X0   []mgl64.Vec3 // [nverts] rest positions
	Tets [][4]int     // [ntets] vertex indices of each tetrahedron
	Rho  float64      // density

	// derived
	DmInv []mgl64.Mat3 // [ntets] inverse of rest shape matrix [x1-x0 | x2-x0 | x3-x0]
	Vol   []float64    // [ntets] rest volumes
	Mass  []float64    // [nverts] lumped masses
	Xmin  mgl64.Vec3   // bounding box of rest configuration
	Xmax  mgl64.Vec3   // bounding box of rest configuration
}

// Build validates the input mesh and computes rest-state data.
//  verts   -- rest positions
//  tets    -- vertex indices; positive orientation: (x1-x0)·((x2-x0)×(x3-x0)) > 0
//  density -- mass density; distributed equally to the four vertices of each element
func Build(verts []mgl64.Vec3, tets [][4]int, density float64) (o *Mesh, err error) {

	// check
	if len(verts) == 0 {
		return nil, topoErr(-1, -1, "mesh has no vertices")
	}
	if len(tets) == 0 {
		return nil, topoErr(-1, -1, "mesh has no tetrahedra")
	}
	if !(density > 0) || math.IsInf(density, 0) {
		return nil, &solid.MaterialDomainError{Param: "rho", Value: density, Reason: "density must be positive and finite"}
	}
	for i, x := range verts {
		if !finite(x) {
			return nil, topoErr(-1, i, io.Sf("vertex %d has non-finite coordinates %v", i, x))
		}
	}

	// new mesh
	o = new(Mesh)
	o.X0 = make([]mgl64.Vec3, len(verts))
	copy(o.X0, verts)
	o.Tets = make([][4]int, len(tets))
	copy(o.Tets, tets)
	o.Rho = density
	o.DmInv = make([]mgl64.Mat3, len(tets))
	o.Vol = make([]float64, len(tets))
	o.Mass = make([]float64, len(verts))

	// elements
	nv := len(verts)
	for e, t := range o.Tets {
		for j := 0; j < 4; j++ {
			if t[j] < 0 || t[j] >= nv {
				return nil, topoErr(e, t[j], io.Sf("tetrahedron %d references vertex %d out of range [0,%d)", e, t[j], nv))
			}
			for k := 0; k < j; k++ {
				if t[k] == t[j] {
					return nil, topoErr(e, t[j], io.Sf("tetrahedron %d references vertex %d twice", e, t[j]))
				}
			}
		}
		Dm := ShapeMatrix(o.X0[t[0]], o.X0[t[1]], o.X0[t[2]], o.X0[t[3]])
		vol := Dm.Det() / 6.0
		lmax := maxEdge(o.X0[t[0]], o.X0[t[1]], o.X0[t[2]], o.X0[t[3]])
		if vol < 0 {
			return nil, topoErr(e, -1, io.Sf("tetrahedron %d is inverted at rest (volume = %g)", e, vol))
		}
		if vol <= DegenerateTol*lmax*lmax*lmax {
			return nil, topoErr(e, -1, io.Sf("tetrahedron %d is degenerate (volume = %g)", e, vol))
		}
		o.DmInv[e] = Dm.Inv()
		o.Vol[e] = vol
		m := density * vol / 4.0
		for j := 0; j < 4; j++ {
			o.Mass[t[j]] += m
		}
	}

	// orphan vertices would have zero mass
	for i, m := range o.Mass {
		if m <= 0 {
			return nil, topoErr(-1, i, io.Sf("vertex %d is not referenced by any tetrahedron", i))
		}
	}

	// bounding box
	o.Xmin, o.Xmax = o.X0[0], o.X0[0]
	for _, x := range o.X0 {
		for k := 0; k < 3; k++ {
			o.Xmin[k] = math.Min(o.Xmin[k], x[k])
			o.Xmax[k] = math.Max(o.Xmax[k], x[k])
		}
	}
	return
}

// Nverts returns the number of vertices
func (o *Mesh) Nverts() int { return len(o.X0) }

// Ntets returns the number of tetrahedra
func (o *Mesh) Ntets() int { return len(o.Tets) }

// TotalMass returns the sum of all lumped masses
func (o *Mesh) TotalMass() (m float64) {
	for _, mi := range o.Mass {
		m += mi
	}
	return
}

// TotalVolume returns the rest volume of the mesh
func (o *Mesh) TotalVolume() (v float64) {
	for _, ve := range o.Vol {
		v += ve
	}
	return
}

// Altitude returns the smallest altitude (3V / largest face area) of tetrahedron e
func (o *Mesh) Altitude(e int) float64 {
	t := o.Tets[e]
	x := [4]mgl64.Vec3{o.X0[t[0]], o.X0[t[1]], o.X0[t[2]], o.X0[t[3]]}
	var amax float64
	for _, f := range TetFaces {
		a := x[f[1]].Sub(x[f[0]]).Cross(x[f[2]].Sub(x[f[0]])).Len() / 2.0
		amax = math.Max(amax, a)
	}
	return 3.0 * o.Vol[e] / amax
}

// MinAltitude returns the smallest element altitude; it controls the explicit stability limit
func (o *Mesh) MinAltitude() (h float64) {
	h = math.Inf(1)
	for e := range o.Tets {
		h = math.Min(h, o.Altitude(e))
	}
	return
}

// TetFaces lists the faces of a tetrahedron with outward orientation for positive volumes
var TetFaces = [4][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}

// Surface returns the boundary triangles (faces referenced by a single tetrahedron),
// oriented outwards. The order follows element order.
func (o *Mesh) Surface() (tris [][3]int) {
	count := make(map[[3]int]int)
	for _, t := range o.Tets {
		for _, f := range TetFaces {
			count[faceKey(t[f[0]], t[f[1]], t[f[2]])]++
		}
	}
	for _, t := range o.Tets {
		for _, f := range TetFaces {
			if count[faceKey(t[f[0]], t[f[1]], t[f[2]])] == 1 {
				tris = append(tris, [3]int{t[f[0]], t[f[1]], t[f[2]]})
			}
		}
	}
	return
}

// Adjacency returns, for each vertex, the sorted list of incident tetrahedra
func (o *Mesh) Adjacency() (v2t [][]int) {
	v2t = make([][]int, len(o.X0))
	for e, t := range o.Tets {
		for _, v := range t {
			v2t[v] = append(v2t[v], e)
		}
	}
	return
}

// ShapeMatrix returns the matrix whose columns are the edge vectors from x0
func ShapeMatrix(x0, x1, x2, x3 mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromCols(x1.Sub(x0), x2.Sub(x0), x3.Sub(x0))
}

// auxiliary ////////////////////////////////////////////////////////////////////////////////////

func finite(x mgl64.Vec3) bool {
	for k := 0; k < 3; k++ {
		if math.IsNaN(x[k]) || math.IsInf(x[k], 0) {
			return false
		}
	}
	return true
}

func maxEdge(x0, x1, x2, x3 mgl64.Vec3) (l float64) {
	x := [4]mgl64.Vec3{x0, x1, x2, x3}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			l = math.Max(l, x[j].Sub(x[i]).Len())
		}
	}
	return
}

func faceKey(a, b, c int) [3]int {
	k := []int{a, b, c}
	sort.Ints(k)
	return [3]int{k[0], k[1], k[2]}
}
