// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package msh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RegularTet returns the vertices and connectivity of a regular tetrahedron with
// edge length a. Vertex 0 is at origin and the face {0,1,2} lies on the plane z = origin[2].
func RegularTet(a float64, origin mgl64.Vec3) (verts []mgl64.Vec3, tets [][4]int) {
	verts = []mgl64.Vec3{
		{0, 0, 0},
		{a, 0, 0},
		{a / 2.0, a * math.Sqrt(3.0) / 2.0, 0},
		{a / 2.0, a * math.Sqrt(3.0) / 6.0, a * math.Sqrt(2.0/3.0)},
	}
	for i := range verts {
		verts[i] = verts[i].Add(origin)
	}
	tets = [][4]int{{0, 1, 2, 3}}
	return
}

// kuhn lists the coordinate orders of the six tetrahedra sharing the main diagonal of a cube
var kuhn = [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

// Grid returns a block of dims[0]×dims[1]×dims[2] cubic cells of size cell, each split
// into six tetrahedra around the cell diagonal. All cells use the same diagonal, so
// the mesh is conforming.
//  origin -- position of the minimum corner
func Grid(dims [3]int, cell float64, origin mgl64.Vec3) (verts []mgl64.Vec3, tets [][4]int) {
	nx, ny, nz := dims[0]+1, dims[1]+1, dims[2]+1
	vid := func(i, j, k int) int { return i + nx*(j+ny*k) }
	verts = make([]mgl64.Vec3, nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				verts[vid(i, j, k)] = origin.Add(mgl64.Vec3{float64(i) * cell, float64(j) * cell, float64(k) * cell})
			}
		}
	}
	for k := 0; k < dims[2]; k++ {
		for j := 0; j < dims[1]; j++ {
			for i := 0; i < dims[0]; i++ {
				for _, perm := range kuhn {
					c := [3]int{i, j, k}
					var t [4]int
					t[0] = vid(c[0], c[1], c[2])
					for m := 0; m < 3; m++ {
						c[perm[m]]++
						t[m+1] = vid(c[0], c[1], c[2])
					}
					Dm := ShapeMatrix(verts[t[0]], verts[t[1]], verts[t[2]], verts[t[3]])
					if Dm.Det() < 0 {
						t[1], t[2] = t[2], t[1]
					}
					tets = append(tets, t)
				}
			}
		}
	}
	return
}
