// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collide

import (
	"math"

	"github.com/cpmech/gosl/io"
	"github.com/go-gl/mathgl/mgl64"
)

// TriMesh is a closed triangle mesh. Points with generalised winding number
// |w| > 0.5 are inside, thus small gaps in the surface are tolerated.
type TriMesh struct {
	Motion `yaml:",inline"`
	Verts  []mgl64.Vec3 `yaml:"verts" json:"verts"` // vertices
	Tris   [][3]int     `yaml:"tris" json:"tris"`   // triangles

	// derived
	centre mgl64.Vec3   // centroid of vertices (for angular velocity)
	lo, hi mgl64.Vec3   // bounds
	tlo    []mgl64.Vec3 // [ntris] triangle bounds
	thi    []mgl64.Vec3 // [ntris] triangle bounds
	normal []mgl64.Vec3 // [ntris] unit normals
	done   setup
}

// add collider to factory
func init() {
	allocators["trimesh"] = func() Collider { return new(TriMesh) }
}

// Init initialises the trimesh once; later calls return the first result
func (o *TriMesh) Init() error { return o.done.run(o.prepare) }

// prepare checks the triangles and computes bounds and normals
func (o *TriMesh) prepare() (err error) {
	if len(o.Verts) == 0 || len(o.Tris) == 0 {
		return &ColliderDegenerateError{"trimesh", "mesh has no triangles"}
	}
	nv := len(o.Verts)
	o.tlo = make([]mgl64.Vec3, len(o.Tris))
	o.thi = make([]mgl64.Vec3, len(o.Tris))
	o.normal = make([]mgl64.Vec3, len(o.Tris))
	var area float64
	for t, tri := range o.Tris {
		for _, v := range tri {
			if v < 0 || v >= nv {
				return &ColliderDegenerateError{"trimesh", io.Sf("triangle %d references vertex %d out of range", t, v)}
			}
		}
		a, b, c := o.Verts[tri[0]], o.Verts[tri[1]], o.Verts[tri[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		l := n.Len()
		area += l / 2.0
		if l > 0 {
			o.normal[t] = n.Mul(1.0 / l)
		}
		for k := 0; k < 3; k++ {
			o.tlo[t][k] = math.Min(a[k], math.Min(b[k], c[k]))
			o.thi[t][k] = math.Max(a[k], math.Max(b[k], c[k]))
		}
	}
	if !(area > 0) {
		return &ColliderDegenerateError{"trimesh", "total area is zero"}
	}
	o.lo, o.hi = o.tlo[0], o.thi[0]
	o.centre = mgl64.Vec3{}
	for _, x := range o.Verts {
		o.centre = o.centre.Add(x.Mul(1.0 / float64(nv)))
	}
	for t := range o.Tris {
		for k := 0; k < 3; k++ {
			o.lo[k] = math.Min(o.lo[k], o.tlo[t][k])
			o.hi[k] = math.Max(o.hi[k], o.thi[t][k])
		}
	}
	if w := o.Winding(o.hi.Add(mgl64.Vec3{1, 1, 1})); math.Abs(w) > 0.5 {
		return &ColliderDegenerateError{"trimesh", "far point is reported inside; mesh is malformed"}
	}
	return
}

// Kind returns "trimesh"
func (o *TriMesh) Kind() string { return "trimesh" }

// Query returns signed distance and normal
func (o *TriMesh) Query(p mgl64.Vec3) (φ float64, n mgl64.Vec3) {
	best := math.Inf(1)
	var bestT int
	var bestX mgl64.Vec3
	for t, tri := range o.Tris {
		if boxDist2(p, o.tlo[t], o.thi[t]) >= best {
			continue
		}
		x := closestOnTriangle(p, o.Verts[tri[0]], o.Verts[tri[1]], o.Verts[tri[2]])
		if d2 := p.Sub(x).LenSqr(); d2 < best {
			best, bestT, bestX = d2, t, x
		}
	}
	d := math.Sqrt(best)
	inside := math.Abs(o.Winding(p)) > 0.5
	if d < 1e-12 {
		return 0, o.normal[bestT]
	}
	n = p.Sub(bestX).Mul(1.0 / d)
	if inside {
		return -d, n.Mul(-1)
	}
	return d, n
}

// Winding returns the generalised winding number of p (±1 inside, 0 outside)
func (o *TriMesh) Winding(p mgl64.Vec3) (w float64) {
	for _, tri := range o.Tris {
		a := o.Verts[tri[0]].Sub(p)
		b := o.Verts[tri[1]].Sub(p)
		c := o.Verts[tri[2]].Sub(p)
		la, lb, lc := a.Len(), b.Len(), c.Len()
		num := a.Dot(b.Cross(c))
		den := la*lb*lc + a.Dot(b)*lc + a.Dot(c)*lb + b.Dot(c)*la
		w += 2.0 * math.Atan2(num, den)
	}
	return w / (4.0 * math.Pi)
}

// Velocity returns the velocity of the mesh at p
func (o *TriMesh) Velocity(p mgl64.Vec3) mgl64.Vec3 {
	return o.at(p, o.centre)
}

// Bounds returns the bounding box
func (o *TriMesh) Bounds() (lo, hi mgl64.Vec3) {
	return o.lo, o.hi
}

// auxiliary ////////////////////////////////////////////////////////////////////////////////////

// boxDist2 returns the squared distance from p to an axis aligned box
func boxDist2(p, lo, hi mgl64.Vec3) (d2 float64) {
	for k := 0; k < 3; k++ {
		if p[k] < lo[k] {
			d2 += (lo[k] - p[k]) * (lo[k] - p[k])
		} else if p[k] > hi[k] {
			d2 += (p[k] - hi[k]) * (p[k] - hi[k])
		}
	}
	return
}

// closestOnTriangle returns the point of triangle abc closest to p (Ericson, RTCD 5.1.5)
func closestOnTriangle(p, a, b, c mgl64.Vec3) mgl64.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	den := 1.0 / (va + vb + vc)
	v, w := vb*den, vc*den
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
