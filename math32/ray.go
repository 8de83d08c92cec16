// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents an oriented 3D line segment defined by an origin point
// and a (unit length) direction vector.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// NewRay creates and returns a pointer to a Ray object with
// the specified origin and direction, which is normalized.
func NewRay(origin, dir mgl32.Vec3) Ray {
	return Ray{origin, dir.Normalize()}
}

// At returns the point along the ray at distance t from the origin.
func (rv Ray) At(t float32) mgl32.Vec3 {
	return rv.Origin.Add(rv.Dir.Mul(t))
}

// IntersectBox returns the distance along the ray at which it first
// enters the box (0 if the origin is inside), and false if it misses.
// Uses the slab method.
func (rv Ray) IntersectBox(box Box3) (float32, bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(0)
	tmax := Infinity
	for i := 0; i < 3; i++ {
		if rv.Dir[i] == 0 {
			if rv.Origin[i] < box.Min[i] || rv.Origin[i] > box.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / rv.Dir[i]
		t0 := (box.Min[i] - rv.Origin[i]) * inv
		t1 := (box.Max[i] - rv.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math32.Max(tmin, t0)
		tmax = math32.Min(tmax, t1)
		if tmax < tmin {
			return 0, false
		}
	}
	return tmin, true
}

// IntersectTriangle returns the distance along the ray to its intersection
// with the triangle a, b, c, and false if there is none.
// If backfaceCulling is true, triangles facing away from the ray
// (clockwise winding as seen from the origin) are ignored.
// Uses the Moller-Trumbore algorithm.
func (rv Ray) IntersectTriangle(a, b, c mgl32.Vec3, backfaceCulling bool) (float32, bool) {
	const eps = 1e-7
	const edge = 1e-5
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	pv := rv.Dir.Cross(e2)
	det := e1.Dot(pv)
	if backfaceCulling {
		if det < eps {
			return 0, false
		}
	} else if math32.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	tv := rv.Origin.Sub(a)
	u := tv.Dot(pv) * inv
	// points on shared edges hit both triangles
	if u < -edge || u > 1+edge {
		return 0, false
	}
	qv := tv.Cross(e1)
	v := rv.Dir.Dot(qv) * inv
	if v < -edge || u+v > 1+edge {
		return 0, false
	}
	t := e2.Dot(qv) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}
