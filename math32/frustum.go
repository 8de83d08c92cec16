// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit Cogent Core functionality.

package math32

import "github.com/go-gl/mathgl/mgl32"

// Frustum represents a frustum volume bounded by 6 planes,
// with normals pointing inwards.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustumFromMatrix creates and returns a Frustum based on the
// provided view-projection matrix.
func NewFrustumFromMatrix(m mgl32.Mat4) Frustum {
	f := Frustum{}
	f.SetFromMatrix(m)
	return f
}

// SetFromMatrix sets the frustum's planes from the specified
// column-major view-projection matrix.
func (f *Frustum) SetFromMatrix(m mgl32.Mat4) {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	rows := [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}
	for i, r := range rows {
		f.Planes[i] = Plane{r.Vec3(), r[3]}
		f.Planes[i].Normalize()
	}
}

// ContainsPoint determines if the frustum contains the specified point.
func (f *Frustum) ContainsPoint(point mgl32.Vec3) bool {
	for _, p := range f.Planes {
		if p.DistanceToPoint(point) < 0 {
			return false
		}
	}
	return true
}

// IntersectsBox determines if the specified box is at least partially
// inside the frustum. For each plane only the box corner furthest along
// the plane normal is tested, so a box is rejected only when it lies
// entirely outside one plane. Boxes that straddle a frustum corner
// may be accepted even though they are outside.
func (f *Frustum) IntersectsBox(box Box3) bool {
	if box.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		var pv mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Norm[i] > 0 {
				pv[i] = box.Max[i]
			} else {
				pv[i] = box.Min[i]
			}
		}
		if p.DistanceToPoint(pv) < 0 {
			return false
		}
	}
	return true
}
