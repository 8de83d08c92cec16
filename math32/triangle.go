// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initially copied from G3N: github.com/g3n/engine/math32
// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
// with modifications needed to suit Cogent Core functionality.

package math32

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Triangle represents a triangle made of three vertices.
type Triangle struct {
	A mgl32.Vec3
	B mgl32.Vec3
	C mgl32.Vec3
}

// NewTriangle returns a new Triangle object.
func NewTriangle(a, b, c mgl32.Vec3) Triangle {
	return Triangle{a, b, c}
}

// Normal returns the normal of the counter-clockwise triangle a, b, c.
func Normal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	nv := b.Sub(a).Cross(c.Sub(a))
	lenSq := nv.Dot(nv)
	if lenSq > 0 {
		return nv.Mul(1 / math32.Sqrt(lenSq))
	}
	return mgl32.Vec3{}
}

// Area returns the triangle's area.
func (t Triangle) Area() float32 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Len() * 0.5
}

// Midpoint returns the triangle's midpoint.
func (t Triangle) Midpoint() mgl32.Vec3 {
	return t.A.Add(t.B).Add(t.C).Mul(float32(1) / 3)
}

// Normal returns the triangle's normal.
func (t Triangle) Normal() mgl32.Vec3 {
	return Normal(t.A, t.B, t.C)
}

// Plane returns a Plane object aligned with the triangle.
func (t Triangle) Plane() Plane {
	return PlaneFromCoplanarPoints(t.A, t.B, t.C)
}

// Transform returns the triangle with each vertex transformed by m.
func (t Triangle) Transform(m mgl32.Mat4) Triangle {
	return Triangle{TransformPoint(m, t.A), TransformPoint(m, t.B), TransformPoint(m, t.C)}
}
