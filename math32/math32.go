// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package math32 provides the float32 geometry used for culling and
// picking: axis-aligned boxes, planes, frustums, rays and triangles.
// Vectors and matrices are [mgl32] types.
package math32

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Infinity is positive infinity as a float32.
var Infinity = math32.Inf(1)

// Vec3 returns a new [mgl32.Vec3] from the given components.
func Vec3(x, y, z float32) mgl32.Vec3 {
	return mgl32.Vec3{x, y, z}
}

// MinVec3 returns the component-wise minimum of a and b.
func MinVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

// MaxVec3 returns the component-wise maximum of a and b.
func MaxVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])}
}

// TransformPoint applies the affine or projective matrix m to point p,
// including the perspective divide.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v[3] != 0 && v[3] != 1 {
		return v.Vec3().Mul(1 / v[3])
	}
	return v.Vec3()
}

// TransformDir applies the rotation and scale of m to direction d.
func TransformDir(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of m,
// which transforms normals for non-uniformly scaled models.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}
