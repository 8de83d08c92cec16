// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

import "github.com/go-gl/mathgl/mgl32"

// Plane represents a plane in 3D space by its normal vector and a constant offset.
// Points p on the plane satisfy Normal.Dot(p) + Off = 0.
type Plane struct {
	Norm mgl32.Vec3
	Off  float32
}

// NewPlane creates and returns a new plane from a normal vector and a offset.
func NewPlane(normal mgl32.Vec3, offset float32) Plane {
	return Plane{normal, offset}
}

// PlaneFromCoplanarPoints returns the plane through the three points,
// oriented by their counter-clockwise winding.
func PlaneFromCoplanarPoints(a, b, c mgl32.Vec3) Plane {
	norm := Normal(a, b, c)
	return Plane{norm, -norm.Dot(a)}
}

// Normalize scales the plane so the normal has unit length.
func (p *Plane) Normalize() {
	ln := p.Norm.Len()
	if ln == 0 {
		return
	}
	p.Norm = p.Norm.Mul(1 / ln)
	p.Off /= ln
}

// DistanceToPoint returns the signed distance from the plane to point,
// positive on the side the normal points to.
func (p Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Norm.Dot(point) + p.Off
}
