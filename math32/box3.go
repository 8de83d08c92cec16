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

// Box3 represents a 3D bounding box defined by two points:
// the point with minimum coordinates and the point with maximum coordinates.
type Box3 struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// B3 returns a new [Box3] from the given minimum and maximum x, y, and z coordinates.
func B3(x0, y0, z0, x1, y1, z1 float32) Box3 {
	return Box3{Vec3(x0, y0, z0), Vec3(x1, y1, z1)}
}

// B3Empty returns a new [Box3] with empty minimum and maximum values.
func B3Empty() Box3 {
	bx := Box3{}
	bx.SetEmpty()
	return bx
}

// B3FromPoints returns the smallest [Box3] containing all the points.
func B3FromPoints(points ...mgl32.Vec3) Box3 {
	bx := B3Empty()
	bx.ExpandByPoints(points)
	return bx
}

// SetEmpty set this bounding box to empty (min / max +/- Infinity)
func (b *Box3) SetEmpty() {
	b.Min = Vec3(Infinity, Infinity, Infinity)
	b.Max = Vec3(-Infinity, -Infinity, -Infinity)
}

// IsEmpty returns true if this bounding box is empty (max < min on any coord).
func (b Box3) IsEmpty() bool {
	return (b.Max[0] < b.Min[0]) || (b.Max[1] < b.Min[1]) || (b.Max[2] < b.Min[2])
}

// ExpandByPoints may expand this bounding box from the specified array of points.
func (b *Box3) ExpandByPoints(points []mgl32.Vec3) {
	for _, p := range points {
		b.ExpandByPoint(p)
	}
}

// ExpandByPoint may expand this bounding box to include the specified point.
func (b *Box3) ExpandByPoint(point mgl32.Vec3) {
	b.Min = MinVec3(b.Min, point)
	b.Max = MaxVec3(b.Max, point)
}

// ExpandByBox may expand this bounding box to include the specified box
func (b *Box3) ExpandByBox(box Box3) {
	if box.IsEmpty() {
		return
	}
	b.ExpandByPoint(box.Min)
	b.ExpandByPoint(box.Max)
}

// ExpandByScalar expands this bounding box by the specified scalar
// subtracting from min and adding to max.
func (b *Box3) ExpandByScalar(scalar float32) {
	s := Vec3(scalar, scalar, scalar)
	b.Min = b.Min.Sub(s)
	b.Max = b.Max.Add(s)
}

// Center returns the center of the bounding box.
func (b Box3) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size calculates the size of this bounding box: the vector from
// its minimum point to its maximum point.
func (b Box3) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// ContainsPoint returns if this bounding box contains the specified point.
func (b Box3) ContainsPoint(point mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if point[i] < b.Min[i] || point[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// IntersectsBox returns if other box intersects this one.
func (b Box3) IntersectsBox(other Box3) bool {
	// using 6 splitting planes to rule out intersections.
	for i := 0; i < 3; i++ {
		if other.Max[i] < b.Min[i] || other.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Union returns the union with other box.
func (b Box3) Union(other Box3) Box3 {
	nb := b
	nb.ExpandByBox(other)
	return nb
}

// Corners returns the eight corner points of the box.
func (b Box3) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
	}
}

// MulMatrix4 multiplies the specified matrix to the vertices of this bounding box
// and computes the resulting spanning Box3 of the transformed points
func (b Box3) MulMatrix4(m mgl32.Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	nb := B3Empty()
	for _, c := range b.Corners() {
		nb.ExpandByPoint(TransformPoint(m, c))
	}
	return nb
}

// Translate returns translated position of this box by offset.
func (b Box3) Translate(offset mgl32.Vec3) Box3 {
	return Box3{b.Min.Add(offset), b.Max.Add(offset)}
}
