// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"cogentcore.org/render/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Hit is the intersection of a pick ray with an object.
type Hit struct {

	// Object is the object that was hit.
	Object Renderable

	// ID is the ID of the object.
	ID uuid.UUID

	// Instance is the index of the instance that was hit, 0 for an [*Object].
	Instance int

	// Triangle is the index of the triangle that was hit.
	Triangle int

	// Point is the world position of the hit.
	Point mgl32.Vec3

	// Normal is the world normal of the triangle that was hit,
	// facing the side its vertexes are counter-clockwise from.
	Normal mgl32.Vec3

	// Distance is the distance from the ray origin to the Point.
	Distance float32
}

// Pick returns the nearest hit of the camera ray through the given
// normalized screen position (0,0 top left, 1,1 bottom right), and false
// if no object is under it.
func Pick(cam *Camera, sx, sy float32, objects []Renderable) (Hit, bool) {
	return PickRay(cam.ViewRay(sx, sy), objects)
}

// PickRay returns the nearest hit of the ray with the objects, and false
// if it misses all of them. Each object (and each instance) is first tested
// against its bounding box, then against its triangles, front and back faces.
func PickRay(ray math32.Ray, objects []Renderable) (Hit, bool) {
	best := Hit{Distance: math32.Infinity}
	found := false
	for _, obj := range objects {
		ob := obj.AsObject()
		if ob.Hidden || ob.Geometry == nil {
			continue
		}
		local := ob.Geometry.BBox()
		mesh := ob.Geometry.Mesh()
		for inst, m := range obj.Transforms() {
			t, ok := ray.IntersectBox(local.MulMatrix4(m))
			if !ok || t > best.Distance {
				continue
			}
			if m.Det() == 0 {
				continue
			}
			// the ray in local coordinates, with an unnormalized direction
			// so that distances along it are world distances
			inv := m.Inv()
			lray := math32.Ray{Origin: math32.TransformPoint(inv, ray.Origin), Dir: math32.TransformDir(inv, ray.Dir)}
			for tri := 0; tri < mesh.NumTriangles(); tri++ {
				a, b, c := mesh.TrianglePositions(tri)
				t, ok := lray.IntersectTriangle(a, b, c, false)
				if !ok || t >= best.Distance {
					continue
				}
				best = Hit{Object: obj, ID: ob.ID, Instance: inst, Triangle: tri, Point: ray.At(t), Distance: t,
					Normal: math32.NewTriangle(a, b, c).Transform(m).Normal()}
				found = true
			}
		}
	}
	if !found {
		return Hit{}, false
	}
	return best, true
}
