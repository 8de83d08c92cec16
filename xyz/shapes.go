// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// NewPlane returns a plane mesh of the given size in the XY plane,
// centered at the origin and facing +Z, divided into the given
// number of segments along each axis (at least 1).
func NewPlane(width, height float32, widthSegs, heightSegs int) *MeshData {
	md := &MeshData{}
	md.addPlane(mgl32.Vec3{}, mgl32.Vec3{width, 0, 0}, mgl32.Vec3{0, height, 0}, widthSegs, heightSegs)
	return md
}

// NewBox returns a box (cuboid) mesh of the given size centered at
// the origin, with each face divided into segs segments along each axis.
func NewBox(width, height, depth float32, segs int) *MeshData {
	h := mgl32.Vec3{width, height, depth}.Mul(.5)
	x := mgl32.Vec3{width, 0, 0}
	y := mgl32.Vec3{0, height, 0}
	z := mgl32.Vec3{0, 0, depth}
	md := &MeshData{}
	// start with neg z as typically back
	md.addPlane(mgl32.Vec3{0, 0, -h[2]}, x.Mul(-1), y, segs, segs) // nz
	md.addPlane(mgl32.Vec3{0, -h[1], 0}, x, z, segs, segs)         // ny
	md.addPlane(mgl32.Vec3{h[0], 0, 0}, z.Mul(-1), y, segs, segs)  // px
	md.addPlane(mgl32.Vec3{-h[0], 0, 0}, z, y, segs, segs)         // nx
	md.addPlane(mgl32.Vec3{0, h[1], 0}, x, z.Mul(-1), segs, segs)  // py
	md.addPlane(mgl32.Vec3{0, 0, h[2]}, x, y, segs, segs)          // pz
	return md
}

// addPlane appends a plane centered at center, spanning the u and v
// extent vectors, facing u x v.
func (md *MeshData) addPlane(center, u, v mgl32.Vec3, uSegs, vSegs int) {
	uSegs = max(uSegs, 1)
	vSegs = max(vSegs, 1)
	norm := u.Cross(v).Normalize()
	off := uint32(len(md.Positions))
	for iv := 0; iv <= vSegs; iv++ {
		t := float32(iv) / float32(vSegs)
		for iu := 0; iu <= uSegs; iu++ {
			s := float32(iu) / float32(uSegs)
			pt := center.Add(u.Mul(s - .5)).Add(v.Mul(t - .5))
			md.Positions = append(md.Positions, pt)
			md.Normals = append(md.Normals, norm)
			md.UVs = append(md.UVs, mgl32.Vec2{s, 1 - t})
		}
	}
	row := uint32(uSegs + 1)
	for iv := uint32(0); iv < uint32(vSegs); iv++ {
		for iu := uint32(0); iu < uint32(uSegs); iu++ {
			a := off + iv*row + iu
			b := a + 1
			c := a + row + 1
			d := a + row
			md.Indices = append(md.Indices, a, b, c, a, c, d)
		}
	}
}

// NewSphere returns a sphere mesh centered at the origin with the given
// radius and number of segments (resolution) around and along it.
func NewSphere(radius float32, segs int) *MeshData {
	return NewSphereSector(radius, segs, segs, 0, 360, 0, 180)
}

// NewSphereSector returns a sphere sector mesh
// with the specified radius, number of radial segments in each dimension,
// radial sector start angle and length in degrees (0 - 360), start = -1,0,0,
// elevation start angle and length in degrees (0 - 180), top = 0, bot = 180.
func NewSphereSector(radius float32, widthSegs, heightSegs int, angStart, angLen, elevStart, elevLen float32) *MeshData {
	widthSegs = max(widthSegs, 3)
	heightSegs = max(heightSegs, 2)
	angStRad := mgl32.DegToRad(angStart)
	angLenRad := mgl32.DegToRad(angLen)
	elevStRad := mgl32.DegToRad(elevStart)
	elevLenRad := mgl32.DegToRad(elevLen)
	elevEndRad := elevStRad + elevLenRad

	nVtx := (widthSegs + 1) * (heightSegs + 1)
	md := &MeshData{
		Positions: make([]mgl32.Vec3, 0, nVtx),
		Normals:   make([]mgl32.Vec3, 0, nVtx),
		UVs:       make([]mgl32.Vec2, 0, nVtx),
	}
	vtxs := make([][]uint32, 0, heightSegs+1)
	for y := 0; y <= heightSegs; y++ {
		row := make([]uint32, 0, widthSegs+1)
		v := float32(y) / float32(heightSegs)
		for x := 0; x <= widthSegs; x++ {
			u := float32(x) / float32(widthSegs)
			px := -radius * math32.Cos(angStRad+u*angLenRad) * math32.Sin(elevStRad+v*elevLenRad)
			py := radius * math32.Cos(elevStRad+v*elevLenRad)
			pz := radius * math32.Sin(angStRad+u*angLenRad) * math32.Sin(elevStRad+v*elevLenRad)
			pt := mgl32.Vec3{px, py, pz}
			norm := pt
			if norm.Len() > 0 {
				norm = norm.Normalize()
			}
			row = append(row, uint32(len(md.Positions)))
			md.Positions = append(md.Positions, pt)
			md.Normals = append(md.Normals, norm)
			md.UVs = append(md.UVs, mgl32.Vec2{u, v})
		}
		vtxs = append(vtxs, row)
	}

	for y := 0; y < heightSegs; y++ {
		for x := 0; x < widthSegs; x++ {
			v1 := vtxs[y][x+1]
			v2 := vtxs[y][x]
			v3 := vtxs[y+1][x]
			v4 := vtxs[y+1][x+1]
			// the poles have degenerate quads
			if y != 0 || elevStRad > 0 {
				md.Indices = append(md.Indices, v1, v2, v4)
			}
			if y != heightSegs-1 || elevEndRad < math32.Pi {
				md.Indices = append(md.Indices, v2, v3, v4)
			}
		}
	}
	return md
}
