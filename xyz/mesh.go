// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"fmt"
	"slices"

	"cogentcore.org/render/base/errors"
	"cogentcore.org/render/gpu"
	"cogentcore.org/render/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshData is the host-side description of a triangle mesh.
// Normals, UVs and Colors are either empty or have one entry per position.
// Without Indices, each consecutive triple of positions is a triangle.
// Triangles are wound counter-clockwise as seen from the front.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Colors    []mgl32.Vec4
	Indices   []uint32
}

// Validate returns an error if the mesh is not a valid triangle list.
func (md *MeshData) Validate() error {
	n := len(md.Positions)
	if n == 0 {
		return fmt.Errorf("%w: mesh has no positions", gpu.ErrSizeMismatch)
	}
	var errs []error
	perVertex := func(name string, m int) {
		if m != 0 && m != n {
			errs = append(errs, fmt.Errorf("%w: %d %s for %d positions", gpu.ErrSizeMismatch, m, name, n))
		}
	}
	perVertex("normals", len(md.Normals))
	perVertex("uvs", len(md.UVs))
	perVertex("colors", len(md.Colors))
	if len(md.Indices) > 0 {
		if len(md.Indices)%3 != 0 {
			errs = append(errs, fmt.Errorf("%w: %d indices is not a whole number of triangles", gpu.ErrSizeMismatch, len(md.Indices)))
		}
		if mx := slices.Max(md.Indices); int(mx) >= n {
			errs = append(errs, fmt.Errorf("%w: index %d out of range for %d positions", gpu.ErrSizeMismatch, mx, n))
		}
	} else if n%3 != 0 {
		errs = append(errs, fmt.Errorf("%w: %d positions is not a whole number of triangles", gpu.ErrSizeMismatch, n))
	}
	return errors.Join(errs...)
}

// NumTriangles returns the number of triangles in the mesh.
func (md *MeshData) NumTriangles() int {
	if len(md.Indices) > 0 {
		return len(md.Indices) / 3
	}
	return len(md.Positions) / 3
}

// Triangle returns the vertex indexes of triangle i.
func (md *MeshData) Triangle(i int) (a, b, c int) {
	if len(md.Indices) > 0 {
		return int(md.Indices[3*i]), int(md.Indices[3*i+1]), int(md.Indices[3*i+2])
	}
	return 3 * i, 3*i + 1, 3*i + 2
}

// TrianglePositions returns the positions of the vertexes of triangle i.
func (md *MeshData) TrianglePositions(i int) (a, b, c mgl32.Vec3) {
	ia, ib, ic := md.Triangle(i)
	return md.Positions[ia], md.Positions[ib], md.Positions[ic]
}

// BBox returns the bounding box of the positions.
func (md *MeshData) BBox() math32.Box3 {
	return math32.B3FromPoints(md.Positions...)
}

// ComputeNormals sets Normals to the area-weighted average of the
// normals of the triangles that share each vertex.
func (md *MeshData) ComputeNormals() {
	md.Normals = make([]mgl32.Vec3, len(md.Positions))
	for i := 0; i < md.NumTriangles(); i++ {
		ia, ib, ic := md.Triangle(i)
		a, b, c := md.Positions[ia], md.Positions[ib], md.Positions[ic]
		// unnormalized cross product is proportional to area
		n := b.Sub(a).Cross(c.Sub(a))
		md.Normals[ia] = md.Normals[ia].Add(n)
		md.Normals[ib] = md.Normals[ib].Add(n)
		md.Normals[ic] = md.Normals[ic].Add(n)
	}
	for i, n := range md.Normals {
		if n.Len() > 0 {
			md.Normals[i] = n.Normalize()
		}
	}
}

// SetColor sets all vertex colors to the given color.
func (md *MeshData) SetColor(clr mgl32.Vec4) {
	md.Colors = make([]mgl32.Vec4, len(md.Positions))
	for i := range md.Colors {
		md.Colors[i] = clr
	}
}

// Append adds the vertexes and triangles of the other mesh, which must
// have the same per-vertex attributes, offsetting its indexes.
func (md *MeshData) Append(o *MeshData) {
	off := uint32(len(md.Positions))
	if len(md.Indices) == 0 && len(o.Indices) > 0 {
		for i := range md.Positions {
			md.Indices = append(md.Indices, uint32(i))
		}
	}
	md.Positions = append(md.Positions, o.Positions...)
	md.Normals = append(md.Normals, o.Normals...)
	md.UVs = append(md.UVs, o.UVs...)
	md.Colors = append(md.Colors, o.Colors...)
	if len(o.Indices) > 0 {
		for _, ix := range o.Indices {
			md.Indices = append(md.Indices, off+ix)
		}
	} else if len(md.Indices) > 0 {
		for i := range o.Positions {
			md.Indices = append(md.Indices, off+uint32(i))
		}
	}
}

// Clone returns a deep copy of the mesh.
func (md *MeshData) Clone() *MeshData {
	return &MeshData{
		Positions: slices.Clone(md.Positions),
		Normals:   slices.Clone(md.Normals),
		UVs:       slices.Clone(md.UVs),
		Colors:    slices.Clone(md.Colors),
		Indices:   slices.Clone(md.Indices),
	}
}
