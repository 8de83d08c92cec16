// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"testing"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	md := NewBox(1, 2, 3, 1)
	require.NoError(t, md.Validate())
	assert.Len(t, md.Positions, 24)
	assert.Len(t, md.Indices, 36)
	assert.Equal(t, 12, md.NumTriangles())

	bb := md.BBox()
	assert.Equal(t, mgl32.Vec3{-.5, -1, -1.5}, bb.Min)
	assert.Equal(t, mgl32.Vec3{.5, 1, 1.5}, bb.Max)

	// counter-clockwise triangles face outward
	for i := 0; i < md.NumTriangles(); i++ {
		ia, _, _ := md.Triangle(i)
		a, b, c := md.TrianglePositions(i)
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n.Dot(md.Normals[ia]), float32(0), "triangle %d", i)
		assert.Greater(t, n.Dot(a), float32(0), "triangle %d", i)
	}

	md = NewBox(1, 1, 1, 3)
	assert.Len(t, md.Positions, 6*16)
	assert.Len(t, md.Indices, 6*9*6)
}

func TestPlane(t *testing.T) {
	md := NewPlane(2, 1, 2, 1)
	require.NoError(t, md.Validate())
	assert.Len(t, md.Positions, 6)
	assert.Equal(t, 4, md.NumTriangles())
	for _, n := range md.Normals {
		assert.Equal(t, mgl32.Vec3{0, 0, 1}, n)
	}
	assert.Equal(t, mgl32.Vec2{0, 1}, md.UVs[0])
}

func TestSphere(t *testing.T) {
	md := NewSphere(2, 16)
	require.NoError(t, md.Validate())
	assert.Len(t, md.Positions, 17*17)
	// the pole rows have one triangle per segment
	assert.Equal(t, 16*16*2-2*16, md.NumTriangles())
	for i, p := range md.Positions {
		assert.InDelta(t, 2, p.Len(), 1e-4, "vertex %d", i)
		assert.InDelta(t, 1, md.Normals[i].Len(), 1e-4, "vertex %d", i)
	}
	for i := 0; i < md.NumTriangles(); i++ {
		a, b, c := md.TrianglePositions(i)
		n := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, n.Dot(a.Add(b).Add(c)), float32(0), "triangle %d", i)
	}
}

func TestMeshValidate(t *testing.T) {
	md := &MeshData{}
	assert.ErrorIs(t, md.Validate(), gpu.ErrSizeMismatch)

	md = NewBox(1, 1, 1, 1)
	md.Normals = md.Normals[:3]
	assert.ErrorIs(t, md.Validate(), gpu.ErrSizeMismatch)

	md = NewBox(1, 1, 1, 1)
	md.Indices = md.Indices[:4]
	assert.ErrorIs(t, md.Validate(), gpu.ErrSizeMismatch)

	md = NewBox(1, 1, 1, 1)
	md.Indices[5] = 24
	err := md.Validate()
	assert.ErrorIs(t, err, gpu.ErrSizeMismatch)
	assert.Contains(t, err.Error(), "out of range")

	md = &MeshData{Positions: []mgl32.Vec3{{}, {1, 0, 0}}}
	assert.ErrorIs(t, md.Validate(), gpu.ErrSizeMismatch)
}

func TestComputeNormals(t *testing.T) {
	md := NewPlane(1, 1, 2, 2)
	md.Normals = nil
	md.ComputeNormals()
	require.Len(t, md.Normals, len(md.Positions))
	for _, n := range md.Normals {
		assert.InDelta(t, 1, n[2], 1e-5)
	}
}

func TestMeshAppend(t *testing.T) {
	md := NewPlane(1, 1, 1, 1)
	md.Append(NewPlane(1, 1, 1, 1))
	require.NoError(t, md.Validate())
	assert.Len(t, md.Positions, 8)
	assert.Equal(t, []uint32{4, 5, 7, 4, 7, 6}, md.Indices[6:])

	tri := &MeshData{Positions: []mgl32.Vec3{{}, {1, 0, 0}, {0, 1, 0}}}
	tri.Append(NewPlane(1, 1, 1, 1))
	require.NoError(t, tri.Validate())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 6, 3, 6, 5}, tri.Indices)

	cl := tri.Clone()
	cl.Positions[0] = mgl32.Vec3{9, 9, 9}
	assert.Equal(t, mgl32.Vec3{}, tri.Positions[0])
}
