// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"image/color"
	"testing"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometry(t *testing.T) {
	ctx, dev := newTestContext(t)
	live := dev.Live()
	md := NewBox(1, 1, 1, 1)
	g, err := NewGeometry(ctx, md)
	require.NoError(t, err)
	assert.True(t, g.HasNormals())
	assert.True(t, g.HasUVs())
	assert.False(t, g.HasColors())
	assert.Equal(t, 24, g.NumVertices())
	// positions, normals, uvs, indices
	assert.Equal(t, live+4, dev.Live())

	// the mesh is copied
	md.Positions[0] = mgl32.Vec3{5, 5, 5}
	assert.Equal(t, float32(.5), g.BBox().Max[0])

	g.Release()
	assert.Equal(t, live, dev.Live())
}

func TestGeometryInvalid(t *testing.T) {
	ctx, dev := newTestContext(t)
	live := dev.Live()
	_, err := NewGeometry(ctx, &MeshData{Positions: []mgl32.Vec3{{}, {1, 0, 0}}})
	assert.ErrorIs(t, err, gpu.ErrSizeMismatch)
	assert.Equal(t, live, dev.Live())
}

func TestGeometryAllocationFailure(t *testing.T) {
	ctx, dev := newTestContext(t)
	live := dev.Live()
	// room for the positions but not the normals
	dev.MemoryLimit = 400
	g, err := NewGeometry(ctx, NewBox(1, 1, 1, 1))
	assert.ErrorIs(t, err, gpu.ErrAllocationFailed)
	assert.Nil(t, g)
	assert.Equal(t, live, dev.Live())
	assert.Zero(t, dev.Memory())
	assert.NoError(t, ctx.Err())
}

func TestGeometrySetPositions(t *testing.T) {
	ctx, _ := newTestContext(t)
	g, err := NewGeometry(ctx, NewPlane(1, 1, 1, 1))
	require.NoError(t, err)
	defer g.Release()
	assert.Equal(t, float32(.5), g.BBox().Max[0])

	ps := make([]mgl32.Vec3, g.NumVertices())
	for i, p := range g.Mesh().Positions {
		ps[i] = p.Mul(2)
	}
	require.NoError(t, g.SetPositions(ps))
	assert.Equal(t, float32(1), g.BBox().Max[0])

	assert.ErrorIs(t, g.SetPositions(ps[:2]), gpu.ErrSizeMismatch)
	assert.ErrorIs(t, g.SetColors(make([]mgl32.Vec4, 4)), gpu.ErrSizeMismatch)
}

func TestGeometryColors(t *testing.T) {
	sc := newScene(t)
	md := NewPlane(1, 1, 1, 1)
	md.SetColor(mgl32.Vec4{1, 0, 0, 1})
	g, err := NewGeometry(sc.ctx, md)
	require.NoError(t, err)
	defer g.Release()
	assert.True(t, g.HasColors())
	require.NoError(t, g.SetColors(make([]mgl32.Vec4, 4)))

	ob := NewObject("colored", g, NewColorMaterial(color.RGBA{255, 255, 255, 255}))
	_, err = sc.rend.Render(sc.cam, nil, []Renderable{ob}, sc.target)
	require.NoError(t, err)
	ds := sc.mainDraws()
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].VertexSource, "#define USE_COLORS")
	assert.Contains(t, ds[0].Attributes, ColorAttribute)
}

func TestGeometryArrays(t *testing.T) {
	sc := newScene(t)
	g, err := NewGeometry(sc.ctx, &MeshData{Positions: []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}}})
	require.NoError(t, err)
	defer g.Release()
	ob := NewObject("triangle", g, NewColorMaterial(color.RGBA{255, 255, 0, 255}))
	report, err := sc.rend.Render(sc.cam, nil, []Renderable{ob}, sc.target)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Drawn)
	ds := sc.mainDraws()
	require.Len(t, ds, 1)
	assert.False(t, ds[0].Indexed)
	assert.Equal(t, 3, ds[0].Count)
	assert.Equal(t, 1, ds[0].Instances)
}

func TestGeometryReleased(t *testing.T) {
	sc := newScene(t)
	md := NewPlane(1, 1, 1, 1)
	md.SetColor(mgl32.Vec4{1, 0, 0, 1})
	g, err := NewGeometry(sc.ctx, md)
	require.NoError(t, err)
	n := g.NumVertices()
	g.Release()
	g.Release()

	assert.ErrorIs(t, g.SetPositions(make([]mgl32.Vec3, n)), gpu.ErrReleased)
	assert.ErrorIs(t, g.SetColors(make([]mgl32.Vec4, n)), gpu.ErrReleased)

	ob := NewObject("released", g, NewColorMaterial(color.RGBA{255, 255, 255, 255}))
	box := NewObject("box", sc.box, NewColorMaterial(color.RGBA{0, 255, 0, 255}))
	report, err := sc.rend.Render(sc.cam, nil, []Renderable{box, ob}, sc.target)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Drawn)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "released", report.Failed[0].Name)
	assert.ErrorIs(t, report.Err(), gpu.ErrReleased)
}
