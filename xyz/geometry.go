// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"fmt"

	"cogentcore.org/render/gpu"
	"cogentcore.org/render/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex attribute names read by the generated vertex shaders.
const (
	PositionAttribute = "position"
	NormalAttribute   = "normal"
	UVAttribute       = "uv"
	ColorAttribute    = "color"
	InstanceAttribute = "instanceMatrix"
)

// Geometry is a [MeshData] uploaded to vertex and index buffers.
// A host copy of the mesh is kept for picking.
type Geometry struct {
	Name string

	mesh MeshData

	positions *gpu.Buffer
	normals   *gpu.Buffer
	uvs       *gpu.Buffer
	colors    *gpu.Buffer
	indices   *gpu.Buffer

	bbox      math32.Box3
	bboxValid bool

	ctx *gpu.Context
}

// NewGeometry validates the mesh and uploads it. If any buffer fails to
// allocate, those already allocated are released.
func NewGeometry(ctx *gpu.Context, mesh *MeshData) (*Geometry, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	g := &Geometry{ctx: ctx, mesh: *mesh.Clone()}
	if err := g.alloc(); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

func (g *Geometry) alloc() error {
	var err error
	md := &g.mesh
	g.positions, err = gpu.NewBufferFrom(g.ctx, gpu.VertexBuffer, gpu.Float32Vector3, gpu.StaticDraw, md.Positions)
	if err != nil {
		return err
	}
	if len(md.Normals) > 0 {
		if g.normals, err = gpu.NewBufferFrom(g.ctx, gpu.VertexBuffer, gpu.Float32Vector3, gpu.StaticDraw, md.Normals); err != nil {
			return err
		}
	}
	if len(md.UVs) > 0 {
		if g.uvs, err = gpu.NewBufferFrom(g.ctx, gpu.VertexBuffer, gpu.Float32Vector2, gpu.StaticDraw, md.UVs); err != nil {
			return err
		}
	}
	if len(md.Colors) > 0 {
		if g.colors, err = gpu.NewBufferFrom(g.ctx, gpu.VertexBuffer, gpu.Float32Vector4, gpu.StaticDraw, md.Colors); err != nil {
			return err
		}
	}
	if len(md.Indices) > 0 {
		if g.indices, err = gpu.NewBufferFrom(g.ctx, gpu.IndexBuffer, gpu.Uint32, gpu.StaticDraw, md.Indices); err != nil {
			return err
		}
	}
	return nil
}

// Mesh returns the host copy of the mesh. It must not be modified.
func (g *Geometry) Mesh() *MeshData { return &g.mesh }

// HasNormals returns true if the geometry has per-vertex normals.
func (g *Geometry) HasNormals() bool { return g.normals != nil }

// HasUVs returns true if the geometry has texture coordinates.
func (g *Geometry) HasUVs() bool { return g.uvs != nil }

// HasColors returns true if the geometry has per-vertex colors.
func (g *Geometry) HasColors() bool { return g.colors != nil }

// NumVertices returns the number of vertexes.
func (g *Geometry) NumVertices() int { return len(g.mesh.Positions) }

// BBox returns the bounding box of the geometry in local coordinates.
func (g *Geometry) BBox() math32.Box3 {
	if !g.bboxValid {
		g.bbox = g.mesh.BBox()
		g.bboxValid = true
	}
	return g.bbox
}

// SetPositions updates the vertex positions, which must have the same
// count as before.
func (g *Geometry) SetPositions(positions []mgl32.Vec3) error {
	if g.released() {
		return gpu.ErrReleased
	}
	if len(positions) != len(g.mesh.Positions) {
		return fmt.Errorf("%w: %d positions for a geometry of %d", gpu.ErrSizeMismatch, len(positions), len(g.mesh.Positions))
	}
	if err := gpu.UpdateBufferFrom(g.positions, positions); err != nil {
		return err
	}
	copy(g.mesh.Positions, positions)
	g.bboxValid = false
	return nil
}

// SetColors updates the vertex colors, which must have one per vertex.
// The geometry must have been created with colors.
func (g *Geometry) SetColors(colors []mgl32.Vec4) error {
	if g.released() {
		return gpu.ErrReleased
	}
	if g.colors == nil || len(colors) != len(g.mesh.Colors) {
		return fmt.Errorf("%w: %d colors for a geometry of %d", gpu.ErrSizeMismatch, len(colors), len(g.mesh.Colors))
	}
	if err := gpu.UpdateBufferFrom(g.colors, colors); err != nil {
		return err
	}
	copy(g.mesh.Colors, colors)
	return nil
}

// bind sources the attributes that the program reads from the geometry.
// A missing attribute is a [gpu.ErrMissingAttribute] error.
func (g *Geometry) bind(p *gpu.Program) error {
	if g.released() {
		return fmt.Errorf("%w: geometry %q", gpu.ErrReleased, g.Name)
	}
	if err := p.SetAttribute(PositionAttribute, g.positions); err != nil {
		return err
	}
	if err := p.SetAttribute(NormalAttribute, g.normals); err != nil {
		return err
	}
	if err := p.SetAttribute(UVAttribute, g.uvs); err != nil {
		return err
	}
	return p.SetAttribute(ColorAttribute, g.colors)
}

// draw draws the given number of instances of the geometry with the
// program, which must have been bound.
func (g *Geometry) draw(p *gpu.Program, states gpu.RenderStates, vp gpu.Viewport, instances int) error {
	if g.indices != nil {
		return p.DrawElementsInstanced(states, vp, g.indices, instances)
	}
	return p.DrawArraysInstanced(states, vp, len(g.mesh.Positions), instances)
}

// positions always exist until Release.
func (g *Geometry) released() bool { return g.positions == nil }

// Release releases the buffers of the geometry.
func (g *Geometry) Release() {
	for _, b := range []*gpu.Buffer{g.positions, g.normals, g.uvs, g.colors, g.indices} {
		if b != nil {
			b.Release()
		}
	}
	g.positions, g.normals, g.uvs, g.colors, g.indices = nil, nil, nil, nil, nil
}
