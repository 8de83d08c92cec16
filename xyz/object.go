// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"fmt"

	"cogentcore.org/render/gpu"
	"cogentcore.org/render/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Renderable is an [*Object] or an [*InstancedObject].
type Renderable interface {

	// AsObject returns the object with the geometry, material and transform.
	AsObject() *Object

	// AABB returns the world space bounding box.
	AABB() math32.Box3

	// Transforms returns the world transform of each instance.
	Transforms() []mgl32.Mat4

	// instances returns the instance matrix buffer, or nil,
	// and the number of instances to draw.
	instances() (*gpu.Buffer, int)
}

// Object is a [Geometry] drawn with a [Material] at a position given
// by its Transform.
type Object struct {

	// ID uniquely identifies the object, for picking and diagnostics.
	ID uuid.UUID

	// Name of the object, for diagnostics.
	Name string

	// Geometry is the shape of the object.
	Geometry *Geometry

	// Material determines how the object is shaded.
	Material Material

	// Transform is the local to world transform.
	Transform mgl32.Mat4

	// Hidden objects are not drawn or picked.
	Hidden bool

	// CastShadows makes the object cast shadows from lights that
	// have shadows enabled. Transparent objects never cast shadows.
	CastShadows bool
}

// NewObject returns an object at the origin with a new ID.
func NewObject(name string, geom *Geometry, mat Material) *Object {
	return &Object{ID: uuid.New(), Name: name, Geometry: geom, Material: mat, Transform: mgl32.Ident4(), CastShadows: true}
}

func (ob *Object) AsObject() *Object { return ob }

// SetPosition sets the translation of the transform.
func (ob *Object) SetPosition(pos mgl32.Vec3) *Object {
	ob.Transform.SetCol(3, pos.Vec4(1))
	return ob
}

// Position returns the translation of the transform.
func (ob *Object) Position() mgl32.Vec3 {
	return ob.Transform.Col(3).Vec3()
}

func (ob *Object) AABB() math32.Box3 {
	if ob.Geometry == nil {
		return math32.B3Empty()
	}
	return ob.Geometry.BBox().MulMatrix4(ob.Transform)
}

// Centroid returns the center of the world space bounding box.
func (ob *Object) Centroid() mgl32.Vec3 {
	return ob.AABB().Center()
}

func (ob *Object) Transforms() []mgl32.Mat4 {
	return []mgl32.Mat4{ob.Transform}
}

func (ob *Object) instances() (*gpu.Buffer, int) { return nil, 1 }

func (ob *Object) String() string {
	if ob.Name != "" {
		return ob.Name
	}
	return ob.ID.String()
}

// InstancedObject draws its geometry once per instance transform,
// each applied before the object Transform.
type InstancedObject struct {
	Object

	matrices []mgl32.Mat4
	buffer   *gpu.Buffer
	ctx      *gpu.Context
}

// NewInstancedObject returns an object drawn with the given instance transforms.
func NewInstancedObject(ctx *gpu.Context, name string, geom *Geometry, mat Material, instances []mgl32.Mat4) (*InstancedObject, error) {
	inst := &InstancedObject{Object: *NewObject(name, geom, mat), ctx: ctx}
	if err := inst.SetInstances(instances); err != nil {
		return nil, err
	}
	return inst, nil
}

// SetInstances sets the instance transforms. With none the object is not drawn.
func (inst *InstancedObject) SetInstances(instances []mgl32.Mat4) error {
	switch {
	case len(instances) == 0:
		if inst.buffer != nil {
			inst.buffer.Release()
			inst.buffer = nil
		}
	case inst.buffer == nil:
		b, err := gpu.NewBufferFrom(inst.ctx, gpu.VertexBuffer, gpu.Float32Matrix4, gpu.DynamicDraw, instances)
		if err != nil {
			return fmt.Errorf("instances of %s: %w", inst, err)
		}
		inst.buffer = b
	case inst.buffer.Count() == len(instances):
		if err := gpu.UpdateBufferFrom(inst.buffer, instances); err != nil {
			return err
		}
	default:
		if err := inst.buffer.Reallocate(gpu.Bytes(instances)); err != nil {
			return err
		}
	}
	inst.matrices = append(inst.matrices[:0], instances...)
	return nil
}

// NumInstances returns the number of instances.
func (inst *InstancedObject) NumInstances() int { return len(inst.matrices) }

// AABB returns the union of the bounding boxes of the instances.
func (inst *InstancedObject) AABB() math32.Box3 {
	box := math32.B3Empty()
	if inst.Geometry == nil {
		return box
	}
	local := inst.Geometry.BBox()
	for _, m := range inst.Transforms() {
		box.ExpandByBox(local.MulMatrix4(m))
	}
	return box
}

func (inst *InstancedObject) Transforms() []mgl32.Mat4 {
	ms := make([]mgl32.Mat4, len(inst.matrices))
	for i, m := range inst.matrices {
		ms[i] = inst.Transform.Mul4(m)
	}
	return ms
}

func (inst *InstancedObject) instances() (*gpu.Buffer, int) { return inst.buffer, len(inst.matrices) }

// Release releases the instance buffer. The geometry is not released.
func (inst *InstancedObject) Release() {
	if inst.buffer != nil {
		inst.buffer.Release()
		inst.buffer = nil
	}
	inst.matrices = nil
}
