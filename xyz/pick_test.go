// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"image/color"
	"testing"

	"cogentcore.org/render/gpu"
	"cogentcore.org/render/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPickScene(t *testing.T) (*gpu.Context, *Camera, *Geometry) {
	ctx, _ := newTestContext(t)
	cube, err := NewGeometry(ctx, NewBox(1, 1, 1, 1))
	require.NoError(t, err)
	cam := NewPerspectiveCamera(gpu.NewViewport(64, 64), mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 30, .01, 100)
	return ctx, cam, cube
}

func TestPickMiss(t *testing.T) {
	_, cam, cube := newPickScene(t)
	ob := NewObject("cube", cube, NewColorMaterial(color.RGBA{255, 0, 0, 255}))
	_, ok := Pick(cam, .05, .05, []Renderable{ob})
	assert.False(t, ok)

	_, ok = Pick(cam, .5, .5, nil)
	assert.False(t, ok)
}

func TestPickCube(t *testing.T) {
	_, cam, cube := newPickScene(t)
	ob := NewObject("cube", cube, NewColorMaterial(color.RGBA{255, 0, 0, 255}))
	hit, ok := Pick(cam, .5, .5, []Renderable{ob})
	require.True(t, ok)
	assert.Equal(t, ob.ID, hit.ID)
	assert.Same(t, ob, hit.Object)
	assert.InDelta(t, .5, hit.Point[2], 1e-3)
	assert.InDelta(t, 0, hit.Point[0], 1e-3)
	assert.InDelta(t, 4.5, hit.Distance, 1e-3)
	assertVec3(t, mgl32.Vec3{0, 0, 1}, hit.Normal)

	ob.Hidden = true
	_, ok = Pick(cam, .5, .5, []Renderable{ob})
	assert.False(t, ok)
}

func TestPickNearest(t *testing.T) {
	_, cam, cube := newPickScene(t)
	far := NewObject("far", cube, NewColorMaterial(color.RGBA{255, 0, 0, 255}))
	far.SetPosition(mgl32.Vec3{0, 0, -2})
	near := NewObject("near", cube, NewColorMaterial(color.RGBA{0, 255, 0, 255}))
	near.SetPosition(mgl32.Vec3{0, 0, 1})
	hit, ok := Pick(cam, .5, .5, []Renderable{far, near})
	require.True(t, ok)
	assert.Equal(t, near.ID, hit.ID)
	assert.InDelta(t, 1.5, hit.Point[2], 1e-3)
	assert.InDelta(t, 3.5, hit.Distance, 1e-3)
}

func TestPickScaled(t *testing.T) {
	_, _, cube := newPickScene(t)
	ob := NewObject("big", cube, NewColorMaterial(color.RGBA{255, 0, 0, 255}))
	ob.Transform = mgl32.Scale3D(4, 4, 4)
	hit, ok := PickRay(math32.NewRay(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, -1}), []Renderable{ob})
	require.True(t, ok)
	assert.InDelta(t, 2, hit.Point[2], 1e-3)
	assert.InDelta(t, 8, hit.Distance, 1e-3)

	// singular transforms cannot be hit
	ob.Transform = mgl32.Scale3D(1, 1, 0)
	_, ok = PickRay(math32.NewRay(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{0, 0, -1}), []Renderable{ob})
	assert.False(t, ok)
}

func TestPickInstanced(t *testing.T) {
	ctx, _, cube := newPickScene(t)
	mats := []mgl32.Mat4{mgl32.Translate3D(-2, 0, 0), mgl32.Translate3D(0, 0, 0), mgl32.Translate3D(2, 0, 0)}
	inst, err := NewInstancedObject(ctx, "row", cube, NewColorMaterial(color.RGBA{255, 0, 0, 255}), mats)
	require.NoError(t, err)
	defer inst.Release()

	hit, ok := PickRay(math32.NewRay(mgl32.Vec3{2, 0, 5}, mgl32.Vec3{0, 0, -1}), []Renderable{inst})
	require.True(t, ok)
	assert.Equal(t, 2, hit.Instance)
	assert.Equal(t, inst.ID, hit.ID)
	assert.InDelta(t, 4.5, hit.Distance, 1e-3)

	_, ok = PickRay(math32.NewRay(mgl32.Vec3{1, 0, 5}, mgl32.Vec3{0, 0, -1}), []Renderable{inst})
	assert.False(t, ok)
}
