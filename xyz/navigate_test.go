// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"testing"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNavigator(t *testing.T) {
	cam := NewCamera(gpu.NewViewport(64, 64))
	nv := &Navigator{Camera: cam}

	nv.Key(NavLeft, false)
	assert.InDelta(t, 10, cam.DistanceTo(cam.Target), 1e-4)
	assert.Greater(t, cam.Position()[0], float32(0))

	nv.Key(NavReset, false)
	assert.Equal(t, mgl32.Vec3{0, 0, 10}, cam.Position())

	nv.Key(NavRight, true)
	assertVec3(t, mgl32.Vec3{-.2, 0, 0}, cam.Target)

	nv.Key(NavReset, false)
	nv.Key(NavZoomIn, false)
	assertVec3(t, mgl32.Vec3{0, 0, 9.5}, cam.Position())

	// mostly horizontal drags only orbit around up
	nv.Key(NavReset, false)
	nv.Drag(4, 1, false)
	assert.InDelta(t, 0, cam.Position()[1], 1e-4)
	assert.InDelta(t, 10, cam.DistanceTo(cam.Target), 1e-4)

	nv.Key(NavReset, false)
	nv.Drag(100, 0, true)
	assertVec3(t, mgl32.Vec3{-1, 0, 0}, cam.Target)

	nv.Key(NavReset, false)
	nv.Scroll(1)
	assert.Less(t, cam.DistanceTo(cam.Target), float32(10))

	nv.NoNav = true
	nv.Key(NavReset, false)
	assert.NotEqual(t, mgl32.Vec3{0, 0, 10}, cam.Position())
}
