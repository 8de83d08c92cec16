// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"cogentcore.org/render/gpu"
	"cogentcore.org/render/math32"
	cmath "github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowMap is the depth of the scene as seen from a light, rendered
// before the main pass of each frame.
type ShadowMap struct {
	target *gpu.RenderTarget

	// matrix is the world to light clip space transform.
	matrix mgl32.Mat4
}

func newShadowMap(ctx *gpu.Context, size int) (*ShadowMap, error) {
	rt, err := gpu.NewRenderTarget(ctx, size, size, gpu.UndefinedFormat, gpu.Depth24)
	if err != nil {
		return nil, err
	}
	rt.Name = "shadow map"
	return &ShadowMap{target: rt, matrix: mgl32.Ident4()}, nil
}

// Size returns the width and height of the map.
func (sm *ShadowMap) Size() int { return sm.target.Size().X }

// Texture returns the depth texture.
func (sm *ShadowMap) Texture() *gpu.Texture { return sm.target.DepthTexture() }

// Target returns the render target of the map.
func (sm *ShadowMap) Target() *gpu.RenderTarget { return sm.target }

// Matrix returns the world to light clip space transform of the last frame.
func (sm *ShadowMap) Matrix() mgl32.Mat4 { return sm.matrix }

// Release releases the map.
func (sm *ShadowMap) Release() { sm.target.Release() }

// update sets the light transform so that the map covers the box.
func (sm *ShadowMap) update(lt *Light, box math32.Box3) {
	dir := lt.Direction()
	up := mgl32.Vec3{0, 1, 0}
	if cmath.Abs(dir.Dot(up)) > .99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	center := box.Center()
	radius := max(box.Size().Len()/2, .01)
	switch lt.Kind {
	case Spot:
		far := float32(0)
		for _, c := range box.Corners() {
			far = max(far, c.Sub(lt.Pos).Len())
		}
		far = max(far*1.01, .1)
		fov := min(2*max(lt.CutoffAngle, 1), 170)
		view := mgl32.LookAtV(lt.Pos, lt.Pos.Add(dir), up)
		sm.matrix = mgl32.Perspective(mgl32.DegToRad(fov), 1, far*.001, far).Mul4(view)
	default:
		eye := center.Sub(dir.Mul(2 * radius))
		view := mgl32.LookAtV(eye, center, up)
		sm.matrix = mgl32.Ortho(-radius, radius, -radius, radius, radius*.5, radius*3.5).Mul4(view)
	}
}

// lightCamera returns a camera that draws with the light transform.
func (sm *ShadowMap) lightCamera(lt *Light) *Camera {
	vp := sm.target.Viewport()
	return &Camera{Pos: lt.Pos, Target: lt.Target, UpDir: mgl32.Vec3{0, 1, 0}, Viewport: vp, viewProjection: sm.matrix}
}
