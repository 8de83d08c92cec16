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

// Camera defines the view and projection of a rendered frame.
// The matrices are recomputed by every method that changes the camera;
// the exported fields are read-only and changed with the setters.
type Camera struct {

	// Pos is the position of the camera in world coordinates.
	Pos mgl32.Vec3

	// Target is where the camera is pointing; it moves with panning.
	Target mgl32.Vec3

	// UpDir is the up direction of the camera.
	UpDir mgl32.Vec3

	// Ortho makes the camera orthographic instead of perspective.
	// The orthographic view covers the same area at the target
	// distance as the perspective view would.
	Ortho bool

	// FOV is the vertical field of view in degrees.
	FOV float32

	// Near is the distance to the near clipping plane.
	Near float32

	// Far is the distance to the far clipping plane.
	Far float32

	// Viewport is the region of the render target the camera draws
	// into. Its size must match the size of the render target.
	Viewport gpu.Viewport

	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4
	inverse        mgl32.Mat4
	frustum        math32.Frustum
}

// NewCamera returns a perspective camera for the viewport, with
// default parameters: looking at the origin from 0,0,10, with up Y axis.
func NewCamera(vp gpu.Viewport) *Camera {
	cm := &Camera{Viewport: vp}
	cm.Defaults()
	return cm
}

// NewPerspectiveCamera returns a perspective camera at the given
// position looking at the target.
func NewPerspectiveCamera(vp gpu.Viewport, pos, target, up mgl32.Vec3, fov, near, far float32) *Camera {
	cm := &Camera{Viewport: vp, Pos: pos, Target: target, UpDir: up, FOV: fov, Near: near, Far: far}
	cm.update()
	return cm
}

// NewOrthoCamera returns an orthographic camera at the given
// position looking at the target, showing the given height at
// the target distance.
func NewOrthoCamera(vp gpu.Viewport, pos, target, up mgl32.Vec3, height, near, far float32) *Camera {
	dist := target.Sub(pos).Len()
	fov := float32(30)
	if dist > 0 {
		fov = mgl32.RadToDeg(2 * cmath.Atan(.5*height/dist))
	}
	cm := &Camera{Viewport: vp, Pos: pos, Target: target, UpDir: up, Ortho: true, FOV: fov, Near: near, Far: far}
	cm.update()
	return cm
}

// Defaults sets the default parameters.
func (cm *Camera) Defaults() {
	cm.FOV = 30
	cm.Near = .01
	cm.Far = 1000
	cm.Ortho = false
	cm.DefaultPose()
}

// DefaultPose resets the camera pose to default location and orientation, looking
// at the origin from 0,0,10, with up Y axis
func (cm *Camera) DefaultPose() {
	cm.Pos = mgl32.Vec3{0, 0, 10}
	cm.LookAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

// update recomputes the matrices and the frustum.
func (cm *Camera) update() {
	if cm.UpDir.Len() == 0 {
		cm.UpDir = mgl32.Vec3{0, 1, 0}
	}
	cm.view = mgl32.LookAtV(cm.Pos, cm.Target, cm.UpDir)
	aspect := cm.Viewport.Aspect()
	if cm.Ortho {
		dist := cm.Target.Sub(cm.Pos).Len()
		height := 2 * dist * cmath.Tan(mgl32.DegToRad(cm.FOV*.5))
		width := aspect * height
		cm.projection = mgl32.Ortho(-width/2, width/2, -height/2, height/2, cm.Near, cm.Far)
	} else {
		cm.projection = mgl32.Perspective(mgl32.DegToRad(cm.FOV), aspect, cm.Near, cm.Far)
	}
	cm.viewProjection = cm.projection.Mul4(cm.view)
	cm.inverse = cm.viewProjection.Inv()
	cm.frustum.SetFromMatrix(cm.viewProjection)
}

// SetViewport sets the viewport, which also sets the aspect ratio.
func (cm *Camera) SetViewport(vp gpu.Viewport) {
	cm.Viewport = vp
	cm.update()
}

// SetPerspective makes the camera a perspective camera with the given
// vertical field of view in degrees and clipping distances.
func (cm *Camera) SetPerspective(fov, near, far float32) {
	cm.Ortho = false
	cm.FOV, cm.Near, cm.Far = fov, near, far
	cm.update()
}

// SetOrthographic makes the camera orthographic, showing the given
// height at the target distance.
func (cm *Camera) SetOrthographic(height, near, far float32) {
	if dist := cm.Target.Sub(cm.Pos).Len(); dist > 0 {
		cm.FOV = mgl32.RadToDeg(2 * cmath.Atan(.5*height/dist))
	}
	cm.Ortho = true
	cm.Near, cm.Far = near, far
	cm.update()
}

// SetPosition moves the camera, keeping the target.
func (cm *Camera) SetPosition(pos mgl32.Vec3) {
	cm.Pos = pos
	cm.update()
}

// LookAt points the camera at given target location, using given up direction,
// and sets the Target, UpDir fields for future camera movements.
func (cm *Camera) LookAt(target, upDir mgl32.Vec3) {
	cm.Target = target
	if upDir.Len() == 0 {
		upDir = mgl32.Vec3{0, 1, 0}
	}
	cm.UpDir = upDir
	cm.update()
}

// Position returns the position of the camera in world coordinates.
func (cm *Camera) Position() mgl32.Vec3 { return cm.Pos }

// ViewMatrix returns the world to camera transform.
func (cm *Camera) ViewMatrix() mgl32.Mat4 { return cm.view }

// ProjectionMatrix returns the camera to clip space transform.
func (cm *Camera) ProjectionMatrix() mgl32.Mat4 { return cm.projection }

// ViewProjection returns the world to clip space transform.
func (cm *Camera) ViewProjection() mgl32.Mat4 { return cm.viewProjection }

// ViewDirection returns the unit vector from the camera toward the target.
func (cm *Camera) ViewDirection() mgl32.Vec3 {
	d := cm.Target.Sub(cm.Pos)
	if d.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return d.Normalize()
}

// Frustum returns the view frustum in world coordinates.
func (cm *Camera) Frustum() *math32.Frustum { return &cm.frustum }

// InFrustum returns true if any part of the box may be visible.
// Partially visible boxes are never rejected.
func (cm *Camera) InFrustum(box math32.Box3) bool {
	return cm.frustum.IntersectsBox(box)
}

// ViewRay returns the world space ray through the given normalized
// screen position, where 0,0 is the top left and 1,1 the bottom right
// of the viewport. Perspective rays start at the camera position.
func (cm *Camera) ViewRay(sx, sy float32) math32.Ray {
	nx := 2*sx - 1
	ny := 1 - 2*sy
	near := math32.TransformPoint(cm.inverse, mgl32.Vec3{nx, ny, -1})
	far := math32.TransformPoint(cm.inverse, mgl32.Vec3{nx, ny, 1})
	if cm.Ortho {
		return math32.NewRay(near, far.Sub(near))
	}
	return math32.NewRay(cm.Pos, far.Sub(cm.Pos))
}

// DistanceTo returns the distance from the camera to the point.
func (cm *Camera) DistanceTo(point mgl32.Vec3) float32 {
	return point.Sub(cm.Pos).Len()
}

// Orbit moves the camera along the given 2D axes in degrees
// (delX = left/right, delY = up/down),
// relative to current position and orientation,
// keeping the same distance from the Target, and rotating the camera and
// the Up direction vector to keep looking at the target.
func (cm *Camera) Orbit(delX, delY float32) {
	ctdir := cm.Pos.Sub(cm.Target)
	if ctdir.Len() == 0 {
		ctdir = mgl32.Vec3{0, 0, 1}
	}
	dir := ctdir.Normalize()
	up := cm.UpDir
	right := up.Cross(dir)
	if right.Len() == 0 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()

	// delX rotates around the up vector, delY around the right vector
	dxq := mgl32.QuatRotate(mgl32.DegToRad(delX), up.Normalize())
	dyq := mgl32.QuatRotate(mgl32.DegToRad(delY), right)
	ctdir = dyq.Rotate(dxq.Rotate(ctdir))

	cm.Pos = cm.Target.Add(ctdir)
	cm.UpDir = dyq.Rotate(cm.UpDir) // only delY changes up
	cm.update()
}

// Pan moves the camera along the given 2D axes (left/right, up/down),
// relative to current position and orientation (i.e., in the plane of the
// current window view)
// and it moves the target by the same increment, changing the target position.
func (cm *Camera) Pan(delX, delY float32) {
	fwd := cm.ViewDirection()
	right := fwd.Cross(cm.UpDir)
	if right.Len() == 0 {
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := right.Cross(fwd)
	td := right.Mul(-delX).Add(up.Mul(-delY))
	cm.Pos = cm.Pos.Add(td)
	cm.Target = cm.Target.Add(td)
	cm.update()
}

// Zoom moves along axis given pct closer or further from the target
// it always moves the target back also if it distance is < 1
func (cm *Camera) Zoom(zoomPct float32) {
	ctaxis := cm.Pos.Sub(cm.Target)
	if ctaxis.Len() == 0 {
		ctaxis = mgl32.Vec3{0, 0, 1}
	}
	dist := ctaxis.Len()
	del := ctaxis.Mul(zoomPct)
	cm.Pos = cm.Pos.Add(del)
	if zoomPct < 0 && dist < 1 {
		cm.Target = cm.Target.Add(del)
	}
	cm.update()
}
