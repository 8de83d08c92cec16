// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	cmath "github.com/chewxy/math32"
)

var (
	OrbitFactor = float32(0.025)
	PanFactor   = float32(0.001)
	ZoomFactor  = float32(0.01)
)

// NavKeys are the keys that move the camera.
type NavKeys int32

const (
	NavUp NavKeys = iota
	NavDown
	NavLeft
	NavRight
	NavZoomIn
	NavZoomOut
	NavReset
)

// Navigator moves a camera in response to mouse and keyboard input.
type Navigator struct {
	Camera *Camera

	// NoNav disables all navigation.
	NoNav bool
}

// Drag orbits the camera around its target by the mouse movement in
// pixels, along the dominant axis of the movement, or pans it if pan.
func (nv *Navigator) Drag(dx, dy float32, pan bool) {
	if nv.NoNav {
		return
	}
	cdist := max(nv.Camera.DistanceTo(nv.Camera.Target), 1)
	if pan {
		panDel := PanFactor * cdist
		nv.Camera.Pan(dx*panDel, -dy*panDel)
		return
	}
	orbDel := OrbitFactor * cdist
	if cmath.Abs(dx) > cmath.Abs(dy) {
		dy = 0
	} else {
		dx = 0
	}
	nv.Camera.Orbit(-dx*orbDel, -dy*orbDel)
}

// Scroll zooms the camera by the scroll amount; positive is closer.
func (nv *Navigator) Scroll(delta float32) {
	if nv.NoNav {
		return
	}
	nv.Camera.Zoom(-delta * ZoomFactor * max(nv.Camera.DistanceTo(nv.Camera.Target), 1))
}

// Key handles the standard viewer keyboard navigation: arrows orbit,
// or pan with shift.
func (nv *Navigator) Key(key NavKeys, shift bool) {
	if nv.NoNav {
		return
	}
	orbDeg := float32(5)
	panDel := float32(.2)
	zoomPct := float32(.05)
	cam := nv.Camera
	switch key {
	case NavUp:
		if shift {
			cam.Pan(0, panDel)
		} else {
			cam.Orbit(0, orbDeg)
		}
	case NavDown:
		if shift {
			cam.Pan(0, -panDel)
		} else {
			cam.Orbit(0, -orbDeg)
		}
	case NavLeft:
		if shift {
			cam.Pan(-panDel, 0)
		} else {
			cam.Orbit(orbDeg, 0)
		}
	case NavRight:
		if shift {
			cam.Pan(panDel, 0)
		} else {
			cam.Orbit(-orbDeg, 0)
		}
	case NavZoomIn:
		cam.Zoom(-zoomPct)
	case NavZoomOut:
		cam.Zoom(zoomPct)
	case NavReset:
		cam.DefaultPose()
	}
}
