// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !js

package window

import (
	"cogentcore.org/render/xyz"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var navKeys = map[glfw.Key]xyz.NavKeys{
	glfw.KeyUp:         xyz.NavUp,
	glfw.KeyDown:       xyz.NavDown,
	glfw.KeyLeft:       xyz.NavLeft,
	glfw.KeyRight:      xyz.NavRight,
	glfw.KeyEqual:      xyz.NavZoomIn,
	glfw.KeyKPAdd:      xyz.NavZoomIn,
	glfw.KeyMinus:      xyz.NavZoomOut,
	glfw.KeyKPSubtract: xyz.NavZoomOut,
	glfw.KeySpace:      xyz.NavReset,
}

// Navigate moves the camera with the mouse and keyboard: dragging
// orbits (pans with shift), scrolling zooms, and the arrow keys orbit
// (pan with shift). A click without dragging calls click, if non-nil,
// with the normalized window position (0,0 top left, 1,1 bottom right),
// for [xyz.Pick]. The camera viewport follows the window size.
func (w *Window) Navigate(cam *xyz.Camera, click func(sx, sy float32)) *xyz.Navigator {
	nv := &xyz.Navigator{Camera: cam}
	var down, dragged bool
	var lastX, lastY float64

	w.OnResize(func(width, height int) {
		cam.SetViewport(w.screen.Viewport())
	})
	w.glw.SetMouseButtonCallback(func(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			down, dragged = true, false
			lastX, lastY = gw.GetCursorPos()
		case glfw.Release:
			down = false
			if dragged || click == nil {
				return
			}
			ww, wh := gw.GetSize()
			if ww > 0 && wh > 0 {
				click(float32(lastX/float64(ww)), float32(lastY/float64(wh)))
			}
		}
	})
	w.glw.SetCursorPosCallback(func(gw *glfw.Window, x, y float64) {
		if !down {
			return
		}
		dx, dy := float32(x-lastX), float32(y-lastY)
		lastX, lastY = x, y
		if dx == 0 && dy == 0 {
			return
		}
		dragged = true
		nv.Drag(dx, dy, gw.GetKey(glfw.KeyLeftShift) == glfw.Press || gw.GetKey(glfw.KeyRightShift) == glfw.Press)
	})
	w.glw.SetScrollCallback(func(gw *glfw.Window, xoff, yoff float64) {
		nv.Scroll(float32(yoff))
	})
	w.glw.SetKeyCallback(func(gw *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if key == glfw.KeyEscape {
			w.Close()
			return
		}
		if nk, ok := navKeys[key]; ok {
			nv.Key(nk, mods&glfw.ModShift != 0)
		}
	})
	return nv
}
