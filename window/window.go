// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !js

// Package window opens a desktop window with an OpenGL 3.3 core
// context, and provides the [gpu.Context] and screen render target
// for drawing into it.
package window

import (
	"fmt"
	"log/slog"
	"runtime"

	"cogentcore.org/render/base/errors"
	"cogentcore.org/render/gpu"
	"cogentcore.org/render/gpu/glgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// some operating systems require us to be on the main thread
	runtime.LockOSThread()
}

// Window is a desktop window that owns a GL context.
// All its methods must be called from the main thread.
type Window struct {

	// Title is the title of the window.
	Title string

	glw    *glfw.Window
	ctx    *gpu.Context
	screen *gpu.RenderTarget

	// resized is called with the new framebuffer size.
	resized []func(width, height int)
}

// New initializes glfw and opens a window of the given size in screen
// coordinates, with a gpu context configured by cfg (nil for defaults).
func New(title string, width, height int, cfg *gpu.Config) (*Window, error) {
	if cfg == nil {
		cfg = gpu.NewConfig()
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize glfw: %w", gpu.ErrDeviceError, err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	if cfg.MultiSample > 1 {
		glfw.WindowHint(glfw.Samples, cfg.MultiSample)
	}
	glw, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: failed to create window: %w", gpu.ErrDeviceError, err)
	}
	glw.MakeContextCurrent()
	glfw.SwapInterval(1)

	dev, err := glgpu.NewDevice()
	if err != nil {
		glw.Destroy()
		glfw.Terminate()
		return nil, err
	}
	ctx, err := gpu.NewContext(dev, cfg)
	if err != nil {
		dev.Release()
		glw.Destroy()
		glfw.Terminate()
		return nil, err
	}
	fw, fh := glw.GetFramebufferSize()
	w := &Window{Title: title, glw: glw, ctx: ctx, screen: gpu.ScreenTarget(ctx, fw, fh)}
	glw.SetFramebufferSizeCallback(w.fbResized)
	if gpu.Debug {
		slog.Info("window: opened", "title", title, "framebuffer", fmt.Sprintf("%dx%d", fw, fh), "device", ctx.Capabilities().Name)
	}
	return w, nil
}

// Context returns the gpu context of the window.
func (w *Window) Context() *gpu.Context { return w.ctx }

// Screen returns the render target of the window framebuffer, which
// is kept at the framebuffer size.
func (w *Window) Screen() *gpu.RenderTarget { return w.screen }

// Size returns the size of the framebuffer in pixels.
func (w *Window) Size() (width, height int) {
	sz := w.screen.Size()
	return sz.X, sz.Y
}

// OnResize adds a function called with the new framebuffer size
// whenever the window is resized.
func (w *Window) OnResize(fun func(width, height int)) {
	w.resized = append(w.resized, fun)
}

func (w *Window) fbResized(gw *glfw.Window, width, height int) {
	if errors.Log(w.screen.Resize(width, height)) != nil {
		return
	}
	for _, fun := range w.resized {
		fun(width, height)
	}
}

// ShouldClose returns true once the user has asked to close the window.
func (w *Window) ShouldClose() bool { return w.glw.ShouldClose() }

// Close asks the window to close, ending [Window.Run].
func (w *Window) Close() { w.glw.SetShouldClose(true) }

// Run calls frame and presents the result until the window is closed
// or frame returns an error. A lost context ends Run with
// [gpu.ErrContextLost]; other errors are returned as is.
func (w *Window) Run(frame func() error) error {
	for !w.glw.ShouldClose() {
		glfw.PollEvents()
		if sz := w.screen.Size(); sz.X == 0 || sz.Y == 0 {
			// minimized
			glfw.WaitEvents()
			continue
		}
		if err := frame(); err != nil {
			return err
		}
		w.glw.SwapBuffers()
		if err := w.ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Release releases the gpu context, then closes the window and glfw.
func (w *Window) Release() {
	if w.glw == nil {
		return
	}
	w.ctx.Release()
	w.glw.Destroy()
	w.glw = nil
	glfw.Terminate()
}
