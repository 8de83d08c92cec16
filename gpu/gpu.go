// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu manages GPU resources for rasterization: a single [Context]
// per device, [Buffer], [Texture], [RenderTarget] and [Program] resources,
// and the [ProgramCache] that compiles each distinct shader pair once.
//
// All calls go through a [Device], a thin handle-based bind-then-draw
// backend. The glgpu package provides OpenGL, and the headless package
// records calls without any display, for tests and offscreen tools.
//
// A Context and everything created from it must be used from the
// single goroutine that owns the device.
package gpu

// Debug is whether to enable debug mode, logging every resource
// allocation and program compile.
var Debug = false
