// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package xyz renders 3D scenes on top of package gpu.

A frame is described by a [Camera], a list of [Light] values, and a list of
[Renderable] objects, each of which pairs a [Geometry] with a [Material].
[Renderer.Render] draws the frame into a [gpu.RenderTarget]: shadow maps
are rendered first, then opaque objects front to back with depth writes,
then transparent objects back to front with blending.

Shader programs are generated from the material and the lights, and are
shared through the program cache of the [gpu.Context], so that identical
material and light configurations compile only once.

[Pick] returns the nearest object under a screen position, using bounding
box rejection followed by an exact ray and triangle test.
*/
package xyz
