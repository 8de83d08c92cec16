// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
)

// WriteMask is a set of bit flags for the outputs a draw call writes.
type WriteMask uint8

const (
	WriteRed WriteMask = 1 << iota
	WriteGreen
	WriteBlue
	WriteAlpha
	WriteDepth

	// WriteColor writes all color channels and not depth.
	WriteColor = WriteRed | WriteGreen | WriteBlue | WriteAlpha

	// WriteAll writes all color channels and depth.
	WriteAll = WriteColor | WriteDepth

	// WriteNone writes nothing.
	WriteNone WriteMask = 0
)

// Has returns true if all the flags in f are set.
func (wm WriteMask) Has(f WriteMask) bool {
	return wm&f == f
}

// DepthTests are the depth comparison functions.
// The zero value is DepthLess.
type DepthTests int32

const (
	DepthLess DepthTests = iota
	DepthLessEqual
	DepthEqual
	DepthGreater
	DepthGreaterEqual
	DepthNotEqual
	DepthAlways
	DepthNever
)

// CullModes determine which faces are discarded before rasterization.
type CullModes int32

const (
	CullNone CullModes = iota
	CullBack
	CullFront
	CullFrontAndBack
)

// BlendFactors are the source and destination multipliers of blending.
type BlendFactors int32

const (
	BlendZero BlendFactors = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendDstColor
	BlendOneMinusDstColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

// BlendEquations combine the weighted source and destination.
type BlendEquations int32

const (
	BlendAdd BlendEquations = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

// Blend is the blending state. The zero value disables blending.
type Blend struct {
	Enabled bool

	SourceRGB   BlendFactors
	DestRGB     BlendFactors
	SourceAlpha BlendFactors
	DestAlpha   BlendFactors

	RGBEquation   BlendEquations
	AlphaEquation BlendEquations
}

var (
	// NoBlend disables blending.
	NoBlend = Blend{}

	// TransparencyBlend is standard alpha blending of non-premultiplied
	// color, keeping the destination alpha.
	TransparencyBlend = Blend{Enabled: true, SourceRGB: BlendSrcAlpha, DestRGB: BlendOneMinusSrcAlpha, SourceAlpha: BlendZero, DestAlpha: BlendOne}

	// AddBlend adds the source to the destination.
	AddBlend = Blend{Enabled: true, SourceRGB: BlendOne, DestRGB: BlendOne, SourceAlpha: BlendOne, DestAlpha: BlendOne}
)

// RenderStates is the fixed-function state used by a draw call.
type RenderStates struct {
	Write WriteMask
	Depth DepthTests
	Blend Blend
	Cull  CullModes
}

// DefaultRenderStates writes color and depth with a less-than depth test,
// no blending and no culling.
func DefaultRenderStates() RenderStates {
	return RenderStates{Write: WriteAll, Depth: DepthLess}
}

// SetCullMode sets the face culling mode.
func (rs *RenderStates) SetCullMode(mode CullModes) *RenderStates {
	rs.Cull = mode
	return rs
}

// SetBlend sets the blend state.
func (rs *RenderStates) SetBlend(bl Blend) *RenderStates {
	rs.Blend = bl
	return rs
}

// SetDepthWrite turns depth writing on or off.
func (rs *RenderStates) SetDepthWrite(on bool) *RenderStates {
	if on {
		rs.Write |= WriteDepth
	} else {
		rs.Write &^= WriteDepth
	}
	return rs
}

// ClearState specifies which buffers of a render target are cleared,
// and to what value.
type ClearState struct {
	ClearColor bool

	// Color is the R,G,B,A clear color, each in 0-1.
	Color [4]float32

	ClearDepth bool

	// Depth is the depth clear value, in 0-1.
	Depth float32
}

// ClearColorAndDepth clears both color and depth.
func ClearColorAndDepth(r, g, b, a, depth float32) ClearState {
	return ClearState{ClearColor: true, Color: [4]float32{r, g, b, a}, ClearDepth: true, Depth: depth}
}

// ClearOnlyColor clears only the color.
func ClearOnlyColor(r, g, b, a float32) ClearState {
	return ClearState{ClearColor: true, Color: [4]float32{r, g, b, a}}
}

// ClearOnlyDepth clears only the depth.
func ClearOnlyDepth(depth float32) ClearState {
	return ClearState{ClearDepth: true, Depth: depth}
}

// ClearNone clears nothing.
func ClearNone() ClearState {
	return ClearState{}
}

// DefaultClear clears to opaque black and depth 1.
func DefaultClear() ClearState {
	return ClearColorAndDepth(0, 0, 0, 1, 1)
}

// IsNone returns true if nothing is cleared.
func (cs ClearState) IsNone() bool {
	return !cs.ClearColor && !cs.ClearDepth
}

// Viewport is a rectangle of a render target, in pixels, with (0,0)
// at the bottom-left as in GL.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// NewViewport returns a viewport at the origin with the given size.
func NewViewport(width, height int) Viewport {
	return Viewport{Width: width, Height: height}
}

// Size returns the width and height of the viewport.
func (vp Viewport) Size() image.Point {
	return image.Point{vp.Width, vp.Height}
}

// Aspect returns the width / height aspect ratio.
func (vp Viewport) Aspect() float32 {
	if vp.Height == 0 {
		return 1
	}
	return float32(vp.Width) / float32(vp.Height)
}

func (vp Viewport) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", vp.X, vp.Y, vp.Width, vp.Height)
}
