// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
	"log/slog"
)

// RenderTarget is something to draw into: either the default (screen)
// framebuffer, or a framebuffer with color and/or depth texture attachments.
// The color attachments are layers of one color texture: a single layer
// for most targets, and several for fragment shaders with several outputs,
// output i going to the i-th color layer.
// Attachments are owned when created by [NewRenderTarget] or
// [NewRenderTargetLayers], and borrowed when given to
// [NewRenderTargetFromTextures].
type RenderTarget struct {
	// Name is used in log messages.
	Name string

	ctx    *Context
	handle Handle
	size   image.Point
	screen bool

	color       *Texture
	colorLayers []int
	depth       *Texture
	depthLayer  int
	owned       bool

	released bool
}

// ScreenTarget returns the default framebuffer of the device, with the
// given size. Nothing is allocated; call [RenderTarget.Resize] when the
// window size changes.
func ScreenTarget(ctx *Context, width, height int) *RenderTarget {
	return &RenderTarget{Name: "screen", ctx: ctx, size: image.Point{width, height}, screen: true}
}

// NewRenderTarget returns an offscreen target with owned attachments of
// the given formats. Either format can be [UndefinedFormat] to have no
// color or no depth attachment, but not both.
func NewRenderTarget(ctx *Context, width, height int, colorFormat, depthFormat TextureFormats) (*RenderTarget, error) {
	return newOwnedTarget(ctx, width, height, 1, colorFormat, depthFormat)
}

// NewRenderTargetLayers returns an offscreen target whose owned color
// texture is a 2D array of the given number of layers, each one a color
// attachment, with an optional owned depth texture.
func NewRenderTargetLayers(ctx *Context, width, height, layers int, colorFormat, depthFormat TextureFormats) (*RenderTarget, error) {
	if colorFormat == UndefinedFormat {
		return nil, fmt.Errorf("%w: layered render target needs a color format", ErrUnsupportedFormat)
	}
	return newOwnedTarget(ctx, width, height, layers, colorFormat, depthFormat)
}

func newOwnedTarget(ctx *Context, width, height, layers int, colorFormat, depthFormat TextureFormats) (*RenderTarget, error) {
	if colorFormat == UndefinedFormat && depthFormat == UndefinedFormat {
		return nil, fmt.Errorf("%w: render target needs a color or depth format", ErrUnsupportedFormat)
	}
	if depthFormat != UndefinedFormat && !depthFormat.IsDepth() {
		return nil, fmt.Errorf("%w: %s is not a depth format", ErrUnsupportedFormat, depthFormat)
	}
	if colorFormat.IsDepth() {
		return nil, fmt.Errorf("%w: %s is not a color format", ErrUnsupportedFormat, colorFormat)
	}
	// validate everything before allocating anything
	for _, f := range []TextureFormats{colorFormat, depthFormat} {
		if f != UndefinedFormat && !ctx.caps.SupportsFormat(f) {
			return nil, fmt.Errorf("%w: %s for render target", ErrUnsupportedFormat, f)
		}
	}
	if mx := ctx.caps.MaxColorAttachments; layers < 1 || (mx > 0 && layers > mx) {
		return nil, fmt.Errorf("%w: %d color attachments, the device has %d", ErrAllocationFailed, layers, mx)
	}
	rt := &RenderTarget{ctx: ctx, size: image.Point{width, height}, owned: true}
	var err error
	if colorFormat != UndefinedFormat {
		sampler := Sampler{MinFilter: Linear, MagFilter: Linear}
		if layers > 1 {
			sampler = Sampler{MinFilter: Nearest, MagFilter: Nearest}
			rt.color, err = NewTexture2DArray(ctx, width, height, layers, colorFormat, sampler)
		} else {
			rt.color, err = NewTexture2D(ctx, width, height, colorFormat, sampler)
		}
		if err != nil {
			return nil, err
		}
		for i := 0; i < layers; i++ {
			rt.colorLayers = append(rt.colorLayers, i)
		}
	}
	if depthFormat != UndefinedFormat {
		rt.depth, err = NewTexture2D(ctx, width, height, depthFormat, Sampler{MinFilter: Nearest, MagFilter: Nearest})
		if err != nil {
			rt.releaseTextures()
			return nil, err
		}
	}
	if err := rt.allocFramebuffer(); err != nil {
		rt.releaseTextures()
		return nil, err
	}
	ctx.track(rt)
	return rt, nil
}

// NewRenderTargetFromTextures returns a target drawing into the given
// layer of borrowed color and/or depth textures, which must have the same
// size. The textures must outlive the target.
func NewRenderTargetFromTextures(ctx *Context, color, depth *Texture, layer int) (*RenderTarget, error) {
	if color == nil && depth == nil {
		return nil, fmt.Errorf("%w: render target needs a color or depth texture", ErrUnsupportedFormat)
	}
	if depth != nil && !depth.Format.Format.IsDepth() {
		return nil, fmt.Errorf("%w: %s is not a depth format", ErrUnsupportedFormat, depth.Format.Format)
	}
	rt := &RenderTarget{ctx: ctx, color: color, depth: depth, depthLayer: layer}
	if color != nil {
		rt.size = color.Size()
		rt.colorLayers = []int{layer}
	} else {
		rt.size = depth.Size()
	}
	if color != nil && depth != nil && color.Size() != depth.Size() {
		return nil, fmt.Errorf("%w: color size %v != depth size %v", ErrSizeMismatch, color.Size(), depth.Size())
	}
	if err := rt.allocFramebuffer(); err != nil {
		return nil, err
	}
	ctx.track(rt)
	return rt, nil
}

// attachments returns the framebuffer attachments of the target.
func (rt *RenderTarget) attachments() ([]Attachment, *Attachment) {
	var colors []Attachment
	var depth *Attachment
	for _, layer := range rt.colorLayers {
		colors = append(colors, rt.color.attachment(layer))
	}
	if rt.depth != nil {
		da := rt.depth.attachment(rt.depthLayer)
		depth = &da
	}
	return colors, depth
}

func (rt *RenderTarget) allocFramebuffer() error {
	h, err := rt.ctx.device.CreateFramebuffer(rt.attachments())
	if err != nil {
		return rt.ctx.check(err)
	}
	rt.handle = h
	if Debug {
		slog.Info("gpu: render target allocated", "name", rt.Name, "size", rt.size)
	}
	return nil
}

// Handle returns the framebuffer handle: 0 for the screen.
func (rt *RenderTarget) Handle() Handle { return rt.handle }

// Size returns the size of the target in pixels.
func (rt *RenderTarget) Size() image.Point { return rt.size }

// Viewport returns the full viewport of the target.
func (rt *RenderTarget) Viewport() Viewport { return NewViewport(rt.size.X, rt.size.Y) }

// IsScreen returns true for the default framebuffer.
func (rt *RenderTarget) IsScreen() bool { return rt.screen }

// ColorTexture returns the color texture, or nil.
func (rt *RenderTarget) ColorTexture() *Texture { return rt.color }

// ColorAttachments returns the number of color attachments.
func (rt *RenderTarget) ColorAttachments() int { return len(rt.colorLayers) }

// DepthTexture returns the depth attachment, or nil.
func (rt *RenderTarget) DepthTexture() *Texture { return rt.depth }

// Resize changes the size of the target. For the screen it records the
// new window size; owned attachments are reallocated (content discarded).
// Targets on borrowed textures cannot be resized.
// The new attachments and framebuffer are all allocated before the old
// ones are released: on failure the target is unchanged.
func (rt *RenderTarget) Resize(width, height int) error {
	if rt.released {
		return ErrReleased
	}
	sz := image.Point{width, height}
	if sz == rt.size {
		return nil
	}
	if rt.screen {
		rt.size = sz
		return nil
	}
	if !rt.owned {
		return fmt.Errorf("%w: cannot resize a render target on borrowed textures", ErrSizeMismatch)
	}
	if err := rt.ctx.usable(); err != nil {
		return err
	}
	colors, depth := rt.attachments()
	var colorHandle, depthHandle Handle
	rollback := func() {
		for _, h := range []Handle{colorHandle, depthHandle} {
			if h != 0 {
				rt.ctx.device.DeleteTexture(h)
			}
		}
	}
	var err error
	if rt.color != nil {
		if colorHandle, err = rt.color.allocSize(sz); err != nil {
			return err
		}
		for i := range colors {
			colors[i].Texture = colorHandle
		}
	}
	if rt.depth != nil {
		if depthHandle, err = rt.depth.allocSize(sz); err != nil {
			rollback()
			return err
		}
		depth.Texture = depthHandle
	}
	fb, err := rt.ctx.device.CreateFramebuffer(colors, depth)
	if err != nil {
		rollback()
		return rt.ctx.check(err)
	}
	rt.ctx.device.DeleteFramebuffer(rt.handle)
	rt.handle = fb
	if rt.color != nil {
		rt.color.replace(colorHandle, sz)
	}
	if rt.depth != nil {
		rt.depth.replace(depthHandle, sz)
	}
	rt.size = sz
	return nil
}

// Write binds the target, sets the viewport to the full target, clears
// as given, calls render, and restores the previous binding.
func (rt *RenderTarget) Write(clear ClearState, render func() error) error {
	return rt.WriteViewport(rt.Viewport(), clear, render)
}

// WriteViewport is [RenderTarget.Write] for part of the target.
// The clear applies to the whole target.
func (rt *RenderTarget) WriteViewport(vp Viewport, clear ClearState, render func() error) error {
	if rt.released {
		return ErrReleased
	}
	if err := rt.ctx.usable(); err != nil {
		return err
	}
	prev := rt.ctx.bindFramebuffer(rt.handle)
	defer rt.ctx.bindFramebuffer(prev)
	rt.ctx.setViewport(rt.Viewport())
	rt.ctx.clear(clear)
	rt.ctx.setViewport(vp)
	if render == nil {
		return rt.ctx.Err()
	}
	if err := render(); err != nil {
		return rt.ctx.check(err)
	}
	return rt.ctx.Err()
}

// ReadColor reads back the RGBA8 pixels of the target.
func (rt *RenderTarget) ReadColor() ([]byte, error) {
	if rt.released {
		return nil, ErrReleased
	}
	if err := rt.ctx.usable(); err != nil {
		return nil, err
	}
	prev := rt.ctx.bindFramebuffer(rt.handle)
	defer rt.ctx.bindFramebuffer(prev)
	b, err := rt.ctx.device.ReadPixels(image.Rectangle{Max: rt.size}, RGBA8)
	return b, rt.ctx.check(err)
}

func (rt *RenderTarget) releaseTextures() {
	if !rt.owned {
		return
	}
	if rt.color != nil {
		rt.color.Release()
	}
	if rt.depth != nil {
		rt.depth.Release()
	}
}

// Release releases the framebuffer and any owned attachments.
// It is safe to call more than once. The screen target has nothing to release.
func (rt *RenderTarget) Release() {
	if rt.released {
		return
	}
	rt.released = true
	if rt.screen {
		return
	}
	if rt.handle != 0 {
		rt.ctx.device.DeleteFramebuffer(rt.handle)
		rt.handle = 0
	}
	rt.releaseTextures()
	rt.ctx.untrack(rt)
}
