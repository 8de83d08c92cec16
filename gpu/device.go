// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"image"
	"slices"
)

// Handle is a backend object name. 0 is the null object, and for
// framebuffers it is the default (screen) framebuffer.
type Handle uint32

// Device is the backend contract: a handle-based, bind-then-draw
// graphics API. Implementations return errors wrapping [ErrContextLost],
// [ErrAllocationFailed] or [ErrDeviceError], and [*CompileError] for
// shader failures. A Device is used by exactly one [Context].
type Device interface {
	// Capabilities returns the limits and features of the device.
	Capabilities() Capabilities

	// Status returns nil while the device is usable, and an error
	// wrapping [ErrContextLost] once it has been lost.
	Status() error

	CreateBuffer(kind BufferKinds, usage BufferUsages, data []byte) (Handle, error)

	// WriteBuffer replaces the full contents of the buffer.
	// The size of data equals the size it was created with.
	WriteBuffer(buf Handle, kind BufferKinds, data []byte) error
	DeleteBuffer(buf Handle)

	CreateTexture(format *TextureFormat) (Handle, error)

	// WriteTexture uploads one layer (or cube face, or 3D slice) of pixels.
	WriteTexture(tex Handle, format *TextureFormat, layer int, data []byte) error
	DeleteTexture(tex Handle)

	CreateFramebuffer(color []Attachment, depth *Attachment) (Handle, error)
	DeleteFramebuffer(fb Handle)
	BindFramebuffer(fb Handle)

	// ReadPixels reads back the given rectangle of the bound framebuffer.
	ReadPixels(rect image.Rectangle, format TextureFormats) ([]byte, error)

	CompileShader(stage ShaderStages, src string) (Handle, error)
	DeleteShader(sh Handle)
	LinkProgram(vs, fs Handle) (Handle, *ProgramInfo, error)
	DeleteProgram(prog Handle)
	UseProgram(prog Handle)

	// SetUniform sets a uniform of the program in use. Values are
	// int32, float32, bool, mgl32.Vec2/3/4, mgl32.Mat3 or mgl32.Mat4.
	SetUniform(prog Handle, name string, value any) error

	// BindTexture binds the texture to the unit, and the named sampler to the unit.
	BindTexture(prog Handle, name string, unit int, tex Handle, kind TextureKinds) error

	// SetAttribute sources the named vertex attribute from the buffer.
	// A divisor of 1 advances the attribute per instance.
	SetAttribute(prog Handle, name string, buf Handle, typ Types, divisor int) error

	SetRenderStates(rs RenderStates)
	SetViewport(vp Viewport)
	Clear(cs ClearState)
	DrawArrays(count, instances int) error
	DrawElements(indices Handle, typ Types, count, instances int) error

	// InsertFence inserts a fence after all commands issued so far.
	InsertFence() (Handle, error)

	// FenceSignaled polls the fence without blocking.
	FenceSignaled(f Handle) (bool, error)
	DeleteFence(f Handle)

	// Release releases the device itself.
	Release()
}

// Attachment is a texture (layer) attached to a framebuffer.
type Attachment struct {
	Texture Handle
	Kind    TextureKinds
	Format  TextureFormats

	// Layer is the array layer, cube face or 3D slice for layered textures.
	Layer int
}

// ProgramInfo is the reflection info of a linked program:
// its active vertex attributes and uniforms.
type ProgramInfo struct {
	Attributes []string
	Uniforms   []string
}

// Capabilities are the limits and features of a device.
type Capabilities struct {
	// Name of the device / driver.
	Name string

	MaxTextureSize      int
	MaxTextureUnits     int
	MaxColorAttachments int

	// Formats are the supported texture formats.
	Formats []TextureFormats

	// ShaderHeader is prepended to every shader source,
	// e.g. "#version 330 core".
	ShaderHeader string

	Instancing bool
	Extensions []string
}

// SupportsFormat returns true if the texture format is supported.
func (cp *Capabilities) SupportsFormat(format TextureFormats) bool {
	return slices.Contains(cp.Formats, format)
}

// HasExtension returns true if the named extension is available.
func (cp *Capabilities) HasExtension(name string) bool {
	return slices.Contains(cp.Extensions, name)
}
