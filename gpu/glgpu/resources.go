// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !js

package glgpu

import (
	"fmt"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// glFormat is the GL internal format, pixel format and pixel type of a texture format.
type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

var formats = map[gpu.TextureFormats]glFormat{
	gpu.R8:              {gl.R8, gl.RED, gl.UNSIGNED_BYTE},
	gpu.RGBA8:           {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.SRGBA8:          {gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE},
	gpu.R32F:            {gl.R32F, gl.RED, gl.FLOAT},
	gpu.RGBA16F:         {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT},
	gpu.RGBA32F:         {gl.RGBA32F, gl.RGBA, gl.FLOAT},
	gpu.Depth16:         {gl.DEPTH_COMPONENT16, gl.DEPTH_COMPONENT, gl.UNSIGNED_SHORT},
	gpu.Depth24:         {gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT},
	gpu.Depth32F:        {gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT},
	gpu.Depth24Stencil8: {gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8},
}

func textureTarget(kind gpu.TextureKinds) uint32 {
	switch kind {
	case gpu.Texture2DArray:
		return gl.TEXTURE_2D_ARRAY
	case gpu.TextureCube:
		return gl.TEXTURE_CUBE_MAP
	case gpu.Texture3D:
		return gl.TEXTURE_3D
	}
	return gl.TEXTURE_2D
}

func filter(ip gpu.Interpolation, mipmap bool) int32 {
	switch {
	case ip == gpu.Nearest && mipmap:
		return gl.NEAREST_MIPMAP_NEAREST
	case ip == gpu.Nearest:
		return gl.NEAREST
	case mipmap:
		return gl.LINEAR_MIPMAP_LINEAR
	}
	return gl.LINEAR
}

func wrap(w gpu.Wrapping) int32 {
	switch w {
	case gpu.Repeat:
		return gl.REPEAT
	case gpu.MirroredRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (d *Device) CreateTexture(format *gpu.TextureFormat) (gpu.Handle, error) {
	f, ok := formats[format.Format]
	if !ok {
		return 0, fmt.Errorf("%w: %s", gpu.ErrUnsupportedFormat, format.Format)
	}
	var id uint32
	gl.GenTextures(1, &id)
	target := textureTarget(format.Kind)
	gl.BindTexture(target, id)
	sm := &format.Sampler
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, filter(sm.MinFilter, sm.Mipmap))
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, filter(sm.MagFilter, false))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_S, wrap(sm.WrapS))
	gl.TexParameteri(target, gl.TEXTURE_WRAP_T, wrap(sm.WrapT))
	w, h := int32(format.Size.X), int32(format.Size.Y)
	switch format.Kind {
	case gpu.Texture2D:
		gl.TexImage2D(target, 0, f.internal, w, h, 0, f.format, f.xtype, nil)
	case gpu.TextureCube:
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, wrap(sm.WrapR))
		for face := uint32(0); face < uint32(6); face++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, f.internal, w, h, 0, f.format, f.xtype, nil)
		}
	default:
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, wrap(sm.WrapR))
		gl.TexImage3D(target, 0, f.internal, w, h, int32(format.Layers), 0, f.format, f.xtype, nil)
	}
	if err := d.glError("CreateTexture"); err != nil {
		gl.DeleteTextures(1, &id)
		return 0, err
	}
	tf := *format
	d.textures[gpu.Handle(id)] = &tf
	return gpu.Handle(id), nil
}

func (d *Device) WriteTexture(tex gpu.Handle, format *gpu.TextureFormat, layer int, data []byte) error {
	f := formats[format.Format]
	target := textureTarget(format.Kind)
	gl.BindTexture(target, uint32(tex))
	w, h := int32(format.Size.X), int32(format.Size.Y)
	switch format.Kind {
	case gpu.Texture2D:
		gl.TexSubImage2D(target, 0, 0, 0, w, h, f.format, f.xtype, gl.Ptr(data))
	case gpu.TextureCube:
		gl.TexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(layer), 0, 0, 0, w, h, f.format, f.xtype, gl.Ptr(data))
	default:
		gl.TexSubImage3D(target, 0, 0, 0, int32(layer), w, h, 1, f.format, f.xtype, gl.Ptr(data))
	}
	if format.Sampler.Mipmap {
		gl.GenerateMipmap(target)
	}
	return d.glError("WriteTexture")
}

func (d *Device) DeleteTexture(tex gpu.Handle) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
	delete(d.textures, tex)
}

func attach(point uint32, a *gpu.Attachment) {
	tex := uint32(a.Texture)
	switch a.Kind {
	case gpu.Texture2D:
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, point, gl.TEXTURE_2D, tex, 0)
	case gpu.TextureCube:
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, point, gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(a.Layer), tex, 0)
	default:
		gl.FramebufferTextureLayer(gl.FRAMEBUFFER, point, tex, 0, int32(a.Layer))
	}
}

func (d *Device) CreateFramebuffer(color []gpu.Attachment, depth *gpu.Attachment) (gpu.Handle, error) {
	var id uint32
	gl.GenFramebuffers(1, &id)
	gl.BindFramebuffer(gl.FRAMEBUFFER, id)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(d.framebuffer))

	bufs := make([]uint32, len(color))
	for i := range color {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		attach(bufs[i], &color[i])
	}
	if len(bufs) > 0 {
		gl.DrawBuffers(int32(len(bufs)), &bufs[0])
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}
	if depth != nil {
		point := uint32(gl.DEPTH_ATTACHMENT)
		if depth.Format == gpu.Depth24Stencil8 {
			point = gl.DEPTH_STENCIL_ATTACHMENT
		}
		attach(point, depth)
	}
	if st := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &id)
		return 0, fmt.Errorf("%w: framebuffer incomplete: 0x%x", gpu.ErrDeviceError, st)
	}
	if err := d.glError("CreateFramebuffer"); err != nil {
		gl.DeleteFramebuffers(1, &id)
		return 0, err
	}
	return gpu.Handle(id), nil
}

func (d *Device) DeleteFramebuffer(fb gpu.Handle) {
	id := uint32(fb)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) BindFramebuffer(fb gpu.Handle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(fb))
	d.framebuffer = fb
}

func (d *Device) program(prog gpu.Handle) (*program, error) {
	p := d.programs[prog]
	if p == nil {
		return nil, fmt.Errorf("%w: no program %d", gpu.ErrDeviceError, prog)
	}
	return p, nil
}

func (d *Device) SetUniform(prog gpu.Handle, name string, value any) error {
	p, err := d.program(prog)
	if err != nil {
		return err
	}
	loc, ok := p.uniforms[name]
	if !ok {
		return fmt.Errorf("%w: no uniform %q", gpu.ErrDeviceError, name)
	}
	switch v := value.(type) {
	case int32:
		gl.Uniform1i(loc, v)
	case int:
		gl.Uniform1i(loc, int32(v))
	case bool:
		var b int32
		if v {
			b = 1
		}
		gl.Uniform1i(loc, b)
	case float32:
		gl.Uniform1f(loc, v)
	case mgl32.Vec2:
		gl.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Mat3:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	default:
		return fmt.Errorf("%w: uniform %q has unsupported type %T", gpu.ErrDeviceError, name, value)
	}
	return d.glError("SetUniform " + name)
}

func (d *Device) BindTexture(prog gpu.Handle, name string, unit int, tex gpu.Handle, kind gpu.TextureKinds) error {
	p, err := d.program(prog)
	if err != nil {
		return err
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(textureTarget(kind), uint32(tex))
	if loc, ok := p.uniforms[name]; ok {
		gl.Uniform1i(loc, int32(unit))
	}
	return d.glError("BindTexture " + name)
}

func (d *Device) SetAttribute(prog gpu.Handle, name string, buf gpu.Handle, typ gpu.Types, divisor int) error {
	p, err := d.program(prog)
	if err != nil {
		return err
	}
	loc, ok := p.attributes[name]
	if !ok {
		return fmt.Errorf("%w: no attribute %q", gpu.ErrDeviceError, name)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	columns, size := 1, int32(typ.Components())
	switch typ {
	case gpu.Float32Matrix4:
		columns, size = 4, 4
	case gpu.Float32Matrix3:
		columns, size = 3, 3
	}
	stride := int32(typ.Bytes())
	for c := 0; c < columns; c++ {
		l := loc + uint32(c)
		gl.EnableVertexAttribArray(l)
		off := uintptr(c) * uintptr(size) * 4
		switch typ {
		case gpu.Uint8:
			gl.VertexAttribIPointer(l, 1, gl.UNSIGNED_BYTE, stride, gl.PtrOffset(int(off)))
		case gpu.Uint16:
			gl.VertexAttribIPointer(l, 1, gl.UNSIGNED_SHORT, stride, gl.PtrOffset(int(off)))
		case gpu.Uint32:
			gl.VertexAttribIPointer(l, 1, gl.UNSIGNED_INT, stride, gl.PtrOffset(int(off)))
		case gpu.Int32:
			gl.VertexAttribIPointer(l, 1, gl.INT, stride, gl.PtrOffset(int(off)))
		default:
			gl.VertexAttribPointer(l, size, gl.FLOAT, false, stride, gl.PtrOffset(int(off)))
		}
		gl.VertexAttribDivisor(l, uint32(divisor))
		d.enabled[l] = true
	}
	return d.glError("SetAttribute " + name)
}
