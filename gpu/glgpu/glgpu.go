// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !js

// Package glgpu implements [gpu.Device] on OpenGL 3.3 core.
// A GL context must be current on the calling OS thread, e.g. one
// made by the window package, for the whole life of the device.
package glgpu

import (
	"fmt"
	"image"
	"strings"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// contextLost is GL_CONTEXT_LOST from KHR_robustness, not in the 3.3 core headers.
const contextLost = 0x0507

type program struct {
	uniforms   map[string]int32
	attributes map[string]uint32
}

// Device is an OpenGL 3.3 core [gpu.Device].
type Device struct {
	caps     gpu.Capabilities
	vao      uint32
	programs map[gpu.Handle]*program
	textures map[gpu.Handle]*gpu.TextureFormat
	fences   map[gpu.Handle]uintptr
	nextSync gpu.Handle
	enabled  map[uint32]bool

	framebuffer gpu.Handle
	lost        bool
}

// NewDevice initializes the GL bindings for the current GL context
// and returns a new device for it.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: gl.Init: %w", gpu.ErrDeviceError, err)
	}
	d := &Device{
		programs: map[gpu.Handle]*program{},
		textures: map[gpu.Handle]*gpu.TextureFormat{},
		fences:   map[gpu.Handle]uintptr{},
		enabled:  map[uint32]bool{},
	}
	d.caps = d.queryCapabilities()
	// core profile requires a bound vertex array object
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	return d, d.glError("init")
}

func (d *Device) queryCapabilities() gpu.Capabilities {
	get := func(pname uint32) int {
		var v int32
		gl.GetIntegerv(pname, &v)
		return int(v)
	}
	cp := gpu.Capabilities{
		Name:                gl.GoStr(gl.GetString(gl.RENDERER)) + " / " + gl.GoStr(gl.GetString(gl.VERSION)),
		MaxTextureSize:      get(gl.MAX_TEXTURE_SIZE),
		MaxTextureUnits:     get(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
		MaxColorAttachments: get(gl.MAX_COLOR_ATTACHMENTS),
		ShaderHeader:        "#version 330 core\n",
		Instancing:          true,
	}
	for f := range formats {
		cp.Formats = append(cp.Formats, f)
	}
	n := get(gl.NUM_EXTENSIONS)
	for i := 0; i < n; i++ {
		cp.Extensions = append(cp.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
	}
	return cp
}

// glError returns the pending GL error, if any, as a gpu error.
func (d *Device) glError(op string) error {
	code := gl.GetError()
	switch code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%w: %s: out of memory", gpu.ErrAllocationFailed, op)
	case contextLost:
		d.lost = true
		return gpu.ErrContextLost
	}
	return fmt.Errorf("%w: %s: GL error 0x%x", gpu.ErrDeviceError, op, code)
}

func (d *Device) Capabilities() gpu.Capabilities { return d.caps }

func (d *Device) Status() error {
	if d.lost {
		return gpu.ErrContextLost
	}
	return nil
}

func bufferTarget(kind gpu.BufferKinds) uint32 {
	if kind == gpu.IndexBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func bufferUsage(usage gpu.BufferUsages) uint32 {
	switch usage {
	case gpu.DynamicDraw:
		return gl.DYNAMIC_DRAW
	case gpu.StreamDraw:
		return gl.STREAM_DRAW
	}
	return gl.STATIC_DRAW
}

func (d *Device) CreateBuffer(kind gpu.BufferKinds, usage gpu.BufferUsages, data []byte) (gpu.Handle, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	target := bufferTarget(kind)
	gl.BindBuffer(target, id)
	gl.BufferData(target, len(data), gl.Ptr(data), bufferUsage(usage))
	if err := d.glError("CreateBuffer"); err != nil {
		gl.DeleteBuffers(1, &id)
		return 0, err
	}
	return gpu.Handle(id), nil
}

func (d *Device) WriteBuffer(buf gpu.Handle, kind gpu.BufferKinds, data []byte) error {
	target := bufferTarget(kind)
	gl.BindBuffer(target, uint32(buf))
	gl.BufferSubData(target, 0, len(data), gl.Ptr(data))
	return d.glError("WriteBuffer")
}

func (d *Device) DeleteBuffer(buf gpu.Handle) {
	id := uint32(buf)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) ReadPixels(rect image.Rectangle, format gpu.TextureFormats) ([]byte, error) {
	f, ok := formats[format]
	if !ok || format.IsDepth() {
		return nil, fmt.Errorf("%w: cannot read %s pixels", gpu.ErrUnsupportedFormat, format)
	}
	w, h := rect.Dx(), rect.Dy()
	bpp := format.BytesPerPixel()
	pix := make([]byte, w*h*bpp)
	gl.ReadPixels(int32(rect.Min.X), int32(rect.Min.Y), int32(w), int32(h), f.format, f.xtype, gl.Ptr(pix))
	if err := d.glError("ReadPixels"); err != nil {
		return nil, err
	}
	// GL rows go bottom to top
	stride := w * bpp
	row := make([]byte, stride)
	for y := 0; y < h/2; y++ {
		top := pix[y*stride : (y+1)*stride]
		bot := pix[(h-1-y)*stride : (h-y)*stride]
		copy(row, top)
		copy(top, bot)
		copy(bot, row)
	}
	return pix, nil
}

func (d *Device) CompileShader(stage gpu.ShaderStages, src string) (gpu.Handle, error) {
	xtype := uint32(gl.VERTEX_SHADER)
	if stage == gpu.FragmentShader {
		xtype = gl.FRAGMENT_SHADER
	}
	sh := gl.CreateShader(xtype)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, &gpu.CompileError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}
	return gpu.Handle(sh), d.glError("CompileShader")
}

func (d *Device) DeleteShader(sh gpu.Handle) {
	gl.DeleteShader(uint32(sh))
}

func (d *Device) LinkProgram(vs, fs gpu.Handle) (gpu.Handle, *gpu.ProgramInfo, error) {
	prog := gl.CreateProgram()
	gl.AttachShader(prog, uint32(vs))
	gl.AttachShader(prog, uint32(fs))
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, nil, &gpu.CompileError{Stage: gpu.LinkStage, Log: strings.TrimRight(log, "\x00")}
	}
	gl.DetachShader(prog, uint32(vs))
	gl.DetachShader(prog, uint32(fs))

	p := &program{uniforms: map[string]int32{}, attributes: map[string]uint32{}}
	info := &gpu.ProgramInfo{}
	var n, maxLen int32
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTES, &n)
	gl.GetProgramiv(prog, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)
	for i := uint32(0); i < uint32(n); i++ {
		name := activeName(maxLen, func(buf *uint8, length, size *int32, xtype *uint32) {
			gl.GetActiveAttrib(prog, i, maxLen, length, size, xtype, buf)
		})
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		p.attributes[name] = uint32(gl.GetAttribLocation(prog, gl.Str(name+"\x00")))
		info.Attributes = append(info.Attributes, name)
	}
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORMS, &n)
	gl.GetProgramiv(prog, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	for i := uint32(0); i < uint32(n); i++ {
		name := activeName(maxLen, func(buf *uint8, length, size *int32, xtype *uint32) {
			gl.GetActiveUniform(prog, i, maxLen, length, size, xtype, buf)
		})
		name = strings.TrimSuffix(name, "[0]")
		p.uniforms[name] = gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
		info.Uniforms = append(info.Uniforms, name)
	}
	d.programs[gpu.Handle(prog)] = p
	return gpu.Handle(prog), info, d.glError("LinkProgram")
}

func activeName(maxLen int32, get func(buf *uint8, length, size *int32, xtype *uint32)) string {
	buf := make([]uint8, maxLen+1)
	var length, size int32
	var xtype uint32
	get(&buf[0], &length, &size, &xtype)
	return string(buf[:length])
}

func (d *Device) DeleteProgram(prog gpu.Handle) {
	delete(d.programs, prog)
	gl.DeleteProgram(uint32(prog))
}

func (d *Device) UseProgram(prog gpu.Handle) {
	for loc := range d.enabled {
		gl.DisableVertexAttribArray(loc)
		gl.VertexAttribDivisor(loc, 0)
	}
	clear(d.enabled)
	gl.UseProgram(uint32(prog))
}

func (d *Device) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	for f, s := range d.fences {
		gl.DeleteSync(s)
		delete(d.fences, f)
	}
}
