// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"log/slog"
)

// Program is a linked vertex and fragment shader pair.
// It is reference counted: [Program.Acquire] adds a holder, and the
// device program is deleted when the last holder calls [Program.Release].
type Program struct {
	VertexSource   string
	FragmentSource string

	attributes map[string]bool
	uniforms   map[string]bool

	ctx    *Context
	handle Handle
	refs   int
}

// NewProgram compiles and links the given sources. The device shader
// header is prepended to each. A failure returns a [*CompileError].
// The returned program has one reference, owned by the caller.
func NewProgram(ctx *Context, vertexSource, fragmentSource string) (*Program, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	dev := ctx.device
	vs, err := dev.CompileShader(VertexShader, ctx.caps.ShaderHeader+vertexSource)
	if err != nil {
		return nil, ctx.check(err)
	}
	defer dev.DeleteShader(vs)
	fs, err := dev.CompileShader(FragmentShader, ctx.caps.ShaderHeader+fragmentSource)
	if err != nil {
		return nil, ctx.check(err)
	}
	defer dev.DeleteShader(fs)
	h, info, err := dev.LinkProgram(vs, fs)
	if err != nil {
		return nil, ctx.check(err)
	}
	p := &Program{VertexSource: vertexSource, FragmentSource: fragmentSource, ctx: ctx, handle: h, refs: 1}
	p.attributes = make(map[string]bool, len(info.Attributes))
	for _, a := range info.Attributes {
		p.attributes[a] = true
	}
	p.uniforms = make(map[string]bool, len(info.Uniforms))
	for _, u := range info.Uniforms {
		p.uniforms[u] = true
	}
	ctx.track(p)
	if Debug {
		slog.Info("gpu: program linked", "attributes", info.Attributes, "uniforms", info.Uniforms)
	}
	return p, nil
}

// Handle returns the backend handle, 0 once released.
func (p *Program) Handle() Handle { return p.handle }

// RequiresAttribute returns true if the program reads the named vertex attribute.
func (p *Program) RequiresAttribute(name string) bool { return p.attributes[name] }

// HasUniform returns true if the program has the named active uniform.
func (p *Program) HasUniform(name string) bool { return p.uniforms[name] }

// Acquire adds a holder of the program and returns it.
func (p *Program) Acquire() *Program {
	if p.handle != 0 {
		p.refs++
	}
	return p
}

// Release drops one holder. The program is deleted on the device when
// the last holder releases it.
func (p *Program) Release() {
	if p.handle == 0 {
		return
	}
	p.refs--
	if p.refs > 0 {
		return
	}
	p.destroy()
}

// destroy deletes the program regardless of holders.
func (p *Program) destroy() {
	if p.handle == 0 {
		return
	}
	if p.ctx.bound.program == p.handle {
		p.ctx.bound.program = 0
	}
	p.ctx.device.DeleteProgram(p.handle)
	p.handle = 0
	p.refs = 0
	p.ctx.untrack(p)
}

func (p *Program) use() error {
	if p.handle == 0 {
		return ErrReleased
	}
	if err := p.ctx.usable(); err != nil {
		return err
	}
	p.ctx.useProgram(p.handle)
	return nil
}

// SetUniform sets the named uniform if the program uses it. Values are
// int32, float32, bool, mgl32.Vec2/3/4, mgl32.Mat3 or mgl32.Mat4.
// Uniforms that are not active (e.g. removed by the compiler) are skipped.
func (p *Program) SetUniform(name string, value any) error {
	if !p.uniforms[name] {
		return nil
	}
	if err := p.use(); err != nil {
		return err
	}
	return p.ctx.check(p.ctx.device.SetUniform(p.handle, name, value))
}

// SetTexture binds the texture to the given unit, and the named sampler
// uniform to that unit.
func (p *Program) SetTexture(name string, unit int, tex *Texture) error {
	if !p.uniforms[name] {
		return nil
	}
	if tex == nil || tex.handle == 0 {
		return fmt.Errorf("%w: texture for %q", ErrReleased, name)
	}
	if mx := p.ctx.caps.MaxTextureUnits; mx > 0 && unit >= mx {
		return fmt.Errorf("%w: texture unit %d exceeds the %d available", ErrDeviceError, unit, mx)
	}
	if err := p.use(); err != nil {
		return err
	}
	return p.ctx.check(p.ctx.device.BindTexture(p.handle, name, unit, tex.handle, tex.Format.Kind))
}

// SetAttribute sources the named per-vertex attribute from the buffer.
func (p *Program) SetAttribute(name string, buf *Buffer) error {
	return p.setAttribute(name, buf, 0)
}

// SetInstanceAttribute sources the named per-instance attribute from the buffer.
func (p *Program) SetInstanceAttribute(name string, buf *Buffer) error {
	return p.setAttribute(name, buf, 1)
}

func (p *Program) setAttribute(name string, buf *Buffer, divisor int) error {
	if !p.attributes[name] {
		return nil
	}
	if buf == nil || buf.handle == 0 {
		return fmt.Errorf("%w: %q", ErrMissingAttribute, name)
	}
	if buf.Kind != VertexBuffer {
		return fmt.Errorf("%w: attribute %q needs a vertex buffer", ErrDeviceError, name)
	}
	if err := p.use(); err != nil {
		return err
	}
	return p.ctx.check(p.ctx.device.SetAttribute(p.handle, name, buf.handle, buf.Type, divisor))
}

func (p *Program) prepareDraw(states RenderStates, vp Viewport) error {
	if err := p.use(); err != nil {
		return err
	}
	p.ctx.setRenderStates(states)
	p.ctx.setViewport(vp)
	p.ctx.draws++
	return nil
}

// DrawArrays draws count vertices as triangles with the given states,
// into the given viewport of the bound render target.
func (p *Program) DrawArrays(states RenderStates, vp Viewport, count int) error {
	return p.DrawArraysInstanced(states, vp, count, 1)
}

// DrawArraysInstanced draws count vertices for each of the instances.
func (p *Program) DrawArraysInstanced(states RenderStates, vp Viewport, count, instances int) error {
	if err := p.prepareDraw(states, vp); err != nil {
		return err
	}
	return p.ctx.check(p.ctx.device.DrawArrays(count, instances))
}

// DrawElements draws the indexed triangles with the given states,
// into the given viewport of the bound render target.
func (p *Program) DrawElements(states RenderStates, vp Viewport, indices *Buffer) error {
	return p.DrawElementsInstanced(states, vp, indices, 1)
}

// DrawElementsInstanced draws the indexed triangles for each of the instances.
func (p *Program) DrawElementsInstanced(states RenderStates, vp Viewport, indices *Buffer, instances int) error {
	if indices == nil || indices.handle == 0 {
		return fmt.Errorf("%w: index buffer", ErrReleased)
	}
	if indices.Kind != IndexBuffer {
		return fmt.Errorf("%w: buffer %q is not an index buffer", ErrDeviceError, indices.Name)
	}
	if err := p.prepareDraw(states, vp); err != nil {
		return err
	}
	return p.ctx.check(p.ctx.device.DrawElements(indices.handle, indices.Type, indices.count, instances))
}
