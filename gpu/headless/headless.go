// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package headless provides a [gpu.Device] that needs no display or driver.
// It keeps every resource in memory, reflects shader sources for their
// attributes and uniforms, and records every draw call with the state it
// was made in, so that rendering can be checked in tests and run by tools
// on machines without a GPU. It can also simulate compile failures,
// allocation failures and loss of the device.
package headless

import (
	"fmt"
	"image"
	"maps"
	"slices"
	"strings"

	"cogentcore.org/render/gpu"
)

// Draw is a recorded draw call.
type Draw struct {
	Program     gpu.Handle
	Framebuffer gpu.Handle
	States      gpu.RenderStates
	Viewport    gpu.Viewport

	// Uniforms are the values of the program uniforms at the time of the draw.
	Uniforms map[string]any

	// Textures are the textures bound to each sampler uniform.
	Textures map[string]gpu.Handle

	// Attributes are the buffers bound to each vertex attribute.
	Attributes map[string]gpu.Handle

	Count     int
	Instances int
	Indexed   bool

	VertexSource   string
	FragmentSource string
}

type texture struct {
	format gpu.TextureFormat
	layers [][]byte
}

type framebuffer struct {
	color []gpu.Attachment
	depth *gpu.Attachment
}

type shader struct {
	stage gpu.ShaderStages
	src   string
}

type program struct {
	vs, fs     shader
	info       gpu.ProgramInfo
	uniforms   map[string]any
	textures   map[string]gpu.Handle
	attributes map[string]gpu.Handle
}

// Device is a recording [gpu.Device]. Set the exported fields
// before creating the [gpu.Context].
type Device struct {
	// Caps are the capabilities reported; [NewDevice] sets defaults.
	Caps gpu.Capabilities

	// FailCompile is called for each shader compile. A non-empty return
	// value fails the compile with that log. If nil, sources containing
	// an #error directive fail.
	FailCompile func(stage gpu.ShaderStages, src string) string

	// MemoryLimit is the total bytes of buffers and textures that can be
	// allocated before [gpu.ErrAllocationFailed]. 0 is unlimited.
	MemoryLimit int

	// LoseAfterDraws loses the device after this many draw calls. 0 is never.
	LoseAfterDraws int

	// FencePolls is the number of polls before a fence is signaled.
	FencePolls int

	// Draws are all the draw calls made, in order.
	Draws []Draw

	// Calls is the sequence of commands, by name, e.g. "BindFramebuffer 3".
	Calls []string

	next         gpu.Handle
	memory       int
	buffers      map[gpu.Handle][]byte
	textures     map[gpu.Handle]*texture
	framebuffers map[gpu.Handle]*framebuffer
	shaders      map[gpu.Handle]shader
	programs     map[gpu.Handle]*program
	fences       map[gpu.Handle]int
	units        map[int]gpu.Handle

	framebuffer gpu.Handle
	program     gpu.Handle
	states      gpu.RenderStates
	viewport    gpu.Viewport

	// Screen is the default framebuffer color, RGBA8 of ScreenSize.
	Screen     []byte
	ScreenSize image.Point

	lost     bool
	released bool
}

// NewDevice returns a new device with capabilities typical of a GL 3.3
// core implementation, and every format supported.
func NewDevice() *Device {
	return &Device{
		Caps: gpu.Capabilities{
			Name:                "headless",
			MaxTextureSize:      8192,
			MaxTextureUnits:     16,
			MaxColorAttachments: 8,
			Formats: []gpu.TextureFormats{gpu.R8, gpu.RGBA8, gpu.SRGBA8, gpu.R32F, gpu.RGBA16F, gpu.RGBA32F,
				gpu.Depth16, gpu.Depth24, gpu.Depth32F, gpu.Depth24Stencil8},
			ShaderHeader: "#version 330 core\n",
			Instancing:   true,
		},
		buffers:      map[gpu.Handle][]byte{},
		textures:     map[gpu.Handle]*texture{},
		framebuffers: map[gpu.Handle]*framebuffer{},
		shaders:      map[gpu.Handle]shader{},
		programs:     map[gpu.Handle]*program{},
		fences:       map[gpu.Handle]int{},
		units:        map[int]gpu.Handle{},
	}
}

// Lose simulates the loss of the device: every subsequent call fails
// with [gpu.ErrContextLost].
func (dv *Device) Lose() { dv.lost = true }

// Live returns the number of objects alive on the device.
func (dv *Device) Live() int {
	return len(dv.buffers) + len(dv.textures) + len(dv.framebuffers) + len(dv.shaders) + len(dv.programs) + len(dv.fences)
}

// Memory returns the bytes of buffers and textures allocated.
func (dv *Device) Memory() int { return dv.memory }

// Compiles returns the number of programs linked so far.
func (dv *Device) Compiles() int {
	n := 0
	for _, c := range dv.Calls {
		if strings.HasPrefix(c, "LinkProgram") {
			n++
		}
	}
	return n
}

// BufferData returns the contents of the buffer.
func (dv *Device) BufferData(buf gpu.Handle) []byte { return dv.buffers[buf] }

// TextureData returns the contents of one layer of the texture.
func (dv *Device) TextureData(tex gpu.Handle, layer int) []byte {
	tx := dv.textures[tex]
	if tx == nil || layer >= len(tx.layers) {
		return nil
	}
	return tx.layers[layer]
}

// ProgramSources returns the vertex and fragment sources the program was linked from.
func (dv *Device) ProgramSources(prog gpu.Handle) (vertex, fragment string) {
	p := dv.programs[prog]
	if p == nil {
		return "", ""
	}
	return p.vs.src, p.fs.src
}

// Framebuffer returns the attachments of the framebuffer, and false if
// there is no such framebuffer.
func (dv *Device) Framebuffer(fb gpu.Handle) (color []gpu.Attachment, depth *gpu.Attachment, ok bool) {
	f := dv.framebuffers[fb]
	if f == nil {
		return nil, nil, false
	}
	return f.color, f.depth, true
}

// Reset clears the recorded draws and calls.
func (dv *Device) Reset() {
	dv.Draws = nil
	dv.Calls = nil
}

func (dv *Device) record(format string, args ...any) {
	dv.Calls = append(dv.Calls, fmt.Sprintf(format, args...))
}

func (dv *Device) newHandle() gpu.Handle {
	dv.next++
	return dv.next
}

func (dv *Device) failed() error {
	if dv.lost {
		return gpu.ErrContextLost
	}
	if dv.released {
		return fmt.Errorf("%w: device released", gpu.ErrDeviceError)
	}
	return nil
}

func (dv *Device) allocate(n int) error {
	if dv.MemoryLimit > 0 && dv.memory+n > dv.MemoryLimit {
		return fmt.Errorf("%w: %d bytes over the %d byte limit", gpu.ErrAllocationFailed, dv.memory+n, dv.MemoryLimit)
	}
	dv.memory += n
	return nil
}

func (dv *Device) Capabilities() gpu.Capabilities { return dv.Caps }

func (dv *Device) Status() error { return dv.failed() }

func (dv *Device) CreateBuffer(kind gpu.BufferKinds, usage gpu.BufferUsages, data []byte) (gpu.Handle, error) {
	if err := dv.failed(); err != nil {
		return 0, err
	}
	if err := dv.allocate(len(data)); err != nil {
		return 0, err
	}
	h := dv.newHandle()
	dv.buffers[h] = slices.Clone(data)
	dv.record("CreateBuffer %d", h)
	return h, nil
}

func (dv *Device) WriteBuffer(buf gpu.Handle, kind gpu.BufferKinds, data []byte) error {
	if err := dv.failed(); err != nil {
		return err
	}
	b, ok := dv.buffers[buf]
	if !ok {
		return fmt.Errorf("%w: no buffer %d", gpu.ErrDeviceError, buf)
	}
	if len(b) != len(data) {
		return fmt.Errorf("%w: buffer %d is %d bytes, not %d", gpu.ErrSizeMismatch, buf, len(b), len(data))
	}
	copy(b, data)
	dv.record("WriteBuffer %d", buf)
	return nil
}

func (dv *Device) DeleteBuffer(buf gpu.Handle) {
	if b, ok := dv.buffers[buf]; ok {
		dv.memory -= len(b)
		delete(dv.buffers, buf)
		dv.record("DeleteBuffer %d", buf)
	}
}

func (dv *Device) CreateTexture(format *gpu.TextureFormat) (gpu.Handle, error) {
	if err := dv.failed(); err != nil {
		return 0, err
	}
	if !dv.Caps.SupportsFormat(format.Format) {
		return 0, fmt.Errorf("%w: %s", gpu.ErrUnsupportedFormat, format.Format)
	}
	if err := dv.allocate(format.TotalByteSize()); err != nil {
		return 0, err
	}
	tx := &texture{format: *format}
	tx.layers = make([][]byte, max(format.Layers, 1))
	for i := range tx.layers {
		tx.layers[i] = make([]byte, format.LayerByteSize())
	}
	h := dv.newHandle()
	dv.textures[h] = tx
	dv.record("CreateTexture %d", h)
	return h, nil
}

func (dv *Device) WriteTexture(tex gpu.Handle, format *gpu.TextureFormat, layer int, data []byte) error {
	if err := dv.failed(); err != nil {
		return err
	}
	tx, ok := dv.textures[tex]
	if !ok {
		return fmt.Errorf("%w: no texture %d", gpu.ErrDeviceError, tex)
	}
	if layer >= len(tx.layers) || len(data) != len(tx.layers[layer]) {
		return fmt.Errorf("%w: texture %d layer %d", gpu.ErrSizeMismatch, tex, layer)
	}
	copy(tx.layers[layer], data)
	dv.record("WriteTexture %d %d", tex, layer)
	return nil
}

func (dv *Device) DeleteTexture(tex gpu.Handle) {
	if tx, ok := dv.textures[tex]; ok {
		dv.memory -= tx.format.TotalByteSize()
		delete(dv.textures, tex)
		dv.record("DeleteTexture %d", tex)
	}
}

func (dv *Device) CreateFramebuffer(color []gpu.Attachment, depth *gpu.Attachment) (gpu.Handle, error) {
	if err := dv.failed(); err != nil {
		return 0, err
	}
	if len(color) > dv.Caps.MaxColorAttachments {
		return 0, fmt.Errorf("%w: %d color attachments", gpu.ErrAllocationFailed, len(color))
	}
	atts := slices.Clone(color)
	if depth != nil {
		atts = append(atts, *depth)
	}
	for _, a := range atts {
		if _, ok := dv.textures[a.Texture]; !ok {
			return 0, fmt.Errorf("%w: framebuffer attachment %d is not a texture", gpu.ErrDeviceError, a.Texture)
		}
	}
	fb := &framebuffer{color: slices.Clone(color)}
	if depth != nil {
		d := *depth
		fb.depth = &d
	}
	h := dv.newHandle()
	dv.framebuffers[h] = fb
	dv.record("CreateFramebuffer %d", h)
	return h, nil
}

func (dv *Device) DeleteFramebuffer(fb gpu.Handle) {
	if _, ok := dv.framebuffers[fb]; ok {
		delete(dv.framebuffers, fb)
		dv.record("DeleteFramebuffer %d", fb)
	}
}

func (dv *Device) BindFramebuffer(fb gpu.Handle) {
	dv.framebuffer = fb
	dv.record("BindFramebuffer %d", fb)
}

// colorTarget returns the RGBA8 pixels and size the bound framebuffer draws color into.
func (dv *Device) colorTarget() ([]byte, image.Point) {
	if dv.framebuffer == 0 {
		if dv.ScreenSize != dv.viewport.Size() && dv.viewport.Width > 0 {
			dv.ScreenSize = dv.viewport.Size()
			dv.Screen = make([]byte, 4*dv.ScreenSize.X*dv.ScreenSize.Y)
		}
		return dv.Screen, dv.ScreenSize
	}
	fb := dv.framebuffers[dv.framebuffer]
	if fb == nil || len(fb.color) == 0 {
		return nil, image.Point{}
	}
	a := fb.color[0]
	tx := dv.textures[a.Texture]
	if tx == nil || tx.format.BytesPerPixel() != 4 || a.Layer >= len(tx.layers) {
		return nil, image.Point{}
	}
	return tx.layers[a.Layer], tx.format.Size
}

// colorTargets returns the RGBA8 pixels of every color attachment of the
// bound framebuffer.
func (dv *Device) colorTargets() [][]byte {
	if dv.framebuffer == 0 {
		pix, _ := dv.colorTarget()
		return [][]byte{pix}
	}
	fb := dv.framebuffers[dv.framebuffer]
	if fb == nil {
		return nil
	}
	var all [][]byte
	for _, a := range fb.color {
		tx := dv.textures[a.Texture]
		if tx != nil && tx.format.BytesPerPixel() == 4 && a.Layer < len(tx.layers) {
			all = append(all, tx.layers[a.Layer])
		}
	}
	return all
}

func (dv *Device) ReadPixels(rect image.Rectangle, format gpu.TextureFormats) ([]byte, error) {
	if err := dv.failed(); err != nil {
		return nil, err
	}
	pix, sz := dv.colorTarget()
	out := make([]byte, 4*rect.Dx()*rect.Dy())
	if pix == nil {
		return out, nil
	}
	rect = rect.Intersect(image.Rectangle{Max: sz})
	w := rect.Dx()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		si := 4 * (y*sz.X + rect.Min.X)
		di := 4 * ((y - rect.Min.Y) * w)
		copy(out[di:di+4*w], pix[si:si+4*w])
	}
	return out, nil
}

func (dv *Device) CompileShader(stage gpu.ShaderStages, src string) (gpu.Handle, error) {
	if err := dv.failed(); err != nil {
		return 0, err
	}
	if msg := dv.compileError(stage, src); msg != "" {
		dv.record("CompileShader failed")
		return 0, &gpu.CompileError{Stage: stage, Log: msg}
	}
	h := dv.newHandle()
	dv.shaders[h] = shader{stage, src}
	dv.record("CompileShader %d", h)
	return h, nil
}

func (dv *Device) compileError(stage gpu.ShaderStages, src string) string {
	if dv.FailCompile != nil {
		return dv.FailCompile(stage, src)
	}
	for _, ln := range preprocess(src) {
		if rest, ok := strings.CutPrefix(ln, "#error"); ok {
			return "0:0: '#error' :" + rest
		}
	}
	if !strings.Contains(src, "void main(") {
		return "0:0: missing main function"
	}
	return ""
}

func (dv *Device) DeleteShader(sh gpu.Handle) {
	delete(dv.shaders, sh)
}

func (dv *Device) LinkProgram(vs, fs gpu.Handle) (gpu.Handle, *gpu.ProgramInfo, error) {
	if err := dv.failed(); err != nil {
		return 0, nil, err
	}
	v, vok := dv.shaders[vs]
	f, fok := dv.shaders[fs]
	if !vok || !fok || v.stage != gpu.VertexShader || f.stage != gpu.FragmentShader {
		return 0, nil, &gpu.CompileError{Stage: gpu.LinkStage, Log: "invalid shader objects"}
	}
	p := &program{vs: v, fs: f, uniforms: map[string]any{}, textures: map[string]gpu.Handle{}, attributes: map[string]gpu.Handle{}}
	p.info = reflect(v.src, f.src)
	h := dv.newHandle()
	dv.programs[h] = p
	dv.record("LinkProgram %d", h)
	info := p.info
	return h, &info, nil
}

func (dv *Device) DeleteProgram(prog gpu.Handle) {
	if _, ok := dv.programs[prog]; ok {
		delete(dv.programs, prog)
		dv.record("DeleteProgram %d", prog)
	}
	if dv.program == prog {
		dv.program = 0
	}
}

func (dv *Device) UseProgram(prog gpu.Handle) {
	dv.program = prog
	dv.record("UseProgram %d", prog)
}

func (dv *Device) current(prog gpu.Handle) (*program, error) {
	if err := dv.failed(); err != nil {
		return nil, err
	}
	p := dv.programs[prog]
	if p == nil {
		return nil, fmt.Errorf("%w: no program %d", gpu.ErrDeviceError, prog)
	}
	if dv.program != prog {
		return nil, fmt.Errorf("%w: program %d is not in use", gpu.ErrDeviceError, prog)
	}
	return p, nil
}

func (dv *Device) SetUniform(prog gpu.Handle, name string, value any) error {
	p, err := dv.current(prog)
	if err != nil {
		return err
	}
	if !slices.Contains(p.info.Uniforms, name) {
		return fmt.Errorf("%w: no uniform %q", gpu.ErrDeviceError, name)
	}
	p.uniforms[name] = value
	dv.record("SetUniform %d %s", prog, name)
	return nil
}

func (dv *Device) BindTexture(prog gpu.Handle, name string, unit int, tex gpu.Handle, kind gpu.TextureKinds) error {
	p, err := dv.current(prog)
	if err != nil {
		return err
	}
	if _, ok := dv.textures[tex]; !ok {
		return fmt.Errorf("%w: no texture %d", gpu.ErrDeviceError, tex)
	}
	dv.units[unit] = tex
	p.uniforms[name] = int32(unit)
	p.textures[name] = tex
	return nil
}

func (dv *Device) SetAttribute(prog gpu.Handle, name string, buf gpu.Handle, typ gpu.Types, divisor int) error {
	p, err := dv.current(prog)
	if err != nil {
		return err
	}
	if _, ok := dv.buffers[buf]; !ok {
		return fmt.Errorf("%w: no buffer %d", gpu.ErrDeviceError, buf)
	}
	p.attributes[name] = buf
	return nil
}

func (dv *Device) SetRenderStates(rs gpu.RenderStates) {
	dv.states = rs
	dv.record("SetRenderStates")
}

func (dv *Device) SetViewport(vp gpu.Viewport) {
	dv.viewport = vp
	dv.record("SetViewport %s", vp)
}

func (dv *Device) Clear(cs gpu.ClearState) {
	dv.record("Clear")
	if !cs.ClearColor {
		return
	}
	var c [4]byte
	for i, v := range cs.Color {
		c[i] = byte(min(max(v, 0), 1)*255 + 0.5)
	}
	for _, pix := range dv.colorTargets() {
		for i := 0; i+4 <= len(pix); i += 4 {
			copy(pix[i:i+4], c[:])
		}
	}
}

func (dv *Device) draw(count, instances int, indexed bool) error {
	p, err := dv.current(dv.program)
	if err != nil {
		return err
	}
	for _, a := range p.info.Attributes {
		if _, ok := p.attributes[a]; !ok && !strings.HasPrefix(a, "gl_") {
			return fmt.Errorf("%w: attribute %q has no buffer", gpu.ErrMissingAttribute, a)
		}
	}
	dv.Draws = append(dv.Draws, Draw{
		Program:        dv.program,
		Framebuffer:    dv.framebuffer,
		States:         dv.states,
		Viewport:       dv.viewport,
		Uniforms:       maps.Clone(p.uniforms),
		Textures:       maps.Clone(p.textures),
		Attributes:     maps.Clone(p.attributes),
		Count:          count,
		Instances:      instances,
		Indexed:        indexed,
		VertexSource:   p.vs.src,
		FragmentSource: p.fs.src,
	})
	dv.record("Draw %d", dv.program)
	if dv.LoseAfterDraws > 0 && len(dv.Draws) >= dv.LoseAfterDraws {
		dv.lost = true
	}
	return nil
}

func (dv *Device) DrawArrays(count, instances int) error {
	return dv.draw(count, instances, false)
}

func (dv *Device) DrawElements(indices gpu.Handle, typ gpu.Types, count, instances int) error {
	if _, ok := dv.buffers[indices]; !ok {
		return fmt.Errorf("%w: no index buffer %d", gpu.ErrDeviceError, indices)
	}
	return dv.draw(count, instances, true)
}

func (dv *Device) InsertFence() (gpu.Handle, error) {
	if err := dv.failed(); err != nil {
		return 0, err
	}
	h := dv.newHandle()
	dv.fences[h] = dv.FencePolls
	return h, nil
}

func (dv *Device) FenceSignaled(f gpu.Handle) (bool, error) {
	if err := dv.failed(); err != nil {
		return false, err
	}
	n, ok := dv.fences[f]
	if !ok {
		return false, fmt.Errorf("%w: no fence %d", gpu.ErrDeviceError, f)
	}
	if n > 0 {
		dv.fences[f] = n - 1
		return false, nil
	}
	return true, nil
}

func (dv *Device) DeleteFence(f gpu.Handle) {
	delete(dv.fences, f)
}

func (dv *Device) Release() {
	dv.released = true
}
