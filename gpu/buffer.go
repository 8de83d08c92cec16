// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// BufferKinds are the kinds of GPU buffer.
type BufferKinds int32

const (
	// VertexBuffer holds per-vertex or per-instance attribute data.
	VertexBuffer BufferKinds = iota

	// IndexBuffer holds Uint8, Uint16 or Uint32 vertex indices.
	IndexBuffer
)

// BufferUsages are hints for how often a buffer is updated.
type BufferUsages int32

const (
	StaticDraw BufferUsages = iota
	DynamicDraw
	StreamDraw
)

// BufferData are the element types that can be uploaded to buffers.
type BufferData interface {
	~uint8 | ~uint16 | ~uint32 | ~int32 | ~float32 |
		mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4 | mgl32.Mat3 | mgl32.Mat4
}

// Bytes returns the memory of the slice as bytes, without copying.
func Bytes[T BufferData](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*int(unsafe.Sizeof(data[0])))
}

// Buffer is a GPU buffer of Count elements of one Type.
// The declared layout is fixed: [Buffer.Update] must provide exactly
// that many bytes. Use [Buffer.Reallocate] to change the size.
type Buffer struct {
	// Name is used in log messages.
	Name string

	Kind  BufferKinds
	Type  Types
	Usage BufferUsages

	count  int
	ctx    *Context
	handle Handle
}

// NewBuffer returns a new buffer of the given kind, holding data
// with elements of the given type.
func NewBuffer(ctx *Context, kind BufferKinds, typ Types, usage BufferUsages, data []byte) (*Buffer, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	b := &Buffer{Kind: kind, Type: typ, Usage: usage, ctx: ctx}
	if err := b.validate(data); err != nil {
		return nil, err
	}
	if err := b.alloc(data); err != nil {
		return nil, err
	}
	ctx.track(b)
	return b, nil
}

// NewBufferFrom returns a new buffer holding the given slice.
func NewBufferFrom[T BufferData](ctx *Context, kind BufferKinds, typ Types, usage BufferUsages, data []T) (*Buffer, error) {
	return NewBuffer(ctx, kind, typ, usage, Bytes(data))
}

// UpdateBufferFrom replaces the contents of the buffer with the slice,
// which must have the same size in bytes.
func UpdateBufferFrom[T BufferData](b *Buffer, data []T) error {
	return b.Update(Bytes(data))
}

func (b *Buffer) validate(data []byte) error {
	esz := b.Type.Bytes()
	if esz == 0 {
		return fmt.Errorf("%w: buffer element type %d is not defined", ErrAllocationFailed, b.Type)
	}
	if b.Kind == IndexBuffer && !b.Type.IsIndex() {
		return fmt.Errorf("%w: index buffer type must be Uint8, Uint16 or Uint32", ErrUnsupportedFormat)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrAllocationFailed)
	}
	if len(data)%esz != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of the %d byte element size", ErrSizeMismatch, len(data), esz)
	}
	return nil
}

func (b *Buffer) alloc(data []byte) error {
	h, err := b.ctx.device.CreateBuffer(b.Kind, b.Usage, data)
	if err != nil {
		return b.ctx.check(err)
	}
	b.handle = h
	b.count = len(data) / b.Type.Bytes()
	if Debug {
		slog.Info("gpu: buffer allocated", "name", b.Name, "count", b.count, "bytes", len(data))
	}
	return nil
}

// Count returns the number of elements in the buffer.
func (b *Buffer) Count() int { return b.count }

// Size returns the size of the buffer in bytes.
func (b *Buffer) Size() int { return b.count * b.Type.Bytes() }

// Handle returns the backend handle, 0 once released.
func (b *Buffer) Handle() Handle { return b.handle }

// Update replaces the full contents of the buffer. The data must be exactly
// [Buffer.Size] bytes, else [ErrSizeMismatch] is returned and the buffer is
// unchanged. A nil or released buffer gives [ErrReleased].
func (b *Buffer) Update(data []byte) error {
	if b == nil || b.handle == 0 {
		return ErrReleased
	}
	if err := b.ctx.usable(); err != nil {
		return err
	}
	if len(data) != b.Size() {
		return fmt.Errorf("%w: buffer %q is %d bytes, update has %d", ErrSizeMismatch, b.Name, b.Size(), len(data))
	}
	return b.ctx.check(b.ctx.device.WriteBuffer(b.handle, b.Kind, data))
}

// Reallocate replaces the buffer storage with the given data,
// which may have a different number of elements. The handle may change.
func (b *Buffer) Reallocate(data []byte) error {
	if b == nil || b.handle == 0 {
		return ErrReleased
	}
	if err := b.ctx.usable(); err != nil {
		return err
	}
	if err := b.validate(data); err != nil {
		return err
	}
	if len(data) == b.Size() {
		return b.ctx.check(b.ctx.device.WriteBuffer(b.handle, b.Kind, data))
	}
	old := b.handle
	if err := b.alloc(data); err != nil {
		return err
	}
	b.ctx.device.DeleteBuffer(old)
	return nil
}

// Release releases the buffer on the device. It is safe to call more than once.
func (b *Buffer) Release() {
	if b.handle == 0 {
		return
	}
	b.ctx.device.DeleteBuffer(b.handle)
	b.handle = 0
	b.count = 0
	b.ctx.untrack(b)
}
