// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
	"log/slog"
)

// Texture is a GPU texture: 2D, 2D array, cube map or 3D.
type Texture struct {
	// Name is used in log messages.
	Name string

	// Format describes the size and layout of the texture.
	// Use [Texture.Resize] to change the size.
	Format TextureFormat

	ctx    *Context
	handle Handle
}

// NewTexture returns a new texture with the given format, validating it
// against the device capabilities before anything is allocated.
// The content is undefined until uploaded.
func NewTexture(ctx *Context, format *TextureFormat) (*Texture, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	tx := &Texture{Format: *format, ctx: ctx}
	if tx.Format.Layers < 1 {
		tx.Format.Layers = 1
	}
	if tx.Format.Kind == TextureCube {
		tx.Format.Layers = 6
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}
	if err := tx.alloc(); err != nil {
		return nil, err
	}
	ctx.track(tx)
	return tx, nil
}

// NewTexture2D returns a new 2D texture.
func NewTexture2D(ctx *Context, width, height int, format TextureFormats, sampler Sampler) (*Texture, error) {
	tf := NewTextureFormat(width, height, format)
	tf.Sampler = sampler
	return NewTexture(ctx, tf)
}

// NewTexture2DArray returns a new 2D array texture with the given number of layers.
func NewTexture2DArray(ctx *Context, width, height, layers int, format TextureFormats, sampler Sampler) (*Texture, error) {
	tf := NewTextureFormat(width, height, format)
	tf.Kind = Texture2DArray
	tf.Layers = layers
	tf.Sampler = sampler
	return NewTexture(ctx, tf)
}

// NewTextureCube returns a new cube map with square faces of the given size.
// Layers 0-5 are the +X, -X, +Y, -Y, +Z, -Z faces.
func NewTextureCube(ctx *Context, size int, format TextureFormats, sampler Sampler) (*Texture, error) {
	tf := NewTextureFormat(size, size, format)
	tf.Kind = TextureCube
	tf.Sampler = sampler
	return NewTexture(ctx, tf)
}

// NewTexture3D returns a new 3D texture of the given width, height and depth.
func NewTexture3D(ctx *Context, width, height, depth int, format TextureFormats, sampler Sampler) (*Texture, error) {
	tf := NewTextureFormat(width, height, format)
	tf.Kind = Texture3D
	tf.Layers = depth
	tf.Sampler = sampler
	return NewTexture(ctx, tf)
}

// NewTextureFromImage returns a new sRGB 2D texture with the image
// uploaded, converted to RGBA and scaled down to fit the maximum
// texture size as needed.
func NewTextureFromImage(ctx *Context, img image.Image, sampler Sampler) (*Texture, error) {
	rimg := ImageToRGBA(img)
	if mx := ctx.caps.MaxTextureSize; mx > 0 {
		rimg = ImageFitSize(rimg, mx)
	}
	sz := rimg.Rect.Size()
	tx, err := NewTexture2D(ctx, sz.X, sz.Y, SRGBA8, sampler)
	if err != nil {
		return nil, err
	}
	if err := tx.Upload(0, rimg.Pix); err != nil {
		tx.Release()
		return nil, err
	}
	return tx, nil
}

func (tx *Texture) validate() error {
	tf := &tx.Format
	if !tx.ctx.caps.SupportsFormat(tf.Format) {
		return fmt.Errorf("%w: %s for %s", ErrUnsupportedFormat, tf.Format, tf.Kind)
	}
	if tf.Size.X <= 0 || tf.Size.Y <= 0 {
		return fmt.Errorf("%w: invalid texture size %v", ErrAllocationFailed, tf.Size)
	}
	if mx := tx.ctx.caps.MaxTextureSize; mx > 0 && (tf.Size.X > mx || tf.Size.Y > mx) {
		return fmt.Errorf("%w: texture size %v exceeds maximum of %d", ErrAllocationFailed, tf.Size, mx)
	}
	if tf.Kind == TextureCube && tf.Size.X != tf.Size.Y {
		return fmt.Errorf("%w: cube map faces must be square, not %v", ErrAllocationFailed, tf.Size)
	}
	return nil
}

func (tx *Texture) alloc() error {
	h, err := tx.ctx.device.CreateTexture(&tx.Format)
	if err != nil {
		return tx.ctx.check(err)
	}
	tx.handle = h
	if Debug {
		slog.Info("gpu: texture allocated", "name", tx.Name, "format", tx.Format.String())
	}
	return nil
}

// Handle returns the backend handle, 0 once released.
func (tx *Texture) Handle() Handle { return tx.handle }

// Size returns the width and height of the texture.
func (tx *Texture) Size() image.Point { return tx.Format.Size }

// Upload uploads the pixels of one layer: the cube face for cube maps,
// the slice for 3D textures, and 0 for plain 2D textures.
// The data must be exactly [TextureFormat.LayerByteSize] bytes.
func (tx *Texture) Upload(layer int, data []byte) error {
	if tx.handle == 0 {
		return ErrReleased
	}
	if err := tx.ctx.usable(); err != nil {
		return err
	}
	if layer < 0 || layer >= tx.Format.Layers {
		return fmt.Errorf("%w: layer %d out of range for %d layers", ErrSizeMismatch, layer, tx.Format.Layers)
	}
	if len(data) != tx.Format.LayerByteSize() {
		return fmt.Errorf("%w: texture %q layer is %d bytes, upload has %d", ErrSizeMismatch, tx.Name, tx.Format.LayerByteSize(), len(data))
	}
	return tx.ctx.check(tx.ctx.device.WriteTexture(tx.handle, &tx.Format, layer, data))
}

// SetImage uploads the image to the given layer. The image is converted
// to RGBA and must have the size of the texture.
func (tx *Texture) SetImage(layer int, img image.Image) error {
	if f := tx.Format.Format; f != RGBA8 && f != SRGBA8 {
		return fmt.Errorf("%w: cannot set an image on a %s texture", ErrUnsupportedFormat, f)
	}
	rimg := ImageToRGBA(img)
	if sz := rimg.Rect.Size(); sz != tx.Format.Size {
		return fmt.Errorf("%w: image size %v does not match texture size %v", ErrSizeMismatch, sz, tx.Format.Size)
	}
	return tx.Upload(layer, rimg.Pix)
}

// Resize reallocates the texture with the given size. The content is
// discarded. It does nothing if the size is unchanged. On failure the
// texture keeps its previous size and handle.
func (tx *Texture) Resize(width, height int) error {
	if tx.handle == 0 {
		return ErrReleased
	}
	if err := tx.ctx.usable(); err != nil {
		return err
	}
	sz := image.Point{width, height}
	if sz == tx.Format.Size {
		return nil
	}
	h, err := tx.allocSize(sz)
	if err != nil {
		return err
	}
	tx.replace(h, sz)
	return nil
}

// allocSize allocates a new handle with the format of the texture at the
// given size, leaving the texture unchanged.
func (tx *Texture) allocSize(sz image.Point) (Handle, error) {
	nt := Texture{Name: tx.Name, Format: tx.Format, ctx: tx.ctx}
	nt.Format.Size = sz
	if err := nt.validate(); err != nil {
		return 0, err
	}
	if err := nt.alloc(); err != nil {
		return 0, err
	}
	return nt.handle, nil
}

// replace deletes the current handle and uses h, of the given size.
func (tx *Texture) replace(h Handle, sz image.Point) {
	tx.ctx.device.DeleteTexture(tx.handle)
	tx.handle = h
	tx.Format.Size = sz
}

// attachment returns the framebuffer attachment for the given layer.
func (tx *Texture) attachment(layer int) Attachment {
	return Attachment{Texture: tx.handle, Kind: tx.Format.Kind, Format: tx.Format.Format, Layer: layer}
}

// Release releases the texture on the device. It is safe to call more than once.
func (tx *Texture) Release() {
	if tx.handle == 0 {
		return
	}
	tx.ctx.device.DeleteTexture(tx.handle)
	tx.handle = 0
	tx.ctx.untrack(tx)
}
