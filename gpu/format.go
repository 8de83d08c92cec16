// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"image"
)

// TextureFormats are the pixel formats of textures and render attachments.
type TextureFormats int32

const (
	UndefinedFormat TextureFormats = iota

	// R8 is a single 8 bit unsigned normalized channel.
	R8

	// RGBA8 is 8 bits per component of R,G,B,A: the std image format.
	RGBA8

	// SRGBA8 is RGBA8 with sRGB encoded color channels.
	SRGBA8

	R32F
	RGBA16F
	RGBA32F

	Depth16
	Depth24
	Depth32F
	Depth24Stencil8
)

var textureFormatNames = [...]string{"Undefined", "R8", "RGBA8", "SRGBA8", "R32F", "RGBA16F", "RGBA32F", "Depth16", "Depth24", "Depth32F", "Depth24Stencil8"}

func (tf TextureFormats) String() string {
	if tf < 0 || int(tf) >= len(textureFormatNames) {
		return fmt.Sprintf("TextureFormats(%d)", int32(tf))
	}
	return textureFormatNames[tf]
}

// TextureFormatSizes gives the number of bytes per pixel of each format.
var TextureFormatSizes = map[TextureFormats]int{
	R8:              1,
	RGBA8:           4,
	SRGBA8:          4,
	R32F:            4,
	RGBA16F:         8,
	RGBA32F:         16,
	Depth16:         2,
	Depth24:         4,
	Depth32F:        4,
	Depth24Stencil8: 4,
}

// BytesPerPixel returns the number of bytes per pixel.
func (tf TextureFormats) BytesPerPixel() int {
	return TextureFormatSizes[tf]
}

// IsDepth returns true for depth (and depth-stencil) formats.
func (tf TextureFormats) IsDepth() bool {
	return tf >= Depth16
}

// TextureKinds are the kinds of texture: their dimensionality and layering.
type TextureKinds int32

const (
	Texture2D TextureKinds = iota
	Texture2DArray
	TextureCube
	Texture3D
)

var textureKindNames = [...]string{"Texture2D", "Texture2DArray", "TextureCube", "Texture3D"}

func (tk TextureKinds) String() string {
	if tk < 0 || int(tk) >= len(textureKindNames) {
		return fmt.Sprintf("TextureKinds(%d)", int32(tk))
	}
	return textureKindNames[tk]
}

// Interpolation is the texture filtering mode.
type Interpolation int32

const (
	Linear Interpolation = iota
	Nearest
)

// Wrapping is the texture coordinate wrapping mode.
type Wrapping int32

const (
	ClampToEdge Wrapping = iota
	Repeat
	MirroredRepeat
)

// Sampler describes how a texture is sampled.
type Sampler struct {
	MinFilter Interpolation
	MagFilter Interpolation

	// Mipmap generates mipmaps on upload and samples them for minification.
	Mipmap bool

	WrapS Wrapping
	WrapT Wrapping
	WrapR Wrapping
}

// TextureFormat describes the size and layout of a texture.
type TextureFormat struct {
	Kind TextureKinds

	// Size of the image in pixels.
	Size image.Point

	// Format of the pixels.
	Format TextureFormats

	// Layers is the depth of a 3D texture, the number of layers of an
	// array texture, and 6 for a cube map. 1 for a plain 2D texture.
	Layers int

	Sampler Sampler
}

// NewTextureFormat returns a new TextureFormat for a 2D texture
// of the given size and format.
func NewTextureFormat(width, height int, format TextureFormats) *TextureFormat {
	im := &TextureFormat{}
	im.Defaults()
	im.Size = image.Point{width, height}
	im.Format = format
	return im
}

// Defaults sets a single layer RGBA8 2D texture.
func (im *TextureFormat) Defaults() {
	im.Kind = Texture2D
	im.Format = RGBA8
	im.Layers = 1
}

func (im *TextureFormat) String() string {
	return fmt.Sprintf("%s Size: %v  Format: %s  Layers: %d", im.Kind, im.Size, im.Format, im.Layers)
}

// Bounds returns the rectangle defining this image: 0,0,w,h
func (im *TextureFormat) Bounds() image.Rectangle {
	return image.Rectangle{Max: im.Size}
}

// BytesPerPixel returns number of bytes required to represent
// one Pixel (in Host memory at least).
func (im *TextureFormat) BytesPerPixel() int {
	return im.Format.BytesPerPixel()
}

// LayerByteSize returns number of bytes required to represent one layer of
// image in Host memory.
func (im *TextureFormat) LayerByteSize() int {
	return im.BytesPerPixel() * im.Size.X * im.Size.Y
}

// TotalByteSize returns total number of bytes required to represent all layers of
// images in Host memory.
func (im *TextureFormat) TotalByteSize() int {
	return im.LayerByteSize() * max(im.Layers, 1)
}

// Stride returns number of bytes per image row.
func (im *TextureFormat) Stride() int {
	return im.BytesPerPixel() * im.Size.X
}
