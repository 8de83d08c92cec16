// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
)

// ImageToRGBA returns the image as an *image.RGBA with origin (0,0),
// converting it if necessary.
func ImageToRGBA(img image.Image) *image.RGBA {
	if rimg, ok := img.(*image.RGBA); ok && rimg.Rect.Min == (image.Point{}) {
		return rimg
	}
	bounds := img.Bounds()
	rimg := image.NewRGBA(image.Rectangle{Max: bounds.Size()})
	draw.Draw(rimg, rimg.Rect, img, bounds.Min, draw.Src)
	return rimg
}

// ImageFitSize returns the image scaled down, preserving aspect ratio,
// so that neither dimension exceeds maxSize. Images that already fit
// are returned unchanged.
func ImageFitSize(img *image.RGBA, maxSize int) *image.RGBA {
	sz := img.Rect.Size()
	if sz.X <= maxSize && sz.Y <= maxSize {
		return img
	}
	scale := float32(maxSize) / float32(max(sz.X, sz.Y))
	nsz := image.Point{max(int(float32(sz.X)*scale), 1), max(int(float32(sz.Y)*scale), 1)}
	out := image.NewRGBA(image.Rectangle{Max: nsz})
	draw.BiLinear.Scale(out, out.Rect, img, img.Rect, draw.Src, nil)
	return out
}

// SRGBToLinearComp converts an sRGB rgb component to linear space (removes gamma).
func SRGBToLinearComp(srgb float32) float32 {
	if srgb <= 0.04045 {
		return srgb / 12.92
	}
	return math32.Pow((srgb+0.055)/1.055, 2.4)
}

// SRGBFromLinearComp converts an sRGB rgb linear component
// to non-linear (gamma corrected) sRGB value.
func SRGBFromLinearComp(lin float32) float32 {
	if lin <= 0.0031308 {
		return 12.92 * lin
	}
	return (1.055*math32.Pow(lin, 1/2.4) + 0.055)
}

// LinearColor returns the color as linear R,G,B,A components in 0-1,
// removing the sRGB gamma from the color channels.
// Alpha is un-premultiplied.
func LinearColor(c color.Color) [4]float32 {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [4]float32{
		SRGBToLinearComp(float32(nc.R) / 255),
		SRGBToLinearComp(float32(nc.G) / 255),
		SRGBToLinearComp(float32(nc.B) / 255),
		float32(nc.A) / 255,
	}
}
