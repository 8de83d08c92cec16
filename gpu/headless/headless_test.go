// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package headless

import (
	"image"
	"testing"

	"cogentcore.org/render/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflect(t *testing.T) {
	vs := `
#define USE_NORMALS
in vec3 position;
#ifdef USE_NORMALS
in vec3 normal;
#endif
#ifdef USE_UVS
in vec2 uv_coordinates;
#else
uniform float noUVs;
#endif
#ifndef USE_UVS
layout (location = 4) in vec4 color;
#endif
uniform mat4 viewProjection;
void main() {}
`
	fs := `
uniform vec4 surfaceColor;
uniform mat4 viewProjection;
void main() {}
`
	info := reflect(vs, fs)
	assert.Equal(t, []string{"position", "normal", "color"}, info.Attributes)
	assert.Equal(t, []string{"noUVs", "viewProjection", "surfaceColor"}, info.Uniforms)
}

func TestDevice(t *testing.T) {
	dv := NewDevice()
	b, err := dv.CreateBuffer(gpu.VertexBuffer, gpu.StaticDraw, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.ErrorIs(t, dv.WriteBuffer(b, gpu.VertexBuffer, []byte{1}), gpu.ErrSizeMismatch)
	assert.Equal(t, 4, dv.Memory())

	tf := gpu.NewTextureFormat(2, 2, gpu.RGBA8)
	tx, err := dv.CreateTexture(tf)
	require.NoError(t, err)
	fb, err := dv.CreateFramebuffer([]gpu.Attachment{{Texture: tx, Format: gpu.RGBA8}}, nil)
	require.NoError(t, err)
	dv.BindFramebuffer(fb)
	dv.Clear(gpu.ClearOnlyColor(0, 1, 0, 1))
	pix, err := dv.ReadPixels(image.Rect(1, 1, 2, 2), gpu.RGBA8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 255, 0, 255}, pix)

	_, err = dv.CompileShader(gpu.VertexShader, "in vec3 position;")
	var ce *gpu.CompileError
	assert.ErrorAs(t, err, &ce)

	dv.DeleteFramebuffer(fb)
	dv.DeleteTexture(tx)
	dv.DeleteBuffer(b)
	assert.Equal(t, 0, dv.Live())
	assert.Equal(t, 0, dv.Memory())

	dv.Lose()
	_, err = dv.CreateBuffer(gpu.VertexBuffer, gpu.StaticDraw, []byte{1})
	assert.ErrorIs(t, err, gpu.ErrContextLost)
	assert.ErrorIs(t, dv.Status(), gpu.ErrContextLost)
}
