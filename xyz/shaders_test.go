// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"image/color"
	"strings"
	"testing"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderSourceDeterministic(t *testing.T) {
	lights := func() []*Light {
		return []*Light{NewAmbientLight("a", .2, DirectSun), NewDirLight("d", 1, DirectSun), NewSpotLight("s", 1, Halogen)}
	}
	mats := []func() Material{
		func() Material { return NewColorMaterial(color.RGBA{255, 0, 0, 255}) },
		func() Material { return NewPhongMaterial(color.RGBA{255, 0, 0, 255}) },
		func() Material { return NewPhysicalMaterial(color.RGBA{255, 0, 0, 255}, .5) },
	}
	for _, mf := range mats {
		a := mf().FragmentShaderSource(lights(), true)
		b := mf().FragmentShaderSource(lights(), true)
		assert.Equal(t, a, b)
		assert.Equal(t, vertexShaderSource(a, false), vertexShaderSource(b, false))
	}
}

func TestShaderLightOrder(t *testing.T) {
	dir := NewDirLight("d", 1, DirectSun)
	point := NewPointLight("p", 1, Candle)
	mat := NewPhongMaterial(color.RGBA{255, 0, 0, 255})

	fs := mat.FragmentShaderSource([]*Light{dir, point}, false)
	assert.Contains(t, fs, "uniform vec3 lightDirection0;")
	assert.Contains(t, fs, "uniform vec3 lightPosition1;")
	assert.NotContains(t, fs, "lightPosition0")
	assert.Less(t, strings.Index(fs, "calculateLight0("), strings.Index(fs, "calculateLight1("))
	assert.Equal(t, 1, strings.Count(fs, "vec3 calculateLighting("))
	assert.Contains(t, fs, "color += calculateLight1(")

	fs = mat.FragmentShaderSource([]*Light{point, dir}, false)
	assert.Contains(t, fs, "uniform vec3 lightPosition0;")
	assert.Contains(t, fs, "uniform vec3 lightDirection1;")
}

func TestShaderNoLights(t *testing.T) {
	for _, mat := range []Material{NewPhongMaterial(color.RGBA{255, 0, 0, 255}), NewPhysicalMaterial(color.RGBA{255, 0, 0, 255}, .5)} {
		fs := mat.FragmentShaderSource(nil, false)
		assert.NotContains(t, fs, "calculateLighting")
		assert.NotContains(t, fs, "in vec3 nor;")
		assert.Contains(t, fs, "srgbFromLinear(c.rgb + emissive)")
	}
}

func TestShaderShadowSource(t *testing.T) {
	ctx, _ := newTestContext(t)
	sun := NewDirLight("sun", 1, DirectSun)
	require.NoError(t, sun.EnableShadows(ctx, 64))
	fs := NewPhongMaterial(color.RGBA{255, 0, 0, 255}).FragmentShaderSource([]*Light{NewAmbientLight("a", .1, DirectSun), sun}, false)
	assert.Equal(t, 1, strings.Count(fs, "float shadowFactor("))
	assert.Contains(t, fs, "uniform sampler2D shadowMap1;")
	assert.Contains(t, fs, "shadowFactor(shadowMap1, shadowMatrix1, worldPos)")
	assert.NotContains(t, fs, "shadowMap0")
}

func TestVertexShaderSource(t *testing.T) {
	vs := vertexShaderSource("in vec3 pos;\nin vec3 nor;\nout vec4 outColor;\n", false)
	assert.True(t, strings.HasPrefix(vs, "#define USE_POSITIONS\n#define USE_NORMALS\n\n"))
	assert.NotContains(t, vs, "#define USE_UVS")
	assert.NotContains(t, vs, "#define USE_INSTANCING")

	vs = vertexShaderSource("in vec2 uvs;\nin vec4 col;\n", true)
	assert.Contains(t, vs, "#define USE_UVS\n")
	assert.Contains(t, vs, "#define USE_COLORS\n")
	assert.Contains(t, vs, "#define USE_INSTANCING\n")
	assert.NotContains(t, vs, "#define USE_NORMALS")
}

func TestLightUniforms(t *testing.T) {
	sc := newScene(t)
	point := NewPointLight("bulb", .5, DirectSun)
	spot := NewSpotLight("spot", 1, DirectSun)
	spot.CutoffAngle = 60
	ob := NewObject("box", sc.box, NewPhysicalMaterial(color.RGBA{128, 128, 128, 255}, .3))
	report, err := sc.rend.Render(sc.cam, []*Light{point, spot}, []Renderable{ob}, sc.target)
	require.NoError(t, err)
	require.Empty(t, report.Failed)

	ds := sc.mainDraws()
	require.Len(t, ds, 1)
	u := ds[0].Uniforms
	assert.Equal(t, mgl32.Vec3{0, 5, 5}, u["lightPosition0"])
	assert.Equal(t, mgl32.Vec3{1, .1, .01}, u["lightAttenuation0"])
	assert.Equal(t, point.Radiance(), u["lightColor0"])
	assertVec3(t, mgl32.Vec3{.5, .5, .5}, point.Radiance())
	spotParams := u["lightSpot1"].(mgl32.Vec2)
	assert.InDelta(t, .5, spotParams[0], 1e-5)
	assert.Equal(t, float32(15), spotParams[1])
	assert.Equal(t, spot.Direction(), u["lightDirection1"])
	assert.Equal(t, sc.cam.Position(), u["cameraPosition"])
}

func TestLightShadows(t *testing.T) {
	ctx, dev := newTestContext(t)
	assert.Error(t, NewPointLight("p", 1, Candle).EnableShadows(ctx, 64))
	assert.Error(t, NewAmbientLight("a", 1, Candle).EnableShadows(ctx, 64))

	live := dev.Live()
	spot := NewSpotLight("s", 1, Halogen)
	require.NoError(t, spot.EnableShadows(ctx, 64))
	assert.True(t, spot.CastsShadows())
	assert.Equal(t, 64, spot.ShadowMap().Size())
	require.NoError(t, spot.EnableShadows(ctx, 64))
	assert.ErrorIs(t, spot.EnableShadows(ctx, 128), gpu.ErrSizeMismatch)

	spot.DisableShadows()
	assert.False(t, spot.CastsShadows())
	assert.Equal(t, live, dev.Live())
}

func TestLightDirection(t *testing.T) {
	lt := NewDirLight("d", 1, DirectSun)
	lt.Pos = mgl32.Vec3{0, 10, 0}
	assertVec3(t, mgl32.Vec3{0, -1, 0}, lt.Direction())
	lt.LookAt(mgl32.Vec3{10, 10, 0})
	assertVec3(t, mgl32.Vec3{1, 0, 0}, lt.Direction())
	lt.Pos = lt.Target
	assertVec3(t, mgl32.Vec3{0, -1, 0}, lt.Direction())
	assert.Equal(t, "Directional", lt.Kind.String())
}
