// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"image"
	"image/color"
	"testing"

	"cogentcore.org/render/gpu"
	"cogentcore.org/render/gpu/headless"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lightPassDraw returns the full-screen draw into the scene target.
func (sc *scene) lightPassDraw(t *testing.T) headless.Draw {
	t.Helper()
	for _, d := range sc.mainDraws() {
		if d.VertexSource == gpu.FullScreenVertexSource {
			return d
		}
	}
	require.Fail(t, "no light pass draw")
	return headless.Draw{}
}

func TestDeferredRender(t *testing.T) {
	sc := newScene(t)
	dr := NewDeferredRenderer(sc.ctx)
	defer dr.Release()
	sun := NewDirLight("sun", 1, DirectSun)
	require.NoError(t, sun.EnableShadows(sc.ctx, 128))

	phong := NewObject("phong", sc.box, NewPhongMaterial(color.RGBA{200, 0, 0, 255}))
	phong.SetPosition(mgl32.Vec3{-.5, 0, 0})
	physical := NewObject("physical", sc.box, NewPhysicalMaterial(color.RGBA{0, 200, 0, 255}, .4))
	physical.SetPosition(mgl32.Vec3{.5, 0, 0})
	normals := NewObject("normals", sc.box, &NormalMaterial{})
	normals.SetPosition(mgl32.Vec3{0, .5, 0})
	glass := NewObject("glass", sc.box, NewColorMaterial(color.RGBA{255, 255, 255, 128}))

	report, err := dr.Render(sc.cam, []*Light{sun}, []Renderable{phong, physical, normals, glass}, sc.target)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 4, report.Drawn)
	assert.Equal(t, 1, report.ShadowPasses)

	gb := dr.GeometryBuffer()
	require.NotNil(t, gb)
	assert.Equal(t, image.Pt(64, 64), gb.Size())
	assert.Equal(t, 2, gb.ColorAttachments())

	shadowFB := sun.ShadowMap().Target().Handle()
	var fbs []gpu.Handle
	for _, d := range sc.dev.Draws {
		fbs = append(fbs, d.Framebuffer)
	}
	assert.Equal(t, []gpu.Handle{
		shadowFB, shadowFB, shadowFB,
		gb.Handle(), gb.Handle(),
		sc.target.Handle(), sc.target.Handle(), sc.target.Handle(),
	}, fbs)

	geom := sc.dev.Draws[3:5]
	for _, d := range geom {
		assert.Contains(t, d.FragmentSource, "layout (location = 1) out vec4 normalParams;")
		assert.True(t, d.States.Write.Has(gpu.WriteDepth))
	}
	assert.Equal(t, mgl32.Vec3{-.5, 0, 0}, drawPosition(geom[0]))
	assert.Equal(t, mgl32.Vec2{1, 30.0 / 128}, geom[0].Uniforms["surfaceParams"])
	assert.Equal(t, mgl32.Vec2{0, .4}, geom[1].Uniforms["surfaceParams"])

	main := sc.mainDraws()
	light := main[0]
	assert.Equal(t, gpu.FullScreenVertexSource, light.VertexSource)
	assert.Equal(t, 3, light.Count)
	assert.Equal(t, gpu.DepthLessEqual, light.States.Depth)
	assert.Equal(t, gb.ColorTexture().Handle(), light.Textures["gbuffer"])
	assert.Equal(t, gb.DepthTexture().Handle(), light.Textures["depthMap"])
	assert.Equal(t, sun.ShadowMap().Texture().Handle(), light.Textures["shadowMap0"])
	assert.Equal(t, sc.cam.ViewProjection().Inv(), light.Uniforms["viewProjectionInverse"])
	assert.Contains(t, light.FragmentSource, "calculateLight0")

	assert.Equal(t, mgl32.Vec3{0, .5, 0}, drawPosition(main[1]))
	assert.False(t, main[1].States.Blend.Enabled)
	assert.True(t, main[2].States.Blend.Enabled)
	assert.False(t, main[2].States.Write.Has(gpu.WriteDepth))
}

func TestDeferredGeometryBufferResize(t *testing.T) {
	sc := newScene(t)
	dr := NewDeferredRenderer(sc.ctx)
	defer dr.Release()
	ob := NewObject("box", sc.box, NewPhongMaterial(color.RGBA{200, 0, 0, 255}))
	_, err := dr.Render(sc.cam, nil, []Renderable{ob}, sc.target)
	require.NoError(t, err)
	gb := dr.GeometryBuffer()

	small, err := gpu.NewRenderTarget(sc.ctx, 32, 16, gpu.RGBA8, gpu.Depth24)
	require.NoError(t, err)
	defer small.Release()
	sc.cam.SetViewport(gpu.NewViewport(32, 16))

	report, err := dr.Render(sc.cam, nil, []Renderable{ob}, sc.target)
	assert.ErrorIs(t, err, gpu.ErrViewportMismatch)
	assert.Nil(t, report)
	assert.Equal(t, image.Pt(64, 64), gb.Size())

	sc.dev.Reset()
	_, err = dr.Render(sc.cam, nil, []Renderable{ob}, small)
	require.NoError(t, err)
	assert.Same(t, gb, dr.GeometryBuffer())
	assert.Equal(t, image.Pt(32, 16), gb.Size())
	assert.Equal(t, image.Pt(32, 16), gb.ColorTexture().Size())
	assert.Equal(t, 2, gb.ColorTexture().Format.Layers)
	for _, d := range sc.dev.Draws {
		assert.Equal(t, gpu.NewViewport(32, 16), d.Viewport)
	}

	dr.Release()
	dr.Release()
	assert.Nil(t, dr.GeometryBuffer())
}

func TestDeferredLightingModels(t *testing.T) {
	sc := newScene(t)
	dr := NewDeferredRenderer(sc.ctx)
	defer dr.Release()
	ob := NewObject("box", sc.box, NewPhysicalMaterial(color.RGBA{200, 200, 200, 255}, .5))
	lights := []*Light{NewDirLight("sun", 1, DirectSun), NewPointLight("bulb", 1, DirectSun)}

	frame := func(lights []*Light) headless.Draw {
		sc.dev.Reset()
		_, err := dr.Render(sc.cam, lights, []Renderable{ob}, sc.target)
		require.NoError(t, err)
		return sc.lightPassDraw(t)
	}
	blinn := frame(lights)
	assert.Contains(t, blinn.FragmentSource, "shiny = normalParams.a * 128.0;")
	assert.Contains(t, blinn.FragmentSource, "calculateLight1")
	compiles := sc.dev.Compiles()

	dr.LightingModel = CookTorrance
	cook := frame(lights)
	assert.Contains(t, cook.FragmentSource, "roughness = max(normalParams.a, 0.02);")
	assert.NotEqual(t, blinn.Program, cook.Program)
	assert.Equal(t, compiles+1, sc.dev.Compiles())

	dr.LightingModel = BlinnPhong
	again := frame(lights)
	assert.Equal(t, blinn.FragmentSource, again.FragmentSource)
	assert.Equal(t, blinn.Program, again.Program)
	assert.Equal(t, compiles+1, sc.dev.Compiles())

	unlit := frame(nil)
	assert.NotContains(t, unlit.FragmentSource, "calculateLighting")
	assert.Contains(t, unlit.FragmentSource, "discard;")

	assert.Equal(t, "CookTorrance", CookTorrance.String())
	assert.Equal(t, "LightingModels(7)", LightingModels(7).String())
}

func TestDeferredDebugView(t *testing.T) {
	sc := newScene(t)
	dr := NewDeferredRenderer(sc.ctx)
	defer dr.Release()
	dr.Debug = DebugNormal
	sun := NewDirLight("sun", 1, DirectSun)
	require.NoError(t, sun.EnableShadows(sc.ctx, 128))
	deferred := NewObject("phong", sc.box, NewPhongMaterial(color.RGBA{200, 0, 0, 255}))
	forward := NewObject("normals", sc.box, &NormalMaterial{})

	report, err := dr.Render(sc.cam, []*Light{sun}, []Renderable{deferred, forward}, sc.target)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ShadowPasses)
	assert.Equal(t, 1, report.Drawn)
	main := sc.mainDraws()
	require.Len(t, main, 1)
	assert.Equal(t, int32(DebugNormal), main[0].Uniforms["debugView"])
	assert.Contains(t, main[0].FragmentSource, "uniform int debugView;")
	assert.Equal(t, "Normal", DebugNormal.String())
}

// brokenDeferredMaterial has a geometry pass shader that does not compile.
type brokenDeferredMaterial struct {
	PhongMaterial
}

func (bm *brokenDeferredMaterial) GeometryPassSource(vertexColors bool) string {
	return "#error broken on purpose\nout vec4 outColor;\nvoid main() {}\n"
}

func TestDeferredObjectFailure(t *testing.T) {
	sc := newScene(t)
	dr := NewDeferredRenderer(sc.ctx)
	defer dr.Release()
	broken := &brokenDeferredMaterial{}
	broken.Defaults()
	bad := NewObject("bad", sc.box, broken)
	good := NewObject("good", sc.box, NewPhongMaterial(color.RGBA{0, 0, 200, 255}))

	report, err := dr.Render(sc.cam, nil, []Renderable{bad, good}, sc.target)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Drawn)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "bad", report.Failed[0].Name)
	assert.Equal(t, GeometryPass, report.Failed[0].Pass)
	assert.Contains(t, report.Failed[0].Error(), "geometry pass")
	var se *gpu.ShaderError
	require.ErrorAs(t, report.Err(), &se)
	assert.Contains(t, se.Log, "broken on purpose")
}

func TestDeferredContextLost(t *testing.T) {
	sc := newScene(t)
	dr := NewDeferredRenderer(sc.ctx)
	defer dr.Release()
	ob := NewObject("box", sc.box, NewPhongMaterial(color.RGBA{200, 0, 0, 255}))
	sc.dev.LoseAfterDraws = 1

	_, err := dr.Render(sc.cam, nil, []Renderable{ob}, sc.target)
	assert.ErrorIs(t, err, gpu.ErrContextLost)
	report, err := dr.Render(sc.cam, nil, []Renderable{ob}, sc.target)
	assert.ErrorIs(t, err, gpu.ErrContextLost)
	assert.Nil(t, report)
}
