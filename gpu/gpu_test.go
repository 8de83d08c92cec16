// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu_test

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cogentcore.org/render/base/errors"
	. "cogentcore.org/render/gpu"
	"cogentcore.org/render/gpu/headless"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `
in vec3 position;
uniform mat4 mvp;
void main() { gl_Position = mvp * vec4(position, 1.0); }
`

const testFragment = `
uniform vec4 color;
layout (location = 0) out vec4 outColor;
void main() { outColor = color; }
`

func newContext(t *testing.T, cfg *Config) (*Context, *headless.Device) {
	dev := headless.NewDevice()
	ctx, err := NewContext(dev, cfg)
	require.NoError(t, err)
	t.Cleanup(ctx.Release)
	return ctx, dev
}

func TestContextSingleton(t *testing.T) {
	ctx, dev := newContext(t, nil)
	_, err := NewContext(dev, nil)
	assert.ErrorIs(t, err, ErrContextExists)
	assert.Equal(t, "headless", ctx.Capabilities().Name)
	assert.True(t, ctx.Capabilities().SupportsFormat(RGBA8))

	other, err := NewContext(headless.NewDevice(), nil)
	require.NoError(t, err)
	other.Release()
	other.Release()
}

func TestContextRelease(t *testing.T) {
	dev := headless.NewDevice()
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)
	_, err = NewBufferFrom(ctx, VertexBuffer, Float32Vector3, StaticDraw, []float32{0, 0, 0})
	require.NoError(t, err)
	_, err = NewRenderTarget(ctx, 8, 8, RGBA8, Depth32F)
	require.NoError(t, err)
	_, err = ctx.Programs().GetOrBuild(testVertex, testFragment)
	require.NoError(t, err)
	assert.Equal(t, 5, ctx.Stats().Live())

	ctx.Release()
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, 0, dev.Memory())
}

func TestBuffer(t *testing.T) {
	ctx, dev := newContext(t, nil)
	pos := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	b, err := NewBufferFrom(ctx, VertexBuffer, Float32Vector3, StaticDraw, pos)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, 36, b.Size())

	err = UpdateBufferFrom(b, pos[:2])
	assert.ErrorIs(t, err, ErrSizeMismatch)
	assert.Equal(t, Bytes(pos), dev.BufferData(b.Handle()))

	pos[1] = mgl32.Vec3{2, 0, 0}
	assert.NoError(t, UpdateBufferFrom(b, pos))
	assert.Equal(t, Bytes(pos), dev.BufferData(b.Handle()))

	assert.NoError(t, b.Reallocate(Bytes(append(pos, mgl32.Vec3{0, 0, 1}))))
	assert.Equal(t, 4, b.Count())
	assert.Equal(t, 1, ctx.Stats().Buffers)

	_, err = NewBuffer(ctx, VertexBuffer, Float32Vector3, StaticDraw, make([]byte, 10))
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, err = NewBufferFrom(ctx, IndexBuffer, Float32, StaticDraw, []float32{1})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	b.Release()
	b.Release()
	assert.Equal(t, 0, ctx.Stats().Buffers)
	assert.ErrorIs(t, b.Update(nil), ErrReleased)
	assert.ErrorIs(t, b.Reallocate(Bytes(pos)), ErrReleased)

	var nb *Buffer
	assert.ErrorIs(t, nb.Update(nil), ErrReleased)
	assert.ErrorIs(t, UpdateBufferFrom(nb, pos), ErrReleased)
	assert.ErrorIs(t, nb.Reallocate(Bytes(pos)), ErrReleased)
}

func TestTextureResize(t *testing.T) {
	ctx, dev := newContext(t, nil)
	tx, err := NewTexture2D(ctx, 256, 256, RGBA8, Sampler{})
	require.NoError(t, err)
	h := tx.Handle()
	assert.NoError(t, tx.Resize(512, 128))
	assert.Equal(t, image.Pt(512, 128), tx.Size())
	assert.NotEqual(t, h, tx.Handle())
	assert.Len(t, dev.TextureData(tx.Handle(), 0), 512*128*4)
	assert.Nil(t, dev.TextureData(h, 0))

	err = tx.Resize(0, 10)
	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, image.Pt(512, 128), tx.Size())
}

func TestUnsupportedFormat(t *testing.T) {
	dev := headless.NewDevice()
	dev.Caps.Formats = []TextureFormats{RGBA8, Depth24}
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)
	defer ctx.Release()

	_, err = NewTexture2D(ctx, 64, 64, RGBA32F, Sampler{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = NewRenderTarget(ctx, 64, 64, RGBA8, Depth32F)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, 0, dev.Memory())
}

func TestTextureUpload(t *testing.T) {
	ctx, dev := newContext(t, nil)
	tx, err := NewTextureCube(ctx, 4, RGBA8, Sampler{})
	require.NoError(t, err)
	assert.Equal(t, 6, tx.Format.Layers)
	assert.ErrorIs(t, tx.Upload(0, make([]byte, 10)), ErrSizeMismatch)
	assert.ErrorIs(t, tx.Upload(6, make([]byte, 64)), ErrSizeMismatch)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	assert.NoError(t, tx.SetImage(5, img))
	assert.Equal(t, img.Pix, dev.TextureData(tx.Handle(), 5))
	assert.ErrorIs(t, tx.SetImage(0, image.NewRGBA(image.Rect(0, 0, 2, 2))), ErrSizeMismatch)

	_, err = NewTextureCube(ctx, 0, RGBA8, Sampler{})
	assert.ErrorIs(t, err, ErrAllocationFailed)
	_, err = NewTexture2D(ctx, 100000, 4, RGBA8, Sampler{})
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

func TestTextureFromImage(t *testing.T) {
	dev := headless.NewDevice()
	dev.Caps.MaxTextureSize = 64
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)
	defer ctx.Release()

	img := image.NewNRGBA(image.Rect(10, 10, 138, 42))
	tx, err := NewTextureFromImage(ctx, img, Sampler{Mipmap: true})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 16), tx.Size())
	assert.Equal(t, SRGBA8, tx.Format.Format)
}

func TestRenderTarget(t *testing.T) {
	ctx, dev := newContext(t, nil)
	rt, err := NewRenderTarget(ctx, 4, 2, RGBA8, Depth24)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 2), rt.Size())
	assert.NotNil(t, rt.DepthTexture())

	err = rt.Write(ClearColorAndDepth(1, 0, 0, 1, 1), func() error { return nil })
	require.NoError(t, err)
	pix, err := rt.ReadColor()
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, pix[:4])
	assert.Len(t, pix, 4*4*2)

	require.NoError(t, rt.Resize(8, 8))
	assert.Equal(t, image.Pt(8, 8), rt.ColorTexture().Size())
	assert.Equal(t, image.Pt(8, 8), rt.DepthTexture().Size())

	borrowed, err := NewRenderTargetFromTextures(ctx, rt.ColorTexture(), nil, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, borrowed.Resize(2, 2), ErrSizeMismatch)
	borrowed.Release()
	assert.NotZero(t, rt.ColorTexture().Handle())

	rt.Release()
	assert.Equal(t, 0, ctx.Stats().Live())
	assert.Equal(t, 0, dev.Live())

	scr := ScreenTarget(ctx, 640, 480)
	assert.True(t, scr.IsScreen())
	assert.NoError(t, scr.Resize(800, 600))
	assert.Equal(t, NewViewport(800, 600), scr.Viewport())
}

func TestRenderTargetResizeFailure(t *testing.T) {
	ctx, dev := newContext(t, nil)
	rt, err := NewRenderTarget(ctx, 16, 16, RGBA8, Depth24)
	require.NoError(t, err)
	require.Equal(t, 2*16*16*4, dev.Memory())
	fb, color, depth := rt.Handle(), rt.ColorTexture().Handle(), rt.DepthTexture().Handle()

	// room for the new color texture but not the new depth texture
	dev.MemoryLimit = dev.Memory() + 32*32*4 + 16
	assert.ErrorIs(t, rt.Resize(32, 32), ErrAllocationFailed)
	assert.Equal(t, image.Pt(16, 16), rt.Size())
	assert.Equal(t, image.Pt(16, 16), rt.ColorTexture().Size())
	assert.Equal(t, image.Pt(16, 16), rt.DepthTexture().Size())
	assert.Equal(t, fb, rt.Handle())
	assert.Equal(t, color, rt.ColorTexture().Handle())
	assert.Equal(t, depth, rt.DepthTexture().Handle())
	assert.Equal(t, 2*16*16*4, dev.Memory())

	colors, da, ok := dev.Framebuffer(rt.Handle())
	require.True(t, ok)
	require.Len(t, colors, 1)
	assert.Equal(t, color, colors[0].Texture)
	require.NotNil(t, da)
	assert.Equal(t, depth, da.Texture)

	require.NoError(t, rt.Write(ClearColorAndDepth(0, 0, 1, 1, 1), nil))
	pix, err := rt.ReadColor()
	require.NoError(t, err)
	assert.Len(t, pix, 16*16*4)
	assert.Equal(t, []byte{0, 0, 255, 255}, pix[:4])

	dev.MemoryLimit = 0
	require.NoError(t, rt.Resize(32, 32))
	assert.Equal(t, 2*32*32*4, dev.Memory())
	assert.NotEqual(t, fb, rt.Handle())
	_, _, ok = dev.Framebuffer(fb)
	assert.False(t, ok)
	colors, da, ok = dev.Framebuffer(rt.Handle())
	require.True(t, ok)
	assert.Equal(t, rt.ColorTexture().Handle(), colors[0].Texture)
	assert.Equal(t, rt.DepthTexture().Handle(), da.Texture)
	rt.Release()
	assert.Equal(t, 0, dev.Live())
}

func TestRenderTargetLayers(t *testing.T) {
	ctx, dev := newContext(t, nil)
	rt, err := NewRenderTargetLayers(ctx, 8, 4, 2, RGBA8, Depth32F)
	require.NoError(t, err)
	assert.Equal(t, 2, rt.ColorAttachments())
	assert.Equal(t, Texture2DArray, rt.ColorTexture().Format.Kind)
	assert.Equal(t, 2, rt.ColorTexture().Format.Layers)

	colors, _, ok := dev.Framebuffer(rt.Handle())
	require.True(t, ok)
	require.Len(t, colors, 2)
	assert.Equal(t, 0, colors[0].Layer)
	assert.Equal(t, 1, colors[1].Layer)

	require.NoError(t, rt.Write(ClearOnlyColor(0, 1, 0, 1), nil))
	for layer := 0; layer < 2; layer++ {
		assert.Equal(t, []byte{0, 255, 0, 255}, dev.TextureData(rt.ColorTexture().Handle(), layer)[:4])
	}

	require.NoError(t, rt.Resize(16, 8))
	assert.Equal(t, 2, rt.ColorAttachments())
	assert.Equal(t, 2, rt.ColorTexture().Format.Layers)
	assert.Equal(t, image.Pt(16, 8), rt.DepthTexture().Size())
	rt.Release()

	_, err = NewRenderTargetLayers(ctx, 8, 4, dev.Caps.MaxColorAttachments+1, RGBA8, Depth32F)
	assert.ErrorIs(t, err, ErrAllocationFailed)
	_, err = NewRenderTargetLayers(ctx, 8, 4, 2, UndefinedFormat, Depth32F)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, dev.Live())
}

func TestWriteRestoresBinding(t *testing.T) {
	ctx, dev := newContext(t, nil)
	outer, err := NewRenderTarget(ctx, 2, 2, RGBA8, UndefinedFormat)
	require.NoError(t, err)
	inner, err := NewRenderTarget(ctx, 2, 2, UndefinedFormat, Depth32F)
	require.NoError(t, err)
	dev.Reset()
	err = outer.Write(ClearNone(), func() error {
		return inner.Write(ClearOnlyDepth(1), nil)
	})
	require.NoError(t, err)
	var binds []string
	for _, c := range dev.Calls {
		if strings.HasPrefix(c, "BindFramebuffer") {
			binds = append(binds, c)
		}
	}
	assert.Equal(t, []string{
		fmt.Sprintf("BindFramebuffer %d", outer.Handle()),
		fmt.Sprintf("BindFramebuffer %d", inner.Handle()),
		fmt.Sprintf("BindFramebuffer %d", outer.Handle()),
		"BindFramebuffer 0",
	}, binds)
}

func TestProgram(t *testing.T) {
	ctx, dev := newContext(t, nil)
	p, err := NewProgram(ctx, testVertex, testFragment)
	require.NoError(t, err)
	assert.True(t, p.RequiresAttribute("position"))
	assert.False(t, p.RequiresAttribute("normal"))
	assert.True(t, p.HasUniform("mvp"))
	assert.True(t, p.HasUniform("color"))

	b, err := NewBufferFrom(ctx, VertexBuffer, Float32Vector3, StaticDraw, []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	rt := ScreenTarget(ctx, 10, 10)
	err = rt.Write(DefaultClear(), func() error {
		if err := p.SetUniform("mvp", mgl32.Ident4()); err != nil {
			return err
		}
		if err := p.SetUniform("color", mgl32.Vec4{1, 1, 1, 1}); err != nil {
			return err
		}
		assert.NoError(t, p.SetUniform("unused", float32(1)))
		if err := p.SetAttribute("position", b); err != nil {
			return err
		}
		states := DefaultRenderStates()
		if err := p.DrawArrays(states, rt.Viewport(), b.Count()); err != nil {
			return err
		}
		return p.DrawArrays(states, rt.Viewport(), b.Count())
	})
	require.NoError(t, err)
	require.Len(t, dev.Draws, 2)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, dev.Draws[0].Uniforms["color"])
	assert.Equal(t, b.Handle(), dev.Draws[0].Attributes["position"])
	assert.Equal(t, 3, dev.Draws[1].Count)

	n := 0
	for _, c := range dev.Calls {
		if c == "SetRenderStates" {
			n++
		}
	}
	assert.Equal(t, 1, n, "identical states are only set once")

	p.Acquire()
	p.Release()
	assert.NotZero(t, p.Handle())
	p.Release()
	assert.Zero(t, p.Handle())
}

func TestMissingAttribute(t *testing.T) {
	ctx, _ := newContext(t, nil)
	p, err := NewProgram(ctx, testVertex, testFragment)
	require.NoError(t, err)
	assert.ErrorIs(t, p.SetAttribute("position", nil), ErrMissingAttribute)
	err = p.DrawArrays(DefaultRenderStates(), NewViewport(4, 4), 3)
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestCompileError(t *testing.T) {
	ctx, _ := newContext(t, nil)
	_, err := NewProgram(ctx, testVertex, "#error broken\nvoid main() {}")
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, FragmentShader, ce.Stage)
	assert.Contains(t, ce.Log, "broken")
	assert.Equal(t, 0, ctx.Stats().Programs)
}

func TestProgramCache(t *testing.T) {
	ctx, dev := newContext(t, nil)
	pc := ctx.Programs()
	p1, err := pc.GetOrBuild(testVertex, testFragment)
	require.NoError(t, err)
	p2, err := pc.GetOrBuild(testVertex, testFragment)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, dev.Compiles())

	p3, err := pc.GetOrBuild(testVertex, testFragment+"\n")
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)
	assert.Equal(t, 2, dev.Compiles())

	fail := true
	dev.FailCompile = func(stage ShaderStages, src string) string {
		if fail && stage == VertexShader {
			return "syntax error"
		}
		return ""
	}
	const vs2 = testVertex + "// second\n"
	_, err = pc.GetOrBuild(vs2, testFragment)
	var se *ShaderError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, VertexShader, se.Stage)
	assert.Equal(t, "syntax error", se.Log)
	assert.Equal(t, 2, pc.Len())

	fail = false
	p4, err := pc.GetOrBuild(vs2, testFragment)
	require.NoError(t, err)
	assert.NotNil(t, p4)

	st := pc.Stats()
	assert.Equal(t, 1, st.Hits)
	assert.Equal(t, 4, st.Misses)
	assert.Equal(t, 1, st.Failures)
}

func TestProgramCacheEviction(t *testing.T) {
	cfg := NewConfig()
	cfg.ProgramCacheSize = 1
	ctx, _ := newContext(t, cfg)
	pc := ctx.Programs()
	p1, err := pc.GetOrBuild(testVertex, testFragment)
	require.NoError(t, err)
	p1.Acquire()
	p2, err := pc.GetOrBuild(testVertex, testFragment+"\n")
	require.NoError(t, err)
	assert.Equal(t, 1, pc.Len())
	assert.Equal(t, 1, pc.Stats().Evictions)
	assert.NotZero(t, p1.Handle(), "still held")
	p1.Release()
	assert.Zero(t, p1.Handle())
	assert.NotZero(t, p2.Handle())
}

func TestContextLost(t *testing.T) {
	ctx, dev := newContext(t, nil)
	assert.NoError(t, ctx.Err())
	dev.Lose()
	assert.ErrorIs(t, ctx.Err(), ErrContextLost)
	_, err := NewTexture2D(ctx, 4, 4, RGBA8, Sampler{})
	assert.ErrorIs(t, err, ErrContextLost)
	_, err = ctx.Programs().GetOrBuild(testVertex, testFragment)
	assert.ErrorIs(t, err, ErrContextLost)
}

func TestAllocationFailed(t *testing.T) {
	dev := headless.NewDevice()
	dev.MemoryLimit = 1024
	ctx, err := NewContext(dev, nil)
	require.NoError(t, err)
	defer ctx.Release()
	_, err = NewTexture2D(ctx, 32, 32, RGBA8, Sampler{})
	assert.ErrorIs(t, err, ErrAllocationFailed)
	_, err = NewRenderTarget(ctx, 8, 8, RGBA8, Depth32F)
	require.NoError(t, err)
	_, err = NewRenderTarget(ctx, 12, 12, RGBA8, Depth32F)
	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, 1, ctx.Stats().RenderTargets)
	assert.Equal(t, 2, ctx.Stats().Textures)
}

func TestFence(t *testing.T) {
	ctx, dev := newContext(t, nil)
	dev.FencePolls = 2
	f, err := ctx.InsertFence()
	require.NoError(t, err)
	for _n := 0; _n < 2; _n++ {
		ok, err := f.Ready()
		assert.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := f.Ready()
	assert.NoError(t, err)
	assert.True(t, ok)
	f.Release()
	_, err = f.Ready()
	assert.ErrorIs(t, err, ErrReleased)
}

func TestCopyFrom(t *testing.T) {
	ctx, dev := newContext(t, nil)
	src, err := NewRenderTarget(ctx, 4, 4, RGBA8, Depth32F)
	require.NoError(t, err)
	dst := ScreenTarget(ctx, 4, 4)
	dev.Reset()
	require.NoError(t, dst.CopyFrom(src.ColorTexture(), src.DepthTexture(), dst.Viewport(), WriteAll))
	require.Len(t, dev.Draws, 1)
	d := dev.Draws[0]
	assert.Equal(t, Handle(0), d.Framebuffer)
	assert.Equal(t, src.ColorTexture().Handle(), d.Textures["colorMap"])
	assert.Equal(t, src.DepthTexture().Handle(), d.Textures["depthMap"])
	assert.Equal(t, DepthAlways, d.States.Depth)
	assert.Equal(t, 3, d.Count)
}

func TestConfig(t *testing.T) {
	dir := t.TempDir()
	tf := filepath.Join(dir, "render.toml")
	cfg := NewConfig()
	cfg.ProgramCacheSize = 32
	cfg.FrustumCulling = false
	require.NoError(t, cfg.Save(tf))
	got, err := LoadConfig(tf)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	yf := filepath.Join(dir, "render.yaml")
	require.NoError(t, os.WriteFile(yf, []byte("shadow_map_size: 2048\nmax_lights: 4\n"), 0666))
	got, err = LoadConfig(yf)
	require.NoError(t, err)
	assert.Equal(t, 2048, got.ShadowMapSize)
	assert.Equal(t, 4, got.MaxLights)
	assert.Equal(t, 4, got.MultiSample)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("MultiSample = 0\n"), 0666))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	_, err = NewContext(headless.NewDevice(), &Config{})
	assert.Error(t, err)
}

func TestWatchConfig(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "render.toml")
	require.NoError(t, NewConfig().Save(fn))
	cw, err := WatchConfig(fn)
	require.NoError(t, err)
	defer cw.Close()
	assert.Nil(t, cw.Poll())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("MaxLights = 1\n"), 0666))
	require.NoError(t, os.WriteFile(fn, []byte("MaxLights = 3\n"), 0666))
	var got *Config
	require.Eventually(t, func() bool {
		if cf := cw.Poll(); cf != nil {
			got = cf
		}
		return got != nil && got.MaxLights == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1024, got.ShadowMapSize)

	assert.NoError(t, cw.Close())
	assert.NotPanics(t, func() { assert.NoError(t, cw.Close()) })
}
