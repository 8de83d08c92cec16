// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"fmt"
	"image"
	"strings"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// LightingModels are the shading models of the light pass of a
// [DeferredRenderer]. Each interprets the two surface parameters that
// materials write into the geometry buffer.
type LightingModels int32

const (
	// BlinnPhong reads the parameters as reflectiveness and
	// shininess / 128, like [PhongMaterial].
	BlinnPhong LightingModels = iota

	// CookTorrance reads the parameters as metallic and roughness,
	// like [PhysicalMaterial].
	CookTorrance
)

var lightingModelNames = [...]string{"BlinnPhong", "CookTorrance"}

func (lm LightingModels) String() string {
	if lm < 0 || int(lm) >= len(lightingModelNames) {
		return fmt.Sprintf("LightingModels(%d)", int32(lm))
	}
	return lightingModelNames[lm]
}

// DebugViews show the content of the geometry buffer in place of the
// lit image.
type DebugViews int32

const (
	DebugNone DebugViews = iota

	// DebugPosition shows the world position.
	DebugPosition

	// DebugNormal shows the world normal.
	DebugNormal

	// DebugColor shows the surface color.
	DebugColor

	// DebugDepth shows the depth.
	DebugDepth

	// DebugSpecular shows the first surface parameter.
	DebugSpecular

	// DebugPower shows the second surface parameter.
	DebugPower
)

var debugViewNames = [...]string{"None", "Position", "Normal", "Color", "Depth", "Specular", "Power"}

func (dv DebugViews) String() string {
	if dv < 0 || int(dv) >= len(debugViewNames) {
		return fmt.Sprintf("DebugViews(%d)", int32(dv))
	}
	return debugViewNames[dv]
}

// DeferredMaterial is a [Material] that can also write its surface into
// the geometry buffer of a [DeferredRenderer]. Opaque objects with such a
// material are lit once per pixel in the light pass; the others are drawn
// forward after it.
type DeferredMaterial interface {
	Material

	// GeometryPassSource returns the fragment shader that writes the
	// surface: color and first parameter to output 0, encoded normal
	// and second parameter to output 1.
	GeometryPassSource(vertexColors bool) string

	// BindGeometryPass sets the uniforms of the geometry pass shader.
	BindGeometryPass(p *gpu.Program) error
}

// geometryPassSource returns the geometry pass fragment shader of a
// surface with the color inputs of surfaceSource.
func geometryPassSource(textured, vertexColors bool) string {
	var b strings.Builder
	b.WriteString("in vec3 nor;\nuniform vec2 surfaceParams;\n")
	b.WriteString(surfaceSource(textured, vertexColors))
	b.WriteString(`layout (location = 0) out vec4 surface;
layout (location = 1) out vec4 normalParams;

void main() {
	vec3 n = normalize(gl_FrontFacing ? nor : -nor);
	surface = vec4(albedo().rgb, surfaceParams.x);
	normalParams = vec4(n * 0.5 + 0.5, surfaceParams.y);
}
`)
	return b.String()
}

func clamp01(v float32) float32 { return min(max(v, 0), 1) }

func (mt *PhongMaterial) GeometryPassSource(vertexColors bool) string {
	return geometryPassSource(mt.Texture != nil, vertexColors)
}

func (mt *PhongMaterial) BindGeometryPass(p *gpu.Program) error {
	if _, err := bindSurface(p, mt.Color, mt.Texture, mt.Tiling); err != nil {
		return err
	}
	return p.SetUniform("surfaceParams", mgl32.Vec2{clamp01(mt.Reflective), clamp01(mt.Shiny / 128)})
}

func (mt *PhysicalMaterial) GeometryPassSource(vertexColors bool) string {
	return geometryPassSource(mt.AlbedoTexture != nil, vertexColors)
}

func (mt *PhysicalMaterial) BindGeometryPass(p *gpu.Program) error {
	if _, err := bindSurface(p, mt.Albedo, mt.AlbedoTexture, mt.Tiling); err != nil {
		return err
	}
	return p.SetUniform("surfaceParams", mgl32.Vec2{clamp01(mt.Metallic), clamp01(mt.Roughness)})
}

// geometryPassMaterial draws a deferred material in the geometry pass.
type geometryPassMaterial struct {
	DeferredMaterial
}

func (gm geometryPassMaterial) FragmentShaderSource(lights []*Light, vertexColors bool) string {
	return gm.GeometryPassSource(vertexColors)
}

func (gm geometryPassMaterial) Bind(p *gpu.Program, cam *Camera, lights []*Light) error {
	return gm.BindGeometryPass(p)
}

// gbufferSource declares the geometry buffer inputs of the full-screen passes.
const gbufferSource = `in vec2 uvs;
uniform sampler2DArray gbuffer;
uniform sampler2D depthMap;
uniform mat4 viewProjectionInverse;
layout (location = 0) out vec4 outColor;

vec3 worldPosition(float depth) {
	vec4 p = viewProjectionInverse * vec4(vec3(uvs, depth) * 2.0 - 1.0, 1.0);
	return p.xyz / p.w;
}
`

// lightPassSource returns the fragment shader lighting the geometry
// buffer with the lights, in order.
func lightPassSource(model LightingModels, lights []*Light) string {
	var b strings.Builder
	b.WriteString(gbufferSource)
	b.WriteString(srgbSource)
	if len(lights) == 0 {
		b.WriteString(`
void main() {
	float depth = texture(depthMap, uvs).r;
	if (depth >= 1.0) {
		discard;
	}
	outColor = vec4(srgbFromLinear(texture(gbuffer, vec3(uvs, 0)).rgb), 1.0);
	gl_FragDepth = depth;
}
`)
		return b.String()
	}
	b.WriteString("uniform vec3 cameraPosition;\n")
	var params string
	switch model {
	case CookTorrance:
		b.WriteString("float metallic;\nfloat roughness;\n")
		b.WriteString(physicalShade)
		params = "\tmetallic = surface.a;\n\troughness = max(normalParams.a, 0.02);\n"
	default:
		b.WriteString("float reflective;\nfloat shiny;\nfloat bright = 1.0;\n")
		b.WriteString(phongShade)
		params = "\treflective = surface.a;\n\tshiny = normalParams.a * 128.0;\n"
	}
	b.WriteString(lightsShaderSource(lights))
	b.WriteString(`
void main() {
	float depth = texture(depthMap, uvs).r;
	if (depth >= 1.0) {
		discard;
	}
	vec4 surface = texture(gbuffer, vec3(uvs, 0));
	vec4 normalParams = texture(gbuffer, vec3(uvs, 1));
`)
	b.WriteString(params)
	b.WriteString(`	vec3 pos = worldPosition(depth);
	vec3 normal = normalize(normalParams.xyz * 2.0 - 1.0);
	vec3 viewDir = normalize(cameraPosition - pos);
	vec3 color = calculateLighting(normal, viewDir, pos, vec4(surface.rgb, 1.0));
	outColor = vec4(srgbFromLinear(color), 1.0);
	gl_FragDepth = depth;
}
`)
	return b.String()
}

// debugViewSource shows one channel of the geometry buffer.
const debugViewSource = gbufferSource + `uniform int debugView;

void main() {
	float depth = texture(depthMap, uvs).r;
	vec4 surface = texture(gbuffer, vec3(uvs, 0));
	vec4 normalParams = texture(gbuffer, vec3(uvs, 1));
	if (debugView == 1) {
		outColor = vec4(worldPosition(depth), 1.0);
	} else if (debugView == 2) {
		outColor = vec4(normalParams.xyz, 1.0);
	} else if (debugView == 3) {
		outColor = vec4(surface.rgb, 1.0);
	} else if (debugView == 4) {
		outColor = vec4(vec3(depth), 1.0);
	} else if (debugView == 5) {
		outColor = vec4(vec3(surface.a), 1.0);
	} else {
		outColor = vec4(vec3(normalParams.a), 1.0);
	}
	gl_FragDepth = depth;
}
`

// DeferredRenderer draws frames in two passes: a geometry pass writing
// the surface of the opaque objects into a geometry buffer, and a light
// pass lighting every pixel of that buffer once. Objects whose material
// is not a [DeferredMaterial], and transparent objects, are then drawn
// forward over the result, depth tested against the geometry pass.
type DeferredRenderer struct {
	Renderer

	// LightingModel shades the light pass.
	LightingModel LightingModels

	// Debug replaces the light pass with a view of the geometry buffer,
	// and skips the forward draws.
	Debug DebugViews

	gbuffer *gpu.RenderTarget
}

// NewDeferredRenderer returns a deferred renderer configured from the
// context [gpu.Config].
func NewDeferredRenderer(ctx *gpu.Context) *DeferredRenderer {
	return &DeferredRenderer{Renderer: *NewRenderer(ctx)}
}

// GeometryBuffer returns the target of the geometry pass, with two color
// layers and a depth attachment, or nil before the first frame.
func (dr *DeferredRenderer) GeometryBuffer() *gpu.RenderTarget { return dr.gbuffer }

// Render draws the objects lit by the lights as seen by the camera into
// the target, which should have a depth attachment for the forward draws
// to be depth tested. The camera viewport must have the size of the
// target, else [gpu.ErrViewportMismatch] is returned and nothing is drawn.
// Failures are handled as in [Renderer.Render].
func (dr *DeferredRenderer) Render(cam *Camera, lights []*Light, objects []Renderable, target *gpu.RenderTarget) (*FrameReport, error) {
	if err := dr.ctx.Err(); err != nil {
		return nil, err
	}
	if cam.Viewport.Size() != target.Size() {
		return nil, fmt.Errorf("%w: camera viewport %s, render target %v", gpu.ErrViewportMismatch, cam.Viewport, target.Size())
	}
	if err := dr.sizeGeometryBuffer(cam.Viewport.Size()); err != nil {
		return nil, err
	}
	report := &FrameReport{}
	lights = dr.activeLights(lights)
	opaque, transparent := dr.collect(cam, objects, report)
	var deferred, forward []drawItem
	for _, it := range opaque {
		if _, ok := it.obj.AsObject().Material.(DeferredMaterial); ok {
			deferred = append(deferred, it)
		} else {
			forward = append(forward, it)
		}
	}

	if dr.Debug == DebugNone {
		if err := dr.renderShadows(lights, objects, report); err != nil {
			return report, err
		}
	}

	err := dr.gbuffer.Write(gpu.ClearColorAndDepth(0, 0, 0, 0, 1), func() error {
		vp := dr.gbuffer.Viewport()
		for _, it := range deferred {
			mat := geometryPassMaterial{it.obj.AsObject().Material.(DeferredMaterial)}
			states := mat.RenderStates()
			states.SetDepthWrite(true).SetBlend(gpu.NoBlend)
			if err := dr.drawOrRecord(report, it.obj, mat, GeometryPass, cam, nil, states, vp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	err = target.Write(dr.Clear, func() error {
		if err := dr.lightPass(cam, lights); err != nil {
			return err
		}
		if dr.Debug != DebugNone {
			return nil
		}
		if err := dr.drawItems(report, forward, false, cam, lights); err != nil {
			return err
		}
		return dr.drawItems(report, transparent, true, cam, lights)
	})
	return report, err
}

// sizeGeometryBuffer allocates the geometry buffer, or resizes it to
// the given size.
func (dr *DeferredRenderer) sizeGeometryBuffer(sz image.Point) error {
	if dr.gbuffer != nil {
		return dr.gbuffer.Resize(sz.X, sz.Y)
	}
	gb, err := gpu.NewRenderTargetLayers(dr.ctx, sz.X, sz.Y, 2, gpu.RGBA8, gpu.Depth32F)
	if err != nil {
		return err
	}
	gb.Name = "geometry buffer"
	dr.gbuffer = gb
	return nil
}

// lightPass draws the lit geometry buffer, or the debug view, into the
// bound target.
func (dr *DeferredRenderer) lightPass(cam *Camera, lights []*Light) error {
	fs := debugViewSource
	if dr.Debug == DebugNone {
		fs = lightPassSource(dr.LightingModel, lights)
	}
	states := gpu.RenderStates{Write: gpu.WriteAll, Depth: gpu.DepthLessEqual}
	return gpu.NewEffect(dr.ctx, fs).Apply(states, cam.Viewport, func(p *gpu.Program) error {
		err := setUniforms(p,
			uniform{"viewProjectionInverse", cam.ViewProjection().Inv()},
			uniform{"cameraPosition", cam.Position()},
			uniform{"debugView", int32(dr.Debug)},
		)
		if err != nil {
			return err
		}
		if err := p.SetTexture("gbuffer", 0, dr.gbuffer.ColorTexture()); err != nil {
			return err
		}
		if err := p.SetTexture("depthMap", 1, dr.gbuffer.DepthTexture()); err != nil {
			return err
		}
		return bindLights(p, lights, 2)
	})
}

// Release releases the geometry buffer. It is safe to call more than once.
func (dr *DeferredRenderer) Release() {
	if dr.gbuffer != nil {
		dr.gbuffer.Release()
		dr.gbuffer = nil
	}
}
