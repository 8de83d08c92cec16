// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"image/color"
	"strings"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Material determines how the surface of an object is shaded.
//
// The fragment shader source must depend only on the material
// configuration, the kinds and shadow settings of the lights, and
// vertexColors: identical inputs give identical source, so that programs
// are shared through the program cache. Values such as colors and light
// positions are uniforms set by Bind.
//
// Fragment shaders read the vertex outputs they need by declaring
// `in vec3 pos;` (world position), `in vec3 nor;` (world normal),
// `in vec2 uvs;` and `in vec4 col;`, and write `out vec4 outColor`.
type Material interface {

	// FragmentShaderSource returns the fragment shader, with one block
	// per light in list order. With no lights the material is unlit.
	FragmentShaderSource(lights []*Light, vertexColors bool) string

	// Bind sets the material and light uniforms on the program.
	Bind(p *gpu.Program, cam *Camera, lights []*Light) error

	// RenderStates returns the states to draw with. The renderer sets
	// the depth write and blend states according to IsTransparent.
	RenderStates() gpu.RenderStates

	// IsTransparent returns true if the material blends with what
	// is behind it.
	IsTransparent() bool
}

// Tiling are the texture tiling parameters
type Tiling struct {

	// how often to repeat the texture in each direction
	Repeat mgl32.Vec2

	// offset for when to start the texure in each direction
	Off mgl32.Vec2
}

// Defaults sets default tiling params if not yet initialized
func (tl *Tiling) Defaults() {
	if tl.Repeat == (mgl32.Vec2{}) {
		tl.Repeat = mgl32.Vec2{1, 1}
	}
}

func (tl Tiling) vec4() mgl32.Vec4 {
	tl.Defaults()
	return mgl32.Vec4{tl.Repeat[0], tl.Repeat[1], tl.Off[0], tl.Off[1]}
}

// linearVec4 returns the color as a linear uniform value.
func linearVec4(c color.Color) mgl32.Vec4 {
	l := gpu.LinearColor(c)
	return mgl32.Vec4{l[0], l[1], l[2], l[3]}
}

// linearVec3 returns the rgb of the color as a linear uniform value.
func linearVec3(c color.Color) mgl32.Vec3 {
	return linearVec4(c).Vec3()
}

// surfaceSource declares the surface color inputs and the albedo function.
func surfaceSource(textured, vertexColors bool) string {
	var b strings.Builder
	b.WriteString("uniform vec4 surfaceColor;\n")
	if vertexColors {
		b.WriteString("in vec4 col;\n")
	}
	if textured {
		b.WriteString("in vec2 uvs;\nuniform sampler2D colorTexture;\nuniform vec4 tiling;\n")
	}
	b.WriteString("\nvec4 albedo() {\n\tvec4 c = surfaceColor;\n")
	if vertexColors {
		b.WriteString("\tc *= col;\n")
	}
	if textured {
		b.WriteString("\tc *= texture(colorTexture, uvs * tiling.xy + tiling.zw);\n")
	}
	b.WriteString("\treturn c;\n}\n")
	return b.String()
}

// uniform is a named uniform value.
type uniform struct {
	name  string
	value any
}

// setUniforms sets the uniforms in order, stopping at the first error.
func setUniforms(p *gpu.Program, us ...uniform) error {
	for _, u := range us {
		if err := p.SetUniform(u.name, u.value); err != nil {
			return err
		}
	}
	return nil
}

// bindSurface sets the uniforms declared by surfaceSource, using
// texture unit 0, and returns the next free unit.
func bindSurface(p *gpu.Program, clr color.RGBA, tex *gpu.Texture, tiling Tiling) (int, error) {
	if err := p.SetUniform("surfaceColor", linearVec4(clr)); err != nil {
		return 0, err
	}
	if tex == nil {
		return 0, nil
	}
	if err := p.SetUniform("tiling", tiling.vec4()); err != nil {
		return 0, err
	}
	return 1, p.SetTexture("colorTexture", 0, tex)
}

// litFragmentSource assembles the fragment shader of a lit material
// from its uniforms and shade function. With no lights the albedo is
// output directly.
func litFragmentSource(uniforms, shade string, lights []*Light, textured, vertexColors bool) string {
	var b strings.Builder
	if len(lights) > 0 {
		b.WriteString("in vec3 pos;\nin vec3 nor;\nuniform vec3 cameraPosition;\n")
	}
	b.WriteString(uniforms)
	b.WriteString(surfaceSource(textured, vertexColors))
	b.WriteString("out vec4 outColor;\n")
	b.WriteString(srgbSource)
	if len(lights) == 0 {
		b.WriteString(`
void main() {
	vec4 c = albedo();
	outColor = vec4(srgbFromLinear(c.rgb + emissive), c.a);
}
`)
		return b.String()
	}
	b.WriteString(shade)
	b.WriteString(lightsShaderSource(lights))
	b.WriteString(`
void main() {
	vec4 c = albedo();
	vec3 normal = normalize(gl_FrontFacing ? nor : -nor);
	vec3 viewDir = normalize(cameraPosition - pos);
	vec3 color = emissive + calculateLighting(normal, viewDir, pos, c);
	outColor = vec4(srgbFromLinear(color), c.a);
}
`)
	return b.String()
}

// cullStates returns the default states with the given culling.
func cullStates(back, front bool) gpu.RenderStates {
	rs := gpu.DefaultRenderStates()
	switch {
	case back && front:
		rs.SetCullMode(gpu.CullFrontAndBack)
	case back:
		rs.SetCullMode(gpu.CullBack)
	case front:
		rs.SetCullMode(gpu.CullFront)
	}
	return rs
}

////////  ColorMaterial

// ColorMaterial draws a surface in a uniform color, optionally multiplied
// by vertex colors and a texture, without lighting.
type ColorMaterial struct {

	// Color is the color of the surface; alpha < 255 makes it transparent.
	Color color.RGBA

	// Texture optionally provides the color of the surface.
	Texture *gpu.Texture

	// Tiling is the texture tiling parameters: repeat and offset.
	Tiling Tiling

	// Transparent forces blending, for textures with transparency.
	Transparent bool
}

// NewColorMaterial returns a material of the given color.
func NewColorMaterial(clr color.RGBA) *ColorMaterial {
	return &ColorMaterial{Color: clr}
}

func (cm *ColorMaterial) FragmentShaderSource(lights []*Light, vertexColors bool) string {
	var b strings.Builder
	b.WriteString(surfaceSource(cm.Texture != nil, vertexColors))
	b.WriteString("out vec4 outColor;\n")
	b.WriteString(srgbSource)
	b.WriteString(`
void main() {
	vec4 c = albedo();
	outColor = vec4(srgbFromLinear(c.rgb), c.a);
}
`)
	return b.String()
}

func (cm *ColorMaterial) Bind(p *gpu.Program, cam *Camera, lights []*Light) error {
	_, err := bindSurface(p, cm.Color, cm.Texture, cm.Tiling)
	return err
}

func (cm *ColorMaterial) RenderStates() gpu.RenderStates { return gpu.DefaultRenderStates() }

func (cm *ColorMaterial) IsTransparent() bool { return cm.Transparent || cm.Color.A < 255 }

////////  PhongMaterial

// PhongMaterial describes the material properties of a surface (colors, shininess, texture)
// i.e., phong lighting parameters.
// Main color is used for both ambient and diffuse color, and alpha component
// is used for opacity.  The Emissive color is only for glowing objects.
// The Specular color is always white (multiplied by light color).
type PhongMaterial struct {

	// Color is the main color of surface, used for both ambient and diffuse color in standard Phong model -- alpha component determines transparency -- note that transparent objects require more complex rendering
	Color color.RGBA

	// Emissive is the color that surface emits independent of any lighting -- i.e., glow -- can be used for marking lights with an object
	Emissive color.RGBA

	// Shiny is the specular shininess factor -- how focally vs. broad the surface shines back directional light -- this is an exponential factor, with 0 = very broad diffuse reflection, and higher values (typically max of 128 or so but can go higher) having a smaller more focal specular reflection.  Also set Reflective factor to change overall shininess effect.
	Shiny float32

	// Reflective is the specular reflectiveness factor -- how much it shines back directional light.  The specular reflection color is always white * the incoming light.
	Reflective float32

	// Bright is an overall multiplier on final computed color value -- can be used to tune the overall brightness of various surfaces relative to each other for a given set of lighting parameters
	Bright float32

	// Texture optionally provides the color of the surface.
	Texture *gpu.Texture

	// Tiling is the texture tiling parameters: repeat and offset.
	Tiling Tiling

	// CullBack indicates to cull the back-facing surfaces.
	CullBack bool

	// CullFront indicates to cull the front-facing surfaces.
	CullFront bool
}

// NewPhongMaterial returns a material of the given color with
// default parameters.
func NewPhongMaterial(clr color.RGBA) *PhongMaterial {
	mt := &PhongMaterial{}
	mt.Defaults()
	mt.Color = clr
	return mt
}

// Defaults sets default surface parameters
func (mt *PhongMaterial) Defaults() {
	mt.Color = color.RGBA{128, 128, 128, 255}
	mt.Emissive = color.RGBA{0, 0, 0, 0}
	mt.Shiny = 30
	mt.Reflective = 1
	mt.Bright = 1
	mt.Tiling.Defaults()
	mt.CullBack = true
}

const phongUniforms = `uniform vec3 emissive;
uniform float shiny;
uniform float reflective;
uniform float bright;
`

const phongShade = `
vec3 shade(vec3 radiance, vec3 lightDir, vec3 normal, vec3 viewDir, vec4 albedo) {
	float diffuse = max(dot(normal, lightDir), 0.0);
	vec3 halfDir = normalize(lightDir + viewDir);
	float specular = diffuse > 0.0 ? reflective * pow(max(dot(normal, halfDir), 0.0), shiny) : 0.0;
	return bright * radiance * (albedo.rgb * diffuse + vec3(specular));
}
`

func (mt *PhongMaterial) FragmentShaderSource(lights []*Light, vertexColors bool) string {
	return litFragmentSource(phongUniforms, phongShade, lights, mt.Texture != nil, vertexColors)
}

func (mt *PhongMaterial) Bind(p *gpu.Program, cam *Camera, lights []*Light) error {
	unit, err := bindSurface(p, mt.Color, mt.Texture, mt.Tiling)
	if err != nil {
		return err
	}
	err = setUniforms(p,
		uniform{"emissive", linearVec3(mt.Emissive)},
		uniform{"shiny", mt.Shiny},
		uniform{"reflective", mt.Reflective},
		uniform{"bright", mt.Bright},
		uniform{"cameraPosition", cam.Position()},
	)
	if err != nil {
		return err
	}
	return bindLights(p, lights, unit)
}

func (mt *PhongMaterial) RenderStates() gpu.RenderStates { return cullStates(mt.CullBack, mt.CullFront) }

func (mt *PhongMaterial) IsTransparent() bool { return mt.Color.A < 255 }

////////  PhysicalMaterial

// PhysicalMaterial is a metallic / roughness physically based material.
type PhysicalMaterial struct {

	// Albedo is the base color of the surface; alpha < 255 makes it transparent.
	Albedo color.RGBA

	// Metallic is how metallic the surface is, 0-1.
	Metallic float32

	// Roughness is how rough the surface is, 0-1: 0 is a mirror.
	Roughness float32

	// Emissive is the color the surface emits independent of lighting.
	Emissive color.RGBA

	// AlbedoTexture optionally multiplies the albedo.
	AlbedoTexture *gpu.Texture

	// Tiling is the texture tiling parameters: repeat and offset.
	Tiling Tiling

	// CullBack indicates to cull the back-facing surfaces.
	CullBack bool
}

// NewPhysicalMaterial returns a dielectric material of the given albedo
// and roughness.
func NewPhysicalMaterial(albedo color.RGBA, roughness float32) *PhysicalMaterial {
	return &PhysicalMaterial{Albedo: albedo, Roughness: roughness, CullBack: true}
}

const physicalUniforms = `uniform vec3 emissive;
uniform float metallic;
uniform float roughness;
`

// Cook-Torrance with GGX distribution, Schlick-GGX geometry and
// Schlick Fresnel terms.
const physicalShade = `
const float PI = 3.14159265359;

vec3 shade(vec3 radiance, vec3 l, vec3 n, vec3 v, vec4 albedo) {
	vec3 h = normalize(l + v);
	float nl = max(dot(n, l), 0.0);
	float nv = max(dot(n, v), 1e-4);
	float nh = max(dot(n, h), 0.0);
	float a = roughness * roughness;
	float a2 = a * a;
	float d = nh * nh * (a2 - 1.0) + 1.0;
	float ndf = a2 / (PI * d * d);
	float k = (roughness + 1.0) * (roughness + 1.0) / 8.0;
	float g = nl / (nl * (1.0 - k) + k) * nv / (nv * (1.0 - k) + k);
	vec3 f0 = mix(vec3(0.04), albedo.rgb, metallic);
	vec3 f = f0 + (1.0 - f0) * pow(1.0 - max(dot(h, v), 0.0), 5.0);
	vec3 specular = ndf * g * f / (4.0 * nv * max(nl, 1e-4));
	vec3 kd = (vec3(1.0) - f) * (1.0 - metallic);
	return (kd * albedo.rgb / PI + specular) * radiance * nl;
}
`

func (mt *PhysicalMaterial) FragmentShaderSource(lights []*Light, vertexColors bool) string {
	return litFragmentSource(physicalUniforms, physicalShade, lights, mt.AlbedoTexture != nil, vertexColors)
}

func (mt *PhysicalMaterial) Bind(p *gpu.Program, cam *Camera, lights []*Light) error {
	unit, err := bindSurface(p, mt.Albedo, mt.AlbedoTexture, mt.Tiling)
	if err != nil {
		return err
	}
	err = setUniforms(p,
		uniform{"emissive", linearVec3(mt.Emissive)},
		uniform{"metallic", min(max(mt.Metallic, 0), 1)},
		uniform{"roughness", min(max(mt.Roughness, .02), 1)},
		uniform{"cameraPosition", cam.Position()},
	)
	if err != nil {
		return err
	}
	return bindLights(p, lights, unit)
}

func (mt *PhysicalMaterial) RenderStates() gpu.RenderStates { return cullStates(mt.CullBack, false) }

func (mt *PhysicalMaterial) IsTransparent() bool { return mt.Albedo.A < 255 }

////////  DepthMaterial

// DepthMaterial writes the depth of the surface, and outputs it as a
// gray level. It renders the shadow maps.
type DepthMaterial struct{}

func (dm *DepthMaterial) FragmentShaderSource(lights []*Light, vertexColors bool) string {
	return `out vec4 outColor;

void main() {
	outColor = vec4(vec3(gl_FragCoord.z), 1.0);
}
`
}

func (dm *DepthMaterial) Bind(p *gpu.Program, cam *Camera, lights []*Light) error { return nil }

// RenderStates writes depth only.
func (dm *DepthMaterial) RenderStates() gpu.RenderStates {
	rs := gpu.DefaultRenderStates()
	rs.Write = gpu.WriteDepth
	return rs
}

func (dm *DepthMaterial) IsTransparent() bool { return false }

////////  NormalMaterial

// NormalMaterial shows the world space normal of the surface as a color.
type NormalMaterial struct{}

func (nm *NormalMaterial) FragmentShaderSource(lights []*Light, vertexColors bool) string {
	return `in vec3 nor;
out vec4 outColor;

void main() {
	outColor = vec4(normalize(nor) * 0.5 + 0.5, 1.0);
}
`
}

func (nm *NormalMaterial) Bind(p *gpu.Program, cam *Camera, lights []*Light) error { return nil }

func (nm *NormalMaterial) RenderStates() gpu.RenderStates { return gpu.DefaultRenderStates() }

func (nm *NormalMaterial) IsTransparent() bool { return false }
