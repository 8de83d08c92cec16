// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"fmt"
	"strings"
)

// varyings are the fragment shader inputs that the vertex shader
// provides, and the define that enables each.
var varyings = []struct {
	decl   string
	define string
}{
	{"in vec3 pos;", "USE_POSITIONS"},
	{"in vec3 nor;", "USE_NORMALS"},
	{"in vec2 uvs;", "USE_UVS"},
	{"in vec4 col;", "USE_COLORS"},
}

// vertexShaderSource returns the vertex shader that provides the
// inputs declared by the fragment shader source.
func vertexShaderSource(fragmentSource string, instanced bool) string {
	var b strings.Builder
	for _, v := range varyings {
		if strings.Contains(fragmentSource, v.decl) {
			b.WriteString("#define " + v.define + "\n")
		}
	}
	if instanced {
		b.WriteString("#define USE_INSTANCING\n")
	}
	b.WriteString(vertexShaderBody)
	return b.String()
}

const vertexShaderBody = `
uniform mat4 viewProjection;
uniform mat4 modelMatrix;
uniform mat3 normalMatrix;

in vec3 position;
#ifdef USE_INSTANCING
in mat4 instanceMatrix;
#endif
#ifdef USE_POSITIONS
out vec3 pos;
#endif
#ifdef USE_NORMALS
in vec3 normal;
out vec3 nor;
#endif
#ifdef USE_UVS
in vec2 uv;
out vec2 uvs;
#endif
#ifdef USE_COLORS
in vec4 color;
out vec4 col;
#endif

void main() {
#ifdef USE_INSTANCING
	mat4 model = modelMatrix * instanceMatrix;
#else
	mat4 model = modelMatrix;
#endif
	vec4 world = model * vec4(position, 1.0);
	gl_Position = viewProjection * world;
#ifdef USE_POSITIONS
	pos = world.xyz;
#endif
#ifdef USE_NORMALS
#ifdef USE_INSTANCING
	nor = normalize(transpose(inverse(mat3(model))) * normal);
#else
	nor = normalize(normalMatrix * normal);
#endif
#endif
#ifdef USE_UVS
	uvs = uv;
#endif
#ifdef USE_COLORS
	col = color;
#endif
}
`

// srgbSource converts the linear output color for display.
const srgbSource = `
vec3 srgbFromLinear(vec3 rgb) {
	vec3 a = 12.92 * rgb;
	vec3 b = 1.055 * pow(rgb, vec3(1.0 / 2.4)) - 0.055;
	return mix(a, b, step(vec3(0.0031308), rgb));
}
`

// shadowSource samples a shadow map with 3x3 percentage closer filtering.
const shadowSource = `
float shadowFactor(sampler2D shadowMap, mat4 shadowMatrix, vec3 worldPos) {
	vec4 p = shadowMatrix * vec4(worldPos, 1.0);
	vec3 c = p.xyz / p.w * 0.5 + 0.5;
	if (c.z > 1.0) {
		return 1.0;
	}
	vec2 texel = 1.0 / vec2(textureSize(shadowMap, 0));
	float lit = 0.0;
	for (int x = -1; x <= 1; x++) {
		for (int y = -1; y <= 1; y++) {
			float d = texture(shadowMap, c.xy + vec2(x, y) * texel).r;
			lit += c.z - 0.002 > d ? 0.0 : 1.0;
		}
	}
	return lit / 9.0;
}
`

// lightShaderSource returns the uniforms and the calculateLight<index>
// function for a light of the given kind. The function returns the
// light reflected toward the viewer, using the material shade function.
func lightShaderSource(kind LightKinds, index int, shadows bool) string {
	i := fmt.Sprint(index)
	var b strings.Builder
	b.WriteString("\nuniform vec3 lightColor" + i + ";\n")
	switch kind {
	case Directional:
		b.WriteString("uniform vec3 lightDirection" + i + ";\n")
	case Point:
		b.WriteString("uniform vec3 lightPosition" + i + ";\n")
		b.WriteString("uniform vec3 lightAttenuation" + i + ";\n")
	case Spot:
		b.WriteString("uniform vec3 lightPosition" + i + ";\n")
		b.WriteString("uniform vec3 lightDirection" + i + ";\n")
		b.WriteString("uniform vec3 lightAttenuation" + i + ";\n")
		b.WriteString("uniform vec2 lightSpot" + i + ";\n")
	}
	shadows = shadows && (kind == Directional || kind == Spot)
	if shadows {
		b.WriteString("uniform sampler2D shadowMap" + i + ";\n")
		b.WriteString("uniform mat4 shadowMatrix" + i + ";\n")
	}
	b.WriteString("vec3 calculateLight" + i + "(vec3 normal, vec3 viewDir, vec3 worldPos, vec4 albedo) {\n")
	shadow := ""
	if shadows {
		shadow = "\tradiance *= shadowFactor(shadowMap" + i + ", shadowMatrix" + i + ", worldPos);\n"
	}
	switch kind {
	case Ambient:
		b.WriteString("\treturn lightColor" + i + " * albedo.rgb;\n")
	case Directional:
		b.WriteString("\tvec3 radiance = lightColor" + i + ";\n")
		b.WriteString(shadow)
		b.WriteString("\treturn shade(radiance, -lightDirection" + i + ", normal, viewDir, albedo);\n")
	case Point:
		b.WriteString("\tvec3 toLight = lightPosition" + i + " - worldPos;\n")
		b.WriteString("\tfloat dist = length(toLight);\n")
		b.WriteString("\tvec3 radiance = lightColor" + i + " / dot(lightAttenuation" + i + ", vec3(1.0, dist, dist * dist));\n")
		b.WriteString("\treturn shade(radiance, toLight / dist, normal, viewDir, albedo);\n")
	case Spot:
		b.WriteString("\tvec3 toLight = lightPosition" + i + " - worldPos;\n")
		b.WriteString("\tfloat dist = length(toLight);\n")
		b.WriteString("\tvec3 l = toLight / dist;\n")
		b.WriteString("\tfloat cosAngle = dot(-l, lightDirection" + i + ");\n")
		b.WriteString("\tif (cosAngle < lightSpot" + i + ".x) {\n\t\treturn vec3(0.0);\n\t}\n")
		b.WriteString("\tvec3 radiance = lightColor" + i + " * pow(cosAngle, lightSpot" + i + ".y) / dot(lightAttenuation" + i + ", vec3(1.0, dist, dist * dist));\n")
		b.WriteString(shadow)
		b.WriteString("\treturn shade(radiance, l, normal, viewDir, albedo);\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// lightsShaderSource returns one light block per light, in order,
// and the calculateLighting function that sums them.
func lightsShaderSource(lights []*Light) string {
	var b strings.Builder
	for _, lt := range lights {
		if lt.CastsShadows() {
			b.WriteString(shadowSource)
			break
		}
	}
	for i, lt := range lights {
		b.WriteString(lightShaderSource(lt.Kind, i, lt.CastsShadows()))
	}
	b.WriteString("\nvec3 calculateLighting(vec3 normal, vec3 viewDir, vec3 worldPos, vec4 albedo) {\n")
	b.WriteString("\tvec3 color = vec3(0.0);\n")
	for i := range lights {
		fmt.Fprintf(&b, "\tcolor += calculateLight%d(normal, viewDir, worldPos, albedo);\n", i)
	}
	b.WriteString("\treturn color;\n}\n")
	return b.String()
}
