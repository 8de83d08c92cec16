// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"strings"
)

// FullScreenVertexSource is the vertex shader of [Effect]: one triangle
// covering the viewport, generated from the vertex index, with uvs
// going from 0 to 1 across the viewport.
const FullScreenVertexSource = `
out vec2 uvs;
void main() {
	uvs = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
	gl_Position = vec4(uvs * 2.0 - 1.0, 0.0, 1.0);
}
`

// Effect is a full-screen pass running a fragment shader over every pixel
// of the viewport, e.g. for copying, tone mapping or blurring.
// The fragment source reads `in vec2 uvs;`.
type Effect struct {
	FragmentSource string
	ctx            *Context
}

// NewEffect returns an effect for the given fragment shader.
func NewEffect(ctx *Context, fragmentSource string) *Effect {
	return &Effect{FragmentSource: fragmentSource, ctx: ctx}
}

// Apply draws the effect with the given states into the viewport of the
// bound render target. bind is called to set uniforms and textures.
func (ef *Effect) Apply(states RenderStates, vp Viewport, bind func(p *Program) error) error {
	p, err := ef.ctx.programs.GetOrBuild(FullScreenVertexSource, ef.FragmentSource)
	if err != nil {
		return err
	}
	if bind != nil {
		if err := bind(p); err != nil {
			return err
		}
	}
	return p.DrawArrays(states, vp, 3)
}

// copyFragmentSource returns the fragment shader copying color and/or depth.
func copyFragmentSource(color, depth bool) string {
	var b strings.Builder
	b.WriteString("in vec2 uvs;\n")
	if color {
		b.WriteString("uniform sampler2D colorMap;\nlayout (location = 0) out vec4 outColor;\n")
	}
	if depth {
		b.WriteString("uniform sampler2D depthMap;\n")
	}
	b.WriteString("void main() {\n")
	if color {
		b.WriteString("\toutColor = texture(colorMap, uvs);\n")
	}
	if depth {
		b.WriteString("\tgl_FragDepth = texture(depthMap, uvs).r;\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// CopyFrom copies the color and/or depth texture into the viewport of the
// target, writing only what the mask allows. Either texture can be nil.
func (rt *RenderTarget) CopyFrom(color, depth *Texture, vp Viewport, mask WriteMask) error {
	if color == nil && depth == nil {
		return fmt.Errorf("%w: nothing to copy", ErrMissingAttribute)
	}
	ef := NewEffect(rt.ctx, copyFragmentSource(color != nil, depth != nil))
	states := RenderStates{Write: mask, Depth: DepthAlways}
	return rt.WriteViewport(vp, ClearNone(), func() error {
		return ef.Apply(states, vp, func(p *Program) error {
			if color != nil {
				if err := p.SetTexture("colorMap", 0, color); err != nil {
					return err
				}
			}
			if depth != nil {
				return p.SetTexture("depthMap", 1, depth)
			}
			return nil
		})
	})
}
