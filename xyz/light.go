// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"fmt"
	"image/color"

	"cogentcore.org/render/gpu"
	cmath "github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightKinds are the kinds of [Light].
type LightKinds int32

const (
	// Ambient light illuminates everything uniformly.
	Ambient LightKinds = iota

	// Directional light shines from its position toward its target
	// with no attenuation, like the Sun.
	Directional

	// Point light shines in all directions from its position,
	// attenuated with distance.
	Point

	// Spot light shines from its position toward its target within a
	// cone, attenuated with distance and angle.
	Spot
)

func (lk LightKinds) String() string {
	switch lk {
	case Ambient:
		return "Ambient"
	case Directional:
		return "Directional"
	case Point:
		return "Point"
	case Spot:
		return "Spot"
	}
	return fmt.Sprintf("LightKinds(%d)", int32(lk))
}

// Light is a light that illuminates a scene. It is one of the
// [LightKinds]; the fields that do not apply to its kind are ignored.
type Light struct {

	// Kind is the kind of light.
	Kind LightKinds

	// Name is the name of the light.
	Name string

	// On is whether the light is turned on.
	On bool

	// Lumens is the brightness/intensity/strength of the light in normalized 0-1 units.
	// It is just multiplied by the color, and is convenient for easily modulating overall brightness.
	Lumens float32

	// Color is the color of the light at full intensity.
	Color color.RGBA

	// Pos is the position of the light in world coordinates.
	// A directional light only uses the direction from Pos to Target.
	Pos mgl32.Vec3

	// Target is the point the directional or spot light shines toward.
	Target mgl32.Vec3

	// LinDecay is the distance linear decay factor.
	LinDecay float32

	// QuadDecay is the distance quadratic decay factor; it dominates at longer distances.
	QuadDecay float32

	// AngDecay is the angular decay exponent of a spot light.
	AngDecay float32

	// CutoffAngle is the half angle of the cone of a spot light,
	// in degrees, max of 90.
	CutoffAngle float32

	shadow *ShadowMap
}

// NewAmbientLight returns an ambient light with the given standard
// color and lumens (0-1 normalized).
func NewAmbientLight(name string, lumens float32, clr LightColors) *Light {
	return &Light{Kind: Ambient, Name: name, On: true, Lumens: lumens, Color: LightColorMap[clr]}
}

// NewDirLight returns a directional light with the given standard color
// and lumens (0-1 normalized). By default it is located overhead and
// toward the default camera (0, 1, 1), pointing at the origin.
func NewDirLight(name string, lumens float32, clr LightColors) *Light {
	return &Light{Kind: Directional, Name: name, On: true, Lumens: lumens, Color: LightColorMap[clr], Pos: mgl32.Vec3{0, 1, 1}}
}

// NewPointLight returns a point light with the given standard color
// and lumens (0-1 normalized). By default it is located at 0,5,5
// (up and between default camera and origin).
func NewPointLight(name string, lumens float32, clr LightColors) *Light {
	return &Light{Kind: Point, Name: name, On: true, Lumens: lumens, Color: LightColorMap[clr],
		Pos: mgl32.Vec3{0, 5, 5}, LinDecay: .1, QuadDecay: .01}
}

// NewSpotLight returns a spot light with the given standard color and
// lumens (0-1 normalized). By default it is located at 0,2,5 and
// pointing at the origin.
func NewSpotLight(name string, lumens float32, clr LightColors) *Light {
	return &Light{Kind: Spot, Name: name, On: true, Lumens: lumens, Color: LightColorMap[clr],
		Pos: mgl32.Vec3{0, 2, 5}, AngDecay: 15, CutoffAngle: 45, LinDecay: .01, QuadDecay: .001}
}

// Direction returns the unit vector the light shines along.
func (lt *Light) Direction() mgl32.Vec3 {
	d := lt.Target.Sub(lt.Pos)
	if d.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}

// LookAt points a directional or spot light at the target.
func (lt *Light) LookAt(target mgl32.Vec3) {
	lt.Target = target
}

// Radiance returns the linear light color multiplied by Lumens.
func (lt *Light) Radiance() mgl32.Vec3 {
	c := gpu.LinearColor(lt.Color)
	return mgl32.Vec3{c[0], c[1], c[2]}.Mul(lt.Lumens)
}

// CastsShadows returns true if shadows have been enabled on the light.
func (lt *Light) CastsShadows() bool { return lt.shadow != nil }

// ShadowMap returns the shadow map of the light, or nil.
func (lt *Light) ShadowMap() *ShadowMap { return lt.shadow }

// EnableShadows makes a directional or spot light cast shadows into a
// square depth map of the given size. The size cannot be changed once
// the map exists: a different size is a [gpu.ErrSizeMismatch] error.
func (lt *Light) EnableShadows(ctx *gpu.Context, size int) error {
	if lt.Kind != Directional && lt.Kind != Spot {
		return fmt.Errorf("xyz: %s light %q cannot cast shadows", lt.Kind, lt.Name)
	}
	if lt.shadow != nil {
		if lt.shadow.Size() != size {
			return fmt.Errorf("%w: shadow map of light %q is %d, not %d", gpu.ErrSizeMismatch, lt.Name, lt.shadow.Size(), size)
		}
		return nil
	}
	sm, err := newShadowMap(ctx, size)
	if err != nil {
		return err
	}
	lt.shadow = sm
	return nil
}

// DisableShadows releases the shadow map of the light.
func (lt *Light) DisableShadows() {
	if lt.shadow != nil {
		lt.shadow.Release()
		lt.shadow = nil
	}
}

// bindLight sets the uniforms of light i, using texture unit for the
// shadow map if it has one; it returns the next free unit.
func bindLight(p *gpu.Program, i int, lt *Light, unit int) (int, error) {
	set := func(name string, v any) error {
		return p.SetUniform(fmt.Sprintf("%s%d", name, i), v)
	}
	if err := set("lightColor", lt.Radiance()); err != nil {
		return unit, err
	}
	var errs []error
	switch lt.Kind {
	case Directional:
		errs = append(errs, set("lightDirection", lt.Direction()))
	case Point:
		errs = append(errs,
			set("lightPosition", lt.Pos),
			set("lightAttenuation", mgl32.Vec3{1, lt.LinDecay, lt.QuadDecay}))
	case Spot:
		cutoff := cmath.Cos(mgl32.DegToRad(min(lt.CutoffAngle, 90)))
		errs = append(errs,
			set("lightPosition", lt.Pos),
			set("lightDirection", lt.Direction()),
			set("lightAttenuation", mgl32.Vec3{1, lt.LinDecay, lt.QuadDecay}),
			set("lightSpot", mgl32.Vec2{cutoff, lt.AngDecay}))
	}
	for _, err := range errs {
		if err != nil {
			return unit, err
		}
	}
	if lt.shadow == nil {
		return unit, nil
	}
	if err := set("shadowMatrix", lt.shadow.matrix); err != nil {
		return unit, err
	}
	if err := p.SetTexture(fmt.Sprintf("shadowMap%d", i), unit, lt.shadow.Texture()); err != nil {
		return unit, err
	}
	return unit + 1, nil
}

// bindLights sets the uniforms of all the lights, starting shadow map
// textures at the given unit.
func bindLights(p *gpu.Program, lights []*Light, unit int) error {
	var err error
	for i, lt := range lights {
		if unit, err = bindLight(p, i, lt, unit); err != nil {
			return fmt.Errorf("light %d %q: %w", i, lt.Name, err)
		}
	}
	return nil
}

////////  Standard Light Colors

// http://planetpixelemporium.com/tutorialpages/light.html

// LightColors are standard light colors for different light sources
type LightColors int32

const (
	DirectSun LightColors = iota
	CarbonArc
	Halogen
	Tungsten100W
	Tungsten40W
	Candle
	Overcast
	FluorWarm
	FluorStd
	FluorCool
	FluorFull
	FluorGrow
	MercuryVapor
	SodiumVapor
	MetalHalide
)

// LightColorMap provides a map of named light colors
var LightColorMap = map[LightColors]color.RGBA{
	DirectSun:    {255, 255, 255, 255},
	CarbonArc:    {255, 250, 244, 255},
	Halogen:      {255, 241, 224, 255},
	Tungsten100W: {255, 214, 170, 255},
	Tungsten40W:  {255, 197, 143, 255},
	Candle:       {255, 147, 41, 255},
	Overcast:     {201, 226, 255, 255},
	FluorWarm:    {255, 244, 229, 255},
	FluorStd:     {244, 255, 250, 255},
	FluorCool:    {212, 235, 255, 255},
	FluorFull:    {255, 244, 242, 255},
	FluorGrow:    {255, 239, 247, 255},
	MercuryVapor: {216, 247, 255, 255},
	SodiumVapor:  {255, 209, 178, 255},
	MetalHalide:  {242, 252, 255, 255},
}
