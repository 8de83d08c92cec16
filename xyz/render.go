// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xyz

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"cogentcore.org/render/base/errors"
	"cogentcore.org/render/gpu"
	"cogentcore.org/render/math32"
	"github.com/google/uuid"
)

// Passes are the passes of a frame.
type Passes int32

const (
	// ShadowPass renders the shadow map of a light.
	ShadowPass Passes = iota

	// MainPass renders the objects into the render target.
	MainPass

	// GeometryPass renders the surfaces into the geometry buffer
	// of a [DeferredRenderer].
	GeometryPass
)

func (ps Passes) String() string {
	switch ps {
	case ShadowPass:
		return "shadow"
	case GeometryPass:
		return "geometry"
	}
	return "main"
}

// ObjectError is the failure of one object in a frame.
type ObjectError struct {
	ID   uuid.UUID
	Name string
	Pass Passes
	Err  error
}

func (oe ObjectError) Error() string {
	return fmt.Sprintf("xyz: %s pass: object %q (%s): %v", oe.Pass, oe.Name, oe.ID, oe.Err)
}

func (oe ObjectError) Unwrap() error { return oe.Err }

// FrameReport describes what happened in a frame.
type FrameReport struct {

	// Drawn is the number of objects drawn in the main or geometry pass.
	Drawn int

	// Culled is the number of objects outside of the view frustum.
	Culled int

	// ShadowPasses is the number of shadow maps rendered.
	ShadowPasses int

	// Failed are the objects that could not be drawn, which did not
	// prevent the others from being drawn.
	Failed []ObjectError
}

// Err returns the failures joined, or nil.
func (fr *FrameReport) Err() error {
	errs := make([]error, len(fr.Failed))
	for i, f := range fr.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Renderer draws frames on a [gpu.Context].
type Renderer struct {

	// Clear is applied to the render target at the start of each frame.
	Clear gpu.ClearState

	// FrustumCulling skips the objects that are outside of the view frustum.
	FrustumCulling bool

	// MaxLights is the maximum number of lights; the others are ignored.
	MaxLights int

	ctx   *gpu.Context
	depth DepthMaterial
}

// NewRenderer returns a renderer configured from the context [gpu.Config].
func NewRenderer(ctx *gpu.Context) *Renderer {
	r := &Renderer{ctx: ctx}
	r.SetConfig(&ctx.Config)
	return r
}

// SetConfig applies the frame settings of the config: clear color,
// frustum culling and max lights.
func (r *Renderer) SetConfig(cf *gpu.Config) {
	c := cf.ClearColor
	r.Clear = gpu.ClearColorAndDepth(c[0], c[1], c[2], c[3], 1)
	r.FrustumCulling = cf.FrustumCulling
	r.MaxLights = cf.MaxLights
}

// Context returns the context of the renderer.
func (r *Renderer) Context() *gpu.Context { return r.ctx }

// drawItem is an object to draw, with its sort distance.
type drawItem struct {
	obj  Renderable
	dist float32
}

// Render draws the objects lit by the lights as seen by the camera into
// the target. The camera viewport must have the size of the target, else
// [gpu.ErrViewportMismatch] is returned and nothing is drawn.
//
// Shadow maps are rendered first. Then opaque objects are drawn front to
// back with depth test and depth write, and transparent objects back to
// front by the distance from the camera to their centroid, with depth write
// off and blending on. Objects at equal distance keep their order in objects.
//
// An object that fails (e.g. its shader does not compile) is recorded in the
// returned report and the others are still drawn. A lost context aborts the
// frame with [gpu.ErrContextLost].
func (r *Renderer) Render(cam *Camera, lights []*Light, objects []Renderable, target *gpu.RenderTarget) (*FrameReport, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	if cam.Viewport.Size() != target.Size() {
		return nil, fmt.Errorf("%w: camera viewport %s, render target %v", gpu.ErrViewportMismatch, cam.Viewport, target.Size())
	}
	report := &FrameReport{}
	lights = r.activeLights(lights)
	opaque, transparent := r.collect(cam, objects, report)

	if err := r.renderShadows(lights, objects, report); err != nil {
		return report, err
	}

	err := target.Write(r.Clear, func() error {
		if err := r.drawItems(report, opaque, false, cam, lights); err != nil {
			return err
		}
		return r.drawItems(report, transparent, true, cam, lights)
	})
	if err != nil {
		return report, err
	}
	if gpu.Debug {
		slog.Info("xyz: frame", "drawn", report.Drawn, "culled", report.Culled, "shadowPasses", report.ShadowPasses, "failed", len(report.Failed))
	}
	return report, nil
}

// collect returns the visible objects to draw: the opaque ones front to
// back, and the transparent ones back to front. Objects that cannot be
// drawn are recorded in the report.
func (r *Renderer) collect(cam *Camera, objects []Renderable, report *FrameReport) (opaque, transparent []drawItem) {
	for _, obj := range objects {
		ob := obj.AsObject()
		if ob.Hidden {
			continue
		}
		if ob.Geometry == nil || ob.Material == nil {
			r.fail(report, ob, MainPass, errors.New("object has no geometry or material"))
			continue
		}
		if _, n := obj.instances(); n == 0 {
			continue
		}
		box := obj.AABB()
		if r.FrustumCulling && !cam.InFrustum(box) {
			report.Culled++
			continue
		}
		it := drawItem{obj: obj, dist: cam.DistanceTo(box.Center())}
		if ob.Material.IsTransparent() {
			transparent = append(transparent, it)
		} else {
			opaque = append(opaque, it)
		}
	}
	// front to back for early depth rejection
	slices.SortStableFunc(opaque, func(a, b drawItem) int { return cmp.Compare(a.dist, b.dist) })
	slices.SortStableFunc(transparent, func(a, b drawItem) int { return cmp.Compare(b.dist, a.dist) })
	return opaque, transparent
}

// drawItems draws the items with their materials into the bound target:
// opaque items with depth write and no blending, transparent ones with
// blending and no depth write.
func (r *Renderer) drawItems(report *FrameReport, items []drawItem, transparent bool, cam *Camera, lights []*Light) error {
	for _, it := range items {
		mat := it.obj.AsObject().Material
		states := mat.RenderStates()
		if transparent {
			states.SetDepthWrite(false).SetBlend(gpu.TransparencyBlend)
		} else {
			states.SetDepthWrite(true).SetBlend(gpu.NoBlend)
		}
		if err := r.drawOrRecord(report, it.obj, mat, MainPass, cam, lights, states, cam.Viewport); err != nil {
			return err
		}
	}
	return nil
}

// activeLights returns the lights that are on, up to MaxLights.
func (r *Renderer) activeLights(lights []*Light) []*Light {
	var on []*Light
	for _, lt := range lights {
		if lt != nil && lt.On {
			on = append(on, lt)
		}
	}
	if r.MaxLights > 0 && len(on) > r.MaxLights {
		slog.Warn("xyz: too many lights, ignoring the last ones", "lights", len(on), "max", r.MaxLights)
		on = on[:r.MaxLights]
	}
	return on
}

// renderShadows renders the shadow map of each light that casts shadows,
// from the opaque objects that cast shadows.
func (r *Renderer) renderShadows(lights []*Light, objects []Renderable, report *FrameReport) error {
	var casters []Renderable
	box := math32.B3Empty()
	for _, obj := range objects {
		ob := obj.AsObject()
		if ob.Hidden || !ob.CastShadows || ob.Geometry == nil || ob.Material == nil || ob.Material.IsTransparent() {
			continue
		}
		if _, n := obj.instances(); n == 0 {
			continue
		}
		casters = append(casters, obj)
		box.ExpandByBox(obj.AABB())
	}
	for _, lt := range lights {
		sm := lt.ShadowMap()
		if sm == nil {
			continue
		}
		if !box.IsEmpty() {
			sm.update(lt, box)
		}
		cam := sm.lightCamera(lt)
		err := sm.target.Write(gpu.ClearOnlyDepth(1), func() error {
			states := r.depth.RenderStates()
			for _, obj := range casters {
				if err := r.drawOrRecord(report, obj, &r.depth, ShadowPass, cam, nil, states, cam.Viewport); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		report.ShadowPasses++
	}
	return nil
}

// drawOrRecord draws the object with the material, recording a failure
// in the report. Only a lost context is returned.
func (r *Renderer) drawOrRecord(report *FrameReport, obj Renderable, mat Material, pass Passes, cam *Camera, lights []*Light, states gpu.RenderStates, vp gpu.Viewport) error {
	err := r.draw(obj, mat, cam, lights, states, vp)
	if err == nil {
		if pass != ShadowPass {
			report.Drawn++
		}
		return nil
	}
	if errors.Is(err, gpu.ErrContextLost) {
		return err
	}
	r.fail(report, obj.AsObject(), pass, err)
	return nil
}

func (r *Renderer) fail(report *FrameReport, ob *Object, pass Passes, err error) {
	oe := ObjectError{ID: ob.ID, Name: ob.Name, Pass: pass, Err: err}
	slog.Error(oe.Error())
	report.Failed = append(report.Failed, oe)
}

// draw draws one object with the material.
func (r *Renderer) draw(obj Renderable, mat Material, cam *Camera, lights []*Light, states gpu.RenderStates, vp gpu.Viewport) error {
	ob := obj.AsObject()
	geom := ob.Geometry
	buf, n := obj.instances()
	fs := mat.FragmentShaderSource(lights, geom.HasColors())
	vs := vertexShaderSource(fs, buf != nil)
	p, err := r.ctx.Programs().GetOrBuild(vs, fs)
	if err != nil {
		return err
	}
	err = setUniforms(p,
		uniform{"viewProjection", cam.ViewProjection()},
		uniform{"cameraPosition", cam.Position()},
		uniform{"modelMatrix", ob.Transform},
		uniform{"normalMatrix", math32.NormalMatrix(ob.Transform)},
	)
	if err != nil {
		return err
	}
	if err := mat.Bind(p, cam, lights); err != nil {
		return err
	}
	if err := geom.bind(p); err != nil {
		return err
	}
	if buf != nil {
		if err := p.SetInstanceAttribute(InstanceAttribute, buf); err != nil {
			return err
		}
	}
	return geom.draw(p, states, vp, n)
}
