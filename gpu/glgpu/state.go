// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !js

package glgpu

import (
	"fmt"

	"cogentcore.org/render/gpu"
	"github.com/go-gl/gl/v3.3-core/gl"
)

var depthFuncs = map[gpu.DepthTests]uint32{
	gpu.DepthLess:         gl.LESS,
	gpu.DepthLessEqual:    gl.LEQUAL,
	gpu.DepthEqual:        gl.EQUAL,
	gpu.DepthGreater:      gl.GREATER,
	gpu.DepthGreaterEqual: gl.GEQUAL,
	gpu.DepthNotEqual:     gl.NOTEQUAL,
	gpu.DepthAlways:       gl.ALWAYS,
	gpu.DepthNever:        gl.NEVER,
}

var blendFactors = map[gpu.BlendFactors]uint32{
	gpu.BlendZero:             gl.ZERO,
	gpu.BlendOne:              gl.ONE,
	gpu.BlendSrcColor:         gl.SRC_COLOR,
	gpu.BlendOneMinusSrcColor: gl.ONE_MINUS_SRC_COLOR,
	gpu.BlendDstColor:         gl.DST_COLOR,
	gpu.BlendOneMinusDstColor: gl.ONE_MINUS_DST_COLOR,
	gpu.BlendSrcAlpha:         gl.SRC_ALPHA,
	gpu.BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	gpu.BlendDstAlpha:         gl.DST_ALPHA,
	gpu.BlendOneMinusDstAlpha: gl.ONE_MINUS_DST_ALPHA,
}

var blendEquations = map[gpu.BlendEquations]uint32{
	gpu.BlendAdd:             gl.FUNC_ADD,
	gpu.BlendSubtract:        gl.FUNC_SUBTRACT,
	gpu.BlendReverseSubtract: gl.FUNC_REVERSE_SUBTRACT,
	gpu.BlendMin:             gl.MIN,
	gpu.BlendMax:             gl.MAX,
}

func enable(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func (d *Device) SetRenderStates(rs gpu.RenderStates) {
	wm := rs.Write
	gl.ColorMask(wm.Has(gpu.WriteRed), wm.Has(gpu.WriteGreen), wm.Has(gpu.WriteBlue), wm.Has(gpu.WriteAlpha))
	gl.DepthMask(wm.Has(gpu.WriteDepth))

	// GL skips depth writes too when the test is disabled
	depthTest := rs.Depth != gpu.DepthAlways || wm.Has(gpu.WriteDepth)
	enable(gl.DEPTH_TEST, depthTest)
	if depthTest {
		gl.DepthFunc(depthFuncs[rs.Depth])
	}

	enable(gl.CULL_FACE, rs.Cull != gpu.CullNone)
	switch rs.Cull {
	case gpu.CullBack:
		gl.CullFace(gl.BACK)
	case gpu.CullFront:
		gl.CullFace(gl.FRONT)
	case gpu.CullFrontAndBack:
		gl.CullFace(gl.FRONT_AND_BACK)
	}

	bl := rs.Blend
	enable(gl.BLEND, bl.Enabled)
	if bl.Enabled {
		gl.BlendFuncSeparate(blendFactors[bl.SourceRGB], blendFactors[bl.DestRGB], blendFactors[bl.SourceAlpha], blendFactors[bl.DestAlpha])
		gl.BlendEquationSeparate(blendEquations[bl.RGBEquation], blendEquations[bl.AlphaEquation])
	}
}

func (d *Device) SetViewport(vp gpu.Viewport) {
	gl.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
}

func (d *Device) Clear(cs gpu.ClearState) {
	var mask uint32
	if cs.ClearColor {
		gl.ClearColor(cs.Color[0], cs.Color[1], cs.Color[2], cs.Color[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if cs.ClearDepth {
		gl.ClearDepth(float64(cs.Depth))
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) DrawArrays(count, instances int) error {
	if instances > 1 {
		gl.DrawArraysInstanced(gl.TRIANGLES, 0, int32(count), int32(instances))
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, int32(count))
	}
	return d.glError("DrawArrays")
}

func (d *Device) DrawElements(indices gpu.Handle, typ gpu.Types, count, instances int) error {
	var xtype uint32
	switch typ {
	case gpu.Uint8:
		xtype = gl.UNSIGNED_BYTE
	case gpu.Uint16:
		xtype = gl.UNSIGNED_SHORT
	case gpu.Uint32:
		xtype = gl.UNSIGNED_INT
	default:
		return fmt.Errorf("%w: index type %d", gpu.ErrUnsupportedFormat, typ)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(indices))
	if instances > 1 {
		gl.DrawElementsInstanced(gl.TRIANGLES, int32(count), xtype, gl.PtrOffset(0), int32(instances))
	} else {
		gl.DrawElements(gl.TRIANGLES, int32(count), xtype, gl.PtrOffset(0))
	}
	return d.glError("DrawElements")
}

func (d *Device) InsertFence() (gpu.Handle, error) {
	s := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	if err := d.glError("InsertFence"); err != nil {
		return 0, err
	}
	d.nextSync++
	d.fences[d.nextSync] = s
	return d.nextSync, nil
}

func (d *Device) FenceSignaled(f gpu.Handle) (bool, error) {
	s, ok := d.fences[f]
	if !ok {
		return false, fmt.Errorf("%w: no fence %d", gpu.ErrDeviceError, f)
	}
	switch gl.ClientWaitSync(s, gl.SYNC_FLUSH_COMMANDS_BIT, 0) {
	case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
		return true, nil
	case gl.TIMEOUT_EXPIRED:
		return false, nil
	}
	return false, d.glError("FenceSignaled")
}

func (d *Device) DeleteFence(f gpu.Handle) {
	if s, ok := d.fences[f]; ok {
		gl.DeleteSync(s)
		delete(d.fences, f)
	}
}
