// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"cogentcore.org/render/base/errors"
)

var (
	// ErrUnsupportedFormat is returned when a texture format is not
	// supported by the device. No allocation has happened.
	ErrUnsupportedFormat = errors.New("gpu: unsupported format")

	// ErrAllocationFailed is returned when the device cannot allocate
	// a resource, or its requested size is out of range.
	ErrAllocationFailed = errors.New("gpu: allocation failed")

	// ErrSizeMismatch is returned when the data given to an update does not
	// match the declared size of the resource. Data is never truncated.
	ErrSizeMismatch = errors.New("gpu: size mismatch")

	// ErrViewportMismatch is returned when the camera viewport does not
	// match the size of the render target being drawn to.
	ErrViewportMismatch = errors.New("gpu: viewport does not match render target")

	// ErrContextLost is returned once the device has been lost.
	// It is fatal for the frame and for the context.
	ErrContextLost = errors.New("gpu: context lost")

	// ErrDeviceError is returned for other device failures.
	ErrDeviceError = errors.New("gpu: device error")

	// ErrContextExists is returned by [NewContext] when the device
	// already has a live context.
	ErrContextExists = errors.New("gpu: device already has a context")

	// ErrMissingAttribute is returned when a program requires a vertex
	// attribute that the geometry does not provide.
	ErrMissingAttribute = errors.New("gpu: missing vertex attribute")

	// ErrReleased is returned when using a resource after Release.
	ErrReleased = errors.New("gpu: resource has been released")
)

// ShaderStages are the programmable stages of the pipeline.
type ShaderStages int32

const (
	VertexShader ShaderStages = iota
	FragmentShader
	LinkStage
)

func (st ShaderStages) String() string {
	switch st {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	case LinkStage:
		return "link"
	}
	return fmt.Sprintf("ShaderStages(%d)", int32(st))
}

// CompileError is returned by the device when a shader fails
// to compile, or a program fails to link.
type CompileError struct {
	Stage ShaderStages

	// Log is the compiler info log.
	Log string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: %s shader compile error: %s", e.Stage, e.Log)
}

// ShaderError is returned by the [ProgramCache] when the program
// for a source pair cannot be built. It wraps the [CompileError].
type ShaderError struct {
	Stage ShaderStages
	Log   string
	Err   error
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("gpu: shader error in %s stage: %s", e.Stage, e.Log)
}

func (e *ShaderError) Unwrap() error { return e.Err }
