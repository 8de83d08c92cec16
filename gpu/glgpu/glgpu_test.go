// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !js

package glgpu

import (
	"testing"

	"cogentcore.org/render/gpu"
	"github.com/stretchr/testify/assert"
)

func TestFormats(t *testing.T) {
	for f := gpu.R8; f <= gpu.Depth24Stencil8; f++ {
		_, ok := formats[f]
		assert.True(t, ok, f.String())
	}
	assert.Len(t, depthFuncs, 8)
	assert.Len(t, blendFactors, 10)
}
