// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var errTest = New("test error")

func TestLog(t *testing.T) {
	assert.NoError(t, Log(nil))
	assert.Equal(t, errTest, Log(errTest))
	assert.True(t, Is(Log(Errorf("wrapped: %w", errTest)), errTest))
}

func TestLog1(t *testing.T) {
	assert.Equal(t, 3, Log1(3, nil))
	assert.Equal(t, 0, Log1(0, errTest))
}
