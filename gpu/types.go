// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

// See: https://www.khronos.org/opengl/wiki/Data_Type_(GLSL)

// Types is a list of supported GPU data types for vertex attributes,
// index and uniform buffers.
type Types int32

const (
	UndefinedType Types = iota

	Uint8
	Uint16
	Uint32
	Int32

	Float32
	Float32Vector2
	Float32Vector3
	Float32Vector4

	Float32Matrix3
	Float32Matrix4
)

// TypeSizes gives our data type sizes in bytes
var TypeSizes = map[Types]int{
	Uint8:          1,
	Uint16:         2,
	Uint32:         4,
	Int32:          4,
	Float32:        4,
	Float32Vector2: 8,
	Float32Vector3: 12,
	Float32Vector4: 16,
	Float32Matrix3: 36,
	Float32Matrix4: 64,
}

// TypeComponents gives the number of scalar components per element.
var TypeComponents = map[Types]int{
	Uint8:          1,
	Uint16:         1,
	Uint32:         1,
	Int32:          1,
	Float32:        1,
	Float32Vector2: 2,
	Float32Vector3: 3,
	Float32Vector4: 4,
	Float32Matrix3: 9,
	Float32Matrix4: 16,
}

// Bytes returns number of bytes for this type
func (tp Types) Bytes() int {
	return TypeSizes[tp]
}

// Components returns the number of scalar components for this type.
func (tp Types) Components() int {
	return TypeComponents[tp]
}

// IsIndex returns true if the type can be used for index buffers.
func (tp Types) IsIndex() bool {
	return tp == Uint8 || tp == Uint16 || tp == Uint32
}

// IsFloat returns true for the float32 scalar, vector and matrix types.
func (tp Types) IsFloat() bool {
	return tp >= Float32
}
