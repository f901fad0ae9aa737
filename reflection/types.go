// Copyright (c) 2019, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"fmt"
)

// VarTypes is the taxonomy of shader variable types reported
// for the members of reflected buffers.
type VarTypes int32

const (
	UndefinedType VarTypes = iota
	Bool32

	Int32
	Int32Vector2
	Int32Vector3
	Int32Vector4

	Uint32
	Uint32Vector2
	Uint32Vector3
	Uint32Vector4

	Float32
	Float32Vector2
	Float32Vector3
	Float32Vector4

	Float32Matrix2
	Float32Matrix3
	Float32Matrix4

	Struct
	Array

	VarTypesN
)

var typeNames = [VarTypesN]string{
	"UndefinedType", "Bool32",
	"Int32", "Int32Vector2", "Int32Vector3", "Int32Vector4",
	"Uint32", "Uint32Vector2", "Uint32Vector3", "Uint32Vector4",
	"Float32", "Float32Vector2", "Float32Vector3", "Float32Vector4",
	"Float32Matrix2", "Float32Matrix3", "Float32Matrix4",
	"Struct", "Array",
}

// TypeSizes gives the tightly packed byte size of the fixed-size types.
// Struct and Array sizes depend on the declaration.
var TypeSizes = map[VarTypes]int{
	Bool32: 4,

	Int32:        4,
	Int32Vector2: 8,
	Int32Vector3: 12,
	Int32Vector4: 16,

	Uint32:        4,
	Uint32Vector2: 8,
	Uint32Vector3: 12,
	Uint32Vector4: 16,

	Float32:        4,
	Float32Vector2: 8,
	Float32Vector3: 12,
	Float32Vector4: 16,

	Float32Matrix2: 16,
	Float32Matrix3: 36,
	Float32Matrix4: 64,
}

// Bytes returns number of bytes for this type, or 0 for types
// whose size depends on the declaration.
func (tp VarTypes) Bytes() int {
	return TypeSizes[tp]
}

func (tp VarTypes) String() string {
	if tp >= 0 && tp < VarTypesN {
		return typeNames[tp]
	}
	return fmt.Sprintf("VarTypes(%d)", int32(tp))
}

// MarshalText implements [encoding.TextMarshaler].
func (tp VarTypes) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (tp *VarTypes) UnmarshalText(text []byte) error {
	for i, nm := range typeNames {
		if nm == string(text) {
			*tp = VarTypes(i)
			return nil
		}
	}
	return fmt.Errorf("reflection.VarTypes: unknown type %q", text)
}

// scalarKinds are the base scalar kinds used to build vector types.
type scalarKinds int

const (
	scalarBool scalarKinds = iota
	scalarInt
	scalarUint
	scalarFloat
)

// vectorType returns the type for a vector of n components of the given
// scalar kind; n == 1 returns the scalar type.
func vectorType(sk scalarKinds, n uint32) VarTypes {
	if n < 1 || n > 4 {
		return UndefinedType
	}
	switch sk {
	case scalarBool:
		if n == 1 {
			return Bool32
		}
		return UndefinedType
	case scalarInt:
		return Int32 + VarTypes(n-1)
	case scalarUint:
		return Uint32 + VarTypes(n-1)
	case scalarFloat:
		return Float32 + VarTypes(n-1)
	}
	return UndefinedType
}

// matrixType returns the type for a square float matrix of n columns.
func matrixType(cols, rows uint32) VarTypes {
	if cols != rows {
		return UndefinedType
	}
	switch cols {
	case 2:
		return Float32Matrix2
	case 3:
		return Float32Matrix3
	case 4:
		return Float32Matrix4
	}
	return UndefinedType
}
