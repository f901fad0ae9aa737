// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spirvtest builds small SPIR-V modules declaring shader
// resources, for testing reflection without a shader compiler.
package spirvtest

import (
	"github.com/gogpu/naga/spirv"
)

// SPIR-V storage classes.
const (
	UniformConstant = 0
	Input           = 1
	Uniform         = 2
	PushConstant    = 9
	StorageBuffer   = 12
)

// SPIR-V image dimensionalities.
const (
	Dim1D   = 0
	Dim2D   = 1
	Dim3D   = 2
	DimCube = 3
)

const (
	opTypeImage        spirv.OpCode = 25
	opTypeSampler      spirv.OpCode = 26
	opTypeSampledImage spirv.OpCode = 27
	opTypeRuntimeArray spirv.OpCode = 29

	decorationBufferBlock spirv.Decoration = 3
)

// Member is one struct member: its name, type id and explicit offset.
type Member struct {
	Name   string
	Type   uint32
	Offset uint32

	// MatrixStride is set for matrix members.
	MatrixStride uint32
}

// Builder builds a SPIR-V module. The instructions are emitted in the
// logical section order, regardless of the order the methods are called.
type Builder struct {
	nextID      uint32
	names       []spirv.Instruction
	annotations []spirv.Instruction
	types       []spirv.Instruction
	variables   []spirv.Instruction

	f32, i32, u32 uint32
}

// New returns a new [Builder].
func New() *Builder {
	return &Builder{nextID: 1}
}

func (b *Builder) id() uint32 {
	id := b.nextID
	b.nextID++
	return id
}

func inst(op spirv.OpCode, words ...uint32) spirv.Instruction {
	return spirv.Instruction{Opcode: op, Words: words}
}

// Name names the given id.
func (b *Builder) Name(id uint32, name string) {
	ib := spirv.NewInstructionBuilder()
	ib.AddWord(id)
	ib.AddString(name)
	b.names = append(b.names, ib.Build(spirv.OpName))
}

func (b *Builder) memberName(id, member uint32, name string) {
	ib := spirv.NewInstructionBuilder()
	ib.AddWord(id)
	ib.AddWord(member)
	ib.AddString(name)
	b.names = append(b.names, ib.Build(spirv.OpMemberName))
}

// Decorate decorates the given id.
func (b *Builder) Decorate(id uint32, dec spirv.Decoration, literals ...uint32) {
	b.annotations = append(b.annotations, inst(spirv.OpDecorate, append([]uint32{id, uint32(dec)}, literals...)...))
}

func (b *Builder) memberDecorate(id, member uint32, dec spirv.Decoration, literal uint32) {
	b.annotations = append(b.annotations, inst(spirv.OpMemberDecorate, id, member, uint32(dec), literal))
}

// Float returns the 32-bit float type.
func (b *Builder) Float() uint32 {
	if b.f32 == 0 {
		b.f32 = b.id()
		b.types = append(b.types, inst(spirv.OpTypeFloat, b.f32, 32))
	}
	return b.f32
}

// Int returns the 32-bit signed integer type.
func (b *Builder) Int() uint32 {
	if b.i32 == 0 {
		b.i32 = b.id()
		b.types = append(b.types, inst(spirv.OpTypeInt, b.i32, 32, 1))
	}
	return b.i32
}

// Uint returns the 32-bit unsigned integer type.
func (b *Builder) Uint() uint32 {
	if b.u32 == 0 {
		b.u32 = b.id()
		b.types = append(b.types, inst(spirv.OpTypeInt, b.u32, 32, 0))
	}
	return b.u32
}

// Vector returns a new vector type of n components of the given type.
func (b *Builder) Vector(elem, n uint32) uint32 {
	id := b.id()
	b.types = append(b.types, inst(spirv.OpTypeVector, id, elem, n))
	return id
}

// Matrix returns a new matrix type of the given column type.
func (b *Builder) Matrix(col, cols uint32) uint32 {
	id := b.id()
	b.types = append(b.types, inst(spirv.OpTypeMatrix, id, col, cols))
	return id
}

// Constant returns a new unsigned integer constant.
func (b *Builder) Constant(v uint32) uint32 {
	u := b.Uint()
	id := b.id()
	b.types = append(b.types, inst(spirv.OpConstant, u, id, v))
	return id
}

// Array returns a new array type of n elements, with the given
// array stride if it is non-zero.
func (b *Builder) Array(elem, n, stride uint32) uint32 {
	c := b.Constant(n)
	id := b.id()
	b.types = append(b.types, inst(spirv.OpTypeArray, id, elem, c))
	if stride > 0 {
		b.Decorate(id, spirv.DecorationArrayStride, stride)
	}
	return id
}

// RuntimeArray returns a new runtime array type with the given stride.
func (b *Builder) RuntimeArray(elem, stride uint32) uint32 {
	id := b.id()
	b.types = append(b.types, inst(opTypeRuntimeArray, id, elem))
	b.Decorate(id, spirv.DecorationArrayStride, stride)
	return id
}

// Struct returns a new struct type with the given members.
// Empty names are not declared.
func (b *Builder) Struct(name string, members ...Member) uint32 {
	id := b.id()
	words := []uint32{id}
	for i, m := range members {
		words = append(words, m.Type)
		if m.Name != "" {
			b.memberName(id, uint32(i), m.Name)
		}
		b.memberDecorate(id, uint32(i), spirv.DecorationOffset, m.Offset)
		if m.MatrixStride > 0 {
			b.memberDecorate(id, uint32(i), spirv.DecorationMatrixStride, m.MatrixStride)
		}
	}
	b.types = append(b.types, inst(spirv.OpTypeStruct, words...))
	if name != "" {
		b.Name(id, name)
	}
	return id
}

// Block decorates the given struct as a uniform or push constant block.
func (b *Builder) Block(structID uint32) {
	b.Decorate(structID, spirv.DecorationBlock)
}

// BufferBlock decorates the given struct as a storage buffer block
// in the Uniform storage class, as older GLSL compilers emit it.
func (b *Builder) BufferBlock(structID uint32) {
	b.Decorate(structID, decorationBufferBlock)
}

// Image returns a new sampled float image type with the given
// dimensionality. If storage is true, it is a storage image.
func (b *Builder) Image(dim uint32, storage bool) uint32 {
	sampled := uint32(1)
	if storage {
		sampled = 2
	}
	id := b.id()
	b.types = append(b.types, inst(opTypeImage, id, b.Float(), dim, 0, 0, 0, sampled, 0))
	return id
}

// SampledImage returns a new combined image sampler type.
func (b *Builder) SampledImage(image uint32) uint32 {
	id := b.id()
	b.types = append(b.types, inst(opTypeSampledImage, id, image))
	return id
}

// Sampler returns a new sampler type.
func (b *Builder) Sampler() uint32 {
	id := b.id()
	b.types = append(b.types, inst(opTypeSampler, id))
	return id
}

// Variable declares a named global variable of the given type in the
// given storage class, decorated with the given set and binding.
func (b *Builder) Variable(name string, typ, storage, set, binding uint32) uint32 {
	id := b.variable(name, typ, storage)
	b.Decorate(id, spirv.DecorationDescriptorSet, set)
	b.Decorate(id, spirv.DecorationBinding, binding)
	return id
}

// PushConstant declares a push constant variable of the given struct type.
func (b *Builder) PushConstant(name string, structID uint32) uint32 {
	return b.variable(name, structID, PushConstant)
}

// Input declares a stage input variable at the given location.
func (b *Builder) Input(name string, typ, location uint32) uint32 {
	id := b.variable(name, typ, Input)
	b.Decorate(id, spirv.DecorationLocation, location)
	return id
}

func (b *Builder) variable(name string, typ, storage uint32) uint32 {
	ptr := b.id()
	b.types = append(b.types, inst(spirv.OpTypePointer, ptr, storage, typ))
	id := b.id()
	b.variables = append(b.variables, inst(spirv.OpVariable, ptr, id, storage))
	if name != "" {
		b.Name(id, name)
	}
	return id
}

// Words returns the module words.
func (b *Builder) Words() []uint32 {
	words := []uint32{spirv.MagicNumber, 0x00010300, 0, b.nextID, 0}
	for _, sec := range [][]spirv.Instruction{b.names, b.annotations, b.types, b.variables} {
		for _, in := range sec {
			words = append(words, in.Encode()...)
		}
	}
	return words
}
