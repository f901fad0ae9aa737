// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reflection extracts the resource interface of compiled shaders
// from their SPIR-V intermediate representation: a resource table keyed
// by descriptor set and binding, and byte-level member layouts of the
// structured buffers. Per-stage results are merged into one
// [ReflectionData] per shader, whose flat platform registers are then
// resolved against the bytecode compiler's own reflection.
package reflection

import (
	"fmt"
	"slices"
	"strings"

	"cogentcore.org/shaders/shader"
	"github.com/gogpu/naga/spirv"
)

// StageResource is one resource reflected from one stage,
// with the members of its struct for buffer kinds.
type StageResource struct {
	Resource *Resource
	Members  []*MemberDeclaration
}

// StageReflection is the reflection of one stage's IR.
type StageReflection struct {
	// Stage is the reflected stage.
	Stage shader.Stages

	// PushConstant is the push constant block, if any.
	PushConstant *StageResource

	// Resources are the resources in reflection order.
	Resources []*StageResource

	// Inputs are the stage inputs, sorted by location.
	Inputs []Input
}

// Input is one stage input variable (a vertex attribute for the
// vertex stage).
type Input struct {
	Name     string
	Location uint32
}

// reflection order of the resource kinds after the push constants
var kindOrder = []ResourceKinds{ConstantBuffer, StorageBuffer, CombinedImageSampler, Image, StorageImage, Sampler}

// ReflectStage reflects the given SPIR-V IR of the given stage. Resources
// are reported in a fixed order: uniform buffers, storage buffers,
// sampled images, separate images, storage images and samplers, with
// the push constant block reported separately.
func ReflectStage(stage shader.Stages, words []uint32) (*StageReflection, error) {
	m, err := ParseModule(words)
	if err != nil {
		return nil, err
	}
	return m.Reflect(stage)
}

// Reflect reflects the module as the given stage.
func (m *Module) Reflect(stage shader.Stages) (*StageReflection, error) {
	sr := &StageReflection{Stage: stage}
	byKind := map[ResourceKinds][]*StageResource{}
	for _, v := range m.variables {
		if v.storage == StorageInput {
			if in, ok := m.input(v); ok {
				sr.Inputs = append(sr.Inputs, in)
			}
			continue
		}
		res, err := m.resource(v, stage)
		if err != nil {
			return nil, err
		}
		if res == nil {
			continue
		}
		if res.Resource.Kind == PushConstant {
			if sr.PushConstant != nil {
				return nil, &ReflectionInconsistencyError{Existing: sr.PushConstant.Resource.Name, New: res.Resource.Name,
					Reason: fmt.Sprintf("%v stage declares two push constant blocks", stage)}
			}
			sr.PushConstant = res
			continue
		}
		byKind[res.Resource.Kind] = append(byKind[res.Resource.Kind], res)
	}
	for _, k := range kindOrder {
		sr.Resources = append(sr.Resources, byKind[k]...)
	}
	slices.SortStableFunc(sr.Inputs, func(a, b Input) int { return int(a.Location) - int(b.Location) })
	return sr, nil
}

// input returns the stage input for the given Input variable, skipping
// built-ins and variables without a location.
func (m *Module) input(v variable) (Input, bool) {
	if _, ok := m.decoration(v.id, spirv.DecorationBuiltIn); ok {
		return Input{}, false
	}
	loc, ok := m.decoration(v.id, spirv.DecorationLocation)
	if !ok {
		return Input{}, false
	}
	return Input{Name: m.Name(v.id), Location: loc}, true
}

// resource returns the resource declared by the given variable,
// or nil if it is not a resource.
func (m *Module) resource(v variable, stage shader.Stages) (*StageResource, error) {
	ptr := m.types[v.typeID]
	if ptr == nil || ptr.op != spirv.OpTypePointer {
		return nil, nil
	}
	base, arraySize, _ := m.stripArrays(ptr.elem)
	if v.storage == StorageUniform || v.storage == StorageStorageBuffer || v.storage == StoragePushConstant {
		base = m.unwrapBlock(base)
	}
	bt := m.types[base]
	if bt == nil {
		return nil, nil
	}
	res := &Resource{
		Name:            m.Name(v.id),
		Stages:          stage,
		ArraySize:       arraySize,
		Register:        Unused,
		SamplerRegister: Unused,
	}
	switch v.storage {
	case StoragePushConstant:
		res.Kind = PushConstant
	case StorageUniform:
		if _, ok := m.decoration(base, decorationBufferBlock); ok {
			res.Kind = StorageBuffer
		} else {
			res.Kind = ConstantBuffer
		}
	case StorageStorageBuffer:
		res.Kind = StorageBuffer
	case StorageUniformConstant:
		switch bt.op {
		case opTypeSampledImage:
			res.Kind = CombinedImageSampler
			bt = m.types[bt.elem]
			if bt == nil {
				return nil, &SPIRVError{Msg: fmt.Sprintf("sampled image %q has no image type", res.Name)}
			}
		case opTypeImage:
			res.Kind = Image
			if bt.sampled == 2 {
				res.Kind = StorageImage
			}
		case opTypeSampler:
			res.Kind = Sampler
		default:
			return nil, nil
		}
	default:
		return nil, nil
	}

	if res.Kind.IsImage() {
		dim, err := imageDim(bt.dim)
		if err != nil {
			return nil, fmt.Errorf("reflection: %v image %q: %w", stage, res.Name, err)
		}
		res.Dimension = dim
	}
	if res.Kind != PushConstant {
		res.Set, _ = m.decoration(v.id, spirv.DecorationDescriptorSet)
		res.Binding, _ = m.decoration(v.id, spirv.DecorationBinding)
	}
	sr := &StageResource{Resource: res}
	if res.Kind.IsBuffer() {
		if bt.op != spirv.OpTypeStruct {
			return nil, fmt.Errorf("reflection: %v buffer %q is not a struct", stage, res.Name)
		}
		if res.Name == "" {
			res.Name = m.Name(base)
		}
		sr.Members, res.StructSize = m.members(res.Name, base)
	}
	if res.Name == "" {
		return nil, fmt.Errorf("reflection: %v %v at set %d binding %d has no name; compile with debug names", stage, res.Kind, res.Set, res.Binding)
	}
	return sr, nil
}

func imageDim(dim uint32) (ImageDims, error) {
	switch dim {
	case spvDim1D:
		return Dim1D, nil
	case spvDim2D:
		return Dim2D, nil
	case spvDim3D:
		return Dim3D, nil
	case spvDimCube:
		return DimCube, nil
	}
	return NoDim, fmt.Errorf("unsupported image dimensionality %d", dim)
}

// members returns the members of the given struct type, qualified with
// the given prefix, with cumulative offsets, and the declared struct size.
func (m *Module) members(prefix string, structID uint32) ([]*MemberDeclaration, uint32) {
	st := m.types[structID]
	var mds []*MemberDeclaration
	var offset, declared uint32
	for i, mt := range st.members {
		idx := uint32(i)
		name := m.memberNames[structID][idx]
		if name == "" {
			name = fmt.Sprintf("_m%d", i)
		}
		tp, size := m.memberType(structID, idx, mt)
		mds = append(mds, &MemberDeclaration{
			Name:   prefix + "." + name,
			Type:   tp,
			Size:   size,
			Offset: offset,
		})
		offset += size
		if off, ok := m.memberDecoration(structID, idx, spirv.DecorationOffset); ok {
			declared = max(declared, off+size)
		}
	}
	if declared == 0 {
		declared = offset
	}
	return mds, declared
}

// memberType returns the type and declared byte size of the
// given member of a struct.
func (m *Module) memberType(structID, member, typeID uint32) (VarTypes, uint32) {
	t := m.types[typeID]
	if t == nil {
		return UndefinedType, 0
	}
	switch t.op {
	case spirv.OpTypeMatrix:
		col := m.types[t.elem]
		rows := uint32(0)
		if col != nil {
			rows = col.count
		}
		tp := matrixType(t.count, rows)
		if stride, ok := m.memberDecoration(structID, member, spirv.DecorationMatrixStride); ok {
			return tp, stride * t.count
		}
		return tp, m.typeSize(typeID)
	case spirv.OpTypeArray, opTypeRuntimeArray:
		n := uint32(0)
		if t.op == spirv.OpTypeArray {
			n = m.constants[t.lengthID]
		}
		if stride, ok := m.decoration(typeID, spirv.DecorationArrayStride); ok {
			return Array, stride * n
		}
		return Array, m.typeSize(t.elem) * n
	case spirv.OpTypeStruct:
		_, size := m.members("", typeID)
		return Struct, size
	}
	return m.valueType(typeID), m.typeSize(typeID)
}

// valueType returns the type of a scalar or vector type.
func (m *Module) valueType(id uint32) VarTypes {
	t := m.types[id]
	if t == nil {
		return UndefinedType
	}
	n := uint32(1)
	if t.op == spirv.OpTypeVector {
		n = t.count
		t = m.types[t.elem]
		if t == nil {
			return UndefinedType
		}
	}
	switch t.op {
	case spirv.OpTypeBool:
		return vectorType(scalarBool, n)
	case spirv.OpTypeInt:
		if t.width != 32 {
			return UndefinedType
		}
		if t.signed != 0 {
			return vectorType(scalarInt, n)
		}
		return vectorType(scalarUint, n)
	case spirv.OpTypeFloat:
		if t.width != 32 {
			return UndefinedType
		}
		return vectorType(scalarFloat, n)
	}
	return UndefinedType
}

// typeSize returns the tightly packed byte size of the given type.
func (m *Module) typeSize(id uint32) uint32 {
	t := m.types[id]
	if t == nil {
		return 0
	}
	switch t.op {
	case spirv.OpTypeBool:
		return 4
	case spirv.OpTypeInt, spirv.OpTypeFloat:
		return t.width / 8
	case spirv.OpTypeVector, spirv.OpTypeMatrix:
		return t.count * m.typeSize(t.elem)
	case spirv.OpTypeArray:
		if stride, ok := m.decoration(id, spirv.DecorationArrayStride); ok {
			return stride * m.constants[t.lengthID]
		}
		return m.constants[t.lengthID] * m.typeSize(t.elem)
	case spirv.OpTypeStruct:
		_, size := m.members("", id)
		return size
	}
	return 0
}

// StageInputs returns the stage inputs of the given SPIR-V IR, sorted by
// location. It is used to remap vertex attributes to semantics.
func StageInputs(words []uint32) ([]Input, error) {
	m, err := ParseModule(words)
	if err != nil {
		return nil, err
	}
	var ins []Input
	for _, v := range m.variables {
		if v.storage != StorageInput {
			continue
		}
		if in, ok := m.input(v); ok {
			ins = append(ins, in)
		}
	}
	slices.SortStableFunc(ins, func(a, b Input) int { return int(a.Location) - int(b.Location) })
	return ins, nil
}

// StripPrefix returns the given attribute name with the first
// of the given prefixes that it starts with removed.
func StripPrefix(name string, prefixes ...string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			return name[len(p):]
		}
	}
	return name
}
