// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"github.com/gogpu/naga/spirv"
)

// SPIR-V values not defined by the naga spirv package.
const (
	opTypeImage        spirv.OpCode = 25
	opTypeSampler      spirv.OpCode = 26
	opTypeSampledImage spirv.OpCode = 27
	opTypeRuntimeArray spirv.OpCode = 29

	opSourceContinued spirv.OpCode = 2
	opSourceExtension spirv.OpCode = 4
	opString          spirv.OpCode = 7
	opExtension       spirv.OpCode = 10
	opExecutionModeID spirv.OpCode = 331

	decorationBufferBlock spirv.Decoration = 3

	// decorationNone is used as the value of flag decorations.
	decorationNone = 1
)

// StorageClasses are the SPIR-V storage classes of variables.
type StorageClasses uint32

const (
	StorageUniformConstant StorageClasses = 0
	StorageInput           StorageClasses = 1
	StorageUniform         StorageClasses = 2
	StorageOutput          StorageClasses = 3
	StoragePushConstant    StorageClasses = 9
	StorageStorageBuffer   StorageClasses = 12
)

// SPIR-V image dimensionalities.
const (
	spvDim1D   = 0
	spvDim2D   = 1
	spvDim3D   = 2
	spvDimCube = 3
)

// typeInfo is one SPIR-V type declaration.
type typeInfo struct {
	op spirv.OpCode

	// width and signed for scalars
	width, signed uint32

	// elem is the component, column, element, pointee or image type.
	elem uint32

	// count is the vector component or matrix column count.
	count uint32

	// lengthID is the id of the array length constant.
	lengthID uint32

	// members are the member type ids of a struct.
	members []uint32

	// storage is the storage class of a pointer.
	storage StorageClasses

	// image operands
	dim, depth, arrayed, ms, sampled uint32
}

// variable is one global variable declaration.
type variable struct {
	id      uint32
	typeID  uint32
	storage StorageClasses
}

// Module is the subset of a SPIR-V module needed for reflection:
// names, decorations, types, constants and global variables.
type Module struct {
	// Words are the module words.
	Words []uint32

	names       map[uint32]string
	memberNames map[uint32]map[uint32]string
	decorations map[uint32]map[spirv.Decoration]uint32

	// decorationWords records the word index of the literal operand
	// of each decoration, for rewriting.
	decorationWords   map[uint32]map[spirv.Decoration]int
	memberDecorations map[uint32]map[uint32]map[spirv.Decoration]uint32
	types             map[uint32]*typeInfo
	constants         map[uint32]uint32
	variables         []variable
}

// ParseModule parses the given SPIR-V words.
func ParseModule(words []uint32) (*Module, error) {
	if len(words) < 5 {
		return nil, &SPIRVError{Word: 0, Msg: "module is shorter than its header"}
	}
	if words[0] != spirv.MagicNumber {
		return nil, &SPIRVError{Word: 0, Msg: "bad magic number"}
	}
	m := &Module{
		Words:             words,
		names:             map[uint32]string{},
		memberNames:       map[uint32]map[uint32]string{},
		decorations:       map[uint32]map[spirv.Decoration]uint32{},
		decorationWords:   map[uint32]map[spirv.Decoration]int{},
		memberDecorations: map[uint32]map[uint32]map[spirv.Decoration]uint32{},
		types:             map[uint32]*typeInfo{},
		constants:         map[uint32]uint32{},
	}
	for i := 5; i < len(words); {
		wc := int(words[i] >> 16)
		op := spirv.OpCode(words[i] & 0xffff)
		if wc == 0 {
			return nil, &SPIRVError{Word: i, Msg: "zero word count"}
		}
		if i+wc > len(words) {
			return nil, &SPIRVError{Word: i, Msg: "instruction runs past the end of the module"}
		}
		if err := m.instruction(i, op, words[i+1:i+wc]); err != nil {
			return nil, err
		}
		i += wc
	}
	return m, nil
}

// instruction records one instruction with the given operands,
// which start at word index at+1.
func (m *Module) instruction(at int, op spirv.OpCode, ops []uint32) error {
	need := func(n int) error {
		if len(ops) < n {
			return &SPIRVError{Word: at, Msg: "too few operands"}
		}
		return nil
	}
	switch op {
	case spirv.OpName:
		if err := need(1); err != nil {
			return err
		}
		m.names[ops[0]] = decodeString(ops[1:])
	case spirv.OpMemberName:
		if err := need(2); err != nil {
			return err
		}
		mn := m.memberNames[ops[0]]
		if mn == nil {
			mn = map[uint32]string{}
			m.memberNames[ops[0]] = mn
		}
		mn[ops[1]] = decodeString(ops[2:])
	case spirv.OpTypeBool, opTypeSampler:
		if err := need(1); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op}
	case spirv.OpTypeInt:
		if err := need(3); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, width: ops[1], signed: ops[2]}
	case spirv.OpTypeFloat:
		if err := need(2); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, width: ops[1]}
	case spirv.OpTypeVector, spirv.OpTypeMatrix:
		if err := need(3); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, elem: ops[1], count: ops[2]}
	case opTypeImage:
		if err := need(7); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, elem: ops[1], dim: ops[2], depth: ops[3], arrayed: ops[4], ms: ops[5], sampled: ops[6]}
	case opTypeSampledImage, opTypeRuntimeArray:
		if err := need(2); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, elem: ops[1]}
	case spirv.OpTypeArray:
		if err := need(3); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, elem: ops[1], lengthID: ops[2]}
	case spirv.OpTypeStruct:
		if err := need(1); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, members: append([]uint32{}, ops[1:]...)}
	case spirv.OpTypePointer:
		if err := need(3); err != nil {
			return err
		}
		m.types[ops[0]] = &typeInfo{op: op, storage: StorageClasses(ops[1]), elem: ops[2]}
	case spirv.OpConstant:
		if err := need(3); err != nil {
			return err
		}
		m.constants[ops[1]] = ops[2]
	case spirv.OpVariable:
		if err := need(3); err != nil {
			return err
		}
		m.variables = append(m.variables, variable{typeID: ops[0], id: ops[1], storage: StorageClasses(ops[2])})
	case spirv.OpDecorate:
		if err := need(2); err != nil {
			return err
		}
		id, dec := ops[0], spirv.Decoration(ops[1])
		if m.decorations[id] == nil {
			m.decorations[id] = map[spirv.Decoration]uint32{}
			m.decorationWords[id] = map[spirv.Decoration]int{}
		}
		m.decorations[id][dec] = decorationNone
		if len(ops) > 2 {
			m.decorations[id][dec] = ops[2]
			m.decorationWords[id][dec] = at + 3
		}
	case spirv.OpMemberDecorate:
		if err := need(3); err != nil {
			return err
		}
		md := m.memberDecorations[ops[0]]
		if md == nil {
			md = map[uint32]map[spirv.Decoration]uint32{}
			m.memberDecorations[ops[0]] = md
		}
		if md[ops[1]] == nil {
			md[ops[1]] = map[spirv.Decoration]uint32{}
		}
		v := uint32(decorationNone)
		if len(ops) > 3 {
			v = ops[3]
		}
		md[ops[1]][spirv.Decoration(ops[2])] = v
	}
	return nil
}

// decodeString decodes a nul-terminated SPIR-V literal string.
func decodeString(words []uint32) string {
	b := make([]byte, 0, len(words)*4)
	for _, w := range words {
		for s := 0; s < 32; s += 8 {
			c := byte(w >> s)
			if c == 0 {
				return string(b)
			}
			b = append(b, c)
		}
	}
	return string(b)
}

// Name returns the debug name of the given id.
func (m *Module) Name(id uint32) string {
	return m.names[id]
}

// decoration returns the literal of the given decoration on id.
func (m *Module) decoration(id uint32, dec spirv.Decoration) (uint32, bool) {
	v, ok := m.decorations[id][dec]
	return v, ok
}

// memberDecoration returns the literal of the given decoration
// on the given member of struct id.
func (m *Module) memberDecoration(id, member uint32, dec spirv.Decoration) (uint32, bool) {
	v, ok := m.memberDecorations[id][member][dec]
	return v, ok
}

// stripArrays returns the element type of the given type after removing
// one level of array, along with the array size. Runtime arrays have a size of 0.
func (m *Module) stripArrays(id uint32) (uint32, uint32, bool) {
	t := m.types[id]
	if t == nil {
		return id, 0, false
	}
	switch t.op {
	case spirv.OpTypeArray:
		return t.elem, m.constants[t.lengthID], true
	case opTypeRuntimeArray:
		return t.elem, 0, true
	}
	return id, 0, false
}
