// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"github.com/gogpu/naga/spirv"
)

// VariableName is the source name of one resource variable, used to
// name the SPIR-V of front ends that do not emit debug names.
type VariableName struct {
	// Set and Binding locate the variable. They are ignored for the
	// push constant block.
	Set, Binding uint32

	// PushConstant is whether the variable is the push constant block.
	PushConstant bool

	// Name is the variable name.
	Name string

	// Type names the struct type of the variable, if it is a buffer.
	Type *TypeNames
}

// TypeNames are the source names of a struct type and its members.
type TypeNames struct {
	// Name is the type name.
	Name string

	// Members are the member names, in declaration order.
	Members []string

	// Fields are the names of the struct types of the members,
	// nil for members that are not structs.
	Fields []*TypeNames
}

// AddNames returns the given SPIR-V words with debug names added for
// the given variables and the members of their struct types, wherever
// the module does not already name them. A variable that is not
// declared in the module is skipped.
func AddNames(words []uint32, vars []VariableName) ([]uint32, error) {
	m, err := ParseModule(words)
	if err != nil {
		return nil, err
	}
	var names []spirv.Instruction
	visited := map[uint32]bool{}
	for _, vn := range vars {
		v, ok := m.findVariable(vn)
		if !ok {
			continue
		}
		if vn.Name != "" && m.Name(v.id) == "" {
			names = append(names, nameInst(v.id, vn.Name))
		}
		ptr := m.types[v.typeID]
		if ptr == nil || ptr.op != spirv.OpTypePointer {
			continue
		}
		base := m.unwrapBlock(m.elementType(ptr.elem))
		names = m.typeNames(names, base, vn.Type, visited)
	}
	if len(names) == 0 {
		return words, nil
	}
	at := debugNamesEnd(words)
	out := make([]uint32, 0, len(words)+8*len(names))
	out = append(out, words[:at]...)
	for _, in := range names {
		out = append(out, in.Encode()...)
	}
	return append(out, words[at:]...), nil
}

// findVariable returns the variable with the set and binding of the
// given name, or the push constant variable.
func (m *Module) findVariable(vn VariableName) (variable, bool) {
	for _, v := range m.variables {
		if vn.PushConstant {
			if v.storage == StoragePushConstant {
				return v, true
			}
			continue
		}
		set, sok := m.decoration(v.id, spirv.DecorationDescriptorSet)
		bind, bok := m.decoration(v.id, spirv.DecorationBinding)
		if sok && bok && set == vn.Set && bind == vn.Binding {
			return v, true
		}
	}
	return variable{}, false
}

// typeNames appends the missing names of the given struct type
// and its members to names.
func (m *Module) typeNames(names []spirv.Instruction, structID uint32, tn *TypeNames, visited map[uint32]bool) []spirv.Instruction {
	t := m.types[structID]
	if tn == nil || t == nil || t.op != spirv.OpTypeStruct || visited[structID] {
		return names
	}
	visited[structID] = true
	if tn.Name != "" && m.Name(structID) == "" {
		names = append(names, nameInst(structID, tn.Name))
	}
	for i, mt := range t.members {
		idx := uint32(i)
		if i < len(tn.Members) && tn.Members[i] != "" && m.memberNames[structID][idx] == "" {
			ib := spirv.NewInstructionBuilder()
			ib.AddWord(structID)
			ib.AddWord(idx)
			ib.AddString(tn.Members[i])
			names = append(names, ib.Build(spirv.OpMemberName))
		}
		if i < len(tn.Fields) {
			names = m.typeNames(names, m.elementType(mt), tn.Fields[i], visited)
		}
	}
	return names
}

func nameInst(id uint32, name string) spirv.Instruction {
	ib := spirv.NewInstructionBuilder()
	ib.AddWord(id)
	ib.AddString(name)
	return ib.Build(spirv.OpName)
}

// elementType returns the given type with all array levels removed.
func (m *Module) elementType(id uint32) uint32 {
	for {
		elem, _, ok := m.stripArrays(id)
		if !ok {
			return id
		}
		id = elem
	}
}

// unwrapBlock returns the struct wrapped by the given type if it is an
// unnamed single-member struct whose unnamed member is a struct, as naga
// declares buffer blocks. Otherwise it returns the given type.
func (m *Module) unwrapBlock(id uint32) uint32 {
	t := m.types[id]
	if t == nil || t.op != spirv.OpTypeStruct || len(t.members) != 1 {
		return id
	}
	if m.Name(id) != "" || m.memberNames[id][0] != "" {
		return id
	}
	inner := m.types[t.members[0]]
	if inner == nil || inner.op != spirv.OpTypeStruct {
		return id
	}
	return t.members[0]
}

// debugNamesEnd returns the word index after the debug name section
// of the given module, where further names can be inserted.
func debugNamesEnd(words []uint32) int {
	i := 5
	for i < len(words) {
		wc := int(words[i] >> 16)
		if wc == 0 {
			break
		}
		switch spirv.OpCode(words[i] & 0xffff) {
		case opSourceContinued, spirv.OpSource, opSourceExtension, spirv.OpName, spirv.OpMemberName,
			opString, opExtension, spirv.OpExtInstImport, spirv.OpMemoryModel, spirv.OpEntryPoint,
			spirv.OpExecutionMode, spirv.OpCapability, opExecutionModeID:
			i += wc
			continue
		}
		break
	}
	return i
}
