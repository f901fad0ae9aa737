// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/naga/spirv"
)

// RegisterClasses are the register classes of a flat register space,
// as in Direct3D 11.
type RegisterClasses int32

const (
	// RegisterB holds constant buffers.
	RegisterB RegisterClasses = iota

	// RegisterT holds shader resource views: storage buffers
	// and sampled or separate images.
	RegisterT

	// RegisterU holds unordered access views: storage images.
	RegisterU

	// RegisterS holds samplers.
	RegisterS

	RegisterClassesN
)

// Prefix returns the register prefix letter of the class.
func (rc RegisterClasses) Prefix() string {
	switch rc {
	case RegisterB:
		return "b"
	case RegisterT:
		return "t"
	case RegisterU:
		return "u"
	case RegisterS:
		return "s"
	}
	return "?"
}

// RegisterClass returns the register class of the given kind.
// A combined image sampler also takes a [RegisterS] register.
func RegisterClass(kind ResourceKinds) RegisterClasses {
	switch kind {
	case ConstantBuffer, PushConstant:
		return RegisterB
	case StorageImage:
		return RegisterU
	case Sampler:
		return RegisterS
	}
	return RegisterT
}

// BindingOffsets are the register offsets of one descriptor set,
// indexed by [RegisterClasses].
type BindingOffsets [RegisterClassesN]uint32

// Layout maps the (set, binding) pairs of a shader onto a flat register
// space. Each set's bindings of a class start where the previous set's
// end, and a push constant block takes b0.
type Layout struct {
	// Offsets are the per-set register offsets.
	Offsets map[uint32]BindingOffsets

	// PushConstant is whether the shader has a push constant block.
	PushConstant bool

	kinds map[BindingKey]ResourceKinds
}

// NewLayout computes the flat register layout of the given reflection.
func NewLayout(rd *ReflectionData) *Layout {
	l := &Layout{Offsets: map[uint32]BindingOffsets{}, PushConstant: rd.PushConstant != nil, kinds: map[BindingKey]ResourceKinds{}}
	var next BindingOffsets
	shiftB := l.PushConstant
	for _, set := range rd.Sets() {
		var used [RegisterClassesN]bool
		var maxBinding, minBinding BindingOffsets
		for b, r := range rd.Resources[set] {
			l.kinds[BindingKey{Set: set, Binding: b}] = r.Kind
			classes := []RegisterClasses{RegisterClass(r.Kind)}
			if r.Kind == CombinedImageSampler {
				classes = append(classes, RegisterS)
			}
			for _, rc := range classes {
				if !used[rc] {
					minBinding[rc], maxBinding[rc] = b, b
				}
				used[rc] = true
				minBinding[rc] = min(minBinding[rc], b)
				maxBinding[rc] = max(maxBinding[rc], b)
			}
		}
		offs := next
		if shiftB && used[RegisterB] {
			if minBinding[RegisterB] == 0 {
				offs[RegisterB]++
			}
			shiftB = false
		}
		for rc := range RegisterClassesN {
			if used[rc] {
				next[rc] = offs[rc] + maxBinding[rc] + 1
			}
		}
		l.Offsets[set] = offs
	}
	return l
}

// Register returns the flat register of the given (set, binding)
// for a resource of the given class.
func (l *Layout) Register(set, binding uint32, rc RegisterClasses) uint32 {
	return l.Offsets[set][rc] + binding
}

// Kind returns the kind of the resource at the given (set, binding).
func (l *Layout) Kind(set, binding uint32) (ResourceKinds, bool) {
	k, ok := l.kinds[BindingKey{Set: set, Binding: binding}]
	return k, ok
}

// Flatten returns the flat register of the resource at the given
// (set, binding) in set 0, for rewriting the bindings of IR that
// is cross compiled to a flat register space.
func (l *Layout) Flatten(set, binding uint32) (uint32, uint32, bool) {
	k, ok := l.Kind(set, binding)
	if !ok {
		return set, binding, false
	}
	return 0, l.Register(set, binding, RegisterClass(k)), true
}

// String returns a table of the offsets, for debugging.
func (l *Layout) String() string {
	s := ""
	for _, set := range slices.Sorted(maps.Keys(l.Offsets)) {
		o := l.Offsets[set]
		s += fmt.Sprintf("set %d: b%d t%d u%d s%d\n", set, o[RegisterB], o[RegisterT], o[RegisterU], o[RegisterS])
	}
	return s
}

// RewriteBindings returns a copy of the given SPIR-V IR in which the
// DescriptorSet and Binding decorations of every resource variable are
// replaced by the result of fn. Variables for which fn returns false
// are left unchanged.
func RewriteBindings(words []uint32, fn func(set, binding uint32) (uint32, uint32, bool)) ([]uint32, error) {
	out := slices.Clone(words)
	m, err := ParseModule(out)
	if err != nil {
		return nil, err
	}
	for _, v := range m.variables {
		set, hasSet := m.decoration(v.id, spirv.DecorationDescriptorSet)
		binding, hasBinding := m.decoration(v.id, spirv.DecorationBinding)
		if !hasSet || !hasBinding {
			continue
		}
		ns, nb, ok := fn(set, binding)
		if !ok {
			continue
		}
		out[m.decorationWords[v.id][spirv.DecorationDescriptorSet]] = ns
		out[m.decorationWords[v.id][spirv.DecorationBinding]] = nb
	}
	return out, nil
}
