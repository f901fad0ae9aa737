// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"cogentcore.org/shaders/shader"
)

// ReflectionData is the reflection of one shader, aggregated
// across all of its stages. It is immutable once published, and
// its lookup methods are then safe to call from any goroutine.
type ReflectionData struct {
	// Resources maps set to binding to resource.
	Resources map[uint32]map[uint32]*Resource

	// Members maps set to binding to the member list of each
	// structured buffer.
	Members map[uint32]map[uint32]*MemberList

	// PushConstant is the single push constant block, if any.
	PushConstant *Resource

	// PushConstantMembers are the members of the push constant block.
	PushConstantMembers *MemberList

	// NameCache maps resource names to their set and binding.
	NameCache map[string]BindingKey

	// MemberCache maps qualified member names to their location.
	MemberCache map[string]MemberKey

	// Combined are the combined image samplers declared by the source.
	Combined []shader.CombinedSampler

	// LayoutMode is the layout share mode declared by the source.
	LayoutMode shader.LayoutModes
}

// New returns a new empty [ReflectionData].
func New() *ReflectionData {
	return &ReflectionData{
		Resources:   map[uint32]map[uint32]*Resource{},
		Members:     map[uint32]map[uint32]*MemberList{},
		NameCache:   map[string]BindingKey{},
		MemberCache: map[string]MemberKey{},
	}
}

// Merge merges the given stage reflections into one [ReflectionData].
// A [*ReflectionInconsistencyError] is returned if two different resources
// claim the same (set, binding), or the push constant blocks differ in size.
func Merge(stages ...*StageReflection) (*ReflectionData, error) {
	rd := New()
	for _, sr := range stages {
		if sr == nil {
			continue
		}
		if sr.PushConstant != nil {
			if err := rd.SetPushConstant(sr.PushConstant.Resource, sr.PushConstant.Members); err != nil {
				return nil, err
			}
		}
		for _, res := range sr.Resources {
			if err := rd.Insert(res.Resource, res.Members); err != nil {
				return nil, err
			}
		}
	}
	return rd, nil
}

// Insert inserts the given resource, with its members for buffer kinds.
// If the same resource is already recorded at its (set, binding), its
// stages are added to the existing record. A different resource at the
// same (set, binding), or the same name at a different (set, binding),
// is reported as a [*ReflectionInconsistencyError] and nothing is changed.
func (rd *ReflectionData) Insert(res *Resource, members []*MemberDeclaration) error {
	key := res.Key()
	if ex := rd.resourceAt(key); ex != nil {
		if !ex.compatible(res) {
			reason := "two resources share one binding"
			if ex.Name == res.Name {
				reason = fmt.Sprintf("resource redeclared as %v (was %v)", res.Kind, ex.Kind)
			}
			return &ReflectionInconsistencyError{Set: key.Set, Binding: key.Binding, Existing: ex.Name, New: res.Name, Reason: reason}
		}
		ex.Stages = ex.Stages.Set(res.Stages)
		return nil
	}
	if other, has := rd.NameCache[res.Name]; has {
		return &ReflectionInconsistencyError{Set: key.Set, Binding: key.Binding, Existing: res.Name, New: res.Name,
			Reason: fmt.Sprintf("name is already bound at set %d binding %d", other.Set, other.Binding)}
	}
	if rd.PushConstant != nil && rd.PushConstant.Name == res.Name {
		return &ReflectionInconsistencyError{Set: key.Set, Binding: key.Binding, Existing: res.Name, New: res.Name,
			Reason: "name is already used by the push constant block"}
	}
	nr := *res
	if rd.Resources[key.Set] == nil {
		rd.Resources[key.Set] = map[uint32]*Resource{}
	}
	rd.Resources[key.Set][key.Binding] = &nr
	rd.NameCache[nr.Name] = key
	if nr.Kind.IsBuffer() {
		if rd.Members[key.Set] == nil {
			rd.Members[key.Set] = map[uint32]*MemberList{}
		}
		rd.Members[key.Set][key.Binding] = NewMemberList(members)
		for i, md := range members {
			rd.MemberCache[md.Name] = MemberKey{Set: key.Set, Binding: key.Binding, Index: i}
		}
	}
	return nil
}

// SetPushConstant records the given push constant block. Only one block is
// permitted per shader: a second one must have the same struct size, and
// its stages are added to the existing record.
func (rd *ReflectionData) SetPushConstant(res *Resource, members []*MemberDeclaration) error {
	if ex := rd.PushConstant; ex != nil {
		if ex.StructSize != res.StructSize {
			return &ReflectionInconsistencyError{Existing: ex.Name, New: res.Name,
				Reason: fmt.Sprintf("push constant size mismatch (%d bytes in %v, %d bytes in %v)", ex.StructSize, ex.Stages, res.StructSize, res.Stages)}
		}
		ex.Stages = ex.Stages.Set(res.Stages)
		return nil
	}
	nr := *res
	nr.Kind = PushConstant
	rd.PushConstant = &nr
	rd.PushConstantMembers = NewMemberList(members)
	for i, md := range members {
		rd.MemberCache[md.Name] = MemberKey{Index: i, PushConstant: true}
	}
	return nil
}

func (rd *ReflectionData) resourceAt(key BindingKey) *Resource {
	return rd.Resources[key.Set][key.Binding]
}

// HasResource returns whether the shader declares a resource
// (including the push constant block) with the given name.
func (rd *ReflectionData) HasResource(name string) bool {
	return rd.ResourceInfo(name) != nil
}

// ResourceInfo returns the resource with the given name,
// or nil if there is none.
func (rd *ReflectionData) ResourceInfo(name string) *Resource {
	if key, ok := rd.NameCache[name]; ok {
		return rd.resourceAt(key)
	}
	if rd.PushConstant != nil && rd.PushConstant.Name == name {
		return rd.PushConstant
	}
	return nil
}

// MemberInfo returns the member with the given qualified name
// (<resource-name>.<field-name>), or nil if there is none.
func (rd *ReflectionData) MemberInfo(qualifiedName string) *MemberDeclaration {
	key, ok := rd.MemberCache[qualifiedName]
	if !ok {
		return nil
	}
	ml := rd.PushConstantMembers
	if !key.PushConstant {
		ml = rd.Members[key.Set][key.Binding]
	}
	if ml == nil || key.Index < 0 || key.Index >= ml.Len() {
		return nil
	}
	return ml.Values[key.Index]
}

// ResourceBinding returns the set and binding of the resource with
// the given name. The push constant block has no binding.
func (rd *ReflectionData) ResourceBinding(name string) (set, binding uint32, ok bool) {
	key, ok := rd.NameCache[name]
	return key.Set, key.Binding, ok
}

// MemberList returns the members of the buffer at the given
// set and binding, or nil if there is no buffer there.
func (rd *ReflectionData) MemberList(set, binding uint32) *MemberList {
	return rd.Members[set][binding]
}

// Sets returns the descriptor set indexes in ascending order.
func (rd *ReflectionData) Sets() []uint32 {
	return slices.Sorted(maps.Keys(rd.Resources))
}

// All returns an iterator over all of the bound resources,
// ordered by set and then binding. The push constant block
// is not included.
func (rd *ReflectionData) All() iter.Seq[*Resource] {
	return func(yield func(*Resource) bool) {
		for _, set := range rd.Sets() {
			for _, b := range slices.Sorted(maps.Keys(rd.Resources[set])) {
				if !yield(rd.Resources[set][b]) {
					return
				}
			}
		}
	}
}

// Len returns the number of bound resources, not counting
// the push constant block.
func (rd *ReflectionData) Len() int {
	n := 0
	for _, bs := range rd.Resources {
		n += len(bs)
	}
	return n
}

// BoundResources returns the resources that have a resolved register,
// in [ReflectionData.All] order, for binding validation.
func (rd *ReflectionData) BoundResources() []*Resource {
	var rs []*Resource
	for r := range rd.All() {
		if r.IsUsed() {
			rs = append(rs, r)
		}
	}
	return rs
}

// ApplyCombined records the given combined image samplers, checking
// that each names an image and a sampler in the same set.
func (rd *ReflectionData) ApplyCombined(combined []shader.CombinedSampler) error {
	for _, cs := range combined {
		img, smp := rd.ResourceInfo(cs.Image), rd.ResourceInfo(cs.Sampler)
		switch {
		case img == nil || img.Kind != Image:
			return fmt.Errorf("reflection: combined sampler: %q is not a separate image", cs.Image)
		case smp == nil || smp.Kind != Sampler:
			return fmt.Errorf("reflection: combined sampler: %q is not a sampler", cs.Sampler)
		case img.Set != smp.Set:
			return &ReflectionInconsistencyError{Set: img.Set, Binding: img.Binding, Existing: img.Name, New: smp.Name,
				Reason: fmt.Sprintf("combined image and sampler are in different sets (%d and %d)", img.Set, smp.Set)}
		}
	}
	rd.Combined = slices.Clone(combined)
	return nil
}

// Validate checks the binding uniqueness invariant of the data,
// which holds for any data built with [ReflectionData.Insert].
func (rd *ReflectionData) Validate() error {
	seen := map[BindingKey]string{}
	for set, bs := range rd.Resources {
		for b, r := range bs {
			key := BindingKey{Set: set, Binding: b}
			if r.Key() != key {
				return &ReflectionInconsistencyError{Set: set, Binding: b, Existing: r.Name, New: r.Name, Reason: "resource stored at the wrong binding"}
			}
			if ex, ok := seen[key]; ok {
				return &ReflectionInconsistencyError{Set: set, Binding: b, Existing: ex, New: r.Name, Reason: "two resources share one binding"}
			}
			seen[key] = r.Name
		}
	}
	return nil
}
