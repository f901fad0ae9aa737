// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"fmt"

	"cogentcore.org/shaders/base/keylist"
	"cogentcore.org/shaders/shader"
)

// ResourceKinds are the kinds of shader resources.
type ResourceKinds int32

const (
	Sampler ResourceKinds = iota
	Image
	CombinedImageSampler
	StorageImage
	ConstantBuffer
	StorageBuffer
	PushConstant

	ResourceKindsN
)

var kindNames = [ResourceKindsN]string{
	"Sampler", "Image", "CombinedImageSampler", "StorageImage",
	"ConstantBuffer", "StorageBuffer", "PushConstant",
}

func (k ResourceKinds) String() string {
	if k >= 0 && k < ResourceKindsN {
		return kindNames[k]
	}
	return fmt.Sprintf("ResourceKinds(%d)", int32(k))
}

// MarshalText implements [encoding.TextMarshaler].
func (k ResourceKinds) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *ResourceKinds) UnmarshalText(text []byte) error {
	for i, nm := range kindNames {
		if nm == string(text) {
			*k = ResourceKinds(i)
			return nil
		}
	}
	return fmt.Errorf("reflection.ResourceKinds: unknown kind %q", text)
}

// IsBuffer returns whether the kind is a structured buffer
// with a member list.
func (k ResourceKinds) IsBuffer() bool {
	return k == ConstantBuffer || k == StorageBuffer || k == PushConstant
}

// IsImage returns whether the kind has an image dimensionality.
func (k ResourceKinds) IsImage() bool {
	return k == Image || k == CombinedImageSampler || k == StorageImage
}

// ImageDims are the image dimensionalities.
type ImageDims int32

const (
	NoDim ImageDims = iota
	Dim1D
	Dim2D
	Dim3D
	DimCube
)

var dimNames = []string{"None", "1D", "2D", "3D", "Cube"}

func (d ImageDims) String() string {
	if d >= 0 && int(d) < len(dimNames) {
		return dimNames[d]
	}
	return fmt.Sprintf("ImageDims(%d)", int32(d))
}

// MarshalText implements [encoding.TextMarshaler].
func (d ImageDims) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *ImageDims) UnmarshalText(text []byte) error {
	for i, nm := range dimNames {
		if nm == string(text) {
			*d = ImageDims(i)
			return nil
		}
	}
	return fmt.Errorf("reflection.ImageDims: unknown dimension %q", text)
}

// Unused is the register of a resource that the bytecode compiler
// does not report, typically because its optimizer removed it.
const Unused int32 = -1

// Resource describes one resource declared by a shader.
type Resource struct {
	// Name is the declared name of the resource variable.
	Name string `yaml:"Name"`

	// Set is the descriptor set (bind group) index.
	Set uint32 `yaml:"Set"`

	// Binding is the binding index within the set.
	Binding uint32 `yaml:"Binding"`

	// Stages are all of the stages that declare the resource.
	Stages shader.Stages `yaml:"Stages"`

	// Kind is the kind of resource.
	Kind ResourceKinds `yaml:"Kind"`

	// Dimension is the image dimensionality, for image kinds.
	Dimension ImageDims `yaml:"Dimension"`

	// ArraySize is the number of array elements, 0 if not an array.
	ArraySize uint32 `yaml:"ArraySize"`

	// StructSize is the byte size of the struct, for buffer kinds.
	StructSize uint32 `yaml:"StructSize"`

	// Register is the flat platform register resolved from the
	// bytecode compiler, or [Unused].
	Register int32 `yaml:"Register"`

	// SamplerRegister is the sampler register of a combined image
	// sampler on backends that split them, or [Unused].
	SamplerRegister int32 `yaml:"SamplerRegister"`
}

// IsUsed returns whether the resource has a resolved register.
// Unused resources are excluded from binding validation.
func (r *Resource) IsUsed() bool {
	return r.Register != Unused
}

// Key returns the set and binding of the resource.
func (r *Resource) Key() BindingKey {
	return BindingKey{Set: r.Set, Binding: r.Binding}
}

// compatible returns whether o declares the same resource as r,
// which is required for two stages to share a binding.
func (r *Resource) compatible(o *Resource) bool {
	return r.Name == o.Name && r.Kind == o.Kind && r.Dimension == o.Dimension &&
		r.ArraySize == o.ArraySize && r.StructSize == o.StructSize
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s %s (set %d, binding %d, %v)", r.Kind, r.Name, r.Set, r.Binding, r.Stages)
}

// MemberDeclaration describes one member of a structured buffer.
type MemberDeclaration struct {
	// Name is qualified as <resource-name>.<field-name>.
	Name string `yaml:"Name"`

	// Type is the variable type.
	Type VarTypes `yaml:"Type"`

	// Size is the byte size.
	Size uint32 `yaml:"Size"`

	// Offset is the byte offset within the owning struct,
	// the cumulative sum of the preceding member sizes.
	Offset uint32 `yaml:"Offset"`
}

// MemberList is the ordered list of the members of one buffer,
// keyed by qualified name.
type MemberList = keylist.List[string, *MemberDeclaration]

// NewMemberList returns a [MemberList] with the given members in order.
func NewMemberList(members []*MemberDeclaration) *MemberList {
	ml := keylist.New[string, *MemberDeclaration]()
	ml.Reset()
	for _, m := range members {
		ml.Set(m.Name, m)
	}
	return ml
}

// BindingKey is a (set, binding) pair.
type BindingKey struct {
	Set     uint32 `yaml:"Set"`
	Binding uint32 `yaml:"Binding"`
}

// MemberKey locates a member: the set and binding of its buffer
// and its index in the buffer's [MemberList]. Members of the push
// constant block have PushConstant set and no set or binding.
type MemberKey struct {
	Set          uint32 `yaml:"Set"`
	Binding      uint32 `yaml:"Binding"`
	Index        int    `yaml:"Index"`
	PushConstant bool   `yaml:"PushConstant,omitempty"`
}
