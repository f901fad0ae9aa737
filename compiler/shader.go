// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
	"github.com/gogpu/gputypes"
)

// Shader is the result of a successful [Compiler.Reload]: the bytecode
// of every declared stage and the merged reflection. It is immutable,
// and its lookups are safe to call from any goroutine.
type Shader struct {
	// ID is the stable identity of the shader.
	ID uint64

	// Name is the source filename without extension.
	Name string

	// Path is the source path.
	Path string

	// Reflection is the reflection of all the stages.
	Reflection *reflection.ReflectionData

	// Layout is the flat register layout, for backends that have one.
	Layout *reflection.Layout

	stages    shader.Stages
	artifacts map[shader.Stages]*shader.Artifact
}

// Stages returns the declared stages.
func (sh *Shader) Stages() shader.Stages {
	return sh.stages
}

// Artifact returns the compiled artifact of the given stage, or nil.
func (sh *Shader) Artifact(stage shader.Stages) *shader.Artifact {
	return sh.artifacts[stage]
}

// Bytecode returns the backend bytecode of the given stage, or nil.
func (sh *Shader) Bytecode(stage shader.Stages) []byte {
	if a := sh.artifacts[stage]; a != nil {
		return a.Bytecode
	}
	return nil
}

// IR returns the SPIR-V IR of the given stage, or nil.
func (sh *Shader) IR(stage shader.Stages) []uint32 {
	if a := sh.artifacts[stage]; a != nil {
		return a.IR
	}
	return nil
}

// FreshlyCompiled returns whether the given stage was compiled
// rather than loaded from the cache.
func (sh *Shader) FreshlyCompiled(stage shader.Stages) bool {
	a := sh.artifacts[stage]
	return a != nil && a.FreshlyCompiled
}

// Stale returns whether the given stage uses stale cached
// artifacts after a failed compile.
func (sh *Shader) Stale(stage shader.Stages) bool {
	a := sh.artifacts[stage]
	return a != nil && a.Stale
}

// HasResource returns whether the shader declares the named resource.
func (sh *Shader) HasResource(name string) bool {
	return sh.Reflection.HasResource(name)
}

// ResourceInfo returns the named resource, or nil.
func (sh *Shader) ResourceInfo(name string) *reflection.Resource {
	return sh.Reflection.ResourceInfo(name)
}

// MemberInfo returns the member with the given qualified
// name, such as camera.view, or nil.
func (sh *Shader) MemberInfo(qualifiedName string) *reflection.MemberDeclaration {
	return sh.Reflection.MemberInfo(qualifiedName)
}

// ResourceBinding returns the set and binding of the named resource.
func (sh *Shader) ResourceBinding(name string) (set, binding uint32, ok bool) {
	return sh.Reflection.ResourceBinding(name)
}

// BindGroupLayoutEntries returns the bind group layout entries of the
// given set.
func (sh *Shader) BindGroupLayoutEntries(set uint32) []gputypes.BindGroupLayoutEntry {
	return sh.Reflection.BindGroupLayoutEntries(set)
}
