// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Languages are the shading languages that shader sources
// can be authored in.
type Languages int32

const (
	// WGSL is the WebGPU shading language.
	WGSL Languages = iota

	// GLSL is the OpenGL / Vulkan shading language.
	GLSL

	LanguagesN
)

func (l Languages) String() string {
	switch l {
	case WGSL:
		return "WGSL"
	case GLSL:
		return "GLSL"
	}
	return fmt.Sprintf("Languages(%d)", int32(l))
}

// MarshalText implements [encoding.TextMarshaler].
func (l Languages) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (l *Languages) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "wgsl":
		*l = WGSL
	case "glsl":
		*l = GLSL
	default:
		return fmt.Errorf("shader.Languages: unknown language %q", text)
	}
	return nil
}

// LanguageFromPath returns the language implied by the
// extension of the given source file path.
func LanguageFromPath(path string) (Languages, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wgsl":
		return WGSL, nil
	case ".glsl":
		return GLSL, nil
	}
	return WGSL, fmt.Errorf("shader: cannot determine shading language of %q from its extension", path)
}

// Backends are the graphics backends that shaders are compiled for.
type Backends int32

const (
	// Vulkan consumes SPIR-V directly.
	Vulkan Backends = iota

	// D3D11 uses HLSL with a flat register space per stage.
	D3D11

	// Metal uses the Metal shading language.
	Metal

	// OpenGL uses GLSL.
	OpenGL

	BackendsN
)

func (b Backends) String() string {
	switch b {
	case Vulkan:
		return "Vulkan"
	case D3D11:
		return "D3D11"
	case Metal:
		return "Metal"
	case OpenGL:
		return "OpenGL"
	}
	return fmt.Sprintf("Backends(%d)", int32(b))
}

// MarshalText implements [encoding.TextMarshaler].
func (b Backends) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (b *Backends) UnmarshalText(text []byte) error {
	for v := Vulkan; v < BackendsN; v++ {
		if strings.EqualFold(v.String(), string(text)) {
			*b = v
			return nil
		}
	}
	return fmt.Errorf("shader.Backends: unknown backend %q", text)
}

// FlatRegisters returns whether the backend binds resources through a
// flat per-stage register space instead of descriptor sets.
func (b Backends) FlatRegisters() bool {
	return b == D3D11
}
