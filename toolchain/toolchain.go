// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package toolchain adapts the shader compilers that turn a preprocessed
// stage source into SPIR-V IR, a platform shading language source and
// finally backend bytecode. The adapters are selected once per compile
// from the source language and the backend, and every failure of an
// adapter is returned as a typed error carrying the tool's diagnostic.
package toolchain

import (
	"fmt"
	"strings"

	"cogentcore.org/shaders/config"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
	"github.com/gogpu/naga/ir"
)

// Options are the per-compile options passed to every adapter.
type Options struct {
	// Optimize is whether to optimize the bytecode.
	Optimize bool

	// DebugInfo is whether to include debug information.
	DebugInfo bool
}

// Unit is one stage of one shader as it moves through the toolchain.
// Each adapter reads the fields set by the previous ones.
type Unit struct {
	// Info identifies the shader.
	Info shader.Info

	// Stage is the single stage being compiled.
	Stage shader.Stages

	// Source is the preprocessed stage source.
	Source string

	// IR is the SPIR-V IR produced by the front end.
	IR []uint32

	// Platform is the platform source produced by the cross compiler.
	Platform string

	// EntryPoint is the entry point name in the platform source.
	EntryPoint string

	// Listing is the bytecode compiler's listing, when it produces one.
	Listing string

	// Bytecode is the backend bytecode.
	Bytecode []byte

	// module is the lowered naga module of a WGSL source.
	module *ir.Module
}

// FrontEnd compiles a stage source to SPIR-V IR.
type FrontEnd interface {
	CompileIR(u *Unit, opts Options) ([]uint32, error)
}

// CrossCompiler compiles SPIR-V IR, or the source it came from, to the
// platform shading language. The layout is non-nil for backends with a
// flat register space.
type CrossCompiler interface {
	CrossCompile(u *Unit, layout *reflection.Layout, opts Options) (string, error)
}

// BytecodeCompiler compiles the platform source, or the IR, to bytecode,
// and reports the registers it assigned to each resource name.
type BytecodeCompiler interface {
	CompileBytecode(u *Unit, opts Options) ([]byte, error)
	Registers(u *Unit) (map[string]int, error)
}

// FrontEnds are the front-end compilers.
type FrontEnds int32

const (
	Naga FrontEnds = iota
	Glslang
)

func (f FrontEnds) String() string {
	return [...]string{"Naga", "Glslang"}[f]
}

// CrossCompilers are the cross compilers.
type CrossCompilers int32

const (
	NoCross CrossCompilers = iota
	NagaCross
	SPIRVCross
)

func (c CrossCompilers) String() string {
	return [...]string{"NoCross", "NagaCross", "SPIRVCross"}[c]
}

// BytecodeCompilers are the bytecode compilers.
type BytecodeCompilers int32

const (
	SPIRVPassthrough BytecodeCompilers = iota
	FXC
	MetalCompiler
	GLSPIRV
)

func (b BytecodeCompilers) String() string {
	return [...]string{"SPIRVPassthrough", "FXC", "MetalCompiler", "GLSPIRV"}[b]
}

// Toolchain is the set of adapters used to compile one language
// for one backend.
type Toolchain struct {
	Language shader.Languages
	Backend  shader.Backends

	FrontEndKind FrontEnds
	CrossKind    CrossCompilers
	BytecodeKind BytecodeCompilers

	FrontEnd FrontEnd

	// Cross is nil for [NoCross].
	Cross    CrossCompiler
	Bytecode BytecodeCompiler
}

// Select returns the toolchain for the given language and backend,
// using the given tools.
func Select(lang shader.Languages, backend shader.Backends, tools *config.Tools) (*Toolchain, error) {
	if tools == nil {
		tools = &config.Tools{}
		tools.Defaults()
	}
	tc := &Toolchain{Language: lang, Backend: backend}
	gl, err := newGlslang(tools)
	if err != nil {
		return nil, err
	}
	switch lang {
	case shader.WGSL:
		tc.FrontEndKind, tc.FrontEnd = Naga, &nagaFrontEnd{}
		if backend != shader.Vulkan {
			tc.CrossKind, tc.Cross = NagaCross, &nagaCross{backend: backend}
		}
	case shader.GLSL:
		tc.FrontEndKind, tc.FrontEnd = Glslang, gl
		switch backend {
		case shader.D3D11, shader.Metal:
			sc, err := newSPIRVCross(tools, backend)
			if err != nil {
				return nil, err
			}
			tc.CrossKind, tc.Cross = SPIRVCross, sc
		case shader.OpenGL:
			// GLSL is already the platform language.
			tc.CrossKind, tc.Cross = NoCross, nil
		}
	default:
		return nil, fmt.Errorf("toolchain: unsupported language %v", lang)
	}
	switch backend {
	case shader.Vulkan:
		tc.BytecodeKind, tc.Bytecode = SPIRVPassthrough, passthrough{}
	case shader.D3D11:
		fx, err := newFXC(tools)
		if err != nil {
			return nil, err
		}
		tc.BytecodeKind, tc.Bytecode = FXC, fx
	case shader.Metal:
		mc, err := newMetal(tools)
		if err != nil {
			return nil, err
		}
		tc.BytecodeKind, tc.Bytecode = MetalCompiler, mc
	case shader.OpenGL:
		tc.BytecodeKind, tc.Bytecode = GLSPIRV, &glSPIRV{glslang: gl}
	default:
		return nil, fmt.Errorf("toolchain: unsupported backend %v", backend)
	}
	return tc, nil
}

func (tc *Toolchain) String() string {
	return fmt.Sprintf("%v/%v: %v -> %v -> %v", tc.Language, tc.Backend, tc.FrontEndKind, tc.CrossKind, tc.BytecodeKind)
}

// RegisterNames returns the candidate names under which the bytecode
// compiler may report the register of the given resource, in order.
func (tc *Toolchain) RegisterNames(r *reflection.Resource) []string {
	name := r.Name
	var names []string
	add := func(nm string) {
		if r.ArraySize > 0 {
			names = append(names, nm+"[0]")
		}
		names = append(names, nm)
	}
	if tc.Language == shader.GLSL && r.Kind == reflection.ConstantBuffer {
		if nm, ok := strings.CutPrefix(name, "u_"); ok {
			add(nm)
		}
	}
	if tc.Backend == shader.D3D11 {
		if nm := strings.ReplaceAll(name, ".", "_"); nm != name {
			add(nm)
		}
	}
	add(name)
	return names
}

// NeedsLayout returns whether the toolchain cross compiles to a flat
// register space, for which a binding layout must be computed first.
func (tc *Toolchain) NeedsLayout() bool {
	return tc.Cross != nil && tc.Backend.FlatRegisters()
}
