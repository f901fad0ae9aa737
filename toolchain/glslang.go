// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"cogentcore.org/shaders/config"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
)

// glslang runs glslangValidator, which compiles GLSL to
// Vulkan SPIR-V (-V) or OpenGL SPIR-V (-G).
type glslang struct {
	tool
}

func newGlslang(tools *config.Tools) (*glslang, error) {
	t, err := newTool(tools.Glslang, tools.GlslangArgs)
	if err != nil {
		return nil, err
	}
	return &glslang{tool: t}, nil
}

// compile compiles the given GLSL source of the given stage
// with the given target flag, returning the SPIR-V words.
func (g *glslang) compile(target, src string, stage shader.Stages, opts Options) ([]uint32, string, error) {
	wd, err := newWorkDir()
	if err != nil {
		return nil, err.Error(), err
	}
	defer wd.remove()
	args := []string{target, "-S", stage.GLSLName(), "--stdin", "-o", "out.spv"}
	if opts.DebugInfo {
		args = append(args, "-g")
	}
	out, err := g.run(wd, src, args...)
	if err != nil {
		return nil, diagnostic(out, err), err
	}
	b, err := wd.read("out.spv")
	if err != nil {
		return nil, err.Error(), err
	}
	words, err := shader.BytesToWords(b)
	if err != nil {
		return nil, err.Error(), err
	}
	return words, out, nil
}

func (g *glslang) CompileIR(u *Unit, opts Options) ([]uint32, error) {
	words, diag, err := g.compile("-V", u.Source, u.Stage, opts)
	if err != nil {
		return nil, &FrontEndCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: diag, Err: err}
	}
	u.EntryPoint = "main"
	return words, nil
}

// glSPIRV compiles GLSL for OpenGL to GL SPIR-V bytecode. The GLSL is
// the cross compiled source, or the original source when there is no
// cross compiler.
type glSPIRV struct {
	glslang *glslang
}

func (gs *glSPIRV) CompileBytecode(u *Unit, opts Options) ([]byte, error) {
	src := u.Platform
	if src == "" {
		src = u.Source
	}
	words, diag, err := gs.glslang.compile("-G", src, u.Stage, opts)
	if err != nil {
		return nil, &BytecodeCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: diag, Err: err}
	}
	return shader.WordsToBytes(words), nil
}

func (gs *glSPIRV) Registers(u *Unit) (map[string]int, error) {
	words, err := shader.BytesToWords(u.Bytecode)
	if err != nil {
		return nil, err
	}
	return spirvRegisters(u.Stage, words)
}

// passthrough uses the SPIR-V IR itself as the bytecode.
type passthrough struct{}

func (passthrough) CompileBytecode(u *Unit, opts Options) ([]byte, error) {
	if len(u.IR) == 0 {
		return nil, &BytecodeCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: "no SPIR-V IR"}
	}
	return shader.WordsToBytes(u.IR), nil
}

func (passthrough) Registers(u *Unit) (map[string]int, error) {
	return spirvRegisters(u.Stage, u.IR)
}

// spirvRegisters returns the binding numbers of the resources
// declared by the given SPIR-V, by name.
func spirvRegisters(stage shader.Stages, words []uint32) (map[string]int, error) {
	sr, err := reflection.ReflectStage(stage, words)
	if err != nil {
		return nil, err
	}
	regs := map[string]int{}
	for _, r := range sr.Resources {
		regs[r.Resource.Name] = int(r.Resource.Binding)
	}
	return regs, nil
}
