// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"fmt"
	"strconv"

	"cogentcore.org/shaders/config"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
)

// Attribute name prefixes stripped to form vertex input semantics.
var attributePrefixes = []string{"a_", "in.var."}

// spirvCross runs spirv-cross on SPIR-V produced by glslang.
type spirvCross struct {
	tool
	backend shader.Backends
}

func newSPIRVCross(tools *config.Tools, backend shader.Backends) (*spirvCross, error) {
	t, err := newTool(tools.SPIRVCross, tools.SPIRVCrossArgs)
	if err != nil {
		return nil, err
	}
	return &spirvCross{tool: t, backend: backend}, nil
}

// Args returns the spirv-cross arguments for the given unit, reading
// the IR from in and writing the platform source to out.
func (sc *spirvCross) Args(u *Unit, in, out string) ([]string, error) {
	var args []string
	switch sc.backend {
	case shader.D3D11:
		args = []string{"--hlsl", "--shader-model", "50"}
		if u.Stage == shader.Vertex {
			ins, err := reflection.StageInputs(u.IR)
			if err != nil {
				return nil, err
			}
			for _, attr := range ins {
				args = append(args, "--set-hlsl-vertex-input-semantic", strconv.Itoa(int(attr.Location)), reflection.StripPrefix(attr.Name, attributePrefixes...))
			}
		}
	case shader.Metal:
		args = []string{"--msl"}
	default:
		return nil, fmt.Errorf("spirv-cross does not target %v", sc.backend)
	}
	return append(args, "--output", out, in), nil
}

func (sc *spirvCross) CrossCompile(u *Unit, layout *reflection.Layout, opts Options) (string, error) {
	fail := func(diag string, err error) (string, error) {
		return "", &CrossCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: diag, Err: err}
	}
	words := u.IR
	if layout != nil {
		var err error
		words, err = reflection.RewriteBindings(words, layout.Flatten)
		if err != nil {
			return fail(err.Error(), err)
		}
	}
	wd, err := newWorkDir()
	if err != nil {
		return fail(err.Error(), err)
	}
	defer wd.remove()
	if _, err := wd.write("in.spv", shader.WordsToBytes(words)); err != nil {
		return fail(err.Error(), err)
	}
	args, err := sc.Args(u, "in.spv", "out.src")
	if err != nil {
		return fail(err.Error(), err)
	}
	out, err := sc.run(wd, "", args...)
	if err != nil {
		return fail(diagnostic(out, err), err)
	}
	src, err := wd.read("out.src")
	if err != nil {
		return fail(err.Error(), err)
	}
	u.EntryPoint = "main"
	if sc.backend == shader.Metal {
		// spirv-cross renames main, which is reserved in MSL
		u.EntryPoint = "main0"
	}
	return string(src), nil
}
