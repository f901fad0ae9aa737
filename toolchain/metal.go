// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"regexp"
	"strconv"
	"strings"

	"cogentcore.org/shaders/config"
)

// metal runs the Metal compiler and linker through xcrun.
type metal struct {
	tool
}

func newMetal(tools *config.Tools) (*metal, error) {
	t, err := newTool(tools.Xcrun, tools.MetalArgs)
	if err != nil {
		return nil, err
	}
	return &metal{tool: t}, nil
}

func (mc *metal) CompileBytecode(u *Unit, opts Options) ([]byte, error) {
	fail := func(diag string, err error) ([]byte, error) {
		return nil, &BytecodeCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: diag, Err: err}
	}
	wd, err := newWorkDir()
	if err != nil {
		return fail(err.Error(), err)
	}
	defer wd.remove()
	if _, err := wd.write("in.metal", []byte(u.Platform)); err != nil {
		return fail(err.Error(), err)
	}
	args := []string{"-sdk", "macosx", "metal", "-c", "in.metal", "-o", "out.air"}
	if !opts.Optimize {
		args = append(args, "-O0")
	}
	if opts.DebugInfo {
		args = append(args, "-gline-tables-only")
	}
	if out, err := mc.run(wd, "", args...); err != nil {
		return fail(diagnostic(out, err), err)
	}
	// extra arguments are for the compiler only
	link := tool{Cmd: mc.Cmd}
	if out, err := link.run(wd, "", "-sdk", "macosx", "metallib", "out.air", "-o", "out.metallib"); err != nil {
		return fail(diagnostic(out, err), err)
	}
	b, err := wd.read("out.metallib")
	if err != nil {
		return fail(err.Error(), err)
	}
	return b, nil
}

// mslBinding matches a resource argument with its binding attribute.
var mslBinding = regexp.MustCompile(`(\w+)\s*\[\[\s*(buffer|texture|sampler)\s*\(\s*(\d+)\s*\)\s*\]\]`)

// Registers parses the binding attributes of the MSL source.
func (mc *metal) Registers(u *Unit) (map[string]int, error) {
	return ParseMSLBindings(u.Platform), nil
}

// ParseMSLBindings returns the buffer, texture and sampler indexes of
// the resource arguments in the given MSL source, by name. Samplers
// of combined image samplers, which are named <image>Smplr, are also
// reported as _<image>_sampler.
func ParseMSLBindings(src string) map[string]int {
	regs := map[string]int{}
	for _, m := range mslBinding.FindAllStringSubmatch(src, -1) {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		regs[m[1]] = n
		if m[2] == "sampler" {
			if img, ok := strings.CutSuffix(m[1], "Smplr"); ok {
				regs["_"+img+"_sampler"] = n
			}
		}
	}
	return regs
}
