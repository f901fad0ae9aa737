// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"cogentcore.org/shaders/config"
)

// fxc runs the Direct3D 11 effect compiler.
type fxc struct {
	tool
}

func newFXC(tools *config.Tools) (*fxc, error) {
	t, err := newTool(tools.FXC, tools.FXCArgs)
	if err != nil {
		return nil, err
	}
	return &fxc{tool: t}, nil
}

// Args returns the fxc arguments compiling in to out,
// writing the listing to listing.
func (fx *fxc) Args(u *Unit, opts Options, in, out, listing string) []string {
	entry := u.EntryPoint
	if entry == "" {
		entry = "main"
	}
	args := []string{"/nologo", "/T", u.Stage.Profile(), "/E", entry, "/Fo", out, "/Fc", listing}
	if !opts.Optimize {
		args = append(args, "/Od", "/Zi")
	} else if opts.DebugInfo {
		args = append(args, "/Zi")
	}
	return append(args, in)
}

func (fx *fxc) CompileBytecode(u *Unit, opts Options) ([]byte, error) {
	fail := func(diag string, err error) ([]byte, error) {
		return nil, &BytecodeCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: diag, Err: err}
	}
	wd, err := newWorkDir()
	if err != nil {
		return fail(err.Error(), err)
	}
	defer wd.remove()
	if _, err := wd.write("in.hlsl", []byte(u.Platform)); err != nil {
		return fail(err.Error(), err)
	}
	out, err := fx.run(wd, "", fx.Args(u, opts, "in.hlsl", "out.cso", "out.lst")...)
	if err != nil {
		return fail(diagnostic(out, err), err)
	}
	b, err := wd.read("out.cso")
	if err != nil {
		return fail(err.Error(), err)
	}
	if lst, err := wd.read("out.lst"); err == nil {
		u.Listing = string(lst)
	}
	return b, nil
}

// Registers parses the listing of the unit, regenerating it from
// the bytecode with /dumpbin when the bytecode came from the cache.
func (fx *fxc) Registers(u *Unit) (map[string]int, error) {
	if u.Listing == "" {
		if len(u.Bytecode) == 0 {
			return nil, fmt.Errorf("fxc: %v stage of %s has no bytecode", u.Stage, u.Info.Path)
		}
		wd, err := newWorkDir()
		if err != nil {
			return nil, err
		}
		defer wd.remove()
		if _, err := wd.write("in.cso", u.Bytecode); err != nil {
			return nil, err
		}
		if out, err := fx.run(wd, "", "/nologo", "/dumpbin", "/Fc", "out.lst", "in.cso"); err != nil {
			return nil, fmt.Errorf("fxc: %s", diagnostic(out, err))
		}
		lst, err := wd.read("out.lst")
		if err != nil {
			return nil, err
		}
		u.Listing = string(lst)
	}
	return ParseResourceBindings(u.Listing)
}

// ParseResourceBindings parses the "Resource Bindings" table of an
// fxc listing, returning the register of each resource by name.
// The register is taken from the bind point column, the second to
// last, such as cb0, t3 or s1.
func ParseResourceBindings(listing string) (map[string]int, error) {
	regs := map[string]int{}
	in := false
	sc := bufio.NewScanner(strings.NewReader(listing))
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "//"))
		if !in {
			in = strings.HasPrefix(line, "Resource Bindings:")
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "Name" || strings.HasPrefix(fields[0], "---") {
			continue
		}
		if len(fields) < 3 {
			break
		}
		bind := fields[len(fields)-2]
		num := strings.TrimLeft(bind, "abcdefghijklmnopqrstuvwxyz")
		reg, err := strconv.Atoi(num)
		if err != nil || num == bind {
			// the end of the table
			break
		}
		regs[fields[0]] = reg
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}
