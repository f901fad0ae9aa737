// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"fmt"
	"strings"

	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/gogpu/naga/spirv"
)

// nagaFrontEnd compiles WGSL in process with naga.
type nagaFrontEnd struct{}

// irStage returns the naga stage of the given stage.
func irStage(st shader.Stages) ir.ShaderStage {
	switch st {
	case shader.Pixel:
		return ir.StageFragment
	case shader.Compute:
		return ir.StageCompute
	}
	return ir.StageVertex
}

// lower parses, lowers and validates the WGSL source of the unit,
// and finds its entry point for the unit's stage.
func lower(u *Unit) (*ir.Module, string, error) {
	ast, err := naga.Parse(u.Source)
	if err != nil {
		return nil, "", err
	}
	module, err := naga.LowerWithSource(ast, u.Source)
	if err != nil {
		return nil, "", err
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, "", err
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return nil, "", fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}
	want := irStage(u.Stage)
	for _, ep := range module.EntryPoints {
		if ep.Stage == want {
			return module, ep.Name, nil
		}
	}
	return nil, "", fmt.Errorf("no %v entry point", u.Stage)
}

func (nf *nagaFrontEnd) CompileIR(u *Unit, opts Options) ([]uint32, error) {
	module, entry, err := lower(u)
	if err != nil {
		return nil, &FrontEndCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: err.Error(), Err: err}
	}
	// debug names are always kept, as reflection depends on them
	b, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3, Debug: true})
	if err != nil {
		return nil, &FrontEndCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: err.Error(), Err: err}
	}
	words, err := shader.BytesToWords(b)
	if err == nil {
		// naga does not name resource variables, so they are named from the IR
		words, err = reflection.AddNames(words, variableNames(module))
	}
	if err != nil {
		return nil, &FrontEndCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: err.Error(), Err: err}
	}
	u.module, u.EntryPoint = module, entry
	return words, nil
}

// variableNames returns the names of the resource variables of the
// given module and of their struct types.
func variableNames(module *ir.Module) []reflection.VariableName {
	var vns []reflection.VariableName
	for _, gv := range module.GlobalVariables {
		vn := reflection.VariableName{Name: gv.Name, Type: typeNames(module, gv.Type)}
		switch {
		case gv.Space == ir.SpacePushConstant:
			vn.PushConstant = true
		case gv.Binding != nil:
			vn.Set, vn.Binding = gv.Binding.Group, gv.Binding.Binding
		default:
			continue
		}
		vns = append(vns, vn)
	}
	return vns
}

// typeNames returns the names of the given struct type, or of the
// element struct type of the given array type, or nil.
func typeNames(module *ir.Module, h ir.TypeHandle) *reflection.TypeNames {
	if int(h) >= len(module.Types) {
		return nil
	}
	t := &module.Types[h]
	switch inner := t.Inner.(type) {
	case ir.ArrayType:
		return typeNames(module, inner.Base)
	case ir.StructType:
		tn := &reflection.TypeNames{Name: t.Name}
		for _, mb := range inner.Members {
			tn.Members = append(tn.Members, mb.Name)
			tn.Fields = append(tn.Fields, typeNames(module, mb.Type))
		}
		return tn
	}
	return nil
}

// nagaCross cross compiles WGSL in process with the naga backends.
type nagaCross struct {
	backend shader.Backends
}

func (nc *nagaCross) CrossCompile(u *Unit, layout *reflection.Layout, opts Options) (string, error) {
	fail := func(err error) (string, error) {
		return "", &CrossCompileError{Path: u.Info.Path, Stage: u.Stage, Diagnostic: err.Error(), Err: err}
	}
	module, entry := u.module, u.EntryPoint
	if module == nil {
		var err error
		module, entry, err = lower(u)
		if err != nil {
			return fail(err)
		}
		u.module = module
	}
	var src string
	var names map[string]string
	switch nc.backend {
	case shader.D3D11:
		// registers of unmapped bindings are resolved from the bytecode
		ho := &hlsl.Options{
			ShaderModel:         hlsl.ShaderModel5_0,
			BindingMap:          map[hlsl.ResourceBinding]hlsl.BindTarget{},
			EntryPoint:          entry,
			FakeMissingBindings: true,
		}
		for _, gv := range module.GlobalVariables {
			if gv.Binding == nil {
				continue
			}
			if layout == nil {
				break
			}
			rb := hlsl.ResourceBinding{Group: gv.Binding.Group, Binding: gv.Binding.Binding}
			if _, reg, ok := layout.Flatten(gv.Binding.Group, gv.Binding.Binding); ok {
				ho.BindingMap[rb] = hlsl.BindTarget{Register: reg}
			}
		}
		out, info, err := hlsl.Compile(module, ho)
		if err != nil {
			return fail(err)
		}
		src = out
		if info != nil {
			names = info.EntryPointNames
		}
	case shader.Metal:
		out, info, err := msl.CompileWithPipeline(module, msl.DefaultOptions(), msl.PipelineOptions{
			EntryPoint: &msl.EntryPointSelector{Stage: irStage(u.Stage), Name: entry},
		})
		if err != nil {
			return fail(err)
		}
		src, names = out, info.EntryPointNames
	case shader.OpenGL:
		gopts := glsl.DefaultOptions()
		gopts.EntryPoint = entry
		out, _, err := glsl.Compile(module, gopts)
		if err != nil {
			return fail(err)
		}
		// GLSL entry points are always main
		src, names = out, map[string]string{entry: "main"}
	default:
		return fail(fmt.Errorf("no naga backend for %v", nc.backend))
	}
	if nm, ok := names[entry]; ok && nm != "" {
		u.EntryPoint = nm
	}
	return src, nil
}
