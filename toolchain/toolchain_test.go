// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"cogentcore.org/shaders/config"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/reflection/spirvtest"
	"cogentcore.org/shaders/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	type kinds struct {
		fe FrontEnds
		cc CrossCompilers
		bc BytecodeCompilers
	}
	tests := []struct {
		lang    shader.Languages
		backend shader.Backends
		want    kinds
	}{
		{shader.WGSL, shader.Vulkan, kinds{Naga, NoCross, SPIRVPassthrough}},
		{shader.WGSL, shader.D3D11, kinds{Naga, NagaCross, FXC}},
		{shader.WGSL, shader.Metal, kinds{Naga, NagaCross, MetalCompiler}},
		{shader.WGSL, shader.OpenGL, kinds{Naga, NagaCross, GLSPIRV}},
		{shader.GLSL, shader.Vulkan, kinds{Glslang, NoCross, SPIRVPassthrough}},
		{shader.GLSL, shader.D3D11, kinds{Glslang, SPIRVCross, FXC}},
		{shader.GLSL, shader.Metal, kinds{Glslang, SPIRVCross, MetalCompiler}},
		{shader.GLSL, shader.OpenGL, kinds{Glslang, NoCross, GLSPIRV}},
	}
	for _, tt := range tests {
		tc, err := Select(tt.lang, tt.backend, nil)
		require.NoError(t, err, "%v/%v", tt.lang, tt.backend)
		assert.Equal(t, tt.want, kinds{tc.FrontEndKind, tc.CrossKind, tc.BytecodeKind}, tc.String())
		assert.Equal(t, tt.want.cc == NoCross, tc.Cross == nil)
	}
	tc, err := Select(shader.GLSL, shader.D3D11, nil)
	require.NoError(t, err)
	assert.True(t, tc.NeedsLayout())

	_, err = Select(shader.WGSL, shader.Backends(9), nil)
	assert.Error(t, err)

	tools := &config.Tools{}
	tools.Defaults()
	tools.FXCArgs = `"/D X`
	_, err = Select(shader.WGSL, shader.D3D11, tools)
	assert.Error(t, err)
}

func TestRegisterNames(t *testing.T) {
	gl, err := Select(shader.GLSL, shader.D3D11, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"camera", "u_camera"}, gl.RegisterNames(&reflection.Resource{Name: "u_camera", Kind: reflection.ConstantBuffer}))
	assert.Equal(t, []string{"u_tex"}, gl.RegisterNames(&reflection.Resource{Name: "u_tex", Kind: reflection.Image}))
	assert.Equal(t, []string{"layers[0]", "layers"}, gl.RegisterNames(&reflection.Resource{Name: "layers", Kind: reflection.Image, ArraySize: 4}))
	assert.Equal(t, []string{"type_Camera", "type.Camera"}, gl.RegisterNames(&reflection.Resource{Name: "type.Camera", Kind: reflection.StorageBuffer}))

	vk, err := Select(shader.WGSL, shader.Vulkan, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"type.Camera"}, vk.RegisterNames(&reflection.Resource{Name: "type.Camera", Kind: reflection.ConstantBuffer}))
}

const fxcListing = `//
// Generated by Microsoft (R) HLSL Shader Compiler 10.1
//
//
// Buffer Definitions:
//
// cbuffer camera
// {
//
//   float4x4 view;                     // Offset:    0 Size:    64
//
// }
//
//
// Resource Bindings:
//
// Name                                 Type  Format         Dim      HLSL Bind  Count
// ------------------------------ ---------- ------- ----------- -------------- ------
// samp                              sampler      NA          NA             s1      1
// tex                               texture  float4          2d             t2      1
// camera                            cbuffer      NA          NA            cb1      1
//
//
//
// Input signature:
//
// Name                 Index   Mask Register SysValue  Format   Used
// -------------------- ----- ------ -------- -------- ------- ------
// POSITION                 0   xyz         0     NONE   float   xyz
//
vs_5_0
`

func TestParseResourceBindings(t *testing.T) {
	regs, err := ParseResourceBindings(fxcListing)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"samp": 1, "tex": 2, "camera": 1}, regs)

	regs, err = ParseResourceBindings("vs_5_0\nmov o0, v0\n")
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestParseMSLBindings(t *testing.T) {
	src := `fragment main0_out main0(constant Camera& camera [[buffer(1)]], texture2d<float> tex [[texture(0)]], sampler texSmplr [[sampler(2)]], device Particles& particles [[ buffer(3) ]])`
	assert.Equal(t, map[string]int{"camera": 1, "tex": 0, "texSmplr": 2, "_tex_sampler": 2, "particles": 3}, ParseMSLBindings(src))
}

func TestFXCArgs(t *testing.T) {
	fx, err := newFXC(&config.Tools{FXC: "fxc"})
	require.NoError(t, err)
	u := &Unit{Stage: shader.Pixel}
	assert.Equal(t, []string{"/nologo", "/T", "ps_5_0", "/E", "main", "/Fo", "o", "/Fc", "l", "i"}, fx.Args(u, Options{Optimize: true}, "i", "o", "l"))
	u.EntryPoint = "fs_main"
	assert.Equal(t, []string{"/nologo", "/T", "ps_5_0", "/E", "fs_main", "/Fo", "o", "/Fc", "l", "/Od", "/Zi", "i"}, fx.Args(u, Options{}, "i", "o", "l"))
}

func TestSPIRVCrossArgs(t *testing.T) {
	sc, err := newSPIRVCross(&config.Tools{SPIRVCross: "spirv-cross"}, shader.D3D11)
	require.NoError(t, err)
	u := &Unit{Stage: shader.Vertex, IR: vertexIR()}
	args, err := sc.Args(u, "in.spv", "out.hlsl")
	require.NoError(t, err)
	assert.Equal(t, []string{"--hlsl", "--shader-model", "50",
		"--set-hlsl-vertex-input-semantic", "0", "uv",
		"--set-hlsl-vertex-input-semantic", "1", "position",
		"--output", "out.hlsl", "in.spv"}, args)

	sc.backend = shader.Metal
	args, err = sc.Args(&Unit{Stage: shader.Pixel}, "in.spv", "out.metal")
	require.NoError(t, err)
	assert.Equal(t, []string{"--msl", "--output", "out.metal", "in.spv"}, args)
}

// fakeTool writes a shell script standing in for an external tool.
func fakeTool(t *testing.T, name, script string) string {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fn, []byte("#!/bin/sh\n"+script), 0755))
	return fn
}

const fakeFXC = `while [ $# -gt 0 ]; do
	case "$1" in
	/Fo) shift; fo="$1";;
	/Fc) shift; fc="$1";;
	esac
	shift
done
printf 'DXBC' > "$fo"
cat > "$fc" <<'LST'
// Resource Bindings:
//
// Name                                 Type  Format         Dim      HLSL Bind  Count
// ------------------------------ ---------- ------- ----------- -------------- ------
// camera                            cbuffer      NA          NA            cb1      1
//
LST
`

func TestFXCFake(t *testing.T) {
	fx, err := newFXC(&config.Tools{FXC: fakeTool(t, "fxc", fakeFXC)})
	require.NoError(t, err)
	u := &Unit{Info: shader.NewInfo("/shaders/mesh.wgsl"), Stage: shader.Vertex, Platform: "float4 main() : SV_Position { return 0; }"}
	b, err := fx.CompileBytecode(u, Options{Optimize: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("DXBC"), b)
	regs, err := fx.Registers(u)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"camera": 1}, regs)
}

func TestFXCFailure(t *testing.T) {
	fx, err := newFXC(&config.Tools{FXC: fakeTool(t, "fxc", "echo 'in.hlsl(3,1): error X3000: syntax error' >&2\nexit 1\n")})
	require.NoError(t, err)
	u := &Unit{Info: shader.NewInfo("/shaders/mesh.wgsl"), Stage: shader.Pixel, Platform: "bad"}
	_, err = fx.CompileBytecode(u, Options{})
	var be *BytecodeCompileError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, shader.Pixel, be.Stage)
	assert.Equal(t, "/shaders/mesh.wgsl", be.Path)
	assert.Contains(t, be.Diagnostic, "X3000")
}

func TestGlslangMissing(t *testing.T) {
	gl, err := newGlslang(&config.Tools{Glslang: filepath.Join(t.TempDir(), "no-such-glslang")})
	require.NoError(t, err)
	_, err = gl.CompileIR(&Unit{Stage: shader.Vertex, Source: "#version 450\nvoid main() {}\n"}, Options{})
	var fe *FrontEndCompileError
	assert.ErrorAs(t, err, &fe)
}

func TestPassthrough(t *testing.T) {
	ir := vertexIR()
	u := &Unit{Stage: shader.Vertex, IR: ir}
	b, err := passthrough{}.CompileBytecode(u, Options{})
	require.NoError(t, err)
	assert.Equal(t, shader.WordsToBytes(ir), b)
	regs, err := passthrough{}.Registers(u)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"camera": 2}, regs)

	_, err = passthrough{}.CompileBytecode(&Unit{Stage: shader.Pixel}, Options{})
	var be *BytecodeCompileError
	assert.ErrorAs(t, err, &be)
}

const meshWGSL = `struct Camera {
	view: mat4x4<f32>,
	tint: vec4<f32>,
}

@group(0) @binding(0) var<uniform> camera: Camera;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
	return camera.view * vec4<f32>(pos, 1.0);
}
`

func TestNagaFrontEnd(t *testing.T) {
	u := &Unit{Info: shader.NewInfo("mesh.wgsl"), Stage: shader.Vertex, Source: meshWGSL}
	words, err := (&nagaFrontEnd{}).CompileIR(u, Options{})
	require.NoError(t, err)
	assert.Equal(t, "vs_main", u.EntryPoint)

	sr, err := reflection.ReflectStage(shader.Vertex, words)
	require.NoError(t, err)
	require.Len(t, sr.Resources, 1)
	cam := sr.Resources[0].Resource
	assert.Equal(t, "camera", cam.Name)
	assert.Equal(t, reflection.ConstantBuffer, cam.Kind)
	assert.Equal(t, uint32(0), cam.Set)
	assert.Equal(t, uint32(0), cam.Binding)
	assert.Equal(t, uint32(80), cam.StructSize)
	var members []string
	for _, md := range sr.Resources[0].Members {
		members = append(members, md.Name)
	}
	assert.Equal(t, []string{"camera.view", "camera.tint"}, members)
}

func TestNagaFrontEndErrors(t *testing.T) {
	u := &Unit{Info: shader.NewInfo("bad.wgsl"), Stage: shader.Vertex, Source: "fn broken( {"}
	_, err := (&nagaFrontEnd{}).CompileIR(u, Options{})
	var fe *FrontEndCompileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "bad.wgsl", fe.Path)
	assert.NotEmpty(t, fe.Diagnostic)

	u = &Unit{Info: shader.NewInfo("mesh.wgsl"), Stage: shader.Compute, Source: meshWGSL}
	_, err = (&nagaFrontEnd{}).CompileIR(u, Options{})
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Diagnostic, "no Compute entry point")
}

// vertexIR returns vertex stage IR with a uniform buffer
// at binding 2 and two attributes.
func vertexIR() []uint32 {
	b := spirvtest.New()
	f := b.Float()
	cam := b.Struct("Camera", spirvtest.Member{Name: "view", Type: b.Matrix(b.Vector(f, 4), 4), MatrixStride: 16})
	b.Block(cam)
	b.Variable("camera", cam, spirvtest.Uniform, 0, 2)
	b.Input("a_position", b.Vector(f, 3), 1)
	b.Input("a_uv", b.Vector(f, 2), 0)
	return b.Words()
}
