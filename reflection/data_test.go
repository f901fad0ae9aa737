// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"bytes"
	"strings"
	"testing"

	"cogentcore.org/shaders/reflection/spirvtest"
	"cogentcore.org/shaders/shader"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	rd := reflectAll(t)
	require.NoError(t, rd.Validate())
	assert.Equal(t, 5, rd.Len())

	cam := rd.ResourceInfo("camera")
	require.NotNil(t, cam)
	assert.Equal(t, shader.Vertex|shader.Pixel, cam.Stages)
	assert.Equal(t, shader.Vertex, rd.ResourceInfo("particles").Stages)
	assert.Equal(t, shader.Pixel, rd.ResourceInfo("tex").Stages)

	assert.True(t, rd.HasResource("pc"))
	assert.False(t, rd.HasResource("nothing"))
	assert.Nil(t, rd.ResourceInfo("nothing"))
	require.NotNil(t, rd.PushConstant)
	assert.Equal(t, shader.Vertex|shader.Pixel, rd.PushConstant.Stages)

	set, binding, ok := rd.ResourceBinding("samp")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), set)
	assert.Equal(t, uint32(1), binding)
	_, _, ok = rd.ResourceBinding("pc")
	assert.False(t, ok)

	eye := rd.MemberInfo("camera.eye")
	require.NotNil(t, eye)
	assert.Equal(t, uint32(64), eye.Offset)
	assert.Equal(t, Float32Vector3, eye.Type)
	idx := rd.MemberInfo("pc.index")
	require.NotNil(t, idx)
	assert.Equal(t, Uint32, idx.Type)
	assert.Equal(t, uint32(4), idx.Offset)
	assert.Nil(t, rd.MemberInfo("camera.missing"))
	assert.Equal(t, 3, rd.MemberList(0, 0).Len())
	assert.Nil(t, rd.MemberList(1, 0))

	var names []string
	for r := range rd.All() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"camera", "particles", "tex", "samp", "img"}, names)
	assert.Equal(t, []uint32{0, 1}, rd.Sets())
}

func TestMergeConflict(t *testing.T) {
	b := spirvtest.New()
	other := b.Struct("Other", spirvtest.Member{Name: "x", Type: b.Float(), Offset: 0})
	b.Block(other)
	b.Variable("other", other, spirvtest.Uniform, 0, 0)
	os, err := ReflectStage(shader.Pixel, b.Words())
	require.NoError(t, err)
	vs, err := ReflectStage(shader.Vertex, vertexModule())
	require.NoError(t, err)

	_, err = Merge(vs, os)
	var re *ReflectionInconsistencyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "camera", re.Existing)
	assert.Equal(t, "other", re.New)
	assert.Equal(t, uint32(0), re.Set)
	assert.Equal(t, uint32(0), re.Binding)
}

func TestMergeNameConflict(t *testing.T) {
	rd := New()
	require.NoError(t, rd.Insert(&Resource{Name: "tex", Set: 0, Binding: 0, Kind: Image, Stages: shader.Pixel}, nil))
	err := rd.Insert(&Resource{Name: "tex", Set: 0, Binding: 1, Kind: Image, Stages: shader.Pixel}, nil)
	var re *ReflectionInconsistencyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, rd.Len())

	err = rd.Insert(&Resource{Name: "tex", Set: 0, Binding: 0, Kind: Sampler, Stages: shader.Vertex}, nil)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, shader.Pixel, rd.ResourceInfo("tex").Stages)
}

func TestPushConstantMismatch(t *testing.T) {
	vs, err := ReflectStage(shader.Vertex, vertexModule())
	require.NoError(t, err)
	b := spirvtest.New()
	push(b, false)
	ps, err := ReflectStage(shader.Pixel, b.Words())
	require.NoError(t, err)
	_, err = Merge(vs, ps)
	var re *ReflectionInconsistencyError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Error(), "push constant size mismatch")
}

func TestApplyCombined(t *testing.T) {
	rd := New()
	require.NoError(t, rd.Insert(&Resource{Name: "albedo", Set: 1, Binding: 0, Kind: Image, Dimension: Dim2D}, nil))
	require.NoError(t, rd.Insert(&Resource{Name: "linear", Set: 1, Binding: 1, Kind: Sampler}, nil))
	require.NoError(t, rd.Insert(&Resource{Name: "nearest", Set: 2, Binding: 0, Kind: Sampler}, nil))

	require.NoError(t, rd.ApplyCombined([]shader.CombinedSampler{{Image: "albedo", Sampler: "linear"}}))
	assert.Len(t, rd.Combined, 1)

	var re *ReflectionInconsistencyError
	assert.ErrorAs(t, rd.ApplyCombined([]shader.CombinedSampler{{Image: "albedo", Sampler: "nearest"}}), &re)
	assert.Error(t, rd.ApplyCombined([]shader.CombinedSampler{{Image: "linear", Sampler: "nearest"}}))
	assert.Error(t, rd.ApplyCombined([]shader.CombinedSampler{{Image: "albedo", Sampler: "missing"}}))
}

func TestResolveRegisters(t *testing.T) {
	rd := reflectAll(t)
	byName := func(r *Resource) []string { return []string{r.Name} }
	rd.ResolveRegisters(shader.Pixel, map[string]int{"camera": 3, "tex": 5, "_tex_sampler": 2, "particles": 7}, byName)

	assert.Equal(t, int32(3), rd.ResourceInfo("camera").Register)
	assert.Equal(t, int32(5), rd.ResourceInfo("tex").Register)
	assert.Equal(t, int32(2), rd.ResourceInfo("tex").SamplerRegister)
	assert.Equal(t, Unused, rd.ResourceInfo("samp").Register)
	// particles is not declared by the pixel stage
	assert.Equal(t, Unused, rd.ResourceInfo("particles").Register)

	rd.ResolveRegisters(shader.Vertex, map[string]int{"camera": 4, "particles": 1}, byName)
	assert.Equal(t, int32(3), rd.ResourceInfo("camera").Register)
	assert.Equal(t, int32(1), rd.ResourceInfo("particles").Register)

	var bound []string
	for _, r := range rd.BoundResources() {
		bound = append(bound, r.Name)
	}
	assert.Equal(t, []string{"camera", "particles", "tex"}, bound)

	rd.ResetRegisters()
	assert.Empty(t, rd.BoundResources())
}

func TestBindGroupLayoutEntries(t *testing.T) {
	rd := reflectAll(t)
	set0 := rd.BindGroupLayoutEntries(0)
	require.Len(t, set0, 2)
	assert.Equal(t, uint32(0), set0[0].Binding)
	require.NotNil(t, set0[0].Buffer)
	assert.Equal(t, gputypes.BufferBindingTypeUniform, set0[0].Buffer.Type)
	assert.Equal(t, uint64(80), set0[0].Buffer.MinBindingSize)
	assert.Equal(t, gputypes.ShaderStageVertex|gputypes.ShaderStageFragment, set0[0].Visibility)
	assert.Equal(t, gputypes.BufferBindingTypeStorage, set0[1].Buffer.Type)

	set1 := rd.BindGroupLayoutEntries(1)
	require.Len(t, set1, 3)
	require.NotNil(t, set1[0].Texture)
	assert.Equal(t, gputypes.TextureViewDimension2D, set1[0].Texture.ViewDimension)
	require.NotNil(t, set1[1].Sampler)
	assert.Equal(t, gputypes.TextureViewDimensionCube, set1[2].Texture.ViewDimension)
	assert.Equal(t, gputypes.ShaderStageFragment, set1[2].Visibility)

	assert.Empty(t, rd.BindGroupLayoutEntries(7))
}

func TestEncodeDecode(t *testing.T) {
	rd := reflectAll(t)
	rd.ResolveRegisters(shader.Pixel, map[string]int{"camera": 1, "tex": 2}, func(r *Resource) []string { return []string{r.Name} })
	rd.LayoutMode = shader.LayoutShared

	fn := t.TempDir() + "/shader.yaml"
	require.NoError(t, rd.Save(fn))
	got, err := Load(fn)
	require.NoError(t, err)
	assert.Equal(t, rd, got)
	assert.Equal(t, int32(2), got.ResourceInfo("tex").Register)
	assert.Equal(t, uint32(76), got.MemberInfo("camera.time").Offset)
}

func TestEncodeDecodeMinimal(t *testing.T) {
	rd := New()
	require.NoError(t, rd.Insert(&Resource{Name: "empty", Kind: ConstantBuffer, Stages: shader.Compute, Register: Unused, SamplerRegister: Unused}, nil))
	require.NoError(t, rd.Insert(&Resource{Name: "img", Binding: 1, Kind: Image, Dimension: Dim1D, Stages: shader.Compute, Register: Unused, SamplerRegister: Unused}, nil))
	require.NoError(t, rd.ApplyCombined(nil))

	var b bytes.Buffer
	require.NoError(t, rd.Encode(&b))
	assert.NotContains(t, b.String(), "PushConstant:")
	got, err := Decode(&b)
	require.NoError(t, err)
	assert.Equal(t, rd, got)
	assert.Nil(t, got.PushConstant)
	assert.Equal(t, 0, got.MemberList(0, 0).Len())
}

func TestDecodeMismatchedCache(t *testing.T) {
	src := `Resources:
  - Name: tex
    Set: 0
    Binding: 0
    Stages: Pixel
    Kind: Image
    Dimension: 2D
    Register: -1
    SamplerRegister: -1
NameCache:
  tex:
    Set: 0
    Binding: 3
`
	_, err := Decode(strings.NewReader(src))
	assert.Error(t, err)
}
