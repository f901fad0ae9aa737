// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/shaders/base/fsx"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShader(t *testing.T) (shader.Info, map[shader.Stages]*shader.SourceInfo) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "mesh.wgsl")
	require.NoError(t, os.WriteFile(fn, []byte("// mesh"), 0o644))
	info := shader.NewInfo(fn)
	sources := map[shader.Stages]*shader.SourceInfo{
		shader.Vertex: shader.NewSourceInfo(info.ID, shader.Vertex, "vertex source"),
		shader.Pixel:  shader.NewSourceInfo(info.ID, shader.Pixel, "pixel source"),
	}
	return info, sources
}

func saveArtifacts(t *testing.T, c *Cache, info shader.Info, stages ...shader.Stages) {
	for _, st := range stages {
		require.NoError(t, c.SaveArtifact(info, st, IR, shader.WordsToBytes([]uint32{0x07230203, 1})))
		require.NoError(t, c.SaveArtifact(info, st, Bytecode, []byte("bytecode")))
	}
}

func TestPath(t *testing.T) {
	c := New("/cache", shader.D3D11)
	info := shader.NewInfo("/src/mesh.wgsl")
	key := info.Key()
	assert.Equal(t, filepath.Join("/cache", "spirv", key+".vert"), c.Path(info, shader.Vertex, IR))
	assert.Equal(t, filepath.Join("/cache", "D3D11", key+".pixel"), c.Path(info, shader.Pixel, Bytecode))
	assert.Equal(t, filepath.Join("/cache", "D3D11", key+".comp.src"), c.Path(info, shader.Compute, PlatformSource))
	assert.Equal(t, filepath.Join("/cache", "reflection", key+".yaml"), c.ReflectionPath(info))
}

func TestStates(t *testing.T) {
	info, sources := testShader(t)
	c := New(t.TempDir(), shader.Vulkan)

	assert.Equal(t, Missing, c.State(info, shader.Vertex, sources[shader.Vertex].Hash))
	assert.Equal(t, shader.Vertex|shader.Pixel, c.HasChanged(info, sources))

	saveArtifacts(t, c, info, shader.Vertex, shader.Pixel)
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex|shader.Pixel))
	assert.Equal(t, UpToDate, c.State(info, shader.Vertex, sources[shader.Vertex].Hash))
	assert.Equal(t, OutOfDate, c.State(info, shader.Vertex, 42))
	assert.Equal(t, shader.NoStages, c.HasChanged(info, sources))

	changed := map[shader.Stages]*shader.SourceInfo{
		shader.Vertex: sources[shader.Vertex],
		shader.Pixel:  shader.NewSourceInfo(info.ID, shader.Pixel, "edited pixel source"),
	}
	assert.Equal(t, shader.Pixel, c.HasChanged(info, changed))

	require.NoError(t, os.Remove(c.Path(info, shader.Vertex, Bytecode)))
	assert.Equal(t, Missing, c.State(info, shader.Vertex, sources[shader.Vertex].Hash))
}

func TestRegistryPersists(t *testing.T) {
	info, sources := testShader(t)
	root := t.TempDir()
	c := New(root, shader.Vulkan)
	saveArtifacts(t, c, info, shader.Vertex, shader.Pixel)
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex|shader.Pixel))

	ok, err := fsx.FileExists(filepath.Join(root, RegistryFile))
	require.NoError(t, err)
	assert.True(t, ok)

	c2 := New(root, shader.Vulkan)
	assert.Equal(t, UpToDate, c2.State(info, shader.Pixel, sources[shader.Pixel].Hash))
	es := c2.Entries()
	require.Len(t, es, 1)
	assert.Equal(t, info.Path, es[0].SourceFile)
	assert.Equal(t, sources[shader.Vertex].Hash, es[0].HashCodes["Vertex"])
	assert.Equal(t, sources[shader.Pixel].Hash, es[0].HashCodes["Pixel"])
}

func TestOnCompiledPartial(t *testing.T) {
	info, sources := testShader(t)
	c := New(t.TempDir(), shader.Vulkan)
	saveArtifacts(t, c, info, shader.Vertex, shader.Pixel)
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex))

	assert.Equal(t, UpToDate, c.State(info, shader.Vertex, sources[shader.Vertex].Hash))
	assert.Equal(t, Missing, c.State(info, shader.Pixel, sources[shader.Pixel].Hash))

	// the pixel stage is no longer declared
	vertexOnly := map[shader.Stages]*shader.SourceInfo{shader.Vertex: sources[shader.Vertex]}
	require.NoError(t, c.OnCompiled(info, sources, shader.Pixel))
	require.NoError(t, c.OnCompiled(info, vertexOnly, shader.NoStages))
	es := c.Entries()
	require.Len(t, es, 1)
	assert.NotContains(t, es[0].HashCodes, "Pixel")
	assert.Contains(t, es[0].HashCodes, "Vertex")
}

func TestOnCompiledUnchanged(t *testing.T) {
	info, sources := testShader(t)
	root := t.TempDir()
	c := New(root, shader.Vulkan)
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex|shader.Pixel))
	reg := filepath.Join(root, RegistryFile)
	require.NoError(t, os.Remove(reg))

	require.NoError(t, c.OnCompiled(info, sources, shader.NoStages))
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex|shader.Pixel))
	ok, err := fsx.FileExists(reg)
	require.NoError(t, err)
	assert.False(t, ok)

	edited := map[shader.Stages]*shader.SourceInfo{
		shader.Vertex: sources[shader.Vertex],
		shader.Pixel:  shader.NewSourceInfo(info.ID, shader.Pixel, "edited pixel source"),
	}
	require.NoError(t, c.OnCompiled(info, edited, shader.Pixel))
	ok, err = fsx.FileExists(reg)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.Remove(reg))
	require.NoError(t, c.OnCompiled(info, map[shader.Stages]*shader.SourceInfo{shader.Vertex: sources[shader.Vertex]}, shader.NoStages))
	ok, err = fsx.FileExists(reg)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMissingSourceDropped(t *testing.T) {
	info, sources := testShader(t)
	other, otherSources := testShader(t)
	c := New(t.TempDir(), shader.Vulkan)
	require.NoError(t, c.OnCompiled(other, otherSources, shader.Vertex))
	require.NoError(t, os.Remove(other.Path))
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex))

	es := c.Entries()
	require.Len(t, es, 1)
	assert.Equal(t, info.Path, es[0].SourceFile)
}

func TestIncompatibleRegistry(t *testing.T) {
	info, sources := testShader(t)
	root := t.TempDir()
	c := New(root, shader.Vulkan)
	saveArtifacts(t, c, info, shader.Vertex)
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex))

	fn := filepath.Join(root, RegistryFile)
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Version: "+RegistryVersion)

	for _, reg := range []string{
		"Version: 2.0.0\nShaderCache: []\n",
		"Version: not-a-version\n",
		"{{{ not yaml",
	} {
		require.NoError(t, os.WriteFile(fn, []byte(reg), 0o644))
		c := New(root, shader.Vulkan)
		assert.Equal(t, Missing, c.State(info, shader.Vertex, sources[shader.Vertex].Hash), reg)
		assert.Empty(t, c.Entries(), reg)
	}
}

func TestArtifacts(t *testing.T) {
	info, _ := testShader(t)
	c := New(t.TempDir(), shader.Metal)

	_, err := c.LoadArtifact(info, shader.Pixel, Bytecode)
	var ce *CacheIOError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "read", ce.Op)
	assert.True(t, os.IsNotExist(ce.Err))

	require.NoError(t, c.SaveArtifact(info, shader.Pixel, PlatformSource, []byte("fragment float4 main0()")))
	src, err := c.LoadArtifact(info, shader.Pixel, PlatformSource)
	require.NoError(t, err)
	assert.Equal(t, "fragment float4 main0()", string(src))

	words := []uint32{0x07230203, 0x00010300, 7}
	require.NoError(t, c.SaveArtifact(info, shader.Pixel, IR, shader.WordsToBytes(words)))
	got, err := c.LoadIR(info, shader.Pixel)
	require.NoError(t, err)
	assert.Equal(t, words, got)

	require.NoError(t, c.SaveArtifact(info, shader.Vertex, IR, []byte{1, 2, 3}))
	_, err = c.LoadIR(info, shader.Vertex)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "decode", ce.Op)
}

func TestReflection(t *testing.T) {
	info, sources := testShader(t)
	c := New(t.TempDir(), shader.Vulkan)

	_, err := c.LoadReflection(info)
	assert.Error(t, err)

	rd := reflection.New()
	require.NoError(t, rd.Insert(&reflection.Resource{
		Name:            "camera",
		Kind:            reflection.ConstantBuffer,
		Stages:          shader.Vertex,
		StructSize:      64,
		Register:        reflection.Unused,
		SamplerRegister: reflection.Unused,
	}, nil))
	require.NoError(t, c.SaveReflection(info, rd))
	got, err := c.LoadReflection(info)
	require.NoError(t, err)
	assert.Equal(t, rd.Len(), got.Len())
	assert.True(t, got.HasResource("camera"))

	saveArtifacts(t, c, info, shader.Vertex)
	require.NoError(t, c.OnCompiled(info, sources, shader.Vertex))
	require.NoError(t, c.Remove(info))
	assert.Equal(t, Missing, c.State(info, shader.Vertex, sources[shader.Vertex].Hash))
	_, err = c.LoadReflection(info)
	assert.Error(t, err)
	assert.Empty(t, c.Entries())
}
