// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageNames(t *testing.T) {
	for name, want := range map[string]Stages{
		"vertex": Vertex, "vert": Vertex, "Pixel": Pixel, "frag": Pixel,
		"fragment": Pixel, " compute ": Compute, "comp": Compute,
	} {
		st, ok := StageFromName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, st, name)
	}
	_, ok := StageFromName("geometry")
	assert.False(t, ok)
}

func TestStagesMask(t *testing.T) {
	m := Vertex.Set(Pixel)
	assert.True(t, m.Has(Vertex))
	assert.True(t, m.Has(Pixel))
	assert.False(t, m.Has(Compute))
	assert.False(t, m.Has(NoStages))
	assert.False(t, m.IsSingle())
	assert.True(t, Compute.IsSingle())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "Vertex|Pixel", m.String())
	assert.Equal(t, []Stages{Vertex, Pixel}, slices.Collect(m.Each()))

	text, err := m.MarshalText()
	require.NoError(t, err)
	var back Stages
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, m, back)
	assert.Error(t, back.UnmarshalText([]byte("Vertex|Hull")))

	assert.Equal(t, ".pixel", Pixel.Ext())
	assert.Equal(t, "cs_5_0", Compute.Profile())
	assert.Equal(t, "frag", Pixel.GLSLName())
}

func TestLanguagesBackends(t *testing.T) {
	l, err := LanguageFromPath("shaders/pbr.WGSL")
	assert.NoError(t, err)
	assert.Equal(t, WGSL, l)
	l, err = LanguageFromPath("blit.glsl")
	assert.NoError(t, err)
	assert.Equal(t, GLSL, l)
	_, err = LanguageFromPath("blit.hlsl")
	assert.Error(t, err)

	var b Backends
	require.NoError(t, b.UnmarshalText([]byte("d3d11")))
	assert.Equal(t, D3D11, b)
	assert.True(t, b.FlatRegisters())
	assert.False(t, Vulkan.FlatRegisters())
	assert.Error(t, b.UnmarshalText([]byte("glide")))
}

func TestInfo(t *testing.T) {
	a := NewInfo("assets/shaders/./pbr.wgsl")
	b := NewInfo("assets/shaders/pbr.wgsl")
	c := NewInfo("other/pbr.wgsl")
	assert.Equal(t, a, b)
	assert.Equal(t, "pbr", a.Name)
	assert.Equal(t, "pbr.wgsl", a.Filename())
	assert.NotEqual(t, a.ID, c.ID)
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestHash(t *testing.T) {
	// FNV-1a 64 reference values
	assert.Equal(t, uint64(0xcbf29ce484222325), Hash(""))
	assert.Equal(t, uint64(0xaf63dc4c8601ec8c), Hash("a"))
	assert.NotEqual(t, Hash("x = 1;"), Hash("x = 2;"))

	si := NewSourceInfo(7, Vertex, "void main() {}")
	assert.Equal(t, Hash("void main() {}"), si.Hash)
}

func TestWords(t *testing.T) {
	words := []uint32{0x07230203, 0x00010300, 0, 42, 0}
	b := WordsToBytes(words)
	assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, b[:4])
	back, err := BytesToWords(b)
	require.NoError(t, err)
	assert.Equal(t, words, back)
	_, err = BytesToWords([]byte{1, 2, 3})
	assert.Error(t, err)
}
