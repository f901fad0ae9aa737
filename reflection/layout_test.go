// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"testing"

	"cogentcore.org/shaders/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	rd := reflectAll(t)
	l := NewLayout(rd)
	assert.True(t, l.PushConstant)

	// the push constant takes b0, so the camera moves to b1
	assert.Equal(t, uint32(1), l.Register(0, 0, RegisterB))
	assert.Equal(t, uint32(1), l.Register(0, 1, RegisterT))
	// set 1 shader resources start after set 0's
	assert.Equal(t, uint32(2), l.Register(1, 0, RegisterT))
	assert.Equal(t, uint32(4), l.Register(1, 2, RegisterT))
	assert.Equal(t, uint32(0), l.Register(1, 0, RegisterS))
	assert.Equal(t, uint32(1), l.Register(1, 1, RegisterS))

	k, ok := l.Kind(1, 1)
	assert.True(t, ok)
	assert.Equal(t, Sampler, k)
	_, ok = l.Kind(3, 0)
	assert.False(t, ok)
	assert.Contains(t, l.String(), "set 1: b2 t2 u0 s0")
}

func TestLayoutNoPushConstant(t *testing.T) {
	rd := New()
	require.NoError(t, rd.Insert(&Resource{Name: "a", Set: 0, Binding: 0, Kind: ConstantBuffer}, nil))
	require.NoError(t, rd.Insert(&Resource{Name: "b", Set: 0, Binding: 2, Kind: ConstantBuffer}, nil))
	require.NoError(t, rd.Insert(&Resource{Name: "c", Set: 2, Binding: 0, Kind: ConstantBuffer}, nil))
	require.NoError(t, rd.Insert(&Resource{Name: "d", Set: 2, Binding: 0 + 1, Kind: StorageImage}, nil))
	l := NewLayout(rd)
	assert.Equal(t, uint32(0), l.Register(0, 0, RegisterB))
	assert.Equal(t, uint32(2), l.Register(0, 2, RegisterB))
	assert.Equal(t, uint32(3), l.Register(2, 0, RegisterB))
	assert.Equal(t, uint32(1), l.Register(2, 1, RegisterU))
}

func TestRewriteBindings(t *testing.T) {
	rd := reflectAll(t)
	l := NewLayout(rd)
	words := pixelModule()
	rw, err := RewriteBindings(words, l.Flatten)
	require.NoError(t, err)
	assert.Equal(t, pixelModule(), words)

	sr, err := ReflectStage(shader.Pixel, rw)
	require.NoError(t, err)
	got := map[string][2]uint32{}
	for _, r := range sr.Resources {
		got[r.Resource.Name] = [2]uint32{r.Resource.Set, r.Resource.Binding}
	}
	assert.Equal(t, [2]uint32{0, 1}, got["camera"])
	assert.Equal(t, [2]uint32{0, 2}, got["tex"])
	assert.Equal(t, [2]uint32{0, 1}, got["samp"])
	assert.Equal(t, [2]uint32{0, 4}, got["img"])
}

func TestRegisterClass(t *testing.T) {
	assert.Equal(t, RegisterB, RegisterClass(PushConstant))
	assert.Equal(t, RegisterT, RegisterClass(StorageBuffer))
	assert.Equal(t, RegisterT, RegisterClass(CombinedImageSampler))
	assert.Equal(t, RegisterU, RegisterClass(StorageImage))
	assert.Equal(t, "s", RegisterClass(Sampler).Prefix())
}
