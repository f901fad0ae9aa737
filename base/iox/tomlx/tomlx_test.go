// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tomlx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tools struct {
	FXC       string
	ExtraArgs string
}

type settings struct {
	CacheRoot string
	Optimize  bool
	Tools     tools
}

func TestSaveOpen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "shaders.toml")
	in := &settings{CacheRoot: "Cache/Shaders", Optimize: true, Tools: tools{FXC: "fxc.exe", ExtraArgs: "-Zi"}}
	require.NoError(t, Save(in, fn))
	out := &settings{}
	require.NoError(t, Open(out, fn))
	assert.Equal(t, in, out)
}

func TestIsDecodeError(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(fn, []byte("CacheRoot = [unterminated"), 0o644))
	err := Open(&settings{}, fn)
	assert.Error(t, err)
	assert.True(t, IsDecodeError(err))

	err = Open(&settings{}, filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
	assert.False(t, IsDecodeError(err))
}
