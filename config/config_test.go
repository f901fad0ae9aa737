// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/shaders/shader"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, shader.Vulkan, c.Backend)
	assert.True(t, c.Optimize)
	assert.Equal(t, "glslangValidator", c.Tools.Glslang)
	assert.Equal(t, "spirv-cross", c.Tools.SPIRVCross)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "shaders.toml")
	src := `Backend = "D3D11"
CacheRoot = "~/shadercache"
IncludeDirs = ["/usr/share/shaders", "~/include"]

[Tools]
FXC = "/opt/fxc/fxc.exe"
FXCArgs = "/Ges '/D DEBUG=1'"
`
	require.NoError(t, os.WriteFile(fn, []byte(src), 0666))
	c, err := Open(fn)
	require.NoError(t, err)

	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, shader.D3D11, c.Backend)
	assert.Equal(t, filepath.Join(home, "shadercache"), c.CacheRoot)
	assert.Equal(t, []string{"/usr/share/shaders", filepath.Join(home, "include")}, c.IncludeDirs)
	assert.Equal(t, "/opt/fxc/fxc.exe", c.Tools.FXC)
	// unset fields keep their defaults
	assert.Equal(t, "spirv-cross", c.Tools.SPIRVCross)
	assert.True(t, c.Optimize)
	assert.NoError(t, c.Validate())
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	fn := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(fn, []byte(`Backend = "Glide"`), 0666))
	_, err = Open(fn)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	c := New()
	c.CacheRoot = t.TempDir()
	c.Backend = shader.Metal
	c.IncludeDirs = []string{"/usr/share/shaders"}
	c.Tools.MetalArgs = "-std=macos-metal2.3"
	fn := filepath.Join(t.TempDir(), "shaders.toml")
	require.NoError(t, c.Save(fn))
	got, err := Open(fn)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestValidate(t *testing.T) {
	c := New()
	c.CacheRoot = ""
	assert.Error(t, c.Validate())
	c.CacheRoot = t.TempDir()
	c.Tools.GlslangArgs = `-DNAME="unterminated`
	assert.Error(t, c.Validate())
}

func TestBackendSupported(t *testing.T) {
	assert.NoError(t, BackendSupported(shader.Vulkan, "linux"))
	assert.NoError(t, BackendSupported(shader.D3D11, "windows"))
	assert.Error(t, BackendSupported(shader.D3D11, "linux"))
	assert.Error(t, BackendSupported(shader.Metal, "windows"))
	assert.Error(t, BackendSupported(shader.Backends(42), "linux"))
}
