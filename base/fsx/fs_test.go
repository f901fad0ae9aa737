// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fsx

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "a", "b", "c.bin")
	require.NoError(t, WriteFile(fn, []byte{1, 2, 3}, 0o644))
	b, err := os.ReadFile(fn)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	require.NoError(t, WriteFile(fn, []byte{4}, 0o644))
	b, _ = os.ReadFile(fn)
	assert.Equal(t, []byte{4}, b)

	entries, _ := os.ReadDir(filepath.Dir(fn))
	assert.Len(t, entries, 1)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := FileExists(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = FileExists(dir)
	assert.NoError(t, err)
	assert.False(t, ok)

	fn := filepath.Join(dir, "x.txt")
	require.NoError(t, os.WriteFile(fn, nil, 0o644))
	ok, err = FileExists(fn)
	assert.NoError(t, err)
	assert.True(t, ok)

	fsys := fstest.MapFS{"inc/common.wgsl": {Data: []byte("x")}}
	ok, err = FileExistsFS(fsys, "inc/common.wgsl")
	assert.NoError(t, err)
	assert.True(t, ok)
	ok, err = FileExistsFS(fsys, "inc/none.wgsl")
	assert.NoError(t, err)
	assert.False(t, ok)
}
