// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package yamlx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	SourceFile string            `yaml:"SourceFile"`
	HashCodes  map[string]uint64 `yaml:"HashCodes"`
}

func TestSaveOpen(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sub", "registry.yaml")
	in := []entry{{SourceFile: "a.wgsl", HashCodes: map[string]uint64{"Vertex": 1<<63 + 5}}}
	require.NoError(t, Save(in, fn))
	var out []entry
	require.NoError(t, Open(&out, fn))
	assert.Equal(t, in, out)

	b, err := WriteBytes(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), "SourceFile: a.wgsl")
	var out2 []entry
	require.NoError(t, ReadBytes(&out2, b))
	assert.Equal(t, in, out2)
}
