// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shader defines the core types shared by the shader
// compile pipeline: stages, shading languages, graphics backends,
// shader identity, per-stage sources and compiled artifacts.
package shader

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
)

// Info identifies one shader source file.
type Info struct {
	// ID is the stable identity of the shader: a hash of its source path.
	ID uint64

	// Name is the source filename without directory or extension.
	Name string

	// Path is the cleaned source path.
	Path string
}

// NewInfo returns the [Info] for the given source path.
func NewInfo(path string) Info {
	path = filepath.Clean(path)
	base := filepath.Base(path)
	return Info{
		ID:   Hash(filepath.ToSlash(path)),
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}

// Filename returns the source filename including its extension.
func (in Info) Filename() string {
	return filepath.Base(in.Path)
}

// Key returns the name used for the cache files of this shader,
// which combines the source filename with its identity so that
// files with the same name in different directories do not collide.
func (in Info) Key() string {
	return fmt.Sprintf("%s-%016x", in.Filename(), in.ID)
}

func (in Info) String() string {
	return in.Path
}

// Hash returns the 64-bit FNV-1a hash of the given text. It is used
// for both shader identity and per-stage content hashes.
func Hash(text string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(text))
	return h.Sum64()
}

// SourceInfo is the preprocessed source of one stage of a shader.
// It is immutable after preprocessing.
type SourceInfo struct {
	// ShaderID is the identity of the owning shader.
	ShaderID uint64

	// Stage is the single stage this source belongs to.
	Stage Stages

	// Hash is the content hash of Source, the only cache-invalidation key.
	Hash uint64

	// Source is the preprocessed, self-contained stage source.
	Source string
}

// NewSourceInfo returns a new [SourceInfo] with its hash computed.
func NewSourceInfo(id uint64, stage Stages, source string) *SourceInfo {
	return &SourceInfo{ShaderID: id, Stage: stage, Hash: Hash(source), Source: source}
}

// Artifact is the compiled output for one stage of a shader.
type Artifact struct {
	// Stage is the single stage of this artifact.
	Stage Stages

	// IR is the SPIR-V intermediate representation.
	IR []uint32

	// Bytecode is the GPU-loadable bytecode for the active backend.
	Bytecode []byte

	// Platform is the cross-compiled platform source, if any.
	Platform string

	// FreshlyCompiled is whether this stage was compiled in the
	// current reload rather than loaded from the cache.
	FreshlyCompiled bool

	// Stale is whether this artifact is an out-of-date cached artifact
	// substituted after a failed compile.
	Stale bool
}

// WordsToBytes serializes SPIR-V words in little-endian byte order.
func WordsToBytes(words []uint32) []byte {
	b := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

// BytesToWords deserializes little-endian SPIR-V bytes into words.
func BytesToWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("shader: SPIR-V byte length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// CombinedSampler declares that a separate image and sampler are
// used together as one combined image sampler.
type CombinedSampler struct {
	Image   string
	Sampler string
}

// LayoutModes are the resource layout share modes of a shader.
type LayoutModes int32

const (
	// LayoutDefault gives each shader its own resource layout.
	LayoutDefault LayoutModes = iota

	// LayoutShared marks the shader's resource layout as shared
	// with other shaders using the same mode.
	LayoutShared
)

func (m LayoutModes) String() string {
	if m == LayoutShared {
		return "Shared"
	}
	return "Default"
}

// MarshalText implements [encoding.TextMarshaler].
func (m LayoutModes) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *LayoutModes) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "default", "":
		*m = LayoutDefault
	case "shared":
		*m = LayoutShared
	default:
		return fmt.Errorf("shader.LayoutModes: unknown layout mode %q", text)
	}
	return nil
}
