// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache stores compiled shader artifacts and reflection on disk,
// together with a registry of the source hash each stage was compiled
// from, so that unchanged stages are not recompiled.
//
// The layout under the cache root is:
//
//	CacheRegistry.yaml
//	spirv/<file>-<id>.<stage>          SPIR-V IR
//	<backend>/<file>-<id>.<stage>      backend bytecode
//	<backend>/<file>-<id>.<stage>.src  cross compiled platform source
//	reflection/<file>-<id>.yaml        merged reflection
//
// Cache I/O failures never abort a compile: they are returned as
// [*CacheIOError] for the caller to log, and a shader whose cache
// cannot be read is simply compiled again.
package cache

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"cogentcore.org/shaders/base/fsx"
	"cogentcore.org/shaders/base/iox/yamlx"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
	"github.com/Masterminds/semver/v3"
)

// RegistryVersion is the version of the registry format. A registry
// with a different major version is discarded.
const RegistryVersion = "1.0.0"

// RegistryFile is the name of the registry file in the cache root.
const RegistryFile = "CacheRegistry.yaml"

// States are the cache states of one stage.
type States int32

const (
	// Missing means there are no usable cached artifacts.
	Missing States = iota

	// OutOfDate means there are cached artifacts, compiled
	// from a different source.
	OutOfDate

	// UpToDate means the cached artifacts were compiled
	// from the current source.
	UpToDate
)

func (s States) String() string {
	switch s {
	case OutOfDate:
		return "OutOfDate"
	case UpToDate:
		return "UpToDate"
	}
	return "Missing"
}

// ArtifactKinds are the kinds of per-stage cached artifacts.
type ArtifactKinds int32

const (
	// IR is the SPIR-V IR.
	IR ArtifactKinds = iota

	// Bytecode is the backend bytecode.
	Bytecode

	// PlatformSource is the cross compiled platform source.
	PlatformSource
)

func (k ArtifactKinds) String() string {
	return [...]string{"IR", "Bytecode", "PlatformSource"}[k]
}

// Entry is the registry entry of one shader source file.
type Entry struct {
	// SourceFile is the path of the shader source.
	SourceFile string `yaml:"SourceFile"`

	// HashCodes are the source hashes of the compiled stages,
	// keyed by stage name.
	HashCodes map[string]uint64 `yaml:"HashCodes"`
}

// registry is the registry file.
type registry struct {
	Version     string   `yaml:"Version"`
	ShaderCache []*Entry `yaml:"ShaderCache"`
}

// Cache is the on-disk shader cache for one backend. It is safe
// for concurrent use: the registry is loaded lazily on first use,
// and it is read and rewritten under one mutex.
type Cache struct {
	// Root is the cache root directory.
	Root string

	// Backend is the backend whose bytecode is cached.
	Backend shader.Backends

	mu      sync.Mutex
	loaded  bool
	entries map[string]*Entry
}

// New returns a new [Cache] rooted at the given directory.
func New(root string, backend shader.Backends) *Cache {
	return &Cache{Root: root, Backend: backend}
}

// CacheIOError is a failure to read or write the cache.
type CacheIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("shader cache: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

// Path returns the path of the given artifact of the given stage.
func (c *Cache) Path(info shader.Info, stage shader.Stages, kind ArtifactKinds) string {
	name := info.Key() + stage.Ext()
	switch kind {
	case IR:
		return filepath.Join(c.Root, "spirv", name)
	case PlatformSource:
		return filepath.Join(c.Root, c.Backend.String(), name+".src")
	}
	return filepath.Join(c.Root, c.Backend.String(), name)
}

// ReflectionPath returns the path of the reflection file of the shader.
func (c *Cache) ReflectionPath(info shader.Info) string {
	return filepath.Join(c.Root, "reflection", info.Key()+".yaml")
}

func (c *Cache) registryPath() string {
	return filepath.Join(c.Root, RegistryFile)
}

// load loads the registry if it has not been loaded yet.
// It must be called with the mutex held.
func (c *Cache) load() {
	if c.loaded {
		return
	}
	c.loaded = true
	c.entries = map[string]*Entry{}
	fn := c.registryPath()
	if ok, _ := fsx.FileExists(fn); !ok {
		return
	}
	reg := &registry{}
	if err := yamlx.Open(reg, fn); err != nil {
		slog.Warn("discarding unreadable shader cache registry", "err", &CacheIOError{Op: "read", Path: fn, Err: err})
		return
	}
	if !compatible(reg.Version) {
		slog.Warn("discarding shader cache registry with an incompatible version", "path", fn, "version", reg.Version, "want", RegistryVersion)
		return
	}
	for _, e := range reg.ShaderCache {
		if e == nil || e.SourceFile == "" {
			continue
		}
		if e.HashCodes == nil {
			e.HashCodes = map[string]uint64{}
		}
		c.entries[e.SourceFile] = e
	}
}

// compatible returns whether a registry of the given
// version can be read.
func compatible(version string) bool {
	have, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	want := semver.MustParse(RegistryVersion)
	return have.Major() == want.Major()
}

// State returns the cache state of the given stage
// for a source with the given hash.
func (c *Cache) State(info shader.Info, stage shader.Stages, hash uint64) States {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state(info, stage, hash)
}

func (c *Cache) state(info shader.Info, stage shader.Stages, hash uint64) States {
	c.load()
	e := c.entries[info.Path]
	if e == nil {
		return Missing
	}
	h, ok := e.HashCodes[stage.String()]
	if !ok {
		return Missing
	}
	for _, kind := range []ArtifactKinds{IR, Bytecode} {
		if ok, _ := fsx.FileExists(c.Path(info, stage, kind)); !ok {
			return Missing
		}
	}
	if h != hash {
		return OutOfDate
	}
	return UpToDate
}

// HasChanged returns the stages of the given sources that are not
// [UpToDate]: their hash differs from the registry, or one of their
// artifacts is missing.
func (c *Cache) HasChanged(info shader.Info, sources map[shader.Stages]*shader.SourceInfo) shader.Stages {
	c.mu.Lock()
	defer c.mu.Unlock()
	var changed shader.Stages
	for st, src := range sources {
		if c.state(info, st, src.Hash) != UpToDate {
			changed = changed.Set(st)
		}
	}
	return changed
}

// OnCompiled records the hashes of the given compiled stages and
// rewrites the registry in full if any hash changed. Stages that are
// no longer declared are forgotten, as are the entries of source files
// that no longer exist.
func (c *Cache) OnCompiled(info shader.Info, sources map[shader.Stages]*shader.SourceInfo, compiled shader.Stages) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	changed := false
	e := c.entries[info.Path]
	if e == nil {
		e = &Entry{SourceFile: info.Path, HashCodes: map[string]uint64{}}
		c.entries[info.Path] = e
		changed = true
	}
	for nm := range e.HashCodes {
		st, ok := shader.StageFromName(nm)
		if !ok || sources[st] == nil {
			delete(e.HashCodes, nm)
			changed = true
		}
	}
	for st := range compiled.Each() {
		src := sources[st]
		if src == nil {
			continue
		}
		if h, ok := e.HashCodes[st.String()]; !ok || h != src.Hash {
			e.HashCodes[st.String()] = src.Hash
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return c.save()
}

// save writes the registry, dropping the entries of missing source
// files. It must be called with the mutex held.
func (c *Cache) save() error {
	reg := &registry{Version: RegistryVersion}
	for _, fn := range slices.Sorted(maps.Keys(c.entries)) {
		if _, err := os.Stat(fn); err != nil {
			slog.Debug("dropping shader cache entry of missing source", "path", fn)
			delete(c.entries, fn)
			continue
		}
		reg.ShaderCache = append(reg.ShaderCache, c.entries[fn])
	}
	fn := c.registryPath()
	if err := yamlx.Save(reg, fn); err != nil {
		return &CacheIOError{Op: "write", Path: fn, Err: err}
	}
	return nil
}

// Entries returns a copy of the registry entries, sorted by source file.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	var es []Entry
	for _, fn := range slices.Sorted(maps.Keys(c.entries)) {
		e := *c.entries[fn]
		e.HashCodes = maps.Clone(e.HashCodes)
		es = append(es, e)
	}
	return es
}

// LoadArtifact loads the given cached artifact of the given stage.
func (c *Cache) LoadArtifact(info shader.Info, stage shader.Stages, kind ArtifactKinds) ([]byte, error) {
	fn := c.Path(info, stage, kind)
	b, err := os.ReadFile(fn)
	if err != nil {
		return nil, &CacheIOError{Op: "read", Path: fn, Err: err}
	}
	return b, nil
}

// SaveArtifact saves the given artifact of the given stage.
func (c *Cache) SaveArtifact(info shader.Info, stage shader.Stages, kind ArtifactKinds, data []byte) error {
	fn := c.Path(info, stage, kind)
	if err := fsx.WriteFile(fn, data, 0o644); err != nil {
		return &CacheIOError{Op: "write", Path: fn, Err: err}
	}
	return nil
}

// LoadIR loads the cached SPIR-V IR of the given stage.
func (c *Cache) LoadIR(info shader.Info, stage shader.Stages) ([]uint32, error) {
	b, err := c.LoadArtifact(info, stage, IR)
	if err != nil {
		return nil, err
	}
	words, err := shader.BytesToWords(b)
	if err != nil {
		return nil, &CacheIOError{Op: "decode", Path: c.Path(info, stage, IR), Err: err}
	}
	return words, nil
}

// LoadReflection loads the cached reflection of the shader.
func (c *Cache) LoadReflection(info shader.Info) (*reflection.ReflectionData, error) {
	fn := c.ReflectionPath(info)
	rd, err := reflection.Load(fn)
	if err != nil {
		return nil, &CacheIOError{Op: "read", Path: fn, Err: err}
	}
	return rd, nil
}

// SaveReflection saves the reflection of the shader.
func (c *Cache) SaveReflection(info shader.Info, rd *reflection.ReflectionData) error {
	fn := c.ReflectionPath(info)
	if err := rd.Save(fn); err != nil {
		return &CacheIOError{Op: "write", Path: fn, Err: err}
	}
	return nil
}

// Remove removes all of the cached artifacts and the registry
// entry of the shader.
func (c *Cache) Remove(info shader.Info) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	var errs []string
	rm := func(fn string) {
		if err := os.Remove(fn); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err.Error())
		}
	}
	for _, st := range shader.AllStages {
		for _, kind := range []ArtifactKinds{IR, Bytecode, PlatformSource} {
			rm(c.Path(info, st, kind))
		}
	}
	rm(c.ReflectionPath(info))
	delete(c.entries, info.Path)
	if err := c.save(); err != nil {
		return err
	}
	if len(errs) > 0 {
		return &CacheIOError{Op: "remove", Path: info.Path, Err: fmt.Errorf("%s", strings.Join(errs, "; "))}
	}
	return nil
}
