// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package library is the long-lived shader service: it owns the
// shader cache, compiles shader sources on request and installs the
// resulting shaders by name, keeping the previously installed shader
// of a source whenever a new compile fails.
package library

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"cogentcore.org/shaders/cache"
	"cogentcore.org/shaders/compiler"
	"cogentcore.org/shaders/config"
	"cogentcore.org/shaders/preprocess"
	"cogentcore.org/shaders/shader"
	"cogentcore.org/shaders/toolchain"
	"golang.org/x/sync/errgroup"
)

// Library compiles and holds the shaders of one backend.
// It is safe for concurrent use.
type Library struct {
	// Config is the configuration of the library.
	Config *config.Config

	// Cache is the shader cache, shared by all compiles.
	Cache *cache.Cache

	mu      sync.RWMutex
	sources map[string]*source
	shaders map[string]*compiler.Shader
}

// source is one shader source file known to the library.
type source struct {
	// mu serializes reloads of the source.
	mu   sync.Mutex
	comp *compiler.Compiler
}

// New returns a new [Library] for the given configuration,
// which is expanded and validated.
func New(cfg *config.Config) (*Library, error) {
	if err := cfg.Expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.HostSupported(); err != nil {
		slog.Warn("shader backend is not supported on this host, bytecode compiles will likely fail", "err", err)
	}
	lb := &Library{
		Config:  cfg,
		Cache:   cache.New(cfg.CacheRoot, cfg.Backend),
		sources: map[string]*source{},
		shaders: map[string]*compiler.Shader{},
	}
	return lb, nil
}

// Compile compiles the given shader source, installing the shader under
// its name on success. On failure the error is logged and returned, and
// any shader previously installed for the source stays installed.
// With force, every stage is compiled and no stale cached artifacts are
// used; disableOptimization compiles without bytecode optimization.
func (lb *Library) Compile(path string, force, disableOptimization bool) (*compiler.Shader, error) {
	src, err := lb.source(path)
	if err != nil {
		slog.Error("shader compile", "path", path, "err", err)
		return nil, err
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	src.comp.Options.Optimize = lb.Config.Optimize && !disableOptimization
	if err := src.comp.Reload(force); err != nil {
		slog.Error("shader compile failed, keeping the previous shader", "path", src.comp.Info.Path, "err", err)
		return nil, err
	}
	sh := src.comp.Shader()
	lb.mu.Lock()
	if prev, ok := lb.shaders[sh.Name]; ok && prev.Path != sh.Path {
		slog.Warn("shader replaces a shader of the same name from another file", "name", sh.Name, "path", sh.Path, "previous", prev.Path)
	}
	lb.shaders[sh.Name] = sh
	lb.mu.Unlock()
	slog.Info("compiled shader", "name", sh.Name, "stages", sh.Stages())
	return sh, nil
}

// source returns the source for the given path,
// creating its compiler the first time.
func (lb *Library) source(path string) (*source, error) {
	info := shader.NewInfo(path)
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if src, ok := lb.sources[info.Path]; ok {
		return src, nil
	}
	lang, err := shader.LanguageFromPath(info.Path)
	if err != nil {
		return nil, err
	}
	tc, err := toolchain.Select(lang, lb.Config.Backend, &lb.Config.Tools)
	if err != nil {
		return nil, err
	}
	slog.Debug("selected shader toolchain", "path", info.Path, "toolchain", tc.String())
	opts := compiler.Options{
		Options: toolchain.Options{
			Optimize:  lb.Config.Optimize,
			DebugInfo: lb.Config.DebugInfo,
		},
		Preprocess: preprocess.Options{IncludeFS: lb.includeFS()},
	}
	src := &source{comp: compiler.New(info, lang, tc, lb.Cache, opts)}
	lb.sources[info.Path] = src
	return src, nil
}

func (lb *Library) includeFS() []fs.FS {
	var fss []fs.FS
	for _, dir := range lb.Config.IncludeDirs {
		fss = append(fss, os.DirFS(dir))
	}
	return fss
}

// Get returns the installed shader with the given name, or nil.
func (lb *Library) Get(name string) *compiler.Shader {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.shaders[name]
}

// Names returns the sorted names of the installed shaders.
func (lb *Library) Names() []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	names := make([]string, 0, len(lb.shaders))
	for nm := range lb.shaders {
		names = append(names, nm)
	}
	slices.Sort(names)
	return names
}

// Paths returns the sorted paths of the known shader sources,
// including those that have not compiled successfully.
func (lb *Library) Paths() []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	paths := make([]string, 0, len(lb.sources))
	for p := range lb.sources {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// LoadAll compiles the given shader sources concurrently, returning
// the first error after all of them are done. The sources that
// compile are installed regardless of the others.
func (lb *Library) LoadAll(paths ...string) error {
	var g errgroup.Group
	for _, p := range paths {
		g.Go(func() error {
			_, err := lb.Compile(p, false, false)
			return err
		})
	}
	return g.Wait()
}

// ReloadAll compiles all of the known shader sources again.
func (lb *Library) ReloadAll(force bool) error {
	var g errgroup.Group
	for _, p := range lb.Paths() {
		g.Go(func() error {
			_, err := lb.Compile(p, force, false)
			return err
		})
	}
	return g.Wait()
}

// dependents returns the known sources that are the given file
// or include it.
func (lb *Library) dependents(file string) []string {
	file = filepath.Clean(file)
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	var deps []string
	for p, src := range lb.sources {
		if p == file || slices.Contains(lb.includePaths(p, src.comp.Includes()), file) {
			deps = append(deps, p)
		}
	}
	slices.Sort(deps)
	return deps
}

// includePaths resolves the given includes of the given source to
// file paths, the way the preprocessor searches for them.
func (lb *Library) includePaths(path string, includes []string) []string {
	dirs := append([]string{filepath.Dir(path)}, lb.Config.IncludeDirs...)
	var paths []string
	for _, inc := range includes {
		for _, dir := range dirs {
			fn := filepath.Join(dir, filepath.FromSlash(inc))
			if _, err := os.Stat(fn); err == nil {
				paths = append(paths, fn)
				break
			}
		}
	}
	return paths
}

// watchDirs returns the directories of the known sources
// and the include directories.
func (lb *Library) watchDirs() []string {
	dirs := slices.Clone(lb.Config.IncludeDirs)
	for _, p := range lb.Paths() {
		dirs = append(dirs, filepath.Dir(p))
	}
	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func (lb *Library) String() string {
	return fmt.Sprintf("shader library (%v, %d shaders)", lb.Config.Backend, len(lb.Names()))
}
