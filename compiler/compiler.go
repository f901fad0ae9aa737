// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler drives the reload of one shader: it preprocesses the
// source into stages, checks each stage against the cache, compiles the
// changed stages through the toolchain, reflects the result and writes
// it back to the cache. A successful reload produces a [Shader].
package compiler

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"cogentcore.org/shaders/base/errors"
	"cogentcore.org/shaders/cache"
	"cogentcore.org/shaders/preprocess"
	"cogentcore.org/shaders/reflection"
	"cogentcore.org/shaders/shader"
	"cogentcore.org/shaders/toolchain"
)

// States are the states of a [Compiler] during a reload.
type States int32

const (
	Idle States = iota
	Preprocessing
	CacheCheck
	CacheHit
	Compiling
	Reflecting
	Caching
)

func (s States) String() string {
	return [...]string{"Idle", "Preprocessing", "CacheCheck", "CacheHit", "Compiling", "Reflecting", "Caching"}[s]
}

// Options are the options of a [Compiler].
type Options struct {
	toolchain.Options

	// Preprocess are the preprocessor options.
	Preprocess preprocess.Options
}

// Compiler reloads one shader source file. Reload is synchronous and
// must not be called concurrently on the same Compiler; different
// Compilers may reload concurrently, sharing one [cache.Cache].
type Compiler struct {
	// Info identifies the shader.
	Info shader.Info

	// Language is the shading language of the source.
	Language shader.Languages

	// Toolchain compiles the stages.
	Toolchain *toolchain.Toolchain

	// Cache is the artifact cache.
	Cache *cache.Cache

	// Options are the compile options.
	Options Options

	state atomic.Int32

	mu       sync.Mutex
	shader   *Shader
	warnings []string
	includes []string
}

// New returns a new [Compiler] for the given shader source.
func New(info shader.Info, lang shader.Languages, tc *toolchain.Toolchain, c *cache.Cache, opts Options) *Compiler {
	return &Compiler{Info: info, Language: lang, Toolchain: tc, Cache: c, Options: opts}
}

// State returns the current state of the compiler.
func (c *Compiler) State() States {
	return States(c.state.Load())
}

func (c *Compiler) setState(s States) {
	c.state.Store(int32(s))
}

// Shader returns the shader produced by the last successful reload,
// or nil if there has not been one.
func (c *Compiler) Shader() *Shader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shader
}

// Warnings returns the warnings of the last reload, such as the
// stages that fell back to a stale cached artifact.
func (c *Compiler) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warnings
}

// Includes returns the include files of the source as of the
// last reload that got past preprocessing, relative to the source
// directory or the include directory they were found in.
func (c *Compiler) Includes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.includes
}

// stage is the state of one stage during a reload.
type stage struct {
	unit  *toolchain.Unit
	cache cache.States

	// fresh is whether the stage was compiled in this reload.
	fresh bool

	// stale is whether a failed compile fell back to the cache.
	stale bool

	err error
}

// reload is the state of one [Compiler.Reload].
type reload struct {
	*Compiler
	force    bool
	res      *preprocess.Result
	stages   map[shader.Stages]*stage
	errs     []error
	warnings []string
}

// Reload preprocesses and compiles the shader, replacing the shader of
// any previous reload on success. Stages that are unchanged since they
// were cached are loaded from the cache unless force is set. A stage
// that fails to compile falls back to its stale cached artifacts when
// it has some and force is not set.
//
// Reload returns a [*ReloadError] collecting every failure. On failure
// the shader of the previous reload, if any, is kept.
func (c *Compiler) Reload(force bool) error {
	defer c.setState(Idle)
	rl := &reload{Compiler: c, force: force, stages: map[shader.Stages]*stage{}}
	sh, err := rl.run()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = rl.warnings
	if rl.res != nil {
		c.includes = rl.res.Includes
	}
	if err != nil {
		return err
	}
	c.shader = sh
	return nil
}

func (rl *reload) run() (*Shader, error) {
	rl.setState(Preprocessing)
	res, err := preprocess.PreprocessFile(rl.Info, rl.Language, &rl.Options.Preprocess)
	if err != nil {
		return nil, rl.fail(err)
	}
	rl.res = res

	rl.setState(CacheCheck)
	changed := res.Stages
	if !rl.force {
		changed = rl.Cache.HasChanged(rl.Info, res.Sources)
	}
	for st := range res.Stages.Each() {
		src := res.Sources[st]
		s := &stage{
			unit:  &toolchain.Unit{Info: rl.Info, Stage: st, Source: src.Source},
			cache: rl.Cache.State(rl.Info, st, src.Hash),
		}
		rl.stages[st] = s
		if changed.Has(st) {
			continue
		}
		rl.setState(CacheHit)
		if err := rl.loadCached(s); err != nil {
			slog.Warn("shader cache artifacts unreadable, recompiling", "path", rl.Info.Path, "stage", st, "err", err)
			changed = changed.Set(st)
		}
	}

	rl.setState(Compiling)
	for st := range changed.Each() {
		rl.frontEnd(rl.stages[st])
	}
	var layout *reflection.Layout
	if rl.Toolchain.NeedsLayout() && changed != shader.NoStages {
		rd, err := rl.reflect()
		if err != nil {
			return nil, rl.fail(err)
		}
		layout = reflection.NewLayout(rd)
		slog.Debug("shader binding layout", "path", rl.Info.Path, "layout", layout.String())
	}
	for st := range changed.Each() {
		rl.backEnd(rl.stages[st], layout)
	}
	for st := range res.Stages.Each() {
		if s := rl.stages[st]; s.err != nil {
			rl.errs = append(rl.errs, s.err)
		}
	}
	if len(rl.errs) > 0 {
		return nil, rl.fail()
	}

	rl.setState(Reflecting)
	rd, err := rl.reflectShader()
	if err != nil {
		return nil, rl.fail(err)
	}

	rl.setState(Caching)
	rl.save(rd)
	if layout == nil && rl.Toolchain.NeedsLayout() {
		layout = reflection.NewLayout(rd)
	}
	return rl.newShader(rd, layout), nil
}

// fail returns the [*ReloadError] of the given errors and
// the errors collected so far.
func (rl *reload) fail(errs ...error) error {
	rl.errs = append(rl.errs, errs...)
	return &ReloadError{Path: rl.Info.Path, Errs: rl.errs}
}

func (rl *reload) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Warn(msg, "path", rl.Info.Path)
	rl.warnings = append(rl.warnings, msg)
}

// loadCached loads the IR and bytecode of an unchanged stage, and its
// platform source if it has one.
func (rl *reload) loadCached(s *stage) error {
	u := s.unit
	words, err := rl.Cache.LoadIR(rl.Info, u.Stage)
	if err != nil {
		return err
	}
	b, err := rl.Cache.LoadArtifact(rl.Info, u.Stage, cache.Bytecode)
	if err != nil {
		return err
	}
	u.IR, u.Bytecode = words, b
	if src, err := rl.Cache.LoadArtifact(rl.Info, u.Stage, cache.PlatformSource); err == nil {
		u.Platform = string(src)
	}
	return nil
}

// frontEnd compiles the stage source to IR.
func (rl *reload) frontEnd(s *stage) {
	words, err := rl.Toolchain.FrontEnd.CompileIR(s.unit, rl.Options.Options)
	if err != nil {
		rl.fallback(s, err)
		return
	}
	s.unit.IR = words
}

// backEnd cross compiles the IR of a stage whose front end
// succeeded and compiles it to bytecode.
func (rl *reload) backEnd(s *stage, layout *reflection.Layout) {
	if s.err != nil || s.stale {
		return
	}
	u := s.unit
	if rl.Toolchain.Cross != nil {
		src, err := rl.Toolchain.Cross.CrossCompile(u, layout, rl.Options.Options)
		if err != nil {
			rl.fallback(s, err)
			return
		}
		u.Platform = src
	}
	b, err := rl.Toolchain.Bytecode.CompileBytecode(u, rl.Options.Options)
	if err != nil {
		rl.fallback(s, err)
		return
	}
	u.Bytecode = b
	s.fresh = true
}

// fallback handles a failed compile of the given stage: an out of date
// stage loads its stale cached artifacts unless the reload is forced,
// and any other stage fails.
func (rl *reload) fallback(s *stage, err error) {
	st := s.unit.Stage
	if rl.force || s.cache != cache.OutOfDate {
		s.err = err
		return
	}
	u := &toolchain.Unit{Info: rl.Info, Stage: st, Source: s.unit.Source}
	s.unit = u
	if lerr := rl.loadCached(s); lerr != nil {
		s.err = errors.Join(err, lerr)
		return
	}
	s.stale = true
	rl.warn("%v stage failed to compile, using the stale cached artifacts: %v", st, err)
}

// reflect reflects the IR of every stage and merges the results.
func (rl *reload) reflect() (*reflection.ReflectionData, error) {
	var srs []*reflection.StageReflection
	for st := range rl.res.Stages.Each() {
		s := rl.stages[st]
		if len(s.unit.IR) == 0 {
			continue
		}
		sr, err := reflection.ReflectStage(st, s.unit.IR)
		if err != nil {
			return nil, fmt.Errorf("%s: %v stage: %w", rl.Info.Path, st, err)
		}
		srs = append(srs, sr)
	}
	return reflection.Merge(srs...)
}

// reflectShader returns the reflection of the shader: reflected from
// the IR when a stage was compiled or the reload is forced, and
// otherwise loaded from the cache.
func (rl *reload) reflectShader() (*reflection.ReflectionData, error) {
	fresh := rl.force
	for _, s := range rl.stages {
		fresh = fresh || s.fresh
	}
	if !fresh {
		rd, err := rl.Cache.LoadReflection(rl.Info)
		if err == nil {
			return rd, nil
		}
		slog.Warn("shader cache reflection unreadable, reflecting again", "path", rl.Info.Path, "err", err)
	}
	rd, err := rl.reflect()
	if err != nil {
		return nil, err
	}
	if err := rd.ApplyCombined(rl.res.Combined); err != nil {
		return nil, err
	}
	rd.LayoutMode = rl.res.Layout
	rl.resolveRegisters(rd)
	if err := rd.Validate(); err != nil {
		return nil, err
	}
	return rd, nil
}

// resolveRegisters resolves the flat registers of the resources from
// the bytecode compiler of each stage.
func (rl *reload) resolveRegisters(rd *reflection.ReflectionData) {
	rd.ResetRegisters()
	for st := range rl.res.Stages.Each() {
		regs, err := rl.Toolchain.Bytecode.Registers(rl.stages[st].unit)
		if err != nil {
			slog.Warn("could not resolve shader registers", "path", rl.Info.Path, "stage", st, "err", err)
			continue
		}
		rd.ResolveRegisters(st, regs, rl.Toolchain.RegisterNames)
	}
}

// save writes the artifacts of the freshly compiled stages, the registry
// and the reflection to the cache. Failures are logged and do not fail
// the reload.
func (rl *reload) save(rd *reflection.ReflectionData) {
	var compiled shader.Stages
	for st := range rl.res.Stages.Each() {
		s := rl.stages[st]
		if !s.fresh {
			continue
		}
		u := s.unit
		err := errors.Join(
			rl.Cache.SaveArtifact(rl.Info, st, cache.IR, shader.WordsToBytes(u.IR)),
			rl.Cache.SaveArtifact(rl.Info, st, cache.Bytecode, u.Bytecode),
		)
		if u.Platform != "" {
			err = errors.Join(err, rl.Cache.SaveArtifact(rl.Info, st, cache.PlatformSource, []byte(u.Platform)))
		}
		if err != nil {
			slog.Warn("could not cache shader artifacts", "path", rl.Info.Path, "stage", st, "err", err)
			continue
		}
		compiled = compiled.Set(st)
	}
	if err := rl.Cache.OnCompiled(rl.Info, rl.res.Sources, compiled); err != nil {
		slog.Warn("could not write shader cache registry", "err", err)
	}
	if err := rl.Cache.SaveReflection(rl.Info, rd); err != nil {
		slog.Warn("could not cache shader reflection", "err", err)
	}
}

func (rl *reload) newShader(rd *reflection.ReflectionData, layout *reflection.Layout) *Shader {
	sh := &Shader{
		ID:         rl.Info.ID,
		Name:       rl.Info.Name,
		Path:       rl.Info.Path,
		Reflection: rd,
		Layout:     layout,
		stages:     rl.res.Stages,
		artifacts:  map[shader.Stages]*shader.Artifact{},
	}
	for st := range rl.res.Stages.Each() {
		s := rl.stages[st]
		sh.artifacts[st] = &shader.Artifact{
			Stage:           st,
			IR:              s.unit.IR,
			Bytecode:        s.unit.Bytecode,
			Platform:        s.unit.Platform,
			FreshlyCompiled: s.fresh,
			Stale:           s.stale,
		}
	}
	return sh
}
