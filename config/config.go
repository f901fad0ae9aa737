// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config contains the configuration
// structs for the shader library and the shaderc tool.
package config

import (
	"fmt"
	"path/filepath"

	"cogentcore.org/shaders/base/errors"
	"cogentcore.org/shaders/base/exec"
	"cogentcore.org/shaders/base/iox/tomlx"
	"cogentcore.org/shaders/shader"
	"github.com/mitchellh/go-homedir"
)

// Config is the main config struct that contains all of
// the configuration options for compiling shaders.
type Config struct {

	// [def: ~/.cache/cogentshaders] the directory in which compiled
	// artifacts, reflection and the cache registry are stored
	CacheRoot string `def:"~/.cache/cogentshaders" desc:"the directory in which compiled artifacts, reflection and the cache registry are stored"`

	// [def: Vulkan] the graphics backend to compile for
	Backend shader.Backends `def:"Vulkan" desc:"the graphics backend to compile for"`

	// the directories searched for #include files that are not
	// found relative to the including file
	IncludeDirs []string `desc:"the directories searched for #include files that are not found relative to the including file"`

	// [def: true] whether to optimize the bytecode
	Optimize bool `def:"true" desc:"whether to optimize the bytecode"`

	// whether to include debug information in the bytecode
	DebugInfo bool `desc:"whether to include debug information in the bytecode"`

	// [view: add-fields] the external tools used for compiling
	Tools Tools `view:"add-fields" desc:"the external tools used for compiling"`
}

// Tools are the external tool executables and the extra
// arguments passed to each of them.
type Tools struct {

	// [def: glslangValidator] the glslang front end for GLSL sources
	Glslang string `def:"glslangValidator" desc:"the glslang front end for GLSL sources"`

	// [def: spirv-cross] the SPIR-V cross compiler for GLSL sources
	SPIRVCross string `def:"spirv-cross" desc:"the SPIR-V cross compiler for GLSL sources"`

	// [def: fxc] the Direct3D 11 bytecode compiler
	FXC string `def:"fxc" desc:"the Direct3D 11 bytecode compiler"`

	// [def: xcrun] the Xcode tool runner used to invoke the Metal compiler
	Xcrun string `def:"xcrun" desc:"the Xcode tool runner used to invoke the Metal compiler"`

	// extra arguments passed to glslang, parsed as a shell would
	GlslangArgs string `desc:"extra arguments passed to glslang, parsed as a shell would"`

	// extra arguments passed to spirv-cross, parsed as a shell would
	SPIRVCrossArgs string `desc:"extra arguments passed to spirv-cross, parsed as a shell would"`

	// extra arguments passed to fxc, parsed as a shell would
	FXCArgs string `desc:"extra arguments passed to fxc, parsed as a shell would"`

	// extra arguments passed to the Metal compiler, parsed as a shell would
	MetalArgs string `desc:"extra arguments passed to the Metal compiler, parsed as a shell would"`
}

// New returns a new [Config] with the default values.
func New() *Config {
	c := &Config{}
	c.Defaults()
	return c
}

// Defaults sets the default values of the config.
func (c *Config) Defaults() {
	c.CacheRoot = "~/.cache/cogentshaders"
	c.Backend = shader.Vulkan
	c.Optimize = true
	c.Tools.Defaults()
}

// Defaults sets the default tool executables.
func (t *Tools) Defaults() {
	t.Glslang = "glslangValidator"
	t.SPIRVCross = "spirv-cross"
	t.FXC = "fxc"
	t.Xcrun = "xcrun"
}

// Open returns the config in the given TOML file, with the default
// values for any fields the file does not set, and its paths expanded.
func Open(filename string) (*Config, error) {
	c := New()
	if err := tomlx.Open(c, filename); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Expand(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save saves the config to the given TOML file.
func (c *Config) Save(filename string) error {
	return tomlx.Save(c, filename)
}

// Expand expands a leading ~ in the cache root, the include
// directories and the tool paths to the home directory.
func (c *Config) Expand() error {
	var errs []error
	expand := func(p *string) {
		if *p == "" {
			return
		}
		ex, err := homedir.Expand(*p)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: expanding %q: %w", *p, err))
			return
		}
		*p = ex
	}
	expand(&c.CacheRoot)
	for i := range c.IncludeDirs {
		expand(&c.IncludeDirs[i])
	}
	expand(&c.Tools.Glslang)
	expand(&c.Tools.SPIRVCross)
	expand(&c.Tools.FXC)
	expand(&c.Tools.Xcrun)
	return errors.Join(errs...)
}

// Validate checks that the config is usable: the cache root is
// set, and all of the extra tool arguments can be parsed.
func (c *Config) Validate() error {
	if c.CacheRoot == "" {
		return errors.New("config: CacheRoot must be set")
	}
	if !filepath.IsAbs(c.CacheRoot) && c.CacheRoot[0] == '~' {
		return fmt.Errorf("config: CacheRoot %q has not been expanded", c.CacheRoot)
	}
	for nm, args := range map[string]string{
		"GlslangArgs":    c.Tools.GlslangArgs,
		"SPIRVCrossArgs": c.Tools.SPIRVCrossArgs,
		"FXCArgs":        c.Tools.FXCArgs,
		"MetalArgs":      c.Tools.MetalArgs,
	} {
		if _, err := exec.Args(args); err != nil {
			return fmt.Errorf("config: Tools.%s: %w", nm, err)
		}
	}
	return nil
}
