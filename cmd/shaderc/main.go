// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command shaderc compiles multi-stage shader sources through the
// shader cache and reports their reflection.
//
// Usage:
//
//	shaderc [options] <source>...
//
// Examples:
//
//	shaderc mesh.wgsl                      # Compile through the cache
//	shaderc -backend D3D11 -o out mesh.wgsl # Write the D3D11 bytecode to out
//	shaderc -reflect mesh.wgsl             # Print the reflection as YAML
//	shaderc -watch shaders/*.wgsl          # Recompile on every change
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"cogentcore.org/shaders/base/errors"
	"cogentcore.org/shaders/base/fsx"
	"cogentcore.org/shaders/base/logx"
	"cogentcore.org/shaders/compiler"
	"cogentcore.org/shaders/config"
	"cogentcore.org/shaders/library"
)

var (
	configFile = flag.String("config", "", "TOML config file (default: built-in defaults)")
	backend    = flag.String("backend", "", "backend to compile for: Vulkan, D3D11, Metal or OpenGL (default: from config)")
	cacheRoot  = flag.String("cache", "", "cache root directory (default: from config)")
	output     = flag.String("o", "", "directory to write the bytecode of each stage to")
	force      = flag.Bool("force", false, "compile every stage, ignoring the cache")
	noOpt      = flag.Bool("O0", false, "disable bytecode optimization")
	reflect    = flag.Bool("reflect", false, "print the reflection of each shader as YAML")
	watch      = flag.Bool("watch", false, "recompile sources when they or their includes change")
	vv         = flag.Bool("vv", false, "debug output")
	verbose    = flag.Bool("v", false, "verbose output")
	quiet      = flag.Bool("q", false, "only print errors")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	logx.UserLevel = logx.LevelFromFlags(*vv, *verbose, *quiet)
	logx.SetDefaultLogger()

	paths := flag.Args()
	if len(paths) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no shader source specified")
		usage()
		os.Exit(1)
	}
	if err := run(paths); err != nil {
		logx.PrintlnError(err)
		os.Exit(1)
	}
}

func run(paths []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lb, err := library.New(cfg)
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range paths {
		sh, err := lb.Compile(p, *force, *noOpt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := report(sh); err != nil {
			errs = append(errs, err)
		}
	}
	if *watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		logx.PrintlnInfo("watching", len(lb.Paths()), "shader sources; press Ctrl+C to stop")
		return lb.Watch(ctx)
	}
	return errors.Join(errs...)
}

func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if *configFile != "" {
		var err error
		if cfg, err = config.Open(*configFile); err != nil {
			return nil, err
		}
	}
	if *backend != "" {
		if err := cfg.Backend.UnmarshalText([]byte(*backend)); err != nil {
			return nil, err
		}
	}
	if *cacheRoot != "" {
		cfg.CacheRoot = *cacheRoot
	}
	return cfg, cfg.Expand()
}

// report prints the result of one compile and writes its bytecode.
func report(sh *compiler.Shader) error {
	for st := range sh.Stages().Each() {
		how := "cached"
		switch {
		case sh.Stale(st):
			how = "stale"
		case sh.FreshlyCompiled(st):
			how = "compiled"
		}
		logx.PrintfInfo("%s %v: %d bytes (%s)\n", sh.Name, st, len(sh.Bytecode(st)), how)
		if *output == "" {
			continue
		}
		fn := filepath.Join(*output, sh.Name+st.Ext())
		if err := fsx.WriteFile(fn, sh.Bytecode(st), 0o644); err != nil {
			return err
		}
	}
	if *reflect {
		return sh.Reflection.Encode(os.Stdout)
	}
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shaderc [options] <source>...\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  shaderc mesh.wgsl                       Compile through the cache\n")
	fmt.Fprintf(os.Stderr, "  shaderc -backend D3D11 -o out mesh.wgsl Write the D3D11 bytecode to out\n")
	fmt.Fprintf(os.Stderr, "  shaderc -reflect mesh.wgsl              Print the reflection as YAML\n")
}
