// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exec provides an easy way to run the external shader tools
// (front-end compilers, cross-compilers and bytecode compilers),
// with consistent logging and output capture.
package exec

import (
	"io"
	"log/slog"
	"os"

	"cogentcore.org/shaders/base/logx"
)

// Config contains the configuration information that
// controls the behavior of exec. It is passed to most
// high-level functions, and a default version of it
// can be easily constructed using [DefaultConfig].
type Config struct {
	// Buffer is whether to buffer the output of Stdout and Stderr,
	// which is necessary for the correct printing of commands and output
	// when there is an error with a command, and for correct coloring
	// on Windows. Therefore, it should be kept at the default value of
	// true in most cases, except for when a command will run for a long
	// time and print output throughout (eg: a log command).
	Buffer bool

	// PrintOnly is whether to only print commands that would be run and
	// not actually run them. It can be used, for example, for safely testing
	// an app.
	PrintOnly bool

	// Dir is the directory in which commands are run.
	Dir string

	// Env contains any additional environment variables specified.
	// The current environment variables will also be passed to the
	// command, but they will be overridden by any variables here
	// if there are conflicts.
	Env map[string]string

	// Echo is the writer for echoing the command string to.
	// It can be set to nil to disable echoing.
	Echo io.Writer

	// Stdout is the writer to write the standard output of called commands to.
	// It can be set to nil to disable the writing of the standard output.
	Stdout io.Writer

	// Stderr is the writer to write the standard error of called commands to.
	// It can be set to nil to disable the writing of the standard error.
	Stderr io.Writer

	// Stdin is the reader to use as the standard input.
	Stdin io.Reader
}

// SetBuffer sets the [Config.Buffer] and returns the config.
func (c *Config) SetBuffer(buffer bool) *Config { c.Buffer = buffer; return c }

// SetDir sets the [Config.Dir] and returns the config.
func (c *Config) SetDir(dir string) *Config { c.Dir = dir; return c }

// SetEnv sets the given environment variable and returns the config.
func (c *Config) SetEnv(key, value string) *Config {
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	c.Env[key] = value
	return c
}

// SetStdin sets the [Config.Stdin] and returns the config.
func (c *Config) SetStdin(r io.Reader) *Config { c.Stdin = r; return c }

// SetStdout sets the [Config.Stdout] and returns the config.
func (c *Config) SetStdout(w io.Writer) *Config { c.Stdout = w; return c }

// SetStderr sets the [Config.Stderr] and returns the config.
func (c *Config) SetStderr(w io.Writer) *Config { c.Stderr = w; return c }

// DefaultConfig returns a default [Config] that
// echoes commands at the debug level and sends
// output to the standard streams.
func DefaultConfig() *Config {
	c := &Config{
		Buffer: true,
		Env:    map[string]string{},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if logx.UserLevel <= slog.LevelDebug {
		c.Echo = os.Stdout
	}
	return c
}

// Major returns a default [Config] object for a major command,
// based on [logx.UserLevel]. It should be used for commands that
// are central to an app's logic and are more important for the user
// to know about and be able to see the output of. It results in
// commands and output being printed with a [logx.UserLevel] of
// [slog.LevelInfo] or below.
func Major() *Config {
	c := DefaultConfig()
	if logx.UserLevel <= slog.LevelInfo {
		c.Echo = os.Stdout
	}
	return c
}

// Silent returns a [Config] that neither echoes commands nor
// writes their output anywhere. The tool adapters use it together
// with [Config.Output] and [Config.CombinedOutput] so that tool
// diagnostics end up in returned errors instead of the terminal.
func Silent() *Config {
	return &Config{
		Buffer: true,
		Env:    map[string]string{},
	}
}
