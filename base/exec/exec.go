// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Adapted in part from: https://github.com/magefile/mage
// Copyright presumably by Nate Finch, primary contributor
// Apache License, Version 2.0, January 2004

package exec

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ErrNotFound is the error resulting if a path search
// failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

// LookPath is a direct alias of [exec.LookPath].
var LookPath = exec.LookPath

// Exec executes the command, piping its stdout and stderr to the config
// writers. If the command fails, it will return an error with the command output.
// The given cmd and args may include references
// to environment variables in $FOO format, in which case these will be
// expanded before the command is run.
//
// Ran reports if the command ran (rather than was not found or not executable).
// Code reports the exit code the command returned if it ran. If err == nil, ran
// is always true and code is always 0.
func (c *Config) Exec(cmd string, args ...string) (ran bool, err error) {
	expand := func(s string) string {
		s2, ok := c.Env[s]
		if ok {
			return s2
		}
		return os.Getenv(s)
	}
	cmd = os.Expand(cmd, expand)
	for i := range args {
		args[i] = os.Expand(args[i], expand)
	}
	return c.run(cmd, args...)
}

func (c *Config) run(cmd string, args ...string) (ran bool, err error) {
	cm := exec.Command(cmd, args...)
	cm.Env = os.Environ()
	for k, v := range c.Env {
		cm.Env = append(cm.Env, k+"="+v)
	}
	cm.Dir = c.Dir
	cm.Stdin = c.Stdin

	var stdout, stderr io.Writer = c.Stdout, c.Stderr
	var obuf, ebuf *bytes.Buffer
	if c.Buffer {
		obuf, ebuf = &bytes.Buffer{}, &bytes.Buffer{}
		stdout, stderr = obuf, ebuf
	}
	cm.Stdout = stdout
	cm.Stderr = stderr

	if c.Echo != nil {
		fmt.Fprintln(c.Echo, CmdString(cm))
	}
	slog.Debug("exec", "cmd", CmdString(cm), "dir", c.Dir)
	if c.PrintOnly {
		return true, nil
	}

	err = cm.Run()
	if c.Buffer {
		if c.Stdout != nil {
			c.Stdout.Write(obuf.Bytes())
		}
		if c.Stderr != nil {
			c.Stderr.Write(ebuf.Bytes())
		}
	}
	return CmdRan(err), err
}

// CmdRan examines the error to determine if it was generated as a result
// of a command running via os/exec.Command. If the error is nil, or the
// command ran (even if it exited with a non-zero exit code), CmdRan reports
// true. If the error is an unrecognized type, or it is an error from exec.Command
// that says the command failed to run (usually due to the command not existing
// or not being executable), it reports false.
func CmdRan(err error) bool {
	if err == nil {
		return true
	}
	ee, ok := err.(*exec.ExitError)
	if ok {
		return ee.Exited()
	}
	return false
}

// CmdString returns a user-friendly string representation of the given command.
func CmdString(cmd *exec.Cmd) string {
	if cmd.Args == nil {
		return "<nil>"
	}
	return strings.Join(cmd.Args, " ")
}

// Args splits the given command-line style string into arguments,
// honoring shell quoting. It is used for user-configured extra tool
// arguments such as `-O3 "-D NAME=1"`.
func Args(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return shellwords.Parse(s)
}
