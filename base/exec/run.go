// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exec

import (
	"bytes"
	"strings"
)

// Run runs the given command using the given configuration information and arguments.
func (c *Config) Run(cmd string, args ...string) error {
	_, err := c.Exec(cmd, args...)
	return err
}

// Output runs the command and returns the text from stdout.
func (c *Config) Output(cmd string, args ...string) (string, error) {
	oldStdout := c.Stdout
	// need to use buf to capture output
	buf := &bytes.Buffer{}
	c.Stdout = buf
	_, err := c.Exec(cmd, args...)
	c.Stdout = oldStdout
	if c.Stdout != nil {
		c.Stdout.Write(buf.Bytes())
	}
	return strings.TrimSuffix(buf.String(), "\n"), err
}

// CombinedOutput runs the command and returns the text from
// both stdout and stderr, which is where compilers write their
// diagnostics.
func (c *Config) CombinedOutput(cmd string, args ...string) (string, error) {
	oldStdout, oldStderr := c.Stdout, c.Stderr
	buf := &bytes.Buffer{}
	c.Stdout, c.Stderr = buf, buf
	_, err := c.Exec(cmd, args...)
	c.Stdout, c.Stderr = oldStdout, oldStderr
	return strings.TrimSuffix(buf.String(), "\n"), err
}

// Run calls [Config.Run] on [Major]
func Run(cmd string, args ...string) error {
	return Major().Run(cmd, args...)
}

// Output calls [Config.Output] on [Major]
func Output(cmd string, args ...string) (string, error) {
	return Major().Output(cmd, args...)
}
