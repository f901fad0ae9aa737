// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/shaders/base/errors"
	"cogentcore.org/shaders/base/exec"
)

// tool is one external compiler executable with
// the extra arguments configured for it.
type tool struct {
	// Cmd is the executable name or path.
	Cmd string

	// Extra are the configured extra arguments,
	// added before the generated ones.
	Extra []string
}

func newTool(cmd, extra string) (tool, error) {
	args, err := exec.Args(extra)
	if err != nil {
		return tool{}, fmt.Errorf("toolchain: extra arguments for %s: %w", cmd, err)
	}
	return tool{Cmd: cmd, Extra: args}, nil
}

// workDir is a temporary directory holding the input and
// output files of the tool invocations for one unit.
type workDir string

func newWorkDir() (workDir, error) {
	dir, err := os.MkdirTemp("", "shaderc-")
	return workDir(dir), err
}

func (wd workDir) path(name string) string {
	return filepath.Join(string(wd), name)
}

func (wd workDir) write(name string, data []byte) (string, error) {
	p := wd.path(name)
	return p, os.WriteFile(p, data, 0666)
}

func (wd workDir) read(name string) ([]byte, error) {
	return os.ReadFile(wd.path(name))
}

func (wd workDir) remove() {
	errors.Log(os.RemoveAll(string(wd)))
}

// run runs the tool with the given arguments in the work dir,
// returning its combined output, which holds its diagnostics.
func (t tool) run(wd workDir, stdin string, args ...string) (string, error) {
	c := exec.Silent().SetDir(string(wd)).SetBuffer(true)
	if stdin != "" {
		c.SetStdin(strings.NewReader(stdin))
	}
	all := append(append([]string{}, t.Extra...), args...)
	out, err := c.CombinedOutput(t.Cmd, all...)
	if err != nil {
		if !exec.CmdRan(err) {
			return out, fmt.Errorf("%s could not be run: %w", t.Cmd, err)
		}
		slog.Debug("tool failed", "cmd", t.Cmd, "output", out)
		return out, fmt.Errorf("%s failed: %w", t.Cmd, err)
	}
	return out, nil
}

// diagnostic returns the tool output, or the error when
// the tool produced no output.
func diagnostic(out string, err error) string {
	if s := strings.TrimSpace(out); s != "" {
		return s
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
