// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package preprocess

import (
	"io/fs"
	"path"
	"strings"
)

// maxIncludeDepth bounds nested includes.
const maxIncludeDepth = 16

// includer resolves #include "file" statements against an
// ordered list of file systems.
type includer struct {
	srcPath  string
	fsys     []fs.FS
	included []string
	seen     map[string]bool
}

// IncludeFS processes #include "file" statements in
// the given code string, using the given file systems,
// searched in order, to locate the included files.
// Includes are processed recursively and each file is
// included at most once. It returns the processed code
// and the list of files that were included.
func IncludeFS(fsys []fs.FS, srcPath, code string) (string, []string, error) {
	inc := &includer{srcPath: srcPath, fsys: fsys, seen: map[string]bool{}}
	lines, err := inc.process(splitLines(code), "", 0)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(lines, "\n"), inc.included, nil
}

func (inc *includer) process(fl []string, dir string, depth int) ([]string, error) {
	if depth > maxIncludeDepth {
		return nil, errorf(inc.srcPath, 0, "includes nested more than %d deep", maxIncludeDepth)
	}
	out := make([]string, 0, len(fl))
	for li, ln := range fl {
		tl := strings.TrimSpace(ln)
		if !strings.HasPrefix(tl, `#include`) {
			out = append(out, ln)
			continue
		}
		fn := strings.TrimSpace(tl[len(`#include`):])
		if len(fn) < 2 || fn[0] != '"' {
			return nil, errorf(inc.srcPath, li+1, "malformed #include: %s", tl)
		}
		qi := strings.Index(fn[1:], `"`)
		if qi < 0 {
			return nil, errorf(inc.srcPath, li+1, "malformed #include: no final quote")
		}
		fname := fn[1 : qi+1]
		full, b, err := inc.read(dir, fname)
		if err != nil {
			return nil, errorf(inc.srcPath, li+1, "could not find include %q", fname)
		}
		out = append(out, "// "+tl)
		if inc.seen[full] {
			continue
		}
		inc.seen[full] = true
		inc.included = append(inc.included, full)
		ol, err := inc.process(splitLines(string(b)), path.Dir(full), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, ol...)
	}
	return out, nil
}

// read locates the given include, first relative to the directory
// of the including file and then at the root of each file system.
func (inc *includer) read(dir, fname string) (string, []byte, error) {
	cands := []string{path.Clean(path.Join(dir, fname))}
	if dir != "" {
		cands = append(cands, path.Clean(fname))
	}
	var lastErr error = fs.ErrNotExist
	for _, fsys := range inc.fsys {
		for _, c := range cands {
			b, err := fs.ReadFile(fsys, c)
			if err == nil {
				return c, b, nil
			}
			lastErr = err
		}
	}
	return "", nil, lastErr
}

// splitLines splits the given text into lines, accepting
// both \n and \r\n line endings.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}
