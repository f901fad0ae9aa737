// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package preprocess

import "fmt"

// PreprocessError is returned for malformed stage markers, empty stage
// blocks, unresolvable includes and malformed compiler instructions.
// It is never retried: the shader is unusable until its source is fixed.
type PreprocessError struct {
	// Path is the shader source path.
	Path string

	// Line is the 1-based line of the problem, or 0 if it
	// does not apply to a single line.
	Line int

	// Msg describes the problem.
	Msg string
}

func (e *PreprocessError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("preprocess %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("preprocess %s: %s", e.Path, e.Msg)
}

func errorf(path string, line int, format string, args ...any) *PreprocessError {
	return &PreprocessError{Path: path, Line: line, Msg: fmt.Sprintf(format, args...)}
}
