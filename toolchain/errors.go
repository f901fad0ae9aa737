// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"fmt"

	"cogentcore.org/shaders/shader"
)

// FrontEndCompileError is returned when a stage source
// cannot be compiled to SPIR-V IR.
type FrontEndCompileError struct {
	Path  string
	Stage shader.Stages

	// Diagnostic is the compiler's own message.
	Diagnostic string

	// Err is the underlying error, if any.
	Err error
}

func (e *FrontEndCompileError) Error() string {
	return fmt.Sprintf("%s: %v stage: front end: %s", e.Path, e.Stage, e.Diagnostic)
}

func (e *FrontEndCompileError) Unwrap() error { return e.Err }

// CrossCompileError is returned when IR cannot be
// cross compiled to the platform language.
type CrossCompileError struct {
	Path       string
	Stage      shader.Stages
	Diagnostic string
	Err        error
}

func (e *CrossCompileError) Error() string {
	return fmt.Sprintf("%s: %v stage: cross compile: %s", e.Path, e.Stage, e.Diagnostic)
}

func (e *CrossCompileError) Unwrap() error { return e.Err }

// BytecodeCompileError is returned when the platform
// source cannot be compiled to bytecode.
type BytecodeCompileError struct {
	Path       string
	Stage      shader.Stages
	Diagnostic string
	Err        error
}

func (e *BytecodeCompileError) Error() string {
	return fmt.Sprintf("%s: %v stage: bytecode: %s", e.Path, e.Stage, e.Diagnostic)
}

func (e *BytecodeCompileError) Unwrap() error { return e.Err }
