// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"strings"
)

// ReloadError collects every failure of one [Compiler.Reload].
// The individual errors are available through [errors.As].
type ReloadError struct {
	// Path is the shader source path.
	Path string

	Errs []error
}

func (e *ReloadError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("reload %s: %v", e.Path, e.Errs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "reload %s: %d errors:", e.Path, len(e.Errs))
	for _, err := range e.Errs {
		b.WriteString("\n\t")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *ReloadError) Unwrap() []error { return e.Errs }
