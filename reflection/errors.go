// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import "fmt"

// ReflectionInconsistencyError is returned when reflected stages do not
// agree: two different resources at the same (set, binding), one name
// bound at two places, or push-constant blocks of different sizes.
// It is never recovered from with a stale cache.
type ReflectionInconsistencyError struct {
	// Set and Binding locate the conflict.
	Set     uint32
	Binding uint32

	// Existing is the name of the resource already recorded.
	Existing string

	// New is the name of the resource that conflicts with it.
	New string

	// Reason describes the conflict.
	Reason string
}

func (e *ReflectionInconsistencyError) Error() string {
	return fmt.Sprintf("reflection: %s: %q and %q at set %d binding %d", e.Reason, e.Existing, e.New, e.Set, e.Binding)
}

// SPIRVError is returned for malformed SPIR-V.
type SPIRVError struct {
	// Word is the index of the offending word.
	Word int

	Msg string
}

func (e *SPIRVError) Error() string {
	return fmt.Sprintf("reflection: invalid SPIR-V at word %d: %s", e.Word, e.Msg)
}
