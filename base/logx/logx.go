// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx provides the user-facing log level and a colored
// [slog.Handler] for the shader tools, along with print helpers
// that respect the user level.
package logx

import (
	"fmt"
	"log/slog"
)

// UserLevel is the verbosity [slog.Level] that the user has selected for
// what logging and printing messages should be shown. Messages at
// levels at or above this level will be shown. The default user
// verbosity level is [slog.LevelInfo] in normal builds, [slog.LevelDebug]
// with the debug build tag, and [slog.LevelWarn] with the release build tag.
var UserLevel = defaultUserLevel

// LevelFromFlags returns the [slog.Level] object corresponding to the given
// user flag options. The flags correspond to the following values:
//   - vv: [slog.LevelDebug]
//   - v: [slog.LevelInfo]
//   - q: [slog.LevelError]
//   - (default: [slog.LevelWarn])
//
// The flags are evaluated in that order, so, for example, if both
// vv and q are specified, it will still return [slog.LevelDebug].
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Print is equivalent to [fmt.Print], but with color based on the given level.
// Also, if [UserLevel] is above the given level, it does not print anything.
func Print(level slog.Level, a ...any) (n int, err error) {
	if UserLevel > level {
		return 0, nil
	}
	return fmt.Print(ApplyColor(level, fmt.Sprint(a...)))
}

// Println is equivalent to [fmt.Println], but with color based on the given level.
// Also, if [UserLevel] is above the given level, it does not print anything.
func Println(level slog.Level, a ...any) (n int, err error) {
	if UserLevel > level {
		return 0, nil
	}
	return fmt.Println(ApplyColor(level, fmt.Sprint(a...)))
}

// Printf is equivalent to [fmt.Printf], but with color based on the given level.
// Also, if [UserLevel] is above the given level, it does not print anything.
func Printf(level slog.Level, format string, a ...any) (n int, err error) {
	if UserLevel > level {
		return 0, nil
	}
	return fmt.Println(ApplyColor(level, fmt.Sprintf(format, a...)))
}

// PrintlnDebug calls [Println] at [slog.LevelDebug].
func PrintlnDebug(a ...any) (n int, err error) { return Println(slog.LevelDebug, a...) }

// PrintlnInfo calls [Println] at [slog.LevelInfo].
func PrintlnInfo(a ...any) (n int, err error) { return Println(slog.LevelInfo, a...) }

// PrintlnWarn calls [Println] at [slog.LevelWarn].
func PrintlnWarn(a ...any) (n int, err error) { return Println(slog.LevelWarn, a...) }

// PrintlnError calls [Println] at [slog.LevelError].
func PrintlnError(a ...any) (n int, err error) { return Println(slog.LevelError, a...) }

// PrintfDebug calls [Printf] at [slog.LevelDebug].
func PrintfDebug(format string, a ...any) (n int, err error) {
	return Printf(slog.LevelDebug, format, a...)
}

// PrintfInfo calls [Printf] at [slog.LevelInfo].
func PrintfInfo(format string, a ...any) (n int, err error) {
	return Printf(slog.LevelInfo, format, a...)
}

// PrintfWarn calls [Printf] at [slog.LevelWarn].
func PrintfWarn(format string, a ...any) (n int, err error) {
	return Printf(slog.LevelWarn, format, a...)
}
