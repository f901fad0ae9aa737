// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"log/slog"
	"os"

	"github.com/muesli/termenv"
)

// UseColor is whether to use color in log messages. It is on by default.
var UseColor = true

var output = termenv.NewOutput(os.Stderr)

// InitColor sets up the terminal environment for color output. It is
// called automatically by [SetDefaultLogger] and only needs to be
// called directly by code that prints colored output without logging.
func InitColor() {
	if !UseColor {
		return
	}
	output = termenv.NewOutput(os.Stderr)
}

// LevelColor returns the color used for the given level.
func LevelColor(level slog.Level) termenv.Color {
	switch {
	case level >= slog.LevelError:
		return output.Color("#E53935")
	case level >= slog.LevelWarn:
		return output.Color("#FDD835")
	case level >= slog.LevelInfo:
		return output.Color("#43A047")
	default:
		return output.Color("#1E88E5")
	}
}

// ApplyColor applies the color associated with the given level
// to the given string and returns the resulting string.
// If [UseColor] is false, it returns the string unchanged.
func ApplyColor(level slog.Level, str string) string {
	if !UseColor {
		return str
	}
	return output.String(str).Foreground(LevelColor(level)).String()
}

// CmdColor applies the color used for echoed commands.
func CmdColor(str string) string {
	if !UseColor {
		return str
	}
	return output.String(str).Bold().String()
}
