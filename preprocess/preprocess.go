// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package preprocess splits a multi-stage shader source into
// self-contained per-stage sources, resolving includes, stripping
// directives the front end does not accept, collecting compiler
// instructions, and hashing each stage block.
//
// Stage blocks are delimited by stage markers:
//
//	#pragma stage : vertex
//
// For GLSL each block also starts at its #version line. For WGSL any
// text before the first marker is a prelude shared by every stage.
package preprocess

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cogentcore.org/shaders/shader"
)

// Options are the options for [Preprocess].
type Options struct {
	// SourceFS is the file system used to resolve includes relative to
	// the shader source. If nil, the directory of the source path is used.
	SourceFS fs.FS

	// IncludeFS are additional file systems searched for includes,
	// in order, after SourceFS.
	IncludeFS []fs.FS
}

// Result is the result of preprocessing one shader source.
type Result struct {
	// Sources has the preprocessed source for each declared stage.
	Sources map[shader.Stages]*shader.SourceInfo

	// Stages is the set of declared stages.
	Stages shader.Stages

	// Includes are the include files, relative to the file system
	// they were found in, in the order they were first included.
	Includes []string

	// Combined are the combined image samplers declared
	// with #pragma combine.
	Combined []shader.CombinedSampler

	// Layout is the layout share mode declared with #pragma layout.
	Layout shader.LayoutModes
}

var (
	stageMarker = regexp.MustCompile(`^\s*#pragma\s+stage\b\s*:?\s*([A-Za-z_]\w*)?\s*$`)
	instruction = regexp.MustCompile(`^\s*#pragma\s+(combine|layout)\b(.*)$`)
	versionLine = regexp.MustCompile(`^\s*#version\b`)
)

// block is one stage block while splitting.
type block struct {
	line   int
	stage  shader.Stages
	marked bool
	lines  []string
}

// PreprocessFile reads the given shader source file and calls [Preprocess].
func PreprocessFile(info shader.Info, lang shader.Languages, opts *Options) (*Result, error) {
	b, err := os.ReadFile(info.Path)
	if err != nil {
		return nil, &PreprocessError{Path: info.Path, Msg: err.Error()}
	}
	return Preprocess(info, string(b), lang, opts)
}

// Preprocess splits the given source text of the given shader into
// per-stage sources for the given language. A [*PreprocessError] is returned
// when no stage marker is found, when a marker names an unknown stage,
// when a stage block is empty or declared twice, or when an include
// cannot be resolved.
func Preprocess(info shader.Info, source string, lang shader.Languages, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	fsys := opts.SourceFS
	if fsys == nil {
		fsys = os.DirFS(filepath.Dir(info.Path))
	}
	code, includes, err := IncludeFS(append([]fs.FS{fsys}, opts.IncludeFS...), info.Path, source)
	if err != nil {
		return nil, err
	}
	res := &Result{Sources: map[shader.Stages]*shader.SourceInfo{}, Includes: includes}
	lines := splitLines(code)
	if err := res.instructions(info.Path, lines, lang); err != nil {
		return nil, err
	}

	var prelude []string
	var blocks []*block
	if lang == shader.GLSL && hasVersion(lines) {
		blocks, err = splitVersions(info.Path, lines)
	} else {
		prelude, blocks, err = splitMarkers(info.Path, lines, lang)
	}
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, errorf(info.Path, 0, "no stage marker (#pragma stage : <name>) found")
	}
	for _, b := range blocks {
		if res.Stages.Has(b.stage) {
			return nil, errorf(info.Path, b.line, "stage %v is declared more than once", b.stage)
		}
		if isEmpty(b.lines) {
			return nil, errorf(info.Path, b.line, "%v stage block is empty", b.stage)
		}
		text := strings.Join(append(append([]string{}, prelude...), b.lines...), "\n")
		res.Stages = res.Stages.Set(b.stage)
		res.Sources[b.stage] = shader.NewSourceInfo(info.ID, b.stage, text)
	}
	return res, nil
}

// instructions collects #pragma combine and #pragma layout
// instructions, commenting them out in place.
func (res *Result) instructions(path string, lines []string, lang shader.Languages) error {
	for li, ln := range lines {
		m := instruction.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		args := strings.Fields(m[2])
		switch m[1] {
		case "combine":
			if len(args) != 2 {
				return errorf(path, li+1, "#pragma combine needs an image and a sampler name, got %q", m[2])
			}
			res.Combined = append(res.Combined, shader.CombinedSampler{Image: args[0], Sampler: args[1]})
		case "layout":
			if len(args) != 1 {
				return errorf(path, li+1, "#pragma layout needs one mode, got %q", m[2])
			}
			if err := res.Layout.UnmarshalText([]byte(args[0])); err != nil {
				return errorf(path, li+1, "%v", err)
			}
		}
		lines[li] = "// " + strings.TrimSpace(ln)
	}
	return nil
}

// splitMarkers splits the lines at stage markers. For WGSL, #version
// directives are stripped and the marker lines are commented out.
func splitMarkers(path string, lines []string, lang shader.Languages) ([]string, []*block, error) {
	var prelude []string
	var blocks []*block
	var cur *block
	for li, ln := range lines {
		if lang == shader.WGSL && versionLine.MatchString(ln) {
			slog.Warn("preprocess: stripping #version directive, which WGSL does not accept", "path", path, "line", li+1)
			ln = "// " + strings.TrimSpace(ln)
		}
		if m := stageMarker.FindStringSubmatch(ln); m != nil {
			st, err := markerStage(path, li+1, m[1])
			if err != nil {
				return nil, nil, err
			}
			cur = &block{line: li + 1, stage: st, marked: true}
			blocks = append(blocks, cur)
			if lang == shader.WGSL {
				ln = "// " + strings.TrimSpace(ln)
			}
		}
		if cur == nil {
			prelude = append(prelude, ln)
			continue
		}
		cur.lines = append(cur.lines, ln)
	}
	return prelude, blocks, nil
}

// splitVersions splits GLSL lines into modules that each begin with a
// #version line and must contain exactly one stage marker.
func splitVersions(path string, lines []string) ([]*block, error) {
	var blocks []*block
	var cur *block
	for li, ln := range lines {
		if versionLine.MatchString(ln) {
			cur = &block{line: li + 1}
			blocks = append(blocks, cur)
		}
		if m := stageMarker.FindStringSubmatch(ln); m != nil {
			if cur == nil {
				return nil, errorf(path, li+1, "stage marker before the first #version")
			}
			if cur.marked {
				return nil, errorf(path, li+1, "second stage marker in the module starting at line %d", cur.line)
			}
			st, err := markerStage(path, li+1, m[1])
			if err != nil {
				return nil, err
			}
			cur.stage, cur.marked = st, true
		}
		if cur == nil {
			if !isEmpty([]string{ln}) {
				return nil, errorf(path, li+1, "code before the first #version")
			}
			continue
		}
		cur.lines = append(cur.lines, ln)
	}
	for _, b := range blocks {
		if !b.marked {
			return nil, errorf(path, b.line, "no stage marker (#pragma stage : <name>) in the module starting here")
		}
	}
	return blocks, nil
}

func markerStage(path string, line int, name string) (shader.Stages, error) {
	if name == "" {
		return 0, errorf(path, line, "stage marker without a stage name")
	}
	st, ok := shader.StageFromName(name)
	if !ok {
		return 0, errorf(path, line, "unknown stage %q", name)
	}
	return st, nil
}

func hasVersion(lines []string) bool {
	for _, ln := range lines {
		if versionLine.MatchString(ln) {
			return true
		}
	}
	return false
}

// isEmpty returns whether the lines contain nothing but whitespace,
// line comments, stage markers and #version directives.
func isEmpty(lines []string) bool {
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		switch {
		case ln == "", strings.HasPrefix(ln, "//"), versionLine.MatchString(ln), stageMarker.MatchString(ln):
			continue
		}
		return false
	}
	return true
}
