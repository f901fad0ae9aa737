// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"fmt"
	"iter"
	"strings"
)

// Stages is a bit flag set of shader stages. A single stage is
// used to identify one module of a multi-stage source, and a
// combination is used as the stage mask of a reflected resource.
type Stages uint32

const (
	// Vertex is the vertex stage.
	Vertex Stages = 1 << iota

	// Pixel is the pixel (fragment) stage.
	Pixel

	// Compute is the compute stage.
	Compute

	// NoStages is the empty set.
	NoStages Stages = 0
)

// AllStages lists every single stage, in the order in which
// stages are compiled and reported.
var AllStages = []Stages{Vertex, Pixel, Compute}

// stageNames maps the stage names accepted in stage markers
// to the stage they identify.
var stageNames = map[string]Stages{
	"vertex":   Vertex,
	"vert":     Vertex,
	"pixel":    Pixel,
	"frag":     Pixel,
	"fragment": Pixel,
	"compute":  Compute,
	"comp":     Compute,
}

// StageFromName returns the stage for the given stage marker name,
// which is matched case-insensitively.
func StageFromName(name string) (Stages, bool) {
	st, ok := stageNames[strings.ToLower(strings.TrimSpace(name))]
	return st, ok
}

// Has returns whether s contains all of the stages in o.
func (s Stages) Has(o Stages) bool {
	return o != 0 && s&o == o
}

// Set returns s with the stages in o added.
func (s Stages) Set(o Stages) Stages {
	return s | o
}

// IsSingle returns whether s is exactly one stage.
func (s Stages) IsSingle() bool {
	return s != 0 && s&(s-1) == 0
}

// Each returns an iterator over the single stages in s,
// in [AllStages] order.
func (s Stages) Each() iter.Seq[Stages] {
	return func(yield func(Stages) bool) {
		for _, st := range AllStages {
			if s.Has(st) && !yield(st) {
				return
			}
		}
	}
}

// Len returns the number of stages in s.
func (s Stages) Len() int {
	n := 0
	for range s.Each() {
		n++
	}
	return n
}

func (s Stages) name() string {
	switch s {
	case Vertex:
		return "Vertex"
	case Pixel:
		return "Pixel"
	case Compute:
		return "Compute"
	}
	return ""
}

// String returns the stage name, or names joined by "|" for a combination.
func (s Stages) String() string {
	if s == 0 {
		return "None"
	}
	if s.IsSingle() {
		if nm := s.name(); nm != "" {
			return nm
		}
	}
	var names []string
	for st := range s.Each() {
		names = append(names, st.name())
	}
	if rest := s &^ (Vertex | Pixel | Compute); rest != 0 {
		names = append(names, fmt.Sprintf("Stages(%d)", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// MarshalText implements [encoding.TextMarshaler].
func (s Stages) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *Stages) UnmarshalText(text []byte) error {
	str := string(text)
	*s = 0
	if str == "None" || str == "" {
		return nil
	}
	for _, nm := range strings.Split(str, "|") {
		st, ok := StageFromName(nm)
		if !ok {
			return fmt.Errorf("shader.Stages: unknown stage %q", nm)
		}
		*s |= st
	}
	return nil
}

// Ext returns the cache file extension used for artifacts of
// the given single stage.
func (s Stages) Ext() string {
	switch s {
	case Vertex:
		return ".vert"
	case Pixel:
		return ".pixel"
	case Compute:
		return ".comp"
	}
	return ".unknown"
}

// Profile returns the shader model 5 compile profile for the given
// single stage, as used by flat-register bytecode compilers.
func (s Stages) Profile() string {
	switch s {
	case Vertex:
		return "vs_5_0"
	case Pixel:
		return "ps_5_0"
	case Compute:
		return "cs_5_0"
	}
	return ""
}

// GLSLName returns the short stage name used by GLSL tools
// (vert, frag, comp).
func (s Stages) GLSLName() string {
	switch s {
	case Vertex:
		return "vert"
	case Pixel:
		return "frag"
	case Compute:
		return "comp"
	}
	return ""
}
