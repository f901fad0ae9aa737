// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"log/slog"
	"maps"
	"slices"

	"cogentcore.org/shaders/shader"
	"github.com/gogpu/gputypes"
)

// BindGroupLayoutEntries returns the WebGPU bind group layout entries
// of the given descriptor set, ordered by binding. Storage images are
// skipped, as their texel format is not part of the reflection.
func (rd *ReflectionData) BindGroupLayoutEntries(set uint32) []gputypes.BindGroupLayoutEntry {
	bs := rd.Resources[set]
	var entries []gputypes.BindGroupLayoutEntry
	for _, b := range slices.Sorted(maps.Keys(bs)) {
		r := bs[b]
		e := gputypes.BindGroupLayoutEntry{Binding: r.Binding}
		for st := range r.Stages.Each() {
			switch st {
			case shader.Vertex:
				e.Visibility |= gputypes.ShaderStageVertex
			case shader.Pixel:
				e.Visibility |= gputypes.ShaderStageFragment
			case shader.Compute:
				e.Visibility |= gputypes.ShaderStageCompute
			}
		}
		switch r.Kind {
		case ConstantBuffer:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: uint64(r.StructSize)}
		case StorageBuffer:
			e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage, MinBindingSize: uint64(r.StructSize)}
		case Image, CombinedImageSampler:
			e.Texture = &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: viewDimension(r.Dimension)}
		case Sampler:
			e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
		default:
			slog.Debug("no bind group layout entry for resource", "resource", r.Name, "kind", r.Kind)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func viewDimension(d ImageDims) gputypes.TextureViewDimension {
	switch d {
	case Dim1D:
		return gputypes.TextureViewDimension1D
	case Dim3D:
		return gputypes.TextureViewDimension3D
	case DimCube:
		return gputypes.TextureViewDimensionCube
	}
	return gputypes.TextureViewDimension2D
}
