// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"log/slog"

	"cogentcore.org/shaders/shader"
)

// ResetRegisters marks every resource as [Unused].
func (rd *ReflectionData) ResetRegisters() {
	for r := range rd.All() {
		r.Register, r.SamplerRegister = Unused, Unused
	}
	if rd.PushConstant != nil {
		rd.PushConstant.Register, rd.PushConstant.SamplerRegister = Unused, Unused
	}
}

// ResolveRegisters resolves the flat registers of the resources declared
// by the given stage from the registers reported by its bytecode compiler,
// keyed by the names the compiler uses. The mangle function returns the
// candidate compiler names of a resource, tried in order. A combined image
// sampler also resolves its sampler register from the candidates of
// "_<name>_sampler". Resources with no reported register stay [Unused].
//
// The first stage that resolves a resource wins; a later stage reporting
// a different register is logged.
func (rd *ReflectionData) ResolveRegisters(stage shader.Stages, regs map[string]int, mangle func(r *Resource) []string) {
	resolve := func(r *Resource) {
		if !r.Stages.Has(stage) {
			return
		}
		reg, ok := lookup(regs, mangle(r))
		if !ok {
			return
		}
		setRegister(&r.Register, reg, r.Name, stage)
		if r.Kind != CombinedImageSampler {
			return
		}
		smp := &Resource{Name: "_" + r.Name + "_sampler", Set: r.Set, Binding: r.Binding, Stages: r.Stages, Kind: Sampler}
		if sreg, ok := lookup(regs, mangle(smp)); ok {
			setRegister(&r.SamplerRegister, sreg, smp.Name, stage)
		}
	}
	for r := range rd.All() {
		resolve(r)
	}
	if rd.PushConstant != nil {
		resolve(rd.PushConstant)
	}
}

func lookup(regs map[string]int, names []string) (int32, bool) {
	for _, nm := range names {
		if reg, ok := regs[nm]; ok {
			return int32(reg), true
		}
	}
	return Unused, false
}

func setRegister(dst *int32, reg int32, name string, stage shader.Stages) {
	if *dst == Unused {
		*dst = reg
		return
	}
	if *dst != reg {
		slog.Warn("conflicting registers reported for resource; keeping the first", "resource", name, "stage", stage, "register", *dst, "reported", reg)
	}
}
