// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"runtime"
	"slices"

	"cogentcore.org/shaders/shader"
)

// HostsForBackend contains the operating systems on which the bytecode
// compiler of each backend runs. A nil entry means all of them.
var HostsForBackend = map[shader.Backends][]string{
	shader.Vulkan: nil,
	shader.D3D11:  {"windows"},
	shader.Metal:  {"darwin"},
	shader.OpenGL: nil,
}

// BackendSupported determines whether shaders for the given backend can be
// compiled on the given operating system. If they can, it returns nil.
// If they can't, it returns an error detailing the issue.
func BackendSupported(backend shader.Backends, goos string) error {
	hosts, ok := HostsForBackend[backend]
	if !ok {
		return fmt.Errorf("could not find backend %v; please check that you spelled it correctly", backend)
	}
	if hosts != nil && !slices.Contains(hosts, goos) {
		return fmt.Errorf("backend %v requires a bytecode compiler that only runs on %v, not %s", backend, hosts, goos)
	}
	return nil
}

// HostSupported determines whether the configured backend
// can be compiled for on the current operating system.
func (c *Config) HostSupported() error {
	return BackendSupported(c.Backend, runtime.GOOS)
}
