// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// UserHandler is a [slog.Handler] whose output is designed for the
// end user of the shader tools. It writes one colored line per record,
// with attributes in key=value form, and filters records below [UserLevel].
type UserHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
	group string
}

// NewUserHandler returns a new [UserHandler] writing to the given writer.
func NewUserHandler(w io.Writer) *UserHandler {
	return &UserHandler{mu: &sync.Mutex{}, w: w}
}

// SetDefaultLogger sets the default logger to be a [UserHandler] writing
// to [os.Stderr], with color initialized through [InitColor].
func SetDefaultLogger() {
	InitColor()
	slog.SetDefault(slog.New(NewUserHandler(os.Stderr)))
}

func (h *UserHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= UserLevel
}

func (h *UserHandler) Handle(ctx context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", h.key(a.Key), a.Value.Any())
		return true
	})
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, ApplyColor(r.Level, sb.String()))
	return err
}

func (h *UserHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.key(a.Key), Value: a.Value})
	}
	return &nh
}

func (h *UserHandler) WithGroup(name string) slog.Handler {
	nh := *h
	if nh.group != "" {
		name = nh.group + "." + name
	}
	nh.group = name
	return &nh
}

func (h *UserHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}
