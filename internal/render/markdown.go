// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer wraps a glamour renderer for a fixed style and width.
// Falls back to the raw markdown if glamour fails.
type Renderer struct {
	mu    sync.Mutex
	style string
	width int
	tr    *glamour.TermRenderer
}

// NewRenderer creates a renderer. style is "auto" or a glamour standard
// style name such as "dark", "light" or "notty".
func NewRenderer(style string, width int) *Renderer {
	r := &Renderer{style: style}
	r.SetWidth(width)
	return r
}

// SetWidth rebuilds the underlying renderer when the wrap width changes.
func (r *Renderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tr != nil && r.width == width {
		return
	}
	r.width = width

	styleOpt := glamour.WithAutoStyle()
	if r.style != "" && r.style != "auto" {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		r.tr = nil
		return
	}
	r.tr = tr
}

// Render renders markdown, returning the input unchanged on failure.
func (r *Renderer) Render(md string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// Width returns the current wrap width.
func (r *Renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}
