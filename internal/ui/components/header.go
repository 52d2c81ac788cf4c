// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stdqa/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Connection is the backend state shown in the header.
type Connection int

const (
	ConnectionChecking Connection = iota
	ConnectionUp
	ConnectionDown
)

// String returns the display string for the connection state.
func (c Connection) String() string {
	switch c {
	case ConnectionChecking:
		return "CHECKING"
	case ConnectionUp:
		return "CONNECTED"
	case ConnectionDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Header is the title bar: app title on the left, backend status on the right.
type Header struct {
	Title      string
	Address    string // host:port of the backend
	Documents  int
	Connection Connection
	Width      int
	theme      *styles.Theme
}

// NewHeader creates a Header in the checking state.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "🏭 Standards Q&A",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetConnected marks the backend reachable with the given document count.
func (h *Header) SetConnected(documents int) {
	h.Connection = ConnectionUp
	h.Documents = documents
}

// SetDown marks the backend unreachable.
func (h *Header) SetDown() {
	h.Connection = ConnectionDown
}

// StatusText returns the right-hand status line without styling.
func (h *Header) StatusText() string {
	switch h.Connection {
	case ConnectionUp:
		return fmt.Sprintf("✅ Connected, %d documents", h.Documents)
	case ConnectionDown:
		return "❌ Backend " + h.Address + " is not responding"
	default:
		return "Checking " + h.Address + "..."
	}
}

// View renders the header on one line plus its bottom border.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	title := h.theme.HeaderTitle.Render(h.Title)

	var status string
	switch h.Connection {
	case ConnectionUp:
		status = h.theme.StatusConnected.Render(h.StatusText())
	case ConnectionDown:
		status = h.theme.StatusDown.Render(h.StatusText())
	default:
		status = h.theme.HeaderSubtitle.Render(h.StatusText())
	}

	// Header has Padding(0, 1).
	inner := width - 2
	gap := inner - lipgloss.Width(title) - lipgloss.Width(status)
	if gap < 1 {
		// Too narrow for both; status wins.
		return h.theme.Header.Width(width).Render(status)
	}

	line := title + lipgloss.NewStyle().Width(gap).Render("") + status
	return h.theme.Header.Width(width).Render(line)
}
