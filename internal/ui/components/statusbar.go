// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stdqa/internal/ui/styles"
	"github.com/jeranaias/stdqa/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusConnecting Status = iota
	StatusReady
	StatusAwaiting
	StatusBlocked
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting..."
	case StatusReady:
		return "Ready"
	case StatusAwaiting:
		return "Waiting for answer..."
	case StatusBlocked:
		return "Backend unavailable"
	default:
		return "Unknown"
	}
}

// Icon returns a shape for the status so it reads without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return "●"
	case StatusAwaiting:
		return "◐"
	case StatusBlocked:
		return "✗"
	default:
		return "○"
	}
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: status, transient toast, key hints.
type StatusBar struct {
	Status    Status
	Toast     string
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the status.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetToast shows a transient message; "" clears it.
func (s *StatusBar) SetToast(msg string) {
	s.Toast = msg
}

// View renders the status bar. Shortcuts are dropped from the right until
// the line fits.
func (s *StatusBar) View() string {
	width := s.Width
	if width < 20 {
		width = 20
	}
	inner := width - 2

	left := util.TruncateWidth(s.Status.Icon()+" "+s.Status.String(), inner)
	if avail := inner - lipgloss.Width(left) - 2; s.Toast != "" && avail > 3 {
		left += "  " + s.theme.Toast.Render(util.TruncateWidth(s.Toast, avail))
	}

	shortcuts := s.Shortcuts
	var right string
	for len(shortcuts) > 0 {
		right = s.renderShortcuts(shortcuts)
		if lipgloss.Width(left)+lipgloss.Width(right)+2 <= inner {
			break
		}
		shortcuts = shortcuts[:len(shortcuts)-1]
		right = ""
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderShortcuts(list []Shortcut) string {
	parts := make([]string, 0, len(list))
	for _, sc := range list {
		parts = append(parts, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(parts, "  ")
}
