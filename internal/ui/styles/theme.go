// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/stdqa/internal/render"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header          lipgloss.Style
	HeaderTitle     lipgloss.Style
	HeaderSubtitle  lipgloss.Style
	StatusConnected lipgloss.Style
	StatusDown      lipgloss.Style

	// Transcript
	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorTurn       lipgloss.Style
	NotePositive    lipgloss.Style
	NoteCaution     lipgloss.Style
	Timestamp       lipgloss.Style

	// Input and status bar
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Toast          lipgloss.Style

	// Awaiting answer
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// Side panel
	SidePanel      lipgloss.Style
	SidePanelTitle lipgloss.Style
	SidePanelValue lipgloss.Style

	// Blocking diagnostic
	DiagnosticBox   lipgloss.Style
	DiagnosticTitle lipgloss.Style
	DiagnosticBody  lipgloss.Style
	DiagnosticHint  lipgloss.Style
	Code            lipgloss.Style
	Muted           lipgloss.Style
}

// NewTheme creates a theme. mode is "dark", "light" or "auto"; a forced mode
// overrides lipgloss background detection for the whole process.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

// DisableColor forces plain ASCII output for every style.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// SetSize records the terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// NoteStyle returns the style for an answer note of the given severity.
func (t *Theme) NoteStyle(sev render.Severity) lipgloss.Style {
	if sev == render.SeverityPositive {
		return t.NotePositive
	}
	return t.NoteCaution
}

// NoteIcon returns the leading glyph for a note.
func NoteIcon(sev render.Severity) string {
	if sev == render.SeverityPositive {
		return "✅"
	}
	return "⚠️"
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.StatusConnected = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusDown = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(UserBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.AssistantBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(AssistantBubbleBorder).
		BorderLeft(true).
		PaddingLeft(1)

	t.ErrorTurn = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)

	t.NotePositive = lipgloss.NewStyle().
		Foreground(Emerald).
		Background(EmeraldDeep).
		Padding(0, 1)

	t.NoteCaution = lipgloss.NewStyle().
		Foreground(Amber).
		Background(AmberDeep).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Toast = lipgloss.NewStyle().
		Foreground(Emerald).
		Italic(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.SidePanel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidePanelTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.SidePanelValue = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.DiagnosticBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(1, 2)

	t.DiagnosticTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.DiagnosticBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.DiagnosticHint = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Code = lipgloss.NewStyle().
		Foreground(Amber)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
}
