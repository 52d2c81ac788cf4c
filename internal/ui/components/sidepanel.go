// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/stdqa/internal/ui/styles"
	"github.com/jeranaias/stdqa/internal/util"
)

// SidePanelWidth is the outer width of the side panel.
const SidePanelWidth = 30

// Field is a labelled value.
type Field struct {
	Label string
	Value string
}

// SidePanel shows session facts next to the transcript.
type SidePanel struct {
	Title   string
	Fields  []Field
	Actions []Shortcut
	Height  int
	theme   *styles.Theme
}

// NewSidePanel creates an empty side panel.
func NewSidePanel(theme *styles.Theme) *SidePanel {
	return &SidePanel{Title: "⚙️  Session", theme: theme}
}

// SetFields replaces the displayed fields.
func (p *SidePanel) SetFields(fields ...Field) {
	p.Fields = fields
}

// View renders the panel at SidePanelWidth.
func (p *SidePanel) View() string {
	// Rounded border plus Padding(0, 1).
	inner := SidePanelWidth - 4

	var lines []string
	lines = append(lines, p.theme.SidePanelTitle.Render(p.Title), "")
	for _, f := range p.Fields {
		lines = append(lines,
			p.theme.Muted.Render(f.Label),
			p.theme.SidePanelValue.Render(util.TruncateWidth(f.Value, inner)),
			"",
		)
	}
	for _, a := range p.Actions {
		lines = append(lines, p.theme.ShortcutKey.Render(a.Key)+" "+p.theme.ShortcutDesc.Render(a.Desc))
	}

	style := p.theme.SidePanel.Width(SidePanelWidth - 2)
	if p.Height > 2 {
		style = style.Height(p.Height - 2)
	}
	return style.Render(strings.TrimRight(lipgloss.JoinVertical(lipgloss.Left, lines...), "\n"))
}
