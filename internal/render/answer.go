// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns backend answers into display models, markdown and
// plain text.
package render

import (
	"fmt"
	"strings"

	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/util"
)

// Display limits for an answer.
const (
	MaxStandards  = 3
	MaxTitleRunes = 100

	SummaryPlaceholder  = "No answer"
	DefaultStandardName = "STO Gazprom"
)

// StandardView is one cited standard, ready for display.
type StandardView struct {
	Name    string
	Section string
	Title   string
}

// SectionLabel returns "Clause <section>", or "" when the section is unknown.
func (s StandardView) SectionLabel() string {
	if s.Section == "" {
		return ""
	}
	return "Clause " + s.Section
}

// AnswerView is the display model of an AnswerPayload.
type AnswerView struct {
	Summary string
	// Placeholder is true when Summary is SummaryPlaceholder.
	Placeholder bool
	Details     []string
	Standards   []StandardView
	// HiddenStandards counts standards dropped by the display limit.
	HiddenStandards int
	Note            string
	NoteSeverity    Severity
}

// BuildAnswerView applies the display rules: summary placeholder, at most
// MaxStandards standards in backend order, and titles capped at
// MaxTitleRunes characters.
func BuildAnswerView(p *model.AnswerPayload) AnswerView {
	if p == nil {
		p = &model.AnswerPayload{}
	}

	v := AnswerView{Summary: strings.TrimSpace(p.Summary)}
	if v.Summary == "" {
		v.Summary = SummaryPlaceholder
		v.Placeholder = true
	}

	for _, d := range p.Details {
		if strings.TrimSpace(d) == "" {
			continue
		}
		v.Details = append(v.Details, d)
	}

	shown := p.Standards
	if len(shown) > MaxStandards {
		v.HiddenStandards = len(shown) - MaxStandards
		shown = shown[:MaxStandards]
	}
	for _, s := range shown {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = DefaultStandardName
		}
		v.Standards = append(v.Standards, StandardView{
			Name:    name,
			Section: strings.TrimSpace(s.Section),
			Title:   util.TruncateRunesNoEllipsis(s.Title, MaxTitleRunes),
		})
	}

	if note := strings.TrimSpace(p.Note); note != "" {
		v.Note = note
		v.NoteSeverity = NoteSeverity(note)
	}
	return v
}

// =============================================================================
// MARKDOWN
// =============================================================================

// Markdown renders the view as markdown for glamour. The note is left out;
// callers style it by severity.
func Markdown(v AnswerView, showDetails bool) string {
	var b strings.Builder

	b.WriteString("### 📌 Answer\n\n")
	if v.Placeholder {
		b.WriteString("_" + v.Summary + "_\n")
	} else {
		b.WriteString(escapeBlockMarkers(v.Summary) + "\n")
	}

	if showDetails && len(v.Details) > 0 {
		b.WriteString("\n### 📋 Key facts\n")
		// One block per detail.
		for _, d := range v.Details {
			b.WriteString("\n" + strings.TrimSpace(d) + "\n")
		}
	}

	if len(v.Standards) > 0 {
		b.WriteString("\n### 📚 Standards\n\n")
		for _, s := range v.Standards {
			b.WriteString("- **" + s.Name + "**")
			if label := s.SectionLabel(); label != "" {
				b.WriteString(" · *" + label + "*")
			}
			if s.Title != "" {
				b.WriteString("  \n  " + s.Title)
			}
			b.WriteString("\n")
		}
		if v.HiddenStandards > 0 {
			fmt.Fprintf(&b, "\n_+%d more not shown_\n", v.HiddenStandards)
		}
	}
	return b.String()
}

// escapeBlockMarkers keeps summary lines from starting a list, heading or
// quote, so "2. Pressure ..." stays a sentence.
func escapeBlockMarkers(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(trimmed)]

		digits := 0
		for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
			digits++
		}
		switch {
		case digits > 0 && isListDelimiter(trimmed[digits:]):
			lines[i] = indent + trimmed[:digits] + "\\" + trimmed[digits:]
		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ">"):
			lines[i] = indent + "\\" + trimmed
		case len(trimmed) > 1 && strings.ContainsRune("-+*", rune(trimmed[0])) && trimmed[1] == ' ':
			lines[i] = indent + "\\" + trimmed
		}
	}
	return strings.Join(lines, "\n")
}

// isListDelimiter reports whether s starts with the "." or ")" that ends an
// ordered list number.
func isListDelimiter(s string) bool {
	if s == "" || (s[0] != '.' && s[0] != ')') {
		return false
	}
	return len(s) == 1 || s[1] == ' ' || s[1] == '\t'
}

// =============================================================================
// PLAIN TEXT
// =============================================================================

// Plain renders the view as uncolored text, including the note.
func Plain(v AnswerView, showDetails bool) string {
	var b strings.Builder
	b.WriteString(v.Summary + "\n")

	if showDetails && len(v.Details) > 0 {
		b.WriteString("\nKey facts:\n")
		for _, d := range v.Details {
			b.WriteString("  " + d + "\n")
		}
	}

	if len(v.Standards) > 0 {
		b.WriteString("\nStandards:\n")
		for _, s := range v.Standards {
			line := "  " + s.Name
			if label := s.SectionLabel(); label != "" {
				line += " (" + label + ")"
			}
			if s.Title != "" {
				line += ": " + s.Title
			}
			b.WriteString(line + "\n")
		}
		if v.HiddenStandards > 0 {
			fmt.Fprintf(&b, "  +%d more not shown\n", v.HiddenStandards)
		}
	}

	if v.Note != "" {
		b.WriteString("\n" + v.NoteSeverity.Label() + " " + v.Note + "\n")
	}
	return b.String()
}

// ResultText renders a Result as plain text: the error line or the answer.
func ResultText(res model.Result, showDetails bool) string {
	if res.IsError() {
		return "❌ " + res.Error() + "\n"
	}
	return Plain(BuildAnswerView(res.Answer), showDetails)
}
