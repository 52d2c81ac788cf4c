// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/render"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t Transcript) ([]byte, error) {
	if len(t.Turns) == 0 {
		return nil, ErrEmptyTranscript
	}

	var sb strings.Builder

	sb.WriteString("# Standards Q&A session\n\n")
	if t.SessionID != "" {
		fmt.Fprintf(&sb, "- **Session**: `%s`\n", t.SessionID)
	}
	if t.Backend != "" {
		fmt.Fprintf(&sb, "- **Backend**: %s\n", t.Backend)
	}
	if !t.StartedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Started**: %s\n", formatTimestamp(t.StartedAt))
	}
	fmt.Fprintf(&sb, "- **Turns**: %d\n\n---\n\n", len(t.Turns))

	for i, turn := range t.Turns {
		if !turn.Role.Valid() {
			return nil, errors.Errorf("turn %d has unknown role %q", i, turn.Role)
		}

		label := turn.Role.DisplayName()
		if e.options.IncludeTimestamps && !turn.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "## %s <sub>%s</sub>\n\n", label, formatShortTimestamp(turn.Timestamp))
		} else {
			fmt.Fprintf(&sb, "## %s\n\n", label)
		}

		sb.WriteString(e.formatTurn(turn))
		sb.WriteString("\n")

		if i < len(t.Turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) formatTurn(turn model.ChatTurn) string {
	if turn.Role != model.RoleAssistant || turn.Answer == nil {
		return strings.TrimSpace(turn.Content) + "\n"
	}

	view := render.BuildAnswerView(turn.Answer)
	out := render.Markdown(view, e.options.IncludeDetails)
	if view.Note != "" {
		out += "\n> " + view.NoteSeverity.Label() + " " + view.Note + "\n"
	}
	return out
}
