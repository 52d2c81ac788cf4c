// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/jeranaias/stdqa/internal/config"
	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(t Transcript) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string
}

// Transcript is what gets exported: one session's turns plus context.
type Transcript struct {
	SessionID string           `json:"session_id"`
	Backend   string           `json:"backend"`
	StartedAt time.Time        `json:"started_at"`
	Turns     []model.ChatTurn `json:"turns"`
}

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no turns")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Empty means DefaultDir().
	OutputDir string

	// IncludeDetails renders the "Key facts" list of each answer.
	IncludeDetails bool

	// IncludeTimestamps adds a time to each turn heading.
	IncludeTimestamps bool

	// now is overridden in tests.
	now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeDetails:    true,
		IncludeTimestamps: true,
	}
}

func (o *Options) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// DefaultDir returns ~/.stdqa/exports, or the working directory when the
// config dir cannot be determined.
func DefaultDir() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "exports")
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile exports a transcript and writes it under opts.OutputDir.
// Returns the output file path.
func ToFile(t Transcript, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(t.Turns) == 0 {
		return "", ErrEmptyTranscript
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", errors.Wrap(err, "export failed")
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = DefaultDir()
	}
	path := filepath.Join(dir, Filename(t.SessionID, opts.clock(), exporter.FileExtension()))

	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

// ToPath exports a transcript to an explicit file path.
func ToPath(t Transcript, exporter Exporter, path string) error {
	if len(t.Turns) == 0 {
		return ErrEmptyTranscript
	}
	content, err := exporter.Export(t)
	if err != nil {
		return errors.Wrap(err, "export failed")
	}
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ForPath picks an exporter from the file extension: ".json" gets JSON,
// anything else Markdown.
func ForPath(path string, opts *Options) Exporter {
	if filepath.Ext(path) == ".json" {
		return NewJSONExporter()
	}
	return NewMarkdownExporter(opts)
}

// Filename builds "stdqa_<short id>_<timestamp><ext>".
func Filename(sessionID string, at time.Time, ext string) string {
	return fmt.Sprintf("stdqa_%s_%s%s",
		sanitizeFilename(util.TruncateRunesNoEllipsis(sessionID, 8)),
		at.Format("20060102_150405"),
		ext,
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	result := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			result = append(result, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			result = append(result, '_')
		case r < 32 || r == 127:
			result = append(result, '-')
		default:
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return "session"
	}
	return string(result)
}

// formatTimestamp formats a timestamp for headers.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
