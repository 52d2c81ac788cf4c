// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import "strings"

// Severity is the display tone of an answer note.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityPositive
	SeverityCaution
)

// SuccessMarker in a note marks it as a positive confirmation.
const SuccessMarker = "✓"

// NoteSeverity infers the tone of a note from the backend's success marker.
// The backend has no explicit status field for notes; any note containing
// SuccessMarker is positive and every other non-empty note is a caution.
func NoteSeverity(note string) Severity {
	if strings.TrimSpace(note) == "" {
		return SeverityNone
	}
	if strings.Contains(note, SuccessMarker) {
		return SeverityPositive
	}
	return SeverityCaution
}

// String returns a short name for logs and tests.
func (s Severity) String() string {
	switch s {
	case SeverityPositive:
		return "positive"
	case SeverityCaution:
		return "caution"
	default:
		return "none"
	}
}

// Label is a text prefix for terminals without color.
func (s Severity) Label() string {
	switch s {
	case SeverityPositive:
		return "[ok]"
	case SeverityCaution:
		return "[!]"
	default:
		return ""
	}
}
