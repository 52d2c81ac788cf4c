// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/stdqa/internal/model"
)

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// HealthMsg carries the outcome of a health probe.
type HealthMsg struct {
	Status *model.HealthStatus
	Err    error
	// Refresh is true for the periodic check made while chatting.
	Refresh bool
}

// OK reports whether the probe succeeded.
func (m HealthMsg) OK() bool {
	return m.Err == nil && m.Status != nil
}

// AnswerMsg carries the normalized result of an ask call.
type AnswerMsg struct {
	SessionID string
	Question  string
	Result    model.Result
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigChangedMsg is sent when the watched config file was written.
type ConfigChangedMsg struct {
	Path string
}

// ConfigWatchErrorMsg reports an fsnotify error.
type ConfigWatchErrorMsg struct {
	Err error
}

// =============================================================================
// ACTION RESULTS
// =============================================================================

// ExportedMsg reports the result of a transcript export.
type ExportedMsg struct {
	Path string
	Err  error
}

// CopiedMsg reports the result of a clipboard copy.
type CopiedMsg struct {
	Err error
}

// =============================================================================
// TIMERS
// =============================================================================

type refreshTickMsg struct{}

type clearToastMsg struct {
	id int
}
