// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Standard is a normative document cited by an answer.
type Standard struct {
	Name    string `json:"name"`
	Section string `json:"section"`
	Title   string `json:"title"`
}

// AnswerPayload is the structured answer returned by the backend.
// Every field may be missing; renderers fall back to placeholders.
type AnswerPayload struct {
	Summary   string     `json:"summary"`
	Details   []string   `json:"details"`
	Standards []Standard `json:"standards"`
	Note      string     `json:"note,omitempty"`
}

// AskRequest is the JSON body of POST /ask.
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// AskResponse is the JSON envelope of a successful POST /ask.
type AskResponse struct {
	Answer *AnswerPayload `json:"answer"`
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of an ask call: exactly one of Answer or Err is set.
// The zero value is not valid; use OK or Failure.
type Result struct {
	Answer *AnswerPayload `json:"answer,omitempty"`
	Err    string         `json:"error,omitempty"`
}

// OK wraps a successful answer. A nil payload becomes an empty answer so the
// result stays on the success side.
func OK(p *AnswerPayload) Result {
	if p == nil {
		p = &AnswerPayload{}
	}
	return Result{Answer: p}
}

// Failure wraps a human-readable error reason.
func Failure(reason string) Result {
	if reason == "" {
		reason = "unknown error"
	}
	return Result{Err: reason}
}

// IsError reports whether r carries an error.
func (r Result) IsError() bool {
	return r.Answer == nil
}

// Error returns the error reason, or "" on success.
func (r Result) Error() string {
	if r.IsError() {
		if r.Err == "" {
			return "unknown error"
		}
		return r.Err
	}
	return ""
}
