// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who produced a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// CHAT TURN
// =============================================================================

// ChatTurn is one entry of a session transcript.
//
// Content is the display string. For assistant turns built from a backend
// reply, Answer holds the structured payload so views can render it in full;
// it is nil for user turns and for error replies.
type ChatTurn struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Answer    *AnswerPayload `json:"answer,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewUserTurn creates a user turn carrying the question text.
func NewUserTurn(question string) ChatTurn {
	return ChatTurn{Role: RoleUser, Content: question, Timestamp: time.Now()}
}

// NewAssistantTurn creates a plain assistant turn.
func NewAssistantTurn(content string) ChatTurn {
	return ChatTurn{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}
