// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/stdqa/internal/model"
	"github.com/jeranaias/stdqa/internal/util"
)

const (
	// ErrorPrefix marks assistant turns that carry a failed ask.
	ErrorPrefix = "❌ "

	// AnswerReceived is the transcript text for answers without a summary.
	AnswerReceived = "Answer received"

	shortIDLen = 8
)

// IDGenerator produces session identifiers.
type IDGenerator func() string

// NewUUID returns a random UUID-v4 string.
func NewUUID() string {
	return uuid.NewString()
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the current session identifier and transcript.
type Manager struct {
	mu sync.Mutex

	sessionID  string
	transcript []model.ChatTurn
	startTime  time.Time

	newID IDGenerator
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator replaces the UUID generator. Used by tests.
func WithIDGenerator(gen IDGenerator) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// NewManager creates an uninitialized manager. Call Init before use.
func NewManager(opts ...Option) *Manager {
	m := &Manager{newID: NewUUID}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Init creates a session if none exists. Calling it again is a no-op.
// Reports whether a new session was created.
func (m *Manager) Init() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != "" {
		return false
	}
	m.sessionID = m.newID()
	m.transcript = nil
	m.startTime = time.Now()
	return true
}

// Reset replaces the session identifier and clears the transcript.
// The new identifier always differs from the previous one.
func (m *Manager) Reset() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.sessionID
	id := m.newID()
	for id == prev || id == "" {
		id = m.newID()
		if id == prev || id == "" {
			// A broken generator must not wedge the UI.
			id = NewUUID()
		}
	}
	m.sessionID = id
	m.transcript = nil
	m.startTime = time.Now()
	return id
}

// Initialized reports whether Init has run.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID != ""
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// AppendTurn adds one turn to the transcript.
func (m *Manager) AppendTurn(role model.Role, content string) {
	m.append(model.ChatTurn{Role: role, Content: content, Timestamp: time.Now()})
}

// AppendAnswer adds the assistant turn for an ask result and returns it.
// Failures become "❌ <reason>"; answers use the summary, or AnswerReceived
// when the summary is empty.
func (m *Manager) AppendAnswer(res model.Result) model.ChatTurn {
	turn := AnswerTurn(res)
	m.append(turn)
	return turn
}

// AnswerTurn builds the assistant turn for res without appending it.
func AnswerTurn(res model.Result) model.ChatTurn {
	turn := model.NewAssistantTurn("")
	if res.IsError() {
		turn.Content = ErrorPrefix + res.Error()
		turn.IsError = true
		return turn
	}
	turn.Answer = res.Answer
	turn.Content = res.Answer.Summary
	if turn.Content == "" {
		turn.Content = AnswerReceived
	}
	return turn
}

func (m *Manager) append(turn model.ChatTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcript = append(m.transcript, turn)
}

// Transcript returns a copy of the transcript in arrival order.
func (m *Manager) Transcript() []model.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ChatTurn, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// Len returns the number of turns.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transcript)
}

// LastAnswer returns the most recent successful assistant answer.
func (m *Manager) LastAnswer() (model.ChatTurn, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.transcript) - 1; i >= 0; i-- {
		t := m.transcript[i]
		if t.Role == model.RoleAssistant && t.Answer != nil {
			return t, true
		}
	}
	return model.ChatTurn{}, false
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the current session ID, or "" before Init.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// ShortID returns the first characters of the session ID for display.
func (m *Manager) ShortID() string {
	return util.ShortPrefix(m.SessionID(), shortIDLen)
}

// StartTime returns when the current session began.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the current session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startTime.IsZero() {
		return 0
	}
	return time.Since(m.startTime)
}
