// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeConnection covers refused connections, DNS failures and resets.
	ErrTypeConnection
	ErrTypeTimeout
	// ErrTypeStatus is a response with a non-200 status code.
	ErrTypeStatus
	// ErrTypeDecode is a 200 response whose body could not be parsed.
	ErrTypeDecode
	// ErrTypeRequest is a request that could not be built or sent.
	ErrTypeRequest
)

// String returns a short name for logs.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeDecode:
		return "decode"
	case ErrTypeRequest:
		return "request"
	default:
		return "unknown"
	}
}

// ClientError represents a failed backend call.
type ClientError struct {
	Type ErrorType
	// Op is "health" or "ask".
	Op         string
	StatusCode int
	Timeout    time.Duration
	Message    string
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by type, so errors.Is(err, ErrTimeout) holds for any
// timeout regardless of operation or cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Op == "" && t.StatusCode == 0
}

// UserMessage is the string shown to the user for this failure.
func (e *ClientError) UserMessage() string {
	switch e.Type {
	case ErrTypeStatus:
		return fmt.Sprintf("API error: %d", e.StatusCode)
	case ErrTypeTimeout:
		if e.Timeout > 0 {
			return fmt.Sprintf("request timed out after %s", e.Timeout)
		}
		return "request timed out"
	case ErrTypeConnection:
		if e.Cause != nil {
			return "could not reach backend: " + e.Cause.Error()
		}
		return "could not reach backend"
	case ErrTypeDecode:
		if e.Cause != nil {
			return "malformed response from backend: " + e.Cause.Error()
		}
		return "malformed response from backend"
	default:
		return e.Error()
	}
}

// Retryable reports whether a repeat of the same call could succeed.
// Decode failures and 4xx responses will not change on retry.
func (e *ClientError) Retryable() bool {
	switch e.Type {
	case ErrTypeConnection, ErrTypeTimeout:
		return true
	case ErrTypeStatus:
		return e.StatusCode >= 500 || e.StatusCode == 429
	default:
		return false
	}
}

// Sentinel errors for easy checking.
var (
	ErrUnavailable = &ClientError{Type: ErrTypeConnection, Message: "backend unavailable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrBadStatus   = &ClientError{Type: ErrTypeStatus, Message: "unexpected status"}
	ErrMalformed   = &ClientError{Type: ErrTypeDecode, Message: "malformed response"}
)
