// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data shapes shared between the backend client,
// the session manager and the renderers.
//
// # Key Types
//
//   - ChatTurn: one transcript entry (user question or assistant reply)
//   - AnswerPayload: the structured answer returned by POST /ask
//   - Result: tagged union of an answer or a human-readable error
//   - HealthStatus: the parsed body of GET /health
package model
