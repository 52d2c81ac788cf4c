// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the chat session: its identifier and transcript.
//
// A Manager is created by whoever drives the conversation (the TUI model or
// the REPL) and passed down explicitly. Nothing here is persisted; a session
// lives as long as its Manager.
//
// # Lifecycle
//
//	m := session.NewManager()
//	m.Init()                     // fresh UUID, empty transcript; no-op if already initialized
//	m.AppendTurn(model.RoleUser, "What is the pressure limit?")
//	m.AppendAnswer(result)       // assistant turn from an api result
//	m.Reset()                    // new UUID, transcript cleared
package session
