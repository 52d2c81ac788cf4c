// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view of stdqa.
//
// The Model is a Bubble Tea model driven by a small state machine:
//
//	Uninitialized --health ok--> Ready --submit--> AwaitingAnswer --answer--> Ready
//	Uninitialized --health failed--> Blocked --r / config change--> (probe again)
//
// While Blocked the chat input is not offered; a diagnostic names the
// configured server, its port and a command to check it. Only one question
// is in flight at a time. Network calls run as tea.Cmds and report back as
// messages, so all Model state is touched from the update loop only.
package chat
