// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks of the stdqa TUI:
// the header, the status bar, the session side panel and the full-screen
// diagnostic shown when the backend cannot be reached.
//
// Components hold plain state and render with the styles of a
// *styles.Theme. They do not perform I/O.
package components
