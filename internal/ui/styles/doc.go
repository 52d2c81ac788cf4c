// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the stdqa TUI.
//
// Colors are lipgloss.AdaptiveColor values so they follow the terminal's
// light or dark background. Theme bundles the composed styles used by the
// chat view and the blocking diagnostic.
package styles
