// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the stdqa packages.
//
// String helpers are rune and display-width aware so that Cyrillic and CJK
// titles returned by the backend are never cut mid-character:
//
//	title := util.TruncateRunesNoEllipsis(std.Title, 100)
//	cell := util.TruncateWidth(line, width)
//
// AtomicWriteFile is used for config saves and transcript exports.
package util
