// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across chatdeck.
//
// # Key Functions
//
// Display:
//   - TruncateWidth, PadWidth: column-aware truncation and padding (go-runewidth)
//   - FirstLine: one-line preview of a multi-line message
//
// Search:
//   - Fold, ContainsFold: case and accent insensitive matching (x/text)
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	row := util.PadWidth(util.FirstLine(msg.Content), 48)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
