// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Supported Formats
//
//   - md: Markdown with YAML frontmatter
//   - json: the transcript with wire-format message records
//   - html: standalone page with highlighted code blocks
//
// # Usage
//
//	exp, err := export.New("md", export.DefaultOptions())
//	path, err := export.ToFile(transcript, exp, "")
package export
