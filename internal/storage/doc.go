// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps local snapshots of session transcripts under
// ~/.chatdeck/transcripts, one JSON file per session id. The server stays
// the source of truth; snapshots serve offline history and export.
package storage
