// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session persists the active chat session id.
//
// chatdeck is a single-conversation client: at most one session id is
// active at a time. It is created by the first successful send, read on
// start-up, and cleared when the session is deleted.
//
// # Key Types
//
//   - Store: Get/Set/Clear of the id under the fixed key "session_id"
//   - FileStore: JSON file written atomically (default, ~/.chatdeck/session.json)
//   - SQLiteStore: key/value table in a SQLite database
//   - MemoryStore: process-local, for --ephemeral and tests
//   - Context: in-memory handle shared by composer and UI, with change subscriptions
//   - Watcher: reloads a Context when another process rewrites the file
//
// # Usage
//
//	store, err := session.Open(cfg.Session.Backend, dataDir, cfg.Session.Path)
//	sc := session.NewContext(store)
//	id, err := sc.Load(ctx)
//	...
//	err = sc.Set(ctx, reply.Session())
//	err = sc.Clear(ctx)
package session
