// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat message record and the message list state.
//
// # Key Types
//
//   - Message: one chat record as the chat API returns it (_id, role,
//     session_id, message, created_at, image_url)
//   - Role: user or assistant
//   - List: immutable ordered message collection of the active session
//   - Action: Append, Remove, Replace, Clear transitions for Reduce
//
// # Optimistic entries
//
// A message typed by the user is shown before the server has answered.
// Such entries carry a temporary id (temp-user-<ms>-<uuid>) so a failed send
// can remove exactly that entry:
//
//	msg := model.NewUserMessage("hello", sessionID, "", time.Now())
//	list = model.Reduce(list, model.Append{Message: msg})
//	// ... request failed
//	list = model.Reduce(list, model.Remove{ID: msg.ID})
//
// Display order is CreatedAt ascending with ties kept in insertion order:
//
//	for _, m := range list.Sorted() { ... }
package model
