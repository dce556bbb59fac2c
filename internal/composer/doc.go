// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package composer implements message composition for the active session.
//
// A send inserts an optimistic user entry with a temporary id, dispatches
// the request, and on success appends the assistant reply next to it. On
// failure only the optimistic entry is removed. The first successful send
// without a session persists the session id the server assigned.
//
// Only one send may be in flight, and sends are refused while an image
// upload is still running so an attachment is never silently dropped.
package composer
