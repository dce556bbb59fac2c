// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport is the HTTP client for the chat backend.
//
// Every call takes a context and returns a *ClientError on failure, typed as
// connection, timeout, HTTP status, or invalid reply. Replies are validated at
// this boundary: callers never see an assistant message without content.
package transport
