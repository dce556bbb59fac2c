// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach handles image attachments: local validation, an
// asynchronous preview, and the upload that yields the URL sent with the
// next message.
package attach
