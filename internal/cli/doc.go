// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatdeck command tree.
//
// Running chatdeck with no command opens the full-screen chat. The other
// commands drive the same chat API from scripts or a plain terminal:
//
//	chatdeck chat                 line-based chat with history
//	chatdeck ask "a login form"   one-shot message, reply on stdout
//	chatdeck list --json          every stored message on the server
//	chatdeck export --format html transcript of the active chat
//	chatdeck serve                local development API server
//
// Every command shares the same configuration, session store and API
// client, built once per invocation in PersistentPreRunE.
package cli
