// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a development implementation of the chat API the
// client talks to. It stores messages in sqlite through gorm, keeps
// uploaded images on disk or in an S3 bucket, and answers prompts with a
// canned component or an OpenAI model.
//
// Routes (all JSON unless noted):
//
//	GET    /                                  "Hello World!" (text)
//	GET    /api/chat/chats                    every stored message
//	POST   /api/chat/new-chat                 send a prompt, get the reply (201)
//	PUT    /api/chat/new-message/{session_id} append a raw text message (201)
//	GET    /api/chat/messages/{session_id}    session history (201)
//	DELETE /api/chat/delete-session/{session_id}
//	POST   /api/chat/upload-image             multipart field "image"
//	POST   /api/chat/add-snippet              {text, tags}
//	GET    /images/*                          files of the disk image store
package server
