// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Key is the fixed name under which the active session id is stored.
const Key = "session_id"

// ErrEmptySessionID is returned when asked to persist an empty id.
var ErrEmptySessionID = errors.New("session id is empty")

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store durably holds at most one session id. Get reports ok=false when no
// id is stored. Clear on an empty store is not an error.
type Store interface {
	Get(ctx context.Context) (id string, ok bool, err error)
	Set(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Closer is implemented by stores holding resources (the sqlite backend).
type Closer interface {
	Close() error
}

// =============================================================================
// BACKEND SELECTION
// =============================================================================

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the store for backend. dir is the chatdeck data directory;
// path, when non-empty, overrides the default file location of the backend.
func Open(backend, dir, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		if path == "" {
			path = filepath.Join(dir, "session.json")
		}
		return NewFileStore(path), nil
	case BackendSQLite:
		if path == "" {
			path = filepath.Join(dir, "session.db")
		}
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q (want file, sqlite or memory)", backend)
	}
}
