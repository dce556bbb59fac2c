// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// storeFactories builds one of each backend rooted in a temp dir.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"file": func() Store {
			return NewFileStore(filepath.Join(t.TempDir(), "session.json"))
		},
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"memory": func() Store {
			return NewMemoryStore()
		},
	}
}

// =============================================================================
// STORE CONTRACT TESTS
// =============================================================================

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory()

			id, ok, err := s.Get(ctx)
			require.NoError(t, err)
			require.False(t, ok)
			require.Empty(t, id)

			require.NoError(t, s.Set(ctx, "abc123"))
			id, ok, err = s.Get(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "abc123", id)

			require.NoError(t, s.Set(ctx, "def456"))
			id, _, _ = s.Get(ctx)
			require.Equal(t, "def456", id)

			require.NoError(t, s.Clear(ctx))
			_, ok, err = s.Get(ctx)
			require.NoError(t, err)
			require.False(t, ok)

			// Clearing twice is fine.
			require.NoError(t, s.Clear(ctx))

			require.ErrorIs(t, s.Set(ctx, ""), ErrEmptySessionID)
		})
	}
}

func TestFileStore_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, NewFileStore(path).Set(ctx, "abc123"))

	// A fresh store simulates a restart of the client.
	id, ok, err := NewFileStore(path).Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc123", id)
}

func TestFileStore_PreservesOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark"}`), 0600))

	s := NewFileStore(path)
	require.NoError(t, s.Set(ctx, "abc123"))
	require.NoError(t, s.Clear(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"theme": "dark"`)
	require.NotContains(t, string(data), "abc123")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileStore(path).Get(context.Background())
	require.Error(t, err)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "abc123"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	id, ok, err := s.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc123", id)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"", "*session.FileStore", false},
		{"file", "*session.FileStore", false},
		{"SQLite", "*session.SQLiteStore", false},
		{"memory", "*session.MemoryStore", false},
		{"redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, dir, "")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if c, ok := s.(Closer); ok {
				defer c.Close()
			}
			require.Equal(t, tt.want, typeName(s))
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *FileStore:
		return "*session.FileStore"
	case *SQLiteStore:
		return "*session.SQLiteStore"
	case *MemoryStore:
		return "*session.MemoryStore"
	}
	return "?"
}

// =============================================================================
// CONTEXT TESTS
// =============================================================================

type failingStore struct{ MemoryStore }

func (f *failingStore) Set(context.Context, string) error { return errors.New("disk full") }

func TestContext_SetLoadClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "abc123"))

	sc := NewContext(store)
	require.False(t, sc.Has(), "id should not be known before Load")

	id, err := sc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "abc123", id)
	require.Equal(t, "abc123", sc.ID())

	require.NoError(t, sc.Clear(ctx))
	require.False(t, sc.Has())
	_, ok, _ := store.Get(ctx)
	require.False(t, ok)
}

func TestContext_SetFailureKeepsOldID(t *testing.T) {
	ctx := context.Background()
	sc := NewContext(&failingStore{})

	require.Error(t, sc.Set(ctx, "abc123"))
	require.Empty(t, sc.ID())
	require.ErrorIs(t, sc.Set(ctx, ""), ErrEmptySessionID)
}

func TestContext_Subscribe(t *testing.T) {
	ctx := context.Background()
	sc := NewContext(NewMemoryStore())

	var got []string
	unsubscribe := sc.Subscribe(func(id string) { got = append(got, id) })

	require.NoError(t, sc.Set(ctx, "a"))
	require.NoError(t, sc.Set(ctx, "a")) // unchanged, no event
	require.NoError(t, sc.Clear(ctx))
	unsubscribe()
	require.NoError(t, sc.Set(ctx, "b"))

	require.Equal(t, []string{"a", ""}, got)
}

func TestContext_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	sc := NewContext(NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = sc.Set(ctx, "abc123")
		}()
		go func() {
			defer wg.Done()
			_ = sc.ID()
		}()
	}
	wg.Wait()
	require.Equal(t, "abc123", sc.ID())
}

// =============================================================================
// WATCHER TESTS
// =============================================================================

func TestWatcher_PicksUpExternalWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	sc := NewContext(store)

	changed := make(chan string, 4)
	sc.Subscribe(func(id string) { changed <- id })

	w, err := NewWatcher(sc, store, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	// Another process writes the file.
	require.NoError(t, NewFileStore(path).Set(ctx, "from-other-window"))

	select {
	case id := <-changed:
		require.Equal(t, "from-other-window", id)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload the session context")
	}
}
