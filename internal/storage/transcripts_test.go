// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/chatdeck/internal/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id string, role model.Role, content string, offset time.Duration) model.Message {
	return model.Message{
		ID:        id,
		Role:      role,
		SessionID: model.SessionRef("s1"),
		Content:   content,
		CreatedAt: model.Timestamp{Time: base.Add(offset)},
	}
}

func newStore(t *testing.T) *TranscriptStore {
	t.Helper()
	s, err := NewTranscriptStore(filepath.Join(t.TempDir(), "transcripts"))
	if err != nil {
		t.Fatalf("NewTranscriptStore() error = %v", err)
	}
	return s
}

func TestNewTranscript(t *testing.T) {
	tr := NewTranscript("s1", []model.Message{
		msg("2", model.RoleAssistant, "Here you go", time.Minute),
		msg("1", model.RoleUser, "Build a navbar\nwith links", 0),
		{ID: model.NewTempID(base), Role: model.RoleUser, Content: "pending"},
	})

	if len(tr.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2 (temp entry dropped)", len(tr.Messages))
	}
	if tr.Messages[0].ID != "1" {
		t.Errorf("first message = %s, want sorted by created_at", tr.Messages[0].ID)
	}
	if tr.Title != "Build a navbar" {
		t.Errorf("Title = %q", tr.Title)
	}
	if !tr.CreatedAt.Equal(base) || !tr.UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("CreatedAt/UpdatedAt = %v/%v", tr.CreatedAt, tr.UpdatedAt)
	}
}

func TestNewTranscript_Empty(t *testing.T) {
	tr := NewTranscript("s1", nil)
	if tr.Title != "New chat" {
		t.Errorf("Title = %q", tr.Title)
	}
	if tr.Preview() != "" {
		t.Errorf("Preview = %q", tr.Preview())
	}
}

func TestTranscriptStore_SaveLoad(t *testing.T) {
	s := newStore(t)
	tr := NewTranscript("abc123", []model.Message{msg("1", model.RoleUser, "hello", 0)})

	if err := s.Save(tr); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load("abc123")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Title != "hello" || len(got.Messages) != 1 {
		t.Errorf("Load() = %+v", got)
	}
	if got.Messages[0].Session() != "s1" {
		t.Errorf("session ref lost in round trip")
	}
}

func TestTranscriptStore_Errors(t *testing.T) {
	s := newStore(t)

	if _, err := s.Load("missing"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if err := s.Delete("missing"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if err := s.Save(&Transcript{}); !errors.Is(err, ErrNoSessionID) {
		t.Errorf("Save(no id) error = %v", err)
	}
}

func TestTranscriptStore_PathEscape(t *testing.T) {
	s := newStore(t)
	if err := s.Save(&Transcript{SessionID: "../../evil"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the file inside BaseDir, got %d entries", len(entries))
	}
}

func TestTranscriptStore_ListAndLimit(t *testing.T) {
	s := newStore(t)
	s.MaxTranscripts = 2

	for i, id := range []string{"old", "mid", "new"} {
		tr := NewTranscript(id, []model.Message{msg(id, model.RoleUser, "chat "+id, time.Duration(i)*time.Hour)})
		if err := s.Save(tr); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(metas))
	}
	if metas[0].SessionID != "new" || metas[1].SessionID != "mid" {
		t.Errorf("List() order = %s, %s", metas[0].SessionID, metas[1].SessionID)
	}
}

func TestTranscriptStore_Search(t *testing.T) {
	s := newStore(t)
	_ = s.Save(NewTranscript("a", []model.Message{
		msg("1", model.RoleUser, "Make a Café menu", 0),
	}))
	_ = s.Save(NewTranscript("b", []model.Message{
		msg("2", model.RoleUser, "Login form", 0),
		msg("3", model.RoleAssistant, "Uses a PasswordInput component", time.Second),
	}))

	tests := []struct {
		query string
		want  []string
	}{
		{"cafe", []string{"a"}},
		{"passwordinput", []string{"b"}},
		{"nothing here", nil},
	}
	for _, tt := range tests {
		got, err := s.Search(tt.query)
		if err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, m := range got {
			ids = append(ids, m.SessionID)
		}
		if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Search(%q) = %v, want %v", tt.query, ids, tt.want)
		}
	}
}

func TestFormatTranscriptList(t *testing.T) {
	if got := FormatTranscriptList(nil); got != "No saved transcripts." {
		t.Errorf("empty list = %q", got)
	}
	out := FormatTranscriptList([]TranscriptMeta{{SessionID: "abc123", Title: "Navbar", MessageCount: 4, UpdatedAt: base}})
	if !strings.Contains(out, "abc123") || !strings.Contains(out, "Navbar") {
		t.Errorf("table missing fields:\n%s", out)
	}
}
