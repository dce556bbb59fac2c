// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is a snapshot of one session's messages.
type Transcript struct {
	SessionID string          `json:"session_id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []model.Message `json:"messages"`
}

// NewTranscript builds a transcript from msgs in display order. Optimistic
// entries that were never confirmed are left out.
func NewTranscript(sessionID string, msgs []model.Message) *Transcript {
	sorted := model.NewList(msgs...).Sorted()
	kept := make([]model.Message, 0, len(sorted))
	for _, m := range sorted {
		if !m.IsTemp() {
			kept = append(kept, m)
		}
	}

	t := &Transcript{SessionID: sessionID, Messages: kept}
	t.Title = t.summary()
	if len(kept) > 0 {
		t.CreatedAt = kept[0].CreatedAt.Time
		t.UpdatedAt = kept[len(kept)-1].CreatedAt.Time
	}
	return t
}

// summary creates a title from the first user message.
func (t *Transcript) summary() string {
	for _, m := range t.Messages {
		if m.Role == model.RoleUser {
			if line := util.FirstLine(m.Content); line != "" {
				return util.TruncateWidth(line, 50)
			}
		}
	}
	return "New chat"
}

// Preview returns the first user message, shortened for lists.
func (t *Transcript) Preview() string {
	for _, m := range t.Messages {
		if m.Role == model.RoleUser {
			return util.TruncateWidth(m.Preview(), 80)
		}
	}
	return ""
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptMeta describes a stored transcript without its messages.
type TranscriptMeta struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// TranscriptStore keeps the last fetched transcript of each session so it
// can be shown or exported when the server is unreachable.
type TranscriptStore struct {
	// BaseDir is the directory for transcript files.
	// Default: ~/.chatdeck/transcripts/
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited).
	MaxTranscripts int
}

// NewTranscriptStore creates a store rooted at baseDir.
func NewTranscriptStore(baseDir string) (*TranscriptStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	return &TranscriptStore{BaseDir: baseDir, MaxTranscripts: 100}, nil
}

// Save persists t, replacing any earlier snapshot of the same session.
func (s *TranscriptStore) Save(t *Transcript) error {
	if t.SessionID == "" {
		return ErrNoSessionID
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(s.filePath(t.SessionID), data, 0600); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return nil
}

// enforceLimit removes the least recently updated transcripts over the limit.
func (s *TranscriptStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	for _, m := range metas[s.MaxTranscripts:] {
		_ = s.Delete(m.SessionID)
	}
}

// Load returns the stored transcript of a session.
func (s *TranscriptStore) Load(sessionID string) (*Transcript, error) {
	if sessionID == "" {
		return nil, ErrNoSessionID
	}
	data, err := os.ReadFile(s.filePath(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", sessionID, err)
	}
	return &t, nil
}

// List returns all stored transcripts, most recently updated first.
// Unreadable files are skipped.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []TranscriptMeta{}, nil
		}
		return nil, err
	}

	metas := make([]TranscriptMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, TranscriptMeta{
			SessionID:    t.SessionID,
			Title:        t.Title,
			UpdatedAt:    t.UpdatedAt,
			MessageCount: len(t.Messages),
			Preview:      t.Preview(),
		})
	}

	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search returns transcripts whose title or any message matches query,
// ignoring case and accents.
func (s *TranscriptStore) Search(query string) ([]TranscriptMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var results []TranscriptMeta
	for _, meta := range all {
		if util.ContainsFold(meta.Title, query) {
			results = append(results, meta)
			continue
		}
		t, err := s.Load(meta.SessionID)
		if err != nil {
			continue
		}
		for _, m := range t.Messages {
			if util.ContainsFold(m.Content, query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// Delete removes the transcript of a session.
func (s *TranscriptStore) Delete(sessionID string) error {
	if err := os.Remove(s.filePath(sessionID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

// filePath maps a session id to its file. Path separators in ids are
// replaced so an id can never escape BaseDir.
func (s *TranscriptStore) filePath(sessionID string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(sessionID)
	return filepath.Join(s.BaseDir, safe+".json")
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrNoSessionID        = errors.New("transcript has no session id")
)

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatTranscriptList renders metas as a fixed-width table.
func FormatTranscriptList(metas []TranscriptMeta) string {
	if len(metas) == 0 {
		return "No saved transcripts."
	}

	var sb strings.Builder
	sb.WriteString(util.PadWidth("SESSION", 14) + " " + util.PadWidth("UPDATED", 16) + " " + util.PadWidth("MSGS", 5) + " TITLE\n")
	for _, m := range metas {
		updated := "-"
		if !m.UpdatedAt.IsZero() {
			updated = m.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		sb.WriteString(util.PadWidth(m.SessionID, 14) + " " +
			util.PadWidth(updated, 16) + " " +
			util.PadWidth(fmt.Sprintf("%d", m.MessageCount), 5) + " " +
			util.TruncateWidth(m.Title, 50) + "\n")
	}
	return sb.String()
}
