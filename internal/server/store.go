// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jeranaias/chatdeck/internal/model"
)

// =============================================================================
// RECORDS
// =============================================================================

// MessageRecord is one stored chat message.
type MessageRecord struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	ID        string `gorm:"uniqueIndex;not null"`
	SessionID string `gorm:"index;not null"`
	Role      string `gorm:"not null"`
	Message   string
	HasImage  bool
	ImageURL  string
	// ReferencesImage is set on assistant replies to image prompts.
	ReferencesImage string
	CreatedAt       time.Time `gorm:"index"`
}

// ToModel converts the record to its wire form.
func (m MessageRecord) ToModel() model.Message {
	return model.Message{
		ID:        m.ID,
		Role:      model.Role(m.Role),
		SessionID: model.SessionRef(m.SessionID),
		Content:   m.Message,
		CreatedAt: model.Timestamp{Time: m.CreatedAt},
		HasImage:  m.HasImage,
		ImageURL:  m.ImageURL,
	}
}

// Snippet is a code example added through add-snippet.
type Snippet struct {
	ID        uint `gorm:"primaryKey"`
	Text      string
	Tags      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TagList splits the stored comma-separated tags.
func (s Snippet) TagList() []string {
	if s.Tags == "" {
		return nil
	}
	return strings.Split(s.Tags, ",")
}

// =============================================================================
// DATABASE
// =============================================================================

// OpenDatabase opens the sqlite database at path and migrates it. path may
// be a gorm DSN such as "file::memory:".
func OpenDatabase(path string) (*gorm.DB, error) {
	if !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MessageRecord{}, &Snippet{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func toModels(records []MessageRecord) []model.Message {
	out := make([]model.Message, 0, len(records))
	for _, r := range records {
		out = append(out, r.ToModel())
	}
	return out
}
