// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat record. Persisted messages carry a
// server-assigned ID; optimistic entries carry a temporary ID (see NewTempID)
// until the server confirms the exchange.
type Message struct {
	ID        string    `json:"_id"`
	Role      Role      `json:"role"`
	SessionID *string   `json:"session_id"`
	Content   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`

	HasImage bool   `json:"has_image,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// NewUserMessage builds an optimistic user entry with a temporary id.
// sessionID may be empty, in which case the entry has no session yet.
func NewUserMessage(content, sessionID, imageURL string, now time.Time) Message {
	return Message{
		ID:        NewTempID(now),
		Role:      RoleUser,
		SessionID: SessionRef(sessionID),
		Content:   content,
		CreatedAt: Timestamp{now},
		HasImage:  imageURL != "",
		ImageURL:  imageURL,
	}
}

// Session returns the owning session id or "" for pre-session entries.
func (m Message) Session() string {
	if m.SessionID == nil {
		return ""
	}
	return *m.SessionID
}

// IsTemp reports whether the message is an unconfirmed optimistic entry.
func (m Message) IsTemp() bool {
	return IsTempID(m.ID)
}

// Preview returns the first line of the content, for list views.
func (m Message) Preview() string {
	for _, line := range strings.Split(m.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	if m.HasImage {
		return "[image]"
	}
	return ""
}

// SessionRef converts a session id into the nullable wire form.
func SessionRef(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

const (
	// TempIDPrefix marks client-side optimistic ids. Server ids are
	// database object ids or UUIDs and never carry this prefix.
	TempIDPrefix = "temp-user-"

	// FallbackIDPrefix is used when the server omits the assistant id.
	FallbackIDPrefix = "assistant-"
)

// NewTempID returns a unique temporary id: temp-user-<unix-ms>-<uuid>.
func NewTempID(now time.Time) string {
	return TempIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()
}

// IsTempID reports whether id was produced by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// NewFallbackID returns assistant-<unix-ms>.
func NewFallbackID(now time.Time) string {
	return FallbackIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// =============================================================================
// TIMESTAMP
// =============================================================================

// Timestamp is a time.Time that tolerates the formats the chat API emits:
// RFC 3339, ISO 8601 without zone (naive UTC), and the RFC 1123 form that
// JSON encoders produce for datetimes. Zero values marshal as null.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123,
	time.RFC1123Z,
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses s using the accepted layouts. Zone-less values are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at: unrecognised time %q", s)
}
