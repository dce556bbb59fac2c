// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"

	"github.com/jeranaias/chatdeck/internal/storage"
)

// JSONExporter writes the transcript as indented JSON. The message records
// keep the wire field names, so the output can be fed back to tools that
// speak the chat API.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonDocument struct {
	*storage.Transcript
	ExportedAt string `json:"exported_at,omitempty"`
}

// Export converts a transcript to JSON.
func (e *JSONExporter) Export(t *storage.Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}
	doc := jsonDocument{Transcript: t}
	if e.options.IncludeMetadata {
		doc.ExportedAt = e.options.now().UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (e *JSONExporter) FileExtension() string { return ".json" }
func (e *JSONExporter) MimeType() string      { return "application/json" }
