// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/ui/styles"
	"github.com/jeranaias/chatdeck/internal/util"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer draws chat messages. Assistant prose goes through glamour
// and fenced code through CodeBlock. The glamour renderer is rebuilt only
// when the width changes.
type MessageRenderer struct {
	theme          *styles.Theme
	showTimestamps bool

	mu       sync.Mutex
	width    int
	markdown *glamour.TermRenderer
}

// NewMessageRenderer creates a renderer for theme.
func NewMessageRenderer(theme *styles.Theme, showTimestamps bool) *MessageRenderer {
	return &MessageRenderer{theme: theme, showTimestamps: showTimestamps}
}

// RenderAll renders msgs separated by blank lines.
func (r *MessageRenderer) RenderAll(msgs []model.Message, width int) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, r.Render(m, width))
	}
	return strings.Join(parts, "\n\n")
}

// Render renders one message at width.
func (r *MessageRenderer) Render(m model.Message, width int) string {
	if width < 20 {
		width = 20
	}

	var sb strings.Builder
	sb.WriteString(r.header(m))
	sb.WriteString("\n")

	if m.Role == model.RoleUser {
		body := m.Content
		if m.HasImage || m.ImageURL != "" {
			body = r.theme.Attachment.Render("[image] "+util.TruncateWidth(m.ImageURL, width-12)) + "\n" + body
		}
		sb.WriteString(r.theme.UserBubble.MaxWidth(width).Render(lipgloss.NewStyle().Width(width - 4).Render(body)))
		return sb.String()
	}

	sb.WriteString(r.theme.AssistantBody.Render(r.renderMarkdown(m.Content, width-2)))
	return sb.String()
}

func (r *MessageRenderer) header(m model.Message) string {
	var label string
	if m.Role == model.RoleUser {
		label = r.theme.UserLabel.Render(m.Role.DisplayName())
	} else {
		label = r.theme.AssistantLabel.Render(m.Role.DisplayName())
	}
	if m.IsTemp() {
		label += " " + r.theme.Pending.Render("sending...")
	} else if r.showTimestamps && !m.CreatedAt.IsZero() {
		label += " " + r.theme.Muted.Render(m.CreatedAt.Local().Format("15:04"))
	}
	return label
}

// renderMarkdown splits content on fenced code blocks.
func (r *MessageRenderer) renderMarkdown(content string, width int) string {
	blocks := model.ExtractCodeBlocks(content)
	var parts []string
	pos := 0
	for _, b := range blocks {
		if prose := strings.TrimSpace(content[pos:b.Start]); prose != "" {
			parts = append(parts, r.prose(prose, width))
		}
		parts = append(parts, NewCodeBlock(b, width, r.theme.Dark).Render())
		pos = b.End
	}
	if prose := strings.TrimSpace(content[pos:]); prose != "" {
		parts = append(parts, r.prose(prose, width))
	}
	return strings.Join(parts, "\n")
}

func (r *MessageRenderer) prose(text string, width int) string {
	tr := r.renderer(width)
	if tr == nil {
		return lipgloss.NewStyle().Width(width).Render(text)
	}
	out, err := tr.Render(text)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(text)
	}
	return strings.Trim(out, "\n")
}

func (r *MessageRenderer) renderer(width int) *glamour.TermRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markdown != nil && r.width == width {
		return r.markdown
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	r.markdown, r.width = tr, width
	return tr
}
