// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/util"
)

// =============================================================================
// MARKDOWN OUTPUT
// =============================================================================

// markdownRenderer renders assistant replies for line-oriented output.
type markdownRenderer struct {
	tr *glamour.TermRenderer
}

// newMarkdownRenderer picks the glamour style for theme, or plain output
// when colors are off.
func newMarkdownRenderer(theme string, width int) *markdownRenderer {
	style := "notty"
	if ColorsEnabled() {
		switch strings.ToLower(theme) {
		case "dark", "light":
			style = strings.ToLower(theme)
		default:
			style = "auto"
		}
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return &markdownRenderer{}
	}
	return &markdownRenderer{tr: tr}
}

// Render returns content as terminal markdown, or unchanged on failure.
func (r *markdownRenderer) Render(content string) string {
	if r == nil || r.tr == nil {
		return content
	}
	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// printMessage writes one message with its role label.
func printMessage(w io.Writer, md *markdownRenderer, m model.Message) {
	label := UserStyle.Render(m.Role.DisplayName())
	if m.Role == model.RoleAssistant {
		label = AssistantStyle.Render(m.Role.DisplayName())
	}
	stamp := ""
	if !m.CreatedAt.IsZero() {
		stamp = " " + DimStyle.Render(m.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	fmt.Fprintln(w, label+stamp)

	if m.ImageURL != "" {
		fmt.Fprintln(w, DimStyle.Render("[image] "+m.ImageURL))
	}
	if m.Role == model.RoleAssistant {
		fmt.Fprintln(w, md.Render(m.Content))
	} else {
		fmt.Fprintln(w, m.Content)
	}
	fmt.Fprintln(w)
}

// previewColumn fits a message preview into a table column.
func previewColumn(m model.Message, width int) string {
	return util.PadWidth(m.Preview(), width)
}
