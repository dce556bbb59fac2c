// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/ui/components"
	"github.com/jeranaias/chatdeck/internal/util"
)

const emptyChatHint = "Describe the component you want, or attach a UI mockup with ctrl+o."

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if line := m.renderAttachment(); line != "" {
		parts = append(parts, line)
	}
	parts = append(parts, m.renderInput(), m.renderStatus())
	if stack := m.renderToasts(); stack != "" {
		parts = append(parts, stack)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("chatdeck")
	info := "new chat"
	if id := m.composer.SessionID(); id != "" {
		info = "session " + util.TruncateWidth(id, 16)
	}
	if m.apiURL != "" {
		info += " @ " + m.apiURL
	}
	right := m.theme.Muted.Render(info)

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) renderAttachment() string {
	att := m.composer.Attachment()
	file, ok := att.File()
	if !ok {
		return ""
	}
	switch att.State() {
	case attach.StateUploading:
		return m.theme.Attachment.Render(m.spinner.View() + " uploading " + file.Name)
	case attach.StateReady:
		return m.theme.Attachment.Render("[image] " + file.Name + "  (ctrl+x to remove)")
	}
	return ""
}

func (m Model) renderInput() string {
	style := m.theme.InputBox
	view := m.input.View()
	if m.composer.Loading() {
		style = m.theme.InputBlocked
		view = m.spinner.View() + " " + m.theme.Pending.Render("waiting for the assistant...")
	}
	return style.Width(m.width).Render(view)
}

func (m Model) renderStatus() string {
	bindings := m.keys.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	line := util.TruncateWidth(strings.Join(hints, " | "), m.width-2)
	return m.theme.StatusBar.Width(m.width).Render(line)
}

func (m Model) renderToasts() string {
	return components.RenderToastStack(m.toasts.Toasts(), m.width, m.now())
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport to whatever the other regions leave over.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.input.Width = m.width - 4

	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatus())
	if line := m.renderAttachment(); line != "" {
		used += lipgloss.Height(line)
	}
	if stack := m.renderToasts(); stack != "" {
		used += lipgloss.Height(stack)
	}

	h := m.height - used
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.refreshContent(false)
}

// refreshContent re-renders the message list into the viewport. It keeps
// the view pinned to the bottom when it already was, or when bottom is set.
func (m *Model) refreshContent(bottom bool) {
	atBottom := m.viewport.AtBottom()
	msgs := m.composer.Messages()
	if len(msgs) == 0 {
		m.viewport.SetContent(m.theme.Hint.Render(emptyChatHint))
		return
	}
	m.viewport.SetContent(m.renderer.RenderAll(msgs, m.width-2))
	if bottom || atBottom {
		m.viewport.GotoBottom()
	}
}
