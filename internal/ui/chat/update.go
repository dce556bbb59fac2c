// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/ui/components"
)

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case listChangedMsg:
		m.refreshContent(true)
		return m, waitForSignal(m.changes, listChangedMsg{})

	case sessionChangedMsg:
		// Ids stored by our own send or delete are already reflected in the
		// list. Only a change made elsewhere needs a reload.
		if m.composer.Loading() || m.composer.Current(msg.id) {
			return m, waitForSession(m.sessions)
		}
		m.log.Debug("session changed", "session_id", msg.id)
		return m, tea.Batch(m.bootstrapCmd(), waitForSession(m.sessions))

	case noticeMsg:
		m.toasts.AddNotice(msg.notice)
		m.layout()
		return m, waitForNotice(m.notices)

	case bootstrapDoneMsg:
		m.refreshContent(true)
		return m, nil

	case sendDoneMsg, attachDoneMsg, deleteDoneMsg:
		// Outcomes are reported through notices and list changes.
		m.refreshContent(false)
		return m, nil

	case components.ToastTickMsg:
		before := len(m.toasts.Toasts())
		if len(m.toasts.Tick()) != before {
			m.layout()
		}
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Delete) {
		m.confirmDeleteUntil = time.Time{}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Attach):
		m.input.SetValue(attachCommand + " ")
		m.input.CursorEnd()
		return m, nil

	case key.Matches(msg, m.keys.RemoveAttachment):
		if m.composer.Attachment().State() != attach.StateNone {
			m.composer.Attachment().Clear()
			m.toasts.AddStatus("Image removed")
			m.layout()
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyCode):
		m.copyLastCode()
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		return m.confirmDelete()

	case key.Matches(msg, m.keys.Dismiss):
		if m.toasts.HasToasts() {
			m.toasts.Dismiss()
			m.layout()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles Enter: slash commands, pasted image paths and sends.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if cmdName, arg, ok := parseCommand(text); ok {
		switch cmdName {
		case quitCommand:
			m.Close()
			return m, tea.Quit
		case attachCommand:
			if arg == "" {
				m.toasts.AddError("Usage: /attach <path to image>")
				m.layout()
				return m, nil
			}
			m.input.Reset()
			return m, m.attachCmd(expandHome(arg))
		}
	}

	if path, ok := looksLikeImagePath(text); ok {
		m.input.Reset()
		return m, m.attachCmd(path)
	}

	if m.composer.Loading() {
		return m, nil
	}
	if m.composer.CanSend(text) {
		m.input.Reset()
	}
	// A refused send still runs so the composer can report why.
	return m, m.sendCmd(text)
}

func (m Model) confirmDelete() (tea.Model, tea.Cmd) {
	now := m.now()
	if !m.confirmDeleteUntil.IsZero() && now.Before(m.confirmDeleteUntil) {
		m.confirmDeleteUntil = time.Time{}
		return m, m.deleteCmd()
	}
	m.confirmDeleteUntil = now.Add(deleteConfirmWindow)
	m.toasts.AddStatus("Press Ctrl+D again to delete this chat")
	m.layout()
	return m, nil
}

func (m *Model) copyLastCode() {
	block, ok := m.composer.List().LastCodeBlock()
	if !ok {
		m.toasts.AddError("No code to copy yet")
		return
	}
	if err := m.clipboard(block.Code); err != nil {
		m.log.Warn("clipboard write failed", "error", err)
		m.toasts.AddError("Could not copy to clipboard")
		return
	}
	m.toasts.AddSuccess("Code copied to clipboard")
}
