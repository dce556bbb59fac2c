// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatdeck/internal/composer"
)

// =============================================================================
// MESSAGES
// =============================================================================

// listChangedMsg reports a change of the composer's list or loading state.
type listChangedMsg struct{}

// sessionChangedMsg reports that the stored session id changed outside
// this process.
type sessionChangedMsg struct{ id string }

// noticeMsg carries one composer or upload notification.
type noticeMsg struct{ notice composer.Notice }

type bootstrapDoneMsg struct{ err error }
type sendDoneMsg struct{ err error }
type attachDoneMsg struct{ err error }
type deleteDoneMsg struct{ err error }

// =============================================================================
// COMMANDS
// =============================================================================

// waitForSignal blocks until ch fires.
func waitForSignal(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func waitForSession(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return nil
		}
		return sessionChangedMsg{id: id}
	}
}

func waitForNotice(ch <-chan composer.Notice) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg{notice: n}
	}
}

func (m Model) bootstrapCmd() tea.Cmd {
	c, ctx := m.composer, m.ctx
	return func() tea.Msg {
		return bootstrapDoneMsg{err: c.Bootstrap(ctx)}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	c, ctx := m.composer, m.ctx
	return func() tea.Msg {
		_, err := c.Send(ctx, text)
		return sendDoneMsg{err: err}
	}
}

func (m Model) attachCmd(path string) tea.Cmd {
	f, ctx := m.flow, m.ctx
	return func() tea.Msg {
		return attachDoneMsg{err: f.Attach(ctx, path)}
	}
}

func (m Model) deleteCmd() tea.Cmd {
	c, ctx := m.composer, m.ctx
	return func() tea.Msg {
		return deleteDoneMsg{err: c.DeleteSession(ctx)}
	}
}

// signal turns a callback into a non-blocking, coalescing channel send.
func signal(ch chan struct{}) func() {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
