// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/ui/chat"
	"github.com/jeranaias/chatdeck/internal/ui/styles"
)

// runTUI opens the full-screen chat.
func runTUI(cmd *cobra.Command, _ []string) error {
	if !IsTTY() || !IsStdoutTTY() {
		return &UsageError{Message: "the chat screen needs a terminal; try 'chatdeck chat' or 'chatdeck ask'"}
	}

	a, err := newApp(cmd, logFile)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Watch()

	notices := composer.NewQueueNotifier(32)
	notify := composer.Multi{notices, composer.LogNotifier{Log: a.Log}}
	c, flow := a.Composer(notify)

	m := chat.New(chat.Options{
		Composer:       c,
		Flow:           flow,
		Notices:        notices.C(),
		Session:        a.Session,
		Theme:          styles.NewTheme(a.Config.UI.Theme),
		ShowTimestamps: a.Config.UI.ShowTimestamps,
		APIURL:         a.Client.BaseURL(),
		Logger:         a.Log,
	})
	defer m.Close()

	a.Log.Info("starting chat screen", "api_url", a.Client.BaseURL(), "session_id", a.Session.ID())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}
