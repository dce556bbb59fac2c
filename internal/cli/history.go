// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/storage"
)

var (
	historySession string
	historyJSON    bool
	historySaved   bool
	historySearch  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the messages of the active chat",
	Long: `Print the messages of the active chat (or --session). Every fetch is
cached locally, so the last known transcript is shown when the server is
unreachable. --saved lists the cached transcripts instead.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "session id (default: active session)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.Flags().BoolVar(&historySaved, "saved", false, "list cached transcripts")
	historyCmd.Flags().StringVar(&historySearch, "search", "", "with --saved, only transcripts containing this text")
	historyCmd.SilenceUsage = true
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if historySaved {
		return listSavedTranscripts(a)
	}

	id := historySession
	if id == "" {
		id = a.Session.ID()
	}
	if id == "" {
		return NewCommandError("history", "show", composer.ErrNoSession)
	}

	return OutputJSON(a.Out, historyJSON, "history", func() (any, error) {
		t, cached, err := a.fetchTranscript(cmd.Context(), id)
		if err != nil {
			return nil, NewCommandError("history", "fetch", err)
		}
		if historyJSON {
			return t, nil
		}

		fmt.Fprintln(a.Out, TitleStyle.Render(t.Title))
		if cached {
			fmt.Fprintln(a.Out, WarningStyle.Render("Server unreachable; showing the cached transcript."))
		}
		md := newMarkdownRenderer(a.Config.UI.Theme, renderWidth(a.Config.UI.WordWrap))
		for _, m := range t.Messages {
			printMessage(a.Out, md, m)
		}
		return t, nil
	})
}

func listSavedTranscripts(a *App) error {
	store, err := a.Transcripts()
	if err != nil {
		return err
	}
	return OutputJSON(a.Out, historyJSON, "history", func() (any, error) {
		var (
			metas []storage.TranscriptMeta
			err   error
		)
		if historySearch != "" {
			metas, err = store.Search(historySearch)
		} else {
			metas, err = store.List()
		}
		if err != nil {
			return nil, NewCommandError("history", "list", err)
		}
		if !historyJSON {
			fmt.Fprintln(a.Out, strings.TrimRight(storage.FormatTranscriptList(metas), "\n"))
		}
		return metas, nil
	})
}
