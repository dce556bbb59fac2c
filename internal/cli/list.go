// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/util"
)

var (
	listSearch   string
	listJSON     bool
	listMessages bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the chats stored on the server",
	Long: `List every chat the server knows about, newest first. --search keeps
only chats with a message containing the text (case and accent
insensitive). --messages prints the matching messages instead of one row
per chat.`,
	Example: `  $ chatdeck list
  $ chatdeck list --search navbar --messages
  $ chatdeck list --json | jq '.data[].session_id'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "q", "", "only chats containing this text")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	listCmd.Flags().BoolVarP(&listMessages, "messages", "m", false, "print messages instead of chats")
	listCmd.SilenceUsage = true
}

// chatSummary is one row of the chat list.
type chatSummary struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Messages  int       `json:"messages"`
	HasImage  bool      `json:"has_image"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return OutputJSON(a.Out, listJSON, "list", func() (any, error) {
		all, err := a.Client.ListAllChats(cmd.Context())
		if err != nil {
			return nil, NewCommandError("list", "fetch", err)
		}
		msgs := filterMessages(all, listSearch)

		if listMessages {
			if !listJSON {
				printMessageRows(a, msgs)
			}
			return msgs, nil
		}

		chats := summarizeChats(msgs, a.Session.ID())
		if !listJSON {
			printChatRows(a, chats)
		}
		return chats, nil
	})
}

// filterMessages keeps messages whose content contains query. An empty
// query keeps everything.
func filterMessages(msgs []model.Message, query string) []model.Message {
	if strings.TrimSpace(query) == "" {
		return msgs
	}
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if util.ContainsFold(m.Content, query) {
			out = append(out, m)
		}
	}
	return out
}

// summarizeChats groups msgs by session, newest activity first.
func summarizeChats(msgs []model.Message, active string) []chatSummary {
	bySession := make(map[string]*chatSummary)
	var order []string
	for _, m := range model.NewList(msgs...).Sorted() {
		sid := m.Session()
		if sid == "" {
			continue
		}
		s, ok := bySession[sid]
		if !ok {
			s = &chatSummary{SessionID: sid, Active: sid == active}
			bySession[sid] = s
			order = append(order, sid)
		}
		s.Messages++
		s.HasImage = s.HasImage || m.HasImage || m.ImageURL != ""
		if s.Title == "" && m.Role == model.RoleUser {
			s.Title = util.TruncateWidth(m.Preview(), 60)
		}
		if m.CreatedAt.After(s.UpdatedAt) {
			s.UpdatedAt = m.CreatedAt.Time
		}
	}

	out := make([]chatSummary, 0, len(order))
	for _, sid := range order {
		out = append(out, *bySession[sid])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func printChatRows(a *App, chats []chatSummary) {
	if len(chats) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No chats found."))
		return
	}
	fmt.Fprintln(a.Out, DimStyle.Render(
		"  "+util.PadWidth("SESSION", 38)+" "+util.PadWidth("UPDATED", 16)+" "+util.PadWidth("MSGS", 5)+" TITLE"))
	for _, c := range chats {
		marker := "  "
		if c.Active {
			marker = SuccessStyle.Render("* ")
		}
		updated := "-"
		if !c.UpdatedAt.IsZero() {
			updated = c.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		title := c.Title
		if c.HasImage {
			title = "[image] " + title
		}
		fmt.Fprintln(a.Out, marker+util.PadWidth(c.SessionID, 38)+" "+
			util.PadWidth(updated, 16)+" "+
			util.PadWidth(fmt.Sprint(c.Messages), 5)+" "+title)
	}
}

func printMessageRows(a *App, msgs []model.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("No messages found."))
		return
	}
	for _, m := range model.NewList(msgs...).Sorted() {
		fmt.Fprintln(a.Out,
			util.PadWidth(util.TruncateWidth(m.Session(), 12), 12)+" "+
				util.PadWidth(m.Role.DisplayName(), 10)+" "+
				previewColumn(m, 60))
	}
}
