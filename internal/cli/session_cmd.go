// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	sessionJSON  bool
	sessionForce bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show or change the active session",
	Long: `The active session is the chat new messages are added to. It is kept in
the session store (see [session] in the config) until the chat is deleted
or cleared here. Clearing only forgets the id; the chat stays on the
server.`,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active session id",
	Args:  cobra.NoArgs,
	RunE:  runSessionShow,
}

var sessionSetCmd = &cobra.Command{
	Use:   "set <session-id>",
	Short: "Continue an existing chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionSet,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the active session without deleting it",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	sessionShowCmd.Flags().BoolVar(&sessionJSON, "json", false, "output as JSON")
	sessionClearCmd.Flags().BoolVarP(&sessionForce, "force", "f", false, "skip the confirmation prompt")

	for _, c := range []*cobra.Command{sessionShowCmd, sessionSetCmd, sessionClearCmd} {
		c.SilenceUsage = true
		sessionCmd.AddCommand(c)
	}
}

type sessionInfo struct {
	SessionID string `json:"session_id"`
	Backend   string `json:"backend"`
	Active    bool   `json:"active"`
}

func runSessionShow(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	info := sessionInfo{
		SessionID: a.Session.ID(),
		Backend:   a.Config.Session.Backend,
		Active:    a.Session.Has(),
	}
	return OutputJSON(a.Out, sessionJSON, "session show", func() (any, error) {
		if !sessionJSON {
			if info.Active {
				fmt.Fprintln(a.Out, info.SessionID)
			} else {
				fmt.Fprintln(a.Err, DimStyle.Render("No active session."))
			}
		}
		return info, nil
	})
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	if id == "" {
		return &UsageError{Message: "session id must not be empty"}
	}

	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Session.Set(cmd.Context(), id); err != nil {
		return NewCommandError("session", "set", err)
	}
	fmt.Fprintln(a.Out, RenderStatus("ok")+" Active session is now "+id)
	return nil
}

func runSessionClear(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Session.Has() {
		fmt.Fprintln(a.Out, DimStyle.Render("No active session."))
		return nil
	}
	ok, err := confirm("Forget session "+a.Session.ID()+"? The chat stays on the server.", sessionForce)
	if err != nil || !ok {
		return err
	}
	if err := a.Session.Clear(cmd.Context()); err != nil {
		return NewCommandError("session", "clear", err)
	}
	fmt.Fprintln(a.Out, RenderStatus("ok")+" Session cleared")
	return nil
}
