// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active chat",
	Long: `Delete the active chat on the server and forget it locally. Your next
message starts a new chat.

You will be asked to confirm unless --force is given. Without a terminal,
--force is required.`,
	Args: cobra.NoArgs,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip the confirmation prompt")
	deleteCmd.SilenceUsage = true
}

// confirm asks a yes/no question. force answers yes; without a terminal
// the answer must come from force.
func confirm(question string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if err := RequiresTTY("confirm"); err != nil {
		return false, &UsageError{Message: err.Error() + " (use --force)"}
	}
	ok := false
	prompt := &survey.Confirm{Message: question, Default: false}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func runDelete(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	id := a.Session.ID()
	if id == "" {
		fmt.Fprintln(a.Out, DimStyle.Render("There is no chat to delete."))
		return nil
	}

	ok, err := confirm(fmt.Sprintf("Delete chat %s?", id), deleteForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.Out, "Cancelled.")
		return nil
	}

	c, _ := a.Composer(NewWriterNotifier(a.Out))
	if err := c.DeleteSession(cmd.Context()); err != nil {
		return NewCommandError("delete", "session", err)
	}

	if store, err := a.Transcripts(); err == nil {
		if err := store.Delete(id); err != nil {
			a.Log.Debug("no cached transcript removed", "session_id", id, "error", err)
		}
	}
	return nil
}
