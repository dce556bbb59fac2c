// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askImage string
	askJSON  bool
	askRaw   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message and print the reply",
	Long: `Send one message to the active chat (or start one) and print the
assistant's reply. With --image the file is uploaded first and sent with
the message; the message may then be left out.`,
	Example: `  $ chatdeck ask "a navbar with a search box"
  $ chatdeck ask --image mockup.png "use tailwind"
  $ chatdeck ask --raw "a card component" > Card.md`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askImage, "image", "i", "", "image file to attach")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the reply as JSON")
	askCmd.Flags().BoolVar(&askRaw, "raw", false, "print the reply without markdown rendering")
	askCmd.SilenceUsage = true
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && askImage == "" {
		return &UsageError{Message: "nothing to send: give a message or --image"}
	}

	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	c, flow := a.Composer(NewWriterNotifier(a.Err))
	ctx := cmd.Context()

	if askImage != "" {
		if err := flow.Attach(ctx, expandPath(askImage)); err != nil {
			return NewCommandError("ask", "attach", err)
		}
	}

	return OutputJSON(a.Out, askJSON, "ask", func() (any, error) {
		reply, err := c.Send(ctx, text)
		if err != nil {
			return nil, NewCommandError("ask", "send", err)
		}
		switch {
		case askJSON:
		case askRaw:
			fmt.Fprintln(a.Out, reply.Content)
		default:
			md := newMarkdownRenderer(a.Config.UI.Theme, renderWidth(a.Config.UI.WordWrap))
			fmt.Fprintln(a.Out, md.Render(reply.Content))
			fmt.Fprintln(a.Err, DimStyle.Render("session "+c.SessionID()))
		}
		return reply, nil
	})
}
