// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Line-based chat with input history",
	Long: `Chat in the plain terminal, one line at a time. Arrow keys walk the
input history, which is kept between runs.

Commands:
  /attach <path>   upload an image for the next message
  /detach          drop the attached image
  /session         show the active session
  /delete          delete the active chat
  /help            show this list
  /quit            leave (Ctrl+D works too)`,
	Args: cobra.NoArgs,
}

func init() {
	// Assigned here to break the chatCmd -> runChat -> chatCmd.Long init cycle.
	chatCmd.RunE = runChat
	chatCmd.SilenceUsage = true
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is a liner state with history persisted under the config dir.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *lineReader) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// lineSource abstracts the prompt so the loop can run without a terminal.
type lineSource interface {
	ReadLine(prompt string) (string, error)
}

// repl is one interactive chat.
type repl struct {
	app      *App
	composer *composer.Composer
	flow     *attach.Flow
	md       *markdownRenderer
	out      io.Writer
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	lr := newLineReader()
	defer lr.Close()

	r := newREPL(a)
	return r.Run(cmd.Context(), lr)
}

func newREPL(a *App) *repl {
	c, flow := a.Composer(NewWriterNotifier(a.Err))
	return &repl{
		app:      a,
		composer: c,
		flow:     flow,
		md:       newMarkdownRenderer(a.Config.UI.Theme, renderWidth(a.Config.UI.WordWrap)),
		out:      a.Out,
	}
}

// Run loads the active chat and reads lines until /quit or end of input.
func (r *repl) Run(ctx context.Context, src lineSource) error {
	fmt.Fprintln(r.out, TitleStyle.Render("chatdeck chat"))
	if err := r.composer.Bootstrap(ctx); err == nil {
		for _, m := range r.composer.Messages() {
			printMessage(r.out, r.md, m)
		}
	}
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands."))

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := src.ReadLine(r.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if strings.HasPrefix(input, "/") {
			if quit := r.command(ctx, input); quit {
				return nil
			}
			continue
		}
		r.send(ctx, input)
	}
}

func (r *repl) prompt() string {
	if r.composer.Attachment().URL() != "" {
		return "[image] > "
	}
	return "> "
}

func (r *repl) send(ctx context.Context, text string) {
	// Blank lines are ignored unless an image is waiting to be sent.
	if text == "" && r.composer.Attachment().URL() == "" {
		return
	}
	reply, err := r.composer.Send(ctx, text)
	if err != nil {
		// The notifier already reported it.
		r.app.Log.Debug("send failed", "error", err)
		return
	}
	fmt.Fprintln(r.out)
	printMessage(r.out, r.md, reply)
}

// command handles a slash command and reports whether to quit.
func (r *repl) command(ctx context.Context, input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit", "/q":
		return true
	case "/help", "/?":
		fmt.Fprintln(r.out, chatCmd.Long)
	case "/attach":
		if arg == "" {
			fmt.Fprintln(r.out, WarningStyle.Render("Usage: /attach <path to image>"))
			break
		}
		_ = r.flow.Attach(ctx, expandPath(arg))
	case "/detach":
		r.composer.Attachment().Clear()
		fmt.Fprintln(r.out, DimStyle.Render("Image removed."))
	case "/session":
		if id := r.composer.SessionID(); id != "" {
			fmt.Fprintln(r.out, RenderLabel("Session")+ValueStyle.Render(id))
		} else {
			fmt.Fprintln(r.out, DimStyle.Render("No active session; your next message starts one."))
		}
	case "/delete":
		_ = r.composer.DeleteSession(ctx)
	default:
		fmt.Fprintln(r.out, WarningStyle.Render("Unknown command "+name+"; type /help"))
	}
	return false
}

// expandPath resolves a leading ~ and strips quotes added by drag and drop.
func expandPath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
