// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/export"
)

var (
	exportFormat     string
	exportOut        string
	exportSession    string
	exportNoMetadata bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active chat to a file",
	Long: `Write the messages of the active chat (or --session) to a Markdown,
JSON or HTML file. Code blocks are kept intact; the HTML export also
highlights them. Without --out the file is named after the chat and
written to the current directory. "--out -" writes to stdout.`,
	Example: `  $ chatdeck export
  $ chatdeck export --format html --out navbar.html
  $ chatdeck export --format json --out - | jq .messages`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md",
		"output format ("+strings.Join(export.Formats, ", ")+")")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file")
	exportCmd.Flags().StringVarP(&exportSession, "session", "s", "", "session id (default: active session)")
	exportCmd.Flags().BoolVar(&exportNoMetadata, "no-metadata", false, "leave out the metadata header")
	exportCmd.SilenceUsage = true
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := export.DefaultOptions()
	opts.IncludeMetadata = !exportNoMetadata
	opts.Theme = a.Config.UI.Theme
	exporter, err := export.New(exportFormat, opts)
	if err != nil {
		return &UsageError{Message: err.Error()}
	}

	id := exportSession
	if id == "" {
		id = a.Session.ID()
	}
	if id == "" {
		return NewCommandError("export", "session", composer.ErrNoSession)
	}

	t, cached, err := a.fetchTranscript(cmd.Context(), id)
	if err != nil {
		return NewCommandError("export", "fetch", err)
	}
	if cached {
		fmt.Fprintln(a.Err, WarningStyle.Render("Server unreachable; exporting the cached transcript."))
	}

	if exportOut == "-" {
		data, err := exporter.Export(t)
		if err != nil {
			return NewCommandError("export", "render", err)
		}
		_, err = a.Out.Write(data)
		return err
	}

	path := exportOut
	if path == "" {
		path = export.DefaultFilename(t, exporter, time.Now())
	}
	written, err := export.ToFile(t, exporter, path)
	if err != nil {
		return NewCommandError("export", "write", err)
	}
	fmt.Fprintln(a.Out, RenderStatus("ok")+fmt.Sprintf(" Exported %d messages to %s", len(t.Messages), written))
	return nil
}
