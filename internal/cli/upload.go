// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/composer"
)

var uploadJSON bool

var uploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Upload an image and print its URL",
	Long: `Upload an image file (at most 5 MB) to the server and print the URL
it is served from. The URL can be passed to other tools or pasted into a
message.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "output as JSON")
	uploadCmd.SilenceUsage = true
}

type uploadResult struct {
	File     string `json:"file"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
	ImageURL string `json:"image_url"`
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, logStderr)
	if err != nil {
		return err
	}
	defer a.Close()

	var notify composer.Notifier = NewWriterNotifier(a.Err)
	if uploadJSON {
		notify = composer.LogNotifier{Log: a.Log}
	}
	att := &attach.Attachment{}
	flow := attach.NewFlow(a.Client, att, notify, a.Log)

	return OutputJSON(a.Out, uploadJSON, "upload", func() (any, error) {
		if err := flow.Attach(cmd.Context(), expandPath(args[0])); err != nil {
			return nil, NewCommandError("upload", "image", err)
		}
		file, _ := att.File()
		res := uploadResult{File: file.Name, MIME: file.MIME, Size: file.Size, ImageURL: att.URL()}
		if !uploadJSON {
			fmt.Fprintln(a.Out, res.ImageURL)
		}
		return res, nil
	})
}
