// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/server"
)

var (
	serveAddr   string
	serveImages string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local chat API server",
	Long: `Run a server that speaks the same chat API as the production backend,
so the client can be used and tested end to end.

Messages are kept in a SQLite database. Images are stored on disk or in an
S3 bucket ([server.images] in the config). Replies come from an OpenAI
compatible model when OPENAI_API_KEY is set, and from a built-in component
generator otherwise.`,
	Example: `  $ chatdeck serve
  $ chatdeck serve --addr :8080 --images s3
  $ OPENAI_API_KEY=sk-... chatdeck serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveImages, "images", "", "image backend: disk or s3")
	serveCmd.SilenceUsage = true
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveImages != "" {
		cfg.Server.Images.Backend = serveImages
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, _, err := newLogger(logJSON, cfg.Log.Level, "", cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, cfg.Server, logger)
}
