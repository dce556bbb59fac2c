// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, set from main at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global flags.
var (
	flagConfigPath string
	flagEnvFile    string
	flagAPIURL     string
	flagLogLevel   string
	flagEphemeral  bool
)

// rootCmd runs the full-screen chat when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "chatdeck",
	Short: "Terminal chat client for the React code generation API",
	Long: `chatdeck talks to a code generation chat API: describe a component or
attach a UI mockup, and the assistant replies with React code.

Without a command it opens the full-screen chat. The active conversation
is remembered between runs until you delete it.`,
	Example: `  # Open the chat
  $ chatdeck

  # Ask once and print the reply
  $ chatdeck ask "a pricing table with three tiers"

  # Send a mockup
  $ chatdeck ask --image ./mockup.png

  # Run a local API server to develop against
  $ chatdeck serve`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "config file (default ~/.chatdeck/config.toml)")
	pf.StringVar(&flagEnvFile, "env", "", "load environment variables from this .env file")
	pf.StringVar(&flagAPIURL, "api-url", "", "chat API base URL")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&flagEphemeral, "ephemeral", false, "keep the session in memory only")

	rootCmd.AddCommand(
		chatCmd,
		askCmd,
		historyCmd,
		listCmd,
		deleteCmd,
		uploadCmd,
		sessionCmd,
		exportCmd,
		statusCmd,
		configCmd,
		serveCmd,
	)
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(formatVersion())
	return rootCmd.ExecuteContext(ctx)
}

func formatVersion() string {
	return fmt.Sprintf("chatdeck %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
