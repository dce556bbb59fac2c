// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatdeck/internal/config"
)

var (
	configJSON  bool
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
	Long: `Settings are read from ~/.chatdeck/config.toml (or --config), then
from a .env file, then from CHATDECK_* environment variables and finally
from command line flags. Secrets are masked when shown.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")

	for _, c := range []*cobra.Command{configShowCmd, configPathCmd, configInitCmd} {
		c.SilenceUsage = true
		configCmd.AddCommand(c)
	}
}

// configFilePath is --config, or the default location.
func configFilePath() string {
	if flagConfigPath != "" {
		return flagConfigPath
	}
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "(unknown)"
	}
	return path
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if configJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Redacted())
	}
	fmt.Fprintln(out, DimStyle.Render("# "+configFilePath()))
	fmt.Fprint(out, cfg.String())
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configFilePath()
	if _, err := os.Stat(path); err == nil && !configForce {
		return &UsageError{Message: path + " already exists (use --force to overwrite)"}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "init", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), RenderStatus("ok")+" Wrote "+path)
	return nil
}
