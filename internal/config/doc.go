// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatdeck.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the cli package)
//   - Environment variables (CHATDECK_*, plus VITE_API_URL, OPENAI_API_KEY
//     and the standard AWS_* variables), optionally seeded from a .env file
//   - ~/.chatdeck/config.toml (or $CHATDECK_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := transport.NewClient(transport.Config{BaseURL: cfg.API.BaseURL})
package config
