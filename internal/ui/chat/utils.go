// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	attachCommand = "/attach"
	quitCommand   = "/quit"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true,
}

// parseCommand splits "/name arg" input. Unknown commands are not commands.
func parseCommand(text string) (name, arg string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(text, " ")
	switch name {
	case attachCommand, quitCommand:
		return name, strings.TrimSpace(arg), true
	}
	return "", "", false
}

// looksLikeImagePath reports whether text is the path of an existing image
// file, as produced by dragging a file onto most terminals.
func looksLikeImagePath(text string) (string, bool) {
	p := strings.Trim(strings.TrimSpace(text), `"'`)
	if p == "" || strings.ContainsAny(p, "\n") {
		return "", false
	}
	p = strings.ReplaceAll(p, `\ `, " ")
	p = expandHome(p)
	if !imageExts[strings.ToLower(filepath.Ext(p))] {
		return "", false
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
