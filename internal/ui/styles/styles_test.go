// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_Modes(t *testing.T) {
	if th := NewTheme("light"); th.Dark || th.GlamourStyle() != "light" {
		t.Errorf("light theme: Dark=%v style=%q", th.Dark, th.GlamourStyle())
	}
	if th := NewTheme("DARK"); !th.Dark || th.GlamourStyle() != "dark" {
		t.Errorf("dark theme: Dark=%v style=%q", th.Dark, th.GlamourStyle())
	}
}

func TestRenderHelpers_IncludeIndicators(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"success", RenderSuccess("saved"), StatusIndicators.Success},
		{"error", RenderError("failed"), StatusIndicators.Error},
		{"warning", RenderWarning("careful"), StatusIndicators.Warning},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.want) {
			t.Errorf("%s: %q missing indicator %q", tt.name, tt.got, tt.want)
		}
	}
}
