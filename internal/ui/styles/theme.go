// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme groups the styles the chat screen draws with.
type Theme struct {
	// Dark is true when the dark variants are in use.
	Dark bool

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusBar   lipgloss.Style
	Hint        lipgloss.Style
	Muted       lipgloss.Style
	Separator   lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantBody  lipgloss.Style
	Pending        lipgloss.Style

	Attachment   lipgloss.Style
	InputBox     lipgloss.Style
	InputBlocked lipgloss.Style
}

// NewTheme builds the theme for mode ("auto", "dark" or "light"). Auto
// asks the terminal for its background.
func NewTheme(mode string) *Theme {
	dark := true
	switch strings.ToLower(mode) {
	case "light":
		dark = false
	case "dark":
	default:
		dark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(dark)

	return &Theme{
		Dark: dark,

		Header: lipgloss.NewStyle().
			Background(SurfaceDim).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),
		Hint: lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true),
		Muted: lipgloss.NewStyle().
			Foreground(TextMuted),
		Separator: lipgloss.NewStyle().
			Foreground(Overlay),

		UserLabel: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),
		AssistantLabel: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),
		UserBubble: lipgloss.NewStyle().
			Foreground(UserBubbleFg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(UserBubbleBorder).
			Padding(0, 1),
		AssistantBody: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(AssistantBubbleBorder).
			PaddingLeft(1),
		Pending: lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true),

		Attachment: lipgloss.NewStyle().
			Foreground(Amber),
		InputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Overlay),
		InputBlocked: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Amber),
	}
}

// GlamourStyle is the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.Dark {
		return "dark"
	}
	return "light"
}
