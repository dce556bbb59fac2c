// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

func TestToastManager_AddAndExpire(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewToastManager()
	m.SetClock(func() time.Time { return now })

	m.AddSuccess("Image uploaded successfully!")
	m.AddError("Failed to upload image")

	toasts := m.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("expected 2 toasts, got %d", len(toasts))
	}
	if toasts[0].Kind != ToastKindError {
		t.Errorf("newest toast should be first, got kind %v", toasts[0].Kind)
	}

	now = now.Add(5 * time.Second)
	toasts = m.Tick()
	if len(toasts) != 1 || toasts[0].Message != "Failed to upload image" {
		t.Errorf("success toast should expire first, got %+v", toasts)
	}

	now = now.Add(5 * time.Second)
	if m.Tick(); m.HasToasts() {
		t.Error("error toast should expire after 8s")
	}
}

func TestToastManager_MaxToasts(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 8; i++ {
		m.AddStatus("status")
	}
	if got := len(m.Toasts()); got != 5 {
		t.Errorf("expected 5 toasts, got %d", got)
	}
	m.Dismiss()
	if got := len(m.Toasts()); got != 4 {
		t.Errorf("expected 4 toasts after dismiss, got %d", got)
	}
}

func TestToastManager_AddNotice(t *testing.T) {
	m := NewToastManager()
	m.AddNotice(composer.Notice{Kind: composer.NoticeError, Text: "Error: boom"})
	m.AddNotice(composer.Notice{Kind: composer.NoticeSuccess, Text: "Your chat has been deleted"})

	toasts := m.Toasts()
	if toasts[0].Kind != ToastKindSuccess || toasts[1].Kind != ToastKindError {
		t.Errorf("unexpected kinds: %+v", toasts)
	}
}

func TestRenderToastStack(t *testing.T) {
	now := time.Now()
	toasts := []Toast{
		{ID: 1, Message: "Error: network down", Kind: ToastKindError, CreatedAt: now, Duration: ErrorToastDuration},
	}
	out := ansi.Strip(RenderToastStack(toasts, 80, now))
	if !strings.Contains(out, "Error: network down") {
		t.Errorf("toast text missing:\n%s", out)
	}
	if !strings.Contains(out, styles.StatusIndicators.Error) {
		t.Errorf("error indicator missing:\n%s", out)
	}
	if RenderToastStack(nil, 80, now) != "" {
		t.Error("empty stack should render nothing")
	}
}

// =============================================================================
// CODE BLOCKS AND MESSAGES
// =============================================================================

func TestCodeBlock_Render(t *testing.T) {
	b := model.CodeBlock{Language: "go", Code: "package main\n\nfunc main() {}\n"}
	out := ansi.Strip(NewCodeBlock(b, 80, true).Render())

	for _, want := range []string{"go", "package main", "func main() {}", "1", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered block missing %q:\n%s", want, out)
		}
	}
}

func TestCodeBlock_UnknownLanguage(t *testing.T) {
	b := model.CodeBlock{Language: "", Code: "just text"}
	out := ansi.Strip(NewCodeBlock(b, 40, false).Render())
	if !strings.Contains(out, "code") || !strings.Contains(out, "just text") {
		t.Errorf("unexpected render:\n%s", out)
	}
}

func TestMessageRenderer(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme("dark"), false)

	user := model.Message{ID: "1", Role: model.RoleUser, Content: "Build a navbar", HasImage: true, ImageURL: "https://img/x.png"}
	out := ansi.Strip(r.Render(user, 60))
	for _, want := range []string{"You", "Build a navbar", "[image]"} {
		if !strings.Contains(out, want) {
			t.Errorf("user render missing %q:\n%s", want, out)
		}
	}

	assistant := model.Message{ID: "2", Role: model.RoleAssistant,
		Content: "Here it is:\n```jsx\nconst Nav = () => <nav/>\n```\nEnjoy."}
	out = ansi.Strip(r.Render(assistant, 60))
	for _, want := range []string{"Assistant", "Here it is", "const Nav", "jsx", "Enjoy"} {
		if !strings.Contains(out, want) {
			t.Errorf("assistant render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "```") {
		t.Errorf("fence markers leaked:\n%s", out)
	}
}

func TestMessageRenderer_PendingMarker(t *testing.T) {
	r := NewMessageRenderer(styles.NewTheme("light"), true)
	pending := model.NewUserMessage("hi", "", "", time.Now())
	if out := ansi.Strip(r.Render(pending, 40)); !strings.Contains(out, "sending...") {
		t.Errorf("pending marker missing:\n%s", out)
	}
}
