// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/model"
	"github.com/jeranaias/chatdeck/internal/session"
	"github.com/jeranaias/chatdeck/internal/transport"
	"github.com/jeranaias/chatdeck/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAPI struct {
	mu       sync.Mutex
	requests []transport.ChatRequest
	reply    model.Message
	deleted  []string
}

func (f *fakeAPI) CreateOrContinueChat(_ context.Context, req transport.ChatRequest) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, nil
}

func (f *fakeAPI) FetchSessionMessages(context.Context, string) ([]model.Message, error) {
	return nil, nil
}

func (f *fakeAPI) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeUploader struct{ name string }

func (u *fakeUploader) UploadImage(_ context.Context, filename string, r io.Reader) (string, error) {
	u.name = filename
	_, _ = io.Copy(io.Discard, r)
	return "http://images.test/ui-mockups/" + filename, nil
}

type harness struct {
	model    Model
	api      *fakeAPI
	uploader *fakeUploader
	session  *session.Context
	notices  *composer.QueueNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := &fakeAPI{reply: model.Message{
		ID:      "a1",
		Role:    model.RoleAssistant,
		Content: "Here you go:\n\n```jsx\nexport default function Button() {}\n```",
	}}
	up := &fakeUploader{}
	sc := session.NewContext(session.NewMemoryStore())
	notices := composer.NewQueueNotifier(16)
	att := &attach.Attachment{}

	c := composer.New(api, sc, att, notices, composer.WithLogger(logger))
	flow := attach.NewFlow(up, att, notices, logger)

	m := New(Options{
		Composer: c,
		Flow:     flow,
		Notices:  notices.C(),
		Session:  sc,
		Theme:    styles.NewTheme("dark"),
		Logger:   logger,
	})
	t.Cleanup(m.Close)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return &harness{model: updated.(Model), api: api, uploader: up, session: sc, notices: notices}
}

// press sends a key and returns the command it produced.
func (h *harness) press(t *testing.T, k tea.KeyMsg) tea.Cmd {
	t.Helper()
	updated, cmd := h.model.Update(k)
	h.model = updated.(Model)
	return cmd
}

// run executes cmd and feeds its message back into the model.
func (h *harness) run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return msg
}

func (h *harness) nextNotice(t *testing.T) composer.Notice {
	t.Helper()
	select {
	case n := <-h.notices.C():
		return n
	case <-time.After(time.Second):
		t.Fatal("no notice")
		return composer.Notice{}
	}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

// =============================================================================
// TESTS
// =============================================================================

func TestSendFlow(t *testing.T) {
	h := newHarness(t)
	h.model.input.SetValue("a blue button")

	msg := h.run(t, h.press(t, enter))

	done, ok := msg.(sendDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.Empty(t, h.model.input.Value())

	msgs := h.model.composer.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "a blue button", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	require.Len(t, h.api.requests, 1)
	assert.Equal(t, "a blue button", h.api.requests[0].Message)
}

func TestOwnSessionChangeKeepsConversation(t *testing.T) {
	h := newHarness(t)
	h.api.reply.SessionID = model.SessionRef("abc123")
	h.model.input.SetValue("a blue button")

	h.run(t, h.press(t, enter))
	require.Len(t, h.model.composer.Messages(), 2)
	require.False(t, h.model.composer.Loading())

	// The send stored the new id; its notification arrives after the reply.
	var changed tea.Msg
	select {
	case id := <-h.model.sessions:
		changed = sessionChangedMsg{id: id}
	case <-time.After(time.Second):
		t.Fatal("no session notification")
	}
	assert.Equal(t, sessionChangedMsg{id: "abc123"}, changed)

	updated, cmd := h.model.Update(changed)
	h.model = updated.(Model)
	require.NotNil(t, cmd)

	// Only the listener is re-armed: no reload is batched with it.
	h.model.sessions <- "marker"
	assert.Equal(t, sessionChangedMsg{id: "marker"}, cmd())
	assert.Len(t, h.model.composer.Messages(), 2)
}

func TestExternalSessionChangeReloads(t *testing.T) {
	h := newHarness(t)

	updated, cmd := h.model.Update(sessionChangedMsg{id: "from-elsewhere"})
	h.model = updated.(Model)
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.BatchMsg)
	assert.True(t, ok, "expected a reload batched with the listener")
}

func TestEmptySendReportsNotice(t *testing.T) {
	h := newHarness(t)

	msg := h.run(t, h.press(t, enter))

	assert.ErrorIs(t, msg.(sendDoneMsg).err, composer.ErrEmptyMessage)
	assert.Empty(t, h.api.requests)
	n := h.nextNotice(t)
	assert.Equal(t, composer.NoticeError, n.Kind)
	assert.Equal(t, composer.MsgEmpty, n.Text)
}

func TestNoticeBecomesToast(t *testing.T) {
	h := newHarness(t)

	updated, cmd := h.model.Update(noticeMsg{notice: composer.Notice{Kind: composer.NoticeSuccess, Text: "done"}})
	h.model = updated.(Model)

	assert.NotNil(t, cmd)
	require.Len(t, h.model.Toasts().Toasts(), 1)
	assert.Equal(t, "done", h.model.Toasts().Toasts()[0].Message)
	assert.Contains(t, h.model.View(), "done")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Set(context.Background(), "s1"))
	ctrlD := tea.KeyMsg{Type: tea.KeyCtrlD}

	assert.Nil(t, h.press(t, ctrlD))
	assert.Empty(t, h.api.deleted)
	require.Len(t, h.model.Toasts().Toasts(), 1)

	h.run(t, h.press(t, ctrlD))
	assert.Equal(t, []string{"s1"}, h.api.deleted)
	assert.False(t, h.session.Has())
}

func TestDeleteConfirmationExpires(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Set(context.Background(), "s1"))
	now := time.Now()
	h.model.now = func() time.Time { return now }
	ctrlD := tea.KeyMsg{Type: tea.KeyCtrlD}

	assert.Nil(t, h.press(t, ctrlD))
	now = now.Add(deleteConfirmWindow + time.Second)
	assert.Nil(t, h.press(t, ctrlD))
	assert.Empty(t, h.api.deleted)
}

func TestOtherKeyDisarmsDelete(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.Set(context.Background(), "s1"))
	ctrlD := tea.KeyMsg{Type: tea.KeyCtrlD}

	h.press(t, ctrlD)
	h.press(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, h.press(t, ctrlD))
	assert.Empty(t, h.api.deleted)
}

func TestCopyLastCode(t *testing.T) {
	h := newHarness(t)
	var copied string
	h.model.clipboard = func(s string) error {
		copied = s
		return nil
	}

	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Empty(t, copied)

	h.model.input.SetValue("button")
	h.run(t, h.press(t, enter))
	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlY})

	assert.Equal(t, "export default function Button() {}", copied)
}

func writePNG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mockup.png")
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPastedImagePathAttaches(t *testing.T) {
	h := newHarness(t)
	path := writePNG(t)
	h.model.input.SetValue("'" + path + "'")

	msg := h.run(t, h.press(t, enter))

	require.NoError(t, msg.(attachDoneMsg).err)
	assert.Equal(t, "mockup.png", h.uploader.name)
	assert.Equal(t, "http://images.test/ui-mockups/mockup.png", h.model.composer.Attachment().URL())
	assert.Contains(t, h.model.View(), "[image] mockup.png")
}

func TestAttachCommand(t *testing.T) {
	h := newHarness(t)
	path := writePNG(t)

	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, "/attach ", h.model.input.Value())

	h.model.input.SetValue("/attach " + path)
	h.run(t, h.press(t, enter))
	assert.Equal(t, attach.StateReady, h.model.composer.Attachment().State())

	h.press(t, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Equal(t, attach.StateNone, h.model.composer.Attachment().State())
}

func TestAttachedImageIsSent(t *testing.T) {
	h := newHarness(t)
	h.model.input.SetValue(writePNG(t))
	h.run(t, h.press(t, enter))

	h.run(t, h.press(t, enter))

	require.Len(t, h.api.requests, 1)
	assert.Equal(t, "http://images.test/ui-mockups/mockup.png", h.api.requests[0].ImageURL)
	assert.Equal(t, composer.DefaultImagePrompt, h.api.requests[0].Message)
}

func TestParseCommand(t *testing.T) {
	name, arg, ok := parseCommand("/attach  ~/a.png ")
	assert.True(t, ok)
	assert.Equal(t, attachCommand, name)
	assert.Equal(t, "~/a.png", arg)

	_, _, ok = parseCommand("/unknown")
	assert.False(t, ok)
	_, _, ok = parseCommand("hello")
	assert.False(t, ok)
}

func TestLooksLikeImagePath(t *testing.T) {
	path := writePNG(t)
	got, ok := looksLikeImagePath(path)
	assert.True(t, ok)
	assert.Equal(t, path, got)

	_, ok = looksLikeImagePath(filepath.Join(t.TempDir(), "missing.png"))
	assert.False(t, ok)
	_, ok = looksLikeImagePath("make a button")
	assert.False(t, ok)
}

func TestViewShowsSessionAndHints(t *testing.T) {
	h := newHarness(t)
	view := h.model.View()
	assert.Contains(t, view, "chatdeck")
	assert.Contains(t, view, "new chat")
	assert.Contains(t, view, "ctrl+o attach image")

	require.NoError(t, h.session.Set(context.Background(), "abc123"))
	assert.Contains(t, h.model.View(), "session abc123")
}
