// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat screen.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatdeck/internal/attach"
	"github.com/jeranaias/chatdeck/internal/composer"
	"github.com/jeranaias/chatdeck/internal/session"
	"github.com/jeranaias/chatdeck/internal/ui/components"
	"github.com/jeranaias/chatdeck/internal/ui/styles"
)

// deleteConfirmWindow is how long a first Ctrl+D stays armed.
const deleteConfirmWindow = 3 * time.Second

// Options wires the chat screen to the client core.
type Options struct {
	Composer *composer.Composer
	Flow     *attach.Flow
	// Notices delivers composer and upload notifications as toasts.
	Notices <-chan composer.Notice
	// Session, when set, triggers a reload when the stored id changes
	// outside this process.
	Session *session.Context

	Theme          *styles.Theme
	ShowTimestamps bool
	APIURL         string
	Logger         *slog.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	composer *composer.Composer
	flow     *attach.Flow
	notices  <-chan composer.Notice
	changes  chan struct{}
	sessions chan string
	unsub    []func()

	ctx    context.Context
	cancel context.CancelFunc

	theme    *styles.Theme
	renderer *components.MessageRenderer
	toasts   *components.ToastManager
	keys     KeyMap
	apiURL   string
	log      *slog.Logger

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	confirmDeleteUntil time.Time
	now                func() time.Time
	clipboard          func(string) error
}

// New creates the chat screen.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme("auto")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe a component, or /attach <image>"
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		composer:  opts.Composer,
		flow:      opts.Flow,
		notices:   opts.Notices,
		changes:   make(chan struct{}, 1),
		sessions:  make(chan string, 1),
		ctx:       ctx,
		cancel:    cancel,
		theme:     theme,
		renderer:  components.NewMessageRenderer(theme, opts.ShowTimestamps),
		toasts:    components.NewToastManager(),
		keys:      DefaultKeyMap(),
		apiURL:    opts.APIURL,
		log:       logger,
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		now:       time.Now,
		clipboard: clipboard.WriteAll,
	}

	m.unsub = append(m.unsub, m.composer.Subscribe(signal(m.changes)))
	if opts.Session != nil {
		ch := m.sessions
		m.unsub = append(m.unsub, opts.Session.Subscribe(func(id string) {
			select {
			case ch <- id:
			default:
			}
		}))
	}
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the background listeners and loads the stored session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		components.ToastTickCmd(),
		waitForSignal(m.changes, listChangedMsg{}),
		waitForSession(m.sessions),
		waitForNotice(m.notices),
		m.bootstrapCmd(),
	)
}

// Close stops pending requests and detaches listeners.
func (m Model) Close() {
	m.cancel()
	for _, fn := range m.unsub {
		fn()
	}
}

// Toasts exposes the toast manager, for tests and embedding.
func (m Model) Toasts() *components.ToastManager {
	return m.toasts
}
